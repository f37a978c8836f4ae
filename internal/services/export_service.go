package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"eixo/internal/amqp"
	"eixo/internal/core"
	"eixo/internal/export"
	"eixo/internal/finance"
	applog "eixo/internal/log"
	"eixo/internal/session"
	"eixo/internal/sheets"
	"eixo/internal/storage"
)

// ErrFormatNotSupported is returned for formats a premium user may request
// but the service cannot produce.
var ErrFormatNotSupported = errors.New("export format not supported")

// JobPublisher queues export jobs. *amqp.Client satisfies it.
type JobPublisher interface {
	PublishExportJob(ctx context.Context, msg *amqp.ExportJobMessage) error
}

// ExportService produces CSV downloads and spreadsheet exports. Spreadsheet
// exports go through the job queue when a publisher is configured and run
// inline otherwise.
type ExportService struct {
	txs       storage.TransactionRepository
	publisher JobPublisher
	exporter  sheets.TransactionExporter
	loc       *time.Location
	now       func() time.Time
	logger    *applog.Logger
	events    *applog.StructuredLogger
}

// NewExportService wires the service. publisher may be nil; exporter may be
// nil when only CSV is needed.
func NewExportService(txs storage.TransactionRepository, publisher JobPublisher, exporter sheets.TransactionExporter, loc *time.Location, logger *applog.Logger) *ExportService {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	if loc == nil {
		loc = time.UTC
	}
	return &ExportService{
		txs:       txs,
		publisher: publisher,
		exporter:  exporter,
		loc:       loc,
		now:       time.Now,
		logger:    logger.WithComponent(applog.ComponentExport),
		events:    applog.NewStructuredLogger(logger),
	}
}

// WriteCSV writes every transaction of the session's user to w. CSV is
// available on every plan.
func (s *ExportService) WriteCSV(ctx context.Context, sess *session.Session, w io.Writer) error {
	txs, err := s.txs.ListTransactions(ctx, sess.UserID)
	if err != nil {
		return fmt.Errorf("list transactions: %w", err)
	}
	return export.WriteCSV(w, txs)
}

// CSVFilename is the download name for a CSV made now.
func (s *ExportService) CSVFilename() string {
	return export.Filename(core.DateOf(s.now().In(s.loc)))
}

type ExportResult struct {
	Format finance.ExportFormat `json:"format"`
	JobID  string               `json:"job_id"`
	Queued bool                 `json:"queued"`
	// Ref identifies the written spreadsheet tab for inline exports.
	Ref string `json:"ref,omitempty"`
}

// Export starts a non-CSV export. Free users get finance.ErrPremiumRequired;
// PDF yields ErrFormatNotSupported.
func (s *ExportService) Export(ctx context.Context, sess *session.Session, format finance.ExportFormat) (ExportResult, error) {
	if err := finance.CheckExport(sess, format); err != nil {
		s.events.LogPaywall(ctx, sess.UserID, "export_"+string(format), sess.Persona().Key())
		return ExportResult{}, err
	}
	if format != finance.FormatSheets {
		return ExportResult{}, fmt.Errorf("%w: %s", ErrFormatNotSupported, format)
	}

	msg := amqp.NewExportJobMessage(sess.UserID, string(format))
	res := ExportResult{Format: format, JobID: msg.JobID}

	if s.publisher != nil {
		err := s.publisher.PublishExportJob(ctx, msg)
		if err == nil {
			s.logger.InfoContext(ctx, "Export job queued", applog.FieldUserID, sess.UserID, applog.FieldJobID, msg.JobID)
			res.Queued = true
			return res, nil
		}
		s.logger.ErrorContext(ctx, "Failed to queue export job, exporting inline",
			applog.FieldJobID, msg.JobID, applog.FieldError, err, applog.FieldErrorType, applog.ErrorTypeNetwork)
	} else {
		s.logger.WarnContext(ctx, "AMQP client not available, exporting inline", applog.FieldJobID, msg.JobID)
	}

	ref, err := s.RunExportJob(ctx, msg)
	if err != nil {
		return ExportResult{}, err
	}
	res.Ref = ref
	return res, nil
}

// RunExportJob writes the user's transactions to a new spreadsheet tab. The
// export worker calls it for every queued job.
func (s *ExportService) RunExportJob(ctx context.Context, msg *amqp.ExportJobMessage) (string, error) {
	if s.exporter == nil {
		return "", fmt.Errorf("%w: no spreadsheet exporter configured", ErrFormatNotSupported)
	}
	if msg.Format != string(finance.FormatSheets) {
		return "", fmt.Errorf("%w: %s", ErrFormatNotSupported, msg.Format)
	}
	txs, err := s.txs.ListTransactions(ctx, msg.UserID)
	if err != nil {
		return "", fmt.Errorf("list transactions: %w", err)
	}
	ref, err := s.exporter.ExportTransactions(ctx, jobTitle(msg, s.loc), export.Rows(txs))
	if err != nil {
		return "", fmt.Errorf("export to spreadsheet: %w", err)
	}
	s.logger.InfoContext(ctx, "Export written",
		applog.FieldUserID, msg.UserID, applog.FieldJobID, msg.JobID, "ref", ref, "rows", len(txs))
	return ref, nil
}

func jobTitle(msg *amqp.ExportJobMessage, loc *time.Location) string {
	id := msg.JobID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("EIXO %s %s", msg.RequestedAt.In(loc).Format(time.DateOnly), id)
}
