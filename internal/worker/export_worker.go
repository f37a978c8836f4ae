// Package worker consumes queued export jobs.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"eixo/internal/amqp"
	applog "eixo/internal/log"
	"eixo/internal/services"
)

// JobRunner executes one export job. *services.ExportService satisfies it.
type JobRunner interface {
	RunExportJob(ctx context.Context, msg *amqp.ExportJobMessage) (string, error)
}

// Consumer delivers jobs to a handler until ctx is done. *amqp.Client
// satisfies it.
type Consumer interface {
	Run(ctx context.Context, handler func(context.Context, *amqp.ExportJobMessage) error) error
}

// ExportWorker runs queued spreadsheet exports.
type ExportWorker struct {
	runner     JobRunner
	logger     *applog.Logger
	jobTimeout time.Duration

	processed atomic.Int64
	failed    atomic.Int64
}

func NewExportWorker(runner JobRunner, logger *applog.Logger) *ExportWorker {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &ExportWorker{
		runner:     runner,
		logger:     logger.WithComponent(applog.ComponentWorker),
		jobTimeout: 2 * time.Minute,
	}
}

// HandleExportJob processes one message. Unsupported formats are dropped
// without error so the broker does not redeliver them.
func (w *ExportWorker) HandleExportJob(ctx context.Context, msg *amqp.ExportJobMessage) error {
	w.logger.InfoContext(ctx, "Processing export job",
		applog.FieldJobID, msg.JobID,
		applog.FieldUserID, msg.UserID,
		applog.FieldFormat, msg.Format)

	if msg.UserID == "" {
		w.failed.Add(1)
		w.logger.WarnContext(ctx, "Dropping export job without user", applog.FieldJobID, msg.JobID)
		return nil
	}

	jobCtx, cancel := context.WithTimeout(ctx, w.jobTimeout)
	defer cancel()

	ref, err := w.runner.RunExportJob(jobCtx, msg)
	if errors.Is(err, services.ErrFormatNotSupported) {
		w.failed.Add(1)
		w.logger.WarnContext(ctx, "Dropping unsupported export job",
			applog.FieldJobID, msg.JobID, applog.FieldFormat, msg.Format, applog.FieldError, err)
		return nil
	}
	if err != nil {
		w.failed.Add(1)
		w.logger.ErrorContext(ctx, "Export job failed",
			applog.FieldJobID, msg.JobID, applog.FieldError, err)
		return fmt.Errorf("run export job %s: %w", msg.JobID, err)
	}

	w.processed.Add(1)
	w.logger.InfoContext(ctx, "Export job completed", applog.FieldJobID, msg.JobID, "ref", ref)
	return nil
}

// Run consumes jobs until ctx is cancelled.
func (w *ExportWorker) Run(ctx context.Context, consumer Consumer) error {
	w.logger.Info("Export worker started")
	err := consumer.Run(ctx, w.HandleExportJob)
	w.logger.Info("Export worker stopped",
		"processed", w.processed.Load(),
		"failed", w.failed.Load())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Stats returns how many jobs succeeded and failed so far.
func (w *ExportWorker) Stats() (processed, failed int64) {
	return w.processed.Load(), w.failed.Load()
}
