package http

import (
	"bytes"
	"net/http"

	"eixo/internal/finance"
	"eixo/internal/session"
)

// handleExport serves ?format=csv as a download on every plan. Other formats
// are premium and POST only: sheets is queued (202) or written inline (200).
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	format, err := finance.ParseExportFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if r.Method == http.MethodGet && format != finance.FormatCSV {
		ErrorResponse(http.StatusMethodNotAllowed, msgExportPostOnly).
			Header("Allow", http.MethodPost).
			Write(w)
		return
	}

	if format == finance.FormatCSV {
		var buf bytes.Buffer
		if err := s.exports.WriteCSV(r.Context(), sess, &buf); err != nil {
			s.writeError(w, r, err)
			return
		}
		s.metrics.exportsStarted.Inc()
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="`+s.exports.CSVFilename()+`"`)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buf.Bytes())
		return
	}

	res, err := s.exports.Export(r.Context(), sess, format)
	if err != nil {
		s.writeGated(w, r, sess, "export", err)
		return
	}
	s.metrics.exportsStarted.Inc()
	status := http.StatusOK
	if res.Queued {
		status = http.StatusAccepted
	}
	NewJSONResponse().Status(status).Body(res).Write(w)
}
