package httpapi

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/alexanderramin/timekeep/internal/app"
	"github.com/alexanderramin/timekeep/internal/contract"
	"github.com/alexanderramin/timekeep/internal/domain"
	"github.com/alexanderramin/timekeep/internal/export"
)

const (
	headerExportStatus = "X-Export-Status"
	exportComplete     = "complete"
)

func (s *Server) handleActive(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	views, err := s.activity.ListActive(r.Context(), app.ActiveFilter{
		TaskType:  q.Get("taskType"),
		Priority:  domain.TaskPriority(q.Get("priority")),
		ProjectID: q.Get("projectId"),
		UserID:    q.Get("userId"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, contract.NewActiveSessionsResponse(views))
}

func (s *Server) handleAggregate(w http.ResponseWriter, r *http.Request) {
	snap, err := s.aggregate.Aggregate(r.Context(), reportRequestFrom(r.URL.Query()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleExport streams the export body. Errors found before the first byte
// get a normal JSON error response. Once bytes are on the wire a failure
// aborts the connection so the client never sees a clean end of stream.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format, err := export.ParseFormat(q.Get("format"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	subject, err := export.ParseSubject(q.Get("subject"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	h := w.Header()
	h.Set("Content-Type", format.ContentType())
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "timekeep-"+string(subject)+"."+format.Extension()))
	h.Set("Trailer", headerExportStatus)

	cw := &countingWriter{w: w}
	_, err = s.export.Export(r.Context(), cw, app.ExportRequest{
		ReportRequest: reportRequestFrom(q),
		Format:        format,
		Subject:       subject,
	})
	if err == nil {
		h.Set(headerExportStatus, exportComplete)
		return
	}
	if cw.n == 0 {
		h.Del("Trailer")
		h.Del("Content-Disposition")
		s.writeError(w, r, err)
		return
	}
	s.logger.ErrorContext(r.Context(), "export aborted",
		slog.Int64("bytes", cw.n),
		slog.String("error", err.Error()))
	panic(http.ErrAbortHandler)
}

// reportRequestFrom reads range, from, to and the scope parameters. Without
// any range parameter the current week is used.
func reportRequestFrom(q url.Values) app.ReportRequest {
	req := app.NewReportRequest()
	if q.Has("range") || q.Has("from") || q.Has("to") {
		req.Range = q.Get("range")
		req.From = q.Get("from")
		req.To = q.Get("to")
	}
	req.MemberID = q.Get("memberId")
	req.TaskID = q.Get("taskId")
	req.ProjectID = q.Get("projectId")
	return req
}

// countingWriter records how many bytes reached the response and forwards
// flushes so streamed rows leave the server promptly.
type countingWriter struct {
	w http.ResponseWriter
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

func (c *countingWriter) Flush() {
	if f, ok := c.w.(http.Flusher); ok {
		f.Flush()
	}
}
