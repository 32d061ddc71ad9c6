package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/alexanderramin/timekeep/internal/app"
	"github.com/alexanderramin/timekeep/internal/export"
	"github.com/alexanderramin/timekeep/internal/repository"
)

// ExportConfig configures streaming exports.
type ExportConfig struct {
	Report    ReportConfig
	FlushRows int
	// StreamTimeout bounds a whole log stream, which outlives a single
	// store call.
	StreamTimeout time.Duration
}

type exportService struct {
	logs       repository.TimeLogRepo
	tasks      app.TaskDirectory
	aggregates AggregateService
	cfg        ExportConfig
	observer   UseCaseObserver
}

func NewExportService(
	logs repository.TimeLogRepo,
	tasks app.TaskDirectory,
	aggregates AggregateService,
	cfg ExportConfig,
	observers ...UseCaseObserver,
) ExportService {
	cfg.Report = cfg.Report.withDefaults()
	if cfg.FlushRows <= 0 {
		cfg.FlushRows = export.DefaultFlushRows
	}
	if cfg.StreamTimeout <= 0 {
		cfg.StreamTimeout = 10 * time.Minute
	}
	return &exportService{
		logs:       logs,
		tasks:      tasks,
		aggregates: aggregates,
		cfg:        cfg,
		observer:   useCaseObserverOrNoop(observers),
	}
}

// Export writes the requested subject to w. When it returns an error after
// rows were written, the output is incomplete and carries no completion
// marker.
func (s *exportService) Export(ctx context.Context, w io.Writer, req app.ExportRequest) (result *app.ExportResult, err error) {
	startedAt := time.Now()
	fields := map[string]any{"format": string(req.Format), "subject": string(req.Subject), "range": req.Range}
	defer func() {
		if result != nil {
			fields["rows"] = result.Rows
		}
		observeUseCase(ctx, s.observer, "export", startedAt, fields, err)
	}()

	format, err := export.ParseFormat(string(req.Format))
	if err != nil {
		return nil, err
	}
	subject, err := export.ParseSubject(string(req.Subject))
	if err != nil {
		return nil, err
	}

	if subject == export.SubjectSnapshot {
		return s.exportSnapshot(ctx, w, format, req.ReportRequest)
	}
	return s.exportLogs(ctx, w, format, req.ReportRequest)
}

func (s *exportService) exportSnapshot(ctx context.Context, w io.Writer, format export.Format, req app.ReportRequest) (*app.ExportResult, error) {
	snap, err := s.aggregates.Aggregate(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := export.WriteSnapshot(w, format, snap); err != nil {
		return nil, err
	}
	return &app.ExportResult{
		Format:  format,
		Subject: export.SubjectSnapshot,
		Rows:    len(snap.Members) + 1,
		Start:   snap.Start,
		End:     snap.End,
	}, nil
}

func (s *exportService) exportLogs(ctx context.Context, w io.Writer, format export.Format, req app.ReportRequest) (*app.ExportResult, error) {
	rng, err := resolveReportRange(req, s.cfg.Report)
	if err != nil {
		return nil, err
	}
	if err := rng.Validate(); err != nil {
		return nil, err
	}
	scope, err := resolveScope(ctx, req, s.tasks, s.cfg.Report.Store)
	if err != nil {
		return nil, err
	}

	lw, err := export.NewLogWriter(w, format, s.cfg.FlushRows)
	if err != nil {
		return nil, err
	}

	err = callWithTimeout(ctx, s.cfg.StreamTimeout, func(ctx context.Context) error {
		return s.logs.Stream(ctx, logFilter(rng, scope), lw.WriteLog)
	})
	if err != nil {
		return nil, fmt.Errorf("export interrupted after %d rows: %w", lw.Rows(), classifyStoreErr(err))
	}
	if err := lw.Close(); err != nil {
		return nil, err
	}

	return &app.ExportResult{
		Format:  format,
		Subject: export.SubjectLogs,
		Rows:    lw.Rows(),
		Start:   rng.Start,
		End:     rng.End,
	}, nil
}
