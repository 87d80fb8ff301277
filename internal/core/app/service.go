package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mnott/pynalyze/internal/core/errors"
	"github.com/mnott/pynalyze/internal/core/ports"
	"github.com/mnott/pynalyze/internal/core/watcher"
	"github.com/mnott/pynalyze/internal/shared/observability"
	"github.com/mnott/pynalyze/internal/shared/util"
)

type analysisService struct {
	app *App
}

var _ ports.AnalysisService = (*analysisService)(nil)

func NewAnalysisService(app *App) ports.AnalysisService {
	return &analysisService{app: app}
}

func (a *App) AnalysisService() ports.AnalysisService {
	return NewAnalysisService(a)
}

func (s *analysisService) AnalyzeFile(ctx context.Context, path string) ports.FileReport {
	return s.app.AnalyzeFile(ctx, path)
}

// Run analyses every file named by req sequentially, one fresh analysis per
// file. A failing file does not stop the others; cancellation is checked
// between files.
func (s *analysisService) Run(ctx context.Context, req ports.AnalyzeRequest) (ports.AnalyzeResult, error) {
	ctx, span := observability.Tracer.Start(ctx, "analysisService.Run", trace.WithAttributes(attribute.Int("paths", len(req.Paths))))
	defer span.End()

	if s.app == nil {
		return ports.AnalyzeResult{}, fmt.Errorf("app is required")
	}
	if len(req.Paths) == 0 {
		return ports.AnalyzeResult{}, errors.New(errors.CodeValidationError, "at least one path is required")
	}

	start := time.Now()
	defer func() {
		observability.AnalysisDuration.WithLabelValues("run").Observe(time.Since(start).Seconds())
	}()

	files, err := s.app.ScanPaths(req.Paths)
	if err != nil {
		return ports.AnalyzeResult{}, errors.AddContext(err, errors.CtxOperation, "scan_paths")
	}
	slog.Debug("scan complete", "files", len(files))

	result := ports.AnalyzeResult{Reports: make([]ports.FileReport, 0, len(files))}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Reports = append(result.Reports, s.app.AnalyzeFile(ctx, path))
	}
	return result, nil
}

// Watch runs an initial analysis, then re-analyses changed files until ctx
// is done. Re-analysis batches are paced by the configured rate limit and
// reports are delivered to onReport one file at a time, never concurrently.
func (s *analysisService) Watch(ctx context.Context, req ports.AnalyzeRequest, onReport func(ports.FileReport)) error {
	if onReport == nil {
		return errors.New(errors.CodeValidationError, "report callback is required")
	}

	initial, err := s.Run(ctx, req)
	if err != nil {
		return err
	}
	for _, rep := range initial.Reports {
		onReport(rep)
	}

	cfg := s.app.Config()
	limiter := util.NewLimiter(cfg.Watch.MaxRate, 1)
	var w *watcher.Watcher
	w, err = watcher.NewWatcher(
		cfg.Watch.Debounce,
		cfg.Exclude.Dirs,
		cfg.Exclude.Files,
		func(paths []string) {
			if err := limiter.Wait(ctx, 1); err != nil {
				return
			}
			s.handleChanges(ctx, paths, onReport)
			// Pick up a debounce changed by a config reload.
			w.SetDebounce(s.app.Config().Watch.Debounce)
		},
	)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "start watcher")
	}
	defer w.Close()

	if err := w.Watch(req.Paths); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "watch paths")
	}
	slog.Info("watching for changes", "paths", len(req.Paths))

	<-ctx.Done()
	return nil
}

func (s *analysisService) handleChanges(ctx context.Context, paths []string, onReport func(ports.FileReport)) {
	for _, path := range paths {
		if ctx.Err() != nil {
			return
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			slog.Info("file removed", "path", path)
			continue
		}
		onReport(s.app.AnalyzeFile(ctx, path))
	}
}
