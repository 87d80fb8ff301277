package app

import (
	"context"
	stderrors "errors"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mnott/pynalyze/internal/core/errors"
	"github.com/mnott/pynalyze/internal/core/ports"
	"github.com/mnott/pynalyze/internal/data/history"
	"github.com/mnott/pynalyze/internal/engine/usage"
	"github.com/mnott/pynalyze/internal/shared/observability"
)

// AnalyzeFile reads, parses and analyses one file with a fresh visitor.
// Failures are returned inside the report, never as a partial result.
func (a *App) AnalyzeFile(ctx context.Context, path string) ports.FileReport {
	ctx, span := observability.Tracer.Start(ctx, "app.AnalyzeFile", trace.WithAttributes(attribute.String("path", path)))
	defer span.End()

	start := time.Now()
	rep := a.analyze(ctx, path)
	observability.AnalysisDuration.WithLabelValues("file").Observe(time.Since(start).Seconds())

	if rep.Err != nil {
		span.RecordError(rep.Err)
		span.SetStatus(codes.Error, string(errors.CodeOf(rep.Err)))
		observability.ErrorsTotal.WithLabelValues(string(errors.CodeOf(rep.Err))).Inc()
		slog.Debug("analysis failed", "path", path, "error", rep.Err)
		return rep
	}

	observability.FilesAnalyzedTotal.Inc()
	observability.FindingsTotal.WithLabelValues(observability.KindImport).Add(float64(len(rep.UnusedImports)))
	observability.FindingsTotal.WithLabelValues(observability.KindFunction).Add(float64(len(rep.UnusedFunctions)))
	span.SetAttributes(
		attribute.Int("unused_imports", len(rep.UnusedImports)),
		attribute.Int("unused_functions", len(rep.UnusedFunctions)),
	)
	a.record(rep)
	return rep
}

func (a *App) analyze(ctx context.Context, path string) ports.FileReport {
	rep := ports.FileReport{Path: path}
	if err := ctx.Err(); err != nil {
		rep.Err = err
		return rep
	}

	content, err := os.ReadFile(path)
	if err != nil {
		rep.Err = readError(path, err)
		return rep
	}

	parseStart := time.Now()
	mod, err := a.Parser.Parse(path, content)
	observability.ParsingDuration.Observe(time.Since(parseStart).Seconds())
	if err != nil {
		rep.Err = err
		return rep
	}

	cfg, r, _ := a.snapshot()
	rec := usage.Collect(mod, usage.Options{IncludeAsync: cfg.Analysis.IncludeAsync})
	if slog.Default().Enabled(ctx, slog.LevelDebug) {
		slog.Debug("usage collected",
			"path", path,
			"used", rec.UsedNames(),
			"called", rec.CalledNames(),
			"decorated", rec.DecoratedNames(),
		)
	}
	if cfg.Analysis.Imports {
		rep.UnusedImports = r.FindUnusedImports(path, rec)
	}
	if cfg.Analysis.Functions {
		rep.UnusedFunctions = r.FindUnusedFunctions(path, rec)
	}
	return rep
}

func readError(path string, err error) error {
	var de error
	switch {
	case stderrors.Is(err, fs.ErrNotExist):
		de = errors.Wrap(err, errors.CodeNotFound, "file not found")
	case stderrors.Is(err, fs.ErrPermission):
		de = errors.Wrap(err, errors.CodePermissionDenied, "permission denied")
	default:
		de = errors.Wrap(err, errors.CodeInternal, "read file")
	}
	return errors.AddContext(de, errors.CtxPath, path)
}

// record persists a successful report when history is enabled. Storage
// failures are logged and do not fail the analysis.
func (a *App) record(rep ports.FileReport) {
	_, _, store := a.snapshot()
	if store == nil {
		return
	}

	run := history.Run{
		File:            rep.Path,
		UnusedImports:   len(rep.UnusedImports),
		UnusedFunctions: len(rep.UnusedFunctions),
	}
	for _, f := range rep.UnusedFunctions {
		run.Findings = append(run.Findings, history.Finding{Kind: history.KindFunction, Name: f.Name, Line: f.Line})
	}
	for _, imp := range rep.UnusedImports {
		run.Findings = append(run.Findings, history.Finding{Kind: history.KindImport, Name: imp.Name, Line: imp.Line})
	}

	id, err := store.SaveRun(run)
	if err != nil {
		slog.Warn("failed to record analysis run", "path", rep.Path, "error", err)
		return
	}
	observability.HistoryWritesTotal.Inc()
	slog.Debug("recorded analysis run", "path", rep.Path, "run", id)
}
