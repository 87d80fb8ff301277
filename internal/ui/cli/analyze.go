package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mnott/pynalyze/internal/core/app"
	"github.com/mnott/pynalyze/internal/core/config"
	"github.com/mnott/pynalyze/internal/core/errors"
	"github.com/mnott/pynalyze/internal/core/ports"
	"github.com/mnott/pynalyze/internal/shared/observability"
	"github.com/mnott/pynalyze/internal/ui/report"
)

const shutdownTimeout = 5 * time.Second

type analyzeOptions struct {
	quiet        bool
	noImports    bool
	noFunctions  bool
	includeAsync bool
	noColor      bool
	watch        bool
	history      bool
	format       string
	metricsFile  string
	metricsAddr  string
}

func (s *session) newAnalyzeCmd() *cobra.Command {
	opts := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze <path>...",
		Short: "Report unused imports and functions",
		Long: `Analyze parses each Python file (directories are walked for *.py files)
and reports imports that are never referenced and top-level functions that
are never called.

Exit status is 0 when nothing was found, 1 when unused code was found and 2
when a file could not be analysed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.runAnalyze(cmd, opts, args)
		},
	}

	f := cmd.Flags()
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "only print machine-parsable findings")
	f.BoolVar(&opts.noImports, "no-imports", false, "don't check for unused imports")
	f.BoolVar(&opts.noFunctions, "no-functions", false, "don't check for unused functions")
	f.StringVar(&opts.format, "format", "", "output format: text, quiet or sarif (default from config)")
	f.BoolVar(&opts.includeAsync, "include-async", false, "treat top-level async def like def")
	f.BoolVar(&opts.noColor, "no-color", false, "disable coloured output")
	f.BoolVarP(&opts.watch, "watch", "w", false, "re-analyse on file changes until interrupted")
	f.BoolVar(&opts.history, "history", false, "record each analysis into the history database")
	f.StringVar(&opts.metricsFile, "metrics-file", "", "write prometheus metrics to this textfile on exit")
	f.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve /metrics and /health on this address while watching")
	return cmd
}

// apply layers explicitly set flags over cfg.
func (o *analyzeOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	if o.noImports {
		cfg.Analysis.Imports = false
	}
	if o.noFunctions {
		cfg.Analysis.Functions = false
	}
	if o.includeAsync {
		cfg.Analysis.IncludeAsync = true
	}
	if cmd.Flags().Changed("format") {
		cfg.Output.Format = strings.ToLower(strings.TrimSpace(o.format))
	}
	if o.quiet {
		cfg.Output.Format = config.FormatQuiet
	}
	if o.noColor {
		cfg.Output.Color = false
	}
	if o.history {
		cfg.History.Enabled = true
	}
	if cmd.Flags().Changed("metrics-file") {
		cfg.Observability.MetricsFile = o.metricsFile
	}
	if cmd.Flags().Changed("metrics-addr") {
		cfg.Observability.MetricsAddr = o.metricsAddr
	}
}

func reportOptions(cfg *config.Config) report.Options {
	return report.Options{
		ReportImports:   cfg.Analysis.Imports,
		ReportFunctions: cfg.Analysis.Functions,
		Format:          cfg.Output.Format,
		Color:           cfg.Output.Color,
	}
}

func (s *session) runAnalyze(cmd *cobra.Command, opts *analyzeOptions, args []string) error {
	cfg, cfgPath, err := s.loadConfig()
	if err != nil {
		return err
	}
	opts.apply(cmd, cfg)
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if opts.watch && cfg.Output.Format == config.FormatSARIF {
		return errors.New(errors.CodeNotSupported, "sarif output is not supported in watch mode")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.Observability.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			slog.Warn("failed to flush traces", "error", err)
		}
	}()

	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(context.Background()); err != nil {
			slog.Warn("failed to close history store", "error", err)
		}
	}()

	ropts := reportOptions(cfg)
	reporter := report.NewReporter(s.stdout, s.stderr, ropts)
	req := ports.AnalyzeRequest{Paths: args}

	if opts.watch {
		err = s.watch(ctx, a, reporter, req, opts, cmd, cfgPath)
	} else {
		err = s.analyzeOnce(ctx, a, reporter, req, ropts)
	}

	if path := cfg.Observability.MetricsFile; path != "" {
		if werr := observability.WriteMetricsFile(path); werr != nil {
			slog.Warn("failed to write metrics file", "path", path, "error", werr)
		}
	}
	return err
}

func (s *session) analyzeOnce(ctx context.Context, a *app.App, reporter *report.Reporter, req ports.AnalyzeRequest, ropts report.Options) error {
	res, err := a.AnalysisService().Run(ctx, req)
	if err != nil {
		return err
	}
	if err := reporter.Render(res.Reports); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	s.exitCode = report.ExitCode(res.Reports, ropts)
	return nil
}

// watch streams reports until SIGINT or SIGTERM. The config file, when one
// exists, is reloaded on change; the reporter keeps its startup format.
func (s *session) watch(ctx context.Context, a *app.App, reporter *report.Reporter, req ports.AnalyzeRequest, opts *analyzeOptions, cmd *cobra.Command, cfgPath string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if addr := a.Config().Observability.MetricsAddr; addr != "" {
		srv := NewObservabilityServer(addr, a)
		if err := srv.Start(ctx); err != nil {
			return fmt.Errorf("start observability server: %w", err)
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Stop(sctx); err != nil {
				slog.Warn("observability server shutdown failed", "error", err)
			}
		}()
	}

	if cfgPath != "" {
		cw := config.NewWatcher(cfgPath, func(cfg *config.Config) {
			opts.apply(cmd, cfg)
			if err := a.ApplyConfig(cfg); err != nil {
				slog.Warn("reloaded config rejected", "path", cfgPath, "error", err)
			}
		})
		if err := cw.Start(ctx); err != nil {
			slog.Warn("config hot reload disabled", "path", cfgPath, "error", err)
		} else {
			defer cw.Stop()
		}
	}

	err := a.AnalysisService().Watch(ctx, req, func(rep ports.FileReport) {
		if err := reporter.RenderFile(rep); err != nil {
			slog.Warn("failed to write report", "path", rep.Path, "error", err)
		}
	})
	if err != nil {
		return err
	}
	s.exitCode = report.ExitClean
	return nil
}
