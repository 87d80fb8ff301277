package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mnott/pynalyze/internal/core/config"
	"github.com/mnott/pynalyze/internal/core/errors"
	"github.com/mnott/pynalyze/internal/data/history"
	"github.com/mnott/pynalyze/internal/ui/report"
)

const defaultHistoryLimit = 20

func (s *session) newHistoryCmd() *cobra.Command {
	var (
		limit int
		runID string
	)
	cmd := &cobra.Command{
		Use:   "history [path]",
		Short: "List recorded analysis runs",
		Long: `History prints recorded runs as TSV, newest first, with the change in
total findings against the previous run of the same file. With --run it
prints the findings of a single run instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := s.loadConfig()
			if err != nil {
				return err
			}
			if err := config.Validate(cfg); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			if _, err := os.Stat(cfg.History.Path); os.IsNotExist(err) {
				return errors.AddContext(
					errors.New(errors.CodeNotFound, "no history recorded; run analyze with --history first"),
					errors.CtxPath, cfg.History.Path,
				)
			}

			store, err := history.Open(cfg.History.Path)
			if err != nil {
				return err
			}
			defer store.Close()
			slog.Debug("reading history", "path", store.Path(), "limit", limit)

			if runID != "" {
				findings, err := store.LoadFindings(runID)
				if err != nil {
					return err
				}
				_, err = s.stdout.Write(report.RenderFindingsTSV(findings))
				return err
			}

			file := ""
			if len(args) == 1 {
				file = args[0]
			}
			runs, err := store.RecentRuns(file, limit)
			if err != nil {
				return err
			}
			_, err = s.stdout.Write(report.RenderHistoryTSV(runs))
			return err
		},
	}
	cmd.Flags().IntVar(&limit, "limit", defaultHistoryLimit, "maximum number of runs to list (0 for all)")
	cmd.Flags().StringVar(&runID, "run", "", "print the findings of this run ID")
	return cmd
}
