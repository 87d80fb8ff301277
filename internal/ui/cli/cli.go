package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mnott/pynalyze/internal/core/config"
	"github.com/mnott/pynalyze/internal/core/errors"
	"github.com/mnott/pynalyze/internal/shared/version"
	"github.com/mnott/pynalyze/internal/ui/report"
)

// session carries the writers and global flags of one invocation so the
// command tree can be built more than once in a process.
type session struct {
	stdout io.Writer
	stderr io.Writer

	configPath string
	verbose    bool

	exitCode int
}

// Run executes the command line and returns the process exit status.
func Run(args []string, stdout, stderr io.Writer) int {
	s := &session{stdout: stdout, stderr: stderr}
	root := s.newRootCmd()
	root.SetArgs(withDefaultCommand(root, args))
	if err := root.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", errors.Detail(err))
		return report.ExitError
	}
	return s.exitCode
}

func (s *session) newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pynalyze",
		Short: "Find unused imports and functions in Python source",
		Long: `pynalyze parses Python files and reports imports whose names are never
used and top-level functions that are never called.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configureLogging(s.stderr, s.verbose)
		},
	}
	root.SetOut(s.stdout)
	root.SetErr(s.stderr)
	root.SetVersionTemplate("pynalyze {{.Version}}\n")

	root.PersistentFlags().StringVarP(&s.configPath, "config", "c", "", "config file (default ./"+config.DefaultPath+", optional)")
	root.PersistentFlags().BoolVarP(&s.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(s.newAnalyzeCmd(), s.newHistoryCmd(), s.newVersionCmd())
	return root
}

// withDefaultCommand routes invocations whose first non-flag argument is not
// a known sub-command to analyze, so `pynalyze file.py` works. Leading
// persistent flags are skipped, so `pynalyze -c x.toml history` is left alone.
func withDefaultCommand(root *cobra.Command, args []string) []string {
	if name, ok := firstCommandToken(args); ok {
		switch name {
		case "-h", "--help", "--version", "help", "completion",
			cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
			return args
		}
		for _, c := range root.Commands() {
			if c.Name() == name || c.HasAlias(name) {
				return args
			}
		}
	}
	return append([]string{"analyze"}, args...)
}

// firstCommandToken returns the first argument after any leading -c/--config
// and -v/--verbose flags.
func firstCommandToken(args []string) (string, bool) {
	for i := 0; i < len(args); i++ {
		switch arg := args[i]; {
		case arg == "-c" || arg == "--config":
			i++
		case strings.HasPrefix(arg, "--config="), strings.HasPrefix(arg, "-c"),
			arg == "-v", arg == "--verbose", strings.HasPrefix(arg, "--verbose="):
		default:
			return arg, true
		}
	}
	return "", false
}

// loadConfig resolves the config file and environment overrides. The
// returned path is empty when no file backs the config.
func (s *session) loadConfig() (*config.Config, string, error) {
	path, explicit := s.configPath, true
	if path == "" {
		path, explicit = config.DefaultPath, false
	}
	cfg, err := config.LoadOrDefault(path, explicit)
	if err != nil {
		return nil, "", fmt.Errorf("load config %s: %w", path, err)
	}
	config.ApplyEnvOverrides(cfg)

	if _, err := os.Stat(path); err != nil {
		path = ""
	}
	slog.Debug("configuration loaded", "path", path)
	return cfg, path, nil
}
