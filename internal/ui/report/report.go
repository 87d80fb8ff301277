package report

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"

	"github.com/mnott/pynalyze/internal/core/config"
	"github.com/mnott/pynalyze/internal/core/errors"
	"github.com/mnott/pynalyze/internal/core/ports"
	"github.com/mnott/pynalyze/internal/engine/resolver"
	"github.com/mnott/pynalyze/internal/ui/report/formats"
)

// Exit statuses of an analysis run.
const (
	ExitClean    = 0
	ExitFindings = 1
	ExitError    = 2
)

// Options selects what is reported and how.
type Options struct {
	ReportImports   bool
	ReportFunctions bool
	Format          string
	Color           bool
}

// Quiet reports whether only machine-parsable lines are printed.
func (o Options) Quiet() bool {
	return o.Format == config.FormatQuiet
}

// Reporter renders file reports to out and processing errors to errOut.
type Reporter struct {
	opts   Options
	out    io.Writer
	errOut io.Writer

	banner  lipgloss.Style
	finding lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
}

func NewReporter(out, errOut io.Writer, opts Options) *Reporter {
	r := &Reporter{opts: opts, out: out, errOut: errOut}
	outRenderer := lipgloss.NewRenderer(out)
	errRenderer := lipgloss.NewRenderer(errOut)
	r.banner = outRenderer.NewStyle()
	r.finding = outRenderer.NewStyle()
	r.success = outRenderer.NewStyle()
	r.failure = errRenderer.NewStyle()
	if opts.Color {
		r.banner = r.banner.Foreground(lipgloss.Color("#FBBF24"))
		r.finding = r.finding.Foreground(lipgloss.Color("#F87171"))
		r.success = r.success.Foreground(lipgloss.Color("#10B981"))
		r.failure = r.failure.Foreground(lipgloss.Color("#F87171"))
	}
	return r
}

// Render writes every report in the configured format. SARIF collects all
// findings into one document; the other formats stream per file.
func (r *Reporter) Render(reports []ports.FileReport) error {
	if r.opts.Format == config.FormatSARIF {
		for _, rep := range reports {
			if rep.Err != nil {
				r.RenderError(rep)
			}
		}
		return r.renderSARIF(reports)
	}
	for _, rep := range reports {
		if rep.Err != nil {
			r.RenderError(rep)
			continue
		}
		if err := r.renderFile(rep); err != nil {
			return err
		}
	}
	return nil
}

// RenderFile writes one report, routing a failed analysis to errOut.
func (r *Reporter) RenderFile(rep ports.FileReport) error {
	return r.Render([]ports.FileReport{rep})
}

func (r *Reporter) renderFile(rep ports.FileReport) error {
	imports, functions := r.selected(rep)
	if r.opts.Quiet() {
		for _, f := range functions {
			if _, err := fmt.Fprintf(r.out, "func:%s:%d:%s\n", rep.Path, f.Line, f.Name); err != nil {
				return err
			}
		}
		for _, imp := range imports {
			if _, err := fmt.Fprintf(r.out, "import:%s:%d:%s\n", rep.Path, imp.Line, imp.Name); err != nil {
				return err
			}
		}
		return nil
	}

	if len(functions) > 0 {
		lines := []string{r.banner.Render(fmt.Sprintf("Found %d unused functions in %s:", len(functions), rep.Path))}
		for _, f := range functions {
			lines = append(lines, r.finding.Render(fmt.Sprintf("- %s (line %d)", f.Name, f.Line)))
		}
		if err := r.writeBlock(lines); err != nil {
			return err
		}
	}
	if len(imports) > 0 {
		lines := []string{r.banner.Render(fmt.Sprintf("Found %d unused imports in %s:", len(imports), rep.Path))}
		for _, imp := range imports {
			lines = append(lines, r.finding.Render(fmt.Sprintf("- %s (%s, line %d)", imp.Name, formats.ImportSource(imp), imp.Line)))
		}
		if err := r.writeBlock(lines); err != nil {
			return err
		}
	}
	if len(imports) == 0 && len(functions) == 0 {
		_, err := fmt.Fprintln(r.out, r.success.Render(fmt.Sprintf("No unused functions or imports found in %s!", rep.Path)))
		return err
	}
	return nil
}

// writeBlock prints a blank separator line followed by lines.
func (r *Reporter) writeBlock(lines []string) error {
	if _, err := fmt.Fprintln(r.out); err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(r.out, line); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reporter) renderSARIF(reports []ports.FileReport) error {
	var imports []resolver.UnusedImport
	var functions []resolver.UnusedFunction
	for _, rep := range reports {
		if rep.Err != nil {
			continue
		}
		imp, fn := r.selected(rep)
		imports = append(imports, imp...)
		functions = append(functions, fn...)
	}
	root, _ := os.Getwd()
	data, err := formats.GenerateSARIF(root, imports, functions)
	if err != nil {
		return fmt.Errorf("generate sarif: %w", err)
	}
	_, err = fmt.Fprintln(r.out, string(data))
	return err
}

// RenderError prints the error line for a failed report.
func (r *Reporter) RenderError(rep ports.FileReport) {
	fmt.Fprintln(r.errOut, r.failure.Render(ErrorMessage(rep.Path, rep.Err)))
}

func (r *Reporter) selected(rep ports.FileReport) ([]resolver.UnusedImport, []resolver.UnusedFunction) {
	var imports []resolver.UnusedImport
	var functions []resolver.UnusedFunction
	if r.opts.ReportImports {
		imports = rep.UnusedImports
	}
	if r.opts.ReportFunctions {
		functions = rep.UnusedFunctions
	}
	return imports, functions
}

// ErrorMessage renders a processing error the way the CLI reports it.
func ErrorMessage(path string, err error) string {
	if errors.IsCode(err, errors.CodeNotFound) {
		return fmt.Sprintf("Error: File '%s' not found.", path)
	}
	return fmt.Sprintf("Error analyzing file: %s", errors.Detail(err))
}

// ExitCode folds reports into a process exit status: any processing error
// wins over findings in an enabled category.
func ExitCode(reports []ports.FileReport, opts Options) int {
	code := ExitClean
	for _, rep := range reports {
		if rep.Err != nil {
			return ExitError
		}
		if (opts.ReportImports && len(rep.UnusedImports) > 0) ||
			(opts.ReportFunctions && len(rep.UnusedFunctions) > 0) {
			code = ExitFindings
		}
	}
	return code
}
