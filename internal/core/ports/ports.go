package ports

import (
	"context"

	"github.com/mnott/pynalyze/internal/data/history"
	"github.com/mnott/pynalyze/internal/engine/resolver"
)

// HistoryStore abstracts run persistence for the history command and
// --history recording.
type HistoryStore interface {
	SaveRun(run history.Run) (string, error)
	RecentRuns(file string, limit int) ([]history.Run, error)
	LoadFindings(runID string) ([]history.Finding, error)
	Close() error
}

// FileReport is the outcome of analysing one file. Err is set when the file
// could not be read or parsed; the finding lists are then empty.
type FileReport struct {
	Path            string
	UnusedImports   []resolver.UnusedImport
	UnusedFunctions []resolver.UnusedFunction
	Err             error
}

// HasFindings reports whether any finding is present.
func (r FileReport) HasFindings() bool {
	return len(r.UnusedImports) > 0 || len(r.UnusedFunctions) > 0
}

// AnalyzeRequest defines an analysis run over files and directories.
type AnalyzeRequest struct {
	Paths []string
}

// AnalyzeResult holds one report per analysed file, in input order.
type AnalyzeResult struct {
	Reports []FileReport
}

// AnalysisService is the driving port used by the CLI.
type AnalysisService interface {
	AnalyzeFile(ctx context.Context, path string) FileReport
	Run(ctx context.Context, req AnalyzeRequest) (AnalyzeResult, error)
	Watch(ctx context.Context, req AnalyzeRequest, onReport func(FileReport)) error
}
