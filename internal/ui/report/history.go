package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/mnott/pynalyze/internal/data/history"
)

// RenderHistoryTSV renders runs (newest first) as a tab-separated table with
// the change in total findings against the previous run of the same file.
func RenderHistoryTSV(runs []history.Run) []byte {
	var buf strings.Builder

	buf.WriteString("Timestamp\tRun\tFile\tUnusedFunctions\tUnusedImports\tDelta\n")
	deltas := history.Deltas(runs)
	for i, run := range runs {
		delta := "-"
		if deltas[i].OK {
			delta = fmt.Sprintf("%+d", deltas[i].Diff)
		}
		buf.WriteString(fmt.Sprintf(
			"%s\t%s\t%s\t%d\t%d\t%s\n",
			run.Timestamp.UTC().Format(time.RFC3339),
			shortID(run.ID),
			run.File,
			run.UnusedFunctions,
			run.UnusedImports,
			delta,
		))
	}
	return []byte(buf.String())
}

// RenderFindingsTSV lists the findings of one stored run.
func RenderFindingsTSV(findings []history.Finding) []byte {
	var buf strings.Builder
	buf.WriteString("Kind\tLine\tName\n")
	for _, f := range findings {
		buf.WriteString(fmt.Sprintf("%s\t%d\t%s\n", f.Kind, f.Line, f.Name))
	}
	return []byte(buf.String())
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
