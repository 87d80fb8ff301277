package history

import "time"

// SchemaVersion is the newest migration this build understands.
const SchemaVersion = 1

// Finding kinds stored in the findings table.
const (
	KindImport   = "import"
	KindFunction = "function"
)

// Run is one recorded analysis of one file.
type Run struct {
	ID              string
	Timestamp       time.Time
	File            string
	UnusedImports   int
	UnusedFunctions int
	Findings        []Finding
}

type Finding struct {
	Kind string
	Name string
	Line int
}

// Total is the number of findings of both kinds.
func (r Run) Total() int {
	return r.UnusedImports + r.UnusedFunctions
}

// Delta is the change in total findings relative to the previous run of the
// same file. ok is false for the first recorded run of a file.
type Delta struct {
	RunID string
	Diff  int
	OK    bool
}

// Deltas pairs each run (newest first, as returned by RecentRuns) with the
// change against the next older run of the same file within the slice.
func Deltas(runs []Run) []Delta {
	out := make([]Delta, len(runs))
	for i, run := range runs {
		out[i] = Delta{RunID: run.ID}
		for j := i + 1; j < len(runs); j++ {
			if runs[j].File == run.File {
				out[i].Diff = run.Total() - runs[j].Total()
				out[i].OK = true
				break
			}
		}
	}
	return out
}
