package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mnott/pynalyze/internal/shared/util"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pynalyze_parsing_seconds",
		Help:    "Time spent parsing and lowering a Python source file.",
		Buckets: prometheus.DefBuckets,
	})

	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pynalyze_analysis_seconds",
		Help:    "Time spent on high-level analysis tasks.",
		Buckets: prometheus.DefBuckets,
	}, []string{"task"})

	FilesAnalyzedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pynalyze_files_analyzed_total",
		Help: "Total number of files analysed successfully.",
	})

	FindingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pynalyze_findings_total",
		Help: "Total number of unused symbols reported, by kind.",
	}, []string{"kind"})

	ErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pynalyze_errors_total",
		Help: "Total number of files that failed analysis, by error code.",
	}, []string{"code"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pynalyze_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	HistoryWritesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pynalyze_history_writes_total",
		Help: "Total number of analysis runs persisted to the history store.",
	})
)

// Finding kinds used as the FindingsTotal label.
const (
	KindImport   = "import"
	KindFunction = "function"
)

// WriteMetricsFile dumps the default registry in the Prometheus text format,
// suitable for the node_exporter textfile collector.
func WriteMetricsFile(path string) error {
	if err := util.EnsureParentDir(path); err != nil {
		return err
	}
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
