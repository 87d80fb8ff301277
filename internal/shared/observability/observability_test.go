package observability

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteMetricsFile(t *testing.T) {
	FilesAnalyzedTotal.Inc()
	FindingsTotal.WithLabelValues(KindImport).Add(2)

	path := filepath.Join(t.TempDir(), "out", "pynalyze.prom")
	if err := WriteMetricsFile(path); err != nil {
		t.Fatalf("WriteMetricsFile failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"pynalyze_files_analyzed_total", `pynalyze_findings_total{kind="import"}`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("expected %q in metrics output", want)
		}
	}
}

func TestSetupTracing_Disabled(t *testing.T) {
	shutdown, err := SetupTracing(context.Background(), "  ")
	if err != nil {
		t.Fatalf("expected no error without endpoint, got %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("noop shutdown failed: %v", err)
	}

	_, span := Tracer.Start(context.Background(), "noop")
	span.End()
}
