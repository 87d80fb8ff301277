package formats

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/mnott/pynalyze/internal/engine/resolver"
	"github.com/mnott/pynalyze/internal/engine/usage"
	"github.com/mnott/pynalyze/internal/shared/version"
)

// SARIF v2.1.0 schema – see https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json

const (
	sarifSchema  = "https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json"
	sarifVersion = "2.1.0"

	ruleIDUnusedImport   = "PYN001"
	ruleIDUnusedFunction = "PYN002"
)

// sarifReport is the top-level SARIF document.
type sarifReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string                 `json:"id"`
	Name             string                 `json:"name"`
	ShortDescription sarifMessage           `json:"shortDescription"`
	DefaultConfig    sarifRuleDefaultConfig `json:"defaultConfiguration"`
}

type sarifRuleDefaultConfig struct {
	Level string `json:"level"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI       string `json:"uri"`
	URIBaseID string `json:"uriBaseId"`
}

type sarifRegion struct {
	StartLine int `json:"startLine,omitempty"`
}

// GenerateSARIF builds a SARIF v2.1.0 document from unused-symbol findings.
// Absolute file paths are made relative to projectRoot when possible.
func GenerateSARIF(
	projectRoot string,
	imports []resolver.UnusedImport,
	functions []resolver.UnusedFunction,
) ([]byte, error) {
	results := make([]sarifResult, 0, len(imports)+len(functions))

	for _, f := range functions {
		results = append(results, sarifResult{
			RuleID:    ruleIDUnusedFunction,
			Level:     "warning",
			Message:   sarifMessage{Text: fmt.Sprintf("Function %q is defined but never called.", f.Name)},
			Locations: []sarifLocation{fileLocation(projectRoot, f.File, f.Line)},
		})
	}

	for _, imp := range imports {
		results = append(results, sarifResult{
			RuleID:    ruleIDUnusedImport,
			Level:     "warning",
			Message:   sarifMessage{Text: fmt.Sprintf("Import %q (%s) is never used.", imp.Name, ImportSource(imp))},
			Locations: []sarifLocation{fileLocation(projectRoot, imp.File, imp.Line)},
		})
	}

	report := sarifReport{
		Schema:  sarifSchema,
		Version: sarifVersion,
		Runs: []sarifRun{
			{
				Tool: sarifTool{
					Driver: sarifDriver{
						Name:    "pynalyze",
						Version: version.Version,
						Rules:   sarifRules(),
					},
				},
				Results: results,
			},
		},
	}

	return json.MarshalIndent(report, "", "  ")
}

// ImportSource renders where an import binding came from, the way the
// human report lists it: the module for direct imports, "from <module>"
// otherwise. Relative from-imports without a module render as "from .".
func ImportSource(imp resolver.UnusedImport) string {
	if imp.Kind == usage.ImportFrom {
		if imp.Module == "" {
			return "from ."
		}
		return "from " + imp.Module
	}
	return imp.Module
}

func sarifRules() []sarifRule {
	return []sarifRule{
		{
			ID:               ruleIDUnusedImport,
			Name:             "UnusedImport",
			ShortDescription: sarifMessage{Text: "An imported name is never referenced in the file."},
			DefaultConfig:    sarifRuleDefaultConfig{Level: "warning"},
		},
		{
			ID:               ruleIDUnusedFunction,
			Name:             "UnusedFunction",
			ShortDescription: sarifMessage{Text: "A top-level function is never called in the file."},
			DefaultConfig:    sarifRuleDefaultConfig{Level: "warning"},
		},
	}
}

func fileLocation(projectRoot, file string, line int) sarifLocation {
	loc := sarifLocation{
		PhysicalLocation: sarifPhysicalLocation{
			ArtifactLocation: sarifArtifactLocation{
				URI:       relativeURI(projectRoot, file),
				URIBaseID: "%SRCROOT%",
			},
		},
	}
	if line > 0 {
		loc.PhysicalLocation.Region = &sarifRegion{StartLine: line}
	}
	return loc
}

// relativeURI converts an absolute file path to a forward-slash relative URI
// anchored at projectRoot. If the path is already relative or projectRoot is
// empty, the original path (with forward slashes) is returned.
func relativeURI(projectRoot, filePath string) string {
	if projectRoot != "" && filepath.IsAbs(filePath) {
		rel, err := filepath.Rel(projectRoot, filePath)
		if err == nil {
			filePath = rel
		}
	}
	return filepath.ToSlash(filePath)
}
