package resolver

import (
	"reflect"
	"testing"

	"github.com/mnott/pynalyze/internal/engine/parser"
	"github.com/mnott/pynalyze/internal/engine/usage"
)

func analyze(t *testing.T, r *Resolver, src string) ([]UnusedImport, []UnusedFunction) {
	t.Helper()
	mod, err := parser.NewParser().Parse("sample.py", []byte(src))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	rec := usage.Collect(mod, usage.Options{})
	return r.FindUnusedImports("sample.py", rec), r.FindUnusedFunctions("sample.py", rec)
}

func mustResolver(t *testing.T, imports, functions []string) *Resolver {
	t.Helper()
	r, err := NewResolver(imports, functions)
	if err != nil {
		t.Fatalf("NewResolver failed: %v", err)
	}
	return r
}

func importNames(in []UnusedImport) []string {
	out := make([]string, 0, len(in))
	for _, u := range in {
		out = append(out, u.Name)
	}
	return out
}

func functionNames(in []UnusedFunction) []string {
	out := make([]string, 0, len(in))
	for _, u := range in {
		out = append(out, u.Name)
	}
	return out
}

func TestFindUnused_Scenarios(t *testing.T) {
	tests := []struct {
		name          string
		src           string
		wantImports   []string
		wantFunctions []string
	}{
		{
			name:          "Called function, unused import",
			src:           "import os\ndef foo(): return 1\nfoo()\n",
			wantImports:   []string{"os"},
			wantFunctions: []string{},
		},
		{
			name:          "Nothing referenced",
			src:           "from math import pi\ndef bar(): pass\n",
			wantImports:   []string{"pi"},
			wantFunctions: []string{"bar"},
		},
		{
			name:          "Any textual occurrence counts as usage",
			src:           "import os\nimport sys\nx = [sys for _ in range(1)]\nos = 3\n",
			wantImports:   []string{},
			wantFunctions: []string{},
		},
		{
			name:          "Attribute base counts as import usage",
			src:           "import os\nprint(os.getcwd())\n",
			wantImports:   []string{},
			wantFunctions: []string{},
		},
		{
			name:          "Decorated zero-call function is exempt",
			src:           "@register\ndef hook():\n    pass\n",
			wantImports:   []string{},
			wantFunctions: []string{},
		},
		{
			name:          "Methods are never reported",
			src:           "class A:\n    def never_called(self):\n        pass\n",
			wantImports:   []string{},
			wantFunctions: []string{},
		},
		{
			name:          "Wildcard import never reported",
			src:           "from os.path import *\n",
			wantImports:   []string{},
			wantFunctions: []string{},
		},
		{
			name:          "Reading a function without calling it is not a call",
			src:           "def cb(): pass\nhandlers = [cb]\n",
			wantImports:   []string{},
			wantFunctions: []string{"cb"},
		},
		{
			name:          "Dotted direct import keyed by its full name",
			src:           "import os.path\nos.path.join('a')\n",
			wantImports:   []string{"os.path"},
			wantFunctions: []string{},
		},
	}

	r := mustResolver(t, nil, nil)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			imports, functions := analyze(t, r, tc.src)
			if got := importNames(imports); !reflect.DeepEqual(got, tc.wantImports) {
				t.Errorf("unused imports = %v, want %v", got, tc.wantImports)
			}
			if got := functionNames(functions); !reflect.DeepEqual(got, tc.wantFunctions) {
				t.Errorf("unused functions = %v, want %v", got, tc.wantFunctions)
			}
		})
	}
}

func TestFindUnused_LinesAndKinds(t *testing.T) {
	r := mustResolver(t, nil, nil)
	imports, functions := analyze(t, r, "from math import pi\ndef bar(): pass\n")

	if len(imports) != 1 || imports[0].Line != 1 || imports[0].Kind != usage.ImportFrom || imports[0].Module != "math" {
		t.Errorf("unexpected unused import: %+v", imports)
	}
	if len(functions) != 1 || functions[0].Line != 2 || functions[0].File != "sample.py" {
		t.Errorf("unexpected unused function: %+v", functions)
	}
}

func TestFindUnused_SelfMethodCoincidence(t *testing.T) {
	// A module-level helper is considered called when any method calls
	// self.helper(); matching is by name only.
	src := `
def helper():
    return 1

class Unrelated:
    def run(self):
        return self.helper()
`
	r := mustResolver(t, nil, nil)
	_, functions := analyze(t, r, src)
	if len(functions) != 0 {
		t.Errorf("expected helper to be hidden by the self.helper() coincidence, got %v", functionNames(functions))
	}
}

func TestFindUnused_AliasRedeclarationKeepsLaterLine(t *testing.T) {
	src := "import json as j\nimport simplejson as j\n"
	r := mustResolver(t, nil, nil)
	imports, _ := analyze(t, r, src)
	if len(imports) != 1 || imports[0].Line != 2 || imports[0].Module != "simplejson" {
		t.Errorf("expected only the later j on line 2, got %+v", imports)
	}
}

func TestFindUnused_SortedByLineThenDeclarationOrder(t *testing.T) {
	src := "import zeta, alpha, mid\nfrom m import b\ndef second(): pass\ndef first(): pass\n"
	r := mustResolver(t, nil, nil)
	imports, functions := analyze(t, r, src)

	if got, want := importNames(imports), []string{"zeta", "alpha", "mid", "b"}; !reflect.DeepEqual(got, want) {
		t.Errorf("import order = %v, want %v", got, want)
	}
	if got, want := functionNames(functions), []string{"second", "first"}; !reflect.DeepEqual(got, want) {
		t.Errorf("function order = %v, want %v", got, want)
	}
}

func TestFindUnused_Idempotent(t *testing.T) {
	src := "import a, b, c\nfrom d import e, f\ndef g(): pass\ndef h(): pass\n"
	r := mustResolver(t, nil, nil)
	firstImports, firstFunctions := analyze(t, r, src)
	for i := 0; i < 5; i++ {
		imports, functions := analyze(t, r, src)
		if !reflect.DeepEqual(imports, firstImports) || !reflect.DeepEqual(functions, firstFunctions) {
			t.Fatalf("run %d differs from the first run", i)
		}
	}
}

func TestFindUnused_Exclusions(t *testing.T) {
	src := `
from typing import List
import logging as log
import os
def main(): pass
def test_thing(): pass
def other(): pass
`
	r := mustResolver(t, []string{"typing", "log"}, []string{"main", "test_*"})
	imports, functions := analyze(t, r, src)

	if got, want := importNames(imports), []string{"os"}; !reflect.DeepEqual(got, want) {
		t.Errorf("unused imports = %v, want %v", got, want)
	}
	if got, want := functionNames(functions), []string{"other"}; !reflect.DeepEqual(got, want) {
		t.Errorf("unused functions = %v, want %v", got, want)
	}
}

func TestNewResolver_InvalidPattern(t *testing.T) {
	if _, err := NewResolver([]string{"[unclosed"}, nil); err == nil {
		t.Error("expected error for invalid import pattern")
	}
	if _, err := NewResolver(nil, []string{"{a,b"}); err == nil {
		t.Error("expected error for invalid function pattern")
	}
}
