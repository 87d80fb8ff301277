package usage

import (
	"reflect"
	"testing"

	"github.com/mnott/pynalyze/internal/engine/parser"
	"github.com/mnott/pynalyze/internal/engine/pyast"
)

func collectSource(t *testing.T, src string, opts Options) *Records {
	t.Helper()
	mod, err := parser.NewParser().Parse("test.py", []byte(src))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	return Collect(mod, opts)
}

func TestVisitor_Imports(t *testing.T) {
	rec := collectSource(t, `
import os
import numpy as np, sys
from math import pi, tau as TAU
from . import sibling
from ..pkg.mod import thing
from star import *
import os.path
`, Options{})

	tests := []struct {
		name   string
		module string
		line   int
		kind   ImportKind
	}{
		{"os", "os", 2, ImportDirect},
		{"np", "numpy", 3, ImportDirect},
		{"sys", "sys", 3, ImportDirect},
		{"pi", "math", 4, ImportFrom},
		{"TAU", "math", 4, ImportFrom},
		{"sibling", "", 5, ImportFrom},
		{"thing", "pkg.mod", 6, ImportFrom},
		{"os.path", "os.path", 8, ImportDirect},
	}
	for _, tc := range tests {
		imp, ok := rec.Imports[tc.name]
		if !ok {
			t.Errorf("expected import record for %q", tc.name)
			continue
		}
		if imp.Module != tc.module || imp.Line != tc.line || imp.Kind != tc.kind {
			t.Errorf("import %q = %+v, want module=%q line=%d kind=%s", tc.name, imp, tc.module, tc.line, tc.kind)
		}
	}
	if _, ok := rec.Imports["*"]; ok {
		t.Error("wildcard import must never be recorded")
	}
	if len(rec.Imports) != len(tests) {
		t.Errorf("expected %d import records, got %d", len(tests), len(rec.Imports))
	}
}

func TestVisitor_LaterImportReplacesEarlier(t *testing.T) {
	rec := collectSource(t, `
import json as j
import simplejson as j
`, Options{})

	imp := rec.Imports["j"]
	if imp.Line != 3 || imp.Module != "simplejson" {
		t.Errorf("expected later declaration on line 3 from simplejson, got %+v", imp)
	}
	if len(rec.Imports) != 1 {
		t.Errorf("expected a single slot for j, got %d", len(rec.Imports))
	}
}

func TestVisitor_FunctionsClassesAndDecorators(t *testing.T) {
	rec := collectSource(t, `
def plain():
    def nested():
        pass
    return nested

@app.route("/")
def handler():
    return helper()

class Service:
    def method(self):
        def inner():
            pass
        return self.other()

    @staticmethod
    def tool():
        pass

def plain():
    pass
`, Options{})

	if fn, ok := rec.Functions["plain"]; !ok || fn.Line != 21 {
		t.Errorf("expected redefinition of plain on line 21, got %+v (%v)", fn, ok)
	}
	if _, ok := rec.Functions["nested"]; !ok {
		t.Error("expected function nested in a function body to be recorded")
	}
	for _, name := range []string{"handler", "method", "inner", "tool"} {
		if _, ok := rec.Functions[name]; ok {
			t.Errorf("did not expect %q in function records", name)
		}
	}
	if !rec.Decorated.Has("handler") {
		t.Error("expected handler in decorated set")
	}
	if rec.Decorated.Has("tool") {
		t.Error("class-body functions never enter the decorated set")
	}
	for _, name := range []string{"helper", "other"} {
		if !rec.Called.Has(name) {
			t.Errorf("expected %q in called names", name)
		}
	}
	for _, name := range []string{"app", "self", "nested", "staticmethod"} {
		if !rec.Used.Has(name) {
			t.Errorf("expected %q in used names", name)
		}
	}
}

func TestVisitor_SelfAttributeReadCountsAsCall(t *testing.T) {
	rec := collectSource(t, `
class Worker:
    def start(self):
        register(self.on_event)
`, Options{})

	if !rec.Called.Has("on_event") {
		t.Error("expected self attribute read to count as a call")
	}
	if !rec.Called.Has("register") {
		t.Error("expected bare call target in called names")
	}
}

func TestVisitor_BindingPositionsAreNotUsages(t *testing.T) {
	rec := collectSource(t, `
import a, b, c, d, e, f, g

def fn(a, b: int = 1, *c, d=default_value, **e) -> ret_type:
    global f
    obj.g = call(g=1)
    try:
        pass
    except ValueError as err:
        pass
`, Options{})

	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "err"} {
		if rec.Used.Has(name) {
			t.Errorf("%q occurs only in binding positions and must not be used", name)
		}
	}
	for _, name := range []string{"int", "default_value", "ret_type", "obj", "ValueError", "call"} {
		if !rec.Used.Has(name) {
			t.Errorf("expected %q in used names", name)
		}
	}
}

func TestVisitor_DescendsIntoEveryExpression(t *testing.T) {
	rec := collectSource(t, `
values = [transform(x) for x in source if keep(x)]
label = f"{prefix}-{value!r}"
handler = lambda item=fallback: process(item)
with opener() as fh:
    pass
`, Options{})

	for _, name := range []string{"transform", "keep", "opener", "process"} {
		if !rec.Called.Has(name) {
			t.Errorf("expected %q in called names", name)
		}
	}
	for _, name := range []string{"source", "prefix", "value", "fallback", "fh"} {
		if !rec.Used.Has(name) {
			t.Errorf("expected %q in used names", name)
		}
	}
}

func TestVisitor_AsyncFunctions(t *testing.T) {
	src := `
async def fetch():
    return await other()
`
	if rec := collectSource(t, src, Options{}); len(rec.Functions) != 0 {
		t.Errorf("async def must not be recorded by default, got %v", rec.Functions)
	}
	rec := collectSource(t, src, Options{IncludeAsync: true})
	if fn, ok := rec.Functions["fetch"]; !ok || fn.Line != 2 {
		t.Errorf("expected fetch on line 2 with async enabled, got %+v (%v)", fn, ok)
	}
	if !rec.Called.Has("other") {
		t.Error("expected await target to be recorded as called")
	}
}

func TestVisitor_ClassContextRestored(t *testing.T) {
	v := NewVisitor(Options{})
	v.Visit(&pyast.Module{Body: []pyast.Node{
		&pyast.ClassDef{Name: "Outer", Line: 1, Body: []pyast.Node{
			&pyast.ClassDef{Name: "Inner", Line: 2},
			&pyast.FunctionDef{Name: "method", Line: 3},
		}},
		&pyast.FunctionDef{Name: "after", Line: 4},
	}})

	if v.inClass || v.CurrentClass() != "" {
		t.Errorf("expected class context cleared, got inClass=%v class=%q", v.inClass, v.CurrentClass())
	}
	if _, ok := v.Records().Functions["method"]; ok {
		t.Error("method visited after a nested class must still be treated as class-body")
	}
	if _, ok := v.Records().Functions["after"]; !ok {
		t.Error("expected top-level function after a class to be recorded")
	}
}

func TestVisitor_ClassContextRestoredOnPanic(t *testing.T) {
	v := NewVisitor(Options{})
	func() {
		defer func() { _ = recover() }()
		restore := v.enterClass("Broken")
		defer restore()
		panic("descent failed")
	}()
	if v.inClass || v.CurrentClass() != "" {
		t.Errorf("expected context restored after panic, got inClass=%v class=%q", v.inClass, v.CurrentClass())
	}
}

func TestRecords_SortedNameViews(t *testing.T) {
	rec := collectSource(t, `
@zeta
@alpha
def beta():
    gamma()
    self.delta
    omega.x
`, Options{})

	tests := []struct {
		name string
		got  []string
		want []string
	}{
		{"Used", rec.UsedNames(), []string{"alpha", "gamma", "omega", "self", "zeta"}},
		{"Called", rec.CalledNames(), []string{"delta", "gamma"}},
		{"Decorated", rec.DecoratedNames(), []string{"beta"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if !reflect.DeepEqual(tc.got, tc.want) {
				t.Errorf("%s names = %v, want %v", tc.name, tc.got, tc.want)
			}
		})
	}
}
