package resolver

import (
	"fmt"
	"sort"

	"github.com/gobwas/glob"

	"github.com/mnott/pynalyze/internal/engine/usage"
)

// UnusedImport is an import binding whose local name never occurs as a
// bare identifier or attribute base anywhere in the file.
type UnusedImport struct {
	File   string
	Name   string
	Module string
	Kind   usage.ImportKind
	Line   int
	order  int
}

// UnusedFunction is a recorded top-level function never called by bare name
// nor reached as a self attribute.
type UnusedFunction struct {
	File  string
	Name  string
	Line  int
	order int
}

// Resolver turns usage records into sorted unused lists, dropping names that
// match the configured exclusion patterns.
type Resolver struct {
	excludedImports   []glob.Glob
	excludedFunctions []glob.Glob
}

func NewResolver(excludedImports, excludedFunctions []string) (*Resolver, error) {
	imports, err := compilePatterns(excludedImports)
	if err != nil {
		return nil, fmt.Errorf("exclude.imports: %w", err)
	}
	functions, err := compilePatterns(excludedFunctions)
	if err != nil {
		return nil, fmt.Errorf("exclude.functions: %w", err)
	}
	return &Resolver{excludedImports: imports, excludedFunctions: functions}, nil
}

// FindUnusedImports returns every import whose local name is absent from the
// used names, sorted by line and then declaration order.
func (r *Resolver) FindUnusedImports(path string, rec *usage.Records) []UnusedImport {
	unused := make([]UnusedImport, 0)
	for name, imp := range rec.Imports {
		if rec.Used.Has(name) {
			continue
		}
		if r.isExcludedImport(imp) {
			continue
		}
		unused = append(unused, UnusedImport{
			File:   path,
			Name:   name,
			Module: imp.Module,
			Kind:   imp.Kind,
			Line:   imp.Line,
			order:  imp.Order,
		})
	}
	sort.Slice(unused, func(i, j int) bool {
		if unused[i].Line != unused[j].Line {
			return unused[i].Line < unused[j].Line
		}
		return unused[i].order < unused[j].order
	})
	return unused
}

// FindUnusedFunctions returns every recorded function that is neither called
// nor decorated, sorted by line and then declaration order.
func (r *Resolver) FindUnusedFunctions(path string, rec *usage.Records) []UnusedFunction {
	unused := make([]UnusedFunction, 0)
	for name, fn := range rec.Functions {
		if rec.Called.Has(name) || rec.Decorated.Has(name) {
			continue
		}
		if matchesAny(r.excludedFunctions, name) {
			continue
		}
		unused = append(unused, UnusedFunction{
			File:  path,
			Name:  name,
			Line:  fn.Line,
			order: fn.Order,
		})
	}
	sort.Slice(unused, func(i, j int) bool {
		if unused[i].Line != unused[j].Line {
			return unused[i].Line < unused[j].Line
		}
		return unused[i].order < unused[j].order
	})
	return unused
}

func (r *Resolver) isExcludedImport(imp usage.ImportRecord) bool {
	return matchesAny(r.excludedImports, imp.Name) ||
		(imp.Module != "" && matchesAny(r.excludedImports, imp.Module))
}

func compilePatterns(patterns []string) ([]glob.Glob, error) {
	compiled := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '.')
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
		}
		compiled = append(compiled, g)
	}
	return compiled, nil
}

func matchesAny(globs []glob.Glob, value string) bool {
	for _, g := range globs {
		if g.Match(value) {
			return true
		}
	}
	return false
}
