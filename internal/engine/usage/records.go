// Package usage collects definition and usage evidence from one parsed
// Python file. Matching is purely textual: a name is "used" if the same
// identifier text appears in a reference position anywhere in the file. No
// per-scope symbol table is built.
package usage

import "github.com/mnott/pynalyze/internal/shared/util"

type ImportKind int

const (
	ImportDirect ImportKind = iota // import x
	ImportFrom                     // from m import x
)

func (k ImportKind) String() string {
	if k == ImportFrom {
		return "from"
	}
	return "direct"
}

// ImportRecord is the latest import binding of one local name.
type ImportRecord struct {
	Name   string // local name: alias if present, else the imported name
	Module string // imported module for direct imports, source module for from-imports
	Line   int
	Kind   ImportKind
	Order  int // declaration order of the first binding of Name
}

// FunctionRecord is the latest non-class, non-decorated definition of Name.
type FunctionRecord struct {
	Name  string
	Line  int
	Order int
}

type nameSet map[string]struct{}

func (s nameSet) add(name string) { s[name] = struct{}{} }

func (s nameSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Records is the full evidence gathered from one file. A Records value must
// not be reused for another file.
type Records struct {
	Imports   map[string]ImportRecord
	Functions map[string]FunctionRecord
	Decorated nameSet
	Used      nameSet
	Called    nameSet

	seq int
}

func NewRecords() *Records {
	return &Records{
		Imports:   make(map[string]ImportRecord),
		Functions: make(map[string]FunctionRecord),
		Decorated: make(nameSet),
		Used:      make(nameSet),
		Called:    make(nameSet),
	}
}

func (r *Records) nextOrder() int {
	r.seq++
	return r.seq
}

// putImport replaces any earlier binding of the same local name. The
// declaration order of the first binding is kept as the tie-breaker.
func (r *Records) putImport(rec ImportRecord) {
	if prev, ok := r.Imports[rec.Name]; ok {
		rec.Order = prev.Order
	} else {
		rec.Order = r.nextOrder()
	}
	r.Imports[rec.Name] = rec
}

func (r *Records) putFunction(rec FunctionRecord) {
	if prev, ok := r.Functions[rec.Name]; ok {
		rec.Order = prev.Order
	} else {
		rec.Order = r.nextOrder()
	}
	r.Functions[rec.Name] = rec
}

// UsedNames returns the used identifiers in sorted order.
func (r *Records) UsedNames() []string { return util.SortedStringKeys(r.Used) }

// CalledNames returns the called identifiers in sorted order.
func (r *Records) CalledNames() []string { return util.SortedStringKeys(r.Called) }

// DecoratedNames returns the decorated function names in sorted order.
func (r *Records) DecoratedNames() []string { return util.SortedStringKeys(r.Decorated) }
