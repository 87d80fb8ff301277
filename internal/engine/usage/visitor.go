package usage

import "github.com/mnott/pynalyze/internal/engine/pyast"

// SelfName is the conventional instance parameter. It is matched as text,
// not resolved as a binding.
const SelfName = "self"

type Options struct {
	// IncludeAsync makes top-level `async def` functions unused-function
	// candidates. By default only synchronous `def` is recorded.
	IncludeAsync bool
}

// Visitor performs the single usage pass over one module.
type Visitor struct {
	opts    Options
	records *Records

	inClass      bool
	currentClass string
}

func NewVisitor(opts Options) *Visitor {
	return &Visitor{opts: opts, records: NewRecords()}
}

// Collect runs a fresh Visitor over mod and returns its records.
func Collect(mod *pyast.Module, opts Options) *Records {
	v := NewVisitor(opts)
	v.Visit(mod)
	return v.Records()
}

func (v *Visitor) Records() *Records { return v.records }

// CurrentClass is the innermost class whose body is being visited, or "".
func (v *Visitor) CurrentClass() string { return v.currentClass }

func (v *Visitor) Visit(n pyast.Node) {
	if n == nil {
		return
	}

	switch n := n.(type) {
	case *pyast.Import:
		for _, alias := range n.Names {
			v.records.putImport(ImportRecord{
				Name:   alias.LocalName(),
				Module: alias.Name,
				Line:   n.Line,
				Kind:   ImportDirect,
			})
		}
	case *pyast.ImportFrom:
		for _, alias := range n.Names {
			if alias.IsWildcard() {
				continue
			}
			v.records.putImport(ImportRecord{
				Name:   alias.LocalName(),
				Module: n.Module,
				Line:   n.Line,
				Kind:   ImportFrom,
			})
		}
	case *pyast.FunctionDef:
		v.visitFunction(n)
		return
	case *pyast.ClassDef:
		v.visitClass(n)
		return
	case *pyast.Name:
		v.records.Used.add(n.ID)
	case *pyast.Call:
		switch fn := n.Func.(type) {
		case *pyast.Name:
			v.records.Called.add(fn.ID)
		case *pyast.Attribute:
			if isSelf(fn.Value) {
				v.records.Called.add(fn.Attr)
			}
		}
	case *pyast.Attribute:
		if base, ok := n.Value.(*pyast.Name); ok {
			v.records.Used.add(base.ID)
			if base.ID == SelfName {
				v.records.Called.add(n.Attr)
			}
		}
	}

	v.visitChildren(n)
}

func (v *Visitor) visitChildren(n pyast.Node) {
	for _, c := range pyast.Children(n) {
		v.Visit(c)
	}
}

func (v *Visitor) visitFunction(fn *pyast.FunctionDef) {
	switch {
	case v.inClass:
		// Methods may be invoked through instances from outside the file.
	case fn.Async && !v.opts.IncludeAsync:
	case len(fn.Decorators) > 0:
		v.records.Decorated.add(fn.Name)
	default:
		v.records.putFunction(FunctionRecord{Name: fn.Name, Line: fn.Line})
	}
	v.visitChildren(fn)
}

func (v *Visitor) visitClass(cls *pyast.ClassDef) {
	defer v.enterClass(cls.Name)()
	v.visitChildren(cls)
}

// enterClass marks the visitor as inside a class body and returns the
// function restoring the previous context.
func (v *Visitor) enterClass(name string) (restore func()) {
	prevIn, prevName := v.inClass, v.currentClass
	v.inClass, v.currentClass = true, name
	return func() {
		v.inClass, v.currentClass = prevIn, prevName
	}
}

func isSelf(n pyast.Node) bool {
	name, ok := n.(*pyast.Name)
	return ok && name.ID == SelfName
}
