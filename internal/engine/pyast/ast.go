// Package pyast is the closed set of Python syntax nodes the usage analysis
// understands. Everything the analysis does not care about is carried as a
// Compound so that traversal still reaches the expressions inside it.
package pyast

// Node is implemented only by the types in this package.
type Node interface {
	// Pos returns the 1-based source line the node starts on.
	Pos() int
	pyNode()
}

// Module is the root of a parsed file.
type Module struct {
	Body []Node
}

// Alias is one binding of an import clause: `name` or `name as asname`.
type Alias struct {
	Name   string
	AsName string
}

// LocalName is the identifier the binding introduces into the file.
func (a Alias) LocalName() string {
	if a.AsName != "" {
		return a.AsName
	}
	return a.Name
}

// IsWildcard reports whether the binding is `from m import *`.
func (a Alias) IsWildcard() bool {
	return a.Name == "*"
}

// Import is `import a.b, c as d`.
type Import struct {
	Names []Alias
	Line  int
}

// ImportFrom is `from module import x, y as z`. Module has relative dots
// stripped; it is empty for `from . import x`.
type ImportFrom struct {
	Module string
	Names  []Alias
	Line   int
}

// FunctionDef is a `def` or `async def`. Params only carries annotation and
// default expressions, never parameter names.
type FunctionDef struct {
	Name       string
	Async      bool
	Decorators []Node
	Params     []Node
	Returns    Node
	Body       []Node
	Line       int
}

type ClassDef struct {
	Name       string
	Decorators []Node
	Bases      []Node
	Body       []Node
	Line       int
}

// Name is an identifier in a reference (or assignment target) position.
type Name struct {
	ID   string
	Line int
}

type Call struct {
	Func Node
	Args []Node
	Line int
}

// Attribute is `value.attr`.
type Attribute struct {
	Value Node
	Attr  string
	Line  int
}

// Compound is any other construct. Kind is the grammar node kind it was
// lowered from and is informational only.
type Compound struct {
	Kind  string
	Elems []Node
	Line  int
}

func (*Module) Pos() int        { return 1 }
func (n *Import) Pos() int      { return n.Line }
func (n *ImportFrom) Pos() int  { return n.Line }
func (n *FunctionDef) Pos() int { return n.Line }
func (n *ClassDef) Pos() int    { return n.Line }
func (n *Name) Pos() int        { return n.Line }
func (n *Call) Pos() int        { return n.Line }
func (n *Attribute) Pos() int   { return n.Line }
func (n *Compound) Pos() int    { return n.Line }

func (*Module) pyNode()      {}
func (*Import) pyNode()      {}
func (*ImportFrom) pyNode()  {}
func (*FunctionDef) pyNode() {}
func (*ClassDef) pyNode()    {}
func (*Name) pyNode()        {}
func (*Call) pyNode()        {}
func (*Attribute) pyNode()   {}
func (*Compound) pyNode()    {}
