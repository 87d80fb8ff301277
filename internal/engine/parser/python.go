package parser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/mnott/pynalyze/internal/engine/pyast"
)

type pythonLowerer struct {
	engine *LoweringEngine
}

func newPythonLowerer() *pythonLowerer {
	l := &pythonLowerer{}
	l.engine = NewLoweringEngine(map[string]LowerFunc{
		"import_statement":        l.lowerImport,
		"import_from_statement":   l.lowerFromImport,
		"future_import_statement": l.lowerFromImport,
		"decorated_definition":    l.lowerDecorated,
		"function_definition":     l.lowerFunction,
		"class_definition":        l.lowerClass,
		"lambda":                  l.lowerLambda,
		"call":                    l.lowerCall,
		"attribute":               l.lowerAttribute,
		"dotted_name":             l.lowerDottedName,
		"identifier":              l.lowerIdentifier,
		"keyword_identifier":      l.lowerIdentifier,
		"keyword_argument":        l.lowerKeywordArgument,
		"except_clause":           l.lowerExcept,
		"global_statement":        lowerNothing,
		"nonlocal_statement":      lowerNothing,
		"comment":                 lowerNothing,
	})
	return l
}

func lowerNothing(*LoweringContext, *sitter.Node) pyast.Node { return nil }

// Module lowers the tree root.
func (l *pythonLowerer) Module(ctx *LoweringContext, root *sitter.Node) *pyast.Module {
	return &pyast.Module{Body: l.engine.LowerChildren(ctx, root)}
}

func (l *pythonLowerer) lowerIdentifier(ctx *LoweringContext, node *sitter.Node) pyast.Node {
	id := ctx.Text(node)
	if id == "" {
		return nil
	}
	return &pyast.Name{ID: id, Line: ctx.Line(node)}
}

// dotted_name outside an import clause (match-statement value patterns) is
// an attribute chain on its first identifier.
func (l *pythonLowerer) lowerDottedName(ctx *LoweringContext, node *sitter.Node) pyast.Node {
	var expr pyast.Node
	for i := uint(0); i < node.NamedChildCount(); i++ {
		part := node.NamedChild(i)
		if part.Kind() != "identifier" {
			continue
		}
		if expr == nil {
			expr = &pyast.Name{ID: ctx.Text(part), Line: ctx.Line(part)}
			continue
		}
		expr = &pyast.Attribute{Value: expr, Attr: ctx.Text(part), Line: ctx.Line(node)}
	}
	return expr
}

func (l *pythonLowerer) lowerImport(ctx *LoweringContext, node *sitter.Node) pyast.Node {
	imp := &pyast.Import{Line: ctx.Line(node)}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		if alias, ok := l.importAlias(ctx, node.NamedChild(i)); ok {
			imp.Names = append(imp.Names, alias)
		}
	}
	return imp
}

// lowerFromImport handles both `from m import ...` and
// `from __future__ import ...`. Everything before the `import` keyword is the
// module; everything after is a binding.
func (l *pythonLowerer) lowerFromImport(ctx *LoweringContext, node *sitter.Node) pyast.Node {
	imp := &pyast.ImportFrom{Line: ctx.Line(node)}
	if node.Kind() == "future_import_statement" {
		imp.Module = "__future__"
	}

	afterImport := false
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		if !afterImport {
			switch child.Kind() {
			case "import":
				afterImport = true
			case "dotted_name":
				imp.Module = ctx.NameText(child)
			case "relative_import":
				imp.Module = strings.TrimLeft(ctx.NameText(child), ".")
			}
			continue
		}
		if alias, ok := l.importAlias(ctx, child); ok {
			imp.Names = append(imp.Names, alias)
		}
	}
	return imp
}

func (l *pythonLowerer) importAlias(ctx *LoweringContext, node *sitter.Node) (pyast.Alias, bool) {
	switch node.Kind() {
	case "dotted_name", "identifier":
		return pyast.Alias{Name: ctx.NameText(node)}, true
	case "aliased_import":
		return pyast.Alias{
			Name:   ctx.NameText(node.ChildByFieldName("name")),
			AsName: ctx.NameText(node.ChildByFieldName("alias")),
		}, true
	case "wildcard_import":
		return pyast.Alias{Name: "*"}, true
	}
	return pyast.Alias{}, false
}

func (l *pythonLowerer) lowerDecorated(ctx *LoweringContext, node *sitter.Node) pyast.Node {
	var decorators []pyast.Node
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child.Kind() != "decorator" {
			continue
		}
		decorators = append(decorators, l.decoratorExpr(ctx, child))
	}

	def := l.engine.Lower(ctx, node.ChildByFieldName("definition"))
	switch def := def.(type) {
	case *pyast.FunctionDef:
		def.Decorators = decorators
		return def
	case *pyast.ClassDef:
		def.Decorators = decorators
		return def
	}
	// Unknown decorated target: keep the decorator expressions reachable.
	elems := append(decorators, def)
	return &pyast.Compound{Kind: node.Kind(), Elems: compact(elems), Line: ctx.Line(node)}
}

// decoratorExpr always yields a node so that the decorator count survives
// even for decorators like `@staticmethod` whose expression is a bare name.
func (l *pythonLowerer) decoratorExpr(ctx *LoweringContext, node *sitter.Node) pyast.Node {
	elems := l.engine.LowerChildren(ctx, node)
	if len(elems) == 1 {
		return elems[0]
	}
	return &pyast.Compound{Kind: node.Kind(), Elems: elems, Line: ctx.Line(node)}
}

func (l *pythonLowerer) lowerFunction(ctx *LoweringContext, node *sitter.Node) pyast.Node {
	fn := &pyast.FunctionDef{
		Name: ctx.Text(node.ChildByFieldName("name")),
		Line: ctx.Line(node),
	}
	if first := node.Child(0); first != nil && first.Kind() == "async" {
		fn.Async = true
	}

	fn.Params = l.parameters(ctx, node.ChildByFieldName("parameters"))
	fn.Params = appendNode(fn.Params, l.engine.Lower(ctx, node.ChildByFieldName("type_parameters")))
	fn.Returns = l.engine.Lower(ctx, node.ChildByFieldName("return_type"))
	fn.Body = l.engine.LowerChildren(ctx, node.ChildByFieldName("body"))
	return fn
}

func (l *pythonLowerer) lowerClass(ctx *LoweringContext, node *sitter.Node) pyast.Node {
	cls := &pyast.ClassDef{
		Name: ctx.Text(node.ChildByFieldName("name")),
		Line: ctx.Line(node),
	}
	cls.Bases = l.engine.LowerChildren(ctx, node.ChildByFieldName("superclasses"))
	cls.Bases = appendNode(cls.Bases, l.engine.Lower(ctx, node.ChildByFieldName("type_parameters")))
	cls.Body = l.engine.LowerChildren(ctx, node.ChildByFieldName("body"))
	return cls
}

func (l *pythonLowerer) lowerLambda(ctx *LoweringContext, node *sitter.Node) pyast.Node {
	elems := l.parameters(ctx, node.ChildByFieldName("parameters"))
	elems = appendNode(elems, l.engine.Lower(ctx, node.ChildByFieldName("body")))
	if len(elems) == 0 {
		return nil
	}
	return &pyast.Compound{Kind: node.Kind(), Elems: elems, Line: ctx.Line(node)}
}

// parameters keeps annotation and default expressions; the parameter names
// themselves are bindings and are dropped.
func (l *pythonLowerer) parameters(ctx *LoweringContext, params *sitter.Node) []pyast.Node {
	if params == nil {
		return nil
	}
	var out []pyast.Node
	for i := uint(0); i < params.NamedChildCount(); i++ {
		param := params.NamedChild(i)
		switch param.Kind() {
		case "identifier", "list_splat_pattern", "dictionary_splat_pattern",
			"tuple_pattern", "keyword_separator", "positional_separator", "comment":
			continue
		case "typed_parameter":
			out = appendNode(out, l.engine.Lower(ctx, param.ChildByFieldName("type")))
		case "default_parameter":
			out = appendNode(out, l.engine.Lower(ctx, param.ChildByFieldName("value")))
		case "typed_default_parameter":
			out = appendNode(out, l.engine.Lower(ctx, param.ChildByFieldName("type")))
			out = appendNode(out, l.engine.Lower(ctx, param.ChildByFieldName("value")))
		default:
			out = appendNode(out, l.engine.Lower(ctx, param))
		}
	}
	return out
}

func (l *pythonLowerer) lowerCall(ctx *LoweringContext, node *sitter.Node) pyast.Node {
	return &pyast.Call{
		Func: l.engine.Lower(ctx, node.ChildByFieldName("function")),
		Args: l.engine.LowerChildren(ctx, node.ChildByFieldName("arguments")),
		Line: ctx.Line(node),
	}
}

func (l *pythonLowerer) lowerAttribute(ctx *LoweringContext, node *sitter.Node) pyast.Node {
	return &pyast.Attribute{
		Value: l.engine.Lower(ctx, node.ChildByFieldName("object")),
		Attr:  ctx.Text(node.ChildByFieldName("attribute")),
		Line:  ctx.Line(node),
	}
}

// The keyword name in `f(key=value)` is not a reference.
func (l *pythonLowerer) lowerKeywordArgument(ctx *LoweringContext, node *sitter.Node) pyast.Node {
	return l.engine.Lower(ctx, node.ChildByFieldName("value"))
}

// lowerExcept drops the bare identifier bound by `except E as name`.
func (l *pythonLowerer) lowerExcept(ctx *LoweringContext, node *sitter.Node) pyast.Node {
	var elems []pyast.Node
	afterAs := false
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		if !child.IsNamed() {
			afterAs = child.Kind() == "as"
			continue
		}
		if afterAs && child.Kind() == "identifier" {
			afterAs = false
			continue
		}
		afterAs = false
		if child.Kind() == "as_pattern" && child.NamedChildCount() > 0 {
			// `except E as name` parsed as an as_pattern: keep E only.
			child = child.NamedChild(0)
		}
		elems = appendNode(elems, l.engine.Lower(ctx, child))
	}
	if len(elems) == 0 {
		return nil
	}
	return &pyast.Compound{Kind: node.Kind(), Elems: elems, Line: ctx.Line(node)}
}

func compact(nodes []pyast.Node) []pyast.Node {
	out := nodes[:0]
	for _, n := range nodes {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}
