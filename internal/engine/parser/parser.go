package parser

import (
	"fmt"
	"log/slog"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"

	"github.com/mnott/pynalyze/internal/core/errors"
	"github.com/mnott/pynalyze/internal/engine/pyast"
)

// Parser turns Python source text into a pyast.Module.
type Parser struct {
	pool *ParserPool
}

func NewParser() *Parser {
	return &Parser{
		pool: NewParserPool(sitter.NewLanguage(tree_sitter_python.Language())),
	}
}

// Parse parses content and lowers it into the sealed AST. path is only used
// for error context. Source that does not parse cleanly yields a
// SYNTAX_ERROR domain error; no partial tree is returned.
func (p *Parser) Parse(path string, content []byte) (*pyast.Module, error) {
	if len(content) == 0 {
		return &pyast.Module{}, nil
	}

	sp := p.pool.Get()
	defer p.pool.Put(sp)

	tree := sp.Parse(content, nil)
	if tree == nil {
		return nil, errors.AddContext(errors.New(errors.CodeInternal, "parse failed"), errors.CtxPath, path)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, syntaxError(path, root)
	}
	// The grammar still accepts Python 2 print and exec statements.
	if legacy := firstLegacyStatement(root); legacy != nil {
		msg := fmt.Sprintf("missing parentheses in call to '%s'", legacyStatements[legacy.Kind()])
		return nil, syntaxErrorAt(path, msg, legacy)
	}

	ctx := &LoweringContext{Source: content}
	mod := newPythonLowerer().Module(ctx, root)
	slog.Debug("parsed python source", "path", path, "statements", len(mod.Body))
	return mod, nil
}

func syntaxError(path string, root *sitter.Node) error {
	bad := firstErrorNode(root)
	if bad == nil {
		return syntaxErrorAt(path, "invalid syntax", nil)
	}
	msg := "invalid syntax"
	if bad.IsMissing() {
		msg = fmt.Sprintf("invalid syntax: missing %q", bad.Kind())
	}
	return syntaxErrorAt(path, msg, bad)
}

func syntaxErrorAt(path, msg string, node *sitter.Node) error {
	line, col := 1, 1
	if node != nil {
		pos := node.StartPosition()
		line = int(pos.Row) + 1
		col = int(pos.Column) + 1
	}
	de := errors.New(errors.CodeSyntax, msg).(*errors.DomainError)
	return de.
		WithContext(errors.CtxPath, path).
		WithContext(errors.CtxLine, line).
		WithContext(errors.CtxColumn, col)
}

// legacyStatements maps Python 2 statement kinds to the keyword they use.
var legacyStatements = map[string]string{
	"print_statement": "print",
	"exec_statement":  "exec",
}

// firstLegacyStatement returns the first Python 2 only statement in
// document order.
func firstLegacyStatement(node *sitter.Node) *sitter.Node {
	if node == nil {
		return nil
	}
	if _, ok := legacyStatements[node.Kind()]; ok {
		return node
	}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		if found := firstLegacyStatement(node.NamedChild(i)); found != nil {
			return found
		}
	}
	return nil
}

// firstErrorNode returns the first ERROR or MISSING node in document order.
func firstErrorNode(node *sitter.Node) *sitter.Node {
	if node == nil {
		return nil
	}
	if node.IsError() || node.IsMissing() {
		return node
	}
	if !node.HasError() {
		return nil
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if found := firstErrorNode(node.Child(i)); found != nil {
			return found
		}
	}
	return nil
}
