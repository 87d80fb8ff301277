package parser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/mnott/pynalyze/internal/engine/pyast"
)

// LowerFunc converts one concrete syntax node into a pyast node. It may
// return nil when the node carries nothing the analysis can observe.
type LowerFunc func(ctx *LoweringContext, node *sitter.Node) pyast.Node

// LoweringContext carries the source buffer shared by all lowerers.
type LoweringContext struct {
	Source []byte
}

// LoweringEngine dispatches lowering by node kind and falls back to a
// generic Compound for kinds without a handler.
type LoweringEngine struct {
	handlers map[string]LowerFunc
}

func NewLoweringEngine(handlers map[string]LowerFunc) *LoweringEngine {
	return &LoweringEngine{handlers: handlers}
}

// Lower converts node and its subtree. Anonymous tokens and comments are
// dropped; a Compound without observable children collapses to nil.
func (e *LoweringEngine) Lower(ctx *LoweringContext, node *sitter.Node) pyast.Node {
	if node == nil || !node.IsNamed() {
		return nil
	}
	if handler, ok := e.handlers[node.Kind()]; ok {
		return handler(ctx, node)
	}

	elems := e.LowerChildren(ctx, node)
	if len(elems) == 0 {
		return nil
	}
	return &pyast.Compound{Kind: node.Kind(), Elems: elems, Line: ctx.Line(node)}
}

// LowerChildren lowers the named children of node, skipping nil results.
func (e *LoweringEngine) LowerChildren(ctx *LoweringContext, node *sitter.Node) []pyast.Node {
	if node == nil {
		return nil
	}
	var out []pyast.Node
	for i := uint(0); i < node.NamedChildCount(); i++ {
		if lowered := e.Lower(ctx, node.NamedChild(i)); lowered != nil {
			out = append(out, lowered)
		}
	}
	return out
}

func (c *LoweringContext) Text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(c.Source[node.StartByte():node.EndByte()])
}

// Line is the 1-based start line of node.
func (c *LoweringContext) Line(node *sitter.Node) int {
	return int(node.StartPosition().Row) + 1
}

// NameText returns the text of node with all whitespace removed, so that
// `os . path` and `os.path` produce the same binding name.
func (c *LoweringContext) NameText(node *sitter.Node) string {
	return normalizeRefName(c.Text(node))
}

func normalizeRefName(value string) string {
	return strings.Join(strings.Fields(value), "")
}

func appendNode(nodes []pyast.Node, n pyast.Node) []pyast.Node {
	if n == nil {
		return nodes
	}
	return append(nodes, n)
}
