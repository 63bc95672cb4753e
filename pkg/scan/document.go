package scan

import (
	"fmt"
	"strings"
)

// Node is one text-bearing node of a document tree. The engine never mutates
// nodes; per-scan bookkeeping lives in the scan, not on the node.
type Node struct {
	ID       string
	Text     string
	Children []*Node
}

// Document is a tree of text-bearing nodes walked in document order.
type Document struct {
	roots []*Node
}

// NewDocument builds a document from root nodes.
func NewDocument(roots ...*Node) *Document {
	return &Document{roots: roots}
}

// TextNodes flattens the tree pre-order, keeping only nodes that carry text.
func (d *Document) TextNodes() []*Node {
	var out []*Node
	var walk func(n *Node)
	walk = func(n *Node) {
		if strings.TrimSpace(n.Text) != "" {
			out = append(out, n)
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	for _, r := range d.roots {
		walk(r)
	}
	return out
}

// FromText builds a flat document with one node per non-empty line, the shape
// the standalone analyzer feeds the scheduler.
func FromText(text string) *Document {
	var roots []*Node
	for i, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		roots = append(roots, &Node{ID: fmt.Sprintf("n%04d", i), Text: line})
	}
	return NewDocument(roots...)
}
