// Package tree converts a native object's attribute-and-children graph into a
// finite, serializable snapshot. The output is bounded in depth and breadth
// regardless of the shape of the live hierarchy, and every attribute read is
// individually failure-tolerant: accessibility trees routinely contain nodes
// that refuse single reads, and the value of a snapshot lies in best-effort
// completeness.
package tree

import "github.com/1amageek/app-mcp-sub001/internal/ax"

// Node is one extracted UI element. A tree of Nodes is self-contained and
// immutable once returned; it is a snapshot, never kept in sync with the live
// object it was read from. Attributes that could not be read are simply
// absent.
type Node struct {
	Role        string    `yaml:"role,omitempty"       json:"r,omitempty"`
	Subrole     string    `yaml:"subrole,omitempty"    json:"sr,omitempty"`
	Title       string    `yaml:"title,omitempty"      json:"t,omitempty"`
	Value       string    `yaml:"value,omitempty"      json:"v,omitempty"`
	Description string    `yaml:"description,omitempty" json:"d,omitempty"`
	Help        string    `yaml:"help,omitempty"       json:"h,omitempty"`
	Identifier  string    `yaml:"identifier,omitempty" json:"id,omitempty"`
	Position    *ax.Point `yaml:"position,omitempty"   json:"p,omitempty"`
	Size        *ax.Size  `yaml:"size,omitempty"       json:"s,omitempty"`
	Enabled     *bool     `yaml:"enabled,omitempty"    json:"e,omitempty"` // only present when false
	Focused     bool      `yaml:"focused,omitempty"    json:"f,omitempty"`
	Children    []Node    `yaml:"children,omitempty"   json:"c,omitempty"`

	// ChildCount is the true native child count, which exceeds
	// len(Children) when the snapshot was truncated.
	ChildCount int `yaml:"child_count,omitempty" json:"cc,omitempty"`

	// Truncated marks nodes whose children were cut by the depth bound,
	// the breadth bound, or cancellation.
	Truncated bool `yaml:"truncated,omitempty" json:"tr,omitempty"`
}

// Descendants returns the number of nodes materialized below n.
func (n *Node) Descendants() int {
	total := 0
	for i := range n.Children {
		total += 1 + n.Children[i].Descendants()
	}
	return total
}

// Walk visits n and every materialized descendant in depth-first order.
// Returning false from fn stops the walk.
func (n *Node) Walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for i := range n.Children {
		if !n.Children[i].Walk(fn) {
			return false
		}
	}
	return true
}
