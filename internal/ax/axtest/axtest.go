// Package axtest provides a scripted in-memory ax.Source for tests. Nodes can
// be killed to simulate windows closing mid-traversal and individual
// attributes can be made to fail, which is how the registry and extractor
// suites exercise expiry and partial-read behavior without a real OS.
package axtest

import (
	"fmt"
	"sync"

	"github.com/1amageek/app-mcp-sub001/internal/ax"
)

// Node is a fake native object. Build trees with the struct literal and wire
// them into a Source; the zero value is a live node with no attributes.
type Node struct {
	mu       sync.Mutex
	attrs    map[string]ax.Value
	children []*Node
	pid      int
	dead     bool

	// FailAttrs lists attribute names whose reads fail with
	// ax.ErrAttributeUnsupported while the node stays alive.
	failAttrs map[string]bool

	failChildCount bool
	failChildren   bool

	// attrReads counts Attribute calls, for probe assertions.
	attrReads int
}

// NewNode returns a live node with the given attributes.
func NewNode(pid int, attrs map[string]ax.Value, children ...*Node) *Node {
	return &Node{attrs: attrs, children: children, pid: pid}
}

// AddChild appends a child node.
func (n *Node) AddChild(c *Node) { n.children = append(n.children, c) }

// Kill marks the node dead; every subsequent call reports ErrObjectGone.
func (n *Node) Kill() {
	n.mu.Lock()
	n.dead = true
	n.mu.Unlock()
}

// FailAttr makes reads of the named attribute fail without killing the node.
func (n *Node) FailAttr(name string) {
	n.mu.Lock()
	if n.failAttrs == nil {
		n.failAttrs = make(map[string]bool)
	}
	n.failAttrs[name] = true
	n.mu.Unlock()
}

// FailChildCount makes ChildCount fail while the node stays alive.
func (n *Node) FailChildCount() {
	n.mu.Lock()
	n.failChildCount = true
	n.mu.Unlock()
}

// FailChildren makes Children fail while the node stays alive.
func (n *Node) FailChildren() {
	n.mu.Lock()
	n.failChildren = true
	n.mu.Unlock()
}

// AttrReads returns how many Attribute calls the node has served.
func (n *Node) AttrReads() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.attrReads
}

// Attribute implements ax.Ref.
func (n *Node) Attribute(name string) (ax.Value, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.attrReads++
	if n.dead {
		return ax.Value{}, ax.ErrObjectGone
	}
	if n.failAttrs[name] {
		return ax.Value{}, ax.ErrAttributeUnsupported
	}
	v, ok := n.attrs[name]
	if !ok {
		return ax.Value{}, ax.ErrAttributeUnsupported
	}
	return v, nil
}

// Children implements ax.Ref.
func (n *Node) Children() ([]ax.Ref, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.dead {
		return nil, ax.ErrObjectGone
	}
	if n.failChildren {
		return nil, ax.ErrAttributeUnsupported
	}
	out := make([]ax.Ref, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out, nil
}

// ChildCount implements ax.Ref.
func (n *Node) ChildCount() (int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.dead {
		return 0, ax.ErrObjectGone
	}
	if n.failChildCount {
		return 0, ax.ErrAttributeUnsupported
	}
	return len(n.children), nil
}

// SameAs implements ax.Ref using pointer identity.
func (n *Node) SameAs(other ax.Ref) bool {
	o, ok := other.(*Node)
	return ok && o == n
}

// PID implements ax.Ref.
func (n *Node) PID() int { return n.pid }

// Source is a fake ax.Source mapping PIDs to root nodes.
type Source struct {
	mu    sync.Mutex
	roots map[int]*Node
}

// NewSource returns an empty fake source.
func NewSource() *Source {
	return &Source{roots: make(map[int]*Node)}
}

// Register installs root as the application object for pid and returns it.
func (s *Source) Register(pid int, root *Node) *Node {
	s.mu.Lock()
	root.pid = pid
	s.roots[pid] = root
	s.mu.Unlock()
	return root
}

// ApplicationRef implements ax.Source.
func (s *Source) ApplicationRef(pid int) (ax.Ref, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	root, ok := s.roots[pid]
	if !ok {
		return nil, fmt.Errorf("pid %d: %w", pid, ax.ErrObjectGone)
	}
	root.mu.Lock()
	dead := root.dead
	root.mu.Unlock()
	if dead {
		return nil, fmt.Errorf("pid %d: %w", pid, ax.ErrObjectGone)
	}
	return root, nil
}
