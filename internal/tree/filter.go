package tree

import "strings"

// Query selects nodes from a snapshot. Empty fields match everything.
type Query struct {
	Role string // role code, raw AXRole, or a common alias ("text", "button")
	Text string // case-insensitive substring of title, value, or description
}

// Match returns flat copies (children stripped) of every node in the snapshot
// matching q, in depth-first order.
func Match(root *Node, q Query) []Node {
	role := ""
	if q.Role != "" {
		role = NormalizeRole(q.Role)
	}
	text := strings.ToLower(q.Text)

	var out []Node
	root.Walk(func(n *Node) bool {
		if role != "" && n.Role != role {
			return true
		}
		if text != "" && !textMatches(n, text) {
			return true
		}
		flat := *n
		flat.Children = nil
		flat.Truncated = false
		flat.ChildCount = n.ChildCount
		out = append(out, flat)
		return true
	})
	return out
}

func textMatches(n *Node, textLower string) bool {
	return strings.Contains(strings.ToLower(n.Title), textLower) ||
		strings.Contains(strings.ToLower(n.Value), textLower) ||
		strings.Contains(strings.ToLower(n.Description), textLower)
}

// TextContent collects the visible text of a snapshot in reading order:
// values of text-bearing nodes, falling back to titles. Used by the
// read_content tool.
func TextContent(root *Node) []string {
	var out []string
	root.Walk(func(n *Node) bool {
		switch n.Role {
		case "txt", "input", "heading":
			if n.Value != "" {
				out = append(out, n.Value)
			} else if n.Title != "" {
				out = append(out, n.Title)
			}
		case "btn", "lnk", "menuitem":
			if n.Title != "" {
				out = append(out, n.Title)
			}
		}
		return true
	})
	return out
}
