package tree

import (
	"context"
	"fmt"

	"github.com/1amageek/app-mcp-sub001/internal/ax"
)

// Conservative defaults keeping payload size and wall-clock time predictable.
// The traversal runs synchronously in the calling request and has no timeout
// of its own; the caller owns the overall request deadline.
const (
	DefaultMaxDepth    = 10
	DefaultMaxChildren = 50
)

// Options bounds an extraction. Zero or negative values fall back to the
// defaults.
type Options struct {
	MaxDepth    int
	MaxChildren int
}

func (o Options) normalized() Options {
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.MaxChildren <= 0 {
		o.MaxChildren = DefaultMaxChildren
	}
	return o
}

// Extract walks root's hierarchy into a bounded Node snapshot.
//
// Depth bounding is the sole cycle-safety mechanism: no identity tracking is
// performed, on the assumption that native UI hierarchies are trees in
// practice. A cyclic hierarchy yields a depth-truncated result, not a hang.
//
// Cancellation is advisory: the context is checked between child visits, and
// a canceled traversal returns the partial snapshot built so far with the
// interrupted node marked truncated.
func Extract(ctx context.Context, root ax.Ref, opts Options) (*Node, error) {
	opts = opts.normalized()
	node, err := walk(ctx, root, 0, opts)
	if err != nil {
		return nil, fmt.Errorf("extract root: %w", err)
	}
	return node, nil
}

// walk extracts a single node and its bounded subtree. It fails only when the
// object itself is gone; unreadable attributes and vanished children never
// abort the traversal.
func walk(ctx context.Context, ref ax.Ref, depth int, opts Options) (*Node, error) {
	node, err := readNode(ref)
	if err != nil {
		return nil, err
	}

	// True child count is recorded even when no children are materialized,
	// if the native layer can answer cheaply.
	count, countErr := ref.ChildCount()
	if countErr == nil {
		node.ChildCount = count
	}

	if depth >= opts.MaxDepth {
		if countErr != nil {
			// The count was unreadable; ask for the children themselves
			// before deciding whether the bound cut anything off.
			children, err := ref.Children()
			switch {
			case err == nil:
				count = len(children)
				node.ChildCount = count
			case ax.IsGone(err):
				return nil, err
			default:
				// Unknowable either way; never report a complete leaf
				// on an unverified bound.
				node.Truncated = true
				return node, nil
			}
		}
		if count > 0 {
			node.Truncated = true
		}
		return node, nil
	}

	children, err := ref.Children()
	if err != nil {
		if ax.IsGone(err) {
			return nil, err
		}
		// The object answers attributes but not child enumeration; emit
		// it as a leaf.
		return node, nil
	}
	if countErr != nil {
		node.ChildCount = len(children)
	}

	limit := len(children)
	if limit > opts.MaxChildren {
		limit = opts.MaxChildren
		node.Truncated = true
	}

	for i := 0; i < limit; i++ {
		if ctx.Err() != nil {
			node.Truncated = true
			break
		}
		child, err := walk(ctx, children[i], depth+1, opts)
		if err != nil {
			// The child vanished between enumeration and descent;
			// skip it without disturbing its siblings.
			continue
		}
		node.Children = append(node.Children, *child)
	}
	return node, nil
}

// readNode reads the fixed attribute set. Each read is independent: a failed
// read leaves its field absent. Only evidence that the object itself is gone
// turns into an error.
func readNode(ref ax.Ref) (*Node, error) {
	node := &Node{}
	gone := false

	readString := func(name string, dst *string, mapped bool) {
		v, err := ref.Attribute(name)
		if err != nil {
			gone = gone || ax.IsGone(err)
			return
		}
		s := stringify(v)
		if mapped {
			s = MapRole(s)
		}
		*dst = s
	}

	readString(ax.AttrRole, &node.Role, true)
	if gone {
		return nil, ax.ErrObjectGone
	}
	readString(ax.AttrSubrole, &node.Subrole, false)
	readString(ax.AttrTitle, &node.Title, false)
	readString(ax.AttrValue, &node.Value, false)
	readString(ax.AttrDescription, &node.Description, false)
	readString(ax.AttrHelp, &node.Help, false)
	readString(ax.AttrIdentifier, &node.Identifier, false)

	if v, err := ref.Attribute(ax.AttrPosition); err == nil && v.Kind == ax.ValuePoint {
		p := v.Point
		node.Position = &p
	} else if ax.IsGone(err) {
		gone = true
	}
	if v, err := ref.Attribute(ax.AttrSize); err == nil && v.Kind == ax.ValueSize {
		s := v.Size
		node.Size = &s
	} else if ax.IsGone(err) {
		gone = true
	}
	if v, err := ref.Attribute(ax.AttrEnabled); err == nil && v.Kind == ax.ValueBool {
		if !v.Bool {
			f := false
			node.Enabled = &f
		}
	} else if ax.IsGone(err) {
		gone = true
	}
	if v, err := ref.Attribute(ax.AttrFocused); err == nil && v.Kind == ax.ValueBool {
		node.Focused = v.Bool
	} else if ax.IsGone(err) {
		gone = true
	}

	if gone {
		return nil, ax.ErrObjectGone
	}
	return node, nil
}

// stringify renders an attribute value for the snapshot's string fields.
func stringify(v ax.Value) string {
	switch v.Kind {
	case ax.ValueString:
		return v.Str
	case ax.ValueNumber:
		return trimFloat(v.Num)
	case ax.ValueBool:
		if v.Bool {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

func trimFloat(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}
