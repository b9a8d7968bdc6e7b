package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/1amageek/app-mcp-sub001/internal/handle"
	"github.com/1amageek/app-mcp-sub001/internal/tree"
)

func TestSnapshotCacheHitAndExpiry(t *testing.T) {
	c := NewSnapshotCache(30 * time.Millisecond)
	opts := tree.Options{MaxDepth: 10, MaxChildren: 50}
	node := &tree.Node{Role: "app"}

	require.Nil(t, c.Get("app_x", opts))
	c.Put("app_x", opts, node)
	require.Same(t, node, c.Get("app_x", opts))

	time.Sleep(50 * time.Millisecond)
	require.Nil(t, c.Get("app_x", opts))
}

func TestSnapshotCacheKeyedByBounds(t *testing.T) {
	c := NewSnapshotCache(time.Minute)
	shallow := &tree.Node{Role: "app"}
	deep := &tree.Node{Role: "app", Children: []tree.Node{{Role: "window"}}}

	c.Put("app_x", tree.Options{MaxDepth: 1, MaxChildren: 50}, shallow)
	c.Put("app_x", tree.Options{MaxDepth: 10, MaxChildren: 50}, deep)

	require.Same(t, shallow, c.Get("app_x", tree.Options{MaxDepth: 1, MaxChildren: 50}))
	require.Same(t, deep, c.Get("app_x", tree.Options{MaxDepth: 10, MaxChildren: 50}))
}

func TestSnapshotCacheInvalidation(t *testing.T) {
	c := NewSnapshotCache(time.Minute)
	opts := tree.Options{MaxDepth: 10, MaxChildren: 50}
	c.Put("app_a", opts, &tree.Node{Role: "app"})
	c.Put("app_b", opts, &tree.Node{Role: "app"})

	c.InvalidateHandle(handle.Handle("app_a"))
	require.Nil(t, c.Get("app_a", opts))
	require.NotNil(t, c.Get("app_b", opts))

	c.InvalidateAll()
	require.Nil(t, c.Get("app_b", opts))
}

func TestSnapshotCacheDisabled(t *testing.T) {
	c := NewSnapshotCache(0)
	opts := tree.Options{MaxDepth: 10, MaxChildren: 50}
	c.Put("app_x", opts, &tree.Node{Role: "app"})
	require.Nil(t, c.Get("app_x", opts))
}
