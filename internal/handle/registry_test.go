package handle

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/1amageek/app-mcp-sub001/internal/ax"
	"github.com/1amageek/app-mcp-sub001/internal/ax/axtest"
)

func appNode(pid int) *axtest.Node {
	return axtest.NewNode(pid, map[string]ax.Value{
		ax.AttrRole:  ax.String("AXApplication"),
		ax.AttrTitle: ax.String(fmt.Sprintf("App %d", pid)),
	})
}

func winNode(pid int, title string) *axtest.Node {
	return axtest.NewNode(pid, map[string]ax.Value{
		ax.AttrRole:  ax.String("AXWindow"),
		ax.AttrTitle: ax.String(title),
	})
}

func TestGenerate_MintsPrefixedHandles(t *testing.T) {
	r := NewRegistry()

	ah, err := r.Generate(appNode(100), KindApplication, None)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(ah), "app_"))

	wh, err := r.Generate(winNode(100, "Main"), KindWindow, ah)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(wh), "win_"))
	require.Equal(t, 2, r.Count())
}

func TestGenerate_SameObjectSameHandle(t *testing.T) {
	r := NewRegistry()
	app := appNode(100)

	h1, err := r.Generate(app, KindApplication, None)
	require.NoError(t, err)
	h2, err := r.Generate(app, KindApplication, None)
	require.NoError(t, err)

	require.Equal(t, h1, h2)
	require.Equal(t, 1, r.Count())

	// Re-registration bumps the generation so stale holders are detectable.
	infos := r.List()
	require.Len(t, infos, 1)
	require.Equal(t, uint64(1), infos[0].Generation)
}

func TestGenerate_EqualAttributesDistinctObjects(t *testing.T) {
	r := NewRegistry()
	app := appNode(100)
	ah, err := r.Generate(app, KindApplication, None)
	require.NoError(t, err)

	// Two windows with identical titles are different native objects and
	// must get different handles.
	w1, err := r.Generate(winNode(100, "Untitled"), KindWindow, ah)
	require.NoError(t, err)
	w2, err := r.Generate(winNode(100, "Untitled"), KindWindow, ah)
	require.NoError(t, err)
	require.NotEqual(t, w1, w2)
}

func TestGenerate_InvalidParent(t *testing.T) {
	r := NewRegistry()

	_, err := r.Generate(winNode(100, "Main"), KindWindow, None)
	require.ErrorIs(t, err, ErrInvalidParent)

	_, err = r.Generate(winNode(100, "Main"), KindWindow, Handle("app_bogus"))
	require.ErrorIs(t, err, ErrInvalidParent)

	// A window handle is not a valid parent either.
	app := appNode(100)
	ah, err := r.Generate(app, KindApplication, None)
	require.NoError(t, err)
	wh, err := r.Generate(winNode(100, "Main"), KindWindow, ah)
	require.NoError(t, err)
	_, err = r.Generate(winNode(100, "Other"), KindWindow, wh)
	require.ErrorIs(t, err, ErrInvalidParent)
}

func TestGenerate_DeadParentIsInvalid(t *testing.T) {
	r := NewRegistry()
	app := appNode(100)
	ah, err := r.Generate(app, KindApplication, None)
	require.NoError(t, err)

	app.Kill()

	_, err = r.Generate(winNode(100, "Main"), KindWindow, ah)
	require.ErrorIs(t, err, ErrInvalidParent)

	// The dead parent was evicted on the way.
	require.Equal(t, 0, r.Count())
}

func TestGenerate_ParentOnApplicationRejected(t *testing.T) {
	r := NewRegistry()
	ah, err := r.Generate(appNode(100), KindApplication, None)
	require.NoError(t, err)

	_, err = r.Generate(appNode(200), KindApplication, ah)
	require.ErrorIs(t, err, ErrInvalidParent)
}

func TestResolve_Unknown(t *testing.T) {
	r := NewRegistry()
	_, err := r.Resolve(Handle("app_nope"))
	require.ErrorIs(t, err, ErrNotFound)
	require.Contains(t, err.Error(), "app_nope")
}

func TestResolve_LiveObject(t *testing.T) {
	r := NewRegistry()
	app := appNode(100)
	ah, err := r.Generate(app, KindApplication, None)
	require.NoError(t, err)

	ref, err := r.Resolve(ah)
	require.NoError(t, err)
	require.True(t, ref.SameAs(app))
	// Resolution probed the object rather than trusting presence.
	require.GreaterOrEqual(t, app.AttrReads(), 1)
}

func TestResolve_ExpiredEvicts(t *testing.T) {
	r := NewRegistry()
	app := appNode(100)
	ah, err := r.Generate(app, KindApplication, None)
	require.NoError(t, err)

	app.Kill()

	_, err = r.Resolve(ah)
	require.ErrorIs(t, err, ErrExpired)
	require.Equal(t, 0, r.Count())

	// Permanently invalid from now on.
	_, err = r.Resolve(ah)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestResolve_UnsupportedProbeAttributeStillAlive(t *testing.T) {
	r := NewRegistry()
	app := appNode(100)
	app.FailAttr(ax.AttrRole)
	ah, err := r.Generate(app, KindApplication, None)
	require.NoError(t, err)

	// Attribute-unsupported is not object-gone.
	_, err = r.Resolve(ah)
	require.NoError(t, err)
}

func TestResolve_WindowWithDeadParentExpires(t *testing.T) {
	r := NewRegistry()
	app := appNode(100)
	win := winNode(100, "Main")
	ah, err := r.Generate(app, KindApplication, None)
	require.NoError(t, err)
	wh, err := r.Generate(win, KindWindow, ah)
	require.NoError(t, err)

	// The window object itself still answers, but its parent is gone; the
	// window handle must not outlive the application handle.
	app.Kill()

	_, err = r.Resolve(wh)
	require.ErrorIs(t, err, ErrExpired)
	require.Equal(t, 0, r.Count())

	_, err = r.Resolve(ah)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRevoke_CascadesToWindows(t *testing.T) {
	r := NewRegistry()
	app := appNode(100)
	ah, err := r.Generate(app, KindApplication, None)
	require.NoError(t, err)
	wh1, err := r.Generate(winNode(100, "One"), KindWindow, ah)
	require.NoError(t, err)
	wh2, err := r.Generate(winNode(100, "Two"), KindWindow, ah)
	require.NoError(t, err)

	// Unrelated app survives the cascade.
	other, err := r.Generate(appNode(200), KindApplication, None)
	require.NoError(t, err)

	r.Revoke(ah)

	require.Equal(t, 1, r.Count())
	for _, h := range []Handle{ah, wh1, wh2} {
		_, err := r.Resolve(h)
		require.ErrorIs(t, err, ErrNotFound, "handle %s", h)
	}
	_, err = r.Resolve(other)
	require.NoError(t, err)
}

func TestRevoke_UnknownIsNoop(t *testing.T) {
	r := NewRegistry()
	r.Revoke(Handle("win_gone"))
	require.Equal(t, 0, r.Count())
}

func TestRegistry_ConcurrentReregistrationAndResolve(t *testing.T) {
	// Re-registering the same object rewrites the entry's ref and bumps its
	// generation under the write lock; resolving the same handle probes the
	// ref concurrently. Run under -race this verifies the probe never reads
	// the entry outside the lock.
	r := NewRegistry()
	app := appNode(100)
	ah, err := r.Generate(app, KindApplication, None)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if i%2 == 0 {
					if _, err := r.Generate(app, KindApplication, None); err != nil {
						errs <- err
						return
					}
					continue
				}
				if _, err := r.Resolve(ah); err != nil {
					errs <- err
					return
				}
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	require.Equal(t, 1, r.Count())
	infos := r.List()
	require.Len(t, infos, 1)
	require.Equal(t, uint64(400), infos[0].Generation)
}

func TestRegistry_ConcurrentGenerateResolve(t *testing.T) {
	r := NewRegistry()
	app := appNode(100)
	ah, err := r.Generate(app, KindApplication, None)
	require.NoError(t, err)

	var wg sync.WaitGroup
	handles := make([]Handle, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				h, err := r.Generate(winNode(100, fmt.Sprintf("w%d", i)), KindWindow, ah)
				if err == nil {
					handles[i] = h
				}
				return
			}
			_, _ = r.Resolve(ah)
		}(i)
	}
	wg.Wait()

	for i := 0; i < 50; i += 2 {
		require.NotEqual(t, None, handles[i])
		_, err := r.Resolve(handles[i])
		require.NoError(t, err)
	}
	require.Equal(t, 26, r.Count())
}
