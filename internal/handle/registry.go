package handle

import (
	"fmt"
	"sync"

	"github.com/1amageek/app-mcp-sub001/internal/ax"
)

// entry associates a handle with the native reference it denotes.
type entry struct {
	handle     Handle
	kind       Kind
	ref        ax.Ref
	pid        int
	parent     Handle // application handle, window entries only
	generation uint64
}

// Info is a diagnostic view of a registry entry.
type Info struct {
	Handle     Handle `yaml:"handle"           json:"handle"`
	Kind       Kind   `yaml:"kind"             json:"kind"`
	PID        int    `yaml:"pid"              json:"pid"`
	Parent     Handle `yaml:"parent,omitempty" json:"parent,omitempty"`
	Generation uint64 `yaml:"generation"       json:"generation"`
}

// Registry is the process-wide handle table. Mutations (insert, evict,
// generation bump) are mutually exclusive; lookups of different entries
// proceed in parallel under the read lock. Liveness probes run outside the
// lock — they call into the OS and must not serialize unrelated requests.
type Registry struct {
	mu      sync.RWMutex
	entries map[Handle]*entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[Handle]*entry)}
}

// Generate registers ref and returns its handle. If the same native object
// (by native identity, not attribute equality) is already registered, the
// existing handle is returned with its generation bumped, so clients can use
// handles as stable cache keys across repeated queries. For KindWindow,
// parent must be a live application handle; otherwise Generate fails with
// ErrInvalidParent.
//
// If the platform ever reports equal identity for two structurally distinct
// objects (a rare OS quirk), the registry trusts the platform and returns the
// first handle.
func (r *Registry) Generate(ref ax.Ref, kind Kind, parent Handle) (Handle, error) {
	if kind == KindWindow {
		if err := r.checkParent(parent); err != nil {
			return None, err
		}
	} else if parent != None {
		return None, fmt.Errorf("parent %q on %s handle: %w", parent, kind, ErrInvalidParent)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		if e.kind == kind && e.ref.SameAs(ref) {
			e.generation++
			e.ref = ref // keep the freshest reference to the same object
			return e.handle, nil
		}
	}

	h := mint(kind)
	r.entries[h] = &entry{
		handle: h,
		kind:   kind,
		ref:    ref,
		pid:    ref.PID(),
		parent: parent,
	}
	return h, nil
}

// checkParent verifies the parent handle denotes a live application entry.
// A dead parent is evicted (with its windows) before reporting.
func (r *Registry) checkParent(parent Handle) error {
	if parent == None {
		return fmt.Errorf("window handle requires an application parent: %w", ErrInvalidParent)
	}

	r.mu.RLock()
	pe, ok := r.entries[parent]
	var parentRef ax.Ref
	if ok {
		// Copy the ref under the lock; Generate rewrites e.ref on
		// re-registration and an interface value must not be read torn.
		parentRef = pe.ref
	}
	r.mu.RUnlock()
	if !ok || pe.kind != KindApplication {
		return fmt.Errorf("parent %q: %w", parent, ErrInvalidParent)
	}

	if !alive(parentRef) {
		r.evict(parent)
		return fmt.Errorf("parent %q: %w", parent, ErrInvalidParent)
	}
	return nil
}

// Resolve returns the native reference behind h after re-validating that it
// still answers queries. Resolution is the single choke point where staleness
// is caught: a structurally present entry whose object is gone is evicted and
// reported as expired, never returned. A window whose parent application
// entry is dead is itself expired, even if its own reference still answers.
func (r *Registry) Resolve(h Handle) (ax.Ref, error) {
	// Refs are copied under the lock: Generate rewrites e.ref on
	// re-registration, and the liveness probes below run unlocked.
	r.mu.RLock()
	e, ok := r.entries[h]
	var ref, parentRef ax.Ref
	var parentKnown bool
	if ok {
		ref = e.ref
		if e.parent != None {
			if pe := r.entries[e.parent]; pe != nil {
				parentKnown = true
				parentRef = pe.ref
			}
		}
	}
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("handle %q: %w", h, ErrNotFound)
	}

	if e.kind == KindWindow {
		// Orphaned cross-reference: the parent entry is gone or dead.
		if !parentKnown || !alive(parentRef) {
			if parentKnown {
				r.evict(e.parent)
			}
			r.evict(h)
			return nil, fmt.Errorf("handle %q (parent %q gone): %w", h, e.parent, ErrExpired)
		}
	}

	if !alive(ref) {
		r.evict(h)
		return nil, fmt.Errorf("handle %q: %w", h, ErrExpired)
	}
	return ref, nil
}

// Revoke invalidates h and every window handle parented on it. Used when a
// caller learns out-of-band that the object was torn down (application quit).
// Revoking an unknown handle is a no-op.
func (r *Registry) Revoke(h Handle) {
	r.evict(h)
}

// evict removes h and cascades to window entries whose parent is h.
func (r *Registry) evict(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[h]
	if !ok {
		return
	}
	delete(r.entries, h)
	if e.kind != KindApplication {
		return
	}
	for k, child := range r.entries {
		if child.parent == h {
			delete(r.entries, k)
		}
	}
}

// Kind returns the kind of a registered handle.
func (r *Registry) Kind(h Handle) (Kind, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[h]
	if !ok {
		return "", false
	}
	return e.kind, true
}

// Count returns the number of live entries, for leak detection in
// long-running sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// List returns a diagnostic snapshot of all entries. No liveness probing is
// performed; entries may be stale until their next Resolve.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Info, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, Info{
			Handle:     e.handle,
			Kind:       e.kind,
			PID:        e.pid,
			Parent:     e.parent,
			Generation: e.generation,
		})
	}
	return out
}

// alive probes ref with the cheapest attribute every AX object answers.
// Only an object-gone response counts as dead; an unsupported attribute
// still proves the object is answering.
func alive(ref ax.Ref) bool {
	_, err := ref.Attribute(ax.AttrRole)
	return !ax.IsGone(err)
}
