// Package handle maps opaque string handles to live native object references.
// A handle is the only form in which a native reference ever leaves the
// process: the references themselves are not serializable and not safe to
// hand to a remote client. The registry owns nothing — the OS keeps the
// referenced objects alive (or not) on its own schedule, so every resolution
// re-validates liveness instead of trusting registry presence.
package handle

import (
	"crypto/rand"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
)

// Kind tags a handle with the level of object it denotes.
type Kind string

const (
	KindApplication Kind = "application"
	KindWindow      Kind = "window"
)

// Handle is an opaque, process-local identifier. The app_/win_ prefix exists
// for operator readability in logs only; nothing parses a handle — all
// lookups go through the registry.
type Handle string

// None is the zero handle, used where a parent is not applicable.
const None Handle = ""

var (
	// ErrNotFound means the handle was never issued or has been revoked.
	ErrNotFound = errors.New("handle not found")

	// ErrExpired means the handle's backing object no longer answers
	// queries. The entry has been evicted; the handle is permanently
	// invalid and the client must re-resolve the object.
	ErrExpired = errors.New("handle expired")

	// ErrInvalidParent means a window handle was generated against a
	// parent that is not a live application handle.
	ErrInvalidParent = errors.New("invalid parent handle")
)

// mint issues a new unique handle string. ULIDs are unique for the process
// lifetime, so a handle value is never reused even after eviction.
func mint(kind Kind) Handle {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id := ulid.MustNew(ulid.Timestamp(time.Now()), entropy)
	prefix := "app_"
	if kind == KindWindow {
		prefix = "win_"
	}
	return Handle(prefix + id.String())
}
