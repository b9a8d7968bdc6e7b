package perm

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeChecker is a scripted permission-status source. Each Check reads the
// current scripted state, so tests can flip grants between calls the way a
// user can in System Settings.
type fakeChecker struct {
	mu       sync.Mutex
	states   map[Capability]State
	requests map[Capability]int
	checks   map[Capability]int
}

func newFakeChecker() *fakeChecker {
	return &fakeChecker{
		states:   map[Capability]State{Accessibility: Undetermined, ScreenCapture: Undetermined},
		requests: make(map[Capability]int),
		checks:   make(map[Capability]int),
	}
}

func (f *fakeChecker) set(c Capability, s State) {
	f.mu.Lock()
	f.states[c] = s
	f.mu.Unlock()
}

func (f *fakeChecker) Check(c Capability) State {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checks[c]++
	return f.states[c]
}

func (f *fakeChecker) Request(c Capability) State {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests[c]++
	// Prompting grants accessibility in this script; screen capture stays
	// whatever the test set it to.
	if c == Accessibility {
		f.states[c] = Granted
	}
	return f.states[c]
}

func TestGate_EnsureGranted(t *testing.T) {
	fc := newFakeChecker()
	fc.set(Accessibility, Granted)
	g := NewGate(fc)

	require.NoError(t, g.Ensure(Accessibility))
}

func TestGate_EnsureDeniedCarriesGuidance(t *testing.T) {
	fc := newFakeChecker()
	fc.set(ScreenCapture, Denied)
	g := NewGate(fc)

	err := g.Ensure(ScreenCapture)
	require.Error(t, err)

	var denied *DeniedError
	require.True(t, errors.As(err, &denied))
	require.Equal(t, ScreenCapture, denied.Capability)
	require.Contains(t, denied.Guidance, "Screen Recording")
	require.True(t, strings.Contains(err.Error(), "permission required"))
}

func TestGate_EnsureUndeterminedIsDenied(t *testing.T) {
	g := NewGate(newFakeChecker())

	var denied *DeniedError
	require.ErrorAs(t, g.Ensure(Accessibility), &denied)
	require.Equal(t, Accessibility, denied.Capability)
}

func TestGate_CheckNeverCaches(t *testing.T) {
	fc := newFakeChecker()
	fc.set(Accessibility, Granted)
	g := NewGate(fc)

	require.Equal(t, Granted, g.Check(Accessibility).State)

	// Revocation outside process control must be visible on the next call.
	fc.set(Accessibility, Denied)
	require.Equal(t, Denied, g.Check(Accessibility).State)
	require.Equal(t, 2, fc.checks[Accessibility])
}

func TestGate_CheckTimestamps(t *testing.T) {
	g := NewGate(newFakeChecker())

	before := time.Now()
	st := g.Check(ScreenCapture)
	require.Equal(t, ScreenCapture, st.Capability)
	require.False(t, st.CheckedAt.Before(before))
	require.False(t, st.Granted())
}

func TestGate_RequestPrompts(t *testing.T) {
	fc := newFakeChecker()
	g := NewGate(fc)

	st := g.Request(Accessibility)
	require.Equal(t, Granted, st.State)
	require.Equal(t, 1, fc.requests[Accessibility])

	// The grant sticks for subsequent non-prompting checks.
	require.NoError(t, g.Ensure(Accessibility))
}
