// Package perm gates every native-object access behind the two macOS
// capability grants the system needs: Accessibility (UI introspection) and
// Screen Recording (screen capture). Grants are externally mutable — the user
// can revoke either one in System Settings at any time — so the gate never
// caches a check result across calls.
package perm

import (
	"fmt"
	"time"
)

// Capability is one of the two gated permissions.
type Capability string

const (
	// Accessibility is the UI-introspection grant (AX APIs).
	Accessibility Capability = "accessibility"
	// ScreenCapture is the screen-recording grant.
	ScreenCapture Capability = "screen-capture"
)

// State is the tri-state result of a capability check.
type State string

const (
	Granted      State = "granted"
	Denied       State = "denied"
	Undetermined State = "undetermined"
)

// Status is the result of a single live check. CheckedAt records when the OS
// answered; a Status is valid for the request that obtained it and no longer.
type Status struct {
	Capability Capability `yaml:"capability" json:"capability"`
	State      State      `yaml:"state"      json:"state"`
	CheckedAt  time.Time  `yaml:"checked_at" json:"checked_at"`
}

// Granted reports whether the capability was granted at check time.
func (s Status) Granted() bool { return s.State == Granted }

// DeniedError reports a missing capability together with where in System
// Settings to grant it.
type DeniedError struct {
	Capability Capability
	Guidance   string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("%s permission required\n\n%s", e.Capability, e.Guidance)
}

// guidance is the remediation text attached to a denial.
var guidance = map[Capability]string{
	Accessibility: "Grant permission at: System Settings > Privacy & Security > Accessibility\n" +
		"Add the app hosting appmcpd (e.g. Terminal.app, iTerm2, or your MCP client).\n" +
		"Then restart it and try again.",
	ScreenCapture: "Grant permission at: System Settings > Privacy & Security > Screen Recording\n" +
		"Add the app hosting appmcpd (e.g. Terminal.app, iTerm2, or your MCP client).\n" +
		"Then restart it and try again.",
}

// Checker is the permission-status source. The darwin implementation queries
// the OS; Check must never prompt, Request may. For ScreenCapture the darwin
// Request performs the preflight-then-request two-step because the CG API is
// asymmetric (cheap non-prompting preflight, prompting request only if the
// preflight failed).
type Checker interface {
	// Check performs a live, non-prompting query of the capability.
	Check(c Capability) State

	// Request triggers the OS consent prompt where the platform supports
	// one and returns the resulting state. May block for as long as the
	// user leaves the dialog open.
	Request(c Capability) State
}

// Gate answers "is capability X currently granted" and "fail if not". It is
// stateless beyond the Checker it wraps; every call is a fresh OS query.
type Gate struct {
	checker Checker
}

// NewGate returns a Gate over the given status source.
func NewGate(c Checker) *Gate {
	return &Gate{checker: c}
}

// Check performs a live query. The result is only meaningful for the current
// request; callers must not hold it across operations.
func (g *Gate) Check(c Capability) Status {
	return Status{Capability: c, State: g.checker.Check(c), CheckedAt: time.Now()}
}

// Ensure fails with a *DeniedError carrying remediation guidance unless the
// capability is currently granted. It never prompts and never retries; a
// denial is terminal for the calling operation.
func (g *Gate) Ensure(c Capability) error {
	if g.checker.Check(c) != Granted {
		return &DeniedError{Capability: c, Guidance: guidance[c]}
	}
	return nil
}

// Request triggers the OS consent prompt. This is the one gate operation that
// may block on a human timescale; callers invoke it as an explicit step,
// never from inside resolution or extraction.
func (g *Gate) Request(c Capability) Status {
	return Status{Capability: c, State: g.checker.Request(c), CheckedAt: time.Now()}
}
