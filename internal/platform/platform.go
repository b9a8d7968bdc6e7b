// Package platform declares the OS-facing interfaces the server consumes and
// bundles their per-platform implementations into a Provider. Implementations
// live in build-tagged subpackages and register themselves via init, keeping
// cgo out of every other package.
package platform

import (
	"fmt"
	"runtime"

	"github.com/1amageek/app-mcp-sub001/internal/ax"
	"github.com/1amageek/app-mcp-sub001/internal/perm"
	"github.com/1amageek/app-mcp-sub001/internal/procs"
)

// Inputter synthesizes mouse and keyboard input.
type Inputter interface {
	Click(x, y int, button MouseButton, count int) error
	TypeText(text string, delayMs int) error
	KeyCombo(keys []string) error
}

// Screenshotter captures window or full-screen images as PNG bytes.
// Scaling and format conversion happen in Go, not in the capture layer.
type Screenshotter interface {
	CaptureWindow(windowID int) ([]byte, error)
	CaptureScreen() ([]byte, error)
	// FrontWindowID returns the system window ID of the frontmost window
	// of the given process, or 0 if it has none.
	FrontWindowID(pid int) (int, error)
}

// Provider bundles all platform backends for the current OS.
type Provider struct {
	Source        ax.Source
	Permissions   perm.Checker
	Apps          procs.Lister
	Inputter      Inputter
	Screenshotter Screenshotter
}

// ErrUnsupported is returned on unsupported platforms.
var ErrUnsupported = fmt.Errorf("appmcpd is not supported on %s/%s; supported: darwin/amd64, darwin/arm64", runtime.GOOS, runtime.GOARCH)

// NewProviderFunc is set by platform-specific packages via init().
// See internal/platform/darwin for the macOS registration.
var NewProviderFunc func() (*Provider, error)

// NewProvider returns a Provider for the current OS.
func NewProvider() (*Provider, error) {
	if NewProviderFunc == nil {
		return nil, ErrUnsupported
	}
	return NewProviderFunc()
}
