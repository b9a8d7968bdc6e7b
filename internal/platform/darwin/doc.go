// Package darwin implements the platform interfaces for macOS using the
// Accessibility (AXUIElement), CoreGraphics, and AppKit APIs via cgo.
//
// Importing this package (for its init side effect) registers the macOS
// provider with the platform package:
//
//	import _ "github.com/1amageek/app-mcp-sub001/internal/platform/darwin"
//
// All files carry darwin build tags; on other platforms the provider stays
// unregistered and platform.NewProvider returns ErrUnsupported.
package darwin
