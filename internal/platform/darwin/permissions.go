//go:build darwin

package darwin

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework ApplicationServices -framework CoreGraphics -framework Foundation
#include <ApplicationServices/ApplicationServices.h>
#include <CoreGraphics/CoreGraphics.h>

static int ax_is_trusted() {
    return AXIsProcessTrusted();
}

// Prompting variant: shows the system consent dialog if not yet trusted.
static int ax_request_trust() {
    CFStringRef keys[] = { kAXTrustedCheckOptionPrompt };
    CFBooleanRef values[] = { kCFBooleanTrue };
    CFDictionaryRef options = CFDictionaryCreate(kCFAllocatorDefault,
        (const void **)keys, (const void **)values, 1,
        &kCFTypeDictionaryKeyCallBacks, &kCFTypeDictionaryValueCallBacks);
    int trusted = AXIsProcessTrustedWithOptions(options);
    CFRelease(options);
    return trusted;
}

static int cg_preflight_screen_capture() {
    return CGPreflightScreenCaptureAccess();
}

static int cg_request_screen_capture() {
    return CGRequestScreenCaptureAccess();
}
*/
import "C"

import "github.com/1amageek/app-mcp-sub001/internal/perm"

// Checker implements perm.Checker against the macOS permission APIs. Neither
// API distinguishes "never asked" from "denied" on the query path, so Check
// reports Denied for both; Request is the only way to surface the system
// prompt.
type Checker struct{}

// NewChecker returns the macOS permission-status source.
func NewChecker() *Checker {
	return &Checker{}
}

// Check performs a live, non-prompting query.
func (*Checker) Check(c perm.Capability) perm.State {
	switch c {
	case perm.Accessibility:
		if C.ax_is_trusted() != 0 {
			return perm.Granted
		}
	case perm.ScreenCapture:
		if C.cg_preflight_screen_capture() != 0 {
			return perm.Granted
		}
	}
	return perm.Denied
}

// Request triggers the OS consent prompt. For screen capture the CG API is
// asymmetric: a cheap preflight first, then the prompting request only when
// the preflight fails.
func (*Checker) Request(c perm.Capability) perm.State {
	switch c {
	case perm.Accessibility:
		if C.ax_request_trust() != 0 {
			return perm.Granted
		}
	case perm.ScreenCapture:
		if C.cg_preflight_screen_capture() != 0 {
			return perm.Granted
		}
		if C.cg_request_screen_capture() != 0 {
			return perm.Granted
		}
	}
	return perm.Denied
}
