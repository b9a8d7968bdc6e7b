//go:build darwin

package darwin

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework CoreGraphics -framework CoreFoundation -framework ImageIO -framework CoreServices
#include <CoreGraphics/CoreGraphics.h>
#include <ImageIO/ImageIO.h>
#include <CoreServices/CoreServices.h>
#include <stdlib.h>
#include <string.h>

// Encodes a CGImage as PNG into a malloc'd buffer.
static int cg_encode_png(CGImageRef image, unsigned char **out, long *outLen) {
    CFMutableDataRef data = CFDataCreateMutable(kCFAllocatorDefault, 0);
    CGImageDestinationRef dest = CGImageDestinationCreateWithData(data, kUTTypePNG, 1, NULL);
    if (!dest) {
        CFRelease(data);
        return -1;
    }
    CGImageDestinationAddImage(dest, image, NULL);
    int ok = CGImageDestinationFinalize(dest);
    CFRelease(dest);
    if (!ok) {
        CFRelease(data);
        return -1;
    }
    long len = CFDataGetLength(data);
    unsigned char *buf = malloc(len);
    memcpy(buf, CFDataGetBytePtr(data), len);
    CFRelease(data);
    *out = buf;
    *outLen = len;
    return 0;
}

// Captures a single window by system window ID as PNG.
static int cg_capture_window_png(int windowID, unsigned char **out, long *outLen) {
    CGImageRef image = CGWindowListCreateImage(
        CGRectNull,
        kCGWindowListOptionIncludingWindow,
        (CGWindowID)windowID,
        kCGWindowImageBoundsIgnoreFraming);
    if (!image) return -1;
    int rc = cg_encode_png(image, out, outLen);
    CGImageRelease(image);
    return rc;
}

// Captures the main display as PNG.
static int cg_capture_screen_png(unsigned char **out, long *outLen) {
    CGImageRef image = CGDisplayCreateImage(CGMainDisplayID());
    if (!image) return -1;
    int rc = cg_encode_png(image, out, outLen);
    CGImageRelease(image);
    return rc;
}

// Finds the first layer-0 window owned by pid, front to back.
static int cg_front_window_id(int pid) {
    CFArrayRef windows = CGWindowListCopyWindowInfo(
        kCGWindowListOptionOnScreenOnly | kCGWindowListExcludeDesktopElements,
        kCGNullWindowID);
    if (!windows) return 0;
    int found = 0;
    CFIndex n = CFArrayGetCount(windows);
    for (CFIndex i = 0; i < n && !found; i++) {
        CFDictionaryRef info = CFArrayGetValueAtIndex(windows, i);
        int winPid = 0, layer = -1, winID = 0;
        CFNumberRef v;
        if ((v = CFDictionaryGetValue(info, kCGWindowOwnerPID)))
            CFNumberGetValue(v, kCFNumberIntType, &winPid);
        if ((v = CFDictionaryGetValue(info, kCGWindowLayer)))
            CFNumberGetValue(v, kCFNumberIntType, &layer);
        if ((v = CFDictionaryGetValue(info, kCGWindowNumber)))
            CFNumberGetValue(v, kCFNumberIntType, &winID);
        if (winPid == pid && layer == 0) found = winID;
    }
    CFRelease(windows);
    return found;
}
*/
import "C"

import (
	"fmt"
	"unsafe"
)

// Screenshotter implements platform.Screenshotter for macOS. Capture always
// produces PNG; downscaling and JPEG re-encoding happen in the image pipeline
// (internal/imaging), not here.
type Screenshotter struct{}

// NewScreenshotter creates a new macOS screenshotter.
func NewScreenshotter() *Screenshotter {
	return &Screenshotter{}
}

func captureResult(rc C.int, buf *C.uchar, length C.long, what string) ([]byte, error) {
	if rc != 0 {
		return nil, fmt.Errorf("failed to capture %s", what)
	}
	defer C.free(unsafe.Pointer(buf))
	return C.GoBytes(unsafe.Pointer(buf), C.int(length)), nil
}

// CaptureWindow captures a single window by system window ID.
func (*Screenshotter) CaptureWindow(windowID int) ([]byte, error) {
	var buf *C.uchar
	var length C.long
	rc := C.cg_capture_window_png(C.int(windowID), &buf, &length)
	return captureResult(rc, buf, length, fmt.Sprintf("window %d", windowID))
}

// CaptureScreen captures the main display.
func (*Screenshotter) CaptureScreen() ([]byte, error) {
	var buf *C.uchar
	var length C.long
	rc := C.cg_capture_screen_png(&buf, &length)
	return captureResult(rc, buf, length, "screen")
}

// FrontWindowID returns the frontmost layer-0 window of pid, or 0.
func (*Screenshotter) FrontWindowID(pid int) (int, error) {
	return int(C.cg_front_window_id(C.int(pid))), nil
}
