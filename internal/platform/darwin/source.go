//go:build darwin

package darwin

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework ApplicationServices -framework CoreFoundation -framework Foundation
#include <ApplicationServices/ApplicationServices.h>
#include <CoreFoundation/CoreFoundation.h>
#include <stdlib.h>
#include <string.h>

// Result codes shared by the ax_attr_* helpers:
//   0 = ok, 1 = attribute unsupported or no value, 2 = object gone
static int ax_map_error(AXError err) {
    switch (err) {
        case kAXErrorSuccess:
            return 0;
        case kAXErrorInvalidUIElement:
        case kAXErrorCannotComplete:
            return 2;
        default:
            return 1;
    }
}

static AXUIElementRef ax_app_ref(pid_t pid) {
    return AXUIElementCreateApplication(pid);
}

static void ax_release(AXUIElementRef el) {
    if (el) CFRelease(el);
}

static int ax_same(AXUIElementRef a, AXUIElementRef b) {
    return CFEqual(a, b);
}

static pid_t ax_pid(AXUIElementRef el) {
    pid_t pid = 0;
    AXUIElementGetPid(el, &pid);
    return pid;
}

// Copies a string-convertible attribute (CFString, CFNumber, CFBoolean) into
// a malloc'd UTF-8 buffer.
static int ax_attr_string(AXUIElementRef el, const char *name, char **out) {
    *out = NULL;
    CFStringRef attr = CFStringCreateWithCString(kCFAllocatorDefault, name, kCFStringEncodingUTF8);
    CFTypeRef value = NULL;
    AXError err = AXUIElementCopyAttributeValue(el, attr, &value);
    CFRelease(attr);
    if (err != kAXErrorSuccess) return ax_map_error(err);
    if (!value) return 1;

    CFStringRef str = NULL;
    char buf[64];
    if (CFGetTypeID(value) == CFStringGetTypeID()) {
        str = (CFStringRef)CFRetain(value);
    } else if (CFGetTypeID(value) == CFNumberGetTypeID()) {
        double d = 0;
        CFNumberGetValue((CFNumberRef)value, kCFNumberDoubleType, &d);
        if (d == (long long)d) snprintf(buf, sizeof(buf), "%lld", (long long)d);
        else snprintf(buf, sizeof(buf), "%g", d);
        str = CFStringCreateWithCString(kCFAllocatorDefault, buf, kCFStringEncodingUTF8);
    } else if (CFGetTypeID(value) == CFBooleanGetTypeID()) {
        str = CFStringCreateWithCString(kCFAllocatorDefault,
            CFBooleanGetValue((CFBooleanRef)value) ? "true" : "false", kCFStringEncodingUTF8);
    }
    CFRelease(value);
    if (!str) return 1;

    CFIndex len = CFStringGetMaximumSizeForEncoding(CFStringGetLength(str), kCFStringEncodingUTF8) + 1;
    *out = malloc(len);
    if (!CFStringGetCString(str, *out, len, kCFStringEncodingUTF8)) {
        free(*out);
        *out = NULL;
        CFRelease(str);
        return 1;
    }
    CFRelease(str);
    return 0;
}

static int ax_attr_bool(AXUIElementRef el, const char *name, int *out) {
    CFStringRef attr = CFStringCreateWithCString(kCFAllocatorDefault, name, kCFStringEncodingUTF8);
    CFTypeRef value = NULL;
    AXError err = AXUIElementCopyAttributeValue(el, attr, &value);
    CFRelease(attr);
    if (err != kAXErrorSuccess) return ax_map_error(err);
    if (!value || CFGetTypeID(value) != CFBooleanGetTypeID()) {
        if (value) CFRelease(value);
        return 1;
    }
    *out = CFBooleanGetValue((CFBooleanRef)value);
    CFRelease(value);
    return 0;
}

static int ax_attr_point(AXUIElementRef el, const char *name, double *x, double *y) {
    CFStringRef attr = CFStringCreateWithCString(kCFAllocatorDefault, name, kCFStringEncodingUTF8);
    CFTypeRef value = NULL;
    AXError err = AXUIElementCopyAttributeValue(el, attr, &value);
    CFRelease(attr);
    if (err != kAXErrorSuccess) return ax_map_error(err);
    CGPoint p;
    if (!value || !AXValueGetValue((AXValueRef)value, kAXValueTypeCGPoint, &p)) {
        if (value) CFRelease(value);
        return 1;
    }
    CFRelease(value);
    *x = p.x;
    *y = p.y;
    return 0;
}

static int ax_attr_size(AXUIElementRef el, const char *name, double *w, double *h) {
    CFStringRef attr = CFStringCreateWithCString(kCFAllocatorDefault, name, kCFStringEncodingUTF8);
    CFTypeRef value = NULL;
    AXError err = AXUIElementCopyAttributeValue(el, attr, &value);
    CFRelease(attr);
    if (err != kAXErrorSuccess) return ax_map_error(err);
    CGSize s;
    if (!value || !AXValueGetValue((AXValueRef)value, kAXValueTypeCGSize, &s)) {
        if (value) CFRelease(value);
        return 1;
    }
    CFRelease(value);
    *w = s.width;
    *h = s.height;
    return 0;
}

static int ax_child_count(AXUIElementRef el, long *count) {
    CFIndex n = 0;
    AXError err = AXUIElementGetAttributeValueCount(el, CFSTR("AXChildren"), &n);
    if (err != kAXErrorSuccess) return ax_map_error(err);
    *count = n;
    return 0;
}

// Copies the ordered AXChildren into a malloc'd array of retained refs.
static int ax_children(AXUIElementRef el, AXUIElementRef **out, long *count) {
    *out = NULL;
    *count = 0;
    CFTypeRef value = NULL;
    AXError err = AXUIElementCopyAttributeValue(el, CFSTR("AXChildren"), &value);
    if (err != kAXErrorSuccess) return ax_map_error(err);
    if (!value || CFGetTypeID(value) != CFArrayGetTypeID()) {
        if (value) CFRelease(value);
        return 1;
    }
    CFArrayRef arr = (CFArrayRef)value;
    CFIndex n = CFArrayGetCount(arr);
    AXUIElementRef *refs = malloc(sizeof(AXUIElementRef) * (n > 0 ? n : 1));
    for (CFIndex i = 0; i < n; i++) {
        refs[i] = (AXUIElementRef)CFRetain(CFArrayGetValueAtIndex(arr, i));
    }
    CFRelease(arr);
    *out = refs;
    *count = n;
    return 0;
}
*/
import "C"

import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/1amageek/app-mcp-sub001/internal/ax"
)

// Source implements ax.Source over AXUIElement.
type Source struct{}

// NewSource returns the macOS accessibility source.
func NewSource() *Source {
	return &Source{}
}

// ApplicationRef returns the root accessibility object for pid. The AX API
// mints an application element for any pid; liveness is confirmed with a
// probe read so a dead pid reports ErrObjectGone here rather than on first
// attribute access.
func (*Source) ApplicationRef(pid int) (ax.Ref, error) {
	el := C.ax_app_ref(C.pid_t(pid))
	if el == nil {
		return nil, fmt.Errorf("pid %d: %w", pid, ax.ErrObjectGone)
	}
	ref := newRef(el, pid)
	if _, err := ref.Attribute(ax.AttrRole); ax.IsGone(err) {
		return nil, fmt.Errorf("pid %d: %w", pid, ax.ErrObjectGone)
	}
	return ref, nil
}

// axRef wraps a retained AXUIElementRef. The wrapper owns only the CF retain,
// never the underlying UI object; release happens via finalizer so refs held
// by the handle registry stay valid as long as Go holds them.
type axRef struct {
	el  C.AXUIElementRef
	pid int
}

func newRef(el C.AXUIElementRef, pid int) *axRef {
	r := &axRef{el: el, pid: pid}
	runtime.SetFinalizer(r, func(r *axRef) {
		C.ax_release(r.el)
	})
	return r
}

func mapErr(rc C.int, name string) error {
	switch rc {
	case 2:
		return fmt.Errorf("%s: %w", name, ax.ErrObjectGone)
	default:
		return fmt.Errorf("%s: %w", name, ax.ErrAttributeUnsupported)
	}
}

// Attribute implements ax.Ref.
func (r *axRef) Attribute(name string) (ax.Value, error) {
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))
	defer runtime.KeepAlive(r)

	switch name {
	case ax.AttrPosition:
		var x, y C.double
		if rc := C.ax_attr_point(r.el, cName, &x, &y); rc != 0 {
			return ax.Value{}, mapErr(rc, name)
		}
		return ax.PointValue(ax.Point{X: float64(x), Y: float64(y)}), nil
	case ax.AttrSize:
		var w, h C.double
		if rc := C.ax_attr_size(r.el, cName, &w, &h); rc != 0 {
			return ax.Value{}, mapErr(rc, name)
		}
		return ax.SizeValue(ax.Size{Width: float64(w), Height: float64(h)}), nil
	case ax.AttrEnabled, ax.AttrFocused:
		var b C.int
		if rc := C.ax_attr_bool(r.el, cName, &b); rc != 0 {
			return ax.Value{}, mapErr(rc, name)
		}
		return ax.Bool(b != 0), nil
	default:
		var out *C.char
		if rc := C.ax_attr_string(r.el, cName, &out); rc != 0 {
			return ax.Value{}, mapErr(rc, name)
		}
		defer C.free(unsafe.Pointer(out))
		return ax.String(C.GoString(out)), nil
	}
}

// Children implements ax.Ref.
func (r *axRef) Children() ([]ax.Ref, error) {
	var refs *C.AXUIElementRef
	var count C.long
	rc := C.ax_children(r.el, &refs, &count)
	runtime.KeepAlive(r)
	if rc != 0 {
		return nil, mapErr(rc, "AXChildren")
	}
	defer C.free(unsafe.Pointer(refs))

	n := int(count)
	if n == 0 {
		return nil, nil
	}
	cSlice := unsafe.Slice(refs, n)
	out := make([]ax.Ref, n)
	for i := 0; i < n; i++ {
		out[i] = newRef(cSlice[i], r.pid)
	}
	return out, nil
}

// ChildCount implements ax.Ref.
func (r *axRef) ChildCount() (int, error) {
	var count C.long
	rc := C.ax_child_count(r.el, &count)
	runtime.KeepAlive(r)
	if rc != 0 {
		return 0, mapErr(rc, "AXChildren")
	}
	return int(count), nil
}

// SameAs implements ax.Ref with CFEqual, which compares AX native identity,
// not attribute equality.
func (r *axRef) SameAs(other ax.Ref) bool {
	o, ok := other.(*axRef)
	if !ok {
		return false
	}
	same := C.ax_same(r.el, o.el) != 0
	runtime.KeepAlive(r)
	runtime.KeepAlive(o)
	return same
}

// PID implements ax.Ref.
func (r *axRef) PID() int {
	if r.pid != 0 {
		return r.pid
	}
	pid := int(C.ax_pid(r.el))
	runtime.KeepAlive(r)
	return pid
}
