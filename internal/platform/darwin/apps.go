//go:build darwin

package darwin

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework AppKit -framework Foundation
#import <AppKit/AppKit.h>
#include <stdlib.h>
#include <string.h>

typedef struct {
    char *name;
    char *bundleID;
    int pid;
} RunningApp;

// Enumerates regular (Dock-visible) applications. Caller frees with
// free_running_apps.
static int list_running_apps(RunningApp **out, int *count) {
    @autoreleasepool {
        NSArray<NSRunningApplication *> *apps = [[NSWorkspace sharedWorkspace] runningApplications];
        NSMutableArray<NSRunningApplication *> *regular = [NSMutableArray array];
        for (NSRunningApplication *app in apps) {
            if (app.activationPolicy == NSApplicationActivationPolicyRegular) {
                [regular addObject:app];
            }
        }
        int n = (int)regular.count;
        RunningApp *result = calloc(n > 0 ? n : 1, sizeof(RunningApp));
        for (int i = 0; i < n; i++) {
            NSRunningApplication *app = regular[i];
            const char *name = app.localizedName ? app.localizedName.UTF8String : "";
            const char *bid = app.bundleIdentifier ? app.bundleIdentifier.UTF8String : "";
            result[i].name = strdup(name);
            result[i].bundleID = strdup(bid);
            result[i].pid = (int)app.processIdentifier;
        }
        *out = result;
        *count = n;
        return 0;
    }
}

// Fills out with the frontmost application. Returns 0 on success.
static int frontmost_app(RunningApp *out) {
    @autoreleasepool {
        NSRunningApplication *app = [[NSWorkspace sharedWorkspace] frontmostApplication];
        if (!app) return -1;
        const char *name = app.localizedName ? app.localizedName.UTF8String : "";
        const char *bid = app.bundleIdentifier ? app.bundleIdentifier.UTF8String : "";
        out->name = strdup(name);
        out->bundleID = strdup(bid);
        out->pid = (int)app.processIdentifier;
        return 0;
    }
}

static void free_running_apps(RunningApp *apps, int count) {
    for (int i = 0; i < count; i++) {
        free(apps[i].name);
        free(apps[i].bundleID);
    }
    free(apps);
}
*/
import "C"

import (
	"fmt"
	"unsafe"

	"github.com/1amageek/app-mcp-sub001/internal/procs"
)

// AppLister implements procs.Lister over NSWorkspace.
type AppLister struct{}

// NewAppLister returns the macOS application lister.
func NewAppLister() *AppLister {
	return &AppLister{}
}

// RunningApplications returns Dock-visible applications sorted by name.
func (*AppLister) RunningApplications() ([]procs.App, error) {
	var cApps *C.RunningApp
	var cCount C.int
	if C.list_running_apps(&cApps, &cCount) != 0 {
		return nil, fmt.Errorf("failed to enumerate running applications")
	}
	defer C.free_running_apps(cApps, cCount)

	count := int(cCount)
	apps := make([]procs.App, 0, count)
	if count > 0 {
		cSlice := unsafe.Slice(cApps, count)
		for i := 0; i < count; i++ {
			apps = append(apps, procs.App{
				Name:     C.GoString(cSlice[i].name),
				BundleID: C.GoString(cSlice[i].bundleID),
				PID:      int(cSlice[i].pid),
			})
		}
	}
	procs.SortApps(apps)
	return apps, nil
}

// FrontmostApplication returns the application owning the menu bar.
func (*AppLister) FrontmostApplication() (procs.App, error) {
	var cApp C.RunningApp
	if C.frontmost_app(&cApp) != 0 {
		return procs.App{}, fmt.Errorf("no frontmost application")
	}
	app := procs.App{
		Name:     C.GoString(cApp.name),
		BundleID: C.GoString(cApp.bundleID),
		PID:      int(cApp.pid),
	}
	C.free(unsafe.Pointer(cApp.name))
	C.free(unsafe.Pointer(cApp.bundleID))
	return app, nil
}
