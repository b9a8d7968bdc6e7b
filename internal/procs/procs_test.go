package procs

import "testing"

func TestSortApps(t *testing.T) {
	apps := []App{
		{Name: "Safari", PID: 30},
		{Name: "Finder", PID: 10},
		{Name: "Safari", PID: 20},
	}
	SortApps(apps)

	want := []App{
		{Name: "Finder", PID: 10},
		{Name: "Safari", PID: 20},
		{Name: "Safari", PID: 30},
	}
	for i, w := range want {
		if apps[i] != w {
			t.Errorf("apps[%d] = %+v, want %+v", i, apps[i], w)
		}
	}
}

func TestFindHelpers(t *testing.T) {
	apps := []App{
		{Name: "Notes", BundleID: "com.apple.Notes", PID: 42},
		{Name: "Safari", BundleID: "com.apple.Safari", PID: 77},
	}

	if app, ok := FindByBundleID(apps, "com.apple.Safari"); !ok || app.PID != 77 {
		t.Errorf("FindByBundleID = %+v, %v", app, ok)
	}
	if _, ok := FindByBundleID(apps, "com.example.nope"); ok {
		t.Error("expected no match for unknown bundle id")
	}
	if app, ok := FindByName(apps, "Notes"); !ok || app.PID != 42 {
		t.Errorf("FindByName = %+v, %v", app, ok)
	}
	if _, ok := FindByName(apps, "notes"); ok {
		t.Error("name match is case-sensitive")
	}
}
