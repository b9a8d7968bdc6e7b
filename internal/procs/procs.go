// Package procs enumerates running applications. Discovery is a collaborator
// of the object-resolution core: it supplies the PIDs that seed application
// handles but holds no native references itself.
package procs

import "sort"

// App describes one running application.
type App struct {
	Name     string `yaml:"name"                json:"name"`
	BundleID string `yaml:"bundle_id,omitempty" json:"bundle_id,omitempty"`
	PID      int    `yaml:"pid"                 json:"pid"`
}

// Lister enumerates running applications with a user interface.
type Lister interface {
	RunningApplications() ([]App, error)

	// FrontmostApplication returns the application that currently owns
	// the menu bar.
	FrontmostApplication() (App, error)
}

// SortApps orders apps by name for stable listings.
func SortApps(apps []App) {
	sort.Slice(apps, func(i, j int) bool {
		if apps[i].Name != apps[j].Name {
			return apps[i].Name < apps[j].Name
		}
		return apps[i].PID < apps[j].PID
	})
}

// FindByBundleID returns the first app matching the bundle identifier.
func FindByBundleID(apps []App, bundleID string) (App, bool) {
	for _, a := range apps {
		if a.BundleID == bundleID {
			return a, true
		}
	}
	return App{}, false
}

// FindByName returns the first app whose name matches exactly.
func FindByName(apps []App, name string) (App, bool) {
	for _, a := range apps {
		if a.Name == name {
			return a, true
		}
	}
	return App{}, false
}
