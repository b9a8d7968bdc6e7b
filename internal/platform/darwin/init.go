//go:build darwin && cgo

package darwin

import "github.com/1amageek/app-mcp-sub001/internal/platform"

func init() {
	platform.NewProviderFunc = func() (*platform.Provider, error) {
		return &platform.Provider{
			Source:        NewSource(),
			Permissions:   NewChecker(),
			Apps:          NewAppLister(),
			Inputter:      NewInputter(),
			Screenshotter: NewScreenshotter(),
		}, nil
	}
}
