package server

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"gopkg.in/yaml.v3"

	"github.com/1amageek/app-mcp-sub001/internal/handle"
	"github.com/1amageek/app-mcp-sub001/internal/perm"
	"github.com/1amageek/app-mcp-sub001/internal/procs"
	"github.com/1amageek/app-mcp-sub001/internal/tree"
)

func yamlResource(uri string, v interface{}) ([]mcp.ResourceContents, error) {
	b, err := yaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal resource: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/yaml",
			Text:     string(b),
		},
	}, nil
}

func (s *Server) readRunningApplications(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	apps, err := s.provider.Apps.RunningApplications()
	if err != nil {
		return nil, err
	}
	procs.SortApps(apps)
	return yamlResource(request.Params.URI, map[string]interface{}{
		"count":        len(apps),
		"applications": apps,
	})
}

func (s *Server) readAccessibleApplications(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	if err := s.gate.Ensure(perm.Accessibility); err != nil {
		return nil, err
	}

	apps, err := s.provider.Apps.RunningApplications()
	if err != nil {
		return nil, err
	}
	procs.SortApps(apps)

	// An application is accessible when its root element answers queries.
	accessible := apps[:0]
	for _, app := range apps {
		if _, err := s.provider.Source.ApplicationRef(app.PID); err == nil {
			accessible = append(accessible, app)
		}
	}
	return yamlResource(request.Params.URI, map[string]interface{}{
		"count":        len(accessible),
		"applications": accessible,
	})
}

// appWindows is one application's entry in the application_windows resource.
type appWindows struct {
	Handle   handle.Handle `yaml:"handle"`
	Name     string        `yaml:"name"`
	BundleID string        `yaml:"bundle_id,omitempty"`
	PID      int           `yaml:"pid"`
	Windows  []windowInfo  `yaml:"windows,omitempty"`
}

func (s *Server) readApplicationWindows(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	if err := s.gate.Ensure(perm.Accessibility); err != nil {
		return nil, err
	}

	apps, err := s.provider.Apps.RunningApplications()
	if err != nil {
		return nil, err
	}
	procs.SortApps(apps)

	// Applications that refuse AX queries are skipped, not reported.
	var out []appWindows
	for _, app := range apps {
		ref, err := s.provider.Source.ApplicationRef(app.PID)
		if err != nil {
			continue
		}
		h, err := s.registry.Generate(ref, handle.KindApplication, handle.None)
		if err != nil {
			continue
		}
		out = append(out, appWindows{
			Handle:   h,
			Name:     app.Name,
			BundleID: app.BundleID,
			PID:      app.PID,
			Windows:  s.windowHandles(h, ref),
		})
	}
	return yamlResource(request.Params.URI, map[string]interface{}{
		"count":        len(out),
		"applications": out,
	})
}

// frontmostRef resolves the frontmost application and registers a handle for
// it. Parameterless resources target whatever the user is looking at.
func (s *Server) frontmostRef() (handle.Handle, procs.App, error) {
	app, err := s.provider.Apps.FrontmostApplication()
	if err != nil {
		return handle.None, procs.App{}, err
	}
	ref, err := s.provider.Source.ApplicationRef(app.PID)
	if err != nil {
		return handle.None, procs.App{}, fmt.Errorf("frontmost application %q: %w", app.Name, err)
	}
	h, err := s.registry.Generate(ref, handle.KindApplication, handle.None)
	if err != nil {
		return handle.None, procs.App{}, err
	}
	return h, app, nil
}

func (s *Server) readAccessibilityTree(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	if err := s.gate.Ensure(perm.Accessibility); err != nil {
		return nil, err
	}

	h, app, err := s.frontmostRef()
	if err != nil {
		return nil, err
	}
	ref, err := s.registry.Resolve(h)
	if err != nil {
		return nil, err
	}

	opts := tree.Options{MaxDepth: s.cfg.MaxDepth, MaxChildren: s.cfg.MaxChildren}
	node, err := s.snapshot(ctx, h, ref, opts)
	if err != nil {
		return nil, err
	}
	return yamlResource(request.Params.URI, map[string]interface{}{
		"application": map[string]interface{}{
			"handle":    h,
			"name":      app.Name,
			"bundle_id": app.BundleID,
			"pid":       app.PID,
		},
		"tree": node,
	})
}

func (s *Server) readScreenshot(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	if err := s.gate.Ensure(perm.ScreenCapture); err != nil {
		return nil, err
	}

	app, err := s.provider.Apps.FrontmostApplication()
	if err != nil {
		return nil, err
	}
	windowID, err := s.provider.Screenshotter.FrontWindowID(app.PID)
	if err != nil {
		return nil, err
	}

	var data []byte
	if windowID != 0 {
		data, err = s.provider.Screenshotter.CaptureWindow(windowID)
	} else {
		data, err = s.provider.Screenshotter.CaptureScreen()
	}
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.BlobResourceContents{
			URI:      request.Params.URI,
			MIMEType: "image/png",
			Blob:     base64.StdEncoding.EncodeToString(data),
		},
	}, nil
}
