package server

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"gopkg.in/yaml.v3"

	"github.com/1amageek/app-mcp-sub001/internal/ax"
	"github.com/1amageek/app-mcp-sub001/internal/handle"
	"github.com/1amageek/app-mcp-sub001/internal/imaging"
	"github.com/1amageek/app-mcp-sub001/internal/perm"
	"github.com/1amageek/app-mcp-sub001/internal/platform"
	"github.com/1amageek/app-mcp-sub001/internal/procs"
	"github.com/1amageek/app-mcp-sub001/internal/tree"
)

// appInfo identifies the application a snapshot was taken from.
type appInfo struct {
	Handle handle.Handle `yaml:"handle"`
	PID    int           `yaml:"pid"`
}

// windowInfo pairs a window handle with its title.
type windowInfo struct {
	Handle handle.Handle `yaml:"handle"`
	Title  string        `yaml:"title,omitempty"`
}

// snapshotResult is the capture_ui_snapshot payload.
type snapshotResult struct {
	Application appInfo      `yaml:"application"`
	Windows     []windowInfo `yaml:"windows,omitempty"`
	Tree        *tree.Node   `yaml:"tree"`
}

// actionResult reports the outcome of an input-synthesis tool.
type actionResult struct {
	OK     bool   `yaml:"ok"`
	Action string `yaml:"action"`
}

func yamlResult(v interface{}) *mcp.CallToolResult {
	b, err := yaml.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal result: %v", err))
	}
	return mcp.NewToolResultText(string(b))
}

// resolveTarget turns tool parameters into a resolved application (or window)
// reference. Priority: handle > pid > bundle_id > app name. When no handle is
// supplied the application is registered so the response can hand one back.
func (s *Server) resolveTarget(params map[string]interface{}) (handle.Handle, ax.Ref, error) {
	if hs := stringParam(params, "handle", ""); hs != "" {
		h := handle.Handle(hs)
		ref, err := s.registry.Resolve(h)
		if err != nil {
			s.cache.InvalidateHandle(h)
			return handle.None, nil, err
		}
		return h, ref, nil
	}

	pid := intParam(params, "pid", 0)
	if pid == 0 {
		app, err := s.findApp(stringParam(params, "bundle_id", ""), stringParam(params, "app", ""))
		if err != nil {
			return handle.None, nil, err
		}
		pid = app.PID
	}

	ref, err := s.provider.Source.ApplicationRef(pid)
	if err != nil {
		return handle.None, nil, fmt.Errorf("application pid %d: %w", pid, err)
	}
	h, err := s.registry.Generate(ref, handle.KindApplication, handle.None)
	if err != nil {
		return handle.None, nil, err
	}
	s.log.Debug("application handle", "handle", h, "pid", pid)
	return h, ref, nil
}

func (s *Server) findApp(bundleID, name string) (procs.App, error) {
	if bundleID == "" && name == "" {
		return procs.App{}, fmt.Errorf("no target specified: use handle, pid, bundle_id, or app")
	}
	apps, err := s.provider.Apps.RunningApplications()
	if err != nil {
		return procs.App{}, err
	}
	if bundleID != "" {
		if app, ok := procs.FindByBundleID(apps, bundleID); ok {
			return app, nil
		}
		return procs.App{}, fmt.Errorf("no running application with bundle id %q", bundleID)
	}
	if app, ok := procs.FindByName(apps, name); ok {
		return app, nil
	}
	return procs.App{}, fmt.Errorf("no running application named %q", name)
}

// extractOptions merges tool parameters with the configured defaults.
func (s *Server) extractOptions(params map[string]interface{}) tree.Options {
	return tree.Options{
		MaxDepth:    intParam(params, "max_depth", s.cfg.MaxDepth),
		MaxChildren: intParam(params, "max_children", s.cfg.MaxChildren),
	}
}

// snapshot extracts a bounded tree for h, going through the TTL cache.
func (s *Server) snapshot(ctx context.Context, h handle.Handle, ref ax.Ref, opts tree.Options) (*tree.Node, error) {
	if node := s.cache.Get(h, opts); node != nil {
		return node, nil
	}
	node, err := tree.Extract(ctx, ref, opts)
	if err != nil {
		return nil, err
	}
	s.cache.Put(h, opts, node)
	return node, nil
}

// windowHandles registers a handle for each window child of an application
// root. Children that vanish or refuse reads are skipped.
func (s *Server) windowHandles(appHandle handle.Handle, appRef ax.Ref) []windowInfo {
	children, err := appRef.Children()
	if err != nil {
		return nil
	}
	var windows []windowInfo
	for _, child := range children {
		role, err := child.Attribute(ax.AttrRole)
		if err != nil || role.Str != "AXWindow" {
			continue
		}
		wh, err := s.registry.Generate(child, handle.KindWindow, appHandle)
		if err != nil {
			continue
		}
		info := windowInfo{Handle: wh}
		if title, err := child.Attribute(ax.AttrTitle); err == nil {
			info.Title = title.Str
		}
		windows = append(windows, info)
	}
	return windows
}

func (s *Server) handleCaptureSnapshot(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.gate.Ensure(perm.Accessibility); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	params := request.GetArguments()
	h, ref, err := s.resolveTarget(params)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	node, err := s.snapshot(ctx, h, ref, s.extractOptions(params))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := snapshotResult{
		Application: appInfo{Handle: h, PID: ref.PID()},
		Tree:        node,
	}
	if kind, ok := s.registry.Kind(h); ok && kind == handle.KindApplication {
		result.Windows = s.windowHandles(h, ref)
	}
	return yamlResult(result), nil
}

func (s *Server) handleFindElements(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.gate.Ensure(perm.Accessibility); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	params := request.GetArguments()
	h, ref, err := s.resolveTarget(params)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	node, err := s.snapshot(ctx, h, ref, s.extractOptions(params))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	matches := tree.Match(node, tree.Query{
		Role: stringParam(params, "role", ""),
		Text: stringParam(params, "text", ""),
	})
	return yamlResult(map[string]interface{}{
		"handle":   h,
		"count":    len(matches),
		"elements": matches,
	}), nil
}

func (s *Server) handleElementsSnapshot(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.gate.Ensure(perm.Accessibility); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	params := request.GetArguments()
	h, ref, err := s.resolveTarget(params)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	node, err := s.snapshot(ctx, h, ref, s.extractOptions(params))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// An empty query matches every node, flattening the tree.
	elements := tree.Match(node, tree.Query{})
	return yamlResult(map[string]interface{}{
		"handle":   h,
		"count":    len(elements),
		"elements": elements,
	}), nil
}

func (s *Server) handleReadContent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.gate.Ensure(perm.Accessibility); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	params := request.GetArguments()
	h, ref, err := s.resolveTarget(params)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	node, err := s.snapshot(ctx, h, ref, s.extractOptions(params))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(strings.Join(tree.TextContent(node), "\n")), nil
}

func (s *Server) handleMouseClick(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.gate.Ensure(perm.Accessibility); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	params := request.GetArguments()
	button, err := platform.ParseMouseButton(stringParam(params, "button", "left"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	x := intParam(params, "x", 0)
	y := intParam(params, "y", 0)
	count := intParam(params, "click_count", 1)

	s.inputMu.Lock()
	err = s.provider.Inputter.Click(x, y, button, count)
	s.inputMu.Unlock()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.cache.InvalidateAll()
	s.log.Debug("mouse click", "x", x, "y", y, "count", count)
	return yamlResult(actionResult{OK: true, Action: "mouse_click"}), nil
}

func (s *Server) handleTypeText(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.gate.Ensure(perm.Accessibility); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	params := request.GetArguments()
	text := stringParam(params, "text", "")
	if text == "" {
		return mcp.NewToolResultError("text parameter is required"), nil
	}
	delay := intParam(params, "delay", 0)

	s.inputMu.Lock()
	err := s.provider.Inputter.TypeText(text, delay)
	s.inputMu.Unlock()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.cache.InvalidateAll()
	return yamlResult(actionResult{OK: true, Action: "type_text"}), nil
}

func (s *Server) handleKeyboardInput(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.gate.Ensure(perm.Accessibility); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	params := request.GetArguments()
	key := stringParam(params, "key", "")
	if key == "" {
		return mcp.NewToolResultError("key parameter is required"), nil
	}

	s.inputMu.Lock()
	err := s.provider.Inputter.KeyCombo(strings.Split(key, "+"))
	s.inputMu.Unlock()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.cache.InvalidateAll()
	return yamlResult(actionResult{OK: true, Action: "keyboard_input"}), nil
}

func (s *Server) handleAutomation(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.gate.Ensure(perm.Accessibility); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	params := request.GetArguments()
	switch action := stringParam(params, "action", ""); action {
	case "find":
		return s.automationFind(ctx, params)
	case "click":
		return s.automationClick(ctx, params)
	case "type":
		text := stringParam(params, "text", "")
		if text == "" {
			return mcp.NewToolResultError("type action requires text"), nil
		}
		s.inputMu.Lock()
		err := s.provider.Inputter.TypeText(text, intParam(params, "delay", 0))
		s.inputMu.Unlock()
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		s.cache.InvalidateAll()
		return yamlResult(actionResult{OK: true, Action: "type"}), nil
	case "key":
		key := stringParam(params, "key", "")
		if key == "" {
			return mcp.NewToolResultError("key action requires a key combo"), nil
		}
		s.inputMu.Lock()
		err := s.provider.Inputter.KeyCombo(strings.Split(key, "+"))
		s.inputMu.Unlock()
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		s.cache.InvalidateAll()
		return yamlResult(actionResult{OK: true, Action: "key"}), nil
	case "":
		return mcp.NewToolResultError("action parameter is required"), nil
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown action: %q (use find, click, type, or key)", action)), nil
	}
}

func (s *Server) automationFind(ctx context.Context, params map[string]interface{}) (*mcp.CallToolResult, error) {
	h, ref, err := s.resolveTarget(params)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	node, err := s.snapshot(ctx, h, ref, s.extractOptions(params))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	matches := tree.Match(node, tree.Query{
		Role: stringParam(params, "role", ""),
		Text: stringParam(params, "text", ""),
	})
	return yamlResult(map[string]interface{}{
		"handle":   h,
		"count":    len(matches),
		"elements": matches,
	}), nil
}

// automationClick clicks explicit coordinates, or the center of the first
// element matching the role/text filters.
func (s *Server) automationClick(ctx context.Context, params map[string]interface{}) (*mcp.CallToolResult, error) {
	x := intParam(params, "x", -1)
	y := intParam(params, "y", -1)

	if x < 0 || y < 0 {
		role := stringParam(params, "role", "")
		text := stringParam(params, "text", "")
		if role == "" && text == "" {
			return mcp.NewToolResultError("click action requires x/y or a role/text element filter"), nil
		}

		h, ref, err := s.resolveTarget(params)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		node, err := s.snapshot(ctx, h, ref, s.extractOptions(params))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		target, ok := clickTarget(tree.Match(node, tree.Query{Role: role, Text: text}))
		if !ok {
			return mcp.NewToolResultError("no matching element with an on-screen position"), nil
		}
		x = int(target.Position.X + target.Size.Width/2)
		y = int(target.Position.Y + target.Size.Height/2)
	}

	s.inputMu.Lock()
	err := s.provider.Inputter.Click(x, y, platform.MouseLeft, 1)
	s.inputMu.Unlock()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.cache.InvalidateAll()
	s.log.Debug("automation click", "x", x, "y", y)
	return yamlResult(actionResult{OK: true, Action: "click"}), nil
}

// clickTarget picks the first match that exposes both position and size.
func clickTarget(matches []tree.Node) (tree.Node, bool) {
	for _, m := range matches {
		if m.Position != nil && m.Size != nil {
			return m, true
		}
	}
	return tree.Node{}, false
}

// screenshotTarget resolves the PID to capture for, or 0 for the full screen.
func (s *Server) screenshotTarget(params map[string]interface{}) (int, error) {
	if hs := stringParam(params, "handle", ""); hs != "" {
		ref, err := s.registry.Resolve(handle.Handle(hs))
		if err != nil {
			return 0, err
		}
		return ref.PID(), nil
	}
	if pid := intParam(params, "pid", 0); pid != 0 {
		return pid, nil
	}
	bundleID := stringParam(params, "bundle_id", "")
	name := stringParam(params, "app", "")
	if bundleID == "" && name == "" {
		return 0, nil
	}
	app, err := s.findApp(bundleID, name)
	if err != nil {
		return 0, err
	}
	return app.PID, nil
}

func (s *Server) handleScreenshot(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.gate.Ensure(perm.ScreenCapture); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	params := request.GetArguments()
	pid, err := s.screenshotTarget(params)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var raw []byte
	if pid != 0 {
		windowID, err := s.provider.Screenshotter.FrontWindowID(pid)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if windowID == 0 {
			return mcp.NewToolResultError(fmt.Sprintf("pid %d has no window on screen", pid)), nil
		}
		raw, err = s.provider.Screenshotter.CaptureWindow(windowID)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	} else {
		raw, err = s.provider.Screenshotter.CaptureScreen()
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	data, mimeType, err := imaging.Process(raw, imaging.Options{
		Format:  stringParam(params, "format", "png"),
		Quality: intParam(params, "quality", 0),
		Scale:   floatParam(params, "scale", 0),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.ImageContent{
				Type:     "image",
				Data:     base64.StdEncoding.EncodeToString(data),
				MIMEType: mimeType,
			},
		},
	}, nil
}

func (s *Server) handleWaitTime(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	seconds := floatParam(request.GetArguments(), "seconds", 0)
	if seconds <= 0 {
		return mcp.NewToolResultError("seconds must be positive"), nil
	}

	select {
	case <-time.After(time.Duration(seconds * float64(time.Second))):
	case <-ctx.Done():
		return mcp.NewToolResultError("wait canceled"), nil
	}
	return yamlResult(actionResult{OK: true, Action: "wait_time"}), nil
}

func (s *Server) handleListHandles(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return yamlResult(map[string]interface{}{
		"count":   s.registry.Count(),
		"handles": s.registry.List(),
	}), nil
}

func (s *Server) handleRevokeHandle(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	hs := stringParam(request.GetArguments(), "handle", "")
	if hs == "" {
		return mcp.NewToolResultError("handle parameter is required"), nil
	}
	h := handle.Handle(hs)
	s.registry.Revoke(h)
	s.cache.InvalidateHandle(h)
	s.log.Debug("handle revoked", "handle", h)
	return yamlResult(actionResult{OK: true, Action: "revoke_handle"}), nil
}

func (s *Server) handleRequestPermission(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	capability := perm.Capability(stringParam(request.GetArguments(), "capability", ""))
	switch capability {
	case perm.Accessibility, perm.ScreenCapture:
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown capability: %q", capability)), nil
	}
	return yamlResult(s.gate.Request(capability)), nil
}
