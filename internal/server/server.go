// Package server is the MCP dispatch layer: it maps tools and resources onto
// the object-resolution core (permission gate, handle registry, bounded tree
// extractor) and the platform backends. It owns no native references itself;
// everything flows through handles.
package server

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/1amageek/app-mcp-sub001/internal/handle"
	"github.com/1amageek/app-mcp-sub001/internal/perm"
	"github.com/1amageek/app-mcp-sub001/internal/platform"
	"github.com/1amageek/app-mcp-sub001/internal/tree"
)

// Resource URIs served by the dispatch layer.
const (
	URIRunningApplications    = "appmcp://resources/running_applications"
	URIAccessibleApplications = "appmcp://resources/accessible_applications"
	URIApplicationWindows     = "appmcp://resources/application_windows"
	URIAccessibilityTree      = "app://app_accessibility_tree"
	URIScreenshot             = "app://app_screenshot"
)

// Config holds MCP server configuration.
type Config struct {
	Transport   string
	Port        int
	CacheTTL    time.Duration
	MaxDepth    int // default depth bound when a tool omits max_depth
	MaxChildren int // default breadth bound when a tool omits max_children
}

// Server wires the core components to the MCP protocol.
type Server struct {
	cfg      Config
	provider *platform.Provider
	gate     *perm.Gate
	registry *handle.Registry
	cache    *SnapshotCache
	log      *slog.Logger

	// inputMu serializes input synthesis; interleaved synthetic events
	// from concurrent tool calls produce garbage interactions.
	inputMu sync.Mutex

	mcp *mcpserver.MCPServer
}

// New creates a configured MCP server over the given provider.
func New(cfg Config, provider *platform.Provider, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = tree.DefaultMaxDepth
	}
	if cfg.MaxChildren <= 0 {
		cfg.MaxChildren = tree.DefaultMaxChildren
	}

	s := &Server{
		cfg:      cfg,
		provider: provider,
		gate:     perm.NewGate(provider.Permissions),
		registry: handle.NewRegistry(),
		cache:    NewSnapshotCache(cfg.CacheTTL),
		log:      log,
	}

	s.mcp = mcpserver.NewMCPServer(
		"appmcpd",
		"1.0.0",
		mcpserver.WithResourceCapabilities(true, false),
	)
	s.registerTools()
	s.registerResources()
	return s
}

// Registry exposes the handle registry for diagnostics.
func (s *Server) Registry() *handle.Registry { return s.registry }

// Serve starts the MCP server with the configured transport and blocks.
func (s *Server) Serve() error {
	switch s.cfg.Transport {
	case "stdio":
		return mcpserver.ServeStdio(s.mcp)
	case "streamable-http":
		httpServer := mcpserver.NewStreamableHTTPServer(s.mcp)
		s.log.Info("listening", "transport", "streamable-http", "port", s.cfg.Port)
		return httpServer.Start(fmt.Sprintf(":%d", s.cfg.Port))
	default:
		return fmt.Errorf("unsupported transport: %s (use stdio or streamable-http)", s.cfg.Transport)
	}
}

func (s *Server) registerTools() {
	s.mcp.AddTool(
		mcp.NewTool("capture_ui_snapshot",
			mcp.WithDescription("Capture a bounded accessibility-tree snapshot of an application. Returns the application handle, window handles, and the extracted tree."),
			mcp.WithString("handle", mcp.Description("Previously returned application or window handle")),
			mcp.WithString("bundle_id", mcp.Description("Target application bundle identifier (e.g. 'com.apple.weather')")),
			mcp.WithString("app", mcp.Description("Target application name")),
			mcp.WithNumber("pid", mcp.Description("Target process ID")),
			mcp.WithNumber("max_depth", mcp.Description("Max traversal depth (default 10)")),
			mcp.WithNumber("max_children", mcp.Description("Max children per node (default 50)")),
		),
		s.handleCaptureSnapshot,
	)

	s.mcp.AddTool(
		mcp.NewTool("find_elements",
			mcp.WithDescription("Find UI elements in an application's accessibility tree by role and/or text"),
			mcp.WithString("handle", mcp.Description("Application or window handle")),
			mcp.WithString("bundle_id", mcp.Description("Target bundle identifier")),
			mcp.WithString("app", mcp.Description("Target application name")),
			mcp.WithNumber("pid", mcp.Description("Target process ID")),
			mcp.WithString("role", mcp.Description("Role filter (e.g. 'button', 'text', 'AXTextField')")),
			mcp.WithString("text", mcp.Description("Case-insensitive substring of title, value, or description")),
			mcp.WithNumber("max_depth", mcp.Description("Max traversal depth (default 10)")),
			mcp.WithNumber("max_children", mcp.Description("Max children per node (default 50)")),
		),
		s.handleFindElements,
	)

	s.mcp.AddTool(
		mcp.NewTool("elements_snapshot",
			mcp.WithDescription("Extract a flat list of all UI elements in an application"),
			mcp.WithString("handle", mcp.Description("Application or window handle")),
			mcp.WithString("bundle_id", mcp.Description("Target bundle identifier")),
			mcp.WithString("app", mcp.Description("Target application name")),
			mcp.WithNumber("pid", mcp.Description("Target process ID")),
			mcp.WithNumber("max_depth", mcp.Description("Max traversal depth (default 10)")),
			mcp.WithNumber("max_children", mcp.Description("Max children per node (default 50)")),
		),
		s.handleElementsSnapshot,
	)

	s.mcp.AddTool(
		mcp.NewTool("read_content",
			mcp.WithDescription("Read the visible text content of an application's UI in reading order"),
			mcp.WithString("handle", mcp.Description("Application or window handle")),
			mcp.WithString("bundle_id", mcp.Description("Target bundle identifier")),
			mcp.WithString("app", mcp.Description("Target application name")),
			mcp.WithNumber("pid", mcp.Description("Target process ID")),
			mcp.WithNumber("max_depth", mcp.Description("Max traversal depth (default 10)")),
		),
		s.handleReadContent,
	)

	s.mcp.AddTool(
		mcp.NewTool("mouse_click",
			mcp.WithDescription("Click at screen coordinates"),
			mcp.WithNumber("x", mcp.Description("X coordinate"), mcp.Required()),
			mcp.WithNumber("y", mcp.Description("Y coordinate"), mcp.Required()),
			mcp.WithString("button", mcp.Description("Mouse button: left, right, middle (default left)")),
			mcp.WithNumber("click_count", mcp.Description("1=single, 2=double, 3=triple (default 1)")),
		),
		s.handleMouseClick,
	)

	s.mcp.AddTool(
		mcp.NewTool("type_text",
			mcp.WithDescription("Type text into the focused element"),
			mcp.WithString("text", mcp.Description("Text to type"), mcp.Required()),
			mcp.WithNumber("delay", mcp.Description("Delay between keystrokes in ms")),
		),
		s.handleTypeText,
	)

	s.mcp.AddTool(
		mcp.NewTool("keyboard_input",
			mcp.WithDescription("Press a key combination (e.g. 'cmd+c', 'enter', 'cmd+shift+t')"),
			mcp.WithString("key", mcp.Description("Key combo, '+'-separated"), mcp.Required()),
		),
		s.handleKeyboardInput,
	)

	s.mcp.AddTool(
		mcp.NewTool("automation",
			mcp.WithDescription("Dispatch a UI automation action against an application: find elements, click an element or point, type text, or press a key combination"),
			mcp.WithString("action", mcp.Description("One of: find, click, type, key"), mcp.Required()),
			mcp.WithString("handle", mcp.Description("Application or window handle")),
			mcp.WithString("bundle_id", mcp.Description("Target bundle identifier")),
			mcp.WithString("app", mcp.Description("Target application name")),
			mcp.WithNumber("pid", mcp.Description("Target process ID")),
			mcp.WithString("role", mcp.Description("Element role filter (find, click)")),
			mcp.WithString("text", mcp.Description("Element text filter (find, click) or text to type (type)")),
			mcp.WithString("key", mcp.Description("Key combo for the key action (e.g. 'cmd+f')")),
			mcp.WithNumber("x", mcp.Description("Click X coordinate (overrides element lookup)")),
			mcp.WithNumber("y", mcp.Description("Click Y coordinate (overrides element lookup)")),
		),
		s.handleAutomation,
	)

	s.mcp.AddTool(
		mcp.NewTool("app_screenshot",
			mcp.WithDescription("Capture a screenshot of an application's frontmost window, or the full screen"),
			mcp.WithString("handle", mcp.Description("Application handle")),
			mcp.WithString("bundle_id", mcp.Description("Target bundle identifier")),
			mcp.WithString("app", mcp.Description("Target application name")),
			mcp.WithNumber("pid", mcp.Description("Target process ID")),
			mcp.WithString("format", mcp.Description("Image format: png, jpg (default png)")),
			mcp.WithNumber("quality", mcp.Description("JPEG quality 1-100 (default 80)")),
			mcp.WithNumber("scale", mcp.Description("Scale factor 0.1-1.0 (default 0.5)")),
		),
		s.handleScreenshot,
	)

	s.mcp.AddTool(
		mcp.NewTool("wait_time",
			mcp.WithDescription("Wait for a number of seconds before the next action"),
			mcp.WithNumber("seconds", mcp.Description("Seconds to wait"), mcp.Required()),
		),
		s.handleWaitTime,
	)

	s.mcp.AddTool(
		mcp.NewTool("list_handles",
			mcp.WithDescription("List live object handles held by the server, for diagnostics"),
		),
		s.handleListHandles,
	)

	s.mcp.AddTool(
		mcp.NewTool("revoke_handle",
			mcp.WithDescription("Invalidate a handle (and, for applications, all window handles under it)"),
			mcp.WithString("handle", mcp.Description("Handle to revoke"), mcp.Required()),
		),
		s.handleRevokeHandle,
	)

	s.mcp.AddTool(
		mcp.NewTool("request_permission",
			mcp.WithDescription("Trigger the OS consent prompt for a capability. May block until the user responds."),
			mcp.WithString("capability", mcp.Description("'accessibility' or 'screen-capture'"), mcp.Required()),
		),
		s.handleRequestPermission,
	)
}

func (s *Server) registerResources() {
	s.mcp.AddResource(
		mcp.NewResource(URIRunningApplications, "running_applications",
			mcp.WithResourceDescription("Running applications with a user interface"),
			mcp.WithMIMEType("application/yaml"),
		),
		s.readRunningApplications,
	)

	s.mcp.AddResource(
		mcp.NewResource(URIAccessibleApplications, "accessible_applications",
			mcp.WithResourceDescription("Running applications that currently answer accessibility queries"),
			mcp.WithMIMEType("application/yaml"),
		),
		s.readAccessibleApplications,
	)

	s.mcp.AddResource(
		mcp.NewResource(URIApplicationWindows, "application_windows",
			mcp.WithResourceDescription("Window handles and titles per accessible application"),
			mcp.WithMIMEType("application/yaml"),
		),
		s.readApplicationWindows,
	)

	s.mcp.AddResource(
		mcp.NewResource(URIAccessibilityTree, "app_accessibility_tree",
			mcp.WithResourceDescription("Bounded accessibility-tree snapshot of the frontmost application"),
			mcp.WithMIMEType("application/yaml"),
		),
		s.readAccessibilityTree,
	)

	s.mcp.AddResource(
		mcp.NewResource(URIScreenshot, "app_screenshot",
			mcp.WithResourceDescription("PNG screenshot of the frontmost application's window"),
			mcp.WithMIMEType("image/png"),
		),
		s.readScreenshot,
	)
}
