package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/1amageek/app-mcp-sub001/internal/config"
	"github.com/1amageek/app-mcp-sub001/internal/logger"
	"github.com/1amageek/app-mcp-sub001/internal/platform"
	"github.com/1amageek/app-mcp-sub001/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start a Model Context Protocol (MCP) server exposing application UI
snapshots, element search, text reading, input synthesis, and screenshots.

Supported transports:
  stdio             Standard I/O (default, for Claude Code / MCP clients)
  streamable-http   Streamable HTTP transport (for remote agents)

Examples:
  appmcpd serve
  appmcpd serve --transport streamable-http --port 8080
  appmcpd serve --cache-ttl 0`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("config", "", "Config file (default $HOME/.appmcpd.yaml)")
	serveCmd.Flags().String("transport", "", "Transport: stdio, streamable-http")
	serveCmd.Flags().Int("port", 0, "HTTP port for streamable-http transport")
	serveCmd.Flags().Int("cache-ttl", -1, "Snapshot cache TTL in milliseconds (0 to disable)")
	serveCmd.Flags().String("log-level", "", "Log level: debug, info, warn, error")
	serveCmd.Flags().String("log-file", "", "Log file (default stderr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	// Flags override file and environment when set explicitly.
	if cmd.Flags().Changed("transport") {
		cfg.Transport, _ = cmd.Flags().GetString("transport")
	}
	if cmd.Flags().Changed("port") {
		cfg.Port, _ = cmd.Flags().GetInt("port")
	}
	if cmd.Flags().Changed("cache-ttl") {
		cfg.CacheTTLMs, _ = cmd.Flags().GetInt("cache-ttl")
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level, _ = cmd.Flags().GetString("log-level")
	}
	if cmd.Flags().Changed("log-file") {
		cfg.Log.File, _ = cmd.Flags().GetString("log-file")
	}

	log, closer, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	provider, err := platform.NewProvider()
	if err != nil {
		return err
	}

	srv := server.New(server.Config{
		Transport:   cfg.Transport,
		Port:        cfg.Port,
		CacheTTL:    time.Duration(cfg.CacheTTLMs) * time.Millisecond,
		MaxDepth:    cfg.MaxDepth,
		MaxChildren: cfg.MaxChildren,
	}, provider, log)

	log.Info("starting", "transport", cfg.Transport)
	if err := srv.Serve(); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
