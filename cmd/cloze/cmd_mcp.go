package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	mcpserver "github.com/zmuhls/cloze-reader-sub000/internal/mcp"
)

// cmdMCP serves cloze tools over stdio, or over HTTP when mcp.http_addr is
// set.
func cmdMCP() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// stdout carries the protocol, so logs go to the file and stderr only.
	a, err := setup(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	mcpSrv := mcpserver.NewServer(mcpserver.Config{
		Game:    a.game,
		Version: Version,
	})

	if addr := a.cfg.MCP.HTTPAddr; addr != "" {
		slog.Info("serving mcp over http", "addr", addr)
		return mcpSrv.ServeHTTP(ctx, addr)
	}
	return mcpSrv.ServeStdio(ctx)
}
