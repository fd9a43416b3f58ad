// Package mcp serves hydrorun's tree, codec, report and scoring operations
// to MCP clients over stdio.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/hydrorun/internal/codec"
	"github.com/nvandessel/hydrorun/internal/logging"
	"github.com/nvandessel/hydrorun/internal/metrics"
	"github.com/nvandessel/hydrorun/internal/ratelimit"
	"github.com/nvandessel/hydrorun/internal/store"
)

// Server wraps the MCP SDK server around one working directory.
type Server struct {
	server       *sdk.Server
	dir          string
	charset      string
	extraction   codec.Extraction
	history      store.HistoryStore
	evaluator    metrics.Evaluator
	toolLimiters ratelimit.ToolLimiters
	auditLogger  *AuditLogger
	log          *slog.Logger
}

// Config holds server configuration.
type Config struct {
	Name       string // Server name (e.g., "hydrorun")
	Version    string
	WorkingDir string
	// Charset of the engine's files, windows-1252 when empty.
	Charset    string
	Extraction codec.Extraction
	// History is optional and is closed with the server.
	History store.HistoryStore
	// AuditPath is the JSONL audit log. Empty disables auditing.
	AuditPath string
	Logger    *slog.Logger
}

// NewServer creates a server exposing the hydrorun tools.
func NewServer(cfg *Config) (*Server, error) {
	if cfg.WorkingDir == "" {
		return nil, fmt.Errorf("working directory is required")
	}
	info, err := os.Stat(cfg.WorkingDir)
	if err != nil {
		return nil, fmt.Errorf("working directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("working directory %s is not a directory", cfg.WorkingDir)
	}
	charset := cfg.Charset
	if charset == "" {
		charset = codec.DefaultCharset
	}
	if _, err := codec.Charset(charset); err != nil {
		return nil, err
	}
	log := logging.OrDefault(cfg.Logger)

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, &sdk.ServerOptions{
		InitializedHandler: func(ctx context.Context, req *sdk.InitializedRequest) {
			log.Debug("mcp client initialized")
		},
	})

	s := &Server{
		server:       mcpServer,
		dir:          cfg.WorkingDir,
		charset:      charset,
		extraction:   cfg.Extraction,
		history:      cfg.History,
		evaluator:    metrics.NewRegistry(),
		toolLimiters: ratelimit.NewToolLimiters(),
		auditLogger:  NewAuditLogger(cfg.AuditPath, log),
		log:          log,
	}
	s.registerTools()
	s.registerResources()
	return s, nil
}

// Run serves over stdio until the client disconnects, ctx is cancelled or
// the process is interrupted.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	notifySignals(sigChan)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	s.log.Info("mcp server listening on stdio", "dir", s.dir)
	err := s.server.Run(ctx, &sdk.StdioTransport{})
	if cerr := s.Close(); err == nil {
		err = cerr
	}
	return err
}

// Close releases the history store and the audit log.
func (s *Server) Close() error {
	var firstErr error
	if s.history != nil {
		firstErr = s.history.Close()
		s.history = nil
	}
	if err := s.auditLogger.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	s.auditLogger = nil
	return firstErr
}
