// Package depserver exposes the dependency engine as MCP tools served over
// SSE/HTTP, so agents and editors can query and edit task dependencies.
package depserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papapumpkin/critpath/internal/engine"
)

// Version is the server version reported to MCP clients.
const Version = "0.1.0"

// Server is the in-process critpath MCP server.
type Server struct {
	engine *engine.Engine
	mcp    *mcp.Server
	port   int
	log    *slog.Logger
	srv    *http.Server
	ln     net.Listener
}

// NewServer creates a server with every dependency tool registered. A nil
// logger uses slog.Default().
func NewServer(eng *engine.Engine, port int, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		engine: eng,
		mcp: mcp.NewServer(
			&mcp.Implementation{
				Name:    "critpath",
				Version: Version,
			},
			nil,
		),
		port: port,
		log:  logger,
	}
	s.registerTools()
	return s
}

// registerTools registers every tool. Input fields are optional in the
// schemas; handlers check them so a missing argument comes back as a tool
// error the client can show.
func (s *Server) registerTools() {
	s.registerAnalysisTools()
	s.registerDependencyTools()
}

// Start begins serving on the configured port. It returns once the listener
// is bound; port 0 picks a free port, see Addr.
func (s *Server) Start(_ context.Context) error {
	handler := mcp.NewSSEHandler(func(_ *http.Request) *mcp.Server {
		return s.mcp
	}, nil)

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("depserver: listen on port %d: %w", s.port, err)
	}
	s.ln = ln
	s.srv = &http.Server{Handler: handler}

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("depserver: serve", "error", err)
		}
	}()
	s.log.Info("mcp server listening", "addr", ln.Addr().String())
	return nil
}

// Addr returns the listener address, useful for tests with port 0.
func (s *Server) Addr() net.Addr {
	if s.ln != nil {
		return s.ln.Addr()
	}
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// toolError turns an engine error into the message returned to the client.
// Rejections keep their reason; faults are reported without internals,
// which the engine has already logged.
func toolError(err error) error {
	switch engine.Classify(err) {
	case engine.SeverityExpected, engine.SeverityIntegrity, engine.SeverityWarn:
		return err
	default:
		return errors.New("internal error; see server logs")
	}
}
