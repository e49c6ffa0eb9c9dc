package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/procflow"
	"github.com/aretw0/procflow/internal/compiler"
	"github.com/aretw0/procflow/pkg/domain"
	"github.com/aretw0/procflow/pkg/registry"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ProceduresURI is the resource listing the registry.
const ProceduresURI = "procflow://procedures"

// RunResponse is the structured result of every execution tool.
type RunResponse struct {
	Result any `json:"result" jsonschema_description:"Resolved value of the root reference"`
}

// ProcedureInfo describes one registry entry.
type ProcedureInfo struct {
	Path        string `json:"path"`
	Description string `json:"description,omitempty"`
	Callable    bool   `json:"callable"`
}

// RunArgs are the arguments of the run tool.
type RunArgs struct {
	Ref string `json:"ref"`
}

// CallArgs are the arguments of a per-procedure tool.
type CallArgs struct {
	Input string `json:"input"`
}

// Runner executes call graphs. *procflow.Driver implements it.
type Runner interface {
	Run(ctx context.Context, ref domain.ProcedureRef, opts ...procflow.RunOption) (any, error)
}

// Server exposes a procedure registry as an MCP server.
type Server struct {
	runner    Runner
	source    registry.Source
	parser    *compiler.Parser
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
// Every procedure of source that carries a handler at construction time gets
// its own tool; run and list_procedures are always present.
func NewServer(runner Runner, source registry.Source, opts ...Option) *Server {
	s := &Server{
		runner:    runner,
		source:    source,
		parser:    compiler.NewParser(),
		logger:    slog.Default(),
		mcpServer: server.NewMCPServer("procflow-mcp", strings.TrimSpace(procflow.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the MCP SSE transport on port until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(fmt.Sprintf("http://localhost:%d", port)))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())
	httpServer := &http.Server{Addr: addr, Handler: mux}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

// ToolName returns the tool name of a procedure: its dotted path.
func ToolName(path domain.ProcedurePath) string {
	return path.String()
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("run",
		mcp.WithDescription("Execute a call graph. The ref argument is a JSON or YAML procedure reference document."),
		mcp.WithString("ref", mcp.Required(), mcp.Description(`Procedure reference, e.g. {"$proc":["echo"],"input":{"msg":"hi"}}`)),
		mcp.WithOutputSchema[RunResponse](),
	), mcp.NewStructuredToolHandler(s.handleRun))

	s.mcpServer.AddTool(mcp.NewTool("list_procedures",
		mcp.WithDescription("List the registered procedures."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		data, err := json.Marshal(s.procedures())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	})

	for _, p := range s.source.List() {
		if p.Handler == nil {
			continue
		}
		desc := p.Description
		if desc == "" {
			desc = "Call " + p.Path.String()
		}
		s.mcpServer.AddTool(mcp.NewTool(ToolName(p.Path),
			mcp.WithDescription(desc),
			mcp.WithString("input", mcp.Description("JSON input of the procedure; may contain nested $proc references")),
			mcp.WithOutputSchema[RunResponse](),
		), mcp.NewStructuredToolHandler(s.callHandler(p.Path)))
	}
}

func (s *Server) handleRun(ctx context.Context, request mcp.CallToolRequest, args RunArgs) (RunResponse, error) {
	if strings.TrimSpace(args.Ref) == "" {
		return RunResponse{}, errors.New("ref is required")
	}
	ref, err := s.parser.Parse([]byte(args.Ref))
	if err != nil {
		return RunResponse{}, fmt.Errorf("invalid ref: %w", err)
	}
	return s.run(ctx, ref)
}

func (s *Server) callHandler(path domain.ProcedurePath) func(context.Context, mcp.CallToolRequest, CallArgs) (RunResponse, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args CallArgs) (RunResponse, error) {
		var raw any = map[string]any{}
		if strings.TrimSpace(args.Input) != "" {
			if err := json.Unmarshal([]byte(args.Input), &raw); err != nil {
				return RunResponse{}, fmt.Errorf("invalid input: %w", err)
			}
		}
		input, err := domain.Lift(raw)
		if err != nil {
			return RunResponse{}, fmt.Errorf("invalid input: %w", err)
		}
		return s.run(ctx, domain.ProcedureRef{Proc: path.Clone(), Input: input})
	}
}

func (s *Server) run(ctx context.Context, ref domain.ProcedureRef) (RunResponse, error) {
	result, err := s.runner.Run(ctx, ref, procflow.WithPrint(false))
	if err != nil {
		s.logger.Warn("MCP run failed", "path", ref.Proc.String(), "err", err)
		return RunResponse{}, err
	}
	return RunResponse{Result: result}, nil
}

func (s *Server) procedures() []ProcedureInfo {
	procs := s.source.List()
	out := make([]ProcedureInfo, len(procs))
	for i, p := range procs {
		out[i] = ProcedureInfo{
			Path:        p.Path.String(),
			Description: p.Description,
			Callable:    p.Handler != nil,
		}
	}
	return out
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(ProceduresURI, "Registered Procedures",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := json.Marshal(s.procedures())
		if err != nil {
			return nil, fmt.Errorf("failed to encode procedures: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      ProceduresURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}
