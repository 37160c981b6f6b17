// Package mcpserver exposes the engine to MCP clients so scripts and agents
// can drive a viewer: inject protocol messages, query debug answers, read
// the state and apply presets.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wethinkt/go-niiview/internal/engine"
	"github.com/wethinkt/go-niiview/internal/presets"
	"github.com/wethinkt/go-niiview/internal/protocol"
	"github.com/wethinkt/go-niiview/internal/scene"
	"github.com/wethinkt/go-niiview/internal/tuilog"
	"github.com/wethinkt/go-niiview/internal/version"
)

// DefaultDebugTimeout bounds the wait for a debug answer.
const DefaultDebugTimeout = 5 * time.Second

var errNoAnswer = errors.New("no debug answer")

// Engine is the part of *engine.Engine the tools drive.
type Engine interface {
	Post(m protocol.Message)
	PostEnvelope(env protocol.Envelope)
	Flush()
	State() engine.Snapshot
	ApplyPresetByID(ctx context.Context, store *presets.Store, id string) error
	SetLayerDisplay(n int, d scene.LayerDisplay)
}

// Server wraps an MCP server for one engine.
type Server struct {
	server  *mcp.Server
	engine  Engine
	outbox  *Outbox
	presets *presets.Store

	// DebugTimeout bounds debug_request; zero means DefaultDebugTimeout.
	DebugTimeout time.Duration
	// Sync flushes the engine after each mutating tool, for engines that
	// are not driven by Run.
	Sync bool

	debugMu    sync.Mutex
	flushMu    sync.Mutex
	allowTools map[string]bool
	denyTools  map[string]bool
}

// New creates a server. outbox must be the bridge e was built with; store
// may be nil to offer only the built-in presets.
func New(e Engine, outbox *Outbox, store *presets.Store) *Server {
	tuilog.Log.Info("mcpserver: creating MCP server")
	return &Server{
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "niiview",
			Version: version.Get(),
		}, nil),
		engine:  e,
		outbox:  outbox,
		presets: store,
	}
}

// SetToolFilters configures which tools are allowed or denied and then
// registers the tools.
func (s *Server) SetToolFilters(allow, deny []string) {
	if len(allow) > 0 {
		s.allowTools = make(map[string]bool)
		for _, t := range allow {
			s.allowTools[strings.TrimSpace(t)] = true
		}
	}
	if len(deny) > 0 {
		s.denyTools = make(map[string]bool)
		for _, t := range deny {
			s.denyTools[strings.TrimSpace(t)] = true
		}
	}
	s.registerTools()
}

func (s *Server) isToolAllowed(name string) bool {
	if s.denyTools != nil && s.denyTools[name] {
		return false
	}
	if s.allowTools != nil && !s.allowTools[name] {
		return false
	}
	return true
}

func (s *Server) registerTools() {
	if s.isToolAllowed("send_message") {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "send_message",
			Description: "Send one protocol message to the viewer, e.g. {\"type\":\"initCanvas\",\"body\":{\"n\":2}}",
		}, s.handleSendMessage)
	}
	if s.isToolAllowed("debug_request") {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "debug_request",
			Description: "Ask a read-only debug question (getNCanvas, getMinMaxOfFirstImage, getNVolumes, getNames, getLayout, getFrames) and return the answer",
		}, s.handleDebugRequest)
	}
	if s.isToolAllowed("get_state") {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "get_state",
			Description: "Return the current viewer state: viewports, selection, layout and settings",
		}, s.handleGetState)
	}
	if s.isToolAllowed("apply_preset") {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "apply_preset",
			Description: "Apply a display preset by ID to every viewport",
		}, s.handleApplyPreset)
	}
	if s.isToolAllowed("set_layer_display") {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "set_layer_display",
			Description: "Change the scaling window, colormap, opacity or inversion of layer N on every selected viewport (all viewports when nothing is selected)",
		}, s.handleSetLayerDisplay)
	}
	if s.isToolAllowed("read_outbox") {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "read_outbox",
			Description: "Return and clear the messages the viewer sent to its host (file picker requests, notifications)",
		}, s.handleReadOutbox)
	}
}

type sendMessageInput struct {
	Type string `json:"type"`
	Body any    `json:"body,omitempty"`
}

type sendMessageOutput struct {
	Accepted bool   `json:"accepted"`
	Type     string `json:"type"`
}

type debugRequestInput struct {
	Tag string `json:"tag"`
}

type getStateInput struct{}

type applyPresetInput struct {
	ID string `json:"id"`
}

type applyPresetOutput struct {
	Applied string `json:"applied"`
}

type setLayerDisplayInput struct {
	Layer    int            `json:"layer"`
	Scaling  *scene.Scaling `json:"scaling,omitempty"`
	Colormap *string        `json:"colormap,omitempty"`
	Opacity  *float64       `json:"opacity,omitempty"`
	Invert   *bool          `json:"invert,omitempty"`
}

type readOutboxInput struct{}

func (s *Server) handleSendMessage(ctx context.Context, req *mcp.CallToolRequest, input sendMessageInput) (*mcp.CallToolResult, sendMessageOutput, error) {
	env := protocol.Envelope{Type: protocol.Kind(input.Type)}
	if input.Body != nil {
		raw, err := json.Marshal(input.Body)
		if err != nil {
			return nil, sendMessageOutput{}, fmt.Errorf("encode body: %w", err)
		}
		env.Body = raw
	}
	if _, err := env.Message(); err != nil {
		return nil, sendMessageOutput{}, err
	}
	s.engine.PostEnvelope(env)
	s.settle()

	out := sendMessageOutput{Accepted: true, Type: input.Type}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: formatJSON(out)}},
	}, out, nil
}

// handleDebugRequest posts the request and waits for the matching answer.
// Calls are serialized so answers cannot cross.
func (s *Server) handleDebugRequest(ctx context.Context, req *mcp.CallToolRequest, input debugRequestInput) (*mcp.CallToolResult, any, error) {
	if input.Tag == "" {
		return nil, nil, errors.New("tag is required")
	}
	s.debugMu.Lock()
	defer s.debugMu.Unlock()

	ch := make(chan protocol.Envelope, 1)
	s.outbox.await(ch)
	defer s.outbox.cancelWait(ch)

	s.engine.Post(protocol.DebugRequest{Tag: input.Tag})
	s.settle()

	timeout := s.DebugTimeout
	if timeout <= 0 {
		timeout = DefaultDebugTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case env := <-ch:
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(env.Body)}},
		}, nil, nil
	case <-timer.C:
		return nil, nil, fmt.Errorf("%w for %q", errNoAnswer, input.Tag)
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
}

func (s *Server) handleGetState(ctx context.Context, req *mcp.CallToolRequest, _ getStateInput) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: formatJSON(s.engine.State())}},
	}, nil, nil
}

func (s *Server) handleApplyPreset(ctx context.Context, req *mcp.CallToolRequest, input applyPresetInput) (*mcp.CallToolResult, applyPresetOutput, error) {
	if err := s.engine.ApplyPresetByID(ctx, s.presets, input.ID); err != nil {
		return nil, applyPresetOutput{}, err
	}
	s.settle()
	out := applyPresetOutput{Applied: input.ID}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: formatJSON(out)}},
	}, out, nil
}

func (s *Server) handleSetLayerDisplay(ctx context.Context, req *mcp.CallToolRequest, input setLayerDisplayInput) (*mcp.CallToolResult, any, error) {
	d := scene.LayerDisplay{
		Scaling:  input.Scaling,
		Colormap: input.Colormap,
		Opacity:  input.Opacity,
		Invert:   input.Invert,
	}
	if err := d.Validate(); err != nil {
		return nil, nil, err
	}
	if input.Layer < 0 {
		return nil, nil, fmt.Errorf("layer %d: %w", input.Layer, scene.ErrNoLayer)
	}
	s.engine.SetLayerDisplay(input.Layer, d)
	s.settle()
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: formatJSON(s.engine.State().Viewports)}},
	}, nil, nil
}

func (s *Server) handleReadOutbox(ctx context.Context, req *mcp.CallToolRequest, _ readOutboxInput) (*mcp.CallToolResult, any, error) {
	envs := s.outbox.Drain()
	if envs == nil {
		envs = []protocol.Envelope{}
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: formatJSON(envs)}},
	}, nil, nil
}

func (s *Server) settle() {
	if s.Sync {
		s.flushMu.Lock()
		defer s.flushMu.Unlock()
		s.engine.Flush()
	}
}

// RunStdio serves MCP on stdin/stdout until ctx is cancelled.
func (s *Server) RunStdio(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.LoggingTransport{Transport: &mcp.StdioTransport{}, Writer: os.Stderr})
}

func formatJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
