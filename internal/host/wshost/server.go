// Package wshost serves the engine over HTTP: protocol envelopes travel both
// ways on a websocket, and a small REST surface exposes state, health and
// metrics.
package wshost

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wethinkt/go-niiview/internal/config"
	"github.com/wethinkt/go-niiview/internal/engine"
	"github.com/wethinkt/go-niiview/internal/protocol"
	"github.com/wethinkt/go-niiview/internal/tuilog"
	"github.com/wethinkt/go-niiview/internal/version"
)

// maxMessageBytes bounds one inbound envelope. Payloads carry whole images
// as base64.
const maxMessageBytes = 512 << 20

const healthPath = "/v1/health"

// Engine is the part of *engine.Engine the server drives.
type Engine interface {
	Receive(data []byte)
	PostEnvelope(env protocol.Envelope)
	SurfaceReady()
	State() engine.Snapshot
	Subscribe() (<-chan engine.Snapshot, func())
}

// Config holds the listener settings.
type Config struct {
	Host       string
	Port       int // 0 picks a free port
	Token      string
	CORSOrigin string // empty allows any origin
	Quiet      bool   // no request log
}

// Server is the websocket host.
type Server struct {
	config    Config
	engine    Engine
	hub       *Hub
	router    chi.Router
	startedAt time.Time
}

// NewServer creates a server for e. hub must be the bridge e was built with.
func NewServer(cfg Config, e Engine, hub *Hub) *Server {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	s := &Server{
		config:    cfg,
		engine:    e,
		hub:       hub,
		startedAt: time.Now(),
	}
	s.router = s.setupRouter()
	return s
}

// Handler returns the HTTP handler, for embedding and tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(corsMiddleware(s.config.CORSOrigin))

	if !s.config.Quiet {
		r.Use(middleware.RequestLogger(&redactingLogFormatter{
			base: &middleware.DefaultLogFormatter{Logger: log.New(tuilog.Log.Writer(), "", log.LstdFlags), NoColor: true},
		}))
	}

	if s.config.Token != "" {
		tuilog.Log.Info("Websocket host authentication enabled")
		r.Use(bearerAuth(s.config.Token))
	} else {
		tuilog.Log.Warn("Websocket host running without authentication - use --token to secure")
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/ws", s.handleWS)
		r.Post("/messages", s.handlePostMessage)
		r.Get("/state", s.handleState)
		r.Get("/health", s.handleHealth)
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// ListenAndServe starts the server and blocks until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if existing := config.FindServe(); existing != nil && existing.Port == s.config.Port && s.config.Port != 0 {
		return fmt.Errorf("port %d is already in use by niiview %s (PID %d, started %s)",
			s.config.Port, existing.Type, existing.PID, existing.StartedAt.Format(time.RFC3339))
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.config.Host, s.config.Port),
		Handler: s.router,
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	if s.config.Port == 0 {
		s.config.Port = ln.Addr().(*net.TCPAddr).Port
	}

	inst := config.Instance{
		Type:      config.InstanceServe,
		PID:       os.Getpid(),
		Port:      s.config.Port,
		Host:      s.config.Host,
		StartedAt: time.Now(),
	}
	if err := config.RegisterInstance(inst); err != nil {
		tuilog.Log.Warn("Failed to register serve instance", "error", err)
	}

	go func() {
		<-ctx.Done()
		config.UnregisterInstance(os.Getpid())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	fmt.Printf("niiview running at %s\n", inst.URL())
	if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Addr returns the server address string.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}

// handlePostMessage injects one envelope.
// POST /v1/messages with body {"type": "...", "body": ...}
func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxMessageBytes)
	var env protocol.Envelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "Failed to parse request body")
		return
	}
	if _, err := env.Message(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_message", err.Error())
		return
	}
	wsMessagesTotal.WithLabelValues("in", "http").Inc()
	s.engine.PostEnvelope(env)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.State())
}

// HealthResponse is the body of GET /v1/health.
type HealthResponse struct {
	Status    string       `json:"status"`
	Version   version.Info `json:"version"`
	Ready     bool         `json:"ready"`
	Viewports int          `json:"viewports"`
	Clients   int          `json:"clients"`
	UptimeSec int64        `json:"uptime_seconds"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	st := s.engine.State()
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Version:   version.GetInfo("niiview"),
		Ready:     st.Ready,
		Viewports: len(st.Viewports),
		Clients:   s.hub.Clients(),
		UptimeSec: int64(time.Since(s.startedAt).Seconds()),
	})
}

// bearerAuth returns middleware that validates a bearer token using
// constant-time comparison. Browsers cannot set headers on a websocket
// upgrade, so /v1/ws also accepts ?token=.
func bearerAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == healthPath || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			var got string
			if auth := r.Header.Get("Authorization"); auth != "" {
				const prefix = "Bearer "
				if len(auth) < len(prefix) || auth[:len(prefix)] != prefix {
					writeError(w, http.StatusUnauthorized, "unauthorized", "Invalid Authorization header format")
					return
				}
				got = auth[len(prefix):]
			} else if r.URL.Path == "/v1/ws" {
				got = r.URL.Query().Get(tokenParam)
			}
			if got == "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="niiview"`)
				writeError(w, http.StatusUnauthorized, "unauthorized", "Missing Authorization header")
				return
			}

			if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				writeError(w, http.StatusUnauthorized, "unauthorized", "Invalid token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// corsMiddleware adds CORS headers for cross-origin requests.
func corsMiddleware(origin string) func(http.Handler) http.Handler {
	if origin == "" {
		origin = "*"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ErrorResponse is an API error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, err string, msg string) {
	writeJSON(w, status, ErrorResponse{Error: err, Message: msg})
}
