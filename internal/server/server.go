package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/derbybench/lineup-server-go/internal/config"
	"github.com/derbybench/lineup-server-go/internal/lineup"
	"github.com/derbybench/lineup-server-go/internal/metrics"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	exportPlayers = "players"
	exportLineup  = "lineup"

	maxImportSize = 1 << 20

	readTimeout  = 10 * time.Second
	writeTimeout = 10 * time.Second
	idleTimeout  = 60 * time.Second
)

// shutdownTimeout bounds graceful shutdown
var shutdownTimeout = 10 * time.Second

// Server exposes the lineup engine over websocket and a small HTTP API
type Server struct {
	cfg      config.ServerConfig
	engine   *lineup.Engine
	hub      *Hub
	metrics  *metrics.Recorder
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// New wires the engine change handler to the websocket hub
func New(cfg config.ServerConfig, engine *lineup.Engine, rec *metrics.Recorder, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		cfg:     cfg,
		engine:  engine,
		hub:     NewHub(logger.Named("hub"), rec),
		metrics: rec,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(cfg.AllowedOrigins),
		},
	}
	engine.SetChangeHandler(func(v lineup.View) {
		s.hub.Broadcast(WSMessage{Type: MsgState, Data: v})
	})
	return s
}

// Hub returns the websocket hub
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the HTTP routes. The hub must be running for /ws.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("GET /api/state", s.handleState)
	api.HandleFunc("GET /api/lines/{box}", s.handleLine)
	api.HandleFunc("GET /api/export", s.handleExport)
	api.HandleFunc("POST /api/import", s.handleImport)
	api.HandleFunc("GET /healthz", s.handleHealth)
	if s.cfg.MetricsEnabled {
		api.Handle("GET /metrics", s.metrics.Handler())
	}

	mux := http.NewServeMux()
	// websocket upgrades need the raw ResponseWriter, so /ws skips the
	// request logger
	mux.HandleFunc("/ws", s.serveWS)
	mux.Handle("/", requestLogger(s.logger, api))
	return mux
}

// Run starts the hub and the HTTP listener and blocks until ctx is
// cancelled or the listener fails
func (s *Server) Run(ctx context.Context) error {
	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go s.hub.Run(hubCtx)

	srv := &http.Server{
		Addr:         s.cfg.Address,
		Handler:      s.Handler(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", zap.String("address", s.cfg.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	stopHub()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	s.logger.Info("HTTP server stopped")
	return nil
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client, ok := s.hub.attach(conn)
	if !ok {
		conn.Close()
		return
	}

	go client.writePump()
	// new clients start from the current state
	s.hub.Send(client, WSMessage{Type: MsgState, Data: s.engine.State()})
	go client.readPump(s.hub, func(c *Client, msg inbound) {
		s.handleMessage(context.Background(), c, msg)
	})
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.engine.State())
}

// handleLine reports the composition of one line, camelCase or legacy name
func (s *Server) handleLine(w http.ResponseWriter, r *http.Request) {
	box, err := lineup.ParseBox(r.PathValue("box"))
	if err != nil || !box.IsLine() {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("no line named %q", r.PathValue("box")))
		return
	}
	s.writeJSON(w, http.StatusOK, s.engine.LineInfo(box))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")
	if kind == "" {
		kind = exportLineup
	}
	doc, err := s.export(kind)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", kind+".json"))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(doc); err != nil {
		s.logger.Warn("failed to write export", zap.Error(err))
	}
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportSize))
	if err != nil {
		s.writeError(w, http.StatusRequestEntityTooLarge, "import document too large")
		return
	}
	result, out, err := s.engine.Import(r.Context(), data)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, importPayload{Result: result, Outcome: out})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":     "ok",
		"session_id": s.engine.SessionID(),
	})
}

func (s *Server) export(kind string) ([]byte, error) {
	switch kind {
	case exportPlayers:
		return s.engine.ExportPlayers()
	case exportLineup:
		return s.engine.ExportLineup()
	default:
		return nil, fmt.Errorf("unknown export kind %q", kind)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorPayload{Message: message})
}

// originChecker allows requests without an Origin header and those whose
// origin is listed; "*" allows everything
func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		return false
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func requestLogger(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		logger.Info("request complete",
			zap.String("request_id", reqID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
