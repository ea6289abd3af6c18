package observer

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/crypto/bcrypt"

	"github.com/udisondev/bossai/internal/ai"
	"github.com/udisondev/bossai/internal/model"
	"github.com/udisondev/bossai/internal/raid"
)

const (
	clientBuffer = 256
	writeTimeout = 5 * time.Second
	readTimeout  = 60 * time.Second

	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// Registry reports tracked bosses and their stored transition history.
type Registry interface {
	Snapshot() []raid.Entry
	Transitions(ctx context.Context, bossID uint32, limit int) ([]raid.TransitionRow, error)
}

// Commander reaches controllers on the tick goroutine.
type Commander interface {
	GetController(objectID uint32) (ai.Controller, error)
	Submit(fn func())
}

// Damager applies damage to a boss body.
type Damager interface {
	DamageBoss(id uint32, amount float64) (float64, error)
}

// DamageRequest is the body of POST /bosses/{id}/damage.
type DamageRequest struct {
	Amount float64 `json:"amount"`
}

// BehaviorRequest is the body of POST /bosses/{id}/behavior.
type BehaviorRequest struct {
	Behavior model.BehaviorKind `json:"behavior"`
}

// Server serves the observer stream and admin endpoints.
type Server struct {
	hub         *Hub
	bosses      Registry
	commands    Commander
	damage      Damager
	allowRemote bool

	adminUser string
	adminHash []byte

	upgrader websocket.Upgrader
}

// NewServer creates a server. Requests from non-loopback addresses are
// refused unless allowRemote is set; with allowRemote, state-changing
// routes require the admin credential set by RequireAdmin.
func NewServer(hub *Hub, bosses Registry, commands Commander, allowRemote bool) *Server {
	return &Server{
		hub:         hub,
		bosses:      bosses,
		commands:    commands,
		allowRemote: allowRemote,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// EnableDamage exposes POST /bosses/{id}/damage backed by d.
func (s *Server) EnableDamage(d Damager) {
	s.damage = d
}

// RequireAdmin sets the HTTP basic credential checked on state-changing
// routes when remote access is allowed. hash is a bcrypt hash.
func (s *Server) RequireAdmin(user, hash string) error {
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return fmt.Errorf("admin password hash: %w", err)
	}
	s.adminUser = user
	s.adminHash = []byte(hash)
	return nil
}

// HashAdminPassword returns the bcrypt hash to put in the observer config.
func HashAdminPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing admin password: %w", err)
	}
	return string(hash), nil
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", s.guard(s.handleWS))
	mux.HandleFunc("GET /bosses", s.guard(s.handleBosses))
	mux.HandleFunc("GET /bosses/{id}/transitions", s.guard(s.handleTransitions))
	mux.HandleFunc("POST /bosses/{id}/behavior", s.guard(s.admin(s.handleBehavior)))
	if s.damage != nil {
		mux.HandleFunc("POST /bosses/{id}/damage", s.guard(s.admin(s.handleDamage)))
	}
	mux.HandleFunc("GET /healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write([]byte("ok"))
	})
	return mux
}

// ListenAndServe serves on addr until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("observer listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down observer: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("observer server: %w", err)
	}
}

func (s *Server) guard(next http.HandlerFunc) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !s.allowRemote && !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		next(rw, r)
	}
}

// admin requires the admin credential on remote-enabled servers. Loopback-only
// servers are already limited to local clients by guard.
func (s *Server) admin(next http.HandlerFunc) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !s.allowRemote {
			next(rw, r)
			return
		}
		if len(s.adminHash) == 0 {
			http.Error(rw, "admin credential not configured", http.StatusForbidden)
			return
		}
		user, password, ok := r.BasicAuth()
		if !ok ||
			subtle.ConstantTimeCompare([]byte(user), []byte(s.adminUser)) != 1 ||
			bcrypt.CompareHashAndPassword(s.adminHash, []byte(password)) != nil {
			slog.Warn("observer admin auth failed", "remote", r.RemoteAddr, "path", r.URL.Path)
			rw.Header().Set("WWW-Authenticate", `Basic realm="bossai"`)
			http.Error(rw, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(rw, r)
	}
}

func (s *Server) snapshot() SnapshotMsg {
	bosses := s.bosses.Snapshot()
	if bosses == nil {
		bosses = []raid.Entry{}
	}
	return SnapshotMsg{Type: TypeSnapshot, Bosses: bosses}
}

func (s *Server) handleBosses(rw http.ResponseWriter, r *http.Request) {
	writeJSON(rw, http.StatusOK, s.snapshot())
}

func (s *Server) handleTransitions(rw http.ResponseWriter, r *http.Request) {
	id, ok := bossID(rw, r)
	if !ok {
		return
	}

	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxHistoryLimit {
			http.Error(rw, fmt.Sprintf("limit must be in 1..%d", maxHistoryLimit), http.StatusBadRequest)
			return
		}
		limit = n
	}

	known := false
	for _, e := range s.bosses.Snapshot() {
		if e.BossID == id {
			known = true
			break
		}
	}
	if !known {
		http.Error(rw, fmt.Sprintf("boss %d is not tracked", id), http.StatusNotFound)
		return
	}

	rows, err := s.bosses.Transitions(r.Context(), id, limit)
	if err != nil {
		slog.Error("listing boss transitions", "bossID", id, "error", err)
		http.Error(rw, "history unavailable", http.StatusInternalServerError)
		return
	}
	if rows == nil {
		rows = []raid.TransitionRow{}
	}
	writeJSON(rw, http.StatusOK, rows)
}

func (s *Server) handleBehavior(rw http.ResponseWriter, r *http.Request) {
	id, ok := bossID(rw, r)
	if !ok {
		return
	}

	var req BehaviorRequest
	if err := json.NewDecoder(http.MaxBytesReader(rw, r.Body, 1024)).Decode(&req); err != nil {
		http.Error(rw, fmt.Sprintf("bad request: %v", err), http.StatusBadRequest)
		return
	}

	ctrl, err := s.commands.GetController(id)
	if err != nil {
		http.Error(rw, err.Error(), http.StatusNotFound)
		return
	}

	kind := req.Behavior
	s.commands.Submit(func() { ctrl.SetBehavior(kind) })
	slog.Info("behavior forced via observer", "bossID", id, "behavior", kind)

	writeJSON(rw, http.StatusAccepted, map[string]any{
		"id":       id,
		"behavior": kind,
	})
}

func (s *Server) handleDamage(rw http.ResponseWriter, r *http.Request) {
	id, ok := bossID(rw, r)
	if !ok {
		return
	}

	var req DamageRequest
	if err := json.NewDecoder(http.MaxBytesReader(rw, r.Body, 1024)).Decode(&req); err != nil {
		http.Error(rw, fmt.Sprintf("bad request: %v", err), http.StatusBadRequest)
		return
	}

	health, err := s.damage.DamageBoss(id, req.Amount)
	if err != nil {
		http.Error(rw, err.Error(), http.StatusNotFound)
		return
	}

	writeJSON(rw, http.StatusOK, map[string]any{
		"id":     id,
		"health": health,
	})
}

func (s *Server) handleWS(rw http.ResponseWriter, r *http.Request) {
	initial, err := json.Marshal(s.snapshot())
	if err != nil {
		http.Error(rw, "snapshot unavailable", http.StatusInternalServerError)
		return
	}

	conn, err := s.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	c := s.hub.join(initial, clientBuffer)
	defer s.hub.leave(c)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	writeErr := make(chan error, 1)
	go func() {
		for {
			select {
			case <-ctx.Done():
				writeErr <- ctx.Err()
				return
			case b := <-c.send:
				_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					writeErr <- err
					return
				}
			}
		}
	}()

	// Observers are read-only; reads only detect the peer going away.
	for {
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	cancel()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
		time.Now().Add(time.Second))

	select {
	case <-writeErr:
	case <-time.After(500 * time.Millisecond):
	}
}

func bossID(rw http.ResponseWriter, r *http.Request) (uint32, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 32)
	if err != nil {
		http.Error(rw, "bad boss id", http.StatusBadRequest)
		return 0, false
	}
	return uint32(id), true
}

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(v)
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
