// internal/api/server.go
package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/OsbornePro/quickcopy/internal/config"
	"github.com/OsbornePro/quickcopy/internal/handoff"
	"github.com/OsbornePro/quickcopy/internal/window"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Controller is what the command surface drives.
type Controller interface {
	Open(ctx context.Context, payload string) error
	FetchPending() (string, error)
	Close(ctx context.Context) error
	State() window.State
}

type Options struct {
	Token       string
	TokenHeader string
	MaxBodyLen  int64
}

// Server exposes the quick copy commands on a loopback HTTP listener.
type Server struct {
	ctrl Controller
	opts Options
	log  *logrus.Entry
}

func NewServer(ctrl Controller, opts Options) *Server {
	if opts.TokenHeader == "" {
		opts.TokenHeader = "X-QuickCopy-Token"
	}
	if opts.MaxBodyLen <= 0 {
		opts.MaxBodyLen = 64 * 1024
	}
	return &Server{
		ctrl: ctrl,
		opts: opts,
		log:  logrus.WithField("component", "api"),
	}
}

// Handler returns the routed command surface.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLog)
	r.Use(s.requireToken)

	r.Route("/commands", func(r chi.Router) {
		r.Post("/"+CmdOpen, s.handleOpen)
		r.Post("/"+CmdFetch, s.handleFetch)
		r.Post("/"+CmdClose, s.handleClose)
	})
	r.Get("/status", s.handleStatus)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "unknown command")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

// ListenAndServe serves until ctx is canceled. Non-loopback binds are refused.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if !config.IsLoopbackListenAddr(addr) {
		return fmt.Errorf("refusing non-loopback command API address %q", addr)
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is canceled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// Open waits for the host to start the view.
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.log.WithField("addr", ln.Addr().String()).Info("command API listening")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down command API: %w", err)
		}
		return nil
	}
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.opts.Token == "" {
			writeError(w, http.StatusInternalServerError, "API token not available")
			return
		}
		got := strings.TrimSpace(r.Header.Get(s.opts.TokenHeader))
		if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(s.opts.Token)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", reqID)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		s.log.WithFields(logrus.Fields{
			"req":      reqID,
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"duration": time.Since(start).Round(time.Microsecond).String(),
		}).Info("command")
	})
}

func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	var req OpenRequest
	body := http.MaxBytesReader(w, r.Body, s.opts.MaxBodyLen)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooBig.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CredentialJSON == nil {
		writeError(w, http.StatusBadRequest, "credential_json is required")
		return
	}

	if err := s.ctrl.Open(r.Context(), *req.CredentialJSON); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeReply(w, http.StatusOK, Reply{OK: true})
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	payload, err := s.ctrl.FetchPending()
	if err != nil {
		if errors.Is(err, handoff.ErrEmpty) {
			writeError(w, http.StatusNotFound, NoCredentialMessage)
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeReply(w, http.StatusOK, Reply{OK: true, CredentialJSON: &payload})
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.Close(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeReply(w, http.StatusOK, Reply{OK: true})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeReply(w, http.StatusOK, Reply{OK: true, Window: s.ctrl.State()})
}
