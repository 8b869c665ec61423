// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

// Package web serves the booking page, its JSON API and the static asset
// bundle.
package web

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"connectrpc.com/grpchealth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/blinklabs-io/roombook/event"
	"github.com/blinklabs-io/roombook/models"
	"github.com/blinklabs-io/roombook/viewmodel"
)

const DefaultListenAddress = ":8080"

// Bookings is the view-model the shell renders and drives
type Bookings interface {
	Connect(ctx context.Context, prompt bool) (string, error)
	WalletStatus() viewmodel.WalletStatus
	Account() string
	Model() *models.ReadModel
	AvailableSlots(room string, day time.Time) []int64
	ExcludedTimes(room string, day time.Time) []int64
	ValidateNewReservation(room string, date int64) error
	ActionState(action viewmodel.Action) viewmodel.ActionState
	CanCancel(r models.Reservation, actingUser string) bool
	Reserve(ctx context.Context, room string, date int64, actingUser string) error
	Cancel(ctx context.Context, r models.Reservation, actingUser string) error
	SignUp(ctx context.Context, name string, actingUser string) error
}

type ServerConfig struct {
	Logger   *slog.Logger
	EventBus *event.EventBus
	Bookings Bookings
	// Assets holds the static bundle. The built-in stylesheet is used when
	// nil.
	Assets        fs.FS
	ListenAddress string
	// BasePath prefixes every page, API and asset route
	BasePath     string
	PromRegistry prometheus.Registerer
	// Now defaults to time.Now
	Now func() time.Time
}

// Server is the booking web shell
type Server struct {
	config     ServerConfig
	logger     *slog.Logger
	metrics    *serverMetrics
	page       *template.Template
	httpServer *http.Server
	stopCh     chan struct{}
	mu         sync.Mutex
}

func New(cfg ServerConfig) (*Server, error) {
	if cfg.Bookings == nil {
		return nil, errors.New("web: no bookings view-model")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	cfg.BasePath = NormalizeBasePath(cfg.BasePath)
	if cfg.Assets == nil {
		sub, err := fs.Sub(defaultAssets, "static")
		if err != nil {
			return nil, err
		}
		cfg.Assets = sub
	}
	page, err := parsePage()
	if err != nil {
		return nil, fmt.Errorf("parsing page template: %w", err)
	}
	s := &Server{
		config: cfg,
		logger: cfg.Logger.With("component", "web"),
		page:   page,
	}
	if cfg.PromRegistry != nil {
		s.metrics = newServerMetrics(cfg.PromRegistry)
	}
	return s, nil
}

// NormalizeBasePath returns p with a leading slash and no trailing slash.
// The root path is returned as an empty string.
func NormalizeBasePath(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	if p == "" {
		return ""
	}
	return "/" + p
}

// Handler returns the complete route tree
func (s *Server) Handler() http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.RequestID)
	root.Use(middleware.Recoverer)
	root.Use(s.logRequests)

	root.Get("/health", s.handleHealth)
	healthPath, healthHandler := grpchealth.NewHandler(
		&walletChecker{bookings: s.config.Bookings},
	)
	root.Handle(healthPath+"*", healthHandler)

	app := chi.NewRouter()
	app.Get("/", s.handlePage)
	app.Post("/actions/connect", s.handleConnectAction)
	app.Post("/actions/reserve", s.handleReserveAction)
	app.Post("/actions/cancel", s.handleCancelAction)
	app.Post("/actions/signup", s.handleSignUpAction)
	app.Handle(
		"/static/*",
		http.StripPrefix(
			s.config.BasePath+"/static/",
			http.FileServer(http.FS(s.config.Assets)),
		),
	)
	app.Route("/api", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Get("/rooms/{room}/slots", s.handleSlots)
		r.Post("/connect", s.handleConnect)
		r.Get("/reservations", s.handleListReservations)
		r.Post("/reservations", s.handleReserve)
		r.Post("/reservations/cancel", s.handleCancel)
		r.Post("/signup", s.handleSignUp)
		r.Get("/events", s.handleEvents)
	})
	if s.config.BasePath == "" {
		root.Mount("/", app)
	} else {
		root.Mount(s.config.BasePath, app)
	}
	return root
}

// Start binds the listener and serves in a background goroutine. The
// server shuts down when ctx is cancelled or Stop is called.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.httpServer != nil {
		s.mu.Unlock()
		return errors.New("server already started")
	}
	server := &http.Server{
		Addr: s.config.ListenAddress,
		// h2c lets gRPC health checks reach us without TLS
		Handler:           h2c.NewHandler(s.Handler(), &http2.Server{}),
		ReadHeaderTimeout: 60 * time.Second,
	}
	s.httpServer = server
	// a fresh channel per run so the server can be started again after Stop
	stopCh := make(chan struct{})
	s.stopCh = stopCh
	s.mu.Unlock()

	if err := s.startServer(server); err != nil {
		s.mu.Lock()
		s.httpServer = nil
		s.mu.Unlock()
		return err
	}
	s.logger.Info(
		"web listener started on "+s.config.ListenAddress,
		"base_path", s.config.BasePath,
	)

	go func() {
		select {
		case <-ctx.Done():
		case <-stopCh:
			return
		}
		//nolint:contextcheck
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			30*time.Second,
		)
		defer cancel()
		//nolint:contextcheck
		if err := s.Stop(shutdownCtx); err != nil {
			s.logger.Error(
				"failed to shutdown web server on context cancellation",
				"error", err,
			)
		}
	}()
	return nil
}

// Stop gracefully shuts down the HTTP server and closes event streams
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.httpServer = nil
	if srv != nil {
		close(s.stopCh)
	}
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	s.logger.Debug("shutting down web server")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown web server: %w", err)
	}
	return nil
}

// startServer binds the listening socket first so port conflicts are
// reported to the caller, then serves in a background goroutine
func (s *Server) startServer(server *http.Server) error {
	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen for web server: %w", err)
	}
	go func() {
		if err := server.Serve(ln); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("web server error", "error", err)
		}
	}()
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		if s.metrics != nil {
			s.metrics.observe(r.Method, status, time.Since(start))
		}
		s.logger.Debug(
			"request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
