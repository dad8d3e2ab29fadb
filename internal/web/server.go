// Package web serves the token creation page, its form endpoints and the
// browser wallet bridge.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"token-forge/internal/domain"
	"token-forge/internal/observability"
	"token-forge/internal/wallet"
)

//go:embed templates/*.html
var templateFS embed.FS

// Submitter runs a token submission.
type Submitter interface {
	Submit(ctx context.Context, w wallet.Wallet, req domain.TokenRequest) (*domain.CreationResult, error)
}

// Server handles HTTP requests.
type Server struct {
	flow         Submitter
	serverWallet wallet.Wallet
	cluster      string
	sessions     *SessionStore
	upgrader     websocket.Upgrader
	bridgeConfig *wallet.BridgeConfig
	tmpl         *template.Template
	logger       zerolog.Logger

	// State
	mu          sync.Mutex
	started     time.Time
	submissions int
	successes   int
	failures    int
	lastMint    string
}

// Options for creating Server.
type Options struct {
	Flow Submitter

	// Wallet, when set, signs for sessions without a connected browser wallet.
	Wallet wallet.Wallet

	// Cluster is shown on the page and used for explorer links.
	Cluster string

	BridgeConfig *wallet.BridgeConfig
	Logger       zerolog.Logger
}

// New creates a new Server.
func New(opts Options) (*Server, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	if opts.Flow == nil {
		return nil, errors.New("web: flow is required")
	}

	return &Server{
		flow:         opts.Flow,
		serverWallet: opts.Wallet,
		cluster:      opts.Cluster,
		sessions:     NewSessionStore(),
		bridgeConfig: opts.BridgeConfig,
		tmpl:         tmpl,
		logger:       opts.Logger,
		started:      time.Now(),
	}, nil
}

// Handler returns the HTTP handler with all routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /image", s.handleImage)
	mux.HandleFunc("POST /create", s.handleCreate)
	mux.HandleFunc("POST /result/close", s.handleCloseResult)
	mux.HandleFunc("GET /wallet/ws", s.handleWalletSocket)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Prometheus metrics
	mux.Handle("GET /metrics", observability.Handler())

	// Status endpoint
	mux.HandleFunc("GET /status", s.handleStatus)

	return mux
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.pruneLoop(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("starting HTTP server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// pruneLoop drops abandoned sessions.
func (s *Server) pruneLoop(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.sessions.Prune(time.Hour); n > 0 {
				s.logger.Debug().Int("sessions", n).Msg("pruned idle sessions")
			}
		}
	}
}

// walletFor picks the session's browser wallet, then the server wallet.
// A nil result means no wallet is connected.
func (s *Server) walletFor(sess *Session) wallet.Wallet {
	if b := sess.Bridge(); b != nil {
		if _, ok := b.PublicKey(); ok {
			return b
		}
	}
	return s.serverWallet
}

func (s *Server) recordOutcome(result *domain.CreationResult, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submissions++
	if err != nil {
		s.failures++
		return
	}
	s.successes++
	s.lastMint = result.MintAddress
}
