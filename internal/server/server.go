package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/cors"
	"golang.org/x/net/netutil"
	"golang.org/x/sync/errgroup"

	"equitask-backend/internal/tasks"
)

const shutdownTimeout = 10 * time.Second

type Config struct {
	Port           int
	AllowedOrigins []string
	MaxConnections int // 0 means unlimited
	Logger         *slog.Logger
}

type Server struct {
	cfg   Config
	tasks *tasks.TaskHandler
}

func New(cfg Config, th *tasks.TaskHandler) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	return &Server{cfg: cfg, tasks: th}
}

// Handler returns the routed mux wrapped in CORS handling.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK"))
	})
	mux.HandleFunc("POST /ai/task-simplify", s.tasks.Simplify)

	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{
			"Content-Type", "Authorization",
			"X-Request-Id", "X-Session-Id", "X-Platform", "X-App-Version", "X-Device-Locale",
			"Idempotency-Key", "X-Source-Event-Key",
		},
		ExposedHeaders: []string{"X-Request-Id"},
	})

	return c.Handler(mux)
}

// Run listens on the configured port and serves until ctx is cancelled, then
// drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", ":"+strconv.Itoa(s.cfg.Port))
	if err != nil {
		return fmt.Errorf("server: listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if s.cfg.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, s.cfg.MaxConnections)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.cfg.Logger.Info("api server is running", "addr", ln.Addr().String(), "max_connections", s.cfg.MaxConnections)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		s.cfg.Logger.Info("api server shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}
