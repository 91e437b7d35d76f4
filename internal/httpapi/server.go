// Package httpapi exposes the web UI and the JSON/streaming endpoints.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"vidfetch/internal/core/domain"
	"vidfetch/internal/service"
)

const shutdownTimeout = 5 * time.Second

// InfoFetcher resolves video metadata.
type InfoFetcher interface {
	FetchInfo(ctx context.Context, videoURL string) (*domain.VideoInfo, error)
}

// Downloader produces a streamable artifact for a download request.
type Downloader interface {
	Download(ctx context.Context, req service.DownloadRequest) (*service.Artifact, error)
}

// ThumbnailFetcher fetches external images for the proxy endpoint.
type ThumbnailFetcher interface {
	Fetch(ctx context.Context, imageURL string) (*domain.Image, error)
}

// Options configures the server.
type Options struct {
	RateLimit float64 // requests per second shared by info and download; 0 disables
	RateBurst int
}

// Server serves the HTTP interface.
type Server struct {
	info       InfoFetcher
	downloader Downloader
	thumbnails ThumbnailFetcher
	logger     *slog.Logger
	limiter    *limiter
	router     chi.Router
}

// New creates a Server and builds its routes.
func New(info InfoFetcher, downloader Downloader, thumbnails ThumbnailFetcher, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		info:       info,
		downloader: downloader,
		thumbnails: thumbnails,
		logger:     logger.With(slog.String("component", "http")),
		limiter:    newLimiter(opts.RateLimit, opts.RateBurst),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Handle("/static/*", staticHandler())
	r.Get("/healthz", s.handleHealth)
	r.Get(service.ThumbnailProxyPath, s.handleThumbnailProxy)

	r.Group(func(r chi.Router) {
		r.Use(s.limiter.middleware)
		r.Post("/fetch_info", s.handleFetchInfo)
		r.Get("/download", s.handleDownload)
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run listens on addr and serves until ctx is done, then shuts down
// gracefully. Streaming responses can run for as long as the transfer
// takes, so no write timeout is set.
func (s *Server) Run(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, listener)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()
	s.logger.Info("server listening", slog.String("address", listener.Addr().String()))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("graceful shutdown incomplete", slog.Any("error", err))
		_ = srv.Close()
	}
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.logger.Info("request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
				slog.String("remote", r.RemoteAddr),
				slog.String("request_id", middleware.GetReqID(r.Context())))
		}()
		next.ServeHTTP(ww, r)
	})
}
