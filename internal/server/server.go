// Package server exposes workbook upload and extraction over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/ukaji3/pinmap-go/internal/storage"
	"github.com/ukaji3/pinmap-go/pkg/pinmap"
)

// Options configures the HTTP layer.
type Options struct {
	// Config is passed to every workbook the server opens.
	Config pinmap.Config
	// AllowOrigins lists the CORS origins; empty allows any origin.
	AllowOrigins []string
	// MaxUploadBytes caps the uploaded workbook size; 0 means 32 MiB.
	MaxUploadBytes int64
}

const defaultMaxUploadBytes = 32 << 20

// Server routes the upload, sheet_info, parse_pins and uploads endpoints.
type Server struct {
	store  *storage.Store
	opts   Options
	logger *slog.Logger
	engine *gin.Engine
}

// New builds the router.
func New(store *storage.Store, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUploadBytes
	}

	s := &Server{store: store, opts: opts, logger: logger}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger), corsMiddleware(opts.AllowOrigins))
	r.MaxMultipartMemory = opts.MaxUploadBytes

	r.GET("/healthz", s.handleHealth)
	r.POST("/upload", s.handleUpload)
	r.POST("/sheet_info", s.handleSheetInfo)
	r.POST("/parse_pins", s.handleParsePins)
	r.GET("/uploads/:sid/:fname", s.handleServeUpload)

	s.engine = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	config := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "X-Requested-With"},
		ExposeHeaders: []string{"Content-Type", "Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = origins
	}
	return cors.New(config)
}

// requestLogger logs one line per request; failures log at warn or error.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", time.Since(start),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "error", c.Errors.String())
		}
		switch {
		case status >= 500:
			logger.Error("request failed", attrs...)
		case status >= 400:
			logger.Warn("request rejected", attrs...)
		default:
			logger.Debug("request", attrs...)
		}
	}
}
