package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/ukaji3/pinmap-go/internal/server"
	"github.com/ukaji3/pinmap-go/internal/storage"
)

var (
	serveAddr    string
	uploadDir    string
	allowOrigins []string
	maxUploadMB  int64
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the upload, sheet_info and parse_pins HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", ":8000", "Listen address")
	cmd.Flags().StringVar(&uploadDir, "upload-dir", "uploads", "Directory for upload sessions")
	cmd.Flags().StringSliceVar(&allowOrigins, "allow-origin", nil, "Allowed CORS origin (repeatable; default: any)")
	cmd.Flags().Int64Var(&maxUploadMB, "max-upload-mb", 32, "Maximum workbook upload size in MiB")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger()
	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := storage.NewStore(uploadDir, logger)
	if err != nil {
		return err
	}

	srv := server.New(store, server.Options{
		Config:         cfg,
		AllowOrigins:   allowOrigins,
		MaxUploadBytes: maxUploadMB << 20,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx, serveAddr)
}
