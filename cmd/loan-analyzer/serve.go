package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iwvelando/loan-analyzer/internal/config"
	"github.com/iwvelando/loan-analyzer/internal/server"
	"github.com/iwvelando/loan-analyzer/pkg/constants"
	"github.com/iwvelando/loan-analyzer/pkg/export"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis and scenario HTTP API",
	Long: `Serve the JSON HTTP API. Listen address, upload limit, request timeout
and logging come from the server configuration file; scenario defaults,
batch policy and the run journal come from the main configuration.

Endpoints:
  POST /api/analyze, /api/upload
  POST /api/scenarios/rate-shock, /api/scenarios/prepayment, /api/scenarios/refinance
  POST /api/export/csv, /api/export/xlsx
  GET  /api/version, /status`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var (
	serverConfigPath string
	serveAddress     string
)

const shutdownTimeout = 10 * time.Second

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverConfigPath, "server-config", constants.DefaultServerConfigFile, "path to server configuration file")
	serveCmd.Flags().StringVar(&serveAddress, "address", "", "listen address override")
}

func runServe(cmd *cobra.Command, args []string) error {
	const op = "main.runServe"

	srvCfg, err := server.LoadConfig(serverConfigPath)
	if err != nil {
		return err
	}
	if serveAddress != "" {
		srvCfg.Address = serveAddress
	}
	if srvCfg.Logging != (config.LoggingConfig{}) {
		l, err := initializeLogger(srvCfg.Logging, logLevel)
		if err != nil {
			return err
		}
		logger = l
	}

	engine, err := newEngine()
	if err != nil {
		return err
	}

	opts := server.Options{
		MaxUploadSize: srvCfg.UploadSizeBytes(),
		Version:       version,
		Scenarios:     conf.Scenarios,
	}
	if conf.Export.JournalPath != "" {
		j, err := export.OpenJournal(conf.Export.JournalPath, logger)
		if err != nil {
			return err
		}
		defer j.Close()
		opts.Journal = j
	}

	srv := server.NewServer(srvCfg, server.NewHandler(logger, engine, opts))

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.String("op", op),
			zap.String("address", srvCfg.Address),
			zap.Int64("max_upload_bytes", srvCfg.UploadSizeBytes()),
			zap.Duration("request_timeout", srvCfg.RequestTimeoutDuration()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serverErr:
		return err
	case <-quit:
		logger.Info("shutting down server", zap.String("op", op))
	case <-cmd.Context().Done():
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}
	logger.Info("server exited", zap.String("op", op))
	return nil
}
