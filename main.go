package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/decisionjar/backend/internal/pkg/config"
	"github.com/decisionjar/backend/internal/server"
	"github.com/decisionjar/backend/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file, using environment variables")
	}

	if err := logger.Init(zapcore.InfoLevel, zap.String("service", "decisionjar-backend")); err != nil {
		return err
	}
	zl := logger.Log
	defer zl.Sync()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	otelShutdown, err := server.InitObservability("decisionjar-backend", ":9092", zl)
	if err != nil {
		return err
	}
	defer func() {
		if err := otelShutdown(context.Background()); err != nil {
			zl.Error("Failed to shutdown OpenTelemetry", zap.Error(err))
		}
	}()

	srv, err := server.New(cfg, zl)
	if err != nil {
		return err
	}
	defer srv.Close()

	router, err := server.SetupRouter(srv.GetDBPool(), cfg, zl)
	if err != nil {
		return err
	}
	srv.SetRouter(router)

	// pprof stays on a separate port, never exposed publicly.
	server.StartPprofServer(":6060", zl)

	httpServer := srv.HTTPServer()

	done := make(chan bool, 1)
	go server.GracefulShutdown(httpServer, zl, done)

	zl.Info("Server starting", zap.String("port", cfg.ServerPort))
	if err := httpServer.ListenAndServe(); err != nil {
		zl.Error("Server error", zap.Error(err))
	}

	<-done
	zl.Info("Graceful shutdown complete")

	return nil
}
