package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"rmvc/app"
	"rmvc/internal"
	"rmvc/internal/config"
	"rmvc/ui"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, closeLog, err := internal.NewLogger(appConfig.Logging.Level, appConfig.Logging.File)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer closeLog()

	gin.SetMode(appConfig.Server.GinMode)

	build := appConfig.Analysis.BuildOptions()
	service := app.NewAnalysisService(logger, appConfig.Analysis.Workers)
	server := ui.NewServer(service, ui.Options{
		Orientation:      build.Orientation,
		MinCriterionSize: build.MinCriterionSize,
		Precision:        appConfig.Analysis.Precision,
		Sheet:            appConfig.Ingest.Sheet,
		AcceptMarkers:    appConfig.Ingest.AcceptMarkers,
		MalformedWarnAt:  appConfig.Ingest.MalformedWarnAt,
		HistoryLimit:     appConfig.Server.HistoryLimit,
		MaxUploadBytes:   appConfig.Server.MaxUploadBytes,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx, ":"+appConfig.Server.Port, appConfig.Server.ShutdownTimeout); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
