// Command ocrd serves the OCR and splitter operations over HTTP, keeping one
// warm Tesseract-backed process instead of spawning a tool per document.
//
// Configuration comes from the environment (a .env file is loaded if
// present):
//
//	OCRD_ADDR     listen address (default ":8089")
//	OCRD_SCRATCH  scratch directory for cache and uploads (default system temp)
package main

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/wudi/ocrkit/observability"
	"github.com/wudi/ocrkit/ocr/tesseract"
	"github.com/wudi/ocrkit/server"
)

func main() {
	// Missing .env is fine; the environment wins either way.
	_ = godotenv.Load()

	addr := os.Getenv("OCRD_ADDR")
	if addr == "" {
		addr = ":8089"
	}
	scratch := os.Getenv("OCRD_SCRATCH")
	if scratch == "" {
		scratch = filepath.Join(os.TempDir(), "ocrkit")
	}

	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := observability.NewSlogLogger(slogger)

	srv := server.New(tesseract.New(), scratch, logger)
	logger.Info("listening", observability.String("addr", addr), observability.String("scratch", scratch))
	if err := http.ListenAndServe(addr, srv); err != nil {
		logger.Error("server stopped", observability.Error("error", err))
		os.Exit(1)
	}
}
