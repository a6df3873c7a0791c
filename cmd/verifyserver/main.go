package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	apiconfig "verichain/config"
	"verichain/ledger/client"
	core "verichain/verification/service/core"
	httphandler "verichain/verification/service/http"
)

const defaultConfigPath = "./config/verify.defaults.yml"

func main() {
	logger := log.New(os.Stdout, "[VERIFY-API] ", log.LstdFlags|log.Lshortfile)
	logger.Println("Starting Verification API Server...")

	// Optional .env for local development overrides.
	if err := godotenv.Load(); err == nil {
		logger.Println("Loaded environment from .env")
	}

	configPath := os.Getenv("VERIFY_CONFIG")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	// 1. Load configuration
	cfg, err := apiconfig.LoadVerifyServerConfig(configPath)
	if err != nil {
		logger.Fatalf("Failed to load verification server configuration: %v", err)
	}

	// 2. Build the ledger connector. Sessions are opened per request, so this
	// only validates the configuration and wallet up front.
	connector, err := client.NewConnectorFromFile(cfg.LedgerClientConfigPath, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize ledger connector: %v", err)
	}

	// 3. Create core service and HTTP handler
	svc, err := core.NewService(connector, cfg.TempDir, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize verification service: %v", err)
	}
	handler := httphandler.NewDocumentHandler(svc, cfg.MaxUploadBytes, cfg.PublicBaseURL, logger)
	router := httphandler.NewRouter(handler, cfg.AllowedOrigins)

	// 4. HTTP server with tuned timeouts
	readTimeout := cfg.HttpServer.ReadTimeout
	if readTimeout == 0 {
		readTimeout = 10 * time.Second
	}
	writeTimeout := cfg.HttpServer.WriteTimeout
	if writeTimeout == 0 {
		writeTimeout = 60 * time.Second
	}
	idleTimeout := cfg.HttpServer.IdleTimeout
	if idleTimeout == 0 {
		idleTimeout = 60 * time.Second
	}
	maxHeaderBytes := cfg.HttpServer.MaxHeaderBytes
	if maxHeaderBytes == 0 {
		maxHeaderBytes = 1 << 20 // 1 MB
	}

	httpServer := &http.Server{
		Addr:           cfg.HttpListenAddr,
		Handler:        router,
		ReadTimeout:    readTimeout,
		WriteTimeout:   writeTimeout,
		IdleTimeout:    idleTimeout,
		MaxHeaderBytes: maxHeaderBytes,
	}

	go func() {
		logger.Printf("HTTP server listening on %s", cfg.HttpListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("HTTP server startup failed: %v", err)
		}
		logger.Println("HTTP server stopped listening.")
	}()

	// 5. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Printf("Received shutdown signal: %s, starting graceful shutdown...", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("HTTP server shutdown failed: %v", err)
	} else {
		logger.Println("HTTP server shutdown.")
	}
	logger.Println("Verification API Server stopped.")
}
