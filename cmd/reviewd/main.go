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
	"verichain/internal/blob"
	"verichain/internal/messaging/producer"
	"verichain/internal/notify"
	"verichain/review"
	reviewhttp "verichain/review/http"
	"verichain/storage/store"
)

const defaultConfigPath = "./config/review.defaults.yml"

func main() {
	logger := log.New(os.Stdout, "[REVIEW] ", log.LstdFlags|log.Lshortfile)
	logger.Println("Starting Review Service...")

	if err := godotenv.Load(); err == nil {
		logger.Println("Loaded environment from .env")
	}

	configPath := os.Getenv("REVIEW_CONFIG")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	// 1. Load configuration
	cfg, err := apiconfig.LoadReviewConfig(configPath)
	if err != nil {
		logger.Fatalf("Failed to load review configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Initialize dependencies
	logger.Println("Initializing database connection...")
	dbStore, err := store.NewPostgresStore(ctx, cfg.Database.DSN, cfg.Database.MinConnections, cfg.Database.MaxConnections, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize database store: %v", err)
	}
	defer dbStore.Close()

	blobs, err := blob.NewFileStore(cfg.BlobDir)
	if err != nil {
		logger.Fatalf("Failed to initialize blob store: %v", err)
	}

	logger.Println("Initializing Kafka producer...")
	kafkaProducer, err := producer.NewKafkaProducer(cfg.KafkaProducer, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize Kafka producer: %v", err)
	}
	defer kafkaProducer.Close()

	notifier := notify.New(kafkaProducer, logger)
	submitter := review.NewHTTPSubmitter(cfg.VerifyAPIBaseURL, cfg.SubmitTimeout, logger)

	// 3. Create service and HTTP handler
	svc := review.NewService(dbStore, blobs, submitter, notifier, cfg.SubmitTimeout, logger)
	handler := reviewhttp.NewReviewHandler(svc, blobs, logger)
	router := reviewhttp.NewRouter(handler)

	readTimeout := cfg.HttpServer.ReadTimeout
	if readTimeout == 0 {
		readTimeout = 10 * time.Second
	}
	writeTimeout := cfg.HttpServer.WriteTimeout
	if writeTimeout == 0 {
		writeTimeout = 90 * time.Second
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

	// 4. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Printf("Received shutdown signal: %s, starting graceful shutdown...", sig)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("HTTP server shutdown failed: %v", err)
	} else {
		logger.Println("HTTP server shutdown.")
	}
	logger.Println("Review Service stopped.")
}
