package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"

	apiconfig "verichain/config"
	"verichain/internal/messaging/consumer"
	worker "verichain/processing"
	"verichain/storage/store"
)

const defaultConfigPath = "./config/notifier.defaults.yml"

func main() {
	logger := log.New(os.Stdout, "[NOTIFIER] ", log.LstdFlags|log.Lshortfile)
	logger.Println("Starting Notification Delivery Service...")

	if err := godotenv.Load(); err == nil {
		logger.Println("Loaded environment from .env")
	}

	configPath := os.Getenv("NOTIFIER_CONFIG")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	// 1. Load configuration
	cfg, err := apiconfig.LoadNotifierConfig(configPath)
	if err != nil {
		logger.Fatalf("Failed to load notifier configuration: %v", err)
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

	// 3. One consumer group member per configured count, each with its own
	// delivery workers.
	var wg sync.WaitGroup
	consumers := make([]*consumer.KafkaConsumer, 0, cfg.KafkaConsumer.Count)
	for i := 0; i < cfg.KafkaConsumer.Count; i++ {
		c, err := consumer.NewKafkaConsumer(cfg.KafkaConsumer, logger)
		if err != nil {
			logger.Fatalf("Failed to initialize Kafka consumer %d: %v", i+1, err)
		}
		consumers = append(consumers, c)

		w := worker.New(cfg.Delivery, cfg.MaxDeliveryRetries, logger, dbStore, c)
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Run(ctx)
		}()
	}

	// 4. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Printf("Received shutdown signal: %s, starting graceful shutdown...", sig)
	cancel()

	wg.Wait()
	for _, c := range consumers {
		if err := c.Close(); err != nil {
			logger.Printf("Failed to close consumer: %v", err)
		}
	}
	logger.Println("Notification Delivery Service stopped.")
}
