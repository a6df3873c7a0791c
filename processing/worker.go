package worker

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"verichain/config"
	"verichain/internal/messaging/consumer"
	"verichain/internal/models"
	"verichain/storage/store"
)

// Worker drains the notification topic and persists each notification for
// later retrieval by the user-facing API. Delivery is at-least-once: a
// notification is acknowledged only after the store write succeeds, so a
// crash between insert and ack can produce a duplicate row, never a lost one.
type Worker struct {
	deliveryConfig     config.DeliveryConfig
	consumerRetryDelay time.Duration
	storeTimeout       time.Duration

	maxRetries int
	logger     *log.Logger
	store      store.Store
	consumer   consumer.Consumer
}

// New creates a new Worker instance.
func New(cfg config.DeliveryConfig, maxRetries int, logger *log.Logger, s store.Store, c consumer.Consumer) *Worker {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}

	consumerRetryDelay, err := time.ParseDuration(cfg.ConsumerRetryDelay)
	if err != nil {
		logger.Printf("Warning: Invalid consumer_retry_delay '%s', using default 5s", cfg.ConsumerRetryDelay)
		consumerRetryDelay = 5 * time.Second
	}

	storeTimeout, err := time.ParseDuration(cfg.StoreTimeout)
	if err != nil {
		logger.Printf("Warning: Invalid store_timeout '%s', using default 10s", cfg.StoreTimeout)
		storeTimeout = 10 * time.Second
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}

	return &Worker{
		deliveryConfig:     cfg,
		consumerRetryDelay: consumerRetryDelay,
		storeTimeout:       storeTimeout,
		maxRetries:         maxRetries,
		logger:             logger,
		store:              s,
		consumer:           c,
	}
}

// Run starts the delivery workers and blocks until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Printf("Starting delivery workers, concurrency: %d", w.deliveryConfig.Concurrency)
	var wg sync.WaitGroup
	for i := 0; i < w.deliveryConfig.Concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			w.logger.Printf("Worker %d started", workerID)
			w.deliverLoop(ctx, workerID)
			w.logger.Printf("Worker %d stopped", workerID)
		}(i + 1)
	}
	wg.Wait()
	w.logger.Println("Delivery workers stopped.")
}

// deliverLoop is the main loop for one worker goroutine.
func (w *Worker) deliverLoop(ctx context.Context, workerID int) {
	for {
		select {
		case <-ctx.Done():
			w.logger.Printf("Worker %d: Context cancelled, stopping.", workerID)
			return
		default:
		}

		notification, ack, err := w.consumer.Consume(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			w.logger.Printf("Worker %d: Consumer error: %v", workerID, err)
			select {
			case <-ctx.Done():
			case <-time.After(w.consumerRetryDelay):
			}
			continue
		}
		if notification == nil {
			continue
		}

		if w.deliver(ctx, workerID, notification) {
			ack(true)
		} else {
			ack(false)
			select {
			case <-ctx.Done():
			case <-time.After(w.consumerRetryDelay):
			}
		}
	}
}

// deliver persists one notification, retrying transient store failures
// inline. It reports whether the notification may be acknowledged.
func (w *Worker) deliver(ctx context.Context, workerID int, n *models.Notification) bool {
	if n.NotificationID == "" || n.UserID == "" {
		// Malformed payloads cannot succeed on redelivery either; drop them.
		w.logger.Printf("Worker %d: Dropping malformed notification (id=%q, user=%q)", workerID, n.NotificationID, n.UserID)
		return true
	}

	var lastErr error
	for attempt := 1; attempt <= w.maxRetries; attempt++ {
		storeCtx, cancel := context.WithTimeout(ctx, w.storeTimeout)
		lastErr = w.store.InsertNotification(storeCtx, n)
		cancel()

		if lastErr == nil {
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		w.logger.Printf("Worker %d: Failed to persist notification %s (attempt %d/%d): %v",
			workerID, n.NotificationID, attempt, w.maxRetries, lastErr)
	}

	w.logger.Printf("Worker %d: Giving up on notification %s after %d attempts, leaving for redelivery: %v",
		workerID, n.NotificationID, w.maxRetries, lastErr)
	return false
}
