package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/algorandfoundation/algokit-subscriber-go/internal/monitor"
	"github.com/algorandfoundation/algokit-subscriber-go/pkg/algodrest"
	"github.com/algorandfoundation/algokit-subscriber-go/pkg/models"
	"github.com/algorandfoundation/algokit-subscriber-go/pkg/subscriber"
	"github.com/algorandfoundation/algokit-subscriber-go/pkg/watermark"
	"github.com/algorandfoundation/algokit-subscriber-go/pkg/watermark/pgwatermark"
)

func main() {
	log.Println("Starting AlgoKit Subscriber example (Microservice: algokit-subscriber-go)...")

	// ─── Environment Variables ──────────────────────────────────────────
	// All credentials MUST come from environment variables. No fallback
	// defaults for security-sensitive values. Only the process environment
	// is read; no .env file is loaded.
	// ────────────────────────────────────────────────────────────────────

	algodURL := getEnvOrDefault("ALGOD_URL", "http://localhost:4001")
	algodToken := getEnvOrDefault("ALGOD_TOKEN", "")
	algod := algodrest.New(algodURL, algodToken)

	var watermarkStore models.WatermarkStore
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		ctx := context.Background()
		store, err := pgwatermark.Connect(ctx, dbURL, "subscriber-example")
		if err != nil {
			log.Printf("Warning: failed to connect watermark store to Postgres, falling back to in-memory: %v", err)
			watermarkStore = watermark.NewMemory(startingRoundFromEnv())
		} else {
			if err := store.InitSchema(ctx); err != nil {
				log.Printf("Warning: watermark schema init failed: %v", err)
			}
			watermarkStore = store
		}
	} else {
		log.Println("DATABASE_URL not set; using in-memory watermark (not durable across restarts)")
		watermarkStore = watermark.NewMemory(startingRoundFromEnv())
	}

	cfg := models.SubscriptionConfig{
		Filters: []models.NamedFilter{
			{Name: "all-transactions", Filter: models.Filter{}},
		},
		SyncBehaviour:         models.SyncBehaviour(getEnvOrDefault("SYNC_BEHAVIOUR", string(models.SyncSkipSyncNewest))),
		WaitForBlockWhenAtTip: getEnvOrDefault("WAIT_FOR_BLOCK", "true") == "true",
		FrequencyInSeconds:    1,
		Watermark:             watermarkStore,
	}

	sub, err := subscriber.Construct(algod, nil, cfg)
	if err != nil {
		log.Fatalf("FATAL: failed to construct subscriber: %v", err)
	}

	sub.On("all-transactions", func(meta subscriber.PollMetadata, filterName string, txn *models.CanonicalTxn) {
		log.Printf("[subscriber] %s: %s %s (round %d)", filterName, txn.ID, txn.Type, txn.ConfirmedRound)
	})
	sub.OnError(func(meta subscriber.PollMetadata, err error) {
		log.Printf("[subscriber] poll error: %v", err)
	})

	wsHub := monitor.NewHub()
	go wsHub.Run()

	r := monitor.SetupRouter(sub, wsHub)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := sub.Start(ctx, algod); err != nil {
			log.Printf("[subscriber] run loop exited: %v", err)
		}
	}()

	port := getEnvOrDefault("PORT", "8080")
	log.Printf("Subscriber example running on :%s\n", port)

	go func() {
		if err := r.Run(":" + port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("Shutting down...")
	sub.Stop("received shutdown signal")
	cancel()
}

// getEnvOrDefault returns the env var value or a safe default for non-secret settings.
func getEnvOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// startingRoundFromEnv reads START_ROUND for the in-memory watermark's
// initial value, defaulting to 0 (cold start).
func startingRoundFromEnv() uint64 {
	val := os.Getenv("START_ROUND")
	if val == "" {
		return 0
	}
	round, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		log.Printf("Warning: invalid START_ROUND %q, defaulting to 0: %v", val, err)
		return 0
	}
	return round
}
