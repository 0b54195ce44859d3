package main

import (
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/Stillgh/sentiment-analysis/cmd"
	"github.com/Stillgh/sentiment-analysis/internal/config"
	"github.com/Stillgh/sentiment-analysis/internal/core"
	"github.com/Stillgh/sentiment-analysis/internal/database"
	"github.com/Stillgh/sentiment-analysis/internal/ledger"
	"github.com/Stillgh/sentiment-analysis/internal/messaging"
)

func main() {
	log.Println("Starting Worker Process...")

	cmd.LoadEnvFile()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	reciever, err := messaging.NewRabbitMQReceiver(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}

	processor := core.NewTaskProcessor(db, ledger.NewLedger(db), reciever, core.NewPredictorLoaders())

	concurrency := cfg.WorkerConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func() {
			defer wg.Done()
			processor.Start()
		}()
	}

	log.Printf("Worker started with %d consumers. Waiting for tasks. Press Ctrl+C to exit.", concurrency)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutdown signal received, stopping consumers...")
	processor.Stop()
	wg.Wait()

	log.Println("Worker process stopped.")
}
