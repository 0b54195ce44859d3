package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Stillgh/sentiment-analysis/cmd"
	"github.com/Stillgh/sentiment-analysis/internal/api"
	"github.com/Stillgh/sentiment-analysis/internal/auth"
	"github.com/Stillgh/sentiment-analysis/internal/config"
	"github.com/Stillgh/sentiment-analysis/internal/database"
	"github.com/Stillgh/sentiment-analysis/internal/dispatcher"
	"github.com/Stillgh/sentiment-analysis/internal/ledger"
	"github.com/Stillgh/sentiment-analysis/internal/messaging"
	"github.com/Stillgh/sentiment-analysis/internal/registry"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	log.Println("Starting API Server...")

	cmd.LoadEnvFile()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	reg := registry.NewRegistry(db)
	if err := reg.Bootstrap(context.Background()); err != nil {
		log.Fatalf("Failed to bootstrap model registry: %v", err)
	}

	publisher, err := messaging.NewRabbitMQPublisher(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer publisher.Close()

	authSvc := auth.NewService(db, cfg.JWTSecret, time.Duration(cfg.TokenTTLHours)*time.Hour)
	ldg := ledger.NewLedger(db)
	disp := dispatcher.NewDispatcher(db, reg, publisher, cfg.MinInputLength)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	apiHandler := api.NewBackendService(db, authSvc, ldg, reg, disp)
	apiHandler.AddRoutes(r)

	r.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: r,
	}

	// Goroutine for graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}
	}()

	log.Printf("API server listening on port %s", cfg.APIPort)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Could not listen on %s: %v\n", cfg.APIPort, err)
	}

	log.Println("Server stopped.")
}
