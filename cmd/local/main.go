package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Stillgh/sentiment-analysis/cmd"
	"github.com/Stillgh/sentiment-analysis/internal/api"
	"github.com/Stillgh/sentiment-analysis/internal/auth"
	"github.com/Stillgh/sentiment-analysis/internal/core"
	"github.com/Stillgh/sentiment-analysis/internal/database"
	"github.com/Stillgh/sentiment-analysis/internal/dispatcher"
	"github.com/Stillgh/sentiment-analysis/internal/ledger"
	"github.com/Stillgh/sentiment-analysis/internal/messaging"
	"github.com/Stillgh/sentiment-analysis/internal/registry"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type Config struct {
	Root           string `env:"ROOT" envDefault:"./sentiment-analysis"`
	Port           int    `env:"PORT" envDefault:"3001"`
	JWTSecret      string `env:"JWT_SECRET" envDefault:"change-me"`
	TokenTTLHours  int    `env:"TOKEN_TTL_HOURS" envDefault:"24"`
	MinInputLength int    `env:"MIN_INPUT_LENGTH" envDefault:"5"`
}

func createDatabase(root string) *gorm.DB {
	path := filepath.Join(root, "db", "sentiment-analysis.db")
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.GetMigrator(db).Migrate(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	return db
}

// createQueue re-enqueues tasks that were still pending at shutdown. The
// in-memory queue dies with the process, so without this a task interrupted
// mid-flight would stay PENDING forever.
func createQueue(db *gorm.DB) *messaging.InMemoryQueue {
	var pending []database.PredictionTask
	if err := db.Where("result_timestamp IS NULL").Find(&pending).Error; err != nil {
		log.Fatalf("Failed to fetch pending tasks from database: %v", err)
	}

	queue := messaging.NewInMemoryQueue()

	for _, task := range pending {
		if err := queue.PublishPredictionTask(context.Background(), messaging.PredictionTaskPayload{
			TaskId: task.Id,
		}); err != nil {
			log.Fatalf("Failed to re-enqueue pending task %s: %v", task.Id, err)
		}
	}

	if len(pending) > 0 {
		log.Printf("Re-enqueued %d pending prediction tasks", len(pending))
	}

	return queue
}

func createServer(db *gorm.DB, queue messaging.Publisher, cfg Config) *http.Server {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	reg := registry.NewRegistry(db)
	authSvc := auth.NewService(db, cfg.JWTSecret, time.Duration(cfg.TokenTTLHours)*time.Hour)
	ldg := ledger.NewLedger(db)
	disp := dispatcher.NewDispatcher(db, reg, queue, cfg.MinInputLength)

	apiHandler := api.NewBackendService(db, authSvc, ldg, reg, disp)
	apiHandler.AddRoutes(r)

	r.Handle("/metrics", promhttp.Handler())

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}
}

func main() {
	cmd.LoadEnvFile()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	db := createDatabase(cfg.Root)

	if err := registry.NewRegistry(db).Bootstrap(context.Background()); err != nil {
		log.Fatalf("Failed to bootstrap model registry: %v", err)
	}

	queue := createQueue(db)

	processor := core.NewTaskProcessor(db, ledger.NewLedger(db), queue, core.NewPredictorLoaders())
	go processor.Start()

	server := createServer(db, queue, cfg)

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

		processor.Stop()
	}()

	log.Printf("Server listening on port %d", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Could not listen on port %d: %v", cfg.Port, err)
	}

	log.Println("Server stopped.")
}
