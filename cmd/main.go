package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/shopspring/decimal"
	"github.com/storefront/order-service/internal/config"
	"github.com/storefront/order-service/internal/domain"
	"github.com/storefront/order-service/internal/handlers"
	"github.com/storefront/order-service/internal/repository"
	"github.com/storefront/order-service/internal/repository/memory"
	"github.com/storefront/order-service/internal/repository/postgres"
	"github.com/storefront/order-service/internal/service"
	"github.com/storefront/order-service/pkg/messaging"
	"github.com/storefront/order-service/pkg/metrics"

	_ "github.com/lib/pq"
)

func main() {
	log.Println("Order Service starting...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	decimal.MarshalJSONWithoutQuotes = true

	store, closeStore, err := initStore(cfg)
	if err != nil {
		log.Fatalf("Storage initialization error: %v", err)
	}
	defer closeStore()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var publisher service.EventPublisher = service.NoopPublisher{}
	var rabbitClient *messaging.RabbitMQClient
	if cfg.EventsEnabled {
		rabbitClient = messaging.NewRabbitMQClient(cfg.RabbitMQ)
		if err := rabbitClient.Connect(); err != nil {
			log.Fatalf("RabbitMQ connection error: %v", err)
		}
		defer rabbitClient.Close()

		publisher = messaging.NewPublisher(rabbitClient, cfg.RabbitMQ.RetryCount)
	} else {
		log.Println("Events disabled, order events will not be published")
	}

	// Dependencies injection
	timeline := service.NewTimelineRecorder(store)
	orderService := service.NewOrderService(store, timeline, publisher, metrics.NewOrderMetrics(registry))
	orderHandler := handlers.NewOrderHandler(orderService)

	router := &handlers.Router{
		Orders:         orderHandler,
		Carts:          handlers.NewCartHandler(service.NewCartService(store)),
		Wishlists:      handlers.NewWishlistHandler(service.NewWishlistService(store)),
		JWTSecret:      cfg.JWTSecret,
		RequestTimeout: cfg.RequestTimeout,
		HTTPMetrics:    metrics.NewHTTPMetrics(registry),
		Gatherer:       registry,
	}

	app := handlers.NewApp(true)
	router.Setup(app)

	if rabbitClient != nil {
		consumer := messaging.NewConsumer(rabbitClient, "order-service-queue", "order-service")
		if err := orderHandler.StartConsuming(consumer); err != nil {
			log.Printf("RabbitMQ consumption error: %v", err)
		}
	}

	// Graceful shutdown setup
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Order Service closing...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	log.Printf("Order Service working: http://localhost:%s", cfg.Port)

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("Server start error: %v", err)
	}
}

func initStore(cfg *config.Config) (repository.Store, func(), error) {
	if cfg.StorageDriver == config.StorageMemory {
		log.Println("Using in-memory storage with a demo catalog")
		return seedDemoCatalog(memory.NewStore()), func() {}, nil
	}

	db, err := initDatabase(cfg.Database)
	if err != nil {
		return nil, nil, err
	}

	store := postgres.NewStore(db)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := store.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}

	return store, func() { db.Close() }, nil
}

func initDatabase(dbCfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", dbCfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("database open error: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Connection test
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping error: %w", err)
	}

	log.Printf("Database connection successful: %s", dbCfg.Name)
	return db, nil
}

func seedDemoCatalog(store *memory.Store) *memory.Store {
	store.AddProduct(domain.Product{ID: 1, Name: "Espresso beans 1kg", Price: decimal.RequireFromString("24.90"), Available: true})
	store.AddProduct(domain.Product{ID: 2, Name: "Ceramic mug", Price: decimal.RequireFromString("9.50"), Available: true})
	store.AddProduct(domain.Product{ID: 3, Name: "Hand grinder", Price: decimal.RequireFromString("59.00"), Available: false})
	store.AddPaymentMethod(domain.PaymentMethod{ID: 1, Name: "Card", Description: "Credit or debit card", Active: true})
	store.AddPaymentMethod(domain.PaymentMethod{ID: 2, Name: "Cash on delivery", Active: true})
	store.AddAddress(domain.Address{ID: 1, UserID: 1, Name: "Demo User", Phone: "0100000000", Line: "1 Demo Street", IsDefault: true})
	return store
}
