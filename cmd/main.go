package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/velezd/cart-service/internal/balance"
	c "github.com/velezd/cart-service/internal/cache"
	h "github.com/velezd/cart-service/internal/http"
	"github.com/velezd/cart-service/internal/identity"
	"github.com/velezd/cart-service/internal/publisher"
	"github.com/velezd/cart-service/internal/repository"
	s "github.com/velezd/cart-service/internal/service"
)

type Config struct {
	HTTPPort          string
	StorageBackend    string
	MongoURI          string
	MongoDBName       string
	RedisAddr         string
	RedisPassword     string
	KafkaBrokers      string
	KafkaTopic        string
	BalanceServiceURL string
	RequestTimeout    time.Duration
	ShutdownTimeout   time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:          getEnv("HTTP_PORT", "8080"),
		StorageBackend:    getEnv("STORAGE_BACKEND", "mongo"),
		MongoURI:          getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:       getEnv("MONGO_DB_NAME", "cartdb"),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		KafkaBrokers:      getEnv("KAFKA_BROKERS", ""),
		KafkaTopic:        getEnv("KAFKA_TOPIC", "cart.transactions"),
		BalanceServiceURL: getEnv("BALANCE_SERVICE_URL", "http://localhost:8081"),
		RequestTimeout:    30 * time.Second,
		ShutdownTimeout:   10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	cfg := loadConfig()
	ctx := context.Background()

	var (
		cartRepo        repository.CartRepository
		itemRepo        repository.ItemRepository
		transactionRepo repository.TransactionRepository
		ratingRepo      repository.RatingRepository
		cartCache       c.CartCache
	)

	switch cfg.StorageBackend {
	case "mongo":
		mongoDB, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		defer mongoDB.Client().Disconnect(ctx)
		log.Printf("Connected to MongoDB at %s", cfg.MongoURI)

		cartRepo = repository.NewMongoCartRepository(mongoDB)
		itemRepo = repository.NewMongoItemRepository(mongoDB)
		transactionRepo = repository.NewMongoTransactionRepository(mongoDB)
		ratingRepo = repository.NewMongoRatingRepository(mongoDB)

		type indexed interface {
			CreateIndexes(ctx context.Context) error
		}
		for _, repo := range []interface{}{cartRepo, ratingRepo} {
			if ix, ok := repo.(indexed); ok {
				if err := ix.CreateIndexes(ctx); err != nil {
					log.Printf("Failed to create indexes: %v", err)
				}
			}
		}

		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal("Redis connection failed:", err)
		}
		log.Printf("Redis ping succeeded")
		cartCache = c.NewRedisCache(redisClient)

	case "memory":
		log.Printf("Using in-memory storage backend")
		cartRepo = repository.NewMemoryCartRepository()
		itemRepo = repository.NewMemoryItemRepository()
		transactionRepo = repository.NewMemoryTransactionRepository()
		ratingRepo = repository.NewMemoryRatingRepository()
		cartCache = c.Noop{}

	default:
		log.Fatalf("Unknown storage backend: %s", cfg.StorageBackend)
	}

	var notifier publisher.Notifier = publisher.Noop{}
	if cfg.KafkaBrokers != "" {
		kafkaNotifier := publisher.NewKafkaNotifier(cfg.KafkaTopic, strings.Split(cfg.KafkaBrokers, ",")...)
		defer kafkaNotifier.Close()
		notifier = kafkaNotifier
		log.Printf("Kafka notifier enabled (brokers: %s, topic: %s)", cfg.KafkaBrokers, cfg.KafkaTopic)
	}

	balanceClient := balance.NewHTTPClient(cfg.BalanceServiceURL, 5*time.Second)

	cartService := s.NewCartService(cartRepo, itemRepo, cartCache)
	checkoutService := s.NewCheckoutService(cartService, itemRepo, transactionRepo, balanceClient, notifier)
	ratingService := s.NewRatingService(itemRepo, transactionRepo, ratingRepo)

	cartHandler := h.NewCartHandler(cartService, cfg.RequestTimeout)
	checkoutHandler := h.NewCheckoutHandler(checkoutService, cfg.RequestTimeout)
	itemHandler := h.NewItemHandler(itemRepo, cfg.RequestTimeout)
	ratingHandler := h.NewRatingHandler(ratingService, cfg.RequestTimeout)

	verifier := identity.StaticVerifier{}

	// Setup router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(h.RequestIDMiddleware)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(h.AuthMiddleware(verifier))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{item_id}", cartHandler.SetQuantity)
			r.Delete("/items/{item_id}", cartHandler.RemoveItem)
		})

		r.Post("/checkout", checkoutHandler.Checkout)

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", checkoutHandler.ListTransactions)
			r.Get("/{id}", checkoutHandler.GetTransaction)
			r.Put("/{id}/status", checkoutHandler.UpdateStatus)
		})

		r.Route("/items", func(r chi.Router) {
			r.Get("/", itemHandler.ListItems)
			r.Post("/", itemHandler.CreateItem)
			r.Get("/{id}", itemHandler.GetItem)
			r.Get("/{id}/ratings", ratingHandler.ListRatings)
			r.Post("/{id}/ratings", ratingHandler.RateItem)
			r.Delete("/{id}/ratings", ratingHandler.DeleteRating)
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(r, "cart-service"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Cart service starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}
