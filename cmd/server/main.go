package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	catalogrepo "github.com/zsimmons25/see-more/internal/catalog/repository"
	"github.com/zsimmons25/see-more/internal/db"
	"github.com/zsimmons25/see-more/internal/gateway"
	orderscache "github.com/zsimmons25/see-more/internal/orders/cache"
	ordersrepo "github.com/zsimmons25/see-more/internal/orders/repository"
	orderssvc "github.com/zsimmons25/see-more/internal/orders/service"
	"github.com/zsimmons25/see-more/internal/outbox"
	usersrepo "github.com/zsimmons25/see-more/internal/users/repository"
	userssvc "github.com/zsimmons25/see-more/internal/users/service"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	log.Println("see-more server starting...")

	// Configuration
	httpPort := getEnv("HTTP_PORT", "8080")
	requestTimeout := 30 * time.Second
	shutdownTimeout := 10 * time.Second

	dbHost := getEnv("DB_HOST", "localhost")
	dbPort := getEnv("DB_PORT", "5432")
	dbUser := getEnv("DB_USER", "postgres")
	dbPass := getEnv("DB_PASSWORD", "postgres")
	dbName := getEnv("DB_NAME", "seemore")
	migrationsPath := getEnv("MIGRATIONS_PATH", "./migrations")

	catalogPath := getEnv("CATALOG_DB_PATH", "./catalog.db")
	catalogMigrationsPath := getEnv("CATALOG_MIGRATIONS_PATH", "./internal/catalog/migrations")

	redisAddr := getEnv("REDIS_ADDR", "localhost:6379")
	kafkaBrokers := strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ",")
	jwtSecret := getEnv("JWT_SECRET", "dev-secret-change-me")

	port, err := strconv.Atoi(dbPort)
	if err != nil {
		log.Fatalf("Invalid DB_PORT: %v", err)
	}

	// Postgres
	pg, err := db.Open(&db.Credentials{
		Host:              dbHost,
		Port:              port,
		User:              dbUser,
		Password:          dbPass,
		DBName:            dbName,
		MigrationsDirPath: migrationsPath,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pg.Close()

	if err := db.RunMigrations(pg, migrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	// Catalog (sqlite)
	catalog, err := catalogrepo.NewRepository(catalogPath)
	if err != nil {
		log.Fatalf("Failed to open catalog database: %v", err)
	}
	defer catalog.Close()

	if err := catalog.RunMigrations(catalogMigrationsPath); err != nil {
		log.Fatalf("Failed to run catalog migrations: %v", err)
	}
	log.Println("Catalog migrations completed")

	// Redis
	redisClient := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer redisClient.Close()

	// Services
	orderRepository := ordersrepo.NewRepository(pg)
	orderService := orderssvc.NewOrderService(orderRepository, orderscache.NewRedisCache(redisClient))
	userService := userssvc.NewUserService(usersrepo.NewRepository(pg), []byte(jwtSecret))

	// Outbox poller
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	poller := outbox.NewPoller(orderRepository, kafkaBrokers...)
	defer poller.Close()
	go poller.Run(ctx)
	log.Printf("Outbox poller publishing to %v", kafkaBrokers)

	router := gateway.NewRouter(gateway.RouterConfig{
		Orders:         orderService,
		Users:          userService,
		Catalog:        catalog,
		Verifier:       userService,
		RequestTimeout: requestTimeout,
	})

	srv := &http.Server{
		Addr:         ":" + httpPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("HTTP server starting on :%s", httpPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	<-ctx.Done()

	log.Println("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}
