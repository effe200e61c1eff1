package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/fridgeflow/grocery/internal/adapter/handler"
	"github.com/fridgeflow/grocery/internal/adapter/storage"
	"github.com/fridgeflow/grocery/internal/adapter/storeapi"
	"github.com/fridgeflow/grocery/internal/core/domain"
	"github.com/fridgeflow/grocery/internal/core/service"
	"github.com/fridgeflow/grocery/internal/port"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using environment")
	}

	var (
		httpAddr       = getenv("HTTP_ADDR", ":8080")
		mysqlDSN       = getenv("MYSQL_DSN", "root:root@tcp(localhost:3306)/grocery?parseTime=true")
		redisAddr      = getenv("REDIS_ADDR", "localhost:6379")
		workerCount    = getenvInt("EVENT_WORKERS", 4)
		queueSize      = getenvInt("EVENT_QUEUE_SIZE", 1024)
		gatewayTimeout = getenvDuration("STORE_API_TIMEOUT", 5*time.Second)
		gatewaySeed    = int64(getenvInt("STORE_API_SEED", 1))
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize MySQL
	db, err := sql.Open("mysql", mysqlDSN)
	if err != nil {
		log.Fatalf("failed to connect mysql: %v", err)
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping mysql: %v", err)
	}
	log.Println("connected to mysql")

	// Initialize Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		PoolSize: 100,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	log.Println("connected to redis")

	// Initialize adapters
	mysqlAdapter := storage.NewMySQLAdapter(db)
	redisAdapter := storage.NewRedisAdapter(rdb)
	gateway := storeapi.NewMockGateway(gatewaySeed)

	// Initialize services
	ledgerService := service.NewLedgerService(mysqlAdapter, mysqlAdapter)
	inventoryService := service.NewInventoryService(mysqlAdapter)
	strategy := service.NewPriorityStrategy(mysqlAdapter, mysqlAdapter)
	refresher := service.NewPriceRefresher(gateway, redisAdapter, gatewayTimeout)
	orderService := service.NewOrderService(
		mysqlAdapter,
		strategy,
		service.RestockToThreshold{MinOrderUnit: 1},
		refresher,
		gateway,
		redisAdapter,
		gatewayTimeout,
		queueSize,
	)

	// Start event workers
	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			eventLoop(id, orderService.Events(), redisAdapter)
		}(i)
	}
	log.Printf("started %d event workers", workerCount)

	// Initialize HTTP server
	httpHandler := handler.NewHTTPHandler(ledgerService, orderService, inventoryService)
	mux := http.NewServeMux()
	httpHandler.Register(mux)

	httpServer := &http.Server{
		Addr:    httpAddr,
		Handler: mux,
	}

	go func() {
		log.Printf("HTTP server listening on %s", httpAddr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Printf("HTTP server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	log.Println("HTTP server stopped")

	orderService.Close()
	wg.Wait()
	log.Println("event workers stopped")

	rdb.Close()
	db.Close()
	log.Println("connections closed")
}

func eventLoop(id int, queue <-chan domain.Event, publisher port.EventPublisher) {
	for event := range queue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := publisher.Publish(ctx, event); err != nil {
			log.Printf("worker %d: failed to publish %s for order %s: %v", id, event.Type, event.OrderID, err)
		}
		cancel()
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
