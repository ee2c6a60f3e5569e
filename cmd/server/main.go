package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/okabakkie/marketplace/internal/adapter/handler"
	"github.com/okabakkie/marketplace/internal/adapter/messaging"
	"github.com/okabakkie/marketplace/internal/adapter/storage"
	"github.com/okabakkie/marketplace/internal/config"
	"github.com/okabakkie/marketplace/internal/core/service"
	"github.com/okabakkie/marketplace/internal/metrics"
	"github.com/okabakkie/marketplace/internal/port"
)

const (
	publisherWorkers = 4
	eventQueueSize   = 1024
)

func main() {
	cfg := config.Load()
	cfg.ConfigureLogging()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize MySQL
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("failed to connect mysql: %v", err)
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping mysql: %v", err)
	}
	log.Info("connected to mysql")

	if err := storage.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("failed to ensure schema: %v", err)
	}

	// Initialize Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		PoolSize: 100,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	log.Info("connected to redis")

	// Initialize adapters
	cache := storage.NewRedisAdapter(rdb)
	vendorRepo := storage.NewMySQLVendorRepository(db)
	reservationRepo := storage.NewMySQLReservationRepository(db)

	var publisher port.EventPublisher = messaging.NopPublisher{}
	var rabbit *messaging.RabbitPublisher
	if cfg.AMQPURL != "" {
		rabbit, err = messaging.NewRabbitPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Warnf("rabbitmq unavailable, events disabled: %v", err)
		} else {
			publisher = rabbit
			log.Info("connected to rabbitmq")
		}
	}

	// Initialize services
	reservationService := service.NewReservationService(vendorRepo, reservationRepo, cache, eventQueueSize)
	vendorService := service.NewVendorService(vendorRepo, cache)
	queryService := service.NewQueryService(vendorRepo, reservationRepo, cache)

	// Start publisher workers
	var wg sync.WaitGroup
	for i := 0; i < publisherWorkers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			publisherLoop(id, reservationService.EventQueue(), publisher)
		}(i)
	}
	log.Infof("started %d publisher workers", publisherWorkers)

	// Initialize HTTP server
	httpHandler := handler.NewHTTPHandler(reservationService, vendorService, queryService, cfg.AdminEmail, cfg.AdminPassword)
	mux := http.NewServeMux()
	httpHandler.Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: metrics.Middleware(mux),
	}

	go func() {
		log.Infof("HTTP server listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Errorf("HTTP server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	log.Info("HTTP server stopped")

	// Close event queue and wait for publisher workers to drain
	reservationService.Close()
	wg.Wait()
	log.Info("publisher workers stopped")

	if rabbit != nil {
		rabbit.Close()
	}
	rdb.Close()
	db.Close()
	log.Info("connections closed")
}

func publisherLoop(id int, queue <-chan port.ReservationEvent, publisher port.EventPublisher) {
	for ev := range queue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)

		if err := publisher.PublishReservationEvent(ctx, ev); err != nil {
			log.Warnf("worker %d: failed to publish %s for reservation %s: %v", id, ev.Type, ev.ReservationID, err)
		}

		cancel()
	}
}
