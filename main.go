package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vittermi/FastFood/config"
	"github.com/vittermi/FastFood/database"
	"github.com/vittermi/FastFood/events"
	"github.com/vittermi/FastFood/metrics"
	"github.com/vittermi/FastFood/middlewares"
	"github.com/vittermi/FastFood/router"
	"github.com/vittermi/FastFood/services"
	"github.com/vittermi/FastFood/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to load configuration: %v", err)
	}
	utils.InitLogger(cfg.LogLevel)
	utils.InitJWT(cfg.JWTSecret)
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := config.OpenStore(ctx, cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close(context.Background())

	publisher, err := buildPublisher(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to set up event publishers: %v", err)
	}
	defer publisher.Close()

	r, relay := buildApp(cfg, store, publisher)
	relay.Start()
	defer relay.Stop()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.InfoLogger.Printf("Listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.ErrorLogger.Fatal(err)
		}
	}()

	<-ctx.Done()
	utils.InfoLogger.Println("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.ErrorLogger.Printf("Server shutdown: %v", err)
	}
}

// buildApp wires services, the outbox relay and the HTTP router over store.
func buildApp(cfg *config.Config, store database.Store, publisher events.Publisher) (*gin.Engine, *services.OutboxRelay) {
	m := metrics.New()
	catalog := services.NewCachedCatalog(store, cfg.CatalogCacheSize, cfg.CatalogCacheTTL)
	estimator := services.NewPreparationEstimator(store, catalog)

	orderService := services.NewOrderService(store, estimator)
	orderService.Recorder = m
	orderService.Concurrency = cfg.EstimatorConcurrency

	prefService := services.NewPreferenceService(store, services.NewCardTokenizer())

	relay := services.NewOutboxRelay(store, publisher)
	relay.Interval = cfg.OutboxInterval
	relay.BatchSize = cfg.OutboxBatchSize

	r := router.SetupRouter(router.Deps{
		Orders:      orderService,
		Preferences: prefService,
		Metrics:     m,
		RateLimiter: middlewares.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		CORSOrigins: cfg.CORSOrigins,
	})
	return r, relay
}

// buildPublisher registers one publisher per configured events driver.
func buildPublisher(cfg *config.Config) (events.Publisher, error) {
	hub := events.NewHub()
	for _, driver := range cfg.EventsDrivers {
		switch driver {
		case "log":
			hub.Register(driver, events.LogPublisher{})
		case "kafka":
			p, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
			if err != nil {
				hub.Close()
				return nil, err
			}
			hub.Register(driver, p)
		case "rabbitmq":
			p, err := events.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange)
			if err != nil {
				hub.Close()
				return nil, err
			}
			hub.Register(driver, p)
		}
	}
	if hub.Len() == 0 {
		utils.InfoLogger.Println("Event publishing disabled, no publishers configured")
	}
	return hub, nil
}
