package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/config"
	"storefront/internal/api"
	"storefront/internal/broker"
	"storefront/internal/redisclient"
	"storefront/internal/repository"
	"storefront/internal/service"
	"storefront/internal/store"
	"storefront/internal/util"
	"storefront/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := util.InitLogger(cfg.Server.Env, cfg.Server.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting storefront",
		zap.String("env", cfg.Server.Env),
		zap.String("store_driver", cfg.Store.Driver))

	if cfg.Observ.TracingEnabled {
		tp, err := util.InitTracer("storefront", cfg.Observ.JaegerEndpoint)
		if err != nil {
			logger.Fatal("Failed to initialize tracer", zap.Error(err))
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(ctx); err != nil {
				logger.Error("Error shutting down tracer", zap.Error(err))
			}
		}()
	}

	ctx := context.Background()

	var redisClient *redisclient.Client
	if cfg.UsesRedis() {
		redisClient, err = redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		logger.Info("Redis connected", zap.String("addr", cfg.Redis.Addr))
	}

	docs, err := openStore(ctx, cfg, redisClient)
	if err != nil {
		logger.Fatal("Failed to open document store", zap.Error(err))
	}
	defer docs.Close()

	productRepo := repository.NewProductRepository(docs, cfg.Store.ProductsCollection)
	cartRepo := repository.NewCartRepository(docs, cfg.Store.CartCollection)
	orderRepo := repository.NewOrderRepository(docs, cfg.Store.OrdersCollection)

	var events service.EventPublisher
	if cfg.Kafka.Enabled {
		producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder)
		defer producer.Close()
		events = broker.NewEventPublisher(producer)
		logger.Info("Kafka producer initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
	}

	productService := service.NewProductService(productRepo)
	orderService := service.NewOrderService(orderRepo)
	cartService := service.NewCartService(cartRepo, productRepo, orderRepo, events)

	if cfg.Catalog.SeedPath != "" {
		catalog, err := service.LoadCatalog(cfg.Catalog.SeedPath)
		if err != nil {
			logger.Fatal("Failed to load catalog", zap.Error(err))
		}
		if _, err := productService.SeedCatalog(ctx, catalog); err != nil {
			logger.Error("Failed to seed catalog", zap.Error(err))
		}
	}

	if err := cartService.Load(ctx); err != nil {
		logger.Error("Failed to load cart", zap.Error(err))
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	var orderWorker *worker.OrderEventWorker
	if cfg.Kafka.Enabled {
		var ledger worker.EventLedger
		if redisClient != nil {
			ledger = redisClient
		}

		consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder, cfg.Kafka.ConsumerGroup)
		orderWorker = worker.NewOrderEventWorker(consumer, ledger)
		go func() {
			if err := orderWorker.Start(workerCtx); err != nil && err != context.Canceled {
				logger.Error("Order event worker error", zap.Error(err))
			}
		}()
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(cartService, productService, orderService)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	if orderWorker != nil {
		if err := orderWorker.Stop(); err != nil {
			logger.Error("Failed to stop order event worker", zap.Error(err))
		}
	}

	logger.Info("Server exited")
}

// openStore builds the document store selected by STORE_DRIVER
func openStore(ctx context.Context, cfg *config.Config, redisClient *redisclient.Client) (store.DocumentStore, error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		pg, err := store.NewPostgresStore(ctx, cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		return pg, nil
	case config.DriverRedis:
		return store.NewRedisStore(redisClient.GetClient(), cfg.Redis.Prefix), nil
	case config.DriverDynamoDB:
		client, err := store.NewDynamoDBClient(ctx, cfg.Dynamo.Region, cfg.Dynamo.Endpoint)
		if err != nil {
			return nil, err
		}
		return store.NewDynamoStore(client, cfg.Dynamo.Table), nil
	default:
		return store.NewMemoryStore(), nil
	}
}
