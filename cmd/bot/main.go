package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"storefront-bot/config"
	"storefront-bot/internal/api"
	"storefront-bot/internal/bot"
	"storefront-bot/internal/broker"
	"storefront-bot/internal/catalog"
	"storefront-bot/internal/promo"
	"storefront-bot/internal/redisclient"
	"storefront-bot/internal/service"
	"storefront-bot/internal/session"
	"storefront-bot/internal/store"
	"storefront-bot/internal/util"
	"storefront-bot/internal/worker"

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

	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}
	logger.Info("Starting storefront bot",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
		zap.String("ledger", cfg.Ledger.Driver))

	tp, err := util.InitTracer("storefront-bot", cfg.Observ.JaegerEndpoint)
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

	shop, err := loadCatalog(cfg.Shop.CatalogPath)
	if err != nil {
		logger.Fatal("Failed to load catalog", zap.Error(err))
	}

	ledger, err := store.Open(cfg.Ledger.Driver, cfg.Ledger.DSN, cfg.Ledger.Dir)
	if err != nil {
		logger.Fatal("Failed to open ledger", zap.Error(err))
	}
	defer ledger.Close()
	logger.Info("Ledger opened", zap.String("driver", cfg.Ledger.Driver))

	checkers := map[string]api.Pinger{}
	if p, ok := ledger.(api.Pinger); ok {
		checkers["ledger"] = p
	}

	var (
		locker service.UserLocker
		dedup  worker.Deduper
	)
	if cfg.Redis.Addr != "" {
		redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		logger.Info("Redis connected", zap.String("addr", cfg.Redis.Addr))

		locker = redisclient.NewUserLocker(redisClient, 10*time.Second)
		dedup = redisClient
		checkers["redis"] = redisClient
	}

	tgAPI, err := bot.NewTelegramAPI(cfg.Telegram.Token)
	if err != nil {
		logger.Fatal("Failed to connect to Telegram", zap.Error(err))
	}
	transport := bot.NewTelegramTransport(tgAPI)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	var (
		producer           broker.Publisher
		notificationWorker *worker.NotificationWorker
	)
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaProducer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder)
		defer kafkaProducer.Close()
		producer = kafkaProducer

		consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder, cfg.Kafka.ConsumerGroup)
		notificationWorker = worker.NewNotificationWorker(consumer, transport, cfg.Telegram.NotifyChatID, dedup)
		logger.Info("Kafka producer initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
	} else {
		notificationWorker = worker.NewNotificationWorker(nil, transport, cfg.Telegram.NotifyChatID, dedup)
		producer = broker.NewInlineProducer(notificationWorker.HandleMessage)
		logger.Info("No Kafka brokers configured, delivering events inline")
	}

	eventPublisher := broker.NewEventPublisher(producer)
	orderService := service.NewOrderService(ledger, locker, eventPublisher)
	adminService := service.NewAdminService(ledger, service.NewAllowList(cfg.Telegram.AdminUserIDs), eventPublisher)

	sessions := session.NewRegistry(shop, promo.NewCarousel(shop.Promos()), cfg.Session.TTL)

	dispatcher := bot.NewDispatcher(
		transport,
		sessions,
		shop,
		orderService,
		adminService,
		bot.Links{
			Shop:      cfg.Shop.ShopURL,
			Support:   cfg.Shop.SupportURL,
			OrderForm: cfg.Shop.OrderFormURL,
		},
		bot.ParseRecipient(cfg.Telegram.BroadcastChannel),
	)
	poller := bot.NewPoller(tgAPI, dispatcher)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := notificationWorker.Start(workerCtx); err != nil && workerCtx.Err() == nil {
			logger.Error("Notification worker error", zap.Error(err))
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		sessions.Run(workerCtx, cfg.Session.SweepInterval)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := poller.Run(workerCtx); err != nil {
			logger.Error("Telegram poller error", zap.Error(err))
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(orderService, adminService, cfg.Server.APIToken, checkers)
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

	logger.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	if err := notificationWorker.Stop(); err != nil {
		logger.Error("Error stopping notification worker", zap.Error(err))
	}
	wg.Wait()

	logger.Info("Bot exited")
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.Load(path)
}
