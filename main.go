package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"kd-resto/config"
	"kd-resto/logger"
	"kd-resto/notifications"
	"kd-resto/providers"
	"kd-resto/realtime"
	"kd-resto/repositories"
	"kd-resto/routes"
	"kd-resto/seeders"
	"kd-resto/services"
	"kd-resto/storage"
)

func main() {
	bootLog := logger.New("info")

	cfg, err := config.Load(bootLog)
	if err != nil {
		bootLog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	gin.SetMode(cfg.GinMode)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// connect db
	db, err := config.ConnectDatabase(cfg.DB, log)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	store := repositories.NewStore(db)

	if cfg.Seed {
		if err := seeders.Seed(ctx, store, log); err != nil {
			return err
		}
	}

	// realtime fan-out
	hub := realtime.NewHub(32)
	publisher := realtime.Fanout{hub}
	network := realtime.Fanout{}
	if cfg.Realtime.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Realtime.RedisAddr})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			log.Warn("redis unreachable, events will be retried per publish", "addr", cfg.Realtime.RedisAddr, "error", err)
		}
		network = append(network, realtime.NewRedisPublisher(client, "resto:"))
		log.Info("redis publisher enabled", "addr", cfg.Realtime.RedisAddr)
	}
	if len(cfg.Realtime.KafkaBrokers) > 0 {
		producer, err := realtime.NewKafkaProducer(cfg.Realtime.KafkaBrokers)
		if err != nil {
			return err
		}
		kafka := realtime.NewKafkaPublisher(producer, cfg.Realtime.KafkaTopic, log)
		defer kafka.Close()
		network = append(network, kafka)
		log.Info("kafka publisher enabled", "brokers", cfg.Realtime.KafkaBrokers, "topic", cfg.Realtime.KafkaTopic)
	}
	if len(network) > 0 {
		// brokers are fed from a bounded queue so request handlers never wait on them
		async := realtime.NewAsync(network, 1024, 10*time.Second, log)
		defer async.Close()
		publisher = append(publisher, async)
	}

	receipts, err := storage.NewReceiptStore(cfg.ReceiptDir)
	if err != nil {
		return err
	}

	encoder := providers.PNGEncoder{Size: 256}
	registry := providers.NewRegistry(
		providers.NewGCash(cfg.Payment.GCashSecret, cfg.Payment.BaseURL, encoder),
		providers.NewPayMaya(cfg.Payment.PayMayaSecret, cfg.Payment.BaseURL, encoder),
	)

	var sender notifications.Sender
	var paymentOpts []services.PaymentOption
	if cfg.WhatsApp.Token != "" {
		whatsapp := notifications.NewWhatsApp(cfg.WhatsApp.Token)
		sender = whatsapp
		paymentOpts = append(paymentOpts, services.WithPaymentAlerts(whatsapp, cfg.WhatsApp.AdminPhone))
	}

	inventory := services.NewInventoryService(store)
	loyalty := services.NewLoyaltyService(store, cfg.Loyalty)
	cleanup := services.NewCleanupService(store, cfg.Jobs.OrderRetention, log)
	monitor := services.NewLowStockMonitor(inventory, publisher, sender, cfg.WhatsApp.AdminPhone, log)

	router := routes.NewRouter(routes.Deps{
		Auth:        services.NewAuthService(store, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		Orders:      services.NewOrderService(store, inventory, publisher, log),
		Payments:    services.NewPaymentService(store, registry, loyalty, publisher, log, paymentOpts...),
		Receipts:    services.NewReceiptService(store, receipts, publisher, log),
		Loyalty:     loyalty,
		Inventory:   inventory,
		Hub:         hub,
		JWTSecret:   cfg.Auth.JWTSecret,
		CORSOrigins: cfg.CORSOrigins,
		Log:         log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv.RegisterOnShutdown(hub.Close)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return cleanup.Run(gctx, cfg.Jobs.CleanupInterval)
	})
	g.Go(func() error {
		return monitor.Run(gctx, cfg.Jobs.LowStockInterval)
	})

	return g.Wait()
}
