package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"urban-threads-api/internal/client"
	"urban-threads-api/internal/config"
	"urban-threads-api/internal/realtime"
	"urban-threads-api/internal/repository"
	"urban-threads-api/internal/server"
	"urban-threads-api/internal/service"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func newLogger(cfg *config.Log) *logrus.Logger {
	log := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	return log
}

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	log := newLogger(&cfg.Log)

	db := client.InitMysqlClient(cfg.DatabaseURL)

	var mailer client.Mailer
	if cfg.SMTP.Host != "" {
		mailer = client.NewSMTPMailer(&cfg.SMTP)
	} else {
		log.Warn("SMTP not configured, email delivery disabled")
	}

	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	cartRepo := repository.NewCartRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	refundRepo := repository.NewRefundRepository(db)
	wishlistRepo := repository.NewWishlistRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	chatRepo := repository.NewChatRepository(db)

	hub := realtime.NewHub(log)

	notificationService := service.NewNotificationService(notificationRepo, userRepo, mailer, log)
	orderService := service.NewOrderService(db, orderRepo, cartRepo, productRepo, log)
	pricingService := service.NewPricingService(productRepo, wishlistRepo, notificationService, log)
	refundService := service.NewRefundService(db, refundRepo, orderRepo, productRepo, notificationRepo, userRepo, mailer, log)
	wishlistService := service.NewWishlistService(wishlistRepo, productRepo)
	chatService := service.NewChatService(db, chatRepo, hub, log)

	hub.AttachChat(chatService)

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	srv := server.NewServer(
		cfg, log, hub,
		orderService,
		pricingService,
		refundService,
		notificationService,
		wishlistService,
		chatService,
		productRepo,
	)

	log.WithField("addr", serverAddr).Info("starting HTTP server")
	go func() {
		if err := srv.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("HTTP server error")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	log.Info("signal received, starting graceful shutdown")

	if err := srv.Shutdown(); err != nil {
		log.WithError(err).Fatal("HTTP server shutdown error")
	}
}
