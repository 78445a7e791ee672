package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/Deepx7/otp_market_bot/config"
	"github.com/Deepx7/otp_market_bot/db"
	"github.com/Deepx7/otp_market_bot/internal/bot"
	"github.com/Deepx7/otp_market_bot/internal/health"
	"github.com/Deepx7/otp_market_bot/internal/repository"
	"github.com/Deepx7/otp_market_bot/internal/service"
	"github.com/Deepx7/otp_market_bot/utils"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func main() {
	logger := utils.InitLogger()
	cfg, err := config.LoadConfig(".env")
	if err != nil {
		logger.Fatal("Failed to load config: ", err)
	}
	logger.ApplyLevel(cfg.LogLevel)

	database, err := db.ConnectDb(cfg.DB_URL, logger)
	if err != nil {
		logger.Fatal(err)
	}

	if err := db.Migrate(database, true, logger); err != nil {
		logger.Fatal(err)
	}

	telegramBot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		logger.Fatal("Failed to create bot API: ", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo := repository.NewRepository(database, logger)
	notifier := bot.NewNotifier(telegramBot, logger)
	marketService := service.NewService(repo, notifier, &cfg, logger)
	marketService.StartDeliveryWorkers(ctx)

	healthServer := health.NewServer(repo, logger)
	go func() {
		if err := healthServer.Start(cfg.HealthAddr); err != nil {
			logger.Errorf("Health server stopped: %v", err)
		}
	}()

	marketBot := bot.NewBot(telegramBot, marketService, logger, &cfg)
	marketBot.Start()
}
