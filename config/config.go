package config

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	TelegramBotToken string `mapstructure:"BOT_TOKEN"`
	OwnerID          int64  `mapstructure:"OWNER_ID"`
	AdminIDs         string `mapstructure:"ADMIN_IDS"`
	DB_URL           string `mapstructure:"DB_URL"`

	MinDeposit       float64 `mapstructure:"MIN_DEPOSIT"`
	TelegramOTPPrice float64 `mapstructure:"TELEGRAM_OTP_PRICE"`
	WhatsappOTPPrice float64 `mapstructure:"WHATSAPP_OTP_PRICE"`
	SessionPrice     float64 `mapstructure:"SESSION_PRICE"`

	DeliveryDelayMinSec int     `mapstructure:"DELIVERY_DELAY_MIN_SEC"`
	DeliveryDelayMaxSec int     `mapstructure:"DELIVERY_DELAY_MAX_SEC"`
	DeliverySuccessRate float64 `mapstructure:"DELIVERY_SUCCESS_RATE"`
	DeliveryWorkers     int     `mapstructure:"DELIVERY_WORKERS"`
	DeliveryQueueSize   int     `mapstructure:"DELIVERY_QUEUE_SIZE"`

	HealthAddr string `mapstructure:"HEALTH_ADDR"`
	LogLevel   string `mapstructure:"LOG_LEVEL"`
}

func LoadConfig(path string) (config Config, err error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return config, fmt.Errorf("failed to resolve config path: %w", err)
	}

	viper.AddConfigPath(filepath.Dir(absPath))
	viper.SetConfigName(filepath.Base(absPath))
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	viper.SetDefault("MIN_DEPOSIT", 50.0)
	viper.SetDefault("TELEGRAM_OTP_PRICE", 10.0)
	viper.SetDefault("WHATSAPP_OTP_PRICE", 15.0)
	viper.SetDefault("SESSION_PRICE", 25.0)
	viper.SetDefault("DELIVERY_DELAY_MIN_SEC", 5)
	viper.SetDefault("DELIVERY_DELAY_MAX_SEC", 15)
	viper.SetDefault("DELIVERY_SUCCESS_RATE", 0.9)
	viper.SetDefault("DELIVERY_WORKERS", 8)
	viper.SetDefault("DELIVERY_QUEUE_SIZE", 256)
	viper.SetDefault("HEALTH_ADDR", ":8080")
	viper.SetDefault("LOG_LEVEL", "debug")

	if err := viper.ReadInConfig(); err != nil {
		return config, fmt.Errorf("failed to read config: %w", err)
	}

	if err := viper.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return config, nil
}

// AdminIDList parses the comma-separated ADMIN_IDS value.
func (c *Config) AdminIDList() []int64 {
	if strings.TrimSpace(c.AdminIDs) == "" {
		return nil
	}

	var ids []int64
	for _, part := range strings.Split(c.AdminIDs, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
