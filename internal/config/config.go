/**
 * @description
 * This package handles the configuration management for the service. It uses
 * the Viper library to read configuration from environment variables (with an
 * optional .env file), providing a centralized way to manage application
 * settings. Invalid values are coerced back to safe defaults with a warning
 * rather than failing the boot.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

// Default conversion rates, matching the community's long-standing values.
// All of them are mutable at runtime through the rates.set operation.
const (
	DefaultInrToUsdRate      = 95.0
	DefaultUsdToInrLowRate   = 91.0
	DefaultUsdToInrHighRate  = 91.5
	DefaultUsdToInrThreshold = 100.0
)

// Config holds all the configuration variables for the exchange service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort              string  `mapstructure:"SERVER_PORT"`
	DatabaseURL             string  `mapstructure:"DATABASE_URL"`
	RabbitMQURL             string  `mapstructure:"RABBITMQ_URL"`
	SettlementEventExchange string  `mapstructure:"SETTLEMENT_EVENT_EXCHANGE"`
	GatewayJWTSecret        string  `mapstructure:"GATEWAY_JWT_SECRET"`
	InrToUsdRate            float64 `mapstructure:"INR_TO_USD_RATE"`
	UsdToInrLowRate         float64 `mapstructure:"USD_TO_INR_LOW_RATE"`
	UsdToInrHighRate        float64 `mapstructure:"USD_TO_INR_HIGH_RATE"`
	UsdToInrThreshold       float64 `mapstructure:"USD_TO_INR_THRESHOLD"`
	ConfirmWindowSeconds    int     `mapstructure:"SETTLEMENT_CONFIRM_WINDOW_SECONDS"`
	SessionRetentionMinutes int     `mapstructure:"SESSION_RETENTION_MINUTES"`
	SessionSweepSchedule    string  `mapstructure:"SESSION_SWEEP_SCHEDULE"`
	VouchChannelRef         string  `mapstructure:"VOUCH_CHANNEL_REF"`
	InviteURL               string  `mapstructure:"INVITE_URL"`
	FeedbackChannelRef      string  `mapstructure:"FEEDBACK_CHANNEL_REF"`
}

// LoadConfig reads configuration from environment variables from the given path.
// It uses Viper to automatically bind environment variables to the Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SETTLEMENT_EVENT_EXCHANGE", "exchange.events")
	viper.SetDefault("INR_TO_USD_RATE", DefaultInrToUsdRate)
	viper.SetDefault("USD_TO_INR_LOW_RATE", DefaultUsdToInrLowRate)
	viper.SetDefault("USD_TO_INR_HIGH_RATE", DefaultUsdToInrHighRate)
	viper.SetDefault("USD_TO_INR_THRESHOLD", DefaultUsdToInrThreshold)
	viper.SetDefault("SETTLEMENT_CONFIRM_WINDOW_SECONDS", 30)
	viper.SetDefault("SESSION_RETENTION_MINUTES", 60)
	viper.SetDefault("SESSION_SWEEP_SCHEDULE", "*/5 * * * *") // every five minutes
	viper.SetDefault("VOUCH_CHANNEL_REF", "#vouches")
	viper.SetDefault("INVITE_URL", "https://discord.gg/gameclub")
	viper.SetDefault("FEEDBACK_CHANNEL_REF", "#feedback")

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("SETTLEMENT_EVENT_EXCHANGE")
	_ = viper.BindEnv("GATEWAY_JWT_SECRET")
	_ = viper.BindEnv("INR_TO_USD_RATE")
	_ = viper.BindEnv("USD_TO_INR_LOW_RATE")
	_ = viper.BindEnv("USD_TO_INR_HIGH_RATE")
	_ = viper.BindEnv("USD_TO_INR_THRESHOLD")
	_ = viper.BindEnv("SETTLEMENT_CONFIRM_WINDOW_SECONDS")
	_ = viper.BindEnv("SESSION_RETENTION_MINUTES")
	_ = viper.BindEnv("SESSION_SWEEP_SCHEDULE")
	_ = viper.BindEnv("VOUCH_CHANNEL_REF")
	_ = viper.BindEnv("INVITE_URL")
	_ = viper.BindEnv("FEEDBACK_CHANNEL_REF")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
		err = nil
	}

	// Unmarshal the configuration into the Config struct.
	if err = viper.Unmarshal(&config); err != nil {
		return
	}

	// Rates must be strictly positive; fall back to defaults otherwise.
	if config.InrToUsdRate <= 0 {
		log.Printf("level=warn component=config msg=\"non-positive INR_TO_USD_RATE configured; using default\" value=%f", config.InrToUsdRate)
		config.InrToUsdRate = DefaultInrToUsdRate
	}
	if config.UsdToInrLowRate <= 0 {
		log.Printf("level=warn component=config msg=\"non-positive USD_TO_INR_LOW_RATE configured; using default\" value=%f", config.UsdToInrLowRate)
		config.UsdToInrLowRate = DefaultUsdToInrLowRate
	}
	if config.UsdToInrHighRate <= 0 {
		log.Printf("level=warn component=config msg=\"non-positive USD_TO_INR_HIGH_RATE configured; using default\" value=%f", config.UsdToInrHighRate)
		config.UsdToInrHighRate = DefaultUsdToInrHighRate
	}
	if config.UsdToInrThreshold <= 0 {
		log.Printf("level=warn component=config msg=\"non-positive USD_TO_INR_THRESHOLD configured; using default\" value=%f", config.UsdToInrThreshold)
		config.UsdToInrThreshold = DefaultUsdToInrThreshold
	}

	if config.ConfirmWindowSeconds <= 0 {
		log.Printf("level=warn component=config msg=\"non-positive confirm window configured; using default\" seconds=%d", config.ConfirmWindowSeconds)
		config.ConfirmWindowSeconds = 30
	}
	if config.SessionRetentionMinutes <= 0 {
		config.SessionRetentionMinutes = 60
	}
	if strings.TrimSpace(config.SessionSweepSchedule) == "" {
		config.SessionSweepSchedule = "*/5 * * * *"
	}

	config.GatewayJWTSecret = strings.TrimSpace(config.GatewayJWTSecret)
	config.DatabaseURL = strings.TrimSpace(config.DatabaseURL)
	config.RabbitMQURL = strings.TrimSpace(config.RabbitMQURL)

	return
}
