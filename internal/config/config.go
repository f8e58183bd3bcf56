/**
 * @description
 * This file handles the configuration management for the USSD gateway.
 * It uses the Viper library to read settings from environment variables or a
 * .env file.
 *
 * @dependencies
 * - github.com/spf13/viper: For configuration management.
 */
package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config stores all configuration for the application.
type Config struct {
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	RedisURL    string `mapstructure:"REDIS_URL"`
	RabbitMQURL string `mapstructure:"RABBITMQ_URL"`
	ServerPort  string `mapstructure:"SERVER_PORT"`

	SafeHavenBaseURL      string `mapstructure:"SAFEHAVEN_BASE_URL"`
	SafeHavenAccessToken  string `mapstructure:"SAFEHAVEN_ACCESS_TOKEN"`
	SafeHavenClientID     string `mapstructure:"SAFEHAVEN_CLIENT_ID"`
	SettlementBankCode    string `mapstructure:"SETTLEMENT_BANK_CODE"`
	SettlementAccount     string `mapstructure:"SETTLEMENT_ACCOUNT_NUMBER"`

	SessionTimeoutSeconds int    `mapstructure:"SESSION_TIMEOUT_SECONDS"`
	LockTTLSeconds        int    `mapstructure:"LOCK_TTL_SECONDS"`
	SweeperSchedule       string `mapstructure:"SWEEPER_SCHEDULE"`

	TransferMinAmount int64  `mapstructure:"TRANSFER_MIN_AMOUNT"`
	TransferMaxAmount int64  `mapstructure:"TRANSFER_MAX_AMOUNT"`
	AirtimeMinAmount  int64  `mapstructure:"AIRTIME_MIN_AMOUNT"`
	AirtimeMaxAmount  int64  `mapstructure:"AIRTIME_MAX_AMOUNT"`
	SavingsMinAmount  int64  `mapstructure:"SAVINGS_MIN_AMOUNT"`
	EnrollableRegion  string `mapstructure:"ENROLLABLE_REGION"`
}

// SessionTimeout returns the idle window after which a conversation's scratch
// state is considered stale.
func (c *Config) SessionTimeout() time.Duration {
	return time.Duration(c.SessionTimeoutSeconds) * time.Second
}

// LockTTL returns the per-phone request lock lifetime.
func (c *Config) LockTTL() time.Duration {
	return time.Duration(c.LockTTLSeconds) * time.Second
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SAFEHAVEN_BASE_URL", "https://api.safehavenmfb.com")
	viper.SetDefault("SETTLEMENT_BANK_CODE", "090286")
	viper.SetDefault("SETTLEMENT_ACCOUNT_NUMBER", "0118816902")
	viper.SetDefault("SESSION_TIMEOUT_SECONDS", 300)
	viper.SetDefault("LOCK_TTL_SECONDS", 30)
	viper.SetDefault("SWEEPER_SCHEDULE", "@every 10m")
	viper.SetDefault("TRANSFER_MIN_AMOUNT", 100)
	viper.SetDefault("TRANSFER_MAX_AMOUNT", 1000000)
	viper.SetDefault("AIRTIME_MIN_AMOUNT", 50)
	viper.SetDefault("AIRTIME_MAX_AMOUNT", 50000)
	viper.SetDefault("SAVINGS_MIN_AMOUNT", 1000)
	viper.SetDefault("ENROLLABLE_REGION", "Plateau")

	// Bind envs explicitly so containers pick them up reliably
	for _, key := range []string{
		"DATABASE_URL", "REDIS_URL", "RABBITMQ_URL", "SERVER_PORT",
		"SAFEHAVEN_BASE_URL", "SAFEHAVEN_ACCESS_TOKEN", "SAFEHAVEN_CLIENT_ID",
		"SETTLEMENT_BANK_CODE", "SETTLEMENT_ACCOUNT_NUMBER",
		"SESSION_TIMEOUT_SECONDS", "LOCK_TTL_SECONDS", "SWEEPER_SCHEDULE",
		"TRANSFER_MIN_AMOUNT", "TRANSFER_MAX_AMOUNT",
		"AIRTIME_MIN_AMOUNT", "AIRTIME_MAX_AMOUNT", "SAVINGS_MIN_AMOUNT",
		"ENROLLABLE_REGION",
	} {
		_ = viper.BindEnv(key)
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("Warning: Error reading config file: %s", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
