package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config содержит всю конфигурацию приложения
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Security SecurityConfig
	Broker   BrokerConfig
	Logging  LoggingConfig
}

// ServerConfig - настройки HTTP сервера
type ServerConfig struct {
	Port     int
	Host     string
	UseHTTPS bool
	CertFile string
	KeyFile  string
}

// DatabaseConfig - настройки подключения к Postgres
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string
}

// SecurityConfig - настройки безопасности
type SecurityConfig struct {
	// EncryptionKey - 32 байта для AES-256, шифрование credentials в БД
	EncryptionKey string
	// DashboardTokenHash - bcrypt хеш API токена дашборда.
	// Пустое значение отключает auth (локальное развертывание).
	DashboardTokenHash string
}

// BrokerConfig - настройки вызовов Broker Gateway
type BrokerConfig struct {
	BinanceBaseURL string
	MTBridgeURL    string

	// SimulateOnFailure - политика "симулировать успех" при недоступном
	// gateway (offline-режим UI). Выключение заставляет проверку
	// соединения и синхронизацию падать громко.
	SimulateOnFailure bool

	RequestTimeout time.Duration
	VerifyTimeout  time.Duration // таймаут read-back проверки ордера

	// Rate limits, req/sec
	BinanceRateLimit float64
	MTBridgeRateLimit float64
}

// LoggingConfig - настройки логирования
type LoggingConfig struct {
	Level  string
	Format string
}

// Load загружает конфигурацию из .env (если есть) и переменных окружения
func Load() (*Config, error) {
	// .env опционален: в контейнере конфигурация приходит из окружения
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:     getEnvAsInt("SERVER_PORT", 8080),
			Host:     getEnv("SERVER_HOST", "0.0.0.0"),
			UseHTTPS: getEnvAsBool("USE_HTTPS", false),
			CertFile: getEnv("CERT_FILE", ""),
			KeyFile:  getEnv("KEY_FILE", ""),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "postgres"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			Name:     getEnv("DB_NAME", "tradeboard"),
			User:     getEnv("DB_USER", "tradeboard"),
			Password: getEnv("DB_PASSWORD", ""),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Security: SecurityConfig{
			EncryptionKey:      getEnv("ENCRYPTION_KEY", ""),
			DashboardTokenHash: getEnv("DASHBOARD_TOKEN_HASH", ""),
		},
		Broker: BrokerConfig{
			BinanceBaseURL:    getEnv("BINANCE_BASE_URL", "https://api.binance.com"),
			MTBridgeURL:       getEnv("MT_BRIDGE_URL", "http://localhost:5555"),
			SimulateOnFailure: getEnvAsBool("BROKER_SIMULATE_ON_FAILURE", true),
			RequestTimeout:    getEnvAsDuration("BROKER_REQUEST_TIMEOUT", 10*time.Second),
			VerifyTimeout:     getEnvAsDuration("ORDER_VERIFY_TIMEOUT", 5*time.Second),
			BinanceRateLimit:  getEnvAsFloat("BINANCE_RATE_LIMIT", 15),
			MTBridgeRateLimit: getEnvAsFloat("MT_BRIDGE_RATE_LIMIT", 50),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate проверяет критичные параметры
func (c *Config) validate() error {
	// ENCRYPTION_KEY обязателен: без него нельзя хранить credentials
	if c.Security.EncryptionKey == "" {
		return fmt.Errorf("ENCRYPTION_KEY is required for encrypting account credentials")
	}
	if len(c.Security.EncryptionKey) != 32 {
		return fmt.Errorf("ENCRYPTION_KEY must be exactly 32 bytes for AES-256")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("DB_PORT must be between 1 and 65535, got %d", c.Database.Port)
	}

	if c.Broker.RequestTimeout <= 0 {
		return fmt.Errorf("BROKER_REQUEST_TIMEOUT must be positive, got %v", c.Broker.RequestTimeout)
	}
	if c.Broker.VerifyTimeout <= 0 {
		return fmt.Errorf("ORDER_VERIFY_TIMEOUT must be positive, got %v", c.Broker.VerifyTimeout)
	}

	if c.Server.UseHTTPS && (c.Server.CertFile == "" || c.Server.KeyFile == "") {
		return fmt.Errorf("CERT_FILE and KEY_FILE are required when USE_HTTPS is enabled")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
