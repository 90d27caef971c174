// Package integration contains integration tests for the trading dashboard.
//
// These tests verify the correct interaction between components:
// - API integration tests: full HTTP request cycle
// - WebSocket tests: connection, broadcast messaging
// - Database tests: schema, repository round-trips
//
// Database-backed tests skip automatically when no Postgres is reachable.
package integration

import (
	"database/sql"
	"fmt"
	"log"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"

	"tradeboard/internal/api"
	"tradeboard/internal/broker"
	"tradeboard/internal/config"
	"tradeboard/internal/repository"
	"tradeboard/internal/service"
	"tradeboard/internal/websocket"
	"tradeboard/pkg/utils"
)

// testEncryptionKey - 32 байта для AES-256
const testEncryptionKey = "integration-test-key-32-bytes!!!"

// TestConfig contains configuration for integration tests
type TestConfig struct {
	DBDriver   string
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string
}

// TestServer encapsulates all components needed for integration testing
type TestServer struct {
	DB       *sql.DB
	Router   *mux.Router
	Server   *httptest.Server
	Hub      *websocket.Hub
	Repos    *TestRepositories
	Services *TestServices
	Cleanup  func()
}

// TestRepositories contains all repository instances for testing
type TestRepositories struct {
	Account *repository.AccountRepository
	Bot     *repository.BotRepository
	Trade   *repository.TradeRepository
	Log     *repository.LogRepository
}

// TestServices contains all service instances for testing
type TestServices struct {
	Account     *service.AccountService
	Credentials *service.CredentialsService
	Connection  *service.ConnectionService
	Sync        *service.SyncService
	Trading     *service.TradingService
	Analysis    *service.AnalysisService
	Bot         *service.BotService
}

// getTestConfig returns configuration from environment variables or defaults
func getTestConfig() TestConfig {
	return TestConfig{
		DBDriver:   getEnv("TEST_DB_DRIVER", "postgres"),
		DBHost:     getEnv("TEST_DB_HOST", "localhost"),
		DBPort:     getEnv("TEST_DB_PORT", "5432"),
		DBName:     getEnv("TEST_DB_NAME", "tradeboard_test"),
		DBUser:     getEnv("TEST_DB_USER", "postgres"),
		DBPassword: getEnv("TEST_DB_PASSWORD", "postgres"),
		DBSSLMode:  getEnv("TEST_DB_SSLMODE", "disable"),
	}
}

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// appConfig builds application config for tests.
//
// Gateway URLs указывают на закрытый порт: с SimulateOnFailure=true
// проверки подключения и синхронизация проходят в симулированном режиме,
// реальный Broker Gateway для тестов не нужен.
func appConfig() *config.Config {
	return &config.Config{
		Security: config.SecurityConfig{
			EncryptionKey: testEncryptionKey,
		},
		Broker: config.BrokerConfig{
			BinanceBaseURL:    "http://127.0.0.1:1",
			MTBridgeURL:       "http://127.0.0.1:1",
			SimulateOnFailure: true,
			RequestTimeout:    2 * time.Second,
			VerifyTimeout:     1 * time.Second,
			BinanceRateLimit:  100,
			MTBridgeRateLimit: 100,
		},
	}
}

// SetupTestDB creates a test database connection
func SetupTestDB(t *testing.T) (*sql.DB, func()) {
	cfg := getTestConfig()

	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode,
	)

	db, err := sql.Open(cfg.DBDriver, connStr)
	if err != nil {
		t.Skipf("Skipping integration test: cannot connect to database: %v", err)
		return nil, func() {}
	}

	if err := db.Ping(); err != nil {
		t.Skipf("Skipping integration test: cannot ping database: %v", err)
		return nil, func() {}
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	cleanup := func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}

	return db, cleanup
}

// SetupTestServer creates a complete test server with all components
func SetupTestServer(t *testing.T) *TestServer {
	db, dbCleanup := SetupTestDB(t)
	if db == nil {
		return nil
	}

	if err := initTestTables(db); err != nil {
		t.Skipf("Skipping integration test: cannot initialize tables: %v", err)
		return nil
	}

	logger := utils.NopLogger()
	cfg := appConfig()

	hub := websocket.NewHub(logger)
	go hub.Run()

	repos := &TestRepositories{
		Account: repository.NewAccountRepository(db),
		Bot:     repository.NewBotRepository(db),
		Trade:   repository.NewTradeRepository(db),
		Log:     repository.NewLogRepository(db),
	}

	brokers := broker.NewFactory(cfg.Broker)

	connectionSvc := service.NewConnectionService(repos.Account, repos.Log, brokers, cfg)
	syncSvc := service.NewSyncService(repos.Account, repos.Log, connectionSvc, brokers, cfg)
	tradingSvc := service.NewTradingService(repos.Account, repos.Trade, repos.Log, connectionSvc, brokers, cfg, logger)
	syncSvc.SetWebSocketHub(hub)
	tradingSvc.SetWebSocketHub(hub)

	services := &TestServices{
		Account:     service.NewAccountService(repos.Account, repos.Trade, repos.Log, repos.Bot),
		Credentials: service.NewCredentialsService(repos.Account, repos.Log, connectionSvc, cfg.Security.EncryptionKey),
		Connection:  connectionSvc,
		Sync:        syncSvc,
		Trading:     tradingSvc,
		Analysis:    service.NewAnalysisService(repos.Account, repos.Trade, connectionSvc),
		Bot:         service.NewBotService(repos.Bot, repos.Account, repos.Log),
	}

	deps := &api.Dependencies{
		AccountService:     services.Account,
		CredentialsService: services.Credentials,
		ConnectionService:  services.Connection,
		SyncService:        services.Sync,
		TradingService:     services.Trading,
		AnalysisService:    services.Analysis,
		BotService:         services.Bot,
		Hub:                hub,
		Log:                logger,
	}
	router := api.SetupRoutes(deps)

	server := httptest.NewServer(router)

	cleanup := func() {
		server.Close()
		hub.Stop()
		cleanupTestTables(db)
		dbCleanup()
	}

	return &TestServer{
		DB:       db,
		Router:   router,
		Server:   server,
		Hub:      hub,
		Repos:    repos,
		Services: services,
		Cleanup:  cleanup,
	}
}

// initTestTables creates tables for testing
func initTestTables(db *sql.DB) error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS trading_accounts (
			id SERIAL PRIMARY KEY,
			user_id VARCHAR(100) NOT NULL DEFAULT 'local',
			name VARCHAR(100) NOT NULL,
			platform VARCHAR(20) NOT NULL,
			api_key TEXT NOT NULL DEFAULT '',
			secret_key TEXT NOT NULL DEFAULT '',
			mt_login VARCHAR(50) NOT NULL DEFAULT '',
			mt_password TEXT NOT NULL DEFAULT '',
			mt_server VARCHAR(100) NOT NULL DEFAULT '',
			balance DECIMAL(20, 8) NOT NULL DEFAULT 0,
			equity DECIMAL(20, 8) NOT NULL DEFAULT 0,
			leverage INT NOT NULL DEFAULT 1,
			trading_mode VARCHAR(10) NOT NULL DEFAULT 'demo',
			connection_status BOOLEAN NOT NULL DEFAULT false,
			is_api_verified BOOLEAN NOT NULL DEFAULT false,
			risk_level VARCHAR(10) NOT NULL DEFAULT 'medium',
			max_drawdown DECIMAL(10, 4) NOT NULL DEFAULT 0,
			daily_profit_target DECIMAL(10, 4) NOT NULL DEFAULT 0,
			last_error TEXT NOT NULL DEFAULT '',
			last_sync_at TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS trading_bots (
			id SERIAL PRIMARY KEY,
			account_id INT NOT NULL REFERENCES trading_accounts(id) ON DELETE CASCADE,
			name VARCHAR(100) NOT NULL,
			strategy VARCHAR(50) NOT NULL,
			trading_pairs JSONB NOT NULL DEFAULT '[]',
			risk_level VARCHAR(10) NOT NULL DEFAULT 'medium',
			trading_mode VARCHAR(10) NOT NULL DEFAULT 'demo',
			risk_per_trade DECIMAL(10, 4) NOT NULL DEFAULT 0,
			stop_loss DECIMAL(10, 4) NOT NULL DEFAULT 0,
			take_profit DECIMAL(10, 4) NOT NULL DEFAULT 0,
			max_open_trades INT NOT NULL DEFAULT 1,
			status VARCHAR(20) NOT NULL DEFAULT 'stopped',
			win_rate DECIMAL(10, 4) NOT NULL DEFAULT 0,
			total_trades INT NOT NULL DEFAULT 0,
			profit_loss DECIMAL(20, 8) NOT NULL DEFAULT 0,
			updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS trades (
			id SERIAL PRIMARY KEY,
			account_id INT NOT NULL REFERENCES trading_accounts(id) ON DELETE CASCADE,
			bot_id INT REFERENCES trading_bots(id) ON DELETE SET NULL,
			symbol VARCHAR(20) NOT NULL,
			side VARCHAR(10) NOT NULL,
			entry_price DECIMAL(20, 8) NOT NULL,
			lot_size DECIMAL(20, 8) NOT NULL,
			stop_loss DECIMAL(20, 8),
			take_profit DECIMAL(20, 8),
			status VARCHAR(10) NOT NULL DEFAULT 'open',
			pnl DECIMAL(20, 8),
			order_id VARCHAR(100) NOT NULL DEFAULT '',
			closed_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS trading_logs (
			id SERIAL PRIMARY KEY,
			account_id INT NOT NULL REFERENCES trading_accounts(id) ON DELETE CASCADE,
			bot_id INT REFERENCES trading_bots(id) ON DELETE SET NULL,
			type VARCHAR(10) NOT NULL DEFAULT 'info',
			source VARCHAR(20) NOT NULL,
			message TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
	}

	for _, table := range tables {
		if _, err := db.Exec(table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}

// cleanupTestTables truncates all test tables
func cleanupTestTables(db *sql.DB) {
	tables := []string{
		"trading_logs",
		"trades",
		"trading_bots",
		"trading_accounts",
	}

	for _, table := range tables {
		db.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
	}
}
