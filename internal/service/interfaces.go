// Package service содержит бизнес-логику дашборда: проверку подключений,
// синхронизацию аккаунтов, управление режимом торговли, размещение ордеров,
// риск-анализ и управление ботами.
package service

import (
	"context"
	"time"

	"tradeboard/internal/broker"
	"tradeboard/internal/models"
	"tradeboard/internal/repository"
)

// AccountRepositoryInterface определяет интерфейс репозитория аккаунтов
type AccountRepositoryInterface interface {
	Create(account *models.TradingAccount) error
	GetByID(id int) (*models.TradingAccount, error)
	GetByUserID(userID string) ([]*models.TradingAccount, error)
	GetAll() ([]*models.TradingAccount, error)
	UpdateCredentials(account *models.TradingAccount) error
	UpdateBalance(id int, balance, equity float64, leverage int, syncedAt time.Time) error
	UpdateTradingMode(id int, mode string) error
	UpdateVerification(id int, verified, connected bool, lastError string) error
	UpdateRiskSettings(id int, riskLevel string, maxDrawdown, dailyProfitTarget float64) error
	Delete(id int) error
	Count() (int, error)
}

// BotRepositoryInterface определяет интерфейс репозитория ботов
type BotRepositoryInterface interface {
	Create(bot *models.TradingBot) error
	GetByID(id int) (*models.TradingBot, error)
	GetByAccountID(accountID int) ([]*models.TradingBot, error)
	GetByStatus(status string) ([]*models.TradingBot, error)
	UpdateStatus(id int, status string) error
	UpdateStats(id int, winRate float64, totalTrades int, profitLoss float64) error
	UpdateParams(bot *models.TradingBot) error
	Delete(id int) error
	CountActiveByAccountID(accountID int) (int, error)
}

// TradeRepositoryInterface определяет интерфейс репозитория сделок
type TradeRepositoryInterface interface {
	Create(trade *models.Trade) error
	GetByID(id int) (*models.Trade, error)
	GetByAccountID(accountID, limit int) ([]*models.Trade, error)
	GetOpenByAccountID(accountID int) ([]*models.Trade, error)
	CountOpenByBotID(botID int) (int, error)
	Close(id int, pnl float64, closedAt time.Time) error
	SumClosedPnLSince(accountID int, since time.Time) (float64, error)
}

// LogRepositoryInterface определяет интерфейс журнала аудита
type LogRepositoryInterface interface {
	Create(log *models.TradingLog) error
	GetByAccountID(accountID, limit int) ([]*models.TradingLog, error)
	GetRecent(limit int) ([]*models.TradingLog, error)
}

// BrokerFactory выдает gateway-клиента по тегу платформы
type BrokerFactory interface {
	ClientFor(platform string) (broker.Client, error)
}

// Проверяем, что реальные реализации удовлетворяют интерфейсам
var _ AccountRepositoryInterface = (*repository.AccountRepository)(nil)
var _ BotRepositoryInterface = (*repository.BotRepository)(nil)
var _ TradeRepositoryInterface = (*repository.TradeRepository)(nil)
var _ LogRepositoryInterface = (*repository.LogRepository)(nil)
var _ BrokerFactory = (*broker.Factory)(nil)

// ============ Интерфейсы сервисов для Dependency Injection ============

// AccountServiceInterface определяет интерфейс CRUD над аккаунтами
type AccountServiceInterface interface {
	CreateAccount(ctx context.Context, req CreateAccountRequest) (*models.TradingAccount, error)
	GetAccount(id int) (*models.TradingAccount, error)
	ListAccounts(userID string) ([]*models.TradingAccount, error)
	UpdateRiskSettings(ctx context.Context, id int, riskLevel string, maxDrawdown, dailyProfitTarget float64) error
	DeleteAccount(ctx context.Context, id int) error
	GetTrades(accountID, limit int) ([]*models.Trade, error)
	GetLogs(accountID, limit int) ([]*models.TradingLog, error)
}

// ConnectionServiceInterface определяет интерфейс проверки подключений
type ConnectionServiceInterface interface {
	TestConnection(ctx context.Context, accountID int) *ConnectionResult
	VerifyTradingPermissions(ctx context.Context, accountID int) *PermissionsResult
}

// CredentialsServiceInterface определяет интерфейс управления учетными данными
type CredentialsServiceInterface interface {
	SaveCredentials(ctx context.Context, accountID int, input CredentialsInput) *CredentialsResult
}

// SyncServiceInterface определяет интерфейс синхронизации аккаунтов
type SyncServiceInterface interface {
	SyncAccount(ctx context.Context, accountID int) *SyncResult
}

// TradingServiceInterface определяет интерфейс торговых операций
type TradingServiceInterface interface {
	ChangeTradingMode(ctx context.Context, accountID int, mode string) *ModeChangeResult
	PlaceOrder(ctx context.Context, accountID int, params OrderParams) *OrderResponse
	CloseTrade(ctx context.Context, tradeID int) *OrderResponse
}

// AnalysisServiceInterface определяет интерфейс риск-анализа
type AnalysisServiceInterface interface {
	AnalyzeAccount(ctx context.Context, accountID int) *AnalysisResult
	PerformRealTradingAnalysis(ctx context.Context, accountID int) *AccountAnalysisResult
}

// BotServiceInterface определяет интерфейс управления ботами
type BotServiceInterface interface {
	CreateBot(ctx context.Context, req CreateBotRequest) (*models.TradingBot, []string, error)
	GetBot(id int) (*models.TradingBot, error)
	ListBots(accountID int) ([]*models.TradingBot, error)
	StartBot(ctx context.Context, id int) error
	PauseBot(ctx context.Context, id int) error
	StopBot(ctx context.Context, id int) error
	DeleteBot(ctx context.Context, id int) error
}

// Проверяем, что реальные сервисы реализуют интерфейсы
var _ AccountServiceInterface = (*AccountService)(nil)
var _ ConnectionServiceInterface = (*ConnectionService)(nil)
var _ CredentialsServiceInterface = (*CredentialsService)(nil)
var _ SyncServiceInterface = (*SyncService)(nil)
var _ TradingServiceInterface = (*TradingService)(nil)
var _ AnalysisServiceInterface = (*AnalysisService)(nil)
var _ BotServiceInterface = (*BotService)(nil)
