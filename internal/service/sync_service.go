package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tradeboard/internal/broker"
	"tradeboard/internal/config"
	"tradeboard/internal/models"
)

// SyncResult - результат синхронизации аккаунта
type SyncResult struct {
	Success            bool    `json:"success"`
	Message            string  `json:"message"`
	RealTradingEnabled bool    `json:"real_trading_enabled"`
	Balance            float64 `json:"balance"`
	Equity             float64 `json:"equity"`
	Simulated          bool    `json:"simulated"` // true при симулированной синхронизации
}

// AccountBroadcaster - интерфейс для отправки обновлений аккаунта через WebSocket
type AccountBroadcaster interface {
	BroadcastAccountUpdate(accountID int, balance, equity float64, syncedAt time.Time)
}

// SyncService синхронизирует локальные записи аккаунтов с живым
// состоянием на стороне брокера.
//
// При недоступном gateway последние сохраненные баланс и equity
// перезаписываются без изменений со свежей отметкой времени
// (симулированная синхронизация), чтобы дашборд всегда показывал
// актуальную дату обновления.
type SyncService struct {
	accountRepo   AccountRepositoryInterface
	logRepo       LogRepositoryInterface
	connections   ConnectionServiceInterface
	brokers       BrokerFactory
	encryptionKey []byte
	simulate      bool

	// WebSocket hub для push-обновлений, устанавливается после инициализации
	wsHub AccountBroadcaster
}

// NewSyncService создает новый экземпляр сервиса
func NewSyncService(
	accountRepo AccountRepositoryInterface,
	logRepo LogRepositoryInterface,
	connections ConnectionServiceInterface,
	brokers BrokerFactory,
	cfg *config.Config,
) *SyncService {
	return &SyncService{
		accountRepo:   accountRepo,
		logRepo:       logRepo,
		connections:   connections,
		brokers:       brokers,
		encryptionKey: []byte(cfg.Security.EncryptionKey),
		simulate:      cfg.Broker.SimulateOnFailure,
	}
}

// SetWebSocketHub устанавливает WebSocket hub для push-обновлений.
// Вызывается из main.go после создания Hub.
func (s *SyncService) SetWebSocketHub(hub AccountBroadcaster) {
	s.wsHub = hub
}

// SyncAccount синхронизирует аккаунт с Broker Gateway.
//
// Выполняет:
// 1. Проверку подключения; при её провале синхронизация прерывается
// 2. Чтение снимка аккаунта (баланс, equity, позиции)
// 3. При недоступном снимке - симулированную синхронизацию
// 4. При успехе - запись новых значений и проверку допуска к реальной торговле
//
// Ошибки транспорта и авторизации сворачиваются в {Success:false, Message},
// наружу error не возвращается.
func (s *SyncService) SyncAccount(ctx context.Context, accountID int) *SyncResult {
	account, err := s.accountRepo.GetByID(accountID)
	if err != nil {
		return &SyncResult{Success: false, Message: "account not found"}
	}

	conn := s.connections.TestConnection(ctx, accountID)
	if !conn.Success {
		broker.AccountSyncsTotal.WithLabelValues("failed").Inc()
		return &SyncResult{Success: false, Message: conn.Message}
	}

	snapshot, err := s.fetchSnapshot(ctx, account)
	if err != nil {
		return s.simulatedSync(account, err)
	}

	syncedAt := snapshot.FetchedAt
	if syncedAt.IsZero() {
		syncedAt = time.Now()
	}

	if err := s.accountRepo.UpdateBalance(account.ID, snapshot.Balance, snapshot.Equity, account.Leverage, syncedAt); err != nil {
		broker.AccountSyncsTotal.WithLabelValues("failed").Inc()
		return &SyncResult{Success: false, Message: fmt.Sprintf("failed to persist balance: %v", err)}
	}

	broker.AccountSyncsTotal.WithLabelValues("success").Inc()

	result := &SyncResult{
		Success: true,
		Message: "account synchronized",
		Balance: snapshot.Balance,
		Equity:  snapshot.Equity,
	}

	// Допуск к реальной торговле определяется правами ключа.
	// Сбой проверки трактуется как отсутствие допуска.
	perms := s.connections.VerifyTradingPermissions(ctx, accountID)
	result.RealTradingEnabled = perms.Success && perms.TradingAllowed

	_ = s.logRepo.Create(&models.TradingLog{
		AccountID: account.ID,
		Type:      models.LogTypeInfo,
		Source:    models.LogSourceSync,
		Message:   fmt.Sprintf("balance synced: %.2f (equity %.2f)", snapshot.Balance, snapshot.Equity),
	})

	if s.wsHub != nil {
		s.wsHub.BroadcastAccountUpdate(account.ID, snapshot.Balance, snapshot.Equity, syncedAt)
	}

	return result
}

func (s *SyncService) fetchSnapshot(ctx context.Context, account *models.TradingAccount) (*broker.AccountSnapshot, error) {
	client, err := s.brokers.ClientFor(account.Platform)
	if err != nil {
		return nil, err
	}

	creds, err := gatewayCredentials(account, s.encryptionKey)
	if err != nil {
		return nil, err
	}

	return client.GetAccountSnapshot(ctx, creds)
}

// simulatedSync перезаписывает последние сохраненные значения
// со свежей отметкой времени
func (s *SyncService) simulatedSync(account *models.TradingAccount, cause error) *SyncResult {
	unreachable := errors.Is(cause, broker.ErrUnreachable) || errors.Is(cause, broker.ErrPlatformNotSupported)
	if !s.simulate || !unreachable {
		broker.AccountSyncsTotal.WithLabelValues("failed").Inc()
		return &SyncResult{Success: false, Message: fmt.Sprintf("failed to fetch account snapshot: %v", cause)}
	}

	syncedAt := time.Now()
	if err := s.accountRepo.UpdateBalance(account.ID, account.Balance, account.Equity, account.Leverage, syncedAt); err != nil {
		broker.AccountSyncsTotal.WithLabelValues("failed").Inc()
		return &SyncResult{Success: false, Message: fmt.Sprintf("failed to persist balance: %v", err)}
	}

	broker.AccountSyncsTotal.WithLabelValues("simulated").Inc()
	broker.SimulatedFallbacksTotal.WithLabelValues("sync_account").Inc()

	_ = s.logRepo.Create(&models.TradingLog{
		AccountID: account.ID,
		Type:      models.LogTypeWarning,
		Source:    models.LogSourceSync,
		Message:   "gateway unreachable, sync simulated from last persisted values",
	})

	if s.wsHub != nil {
		s.wsHub.BroadcastAccountUpdate(account.ID, account.Balance, account.Equity, syncedAt)
	}

	return &SyncResult{
		Success:   true,
		Simulated: true,
		Message:   "gateway unreachable, showing last known balance",
		Balance:   account.Balance,
		Equity:    account.Equity,
	}
}
