package service

import (
	"context"
	"errors"
	"fmt"

	"tradeboard/internal/broker"
	"tradeboard/internal/config"
	"tradeboard/internal/models"
)

// Ошибки сервисов
var (
	ErrAccountNotFound       = errors.New("account not found")
	ErrCredentialsNotSet     = errors.New("credentials are not configured")
	ErrInvalidTradingMode    = errors.New("invalid trading mode")
	ErrInvalidRiskLevel      = errors.New("invalid risk level")
)

// ConnectionResult - результат проверки подключения.
// Никогда не возвращается как error: сбои транспорта и авторизации
// сворачиваются в {Success:false, Message}.
type ConnectionResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Simulated bool   `json:"simulated"` // true, если gateway был недоступен и ответ симулирован
}

// PermissionsResult - результат проверки прав API ключа
type PermissionsResult struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	TradingAllowed bool   `json:"trading_allowed"`
	CanWithdraw    bool   `json:"can_withdraw"`
}

// ConnectionService проверяет, что сохраненные учетные данные
// аутентифицируются на Broker Gateway.
//
// Политика simulate-on-failure: при недоступном gateway проверка
// деградирует до симулированного успеха (настраивается через
// BROKER_SIMULATE_ON_FAILURE), чтобы дашборд оставался рабочим
// при отказе удаленной стороны.
type ConnectionService struct {
	accountRepo   AccountRepositoryInterface
	logRepo       LogRepositoryInterface
	brokers       BrokerFactory
	encryptionKey []byte
	simulate      bool
}

// NewConnectionService создает новый экземпляр сервиса
func NewConnectionService(
	accountRepo AccountRepositoryInterface,
	logRepo LogRepositoryInterface,
	brokers BrokerFactory,
	cfg *config.Config,
) *ConnectionService {
	return &ConnectionService{
		accountRepo:   accountRepo,
		logRepo:       logRepo,
		brokers:       brokers,
		encryptionKey: []byte(cfg.Security.EncryptionKey),
		simulate:      cfg.Broker.SimulateOnFailure,
	}
}

// TestConnection выполняет легкий авторизованный вызов к gateway
// и сохраняет результат в is_api_verified/connection_status аккаунта.
func (s *ConnectionService) TestConnection(ctx context.Context, accountID int) *ConnectionResult {
	account, err := s.accountRepo.GetByID(accountID)
	if err != nil {
		return &ConnectionResult{Success: false, Message: "account not found"}
	}

	if !account.HasCredentials() {
		return &ConnectionResult{Success: false, Message: "credentials are not configured"}
	}

	result := s.probe(ctx, account)

	lastError := ""
	if !result.Success {
		lastError = result.Message
	}
	if err := s.accountRepo.UpdateVerification(account.ID, result.Success, result.Success, lastError); err != nil {
		return &ConnectionResult{Success: false, Message: fmt.Sprintf("failed to persist verification: %v", err)}
	}

	s.audit(account.ID, result)

	return result
}

// probe выполняет собственно проверку без побочных эффектов
func (s *ConnectionService) probe(ctx context.Context, account *models.TradingAccount) *ConnectionResult {
	client, err := s.brokers.ClientFor(account.Platform)
	if err != nil {
		if errors.Is(err, broker.ErrPlatformNotSupported) {
			// Для платформ без gateway-клиента действует та же политика,
			// что и при недоступном gateway
			return s.fallback(account.Platform, "no gateway client for platform")
		}
		return &ConnectionResult{Success: false, Message: err.Error()}
	}

	creds, err := gatewayCredentials(account, s.encryptionKey)
	if err != nil {
		return &ConnectionResult{Success: false, Message: "failed to decrypt credentials"}
	}

	if err := client.Ping(ctx, creds); err != nil {
		switch {
		case errors.Is(err, broker.ErrUnreachable):
			return s.fallback(account.Platform, "gateway unreachable")
		case errors.Is(err, broker.ErrAuthFailed):
			return &ConnectionResult{Success: false, Message: "broker rejected credentials"}
		default:
			return &ConnectionResult{Success: false, Message: err.Error()}
		}
	}

	return &ConnectionResult{Success: true, Message: "connection verified"}
}

// fallback реализует политику simulate-on-failure
func (s *ConnectionService) fallback(platform, reason string) *ConnectionResult {
	if !s.simulate {
		return &ConnectionResult{Success: false, Message: reason}
	}

	broker.SimulatedFallbacksTotal.WithLabelValues("test_connection").Inc()

	return &ConnectionResult{
		Success:   true,
		Simulated: true,
		Message:   fmt.Sprintf("connection check simulated (%s: %s)", platform, reason),
	}
}

// VerifyTradingPermissions читает права API ключа и определяет,
// допустим ли аккаунт к реальной торговле
func (s *ConnectionService) VerifyTradingPermissions(ctx context.Context, accountID int) *PermissionsResult {
	account, err := s.accountRepo.GetByID(accountID)
	if err != nil {
		return &PermissionsResult{Success: false, Message: "account not found"}
	}

	if !account.HasCredentials() {
		return &PermissionsResult{Success: false, Message: "credentials are not configured"}
	}

	client, err := s.brokers.ClientFor(account.Platform)
	if err != nil {
		return &PermissionsResult{Success: false, Message: err.Error()}
	}

	creds, err := gatewayCredentials(account, s.encryptionKey)
	if err != nil {
		return &PermissionsResult{Success: false, Message: "failed to decrypt credentials"}
	}

	perms, err := client.GetPermissions(ctx, creds)
	if err != nil {
		return &PermissionsResult{Success: false, Message: err.Error()}
	}

	result := &PermissionsResult{
		Success:        true,
		TradingAllowed: perms.TradingAllowed(),
		CanWithdraw:    perms.CanWithdraw,
	}
	if result.TradingAllowed {
		result.Message = "trading permissions verified"
	} else {
		result.Message = "api key has no trading permission"
	}

	return result
}

func (s *ConnectionService) audit(accountID int, result *ConnectionResult) {
	logType := models.LogTypeInfo
	if !result.Success {
		logType = models.LogTypeError
	} else if result.Simulated {
		logType = models.LogTypeWarning
	}

	_ = s.logRepo.Create(&models.TradingLog{
		AccountID: accountID,
		Type:      logType,
		Source:    models.LogSourceConnection,
		Message:   result.Message,
	})
}
