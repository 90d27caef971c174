package service

import (
	"context"

	"tradeboard/internal/broker"
	"tradeboard/internal/models"
	"tradeboard/pkg/crypto"
	"tradeboard/pkg/utils"
)

// CredentialsInput - новые учетные данные в открытом виде.
// Заполняется либо пара APIKey/SecretKey, либо MT-поля.
type CredentialsInput struct {
	APIKey     string `json:"api_key"`
	SecretKey  string `json:"secret_key"`
	MTLogin    string `json:"mt_login"`
	MTPassword string `json:"mt_password"`
	MTServer   string `json:"mt_server"`
}

// CredentialsResult - результат сохранения учетных данных
type CredentialsResult struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Verified bool   `json:"verified"` // результат последовавшей проверки подключения
}

// CredentialsService шифрует и сохраняет учетные данные аккаунта.
// После сохранения сразу выполняется проверка подключения, её результат
// попадает в is_api_verified.
type CredentialsService struct {
	accountRepo   AccountRepositoryInterface
	logRepo       LogRepositoryInterface
	connections   ConnectionServiceInterface
	encryptionKey []byte
}

// NewCredentialsService создает новый экземпляр сервиса
func NewCredentialsService(
	accountRepo AccountRepositoryInterface,
	logRepo LogRepositoryInterface,
	connections ConnectionServiceInterface,
	encryptionKey string,
) *CredentialsService {
	return &CredentialsService{
		accountRepo:   accountRepo,
		logRepo:       logRepo,
		connections:   connections,
		encryptionKey: []byte(encryptionKey),
	}
}

// SaveCredentials шифрует и сохраняет учетные данные, затем проверяет их.
// Выполняет:
// 1. Валидацию пары (оба поля заполнены)
// 2. Шифрование AES-256-GCM
// 3. Запись в БД со сбросом is_api_verified
// 4. Проверку подключения с новыми данными
func (s *CredentialsService) SaveCredentials(ctx context.Context, accountID int, input CredentialsInput) *CredentialsResult {
	account, err := s.accountRepo.GetByID(accountID)
	if err != nil {
		return &CredentialsResult{Success: false, Message: "account not found"}
	}

	if account.IsMetaTrader() {
		if input.MTLogin == "" || input.MTPassword == "" {
			return &CredentialsResult{Success: false, Message: "mt login and password are required"}
		}

		encryptedPassword, err := crypto.Encrypt(input.MTPassword, s.encryptionKey)
		if err != nil {
			return &CredentialsResult{Success: false, Message: "failed to encrypt credentials"}
		}

		account.MTLogin = input.MTLogin
		account.MTPassword = encryptedPassword
		account.MTServer = input.MTServer
		account.APIKey = ""
		account.SecretKey = ""
	} else {
		if input.APIKey == "" || input.SecretKey == "" {
			return &CredentialsResult{Success: false, Message: "api key and secret are required"}
		}
		if err := utils.ValidateAPIKey(input.APIKey); err != nil {
			return &CredentialsResult{Success: false, Message: err.Error()}
		}

		encryptedAPIKey, err := crypto.Encrypt(input.APIKey, s.encryptionKey)
		if err != nil {
			return &CredentialsResult{Success: false, Message: "failed to encrypt credentials"}
		}

		encryptedSecretKey, err := crypto.Encrypt(input.SecretKey, s.encryptionKey)
		if err != nil {
			return &CredentialsResult{Success: false, Message: "failed to encrypt credentials"}
		}

		account.APIKey = encryptedAPIKey
		account.SecretKey = encryptedSecretKey
		account.MTLogin = ""
		account.MTPassword = ""
		account.MTServer = ""
	}

	if err := s.accountRepo.UpdateCredentials(account); err != nil {
		return &CredentialsResult{Success: false, Message: "failed to save credentials"}
	}

	_ = s.logRepo.Create(&models.TradingLog{
		AccountID: account.ID,
		Type:      models.LogTypeInfo,
		Source:    models.LogSourceCredentials,
		Message:   "credentials updated",
	})

	// Проверяем новые данные; результат проверки сохраняется в аккаунте
	conn := s.connections.TestConnection(ctx, account.ID)

	return &CredentialsResult{
		Success:  true,
		Message:  conn.Message,
		Verified: conn.Success,
	}
}

// gatewayCredentials расшифровывает учетные данные аккаунта
// в структуру для одного вызова gateway-клиента
func gatewayCredentials(account *models.TradingAccount, key []byte) (broker.Credentials, error) {
	creds := broker.Credentials{AccountID: account.ID}

	if account.IsMetaTrader() {
		password, err := crypto.Decrypt(account.MTPassword, key)
		if err != nil {
			return broker.Credentials{}, err
		}
		creds.Login = account.MTLogin
		creds.Password = password
		creds.Server = account.MTServer
		return creds, nil
	}

	apiKey, err := crypto.Decrypt(account.APIKey, key)
	if err != nil {
		return broker.Credentials{}, err
	}
	secretKey, err := crypto.Decrypt(account.SecretKey, key)
	if err != nil {
		return broker.Credentials{}, err
	}

	creds.APIKey = apiKey
	creds.SecretKey = secretKey
	return creds, nil
}
