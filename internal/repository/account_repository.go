// Package repository содержит слой доступа к PostgreSQL.
// Каждый репозиторий работает с одной таблицей через database/sql.
package repository

import (
	"database/sql"
	"errors"
	"time"

	"tradeboard/internal/models"
)

// Ошибки репозитория аккаунтов
var (
	ErrAccountNotFound = errors.New("account not found")
)

// AccountRepository - работа с таблицей trading_accounts
type AccountRepository struct {
	db *sql.DB
}

// NewAccountRepository создает новый экземпляр репозитория
func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `id, user_id, name, platform, api_key, secret_key, mt_login, mt_password, mt_server,
		balance, equity, leverage, trading_mode, connection_status, is_api_verified,
		risk_level, max_drawdown, daily_profit_target, last_error, last_sync_at, updated_at, created_at`

// Create создает аккаунт и заполняет ID, CreatedAt и UpdatedAt
func (r *AccountRepository) Create(account *models.TradingAccount) error {
	query := `
		INSERT INTO trading_accounts (user_id, name, platform, api_key, secret_key, mt_login, mt_password, mt_server,
			balance, equity, leverage, trading_mode, connection_status, is_api_verified,
			risk_level, max_drawdown, daily_profit_target, last_error, last_sync_at, updated_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		RETURNING id`

	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now

	err := r.db.QueryRow(
		query,
		account.UserID,
		account.Name,
		account.Platform,
		account.APIKey,
		account.SecretKey,
		account.MTLogin,
		account.MTPassword,
		account.MTServer,
		account.Balance,
		account.Equity,
		account.Leverage,
		account.TradingMode,
		account.ConnectionStatus,
		account.IsAPIVerified,
		account.RiskLevel,
		account.MaxDrawdown,
		account.DailyProfitTgt,
		account.LastError,
		account.LastSyncAt,
		account.UpdatedAt,
		account.CreatedAt,
	).Scan(&account.ID)

	if err != nil {
		return err
	}

	return nil
}

func scanAccount(row interface{ Scan(dest ...any) error }) (*models.TradingAccount, error) {
	account := &models.TradingAccount{}
	err := row.Scan(
		&account.ID,
		&account.UserID,
		&account.Name,
		&account.Platform,
		&account.APIKey,
		&account.SecretKey,
		&account.MTLogin,
		&account.MTPassword,
		&account.MTServer,
		&account.Balance,
		&account.Equity,
		&account.Leverage,
		&account.TradingMode,
		&account.ConnectionStatus,
		&account.IsAPIVerified,
		&account.RiskLevel,
		&account.MaxDrawdown,
		&account.DailyProfitTgt,
		&account.LastError,
		&account.LastSyncAt,
		&account.UpdatedAt,
		&account.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return account, nil
}

// GetByID возвращает аккаунт по ID
func (r *AccountRepository) GetByID(id int) (*models.TradingAccount, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM trading_accounts
		WHERE id = $1`

	account, err := scanAccount(r.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	return account, nil
}

// GetByUserID возвращает все аккаунты пользователя
func (r *AccountRepository) GetByUserID(userID string) ([]*models.TradingAccount, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM trading_accounts
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.TradingAccount
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return accounts, nil
}

// GetAll возвращает все аккаунты
func (r *AccountRepository) GetAll() ([]*models.TradingAccount, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM trading_accounts
		ORDER BY created_at DESC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.TradingAccount
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return accounts, nil
}

// UpdateCredentials обновляет зашифрованные учетные данные
// и сбрасывает флаг верификации до следующей проверки
func (r *AccountRepository) UpdateCredentials(account *models.TradingAccount) error {
	query := `
		UPDATE trading_accounts
		SET api_key = $1, secret_key = $2, mt_login = $3, mt_password = $4, mt_server = $5,
			is_api_verified = false, updated_at = $6
		WHERE id = $7`

	result, err := r.db.Exec(
		query,
		account.APIKey,
		account.SecretKey,
		account.MTLogin,
		account.MTPassword,
		account.MTServer,
		time.Now(),
		account.ID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrAccountNotFound
	}

	return nil
}

// UpdateBalance обновляет баланс, эквити и отметку синхронизации
func (r *AccountRepository) UpdateBalance(id int, balance, equity float64, leverage int, syncedAt time.Time) error {
	query := `
		UPDATE trading_accounts
		SET balance = $1, equity = $2, leverage = $3, last_sync_at = $4, updated_at = $5
		WHERE id = $6`

	result, err := r.db.Exec(query, balance, equity, leverage, syncedAt, time.Now(), id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrAccountNotFound
	}

	return nil
}

// UpdateTradingMode переключает режим торговли
func (r *AccountRepository) UpdateTradingMode(id int, mode string) error {
	query := `
		UPDATE trading_accounts
		SET trading_mode = $1, updated_at = $2
		WHERE id = $3`

	result, err := r.db.Exec(query, mode, time.Now(), id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrAccountNotFound
	}

	return nil
}

// UpdateVerification сохраняет результат проверки подключения.
// lastError пишется пустым при успехе.
func (r *AccountRepository) UpdateVerification(id int, verified, connected bool, lastError string) error {
	query := `
		UPDATE trading_accounts
		SET is_api_verified = $1, connection_status = $2, last_error = $3, updated_at = $4
		WHERE id = $5`

	result, err := r.db.Exec(query, verified, connected, lastError, time.Now(), id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrAccountNotFound
	}

	return nil
}

// UpdateRiskSettings обновляет риск-профиль аккаунта
func (r *AccountRepository) UpdateRiskSettings(id int, riskLevel string, maxDrawdown, dailyProfitTarget float64) error {
	query := `
		UPDATE trading_accounts
		SET risk_level = $1, max_drawdown = $2, daily_profit_target = $3, updated_at = $4
		WHERE id = $5`

	result, err := r.db.Exec(query, riskLevel, maxDrawdown, dailyProfitTarget, time.Now(), id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrAccountNotFound
	}

	return nil
}

// Delete удаляет аккаунт
func (r *AccountRepository) Delete(id int) error {
	query := `DELETE FROM trading_accounts WHERE id = $1`

	result, err := r.db.Exec(query, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrAccountNotFound
	}

	return nil
}

// Count возвращает общее количество аккаунтов
func (r *AccountRepository) Count() (int, error) {
	query := `SELECT COUNT(*) FROM trading_accounts`

	var count int
	err := r.db.QueryRow(query).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}
