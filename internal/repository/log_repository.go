package repository

import (
	"database/sql"

	"tradeboard/internal/models"
)

// LogRepository - работа с таблицей trading_logs.
// Таблица append-only, репозиторий не предоставляет Update и Delete.
type LogRepository struct {
	db *sql.DB
}

// NewLogRepository создает новый экземпляр репозитория
func NewLogRepository(db *sql.DB) *LogRepository {
	return &LogRepository{db: db}
}

// Create добавляет запись в журнал
func (r *LogRepository) Create(log *models.TradingLog) error {
	query := `
		INSERT INTO trading_logs (account_id, bot_id, type, source, message, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, created_at`

	err := r.db.QueryRow(
		query,
		log.AccountID,
		log.BotID,
		log.Type,
		log.Source,
		log.Message,
	).Scan(&log.ID, &log.CreatedAt)

	if err != nil {
		return err
	}

	return nil
}

// GetByAccountID возвращает последние записи журнала аккаунта
func (r *LogRepository) GetByAccountID(accountID, limit int) ([]*models.TradingLog, error) {
	query := `
		SELECT id, account_id, bot_id, type, source, message, created_at
		FROM trading_logs
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`

	rows, err := r.db.Query(query, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanLogs(rows)
}

// GetRecent возвращает последние записи журнала по всем аккаунтам
func (r *LogRepository) GetRecent(limit int) ([]*models.TradingLog, error) {
	query := `
		SELECT id, account_id, bot_id, type, source, message, created_at
		FROM trading_logs
		ORDER BY created_at DESC, id DESC
		LIMIT $1`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanLogs(rows)
}

func scanLogs(rows *sql.Rows) ([]*models.TradingLog, error) {
	var logs []*models.TradingLog
	for rows.Next() {
		log := &models.TradingLog{}
		err := rows.Scan(
			&log.ID,
			&log.AccountID,
			&log.BotID,
			&log.Type,
			&log.Source,
			&log.Message,
			&log.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return logs, nil
}
