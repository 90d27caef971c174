package repository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"tradeboard/internal/models"
)

// Ошибки репозитория ботов
var (
	ErrBotNotFound = errors.New("bot not found")
)

// BotRepository - работа с таблицей trading_bots
type BotRepository struct {
	db *sql.DB
}

// NewBotRepository создает новый экземпляр репозитория
func NewBotRepository(db *sql.DB) *BotRepository {
	return &BotRepository{db: db}
}

// Create создает запись о боте. Список торговых пар хранится как JSON.
func (r *BotRepository) Create(bot *models.TradingBot) error {
	query := `
		INSERT INTO trading_bots (account_id, name, strategy, trading_pairs, risk_level, trading_mode,
			risk_per_trade, stop_loss, take_profit, max_open_trades, status,
			win_rate, total_trades, profit_loss, updated_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id`

	pairsJSON, err := json.Marshal(bot.TradingPairs)
	if err != nil {
		return err
	}

	now := time.Now()
	bot.CreatedAt = now
	bot.UpdatedAt = now

	err = r.db.QueryRow(
		query,
		bot.AccountID,
		bot.Name,
		bot.Strategy,
		pairsJSON,
		bot.RiskLevel,
		bot.TradingMode,
		bot.RiskPerTrade,
		bot.StopLoss,
		bot.TakeProfit,
		bot.MaxOpenTrades,
		bot.Status,
		bot.WinRate,
		bot.TotalTrades,
		bot.ProfitLoss,
		bot.UpdatedAt,
		bot.CreatedAt,
	).Scan(&bot.ID)

	if err != nil {
		return err
	}

	return nil
}

func scanBot(row interface{ Scan(dest ...any) error }) (*models.TradingBot, error) {
	bot := &models.TradingBot{}
	var pairsJSON []byte

	err := row.Scan(
		&bot.ID,
		&bot.AccountID,
		&bot.Name,
		&bot.Strategy,
		&pairsJSON,
		&bot.RiskLevel,
		&bot.TradingMode,
		&bot.RiskPerTrade,
		&bot.StopLoss,
		&bot.TakeProfit,
		&bot.MaxOpenTrades,
		&bot.Status,
		&bot.WinRate,
		&bot.TotalTrades,
		&bot.ProfitLoss,
		&bot.UpdatedAt,
		&bot.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(pairsJSON) > 0 {
		if err := json.Unmarshal(pairsJSON, &bot.TradingPairs); err != nil {
			return nil, err
		}
	}

	return bot, nil
}

// GetByID возвращает бота по ID
func (r *BotRepository) GetByID(id int) (*models.TradingBot, error) {
	query := `
		SELECT id, account_id, name, strategy, trading_pairs, risk_level, trading_mode,
			risk_per_trade, stop_loss, take_profit, max_open_trades, status,
			win_rate, total_trades, profit_loss, updated_at, created_at
		FROM trading_bots
		WHERE id = $1`

	bot, err := scanBot(r.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBotNotFound
		}
		return nil, err
	}

	return bot, nil
}

// GetByAccountID возвращает всех ботов аккаунта
func (r *BotRepository) GetByAccountID(accountID int) ([]*models.TradingBot, error) {
	query := `
		SELECT id, account_id, name, strategy, trading_pairs, risk_level, trading_mode,
			risk_per_trade, stop_loss, take_profit, max_open_trades, status,
			win_rate, total_trades, profit_loss, updated_at, created_at
		FROM trading_bots
		WHERE account_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(query, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bots []*models.TradingBot
	for rows.Next() {
		bot, err := scanBot(rows)
		if err != nil {
			return nil, err
		}
		bots = append(bots, bot)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return bots, nil
}

// GetByStatus возвращает ботов с определенным статусом
func (r *BotRepository) GetByStatus(status string) ([]*models.TradingBot, error) {
	query := `
		SELECT id, account_id, name, strategy, trading_pairs, risk_level, trading_mode,
			risk_per_trade, stop_loss, take_profit, max_open_trades, status,
			win_rate, total_trades, profit_loss, updated_at, created_at
		FROM trading_bots
		WHERE status = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(query, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bots []*models.TradingBot
	for rows.Next() {
		bot, err := scanBot(rows)
		if err != nil {
			return nil, err
		}
		bots = append(bots, bot)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return bots, nil
}

// UpdateStatus обновляет статус бота
func (r *BotRepository) UpdateStatus(id int, status string) error {
	query := `
		UPDATE trading_bots
		SET status = $1, updated_at = $2
		WHERE id = $3`

	result, err := r.db.Exec(query, status, time.Now(), id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrBotNotFound
	}

	return nil
}

// UpdateStats обновляет накопленную статистику бота
func (r *BotRepository) UpdateStats(id int, winRate float64, totalTrades int, profitLoss float64) error {
	query := `
		UPDATE trading_bots
		SET win_rate = $1, total_trades = $2, profit_loss = $3, updated_at = $4
		WHERE id = $5`

	result, err := r.db.Exec(query, winRate, totalTrades, profitLoss, time.Now(), id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrBotNotFound
	}

	return nil
}

// UpdateParams обновляет риск-параметры и список пар
func (r *BotRepository) UpdateParams(bot *models.TradingBot) error {
	query := `
		UPDATE trading_bots
		SET trading_pairs = $1, risk_level = $2, risk_per_trade = $3, stop_loss = $4,
			take_profit = $5, max_open_trades = $6, updated_at = $7
		WHERE id = $8`

	pairsJSON, err := json.Marshal(bot.TradingPairs)
	if err != nil {
		return err
	}

	result, err := r.db.Exec(
		query,
		pairsJSON,
		bot.RiskLevel,
		bot.RiskPerTrade,
		bot.StopLoss,
		bot.TakeProfit,
		bot.MaxOpenTrades,
		time.Now(),
		bot.ID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrBotNotFound
	}

	return nil
}

// Delete удаляет бота
func (r *BotRepository) Delete(id int) error {
	query := `DELETE FROM trading_bots WHERE id = $1`

	result, err := r.db.Exec(query, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrBotNotFound
	}

	return nil
}

// CountActiveByAccountID возвращает количество активных ботов аккаунта
func (r *BotRepository) CountActiveByAccountID(accountID int) (int, error) {
	query := `SELECT COUNT(*) FROM trading_bots WHERE account_id = $1 AND status = $2`

	var count int
	err := r.db.QueryRow(query, accountID, models.BotStatusActive).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}
