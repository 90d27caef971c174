package repository

import (
	"database/sql"
	"errors"
	"time"

	"tradeboard/internal/models"
)

// Ошибки репозитория сделок
var (
	ErrTradeNotFound = errors.New("trade not found")
)

// TradeRepository - работа с таблицей trades
type TradeRepository struct {
	db *sql.DB
}

// NewTradeRepository создает новый экземпляр репозитория
func NewTradeRepository(db *sql.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

// Create создает запись о сделке
func (r *TradeRepository) Create(trade *models.Trade) error {
	query := `
		INSERT INTO trades (account_id, bot_id, symbol, side, entry_price, lot_size,
			stop_loss, take_profit, status, pnl, order_id, closed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`

	trade.CreatedAt = time.Now()

	err := r.db.QueryRow(
		query,
		trade.AccountID,
		trade.BotID,
		trade.Symbol,
		trade.Side,
		trade.EntryPrice,
		trade.LotSize,
		trade.StopLoss,
		trade.TakeProfit,
		trade.Status,
		trade.PnL,
		trade.OrderID,
		trade.ClosedAt,
		trade.CreatedAt,
	).Scan(&trade.ID)

	if err != nil {
		return err
	}

	return nil
}

func scanTrade(row interface{ Scan(dest ...any) error }) (*models.Trade, error) {
	trade := &models.Trade{}
	err := row.Scan(
		&trade.ID,
		&trade.AccountID,
		&trade.BotID,
		&trade.Symbol,
		&trade.Side,
		&trade.EntryPrice,
		&trade.LotSize,
		&trade.StopLoss,
		&trade.TakeProfit,
		&trade.Status,
		&trade.PnL,
		&trade.OrderID,
		&trade.ClosedAt,
		&trade.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return trade, nil
}

// GetByID возвращает сделку по ID
func (r *TradeRepository) GetByID(id int) (*models.Trade, error) {
	query := `
		SELECT id, account_id, bot_id, symbol, side, entry_price, lot_size,
			stop_loss, take_profit, status, pnl, order_id, closed_at, created_at
		FROM trades
		WHERE id = $1`

	trade, err := scanTrade(r.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTradeNotFound
		}
		return nil, err
	}

	return trade, nil
}

// GetByAccountID возвращает последние сделки аккаунта
func (r *TradeRepository) GetByAccountID(accountID, limit int) ([]*models.Trade, error) {
	query := `
		SELECT id, account_id, bot_id, symbol, side, entry_price, lot_size,
			stop_loss, take_profit, status, pnl, order_id, closed_at, created_at
		FROM trades
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.Query(query, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []*models.Trade
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		trades = append(trades, trade)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return trades, nil
}

// GetOpenByAccountID возвращает открытые сделки аккаунта
func (r *TradeRepository) GetOpenByAccountID(accountID int) ([]*models.Trade, error) {
	query := `
		SELECT id, account_id, bot_id, symbol, side, entry_price, lot_size,
			stop_loss, take_profit, status, pnl, order_id, closed_at, created_at
		FROM trades
		WHERE account_id = $1 AND status = $2
		ORDER BY created_at DESC`

	rows, err := r.db.Query(query, accountID, models.TradeStatusOpen)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []*models.Trade
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		trades = append(trades, trade)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return trades, nil
}

// CountOpenByBotID возвращает количество открытых сделок бота
func (r *TradeRepository) CountOpenByBotID(botID int) (int, error) {
	query := `SELECT COUNT(*) FROM trades WHERE bot_id = $1 AND status = $2`

	var count int
	err := r.db.QueryRow(query, botID, models.TradeStatusOpen).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Close закрывает сделку, фиксируя результат
func (r *TradeRepository) Close(id int, pnl float64, closedAt time.Time) error {
	query := `
		UPDATE trades
		SET status = $1, pnl = $2, closed_at = $3
		WHERE id = $4 AND status = $5`

	result, err := r.db.Exec(query, models.TradeStatusClosed, pnl, closedAt, id, models.TradeStatusOpen)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrTradeNotFound
	}

	return nil
}

// SumClosedPnLSince возвращает суммарный P&L закрытых сделок аккаунта
// начиная с указанного момента. NULL при отсутствии сделок трактуется как 0.
func (r *TradeRepository) SumClosedPnLSince(accountID int, since time.Time) (float64, error) {
	query := `
		SELECT COALESCE(SUM(pnl), 0)
		FROM trades
		WHERE account_id = $1 AND status = $2 AND closed_at >= $3`

	var total float64
	err := r.db.QueryRow(query, accountID, models.TradeStatusClosed, since).Scan(&total)
	if err != nil {
		return 0, err
	}

	return total, nil
}
