package broker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"

	"tradeboard/pkg/ratelimit"
	"tradeboard/pkg/retry"
)

// Действия RPC протокола моста MetaTrader
const (
	mtActionVerifyAccount  = "verify_account"
	mtActionGetAccountInfo = "get_account_info"
	mtActionGetPrice       = "get_price"
	mtActionPlaceOrder     = "place_order"
	mtActionGetOrder       = "get_order"
	mtActionSetTradingMode = "set_trading_mode"
)

// MTBridge реализует Client поверх RPC-моста MetaTrader 4/5.
//
// Мост принимает POST с JSON телом {action, accountId, login, password,
// server, data} и отвечает конвертом {success, message, code, data}.
type MTBridge struct {
	platform   string // mt4 или mt5
	baseURL    string
	httpClient *http.Client
	limiter    *ratelimit.RateLimiter
	readRetry  retry.Config
}

// NewMTBridge создаёт клиент моста для mt4/mt5
func NewMTBridge(platform, baseURL string, rateLimit float64) *MTBridge {
	cfg := retry.DefaultConfig()
	cfg.RetryIf = func(err error) bool {
		return !errors.Is(err, ErrAuthFailed) && !errors.Is(err, ErrOrderNotFound)
	}

	return &MTBridge{
		platform:   platform,
		baseURL:    baseURL,
		httpClient: SharedHTTPClient(),
		limiter:    ratelimit.NewRateLimiter(rateLimit, rateLimit*2),
		readRetry:  cfg,
	}
}

// Platform возвращает тег платформы (mt4/mt5)
func (m *MTBridge) Platform() string {
	return m.platform
}

// mtRequest - тело RPC запроса к мосту
type mtRequest struct {
	Action    string      `json:"action"`
	AccountID int         `json:"accountId"`
	Login     string      `json:"login"`
	Password  string      `json:"password"`
	Server    string      `json:"server"`
	Data      interface{} `json:"data,omitempty"`
}

// call выполняет один RPC вызов моста
func (m *MTBridge) call(ctx context.Context, creds Credentials, action string, data interface{}) (jsoniter.RawMessage, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqBody, err := json.Marshal(mtRequest{
		Action:    action,
		AccountID: creds.AccountID,
		Login:     creds.Login,
		Password:  creds.Password,
		Server:    creds.Server,
		Data:      data,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := m.httpClient.Do(req)
	RequestDuration.WithLabelValues(m.platform, action).
		Observe(float64(time.Since(start).Milliseconds()))
	if err != nil {
		RequestsTotal.WithLabelValues(m.platform, action, "unreachable").Inc()
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		RequestsTotal.WithLabelValues(m.platform, action, "unreachable").Inc()
		return nil, fmt.Errorf("%w: reading response: %v", ErrUnreachable, err)
	}

	var envelope struct {
		Success bool                `json:"success"`
		Message string              `json:"message"`
		Code    string              `json:"code"`
		Data    jsoniter.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		RequestsTotal.WithLabelValues(m.platform, action, "error").Inc()
		return nil, fmt.Errorf("decoding bridge response: %w", err)
	}

	if !envelope.Success {
		RequestsTotal.WithLabelValues(m.platform, action, "error").Inc()
		gwErr := &GatewayError{
			Platform: m.platform,
			Code:     envelope.Code,
			Message:  envelope.Message,
		}
		switch envelope.Code {
		case "invalid_credentials":
			gwErr.Original = ErrAuthFailed
		case "order_not_found":
			gwErr.Original = ErrOrderNotFound
		}
		return nil, gwErr
	}

	RequestsTotal.WithLabelValues(m.platform, action, "ok").Inc()
	return envelope.Data, nil
}

// Ping проверяет логин/пароль/сервер через verify_account
func (m *MTBridge) Ping(ctx context.Context, creds Credentials) error {
	_, err := m.call(ctx, creds, mtActionVerifyAccount, nil)
	return err
}

// mtAccountInfo - данные get_account_info
type mtAccountInfo struct {
	Balance   float64 `json:"balance"`
	Equity    float64 `json:"equity"`
	Positions []struct {
		Symbol string  `json:"symbol"`
		Side   string  `json:"side"`
		Lots   float64 `json:"lots"`
		Entry  float64 `json:"entry"`
		PnL    float64 `json:"pnl"`
	} `json:"positions"`
	TradeAllowed bool `json:"trade_allowed"`
}

func (m *MTBridge) accountInfo(ctx context.Context, creds Credentials) (*mtAccountInfo, error) {
	var info mtAccountInfo

	err := retry.Do(ctx, func() error {
		data, err := m.call(ctx, creds, mtActionGetAccountInfo, nil)
		if err != nil {
			return err
		}
		return json.Unmarshal(data, &info)
	}, m.readRetry)

	if err != nil {
		return nil, err
	}
	return &info, nil
}

// GetAccountSnapshot читает баланс/equity/позиции терминала
func (m *MTBridge) GetAccountSnapshot(ctx context.Context, creds Credentials) (*AccountSnapshot, error) {
	info, err := m.accountInfo(ctx, creds)
	if err != nil {
		return nil, err
	}

	snapshot := &AccountSnapshot{
		Balance:   info.Balance,
		Equity:    info.Equity,
		FetchedAt: time.Now().UTC(),
	}
	for _, pos := range info.Positions {
		snapshot.Positions = append(snapshot.Positions, PositionInfo{
			Symbol: pos.Symbol,
			Side:   pos.Side,
			Size:   pos.Lots,
			Entry:  pos.Entry,
			PnL:    pos.PnL,
		})
	}

	return snapshot, nil
}

// GetPermissions выводит права из флага trade_allowed терминала
func (m *MTBridge) GetPermissions(ctx context.Context, creds Credentials) (*Permissions, error) {
	info, err := m.accountInfo(ctx, creds)
	if err != nil {
		return nil, err
	}

	return &Permissions{
		CanRead:  true,
		CanTrade: info.TradeAllowed,
	}, nil
}

// GetPrice возвращает mid-цену символа (среднее bid/ask)
func (m *MTBridge) GetPrice(ctx context.Context, creds Credentials, symbol string) (float64, error) {
	var quote struct {
		Bid float64 `json:"bid"`
		Ask float64 `json:"ask"`
	}

	err := retry.Do(ctx, func() error {
		data, err := m.call(ctx, creds, mtActionGetPrice, map[string]string{"symbol": symbol})
		if err != nil {
			return err
		}
		return json.Unmarshal(data, &quote)
	}, m.readRetry)

	if err != nil {
		return 0, err
	}
	return (quote.Bid + quote.Ask) / 2, nil
}

// mtOrder - данные place_order / get_order
type mtOrder struct {
	Ticket   int64   `json:"ticket"`
	Symbol   string  `json:"symbol"`
	Side     string  `json:"side"`
	Lots     float64 `json:"lots"`
	Price    float64 `json:"price"`
	Status   string  `json:"status"`
	OpenedAt int64   `json:"opened_at"`
}

func (o *mtOrder) toResult() *OrderResult {
	return &OrderResult{
		OrderID:   strconv.FormatInt(o.Ticket, 10),
		Symbol:    o.Symbol,
		Side:      o.Side,
		Quantity:  o.Lots,
		AvgPrice:  o.Price,
		Status:    o.Status,
		CreatedAt: time.Unix(o.OpenedAt, 0),
	}
}

// PlaceOrder размещает рыночный ордер через мост. Не повторяется.
func (m *MTBridge) PlaceOrder(ctx context.Context, creds Credentials, req OrderRequest) (*OrderResult, error) {
	data, err := m.call(ctx, creds, mtActionPlaceOrder, map[string]interface{}{
		"symbol":      req.Symbol,
		"side":        req.Side,
		"lots":        req.Quantity,
		"stop_loss":   req.StopLoss,
		"take_profit": req.TakeProfit,
	})
	if err != nil {
		return nil, err
	}

	var order mtOrder
	if err := json.Unmarshal(data, &order); err != nil {
		return nil, fmt.Errorf("decoding order response: %w", err)
	}

	return order.toResult(), nil
}

// GetOrder читает ордер по ticket - verification read-back
func (m *MTBridge) GetOrder(ctx context.Context, creds Credentials, symbol, orderID string) (*OrderResult, error) {
	var order mtOrder

	err := retry.Do(ctx, func() error {
		data, err := m.call(ctx, creds, mtActionGetOrder, map[string]string{
			"symbol": symbol,
			"ticket": orderID,
		})
		if err != nil {
			return err
		}
		return json.Unmarshal(data, &order)
	}, m.readRetry)

	if err != nil {
		return nil, err
	}
	return order.toResult(), nil
}

// MirrorTradingMode зеркалирует режим торговли на терминал.
// Best-effort at-most-once: вызывающий код логирует и глотает ошибку.
func (m *MTBridge) MirrorTradingMode(ctx context.Context, creds Credentials, mode string) error {
	_, err := m.call(ctx, creds, mtActionSetTradingMode, map[string]string{"mode": mode})
	return err
}
