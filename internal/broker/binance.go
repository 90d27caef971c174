package broker

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"tradeboard/internal/models"
	"tradeboard/pkg/ratelimit"
	"tradeboard/pkg/retry"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Коды ошибок Binance, означающие проблему с ключами
const (
	binanceCodeInvalidKey       = -2014 // API-key format invalid
	binanceCodeUnauthorized     = -2015 // Invalid API-key, IP, or permissions
	binanceCodeInvalidSignature = -1022
	binanceCodeOrderNotFound    = -2013
)

// Binance реализует Client поверх Binance Spot REST API.
//
// Авторизованные запросы подписываются HMAC-SHA256 по query string,
// ключ передаётся в заголовке X-MBX-APIKEY.
type Binance struct {
	baseURL    string
	httpClient *http.Client
	limiter    *ratelimit.RateLimiter
	readRetry  retry.Config
}

// NewBinance создаёт клиент Binance.
// rateLimit - req/sec (spot лимит 1200 weight/min, безопасно ~15).
func NewBinance(baseURL string, rateLimit float64) *Binance {
	if baseURL == "" {
		baseURL = "https://api.binance.com"
	}

	cfg := retry.DefaultConfig()
	// Ошибки авторизации повторять бессмысленно
	cfg.RetryIf = func(err error) bool {
		return !errors.Is(err, ErrAuthFailed) && !errors.Is(err, ErrOrderNotFound)
	}

	return &Binance{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: SharedHTTPClient(),
		limiter:    ratelimit.NewRateLimiter(rateLimit, rateLimit*2),
		readRetry:  cfg,
	}
}

// Platform возвращает тег платформы
func (b *Binance) Platform() string {
	return models.PlatformBinance
}

// sign создаёт HMAC-SHA256 подпись query string
func sign(secret, payload string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(payload))
	return hex.EncodeToString(h.Sum(nil))
}

// doRequest выполняет запрос к Binance REST API.
// При signed=true добавляет timestamp и подпись к параметрам.
func (b *Binance) doRequest(ctx context.Context, creds Credentials, method, endpoint string, params url.Values, signed bool) ([]byte, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	if params == nil {
		params = url.Values{}
	}

	encoded := params.Encode()
	if signed {
		params.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
		params.Set("recvWindow", "5000")
		encoded = params.Encode()
		// signature всегда последним параметром, поверх подписанной строки
		encoded += "&signature=" + sign(creds.SecretKey, encoded)
	}

	reqURL := b.baseURL + endpoint
	var body io.Reader
	if method == http.MethodGet || method == http.MethodDelete {
		if encoded != "" {
			reqURL += "?" + encoded
		}
	} else {
		body = strings.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if signed {
		req.Header.Set("X-MBX-APIKEY", creds.APIKey)
	}

	start := time.Now()
	resp, err := b.httpClient.Do(req)
	RequestDuration.WithLabelValues(models.PlatformBinance, endpoint).
		Observe(float64(time.Since(start).Milliseconds()))
	if err != nil {
		RequestsTotal.WithLabelValues(models.PlatformBinance, endpoint, "unreachable").Inc()
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		RequestsTotal.WithLabelValues(models.PlatformBinance, endpoint, "unreachable").Inc()
		return nil, fmt.Errorf("%w: reading response: %v", ErrUnreachable, err)
	}

	if resp.StatusCode >= 400 {
		RequestsTotal.WithLabelValues(models.PlatformBinance, endpoint, "error").Inc()
		return nil, b.parseAPIError(resp.StatusCode, respBody)
	}

	RequestsTotal.WithLabelValues(models.PlatformBinance, endpoint, "ok").Inc()
	return respBody, nil
}

// parseAPIError преобразует {code, msg} ответ Binance в типизированную ошибку
func (b *Binance) parseAPIError(status int, body []byte) error {
	var apiErr struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
	}
	if err := json.Unmarshal(body, &apiErr); err != nil {
		return &GatewayError{
			Platform: models.PlatformBinance,
			Code:     strconv.Itoa(status),
			Message:  string(body),
		}
	}

	gwErr := &GatewayError{
		Platform: models.PlatformBinance,
		Code:     strconv.Itoa(apiErr.Code),
		Message:  apiErr.Msg,
	}

	switch apiErr.Code {
	case binanceCodeInvalidKey, binanceCodeUnauthorized, binanceCodeInvalidSignature:
		gwErr.Original = ErrAuthFailed
	case binanceCodeOrderNotFound:
		gwErr.Original = ErrOrderNotFound
	default:
		if status == http.StatusUnauthorized || status == http.StatusForbidden {
			gwErr.Original = ErrAuthFailed
		}
	}

	return gwErr
}

// binanceAccount - подмножество ответа GET /api/v3/account
type binanceAccount struct {
	CanTrade    bool `json:"canTrade"`
	CanWithdraw bool `json:"canWithdraw"`
	CanDeposit  bool `json:"canDeposit"`
	Balances    []struct {
		Asset  string `json:"asset"`
		Free   string `json:"free"`
		Locked string `json:"locked"`
	} `json:"balances"`
}

// getAccount читает /api/v3/account с retry для read-only вызова
func (b *Binance) getAccount(ctx context.Context, creds Credentials) (*binanceAccount, error) {
	var account binanceAccount

	err := retry.Do(ctx, func() error {
		body, err := b.doRequest(ctx, creds, http.MethodGet, "/api/v3/account", nil, true)
		if err != nil {
			return err
		}
		return json.Unmarshal(body, &account)
	}, b.readRetry)

	if err != nil {
		return nil, err
	}
	return &account, nil
}

// Ping проверяет credentials лёгким авторизованным вызовом
func (b *Binance) Ping(ctx context.Context, creds Credentials) error {
	_, err := b.doRequest(ctx, creds, http.MethodGet, "/api/v3/account", nil, true)
	return err
}

// GetAccountSnapshot возвращает баланс/equity аккаунта в USDT.
// Для spot аккаунта equity равен балансу: плавающего PnL нет.
func (b *Binance) GetAccountSnapshot(ctx context.Context, creds Credentials) (*AccountSnapshot, error) {
	account, err := b.getAccount(ctx, creds)
	if err != nil {
		return nil, err
	}

	var free, locked float64
	for _, bal := range account.Balances {
		if bal.Asset != "USDT" {
			continue
		}
		free, _ = strconv.ParseFloat(bal.Free, 64)
		locked, _ = strconv.ParseFloat(bal.Locked, 64)
	}

	balance := free + locked
	return &AccountSnapshot{
		Balance:   balance,
		Equity:    balance,
		FetchedAt: time.Now().UTC(),
	}, nil
}

// GetPermissions читает права API ключа из ответа аккаунта
func (b *Binance) GetPermissions(ctx context.Context, creds Credentials) (*Permissions, error) {
	account, err := b.getAccount(ctx, creds)
	if err != nil {
		return nil, err
	}

	return &Permissions{
		CanRead:     true, // ответ получен, значит чтение доступно
		CanTrade:    account.CanTrade,
		CanWithdraw: account.CanWithdraw,
	}, nil
}

// GetPrice возвращает последнюю цену символа (неавторизованный вызов)
func (b *Binance) GetPrice(ctx context.Context, creds Credentials, symbol string) (float64, error) {
	var price float64

	err := retry.Do(ctx, func() error {
		params := url.Values{}
		params.Set("symbol", symbol)
		body, err := b.doRequest(ctx, creds, http.MethodGet, "/api/v3/ticker/price", params, false)
		if err != nil {
			return err
		}

		var ticker struct {
			Symbol string `json:"symbol"`
			Price  string `json:"price"`
		}
		if err := json.Unmarshal(body, &ticker); err != nil {
			return err
		}

		price, err = strconv.ParseFloat(ticker.Price, 64)
		return err
	}, b.readRetry)

	return price, err
}

// binanceOrder - подмножество ответа на размещение/чтение ордера
type binanceOrder struct {
	OrderID         int64  `json:"orderId"`
	Symbol          string `json:"symbol"`
	Side            string `json:"side"`
	Status          string `json:"status"`
	ExecutedQty     string `json:"executedQty"`
	CummulativeQuote string `json:"cummulativeQuoteQty"`
	TransactTime    int64  `json:"transactTime"`
	Time            int64  `json:"time"`
}

func (o *binanceOrder) toResult() *OrderResult {
	qty, _ := strconv.ParseFloat(o.ExecutedQty, 64)
	quote, _ := strconv.ParseFloat(o.CummulativeQuote, 64)

	avgPrice := 0.0
	if qty > 0 {
		avgPrice = quote / qty
	}

	ts := o.TransactTime
	if ts == 0 {
		ts = o.Time
	}

	return &OrderResult{
		OrderID:   strconv.FormatInt(o.OrderID, 10),
		Symbol:    o.Symbol,
		Side:      strings.ToLower(o.Side),
		Quantity:  qty,
		AvgPrice:  avgPrice,
		Status:    strings.ToLower(o.Status),
		CreatedAt: time.UnixMilli(ts),
	}
}

// PlaceOrder размещает рыночный ордер. Вызов не повторяется:
// повтор после таймаута может продублировать сделку.
func (b *Binance) PlaceOrder(ctx context.Context, creds Credentials, req OrderRequest) (*OrderResult, error) {
	params := url.Values{}
	params.Set("symbol", req.Symbol)
	params.Set("side", strings.ToUpper(req.Side))
	params.Set("type", "MARKET")
	params.Set("quantity", strconv.FormatFloat(req.Quantity, 'f', -1, 64))

	body, err := b.doRequest(ctx, creds, http.MethodPost, "/api/v3/order", params, true)
	if err != nil {
		return nil, err
	}

	var order binanceOrder
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, fmt.Errorf("decoding order response: %w", err)
	}

	return order.toResult(), nil
}

// GetOrder читает ордер по id - verification read-back после размещения
func (b *Binance) GetOrder(ctx context.Context, creds Credentials, symbol, orderID string) (*OrderResult, error) {
	var order binanceOrder

	err := retry.Do(ctx, func() error {
		params := url.Values{}
		params.Set("symbol", symbol)
		params.Set("orderId", orderID)
		body, err := b.doRequest(ctx, creds, http.MethodGet, "/api/v3/order", params, true)
		if err != nil {
			return err
		}
		return json.Unmarshal(body, &order)
	}, b.readRetry)

	if err != nil {
		return nil, err
	}
	return order.toResult(), nil
}

// MirrorTradingMode для Binance - no-op: у spot API нет понятия
// режима demo/real, разделение идёт на уровне testnet endpoint.
func (b *Binance) MirrorTradingMode(ctx context.Context, creds Credentials, mode string) error {
	return nil
}
