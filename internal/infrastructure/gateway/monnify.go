package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"restaurantgo/internal/config"

	"github.com/go-redis/redis/v8"
	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	StatusPaid = "PAID"

	EventSuccessfulTransaction = "SUCCESSFUL_TRANSACTION"

	tokenCacheKey = "gateway:monnify:token"
)

// Client is the subset of the gateway API the wallet uses.
type Client interface {
	InitTransaction(ctx context.Context, req InitTransactionRequest) (*InitTransactionResponse, error)
	ChargeCard(ctx context.Context, req CardChargeRequest) (*CardChargeResponse, error)
	InitBankTransfer(ctx context.Context, transactionRef, bankCode string) (*BankTransferResponse, error)
	GetTransaction(ctx context.Context, transactionRef string) (*Transaction, error)
}

// StatusCodeError is a non-2xx HTTP answer from the gateway.
type StatusCodeError struct {
	StatusCode int
	Message    string
}

func (e *StatusCodeError) Error() string {
	return fmt.Sprintf("gateway: http %d: %s", e.StatusCode, e.Message)
}

// APIError is a 2xx answer whose envelope reports requestSuccessful=false.
type APIError struct {
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway: %s: %s", e.Code, e.Message)
}

type envelope struct {
	RequestSuccessful bool            `json:"requestSuccessful"`
	ResponseMessage   string          `json:"responseMessage"`
	ResponseCode      string          `json:"responseCode"`
	ResponseBody      json.RawMessage `json:"responseBody"`
}

type Customer struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type InitTransactionRequest struct {
	Amount             decimal.Decimal `json:"amount"`
	CustomerName       string          `json:"customerName"`
	CustomerEmail      string          `json:"customerEmail"`
	PaymentReference   string          `json:"paymentReference"`
	PaymentDescription string          `json:"paymentDescription"`
	CurrencyCode       string          `json:"currencyCode"`
	ContractCode       string          `json:"contractCode"`
	RedirectURL        string          `json:"redirectUrl,omitempty"`
	PaymentMethods     []string        `json:"paymentMethods,omitempty"`
}

type InitTransactionResponse struct {
	TransactionReference string `json:"transactionReference"`
	PaymentReference     string `json:"paymentReference"`
	MerchantName         string `json:"merchantName"`
	CheckoutURL          string `json:"checkoutUrl"`
}

type Card struct {
	Number      string `json:"number"`
	ExpiryMonth string `json:"expiryMonth"`
	ExpiryYear  string `json:"expiryYear"`
	Pin         string `json:"pin,omitempty"`
	CVV         string `json:"cvv"`
}

type CardChargeRequest struct {
	TransactionReference string `json:"transactionReference"`
	CollectionChannel    string `json:"collectionChannel"`
	Card                 Card   `json:"card"`
}

type CardChargeResponse struct {
	Status               string          `json:"status"`
	Message              string          `json:"message"`
	TransactionReference string          `json:"transactionReference"`
	PaymentReference     string          `json:"paymentReference"`
	AuthorizedAmount     decimal.Decimal `json:"authorizedAmount"`
}

type BankTransferResponse struct {
	AccountNumber string          `json:"accountNumber"`
	AccountName   string          `json:"accountName"`
	BankName      string          `json:"bankName"`
	BankCode      string          `json:"bankCode"`
	USSDPayment   string          `json:"ussdPayment"`
	ExpiresOn     string          `json:"expiresOn"`
	Amount        decimal.Decimal `json:"amount"`
	Fee           decimal.Decimal `json:"fee"`
	TotalPayable  decimal.Decimal `json:"totalPayable"`
}

// Transaction is the gateway's view of one payment, also carried in webhook eventData.
type Transaction struct {
	TransactionReference string          `json:"transactionReference"`
	PaymentReference     string          `json:"paymentReference"`
	AmountPaid           decimal.Decimal `json:"amountPaid"`
	TotalPayable         decimal.Decimal `json:"totalPayable"`
	PaymentStatus        string          `json:"paymentStatus"`
	PaymentMethod        string          `json:"paymentMethod"`
	PaidOn               string          `json:"paidOn"`
	Customer             Customer        `json:"customer"`
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int64  `json:"expiresIn"`
}

// MonnifyClient talks to a Monnify-style API. The bearer token is shared
// across instances through redis until shortly before it expires.
type MonnifyClient struct {
	http *resty.Client
	rdb  *redis.Client
	cfg  config.GatewayConfig
}

func NewMonnifyClient(cfg config.GatewayConfig, rdb *redis.Client) *MonnifyClient {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")

	return &MonnifyClient{http: client, rdb: rdb, cfg: cfg}
}

func (c *MonnifyClient) token(ctx context.Context) (string, error) {
	cached, err := c.rdb.Get(ctx, tokenCacheKey).Result()
	if err == nil && cached != "" {
		return cached, nil
	}
	if err != nil && err != redis.Nil {
		logrus.WithError(err).Warn("gateway token cache read failed")
	}

	var env envelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetBasicAuth(c.cfg.APIKey, c.cfg.SecretKey).
		SetResult(&env).
		SetError(&env).
		Post("/api/v1/auth/login")
	if err != nil {
		return "", fmt.Errorf("gateway: login: %w", err)
	}
	if resp.IsError() {
		return "", &StatusCodeError{StatusCode: resp.StatusCode(), Message: env.ResponseMessage}
	}
	if !env.RequestSuccessful {
		return "", &APIError{Code: env.ResponseCode, Message: env.ResponseMessage}
	}

	var login loginResponse
	if err := json.Unmarshal(env.ResponseBody, &login); err != nil {
		return "", fmt.Errorf("gateway: decode login: %w", err)
	}

	ttl := time.Duration(login.ExpiresIn-60) * time.Second
	if ttl > 0 {
		if err := c.rdb.Set(ctx, tokenCacheKey, login.AccessToken, ttl).Err(); err != nil {
			logrus.WithError(err).Warn("gateway token cache write failed")
		}
	}
	return login.AccessToken, nil
}

func (c *MonnifyClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	var env envelope
	req := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetResult(&env).
		SetError(&env)
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("gateway: %s %s: %w", method, path, err)
	}
	if resp.StatusCode() == http.StatusUnauthorized {
		// stale token: drop it so the next call logs in again
		c.rdb.Del(ctx, tokenCacheKey)
	}
	if resp.IsError() {
		return &StatusCodeError{StatusCode: resp.StatusCode(), Message: env.ResponseMessage}
	}
	if !env.RequestSuccessful {
		return &APIError{Code: env.ResponseCode, Message: env.ResponseMessage}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.ResponseBody, out); err != nil {
		return fmt.Errorf("gateway: decode %s: %w", path, err)
	}
	return nil
}

func (c *MonnifyClient) InitTransaction(ctx context.Context, req InitTransactionRequest) (*InitTransactionResponse, error) {
	if req.ContractCode == "" {
		req.ContractCode = c.cfg.ContractCode
	}
	if req.CurrencyCode == "" {
		req.CurrencyCode = c.cfg.Currency
	}
	if req.RedirectURL == "" {
		req.RedirectURL = c.cfg.RedirectURL
	}

	var out InitTransactionResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/merchant/transactions/init-transaction", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *MonnifyClient) ChargeCard(ctx context.Context, req CardChargeRequest) (*CardChargeResponse, error) {
	if req.CollectionChannel == "" {
		req.CollectionChannel = "API_NOTIFICATION"
	}

	var out CardChargeResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/merchant/cards/charge", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *MonnifyClient) InitBankTransfer(ctx context.Context, transactionRef, bankCode string) (*BankTransferResponse, error) {
	body := map[string]string{
		"transactionReference": transactionRef,
		"bankCode":             bankCode,
	}

	var out BankTransferResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/merchant/bank-transfer/init-payment", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *MonnifyClient) GetTransaction(ctx context.Context, transactionRef string) (*Transaction, error) {
	var out Transaction
	path := "/api/v2/transactions/" + url.PathEscape(transactionRef)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
