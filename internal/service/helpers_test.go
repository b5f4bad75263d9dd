package service

import (
	"context"
	"sync"
	"testing"

	"restaurantgo/internal/config"
	"restaurantgo/internal/infrastructure/gateway"
	"restaurantgo/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func testConfig() *config.Config {
	return &config.Config{
		Kafka: config.KafkaConfig{Topic: config.KafkaTopicConfig{
			OrderCreated:    "order.created",
			WalletEvent:     "wallet.event",
			FundingCredited: "funding.credited",
		}},
		Gateway: config.GatewayConfig{
			Name:       "monnify",
			SecretKey:  "whsec",
			WebhookIPs: []string{"35.242.133.146"},
			FeePercent: 1.5,
			FeeCap:     2000,
			Currency:   "NGN",
		},
		Mail: config.MailConfig{OperatorEmail: "ops@example.com"},
		Business: config.BusinessConfig{
			IntentTimeoutMinutes: 30,
			MaxRetryCount:        3,
		},
	}
}

func requireAmount(t *testing.T, want int64, got decimal.Decimal) {
	t.Helper()
	require.True(t, got.Equal(decimal.NewFromInt(want)), "want %d, got %s", want, got)
}

func balanceOf(t *testing.T, db *gorm.DB, userID int64) decimal.Decimal {
	t.Helper()
	var u model.User
	require.NoError(t, db.First(&u, userID).Error)
	return u.WalletBalance
}

func countRows(t *testing.T, db *gorm.DB, m interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	q := db.Model(m)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

type sentMail struct {
	Subject   string
	Message   string
	Recipient string
}

// fakeMailer records messages; fail makes every send return an error.
type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	fail error
	done chan struct{}
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{done: make(chan struct{}, 16)}
}

func (m *fakeMailer) Send(_ context.Context, subject, message, recipient string) error {
	m.mu.Lock()
	m.sent = append(m.sent, sentMail{Subject: subject, Message: message, Recipient: recipient})
	m.mu.Unlock()
	m.done <- struct{}{}
	return m.fail
}

func (m *fakeMailer) Sent() []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMail(nil), m.sent...)
}

// fakeGateway serves canned transactions keyed by transaction reference.
type fakeGateway struct {
	mu           sync.Mutex
	transactions map[string]*gateway.Transaction
	lookups      int
	lookupErr    error
	initReq      *gateway.InitTransactionRequest
	cardReq      *gateway.CardChargeRequest
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{transactions: make(map[string]*gateway.Transaction)}
}

func (g *fakeGateway) InitTransaction(_ context.Context, req gateway.InitTransactionRequest) (*gateway.InitTransactionResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.initReq = &req
	return &gateway.InitTransactionResponse{
		TransactionReference: "MNFY|" + req.PaymentReference,
		PaymentReference:     req.PaymentReference,
		CheckoutURL:          "https://checkout.example.com/" + req.PaymentReference,
	}, nil
}

func (g *fakeGateway) ChargeCard(_ context.Context, req gateway.CardChargeRequest) (*gateway.CardChargeResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cardReq = &req
	return &gateway.CardChargeResponse{Status: "SUCCESS", TransactionReference: req.TransactionReference}, nil
}

func (g *fakeGateway) InitBankTransfer(_ context.Context, transactionRef, bankCode string) (*gateway.BankTransferResponse, error) {
	return &gateway.BankTransferResponse{AccountNumber: "0123456789", BankCode: bankCode, BankName: "Test Bank"}, nil
}

func (g *fakeGateway) GetTransaction(_ context.Context, ref string) (*gateway.Transaction, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lookups++
	if g.lookupErr != nil {
		return nil, g.lookupErr
	}
	tx, ok := g.transactions[ref]
	if !ok {
		return &gateway.Transaction{TransactionReference: ref, PaymentStatus: "PENDING"}, nil
	}
	return tx, nil
}

func (g *fakeGateway) put(tx *gateway.Transaction) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.transactions[tx.TransactionReference] = tx
}
