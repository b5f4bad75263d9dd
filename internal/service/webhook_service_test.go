package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"restaurantgo/internal/infrastructure/gateway"
	"restaurantgo/internal/model"
	"restaurantgo/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

const trustedIP = "35.242.133.146"

type WebhookServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	gw      *fakeGateway
	service *WebhookService
	user    *model.User
}

func TestWebhookServiceSuite(t *testing.T) {
	suite.Run(t, new(WebhookServiceTestSuite))
}

func (s *WebhookServiceTestSuite) SetupTest() {
	mr := miniredis.RunT(s.T())
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s.T().Cleanup(func() { rdb.Close() })

	s.db = testutil.NewTestDB(s.T())
	cfg := testConfig()
	s.gw = newFakeGateway()
	s.service = NewWebhookService(s.db, rdb, cfg, NewLedgerService(s.db, cfg), s.gw)
	s.user, _ = testutil.SeedUser(s.T(), s.db, "ada", 0)
}

func (s *WebhookServiceTestSuite) paid(ref string, amount int64) {
	s.gw.put(&gateway.Transaction{
		TransactionReference: ref,
		PaymentStatus:        gateway.StatusPaid,
		AmountPaid:           decimal.NewFromInt(amount),
		Customer:             gateway.Customer{Email: "ada@example.com", Name: "Ada"},
	})
}

func (s *WebhookServiceTestSuite) body(eventType, ref string) []byte {
	raw, err := json.Marshal(gateway.WebhookEvent{
		EventType: eventType,
		EventData: gateway.Transaction{TransactionReference: ref},
	})
	s.Require().NoError(err)
	return raw
}

func (s *WebhookServiceTestSuite) deliver(body []byte) (WebhookResult, error) {
	return s.service.Handle(context.Background(), body, gateway.ComputeSignature("whsec", body), trustedIP)
}

func (s *WebhookServiceTestSuite) TestCreditsNetOfFee() {
	s.paid("MNFY|1", 10000)

	result, err := s.deliver(s.body(gateway.EventSuccessfulTransaction, "MNFY|1"))
	s.Require().NoError(err)
	s.Equal(WebhookCredited, result)

	requireAmount(s.T(), 9850, balanceOf(s.T(), s.db, s.user.ID))

	var funding model.Funding
	s.Require().NoError(s.db.Where("ref = ?", "MNFY|1").First(&funding).Error)
	requireAmount(s.T(), 9850, funding.Amount)
	requireAmount(s.T(), 150, funding.Fee)
	s.Equal("monnify", funding.Gateway)

	var summary model.WalletSummary
	s.Require().NoError(s.db.Where("user_id = ?", s.user.ID).First(&summary).Error)
	s.Equal(model.SummaryKindCredit, summary.Kind)
	s.Equal("Wallet Funding", summary.Description)

	s.Equal(int64(1), countRows(s.T(), s.db, &model.OutboxMessage{}, "topic = ?", "funding.credited"))
}

func (s *WebhookServiceTestSuite) TestFeeIsCapped() {
	s.paid("MNFY|2", 200000)

	result, err := s.deliver(s.body(gateway.EventSuccessfulTransaction, "MNFY|2"))
	s.Require().NoError(err)
	s.Equal(WebhookCredited, result)
	requireAmount(s.T(), 198000, balanceOf(s.T(), s.db, s.user.ID))
}

func (s *WebhookServiceTestSuite) TestReplayIsDuplicate() {
	s.paid("MNFY|3", 10000)
	body := s.body(gateway.EventSuccessfulTransaction, "MNFY|3")

	result, err := s.deliver(body)
	s.Require().NoError(err)
	s.Equal(WebhookCredited, result)

	result, err = s.deliver(body)
	s.Require().NoError(err)
	s.Equal(WebhookDuplicate, result)

	requireAmount(s.T(), 9850, balanceOf(s.T(), s.db, s.user.ID))
	s.Equal(int64(1), countRows(s.T(), s.db, &model.Funding{}, ""))
	s.Equal(int64(1), countRows(s.T(), s.db, &model.WalletSummary{}, ""))
}

func (s *WebhookServiceTestSuite) TestRejectsUnauthenticated() {
	s.paid("MNFY|4", 10000)
	body := s.body(gateway.EventSuccessfulTransaction, "MNFY|4")
	ctx := context.Background()

	_, err := s.service.Handle(ctx, body, gateway.ComputeSignature("wrong", body), trustedIP)
	s.ErrorIs(err, ErrForbidden)

	_, err = s.service.Handle(ctx, body, "", trustedIP)
	s.ErrorIs(err, ErrForbidden)

	_, err = s.service.Handle(ctx, body, gateway.ComputeSignature("whsec", body), "10.0.0.1")
	s.ErrorIs(err, ErrForbidden)

	s.Zero(s.gw.lookups)
	requireAmount(s.T(), 0, balanceOf(s.T(), s.db, s.user.ID))
}

func (s *WebhookServiceTestSuite) TestIgnoresOtherEvents() {
	result, err := s.deliver(s.body("REFUND_COMPLETION", "MNFY|5"))
	s.Require().NoError(err)
	s.Equal(WebhookIgnored, result)
	s.Zero(s.gw.lookups)
}

func (s *WebhookServiceTestSuite) TestIgnoresUnpaidTransaction() {
	// the event claims success but the gateway still reports pending
	result, err := s.deliver(s.body(gateway.EventSuccessfulTransaction, "MNFY|6"))
	s.Require().NoError(err)
	s.Equal(WebhookIgnored, result)
	s.Equal(1, s.gw.lookups)
	s.Zero(countRows(s.T(), s.db, &model.Funding{}, ""))
}

func (s *WebhookServiceTestSuite) TestMalformedPayload() {
	_, err := s.deliver([]byte("{not json"))
	s.ErrorIs(err, ErrInvalidPayload)

	_, err = s.deliver(s.body(gateway.EventSuccessfulTransaction, ""))
	s.ErrorIs(err, ErrInvalidPayload)
}

func (s *WebhookServiceTestSuite) TestGatewayFailure() {
	s.gw.lookupErr = errors.New("connection reset")

	_, err := s.deliver(s.body(gateway.EventSuccessfulTransaction, "MNFY|7"))
	s.ErrorIs(err, ErrGateway)
	s.Zero(countRows(s.T(), s.db, &model.Funding{}, ""))
}

func (s *WebhookServiceTestSuite) TestUnknownCustomerIsIgnored() {
	s.gw.put(&gateway.Transaction{
		TransactionReference: "MNFY|8",
		PaymentStatus:        gateway.StatusPaid,
		AmountPaid:           decimal.NewFromInt(5000),
		Customer:             gateway.Customer{Email: "nobody@example.com"},
	})

	result, err := s.deliver(s.body(gateway.EventSuccessfulTransaction, "MNFY|8"))
	s.Require().NoError(err)
	s.Equal(WebhookIgnored, result)
	s.Zero(countRows(s.T(), s.db, &model.Funding{}, ""))
}

func (s *WebhookServiceTestSuite) TestIntentOwnerWinsAndIsCompleted() {
	other, _ := testutil.SeedUser(s.T(), s.db, "eve", 0)
	s.Require().NoError(s.db.Create(&model.PaymentIntent{
		UserID:               other.ID,
		PaymentReference:     "FUND-000000000001",
		TransactionReference: "MNFY|9",
		Amount:               decimal.NewFromInt(10000),
		Status:               model.IntentStatusPending,
		ExpiredAt:            time.Now().Add(time.Hour),
	}).Error)
	// gateway reports ada's email, the intent says eve started it
	s.paid("MNFY|9", 10000)

	result, err := s.service.Reconcile(context.Background(), "MNFY|9")
	s.Require().NoError(err)
	s.Equal(WebhookCredited, result)

	requireAmount(s.T(), 9850, balanceOf(s.T(), s.db, other.ID))
	requireAmount(s.T(), 0, balanceOf(s.T(), s.db, s.user.ID))

	var intent model.PaymentIntent
	s.Require().NoError(s.db.Where("transaction_reference = ?", "MNFY|9").First(&intent).Error)
	s.Equal(model.IntentStatusCompleted, intent.Status)
}

func (s *WebhookServiceTestSuite) TestResultString() {
	s.Equal("credited", WebhookCredited.String())
	s.Equal("duplicate", WebhookDuplicate.String())
	s.Equal("ignored", WebhookIgnored.String())
}
