package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"restaurantgo/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type MonnifyClientTestSuite struct {
	suite.Suite
	server  *httptest.Server
	mr      *miniredis.Miniredis
	client  *MonnifyClient
	logins  int32
	handler http.HandlerFunc
}

func TestMonnifyClientSuite(t *testing.T) {
	suite.Run(t, new(MonnifyClientTestSuite))
}

func writeEnvelope(w http.ResponseWriter, status int, ok bool, body interface{}) {
	raw, _ := json.Marshal(body)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{
		RequestSuccessful: ok,
		ResponseMessage:   "message",
		ResponseCode:      "0",
		ResponseBody:      raw,
	})
}

func (s *MonnifyClientTestSuite) SetupTest() {
	atomic.StoreInt32(&s.logins, 0)
	s.mr = miniredis.RunT(s.T())

	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/auth/login" {
			user, pass, ok := r.BasicAuth()
			if !ok || user != "key" || pass != "secret" {
				writeEnvelope(w, http.StatusUnauthorized, false, nil)
				return
			}
			atomic.AddInt32(&s.logins, 1)
			writeEnvelope(w, http.StatusOK, true, loginResponse{AccessToken: "tok", ExpiresIn: 3600})
			return
		}
		if r.Header.Get("Authorization") != "Bearer tok" {
			writeEnvelope(w, http.StatusUnauthorized, false, nil)
			return
		}
		s.handler(w, r)
	}))

	rdb := redis.NewClient(&redis.Options{Addr: s.mr.Addr()})
	s.client = NewMonnifyClient(config.GatewayConfig{
		BaseURL:        s.server.URL,
		APIKey:         "key",
		SecretKey:      "secret",
		ContractCode:   "CC1",
		Currency:       "NGN",
		TimeoutSeconds: 5,
	}, rdb)
}

func (s *MonnifyClientTestSuite) TearDownTest() {
	if s.server != nil {
		s.server.Close()
	}
}

func (s *MonnifyClientTestSuite) TestInitTransaction() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		s.Equal("/api/v1/merchant/transactions/init-transaction", r.URL.Path)
		var body map[string]interface{}
		s.Require().NoError(json.NewDecoder(r.Body).Decode(&body))
		s.Equal("CC1", body["contractCode"])
		s.Equal("NGN", body["currencyCode"])
		s.Equal("PAYREF1", body["paymentReference"])

		writeEnvelope(w, http.StatusOK, true, InitTransactionResponse{
			TransactionReference: "MNFY|1",
			PaymentReference:     "PAYREF1",
			CheckoutURL:          "https://checkout/1",
		})
	}

	out, err := s.client.InitTransaction(context.Background(), InitTransactionRequest{
		Amount:           decimal.NewFromInt(5000),
		CustomerEmail:    "jane@example.com",
		PaymentReference: "PAYREF1",
	})
	s.Require().NoError(err)
	s.Equal("MNFY|1", out.TransactionReference)
	s.Equal("https://checkout/1", out.CheckoutURL)
}

func (s *MonnifyClientTestSuite) TestTokenIsCached() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, true, Transaction{
			TransactionReference: "MNFY|2",
			AmountPaid:           decimal.NewFromInt(100),
			PaymentStatus:        StatusPaid,
		})
	}

	for i := 0; i < 3; i++ {
		tx, err := s.client.GetTransaction(context.Background(), "MNFY|2")
		s.Require().NoError(err)
		s.Equal(StatusPaid, tx.PaymentStatus)
		s.True(tx.AmountPaid.Equal(decimal.NewFromInt(100)))
	}
	s.Equal(int32(1), atomic.LoadInt32(&s.logins))
	s.True(s.mr.Exists(tokenCacheKey))
}

func (s *MonnifyClientTestSuite) TestGetTransactionByReference() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		s.Equal("/api/v2/transactions/MNFY|3", r.URL.Path)
		writeEnvelope(w, http.StatusOK, true, Transaction{TransactionReference: "MNFY|3"})
	}

	tx, err := s.client.GetTransaction(context.Background(), "MNFY|3")
	s.Require().NoError(err)
	s.Equal("MNFY|3", tx.TransactionReference)
}

func (s *MonnifyClientTestSuite) TestErrors() {
	cases := []struct {
		name    string
		status  int
		ok      bool
		wantErr interface{}
	}{
		{name: "http failure", status: http.StatusInternalServerError, ok: false, wantErr: new(*StatusCodeError)},
		{name: "unsuccessful envelope", status: http.StatusOK, ok: false, wantErr: new(*APIError)},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.handler = func(w http.ResponseWriter, r *http.Request) {
				writeEnvelope(w, tc.status, tc.ok, nil)
			}
			_, err := s.client.InitBankTransfer(context.Background(), "MNFY|4", "058")
			s.Require().Error(err)
			s.ErrorAs(err, tc.wantErr)
		})
	}
}

func (s *MonnifyClientTestSuite) TestChargeCardDefaultsChannel() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		var body CardChargeRequest
		s.Require().NoError(json.NewDecoder(r.Body).Decode(&body))
		s.Equal("API_NOTIFICATION", body.CollectionChannel)
		s.Equal("4111111111111111", body.Card.Number)
		writeEnvelope(w, http.StatusOK, true, CardChargeResponse{Status: "SUCCESS", TransactionReference: body.TransactionReference})
	}

	out, err := s.client.ChargeCard(context.Background(), CardChargeRequest{
		TransactionReference: "MNFY|5",
		Card:                 Card{Number: "4111111111111111", ExpiryMonth: "10", ExpiryYear: "2030", CVV: "123"},
	})
	s.Require().NoError(err)
	s.Equal("SUCCESS", out.Status)
}
