package service

import (
	"context"
	"sync"
	"testing"

	"restaurantgo/internal/model"
	"restaurantgo/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type LedgerServiceTestSuite struct {
	suite.Suite
	db     *gorm.DB
	ledger *LedgerService
	user   *model.User
}

func TestLedgerServiceSuite(t *testing.T) {
	suite.Run(t, new(LedgerServiceTestSuite))
}

func (s *LedgerServiceTestSuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.ledger = NewLedgerService(s.db, testConfig())
	s.user, _ = testutil.SeedUser(s.T(), s.db, "ada", 3000)
}

func (s *LedgerServiceTestSuite) TestDebitAboveBalanceIsLowFunds() {
	ctx := context.Background()

	outcome, err := s.ledger.Debit(ctx, s.user.ID, decimal.NewFromInt(3001), "Food Purchase", "REF1")
	s.Require().NoError(err)
	s.Equal(LowFunds, outcome)

	requireAmount(s.T(), 3000, balanceOf(s.T(), s.db, s.user.ID))
	s.Zero(countRows(s.T(), s.db, &model.WalletSummary{}, ""))
	s.Zero(countRows(s.T(), s.db, &model.OutboxMessage{}, ""))
}

func (s *LedgerServiceTestSuite) TestDebitNegativeIsLowFunds() {
	outcome, err := s.ledger.Debit(context.Background(), s.user.ID, decimal.NewFromInt(-5), "x", "")
	s.Require().NoError(err)
	s.Equal(LowFunds, outcome)
	requireAmount(s.T(), 3000, balanceOf(s.T(), s.db, s.user.ID))
}

func (s *LedgerServiceTestSuite) TestDebitWholeBalance() {
	outcome, err := s.ledger.Debit(context.Background(), s.user.ID, decimal.NewFromInt(3000), "Food Purchase", "REF1")
	s.Require().NoError(err)
	s.Equal(Debited, outcome)
	requireAmount(s.T(), 0, balanceOf(s.T(), s.db, s.user.ID))
}

func (s *LedgerServiceTestSuite) TestDebitThenDeposit() {
	ctx := context.Background()

	outcome, err := s.ledger.Debit(ctx, s.user.ID, decimal.NewFromInt(500), "Food Purchase", "REF1")
	s.Require().NoError(err)
	s.Equal(Debited, outcome)

	s.Require().NoError(s.ledger.Deposit(ctx, s.user.ID, decimal.NewFromInt(200), "Order Refund", "REF1"))

	requireAmount(s.T(), 2700, balanceOf(s.T(), s.db, s.user.ID))

	summaries, total, err := s.ledger.Summaries(ctx, s.user.ID, 1, 10)
	s.Require().NoError(err)
	s.Equal(int64(2), total)
	s.Require().Len(summaries, 2)

	credit, debit := summaries[0], summaries[1]

	s.Equal(model.SummaryKindDebit, debit.Kind)
	requireAmount(s.T(), 500, debit.Amount)
	requireAmount(s.T(), 3000, debit.PreviousBalance)
	requireAmount(s.T(), 2500, debit.AfterBalance)
	s.Equal("REF1", debit.OrderID)
	s.Equal(model.SummaryStatusSuccessful, debit.Status)

	s.Equal(model.SummaryKindCredit, credit.Kind)
	requireAmount(s.T(), 200, credit.Amount)
	requireAmount(s.T(), 2500, credit.PreviousBalance)
	requireAmount(s.T(), 2700, credit.AfterBalance)

	s.Equal(int64(2), countRows(s.T(), s.db, &model.OutboxMessage{}, "topic = ?", "wallet.event"))
}

func (s *LedgerServiceTestSuite) TestDepositZeroAndNegative() {
	ctx := context.Background()

	s.Require().NoError(s.ledger.Deposit(ctx, s.user.ID, decimal.Zero, "noop", ""))
	requireAmount(s.T(), 3000, balanceOf(s.T(), s.db, s.user.ID))
	s.Equal(int64(1), countRows(s.T(), s.db, &model.WalletSummary{}, ""))

	s.ErrorIs(s.ledger.Deposit(ctx, s.user.ID, decimal.NewFromInt(-1), "bad", ""), ErrInvalidAmount)
}

func (s *LedgerServiceTestSuite) TestUnknownUser() {
	ctx := context.Background()

	outcome, err := s.ledger.Debit(ctx, 9999, decimal.NewFromInt(1), "x", "")
	s.Equal(DebitError, outcome)
	s.ErrorIs(err, ErrUserNotFound)

	s.ErrorIs(s.ledger.Deposit(ctx, 9999, decimal.NewFromInt(1), "x", ""), ErrUserNotFound)
	s.Zero(countRows(s.T(), s.db, &model.WalletSummary{}, ""))
}

func (s *LedgerServiceTestSuite) TestBalance() {
	b, err := s.ledger.Balance(context.Background(), s.user.ID)
	s.Require().NoError(err)
	requireAmount(s.T(), 3000, b)
}

func TestConcurrentDebitsNeverOverdraw(t *testing.T) {
	db := testutil.NewTestDB(t)
	ledger := NewLedgerService(db, testConfig())
	user, _ := testutil.SeedUser(t, db, "grace", 3000)

	const attempts = 10
	outcomes := make(chan DebitOutcome, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o, err := ledger.Debit(context.Background(), user.ID, decimal.NewFromInt(500), "Food Purchase", "")
			if err != nil {
				o = DebitError
			}
			outcomes <- o
		}()
	}
	wg.Wait()
	close(outcomes)

	counts := map[DebitOutcome]int{}
	for o := range outcomes {
		counts[o]++
	}

	require.Equal(t, 6, counts[Debited])
	require.Equal(t, 4, counts[LowFunds])
	requireAmount(t, 0, balanceOf(t, db, user.ID))
	require.Equal(t, int64(6), countRows(t, db, &model.WalletSummary{}, "user_id = ?", user.ID))
}

func TestDebitOutcomeString(t *testing.T) {
	require.Equal(t, "Debited", Debited.String())
	require.Equal(t, "LowFunds", LowFunds.String())
	require.Equal(t, "Error", DebitError.String())
}
