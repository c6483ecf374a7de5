package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"candle-bot/internal/broker/deriv"
	"candle-bot/internal/store"
	"candle-bot/internal/strategy"
	"candle-bot/internal/types"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testConfig() *store.Config {
	cfg := &store.Config{}
	cfg.Trading.Symbol = "R_100"
	cfg.Trading.Timeframe = 300
	cfg.Trading.Stake = decimal.NewFromInt(1)
	cfg.Trading.DurationMin = 5
	cfg.Trading.Currency = "USD"
	return cfg
}

func risingCandle() types.Candle {
	return types.NewCandle(1709294100, 100, 102, 99, 101.5)
}

func testTrade() types.Trade {
	return types.Trade{
		ContractID:   555,
		PurchaseTime: 1709294702,
		BuyPrice:     decimal.NewFromInt(1),
		Payout:       decimal.RequireFromString("1.95"),
		Longcode:     "Win payout if ...",
	}
}

func testBalance() types.Balance {
	return types.Balance{Balance: decimal.RequireFromString("9876.54"), Currency: "USD"}
}

func newTestEngine(brk *MockBroker) (*Engine, *Stats) {
	stats := NewStats(time.Now())
	return New(testConfig(), brk, strategy.Follow{}, stats), stats
}

func TestRunCycleFollowsCandle(t *testing.T) {
	brk := new(MockBroker)
	brk.On("LatestCandle", mock.Anything, "R_100", int64(300)).Return(risingCandle(), nil).Once()
	brk.On("PlaceTrade", mock.Anything, "R_100", types.Rise, decimal.NewFromInt(1), 5).Return(testTrade(), nil).Once()
	brk.On("Balance", mock.Anything).Return(testBalance(), nil).Once()

	eng, stats := newTestEngine(brk)
	res, err := eng.RunCycle(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, res.CycleID)
	assert.Equal(t, "R_100", res.Symbol)
	assert.Equal(t, types.Rise, res.Decision.Direction)
	assert.Equal(t, int64(555), res.Trade.ContractID)
	assert.Equal(t, "9876.54", res.Balance.Balance.String())
	assert.GreaterOrEqual(t, res.TotalMs, res.FetchMs+res.TradeMs)

	snap := stats.Snapshot(time.Now())
	assert.Equal(t, int64(1), snap.SuccessfulFetches)
	assert.Equal(t, int64(1), snap.TotalTrades)
	assert.Zero(t, snap.FailedFetches)
	require.NotNil(t, snap.LastCandle)
	assert.Equal(t, int64(1709294100), snap.LastCandle.Epoch)
	require.NotNil(t, snap.LastTrade)
	assert.Equal(t, types.Rise, snap.LastTrade.Direction)
	require.NotNil(t, snap.LastBalance)
	assert.Equal(t, "USD", snap.LastBalance.Currency)

	brk.AssertExpectations(t)
}

func TestRunCycleReverseStrategy(t *testing.T) {
	brk := new(MockBroker)
	brk.On("LatestCandle", mock.Anything, "R_100", int64(300)).Return(risingCandle(), nil)
	brk.On("PlaceTrade", mock.Anything, "R_100", types.Fall, decimal.NewFromInt(1), 5).Return(testTrade(), nil)
	brk.On("Balance", mock.Anything).Return(testBalance(), nil)

	stats := NewStats(time.Now())
	eng := New(testConfig(), brk, strategy.Reverse{}, stats)

	res, err := eng.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.Fall, res.Decision.Direction)
	brk.AssertExpectations(t)
}

func TestRunCycleFetchFailureSkipsTrade(t *testing.T) {
	brk := new(MockBroker)
	brk.On("LatestCandle", mock.Anything, "R_100", int64(300)).Return(types.Candle{}, deriv.ErrNoCandles)

	eng, stats := newTestEngine(brk)
	_, err := eng.RunCycle(context.Background())
	require.ErrorIs(t, err, deriv.ErrNoCandles)
	assert.False(t, eng.Stopped())

	snap := stats.Snapshot(time.Now())
	assert.Equal(t, int64(1), snap.FailedFetches)
	assert.Zero(t, snap.SuccessfulFetches)
	brk.AssertNotCalled(t, "PlaceTrade", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	brk.AssertNotCalled(t, "Close")
}

func TestRunCycleTradeFailureCountsFailure(t *testing.T) {
	brk := new(MockBroker)
	brk.On("LatestCandle", mock.Anything, "R_100", int64(300)).Return(risingCandle(), nil)
	brk.On("PlaceTrade", mock.Anything, "R_100", types.Rise, decimal.NewFromInt(1), 5).
		Return(types.Trade{}, &deriv.APIError{Code: "ContractBuyValidationError", Message: "Market is closed."})

	eng, stats := newTestEngine(brk)
	_, err := eng.RunCycle(context.Background())
	require.Error(t, err)

	snap := stats.Snapshot(time.Now())
	assert.Equal(t, int64(1), snap.SuccessfulFetches)
	assert.Equal(t, int64(1), snap.FailedFetches)
	assert.Zero(t, snap.TotalTrades)
	brk.AssertNotCalled(t, "Balance", mock.Anything)
}

func TestRunCycleAuthErrorStopsEngine(t *testing.T) {
	brk := new(MockBroker)
	brk.On("LatestCandle", mock.Anything, "R_100", int64(300)).
		Return(types.Candle{}, &deriv.APIError{Code: deriv.CodeInvalidToken, Message: "The token is invalid."}).Once()
	brk.On("Close").Return(nil).Once()

	eng, stats := newTestEngine(brk)
	_, err := eng.RunCycle(context.Background())
	require.ErrorIs(t, err, ErrStopped)
	assert.True(t, deriv.IsAuthError(err))
	assert.True(t, eng.Stopped())
	assert.Equal(t, StateStopped, stats.State())

	// No further requests once stopped.
	_, err = eng.RunCycle(context.Background())
	assert.ErrorIs(t, err, ErrStopped)
	brk.AssertNumberOfCalls(t, "LatestCandle", 1)
	brk.AssertNumberOfCalls(t, "Close", 1)
}

func TestStopIsIdempotent(t *testing.T) {
	brk := new(MockBroker)
	brk.On("Close").Return(errors.New("already closed")).Once()

	eng, _ := newTestEngine(brk)
	eng.Stop(context.Background())
	eng.Stop(context.Background())
	brk.AssertNumberOfCalls(t, "Close", 1)
}

func TestCheckBalanceRecordsBalance(t *testing.T) {
	brk := new(MockBroker)
	brk.On("Balance", mock.Anything).Return(testBalance(), nil)

	eng, stats := newTestEngine(brk)
	bal, err := eng.CheckBalance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "9876.54", bal.Balance.String())
	require.NotNil(t, stats.Snapshot(time.Now()).LastBalance)
}

func TestCycleIDOnContext(t *testing.T) {
	_, ok := CycleID(context.Background())
	assert.False(t, ok)

	id, ok := CycleID(withCycleID(context.Background(), "abc"))
	assert.True(t, ok)
	assert.Equal(t, "abc", id)
}
