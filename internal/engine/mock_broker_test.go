package engine

import (
	"context"

	"candle-bot/internal/types"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockBroker struct {
	mock.Mock
}

func (m *MockBroker) Connect(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockBroker) LatestCandle(ctx context.Context, symbol string, granularity int64) (types.Candle, error) {
	args := m.Called(ctx, symbol, granularity)
	return args.Get(0).(types.Candle), args.Error(1)
}

func (m *MockBroker) PlaceTrade(ctx context.Context, symbol string, dir types.Direction, stake decimal.Decimal, durationMin int) (types.Trade, error) {
	args := m.Called(ctx, symbol, dir, stake, durationMin)
	return args.Get(0).(types.Trade), args.Error(1)
}

func (m *MockBroker) Balance(ctx context.Context) (types.Balance, error) {
	args := m.Called(ctx)
	return args.Get(0).(types.Balance), args.Error(1)
}

func (m *MockBroker) Close() error {
	return m.Called().Error(0)
}
