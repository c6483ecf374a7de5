package engine

import (
	"sync"
	"time"

	"candle-bot/internal/types"
)

type State string

const (
	StateIdle    State = "idle"
	StateWaiting State = "waiting"
	StateStopped State = "stopped"
)

// Stats is the bot's in-memory record of what it has done. The engine and
// scheduler write it; the status server reads snapshots.
type Stats struct {
	mu sync.RWMutex

	state             State
	totalTrades       int64
	successfulFetches int64
	failedFetches     int64
	lastCandle        *types.Candle
	lastTrade         *types.TradeRecord
	lastBalance       *types.Balance
	nextFetch         time.Time
	startTime         time.Time
}

// Snapshot is a point-in-time copy of Stats.
type Snapshot struct {
	State             State              `json:"state"`
	TotalTrades       int64              `json:"totalTrades"`
	SuccessfulFetches int64              `json:"successfulFetches"`
	FailedFetches     int64              `json:"failedFetches"`
	LastCandle        *types.Candle      `json:"lastCandle"`
	LastTrade         *types.TradeRecord `json:"lastTrade"`
	LastBalance       *types.Balance     `json:"lastBalance"`
	NextFetch         *time.Time         `json:"nextFetch,omitempty"`
	StartTime         time.Time          `json:"startTime"`
	Uptime            int64              `json:"uptime"`
}

func NewStats(start time.Time) *Stats {
	return &Stats{state: StateIdle, startTime: start}
}

func (s *Stats) Snapshot(now time.Time) Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		State:             s.state,
		TotalTrades:       s.totalTrades,
		SuccessfulFetches: s.successfulFetches,
		FailedFetches:     s.failedFetches,
		StartTime:         s.startTime,
		Uptime:            int64(now.Sub(s.startTime) / time.Second),
	}
	if s.lastCandle != nil {
		c := *s.lastCandle
		snap.LastCandle = &c
	}
	if s.lastTrade != nil {
		t := *s.lastTrade
		snap.LastTrade = &t
	}
	if s.lastBalance != nil {
		b := *s.lastBalance
		snap.LastBalance = &b
	}
	if !s.nextFetch.IsZero() && s.state == StateWaiting {
		next := s.nextFetch
		snap.NextFetch = &next
	}
	return snap
}

func (s *Stats) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Stats) setWaiting(next time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateStopped {
		return
	}
	s.state = StateWaiting
	s.nextFetch = next
}

func (s *Stats) setState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateStopped {
		return
	}
	s.state = state
}

func (s *Stats) recordCandle(c types.Candle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.successfulFetches++
	s.lastCandle = &c
}

func (s *Stats) recordTrade(t types.TradeRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalTrades++
	s.lastTrade = &t
}

func (s *Stats) recordBalance(b types.Balance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastBalance = &b
}

func (s *Stats) recordFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failedFetches++
}
