package platform

import (
	"context"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"alex/internal/balance"
	"alex/internal/market"
	"alex/internal/order"
)

// Simulator is the "default" platform: a synthetic feed that starts from a
// fixed base quote and drifts it a fraction of a percent at random. Dispatch
// always succeeds without talking to anyone, so the whole cycle can be
// paper-traded offline.
type Simulator struct {
	coin string
	base market.Snapshot
	rng  *rand.Rand
}

var simulatorBase = market.Snapshot{
	High: decimal.RequireFromString("27700.00000000"),
	Low:  decimal.RequireFromString("27213.11999000"),
	Last: decimal.RequireFromString("27213.11999000"),
	Buy:  decimal.RequireFromString("27224.01018000"),
	Sell: decimal.RequireFromString("27497.99995000"),
}

func NewSimulator(coin string) *Simulator {
	return &Simulator{
		coin: strings.ToLower(coin),
		base: simulatorBase,
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *Simulator) Name() string { return "default" }
func (s *Simulator) Fiat() string { return "brl" }

func (s *Simulator) Assets() []string {
	return []string{"brl", "btc", "ltc", "bch"}
}

// Ticker returns the base quote scaled by the next drift. The drift
// compounds: the scaled quote becomes the new base.
func (s *Simulator) Ticker(ctx context.Context) (market.Snapshot, error) {
	factor := decimal.NewFromInt(1).Add(s.percentage())

	next := market.Snapshot{
		High: s.base.High.Mul(factor),
		Low:  s.base.Low.Mul(factor),
		Last: s.base.Last.Mul(factor),
		Buy:  s.base.Buy.Mul(factor),
		Sell: s.base.Sell.Mul(factor),
	}
	s.base = next
	return next, nil
}

// percentage yields zero three ticks out of four, otherwise a drift
// uniformly drawn from [-0.1, +0.1].
func (s *Simulator) percentage() decimal.Decimal {
	if s.rng.Intn(100)+1 > 25 {
		return decimal.Zero
	}
	return decimal.New(int64(s.rng.Intn(201)-100), -3)
}

func (s *Simulator) AccountBalance(ctx context.Context) (map[string]balance.Funds, error) {
	fiat := decimal.NewFromInt(1000)
	coin := decimal.RequireFromString("0.0038")
	return map[string]balance.Funds{
		"brl":  {Available: fiat, Total: fiat},
		s.coin: {Available: coin, Total: coin},
	}, nil
}

func (s *Simulator) Dispatch(ctx context.Context, ord order.Order) error {
	slog.Info("simulated dispatch",
		"platform", s.Name(),
		"order_id", ord.ID,
		"action", ord.Action,
		"qty", ord.Quantity,
		"limit_price", ord.LimitPrice)
	return nil
}
