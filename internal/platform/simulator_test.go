package platform

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"alex/internal/order"
)

func TestSimulatorTickerStaysPositiveAndCompounds(t *testing.T) {
	s := NewSimulator("BTC")

	prev := s.base
	for i := 0; i < 500; i++ {
		snap, err := s.Ticker(context.Background())
		if err != nil {
			t.Fatalf("ticker: %v", err)
		}
		if !snap.Valid() {
			t.Fatalf("tick %d produced a non-positive price: %+v", i, snap)
		}
		if !snap.Last.Equal(s.base.Last) {
			t.Fatalf("drift must compound into the base quote")
		}
		// Drift is bounded to a tenth of a percent per tick.
		ratio := snap.Last.Div(prev.Last)
		if ratio.LessThan(decimal.RequireFromString("0.9")) || ratio.GreaterThan(decimal.RequireFromString("1.1")) {
			t.Fatalf("tick %d moved %s, outside the drift bound", i, ratio)
		}
		prev = snap
	}
}

func TestSimulatorAccountBalance(t *testing.T) {
	s := NewSimulator("LTC")

	funds, err := s.AccountBalance(context.Background())
	if err != nil {
		t.Fatalf("account balance: %v", err)
	}
	if !funds["brl"].Available.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("fiat = %s, want 1000", funds["brl"].Available)
	}
	if !funds["ltc"].Available.Equal(decimal.RequireFromString("0.0038")) {
		t.Fatalf("coin = %s, want 0.0038", funds["ltc"].Available)
	}
}

func TestSimulatorDispatchAlwaysSucceeds(t *testing.T) {
	s := NewSimulator("BTC")
	ord := order.Order{
		ID:         "test",
		Action:     order.Buy,
		Quantity:   decimal.NewFromInt(1),
		LimitPrice: decimal.NewFromInt(100),
		CashFlow:   decimal.NewFromInt(-100),
	}
	if err := s.Dispatch(context.Background(), ord); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
}

func TestFactoryResolvesIdentifiers(t *testing.T) {
	for name, fiat := range map[string]string{
		"default":        "brl",
		"mercadobitcoin": "brl",
		"alpaca":         "usd",
	} {
		p, err := New(name, "BTC")
		if err != nil {
			t.Fatalf("new %s: %v", name, err)
		}
		if p.Name() != name {
			t.Fatalf("name = %s, want %s", p.Name(), name)
		}
		if p.Fiat() != fiat {
			t.Fatalf("%s fiat = %s, want %s", name, p.Fiat(), fiat)
		}
	}

	if _, err := New("binance", "BTC"); err == nil {
		t.Fatalf("expected error for unsupported platform")
	}
}
