package session

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"alex/internal/agent"
	"alex/internal/balance"
	"alex/internal/market"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleState() agent.State {
	ref := market.Snapshot{
		High: dec("27700"),
		Low:  dec("27213.11999"),
		Last: dec("27213.11999"),
		Buy:  dec("27224.01018"),
		Sell: dec("27497.99995"),
	}
	first := ref

	return agent.State{
		Status:           agent.StatusWaitingSell,
		StatusTitleShown: true,
		Coin:             "btc",
		Live:             true,
		Platform:         "mercadobitcoin",
		SpendLimit:       dec("200"),
		PollInterval:     60,
		BuyStops:         market.StopPair{Upper: dec("1.5"), Lower: dec("-3")},
		SellStops:        market.StopPair{Upper: dec("3"), Lower: dec("-5")},
		Balances: map[string]balance.Funds{
			"brl": {Available: dec("749.5"), Total: dec("800")},
			"btc": {Available: dec("0.0038"), Total: dec("0.0038")},
		},
		Reference: &ref,
		First:     &first,
	}
}

func TestSaveRestoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	want := sampleState()

	if err := Save(path, want); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := Restore(path)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}

	if got.Status != want.Status || got.StatusTitleShown != want.StatusTitleShown {
		t.Fatalf("status fields: got %+v", got)
	}
	if got.Coin != want.Coin || got.Live != want.Live || got.Platform != want.Platform {
		t.Fatalf("identity fields: got %+v", got)
	}
	if got.PollInterval != want.PollInterval {
		t.Fatalf("poll interval = %d, want %d", got.PollInterval, want.PollInterval)
	}
	if !got.SpendLimit.Equal(want.SpendLimit) {
		t.Fatalf("spend limit = %s, want %s", got.SpendLimit, want.SpendLimit)
	}
	if !got.BuyStops.Upper.Equal(want.BuyStops.Upper) || !got.BuyStops.Lower.Equal(want.BuyStops.Lower) {
		t.Fatalf("buy stops = %s, want %s", got.BuyStops, want.BuyStops)
	}
	if !got.SellStops.Upper.Equal(want.SellStops.Upper) || !got.SellStops.Lower.Equal(want.SellStops.Lower) {
		t.Fatalf("sell stops = %s, want %s", got.SellStops, want.SellStops)
	}
	for asset, funds := range want.Balances {
		restored, ok := got.Balances[asset]
		if !ok {
			t.Fatalf("balance for %s missing after round trip", asset)
		}
		if !restored.Available.Equal(funds.Available) || !restored.Total.Equal(funds.Total) {
			t.Fatalf("balance %s = %s/%s, want %s/%s",
				asset, restored.Available, restored.Total, funds.Available, funds.Total)
		}
	}
	if got.Reference == nil || !got.Reference.Last.Equal(want.Reference.Last) ||
		!got.Reference.Buy.Equal(want.Reference.Buy) || !got.Reference.Sell.Equal(want.Reference.Sell) {
		t.Fatalf("reference snapshot not round-tripped: %+v", got.Reference)
	}
	if got.First == nil || !got.First.Last.Equal(want.First.Last) {
		t.Fatalf("first snapshot not round-tripped")
	}
}

func TestSaveOverwritesPriorRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	first := sampleState()
	if err := Save(path, first); err != nil {
		t.Fatalf("save: %v", err)
	}

	second := sampleState()
	second.Status = agent.StatusWaitingBuy
	second.Reference = nil
	if err := Save(path, second); err != nil {
		t.Fatalf("save again: %v", err)
	}

	got, err := Restore(path)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if got.Status != agent.StatusWaitingBuy {
		t.Fatalf("status = %s, want the later record", got.Status)
	}
	if got.Reference != nil {
		t.Fatalf("reference survived the overwrite")
	}
}

func TestRestoreMissingRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	if _, err := Restore(path); !errors.Is(err, ErrMissing) {
		t.Fatalf("got %v, want ErrMissing", err)
	}
}

func TestRestoreCorruptRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := Restore(path); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("got %v, want ErrCorrupt", err)
	}
}
