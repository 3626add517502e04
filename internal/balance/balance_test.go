package balance

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCreditAndDebit(t *testing.T) {
	l := New("brl", "btc")

	if err := l.Credit("brl", dec("1000")); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if err := l.Debit("brl", dec("250.5")); err != nil {
		t.Fatalf("debit: %v", err)
	}

	funds, err := l.Get("brl")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !funds.Available.Equal(dec("749.5")) || !funds.Total.Equal(dec("749.5")) {
		t.Fatalf("funds = %s/%s, want 749.5/749.5", funds.Available, funds.Total)
	}
}

func TestOverDebitClampsAtZero(t *testing.T) {
	l := New("btc")
	if err := l.Credit("btc", dec("0.01")); err != nil {
		t.Fatalf("credit: %v", err)
	}

	// Over-debit floors silently instead of erroring.
	if err := l.Debit("btc", dec("5")); err != nil {
		t.Fatalf("over-debit should not error, got %v", err)
	}

	funds, _ := l.Get("btc")
	if !funds.Available.IsZero() || !funds.Total.IsZero() {
		t.Fatalf("funds = %s/%s, want 0/0", funds.Available, funds.Total)
	}
}

func TestDebitSequencesNeverGoNegative(t *testing.T) {
	l := New("brl")
	ops := []string{"100", "-30", "-500", "20", "-1", "-0.0001"}
	for _, amount := range ops {
		if err := l.Credit("brl", dec(amount)); err != nil {
			t.Fatalf("credit %s: %v", amount, err)
		}
		funds, _ := l.Get("brl")
		if funds.Available.IsNegative() || funds.Total.IsNegative() {
			t.Fatalf("negative funds after %s: %s/%s", amount, funds.Available, funds.Total)
		}
	}
}

func TestUnknownAsset(t *testing.T) {
	l := New("brl")

	if _, err := l.Get("doge"); !errors.Is(err, ErrUnknownAsset) {
		t.Fatalf("get unknown asset: got %v, want ErrUnknownAsset", err)
	}
	if err := l.Credit("doge", dec("1")); !errors.Is(err, ErrUnknownAsset) {
		t.Fatalf("credit unknown asset: got %v, want ErrUnknownAsset", err)
	}
}

func TestLoadReplacesConfiguredAssetsOnly(t *testing.T) {
	l := New("brl", "btc")
	if err := l.Credit("brl", dec("50")); err != nil {
		t.Fatalf("credit: %v", err)
	}

	l.Load(map[string]Funds{
		"brl":  {Available: dec("1000"), Total: dec("1200")},
		"doge": {Available: dec("9999"), Total: dec("9999")},
	})

	brl, _ := l.Get("brl")
	if !brl.Available.Equal(dec("1000")) || !brl.Total.Equal(dec("1200")) {
		t.Fatalf("brl = %s/%s, want 1000/1200", brl.Available, brl.Total)
	}
	if _, err := l.Get("doge"); !errors.Is(err, ErrUnknownAsset) {
		t.Fatalf("load must ignore unconfigured assets")
	}

	// btc was absent from the report and keeps its value.
	btc, _ := l.Get("btc")
	if !btc.Available.IsZero() {
		t.Fatalf("btc = %s, want 0", btc.Available)
	}
}

func TestBalancesReturnsCopy(t *testing.T) {
	l := New("brl")
	if err := l.Credit("brl", dec("10")); err != nil {
		t.Fatalf("credit: %v", err)
	}

	copied := l.Balances()
	copied["brl"] = Funds{Available: dec("999"), Total: dec("999")}

	funds, _ := l.Get("brl")
	if !funds.Available.Equal(dec("10")) {
		t.Fatalf("mutating the copy leaked into the ledger")
	}
}
