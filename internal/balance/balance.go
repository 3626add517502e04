package balance

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrUnknownAsset is returned for any asset code outside the configured set.
var ErrUnknownAsset = errors.New("unknown asset")

// Funds is the available/total pair tracked per asset.
type Funds struct {
	Available decimal.Decimal `json:"available"`
	Total     decimal.Decimal `json:"total"`
}

// Ledger is the in-memory per-asset accounting for one agent. It is owned by
// a single loop and does no locking and no I/O.
//
// Both fields clamp at zero: an over-debit silently floors instead of
// erroring. That matches the platform balance semantics this ledger mirrors,
// so it is kept as is.
type Ledger struct {
	assets map[string]Funds
}

// New creates a ledger over the given asset codes, all zeroed.
func New(assets ...string) *Ledger {
	l := &Ledger{assets: make(map[string]Funds, len(assets))}
	for _, asset := range assets {
		l.assets[asset] = Funds{}
	}
	return l
}

// Credit adds amount to both available and total for the asset. A negative
// amount debits; either way the fields clamp at zero afterward.
func (l *Ledger) Credit(asset string, amount decimal.Decimal) error {
	funds, ok := l.assets[asset]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAsset, asset)
	}
	funds.Available = clamp(funds.Available.Add(amount))
	funds.Total = clamp(funds.Total.Add(amount))
	l.assets[asset] = funds
	return nil
}

// Debit subtracts amount from both fields, clamping at zero.
func (l *Ledger) Debit(asset string, amount decimal.Decimal) error {
	return l.Credit(asset, amount.Neg())
}

// Get returns the funds for one asset.
func (l *Ledger) Get(asset string) (Funds, error) {
	funds, ok := l.assets[asset]
	if !ok {
		return Funds{}, fmt.Errorf("%w: %s", ErrUnknownAsset, asset)
	}
	return funds, nil
}

// Load bulk-replaces funds from a platform balance report. Codes outside the
// configured set are ignored; configured codes absent from the report keep
// their current value.
func (l *Ledger) Load(values map[string]Funds) {
	for asset, funds := range values {
		if _, ok := l.assets[asset]; !ok {
			continue
		}
		l.assets[asset] = Funds{
			Available: clamp(funds.Available),
			Total:     clamp(funds.Total),
		}
	}
}

// Balances returns a copy of the full asset map.
func (l *Ledger) Balances() map[string]Funds {
	out := make(map[string]Funds, len(l.assets))
	for asset, funds := range l.assets {
		out[asset] = funds
	}
	return out
}

func clamp(v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	return v
}
