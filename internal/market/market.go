package market

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Snapshot is one priced quote for the traded pair. A fresh one is produced
// on every poll; the agent keeps at most one around as the reference value.
type Snapshot struct {
	High decimal.Decimal `json:"high"`
	Low  decimal.Decimal `json:"low"`
	Last decimal.Decimal `json:"last"`
	Buy  decimal.Decimal `json:"buy"`
	Sell decimal.Decimal `json:"sell"`
}

// Valid reports whether every price in the snapshot is strictly positive.
// Snapshots that fail this check never reach the order builder.
func (s Snapshot) Valid() bool {
	return s.High.IsPositive() && s.Low.IsPositive() && s.Last.IsPositive() &&
		s.Buy.IsPositive() && s.Sell.IsPositive()
}

// StopPair is the (upper, lower) percentage trigger pair for one phase.
// Upper is normally positive and Lower negative, but that is not enforced:
// a pathological pair still resolves deterministically (upper wins ties).
type StopPair struct {
	Upper decimal.Decimal `json:"upper"`
	Lower decimal.Decimal `json:"lower"`
}

// ParseStopPair parses a comma-separated "upper,lower" pair.
func ParseStopPair(value string) (StopPair, error) {
	parts := strings.Split(value, ",")
	if len(parts) != 2 {
		return StopPair{}, fmt.Errorf("stop pair %q: want two comma-separated values", value)
	}
	upper, err := decimal.NewFromString(strings.TrimSpace(parts[0]))
	if err != nil {
		return StopPair{}, fmt.Errorf("stop pair %q: %w", value, err)
	}
	lower, err := decimal.NewFromString(strings.TrimSpace(parts[1]))
	if err != nil {
		return StopPair{}, fmt.Errorf("stop pair %q: %w", value, err)
	}
	return StopPair{Upper: upper, Lower: lower}, nil
}

func (p StopPair) String() string {
	return fmt.Sprintf("+%s%% / %s%%", p.Upper, p.Lower)
}

// Comparison is the outcome of one threshold check. It lives for a single
// decision cycle; nothing here is persisted.
type Comparison struct {
	Previous   Snapshot
	Current    Snapshot
	Difference decimal.Decimal
	Triggered  bool
	Threshold  int
	Primed     bool
	Message    string
}

var hundred = decimal.NewFromInt(100)

// Compare classifies the movement from ref to fresh against the stop pair.
//
// The percentage is computed relative to the NEW price:
//
//	difference = (1 - ref.Last/fresh.Last) * 100
//
// A nil ref primes the baseline: the fresh snapshot should be adopted as the
// reference without acting. Compare itself never mutates anything; committing
// the reference is the caller's call.
func Compare(stops StopPair, ref *Snapshot, fresh Snapshot) Comparison {
	if ref == nil {
		return Comparison{
			Current: fresh,
			Primed:  true,
			Message: fmt.Sprintf("reference price set to %s", fresh.Last),
		}
	}

	diff := decimal.NewFromInt(1).Sub(ref.Last.Div(fresh.Last)).Mul(hundred)

	cmp := Comparison{
		Previous:   *ref,
		Current:    fresh,
		Difference: diff,
	}

	switch {
	case diff.GreaterThanOrEqual(stops.Upper):
		cmp.Triggered = true
		cmp.Threshold = 0
	case diff.LessThanOrEqual(stops.Lower):
		cmp.Triggered = true
		cmp.Threshold = 1
	}

	cmp.Message = fmt.Sprintf("price %s -> %s (%s%%)", ref.Last, fresh.Last, diff.StringFixed(4))
	return cmp
}
