package order

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"alex/internal/balance"
)

type Action string

const (
	Buy  Action = "buy"
	Sell Action = "sell"
)

var (
	ErrInvalidAction = errors.New("invalid order action")
	ErrInvalidPrice  = errors.New("invalid order price")
)

// Order is a concrete, dispatchable order. CashFlow is the signed fiat
// movement: negative for a buy, positive for a sell. Orders are consumed
// immediately by dispatch and never retained.
type Order struct {
	ID         string
	Action     Action
	Quantity   decimal.Decimal
	LimitPrice decimal.Decimal
	CashFlow   decimal.Decimal
}

// Builder turns a triggered comparison into an Order using the current
// ledger position. No I/O and no state of its own.
type Builder struct {
	Ledger     *balance.Ledger
	Fiat       string
	Coin       string
	SpendLimit decimal.Decimal // non-positive means unlimited
}

// Build constructs an order at the given execution price.
//
// A buy spends min(available fiat, spend limit); a sell liquidates the
// entire available coin position, no partial sells.
func (b Builder) Build(action Action, price decimal.Decimal) (Order, error) {
	if !price.IsPositive() {
		return Order{}, fmt.Errorf("%w: %s", ErrInvalidPrice, price)
	}

	switch action {
	case Buy:
		fiat, err := b.Ledger.Get(b.Fiat)
		if err != nil {
			return Order{}, err
		}
		spendable := fiat.Available
		if b.SpendLimit.IsPositive() && spendable.GreaterThan(b.SpendLimit) {
			spendable = b.SpendLimit
		}
		qty := spendable.Div(price)
		return Order{
			ID:         uuid.NewString(),
			Action:     Buy,
			Quantity:   qty,
			LimitPrice: price,
			CashFlow:   qty.Mul(price).Neg(),
		}, nil

	case Sell:
		coin, err := b.Ledger.Get(b.Coin)
		if err != nil {
			return Order{}, err
		}
		return Order{
			ID:         uuid.NewString(),
			Action:     Sell,
			Quantity:   coin.Available,
			LimitPrice: price,
			CashFlow:   coin.Available.Mul(price),
		}, nil

	default:
		return Order{}, fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}
}
