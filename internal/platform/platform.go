// Package platform holds the exchange adapters the agent trades through.
// Each variant is selected by a string identifier, which is also what gets
// persisted in a session snapshot and re-resolved on restore.
package platform

import (
	"context"
	"errors"
	"fmt"

	"alex/internal/balance"
	"alex/internal/market"
	"alex/internal/order"
)

// ErrFeed marks transient adapter failures (network, parse, API rejection).
// Callers treat a feed error as "no result for this tick", never as fatal.
var ErrFeed = errors.New("feed error")

type Platform interface {
	// Name is the identifier the factory resolves, persisted in sessions.
	Name() string
	// Fiat is the quote currency code the platform settles in.
	Fiat() string
	// Assets is the full asset set (fiat plus supported coins) the ledger
	// should track for this platform.
	Assets() []string

	Ticker(ctx context.Context) (market.Snapshot, error)
	AccountBalance(ctx context.Context) (map[string]balance.Funds, error)
	Dispatch(ctx context.Context, ord order.Order) error
}

// New resolves a platform identifier into a live adapter for the given coin.
// Used at startup and again when re-attaching after a session restore.
func New(name, coin string) (Platform, error) {
	switch name {
	case "default":
		return NewSimulator(coin), nil
	case "mercadobitcoin":
		return NewMercadoBitcoin(coin), nil
	case "alpaca":
		return NewAlpaca(coin), nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", name)
	}
}
