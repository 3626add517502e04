package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"

	"alex/internal/balance"
	"alex/internal/market"
	"alex/internal/order"
)

// Alpaca trades the coin against USD through Alpaca's crypto API. Credentials
// come from APCA_API_KEY_ID / APCA_API_SECRET_KEY, picked up by the client
// options the usual way.
type Alpaca struct {
	coin    string
	trading *alpaca.Client
	data    *marketdata.Client
}

func NewAlpaca(coin string) *Alpaca {
	return &Alpaca{
		coin:    strings.ToUpper(coin),
		trading: alpaca.NewClient(alpaca.ClientOpts{}),
		data:    marketdata.NewClient(marketdata.ClientOpts{}),
	}
}

func (a *Alpaca) Name() string { return "alpaca" }
func (a *Alpaca) Fiat() string { return "usd" }

func (a *Alpaca) Assets() []string {
	return []string{"usd", strings.ToLower(a.coin)}
}

// symbol is the market data / order symbol, e.g. BTC/USD.
func (a *Alpaca) symbol() string {
	return a.coin + "/USD"
}

func (a *Alpaca) Ticker(ctx context.Context) (market.Snapshot, error) {
	snap, err := a.data.GetCryptoSnapshot(a.symbol(), marketdata.GetCryptoSnapshotRequest{})
	if err != nil {
		return market.Snapshot{}, fmt.Errorf("%w: crypto snapshot: %v", ErrFeed, err)
	}
	if snap.LatestTrade == nil || snap.LatestQuote == nil || snap.DailyBar == nil {
		return market.Snapshot{}, fmt.Errorf("%w: incomplete snapshot for %s", ErrFeed, a.symbol())
	}

	return market.Snapshot{
		High: decimal.NewFromFloat(snap.DailyBar.High),
		Low:  decimal.NewFromFloat(snap.DailyBar.Low),
		Last: decimal.NewFromFloat(snap.LatestTrade.Price),
		Buy:  decimal.NewFromFloat(snap.LatestQuote.BidPrice),
		Sell: decimal.NewFromFloat(snap.LatestQuote.AskPrice),
	}, nil
}

func (a *Alpaca) AccountBalance(ctx context.Context) (map[string]balance.Funds, error) {
	acct, err := a.trading.GetAccount()
	if err != nil {
		return nil, fmt.Errorf("%w: account: %v", ErrFeed, err)
	}

	funds := map[string]balance.Funds{
		"usd": {Available: acct.Cash, Total: acct.Equity},
	}

	pos, err := a.trading.GetPosition(strings.ReplaceAll(a.symbol(), "/", ""))
	if err != nil {
		var apiErr *alpaca.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == 404 {
			funds[strings.ToLower(a.coin)] = balance.Funds{}
			return funds, nil
		}
		return nil, fmt.Errorf("%w: position: %v", ErrFeed, err)
	}

	funds[strings.ToLower(a.coin)] = balance.Funds{
		Available: pos.QtyAvailable,
		Total:     pos.Qty,
	}
	return funds, nil
}

func (a *Alpaca) Dispatch(ctx context.Context, ord order.Order) error {
	side := alpaca.Buy
	if ord.Action == order.Sell {
		side = alpaca.Sell
	}

	qty := ord.Quantity
	limitPrice := ord.LimitPrice
	placed, err := a.trading.PlaceOrder(alpaca.PlaceOrderRequest{
		Symbol:        a.symbol(),
		Qty:           &qty,
		Side:          side,
		Type:          alpaca.Limit,
		LimitPrice:    &limitPrice,
		TimeInForce:   alpaca.GTC,
		ClientOrderID: ord.ID,
	})
	if err != nil {
		slog.Error("place order failed",
			"platform", a.Name(),
			"side", side,
			"symbol", a.symbol(),
			"qty", qty,
			"error", err)
		return fmt.Errorf("%w: place order: %v", ErrFeed, err)
	}

	slog.Info("place order success",
		"platform", a.Name(),
		"order_id", placed.ID,
		"side", side,
		"symbol", a.symbol(),
		"qty", qty,
		"status", placed.Status)
	return nil
}
