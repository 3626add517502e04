// Package agent implements the trading decision engine: the three-status
// cycle that accumulates the coin when the price dips past the buy stops and
// liquidates when it climbs past the sell stops.
package agent

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"alex/internal/balance"
	"alex/internal/journal"
	"alex/internal/market"
	"alex/internal/order"
	"alex/internal/platform"
)

// Status is the agent's position in the trading cycle. InitialBuy and
// WaitingBuy run the same buy-phase handler and differ only in banner text.
type Status int

const (
	StatusInitialBuy Status = iota
	StatusWaitingBuy
	StatusWaitingSell
)

func (s Status) String() string {
	switch s {
	case StatusInitialBuy:
		return "initial-buy"
	case StatusWaitingBuy:
		return "waiting-buy"
	case StatusWaitingSell:
		return "waiting-sell"
	default:
		return "unknown"
	}
}

// State is the unit of persistence: everything needed to resume the agent
// except the live platform adapter, which is carried as its identifier and
// re-resolved on restore.
type State struct {
	Status           Status                   `json:"status"`
	StatusTitleShown bool                     `json:"status_title_shown"`
	Coin             string                   `json:"coin"`
	Live             bool                     `json:"live"`
	Platform         string                   `json:"platform"`
	SpendLimit       decimal.Decimal          `json:"spend_limit"`
	PollInterval     int                      `json:"poll_interval"`
	BuyStops         market.StopPair          `json:"buy_stops"`
	SellStops        market.StopPair          `json:"sell_stops"`
	Balances         map[string]balance.Funds `json:"balances"`
	Reference        *market.Snapshot         `json:"reference,omitempty"`
	First            *market.Snapshot         `json:"first,omitempty"`
}

// Config is what a fresh (non-resumed) agent starts from.
type Config struct {
	Coin         string
	Live         bool
	SpendLimit   decimal.Decimal
	PollInterval int
	BuyStops     market.StopPair
	SellStops    market.StopPair
	Status       Status
}

// Agent owns one State plus the live adapter and ledger. Exactly one tick
// runs at a time; nothing here is safe for concurrent use and nothing needs
// to be.
type Agent struct {
	platform platform.Platform
	ledger   *balance.Ledger
	journal  *journal.Journal

	status     Status
	titleShown bool
	coin       string
	live       bool
	spendLimit decimal.Decimal
	interval   int
	buyStops   market.StopPair
	sellStops  market.StopPair
	reference  *market.Snapshot
	first      *market.Snapshot
}

func New(cfg Config, p platform.Platform) *Agent {
	return &Agent{
		platform:   p,
		ledger:     balance.New(p.Assets()...),
		status:     cfg.Status,
		coin:       strings.ToLower(cfg.Coin),
		live:       cfg.Live,
		spendLimit: cfg.SpendLimit,
		interval:   cfg.PollInterval,
		buyStops:   cfg.BuyStops,
		sellStops:  cfg.SellStops,
	}
}

// Resume reconstructs an agent from a restored State and a re-attached
// platform adapter.
func Resume(st State, p platform.Platform) *Agent {
	a := &Agent{
		platform:   p,
		ledger:     balance.New(p.Assets()...),
		status:     st.Status,
		titleShown: st.StatusTitleShown,
		coin:       st.Coin,
		live:       st.Live,
		spendLimit: st.SpendLimit,
		interval:   st.PollInterval,
		buyStops:   st.BuyStops,
		sellStops:  st.SellStops,
		reference:  st.Reference,
		first:      st.First,
	}
	a.ledger.Load(st.Balances)
	return a
}

// State captures the full persistable state.
func (a *Agent) State() State {
	return State{
		Status:           a.status,
		StatusTitleShown: a.titleShown,
		Coin:             a.coin,
		Live:             a.live,
		Platform:         a.platform.Name(),
		SpendLimit:       a.spendLimit,
		PollInterval:     a.interval,
		BuyStops:         a.buyStops,
		SellStops:        a.sellStops,
		Balances:         a.ledger.Balances(),
		Reference:        a.reference,
		First:            a.first,
	}
}

func (a *Agent) Status() Status          { return a.status }
func (a *Agent) PollInterval() int       { return a.interval }
func (a *Agent) Ledger() *balance.Ledger { return a.ledger }

// AttachJournal enables the per-decision NDJSON journal. Optional; a nil
// journal means decisions are only logged.
func (a *Agent) AttachJournal(j *journal.Journal) { a.journal = j }

// SyncBalance replaces the ledger with the platform's account balance.
// Called once at startup or restore; a feed failure is logged and the
// ledger keeps its current values.
func (a *Agent) SyncBalance(ctx context.Context) {
	report, err := a.platform.AccountBalance(ctx)
	if err != nil {
		log.Printf("balance sync failed, keeping current ledger: %v", err)
		return
	}
	a.ledger.Load(report)
	for asset, funds := range a.ledger.Balances() {
		log.Printf("balance %s available=%s total=%s", asset, funds.Available, funds.Total)
	}
}

// Tick runs the current phase handler once. Feed failures are a logged
// no-op; only unexpected errors propagate to the driver boundary.
func (a *Agent) Tick(ctx context.Context) error {
	switch a.status {
	case StatusInitialBuy, StatusWaitingBuy:
		return a.buyPhase(ctx)
	case StatusWaitingSell:
		return a.sellPhase(ctx)
	default:
		return errors.New("unknown agent status")
	}
}

func (a *Agent) buyPhase(ctx context.Context) error {
	if !a.titleShown {
		if a.status == StatusInitialBuy {
			log.Printf("== first buy: watching %s for an entry (%s) ==", a.coin, a.buyStops)
		} else {
			log.Printf("== waiting to buy %s (%s) ==", a.coin, a.buyStops)
		}
		a.titleShown = true
	}

	cmp, ok, err := a.compare(ctx, a.buyStops)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if cmp.Primed {
		a.record(cmp, "primed", nil)
		return nil
	}

	log.Printf("%s", cmp.Message)
	if !cmp.Triggered {
		a.record(cmp, "hold", nil)
		return nil
	}

	// Buys execute at the ask side of the quote.
	ord, err := a.builder().Build(order.Buy, cmp.Current.Sell)
	if err != nil {
		return err
	}

	if !a.dispatch(ctx, ord) {
		a.record(cmp, "order_failed", &ord)
		return nil
	}
	a.record(cmp, a.dispatchResult(), &ord)

	if err := a.ledger.Credit(a.platform.Fiat(), ord.CashFlow); err != nil {
		return err
	}
	if err := a.ledger.Credit(a.coin, ord.Quantity); err != nil {
		return err
	}

	a.commitReference(cmp.Current)
	a.transition(StatusWaitingSell)
	return nil
}

func (a *Agent) sellPhase(ctx context.Context) error {
	if !a.titleShown {
		log.Printf("== waiting to sell %s (%s) ==", a.coin, a.sellStops)
		a.titleShown = true
	}

	cmp, ok, err := a.compare(ctx, a.sellStops)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if cmp.Primed {
		a.record(cmp, "primed", nil)
		return nil
	}

	log.Printf("%s", cmp.Message)
	if !cmp.Triggered {
		a.record(cmp, "hold", nil)
		return nil
	}

	// Sells execute at the bid side of the quote.
	ord, err := a.builder().Build(order.Sell, cmp.Current.Buy)
	if err != nil {
		return err
	}

	if !a.dispatch(ctx, ord) {
		a.record(cmp, "order_failed", &ord)
		return nil
	}
	a.record(cmp, a.dispatchResult(), &ord)

	if err := a.ledger.Credit(a.platform.Fiat(), ord.CashFlow); err != nil {
		return err
	}
	if err := a.ledger.Debit(a.coin, ord.Quantity); err != nil {
		return err
	}

	a.commitReference(cmp.Current)
	a.transition(StatusWaitingBuy)
	return nil
}

// compare fetches a fresh quote and classifies it against the stop pair.
// The bool result is false when this tick should be a no-op: a feed failure,
// or a quote with a non-positive price that must never reach the builder.
// Errors outside the feed class propagate to the driver boundary. A primed
// comparison adopts the quote as the baseline right here.
func (a *Agent) compare(ctx context.Context, stops market.StopPair) (market.Comparison, bool, error) {
	fresh, err := a.platform.Ticker(ctx)
	if err != nil {
		if errors.Is(err, platform.ErrFeed) {
			log.Printf("ticker unavailable, skipping tick: %v", err)
			return market.Comparison{}, false, nil
		}
		return market.Comparison{}, false, err
	}
	if !fresh.Valid() {
		log.Printf("ticker returned non-positive prices, skipping tick")
		return market.Comparison{}, false, nil
	}

	cmp := market.Compare(stops, a.reference, fresh)
	if cmp.Primed {
		log.Printf("%s", cmp.Message)
		a.commitReference(fresh)
	}
	return cmp, true, nil
}

func (a *Agent) builder() order.Builder {
	return order.Builder{
		Ledger:     a.ledger,
		Fiat:       a.platform.Fiat(),
		Coin:       a.coin,
		SpendLimit: a.spendLimit,
	}
}

// dispatch hands the order to the platform in live mode. Outside live mode
// it is a logged no-op that still reports success, so the cycle advances
// identically whether paper-trading or live. A live dispatch failure is
// logged and reported as not-sent: no settlement, no transition, and the
// same phase retries with a fresh comparison next tick.
func (a *Agent) dispatch(ctx context.Context, ord order.Order) bool {
	if !a.live {
		log.Printf("dry run: would %s %s %s at %s (cash flow %s)",
			ord.Action, ord.Quantity, a.coin, ord.LimitPrice, ord.CashFlow)
		return true
	}
	if err := a.platform.Dispatch(ctx, ord); err != nil {
		log.Printf("dispatch failed, retrying next tick: %v", err)
		return false
	}
	return true
}

func (a *Agent) dispatchResult() string {
	if a.live {
		return "order_sent"
	}
	return "dry_run"
}

func (a *Agent) record(cmp market.Comparison, result string, ord *order.Order) {
	if a.journal == nil {
		return
	}
	entry := journal.Entry{
		Timestamp:  time.Now().UTC(),
		Status:     a.status.String(),
		Last:       cmp.Current.Last,
		Difference: cmp.Difference,
		Triggered:  cmp.Triggered,
		Threshold:  cmp.Threshold,
		Result:     result,
	}
	if ord != nil {
		entry.OrderID = ord.ID
		entry.Action = string(ord.Action)
		entry.Quantity = ord.Quantity
		entry.LimitPrice = ord.LimitPrice
	}
	a.journal.Append(entry)
}

func (a *Agent) commitReference(snap market.Snapshot) {
	ref := snap
	a.reference = &ref
	if a.first == nil {
		first := snap
		a.first = &first
	}
}

func (a *Agent) transition(next Status) {
	log.Printf("status %s -> %s", a.status, next)
	a.status = next
	a.titleShown = false
}
