package config

import (
	"flag"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"alex/internal/market"
)

type Config struct {
	Coin         string
	Platform     string
	Live         bool
	SpendLimit   decimal.Decimal
	PollInterval int
	BuyStops     market.StopPair
	SellStops    market.StopPair
	Status       int // initial status override, -1 for none
	Resume       bool
	SessionPath  string
	JournalPath  string
}

func Load() (Config, error) {
	var cfg Config
	var spendLimit string
	var buyStops string
	var sellStops string

	// Platform credentials (TAPI / Alpaca keys) live in the environment;
	// a .env file is a convenience, not a requirement.
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using system environment variables")
	}

	flag.StringVar(&cfg.Coin, "coin", "BTC", "coin symbol to trade")
	flag.StringVar(&cfg.Platform, "platform", "default", "platform identifier: default, mercadobitcoin or alpaca")
	flag.BoolVar(&cfg.Live, "live", false, "actually dispatch orders to the platform")
	flag.StringVar(&spendLimit, "spend-limit", "0", "max fiat per buy order, 0 for unlimited")
	flag.IntVar(&cfg.PollInterval, "interval", 60, "seconds between ticks")
	flag.StringVar(&buyStops, "buy-stops", "1.5,-3", "buy stop pair: upper,lower percents")
	flag.StringVar(&sellStops, "sell-stops", "3,-5", "sell stop pair: upper,lower percents")
	flag.IntVar(&cfg.Status, "status", -1, "initial status override: 0 initial-buy, 1 waiting-buy, 2 waiting-sell")
	flag.BoolVar(&cfg.Resume, "resume", false, "resume the last saved session, ignoring the other flags")
	flag.StringVar(&cfg.SessionPath, "session-path", "session.json", "path to the session file")
	flag.StringVar(&cfg.JournalPath, "journal-path", "decisions.ndjson", "path to the decision journal, empty to disable")
	flag.Parse()

	var err error
	if cfg.SpendLimit, err = decimal.NewFromString(spendLimit); err != nil {
		return cfg, fmt.Errorf("spend-limit: %w", err)
	}
	if cfg.BuyStops, err = market.ParseStopPair(buyStops); err != nil {
		return cfg, fmt.Errorf("buy-stops: %w", err)
	}
	if cfg.SellStops, err = market.ParseStopPair(sellStops); err != nil {
		return cfg, fmt.Errorf("sell-stops: %w", err)
	}

	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	if cfg.Coin == "" {
		return fmt.Errorf("coin must not be empty")
	}
	if cfg.PollInterval <= 0 {
		return fmt.Errorf("interval must be > 0")
	}
	if cfg.Status < -1 || cfg.Status > 2 {
		return fmt.Errorf("invalid status override: %d", cfg.Status)
	}
	if cfg.SpendLimit.IsNegative() {
		return fmt.Errorf("spend-limit must be >= 0")
	}
	return nil
}
