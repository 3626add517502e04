package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"alex/internal/agent"
	"alex/internal/config"
	"alex/internal/journal"
	"alex/internal/platform"
	"alex/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	a, err := buildAgent(cfg)
	if err != nil {
		log.Fatalf("startup error: %v", err)
	}

	if cfg.JournalPath != "" {
		j, err := journal.New(cfg.JournalPath)
		if err != nil {
			log.Fatalf("journal error: %v", err)
		}
		defer func() {
			if err := j.Close(); err != nil {
				log.Printf("failed to close journal: %v", err)
			}
		}()
		a.AttachJournal(j)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signalChan
		log.Printf("shutdown signal received")
		cancel()
	}()

	log.Printf("starting agent status=%s platform=%s live=%v interval=%ds",
		a.Status(), a.State().Platform, a.State().Live, a.PollInterval())

	run(ctx, a)

	if err := session.Save(cfg.SessionPath, a.State()); err != nil {
		log.Printf("failed to save session: %v", err)
	} else {
		log.Printf("session saved to %s", cfg.SessionPath)
	}
	log.Printf("agent shutdown complete")
}

// run executes ticks strictly one at a time until the context is cancelled.
// A tick error is logged and the loop proceeds on schedule. The shutdown
// signal only interrupts the sleep: a tick already in progress runs to
// completion, which is why ticks get a fresh background context instead of
// the cancellable one.
func run(ctx context.Context, a *agent.Agent) {
	interval := time.Duration(a.PollInterval()) * time.Second
	for {
		if err := a.Tick(context.Background()); err != nil {
			log.Printf("tick failed: %v", err)
		}
		if err := waitForContext(ctx, interval); err != nil {
			return
		}
	}
}

func waitForContext(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// buildAgent either restores the last saved session or wires a fresh agent
// from the flags. Session and configuration failures are fatal here, before
// the loop ever starts.
func buildAgent(cfg config.Config) (*agent.Agent, error) {
	if cfg.Resume {
		st, err := session.Restore(cfg.SessionPath)
		if err != nil {
			return nil, err
		}
		p, err := platform.New(st.Platform, st.Coin)
		if err != nil {
			return nil, err
		}
		log.Printf("resumed session from %s", cfg.SessionPath)
		return agent.Resume(st, p), nil
	}

	p, err := platform.New(cfg.Platform, cfg.Coin)
	if err != nil {
		return nil, err
	}

	status := agent.StatusInitialBuy
	if cfg.Status >= 0 {
		status = agent.Status(cfg.Status)
	}

	a := agent.New(agent.Config{
		Coin:         cfg.Coin,
		Live:         cfg.Live,
		SpendLimit:   cfg.SpendLimit,
		PollInterval: cfg.PollInterval,
		BuyStops:     cfg.BuyStops,
		SellStops:    cfg.SellStops,
		Status:       status,
	}, p)

	a.SyncBalance(context.Background())

	return a, nil
}
