// Package journal appends one NDJSON record per trading decision, so a run
// can be replayed or eyeballed after the fact without scraping the log.
package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

type Entry struct {
	Timestamp  time.Time       `json:"timestamp"`
	Status     string          `json:"status"`
	Last       decimal.Decimal `json:"last"`
	Difference decimal.Decimal `json:"difference"`
	Triggered  bool            `json:"triggered"`
	Threshold  int             `json:"threshold"`
	Result     string          `json:"result"`
	OrderID    string          `json:"order_id,omitempty"`
	Action     string          `json:"action,omitempty"`
	Quantity   decimal.Decimal `json:"quantity,omitempty"`
	LimitPrice decimal.Decimal `json:"limit_price,omitempty"`
}

type Journal struct {
	file   *os.File
	writer *bufio.Writer
	mu     sync.Mutex
}

func New(path string) (*Journal, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &Journal{
		file:   file,
		writer: bufio.NewWriter(file),
	}, nil
}

// Append writes one entry. Journal failures never disturb the trading loop;
// they go to stderr and the entry is dropped.
func (j *Journal) Append(entry Entry) {
	j.mu.Lock()
	defer j.mu.Unlock()
	payload, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to marshal journal entry: %v\n", err)
		return
	}
	if _, err := j.writer.Write(append(payload, '\n')); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write journal entry: %v\n", err)
		return
	}
	if err := j.writer.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to flush journal: %v\n", err)
	}
}

func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.writer.Flush(); err != nil {
		_ = j.file.Close()
		return err
	}
	return j.file.Close()
}
