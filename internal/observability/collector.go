// Package observability aggregates generation outcome records from concurrent
// sessions through a single writer goroutine and emits them as JSON lines.
package observability

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
)

// GenerationRecord is the structured record emitted for every terminal
// generation outcome (success, retried success, or fallback).
type GenerationRecord struct {
	Operation    string        `json:"operation"`
	SessionID    uuid.UUID     `json:"session_id"`
	RetryCount   int           `json:"retry_count"`
	FallbackUsed bool          `json:"fallback_used"`
	FailureCode  string        `json:"failure_code,omitempty"`
	Latency      time.Duration `json:"-"`
	LatencyMS    int64         `json:"latency_ms"`
	Timestamp    time.Time     `json:"timestamp"`
}

// OperationStats aggregates counters for one generation operation.
type OperationStats struct {
	Calls     int64 `json:"calls"`
	Retries   int64 `json:"retries"`
	Fallbacks int64 `json:"fallbacks"`
}

// Snapshot is a point-in-time copy of the collector's counters.
type Snapshot struct {
	Records      int64                     `json:"records"`
	Retries      int64                     `json:"retries"`
	Fallbacks    int64                     `json:"fallbacks"`
	ByOperation  map[string]OperationStats `json:"by_operation"`
	LastFailure  string                    `json:"last_failure,omitempty"`
	LastRecorded time.Time                 `json:"last_recorded,omitempty"`
}

// Collector receives generation records over a channel and aggregates them in
// a single goroutine, so counter updates are never lost under concurrent
// sessions. Records are additionally written to out as JSON lines.
type Collector struct {
	ch   chan GenerationRecord
	out  io.Writer
	done chan struct{}

	mu    sync.RWMutex // guards stats; written only by the run goroutine
	stats Snapshot
}

// NewCollector starts a collector writing JSON-line records to out.
// out may be nil to aggregate counters without emission.
func NewCollector(out io.Writer) *Collector {
	c := &Collector{
		ch:   make(chan GenerationRecord, 256),
		out:  out,
		done: make(chan struct{}),
	}
	c.stats.ByOperation = make(map[string]OperationStats)
	go c.run()
	return c
}

// Record submits one generation record. Blocks only if the buffer is full,
// which keeps the no-lost-updates guarantee.
func (c *Collector) Record(rec GenerationRecord) {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	rec.LatencyMS = rec.Latency.Milliseconds()
	c.ch <- rec
}

// Stats returns a copy of the current aggregate counters.
func (c *Collector) Stats() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := c.stats
	out.ByOperation = make(map[string]OperationStats, len(c.stats.ByOperation))
	for op, s := range c.stats.ByOperation {
		out.ByOperation[op] = s
	}
	return out
}

// Close stops the collector after draining pending records.
func (c *Collector) Close() {
	close(c.ch)
	<-c.done
}

func (c *Collector) run() {
	defer close(c.done)
	for rec := range c.ch {
		c.mu.Lock()
		c.stats.Records++
		c.stats.Retries += int64(rec.RetryCount)
		if rec.FallbackUsed {
			c.stats.Fallbacks++
		}
		if rec.FailureCode != "" {
			c.stats.LastFailure = rec.FailureCode
		}
		c.stats.LastRecorded = rec.Timestamp

		opStats := c.stats.ByOperation[rec.Operation]
		opStats.Calls++
		opStats.Retries += int64(rec.RetryCount)
		if rec.FallbackUsed {
			opStats.Fallbacks++
		}
		c.stats.ByOperation[rec.Operation] = opStats
		c.mu.Unlock()

		if c.out != nil {
			line, err := json.Marshal(rec)
			if err == nil {
				_, _ = c.out.Write(append(line, '\n'))
			}
		}
	}
}
