// Package failover wraps every call into the external generation service with
// a bounded-retry, fallback-substitution protocol. A generation problem never
// escapes as an error: callers receive an explicit Outcome and substitute
// their domain-specific default when FallbackUsed is set.
package failover

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/persona-engine/internal/llm"
	"github.com/jonathan/persona-engine/internal/observability"
)

// Operation identifies one generation operation kind.
type Operation string

// The three generation operations the engine performs.
const (
	OpAxisGeneration     Operation = "axis-generation"
	OpScenarioGeneration Operation = "scenario-generation"
	OpTypeNaming         Operation = "type-naming"
)

// Failure codes carried on fallback outcomes.
const (
	FailureTimeout       = "TIMEOUT"
	FailureCancelled     = "CANCELLED"
	FailureServiceError  = "SERVICE_ERROR"
	FailureInvalidOutput = "INVALID_OUTPUT"
)

const (
	// defaultTimeout bounds each individual service attempt.
	defaultTimeout = 5 * time.Second
	// defaultBackoff is the wait between the failed first attempt and the retry.
	defaultBackoff = 500 * time.Millisecond
)

// Request describes one generation call.
type Request struct {
	Operation Operation
	SessionID uuid.UUID
	Prompt    string
	Tier      llm.ModelTier

	// Validate runs on a successful response. A validation failure consumes
	// the same single retry budget as a transport failure.
	Validate func(raw string) error
}

// Outcome is the terminal result of an Invoke call. When FallbackUsed is set,
// Raw is empty and the caller substitutes its deterministic default resource.
type Outcome struct {
	Raw          string
	RetryCount   int
	FallbackUsed bool
	FailureCode  string
	Latency      time.Duration
}

// Orchestrator mediates all generation-service calls. It holds no per-call
// state beyond the shared client, so it is safe for concurrent sessions.
type Orchestrator struct {
	client    llm.Client
	collector *observability.Collector
	timeout   time.Duration
	backoff   time.Duration
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithTimeout overrides the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.timeout = d }
}

// WithBackoff overrides the wait before the retry attempt.
func WithBackoff(d time.Duration) Option {
	return func(o *Orchestrator) { o.backoff = d }
}

// New creates an orchestrator over the given generation client.
// collector may be nil; outcome records are then dropped.
func New(client llm.Client, collector *observability.Collector, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		client:    client,
		collector: collector,
		timeout:   defaultTimeout,
		backoff:   defaultBackoff,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Invoke calls the generation service with one bounded retry. The retry budget
// is shared between transport failures and validation failures. Cancellation
// is treated identically to a timeout: it consumes the budget, then the call
// falls back, keeping behavior deterministic.
func (o *Orchestrator) Invoke(ctx context.Context, req Request) Outcome {
	start := time.Now()

	var failureCode string
	retries := 0

	for attempt := 0; attempt <= 1; attempt++ {
		if attempt > 0 {
			retries = 1
			if !o.waitBackoff(ctx) {
				failureCode = FailureCancelled
				break
			}
		}

		raw, err := o.attempt(ctx, req)
		if err != nil {
			failureCode = classifyFailure(err)
			continue
		}

		if req.Validate != nil {
			if err := req.Validate(raw); err != nil {
				failureCode = FailureInvalidOutput
				continue
			}
		}

		out := Outcome{Raw: raw, RetryCount: retries, Latency: time.Since(start)}
		o.emit(req, out)
		return out
	}

	out := Outcome{
		RetryCount:   retries,
		FallbackUsed: true,
		FailureCode:  failureCode,
		Latency:      time.Since(start),
	}
	o.emit(req, out)
	return out
}

// attempt performs a single service call under the per-attempt timeout.
func (o *Orchestrator) attempt(ctx context.Context, req Request) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	return o.client.GenerateJSON(attemptCtx, req.Prompt, req.Tier)
}

// waitBackoff sleeps for the backoff interval, returning false when the
// session was cancelled while waiting.
func (o *Orchestrator) waitBackoff(ctx context.Context) bool {
	timer := time.NewTimer(o.backoff)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func (o *Orchestrator) emit(req Request, out Outcome) {
	if o.collector == nil {
		return
	}
	o.collector.Record(observability.GenerationRecord{
		Operation:    string(req.Operation),
		SessionID:    req.SessionID,
		RetryCount:   out.RetryCount,
		FallbackUsed: out.FallbackUsed,
		FailureCode:  out.FailureCode,
		Latency:      out.Latency,
	})
}

func classifyFailure(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return FailureTimeout
	case errors.Is(err, context.Canceled):
		return FailureCancelled
	default:
		return FailureServiceError
	}
}
