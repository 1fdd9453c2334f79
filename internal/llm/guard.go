package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"resume-analyzer/internal/shared/telemetry"
)

// ErrCircuitOpen is returned while the breaker rejects calls to the provider.
var ErrCircuitOpen = errors.New("llm circuit breaker open")

const defaultRetryDelay = 300 * time.Millisecond

// GuardConfig configures the breaker and retry policy around a Client.
type GuardConfig struct {
	Name         string
	Enabled      bool
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	MinRequests  uint32
	FailureRatio float64
	RetryDelay   time.Duration
}

// Guard wraps a Client with a circuit breaker and a single retry on transient errors.
type Guard struct {
	base       Client
	cb         *gobreaker.CircuitBreaker[json.RawMessage]
	retryDelay time.Duration
}

// NewGuard wraps base. With cfg.Enabled false only the retry applies.
func NewGuard(base Client, cfg GuardConfig) *Guard {
	g := &Guard{base: base, retryDelay: cfg.RetryDelay}
	if g.retryDelay <= 0 {
		g.retryDelay = defaultRetryDelay
	}
	if !cfg.Enabled {
		return g
	}

	name := cfg.Name
	if name == "" {
		name = "llm"
	}
	minRequests := cfg.MinRequests
	if minRequests == 0 {
		minRequests = 1
	}
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests == 0 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= minRequests && failureRatio >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			telemetry.Warn("llm.breaker_state_changed", map[string]any{
				"name": name,
				"from": from.String(),
				"to":   to.String(),
			})
		},
		// Cancellation by the caller says nothing about provider health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	}
	g.cb = gobreaker.NewCircuitBreaker[json.RawMessage](settings)
	return g
}

// AnalyzeResume calls the wrapped client under breaker protection.
func (g *Guard) AnalyzeResume(ctx context.Context, input AnalyzeInput) (json.RawMessage, error) {
	call := func() (json.RawMessage, error) {
		return g.withRetry(ctx, input)
	}
	if g.cb == nil {
		return call()
	}
	raw, err := g.cb.Execute(call)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
	}
	return raw, err
}

// State reports the breaker state: closed, half-open, open or disabled.
func (g *Guard) State() string {
	if g == nil || g.cb == nil {
		return "disabled"
	}
	return g.cb.State().String()
}

func (g *Guard) withRetry(ctx context.Context, input AnalyzeInput) (json.RawMessage, error) {
	resp, err := g.base.AnalyzeResume(ctx, input)
	if err == nil || !shouldRetry(err) || ctx.Err() != nil {
		return resp, err
	}

	telemetry.Warn("llm.retry", map[string]any{"attempt": 1, "error": err})
	select {
	case <-time.After(g.retryDelay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return g.base.AnalyzeResume(ctx, input)
}

func shouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotImplemented) || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "http status 5") || strings.Contains(msg, "http status 429") || strings.Contains(msg, "server_error") {
		return true
	}
	if strings.Contains(msg, "timeout") {
		return true
	}
	return strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection closed") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "unexpected eof")
}

var _ Client = (*Guard)(nil)
