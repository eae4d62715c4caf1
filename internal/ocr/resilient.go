package ocr

import (
	"context"
	"image"
	"log/slog"

	"gamewatcher/internal/resilience"
)

// Resilient wraps an engine with retry and circuit breaking so a
// flaky OCR backend degrades the pipeline instead of stalling it.
type Resilient struct {
	inner   Engine
	retry   resilience.RetryConfig
	breaker *resilience.Breaker
}

// WithResilience decorates an engine with retry and a circuit breaker.
func WithResilience(inner Engine, retry resilience.RetryConfig, cb resilience.Config) *Resilient {
	breaker := resilience.New(cb).WithHook(func(from, to resilience.State) {
		if to == resilience.Open {
			slog.Warn("OCR backend unavailable, dropping reads until it recovers", "engine", inner.Name())
			return
		}
		slog.Info("OCR circuit state changed", "engine", inner.Name(), "from", from.String(), "to", to.String())
	})
	return &Resilient{
		inner:   inner,
		retry:   retry,
		breaker: breaker,
	}
}

func (r *Resilient) Name() string { return r.inner.Name() }

// Breaker exposes the circuit state for status reporting.
func (r *Resilient) Breaker() *resilience.Breaker { return r.breaker }

// Recognize calls the inner engine with retries. Repeated failures
// open the breaker and fail fast until the reset timeout passes.
func (r *Resilient) Recognize(ctx context.Context, img image.Image) (string, error) {
	var text string
	err := resilience.Retry(ctx, r.retry, func() error {
		var err error
		text, err = resilience.ExecuteWithResult(r.breaker, func() (string, error) {
			return r.inner.Recognize(ctx, img)
		})
		return err
	})
	return text, err
}
