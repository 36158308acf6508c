package notifier

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

var (
	ErrDeliveryFailed  = errors.New("verification message delivery failed")
	ErrDeliveryTimeout = errors.New("verification message delivery timed out")
)

const (
	outcomeSent    = "sent"
	outcomeFailed  = "failed"
	outcomeTimeout = "timeout"
	outcomeLate    = "late_sent"
)

// Metrics contains the Prometheus metrics recorded for verification deliveries.
type Metrics struct {
	Deliveries       *prometheus.CounterVec
	DeliveryDuration prometheus.Histogram
}

// NewMetrics creates and registers delivery metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Deliveries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_verification_deliveries_total",
				Help: "Total number of verification message deliveries by outcome",
			},
			[]string{"outcome"},
		),
		DeliveryDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "auth_verification_delivery_duration_seconds",
				Help:    "Time spent delivering verification messages",
				Buckets: prometheus.DefBuckets,
			},
		),
	}

	reg.MustRegister(m.Deliveries, m.DeliveryDuration)

	return m
}

// Dispatcher calls a Notifier with a bounded wait and records every outcome.
type Dispatcher struct {
	notifier Notifier
	timeout  time.Duration
	logger   *zerolog.Logger
	metrics  *Metrics
	wg       sync.WaitGroup
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(n Notifier, timeout time.Duration, logger *zerolog.Logger, metrics *Metrics) *Dispatcher {
	return &Dispatcher{
		notifier: n,
		timeout:  timeout,
		logger:   logger,
		metrics:  metrics,
	}
}

// Dispatch sends msg and waits at most the dispatcher timeout. The send is detached
// from ctx cancellation so an aborted request does not abort delivery. A send still
// running after the timeout keeps going and its outcome is logged when it finishes.
// The returned error wraps ErrDeliveryFailed or ErrDeliveryTimeout.
func (d *Dispatcher) Dispatch(ctx context.Context, msg VerificationMessage) error {
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)

	start := time.Now()
	done := make(chan error, 1)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		done <- d.notifier.SendVerification(sendCtx, msg)
	}()

	timer := time.NewTimer(d.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		cancel()
		d.metrics.DeliveryDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			d.record(outcomeFailed, msg, err)
			return fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
		}
		d.record(outcomeSent, msg, nil)
		return nil

	case <-timer.C:
		d.record(outcomeTimeout, msg, nil)

		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			defer cancel()
			err := <-done
			d.metrics.DeliveryDuration.Observe(time.Since(start).Seconds())
			if err != nil {
				d.record(outcomeFailed, msg, err)
				return
			}
			d.record(outcomeLate, msg, nil)
		}()

		return fmt.Errorf("%w after %s", ErrDeliveryTimeout, d.timeout)
	}
}

// Close waits for deliveries that outlived their Dispatch call.
func (d *Dispatcher) Close() {
	d.wg.Wait()
}

func (d *Dispatcher) record(outcome string, msg VerificationMessage, err error) {
	d.metrics.Deliveries.WithLabelValues(outcome).Inc()

	event := d.logger.Info()
	switch outcome {
	case outcomeFailed:
		event = d.logger.Error().Err(err)
	case outcomeTimeout:
		event = d.logger.Warn().Dur("timeout", d.timeout)
	}

	event.
		Str("account_id", msg.AccountID).
		Str("outcome", outcome).
		Msg("verification message delivery")
}
