package notifier

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type notifierFunc func(ctx context.Context, msg VerificationMessage) error

func (f notifierFunc) SendVerification(ctx context.Context, msg VerificationMessage) error {
	return f(ctx, msg)
}

func newTestDispatcher(t *testing.T, n Notifier, timeout time.Duration) (*Dispatcher, *Metrics) {
	t.Helper()

	logger := zerolog.Nop()
	metrics := NewMetrics(prometheus.NewRegistry())
	return NewDispatcher(n, timeout, &logger, metrics), metrics
}

func TestDispatcher_Sent(t *testing.T) {
	var got VerificationMessage
	d, metrics := newTestDispatcher(t, notifierFunc(func(_ context.Context, msg VerificationMessage) error {
		got = msg
		return nil
	}), time.Second)
	defer d.Close()

	msg := VerificationMessage{AccountID: "acc-1", To: "a@x.com", Link: "http://x/verify/abc"}
	require.NoError(t, d.Dispatch(context.Background(), msg))

	assert.Equal(t, msg, got)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Deliveries.WithLabelValues(outcomeSent)))
}

func TestDispatcher_Failed(t *testing.T) {
	smtpErr := errors.New("connection refused")
	d, metrics := newTestDispatcher(t, notifierFunc(func(context.Context, VerificationMessage) error {
		return smtpErr
	}), time.Second)
	defer d.Close()

	err := d.Dispatch(context.Background(), VerificationMessage{AccountID: "acc-1"})

	assert.ErrorIs(t, err, ErrDeliveryFailed)
	assert.ErrorIs(t, err, smtpErr)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Deliveries.WithLabelValues(outcomeFailed)))
}

func TestDispatcher_TimeoutIsBounded(t *testing.T) {
	release := make(chan struct{})
	d, metrics := newTestDispatcher(t, notifierFunc(func(context.Context, VerificationMessage) error {
		<-release
		return nil
	}), 20*time.Millisecond)

	start := time.Now()
	err := d.Dispatch(context.Background(), VerificationMessage{AccountID: "acc-1"})

	assert.ErrorIs(t, err, ErrDeliveryTimeout)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Deliveries.WithLabelValues(outcomeTimeout)))

	close(release)
	d.Close()

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Deliveries.WithLabelValues(outcomeLate)))
}

func TestDispatcher_DetachedFromCallerCancellation(t *testing.T) {
	d, _ := newTestDispatcher(t, notifierFunc(func(ctx context.Context, _ VerificationMessage) error {
		return ctx.Err()
	}), time.Second)
	defer d.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, d.Dispatch(ctx, VerificationMessage{AccountID: "acc-1"}))
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	err := NewLogNotifier(&logger).SendVerification(context.Background(), VerificationMessage{
		AccountID: "acc-1",
		To:        "a@x.com",
		Link:      "http://localhost/verify-user/abc",
	})

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "http://localhost/verify-user/abc")
}

func TestRenderVerificationEmail(t *testing.T) {
	htmlBody, textBody := renderVerificationEmail(VerificationMessage{
		FirstName: "Ada",
		Link:      "http://localhost/verify-user/a&b",
		ExpiresIn: 10 * time.Minute,
	})

	assert.Contains(t, htmlBody, "Hi Ada")
	assert.Contains(t, htmlBody, "a&amp;b")
	assert.Contains(t, htmlBody, "10m0s")
	assert.Contains(t, textBody, "http://localhost/verify-user/a&b")
}
