package payment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"salonbook/internal/config"
	"salonbook/internal/metrics"
	"salonbook/internal/models"
	"salonbook/internal/worker"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/paymentintent"
)

// IntentAPI is the subset of the Stripe payment intent client used here.
type IntentAPI interface {
	Get(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Capture(id string, params *stripe.PaymentIntentCaptureParams) (*stripe.PaymentIntent, error)
}

// StripeCapturer waits for the customer to pay a Stripe payment intent
// and captures it when the intent was created with manual capture.
type StripeCapturer struct {
	intents IntentAPI
	policy  worker.RetryPolicy
	timeout time.Duration
	logger  *zerolog.Logger
}

// NewStripeCapturer builds a capturer backed by the Stripe API.
func NewStripeCapturer(cfg config.PaymentConfig, logger *zerolog.Logger) *StripeCapturer {
	intents := &paymentintent.Client{B: stripe.GetBackend(stripe.APIBackend), Key: cfg.StripeSecretKey}
	poll := time.Duration(cfg.PollIntervalSeconds) * time.Second
	policy := worker.RetryPolicy{InitialDelay: poll, MaxDelay: 4 * poll, BackoffFactor: 1.5}
	return NewCapturer(intents, policy, time.Duration(cfg.CaptureTimeoutSeconds)*time.Second, logger)
}

func NewCapturer(intents IntentAPI, policy worker.RetryPolicy, timeout time.Duration, logger *zerolog.Logger) *StripeCapturer {
	if logger == nil {
		l := zerolog.Nop()
		logger = &l
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &StripeCapturer{intents: intents, policy: policy, timeout: timeout, logger: logger}
}

// Capture blocks until the intent reaches a terminal state. A returned error
// means the caller's context ended; every provider-side ending is a result.
func (c *StripeCapturer) Capture(ctx context.Context, req models.CaptureRequest) (models.CaptureResult, error) {
	if req.ProviderOrderID == "" {
		return c.finish(models.CaptureResult{Outcome: models.CaptureFailed, Reason: "missing provider order"}), nil
	}

	captureCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	l := c.logger.With().Str("provider_order_id", req.ProviderOrderID).Logger()

	var result models.CaptureResult
	err := c.policy.Poll(captureCtx, func(pctx context.Context, attempt int) (bool, error) {
		params := &stripe.PaymentIntentParams{}
		params.Context = pctx
		pi, err := c.intents.Get(req.ProviderOrderID, params)
		if err != nil {
			var serr *stripe.Error
			if errors.As(err, &serr) && serr.HTTPStatusCode == http.StatusNotFound {
				result = models.CaptureResult{Outcome: models.CaptureFailed, Reason: "payment not found"}
				return true, nil
			}
			l.Warn().Err(err).Int("attempt", attempt).Msg("payment status poll failed")
			return false, nil
		}

		if reason := mismatch(pi, req); reason != "" {
			result = models.CaptureResult{Outcome: models.CaptureFailed, Reason: reason}
			return true, nil
		}

		res, done := c.evaluate(pctx, pi)
		if done {
			result = res
		}
		return done, nil
	})

	if err != nil {
		if ctx.Err() != nil {
			return models.CaptureResult{}, ctx.Err()
		}
		l.Warn().Err(err).Msg("payment not settled in time")
		return c.finish(models.CaptureResult{Outcome: models.CaptureFailed, Reason: "payment was not completed in time"}), nil
	}
	return c.finish(result), nil
}

func (c *StripeCapturer) evaluate(ctx context.Context, pi *stripe.PaymentIntent) (models.CaptureResult, bool) {
	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		return models.CaptureResult{Outcome: models.CaptureCaptured, PaymentID: paymentID(pi)}, true

	case stripe.PaymentIntentStatusRequiresCapture:
		params := &stripe.PaymentIntentCaptureParams{}
		params.Context = ctx
		captured, err := c.intents.Capture(pi.ID, params)
		if err != nil {
			return models.CaptureResult{Outcome: models.CaptureFailed, Reason: fmt.Sprintf("capture failed: %v", err)}, true
		}
		if captured.Status != stripe.PaymentIntentStatusSucceeded {
			return models.CaptureResult{}, false
		}
		return models.CaptureResult{Outcome: models.CaptureCaptured, PaymentID: paymentID(captured)}, true

	case stripe.PaymentIntentStatusCanceled:
		reason := string(pi.CancellationReason)
		if reason == "" {
			reason = "payment cancelled"
		}
		return models.CaptureResult{Outcome: models.CaptureCancelled, Reason: reason}, true

	case stripe.PaymentIntentStatusRequiresPaymentMethod:
		// без ошибки клиент еще не начал оплату
		if pi.LastPaymentError != nil {
			return models.CaptureResult{Outcome: models.CaptureFailed, Reason: pi.LastPaymentError.Msg}, true
		}
	}
	return models.CaptureResult{}, false
}

func (c *StripeCapturer) finish(res models.CaptureResult) models.CaptureResult {
	metrics.IncPayment(string(res.Outcome))
	c.logger.Info().
		Str("outcome", string(res.Outcome)).
		Str("payment_id", res.PaymentID).
		Str("reason", res.Reason).
		Msg("payment settled")
	return res
}

func paymentID(pi *stripe.PaymentIntent) string {
	if pi.LatestCharge != nil && pi.LatestCharge.ID != "" {
		return pi.LatestCharge.ID
	}
	return pi.ID
}

// mismatch compares the intent with what the backend quoted. Stripe amounts
// are in minor units.
func mismatch(pi *stripe.PaymentIntent, req models.CaptureRequest) string {
	if req.Amount > 0 {
		want := int64(math.Round(req.Amount * 100))
		if pi.Amount != 0 && pi.Amount != want {
			return fmt.Sprintf("amount mismatch: expected %d, provider has %d", want, pi.Amount)
		}
	}
	if req.Currency != "" && pi.Currency != "" && !strings.EqualFold(string(pi.Currency), req.Currency) {
		return fmt.Sprintf("currency mismatch: expected %s, provider has %s", req.Currency, pi.Currency)
	}
	return ""
}
