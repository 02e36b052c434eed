package booking

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"salonbook/internal/api"
	"salonbook/internal/domain"
	"salonbook/internal/events"
	"salonbook/internal/metrics"
	"salonbook/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Orchestrator reconciles a ready selection with the backend and commits
// the booking, paying online first when asked to.
type Orchestrator struct {
	backend     domain.BookingBackend
	capturer    domain.PaymentCapturer
	events      domain.EventPublisher
	currency    string
	stepTimeout time.Duration
	logger      *zerolog.Logger
	newKey      func() string
	prompt      PaymentPrompt
}

// PaymentPrompt is told where the customer should pay once the online order
// exists. Capture starts right after it returns.
type PaymentPrompt func(chatID int64, orderID, paymentURL string)

func NewOrchestrator(backend domain.BookingBackend, capturer domain.PaymentCapturer, publisher domain.EventPublisher, currency string, stepTimeout time.Duration, logger *zerolog.Logger) *Orchestrator {
	if logger == nil {
		l := zerolog.Nop()
		logger = &l
	}
	if stepTimeout <= 0 {
		stepTimeout = 15 * time.Second
	}
	if currency == "" {
		currency = models.DefaultCurrency
	}
	return &Orchestrator{
		backend:     backend,
		capturer:    capturer,
		events:      publisher,
		currency:    currency,
		stepTimeout: stepTimeout,
		logger:      logger,
		newKey:      uuid.NewString,
	}
}

// SetPaymentPrompt installs the hook that shows the payment page to the customer.
func (o *Orchestrator) SetPaymentPrompt(p PaymentPrompt) {
	o.prompt = p
}

// Book runs the booking sequence for w. On success the selection is Booked
// and fresh availability has been loaded. Every failure is an *Error.
func (o *Orchestrator) Book(ctx context.Context, w *Workflow, token, method string) (*models.Appointment, error) {
	if err := w.acquire(); err != nil {
		return nil, err
	}
	defer w.release()

	sel := w.Selection()
	if !sel.Ready() {
		return nil, validationf(ErrIncomplete, "choose a date, time and staff before booking")
	}
	if strings.TrimSpace(token) == "" {
		return nil, &Error{Kind: KindUnauthenticated, Msg: "please log in to book"}
	}

	pm, ok := models.ParsePaymentMethod(method)
	if !ok {
		return nil, validationf(ErrPaymentMethod, "unsupported payment method %q", method)
	}

	key := w.attemptKey(o.newKey)
	prev := w.currentAttempt()
	if prev.paid.captured() && pm != models.PaymentOnline {
		// уже оплачено онлайн, повтор записываем как онлайн
		pm = models.PaymentOnline
	}

	l := o.logger.With().
		Int64("chat_id", w.ChatID).
		Str("salon_id", w.salon.SalonID).
		Str("date", sel.Date).
		Str("time", sel.Time).
		Str("staff", sel.Staff).
		Str("payment_method", string(pm)).
		Str("idempotency_key", key).
		Logger()

	customer, err := o.me(ctx, token)
	if err != nil {
		o.count(pm, err)
		return nil, err
	}

	paid := prev.paid
	switch {
	case pm == models.PaymentCash && !prev.cashIntent:
		if _, err := o.createIntent(ctx, token, w, customer, pm); err != nil {
			o.count(pm, err)
			return nil, err
		}
		w.markCashIntent()
	case pm == models.PaymentOnline && paid.captured():
		l.Info().Str("payment_id", paid.paymentID).Msg("retrying commit with captured payment")
	case pm == models.PaymentOnline:
		if !customer.Complete() {
			err := validationf(ErrProfileIncomplete, "name, email and mobile number are required for online payment")
			o.count(pm, err)
			return nil, err
		}
		if err := o.verify(ctx, w, token, sel, StateDateChosen); err != nil {
			l.Info().Err(err).Msg("slot lost before payment")
			o.count(pm, err)
			return nil, err
		}
		paid, err = o.pay(ctx, w, token, customer)
		if err != nil {
			l.Info().Err(err).Msg("online payment did not complete")
			o.publish(events.EventPaymentAborted, w, sel, pm, "", err.Error(), payment{})
			o.count(pm, err)
			return nil, err
		}
		w.markPaid(paid)
	}

	if err := o.verify(ctx, w, token, sel, StateTimeChosen); err != nil {
		l.Warn().Err(err).Msg("slot lost before commit")
		err = o.strand(w, sel, paid, err, &l)
		o.count(pm, err)
		return nil, err
	}

	apt, err := o.commit(ctx, w, token, sel, customer, pm, paid, key)
	if err != nil {
		l.Warn().Err(err).Msg("booking rejected")
		err = o.strand(w, sel, paid, err, &l)
		o.count(pm, err)
		return nil, err
	}

	if err := w.transition(MarkBooked()); err != nil {
		return nil, err
	}
	if err := w.refreshQuietly(ctx, token); err != nil {
		l.Warn().Err(err).Msg("availability refresh after booking failed")
	}

	metrics.IncBooking(string(pm), "booked")
	o.publish(events.EventBookingCommitted, w, sel, pm, apt.ID, "", paid)
	l.Info().Str("appointment_id", apt.ID).Msg("booking committed")
	return apt, nil
}

// strand reports a captured payment whose booking was refused. The event
// carries the provider ids so the charge can be refunded. A network failure
// that kept the selection is not final: the retry reuses the payment.
func (o *Orchestrator) strand(w *Workflow, sel Selection, paid payment, cause error, l *zerolog.Logger) error {
	if !paid.captured() {
		return cause
	}
	if KindOf(cause) == KindNetwork && w.Selection().State == StateReadyToBook {
		return cause
	}
	w.markPaid(payment{})
	l.Error().Err(cause).Str("payment_id", paid.paymentID).Str("order_id", paid.orderID).Msg("payment captured but booking not made")
	o.publish(events.EventPaymentUnbooked, w, sel, models.PaymentOnline, "", cause.Error(), paid)
	return &Error{Kind: KindOf(cause), Err: cause, Cause: ErrPaidNotBooked}
}

type payment struct {
	orderID   string
	paymentID string
}

func (p payment) captured() bool { return p.orderID != "" }

func (o *Orchestrator) me(ctx context.Context, token string) (*models.Customer, error) {
	sctx, cancel := context.WithTimeout(ctx, o.stepTimeout)
	defer cancel()
	customer, err := o.backend.Me(sctx, token)
	if err != nil {
		return nil, classify(err, "could not load your profile")
	}
	return customer, nil
}

func (o *Orchestrator) createIntent(ctx context.Context, token string, w *Workflow, c *models.Customer, pm models.PaymentMethod) (*models.PaymentIntent, error) {
	sctx, cancel := context.WithTimeout(ctx, o.stepTimeout)
	defer cancel()
	intent, err := o.backend.CreatePaymentIntent(sctx, token, models.PaymentIntentRequest{
		SalonID:       w.salon.SalonID,
		Amount:        w.service.Price,
		Currency:      o.currency,
		CustomerID:    c.CustomerID,
		CustomerName:  c.DisplayName(),
		CustomerPhone: c.MobileNumber,
		Location:      w.salon.Location,
		Services:      []models.Service{w.service},
		PaymentMethod: pm,
	})
	if err != nil {
		return nil, classify(err, "could not create payment order")
	}
	return intent, nil
}

// pay creates the online order and waits for the provider. Selection is
// left as is when the customer does not complete the payment.
func (o *Orchestrator) pay(ctx context.Context, w *Workflow, token string, c *models.Customer) (payment, error) {
	intent, err := o.createIntent(ctx, token, w, c, models.PaymentOnline)
	if err != nil {
		return payment{}, err
	}
	orderID := intent.ProviderOrderID
	if orderID == "" {
		orderID = intent.Order.ID
	}
	if orderID == "" {
		return payment{}, &Error{Kind: KindNetwork, Msg: "payment order was not created"}
	}
	if o.prompt != nil {
		o.prompt(w.ChatID, orderID, intent.Order.PaymentURL)
	}

	res, err := o.capturer.Capture(ctx, models.CaptureRequest{
		ProviderOrderID: orderID,
		Amount:          w.service.Price,
		Currency:        o.currency,
	})
	if err != nil {
		return payment{}, &Error{Kind: KindPaymentAborted, Msg: "payment was interrupted", Err: err, Cause: ErrPaymentInterrupted}
	}
	if res.Outcome != models.CaptureCaptured {
		msg := "payment was cancelled"
		if res.Outcome == models.CaptureFailed {
			msg = "payment failed"
		}
		if res.Reason != "" {
			msg = fmt.Sprintf("%s: %s", msg, res.Reason)
		}
		return payment{}, &Error{Kind: KindPaymentAborted, Msg: msg}
	}
	return payment{orderID: orderID, paymentID: res.PaymentID}, nil
}

// verify re-checks the selected slot. On conflict availability is refreshed
// and the selection is reverted to the given state.
func (o *Orchestrator) verify(ctx context.Context, w *Workflow, token string, sel Selection, revertTo State) error {
	slot, err := w.resolver.Check(ctx, token, models.SlotQuery{
		SalonID:  w.salon.SalonID,
		Category: w.service.Category,
		Date:     sel.Date,
		Time:     sel.Time,
	})
	if err != nil {
		return err
	}
	if slot.Available && slot.HasStaff(sel.Staff) {
		return nil
	}

	o.publish(events.EventBookingConflict, w, sel, "", "", "slot no longer available", payment{})
	o.revert(ctx, w, token, revertTo)
	return conflict(fmt.Sprintf("%s at %s is no longer available", sel.Staff, sel.Time))
}

func (o *Orchestrator) commit(ctx context.Context, w *Workflow, token string, sel Selection, c *models.Customer, pm models.PaymentMethod, paid payment, key string) (*models.Appointment, error) {
	sctx, cancel := context.WithTimeout(ctx, o.stepTimeout)
	defer cancel()

	req := models.BookingRequest{
		SalonID:           w.salon.SalonID,
		SalonName:         w.salon.SalonName,
		Location:          w.salon.Location,
		Services:          []models.Service{w.service},
		Date:              sel.Date,
		Time:              sel.Time,
		Staff:             sel.Staff,
		CustomerID:        c.CustomerID,
		CustomerName:      c.DisplayName(),
		Email:             c.Email,
		MobileNumber:      c.MobileNumber,
		Address:           c.Address,
		PaymentMethod:     pm,
		ProviderOrderID:   paid.orderID,
		ProviderPaymentID: paid.paymentID,
	}
	apt, err := o.backend.CreateBooking(sctx, token, req, key)
	if err == nil {
		return apt, nil
	}

	if api.IsUnauthorized(err) {
		return nil, classify(err, "")
	}
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		o.revert(ctx, w, token, StateTimeChosen)
		kind := KindNetwork
		if apiErr.StatusCode == http.StatusConflict {
			kind = KindConflict
		}
		msg := apiErr.Message
		if msg == "" {
			msg = fmt.Sprintf("booking was rejected (%s)", apiErr.Error())
		}
		return nil, &Error{Kind: kind, Msg: msg, Err: err}
	}
	return nil, classify(err, "could not reach the booking service")
}

func (o *Orchestrator) revert(ctx context.Context, w *Workflow, token string, to State) {
	if err := w.transition(Revert(to)); err != nil {
		o.logger.Error().Err(err).Str("to", string(to)).Msg("selection revert failed")
	}
	if err := w.refreshQuietly(ctx, token); err != nil {
		o.logger.Warn().Err(err).Msg("availability refresh failed")
	}
}

func (o *Orchestrator) publish(eventType string, w *Workflow, sel Selection, pm models.PaymentMethod, appointmentID, reason string, paid payment) {
	payload := events.BookingEventPayload{
		ChatID:        w.ChatID,
		AppointmentID: appointmentID,
		SalonID:       w.salon.SalonID,
		SalonName:     w.salon.SalonName,
		ServiceID:     w.service.ID,
		ServiceName:   w.service.Name,
		Date:          sel.Date,
		Time:          sel.Time,
		Staff:         sel.Staff,
		PaymentMethod: string(pm),
		Reason:        reason,
		OrderID:       paid.orderID,
		PaymentID:     paid.paymentID,
	}
	if appointmentID != "" {
		payload.Status = models.StatusBooked
	}
	if o.events == nil {
		return
	}
	if err := o.events.PublishJSON(eventType, payload); err != nil {
		o.logger.Error().Err(err).Str("event", eventType).Msg("event handler failed")
	}
}

func (o *Orchestrator) count(pm models.PaymentMethod, err error) {
	metrics.IncBooking(string(pm), KindOf(err).String())
}

// classify maps a backend failure into the workflow taxonomy. Server
// messages are kept verbatim.
func classify(err error, fallback string) *Error {
	if api.IsUnauthorized(err) {
		return &Error{Kind: KindUnauthenticated, Msg: "session expired, please log in again", Err: err}
	}
	if apiErr, ok := api.IsServerMessage(err); ok {
		return &Error{Kind: KindNetwork, Msg: apiErr.Message, Err: err}
	}
	return &Error{Kind: KindNetwork, Msg: fallback, Err: err}
}
