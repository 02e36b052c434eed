package booking

import (
	"context"
	"errors"
	"sync"
	"time"

	"salonbook/internal/models"
)

// Workflow is one chat's booking context for a single salon service: the
// selection, its availability resolver and the in-flight flag.
type Workflow struct {
	ChatID int64

	salon    models.Salon
	service  models.Service
	resolver *Resolver
	loc      *time.Location
	now      func() time.Time

	mu   sync.Mutex
	sel  Selection
	busy bool
	att  attempt
}

// attempt is what a booking retry of the same date, time and staff reuses:
// the idempotency key, the cash order and a captured online payment.
type attempt struct {
	key        string
	cashIntent bool
	paid       payment
}

func NewWorkflow(chatID int64, salon models.Salon, service models.Service, resolver *Resolver, loc *time.Location) *Workflow {
	if loc == nil {
		loc = time.UTC
	}
	w := &Workflow{
		ChatID:   chatID,
		salon:    salon,
		service:  service,
		resolver: resolver,
		loc:      loc,
		now:      time.Now,
	}
	w.sel = NewSelection(w.Today())
	return w
}

func (w *Workflow) Salon() models.Salon     { return w.salon }
func (w *Workflow) Service() models.Service { return w.service }

// Today is the current date in the salon time zone.
func (w *Workflow) Today() string {
	return w.now().In(w.loc).Format(models.DateLayout)
}

func (w *Workflow) Selection() Selection {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sel
}

// Availability returns the latest snapshot and whether it is still loading.
func (w *Workflow) Availability() (Availability, bool) {
	return w.resolver.Snapshot()
}

func (w *Workflow) Busy() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.busy
}

// Start selects today and loads its availability.
func (w *Workflow) Start(ctx context.Context, token string) (Availability, error) {
	return w.ChooseDate(ctx, token, w.Today())
}

// ChooseDate validates the date, resets time and staff, then resolves the
// new day. A past date never reaches the backend.
func (w *Workflow) ChooseDate(ctx context.Context, token, date string) (Availability, error) {
	w.mu.Lock()
	if w.busy {
		w.mu.Unlock()
		return Availability{}, ErrBusy
	}
	av, _ := w.resolver.Snapshot()
	next, err := Apply(w.sel, av, ChooseDate(date, w.Today()))
	if err != nil {
		w.mu.Unlock()
		return Availability{}, err
	}
	w.setLocked(next)
	w.mu.Unlock()

	return w.resolve(ctx, token, next.Date)
}

func (w *Workflow) ChooseTime(t string) (Selection, error) {
	return w.apply(ChooseTime(t))
}

func (w *Workflow) ChooseStaff(name string) (Selection, error) {
	return w.apply(ChooseStaff(name))
}

// Refresh reloads availability for the selected date and drops choices it
// no longer supports.
func (w *Workflow) Refresh(ctx context.Context, token string) (Availability, error) {
	return w.resolve(ctx, token, w.Selection().Date)
}

func (w *Workflow) apply(ev Event) (Selection, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.busy {
		return w.sel, ErrBusy
	}
	av, loading := w.resolver.Snapshot()
	if loading {
		return w.sel, validationf(ErrLoading, "availability is still loading")
	}
	next, err := Apply(w.sel, av, ev)
	if err != nil {
		return w.sel, err
	}
	w.setLocked(next)
	return next, nil
}

func (w *Workflow) resolve(ctx context.Context, token, date string) (Availability, error) {
	av, err := w.resolver.Resolve(ctx, token, w.salon.SalonID, w.service.Category, date)
	if err != nil {
		return av, err
	}
	w.mu.Lock()
	w.setLocked(Reconcile(w.sel, av))
	w.mu.Unlock()
	return av, nil
}

// acquire marks the workflow busy for the duration of a booking attempt.
func (w *Workflow) acquire() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.busy {
		return ErrBusy
	}
	w.busy = true
	return nil
}

func (w *Workflow) release() {
	w.mu.Lock()
	w.busy = false
	w.mu.Unlock()
}

// transition applies an orchestrator event; it bypasses the busy flag.
func (w *Workflow) transition(ev Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	av, _ := w.resolver.Snapshot()
	next, err := Apply(w.sel, av, ev)
	if err != nil {
		return err
	}
	w.setLocked(next)
	return nil
}

// setLocked stores the selection. Any change of date, time or staff, and a
// finished booking, start a new attempt. Caller holds w.mu.
func (w *Workflow) setLocked(next Selection) {
	if next.Date != w.sel.Date || next.Time != w.sel.Time || next.Staff != w.sel.Staff || next.State == StateBooked {
		w.att = attempt{}
	}
	w.sel = next
}

// attemptKey returns the idempotency key of the current attempt, creating
// it on first use.
func (w *Workflow) attemptKey(newKey func() string) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.att.key == "" {
		w.att.key = newKey()
	}
	return w.att.key
}

func (w *Workflow) currentAttempt() attempt {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.att
}

func (w *Workflow) markCashIntent() {
	w.mu.Lock()
	w.att.cashIntent = true
	w.mu.Unlock()
}

func (w *Workflow) markPaid(p payment) {
	w.mu.Lock()
	w.att.paid = p
	w.mu.Unlock()
}

// refreshQuietly reloads availability after a booking step; a superseded
// batch is not an error.
func (w *Workflow) refreshQuietly(ctx context.Context, token string) error {
	_, err := w.Refresh(ctx, token)
	if errors.Is(err, ErrStale) {
		return nil
	}
	return err
}
