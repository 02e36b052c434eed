package booking

import (
	"context"
	"sync"
	"time"

	"salonbook/internal/api"
	"salonbook/internal/domain"
	"salonbook/internal/metrics"
	"salonbook/internal/models"

	"github.com/rs/zerolog"
)

// Resolver turns per-slot backend checks into an Availability snapshot.
// Only the newest batch may publish; older ones are dropped when they settle.
type Resolver struct {
	checker     domain.SlotChecker
	times       []string
	concurrency int
	timeout     time.Duration
	logger      *zerolog.Logger

	mu      sync.Mutex
	gen     uint64
	loading bool
	query   models.SlotQuery
	current Availability
}

func NewResolver(checker domain.SlotChecker, times []string, concurrency int, timeout time.Duration, logger *zerolog.Logger) *Resolver {
	if logger == nil {
		l := zerolog.Nop()
		logger = &l
	}
	if concurrency <= 0 {
		concurrency = len(times)
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Resolver{
		checker:     checker,
		times:       append([]string(nil), times...),
		concurrency: concurrency,
		timeout:     timeout,
		logger:      logger,
	}
}

// Snapshot returns the last published availability and whether a batch is
// still outstanding.
func (r *Resolver) Snapshot() (Availability, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current, r.loading
}

func (r *Resolver) Loading() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loading
}

// Resolve queries every slot for the given salon, category and date. It
// returns ErrStale when a newer Resolve started before this one settled.
// Failed slot queries are reported as unavailable; a rejected token is
// also returned as an unauthenticated error.
func (r *Resolver) Resolve(ctx context.Context, token, salonID, category, date string) (Availability, error) {
	r.mu.Lock()
	r.gen++
	gen := r.gen
	r.loading = true
	r.query = models.SlotQuery{SalonID: salonID, Category: category, Date: date}
	r.mu.Unlock()

	started := time.Now()
	av, unauthorized := r.batch(ctx, token, salonID, category, date)
	metrics.ObserveBatch(time.Since(started))

	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.gen {
		r.logger.Debug().Str("date", date).Uint64("generation", gen).Msg("dropping superseded availability")
		return Availability{}, ErrStale
	}
	r.current = av
	r.loading = false
	if unauthorized {
		return av, &Error{Kind: KindUnauthenticated, Msg: "session expired, please log in again", Err: api.ErrUnauthorized}
	}
	return av, nil
}

// Refresh re-runs the last Resolve.
func (r *Resolver) Refresh(ctx context.Context, token string) (Availability, error) {
	r.mu.Lock()
	q := r.query
	r.mu.Unlock()
	if q.SalonID == "" {
		return Availability{}, validationf(ErrNothingToRefresh, "nothing to refresh")
	}
	return r.Resolve(ctx, token, q.SalonID, q.Category, q.Date)
}

// Check is the targeted re-check used right before payment and commit.
// Unlike Resolve it reports failures to the caller.
func (r *Resolver) Check(ctx context.Context, token string, q models.SlotQuery) (models.SlotAvailability, error) {
	cctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.checker.CheckSlot(cctx, token, q)
	if err != nil {
		metrics.IncSlotCheck("failed")
		if api.IsUnauthorized(err) {
			return models.SlotAvailability{}, &Error{Kind: KindUnauthenticated, Msg: "session expired, please log in again", Err: err}
		}
		return models.SlotAvailability{}, &Error{Kind: KindNetwork, Msg: "could not verify the slot", Err: err}
	}
	slot := models.NewSlotAvailability(q.Time, res)
	metrics.IncSlotCheck(slotResult(slot))
	return slot, nil
}

func (r *Resolver) batch(ctx context.Context, token, salonID, category, date string) (Availability, bool) {
	av := Availability{
		SalonID:  salonID,
		Category: category,
		Date:     date,
		Times:    append([]string(nil), r.times...),
		Slots:    make(map[string]models.SlotAvailability, len(r.times)),
	}
	if len(r.times) == 0 {
		return av, false
	}

	var (
		mu           sync.Mutex
		wg           sync.WaitGroup
		roster       []string
		unauthorized bool
		sem          = make(chan struct{}, r.concurrency)
	)

	query := func(t string) (models.SlotAvailability, bool) {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			return models.Unavailable(t), false
		}
		defer func() { <-sem }()

		qctx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()
		res, err := r.checker.CheckSlot(qctx, token, models.SlotQuery{SalonID: salonID, Category: category, Date: date, Time: t})
		if err != nil {
			if api.IsUnauthorized(err) {
				mu.Lock()
				unauthorized = true
				mu.Unlock()
			}
			r.logger.Warn().Err(err).Str("salon_id", salonID).Str("date", date).Str("time", t).Msg("slot check failed")
			return models.Unavailable(t), false
		}
		return models.NewSlotAvailability(t, res), true
	}

	// состав мастеров берем отдельным запросом по первому слоту
	wg.Add(1)
	go func() {
		defer wg.Done()
		slot, _ := query(r.times[0])
		mu.Lock()
		roster = slot.Staff
		mu.Unlock()
	}()

	for _, t := range r.times {
		wg.Add(1)
		go func(t string) {
			defer wg.Done()
			slot, ok := query(t)
			if ok {
				metrics.IncSlotCheck(slotResult(slot))
			} else {
				metrics.IncSlotCheck("failed")
			}
			mu.Lock()
			av.Slots[t] = slot
			mu.Unlock()
		}(t)
	}
	wg.Wait()

	av.Roster = mergeRoster(roster, av)
	return av, unauthorized
}

// mergeRoster keeps the bootstrap order and appends staff seen only in
// later slots.
func mergeRoster(bootstrap []string, av Availability) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(bootstrap))
	add := func(s string) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, s := range bootstrap {
		add(s)
	}
	for _, t := range av.Times {
		for _, s := range av.Slots[t].Staff {
			add(s)
		}
	}
	return out
}

func slotResult(s models.SlotAvailability) string {
	if s.Available {
		return "available"
	}
	return "booked"
}
