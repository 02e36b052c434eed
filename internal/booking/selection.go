package booking

import (
	"fmt"
	"time"

	"salonbook/internal/models"
)

type State string

const (
	StateNoSelection State = "no_selection"
	StateDateChosen  State = "date_chosen"
	StateTimeChosen  State = "time_chosen"
	StateStaffChosen State = "staff_chosen"
	StateReadyToBook State = "ready_to_book"
	StateBooked      State = "booked"
)

// Selection is the user's in-progress choice. Date is always set; Time and
// Staff are empty until chosen.
type Selection struct {
	State State
	Date  string
	Time  string
	Staff string
}

// NewSelection starts a selection on today's date.
func NewSelection(today string) Selection {
	return Selection{State: StateNoSelection, Date: today}
}

// Ready is true exactly when date, time and staff are all set.
func (s Selection) Ready() bool {
	return s.Date != "" && s.Time != "" && s.Staff != "" && s.State == StateReadyToBook
}

var transitions = map[State][]State{
	StateNoSelection: {StateDateChosen},
	StateDateChosen:  {StateDateChosen, StateTimeChosen, StateStaffChosen},
	StateTimeChosen:  {StateDateChosen, StateTimeChosen, StateReadyToBook},
	StateStaffChosen: {StateDateChosen, StateStaffChosen, StateTimeChosen, StateReadyToBook},
	StateReadyToBook: {StateDateChosen, StateTimeChosen, StateReadyToBook, StateBooked},
	StateBooked:      {StateDateChosen},
}

func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type EventKind int

const (
	EventChooseDate EventKind = iota + 1
	EventChooseTime
	EventChooseStaff
	EventRevert
	EventBooked
)

// Event drives Apply. Use the constructors below.
type Event struct {
	Kind  EventKind
	Value string
	Today string
	To    State
}

func ChooseDate(date, today string) Event {
	return Event{Kind: EventChooseDate, Value: date, Today: today}
}

func ChooseTime(t string) Event { return Event{Kind: EventChooseTime, Value: t} }

func ChooseStaff(name string) Event { return Event{Kind: EventChooseStaff, Value: name} }

// Revert moves a failed booking back to DateChosen or TimeChosen.
func Revert(to State) Event { return Event{Kind: EventRevert, To: to} }

func MarkBooked() Event { return Event{Kind: EventBooked} }

// Apply computes the next selection. It has no side effects; av must be the
// settled availability for sel's date.
func Apply(sel Selection, av Availability, ev Event) (Selection, error) {
	next := sel
	switch ev.Kind {
	case EventChooseDate:
		d, err := time.Parse(models.DateLayout, ev.Value)
		if err != nil {
			return sel, validationf(ErrInvalidDate, "invalid date %q", ev.Value)
		}
		date := d.Format(models.DateLayout)
		if ev.Today != "" && date < ev.Today {
			return sel, validationf(ErrPastDate, "date %s is in the past", d.Format(models.DisplayDateLayout))
		}
		// новая дата сбрасывает время и мастера
		next = Selection{State: StateDateChosen, Date: date}

	case EventChooseTime:
		if sel.State == StateNoSelection || sel.State == StateBooked {
			return sel, validationf(ErrNoDate, "choose a date first")
		}
		if av.Date != sel.Date {
			return sel, validationf(ErrNotLoaded, "availability for %s is not loaded", sel.Date)
		}
		if av.IsFullyBooked(ev.Value) {
			return sel, validationf(ErrTimeFull, "%s is fully booked", ev.Value)
		}
		next.Time = ev.Value
		if next.Staff != "" && av.IsStaffBooked(next.Staff, ev.Value) {
			next.Staff = ""
		}
		next.State = StateTimeChosen
		if next.Staff != "" {
			next.State = StateReadyToBook
		}

	case EventChooseStaff:
		if sel.State == StateNoSelection || sel.State == StateBooked {
			return sel, validationf(ErrNoDate, "choose a date first")
		}
		if av.Date != sel.Date {
			return sel, validationf(ErrNotLoaded, "availability for %s is not loaded", sel.Date)
		}
		if sel.Time == "" {
			if !av.inRoster(ev.Value) {
				return sel, validationf(ErrNotInRoster, "%s does not work in this category", ev.Value)
			}
			next.Staff = ev.Value
			next.State = StateStaffChosen
			break
		}
		if av.IsStaffBooked(ev.Value, sel.Time) {
			return sel, validationf(ErrStaffBusy, "%s is not free at %s", ev.Value, sel.Time)
		}
		next.Staff = ev.Value
		next.State = StateReadyToBook

	case EventRevert:
		switch ev.To {
		case StateDateChosen:
			next.Time, next.Staff = "", ""
		case StateTimeChosen:
			next.Staff = ""
		default:
			return sel, fmt.Errorf("cannot revert to %s", ev.To)
		}
		next.State = ev.To

	case EventBooked:
		if !sel.Ready() {
			return sel, validationf(ErrIncomplete, "selection is incomplete")
		}
		next.State = StateBooked

	default:
		return sel, fmt.Errorf("unknown selection event %d", ev.Kind)
	}

	if !CanTransition(sel.State, next.State) {
		return sel, fmt.Errorf("transition %s -> %s is not allowed", sel.State, next.State)
	}
	return next, nil
}

// Reconcile deselects staff that fresh availability no longer lists for
// the chosen time. The time itself is kept so the user picks another one.
func Reconcile(sel Selection, av Availability) Selection {
	if av.Date != sel.Date || sel.Staff == "" {
		return sel
	}
	switch sel.State {
	case StateStaffChosen:
		if !av.inRoster(sel.Staff) {
			sel.Staff = ""
			sel.State = StateDateChosen
		}
	case StateReadyToBook:
		if av.IsStaffBooked(sel.Staff, sel.Time) {
			sel.Staff = ""
			sel.State = StateTimeChosen
		}
	}
	return sel
}
