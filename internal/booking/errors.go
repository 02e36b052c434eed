package booking

import (
	"errors"
	"fmt"
)

// Kind classifies every error the booking workflow returns to the caller.
type Kind int

const (
	KindUnknown Kind = iota
	KindUnauthenticated
	KindValidation
	KindConflict
	KindPaymentAborted
	KindNetwork
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindValidation:
		return "validation"
	case KindConflict:
		return "availability_conflict"
	case KindPaymentAborted:
		return "payment_aborted"
	case KindNetwork:
		return "network_or_server"
	}
	return "unknown"
}

// Error is a classified workflow error. Msg carries backend messages verbatim.
// Cause narrows the kind to one of the reasons below.
type Error struct {
	Kind  Kind
	Msg   string
	Err   error
	Cause error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() []error {
	var errs []error
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// Is matches the bare kind sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Msg == "" && t.Err == nil && t.Cause == nil && t.Kind == e.Kind
}

var (
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated}
	ErrValidation      = &Error{Kind: KindValidation}
	ErrConflict        = &Error{Kind: KindConflict}
	ErrPaymentAborted  = &Error{Kind: KindPaymentAborted}
	ErrNetwork         = &Error{Kind: KindNetwork}

	// ErrBusy is returned for selection changes while a booking is in flight.
	ErrBusy = errors.New("booking in progress")
	// ErrStale marks an availability batch superseded by a newer one.
	ErrStale = errors.New("availability superseded")
)

// Validation causes.
var (
	ErrInvalidDate       = errors.New("invalid date")
	ErrPastDate          = errors.New("date in the past")
	ErrNoDate            = errors.New("no date chosen")
	ErrLoading           = errors.New("availability loading")
	ErrNotLoaded         = errors.New("availability not loaded")
	ErrTimeFull          = errors.New("time fully booked")
	ErrStaffBusy         = errors.New("staff not free")
	ErrNotInRoster       = errors.New("staff not in roster")
	ErrIncomplete        = errors.New("selection incomplete")
	ErrPaymentMethod     = errors.New("unsupported payment method")
	ErrProfileIncomplete = errors.New("profile incomplete")
	ErrNothingToRefresh  = errors.New("nothing to refresh")
)

// Payment causes.
var (
	// ErrPaymentInterrupted means capture stopped before the provider settled.
	ErrPaymentInterrupted = errors.New("payment not settled")
	// ErrPaidNotBooked means money was captured but the booking was not made.
	ErrPaidNotBooked = errors.New("payment captured, booking not made")
)

// KindOf returns the workflow kind of err, KindUnknown for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func validationf(cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...), Cause: cause}
}

func conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Msg: msg}
}
