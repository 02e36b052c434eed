package booking

import "salonbook/internal/models"

// Availability is one settled snapshot of the slot grid for a
// (salon, category, date) triple.
type Availability struct {
	SalonID  string
	Category string
	Date     string
	// Times keeps the configured slot order.
	Times  []string
	Slots  map[string]models.SlotAvailability
	Roster []string
}

func (a Availability) Slot(time string) (models.SlotAvailability, bool) {
	s, ok := a.Slots[time]
	return s, ok
}

// IsFullyBooked is true for slots with no staff and for slots never queried.
func (a Availability) IsFullyBooked(time string) bool {
	s, ok := a.Slots[time]
	return !ok || !s.Available
}

// IsStaffBooked reports whether staff cannot take the given slot. Without a
// chosen time nobody is considered booked.
func (a Availability) IsStaffBooked(staff, time string) bool {
	if time == "" {
		return false
	}
	s, ok := a.Slots[time]
	if !ok {
		return true
	}
	return !s.HasStaff(staff)
}

// AvailableStaff returns the staff able to take the slot.
func (a Availability) AvailableStaff(time string) []string {
	s, ok := a.Slots[time]
	if !ok {
		return nil
	}
	return append([]string(nil), s.Staff...)
}

// FreeTimes lists bookable times in slot order.
func (a Availability) FreeTimes() []string {
	var out []string
	for _, t := range a.Times {
		if !a.IsFullyBooked(t) {
			out = append(out, t)
		}
	}
	return out
}

// CandidateStaff is the list offered to the user: the whole roster before a
// time is chosen, afterwards only the staff free at that time.
func (a Availability) CandidateStaff(time string) []string {
	if time == "" {
		return append([]string(nil), a.Roster...)
	}
	return a.AvailableStaff(time)
}

func (a Availability) inRoster(staff string) bool {
	for _, s := range a.Roster {
		if s == staff {
			return true
		}
	}
	return false
}
