package models

// SlotQuery идентифицирует проверяемый слот
type SlotQuery struct {
	SalonID  string
	Category string
	Date     string // DateLayout
	Time     string // TimeLayout
}

// SlotCheckResult ответ /api/booking/check-slot
type SlotCheckResult struct {
	IsAvailable    bool     `json:"isAvailable"`
	AvailableStaff []string `json:"availableStaff"`
}

// SlotAvailability нормализованная доступность одного слота.
// Available всегда равно len(Staff) > 0.
type SlotAvailability struct {
	Time      string
	Available bool
	Staff     []string
}

// NewSlotAvailability нормализует ответ сервера. Слот без мастеров
// считается занятым, даже если сервер ответил isAvailable=true.
func NewSlotAvailability(time string, res SlotCheckResult) SlotAvailability {
	staff := make([]string, 0, len(res.AvailableStaff))
	seen := make(map[string]bool, len(res.AvailableStaff))
	for _, s := range res.AvailableStaff {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		staff = append(staff, s)
	}
	if !res.IsAvailable {
		staff = staff[:0]
	}
	return SlotAvailability{Time: time, Available: len(staff) > 0, Staff: staff}
}

// Unavailable слот, про который ничего не известно
func Unavailable(time string) SlotAvailability {
	return SlotAvailability{Time: time, Available: false, Staff: []string{}}
}

func (s SlotAvailability) HasStaff(name string) bool {
	for _, st := range s.Staff {
		if st == name {
			return true
		}
	}
	return false
}
