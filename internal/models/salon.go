package models

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
)

type Location struct {
	AddressLine1 string  `json:"addressLine1"`
	City         string  `json:"city"`
	State        string  `json:"state"`
	Pincode      string  `json:"pincode"`
	Country      string  `json:"country"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
}

// HasCoordinates сообщает, заданы ли координаты салона
func (l Location) HasCoordinates() bool {
	return l.Latitude != 0 || l.Longitude != 0
}

func (l Location) String() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{l.AddressLine1, l.City, l.State} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

type StaffMember struct {
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

type Service struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	Duration    string  `json:"duration,omitempty"`
	CreatedAt   string  `json:"createdAt,omitempty"`
	CreatedBy   string  `json:"createdBy,omitempty"`
}

// Minutes возвращает длительность услуги в минутах, 0 если не задана
func (s Service) Minutes() int {
	d := strings.ToLower(strings.TrimSpace(s.Duration))
	d = strings.TrimSuffix(d, "mins")
	d = strings.TrimSuffix(d, "min")
	n, err := strconv.Atoi(strings.TrimSpace(d))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

type Salon struct {
	SalonID   string        `json:"salonId"`
	SalonName string        `json:"salonName"`
	Location  Location      `json:"location"`
	Services  []Service     `json:"services"`
	Staff     []StaffMember `json:"staff"`
}

// ShortRef компактная ссылка на id или имя для callback_data, где Telegram
// ограничивает данные 64 байтами
func ShortRef(s string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return fmt.Sprintf("%08x", h.Sum32())
}

// FindService ищет услугу по id или по ShortRef от id
func (s *Salon) FindService(idOrRef string) (Service, bool) {
	for _, svc := range s.Services {
		if svc.ID == idOrRef || ShortRef(svc.ID) == idOrRef {
			return svc, true
		}
	}
	return Service{}, false
}

// Categories возвращает категории услуг в порядке первого появления
func (s *Salon) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, svc := range s.Services {
		if svc.Category == "" || seen[svc.Category] {
			continue
		}
		seen[svc.Category] = true
		out = append(out, svc.Category)
	}
	return out
}

// NearbySalon салон с расстоянием до пользователя
type NearbySalon struct {
	Salon      Salon
	DistanceKm float64
}
