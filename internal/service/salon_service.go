package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strings"

	"salonbook/internal/api"
	"salonbook/internal/domain"
	"salonbook/internal/models"

	"github.com/rs/zerolog"
)

var (
	ErrSalonNotFound   = errors.New("salon not found")
	ErrServiceNotFound = errors.New("service not found")
)

const earthRadiusKm = 6371.0

// SalonService каталог салонов и их услуг
type SalonService struct {
	backend  domain.CatalogBackend
	radiusKm float64
	limit    int
	logger   *zerolog.Logger
}

func NewSalonService(backend domain.CatalogBackend, radiusKm float64, limit int, logger *zerolog.Logger) *SalonService {
	if radiusKm <= 0 {
		radiusKm = models.NearbyRadiusKm
	}
	if limit <= 0 {
		limit = models.NearbyLimit
	}
	return &SalonService{backend: backend, radiusKm: radiusKm, limit: limit, logger: logger}
}

func (s *SalonService) ListSalons(ctx context.Context) ([]models.Salon, error) {
	salons, err := s.backend.ListSalons(ctx)
	if err != nil {
		return nil, fmt.Errorf("list salons: %w", err)
	}
	return salons, nil
}

// Nearby салоны в радиусе от точки, ближайшие первыми
func (s *SalonService) Nearby(ctx context.Context, lat, lon float64) ([]models.NearbySalon, error) {
	salons, err := s.ListSalons(ctx)
	if err != nil {
		return nil, err
	}

	var out []models.NearbySalon
	for _, salon := range salons {
		if !salon.Location.HasCoordinates() {
			continue
		}
		d := distanceKm(lat, lon, salon.Location.Latitude, salon.Location.Longitude)
		if d <= s.radiusKm {
			out = append(out, models.NearbySalon{Salon: salon, DistanceKm: d})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	if len(out) > s.limit {
		out = out[:s.limit]
	}

	s.logger.Debug().Float64("lat", lat).Float64("lon", lon).Int("found", len(out)).Msg("nearby salons")
	return out, nil
}

// Search ищет по названию салона и городу без учета регистра
func (s *SalonService) Search(ctx context.Context, query string) ([]models.Salon, error) {
	salons, err := s.ListSalons(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return salons, nil
	}
	var out []models.Salon
	for _, salon := range salons {
		if strings.Contains(strings.ToLower(salon.SalonName), q) ||
			strings.Contains(strings.ToLower(salon.Location.City), q) {
			out = append(out, salon)
		}
	}
	return out, nil
}

func (s *SalonService) GetSalon(ctx context.Context, salonID string) (*models.Salon, error) {
	salon, err := s.backend.GetSalon(ctx, salonID)
	var apiErr *api.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return nil, ErrSalonNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get salon %s: %w", salonID, err)
	}
	if salon == nil {
		return nil, ErrSalonNotFound
	}
	return salon, nil
}

func (s *SalonService) GetService(ctx context.Context, salonID, serviceID string) (*models.Salon, models.Service, error) {
	salon, err := s.GetSalon(ctx, salonID)
	if err != nil {
		return nil, models.Service{}, err
	}
	svc, ok := salon.FindService(serviceID)
	if !ok {
		return salon, models.Service{}, ErrServiceNotFound
	}
	return salon, svc, nil
}

// distanceKm расстояние по большому кругу (гаверсинус)
func distanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	rad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := rad(lat2 - lat1)
	dLon := rad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
