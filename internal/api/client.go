package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"salonbook/internal/config"
	"salonbook/internal/metrics"
	"salonbook/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const salonsCacheKey = "salonbook:salons"

// Client talks to the salon backend REST API.
type Client struct {
	baseURL   string
	timeout   time.Duration
	transport http.RoundTripper
	limiter   *rate.Limiter
	logger    *zerolog.Logger

	redis    *redis.Client
	cacheTTL time.Duration
}

// NewClient constructs a client for cfg.BaseURL. Outbound calls are traced
// with otelhttp and throttled by a shared token bucket.
func NewClient(cfg config.BackendConfig, logger *zerolog.Logger) *Client {
	if logger == nil {
		l := zerolog.Nop()
		logger = &l
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	limit := rate.Limit(cfg.RPS)
	if cfg.RPS <= 0 {
		limit = rate.Inf
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		timeout:   timeout,
		transport: otelhttp.NewTransport(http.DefaultTransport),
		limiter:   rate.NewLimiter(limit, burst),
		logger:    logger,
	}
}

// UseRedisCache enables the read-through cache for the public salon catalog.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

// CheckSlot queries availability of one time slot.
func (c *Client) CheckSlot(ctx context.Context, token string, q models.SlotQuery) (models.SlotCheckResult, error) {
	params := url.Values{}
	params.Set("salonId", q.SalonID)
	params.Set("bookingDate", q.Date)
	params.Set("time", q.Time)
	params.Set("serviceCategory", q.Category)

	var resp models.SlotCheckResult
	if err := c.doGet(ctx, token, "check-slot", "/api/booking/check-slot?"+params.Encode(), &resp); err != nil {
		return models.SlotCheckResult{}, err
	}
	return resp, nil
}

// CreatePaymentIntent registers a cash or online payment with the backend.
func (c *Client) CreatePaymentIntent(ctx context.Context, token string, req models.PaymentIntentRequest) (*models.PaymentIntent, error) {
	var resp models.PaymentIntent
	if err := c.doPost(ctx, token, "payment-intent", "/api/payment-intent", req, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateBooking submits the final booking. idempotencyKey lets the backend
// drop a duplicate submit of the same attempt.
func (c *Client) CreateBooking(ctx context.Context, token string, req models.BookingRequest, idempotencyKey string) (*models.Appointment, error) {
	headers := map[string]string{}
	if idempotencyKey != "" {
		headers["Idempotency-Key"] = idempotencyKey
	}
	var raw json.RawMessage
	if err := c.doPost(ctx, token, "booking", "/api/booking", req, headers, &raw); err != nil {
		return nil, err
	}
	appt, err := decodeAppointment(raw)
	if err != nil {
		return nil, fmt.Errorf("decode booking response: %w", err)
	}
	return appt, nil
}

// Me returns the profile of the token owner.
func (c *Client) Me(ctx context.Context, token string) (*models.Customer, error) {
	var wrap struct {
		Customer models.Customer `json:"customer"`
	}
	if err := c.doGet(ctx, token, "me", "/api/customer-app/me", &wrap); err != nil {
		return nil, err
	}
	return &wrap.Customer, nil
}

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	var resp models.LoginResponse
	body := models.LoginRequest{Email: email, Password: password}
	if err := c.doPost(ctx, "", "login", "/api/customer-app/login", body, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, &APIError{StatusCode: http.StatusOK, Message: "login response has no token"}
	}
	return &resp, nil
}

// ListSalons returns the public salon catalog.
func (c *Client) ListSalons(ctx context.Context) ([]models.Salon, error) {
	var salons []models.Salon
	if c.readCache(ctx, salonsCacheKey, &salons) {
		return salons, nil
	}

	var raw json.RawMessage
	if err := c.doGet(ctx, "", "salons", "/api/public/salons", &raw); err != nil {
		return nil, err
	}
	if err := decodeList(raw, &salons, "salons", "data"); err != nil {
		return nil, fmt.Errorf("decode salons: %w", err)
	}
	c.writeCache(ctx, salonsCacheKey, salons)
	return salons, nil
}

// GetSalon finds a salon in the catalog.
func (c *Client) GetSalon(ctx context.Context, salonID string) (*models.Salon, error) {
	salons, err := c.ListSalons(ctx)
	if err != nil {
		return nil, err
	}
	for i := range salons {
		if salons[i].SalonID == salonID {
			return &salons[i], nil
		}
	}
	return nil, &APIError{StatusCode: http.StatusNotFound, Message: fmt.Sprintf("salon %s not found", salonID)}
}

// ListAppointments returns the appointments of a customer.
func (c *Client) ListAppointments(ctx context.Context, token, customerID string) ([]models.Appointment, error) {
	params := url.Values{}
	params.Set("customerId", customerID)

	var raw json.RawMessage
	if err := c.doGet(ctx, token, "appointments", "/api/booking?"+params.Encode(), &raw); err != nil {
		return nil, err
	}
	var appts []models.Appointment
	if err := decodeList(raw, &appts, "appointments", "data"); err != nil {
		return nil, fmt.Errorf("decode appointments: %w", err)
	}
	return appts, nil
}

// CancelAppointment cancels an appointment by id.
func (c *Client) CancelAppointment(ctx context.Context, token, appointmentID string) error {
	return c.doPost(ctx, token, "cancel", "/api/booking/"+url.PathEscape(appointmentID), nil, nil, nil)
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false
	}
	return true
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, data, c.cacheTTL).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("catalog cache write failed")
	}
}

func (c *Client) doGet(ctx context.Context, token, endpoint, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, token, endpoint, out)
}

func (c *Client) doPost(ctx context.Context, token, endpoint, path string, body any, headers map[string]string, out any) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return c.do(req, token, endpoint, out)
}

func (c *Client) do(req *http.Request, token, endpoint string, out any) error {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return fmt.Errorf("%s: rate limit wait: %w", endpoint, err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	start := time.Now()
	resp, err := c.httpClient(token).Do(req)
	if err != nil {
		metrics.ObserveBackend(endpoint, 0, time.Since(start))
		return fmt.Errorf("%s %s: %w", req.Method, endpoint, err)
	}
	defer resp.Body.Close()
	metrics.ObserveBackend(endpoint, resp.StatusCode, time.Since(start))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: read body: %w", req.Method, endpoint, err)
	}

	c.logger.Debug().
		Str("endpoint", endpoint).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("backend call")

	if resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, body)
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s %s: decode: %w", req.Method, endpoint, err)
	}
	return nil
}

// httpClient attaches the bearer token through an oauth2 transport.
func (c *Client) httpClient(token string) *http.Client {
	if token == "" {
		return &http.Client{Timeout: c.timeout, Transport: c.transport}
	}
	return &http.Client{
		Timeout: c.timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   c.transport,
		},
	}
}

// decodeList accepts either a bare array or an object wrapping it under one of keys.
func decodeList(raw json.RawMessage, out any, keys ...string) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if trimmed[0] == '[' {
		return json.Unmarshal(trimmed, out)
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return err
	}
	for _, k := range keys {
		if v, ok := obj[k]; ok {
			return json.Unmarshal(v, out)
		}
	}
	return fmt.Errorf("no list under %v", keys)
}

func decodeAppointment(raw json.RawMessage) (*models.Appointment, error) {
	var appt models.Appointment
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return &appt, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil, err
	}
	for _, k := range []string{"appointment", "booking", "data"} {
		if v, ok := obj[k]; ok && len(v) > 0 && v[0] == '{' {
			if err := json.Unmarshal(v, &appt); err != nil {
				return nil, err
			}
			return &appt, nil
		}
	}
	if err := json.Unmarshal(trimmed, &appt); err != nil {
		return nil, err
	}
	return &appt, nil
}
