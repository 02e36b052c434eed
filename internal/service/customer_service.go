package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"salonbook/internal/api"
	"salonbook/internal/domain"
	"salonbook/internal/models"

	"github.com/rs/zerolog"
)

var (
	ErrNotLoggedIn        = errors.New("not logged in")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// CustomerService вход клиента и хранение его токена по chat id
type CustomerService struct {
	backend domain.AccountBackend
	repo    domain.CustomerRepository
	logger  *zerolog.Logger
}

func NewCustomerService(backend domain.AccountBackend, repo domain.CustomerRepository, logger *zerolog.Logger) *CustomerService {
	return &CustomerService{backend: backend, repo: repo, logger: logger}
}

func (s *CustomerService) Login(ctx context.Context, chatID int64, email, password string) (*models.Customer, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	resp, err := s.backend.Login(ctx, email, password)
	if err != nil {
		var apiErr *api.APIError
		if api.IsUnauthorized(err) || (errors.As(err, &apiErr) && apiErr.StatusCode < 500) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	if err := s.repo.SaveToken(ctx, chatID, resp.Token, resp.Customer.CustomerID); err != nil {
		return nil, err
	}
	if err := s.repo.SaveCustomer(ctx, chatID, &resp.Customer); err != nil {
		s.logger.Warn().Err(err).Int64("chat_id", chatID).Msg("failed to cache customer profile")
	}

	s.logger.Info().Int64("chat_id", chatID).Str("customer_id", resp.Customer.CustomerID).Msg("customer logged in")
	return &resp.Customer, nil
}

func (s *CustomerService) Logout(ctx context.Context, chatID int64) error {
	return s.repo.DeleteToken(ctx, chatID)
}

// Token пустая строка означает, что клиент не входил
func (s *CustomerService) Token(ctx context.Context, chatID int64) (string, error) {
	return s.repo.GetToken(ctx, chatID)
}

// Profile загружает профиль с backend и обновляет локальную копию
func (s *CustomerService) Profile(ctx context.Context, chatID int64) (*models.Customer, error) {
	token, err := s.requireToken(ctx, chatID)
	if err != nil {
		return nil, err
	}
	customer, err := s.backend.Me(ctx, token)
	if err != nil {
		if api.IsUnauthorized(err) {
			s.HandleUnauthorized(ctx, chatID)
			return nil, ErrNotLoggedIn
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if err := s.repo.SaveCustomer(ctx, chatID, customer); err != nil {
		s.logger.Warn().Err(err).Int64("chat_id", chatID).Msg("failed to cache customer profile")
	}
	return customer, nil
}

// HandleUnauthorized забывает просроченный токен
func (s *CustomerService) HandleUnauthorized(ctx context.Context, chatID int64) {
	if err := s.repo.DeleteToken(ctx, chatID); err != nil {
		s.logger.Error().Err(err).Int64("chat_id", chatID).Msg("failed to drop expired token")
		return
	}
	s.logger.Info().Int64("chat_id", chatID).Msg("session expired, token dropped")
}

// Touch отмечает активность чата
func (s *CustomerService) Touch(ctx context.Context, chatID int64) error {
	return s.repo.UpdateActivity(ctx, chatID)
}

func (s *CustomerService) requireToken(ctx context.Context, chatID int64) (string, error) {
	token, err := s.repo.GetToken(ctx, chatID)
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", ErrNotLoggedIn
	}
	return token, nil
}

// customerID берет id из локального профиля, при его отсутствии спрашивает backend
func (s *CustomerService) customerID(ctx context.Context, chatID int64) (string, error) {
	c, err := s.repo.GetCustomer(ctx, chatID)
	if err != nil {
		return "", err
	}
	if c != nil && c.CustomerID != "" {
		return c.CustomerID, nil
	}
	profile, err := s.Profile(ctx, chatID)
	if err != nil {
		return "", err
	}
	return profile.CustomerID, nil
}
