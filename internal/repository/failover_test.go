package repository

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"salonbook/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) GetState(ctx context.Context, userID int64) (*models.UserState, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserState), args.Error(1)
}

func (m *mockRepo) SetState(ctx context.Context, state *models.UserState) error {
	args := m.Called(ctx, state)
	return args.Error(0)
}

func (m *mockRepo) ClearState(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockRepo) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, userID, limit, window)
	return args.Bool(0), args.Error(1)
}

func newFailover() (*FailoverStateRepository, *mockRepo, *mockRepo, *time.Time) {
	primary := new(mockRepo)
	fallback := new(mockRepo)
	logger := zerolog.New(io.Discard)
	repo := NewFailoverStateRepository(primary, fallback, &logger)
	now := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }
	return repo, primary, fallback, &now
}

func TestFailoverPrimaryHealthy(t *testing.T) {
	repo, primary, fallback, _ := newFailover()
	ctx := context.Background()

	state := &models.UserState{UserID: 1, CurrentStep: models.StateSelectSalon}
	primary.On("GetState", ctx, int64(1)).Return(state, nil).Once()
	primary.On("SetState", ctx, state).Return(nil).Once()
	primary.On("CheckRateLimit", ctx, int64(1), 20, time.Minute).Return(true, nil).Once()

	got, err := repo.GetState(ctx, 1)
	assert.NoError(t, err)
	assert.Equal(t, state, got)
	assert.NoError(t, repo.SetState(ctx, state))
	allowed, err := repo.CheckRateLimit(ctx, 1, 20, time.Minute)
	assert.NoError(t, err)
	assert.True(t, allowed)

	assert.False(t, repo.Degraded())
	primary.AssertExpectations(t)
	fallback.AssertNotCalled(t, "GetState", mock.Anything, mock.Anything)
}

func TestFailoverSwitchesToFallback(t *testing.T) {
	repo, primary, fallback, _ := newFailover()
	ctx := context.Background()

	state := &models.UserState{UserID: 2}
	primary.On("SetState", ctx, state).Return(errors.New("connection refused")).Once()
	fallback.On("SetState", ctx, state).Return(nil).Once()
	assert.NoError(t, repo.SetState(ctx, state))
	assert.True(t, repo.Degraded())

	// пока не прошла минута, primary не трогаем
	fallback.On("GetState", ctx, int64(2)).Return(state, nil).Once()
	fallback.On("CheckRateLimit", ctx, int64(2), 10, time.Minute).Return(false, nil).Once()
	fallback.On("ClearState", ctx, int64(2)).Return(nil).Once()

	got, err := repo.GetState(ctx, 2)
	assert.NoError(t, err)
	assert.Equal(t, state, got)
	allowed, err := repo.CheckRateLimit(ctx, 2, 10, time.Minute)
	assert.NoError(t, err)
	assert.False(t, allowed)
	assert.NoError(t, repo.ClearState(ctx, 2))

	primary.AssertExpectations(t)
	fallback.AssertExpectations(t)
}

func TestFailoverRecovery(t *testing.T) {
	repo, primary, fallback, now := newFailover()
	ctx := context.Background()

	primary.On("GetState", ctx, int64(3)).Return(nil, errors.New("timeout")).Once()
	fallback.On("GetState", ctx, int64(3)).Return(nil, nil).Twice()
	_, err := repo.GetState(ctx, 3)
	assert.NoError(t, err)
	assert.True(t, repo.Degraded())

	*now = now.Add(2 * time.Minute)
	primary.On("GetState", ctx, int64(3)).Return(nil, errors.New("still down")).Once()
	_, err = repo.GetState(ctx, 3)
	assert.NoError(t, err)
	assert.True(t, repo.Degraded())

	*now = now.Add(2 * time.Minute)
	state := &models.UserState{UserID: 3}
	primary.On("GetState", ctx, int64(3)).Return(state, nil).Once()
	got, err := repo.GetState(ctx, 3)
	assert.NoError(t, err)
	assert.Equal(t, state, got)
	assert.False(t, repo.Degraded())

	primary.AssertExpectations(t)
	fallback.AssertExpectations(t)
}

func TestFailoverClearAlsoClearsFallback(t *testing.T) {
	repo, primary, fallback, _ := newFailover()
	ctx := context.Background()

	primary.On("ClearState", ctx, int64(5)).Return(nil).Once()
	fallback.On("ClearState", ctx, int64(5)).Return(nil).Once()

	assert.NoError(t, repo.ClearState(ctx, 5))
	primary.AssertExpectations(t)
	fallback.AssertExpectations(t)
}
