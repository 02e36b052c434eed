package bot

import (
	"context"
	"os"
	"sync"
	"time"

	"salonbook/internal/booking"
	"salonbook/internal/config"
	"salonbook/internal/domain"
	"salonbook/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	defaultUpdateTimeout  = 30 * time.Second
	defaultBookingTimeout = 10 * time.Minute
	sessionCleanupPeriod  = time.Minute
)

// Booker оформляет запись по готовому выбору
type Booker interface {
	Book(ctx context.Context, w *booking.Workflow, token, method string) (*models.Appointment, error)
}

// WorkflowFactory создает контекст записи на услугу салона для чата
type WorkflowFactory func(chatID int64, salon models.Salon, svc models.Service) *booking.Workflow

type Bot struct {
	tgService    domain.TelegramService
	config       *config.Config
	stateService domain.StateManager
	salons       domain.SalonService
	customers    domain.CustomerService
	appointments domain.AppointmentService
	journal      domain.BookingJournal
	booker       Booker
	sessions     *booking.SessionStore
	newWorkflow  WorkflowFactory
	metrics      *Metrics
	logger       *zerolog.Logger

	loc            *time.Location
	bookingTimeout time.Duration
	inflight       sync.WaitGroup
}

func NewBot(
	tgService domain.TelegramService,
	cfg *config.Config,
	stateService domain.StateManager,
	salons domain.SalonService,
	customers domain.CustomerService,
	appointments domain.AppointmentService,
	journal domain.BookingJournal,
	booker Booker,
	sessions *booking.SessionStore,
	newWorkflow WorkflowFactory,
	metrics *Metrics,
	logger *zerolog.Logger,
) (*Bot, error) {
	if logger == nil {
		l := zerolog.New(os.Stdout).With().Timestamp().Logger()
		logger = &l
	}
	if sessions == nil {
		sessions = booking.NewSessionStore(time.Duration(cfg.Booking.SessionTimeoutMinutes) * time.Minute)
	}

	loc, err := time.LoadLocation(cfg.Booking.Timezone)
	if err != nil {
		return nil, err
	}

	// оформление переживает апдейт: ждем оплату и еще минуту на commit
	bookingTimeout := defaultBookingTimeout
	if cfg.Payment.CaptureTimeoutSeconds > 0 {
		bookingTimeout = time.Duration(cfg.Payment.CaptureTimeoutSeconds+60) * time.Second
	}

	return &Bot{
		tgService:      tgService,
		config:         cfg,
		stateService:   stateService,
		salons:         salons,
		customers:      customers,
		appointments:   appointments,
		journal:        journal,
		booker:         booker,
		sessions:       sessions,
		newWorkflow:    newWorkflow,
		metrics:        metrics,
		logger:         logger,
		loc:            loc,
		bookingTimeout: bookingTimeout,
	}, nil
}

func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.tgService.GetUpdatesChan(u)

	b.logger.Info().Str("username", b.tgService.GetSelf().UserName).Msg("Authorized on account")

	cleanup := time.NewTicker(sessionCleanupPeriod)
	defer cleanup.Stop()

	for {
		select {
		case <-ctx.Done():
			b.logger.Info().Msg("Bot stopping...")
			b.inflight.Wait()
			return
		case <-cleanup.C:
			if n := b.sessions.Cleanup(); n > 0 {
				b.logger.Debug().Int("expired", n).Msg("booking sessions cleaned up")
			}
		case update, ok := <-updates:
			if !ok {
				b.inflight.Wait()
				return
			}
			b.processUpdate(ctx, update)
		}
	}
}

// Stop прекращает получение обновлений
func (b *Bot) Stop() {
	if b == nil || b.tgService == nil {
		return
	}
	b.tgService.StopReceivingUpdates()
}

func (b *Bot) processUpdate(ctx context.Context, update tgbotapi.Update) {
	start := time.Now()
	defer func() {
		if b.metrics != nil {
			b.metrics.UpdateProcessingTime.Observe(time.Since(start).Seconds())
		}
	}()

	// Создаем контекст для обработки каждого обновления
	updateCtx, cancel := context.WithTimeout(ctx, b.updateTimeout())
	defer cancel()

	requestID := uuid.New().String()
	l := b.logger.With().Str("request_id", requestID).Logger()
	updateCtx = l.WithContext(updateCtx)

	b.withRecovery(func() {
		var userID, chatID int64
		switch {
		case update.Message != nil && update.Message.From != nil:
			userID, chatID = update.Message.From.ID, update.Message.Chat.ID
		case update.CallbackQuery != nil && update.CallbackQuery.Message != nil:
			userID, chatID = update.CallbackQuery.From.ID, update.CallbackQuery.Message.Chat.ID
		}

		if userID == 0 {
			return
		}

		b.trackActivity(chatID)

		allowed, err := b.stateService.CheckRateLimit(updateCtx, userID, b.rateLimitMessages(), b.rateLimitWindow())
		if err != nil {
			l.Error().Err(err).Int64("user_id", userID).Msg("Rate limit check failed")
		} else if !allowed {
			l.Warn().Int64("user_id", userID).Msg("Rate limit exceeded")
			if update.Message != nil {
				b.sendMessage(chatID, "⚠️ Вы отправляете сообщения слишком часто. Пожалуйста, подождите немного.")
			}
			return
		}

		if update.CallbackQuery != nil {
			b.handleCallbackQuery(updateCtx, &update)
			return
		}

		b.handleMessage(updateCtx, &update)
	})
}

func (b *Bot) updateTimeout() time.Duration {
	if b.config.Bot.UpdateTimeout > 0 {
		return time.Duration(b.config.Bot.UpdateTimeout) * time.Second
	}
	return defaultUpdateTimeout
}

func (b *Bot) rateLimitMessages() int {
	if b.config.Bot.RateLimitMessages > 0 {
		return b.config.Bot.RateLimitMessages
	}
	return models.RateLimitMessages
}

func (b *Bot) rateLimitWindow() time.Duration {
	if b.config.Bot.RateLimitWindow > 0 {
		return time.Duration(b.config.Bot.RateLimitWindow) * time.Second
	}
	return models.RateLimitWindow * time.Second
}
