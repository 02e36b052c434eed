package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"salonbook/internal/api"
	"salonbook/internal/booking"
	"salonbook/internal/bot"
	"salonbook/internal/config"
	"salonbook/internal/database"
	"salonbook/internal/events"
	"salonbook/internal/logging"
	"salonbook/internal/metrics"
	"salonbook/internal/models"
	"salonbook/internal/payment"
	"salonbook/internal/repository"
	"salonbook/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	activeCustomersDays     = 30
	activeCustomersInterval = 5 * time.Minute
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, loadErr := loadConfigAndLogger()
	if loadErr != nil {
		return loadErr
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}

	if err := prepareDirectories(cfg, &logger); err != nil {
		return err
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка инициализации базы данных")
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, stateService := initStateService(ctx, cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	if cfg.Database.Backup.Enabled {
		backupService := database.NewBackupService(db, cfg.Database.Backup, &logger)
		go backupService.Start(ctx)
	}

	botMetrics := bot.NewMetrics(prometheus.DefaultRegisterer)
	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
		go trackActiveCustomers(ctx, db, botMetrics, &logger)
	}

	backend := api.NewClient(cfg.Backend, &logger)
	if redisClient != nil {
		backend.UseRedisCache(redisClient, time.Duration(cfg.Backend.CatalogCacheTTLSeconds)*time.Second)
	}

	eventBus := events.NewEventBus()
	service.SubscribeJournal(eventBus, db, &logger)

	loc, err := time.LoadLocation(cfg.Booking.Timezone)
	if err != nil {
		logger.Error().Err(err).Str("timezone", cfg.Booking.Timezone).Msg("Неизвестный часовой пояс")
		return err
	}

	salonService := service.NewSalonService(backend, cfg.Booking.NearbyRadiusKm, cfg.Booking.NearbyLimit, &logger)
	customerService := service.NewCustomerService(backend, db, &logger)
	appointmentService := service.NewAppointmentService(backend, customerService, eventBus, loc, &logger)

	stepTimeout := time.Duration(cfg.Booking.StepTimeoutSeconds) * time.Second
	capturer := payment.NewStripeCapturer(cfg.Payment, &logger)
	orchestrator := booking.NewOrchestrator(backend, capturer, eventBus, cfg.Booking.Currency, stepTimeout, &logger)

	newWorkflow := func(chatID int64, salon models.Salon, svc models.Service) *booking.Workflow {
		l := logger.With().Int64("chat_id", chatID).Str("salon_id", salon.SalonID).Logger()
		resolver := booking.NewResolver(backend, cfg.Booking.TimeSlots, cfg.Booking.SlotCheckConcurrency, stepTimeout, &l)
		return booking.NewWorkflow(chatID, salon, svc, resolver, loc)
	}

	return startBot(ctx, cfg, stateService, salonService, customerService, appointmentService,
		db, orchestrator, newWorkflow, botMetrics, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, err
	}
	logger := baseLogger.With().Str("component", "bot-main").Logger()
	return cfg, logger, closer, nil
}

func prepareDirectories(cfg *config.Config, logger *zerolog.Logger) error {
	if cfg == nil {
		return os.ErrInvalid
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		logger.Error().Err(err).Msg("Ошибка создания директории для базы данных")
		return err
	}
	if err := os.MkdirAll(cfg.Exports.Path, 0o755); err != nil {
		logger.Error().Err(err).Msg("Ошибка создания директории для экспорта")
		return err
	}
	return nil
}

func initStateService(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*redis.Client, *service.StateService) {
	var redisClient *redis.Client
	if cfg.Redis.Address != "" {
		redisClient = repository.NewRedisClient(cfg.Redis)
		if errPing := repository.Ping(ctx, redisClient); errPing != nil {
			logger.Warn().Err(errPing).Msg("Redis unavailable")
		}
	}

	ttl := time.Duration(models.DefaultSessionTTL) * time.Second
	primaryRepo := repository.NewRedisStateRepository(redisClient, ttl)
	fallbackRepo := repository.NewMemoryStateRepository(ttl)
	stateRepo := repository.NewFailoverStateRepository(primaryRepo, fallbackRepo, logger)
	return redisClient, service.NewStateService(stateRepo, logger)
}

func startBot(
	ctx context.Context,
	cfg *config.Config,
	stateService *service.StateService,
	salonService *service.SalonService,
	customerService *service.CustomerService,
	appointmentService *service.AppointmentService,
	db *database.DB,
	orchestrator *booking.Orchestrator,
	newWorkflow bot.WorkflowFactory,
	botMetrics *bot.Metrics,
	logger *zerolog.Logger,
) error {
	if cfg.Telegram.BotToken == "YOUR_BOT_TOKEN_HERE" {
		logger.Error().Msg("Задайте токен бота в config.yaml")
		return os.ErrInvalid
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка создания BotAPI")
		return err
	}
	botAPI.Debug = cfg.Telegram.Debug

	botWrapper := bot.NewBotWrapper(botAPI)
	tgService := service.NewTelegramService(botWrapper)

	telegramBot, err := bot.NewBot(
		tgService, cfg, stateService, salonService, customerService,
		appointmentService, db, orchestrator, nil, newWorkflow,
		botMetrics, logger,
	)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка создания бота")
		return err
	}
	orchestrator.SetPaymentPrompt(telegramBot.PaymentPrompt)

	go func() {
		<-ctx.Done()
		telegramBot.Stop()
	}()

	logger.Info().Msg("Бот запущен...")
	telegramBot.Start(ctx)

	logger.Info().Msg("Shutdown complete.")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	logger.Info().Int("port", port).Msg("metrics server started")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}

// trackActiveCustomers обновляет gauge активных клиентов
func trackActiveCustomers(ctx context.Context, db *database.DB, m *bot.Metrics, logger *zerolog.Logger) {
	update := func() {
		n, err := db.CountActiveCustomers(ctx, activeCustomersDays)
		if err != nil {
			logger.Warn().Err(err).Msg("count active customers")
			return
		}
		m.UsersTotal.Set(float64(n))
	}

	update()
	ticker := time.NewTicker(activeCustomersInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			update()
		}
	}
}
