package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"salonbook/internal/booking"
	"salonbook/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// startBooking открывает выбор даты, времени и мастера для услуги;
// serviceID может быть ShortRef из кнопки
func (b *Bot) startBooking(ctx context.Context, chatID, userID int64, salonID, serviceID string) {
	l := zerolog.Ctx(ctx)

	token, ok := b.token(ctx, chatID)
	if !ok {
		return
	}

	salon, svc, err := b.salons.GetService(ctx, salonID, serviceID)
	if err != nil {
		l.Error().Err(err).Str("salon_id", salonID).Str("service_id", serviceID).Msg("Error loading service")
		b.sendError(chatID, err)
		return
	}

	w := b.newWorkflow(chatID, *salon, svc)
	if err := b.sessions.Put(w); err != nil {
		b.sendError(chatID, err)
		return
	}
	b.setUserState(ctx, userID, models.StateSelectDate, map[string]interface{}{
		"salon_id":   salon.SalonID,
		"service_id": svc.ID,
	})

	b.typing(chatID)
	if _, err := w.Start(ctx, token); err != nil {
		b.handleWorkflowError(ctx, chatID, err)
		return
	}
	b.renderWorkflow(chatID, 0, w)
}

// workflow ищет активную сессию записи чата
func (b *Bot) workflow(chatID int64) (*booking.Workflow, bool) {
	w, ok := b.sessions.Get(chatID)
	if !ok {
		b.sendMessage(chatID, "⌛ Сессия записи истекла. Выберите салон и услугу заново: /salons")
	}
	return w, ok
}

func (b *Bot) showDatePicker(chatID int64, messageID int) {
	w, ok := b.workflow(chatID)
	if !ok {
		return
	}
	text := fmt.Sprintf("📅 Выберите дату для «%s»:", escapeMarkdown(w.Service().Name))
	markup := dateKeyboard(b.today(), b.config.Booking.HorizonDays, w.Selection().Date)
	b.editOrSend(chatID, messageID, text, &markup)
}

func (b *Bot) handleDateChosen(ctx context.Context, chatID int64, messageID int, date string) {
	w, ok := b.workflow(chatID)
	if !ok {
		return
	}
	token, ok := b.token(ctx, chatID)
	if !ok {
		return
	}

	b.typing(chatID)
	if _, err := w.ChooseDate(ctx, token, date); err != nil {
		b.handleWorkflowError(ctx, chatID, err)
		return
	}
	b.renderWorkflow(chatID, messageID, w)
}

// handleDateInput дата, введенная текстом в формате ДД.ММ.ГГГГ
func (b *Bot) handleDateInput(ctx context.Context, chatID, userID int64, text string) {
	date, err := b.parseUserDate(text)
	if err != nil {
		b.sendMessage(chatID, "Неверный формат даты. Введите дату как ДД.ММ.ГГГГ (например, 25.12.2025)")
		return
	}
	if date.Before(b.today()) {
		b.sendMessage(chatID, "⚠️ Нельзя выбрать прошедшую дату.")
		return
	}
	b.setUserState(ctx, userID, models.StateSelectTime, nil)
	b.handleDateChosen(ctx, chatID, 0, date.Format(models.DateLayout))
}

func (b *Bot) handleTimeChosen(ctx context.Context, chatID int64, messageID int, t string) {
	w, ok := b.workflow(chatID)
	if !ok {
		return
	}
	if _, err := w.ChooseTime(t); err != nil {
		b.handleWorkflowError(ctx, chatID, err)
		return
	}
	b.renderWorkflow(chatID, messageID, w)
}

func (b *Bot) handleStaffChosen(ctx context.Context, chatID int64, messageID int, ref string) {
	w, ok := b.workflow(chatID)
	if !ok {
		return
	}
	av, _ := w.Availability()
	name, ok := staffByRef(w.Selection(), av, ref)
	if !ok {
		b.sendMessage(chatID, "⚠️ Расписание обновилось, выберите мастера заново.")
		b.renderWorkflow(chatID, messageID, w)
		return
	}
	if _, err := w.ChooseStaff(name); err != nil {
		b.handleWorkflowError(ctx, chatID, err)
		return
	}
	b.renderWorkflow(chatID, messageID, w)
}

func (b *Bot) handleRefresh(ctx context.Context, chatID int64, messageID int) {
	w, ok := b.workflow(chatID)
	if !ok {
		return
	}
	token, ok := b.token(ctx, chatID)
	if !ok {
		return
	}
	b.typing(chatID)
	if _, err := w.Refresh(ctx, token); err != nil {
		b.handleWorkflowError(ctx, chatID, err)
		return
	}
	b.renderWorkflow(chatID, messageID, w)
}

// handleConfirm показывает итог выбора и способы оплаты
func (b *Bot) handleConfirm(chatID int64, messageID int) {
	w, ok := b.workflow(chatID)
	if !ok {
		return
	}
	sel := w.Selection()
	if !sel.Ready() {
		b.renderWorkflow(chatID, messageID, w)
		return
	}

	svc := w.Service()
	var sb strings.Builder
	sb.WriteString("📝 *Проверьте запись*\n\n")
	sb.WriteString(fmt.Sprintf("💇 %s\n", escapeMarkdown(w.Salon().SalonName)))
	sb.WriteString(fmt.Sprintf("✂️ %s — %s\n", escapeMarkdown(svc.Name), formatPrice(svc.Price, b.config.Booking.Currency)))
	sb.WriteString(fmt.Sprintf("📅 %s в %s\n", formatDate(sel.Date), sel.Time))
	sb.WriteString(fmt.Sprintf("👤 %s\n\n", escapeMarkdown(sel.Staff)))
	sb.WriteString("Как будете оплачивать?")

	markup := paymentKeyboard()
	b.editOrSend(chatID, messageID, sb.String(), &markup)
}

// handlePayment запускает оформление в фоне: онлайн-оплата ждет клиента
// дольше, чем живет контекст обновления.
func (b *Bot) handlePayment(ctx context.Context, chatID, userID int64, messageID int, method string) {
	w, ok := b.workflow(chatID)
	if !ok {
		return
	}
	token, ok := b.token(ctx, chatID)
	if !ok {
		return
	}
	if w.Busy() {
		b.sendError(chatID, booking.ErrBusy)
		return
	}

	b.typing(chatID)
	b.editOrSend(chatID, messageID, "⏳ Оформляю запись, проверяю свободное время...", nil)

	bookingCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.bookingTimeout)
	b.inflight.Add(1)
	go func() {
		defer b.inflight.Done()
		defer cancel()
		b.book(bookingCtx, chatID, userID, w, token, method)
	}()
}

func (b *Bot) book(ctx context.Context, chatID, userID int64, w *booking.Workflow, token, method string) {
	l := zerolog.Ctx(ctx)
	start := time.Now()

	apt, err := b.booker.Book(ctx, w, token, method)

	if b.metrics != nil {
		b.metrics.BookingDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	}

	if err != nil {
		l.Info().Err(err).Int64("chat_id", chatID).Str("kind", booking.KindOf(err).String()).Msg("Booking failed")
		b.handleWorkflowError(ctx, chatID, err)
		if !errors.Is(err, booking.ErrBusy) && !needsLogin(err) {
			b.renderWorkflow(chatID, 0, w)
		}
		return
	}

	sel := w.Selection()
	var sb strings.Builder
	sb.WriteString("✅ *Запись подтверждена!*\n\n")
	sb.WriteString(fmt.Sprintf("💇 %s\n", escapeMarkdown(w.Salon().SalonName)))
	sb.WriteString(fmt.Sprintf("✂️ %s\n", escapeMarkdown(w.Service().Name)))
	sb.WriteString(fmt.Sprintf("📅 %s в %s\n", formatDate(sel.Date), sel.Time))
	sb.WriteString(fmt.Sprintf("👤 %s\n", escapeMarkdown(sel.Staff)))
	if apt != nil && apt.ID != "" {
		sb.WriteString(fmt.Sprintf("🔖 %s\n", escapeMarkdown(apt.ID)))
	}
	if models.PaymentMethod(method) == models.PaymentCash {
		sb.WriteString("\n💵 Оплата в салоне.")
	} else {
		sb.WriteString("\n💳 Оплачено онлайн.")
	}
	b.editOrSend(chatID, 0, sb.String(), nil)

	b.sessions.Delete(chatID)
	b.clearUserState(ctx, userID)
}

// PaymentPrompt отправляет клиенту ссылку на оплату созданного заказа
func (b *Bot) PaymentPrompt(chatID int64, orderID, paymentURL string) {
	if paymentURL == "" {
		b.sendMessage(chatID, fmt.Sprintf("💳 Заказ %s создан. Завершите оплату по ссылке из письма, я подожду.", orderID))
		return
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL("💳 Оплатить", paymentURL)),
	)
	b.editOrSend(chatID, 0, "💳 Заказ создан. Оплатите его, я подожду подтверждения.", &markup)
}

// renderWorkflow выводит текущий выбор и доступные слоты
func (b *Bot) renderWorkflow(chatID int64, messageID int, w *booking.Workflow) {
	sel := w.Selection()
	av, loading := w.Availability()
	svc := w.Service()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("💇 *%s*\n", escapeMarkdown(w.Salon().SalonName)))
	sb.WriteString(fmt.Sprintf("✂️ %s — %s", escapeMarkdown(svc.Name), formatPrice(svc.Price, b.config.Booking.Currency)))
	if m := svc.Minutes(); m > 0 {
		sb.WriteString(fmt.Sprintf(", %d мин", m))
	}
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("📅 Дата: %s\n", formatDate(sel.Date)))
	sb.WriteString(fmt.Sprintf("🕐 Время: %s\n", orDash(sel.Time, "не выбрано")))
	sb.WriteString(fmt.Sprintf("👤 Мастер: %s\n\n", escapeMarkdown(orDash(sel.Staff, "не выбран"))))

	switch {
	case loading:
		sb.WriteString("⏳ Проверяю свободное время...")
	case av.Date != sel.Date:
		sb.WriteString("Нажмите «Обновить», чтобы загрузить расписание.")
	case len(av.FreeTimes()) == 0:
		sb.WriteString("На эту дату свободного времени нет. Выберите другую дату.")
	case sel.Time == "":
		sb.WriteString("Выберите время или мастера. ❌ - занято.")
	case sel.Staff == "":
		sb.WriteString("Выберите мастера.")
	default:
		sb.WriteString("Все выбрано, можно записываться.")
	}

	markup := workflowKeyboard(sel, av)
	b.editOrSend(chatID, messageID, sb.String(), &markup)
}

// handleWorkflowError показывает ошибку; просроченный токен забывается
func (b *Bot) handleWorkflowError(ctx context.Context, chatID int64, err error) {
	if errors.Is(err, booking.ErrStale) {
		return
	}
	if needsLogin(err) {
		b.customers.HandleUnauthorized(ctx, chatID)
		b.sessions.Delete(chatID)
	}
	b.sendError(chatID, err)
}

func (b *Bot) typing(chatID int64) {
	if err := b.tgService.SendChatAction(chatID, tgbotapi.ChatTyping); err != nil {
		b.logger.Debug().Err(err).Int64("chat_id", chatID).Msg("Failed to send chat action")
	}
}
