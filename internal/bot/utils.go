package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"salonbook/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// Вспомогательные методы для работы с состояниями пользователей

func (b *Bot) setUserState(ctx context.Context, userID int64, step string, tempData map[string]interface{}) {
	if err := b.stateService.SetUserState(ctx, userID, step, tempData); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("user_id", userID).Str("step", step).Msg("Failed to save user state")
	}
}

func (b *Bot) getUserState(ctx context.Context, userID int64) *models.UserState {
	state, err := b.stateService.GetUserState(ctx, userID)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("user_id", userID).Msg("Failed to load user state")
		return nil
	}
	return state
}

func (b *Bot) clearUserState(ctx context.Context, userID int64) {
	if err := b.stateService.ClearUserState(ctx, userID); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("user_id", userID).Msg("Failed to clear user state")
	}
}

func (b *Bot) sendMessage(chatID int64, text string) {
	if _, err := b.tgService.SendMessage(chatID, text); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}
}

func (b *Bot) sendError(chatID int64, err error) {
	b.sendMessage(chatID, b.getErrorMessage(err))
}

// editOrSend редактирует сообщение с кнопками, а без messageID отправляет новое
func (b *Bot) editOrSend(chatID int64, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) {
	var err error
	switch {
	case messageID != 0:
		_, err = b.tgService.EditMessage(chatID, messageID, text, keyboard)
	case keyboard != nil:
		_, err = b.tgService.SendWithInlineKeyboard(chatID, text, *keyboard)
	default:
		_, err = b.tgService.SendMarkdown(chatID, text)
	}
	if err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Int("message_id", messageID).Msg("Failed to render message")
	}
}

// token возвращает токен клиента или просит войти
func (b *Bot) token(ctx context.Context, chatID int64) (string, bool) {
	token, err := b.customers.Token(ctx, chatID)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("chat_id", chatID).Msg("Failed to load token")
		b.sendError(chatID, err)
		return "", false
	}
	if token == "" {
		b.sendMessage(chatID, "🔐 Чтобы записаться, войдите в аккаунт: /login email пароль")
		return "", false
	}
	return token, true
}

// handleMainMenu главное меню
func (b *Bot) handleMainMenu(ctx context.Context, chatID, userID int64) {
	loggedIn := false
	if token, err := b.customers.Token(ctx, chatID); err == nil && token != "" {
		loggedIn = true
	}

	b.setUserState(ctx, userID, models.StateMainMenu, nil)
	if _, err := b.tgService.SendWithKeyboard(chatID, "Добро пожаловать! Выберите действие:", mainMenuKeyboard(loggedIn)); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send main menu")
	}
}

func (b *Bot) today() time.Time {
	now := time.Now().In(b.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, b.loc)
}

// parseUserDate принимает ДД.ММ.ГГГГ и ГГГГ-ММ-ДД
func (b *Bot) parseUserDate(text string) (time.Time, error) {
	text = strings.TrimSpace(text)
	for _, layout := range []string{models.DisplayDateLayout, models.DateLayout} {
		if t, err := time.ParseInLocation(layout, text, b.loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", text)
}

func formatDate(date string) string {
	t, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return date
	}
	return t.Format(models.DisplayDateLayout)
}

func formatPrice(price float64, currency string) string {
	if strings.EqualFold(currency, "INR") {
		return fmt.Sprintf("₹%.0f", price)
	}
	return fmt.Sprintf("%.2f %s", price, currency)
}

var weekdays = [...]string{"Вс", "Пн", "Вт", "Ср", "Чт", "Пт", "Сб"}

func weekday(t time.Time) string {
	return weekdays[t.Weekday()]
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

// escapeMarkdown экранирует данные backend для ParseMode Markdown
func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

func orDash(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
