package bot

import (
	"context"
	"fmt"
	"strings"

	"salonbook/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

func (b *Bot) handleMessage(ctx context.Context, update *tgbotapi.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID
	text := strings.TrimSpace(update.Message.Text)
	l := zerolog.Ctx(ctx)

	if b.metrics != nil {
		b.metrics.MessagesProcessed.Inc()
		if update.Message.IsCommand() {
			b.metrics.CommandsProcessed.Inc()
		}
	}

	l.Debug().
		Int64("user_id", userID).
		Str("username", update.Message.From.UserName).
		Bool("command", update.Message.IsCommand()).
		Msg("Handling message")

	if update.Message.Location != nil {
		b.handleNearby(ctx, chatID, update.Message.Location)
		return
	}

	if update.Message.IsCommand() {
		b.handleCommand(ctx, update)
		return
	}

	if b.handleMenuButtons(ctx, chatID, userID, text) {
		return
	}

	state := b.getUserState(ctx, userID)
	if state != nil && b.handleUserStateSteps(ctx, update, text, state) {
		return
	}

	b.sendMessage(chatID, "Не понял вас. Выберите действие в меню или отправьте /help")
}

func (b *Bot) handleCommand(ctx context.Context, update *tgbotapi.Update) {
	msg := update.Message
	chatID := msg.Chat.ID
	userID := msg.From.ID

	switch msg.Command() {
	case "start":
		b.clearUserState(ctx, userID)
		b.handleMainMenu(ctx, chatID, userID)

	case "help":
		b.sendHelp(chatID)

	case "login":
		args := strings.Fields(msg.CommandArguments())
		if len(args) < 2 {
			b.setUserState(ctx, userID, models.StateWaitingLogin, nil)
			b.sendMessage(chatID, "Отправьте email и пароль через пробел, например:\nuser@example.com secret")
			return
		}
		b.forgetMessage(chatID, msg.MessageID)
		b.handleLogin(ctx, chatID, userID, args[0], args[1])

	case "logout":
		b.handleLogout(ctx, chatID, userID)

	case "me":
		b.showProfile(ctx, chatID)

	case "salons":
		b.openSalons(ctx, chatID, userID)

	case "appointments":
		b.showAppointments(ctx, chatID, 0, models.TabUpcoming, 0)

	case "export":
		b.handleExport(ctx, chatID)

	default:
		b.sendHelp(chatID)
	}
}

func (b *Bot) handleMenuButtons(ctx context.Context, chatID, userID int64, text string) bool {
	switch text {
	case btnSalons:
		b.openSalons(ctx, chatID, userID)
	case btnAppointments:
		b.showAppointments(ctx, chatID, 0, models.TabUpcoming, 0)
	case btnProfile:
		b.showProfile(ctx, chatID)
	case btnExport:
		b.handleExport(ctx, chatID)
	case btnLogin:
		b.setUserState(ctx, userID, models.StateWaitingLogin, nil)
		b.sendMessage(chatID, "Отправьте email и пароль через пробел, например:\nuser@example.com secret")
	case btnLogout:
		b.handleLogout(ctx, chatID, userID)
	case btnCancel:
		b.clearUserState(ctx, userID)
		b.handleMainMenu(ctx, chatID, userID)
	default:
		return false
	}
	return true
}

// handleUserStateSteps обрабатывает ввод пользователя в зависимости от текущего шага
func (b *Bot) handleUserStateSteps(ctx context.Context, update *tgbotapi.Update, text string, state *models.UserState) bool {
	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID

	switch state.CurrentStep {
	case models.StateWaitingLogin:
		b.forgetMessage(chatID, update.Message.MessageID)
		parts := strings.Fields(text)
		if len(parts) < 2 {
			b.sendMessage(chatID, "Нужны email и пароль через пробел.")
			return true
		}
		b.handleLogin(ctx, chatID, userID, parts[0], parts[1])
		return true

	case models.StateWaitingDate:
		b.handleDateInput(ctx, chatID, userID, text)
		return true

	case models.StateSelectSalon:
		b.setUserState(ctx, userID, models.StateSelectSalon, map[string]interface{}{"salon_query": text})
		b.showSalons(ctx, chatID, userID, 0, 0)
		return true
	}

	return false
}

func (b *Bot) handleLogin(ctx context.Context, chatID, userID int64, email, password string) {
	customer, err := b.customers.Login(ctx, chatID, email, password)
	if err != nil {
		zerolog.Ctx(ctx).Info().Err(err).Int64("chat_id", chatID).Msg("Login failed")
		b.sendError(chatID, err)
		return
	}
	b.clearUserState(ctx, userID)
	b.sendMessage(chatID, fmt.Sprintf("✅ Вы вошли как %s", customer.DisplayName()))
	b.handleMainMenu(ctx, chatID, userID)
}

func (b *Bot) handleLogout(ctx context.Context, chatID, userID int64) {
	if err := b.customers.Logout(ctx, chatID); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("chat_id", chatID).Msg("Logout failed")
		b.sendError(chatID, err)
		return
	}
	b.sessions.Delete(chatID)
	b.sendMessage(chatID, "👋 Вы вышли из аккаунта.")
	b.handleMainMenu(ctx, chatID, userID)
}

func (b *Bot) showProfile(ctx context.Context, chatID int64) {
	customer, err := b.customers.Profile(ctx, chatID)
	if err != nil {
		b.sendError(chatID, err)
		return
	}

	var sb strings.Builder
	sb.WriteString("👤 *Профиль*\n\n")
	sb.WriteString(fmt.Sprintf("Имя: %s\n", escapeMarkdown(orDash(customer.FullName, "—"))))
	sb.WriteString(fmt.Sprintf("Email: %s\n", escapeMarkdown(orDash(customer.Email, "—"))))
	sb.WriteString(fmt.Sprintf("Телефон: %s\n", escapeMarkdown(orDash(customer.MobileNumber, "—"))))
	if customer.Address != "" {
		sb.WriteString(fmt.Sprintf("Адрес: %s\n", escapeMarkdown(customer.Address)))
	}
	if !customer.Complete() {
		sb.WriteString("\n⚠️ Для онлайн-оплаты заполните имя, email и телефон в профиле на сайте салона.")
	}
	b.editOrSend(chatID, 0, sb.String(), nil)
}

func (b *Bot) sendHelp(chatID int64) {
	b.sendMessage(chatID, "Команды:\n"+
		"/start - главное меню\n"+
		"/salons - список салонов\n"+
		"/login email пароль - войти\n"+
		"/logout - выйти\n"+
		"/me - профиль\n"+
		"/appointments - мои записи\n"+
		"/export - выгрузить записи в Excel\n\n"+
		"Отправьте геопозицию, чтобы найти салоны рядом.")
}

// forgetMessage удаляет сообщение с паролем из чата
func (b *Bot) forgetMessage(chatID int64, messageID int) {
	if _, err := b.tgService.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		b.logger.Debug().Err(err).Int64("chat_id", chatID).Msg("Failed to delete credentials message")
	}
}
