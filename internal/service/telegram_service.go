package service

import (
	"errors"
	"time"
	"unicode/utf8"

	"salonbook/internal/domain"
	"salonbook/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram режет сообщения длиннее 4096 символов
const maxMessageRunes = 4096

const maxSendAttempts = 3

type TelegramService struct {
	bot   domain.TelegramSender
	sleep func(time.Duration)
}

func NewTelegramService(bot domain.TelegramSender) *TelegramService {
	return &TelegramService{
		bot:   bot,
		sleep: time.Sleep,
	}
}

// Send повторяет отправку, если Telegram ответил 429 с retry_after
func (s *TelegramService) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	var (
		msg tgbotapi.Message
		err error
	)
	for attempt := 1; attempt <= maxSendAttempts; attempt++ {
		msg, err = s.bot.Send(c)
		var tgErr *tgbotapi.Error
		if err == nil || !errors.As(err, &tgErr) || tgErr.RetryAfter <= 0 || attempt == maxSendAttempts {
			return msg, err
		}
		s.sleep(time.Duration(tgErr.RetryAfter) * time.Second)
	}
	return msg, err
}

func (s *TelegramService) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return s.bot.Request(c)
}

func (s *TelegramService) SendMessage(chatID int64, text string) (tgbotapi.Message, error) {
	return s.Send(tgbotapi.NewMessage(chatID, truncate(text)))
}

func (s *TelegramService) SendMarkdown(chatID int64, text string) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, truncate(text))
	msg.ParseMode = models.ParseModeMarkdown
	return s.Send(msg)
}

func (s *TelegramService) SendWithKeyboard(chatID int64, text string, keyboard tgbotapi.ReplyKeyboardMarkup) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, truncate(text))
	msg.ReplyMarkup = keyboard
	return s.Send(msg)
}

func (s *TelegramService) SendWithInlineKeyboard(
	chatID int64,
	text string,
	keyboard tgbotapi.InlineKeyboardMarkup,
) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, truncate(text))
	msg.ParseMode = models.ParseModeMarkdown
	msg.ReplyMarkup = keyboard
	return s.Send(msg)
}

func (s *TelegramService) EditMessage(
	chatID int64,
	messageID int,
	text string,
	keyboard *tgbotapi.InlineKeyboardMarkup,
) (tgbotapi.Message, error) {
	if keyboard != nil {
		msg := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, truncate(text), *keyboard)
		msg.ParseMode = models.ParseModeMarkdown
		return s.Send(msg)
	}
	msg := tgbotapi.NewEditMessageText(chatID, messageID, truncate(text))
	msg.ParseMode = models.ParseModeMarkdown
	return s.Send(msg)
}

func (s *TelegramService) AnswerCallback(callbackID, text string) error {
	_, err := s.bot.Request(tgbotapi.NewCallback(callbackID, text))
	return err
}

// SendChatAction показывает "печатает..." пока идут долгие запросы
func (s *TelegramService) SendChatAction(chatID int64, action string) error {
	_, err := s.bot.Request(tgbotapi.NewChatAction(chatID, action))
	return err
}

func (s *TelegramService) SendDocument(chatID int64, path, caption string) error {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path))
	doc.Caption = caption
	_, err := s.Send(doc)
	return err
}

func (s *TelegramService) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return s.bot.GetUpdatesChan(config)
}

func (s *TelegramService) GetSelf() tgbotapi.User {
	return s.bot.GetSelf()
}

func (s *TelegramService) StopReceivingUpdates() {
	s.bot.StopReceivingUpdates()
}

func truncate(text string) string {
	if utf8.RuneCountInString(text) <= maxMessageRunes {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxMessageRunes-1]) + "…"
}
