package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"salonbook/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockTelegramSender struct {
	mock.Mock
}

func (m *mockTelegramSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	args := m.Called(c)
	return args.Get(0).(tgbotapi.Message), args.Error(1)
}

func (m *mockTelegramSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	args := m.Called(c)
	return args.Get(0).(*tgbotapi.APIResponse), args.Error(1)
}

func (m *mockTelegramSender) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	args := m.Called(config)
	return args.Get(0).(tgbotapi.UpdatesChannel)
}

func (m *mockTelegramSender) GetSelf() tgbotapi.User {
	args := m.Called()
	return args.Get(0).(tgbotapi.User)
}

func (m *mockTelegramSender) StopReceivingUpdates() {
	m.Called()
}

func TestTelegramService(t *testing.T) {
	mockSender := new(mockTelegramSender)
	svc := NewTelegramService(mockSender)
	svc.sleep = func(time.Duration) {}

	t.Run("SendMessage", func(t *testing.T) {
		mockSender.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
			msg, ok := c.(tgbotapi.MessageConfig)
			return ok && msg.Text == "hello" && msg.ChatID == 123
		})).Return(tgbotapi.Message{}, nil).Once()

		_, err := svc.SendMessage(123, "hello")
		assert.NoError(t, err)
		mockSender.AssertExpectations(t)
	})

	t.Run("SendMarkdownTruncates", func(t *testing.T) {
		long := strings.Repeat("я", maxMessageRunes+10)
		mockSender.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
			msg, ok := c.(tgbotapi.MessageConfig)
			return ok && msg.ParseMode == models.ParseModeMarkdown && len([]rune(msg.Text)) == maxMessageRunes
		})).Return(tgbotapi.Message{}, nil).Once()

		_, err := svc.SendMarkdown(1, long)
		assert.NoError(t, err)
		mockSender.AssertExpectations(t)
	})

	t.Run("RetriesOnFloodWait", func(t *testing.T) {
		flood := &tgbotapi.Error{Code: 429, Message: "Too Many Requests", ResponseParameters: tgbotapi.ResponseParameters{RetryAfter: 1}}
		mockSender.On("Send", mock.Anything).Return(tgbotapi.Message{}, flood).Once()
		mockSender.On("Send", mock.Anything).Return(tgbotapi.Message{MessageID: 5}, nil).Once()

		msg, err := svc.SendMessage(1, "retry me")
		require.NoError(t, err)
		assert.Equal(t, 5, msg.MessageID)
		mockSender.AssertExpectations(t)
	})

	t.Run("NoRetryOnOtherErrors", func(t *testing.T) {
		mockSender.On("Send", mock.Anything).Return(tgbotapi.Message{}, errors.New("chat not found")).Once()

		_, err := svc.SendMessage(1, "x")
		assert.Error(t, err)
		mockSender.AssertExpectations(t)
	})

	t.Run("EditMessage", func(t *testing.T) {
		kb := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("ok", "ok")))
		mockSender.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
			msg, ok := c.(tgbotapi.EditMessageTextConfig)
			return ok && msg.MessageID == 10 && msg.ReplyMarkup != nil
		})).Return(tgbotapi.Message{}, nil).Once()

		_, err := svc.EditMessage(1, 10, "edited", &kb)
		assert.NoError(t, err)
		mockSender.AssertExpectations(t)
	})

	t.Run("AnswerCallback", func(t *testing.T) {
		mockSender.On("Request", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
			cb, ok := c.(tgbotapi.CallbackConfig)
			return ok && cb.CallbackQueryID == "cb1"
		})).Return(&tgbotapi.APIResponse{Ok: true}, nil).Once()

		assert.NoError(t, svc.AnswerCallback("cb1", ""))
		mockSender.AssertExpectations(t)
	})

	t.Run("SendChatAction", func(t *testing.T) {
		mockSender.On("Request", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
			a, ok := c.(tgbotapi.ChatActionConfig)
			return ok && a.Action == tgbotapi.ChatTyping
		})).Return(&tgbotapi.APIResponse{Ok: true}, nil).Once()

		assert.NoError(t, svc.SendChatAction(1, tgbotapi.ChatTyping))
		mockSender.AssertExpectations(t)
	})

	t.Run("SendDocument", func(t *testing.T) {
		mockSender.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
			d, ok := c.(tgbotapi.DocumentConfig)
			return ok && d.Caption == "appointments"
		})).Return(tgbotapi.Message{}, nil).Once()

		assert.NoError(t, svc.SendDocument(1, "/tmp/a.xlsx", "appointments"))
		mockSender.AssertExpectations(t)
	})
}
