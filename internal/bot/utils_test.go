package bot

import (
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUserDate(t *testing.T) {
	b, _ := newTestBot(t)

	for _, in := range []string{"25.12.2025", "2025-12-25", " 25.12.2025 "} {
		got, err := b.parseUserDate(in)
		require.NoError(t, err, in)
		assert.Equal(t, time.Date(2025, 12, 25, 0, 0, 0, 0, time.UTC), got)
	}

	_, err := b.parseUserDate("25/12/2025")
	assert.Error(t, err)
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "₹500", formatPrice(500, "INR"))
	assert.Equal(t, "₹1200", formatPrice(1199.6, "inr"))
	assert.Equal(t, "12.50 EUR", formatPrice(12.5, "EUR"))
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "05.03.2025", formatDate("2025-03-05"))
	assert.Equal(t, "soon", formatDate("soon"))
}

func TestEscapeMarkdown(t *testing.T) {
	assert.Equal(t, "Glow\\_Studio \\*VIP\\*", escapeMarkdown("Glow_Studio *VIP*"))
}

func TestChunk(t *testing.T) {
	buttons := make([]tgbotapi.InlineKeyboardButton, 5)
	rows := chunk(buttons, 3)
	require.Len(t, rows, 2)
	assert.Len(t, rows[0], 3)
	assert.Len(t, rows[1], 2)
	assert.Empty(t, chunk(nil, 3))
}

func TestDateKeyboardMarksSelection(t *testing.T) {
	kb := dateKeyboard(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), 5, "2025-03-11")

	require.Len(t, kb.InlineKeyboard, 3)
	assert.Equal(t, "10.03 Пн", kb.InlineKeyboard[0][0].Text)
	assert.Equal(t, "✅ 11.03 Вт", kb.InlineKeyboard[0][1].Text)
	assert.Equal(t, cbDate+"2025-03-14", *kb.InlineKeyboard[1][0].CallbackData)
}
