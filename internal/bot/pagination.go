package bot

import (
	"fmt"
	"strings"

	"salonbook/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type PaginationParams struct {
	ChatID       int64
	MessageID    int // 0 if new message
	Page         int
	Title        string
	PagePrefix   string
	BackCallback string
	// HeaderRows выводятся над списком, например вкладки
	HeaderRows [][]tgbotapi.InlineKeyboardButton
}

// renderPaginatedList - универсальная функция для отрисовки пагинированного списка
func (b *Bot) renderPaginatedList(params PaginationParams, totalCount int, itemsPerPage int, renderer func(startIdx, endIdx int) (string, [][]tgbotapi.InlineKeyboardButton)) {
	if itemsPerPage <= 0 {
		itemsPerPage = b.config.Bot.PaginationSize
	}
	if itemsPerPage <= 0 {
		itemsPerPage = models.DefaultPaginationSize
	}
	if params.Page < 0 {
		params.Page = 0
	}

	startIdx := params.Page * itemsPerPage
	endIdx := startIdx + itemsPerPage
	if endIdx > totalCount {
		endIdx = totalCount
	}

	totalPages := (totalCount + itemsPerPage - 1) / itemsPerPage
	if params.Page >= totalPages && totalPages > 0 {
		params.Page = totalPages - 1
		startIdx = params.Page * itemsPerPage
		endIdx = totalCount
	}
	if startIdx > endIdx {
		startIdx = endIdx
	}

	content, items := renderer(startIdx, endIdx)

	var message strings.Builder
	message.WriteString(fmt.Sprintf("%s\n\n", params.Title))
	if totalPages > 1 {
		message.WriteString(fmt.Sprintf("Страница %d из %d\n\n", params.Page+1, totalPages))
	}
	message.WriteString(content)

	keyboard := append([][]tgbotapi.InlineKeyboardButton{}, params.HeaderRows...)
	keyboard = append(keyboard, items...)

	// Добавляем навигационные кнопки
	var navButtons []tgbotapi.InlineKeyboardButton
	if params.Page > 0 {
		navButtons = append(navButtons, tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад", fmt.Sprintf("%s%d", params.PagePrefix, params.Page-1)))
	}
	if endIdx < totalCount {
		navButtons = append(navButtons, tgbotapi.NewInlineKeyboardButtonData("Вперед ➡️", fmt.Sprintf("%s%d", params.PagePrefix, params.Page+1)))
	}
	if len(navButtons) > 0 {
		keyboard = append(keyboard, navButtons)
	}

	if params.BackCallback != "" {
		keyboard = append(keyboard, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад в меню", params.BackCallback),
		})
	}

	markup := tgbotapi.NewInlineKeyboardMarkup(keyboard...)
	b.editOrSend(params.ChatID, params.MessageID, message.String(), &markup)
}

// renderPaginatedSalons - обертка для списка салонов
func (b *Bot) renderPaginatedSalons(params PaginationParams, salons []models.Salon) {
	b.renderPaginatedList(params, len(salons), 0, func(startIdx, endIdx int) (string, [][]tgbotapi.InlineKeyboardButton) {
		var content strings.Builder
		var keyboard [][]tgbotapi.InlineKeyboardButton

		if len(salons) == 0 {
			content.WriteString("Салоны не найдены. Попробуйте другой запрос.")
		}

		for i, salon := range salons[startIdx:endIdx] {
			content.WriteString(fmt.Sprintf("%d. *%s*\n", startIdx+i+1, escapeMarkdown(salon.SalonName)))
			if addr := salon.Location.String(); addr != "" {
				content.WriteString(fmt.Sprintf("   📍 %s\n", escapeMarkdown(addr)))
			}
			content.WriteString("\n")

			btn := tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("%d. %s", startIdx+i+1, salon.SalonName),
				cbSalon+salon.SalonID,
			)
			keyboard = append(keyboard, []tgbotapi.InlineKeyboardButton{btn})
		}

		return content.String(), keyboard
	})
}

// renderPaginatedAppointments - обертка для списка записей одной вкладки
func (b *Bot) renderPaginatedAppointments(params PaginationParams, tab models.AppointmentTab, list []models.Appointment) {
	b.renderPaginatedList(params, len(list), models.DefaultAppointmentsPaginationSize, func(startIdx, endIdx int) (string, [][]tgbotapi.InlineKeyboardButton) {
		var content strings.Builder
		var keyboard [][]tgbotapi.InlineKeyboardButton

		if len(list) == 0 {
			content.WriteString("Записей нет.")
		}

		for _, apt := range list[startIdx:endIdx] {
			content.WriteString(b.formatAppointment(apt))
			content.WriteString("\n")

			if tab == models.TabUpcoming {
				day, _ := apt.Day(b.loc)
				btn := tgbotapi.NewInlineKeyboardButtonData(
					fmt.Sprintf("❌ Отменить %s %s", day.Format("02.01"), apt.Time),
					cbApptCancel+apt.ID,
				)
				keyboard = append(keyboard, []tgbotapi.InlineKeyboardButton{btn})
			}
		}

		return content.String(), keyboard
	})
}
