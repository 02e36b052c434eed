package bot

import (
	"context"
	"fmt"
	"strings"

	"salonbook/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// openSalons начинает просмотр каталога без фильтра
func (b *Bot) openSalons(ctx context.Context, chatID, userID int64) {
	b.setUserState(ctx, userID, models.StateSelectSalon, map[string]interface{}{"salon_query": ""})
	b.showSalons(ctx, chatID, userID, 0, 0)
}

// showSalons страница каталога; в состоянии хранится поисковый запрос
func (b *Bot) showSalons(ctx context.Context, chatID, userID int64, messageID, page int) {
	query := b.getUserState(ctx, userID).GetString("salon_query")

	salons, err := b.salons.Search(ctx, query)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("query", query).Msg("Error loading salons")
		b.sendError(chatID, err)
		return
	}

	title := "💇 *Салоны*\nНапишите название или город, чтобы отфильтровать список."
	if query != "" {
		title = fmt.Sprintf("🔎 *Салоны по запросу* «%s»", escapeMarkdown(query))
	}

	b.renderPaginatedSalons(PaginationParams{
		ChatID:       chatID,
		MessageID:    messageID,
		Page:         page,
		Title:        title,
		PagePrefix:   cbSalonsPage,
		BackCallback: cbBackToMain,
	}, salons)
}

func (b *Bot) handleNearby(ctx context.Context, chatID int64, loc *tgbotapi.Location) {
	nearby, err := b.salons.Nearby(ctx, loc.Latitude, loc.Longitude)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Error searching nearby salons")
		b.sendError(chatID, err)
		return
	}

	if len(nearby) == 0 {
		b.sendMessage(chatID, "Рядом салонов не найдено. Посмотрите полный список: /salons")
		return
	}

	var sb strings.Builder
	sb.WriteString("📍 *Салоны рядом*\n\n")
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, n := range nearby {
		sb.WriteString(fmt.Sprintf("%d. *%s* — %.1f км\n", i+1, escapeMarkdown(n.Salon.SalonName), n.DistanceKm))
		if addr := n.Salon.Location.String(); addr != "" {
			sb.WriteString(fmt.Sprintf("   📍 %s\n", escapeMarkdown(addr)))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%d. %s", i+1, n.Salon.SalonName), cbSalon+n.Salon.SalonID),
		))
	}
	rows = append(rows, backToMainRow())

	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	b.editOrSend(chatID, 0, sb.String(), &markup)
}

// showSalon карточка салона со списком услуг
func (b *Bot) showSalon(ctx context.Context, chatID int64, messageID int, salonID string) {
	salon, err := b.salons.GetSalon(ctx, salonID)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("salon_id", salonID).Msg("Error loading salon")
		b.sendError(chatID, err)
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("💇 *%s*\n", escapeMarkdown(salon.SalonName)))
	if addr := salon.Location.String(); addr != "" {
		sb.WriteString(fmt.Sprintf("📍 %s\n", escapeMarkdown(addr)))
	}
	if len(salon.Staff) > 0 {
		names := make([]string, 0, len(salon.Staff))
		for _, s := range salon.Staff {
			names = append(names, s.Name)
		}
		sb.WriteString(fmt.Sprintf("👥 %s\n", escapeMarkdown(strings.Join(names, ", "))))
	}
	sb.WriteString("\n")

	var rows [][]tgbotapi.InlineKeyboardButton
	if len(salon.Services) == 0 {
		sb.WriteString("Услуг пока нет.")
	} else {
		sb.WriteString("Выберите услугу:\n")
	}

	// услуги без категории идут последними
	for _, category := range append(salon.Categories(), "") {
		if category != "" {
			sb.WriteString(fmt.Sprintf("\n*%s*\n", escapeMarkdown(category)))
		}
		for _, svc := range salon.Services {
			if svc.Category != category {
				continue
			}
			sb.WriteString(fmt.Sprintf("• %s — %s", escapeMarkdown(svc.Name), formatPrice(svc.Price, b.config.Booking.Currency)))
			if m := svc.Minutes(); m > 0 {
				sb.WriteString(fmt.Sprintf(", %d мин", m))
			}
			sb.WriteString("\n")
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(
					fmt.Sprintf("%s · %s", svc.Name, formatPrice(svc.Price, b.config.Booking.Currency)),
					cbService+salon.SalonID+":"+models.ShortRef(svc.ID),
				),
			))
		}
	}
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("⬅️ К салонам", cbSalonsPage+"0")),
		backToMainRow(),
	)

	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	b.editOrSend(chatID, messageID, sb.String(), &markup)
}
