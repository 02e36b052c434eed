package bot

import (
	"fmt"
	"time"

	"salonbook/internal/booking"
	"salonbook/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	btnSalons       = "💇 Салоны"
	btnNearby       = "📍 Салоны рядом"
	btnAppointments = "📅 Мои записи"
	btnProfile      = "👤 Профиль"
	btnExport       = "📥 Экспорт записей"
	btnLogin        = "🔐 Войти"
	btnLogout       = "🚪 Выйти"
	btnCancel       = "❌ Отмена"
)

const (
	cbBackToMain    = "back_to_main"
	cbSalonsPage    = "salons_page:"
	cbSalon         = "salon:"
	cbService       = "svc:"
	cbDate          = "date:"
	cbDateCustom    = "date_custom"
	cbDatePicker    = "date_picker"
	cbTime          = "time:"
	cbTimeFull      = "time_full"
	cbStaff         = "staff:"
	cbShowWorkflow  = "wf_show"
	cbRefresh       = "refresh"
	cbConfirm       = "confirm"
	cbPay           = "pay:"
	cbApptTab       = "appt_tab:"
	cbApptPage      = "appt_page:"
	cbApptCancel    = "appt_cancel:"
	cbApptCancelYes = "appt_cancel_yes:"
)

const (
	timesPerRow = 4
	staffPerRow = 2
	datesPerRow = 4
)

func mainMenuKeyboard(loggedIn bool) tgbotapi.ReplyKeyboardMarkup {
	account := tgbotapi.NewKeyboardButton(btnLogin)
	if loggedIn {
		account = tgbotapi.NewKeyboardButton(btnLogout)
	}
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSalons),
			tgbotapi.NewKeyboardButtonLocation(btnNearby),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnAppointments),
			tgbotapi.NewKeyboardButton(btnProfile),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnExport),
			account,
		),
	)
}

func backToMainRow() []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад в меню", cbBackToMain))
}

// chunk раскладывает кнопки по рядам
func chunk(buttons []tgbotapi.InlineKeyboardButton, perRow int) [][]tgbotapi.InlineKeyboardButton {
	var rows [][]tgbotapi.InlineKeyboardButton
	for len(buttons) > 0 {
		n := perRow
		if len(buttons) < n {
			n = len(buttons)
		}
		rows = append(rows, buttons[:n])
		buttons = buttons[n:]
	}
	return rows
}

// workflowKeyboard слоты дня, мастера для выбранного времени и действия
func workflowKeyboard(sel booking.Selection, av booking.Availability) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton

	times := make([]tgbotapi.InlineKeyboardButton, 0, len(av.Times))
	for _, t := range av.Times {
		switch {
		case av.IsFullyBooked(t):
			times = append(times, tgbotapi.NewInlineKeyboardButtonData("❌ "+t, cbTimeFull))
		case t == sel.Time:
			times = append(times, tgbotapi.NewInlineKeyboardButtonData("✅ "+t, cbTime+t))
		default:
			times = append(times, tgbotapi.NewInlineKeyboardButtonData(t, cbTime+t))
		}
	}
	rows = append(rows, chunk(times, timesPerRow)...)

	staff := make([]tgbotapi.InlineKeyboardButton, 0)
	for _, name := range av.CandidateStaff(sel.Time) {
		label := "👤 " + name
		if name == sel.Staff {
			label = "✅ " + name
		}
		staff = append(staff, tgbotapi.NewInlineKeyboardButtonData(label, cbStaff+models.ShortRef(name)))
	}
	rows = append(rows, chunk(staff, staffPerRow)...)

	actions := tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("📅 Дата", cbDatePicker),
		tgbotapi.NewInlineKeyboardButtonData("🔄 Обновить", cbRefresh),
	)
	if sel.Ready() {
		actions = append(actions, tgbotapi.NewInlineKeyboardButtonData("✅ Записаться", cbConfirm))
	}
	rows = append(rows, actions, backToMainRow())

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// dateKeyboard ближайшие days дней начиная с today
func dateKeyboard(today time.Time, days int, selected string) tgbotapi.InlineKeyboardMarkup {
	if days <= 0 {
		days = models.BookingHorizonDays
	}
	buttons := make([]tgbotapi.InlineKeyboardButton, 0, days)
	for i := 0; i < days; i++ {
		d := today.AddDate(0, 0, i)
		value := d.Format(models.DateLayout)
		label := fmt.Sprintf("%s %s", d.Format("02.01"), weekday(d))
		if value == selected {
			label = "✅ " + label
		}
		buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(label, cbDate+value))
	}
	rows := chunk(buttons, datesPerRow)
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✏️ Другая дата", cbDateCustom),
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад", cbShowWorkflow),
		),
	)
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func paymentKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💵 В салоне", cbPay+string(models.PaymentCash)),
			tgbotapi.NewInlineKeyboardButtonData("💳 Онлайн", cbPay+string(models.PaymentOnline)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад", cbShowWorkflow),
		),
	)
}

// staffByRef находит мастера по ссылке из кнопки в текущем расписании
func staffByRef(sel booking.Selection, av booking.Availability, ref string) (string, bool) {
	for _, name := range append(av.CandidateStaff(sel.Time), av.Roster...) {
		if models.ShortRef(name) == ref {
			return name, true
		}
	}
	return "", false
}
