package bot

import (
	"errors"

	"salonbook/internal/api"
	"salonbook/internal/booking"
	"salonbook/internal/service"
)

func (b *Bot) getErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, booking.ErrBusy):
		return "⏳ Запись уже оформляется. Дождитесь результата."

	case errors.Is(err, booking.ErrPaidNotBooked):
		msg := "⚠️ Оплата прошла, но запись не создана: выбранное время уже недоступно. Оплата передана на возврат, выберите другое время."
		if apiErr, ok := api.IsServerMessage(err); ok {
			msg += "\nОтвет салона: " + apiErr.Message
		}
		return msg

	case errors.Is(err, service.ErrNotLoggedIn),
		errors.Is(err, booking.ErrUnauthenticated),
		api.IsUnauthorized(err):
		return "🔐 Сессия истекла или вы не вошли. Войдите: /login email пароль"

	case errors.Is(err, service.ErrInvalidCredentials):
		return "❌ Неверный email или пароль."

	case errors.Is(err, service.ErrNotCancellable):
		return "⚠️ Отменить можно только предстоящую запись."

	case errors.Is(err, service.ErrSalonNotFound):
		return "⚠️ Салон не найден."

	case errors.Is(err, service.ErrServiceNotFound):
		return "⚠️ Услуга не найдена."
	}

	// текст от backend показываем как есть
	if apiErr, ok := api.IsServerMessage(err); ok {
		return "❌ " + apiErr.Message
	}

	switch booking.KindOf(err) {
	case booking.KindConflict:
		return "⚠️ Выбранное время только что заняли. Расписание обновлено, выберите другое время или мастера."
	case booking.KindPaymentAborted:
		if errors.Is(err, booking.ErrPaymentInterrupted) {
			return "💳 Не дождались подтверждения оплаты, запись не создана. Если деньги списались, свяжитесь с салоном."
		}
		return "💳 Оплата не завершена, запись не создана. Деньги не списаны."
	case booking.KindValidation:
		return validationMessage(err)
	case booking.KindNetwork:
		return "🌐 Сервер салонов недоступен. Попробуйте позже."
	}

	// Default error message
	return "❌ Произошла ошибка при обработке вашего запроса. Пожалуйста, попробуйте позже."
}

// needsLogin сообщает, что ошибка означает просроченный или отсутствующий токен
func needsLogin(err error) bool {
	return errors.Is(err, booking.ErrUnauthenticated) || api.IsUnauthorized(err) || errors.Is(err, service.ErrNotLoggedIn)
}

var validationMessages = []struct {
	cause error
	text  string
}{
	{booking.ErrPastDate, "⚠️ Нельзя выбрать прошедшую дату."},
	{booking.ErrInvalidDate, "⚠️ Неверная дата. Выберите дату из списка."},
	{booking.ErrNoDate, "⚠️ Сначала выберите дату."},
	{booking.ErrNothingToRefresh, "⚠️ Сначала выберите дату."},
	{booking.ErrLoading, "⏳ Расписание еще загружается, подождите пару секунд."},
	{booking.ErrNotLoaded, "⚠️ Расписание на эту дату не загружено. Нажмите «Обновить»."},
	{booking.ErrTimeFull, "⚠️ На это время все мастера заняты. Выберите другое время."},
	{booking.ErrStaffBusy, "⚠️ Мастер занят в это время. Выберите другого мастера или время."},
	{booking.ErrNotInRoster, "⚠️ Этот мастер не выполняет такие услуги."},
	{booking.ErrIncomplete, "⚠️ Выберите дату, время и мастера."},
	{booking.ErrPaymentMethod, "⚠️ Такой способ оплаты не поддерживается."},
	{booking.ErrProfileIncomplete, "⚠️ Для онлайн-оплаты в профиле нужны имя, email и телефон. Заполните профиль на сайте салона или выберите оплату в салоне."},
}

func validationMessage(err error) string {
	for _, m := range validationMessages {
		if errors.Is(err, m.cause) {
			return m.text
		}
	}
	return "⚠️ Проверьте выбор даты, времени и мастера."
}
