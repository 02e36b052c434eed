package bot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"salonbook/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const journalSheet = "Журнал"

var appointmentHeaders = []string{"Дата", "Время", "Салон", "Услуга", "Мастер", "Оплата", "Статус", "ID"}

var journalHeaders = []string{"Дата", "Время", "Салон", "Услуга", "Мастер", "Оплата", "Статус", "ID записи", "Создано"}

// handleExport выгружает записи клиента в Excel и отправляет файлом
func (b *Bot) handleExport(ctx context.Context, chatID int64) {
	l := zerolog.Ctx(ctx)

	tabs, err := b.appointments.List(ctx, chatID)
	if err != nil {
		l.Error().Err(err).Int64("chat_id", chatID).Msg("Error loading appointments for export")
		b.sendError(chatID, err)
		return
	}

	var journal []*models.BookingRecord
	if b.journal != nil {
		journal, err = b.journal.GetChatBookings(ctx, chatID)
		if err != nil {
			// журнал вспомогательный, выгружаем без него
			l.Warn().Err(err).Int64("chat_id", chatID).Msg("Error loading booking journal")
		}
	}

	b.typing(chatID)
	filePath, err := b.exportAppointments(chatID, tabs, journal)
	if err != nil {
		l.Error().Err(err).Int64("chat_id", chatID).Msg("Error creating export")
		b.sendMessage(chatID, "Ошибка при создании выгрузки.")
		return
	}
	defer func() {
		if err := os.Remove(filePath); err != nil {
			l.Warn().Err(err).Str("file_path", filePath).Msg("Failed to remove export file")
		}
	}()

	if err := b.tgService.SendDocument(chatID, filePath, "📥 Ваши записи"); err != nil {
		l.Error().Err(err).Str("file_path", filePath).Msg("Error sending export file")
		b.sendMessage(chatID, "Ошибка при отправке файла.")
	}
}

// exportAppointments создает xlsx: лист на каждую вкладку и лист журнала
func (b *Bot) exportAppointments(
	chatID int64,
	tabs map[models.AppointmentTab][]models.Appointment,
	journal []*models.BookingRecord,
) (string, error) {
	if err := os.MkdirAll(b.config.Exports.Path, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return "", fmt.Errorf("error creating style: %w", err)
	}
	cancelledStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "#9C0006"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FFC7CE"}, Pattern: 1},
	})

	for i, tab := range appointmentTabs {
		sheet := tabTitles[tab]
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return "", fmt.Errorf("error renaming sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return "", fmt.Errorf("error creating sheet: %w", err)
		}

		writeHeaderRow(f, sheet, appointmentHeaders, headerStyle)
		for r, apt := range tabs[tab] {
			row := r + 2
			date := apt.BookingDate
			if day, ok := apt.Day(b.loc); ok {
				date = day.Format(models.DisplayDateLayout)
			}
			service := ""
			if svc, ok := apt.PrimaryService(); ok {
				service = svc.Name
			}
			values := []interface{}{
				date, apt.Time, orDash(apt.SalonName, apt.SalonID), service,
				apt.Staff, apt.PaymentMethod, apt.Status, apt.ID,
			}
			cell, _ := excelize.CoordinatesToCellName(1, row)
			if err := f.SetSheetRow(sheet, cell, &values); err != nil {
				return "", fmt.Errorf("error writing row: %w", err)
			}
		}
		setColumnWidths(f, sheet, len(appointmentHeaders))
	}

	if _, err := f.NewSheet(journalSheet); err != nil {
		return "", fmt.Errorf("error creating sheet: %w", err)
	}
	writeHeaderRow(f, journalSheet, journalHeaders, headerStyle)
	for r, rec := range journal {
		row := r + 2
		values := []interface{}{
			formatDate(rec.Date), rec.Time, rec.SalonName, rec.ServiceName, rec.Staff,
			rec.PaymentMethod, rec.Status, rec.AppointmentID,
			rec.CreatedAt.In(b.loc).Format("02.01.2006 15:04"),
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(journalSheet, cell, &values); err != nil {
			return "", fmt.Errorf("error writing row: %w", err)
		}
		if rec.Status == models.StatusCancelled {
			last, _ := excelize.CoordinatesToCellName(len(journalHeaders), row)
			_ = f.SetCellStyle(journalSheet, cell, last, cancelledStyle)
		}
	}
	setColumnWidths(f, journalSheet, len(journalHeaders))

	f.SetActiveSheet(0)

	fileName := fmt.Sprintf("appointments_%d_%s.xlsx", chatID, time.Now().In(b.loc).Format("2006-01-02_150405"))
	filePath := filepath.Join(b.config.Exports.Path, fileName)
	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %w", err)
	}

	b.logger.Info().Str("file_path", filePath).Int64("chat_id", chatID).Msg("Excel file created")
	return filePath, nil
}

func writeHeaderRow(f *excelize.File, sheet string, headers []string, style int) {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	_ = f.SetCellStyle(sheet, "A1", last, style)
}

func setColumnWidths(f *excelize.File, sheet string, columns int) {
	last, _ := excelize.ColumnNumberToName(columns)
	_ = f.SetColWidth(sheet, "A", last, 18)
}
