package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"voyago/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// Exporter renders booking reports as XLSX workbooks for the admin area.
type Exporter struct {
	dir    string
	logger *zerolog.Logger
}

func NewExporter(dir string, logger *zerolog.Logger) *Exporter {
	return &Exporter{dir: dir, logger: logger}
}

var headers = []string{
	"Reference", "Status", "Type", "Item", "Customer ID",
	"Start", "End", "Guests", "Total", "Intent ID", "Created",
}

func buildWorkbook(bookings []*models.Booking, start, end time.Time) (*excelize.File, error) {
	f := excelize.NewFile()

	const sheetName = "Bookings"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Bookings %s - %s",
		start.Format("2006-01-02"), end.Format("2006-01-02")))
	_ = f.MergeCell(sheetName, "A1", "K1")

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	headerStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(sheetName, cell, h)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for row, b := range bookings {
		values := []any{
			b.Reference, b.Status, string(b.BookingType), b.ItemName, b.UserID,
			b.StartDate.Format("2006-01-02"), b.EndDate.Format("2006-01-02"),
			b.Guests, b.TotalPrice, b.PaymentIntentID, b.CreatedAt.Format(time.RFC3339),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+3)
			_ = f.SetCellValue(sheetName, cell, v)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "K", 18)
	return f, nil
}

// WriteBookings streams the workbook to w, for direct HTTP download.
func (e *Exporter) WriteBookings(w io.Writer, bookings []*models.Booking, start, end time.Time) error {
	f, err := buildWorkbook(bookings, start, end)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

// SaveBookings writes the workbook under the export directory and returns
// the file path.
func (e *Exporter) SaveBookings(bookings []*models.Booking, start, end time.Time) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	f, err := buildWorkbook(bookings, start, end)
	if err != nil {
		return "", err
	}
	defer f.Close()

	fileName := fmt.Sprintf("bookings_%s_to_%s.xlsx",
		start.Format("2006-01-02"), end.Format("2006-01-02"))
	filePath := filepath.Join(e.dir, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("save export file: %w", err)
	}

	e.logger.Info().Str("file_path", filePath).Int("rows", len(bookings)).Msg("export file created")
	return filePath, nil
}
