package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Chqrety/reservation/internal/models"

	"github.com/xuri/excelize/v2"
)

var reservationHeaders = []string{"No", "Order", "Nama", "No. HP", "Alamat", "Gedung", "Tanggal", "Catatan"}

// Reservations writes the reservation list as an XLSX workbook to w.
func Reservations(w io.Writer, sheetName string, filter models.ReservationFilter, items []models.Reservation) error {
	if sheetName == "" {
		sheetName = "Reservations"
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if sheetName != "Sheet1" {
		_ = f.DeleteSheet("Sheet1")
	}

	_ = f.SetCellValue(sheetName, "A1", Title(filter))
	lastCol, _ := excelize.ColumnNumberToName(len(reservationHeaders))
	_ = f.MergeCell(sheetName, "A1", lastCol+"1")
	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	for i, h := range reservationHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(sheetName, cell, h)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for i := range items {
		r := &items[i]
		row := i + 3
		values := []any{i + 1, r.OrderNumber, r.CustomerName, r.PhoneNumber, r.Address, r.LocationName(), r.ReservationDate, r.Note}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 6)
	_ = f.SetColWidth(sheetName, "B", lastCol, 20)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Title describes the filters applied to an export.
func Title(filter models.ReservationFilter) string {
	parts := []string{"Data Reservasi"}
	if filter.Search != "" {
		parts = append(parts, fmt.Sprintf("cari %q", filter.Search))
	}
	if filter.Date != "" {
		if d, err := time.Parse(models.DateLayout, filter.Date); err == nil {
			parts = append(parts, "tanggal "+d.Format("02.01.2006"))
		} else {
			parts = append(parts, "tanggal "+filter.Date)
		}
	}
	if filter.LocationID != 0 {
		parts = append(parts, fmt.Sprintf("gedung #%d", filter.LocationID))
	}
	return strings.Join(parts, " - ")
}

// FileName returns the download name of an export made at t.
func FileName(t time.Time) string {
	return fmt.Sprintf("reservations_%s.xlsx", t.Format("2006-01-02_150405"))
}
