package orders

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"eshop/internal/models"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Objednávky"

var exportHeaders = []string{
	"Číslo objednávky",
	"Dátum",
	"Zákazník",
	"E-mail",
	"Stav",
	"Suma",
	"Spôsob platby",
	"Faktúra",
}

// ExportFilename is the download name of the XLSX export.
func ExportFilename(now time.Time) string {
	return fmt.Sprintf("objednavky-%s.xlsx", now.Format("2006-01-02"))
}

// Export writes the orders matching f, without paging, into an XLSX workbook.
func (s *Service) Export(ctx context.Context, f ListFilter) ([]byte, error) {
	query, err := s.filtered(ctx, f)
	if err != nil {
		return nil, err
	}

	var orders []models.Order
	if err := query.Order("created_at desc").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to load orders for export: %w", err)
	}

	return buildWorkbook(orders)
}

func buildWorkbook(orders []models.Order) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyleID, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#1F4E78"}, Pattern: 1},
	})
	moneyStyleID, _ := f.NewStyle(&excelize.Style{NumFmt: 4})

	for i, title := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(exportSheet, cell, title)
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(exportHeaders), 1)
	f.SetCellStyle(exportSheet, "A1", lastHeader, headerStyleID)

	for i, order := range orders {
		row := i + 2
		invoiceNumber := ""
		if order.InvoiceNumber != nil {
			invoiceNumber = *order.InvoiceNumber
		}
		values := []interface{}{
			order.ExternalID,
			order.CreatedAt.Format("2006-01-02 15:04"),
			order.CustomerName,
			order.Email,
			Label(order.Status),
			order.Total.InexactFloat64(),
			order.PaymentMethod,
			invoiceNumber,
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(exportSheet, cell, value)
		}
		totalCell, _ := excelize.CoordinatesToCellName(6, row)
		f.SetCellStyle(exportSheet, totalCell, totalCell, moneyStyleID)
	}

	f.SetColWidth(exportSheet, "A", "A", 22)
	f.SetColWidth(exportSheet, "B", "B", 18)
	f.SetColWidth(exportSheet, "C", "D", 30)
	f.SetColWidth(exportSheet, "E", "H", 16)

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
