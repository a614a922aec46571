// Package report renders profitability reports as downloadable
// documents: an XLSX workbook and a printable HTML statement.
package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"orderflow/internal/core"
)

const sheetName = "Profitability"

var excelHeaders = []string{"Order", "Date", "Customer", "Revenue", "Cost", "Margin", "Margin %"}

// WriteXLSX renders the report as a spreadsheet: one row per order, a
// totals row, margin percentages as Excel percent cells.
func WriteXLSX(w io.Writer, rep *core.ProfitabilityReport) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create report sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDDDDD"}},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return fmt.Errorf("create money style: %w", err)
	}
	percentStyle, err := f.NewStyle(&excelize.Style{NumFmt: 10}) // 0.00%
	if err != nil {
		return fmt.Errorf("create percent style: %w", err)
	}
	totalStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}, NumFmt: 4})
	if err != nil {
		return fmt.Errorf("create totals style: %w", err)
	}

	for col, h := range excelHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return fmt.Errorf("write header %s: %w", h, err)
		}
	}
	if err := f.SetCellStyle(sheetName, "A1", "G1", headerStyle); err != nil {
		return fmt.Errorf("style header row: %w", err)
	}

	row := 2
	for _, order := range rep.Orders {
		revenue, _ := order.Revenue.Float64()
		cost, _ := order.Cost.Float64()
		margin, _ := order.Margin.Float64()
		pct, _ := order.MarginPercent.Float64()

		values := []any{order.OrderNumber, order.OrderDate, order.CustomerName, revenue, cost, margin, pct}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return fmt.Errorf("write report row %d: %w", row, err)
			}
		}
		row++
	}

	totalRevenue, _ := rep.TotalRevenue.Float64()
	totalCost, _ := rep.TotalCost.Float64()
	totalMargin, _ := rep.TotalMargin.Float64()
	totalPct, _ := rep.MarginPercent.Float64()
	totals := []any{"Total", "", "", totalRevenue, totalCost, totalMargin, totalPct}
	for col, v := range totals {
		cell, _ := excelize.CoordinatesToCellName(col+1, row)
		if err := f.SetCellValue(sheetName, cell, v); err != nil {
			return fmt.Errorf("write totals row: %w", err)
		}
	}

	if row > 2 {
		if err := f.SetCellStyle(sheetName, "D2", fmt.Sprintf("F%d", row-1), moneyStyle); err != nil {
			return fmt.Errorf("style money columns: %w", err)
		}
		if err := f.SetCellStyle(sheetName, "G2", fmt.Sprintf("G%d", row-1), percentStyle); err != nil {
			return fmt.Errorf("style percent column: %w", err)
		}
	}
	if err := f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("F%d", row), totalStyle); err != nil {
		return fmt.Errorf("style totals row: %w", err)
	}
	if err := f.SetCellStyle(sheetName, fmt.Sprintf("G%d", row), fmt.Sprintf("G%d", row), percentStyle); err != nil {
		return fmt.Errorf("style totals percent: %w", err)
	}

	if err := f.SetColWidth(sheetName, "A", "A", 16); err != nil {
		return fmt.Errorf("set column widths: %w", err)
	}
	if err := f.SetColWidth(sheetName, "B", "C", 18); err != nil {
		return fmt.Errorf("set column widths: %w", err)
	}
	if err := f.SetColWidth(sheetName, "D", "G", 12); err != nil {
		return fmt.Errorf("set column widths: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
