package report

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/UnknownOlympus/numera/internal/models"
	"github.com/xuri/excelize/v2"
)

var ErrNoEmployees = errors.New("failed to generate report, 0 employees were provided")

const maxSheetNameLength = 31

// Generator holds the state for the Excel report generation process.
type Generator struct {
	file *excelize.File
}

// NewGenerator creates a new report generator.
func NewGenerator() *Generator {
	return &Generator{
		file: excelize.NewFile(),
	}
}

// GenerateEmployeeStatsReport renders the per-employee statistics for a period into an
// Excel workbook with a single sheet named after the period. Rows keep the given order.
func GenerateEmployeeStatsReport(period models.Period, rows []models.EmployeeStats) (*bytes.Buffer, error) {
	var err error

	if len(rows) == 0 {
		return nil, ErrNoEmployees
	}

	gen := NewGenerator()
	defer gen.file.Close()

	sheetName := truncateSheetName(SheetName(period))
	if _, err = gen.file.NewSheet(sheetName); err != nil {
		return nil, fmt.Errorf("failed to generate new sheet '%s': %w", sheetName, err)
	}

	if err = gen.setupSheet(sheetName, len(rows)); err != nil {
		return nil, fmt.Errorf("failed to setup sheet '%s': %w", sheetName, err)
	}

	headerIndex := 2
	for i, row := range rows {
		if err = gen.addRow(sheetName, i+headerIndex, row); err != nil { // first row is the header
			return nil, fmt.Errorf("failed to add row '%d': %w", i+headerIndex, err)
		}
	}

	if err = gen.addTotals(sheetName, len(rows)+headerIndex, rows); err != nil {
		return nil, fmt.Errorf("failed to add totals: %w", err)
	}

	index, _ := gen.file.GetSheetIndex(sheetName)
	gen.file.SetActiveSheet(index)

	// delete default sheet
	if sheetIndex, _ := gen.file.GetSheetIndex("Sheet1"); sheetIndex != -1 {
		if err = gen.file.DeleteSheet("Sheet1"); err != nil {
			return nil, fmt.Errorf("failed to delete default sheet 'Sheet1': %w", err)
		}
	}

	buffer, err := gen.file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write data from saved file: %w", err)
	}

	return buffer, nil
}

// SheetName returns the human readable title of a period.
func SheetName(period models.Period) string {
	switch period {
	case models.PeriodToday:
		return "Today"
	case models.PeriodMonth:
		return "This month"
	case models.PeriodAll:
		return "All time"
	default:
		return string(period)
	}
}

// setupSheet writes the styled header row, sets column widths and adds a table over the data rows.
func (g *Generator) setupSheet(sheetName string, rowCount int) error {
	var err error

	headerStyle, err := g.file.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Vertical: "center", Horizontal: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create new style: %w", err)
	}

	rowHeight := 20
	headers := []string{
		"Name", "Username", "Total", "Completed", "Pending", "Cancelled", "Success rate, %", "Last activity",
	}
	if err = g.file.SetRowHeight(sheetName, 1, float64(rowHeight)); err != nil {
		return fmt.Errorf("failed to set row height for headers: %w", err)
	}
	if err = g.file.SetSheetRow(sheetName, "A1", &headers); err != nil {
		return fmt.Errorf("failed to set sheet row for headers: %w", err)
	}
	if err = g.file.SetCellStyle(sheetName, "A1", "H1", headerStyle); err != nil {
		return fmt.Errorf("failed to set cell style for headers: %w", err)
	}

	widths := map[string]float64{
		"A": 30, "B": 20, "C": 10, "D": 12, "E": 10, "F": 12, "G": 16, "H": 16, //nolint:mnd // column widths
	}
	for col, width := range widths {
		if err = g.file.SetColWidth(sheetName, col, col, width); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	if err = g.file.AddTable(sheetName, &excelize.Table{
		Range:     fmt.Sprintf("A1:H%d", rowCount+1),
		Name:      "table_" + strings.ReplaceAll(sheetName, " ", ""),
		StyleName: "TableStyleMedium9",
	}); err != nil {
		return fmt.Errorf("failed to add table: %w", err)
	}

	return nil
}

func (g *Generator) addRow(sheetName string, rowNum int, row models.EmployeeStats) error {
	lastActivity := "-"
	if row.LastActivity != nil {
		lastActivity = *row.LastActivity
	}

	rowData := []interface{}{
		row.Name,
		row.Username,
		row.TotalOrders,
		row.Completed,
		row.Pending,
		row.Cancelled,
		row.SuccessRate,
		lastActivity,
	}
	cell, _ := excelize.CoordinatesToCellName(1, rowNum)

	if err := g.file.SetSheetRow(sheetName, cell, &rowData); err != nil {
		return fmt.Errorf("failed to set sheet row: %w", err)
	}

	return nil
}

// addTotals writes a bold summary line below the table.
func (g *Generator) addTotals(sheetName string, rowNum int, rows []models.EmployeeStats) error {
	var total, completed, pending, cancelled int
	for _, row := range rows {
		total += row.TotalOrders
		completed += row.Completed
		pending += row.Pending
		cancelled += row.Cancelled
	}

	rate := 0
	if total > 0 {
		rate = (completed*100 + total/2) / total //nolint:mnd // percent, rounded half up
	}

	rowData := []interface{}{"Total", "", total, completed, pending, cancelled, rate, ""}
	cell, _ := excelize.CoordinatesToCellName(1, rowNum)
	if err := g.file.SetSheetRow(sheetName, cell, &rowData); err != nil {
		return fmt.Errorf("failed to set totals row: %w", err)
	}

	style, err := g.file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create totals style: %w", err)
	}
	lastCell, _ := excelize.CoordinatesToCellName(8, rowNum) //nolint:mnd // column H
	if err = g.file.SetCellStyle(sheetName, cell, lastCell, style); err != nil {
		return fmt.Errorf("failed to set totals style: %w", err)
	}

	return nil
}

// truncateSheetName truncates the given sheet name to a maximum of 31 runes.
func truncateSheetName(name string) string {
	if utf8.RuneCountInString(name) > maxSheetNameLength {
		runes := []rune(name)
		return string(runes[:maxSheetNameLength])
	}
	return name
}
