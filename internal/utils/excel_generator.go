package utils

import (
	"fmt"
	"io"
	"time"

	"roro/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	gachaSheet   = "GachaLog"
	summarySheet = "Summary"
)

// WriteGachaExcel writes a workbook with one row per spin and a summary of
// spins per prize type.
func WriteGachaExcel(w io.Writer, entries []models.GachaLogEntry, generatedAt time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	// Переименовываем лист по умолчанию
	if err := f.SetSheetName("Sheet1", gachaSheet); err != nil {
		return err
	}

	headers := []string{"Spin ID", "Customer", "Prize Type", "Prize ID", "Policy", "Created At (UTC)"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(gachaSheet, cell, header)
	}

	counts := make(map[string]int, len(models.PrizeTypes))
	for rowIdx, e := range entries {
		rowNum := rowIdx + 2 // Заголовок в первой строке

		f.SetCellValue(gachaSheet, fmt.Sprintf("A%d", rowNum), e.SpinID)
		f.SetCellValue(gachaSheet, fmt.Sprintf("B%d", rowNum), e.CustomerID)
		f.SetCellValue(gachaSheet, fmt.Sprintf("C%d", rowNum), e.PrizeType)
		f.SetCellValue(gachaSheet, fmt.Sprintf("D%d", rowNum), e.PrizeID)
		f.SetCellValue(gachaSheet, fmt.Sprintf("E%d", rowNum), e.Policy)
		f.SetCellValue(gachaSheet, fmt.Sprintf("F%d", rowNum), e.CreatedAt.UTC().Format("2006-01-02 15:04:05"))
		counts[e.PrizeType]++
	}

	for i := 1; i <= len(headers); i++ {
		colName, _ := excelize.ColumnNumberToName(i)
		f.SetColWidth(gachaSheet, colName, colName, 20)
	}

	if err := createSummarySheet(f, counts, len(entries), generatedAt); err != nil {
		return err
	}

	if len(entries) > 0 {
		createBreakdownChart(f)
	}

	if index, err := f.GetSheetIndex(gachaSheet); err == nil {
		f.SetActiveSheet(index)
	}

	_, err := f.WriteTo(w)
	return err
}

func createSummarySheet(f *excelize.File, counts map[string]int, total int, generatedAt time.Time) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}

	f.SetCellValue(summarySheet, "A1", "Report Generated")
	f.SetCellValue(summarySheet, "B1", generatedAt.UTC().Format("2006-01-02 15:04:05"))
	f.SetCellValue(summarySheet, "A2", "Total Spins")
	f.SetCellValue(summarySheet, "B2", total)

	f.SetCellValue(summarySheet, "A4", "Prize Type")
	f.SetCellValue(summarySheet, "B4", "Spins")
	for i, t := range models.PrizeTypes {
		row := i + 5
		f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), t)
		f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), counts[t])
	}
	return nil
}

func createBreakdownChart(f *excelize.File) {
	last := len(models.PrizeTypes) + 4
	chart := &excelize.Chart{
		Type: excelize.Pie,
		Series: []excelize.ChartSeries{
			{
				Name:       "Spins",
				Categories: fmt.Sprintf("%s!$A$5:$A$%d", summarySheet, last),
				Values:     fmt.Sprintf("%s!$B$5:$B$%d", summarySheet, last),
			},
		},
		Title: []excelize.RichTextRun{
			{
				Text: "Spins by Prize Type",
			},
		},
		Dimension: excelize.ChartDimension{
			Width:  480,
			Height: 320,
		},
	}

	f.AddChart(summarySheet, "D2", chart)
}
