package utils

import (
	"bytes"
	"testing"
	"time"

	"roro/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteGachaExcel(t *testing.T) {
	at := time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)
	entries := []models.GachaLogEntry{
		{SpinID: 1, CustomerID: "42", PrizeType: models.PrizeFacility, PrizeID: 7, Policy: "uniform", CreatedAt: at},
		{SpinID: 2, CustomerID: "ip:10.0.0.1", PrizeType: models.PrizeEvent, PrizeID: 11, Policy: "uniform", CreatedAt: at},
		{SpinID: 3, CustomerID: "42", PrizeType: models.PrizeFacility, PrizeID: 7, Policy: "weighted", CreatedAt: at},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteGachaExcel(&buf, entries, at))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{gachaSheet, summarySheet}, f.GetSheetList())

	rows, err := f.GetRows(gachaSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Spin ID", rows[0][0])
	assert.Equal(t, []string{"2", "ip:10.0.0.1", "event", "11", "uniform", "2026-10-14 09:30:00"}, rows[2])

	total, err := f.GetCellValue(summarySheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, "3", total)

	facility, err := f.GetCellValue(summarySheet, "B5")
	require.NoError(t, err)
	assert.Equal(t, "2", facility)
}

func TestWriteGachaExcelEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteGachaExcel(&buf, nil, time.Now()))
	assert.NotZero(t, buf.Len())
}
