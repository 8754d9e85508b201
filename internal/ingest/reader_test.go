package ingest

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/andresuchdata/revsplit/internal/domain"
)

const sampleCSV = `total,details,qty
100,"A - L,1.1",5
60,"A - L,1.1:1B - L,1.1:1",2
0,"C - L,2.1",1
abc,"D - L,2.1",1
25,,1
1,234.50
"1,200.5","E - M,3.1",x
`

func TestReadCSV(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, domain.RawRow{RowIndex: 1, TotalAmount: 100, OrderDetailsText: "A - L,1.1", TotalQty: 5}, rows[0])
	assert.Equal(t, 2, rows[1].RowIndex)
	assert.Equal(t, "A - L,1.1:1B - L,1.1:1", rows[1].OrderDetailsText)
	assert.Equal(t, domain.RawRow{RowIndex: 7, TotalAmount: 1200.5, OrderDetailsText: "E - M,3.1", TotalQty: 0}, rows[2])
}

func TestReadCSVBlankLinesAdvanceRowIndex(t *testing.T) {
	in := "total,details,qty\n10,\"A - L,1.1\",1\n\n\n20,\"B - L,1.1\",2\n"
	rows, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[0].RowIndex)
	assert.Equal(t, 4, rows[1].RowIndex)
}

func TestReadCSVNegativeValue(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("total,details,qty\n10,\"A - L,1.1\",-2\n"))

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 1, verr.Row)
	assert.Equal(t, "total_qty", verr.Field)
}

func TestReadCSVNoValidRows(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("total,details,qty\n0,x,1\n"))
	assert.ErrorIs(t, err, domain.ErrNoValidRows)

	_, err = ReadCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, domain.ErrNoValidRows)
}

func TestReadXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"total", "details", "qty"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{100, "A - L,1.1", 5}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{60.5, "B - L,2.1:3", 3}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	rows, err := ReadXLSX(&buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, domain.RawRow{RowIndex: 1, TotalAmount: 100, OrderDetailsText: "A - L,1.1", TotalQty: 5}, rows[0])
	assert.Equal(t, 60.5, rows[1].TotalAmount)
	assert.Equal(t, 2, rows[1].RowIndex)
}

func TestReadXLSXEmptyRowsAdvanceRowIndex(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"total", "details", "qty"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{100, "A - L,1.1", 5}))
	require.NoError(t, f.SetSheetRow(sheet, "A5", &[]any{40, "B - L,2.1", 2}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	rows, err := ReadXLSX(&buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[0].RowIndex)
	assert.Equal(t, 4, rows[1].RowIndex)
}

func TestReadByExtension(t *testing.T) {
	rows, err := Read("export.CSV", strings.NewReader(sampleCSV))
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	_, err = Read("export.pdf", strings.NewReader(sampleCSV))
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}
