// internal/ingest/reader.go
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/andresuchdata/revsplit/internal/domain"
)

// Source columns: total amount, order details, total quantity.
const (
	colTotalAmount = iota
	colOrderDetails
	colTotalQty
	minColumns
)

// Read decodes an export file, choosing the format by file extension.
func Read(filename string, r io.Reader) ([]domain.RawRow, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt", "":
		return ReadCSV(r)
	case ".xlsx", ".xlsm":
		return ReadXLSX(r)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

// ReadCSV decodes a CSV export. The first record is a header.
func ReadCSV(r io.Reader) ([]domain.RawRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	b := &rowBuilder{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}
		// Blank lines are skipped by the reader but still count.
		line, _ := reader.FieldPos(0)
		if err := b.add(line-1, record); err != nil {
			return nil, err
		}
	}

	return b.result()
}

// ReadXLSX decodes the first sheet of an XLSX export. The first row is a
// header.
func ReadXLSX(r io.Reader) ([]domain.RawRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("xlsx file has no sheets")
	}
	sheet := sheets[0]

	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from sheet %s: %w", sheet, err)
	}
	defer rows.Close()

	b := &rowBuilder{}
	for n := 0; rows.Next(); n++ {
		record, err := rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("failed to read row from sheet %s: %w", sheet, err)
		}
		if err := b.add(n, record); err != nil {
			return nil, err
		}
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("error iterating rows in sheet %s: %w", sheet, err)
	}

	return b.result()
}

// rowBuilder turns source records into RawRows. The first record is the
// header. index is the record's physical line (or sheet row) counted from 0,
// so the first line after a header on line 0 is row 1.
type rowBuilder struct {
	seen bool
	rows []domain.RawRow
}

func (b *rowBuilder) add(index int, record []string) error {
	if !b.seen {
		b.seen = true
		return nil
	}

	if len(record) < minColumns {
		return nil
	}

	total, err := parseAmount(index, "total_amount", record[colTotalAmount])
	if err != nil {
		return err
	}
	qty, err := parseAmount(index, "total_qty", record[colTotalQty])
	if err != nil {
		return err
	}
	details := strings.TrimSpace(record[colOrderDetails])

	if total <= 0 || details == "" {
		return nil
	}

	b.rows = append(b.rows, domain.RawRow{
		RowIndex:         index,
		TotalAmount:      total,
		OrderDetailsText: details,
		TotalQty:         qty,
	})
	return nil
}

func (b *rowBuilder) result() ([]domain.RawRow, error) {
	if len(b.rows) == 0 {
		return nil, domain.ErrNoValidRows
	}
	return b.rows, nil
}

// parseAmount reads a numeric cell. Blank or non-numeric cells read as zero;
// negative values violate the row contract.
func parseAmount(row int, field, raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, nil
	}
	if v < 0 {
		return 0, &domain.ValidationError{Row: row, Field: field, Value: raw, Reason: "must not be negative"}
	}
	return v, nil
}
