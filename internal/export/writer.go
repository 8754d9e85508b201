// internal/export/writer.go
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/andresuchdata/revsplit/internal/domain"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"

	sheetName = "Breakdown"
)

var header = []string{
	"row_index", "product", "location", "date", "qty",
	"unit_price", "total_price", "method", "method_label", "unpriced",
}

// ContentType returns the MIME type for an export format.
func ContentType(format string) string {
	if format == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}

// Write encodes allocations in the given format.
func Write(w io.Writer, format string, allocs []domain.RowAllocation) error {
	switch format {
	case FormatCSV, "":
		return WriteCSV(w, allocs)
	case FormatXLSX:
		return WriteXLSX(w, allocs)
	default:
		return fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, format)
	}
}

// FilterMethod keeps the allocations made with the named method. An empty
// name keeps everything.
func FilterMethod(allocs []domain.RowAllocation, name string) ([]domain.RowAllocation, error) {
	if strings.TrimSpace(name) == "" {
		return allocs, nil
	}
	method, ok := domain.ParseMethod(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownMethod, name)
	}

	out := make([]domain.RowAllocation, 0, len(allocs))
	for _, ra := range allocs {
		if ra.Allocation.Method == method {
			out = append(out, ra)
		}
	}
	return out, nil
}

// WriteCSV writes one record per allocated line item.
func WriteCSV(w io.Writer, allocs []domain.RowAllocation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, ra := range allocs {
		for _, line := range ra.Allocation.Lines {
			if err := cw.Write(record(ra, line)); err != nil {
				return fmt.Errorf("failed to write csv row %d: %w", ra.Row.RowIndex, err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes one sheet row per allocated line item with numeric cells
// for quantities and money.
func WriteXLSX(w io.Writer, allocs []domain.RowAllocation) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create stream writer: %w", err)
	}

	head := make([]any, len(header))
	for i, h := range header {
		head[i] = h
	}
	if err := sw.SetRow("A1", head); err != nil {
		return fmt.Errorf("failed to write xlsx header: %w", err)
	}

	n := 2
	for _, ra := range allocs {
		for _, line := range ra.Allocation.Lines {
			cell, err := excelize.CoordinatesToCellName(1, n)
			if err != nil {
				return err
			}
			values := []any{
				ra.Row.RowIndex,
				line.Product,
				line.Location,
				line.Date,
				line.Qty,
				money(line.UnitPrice).InexactFloat64(),
				money(line.TotalPrice).InexactFloat64(),
				ra.Allocation.Method,
				domain.MethodLabel(ra.Allocation.Method),
				line.Unpriced,
			}
			if err := sw.SetRow(cell, values); err != nil {
				return fmt.Errorf("failed to write xlsx row %d: %w", ra.Row.RowIndex, err)
			}
			n++
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush xlsx: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write xlsx: %w", err)
	}
	return nil
}

func record(ra domain.RowAllocation, line domain.AllocatedLine) []string {
	return []string{
		strconv.Itoa(ra.Row.RowIndex),
		line.Product,
		line.Location,
		line.Date,
		strconv.FormatFloat(line.Qty, 'f', -1, 64),
		money(line.UnitPrice).StringFixed(2),
		money(line.TotalPrice).StringFixed(2),
		ra.Allocation.Method,
		domain.MethodLabel(ra.Allocation.Method),
		strconv.FormatBool(line.Unpriced),
	}
}

func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}
