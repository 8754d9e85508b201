package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/andresuchdata/revsplit/internal/export"
)

func TestExportFormat(t *testing.T) {
	tests := []struct {
		name   string
		format string
		out    string
		want   string
	}{
		{"explicit wins", "XLSX", "out.csv", export.FormatXLSX},
		{"inferred from extension", "", "report.XLSX", export.FormatXLSX},
		{"stdout defaults to csv", "", "", export.FormatCSV},
		{"unknown extension defaults to csv", "", "report.txt", export.FormatCSV},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exportFormat(tt.format, tt.out))
		})
	}
}
