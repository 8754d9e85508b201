package analytics

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/revsplit/internal/domain"
)

func newTestProcessor(workers int) *Processor {
	cfg := DefaultConfig()
	cfg.Workers = workers
	cfg.Now = func() time.Time { return fixedNow }
	return NewProcessor(cfg)
}

func scenarioRows() []domain.RawRow {
	return []domain.RawRow{
		row(1, 100, "A - L,1.1", 5),
		row(2, 60, "A - L,1.1:1B - L,1.1:1", 2),
		row(3, 200, "C - L,2.1", 10),
	}
}

func productByName(t *testing.T, data *domain.DashboardData, name string) domain.ProductSummary {
	t.Helper()
	for _, p := range data.Products {
		if p.Product == name {
			return p
		}
	}
	t.Fatalf("product %q not found", name)
	return domain.ProductSummary{}
}

func TestProcessEndToEnd(t *testing.T) {
	data, err := newTestProcessor(1).Process(scenarioRows(), domain.DateFilter{})
	require.NoError(t, err)

	a := productByName(t, data, "A")
	assert.InDelta(t, 6.0, a.TotalQty, 1e-9)
	assert.InDelta(t, 120.0, a.TotalRevenue, 1e-9)
	assert.InDelta(t, 20.0, a.AvgPrice, 1e-9)

	b := productByName(t, data, "B")
	assert.InDelta(t, 1.0, b.TotalQty, 1e-9)
	assert.InDelta(t, 40.0, b.TotalRevenue, 1e-9)

	c := productByName(t, data, "C")
	assert.InDelta(t, 200.0, c.TotalRevenue, 1e-9)

	assert.Equal(t, []string{"C", "A", "B"}, []string{data.Products[0].Product, data.Products[1].Product, data.Products[2].Product})
	assert.InDelta(t, 360.0, data.TotalRevenue, 1e-9)
	assert.Equal(t, 3, data.TotalOrders)
	assert.Equal(t, domain.DateRange{Start: "1.1", End: "2.1"}, data.DateRange)

	require.Len(t, data.Locations, 1)
	assert.Equal(t, 2, data.Locations[0].SalesDays)
	assert.Equal(t, 3, data.Locations[0].TotalOrders)

	require.Len(t, data.LearnedPrices, 2)
	assert.Equal(t, "A", data.LearnedPrices[0].Product)
	assert.InDelta(t, 20.0, data.LearnedPrices[0].Price, 1e-9)

	require.Len(t, data.Sales, 3)
	assert.Equal(t, 3, data.Sales[0].RowIndex)
	var residual domain.SaleSummary
	for _, s := range data.Sales {
		if s.RowIndex == 2 {
			residual = s
		}
	}
	assert.Equal(t, domain.MethodLearnedResidual, residual.Method)
	assert.Equal(t, 60.0, residual.TotalRevenue)
}

func TestProcessConservesRowTotals(t *testing.T) {
	data, err := newTestProcessor(1).Process(generatedRows(300), domain.DateFilter{})
	require.NoError(t, err)

	for _, s := range data.Sales {
		var sum float64
		for _, d := range s.Details {
			sum += d.TotalPrice
		}
		assert.InDelta(t, s.TotalRevenue, sum, 0.01, "row %d", s.RowIndex)
	}
	for _, lp := range data.LearnedPrices {
		assert.GreaterOrEqual(t, lp.Confidence, 0.0)
		assert.LessOrEqual(t, lp.Confidence, 1.0)
	}
}

func TestProcessParallelMatchesSerial(t *testing.T) {
	rows := generatedRows(5000)

	serial, err := newTestProcessor(1).Process(rows, domain.DateFilter{})
	require.NoError(t, err)
	parallel, err := newTestProcessor(4).Process(rows, domain.DateFilter{})
	require.NoError(t, err)

	assert.Equal(t, serial.TotalOrders, parallel.TotalOrders)
	assert.InDelta(t, serial.TotalRevenue, parallel.TotalRevenue, 1e-6)
	assert.Equal(t, serial.DateRange, parallel.DateRange)
	require.Len(t, parallel.Products, len(serial.Products))
	for i := range serial.Products {
		assert.Equal(t, serial.Products[i].Product, parallel.Products[i].Product)
		assert.InDelta(t, serial.Products[i].TotalRevenue, parallel.Products[i].TotalRevenue, 1e-6)
	}
	assert.Equal(t, len(serial.Sales), len(parallel.Sales))
}

func TestProcessDateFilter(t *testing.T) {
	rows := []domain.RawRow{
		row(1, 10, "A - L,1.3", 1),
		row(2, 20, "A - L,10.3", 1),
		row(3, 30, "A - L,1.3:1B - L,11.3:1", 2),
		row(4, 40, "Loose item", 1),
	}

	data, err := newTestProcessor(1).Process(rows, domain.DateFilter{Start: "5.3", End: "12.3"})
	require.NoError(t, err)
	assert.Equal(t, 2, data.TotalOrders)
	assert.InDelta(t, 50.0, data.TotalRevenue, 1e-9)
	// learning still sees every row, including the undated one
	assert.Len(t, data.LearnedPrices, 3)
}

func TestProcessInvalidFilter(t *testing.T) {
	p := newTestProcessor(1)
	_, err := p.Process(scenarioRows(), domain.DateFilter{Start: "99.99"})
	assert.ErrorIs(t, err, domain.ErrInvalidDateFilter)
	_, err = p.ResolveFilter(domain.DateFilter{End: "nope"})
	assert.ErrorIs(t, err, domain.ErrInvalidDateFilter)
}

func TestResolveFilter(t *testing.T) {
	p := newTestProcessor(1)

	got, err := p.ResolveFilter(domain.DateFilter{})
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	got, err = p.ResolveFilter(domain.DateFilter{Start: "1.1", End: "20.12"})
	require.NoError(t, err)
	assert.Equal(t, domain.DateFilter{Start: "2024-01-01", End: "2023-12-20"}, got)

	got, err = p.ResolveFilter(domain.DateFilter{End: "01.03"})
	require.NoError(t, err)
	assert.Equal(t, domain.DateFilter{End: "2024-03-01"}, got)
}

func TestProcessLearningCutoff(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LearningCutoffRowIndex = 2
	data, err := NewProcessor(cfg).Process(scenarioRows(), domain.DateFilter{})
	require.NoError(t, err)

	require.Len(t, data.LearnedPrices, 1)
	assert.Equal(t, "A", data.LearnedPrices[0].Product)
}

func TestProcessKeepsRowsWithRejectedQuantities(t *testing.T) {
	rows := []domain.RawRow{
		row(1, 50, "A - L,1.1:0", 2),
		row(2, 10, "B - L,1.1", 1),
	}
	data, err := newTestProcessor(1).Process(rows, domain.DateFilter{})
	require.NoError(t, err)

	assert.Equal(t, 2, data.TotalOrders)
	assert.InDelta(t, 60.0, data.TotalRevenue, 1e-9)
	fallback := productByName(t, data, "A - L,1.1")
	assert.InDelta(t, 50.0, fallback.TotalRevenue, 1e-9)
	assert.InDelta(t, 2.0, fallback.TotalQty, 1e-9)
}

func TestProcessEmpty(t *testing.T) {
	data, err := newTestProcessor(4).Process(nil, domain.DateFilter{})
	require.NoError(t, err)
	assert.Equal(t, 0, data.TotalOrders)
	assert.Empty(t, data.Products)
}

func TestAllocations(t *testing.T) {
	got, err := newTestProcessor(1).Allocations(scenarioRows(), domain.DateFilter{})
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, 2, got[1].Row.RowIndex)
	assert.Equal(t, domain.MethodLearnedResidual, got[1].Allocation.Method)
	assert.InDeltaSlice(t, []float64{20, 40}, totals(got[1].Allocation), 1e-9)
}

func TestChunk(t *testing.T) {
	p := newTestProcessor(4)
	assert.Len(t, p.chunk(nil), 1)
	assert.Len(t, p.chunk(generatedRows(100)), 1)

	chunks := p.chunk(generatedRows(2100))
	assert.Len(t, chunks, 4)
	var n int
	for _, c := range chunks {
		n += len(c)
	}
	assert.Equal(t, 2100, n)
}

func generatedRows(n int) []domain.RawRow {
	products := []string{"Tea", "Coffee", "Cake", "Juice", "Bagel"}
	locations := []string{"North", "South", "Harbor"}
	rows := make([]domain.RawRow, 0, n)
	for i := 1; i <= n; i++ {
		p := products[i%len(products)]
		q := products[(i*7)%len(products)]
		loc := locations[i%len(locations)]
		date := fmt.Sprintf("%d.%d", i%28+1, i%12+1)
		qty := float64(i%4 + 1)
		total := float64(i%97+3) * 1.25
		var text string
		switch i % 5 {
		case 0:
			text = fmt.Sprintf("%s - %s,%s:%d%s - %s,%s:2", p, loc, date, int(qty), q, loc, date)
			qty += 2
		case 1:
			text = fmt.Sprintf("%s - %s,%s:1, Mystery%d - %s,%s:3", p, loc, date, i%3, loc, date)
			qty = 4
		case 2:
			text = p + " misc"
		default:
			text = fmt.Sprintf("%s - %s,%s", p, loc, date)
		}
		rows = append(rows, domain.RawRow{RowIndex: i, TotalAmount: total, OrderDetailsText: text, TotalQty: qty})
	}
	return rows
}
