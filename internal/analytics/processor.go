// internal/analytics/processor.go
package analytics

import (
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/andresuchdata/revsplit/internal/domain"
)

// DefaultLearningCutoffRowIndex is the first row index excluded from learning.
const DefaultLearningCutoffRowIndex = 5433

// minRowsPerWorker keeps small datasets on a single goroutine.
const minRowsPerWorker = 512

// Config controls a Processor.
type Config struct {
	// LearningCutoffRowIndex excludes rows at or past this index from price
	// learning. Zero or negative disables the cutoff.
	LearningCutoffRowIndex int
	// Workers is the number of goroutines used to allocate and fold rows.
	Workers int
	// Now anchors day.month dates to a calendar year.
	Now    func() time.Time
	Logger zerolog.Logger
}

func DefaultConfig() Config {
	return Config{
		LearningCutoffRowIndex: DefaultLearningCutoffRowIndex,
		Workers:                1,
		Now:                    time.Now,
		Logger:                 zerolog.Nop(),
	}
}

// Processor runs the two-phase learn-then-allocate pipeline over a dataset.
// It holds no per-dataset state and may be shared.
type Processor struct {
	cfg Config
}

func NewProcessor(cfg Config) *Processor {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Processor{cfg: cfg}
}

// Learn builds the price table for rows.
func (p *Processor) Learn(rows []domain.RawRow) *PriceTable {
	table := LearnPrices(rows, p.cfg.LearningCutoffRowIndex)
	p.cfg.Logger.Debug().
		Int("rows", len(rows)).
		Int("cutoff", p.cfg.LearningCutoffRowIndex).
		Int("learned_keys", table.Len()).
		Msg("learned prices")
	return table
}

// ResolveFilter pins the day.month bounds of f to calendar dates
// (YYYY-MM-DD) as of now. Two filters that resolve alike select the same
// rows, so the result can key cached dashboards.
func (p *Processor) ResolveFilter(f domain.DateFilter) (domain.DateFilter, error) {
	window, err := compileFilter(f, p.cfg.Now())
	if err != nil {
		return domain.DateFilter{}, err
	}
	return window.resolved(), nil
}

// Process learns prices from every row, then allocates and aggregates the
// rows that pass the filter.
func (p *Processor) Process(rows []domain.RawRow, filter domain.DateFilter) (*domain.DashboardData, error) {
	window, err := compileFilter(filter, p.cfg.Now())
	if err != nil {
		return nil, err
	}

	table := p.Learn(rows)
	chunks := p.chunk(rows)
	partials := make([]*Aggregator, len(chunks))

	var g errgroup.Group
	for i, chunk := range chunks {
		g.Go(func() error {
			agg := NewAggregator()
			for _, row := range chunk {
				items := ParseOrderDetails(row.OrderDetailsText, row.TotalQty)
				if len(items) == 0 || !window.matches(items) {
					continue
				}
				agg.Fold(row, Allocate(row, items, table))
			}
			partials[i] = agg
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := partials[0]
	for _, partial := range partials[1:] {
		result.Merge(partial)
	}
	data := result.Finalize(table.Entries())

	p.cfg.Logger.Debug().
		Int("workers", len(chunks)).
		Int("orders", data.TotalOrders).
		Int("products", len(data.Products)).
		Int("locations", len(data.Locations)).
		Float64("total_revenue", data.TotalRevenue).
		Msg("processed dataset")

	return data, nil
}

// Allocations returns the per-row allocations of the rows that pass the
// filter, in input order.
func (p *Processor) Allocations(rows []domain.RawRow, filter domain.DateFilter) ([]domain.RowAllocation, error) {
	window, err := compileFilter(filter, p.cfg.Now())
	if err != nil {
		return nil, err
	}

	table := p.Learn(rows)
	out := make([]domain.RowAllocation, 0, len(rows))
	for _, row := range rows {
		items := ParseOrderDetails(row.OrderDetailsText, row.TotalQty)
		if len(items) == 0 || !window.matches(items) {
			continue
		}
		out = append(out, domain.RowAllocation{Row: row, Allocation: Allocate(row, items, table)})
	}
	return out, nil
}

// chunk splits rows into at most cfg.Workers contiguous slices. It always
// returns at least one slice.
func (p *Processor) chunk(rows []domain.RawRow) [][]domain.RawRow {
	workers := p.cfg.Workers
	if limit := len(rows) / minRowsPerWorker; workers > limit {
		workers = limit
	}
	if workers < 1 {
		workers = 1
	}

	size := (len(rows) + workers - 1) / workers
	chunks := make([][]domain.RawRow, 0, workers)
	for start := 0; start < len(rows); start += size {
		end := start + size
		if end > len(rows) {
			end = len(rows)
		}
		chunks = append(chunks, rows[start:end])
	}
	if len(chunks) == 0 {
		chunks = append(chunks, nil)
	}
	return chunks
}
