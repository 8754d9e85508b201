package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/andresuchdata/revsplit/internal/domain"
)

type memoryDataset struct {
	meta domain.Dataset
	rows []domain.RawRow
}

// MemoryRepository keeps datasets in process memory. It is used when no
// database is configured and in tests.
type MemoryRepository struct {
	mu       sync.RWMutex
	datasets map[string]*memoryDataset
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{datasets: make(map[string]*memoryDataset)}
}

func (r *MemoryRepository) CreateDataset(_ context.Context, ds *domain.Dataset, rows []domain.RawRow) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := make([]domain.RawRow, len(rows))
	copy(stored, rows)
	ds.RowCount = len(rows)
	r.datasets[ds.ID] = &memoryDataset{meta: *ds, rows: stored}
	return nil
}

func (r *MemoryRepository) GetDataset(_ context.Context, id string) (*domain.Dataset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.datasets[id]
	if !ok {
		return nil, domain.ErrDatasetNotFound
	}
	meta := d.meta
	return &meta, nil
}

func (r *MemoryRepository) ListDatasets(_ context.Context) ([]domain.Dataset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Dataset, 0, len(r.datasets))
	for _, d := range r.datasets {
		out = append(out, d.meta)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemoryRepository) GetRows(_ context.Context, id string) ([]domain.RawRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.datasets[id]
	if !ok {
		return nil, domain.ErrDatasetNotFound
	}
	rows := make([]domain.RawRow, len(d.rows))
	copy(rows, d.rows)
	return rows, nil
}

func (r *MemoryRepository) DeleteDataset(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.datasets[id]; !ok {
		return domain.ErrDatasetNotFound
	}
	delete(r.datasets, id)
	return nil
}
