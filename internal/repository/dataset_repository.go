// internal/repository/dataset_repository.go
package repository

import (
	"context"

	"github.com/andresuchdata/revsplit/internal/domain"
)

// DatasetRepository stores imported datasets and their source rows.
type DatasetRepository interface {
	CreateDataset(ctx context.Context, ds *domain.Dataset, rows []domain.RawRow) error
	GetDataset(ctx context.Context, id string) (*domain.Dataset, error)
	ListDatasets(ctx context.Context) ([]domain.Dataset, error)
	GetRows(ctx context.Context, id string) ([]domain.RawRow, error)
	DeleteDataset(ctx context.Context, id string) error
}
