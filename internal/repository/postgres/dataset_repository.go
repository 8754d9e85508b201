package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/andresuchdata/revsplit/internal/domain"
	"github.com/andresuchdata/revsplit/internal/repository"
)

const schema = `
CREATE TABLE IF NOT EXISTS datasets (
	id          UUID PRIMARY KEY,
	filename    TEXT NOT NULL,
	row_count   INTEGER NOT NULL DEFAULT 0,
	archive_key TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS dataset_rows (
	dataset_id    UUID NOT NULL REFERENCES datasets(id) ON DELETE CASCADE,
	row_index     INTEGER NOT NULL,
	total_amount  DOUBLE PRECISION NOT NULL,
	order_details TEXT NOT NULL,
	total_qty     DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (dataset_id, row_index)
);
`

type datasetRepository struct {
	db *DB
}

func NewDatasetRepository(db *DB) repository.DatasetRepository {
	return &datasetRepository{db: db}
}

// EnsureSchema creates the dataset tables if they are missing.
func EnsureSchema(ctx context.Context, db *DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("error creating schema: %w", err)
	}
	return nil
}

func (r *datasetRepository) CreateDataset(ctx context.Context, ds *domain.Dataset, rows []domain.RawRow) error {
	ds.RowCount = len(rows)

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO datasets (id, filename, row_count, archive_key, created_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING created_at
		`, ds.ID, ds.Filename, ds.RowCount, ds.ArchiveKey, ds.CreatedAt).Scan(&ds.CreatedAt)
		if err != nil {
			return fmt.Errorf("error inserting dataset: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO dataset_rows (dataset_id, row_index, total_amount, order_details, total_qty)
			VALUES ($1, $2, $3, $4, $5)
		`)
		if err != nil {
			return fmt.Errorf("error preparing row insert: %w", err)
		}
		defer stmt.Close()

		for _, row := range rows {
			if _, err := stmt.ExecContext(ctx, ds.ID, row.RowIndex, row.TotalAmount, row.OrderDetailsText, row.TotalQty); err != nil {
				return fmt.Errorf("error inserting row %d: %w", row.RowIndex, err)
			}
		}
		return nil
	})
}

func (r *datasetRepository) GetDataset(ctx context.Context, id string) (*domain.Dataset, error) {
	if !validID(id) {
		return nil, domain.ErrDatasetNotFound
	}

	var ds domain.Dataset
	err := r.db.GetContext(ctx, &ds, `
		SELECT id, filename, row_count, archive_key, created_at
		FROM datasets
		WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrDatasetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error getting dataset: %w", err)
	}
	return &ds, nil
}

func (r *datasetRepository) ListDatasets(ctx context.Context) ([]domain.Dataset, error) {
	datasets := []domain.Dataset{}
	if err := r.db.SelectContext(ctx, &datasets, `
		SELECT id, filename, row_count, archive_key, created_at
		FROM datasets
		ORDER BY created_at DESC, id
	`); err != nil {
		return nil, fmt.Errorf("error listing datasets: %w", err)
	}
	return datasets, nil
}

func (r *datasetRepository) GetRows(ctx context.Context, id string) ([]domain.RawRow, error) {
	if _, err := r.GetDataset(ctx, id); err != nil {
		return nil, err
	}

	var rows []domain.RawRow
	if err := r.db.SelectContext(ctx, &rows, `
		SELECT row_index, total_amount, order_details, total_qty
		FROM dataset_rows
		WHERE dataset_id = $1
		ORDER BY row_index
	`, id); err != nil {
		return nil, fmt.Errorf("error getting dataset rows: %w", err)
	}
	return rows, nil
}

func (r *datasetRepository) DeleteDataset(ctx context.Context, id string) error {
	if !validID(id) {
		return domain.ErrDatasetNotFound
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM datasets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting dataset: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error deleting dataset: %w", err)
	}
	if n == 0 {
		return domain.ErrDatasetNotFound
	}
	return nil
}

// validID rejects ids the uuid column would refuse to compare against.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
