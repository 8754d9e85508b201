package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/revsplit/internal/analytics"
	"github.com/andresuchdata/revsplit/internal/cache"
	"github.com/andresuchdata/revsplit/internal/domain"
	"github.com/andresuchdata/revsplit/internal/export"
	"github.com/andresuchdata/revsplit/internal/ingest"
	"github.com/andresuchdata/revsplit/internal/repository"
	"github.com/andresuchdata/revsplit/internal/storage"
)

type DashboardService struct {
	repo      repository.DatasetRepository
	cache     cache.DashboardCache
	storage   storage.ObjectStorage
	processor *analytics.Processor
	now       func() time.Time
}

func NewDashboardService(
	repo repository.DatasetRepository,
	cacheImpl cache.DashboardCache,
	store storage.ObjectStorage,
	processor *analytics.Processor,
) *DashboardService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopDashboardCache()
	}
	if store == nil {
		store = storage.NoopStorage{}
	}
	if processor == nil {
		processor = analytics.NewProcessor(analytics.DefaultConfig())
	}
	return &DashboardService{
		repo:      repo,
		cache:     cacheImpl,
		storage:   store,
		processor: processor,
		now:       time.Now,
	}
}

// ImportDataset reads an export file, stores its rows and archives the raw
// file. Archiving is best-effort.
func (s *DashboardService) ImportDataset(ctx context.Context, filename string, r io.Reader) (*domain.Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	rows, err := ingest.Read(filename, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	ds := &domain.Dataset{
		ID:        uuid.NewString(),
		Filename:  filepath.Base(filename),
		CreatedAt: s.now().UTC(),
	}

	key := archiveKey(ds.ID, ds.Filename)
	if err := s.storage.UploadObject(ctx, key, data, uploadContentType(ds.Filename)); err != nil {
		log.Warn().Err(err).Str("dataset_id", ds.ID).Msg("dataset: archive upload failed")
	} else {
		ds.ArchiveKey = key
	}

	if err := s.repo.CreateDataset(ctx, ds, rows); err != nil {
		return nil, fmt.Errorf("failed to store dataset: %w", err)
	}

	if err := s.cache.InvalidateDataset(ctx, ds.ID); err != nil {
		log.Warn().Err(err).Str("dataset_id", ds.ID).Msg("dataset: cache invalidate failed")
	}

	log.Info().
		Str("dataset_id", ds.ID).
		Str("filename", ds.Filename).
		Int("rows", ds.RowCount).
		Msg("dataset imported")

	return ds, nil
}

func (s *DashboardService) ListDatasets(ctx context.Context) ([]domain.Dataset, error) {
	return s.repo.ListDatasets(ctx)
}

func (s *DashboardService) GetDataset(ctx context.Context, id string) (*domain.Dataset, error) {
	return s.repo.GetDataset(ctx, id)
}

// DeleteDataset removes a dataset with its archived file and cached results.
func (s *DashboardService) DeleteDataset(ctx context.Context, id string) error {
	ds, err := s.repo.GetDataset(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteDataset(ctx, id); err != nil {
		return err
	}

	if ds.ArchiveKey != "" {
		if err := s.storage.RemoveObject(ctx, ds.ArchiveKey); err != nil {
			log.Warn().Err(err).Str("dataset_id", id).Msg("dataset: archive remove failed")
		}
	}
	if err := s.cache.InvalidateDataset(ctx, id); err != nil {
		log.Warn().Err(err).Str("dataset_id", id).Msg("dataset: cache invalidate failed")
	}

	return nil
}

// GetDashboard returns the processed dashboard of a dataset for the filter.
func (s *DashboardService) GetDashboard(ctx context.Context, id string, filter domain.DateFilter) (*domain.DashboardData, error) {
	// Keyed by resolved calendar dates, not the raw day.month bounds.
	cacheFilter, err := s.processor.ResolveFilter(filter)
	if err != nil {
		return nil, err
	}

	if data, ok, err := s.cache.GetDashboard(ctx, id, cacheFilter); err == nil && ok {
		return data, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("dashboard: cache get failed")
	}

	rows, err := s.repo.GetRows(ctx, id)
	if err != nil {
		return nil, err
	}

	data, err := s.processor.Process(rows, filter)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetDashboard(ctx, id, cacheFilter, data); err != nil {
		log.Warn().Err(err).Msg("dashboard: cache set failed")
	}

	return data, nil
}

// GetLocations returns the location summaries of a dataset, leaving out
// items with no recognizable location. A non-empty search keeps locations
// whose name contains it, ignoring case.
func (s *DashboardService) GetLocations(ctx context.Context, id string, filter domain.DateFilter, search string) ([]domain.LocationSummary, error) {
	data, err := s.GetDashboard(ctx, id, filter)
	if err != nil {
		return nil, err
	}

	search = strings.ToLower(strings.TrimSpace(search))
	locations := make([]domain.LocationSummary, 0, len(data.Locations))
	for _, l := range data.Locations {
		if l.Location == domain.OtherLocation {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(l.Location), search) {
			continue
		}
		locations = append(locations, l)
	}
	return locations, nil
}

// GetLearnedPrices returns the price table learned from a dataset.
func (s *DashboardService) GetLearnedPrices(ctx context.Context, id string) ([]domain.LearnedPrice, error) {
	if prices, ok, err := s.cache.GetPrices(ctx, id); err == nil && ok {
		return prices, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("prices: cache get failed")
	}

	rows, err := s.repo.GetRows(ctx, id)
	if err != nil {
		return nil, err
	}

	prices := s.processor.Learn(rows).Entries()

	if err := s.cache.SetPrices(ctx, id, prices); err != nil {
		log.Warn().Err(err).Msg("prices: cache set failed")
	}

	return prices, nil
}

// ExportBreakdown writes the per-item allocation of every row that passes
// the filter. A non-empty method keeps only rows allocated that way.
func (s *DashboardService) ExportBreakdown(ctx context.Context, id string, filter domain.DateFilter, format, method string, w io.Writer) error {
	if format != export.FormatCSV && format != export.FormatXLSX {
		return fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, format)
	}
	if _, ok := domain.ParseMethod(method); method != "" && !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownMethod, method)
	}

	rows, err := s.repo.GetRows(ctx, id)
	if err != nil {
		return err
	}

	allocs, err := s.processor.Allocations(rows, filter)
	if err != nil {
		return err
	}
	allocs, err = export.FilterMethod(allocs, method)
	if err != nil {
		return err
	}

	return export.Write(w, format, allocs)
}

func archiveKey(id, filename string) string {
	return fmt.Sprintf("datasets/%s/%s", id, filename)
}

func uploadContentType(filename string) string {
	if strings.EqualFold(filepath.Ext(filename), ".xlsx") {
		return export.ContentType(export.FormatXLSX)
	}
	return export.ContentType(export.FormatCSV)
}
