package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/andresuchdata/revsplit/internal/config"
	"github.com/andresuchdata/revsplit/internal/domain"
)

const keyPrefix = "revsplit"

// DashboardCache stores computed dashboards and learned prices per dataset.
type DashboardCache interface {
	GetDashboard(ctx context.Context, datasetID string, filter domain.DateFilter) (*domain.DashboardData, bool, error)
	SetDashboard(ctx context.Context, datasetID string, filter domain.DateFilter, data *domain.DashboardData) error
	GetPrices(ctx context.Context, datasetID string) ([]domain.LearnedPrice, bool, error)
	SetPrices(ctx context.Context, datasetID string, prices []domain.LearnedPrice) error
	InvalidateDataset(ctx context.Context, datasetID string) error
}

type redisDashboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopDashboardCache struct{}

func NewDashboardCache(cfg config.CacheConfig) (DashboardCache, error) {
	if !cfg.Enabled {
		return &noopDashboardCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisDashboardCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewNoopDashboardCache() DashboardCache {
	return &noopDashboardCache{}
}

func (c *redisDashboardCache) GetDashboard(ctx context.Context, datasetID string, filter domain.DateFilter) (*domain.DashboardData, bool, error) {
	var data domain.DashboardData
	ok, err := getJSON(ctx, c.client, dashboardKey(datasetID, filter), &data)
	if err != nil || !ok {
		return nil, false, err
	}
	return &data, true, nil
}

func (c *redisDashboardCache) SetDashboard(ctx context.Context, datasetID string, filter domain.DateFilter, data *domain.DashboardData) error {
	return setJSON(ctx, c.client, dashboardKey(datasetID, filter), data, c.ttl)
}

func (c *redisDashboardCache) GetPrices(ctx context.Context, datasetID string) ([]domain.LearnedPrice, bool, error) {
	var prices []domain.LearnedPrice
	ok, err := getJSON(ctx, c.client, pricesKey(datasetID), &prices)
	if err != nil || !ok {
		return nil, false, err
	}
	return prices, true, nil
}

func (c *redisDashboardCache) SetPrices(ctx context.Context, datasetID string, prices []domain.LearnedPrice) error {
	return setJSON(ctx, c.client, pricesKey(datasetID), prices, c.ttl)
}

func (c *redisDashboardCache) InvalidateDataset(ctx context.Context, datasetID string) error {
	return deleteKeysWithPrefix(ctx, c.client, datasetPrefix(datasetID), scanBatchSize)
}

func (n *noopDashboardCache) GetDashboard(ctx context.Context, datasetID string, filter domain.DateFilter) (*domain.DashboardData, bool, error) {
	return nil, false, nil
}

func (n *noopDashboardCache) SetDashboard(ctx context.Context, datasetID string, filter domain.DateFilter, data *domain.DashboardData) error {
	return nil
}

func (n *noopDashboardCache) GetPrices(ctx context.Context, datasetID string) ([]domain.LearnedPrice, bool, error) {
	return nil, false, nil
}

func (n *noopDashboardCache) SetPrices(ctx context.Context, datasetID string, prices []domain.LearnedPrice) error {
	return nil
}

func (n *noopDashboardCache) InvalidateDataset(ctx context.Context, datasetID string) error {
	return nil
}

func datasetPrefix(datasetID string) string {
	return fmt.Sprintf("%s:%s:", keyPrefix, datasetID)
}

func dashboardKey(datasetID string, filter domain.DateFilter) string {
	if filter.IsZero() {
		return datasetPrefix(datasetID) + "dashboard:default"
	}
	hash := sha1.Sum([]byte(filter.Start + "|" + filter.End))
	return datasetPrefix(datasetID) + "dashboard:" + hex.EncodeToString(hash[:])
}

func pricesKey(datasetID string) string {
	return datasetPrefix(datasetID) + "prices"
}
