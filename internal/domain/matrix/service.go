package matrix

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"appraisal/internal/platform/cache"
	"appraisal/internal/platform/metrics"
)

type Service struct {
	store    StoreAPI
	cache    cache.Cache
	cacheTTL time.Duration
	metrics  *metrics.Collector
}

func NewService(store StoreAPI, c cache.Cache, cacheTTL time.Duration, m *metrics.Collector) *Service {
	if c == nil {
		c = cache.Noop{}
	}
	return &Service{store: store, cache: c, cacheTTL: cacheTTL, metrics: m}
}

func catalogKey(orgID string) string {
	return "appraisal:org:" + orgID + ":parameters"
}

// catalog returns every parameter of the organization, served from the
// cache when possible. Cache failures fall through to the store.
func (s *Service) catalog(ctx context.Context, orgID string) ([]Parameter, error) {
	key := catalogKey(orgID)
	if raw, ok, err := s.cache.Get(ctx, key); err != nil {
		slog.Warn("parameter catalog cache read failed", "orgId", orgID, "err", err)
	} else if ok {
		var params []Parameter
		if err := json.Unmarshal(raw, &params); err == nil {
			s.metrics.CatalogCache(true)
			return params, nil
		}
	}
	s.metrics.CatalogCache(false)

	params, err := s.store.ListParameters(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(params); err == nil {
		if err := s.cache.Set(ctx, key, raw, s.cacheTTL); err != nil {
			slog.Warn("parameter catalog cache write failed", "orgId", orgID, "err", err)
		}
	}
	return params, nil
}

func (s *Service) invalidateCatalog(ctx context.Context, orgID string) {
	if err := s.cache.Delete(ctx, catalogKey(orgID)); err != nil {
		slog.Warn("parameter catalog cache invalidate failed", "orgId", orgID, "err", err)
	}
}
