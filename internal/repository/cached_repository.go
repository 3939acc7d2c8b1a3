package repository

import (
	"context"

	"go.uber.org/zap"

	"github.com/tempizhere/shortlink/internal/cache"
	"github.com/tempizhere/shortlink/internal/metrics"
	"github.com/tempizhere/shortlink/internal/models"
)

// CachedLinkRepository оборачивает LinkRepository кэшем переходов.
// Ошибки кэша только логируются: источником истины остаётся хранилище.
// Недоступный при удалении Redis оставляет запись до истечения её TTL.
type CachedLinkRepository struct {
	LinkRepository
	cache   cache.Cache
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewCachedLinkRepository создаёт обёртку над repo
func NewCachedLinkRepository(repo LinkRepository, c cache.Cache, logger *zap.Logger) *CachedLinkRepository {
	return &CachedLinkRepository{LinkRepository: repo, cache: c, logger: logger}
}

// WithMetrics включает подсчёт попаданий в кэш
func (r *CachedLinkRepository) WithMetrics(m *metrics.Metrics) *CachedLinkRepository {
	r.metrics = m
	return r
}

func (r *CachedLinkRepository) observe(result string) {
	if r.metrics != nil {
		r.metrics.CacheLookups.WithLabelValues(result).Inc()
	}
}

// FindByShortCode сначала ищет код в кэше, при промахе читает хранилище и заполняет кэш
func (r *CachedLinkRepository) FindByShortCode(ctx context.Context, shortCode string) (string, bool, error) {
	target, found, err := r.cache.Get(ctx, shortCode)
	switch {
	case err != nil:
		r.observe("error")
		r.logger.Warn("Cache read failed", zap.String("code", shortCode), zap.Error(err))
	case found:
		r.observe("hit")
		return target, true, nil
	default:
		r.observe("miss")
	}

	target, found, err = r.LinkRepository.FindByShortCode(ctx, shortCode)
	if err != nil || !found {
		return target, found, err
	}

	stored, err := r.cache.Add(ctx, shortCode, target)
	switch {
	case err != nil:
		r.logger.Warn("Cache write failed", zap.String("code", shortCode), zap.Error(err))
	case !stored:
		// Ключ занят меткой удаления или параллельной записью
		r.logger.Debug("Cache entry kept", zap.String("code", shortCode))
	}
	return target, true, nil
}

// DeleteByIDAndOwner удаляет ссылку и ставит на её код метку удаления.
// Метка не даёт параллельному чтению вернуть удалённую ссылку в кэш.
func (r *CachedLinkRepository) DeleteByIDAndOwner(ctx context.Context, id, ownerID string) (models.Link, bool, error) {
	link, deleted, err := r.LinkRepository.DeleteByIDAndOwner(ctx, id, ownerID)
	if err != nil || !deleted {
		return link, deleted, err
	}

	if err := r.cache.Invalidate(ctx, link.ShortCode); err != nil {
		r.logger.Error("Cache invalidation failed, entry lives until its TTL",
			zap.String("code", link.ShortCode), zap.Error(err))
	}
	return link, true, nil
}
