package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"review_dashboard/internal/domain"
)

const performanceCacheKey = "performance:all"

// defaultListLimit matches the API default; ingest-side invalidation
// clears this variant plus a couple of common larger ones.
const defaultListLimit = 50

type QueryService struct {
	repo     domain.ReviewRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(r domain.ReviewRepository, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{repo: r, cache: c, cacheTTL: ttl}
}

func (s *QueryService) ListReviews(ctx context.Context, q domain.ReviewsQuery) ([]domain.Review, error) {
	if q.Limit <= 0 {
		q.Limit = defaultListLimit
	}
	key := reviewsCacheKey(q)
	var cached []domain.Review
	if ok, _ := s.cache.Get(ctx, key, &cached); ok {
		return cached, nil
	}

	rs, err := s.repo.ListReviews(ctx, q)
	if err != nil {
		return nil, err
	}

	// copy slice to avoid aliasing the repo's backing array (prevents callers from mutating cached value)
	cp := make([]domain.Review, len(rs))
	copy(cp, rs)

	// optional size guard
	if b, _ := json.Marshal(cp); len(b) < 1_000_000 {
		_ = s.cache.Set(ctx, key, cp, int(s.cacheTTL.Seconds()))
	}
	return cp, nil
}

// PropertyPerformance recomputes per-property summaries from the full
// review snapshot. The result is a derived view; the short cache only
// amortizes repeated dashboard reads within the TTL.
func (s *QueryService) PropertyPerformance(ctx context.Context, now time.Time) ([]domain.PropertyPerformance, error) {
	var cached []domain.PropertyPerformance
	if ok, _ := s.cache.Get(ctx, performanceCacheKey, &cached); ok {
		return cached, nil
	}

	rs, err := s.repo.ListAllReviews(ctx)
	if err != nil {
		return nil, err
	}
	perf := AggregateProperties(rs, now)
	_ = s.cache.Set(ctx, performanceCacheKey, perf, int(s.cacheTTL.Seconds()))
	return perf, nil
}

// SetDisplayOnWebsite toggles the curation flag on one review
// (last-write-wins) and evicts the caches the change can affect.
func (s *QueryService) SetDisplayOnWebsite(ctx context.Context, id string, display bool) (domain.Review, error) {
	if err := s.repo.SetDisplayOnWebsite(ctx, id, display); err != nil {
		return domain.Review{}, err
	}
	rv, err := s.repo.GetReview(ctx, id)
	if err != nil {
		return domain.Review{}, err
	}
	invalidateReviewLists(ctx, s.cache, rv.PropertyID)
	invalidateReviewLists(ctx, s.cache, "")
	return rv, nil
}

func reviewsCacheKey(q domain.ReviewsQuery) string {
	prop := "all"
	if q.PropertyID != nil {
		prop = *q.PropertyID
	}
	display := "any"
	if q.DisplayOnWebsite != nil {
		display = fmt.Sprintf("%t", *q.DisplayOnWebsite)
	}
	return fmt.Sprintf("reviews:%s:%s:%d", prop, display, q.Limit)
}

// invalidateReviewLists clears the common review-list cache variants
// for a property ("" = the unfiltered listing). The API default is
// limit=50; clear a couple more common limits to be safe.
func invalidateReviewLists(ctx context.Context, cache domain.Cache, propertyID string) {
	prop := propertyID
	if prop == "" {
		prop = "all"
	}
	for _, display := range []string{"any", "true", "false"} {
		for _, lim := range []int{defaultListLimit, 100, 200} {
			_ = cache.Del(ctx, fmt.Sprintf("reviews:%s:%s:%d", prop, display, lim))
		}
	}
}
