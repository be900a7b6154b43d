package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"review_dashboard/internal/domain"
)

type IngestionService struct {
	hostaway domain.HostawayClient
	repo     domain.ReviewRepository
	cache    domain.Cache
	sample   []map[string]any
}

func NewIngestionService(c domain.HostawayClient, r domain.ReviewRepository, cache domain.Cache, sample []map[string]any) *IngestionService {
	return &IngestionService{hostaway: c, repo: r, cache: cache, sample: sample}
}

// IngestAll pages through the Hostaway review feed, normalizes each
// page and upserts it. When the source is unreachable for auth/404
// reasons, or yields zero records, the bundled sample dataset is
// ingested instead so the dashboard is never empty.
func (s *IngestionService) IngestAll(ctx context.Context, pageSize int, now time.Time) (int, error) {
	if pageSize <= 0 {
		pageSize = 100
	}

	total := 0
	for offset := 0; ; offset += pageSize {
		raws, err := s.hostaway.ListReviews(ctx, offset, pageSize)
		if err != nil {
			low := strings.ToLower(err.Error())

			// 404: feed missing -> record miss and fall through to sample.
			if errors.Is(err, domain.ErrNotFound) || strings.Contains(low, "not found") {
				_ = s.repo.LogMiss(ctx, "reviews", 404, "not found")
				break
			}

			// 401/403: unauthorized/forbidden -> record miss, use sample.
			if strings.Contains(low, "403") || strings.Contains(low, "forbidden") ||
				strings.Contains(low, "401") || strings.Contains(low, "unauthorized") {
				_ = s.repo.LogMiss(ctx, "reviews", 403, "unauthorized")
				break
			}

			// Anything else is unexpected (network/5xx/JSON/etc.) -> bubble up.
			return total, err
		}
		if len(raws) == 0 {
			break
		}

		n, err := s.ingestRecords(ctx, raws, now)
		if err != nil {
			return total, err
		}
		total += n

		if len(raws) < pageSize {
			break
		}
	}

	if total == 0 && len(s.sample) > 0 {
		log.Warn().Int("records", len(s.sample)).Msg("source empty or unreachable; ingesting bundled sample dataset")
		return s.ingestRecords(ctx, s.sample, now)
	}
	return total, nil
}

func (s *IngestionService) ingestRecords(ctx context.Context, raws []map[string]any, now time.Time) (int, error) {
	reviews := NormalizeBatch(raws, now)
	if len(reviews) == 0 {
		return 0, nil
	}
	if err := s.repo.UpsertReviews(ctx, reviews); err != nil {
		// IMPORTANT: do not swallow this; surface so we know inserts failed
		return 0, fmt.Errorf("upsert reviews failed: %w", err)
	}
	if s.cache != nil {
		s.invalidateProperties(ctx, reviews)
	}
	return len(reviews), nil
}

// invalidateProperties evicts the performance summary and the common
// review-list cache variants for every property touched by the batch.
func (s *IngestionService) invalidateProperties(ctx context.Context, reviews []domain.Review) {
	_ = s.cache.Del(ctx, performanceCacheKey)

	seen := make(map[string]struct{}, 8)
	for _, rv := range reviews {
		if _, ok := seen[rv.PropertyID]; ok {
			continue
		}
		seen[rv.PropertyID] = struct{}{}
		invalidateReviewLists(ctx, s.cache, rv.PropertyID)
	}
	invalidateReviewLists(ctx, s.cache, "")
}
