package domain

import "context"

type ReviewRepository interface {
	// Write paths
	UpsertReviews(ctx context.Context, rs []Review) error
	SetDisplayOnWebsite(ctx context.Context, id string, display bool) error
	LogMiss(ctx context.Context, endpoint string, status int, reason string) error

	// Read paths
	GetReview(ctx context.Context, id string) (Review, error)
	ListReviews(ctx context.Context, q ReviewsQuery) ([]Review, error)
	ListAllReviews(ctx context.Context) ([]Review, error)
}

type HostawayClient interface {
	ListReviews(ctx context.Context, offset, limit int) ([]map[string]any, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// ReviewsQuery filters the stored review set. Nil pointers mean
// "no filter on this field".
type ReviewsQuery struct {
	PropertyID       *string
	DisplayOnWebsite *bool
	Limit            int
}
