package app

import (
	"math"
	"time"

	"review_dashboard/internal/domain"
)

const trendWindow = 30 * 24 * time.Hour

// AggregateProperties computes one performance summary per distinct
// property id in the review set. It is a pure batch computation:
// summaries are recomputed on every call and never stored. now anchors
// the trend windows; production callers pass time.Now().
func AggregateProperties(reviews []domain.Review, now time.Time) []domain.PropertyPerformance {
	groups := make(map[string][]domain.Review)
	order := make([]string, 0)
	for _, rv := range reviews {
		if _, seen := groups[rv.PropertyID]; !seen {
			order = append(order, rv.PropertyID)
		}
		groups[rv.PropertyID] = append(groups[rv.PropertyID], rv)
	}

	out := make([]domain.PropertyPerformance, 0, len(groups))
	for _, id := range order {
		out = append(out, aggregateProperty(id, groups[id], now))
	}
	return out
}

func aggregateProperty(propertyID string, group []domain.Review, now time.Time) domain.PropertyPerformance {
	perf := domain.PropertyPerformance{
		PropertyID:      propertyID,
		PropertyName:    PropertyDisplayName(propertyID),
		TotalReviews:    len(group),
		CategoryRatings: map[string]float64{},
		RecentTrends:    computeTrend(group, now),
	}

	// Overall mean over non-nil ratings. Unlike the rating resolver this
	// reports 0 (not nil) when nothing is rated: the summary stays
	// numeric for display.
	var sum float64
	var n int
	for _, rv := range group {
		if rv.Rating == nil {
			continue
		}
		sum += *rv.Rating
		n++
	}
	if n > 0 {
		perf.AverageRating = round1(sum / float64(n))
	}

	// Per-category means across every review that reported the category.
	type acc struct {
		sum float64
		n   int
	}
	cats := make(map[string]*acc)
	for _, rv := range group {
		for _, c := range rv.Categories {
			a, ok := cats[c.Category]
			if !ok {
				a = &acc{}
				cats[c.Category] = a
			}
			a.sum += c.Rating
			a.n++
		}
	}
	for name, a := range cats {
		perf.CategoryRatings[name] = round1(a.sum / float64(a.n))
	}

	return perf
}

// computeTrend compares mean ratings of the last 30 days against the
// 30-to-60-day window. Binary classification: diff >= 0 is "up", so a
// flat comparison reads as up rather than a separate stable state.
// Either window empty yields the neutral {up, 0} default.
func computeTrend(group []domain.Review, now time.Time) domain.Trend {
	cutRecent := now.Add(-trendWindow)
	cutPrevious := now.Add(-2 * trendWindow)

	var recentSum, prevSum float64
	var recentN, prevN int
	for _, rv := range group {
		if rv.Rating == nil {
			continue
		}
		switch {
		case rv.SubmittedAt.After(cutRecent):
			recentSum += *rv.Rating
			recentN++
		case rv.SubmittedAt.After(cutPrevious):
			prevSum += *rv.Rating
			prevN++
		}
	}

	if recentN == 0 || prevN == 0 {
		return domain.Trend{Direction: domain.TrendUp, Percentage: 0}
	}

	recentAvg := recentSum / float64(recentN)
	prevAvg := prevSum / float64(prevN)
	diff := recentAvg - prevAvg

	trend := domain.Trend{Direction: domain.TrendUp}
	if diff < 0 {
		trend.Direction = domain.TrendDown
	}
	if prevAvg != 0 {
		trend.Percentage = int(math.Round(math.Abs(diff/prevAvg) * 100))
	}
	return trend
}
