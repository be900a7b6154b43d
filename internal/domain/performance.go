package domain

const (
	TrendUp   = "up"
	TrendDown = "down"
)

// Trend compares the trailing 30-day rating window against the 30-to-60
// day window. When either window has no rated reviews the neutral
// default is {up, 0}; it signals "no data", not genuine improvement.
type Trend struct {
	Direction  string `json:"direction"`
	Percentage int    `json:"percentage"`
}

// PropertyPerformance is a derived per-property summary. It is
// recomputed on every read and never stored.
type PropertyPerformance struct {
	PropertyID      string             `json:"propertyId"`
	PropertyName    string             `json:"propertyName"`
	TotalReviews    int                `json:"totalReviews"`
	AverageRating   float64            `json:"averageRating"` // 0 when no rated reviews
	CategoryRatings map[string]float64 `json:"categoryRatings"`
	RecentTrends    Trend              `json:"recentTrends"`
}
