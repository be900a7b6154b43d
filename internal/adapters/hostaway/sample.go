package hostaway

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed sample_reviews.json
var sampleJSON []byte

// SampleReviews returns the bundled review dataset used when the live
// feed is unreachable or empty. The records deliberately mirror the raw
// Hostaway shape so they flow through the same normalization path.
func SampleReviews() ([]map[string]any, error) {
	var env envelope
	if err := json.Unmarshal(sampleJSON, &env); err != nil {
		return nil, fmt.Errorf("decode bundled sample: %w", err)
	}
	return env.Result, nil
}
