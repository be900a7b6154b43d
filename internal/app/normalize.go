package app

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"review_dashboard/internal/domain"
)

/********** alias registries (single source of truth) **********/

var reviewAliases = map[string][]string{
	"id":         {"id", "reviewId", "review_id"},
	"guest":      {"guestName", "guest_name", "guest.name", "author", "reviewer.name"},
	"listing":    {"listingName", "listing_name", "listing.name"},
	"text":       {"publicReview", "public_review", "review", "comment", "text"},
	"type":       {"type", "reviewType", "review_type"},
	"status":     {"status"},
	"rating":     {"rating", "overallRating", "overall_rating", "rating.overall"},
	"submitted":  {"submittedAt", "submitted_at", "createdAt", "created_at"},
	"categories": {"reviewCategory", "review_category", "categoryRatings", "categories"},
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// lookupStr returns string at path or "".
func lookupStr(m map[string]any, path string) string {
	if v := lookupAny(m, path); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// firstNonEmptyAlias: first non-empty string for a named alias set.
func firstNonEmptyAlias(m map[string]any, key string) string {
	for _, p := range reviewAliases[key] {
		if s := lookupStr(m, p); s != "" {
			return s
		}
	}
	return ""
}

// getFloatFlexible: number from several paths (float64/int/string like "8,0").
func getFloatFlexible(m map[string]any, paths ...string) *float64 {
	for _, k := range paths {
		if f := coerceFloat(lookupAny(m, k)); f != nil {
			return f
		}
	}
	return nil
}

func coerceFloat(v any) *float64 {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil
		}
		f := t
		return &f
	case int:
		f := float64(t)
		return &f
	case int64:
		f := float64(t)
		return &f
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return &f
		}
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(t, ",", "."))
		if s == "" {
			return nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) {
			return &f
		}
	}
	return nil
}

// stringifyID renders an external id verbatim for strings and without a
// decimal tail for JSON numbers (7453 not 7453.000000).
func stringifyID(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case json.Number:
		return t.String()
	}
	return ""
}

/********** identifier mapper **********/

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// MapListingToPropertyID derives the stable property id for a free-text
// listing name: lower-case, collapse every run of non-alphanumerics to a
// single hyphen, trim edge hyphens. Same text always yields the same id;
// collisions are intentional (same listing name = same property).
func MapListingToPropertyID(listingName string) (string, error) {
	slug := nonAlnum.ReplaceAllString(strings.ToLower(listingName), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidListing, listingName)
	}
	return slug, nil
}

// PropertyDisplayName reconstructs a display name from a property id by
// title-casing its hyphen-split tokens. Lossy: it is not an inverse of
// MapListingToPropertyID and may not match the original listing name.
func PropertyDisplayName(propertyID string) string {
	parts := strings.Split(propertyID, "-")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

/********** rating resolver **********/

// CalculateAverageRating returns the mean of the valid category ratings
// rounded to one decimal, or nil when no valid entries exist. It never
// returns 0 as a stand-in for "no data".
func CalculateAverageRating(categories []domain.CategoryRating) *float64 {
	var sum float64
	var n int
	for _, c := range categories {
		if math.IsNaN(c.Rating) || math.IsInf(c.Rating, 0) {
			continue
		}
		sum += c.Rating
		n++
	}
	if n == 0 {
		return nil
	}
	avg := round1(sum / float64(n))
	return &avg
}

// round1 rounds to one decimal, half up on value*10.
func round1(f float64) float64 {
	return math.Floor(f*10+0.5) / 10
}

/********** review normalizer **********/

// submittedAtLayouts are tried in order against the raw text, then again
// after coercing "YYYY-MM-DD HH:MM:SS" into the T-separated shape.
var submittedAtLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// NormalizeReview transforms one raw Hostaway record into the canonical
// Review. now is threaded explicitly so the unparseable-date fallback is
// deterministic under test; production callers pass time.Now().
//
// The only fatal condition is a missing/invalid listing name
// (domain.ErrInvalidListing); batch callers catch it per record.
func NormalizeReview(raw map[string]any, now time.Time) (domain.Review, error) {
	listing := firstNonEmptyAlias(raw, "listing")
	propertyID, err := MapListingToPropertyID(listing)
	if err != nil {
		return domain.Review{}, err
	}

	rv := domain.Review{
		PropertyID:       propertyID,
		Channel:          domain.ChannelHostaway,
		ReviewType:       firstNonEmptyAlias(raw, "type"),
		Status:           firstNonEmptyAlias(raw, "status"),
		PublicReview:     firstNonEmptyAlias(raw, "text"),
		DisplayOnWebsite: false, // curation state never originates from the source
	}

	if g := strings.TrimSpace(firstNonEmptyAlias(raw, "guest")); g != "" {
		rv.GuestName = g
	} else {
		rv.GuestName = domain.AnonymousGuest
	}

	rv.Categories = mapCategories(raw)

	// Explicit rating wins over any category-derived value.
	if f := getFloatFlexible(raw, reviewAliases["rating"]...); f != nil {
		rv.Rating = f
	} else {
		rv.Rating = CalculateAverageRating(rv.Categories)
	}

	rv.SubmittedAt = parseSubmittedAt(raw, now)

	// ID: stringified external id; synthesize a stable hash when absent.
	for _, p := range reviewAliases["id"] {
		if s := stringifyID(lookupAny(raw, p)); s != "" {
			rv.ID = s
			break
		}
	}
	if rv.ID == "" {
		sig := strings.Join([]string{rv.PropertyID, rv.GuestName, rv.PublicReview, lookupStr(raw, "submittedAt")}, "|")
		sum := sha1.Sum([]byte(sig))
		rv.ID = hex.EncodeToString(sum[:])
	}

	if b, err := json.Marshal(raw); err == nil {
		rv.RawJSON = b
	} else {
		log.Error().Err(err).Str("context", "NormalizeReview").Msg("marshal raw review failed")
	}

	return rv, nil
}

// NormalizeBatch normalizes every record, substituting a degraded
// placeholder (property id "unknown") for records with an invalid
// listing name so one bad record never aborts the batch.
func NormalizeBatch(raws []map[string]any, now time.Time) []domain.Review {
	out := make([]domain.Review, 0, len(raws))
	for _, raw := range raws {
		rv, err := NormalizeReview(raw, now)
		if err != nil {
			log.Warn().Err(err).Str("context", "NormalizeBatch").Msg("record degraded to placeholder")
			rv = placeholderReview(raw, now)
		}
		out = append(out, rv)
	}
	return out
}

// placeholderReview builds a best-effort record for a source review
// whose listing name could not be mapped.
func placeholderReview(raw map[string]any, now time.Time) domain.Review {
	patched := make(map[string]any, len(raw)+1)
	for k, v := range raw {
		patched[k] = v
	}
	patched["listingName"] = "unknown"
	rv, _ := NormalizeReview(patched, now)
	return rv
}

// mapCategories validates and coerces the loosely-typed source category
// list into strict (category, rating) pairs, dropping malformed entries.
func mapCategories(raw map[string]any) []domain.CategoryRating {
	out := []domain.CategoryRating{}
	for _, p := range reviewAliases["categories"] {
		items, ok := lookupAny(raw, p).([]any)
		if !ok {
			continue
		}
		for _, it := range items {
			m, ok := it.(map[string]any)
			if !ok {
				continue
			}
			name, ok := m["category"].(string)
			if !ok || strings.TrimSpace(name) == "" {
				continue
			}
			f := coerceFloat(m["rating"])
			if f == nil {
				continue
			}
			out = append(out, domain.CategoryRating{Category: name, Rating: *f})
		}
		if len(out) > 0 {
			break
		}
	}
	return out
}

// parseSubmittedAt parses the source timestamp: direct parse first, then
// a retry with the first space coerced to a T separator, then the
// current time as a recoverable fallback (logged, never an error).
func parseSubmittedAt(raw map[string]any, now time.Time) time.Time {
	s := strings.TrimSpace(firstNonEmptyAlias(raw, "submitted"))
	if s == "" {
		log.Warn().Str("context", "parseSubmittedAt").Msg("missing submittedAt; using current time")
		return now
	}
	if t, ok := tryLayouts(s); ok {
		return t
	}
	if coerced := strings.Replace(s, " ", "T", 1); coerced != s {
		if t, ok := tryLayouts(coerced); ok {
			return t
		}
	}
	log.Warn().Str("submittedAt", s).Str("context", "parseSubmittedAt").Msg("unparseable submittedAt; using current time")
	return now
}

func tryLayouts(s string) (time.Time, bool) {
	for _, layout := range submittedAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
