package domain

import "time"

// ChannelHostaway is the fixed channel literal stamped on every review
// produced by the Hostaway ingestion pipeline.
const ChannelHostaway = "hostaway"

// AnonymousGuest replaces empty guest names during normalization.
const AnonymousGuest = "Anonymous"

type CategoryRating struct {
	Category string  `json:"category"`
	Rating   float64 `json:"rating"`
}

// Review is the canonical internal review entity. Everything except
// DisplayOnWebsite is computed from the source record at normalization
// time; DisplayOnWebsite is mutated later by the manager approval action.
type Review struct {
	ID               string           `json:"id"`
	PropertyID       string           `json:"propertyId"`
	GuestName        string           `json:"guestName"`
	Rating           *float64         `json:"rating"` // nil = no data, never 0
	PublicReview     string           `json:"publicReview"`
	Channel          string           `json:"channel"`
	ReviewType       string           `json:"reviewType"`
	Status           string           `json:"status"`
	DisplayOnWebsite bool             `json:"displayOnWebsite"`
	Categories       []CategoryRating `json:"categories"`
	SubmittedAt      time.Time        `json:"submittedAt"`
	RawJSON          []byte           `json:"-"` // full source payload
}
