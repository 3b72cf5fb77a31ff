package model

import "time"

// Movie is a catalog entry together with its derived rating aggregate.
// AvgRating and ReviewCount are computed on every read and never stored.
// ExternalSource/ExternalID form the provenance key of imported movies.
type Movie struct {
	ID             uint64    `json:"id"`
	Title          string    `json:"title"`
	Year           *int      `json:"year"`
	Genre          string    `json:"genre"`
	Description    string    `json:"description"`
	PosterURL      *string   `json:"poster_url"`
	CreatedBy      *uint64   `json:"created_by,omitempty"`
	ExternalSource *string   `json:"external_source,omitempty"`
	ExternalID     *string   `json:"external_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	AvgRating      float64   `json:"avg_rating"`
	ReviewCount    int64     `json:"review_count"`
}

// NewMovie carries the columns written when a movie is added manually or
// imported.
type NewMovie struct {
	Title          string
	Year           *int
	Genre          string
	Description    string
	PosterURL      *string
	CreatedBy      *uint64
	ExternalSource *string
	ExternalID     *string
}

// ExternalMovie is a search hit from the external catalog, normalized for
// clients.
type ExternalMovie struct {
	ExternalID  string  `json:"externalId"`
	Title       string  `json:"title"`
	Year        *int    `json:"year"`
	Description string  `json:"description"`
	PosterURL   *string `json:"posterUrl"`
	Genre       string  `json:"genre"`
}
