package model

import "time"

// Review is one row of the review ledger.  A user has at most one review per
// movie; resubmitting overwrites it.  Username is joined for movie listings,
// MovieTitle for a user's own listing.  WatchedOn is a calendar date
// formatted as YYYY-MM-DD.
type Review struct {
	ID         uint64    `json:"id"`
	UserID     uint64    `json:"user_id"`
	MovieID    uint64    `json:"movie_id"`
	Rating     int       `json:"rating"`
	ReviewText string    `json:"review_text"`
	WatchedOn  *string   `json:"watched_on"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Username   string    `json:"username,omitempty"`
	MovieTitle string    `json:"title,omitempty"`
}

// ReviewInput is the payload of a review upsert.
type ReviewInput struct {
	UserID     uint64
	MovieID    uint64
	Rating     int
	ReviewText string
	WatchedOn  *time.Time
}

// DateLayout is the wire format of Review.WatchedOn.
const DateLayout = "2006-01-02"
