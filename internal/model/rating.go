package model

import "time"

// Rating is a 1-5 score a requester leaves for a facility after using it.
// A user rates a given reservation at most once.
type Rating struct {
	ID            int64     `json:"rating_id"`      // ratings.rating_id
	UserID        int64     `json:"user_id"`        // ratings.user_id
	FacilityID    int64     `json:"facility_id"`    // ratings.facility_id
	ReservationID int64     `json:"reservation_id"` // ratings.reservation_id
	Rating        int       `json:"rating"`         // ratings.rating
	Review        *string   `json:"review"`         // ratings.review
	CreatedAt     time.Time `json:"created_at"`     // ratings.created_at
	UserName      *string   `json:"user_name,omitempty"`
}

// RatingSummary aggregates the ratings of one facility.
type RatingSummary struct {
	AverageRating float64 `json:"averageRating"`
	TotalRatings  int     `json:"totalRatings"`
}
