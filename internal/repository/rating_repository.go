package repository

import (
	"context"
	"database/sql"

	"github.com/doug-martin/goqu/v9"

	"github.com/iliyamo/campus-facility-reservation/internal/model"
)

var ratingTable = Table[model.Rating]{
	Name:       "ratings",
	PrimaryKey: "rating_id",
	Columns:    []string{"rating_id", "user_id", "facility_id", "reservation_id", "rating", "review", "created_at"},
	Scan: func(s Scanner) (model.Rating, error) {
		var r model.Rating
		err := s.Scan(&r.ID, &r.UserID, &r.FacilityID, &r.ReservationID, &r.Rating, &r.Review, &r.CreatedAt)
		return r, err
	},
}

// RatingRepo stores facility ratings.
type RatingRepo struct {
	Base[model.Rating]
}

func NewRatingRepo(db *sql.DB) *RatingRepo { return &RatingRepo{Base: NewBase(db, ratingTable)} }

// FindByUserAndReservation returns the user's rating of a reservation or
// ErrNotFound.
func (r *RatingRepo) FindByUserAndReservation(ctx context.Context, userID, reservationID int64) (model.Rating, error) {
	return r.FindOneWhere(ctx, goqu.Ex{"user_id": userID, "reservation_id": reservationID})
}

// FindByReservationID lists the ratings left for one reservation.
func (r *RatingRepo) FindByReservationID(ctx context.Context, reservationID int64) ([]model.Rating, error) {
	return r.withUser(ctx, "r.reservation_id = ?", reservationID)
}

// FindByFacilityID lists a facility's ratings with the rater's name,
// newest first.
func (r *RatingRepo) FindByFacilityID(ctx context.Context, facilityID int64) ([]model.Rating, error) {
	return r.withUser(ctx, "r.facility_id = ?", facilityID)
}

func (r *RatingRepo) withUser(ctx context.Context, where string, arg any) ([]model.Rating, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT r.rating_id, r.user_id, r.facility_id, r.reservation_id,
			r.rating, r.review, r.created_at, u.full_name
		FROM ratings r LEFT JOIN users u ON u.user_id = r.user_id
		WHERE `+where+` ORDER BY r.created_at DESC`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAll(rows, func(s Scanner) (model.Rating, error) {
		var x model.Rating
		err := s.Scan(&x.ID, &x.UserID, &x.FacilityID, &x.ReservationID, &x.Rating, &x.Review, &x.CreatedAt, &x.UserName)
		return x, err
	})
}

// AverageForFacility returns the mean score rounded to one decimal and the
// number of ratings. A facility without ratings averages 0.
func (r *RatingRepo) AverageForFacility(ctx context.Context, facilityID int64) (model.RatingSummary, error) {
	var (
		avg sql.NullFloat64
		sum model.RatingSummary
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT ROUND(AVG(rating), 1), COUNT(*) FROM ratings WHERE facility_id = ?`, facilityID).
		Scan(&avg, &sum.TotalRatings)
	if err != nil {
		return sum, err
	}
	if avg.Valid {
		sum.AverageRating = avg.Float64
	}
	return sum, nil
}
