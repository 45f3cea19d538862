package store

import (
	"context"
	"database/sql"
	"time"
)

// Vote is one user's current answer for one dish. A later vote from the
// same user overwrites the earlier one; there is never more than one
// row per (dish, user).
type Vote struct {
	DishID          int64         `json:"dish_id"`
	UserID          int64         `json:"user_id"`
	WouldOrderAgain bool          `json:"would_order_again"`
	Rating          sql.NullInt16 `json:"rating" swaggertype:"integer"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// DishTally pairs a dish with its current vote counts, as read by the
// ranking endpoint.
type DishTally struct {
	DishID     int64  `json:"dish_id"`
	Name       string `json:"name"`
	YesVotes   int    `json:"yes_votes"`
	TotalVotes int    `json:"total_votes"`
}

type VotesStore struct {
	db *sql.DB
}

func (s *VotesStore) Cast(ctx context.Context, vote *Vote) error {
	query := `
		INSERT INTO votes (dish_id, user_id, would_order_again, rating)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (dish_id, user_id) DO UPDATE
		SET would_order_again = EXCLUDED.would_order_again,
		    rating = EXCLUDED.rating,
		    updated_at = NOW()
		RETURNING created_at, updated_at
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	return s.db.QueryRowContext(ctx, query,
		vote.DishID,
		vote.UserID,
		vote.WouldOrderAgain,
		vote.Rating,
	).Scan(&vote.CreatedAt, &vote.UpdatedAt)
}

// Tally returns the current yes/total counts for a dish. Consensus is
// recomputed from this on every read; nothing derived is stored.
func (s *VotesStore) Tally(ctx context.Context, dishID int64) (int, int, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE would_order_again) AS yes_votes,
			COUNT(*) AS total_votes
		FROM votes
		WHERE dish_id = $1
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var yes, total int
	if err := s.db.QueryRowContext(ctx, query, dishID).Scan(&yes, &total); err != nil {
		return 0, 0, err
	}
	return yes, total, nil
}

func (s *VotesStore) TallyForRestaurant(ctx context.Context, restaurantID int64) ([]DishTally, error) {
	query := `
		SELECT d.id, d.name,
		       COUNT(v.user_id) FILTER (WHERE v.would_order_again) AS yes_votes,
		       COUNT(v.user_id) AS total_votes
		FROM dishes d
		LEFT JOIN votes v ON v.dish_id = d.id
		WHERE d.restaurant_id = $1
		GROUP BY d.id, d.name
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, query, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tallies []DishTally
	for rows.Next() {
		var t DishTally
		if err := rows.Scan(&t.DishID, &t.Name, &t.YesVotes, &t.TotalVotes); err != nil {
			return nil, err
		}
		tallies = append(tallies, t)
	}
	return tallies, rows.Err()
}
