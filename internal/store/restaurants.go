package store

import (
	"context"
	"database/sql"
	"time"
)

type Restaurant struct {
	ID              int64          `json:"id"`
	Name            string         `json:"name"`
	Address         sql.NullString `json:"address" swaggertype:"string"`
	ExternalPlaceID sql.NullString `json:"external_place_id" swaggertype:"string"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

type RestaurantsStore struct {
	db *sql.DB
}

func (s *RestaurantsStore) GetByID(ctx context.Context, restaurantID int64) (*Restaurant, error) {
	query := `
		SELECT id, name, address, external_place_id, created_at, updated_at
		FROM restaurants
		WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var r Restaurant
	err := s.db.QueryRowContext(ctx, query, restaurantID).Scan(
		&r.ID,
		&r.Name,
		&r.Address,
		&r.ExternalPlaceID,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

// FindByNormalizedName looks up a canonical restaurant by its
// normalized name. Used by submission dedupe.
func (s *RestaurantsStore) FindByNormalizedName(ctx context.Context, nameNorm string) (int64, bool, error) {
	query := `SELECT id FROM restaurants WHERE name_normalized = $1 LIMIT 1`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var id int64
	err := s.db.QueryRowContext(ctx, query, nameNorm).Scan(&id)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, err
	}
	return id, true, nil
}

func (s *RestaurantsStore) FindByPlaceID(ctx context.Context, placeID string) (int64, bool, error) {
	query := `SELECT id FROM restaurants WHERE external_place_id = $1 LIMIT 1`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var id int64
	err := s.db.QueryRowContext(ctx, query, placeID).Scan(&id)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, err
	}
	return id, true, nil
}
