package store

import (
	"context"
	"database/sql"
	"time"
)

type Dish struct {
	ID           int64          `json:"id"`
	RestaurantID int64          `json:"restaurant_id"`
	Name         string         `json:"name"`
	Category     string         `json:"category"`
	Price        sql.NullString `json:"price" swaggertype:"string"`
	Notes        sql.NullString `json:"notes" swaggertype:"string"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

type DishesStore struct {
	db *sql.DB
}

func (s *DishesStore) GetByID(ctx context.Context, dishID int64) (*Dish, error) {
	query := `
		SELECT id, restaurant_id, name, category, price, notes, created_at, updated_at
		FROM dishes
		WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var d Dish
	err := s.db.QueryRowContext(ctx, query, dishID).Scan(
		&d.ID,
		&d.RestaurantID,
		&d.Name,
		&d.Category,
		&d.Price,
		&d.Notes,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// FindByNormalizedName looks up a canonical dish within one restaurant
// by its normalized name. Used by submission dedupe.
func (s *DishesStore) FindByNormalizedName(ctx context.Context, restaurantID int64, nameNorm string) (int64, bool, error) {
	query := `
		SELECT id FROM dishes
		WHERE restaurant_id = $1 AND name_normalized = $2
		LIMIT 1
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var id int64
	err := s.db.QueryRowContext(ctx, query, restaurantID, nameNorm).Scan(&id)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, err
	}
	return id, true, nil
}

func (s *DishesStore) ListByRestaurant(ctx context.Context, restaurantID int64) ([]Dish, error) {
	query := `
		SELECT id, restaurant_id, name, category, price, notes, created_at, updated_at
		FROM dishes
		WHERE restaurant_id = $1
		ORDER BY name ASC
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, query, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dishes []Dish
	for rows.Next() {
		var d Dish
		if err := rows.Scan(
			&d.ID,
			&d.RestaurantID,
			&d.Name,
			&d.Category,
			&d.Price,
			&d.Notes,
			&d.CreatedAt,
			&d.UpdatedAt,
		); err != nil {
			return nil, err
		}
		dishes = append(dishes, d)
	}
	return dishes, rows.Err()
}
