package store

import (
	"context"
	"database/sql"
	"fmt"
)

// FavoritesStore handles database operations for favorite dishes. It is
// the server side of the optimistic favorites mirror on the client.
type FavoritesStore struct {
	db *sql.DB
}

// AddFavorite inserts a record into the favorite_dishes table.
func (s *FavoritesStore) AddFavorite(ctx context.Context, userID, dishID int64) error {
	query := `
		INSERT INTO favorite_dishes (user_id, dish_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, query, userID, dishID); err != nil {
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	return nil
}

// RemoveFavorite deletes a record from the favorite_dishes table.
func (s *FavoritesStore) RemoveFavorite(ctx context.Context, userID, dishID int64) error {
	query := `
		DELETE FROM favorite_dishes
		WHERE user_id = $1 AND dish_id = $2
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, query, userID, dishID); err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	return nil
}

// GetFavoritesByUser returns all dishes a user has favorited, most
// recently favorited first.
func (s *FavoritesStore) GetFavoritesByUser(ctx context.Context, userID int64) ([]Dish, error) {
	query := `
		SELECT d.id, d.restaurant_id, d.name, d.category, d.price, d.notes,
		       d.created_at, d.updated_at
		FROM dishes d
		JOIN favorite_dishes f ON d.id = f.dish_id
		WHERE f.user_id = $1
		ORDER BY f.created_at DESC
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get favorites: %w", err)
	}
	defer rows.Close()

	var favorites []Dish
	for rows.Next() {
		var d Dish
		if err := rows.Scan(
			&d.ID, &d.RestaurantID, &d.Name, &d.Category, &d.Price, &d.Notes,
			&d.CreatedAt, &d.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan dish row: %w", err)
		}
		favorites = append(favorites, d)
	}
	return favorites, rows.Err()
}
