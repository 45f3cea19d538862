package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrConflict          = errors.New("resource already exists")
	QueryTimeoutDuration = time.Second * 5
)

type Storage struct {
	Users interface {
		GetByID(context.Context, int64) (*User, error)
		IsAdmin(context.Context, int64) (bool, error)
	}
	Restaurants interface {
		GetByID(context.Context, int64) (*Restaurant, error)
		FindByNormalizedName(context.Context, string) (int64, bool, error)
		FindByPlaceID(context.Context, string) (int64, bool, error)
	}
	Dishes interface {
		GetByID(context.Context, int64) (*Dish, error)
		FindByNormalizedName(ctx context.Context, restaurantID int64, nameNorm string) (int64, bool, error)
		ListByRestaurant(context.Context, int64) ([]Dish, error)
	}
	Votes interface {
		Cast(context.Context, *Vote) error
		Tally(ctx context.Context, dishID int64) (yes int, total int, err error)
		TallyForRestaurant(ctx context.Context, restaurantID int64) ([]DishTally, error)
	}
	Favorites interface {
		AddFavorite(ctx context.Context, userID, dishID int64) error
		RemoveFavorite(ctx context.Context, userID, dishID int64) error
		GetFavoritesByUser(ctx context.Context, userID int64) ([]Dish, error)
	}
}

func NewStorage(db *sql.DB) Storage {
	return Storage{
		Users:       &UsersStore{db},
		Restaurants: &RestaurantsStore{db},
		Dishes:      &DishesStore{db},
		Votes:       &VotesStore{db},
		Favorites:   &FavoritesStore{db},
	}
}
