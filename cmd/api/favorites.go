package main

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// AddFavorite godoc
//
//	@Summary		Favorite a dish
//	@Description	Idempotent; favoriting an already-favorited dish succeeds.
//	@Tags			Favorites
//	@Produce		json
//	@Param			dishID	path		int	true	"Dish ID"
//	@Success		201		{object}	map[string]string
//	@Failure		400		{object}	error
//	@Failure		404		{object}	error
//	@Failure		500		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/dishes/{dishID}/favorite [post]
func (app *application) addFavoriteHandler(w http.ResponseWriter, r *http.Request) {
	dishID, err := strconv.ParseInt(chi.URLParam(r, "dishID"), 10, 64)
	if err != nil || dishID <= 0 {
		app.badRequestResponse(w, r, fmt.Errorf("invalid dish ID"))
		return
	}

	if _, err := app.store.Dishes.GetByID(r.Context(), dishID); err != nil {
		app.notFoundResponse(w, r, err)
		return
	}

	user := getUserFromContext(r)

	if err := app.store.Favorites.AddFavorite(r.Context(), user.ID, dishID); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.sink.Emit("favorite.added", user.ID, map[string]any{"dish_id": dishID})

	if err := app.jsonResponse(w, http.StatusCreated, map[string]string{"message": "dish favorited"}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// RemoveFavorite godoc
//
//	@Summary		Unfavorite a dish
//	@Description	Idempotent; removing a dish that is not favorited succeeds.
//	@Tags			Favorites
//	@Produce		json
//	@Param			dishID	path		int	true	"Dish ID"
//	@Success		200		{object}	map[string]string
//	@Failure		400		{object}	error
//	@Failure		500		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/dishes/{dishID}/favorite [delete]
func (app *application) removeFavoriteHandler(w http.ResponseWriter, r *http.Request) {
	dishID, err := strconv.ParseInt(chi.URLParam(r, "dishID"), 10, 64)
	if err != nil || dishID <= 0 {
		app.badRequestResponse(w, r, fmt.Errorf("invalid dish ID"))
		return
	}

	user := getUserFromContext(r)

	if err := app.store.Favorites.RemoveFavorite(r.Context(), user.ID, dishID); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.sink.Emit("favorite.removed", user.ID, map[string]any{"dish_id": dishID})

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"message": "favorite removed"}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// ListFavorites godoc
//
//	@Summary		The caller's favorite dishes
//	@Tags			Favorites
//	@Produce		json
//	@Success		200	{array}		store.Dish
//	@Failure		500	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/dishes/favorites [get]
func (app *application) listFavoritesHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	favorites, err := app.store.Favorites.GetFavoritesByUser(r.Context(), user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, favorites); err != nil {
		app.internalServerError(w, r, err)
	}
}
