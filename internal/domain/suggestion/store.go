package suggestion

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Store {
	return &Repository{db: db}
}

const suggestionColumns = `
	id, ref_code, kind, submitter_id,
	name, restaurant_id, category, address, price, notes, external_place_id,
	status, admin_notes, promoted_entity_id, reviewed_at, reviewed_by, created_at
`

func scanSuggestion(row pgx.Row) (*Suggestion, error) {
	var s Suggestion
	err := row.Scan(
		&s.ID,
		&s.RefCode,
		&s.Kind,
		&s.SubmitterID,
		&s.Name,
		&s.RestaurantID,
		&s.Category,
		&s.Address,
		&s.Price,
		&s.Notes,
		&s.ExternalPlaceID,
		&s.Status,
		&s.AdminNotes,
		&s.PromotedEntityID,
		&s.ReviewedAt,
		&s.ReviewedBy,
		&s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSuggestionNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *Repository) Create(ctx context.Context, in *CreateSuggestionInput) (*Suggestion, error) {
	q := fmt.Sprintf(`
		INSERT INTO suggestions (
			ref_code, kind, submitter_id,
			name, name_normalized, restaurant_id, category, address, price, notes, external_place_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING %s
	`, suggestionColumns)

	s, err := scanSuggestion(r.db.QueryRow(ctx, q,
		in.RefCode,
		in.Kind,
		in.SubmitterID,
		in.Name,
		in.NameNormalized,
		in.RestaurantID,
		in.Category,
		in.Address,
		in.Price,
		in.Notes,
		in.ExternalPlaceID,
	))
	if err != nil {
		return nil, fmt.Errorf("create suggestion: %w", err)
	}
	return s, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Suggestion, error) {
	q := fmt.Sprintf(`SELECT %s FROM suggestions WHERE id = $1`, suggestionColumns)
	return scanSuggestion(r.db.QueryRow(ctx, q, id))
}

func (r *Repository) List(ctx context.Context, filter Filter) ([]Suggestion, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 || filter.Limit > 60 {
		filter.Limit = 20
	}

	where := []string{"1=1"}
	args := []interface{}{}
	arg := 1

	if filter.Kind != nil {
		where = append(where, fmt.Sprintf("kind = $%d", arg))
		args = append(args, string(*filter.Kind))
		arg++
	}
	if filter.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", arg))
		args = append(args, string(*filter.Status))
		arg++
	}

	limitPos := arg
	offsetPos := arg + 1
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	q := fmt.Sprintf(`
		SELECT %s FROM suggestions
		WHERE %s
		ORDER BY created_at ASC
		LIMIT $%d OFFSET $%d
	`, suggestionColumns, strings.Join(where, " AND "), limitPos, offsetPos)

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list suggestions: %w", err)
	}
	defer rows.Close()

	return collectSuggestions(rows)
}

// ListPending is the review queue: oldest first, so early submitters
// are reviewed first.
func (r *Repository) ListPending(ctx context.Context, kind Kind) ([]Suggestion, error) {
	q := fmt.Sprintf(`
		SELECT %s FROM suggestions
		WHERE status = 'pending' AND kind = $1
		ORDER BY created_at ASC
	`, suggestionColumns)

	rows, err := r.db.Query(ctx, q, string(kind))
	if err != nil {
		return nil, fmt.Errorf("list pending suggestions: %w", err)
	}
	defer rows.Close()

	return collectSuggestions(rows)
}

func (r *Repository) ListBySubmitter(ctx context.Context, userID int64) ([]Suggestion, error) {
	q := fmt.Sprintf(`
		SELECT %s FROM suggestions
		WHERE submitter_id = $1
		ORDER BY created_at DESC
	`, suggestionColumns)

	rows, err := r.db.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list suggestions by submitter: %w", err)
	}
	defer rows.Close()

	return collectSuggestions(rows)
}

func collectSuggestions(rows pgx.Rows) ([]Suggestion, error) {
	var out []Suggestion
	for rows.Next() {
		s, err := scanSuggestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan suggestion: %w", err)
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows suggestions: %w", err)
	}
	return out, nil
}

// FindLiveDuplicate checks pending and approved suggestions in the
// candidate's scope: same restaurant for dishes, same external place id
// for restaurants. Canonical entities are checked separately by the
// gateway against the catalog.
func (r *Repository) FindLiveDuplicate(ctx context.Context, in *CreateSuggestionInput) (int64, bool, error) {
	var (
		q    string
		args []interface{}
	)

	switch in.Kind {
	case KindDish:
		q = `
			SELECT id FROM suggestions
			WHERE kind = 'dish'
			  AND restaurant_id = $1
			  AND name_normalized = $2
			  AND status IN ('pending', 'approved')
			LIMIT 1
		`
		args = []interface{}{in.RestaurantID, in.NameNormalized}
	case KindRestaurant:
		if in.ExternalPlaceID == nil {
			q = `
				SELECT id FROM suggestions
				WHERE kind = 'restaurant'
				  AND external_place_id IS NULL
				  AND name_normalized = $1
				  AND status IN ('pending', 'approved')
				LIMIT 1
			`
			args = []interface{}{in.NameNormalized}
		} else {
			q = `
				SELECT id FROM suggestions
				WHERE kind = 'restaurant'
				  AND external_place_id = $1
				  AND name_normalized = $2
				  AND status IN ('pending', 'approved')
				LIMIT 1
			`
			args = []interface{}{*in.ExternalPlaceID, in.NameNormalized}
		}
	default:
		return 0, false, fmt.Errorf("unknown suggestion kind %q", in.Kind)
	}

	var id int64
	err := r.db.QueryRow(ctx, q, args...).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("find live duplicate: %w", err)
	}
	return id, true, nil
}

// Decide applies an admin verdict to a pending suggestion. The status
// re-read, the promotion (for approvals) and the status write all
// happen in one transaction: either the canonical row exists and the
// suggestion is approved, or neither.
func (r *Repository) Decide(ctx context.Context, id, adminID int64, decision Decision) (*Suggestion, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin decide: %w", err)
	}
	defer tx.Rollback(ctx)

	cur, err := lockSuggestion(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(cur.Status, decision.status()) {
		return nil, &InvalidTransitionError{From: cur.Status, To: decision.status()}
	}

	var (
		promotedID *int64
		notes      *string
	)

	switch d := decision.(type) {
	case ApproveDecision:
		notes = d.Notes
		entityID, err := promote(ctx, tx, cur)
		if err != nil {
			return nil, err
		}
		promotedID = &entityID
	case RejectDecision:
		notes = d.Notes
	case MarkDuplicateDecision:
		notes = d.Notes
		existing := d.ExistingEntityID
		promotedID = &existing
	default:
		return nil, fmt.Errorf("unknown decision type %T", decision)
	}

	q := fmt.Sprintf(`
		UPDATE suggestions
		SET status = $1,
		    admin_notes = $2,
		    promoted_entity_id = $3,
		    reviewed_at = NOW(),
		    reviewed_by = $4
		WHERE id = $5
		RETURNING %s
	`, suggestionColumns)

	updated, err := scanSuggestion(tx.QueryRow(ctx, q,
		string(decision.status()), notes, promotedID, adminID, id,
	))
	if err != nil {
		return nil, fmt.Errorf("apply decision: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit decide: %w", err)
	}
	return updated, nil
}

// Cancel is the submitter withdrawing a pending suggestion. It runs
// through the same row lock as admin decisions, so a cancel racing an
// approve resolves to exactly one winner.
func (r *Repository) Cancel(ctx context.Context, id, submitterID int64) (*Suggestion, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin cancel: %w", err)
	}
	defer tx.Rollback(ctx)

	cur, err := lockSuggestion(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if cur.SubmitterID != submitterID {
		return nil, ErrSuggestionNotFound
	}
	if !CanTransition(cur.Status, StatusCancelled) {
		return nil, ErrConflict
	}

	q := fmt.Sprintf(`
		UPDATE suggestions
		SET status = 'cancelled', reviewed_at = NOW()
		WHERE id = $1
		RETURNING %s
	`, suggestionColumns)

	updated, err := scanSuggestion(tx.QueryRow(ctx, q, id))
	if err != nil {
		return nil, fmt.Errorf("cancel suggestion: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit cancel: %w", err)
	}
	return updated, nil
}

func lockSuggestion(ctx context.Context, tx pgx.Tx, id int64) (*Suggestion, error) {
	q := fmt.Sprintf(`SELECT %s FROM suggestions WHERE id = $1 FOR UPDATE`, suggestionColumns)
	return scanSuggestion(tx.QueryRow(ctx, q, id))
}

// promote creates the canonical row for an approved suggestion and
// returns its id. Runs inside the deciding transaction.
func promote(ctx context.Context, tx pgx.Tx, s *Suggestion) (int64, error) {
	var entityID int64

	switch s.Kind {
	case KindDish:
		if s.RestaurantID == nil {
			return 0, fmt.Errorf("dish suggestion %d has no parent restaurant", s.ID)
		}
		const q = `
			INSERT INTO dishes (restaurant_id, name, name_normalized, category, price, notes)
			VALUES ($1, $2, $3, COALESCE($4, 'uncategorized'), $5, $6)
			RETURNING id
		`
		err := tx.QueryRow(ctx, q,
			*s.RestaurantID, s.Name, NormalizeName(s.Name), s.Category, s.Price, s.Notes,
		).Scan(&entityID)
		if err != nil {
			return 0, fmt.Errorf("promote dish: %w", err)
		}
	case KindRestaurant:
		const q = `
			INSERT INTO restaurants (name, name_normalized, address, external_place_id)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`
		err := tx.QueryRow(ctx, q,
			s.Name, NormalizeName(s.Name), s.Address, s.ExternalPlaceID,
		).Scan(&entityID)
		if err != nil {
			return 0, fmt.Errorf("promote restaurant: %w", err)
		}
	default:
		return 0, fmt.Errorf("unknown suggestion kind %q", s.Kind)
	}

	return entityID, nil
}
