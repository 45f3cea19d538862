package claim

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Store {
	return &Repository{db: db}
}

const claimColumns = `
	id, restaurant_id, user_id, business_role, verification_method,
	verification_notes, status, admin_notes, reviewed_at, reviewed_by, created_at
`

func scanClaim(row pgx.Row) (*Claim, error) {
	var c Claim
	err := row.Scan(
		&c.ID,
		&c.RestaurantID,
		&c.UserID,
		&c.BusinessRole,
		&c.VerificationMethod,
		&c.VerificationNotes,
		&c.Status,
		&c.AdminNotes,
		&c.ReviewedAt,
		&c.ReviewedBy,
		&c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClaimNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Create inserts a pending claim. The one-pending-claim-per
// (user, restaurant) rule is a partial unique index in the database,
// not an application check: a check-then-insert here would race under
// concurrent submissions.
func (r *Repository) Create(ctx context.Context, in *CreateClaimInput) (*Claim, error) {
	q := fmt.Sprintf(`
		INSERT INTO claims (restaurant_id, user_id, business_role, verification_method, verification_notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING %s
	`, claimColumns)

	c, err := scanClaim(r.db.QueryRow(ctx, q,
		in.RestaurantID,
		in.UserID,
		string(in.BusinessRole),
		string(in.VerificationMethod),
		in.VerificationNotes,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateClaim
		}
		return nil, fmt.Errorf("create claim: %w", err)
	}
	return c, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Claim, error) {
	q := fmt.Sprintf(`SELECT %s FROM claims WHERE id = $1`, claimColumns)
	return scanClaim(r.db.QueryRow(ctx, q, id))
}

func (r *Repository) List(ctx context.Context, filter Filter) ([]Claim, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 || filter.Limit > 60 {
		filter.Limit = 20
	}

	where := []string{"1=1"}
	args := []interface{}{}
	arg := 1

	if filter.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", arg))
		args = append(args, string(*filter.Status))
		arg++
	}

	limitPos := arg
	offsetPos := arg + 1
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	q := fmt.Sprintf(`
		SELECT %s FROM claims
		WHERE %s
		ORDER BY created_at ASC
		LIMIT $%d OFFSET $%d
	`, claimColumns, strings.Join(where, " AND "), limitPos, offsetPos)

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	defer rows.Close()

	return collectClaims(rows)
}

func (r *Repository) ListByRestaurant(ctx context.Context, restaurantID int64) ([]Claim, error) {
	q := fmt.Sprintf(`
		SELECT %s FROM claims
		WHERE restaurant_id = $1
		ORDER BY created_at ASC
	`, claimColumns)

	rows, err := r.db.Query(ctx, q, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("list claims by restaurant: %w", err)
	}
	defer rows.Close()

	return collectClaims(rows)
}

func collectClaims(rows pgx.Rows) ([]Claim, error) {
	var out []Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("scan claim: %w", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows claims: %w", err)
	}
	return out, nil
}

// Approve activates a claim. The exclusivity re-check, the claim
// update and the membership insert run in one transaction; with the
// restaurant's claim rows locked, two admins approving rival claims
// concurrently resolve to exactly one winner and one
// ErrOwnershipConflict.
func (r *Repository) Approve(ctx context.Context, id, adminID int64, notes *string) (*Claim, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin approve claim: %w", err)
	}
	defer tx.Rollback(ctx)

	cur, err := lockClaim(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(cur.Status, StatusApproved) {
		return nil, &InvalidTransitionError{From: cur.Status, To: StatusApproved}
	}

	// The restaurant row is the serialization point for ownership:
	// rival approvals queue on this lock, and the exclusivity check
	// below then sees whatever the winner committed.
	if cur.BusinessRole == RoleOwner {
		var restaurantID int64
		err := tx.QueryRow(ctx,
			`SELECT id FROM restaurants WHERE id = $1 FOR UPDATE`,
			cur.RestaurantID,
		).Scan(&restaurantID)
		if err != nil {
			return nil, fmt.Errorf("lock restaurant: %w", err)
		}

		const ownerCheck = `
			SELECT EXISTS (
				SELECT 1 FROM claims
				WHERE restaurant_id = $1
				  AND status = 'approved'
				  AND business_role = 'owner'
				  AND id <> $2
			)
		`
		var ownerExists bool
		if err := tx.QueryRow(ctx, ownerCheck, cur.RestaurantID, id).Scan(&ownerExists); err != nil {
			return nil, fmt.Errorf("check ownership exclusivity: %w", err)
		}
		if ownerExists {
			return nil, ErrOwnershipConflict
		}
	}

	q := fmt.Sprintf(`
		UPDATE claims
		SET status = 'approved', admin_notes = $1, reviewed_at = NOW(), reviewed_by = $2
		WHERE id = $3
		RETURNING %s
	`, claimColumns)

	updated, err := scanClaim(tx.QueryRow(ctx, q, notes, adminID, id))
	if err != nil {
		return nil, fmt.Errorf("approve claim: %w", err)
	}

	const membership = `
		INSERT INTO restaurant_users (restaurant_id, user_id, role, is_verified)
		VALUES ($1, $2, $3, true)
		ON CONFLICT (restaurant_id, user_id) DO UPDATE
		SET role = EXCLUDED.role, is_verified = true
	`
	if _, err := tx.Exec(ctx, membership, cur.RestaurantID, cur.UserID, string(cur.BusinessRole)); err != nil {
		return nil, fmt.Errorf("activate membership: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit approve claim: %w", err)
	}
	return updated, nil
}

func (r *Repository) Reject(ctx context.Context, id, adminID int64, notes *string) (*Claim, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin reject claim: %w", err)
	}
	defer tx.Rollback(ctx)

	cur, err := lockClaim(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(cur.Status, StatusRejected) {
		return nil, &InvalidTransitionError{From: cur.Status, To: StatusRejected}
	}

	q := fmt.Sprintf(`
		UPDATE claims
		SET status = 'rejected', admin_notes = $1, reviewed_at = NOW(), reviewed_by = $2
		WHERE id = $3
		RETURNING %s
	`, claimColumns)

	updated, err := scanClaim(tx.QueryRow(ctx, q, notes, adminID, id))
	if err != nil {
		return nil, fmt.Errorf("reject claim: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit reject claim: %w", err)
	}
	return updated, nil
}

func (r *Repository) Cancel(ctx context.Context, id, userID int64) (*Claim, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin cancel claim: %w", err)
	}
	defer tx.Rollback(ctx)

	cur, err := lockClaim(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if cur.UserID != userID {
		return nil, ErrClaimNotFound
	}
	if !CanTransition(cur.Status, StatusCancelled) {
		return nil, ErrConflict
	}

	q := fmt.Sprintf(`
		UPDATE claims
		SET status = 'cancelled', reviewed_at = NOW()
		WHERE id = $1
		RETURNING %s
	`, claimColumns)

	updated, err := scanClaim(tx.QueryRow(ctx, q, id))
	if err != nil {
		return nil, fmt.Errorf("cancel claim: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit cancel claim: %w", err)
	}
	return updated, nil
}

func lockClaim(ctx context.Context, tx pgx.Tx, id int64) (*Claim, error) {
	q := fmt.Sprintf(`SELECT %s FROM claims WHERE id = $1 FOR UPDATE`, claimColumns)
	return scanClaim(tx.QueryRow(ctx, q, id))
}

// GetOwnershipStatus reads the membership table, not the claims table:
// claims are the paper trail, restaurant_users is the live state.
func (r *Repository) GetOwnershipStatus(ctx context.Context, restaurantID, userID int64) (*OwnershipStatus, error) {
	const q = `
		SELECT
			EXISTS (
				SELECT 1 FROM claims
				WHERE restaurant_id = $1 AND status = 'approved'
			) AS is_claimed,
			EXISTS (
				SELECT 1 FROM restaurant_users
				WHERE restaurant_id = $1 AND user_id = $2 AND role = 'owner' AND is_verified
			) AS is_owned_by_current_user,
			EXISTS (
				SELECT 1 FROM restaurant_users
				WHERE restaurant_id = $1 AND user_id = $2 AND is_verified
			) AS can_manage
	`

	var st OwnershipStatus
	err := r.db.QueryRow(ctx, q, restaurantID, userID).Scan(
		&st.IsClaimed,
		&st.IsOwnedByCurrentUser,
		&st.CanManage,
	)
	if err != nil {
		return nil, fmt.Errorf("get ownership status: %w", err)
	}
	return &st, nil
}
