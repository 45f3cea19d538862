package ratelimiter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QuotaResult reports the outcome of a check-and-reserve attempt.
type QuotaResult struct {
	Allowed     bool
	CountToday  int
	LimitPerDay int
}

// DailyQuota reserves one unit of a user's daily submission budget.
// The reservation must be atomic: N concurrent calls for the same user
// on the same day never allow more than the limit. Keys roll over on
// the UTC calendar day, so there is no explicit reset.
type DailyQuota interface {
	Reserve(ctx context.Context, userID int64, day time.Time) (QuotaResult, error)
}

// PostgresQuota keeps the authoritative counter in a submission_quota
// row keyed by (user_id, day). The check and the increment happen in a
// single upsert so the count can never be observed above the limit by
// a successful reservation, regardless of interleaving or how many
// service instances are running.
type PostgresQuota struct {
	db    *pgxpool.Pool
	limit int
}

func NewPostgresQuota(db *pgxpool.Pool, limit int) *PostgresQuota {
	return &PostgresQuota{db: db, limit: limit}
}

func (q *PostgresQuota) Reserve(ctx context.Context, userID int64, day time.Time) (QuotaResult, error) {
	dayKey := day.UTC().Format("2006-01-02")

	const upsert = `
		INSERT INTO submission_quota (user_id, day, count)
		VALUES ($1, $2, 1)
		ON CONFLICT (user_id, day) DO UPDATE
		SET count = submission_quota.count + 1
		WHERE submission_quota.count < $3
		RETURNING count
	`

	var count int
	err := q.db.QueryRow(ctx, upsert, userID, dayKey, q.limit).Scan(&count)
	if err == nil {
		return QuotaResult{Allowed: true, CountToday: count, LimitPerDay: q.limit}, nil
	}
	if err != pgx.ErrNoRows {
		return QuotaResult{}, fmt.Errorf("reserve submission quota: %w", err)
	}

	// The WHERE clause filtered the update out: the budget is spent.
	const current = `SELECT count FROM submission_quota WHERE user_id = $1 AND day = $2`
	if err := q.db.QueryRow(ctx, current, userID, dayKey).Scan(&count); err != nil {
		return QuotaResult{}, fmt.Errorf("read submission quota: %w", err)
	}
	return QuotaResult{Allowed: false, CountToday: count, LimitPerDay: q.limit}, nil
}

// MemoryQuota is an in-process DailyQuota with the same semantics,
// used in tests and local development. Not safe across instances.
type MemoryQuota struct {
	mu     sync.Mutex
	counts map[string]int
	limit  int
}

func NewMemoryQuota(limit int) *MemoryQuota {
	return &MemoryQuota{counts: make(map[string]int), limit: limit}
}

func (q *MemoryQuota) Reserve(_ context.Context, userID int64, day time.Time) (QuotaResult, error) {
	key := fmt.Sprintf("%d:%s", userID, day.UTC().Format("2006-01-02"))

	q.mu.Lock()
	defer q.mu.Unlock()

	count := q.counts[key]
	if count >= q.limit {
		return QuotaResult{Allowed: false, CountToday: count, LimitPerDay: q.limit}, nil
	}
	q.counts[key] = count + 1
	return QuotaResult{Allowed: true, CountToday: count + 1, LimitPerDay: q.limit}, nil
}
