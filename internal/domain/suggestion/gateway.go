package suggestion

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"worthit/internal/events"
	"worthit/internal/ratelimiter"
	"worthit/internal/store"
)

// Catalog is the gateway's read-only view of canonical entities for
// duplicate detection.
type Catalog interface {
	FindDishByName(ctx context.Context, restaurantID int64, nameNorm string) (int64, bool, error)
	FindRestaurantByName(ctx context.Context, nameNorm string) (int64, bool, error)
	FindRestaurantByPlaceID(ctx context.Context, placeID string) (int64, bool, error)
}

// Gateway is the single entry point for community submissions. It
// validates, reserves daily quota, runs duplicate detection and
// persists the pending suggestion, in that order. It dispatches no
// notifications itself; accepted submissions go to the event sink.
type Gateway struct {
	repo     Store
	catalog  Catalog
	quota    ratelimiter.DailyQuota
	refCodes *RefCodeGenerator
	sink     events.Sink
	logger   *zap.SugaredLogger

	retryBackoff time.Duration
	now          func() time.Time
}

func NewGateway(
	repo Store,
	catalog Catalog,
	quota ratelimiter.DailyQuota,
	refCodes *RefCodeGenerator,
	sink events.Sink,
	logger *zap.SugaredLogger,
) *Gateway {
	return &Gateway{
		repo:         repo,
		catalog:      catalog,
		quota:        quota,
		refCodes:     refCodes,
		sink:         sink,
		logger:       logger,
		retryBackoff: 100 * time.Millisecond,
		now:          time.Now,
	}
}

// SubmitInput is a raw candidate from a handler, before any cleanup.
type SubmitInput struct {
	Kind        Kind
	SubmitterID int64

	Name            string
	RestaurantID    *int64
	Category        *string
	Address         *string
	Price           *string
	Notes           *string
	ExternalPlaceID *string
}

// Submit runs the full intake pipeline. Validation, rate-limit and
// duplicate failures come back as their typed errors; transient storage
// failures are retried once before surfacing.
func (g *Gateway) Submit(ctx context.Context, in *SubmitInput) (*Suggestion, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	// Quota is reserved before dedupe so a flood of duplicate spam
	// still burns the sender's budget.
	res, err := g.reserveQuota(ctx, in.SubmitterID)
	if err != nil {
		return nil, err
	}
	if !res.Allowed {
		return nil, &RateLimitExceeded{LimitPerDay: res.LimitPerDay, CountToday: res.CountToday}
	}

	create := &CreateSuggestionInput{
		Kind:            in.Kind,
		SubmitterID:     in.SubmitterID,
		Name:            strings.TrimSpace(in.Name),
		NameNormalized:  NormalizeName(in.Name),
		RestaurantID:    in.RestaurantID,
		Category:        in.Category,
		Address:         in.Address,
		Price:           in.Price,
		Notes:           in.Notes,
		ExternalPlaceID: in.ExternalPlaceID,
	}

	if dup, err := g.findDuplicate(ctx, create); err != nil {
		return nil, err
	} else if dup != nil {
		return nil, dup
	}

	create.RefCode, err = g.refCodes.Generate(in.SubmitterID)
	if err != nil {
		return nil, err
	}

	created, err := g.persist(ctx, create)
	if err != nil {
		return nil, err
	}

	g.sink.Emit("suggestion.submitted", in.SubmitterID, map[string]any{
		"suggestion_id": created.ID,
		"ref_code":      created.RefCode,
		"kind":          string(created.Kind),
	})

	return created, nil
}

func validate(in *SubmitInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return &ValidationError{Field: "name"}
	}
	switch in.Kind {
	case KindDish:
		if in.RestaurantID == nil || *in.RestaurantID <= 0 {
			return &ValidationError{Field: "restaurant_id"}
		}
		if in.Category == nil || strings.TrimSpace(*in.Category) == "" {
			return &ValidationError{Field: "category"}
		}
	case KindRestaurant:
		// Name is the only required field.
	default:
		return &ValidationError{Field: "kind"}
	}
	return nil
}

func (g *Gateway) reserveQuota(ctx context.Context, userID int64) (ratelimiter.QuotaResult, error) {
	res, err := g.quota.Reserve(ctx, userID, g.now().UTC())
	if err != nil && store.IsTransient(err) {
		g.logger.Warnw("quota reserve failed, retrying once", "user_id", userID, "error", err)
		select {
		case <-time.After(g.retryBackoff):
		case <-ctx.Done():
			return ratelimiter.QuotaResult{}, ctx.Err()
		}
		res, err = g.quota.Reserve(ctx, userID, g.now().UTC())
	}
	if err != nil {
		return ratelimiter.QuotaResult{}, fmt.Errorf("reserve quota: %w", err)
	}
	return res, nil
}

// findDuplicate checks canonical entities first, then pending/approved
// suggestions in the same scope. Returns a typed DuplicateFound or nil.
func (g *Gateway) findDuplicate(ctx context.Context, in *CreateSuggestionInput) (*DuplicateFound, error) {
	switch in.Kind {
	case KindDish:
		id, found, err := g.catalog.FindDishByName(ctx, *in.RestaurantID, in.NameNormalized)
		if err != nil {
			return nil, fmt.Errorf("dedupe dish against catalog: %w", err)
		}
		if found {
			return &DuplicateFound{Kind: KindDish, ExistingID: id, Existing: "entity"}, nil
		}
	case KindRestaurant:
		if in.ExternalPlaceID != nil {
			id, found, err := g.catalog.FindRestaurantByPlaceID(ctx, *in.ExternalPlaceID)
			if err != nil {
				return nil, fmt.Errorf("dedupe restaurant by place id: %w", err)
			}
			if found {
				return &DuplicateFound{Kind: KindRestaurant, ExistingID: id, Existing: "entity"}, nil
			}
		}
		id, found, err := g.catalog.FindRestaurantByName(ctx, in.NameNormalized)
		if err != nil {
			return nil, fmt.Errorf("dedupe restaurant against catalog: %w", err)
		}
		if found {
			return &DuplicateFound{Kind: KindRestaurant, ExistingID: id, Existing: "entity"}, nil
		}
	}

	id, found, err := g.repo.FindLiveDuplicate(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("dedupe against suggestions: %w", err)
	}
	if found {
		return &DuplicateFound{Kind: in.Kind, ExistingID: id, Existing: "suggestion"}, nil
	}
	return nil, nil
}

func (g *Gateway) persist(ctx context.Context, in *CreateSuggestionInput) (*Suggestion, error) {
	created, err := g.repo.Create(ctx, in)
	if err != nil && store.IsTransient(err) {
		g.logger.Warnw("suggestion insert failed, retrying once", "error", err)
		select {
		case <-time.After(g.retryBackoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		created, err = g.repo.Create(ctx, in)
	}
	if err != nil {
		return nil, err
	}
	return created, nil
}
