package suggestion

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrSuggestionNotFound = errors.New("suggestion not found")

	// ErrConflict means the caller lost a transition race: the
	// suggestion left pending between their read and their write.
	// Re-fetch current state; retrying the same call cannot win.
	ErrConflict = errors.New("suggestion was already reviewed")
)

type Kind string

const (
	KindDish       Kind = "dish"
	KindRestaurant Kind = "restaurant"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusDuplicate Status = "duplicate"
	StatusCancelled Status = "cancelled"
)

// Suggestion is a community-submitted candidate dish or restaurant.
// The submitter owns it until review; moderation owns it after.
type Suggestion struct {
	ID          int64  `json:"id"`
	RefCode     string `json:"ref_code"`
	Kind        Kind   `json:"kind"`
	SubmitterID int64  `json:"submitter_id"`

	Name            string  `json:"name"`
	RestaurantID    *int64  `json:"restaurant_id,omitempty"` // parent, dish kind only
	Category        *string `json:"category,omitempty"`
	Address         *string `json:"address,omitempty"`
	Price           *string `json:"price,omitempty"`
	Notes           *string `json:"notes,omitempty"`
	ExternalPlaceID *string `json:"external_place_id,omitempty"`

	Status           Status     `json:"status"`
	AdminNotes       *string    `json:"admin_notes,omitempty"`
	PromotedEntityID *int64     `json:"promoted_entity_id,omitempty"`
	ReviewedAt       *time.Time `json:"reviewed_at,omitempty"`
	ReviewedBy       *int64     `json:"reviewed_by,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// CreateSuggestionInput is what the gateway passes to the repository
// after validation, quota and dedupe have all passed.
type CreateSuggestionInput struct {
	Kind        Kind
	SubmitterID int64
	RefCode     string

	Name            string
	NameNormalized  string
	RestaurantID    *int64
	Category        *string
	Address         *string
	Price           *string
	Notes           *string
	ExternalPlaceID *string
}

type Filter struct {
	Kind   *Kind
	Status *Status
	Page   int
	Limit  int
}

// Decision is the admin's verdict on a pending suggestion. Each
// variant carries exactly the data its transition needs, so a
// mark-duplicate without an existing entity id cannot be expressed.
type Decision interface {
	status() Status
}

type ApproveDecision struct {
	Notes *string
}

type RejectDecision struct {
	Notes *string
}

type MarkDuplicateDecision struct {
	ExistingEntityID int64
	Notes            *string
}

func (ApproveDecision) status() Status       { return StatusApproved }
func (RejectDecision) status() Status        { return StatusRejected }
func (MarkDuplicateDecision) status() Status { return StatusDuplicate }

// ValidationError names the first field that failed per-kind checks.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid submission: %s", e.Field)
}

// RateLimitExceeded carries the numbers the client needs to explain
// the denial. Deterministic; never retried.
type RateLimitExceeded struct {
	LimitPerDay int
	CountToday  int
}

func (e *RateLimitExceeded) Error() string {
	return fmt.Sprintf("daily submission limit reached (%d/%d)", e.CountToday, e.LimitPerDay)
}

// DuplicateFound points at the entity or suggestion the candidate
// collides with.
type DuplicateFound struct {
	Kind       Kind
	ExistingID int64
	// Existing tells whether the match was a canonical entity or a
	// live suggestion.
	Existing string // "entity" or "suggestion"
}

func (e *DuplicateFound) Error() string {
	return fmt.Sprintf("duplicate %s: matches existing %s %d", e.Kind, e.Existing, e.ExistingID)
}

// InvalidTransitionError reports an attempted move out of a terminal
// state.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition %s -> %s", e.From, e.To)
}

type Store interface {
	Create(ctx context.Context, in *CreateSuggestionInput) (*Suggestion, error)
	GetByID(ctx context.Context, id int64) (*Suggestion, error)
	List(ctx context.Context, filter Filter) ([]Suggestion, error)
	ListPending(ctx context.Context, kind Kind) ([]Suggestion, error)
	ListBySubmitter(ctx context.Context, userID int64) ([]Suggestion, error)
	FindLiveDuplicate(ctx context.Context, in *CreateSuggestionInput) (int64, bool, error)

	Decide(ctx context.Context, id, adminID int64, decision Decision) (*Suggestion, error)
	Cancel(ctx context.Context, id, submitterID int64) (*Suggestion, error)
}
