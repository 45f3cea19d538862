package claim

import (
	"context"
	"errors"
	"time"
)

var (
	ErrClaimNotFound = errors.New("claim not found")

	// ErrDuplicateClaim surfaces the partial unique index on
	// (user_id, restaurant_id, status=pending).
	ErrDuplicateClaim = errors.New("a pending claim for this restaurant already exists")

	// ErrOwnershipConflict means another approved owner-role claim
	// already holds the restaurant. Never retried; the caller must
	// re-fetch state.
	ErrOwnershipConflict = errors.New("restaurant already has a verified owner")

	// ErrConflict means the claim left pending between the caller's
	// read and write.
	ErrConflict = errors.New("claim was already reviewed")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

type Role string

const (
	RoleOwner   Role = "owner"
	RoleManager Role = "manager"
	RoleStaff   Role = "staff"
)

type VerificationMethod string

const (
	VerifyByPhone    VerificationMethod = "phone"
	VerifyByEmail    VerificationMethod = "email"
	VerifyByDocument VerificationMethod = "document"
)

// Claim is a user's assertion that they represent a restaurant.
type Claim struct {
	ID                 int64              `json:"id"`
	RestaurantID       int64              `json:"restaurant_id"`
	UserID             int64              `json:"user_id"`
	BusinessRole       Role               `json:"business_role"`
	VerificationMethod VerificationMethod `json:"verification_method"`
	VerificationNotes  *string            `json:"verification_notes,omitempty"`
	Status             Status             `json:"status"`
	AdminNotes         *string            `json:"admin_notes,omitempty"`
	ReviewedAt         *time.Time         `json:"reviewed_at,omitempty"`
	ReviewedBy         *int64             `json:"reviewed_by,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
}

type CreateClaimInput struct {
	RestaurantID       int64
	UserID             int64
	BusinessRole       Role
	VerificationMethod VerificationMethod
	VerificationNotes  *string
}

// OwnershipStatus answers "who controls this restaurant" for one
// viewing user.
type OwnershipStatus struct {
	IsClaimed            bool `json:"is_claimed"`
	IsOwnedByCurrentUser bool `json:"is_owned_by_current_user"`
	CanManage            bool `json:"can_manage"`
}

type Filter struct {
	Status *Status
	Page   int
	Limit  int
}

type Store interface {
	Create(ctx context.Context, in *CreateClaimInput) (*Claim, error)
	GetByID(ctx context.Context, id int64) (*Claim, error)
	List(ctx context.Context, filter Filter) ([]Claim, error)
	ListByRestaurant(ctx context.Context, restaurantID int64) ([]Claim, error)

	Approve(ctx context.Context, id, adminID int64, notes *string) (*Claim, error)
	Reject(ctx context.Context, id, adminID int64, notes *string) (*Claim, error)
	Cancel(ctx context.Context, id, userID int64) (*Claim, error)

	GetOwnershipStatus(ctx context.Context, restaurantID, userID int64) (*OwnershipStatus, error)
}
