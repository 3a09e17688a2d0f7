package repository

import (
	"context"
	"time"

	"alcyxob/workout-planner/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer.
var (
	ErrNotFound     = RepositoryError("not found")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
	// ErrNoAccount marks account-scoped calls made with no account id.
	// This is a programming-contract violation: callers must gate remote
	// operations on identity presence.
	ErrNoAccount = RepositoryError("account id required for remote operation")
)

// RepositoryError helps distinguish repository errors.
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// SnapshotRepository stores the single "current plan" document per
// account. The updated-at marker is assigned by the store's own clock at
// write time, so multi-device clients agree on ordering despite clock
// skew. Network and permission errors propagate unretried; retry/backoff
// is the sync reconciler's concern.
type SnapshotRepository interface {
	// Load returns the snapshot and its store-assigned update time, or
	// ErrNotFound when the account has no snapshot yet.
	Load(ctx context.Context, accountID string) (*domain.PlanState, time.Time, error)
	// Save merge-writes the snapshot, stripping unset fields first.
	Save(ctx context.Context, accountID string, state domain.PlanState) error
	// Delete removes the snapshot entirely ("reset everywhere").
	Delete(ctx context.Context, accountID string) error
}

// GoalRepository manages the per-account goal documents.
type GoalRepository interface {
	Create(ctx context.Context, goal *domain.Goal) (primitive.ObjectID, error)
	GetByID(ctx context.Context, accountID string, id primitive.ObjectID) (*domain.Goal, error)
	// GetActive returns the most recently created active goal, or
	// ErrNotFound when the account has none.
	GetActive(ctx context.Context, accountID string) (*domain.Goal, error)
	List(ctx context.Context, accountID string) ([]domain.Goal, error)
	Update(ctx context.Context, accountID string, goal *domain.Goal) error
	// UpdateProgress merge-writes only the progress/ETA fields.
	UpdateProgress(ctx context.Context, accountID string, id primitive.ObjectID, progress float64, eta string) error
	// SetActive promotes one goal and demotes all other active goals of
	// the account in a single batched write, so there is never a window
	// with zero or two active goals.
	SetActive(ctx context.Context, accountID string, id primitive.ObjectID) error
	Delete(ctx context.Context, accountID string, id primitive.ObjectID) error
}

// UserRepository stores the accounts used to scope remote data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
}
