package repository

import (
	"alcyxob/coaching-platform/internal/domain"
	"context"
)

// Error constants for repository layer
var (
	ErrNotFound = RepositoryError("not found")
	ErrConflict = RepositoryError("conflict")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (string, error) // ErrConflict on duplicate email
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// PlanRepository owns the workout plan aggregate: the plan root and every
// week, day and workout beneath it.
type PlanRepository interface {
	// GetOrCreate returns the plan for (userID, planType), inserting it if absent.
	// Must be a single atomic upsert so concurrent callers never create two plans.
	GetOrCreate(ctx context.Context, userID string, planType domain.PlanType) (*domain.WorkoutPlan, error)
	FindByUserAndType(ctx context.Context, userID string, planType domain.PlanType) (*domain.WorkoutPlan, error)
	GetByID(ctx context.Context, id string) (*domain.WorkoutPlan, error)
	// FindTree returns the plan with Weeks filled in, ordered by number/sequence.
	// Root and descendants come from one consistent snapshot, so a concurrent
	// DeleteCascade yields either the whole tree or ErrNotFound.
	FindTree(ctx context.Context, userID string, planType domain.PlanType) (*domain.WorkoutPlan, error)

	AddWeek(ctx context.Context, week *domain.PlanWeek) error // ErrConflict on duplicate number
	GetWeek(ctx context.Context, id string) (*domain.PlanWeek, error)
	CountWeeks(ctx context.Context, planID string) (int, error)

	AddDay(ctx context.Context, day *domain.PlanDay) error // ErrConflict on duplicate number
	GetDay(ctx context.Context, id string) (*domain.PlanDay, error)

	AddWorkout(ctx context.Context, workout *domain.Workout) error
	GetWorkout(ctx context.Context, id string) (*domain.Workout, error)
	// SetPendingVideoKey records an upload target. The confirmed VideoKey is
	// left as is.
	SetPendingVideoKey(ctx context.Context, workoutID, videoKey string) error
	// PromotePendingVideo moves videoKey into VideoKey if it is still the
	// pending key. It reports false when the pending key changed meanwhile.
	PromotePendingVideo(ctx context.Context, workoutID, videoKey string) (bool, error)

	// DeleteCascade removes the plan owned by userID and all of its descendants
	// as one atomic unit. Returns ErrNotFound if no such plan exists (anymore).
	DeleteCascade(ctx context.Context, planID, userID string) (*domain.PlanDeletion, error)
}

// DefaultsRepository stores per-language defaults blobs.
type DefaultsRepository interface {
	Get(ctx context.Context, kind domain.DefaultsKind, language string) (*domain.Defaults, error)
	// Upsert creates or overwrites the blob for (kind, language). Last writer wins.
	Upsert(ctx context.Context, defaults *domain.Defaults) error
}
