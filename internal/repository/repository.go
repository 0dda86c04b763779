package repository

import (
	"context"
	"easyfitness/plan-service/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrUpdateFailed = RepositoryError("update failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
}

// PlanRepository defines the interface for interacting with workout plan data.
// SetCompletion and SetActive are deliberately targeted updates: callers only
// ever toggle a single exercise or flip the active flag, they never write back
// a whole completions map.
type PlanRepository interface {
	Create(ctx context.Context, plan *domain.WorkoutPlan) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutPlan, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.WorkoutPlan, error)
	SetCompletion(ctx context.Context, planID primitive.ObjectID, dayNumber, exerciseIndex int, completion domain.Completion) error
	SetActive(ctx context.Context, userID, planID primitive.ObjectID) error
	Update(ctx context.Context, plan *domain.WorkoutPlan) error
}

// CompletionLogRepository defines the interface for the append-only toggle
// audit trail backing the streak computation.
type CompletionLogRepository interface {
	Append(ctx context.Context, entry *domain.CompletionLog) (primitive.ObjectID, error)
	GetByPlanID(ctx context.Context, planID primitive.ObjectID) ([]domain.CompletionLog, error)
}
