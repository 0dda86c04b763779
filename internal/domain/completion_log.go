// internal/domain/completion_log.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CompletionAction distinguishes marking an exercise done from un-marking it.
type CompletionAction string

const (
	ActionCompleted   CompletionAction = "completed"
	ActionUncompleted CompletionAction = "uncompleted"
)

// CompletionLog is an append-only audit entry written every time an exercise
// completion is toggled. It is the input to the streak computation and is
// never consulted to answer "is this exercise done now" (that is the plan's
// Completions map).
type CompletionLog struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PlanID        primitive.ObjectID `bson:"planId" json:"plan_id"`
	UserID        primitive.ObjectID `bson:"userId" json:"user_id"`
	DayNumber     int                `bson:"dayNumber" json:"day_number"`
	ExerciseIndex int                `bson:"exerciseIndex" json:"exercise_index"`
	Action        CompletionAction   `bson:"action" json:"action"`
	LoggedAt      time.Time          `bson:"loggedAt" json:"logged_at"`
}
