package service

import (
	"context"
	"easyfitness/plan-service/internal/domain"
	"easyfitness/plan-service/internal/progress"
	"easyfitness/plan-service/internal/repository"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrPlanNotFound       = errors.New("workout plan not found")
	ErrNotPlanOwner       = errors.New("workout plan does not belong to this user")
	ErrInvalidPlan        = errors.New("workout plan data is invalid")
	ErrInvalidExerciseRef = errors.New("day number or exercise index does not exist in this plan")
	ErrGenerationFailed   = errors.New("workout plan generation failed")
)

// PlanGenerator is the external AI generation service, seen from here as an
// opaque producer of plan data.
type PlanGenerator interface {
	Generate(ctx context.Context, userGoal, experienceLevel string, daysPerWeek int) (*domain.PlanData, error)
}

// GenerateParams carries the user's generation request.
type GenerateParams struct {
	UserGoal        string
	ExperienceLevel string
	DaysPerWeek     int
}

// DayProgress is the per-day slice of a progress summary.
type DayProgress struct {
	DayNumber int    `json:"day_number"`
	DayName   string `json:"day_name,omitempty"`
	Completed bool   `json:"completed"`
	Percent   int    `json:"percent"`
}

// ProgressSummary aggregates everything the plan page renders: overall and
// per-day percentages, the trailing weekly buckets and the activity streak.
// StreakAvailable is false when the completion log fetch failed; the rest of
// the summary is still served (a log failure must never blank the page).
type ProgressSummary struct {
	PlanID          string                `json:"plan_id"`
	PlanPercent     int                   `json:"plan_percent"`
	Days            []DayProgress         `json:"days"`
	Weekly          []progress.WeekBucket `json:"weekly"`
	Streak          int                   `json:"streak"`
	StreakAvailable bool                  `json:"streak_available"`
}

// PlanService is the boundary every other component goes through to reach the
// plan store. Progress is always derived from a snapshot this service
// returned, never from state mutated locally by a caller.
type PlanService interface {
	GetPlans(ctx context.Context, userID primitive.ObjectID) ([]domain.WorkoutPlan, error)
	GetPlanDetail(ctx context.Context, userID, planID primitive.ObjectID) (*domain.WorkoutPlan, error)
	GeneratePlan(ctx context.Context, userID primitive.ObjectID, params GenerateParams) (*domain.WorkoutPlan, error)
	ToggleExerciseCompletion(ctx context.Context, userID, planID primitive.ObjectID, dayNumber, exerciseIndex int, completed bool) (*domain.WorkoutPlan, error)
	SetPlanActive(ctx context.Context, userID, planID primitive.ObjectID) error
	GetCompletionLogs(ctx context.Context, userID, planID primitive.ObjectID) ([]domain.CompletionLog, error)
	GetProgressSummary(ctx context.Context, userID, planID primitive.ObjectID) (*ProgressSummary, error)
}

// --- Service Implementation ---

type planService struct {
	planRepo  repository.PlanRepository
	logRepo   repository.CompletionLogRepository
	generator PlanGenerator
	weeksBack int
	weekStart time.Weekday
	now       func() time.Time // injectable clock for deterministic tests
}

// NewPlanService creates a new instance of planService.
func NewPlanService(
	planRepo repository.PlanRepository,
	logRepo repository.CompletionLogRepository,
	generator PlanGenerator,
	weeksBack int,
	weekStart time.Weekday,
) PlanService {
	if weeksBack <= 0 {
		weeksBack = progress.DefaultWeeksBack
	}
	return &planService{
		planRepo:  planRepo,
		logRepo:   logRepo,
		generator: generator,
		weeksBack: weeksBack,
		weekStart: weekStart,
		now:       time.Now,
	}
}

// GetPlans returns all plans saved by the user, newest first.
func (s *planService) GetPlans(ctx context.Context, userID primitive.ObjectID) ([]domain.WorkoutPlan, error) {
	return s.planRepo.GetByUserID(ctx, userID)
}

// GetPlanDetail returns one plan, enforcing ownership.
func (s *planService) GetPlanDetail(ctx context.Context, userID, planID primitive.ObjectID) (*domain.WorkoutPlan, error) {
	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	if plan.UserID != userID {
		return nil, ErrNotPlanOwner
	}
	return plan, nil
}

// GeneratePlan calls the external generator, validates the returned structure
// and persists it as a new saved plan for the user.
func (s *planService) GeneratePlan(ctx context.Context, userID primitive.ObjectID, params GenerateParams) (*domain.WorkoutPlan, error) {
	planData, err := s.generator.Generate(ctx, params.UserGoal, params.ExperienceLevel, params.DaysPerWeek)
	if err != nil {
		log.Printf("ERROR: [PlanService] Generation failed for user %s: %v", userID.Hex(), err)
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	plan := &domain.WorkoutPlan{
		UserID:      userID,
		Name:        planData.PlanName,
		Description: planData.PlanDescription,
		PlanData:    *planData,
	}
	if plan.Name == "" {
		plan.Name = "Workout Plan"
	}
	if err := plan.Validate(); err != nil {
		// The generator handed us a structurally broken plan; refuse to save it.
		return nil, fmt.Errorf("%w: %v", ErrInvalidPlan, err)
	}

	planID, err := s.planRepo.Create(ctx, plan)
	if err != nil {
		return nil, err
	}
	plan.ID = planID
	return plan, nil
}

// ToggleExerciseCompletion records one exercise's completion state, appends an
// audit entry, and returns a freshly re-read snapshot. The snapshot is always
// re-fetched from the store so progress is never derived from a speculative
// local mutation.
func (s *planService) ToggleExerciseCompletion(ctx context.Context, userID, planID primitive.ObjectID, dayNumber, exerciseIndex int, completed bool) (*domain.WorkoutPlan, error) {
	plan, err := s.GetPlanDetail(ctx, userID, planID)
	if err != nil {
		return nil, err
	}

	day, ok := plan.DayByNumber(dayNumber)
	if !ok {
		return nil, ErrInvalidExerciseRef
	}
	if exerciseIndex < 0 || exerciseIndex >= len(day.Exercises) {
		return nil, ErrInvalidExerciseRef
	}

	now := s.now().UTC()
	completion := domain.Completion{Completed: completed}
	if completed {
		completion.CompletedAt = &now
	}
	// Un-toggling stores no timestamp: a previously counted week un-counts.

	if err := s.planRepo.SetCompletion(ctx, planID, dayNumber, exerciseIndex, completion); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}

	action := domain.ActionCompleted
	if !completed {
		action = domain.ActionUncompleted
	}
	entry := &domain.CompletionLog{
		PlanID:        planID,
		UserID:        userID,
		DayNumber:     dayNumber,
		ExerciseIndex: exerciseIndex,
		Action:        action,
		LoggedAt:      now,
	}
	if _, err := s.logRepo.Append(ctx, entry); err != nil {
		// The toggle itself succeeded; a lost audit entry degrades the streak,
		// it does not fail the operation.
		log.Printf("WARN: [PlanService] Failed to append completion log for plan %s: %v", planID.Hex(), err)
	}

	fresh, err := s.GetPlanDetail(ctx, userID, planID)
	if err != nil {
		return nil, err
	}

	// Keep the stored IsCompleted flag in step with derived progress; a toggle
	// can push the plan to 100% or pull a finished plan back under it.
	if done := progress.PlanCompleted(fresh); done != fresh.IsCompleted {
		fresh.IsCompleted = done
		if err := s.planRepo.Update(ctx, fresh); err != nil {
			log.Printf("WARN: [PlanService] Failed to update completion flag for plan %s: %v", planID.Hex(), err)
		}
	}

	return fresh, nil
}

// SetPlanActive makes the plan the user's single active plan.
func (s *planService) SetPlanActive(ctx context.Context, userID, planID primitive.ObjectID) error {
	// Ownership check first, so an attempt on someone else's plan is a 403
	// and not a silent no-op inside SetActive's filter.
	if _, err := s.GetPlanDetail(ctx, userID, planID); err != nil {
		return err
	}
	if err := s.planRepo.SetActive(ctx, userID, planID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPlanNotFound
		}
		return err
	}
	return nil
}

// GetCompletionLogs returns the plan's toggle audit trail, oldest first.
func (s *planService) GetCompletionLogs(ctx context.Context, userID, planID primitive.ObjectID) ([]domain.CompletionLog, error) {
	if _, err := s.GetPlanDetail(ctx, userID, planID); err != nil {
		return nil, err
	}
	return s.logRepo.GetByPlanID(ctx, planID)
}

// GetProgressSummary derives the full progress view from a fresh snapshot.
// A completion log failure degrades the streak to 0 and flags it unavailable;
// everything else in the summary is still computed and returned.
func (s *planService) GetProgressSummary(ctx context.Context, userID, planID primitive.ObjectID) (*ProgressSummary, error) {
	plan, err := s.GetPlanDetail(ctx, userID, planID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	summary := &ProgressSummary{
		PlanID:          plan.ID.Hex(),
		PlanPercent:     progress.PlanPercent(plan),
		Days:            make([]DayProgress, 0, len(plan.PlanData.Days)),
		Weekly:          progress.Weekly(plan, s.weeksBack, s.weekStart, now),
		StreakAvailable: true,
	}
	for _, day := range plan.PlanData.Days {
		summary.Days = append(summary.Days, DayProgress{
			DayNumber: day.DayNumber,
			DayName:   day.DayName,
			Completed: progress.DayCompleted(plan, day),
			Percent:   progress.DayPercent(plan, day),
		})
	}

	logs, err := s.logRepo.GetByPlanID(ctx, planID)
	if err != nil {
		log.Printf("WARN: [PlanService] Failed to fetch completion logs for plan %s: %v", planID.Hex(), err)
		summary.StreakAvailable = false
		return summary, nil
	}
	summary.Streak = progress.Streak(logs, now)

	return summary, nil
}
