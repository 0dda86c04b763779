package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"easyfitness/plan-service/internal/domain"
	"easyfitness/plan-service/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var testNow = time.Date(2025, 6, 11, 12, 0, 0, 0, time.UTC)

// --- In-memory fakes ---

type fakePlanRepo struct {
	plans map[primitive.ObjectID]*domain.WorkoutPlan
}

func newFakePlanRepo() *fakePlanRepo {
	return &fakePlanRepo{plans: make(map[primitive.ObjectID]*domain.WorkoutPlan)}
}

func (r *fakePlanRepo) Create(_ context.Context, plan *domain.WorkoutPlan) (primitive.ObjectID, error) {
	plan.ID = primitive.NewObjectID()
	plan.CreatedAt = time.Now().UTC()
	stored := *plan
	r.plans[plan.ID] = &stored
	return plan.ID, nil
}

func (r *fakePlanRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.WorkoutPlan, error) {
	plan, ok := r.plans[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *plan
	return &copied, nil
}

func (r *fakePlanRepo) GetByUserID(_ context.Context, userID primitive.ObjectID) ([]domain.WorkoutPlan, error) {
	var result []domain.WorkoutPlan
	for _, plan := range r.plans {
		if plan.UserID == userID {
			result = append(result, *plan)
		}
	}
	return result, nil
}

func (r *fakePlanRepo) SetCompletion(_ context.Context, planID primitive.ObjectID, dayNumber, exerciseIndex int, completion domain.Completion) error {
	plan, ok := r.plans[planID]
	if !ok {
		return repository.ErrNotFound
	}
	plan.Completions.Set(dayNumber, exerciseIndex, completion)
	return nil
}

func (r *fakePlanRepo) SetActive(_ context.Context, userID, planID primitive.ObjectID) error {
	if _, ok := r.plans[planID]; !ok {
		return repository.ErrNotFound
	}
	for _, plan := range r.plans {
		if plan.UserID == userID {
			plan.IsActive = plan.ID == planID
		}
	}
	return nil
}

func (r *fakePlanRepo) Update(_ context.Context, plan *domain.WorkoutPlan) error {
	if _, ok := r.plans[plan.ID]; !ok {
		return repository.ErrNotFound
	}
	stored := *plan
	r.plans[plan.ID] = &stored
	return nil
}

type fakeLogRepo struct {
	entries []domain.CompletionLog
	failGet bool
}

func (r *fakeLogRepo) Append(_ context.Context, entry *domain.CompletionLog) (primitive.ObjectID, error) {
	entry.ID = primitive.NewObjectID()
	r.entries = append(r.entries, *entry)
	return entry.ID, nil
}

func (r *fakeLogRepo) GetByPlanID(_ context.Context, planID primitive.ObjectID) ([]domain.CompletionLog, error) {
	if r.failGet {
		return nil, errors.New("log store unavailable")
	}
	var result []domain.CompletionLog
	for _, entry := range r.entries {
		if entry.PlanID == planID {
			result = append(result, entry)
		}
	}
	return result, nil
}

type fakeGenerator struct {
	planData *domain.PlanData
	err      error
}

func (g *fakeGenerator) Generate(_ context.Context, _, _ string, _ int) (*domain.PlanData, error) {
	return g.planData, g.err
}

// --- Helpers ---

func newServiceUnderTest(planRepo *fakePlanRepo, logRepo *fakeLogRepo, gen *fakeGenerator) *planService {
	svc := NewPlanService(planRepo, logRepo, gen, 8, time.Sunday).(*planService)
	svc.now = func() time.Time { return testNow }
	return svc
}

func seedPlan(t *testing.T, repo *fakePlanRepo, userID primitive.ObjectID) *domain.WorkoutPlan {
	t.Helper()
	plan := &domain.WorkoutPlan{
		UserID: userID,
		Name:   "Strength Block",
		PlanData: domain.PlanData{
			PlanName: "Strength Block",
			Days: []domain.WorkoutDay{
				{DayNumber: 1, DayName: "Push", Exercises: []domain.Exercise{
					{ExerciseName: "Bench Press", Sets: 3, Reps: "8-12"},
					{ExerciseName: "Overhead Press", Sets: 3, Reps: "8-12"},
				}},
				{DayNumber: 2, DayName: "Pull", Exercises: []domain.Exercise{
					{ExerciseName: "Row", Sets: 3, Reps: "8-12"},
				}},
			},
		},
	}
	_, err := repo.Create(context.Background(), plan)
	require.NoError(t, err)
	return plan
}

// --- Tests ---

func TestGetPlanDetail_Errors(t *testing.T) {
	planRepo := newFakePlanRepo()
	svc := newServiceUnderTest(planRepo, &fakeLogRepo{}, &fakeGenerator{})

	owner := primitive.NewObjectID()
	stranger := primitive.NewObjectID()
	plan := seedPlan(t, planRepo, owner)

	_, err := svc.GetPlanDetail(context.Background(), owner, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrPlanNotFound)

	_, err = svc.GetPlanDetail(context.Background(), stranger, plan.ID)
	assert.ErrorIs(t, err, ErrNotPlanOwner)

	got, err := svc.GetPlanDetail(context.Background(), owner, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, plan.ID, got.ID)
}

func TestToggleExerciseCompletion_ReturnsFreshSnapshot(t *testing.T) {
	planRepo := newFakePlanRepo()
	logRepo := &fakeLogRepo{}
	svc := newServiceUnderTest(planRepo, logRepo, &fakeGenerator{})

	owner := primitive.NewObjectID()
	plan := seedPlan(t, planRepo, owner)

	snapshot, err := svc.ToggleExerciseCompletion(context.Background(), owner, plan.ID, 1, 0, true)
	require.NoError(t, err)

	completion, ok := snapshot.Completions.Get(1, 0)
	require.True(t, ok)
	assert.True(t, completion.Completed)
	require.NotNil(t, completion.CompletedAt)
	assert.True(t, completion.CompletedAt.Equal(testNow))

	// The audit trail recorded the toggle.
	require.Len(t, logRepo.entries, 1)
	assert.Equal(t, domain.ActionCompleted, logRepo.entries[0].Action)
	assert.Equal(t, 1, logRepo.entries[0].DayNumber)
	assert.Equal(t, 0, logRepo.entries[0].ExerciseIndex)
}

func TestToggleExerciseCompletion_UntoggleClearsTimestamp(t *testing.T) {
	planRepo := newFakePlanRepo()
	logRepo := &fakeLogRepo{}
	svc := newServiceUnderTest(planRepo, logRepo, &fakeGenerator{})

	owner := primitive.NewObjectID()
	plan := seedPlan(t, planRepo, owner)

	_, err := svc.ToggleExerciseCompletion(context.Background(), owner, plan.ID, 1, 0, true)
	require.NoError(t, err)

	snapshot, err := svc.ToggleExerciseCompletion(context.Background(), owner, plan.ID, 1, 0, false)
	require.NoError(t, err)

	completion, ok := snapshot.Completions.Get(1, 0)
	require.True(t, ok)
	assert.False(t, completion.Completed)
	assert.Nil(t, completion.CompletedAt, "un-toggling clears the stale timestamp")

	require.Len(t, logRepo.entries, 2)
	assert.Equal(t, domain.ActionUncompleted, logRepo.entries[1].Action)
}

func TestToggleExerciseCompletion_SyncsCompletedFlag(t *testing.T) {
	planRepo := newFakePlanRepo()
	svc := newServiceUnderTest(planRepo, &fakeLogRepo{}, &fakeGenerator{})

	owner := primitive.NewObjectID()
	plan := seedPlan(t, planRepo, owner)

	// Complete every exercise of the 2-day plan.
	_, err := svc.ToggleExerciseCompletion(context.Background(), owner, plan.ID, 1, 0, true)
	require.NoError(t, err)
	_, err = svc.ToggleExerciseCompletion(context.Background(), owner, plan.ID, 1, 1, true)
	require.NoError(t, err)
	snapshot, err := svc.ToggleExerciseCompletion(context.Background(), owner, plan.ID, 2, 0, true)
	require.NoError(t, err)
	assert.True(t, snapshot.IsCompleted, "reaching 100% marks the plan completed")

	snapshot, err = svc.ToggleExerciseCompletion(context.Background(), owner, plan.ID, 2, 0, false)
	require.NoError(t, err)
	assert.False(t, snapshot.IsCompleted, "dropping under 100% clears the flag")
}

func TestToggleExerciseCompletion_InvalidReference(t *testing.T) {
	planRepo := newFakePlanRepo()
	svc := newServiceUnderTest(planRepo, &fakeLogRepo{}, &fakeGenerator{})

	owner := primitive.NewObjectID()
	plan := seedPlan(t, planRepo, owner)

	_, err := svc.ToggleExerciseCompletion(context.Background(), owner, plan.ID, 99, 0, true)
	assert.ErrorIs(t, err, ErrInvalidExerciseRef)

	_, err = svc.ToggleExerciseCompletion(context.Background(), owner, plan.ID, 1, 5, true)
	assert.ErrorIs(t, err, ErrInvalidExerciseRef)

	_, err = svc.ToggleExerciseCompletion(context.Background(), owner, plan.ID, 1, -1, true)
	assert.ErrorIs(t, err, ErrInvalidExerciseRef)
}

func TestSetPlanActive_SingleActiveInvariant(t *testing.T) {
	planRepo := newFakePlanRepo()
	svc := newServiceUnderTest(planRepo, &fakeLogRepo{}, &fakeGenerator{})

	owner := primitive.NewObjectID()
	first := seedPlan(t, planRepo, owner)
	second := seedPlan(t, planRepo, owner)

	require.NoError(t, svc.SetPlanActive(context.Background(), owner, first.ID))
	require.NoError(t, svc.SetPlanActive(context.Background(), owner, second.ID))

	firstStored, err := svc.GetPlanDetail(context.Background(), owner, first.ID)
	require.NoError(t, err)
	secondStored, err := svc.GetPlanDetail(context.Background(), owner, second.ID)
	require.NoError(t, err)

	assert.False(t, firstStored.IsActive)
	assert.True(t, secondStored.IsActive)
}

func TestSetPlanActive_OwnershipEnforced(t *testing.T) {
	planRepo := newFakePlanRepo()
	svc := newServiceUnderTest(planRepo, &fakeLogRepo{}, &fakeGenerator{})

	owner := primitive.NewObjectID()
	plan := seedPlan(t, planRepo, owner)

	err := svc.SetPlanActive(context.Background(), primitive.NewObjectID(), plan.ID)
	assert.ErrorIs(t, err, ErrNotPlanOwner)
}

func TestGetProgressSummary(t *testing.T) {
	planRepo := newFakePlanRepo()
	logRepo := &fakeLogRepo{}
	svc := newServiceUnderTest(planRepo, logRepo, &fakeGenerator{})

	owner := primitive.NewObjectID()
	plan := seedPlan(t, planRepo, owner)

	// Complete day 1 (both exercises); day 2 untouched.
	_, err := svc.ToggleExerciseCompletion(context.Background(), owner, plan.ID, 1, 0, true)
	require.NoError(t, err)
	_, err = svc.ToggleExerciseCompletion(context.Background(), owner, plan.ID, 1, 1, true)
	require.NoError(t, err)

	summary, err := svc.GetProgressSummary(context.Background(), owner, plan.ID)
	require.NoError(t, err)

	assert.Equal(t, 50, summary.PlanPercent)
	require.Len(t, summary.Days, 2)
	assert.True(t, summary.Days[0].Completed)
	assert.Equal(t, 100, summary.Days[0].Percent)
	assert.False(t, summary.Days[1].Completed)
	assert.Equal(t, 0, summary.Days[1].Percent)

	require.Len(t, summary.Weekly, 8)
	assert.Equal(t, 1, summary.Weekly[7].CompletedDays)
	assert.Equal(t, 2, summary.Weekly[7].TotalDays)

	assert.True(t, summary.StreakAvailable)
	assert.Equal(t, 1, summary.Streak)
}

func TestGetProgressSummary_LogFailureDegradesGracefully(t *testing.T) {
	planRepo := newFakePlanRepo()
	logRepo := &fakeLogRepo{failGet: true}
	svc := newServiceUnderTest(planRepo, logRepo, &fakeGenerator{})

	owner := primitive.NewObjectID()
	plan := seedPlan(t, planRepo, owner)

	summary, err := svc.GetProgressSummary(context.Background(), owner, plan.ID)
	require.NoError(t, err, "a log fetch failure must not fail the summary")

	assert.False(t, summary.StreakAvailable)
	assert.Equal(t, 0, summary.Streak)
	assert.Len(t, summary.Weekly, 8, "weekly buckets are still computed")
}

func TestGeneratePlan(t *testing.T) {
	planRepo := newFakePlanRepo()
	gen := &fakeGenerator{
		planData: &domain.PlanData{
			PlanName:        "AI Split",
			PlanDescription: "Three day split",
			Days: []domain.WorkoutDay{
				{DayNumber: 1, Exercises: []domain.Exercise{{ExerciseName: "Squat", Sets: 5, Reps: "5"}}},
			},
		},
	}
	svc := newServiceUnderTest(planRepo, &fakeLogRepo{}, gen)

	owner := primitive.NewObjectID()
	plan, err := svc.GeneratePlan(context.Background(), owner, GenerateParams{
		UserGoal:        "strength",
		ExperienceLevel: "intermediate",
		DaysPerWeek:     3,
	})
	require.NoError(t, err)
	assert.Equal(t, "AI Split", plan.Name)
	assert.NotEqual(t, primitive.NilObjectID, plan.ID)

	stored, err := svc.GetPlanDetail(context.Background(), owner, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, owner, stored.UserID)
}

func TestGeneratePlan_GeneratorFailure(t *testing.T) {
	svc := newServiceUnderTest(newFakePlanRepo(), &fakeLogRepo{}, &fakeGenerator{err: errors.New("model overloaded")})

	_, err := svc.GeneratePlan(context.Background(), primitive.NewObjectID(), GenerateParams{})
	assert.ErrorIs(t, err, ErrGenerationFailed)
}

func TestGeneratePlan_RejectsInvalidStructure(t *testing.T) {
	gen := &fakeGenerator{
		planData: &domain.PlanData{
			PlanName: "Broken",
			Days: []domain.WorkoutDay{
				{DayNumber: 1, Exercises: []domain.Exercise{}},
				{DayNumber: 1, Exercises: []domain.Exercise{}}, // duplicate day number
			},
		},
	}
	svc := newServiceUnderTest(newFakePlanRepo(), &fakeLogRepo{}, gen)

	_, err := svc.GeneratePlan(context.Background(), primitive.NewObjectID(), GenerateParams{})
	assert.ErrorIs(t, err, ErrInvalidPlan)
}
