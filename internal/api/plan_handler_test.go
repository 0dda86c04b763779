package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"easyfitness/plan-service/internal/domain"
	"easyfitness/plan-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// stubPlanService records the last call and returns canned results.
type stubPlanService struct {
	plan    *domain.WorkoutPlan
	summary *service.ProgressSummary
	err     error

	toggledDay       int
	toggledIndex     int
	toggledCompleted bool
}

func (s *stubPlanService) GetPlans(_ context.Context, _ primitive.ObjectID) ([]domain.WorkoutPlan, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.plan == nil {
		return nil, nil
	}
	return []domain.WorkoutPlan{*s.plan}, nil
}

func (s *stubPlanService) GetPlanDetail(_ context.Context, _, _ primitive.ObjectID) (*domain.WorkoutPlan, error) {
	return s.plan, s.err
}

func (s *stubPlanService) GeneratePlan(_ context.Context, _ primitive.ObjectID, _ service.GenerateParams) (*domain.WorkoutPlan, error) {
	return s.plan, s.err
}

func (s *stubPlanService) ToggleExerciseCompletion(_ context.Context, _, _ primitive.ObjectID, dayNumber, exerciseIndex int, completed bool) (*domain.WorkoutPlan, error) {
	s.toggledDay = dayNumber
	s.toggledIndex = exerciseIndex
	s.toggledCompleted = completed
	return s.plan, s.err
}

func (s *stubPlanService) SetPlanActive(_ context.Context, _, _ primitive.ObjectID) error {
	return s.err
}

func (s *stubPlanService) GetCompletionLogs(_ context.Context, _, _ primitive.ObjectID) ([]domain.CompletionLog, error) {
	return nil, s.err
}

func (s *stubPlanService) GetProgressSummary(_ context.Context, _, _ primitive.ObjectID) (*service.ProgressSummary, error) {
	return s.summary, s.err
}

func newTestRouter(svc service.PlanService, userID primitive.ObjectID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(ContextUserIDKey, userID.Hex())
	})

	handler := NewPlanHandler(svc)
	plans := router.Group("/api/v1/workout-plans")
	{
		plans.GET("", handler.GetPlans)
		plans.GET("/:id", handler.GetPlanDetail)
		plans.PATCH("/:id/completions", handler.ToggleCompletion)
		plans.PATCH("/:id/activate", handler.ActivatePlan)
		plans.GET("/:id/progress", handler.GetProgress)
	}
	return router
}

func testPlan(userID primitive.ObjectID) *domain.WorkoutPlan {
	return &domain.WorkoutPlan{
		ID:     primitive.NewObjectID(),
		UserID: userID,
		Name:   "Strength Block",
		PlanData: domain.PlanData{
			PlanName: "Strength Block",
			Days: []domain.WorkoutDay{
				{DayNumber: 1, DayName: "Push", Exercises: []domain.Exercise{
					{ExerciseName: "Bench Press", Sets: 3, Reps: "8-12"},
				}},
			},
		},
	}
}

func TestGetPlanDetail_SerializesCompletionsAsObject(t *testing.T) {
	userID := primitive.NewObjectID()
	plan := testPlan(userID) // nil Completions map
	router := newTestRouter(&stubPlanService{plan: plan}, userID)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/workout-plans/"+plan.ID.Hex(), nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	var planData map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body["workout_plan_data"], &planData))
	assert.JSONEq(t, `{}`, string(planData["exercise_completions"]), "a plan with no completions serializes an empty object, not null")
}

func TestToggleCompletion_PassesZeroValuesThrough(t *testing.T) {
	userID := primitive.NewObjectID()
	plan := testPlan(userID)
	stub := &stubPlanService{plan: plan}
	router := newTestRouter(stub, userID)

	// exercise_index 0 and completed false are both valid payload values and
	// must survive required-field binding.
	payload := `{"day_number": 1, "exercise_index": 0, "completed": false}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/workout-plans/"+plan.ID.Hex()+"/completions", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, stub.toggledDay)
	assert.Equal(t, 0, stub.toggledIndex)
	assert.False(t, stub.toggledCompleted)
}

func TestToggleCompletion_RejectsMissingFields(t *testing.T) {
	userID := primitive.NewObjectID()
	plan := testPlan(userID)
	router := newTestRouter(&stubPlanService{plan: plan}, userID)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/workout-plans/"+plan.ID.Hex()+"/completions", strings.NewReader(`{"day_number": 1}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPlanHandler_ErrorMapping(t *testing.T) {
	userID := primitive.NewObjectID()
	planID := primitive.NewObjectID()

	cases := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"not found", service.ErrPlanNotFound, http.StatusNotFound},
		{"not owner", service.ErrNotPlanOwner, http.StatusForbidden},
		{"bad reference", service.ErrInvalidExerciseRef, http.StatusBadRequest},
		{"generation down", service.ErrGenerationFailed, http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestRouter(&stubPlanService{err: tc.err}, userID)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/workout-plans/"+planID.Hex(), nil)
			router.ServeHTTP(w, req)

			assert.Equal(t, tc.wantCode, w.Code)
		})
	}
}

func TestActivatePlan(t *testing.T) {
	userID := primitive.NewObjectID()
	planID := primitive.NewObjectID()
	router := newTestRouter(&stubPlanService{}, userID)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/workout-plans/"+planID.Hex()+"/activate", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetProgress(t *testing.T) {
	userID := primitive.NewObjectID()
	planID := primitive.NewObjectID()
	stub := &stubPlanService{summary: &service.ProgressSummary{
		PlanID:          planID.Hex(),
		PlanPercent:     50,
		StreakAvailable: true,
		Streak:          3,
	}}
	router := newTestRouter(stub, userID)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/workout-plans/"+planID.Hex()+"/progress", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var summary service.ProgressSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 50, summary.PlanPercent)
	assert.Equal(t, 3, summary.Streak)
	assert.True(t, summary.StreakAvailable)
}

func TestRequestWithoutIdentityIsUnauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewPlanHandler(&stubPlanService{})
	router.GET("/api/v1/workout-plans", handler.GetPlans)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/workout-plans", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
