// internal/api/plan_handler.go
package api

import (
	"easyfitness/plan-service/internal/domain"
	"easyfitness/plan-service/internal/service"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PlanHandler struct {
	planService service.PlanService
}

func NewPlanHandler(planService service.PlanService) *PlanHandler {
	return &PlanHandler{
		planService: planService,
	}
}

// --- DTOs ---

// WorkoutPlanDataResponse nests the generated structure and the sparse
// completion map the way the frontend consumes them.
type WorkoutPlanDataResponse struct {
	Data                domain.PlanData    `json:"data"`
	ExerciseCompletions domain.Completions `json:"exercise_completions"`
}

// WorkoutPlanResponse is the wire shape of a plan.
type WorkoutPlanResponse struct {
	ID              string                  `json:"id"`
	User            string                  `json:"user"`
	Name            string                  `json:"name"`
	Description     string                  `json:"description,omitempty"`
	IsActive        bool                    `json:"is_active"`
	IsCompleted     bool                    `json:"is_completed"`
	WorkoutPlanData WorkoutPlanDataResponse `json:"workout_plan_data"`
	CreatedAt       time.Time               `json:"created_at"`
}

// GeneratePlanRequest is the payload of a generation call.
type GeneratePlanRequest struct {
	UserGoal        string `json:"user_goal" binding:"required"`
	ExperienceLevel string `json:"experience_level" binding:"required,oneof=beginner intermediate advanced"`
	DaysPerWeek     int    `json:"days_per_week" binding:"required,min=1,max=7"`
}

// ToggleCompletionRequest toggles one exercise. ExerciseIndex and Completed
// are pointers so the zero values (index 0, false) survive required binding.
type ToggleCompletionRequest struct {
	DayNumber     int   `json:"day_number" binding:"required,gt=0"`
	ExerciseIndex *int  `json:"exercise_index" binding:"required,gte=0"`
	Completed     *bool `json:"completed" binding:"required"`
}

// MapPlanToResponse converts a domain plan to its wire shape.
func MapPlanToResponse(plan *domain.WorkoutPlan) WorkoutPlanResponse {
	completions := plan.Completions
	if completions == nil {
		completions = domain.Completions{} // serialize as {} rather than null
	}
	return WorkoutPlanResponse{
		ID:          plan.ID.Hex(),
		User:        plan.UserID.Hex(),
		Name:        plan.Name,
		Description: plan.Description,
		IsActive:    plan.IsActive,
		IsCompleted: plan.IsCompleted,
		WorkoutPlanData: WorkoutPlanDataResponse{
			Data:                plan.PlanData,
			ExerciseCompletions: completions,
		},
		CreatedAt: plan.CreatedAt,
	}
}

// MapPlansToResponse converts a slice of domain plans to wire shapes.
func MapPlansToResponse(plans []domain.WorkoutPlan) []WorkoutPlanResponse {
	responses := make([]WorkoutPlanResponse, len(plans))
	for i := range plans {
		responses[i] = MapPlanToResponse(&plans[i])
	}
	return responses
}

// --- Helpers ---

// callerAndPlanIDs extracts the authenticated user ID from the context and
// the plan ID from the URL. On failure the request is already aborted.
func callerAndPlanIDs(c *gin.Context) (userID, planID primitive.ObjectID, ok bool) {
	userIDStr, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}
	userID, err = primitive.ObjectIDFromHex(userIDStr)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid user ID format in token.")
		return
	}
	planID, err = primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid plan ID format.")
		return
	}
	return userID, planID, true
}

// mapPlanServiceError translates service errors into HTTP responses.
func mapPlanServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPlanNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotPlanOwner):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrInvalidExerciseRef), errors.Is(err, service.ErrInvalidPlan):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrGenerationFailed):
		abortWithError(c, http.StatusBadGateway, "Workout plan generation failed.")
	default:
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred.")
	}
}

// --- Handler Methods ---

// GetPlans godoc
// @Summary List the user's saved workout plans
// @Tags WorkoutPlans
// @Produce json
// @Security BearerAuth
// @Success 200 {array} WorkoutPlanResponse
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /workout-plans [get]
func (h *PlanHandler) GetPlans(c *gin.Context) {
	userIDStr, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}
	userID, err := primitive.ObjectIDFromHex(userIDStr)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid user ID format in token.")
		return
	}

	plans, err := h.planService.GetPlans(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve workout plans.")
		return
	}

	if plans == nil {
		c.JSON(http.StatusOK, []WorkoutPlanResponse{}) // Return empty JSON array, not null
		return
	}
	c.JSON(http.StatusOK, MapPlansToResponse(plans))
}

// GetPlanDetail godoc
// @Summary Get one workout plan with its completion state
// @Tags WorkoutPlans
// @Produce json
// @Security BearerAuth
// @Param id path string true "Plan ID"
// @Success 200 {object} WorkoutPlanResponse
// @Failure 403 {object} gin.H "Forbidden (not the plan owner)"
// @Failure 404 {object} gin.H "Plan not found"
// @Router /workout-plans/{id} [get]
func (h *PlanHandler) GetPlanDetail(c *gin.Context) {
	userID, planID, ok := callerAndPlanIDs(c)
	if !ok {
		return
	}

	plan, err := h.planService.GetPlanDetail(c.Request.Context(), userID, planID)
	if err != nil {
		mapPlanServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapPlanToResponse(plan))
}

// GeneratePlan godoc
// @Summary Generate a new AI workout plan and save it
// @Tags WorkoutPlans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body GeneratePlanRequest true "Generation parameters"
// @Success 201 {object} WorkoutPlanResponse
// @Failure 400 {object} gin.H "Invalid input or invalid generated plan"
// @Failure 502 {object} gin.H "Generation service failure"
// @Router /workout-plans/generate [post]
func (h *PlanHandler) GeneratePlan(c *gin.Context) {
	userIDStr, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}
	userID, err := primitive.ObjectIDFromHex(userIDStr)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid user ID format in token.")
		return
	}

	var req GeneratePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	plan, err := h.planService.GeneratePlan(c.Request.Context(), userID, service.GenerateParams{
		UserGoal:        req.UserGoal,
		ExperienceLevel: req.ExperienceLevel,
		DaysPerWeek:     req.DaysPerWeek,
	})
	if err != nil {
		mapPlanServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapPlanToResponse(plan))
}

// ToggleCompletion godoc
// @Summary Toggle one exercise's completion state
// @Description Records the toggle and returns the full re-read plan snapshot,
// @Description so the client always recomputes progress from server truth.
// @Tags WorkoutPlans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Plan ID"
// @Param request body ToggleCompletionRequest true "Toggle payload"
// @Success 200 {object} WorkoutPlanResponse "Fresh plan snapshot"
// @Failure 400 {object} gin.H "Invalid day number or exercise index"
// @Failure 403 {object} gin.H "Forbidden (not the plan owner)"
// @Failure 404 {object} gin.H "Plan not found"
// @Router /workout-plans/{id}/completions [patch]
func (h *PlanHandler) ToggleCompletion(c *gin.Context) {
	userID, planID, ok := callerAndPlanIDs(c)
	if !ok {
		return
	}

	var req ToggleCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	plan, err := h.planService.ToggleExerciseCompletion(
		c.Request.Context(), userID, planID, req.DayNumber, *req.ExerciseIndex, *req.Completed)
	if err != nil {
		mapPlanServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapPlanToResponse(plan))
}

// ActivatePlan godoc
// @Summary Mark a plan as the user's single active plan
// @Tags WorkoutPlans
// @Produce json
// @Security BearerAuth
// @Param id path string true "Plan ID"
// @Success 200 {object} gin.H
// @Failure 403 {object} gin.H "Forbidden (not the plan owner)"
// @Failure 404 {object} gin.H "Plan not found"
// @Router /workout-plans/{id}/activate [patch]
func (h *PlanHandler) ActivatePlan(c *gin.Context) {
	userID, planID, ok := callerAndPlanIDs(c)
	if !ok {
		return
	}

	if err := h.planService.SetPlanActive(c.Request.Context(), userID, planID); err != nil {
		mapPlanServiceError(c, err)
		return
	}
	// The caller re-fetches the plan list after this; every other plan's
	// is_active may have flipped server-side.
	c.JSON(http.StatusOK, gin.H{"message": "plan activated"})
}

// GetCompletionLogs godoc
// @Summary Get the plan's completion audit trail
// @Tags WorkoutPlans
// @Produce json
// @Security BearerAuth
// @Param id path string true "Plan ID"
// @Success 200 {array} domain.CompletionLog
// @Failure 403 {object} gin.H "Forbidden (not the plan owner)"
// @Failure 404 {object} gin.H "Plan not found"
// @Router /workout-plans/{id}/logs [get]
func (h *PlanHandler) GetCompletionLogs(c *gin.Context) {
	userID, planID, ok := callerAndPlanIDs(c)
	if !ok {
		return
	}

	logs, err := h.planService.GetCompletionLogs(c.Request.Context(), userID, planID)
	if err != nil {
		mapPlanServiceError(c, err)
		return
	}
	if logs == nil {
		c.JSON(http.StatusOK, []domain.CompletionLog{})
		return
	}
	c.JSON(http.StatusOK, logs)
}

// GetProgress godoc
// @Summary Get the derived progress summary for a plan
// @Description Overall and per-day completion percentages, trailing weekly
// @Description buckets and the current activity streak, all recomputed from
// @Description a fresh snapshot.
// @Tags WorkoutPlans
// @Produce json
// @Security BearerAuth
// @Param id path string true "Plan ID"
// @Success 200 {object} service.ProgressSummary
// @Failure 403 {object} gin.H "Forbidden (not the plan owner)"
// @Failure 404 {object} gin.H "Plan not found"
// @Router /workout-plans/{id}/progress [get]
func (h *PlanHandler) GetProgress(c *gin.Context) {
	userID, planID, ok := callerAndPlanIDs(c)
	if !ok {
		return
	}

	summary, err := h.planService.GetProgressSummary(c.Request.Context(), userID, planID)
	if err != nil {
		mapPlanServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
