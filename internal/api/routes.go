package api

import (
	"easyfitness/plan-service/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	planService service.PlanService,
) {
	authHandler := NewAuthHandler(authService)
	planHandler := NewPlanHandler(planService)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", func(c *gin.Context) {
			userIDStr, err := getUserIDFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
				return
			}
			c.JSON(http.StatusOK, gin.H{"userId": userIDStr})
		})

		// --- Workout Plan Routes ---
		planGroup := protected.Group("/workout-plans")
		{
			// GET /api/v1/workout-plans
			planGroup.GET("", planHandler.GetPlans)
			// POST /api/v1/workout-plans/generate
			planGroup.POST("/generate", planHandler.GeneratePlan)
			// GET /api/v1/workout-plans/{id}
			planGroup.GET("/:id", planHandler.GetPlanDetail)
			// PATCH /api/v1/workout-plans/{id}/completions
			planGroup.PATCH("/:id/completions", planHandler.ToggleCompletion)
			// PATCH /api/v1/workout-plans/{id}/activate
			planGroup.PATCH("/:id/activate", planHandler.ActivatePlan)
			// GET /api/v1/workout-plans/{id}/logs
			planGroup.GET("/:id/logs", planHandler.GetCompletionLogs)
			// GET /api/v1/workout-plans/{id}/progress
			planGroup.GET("/:id/progress", planHandler.GetProgress)
		}
	}
}
