package api

import (
	"net/http"

	"alcyxob/workout-planner/internal/repository"
	"alcyxob/workout-planner/internal/service"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	authService service.AuthService,
	planService *service.PlanService,
	goalService service.GoalService,
	snapshots repository.SnapshotRepository,
) {
	authHandler := NewAuthHandler(authService)
	planHandler := NewPlanHandler(planService, snapshots)
	goalHandler := NewGoalHandler(goalService)

	authMiddleware := AuthMiddleware(authService)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/logout", authMiddleware, authHandler.Logout)
		}

		// Plan routes are deliberately unauthenticated: the plan works
		// in local-only mode until someone signs in, and sync picks up
		// whatever is there.
		planGroup := apiV1.Group("/plan")
		{
			planGroup.GET("", planHandler.GetPlan)
			planGroup.GET("/export", planHandler.ExportPlanText)
			planGroup.GET("/preview", planHandler.PreviewWorkload)
			planGroup.POST("/reset", planHandler.ResetLocal)

			planGroup.POST("/exercises", planHandler.AddExercise)
			planGroup.PUT("/exercises/:id", planHandler.UpdateExercise)
			planGroup.DELETE("/exercises/:id", planHandler.RemoveExercise)
			planGroup.POST("/exercises/move", planHandler.MoveExercise)

			planGroup.POST("/session/bump", planHandler.BumpSession)
			planGroup.POST("/session/complete", planHandler.CompleteSession)

			planGroup.PUT("/effort", planHandler.SetEffort)
			planGroup.PUT("/progression", planHandler.SetProgression)
			planGroup.PUT("/goal", planHandler.SetActiveGoal)

			planGroup.PUT("/rest", planHandler.SetRestDuration)
			planGroup.POST("/rest/start", planHandler.StartRest)
			planGroup.POST("/rest/stop", planHandler.StopRest)
			planGroup.POST("/rest/reset", planHandler.ResetRest)
			planGroup.POST("/rest/tick", planHandler.TickRest)
		}

		apiV1.GET("/sync/status", planHandler.GetSyncStatus)

		protected := apiV1.Group("")
		protected.Use(authMiddleware)
		{
			goalGroup := protected.Group("/goals")
			{
				goalGroup.GET("", goalHandler.ListGoals)
				goalGroup.POST("", goalHandler.CreateGoal)
				goalGroup.GET("/:id", goalHandler.GetGoal)
				goalGroup.PUT("/:id", goalHandler.UpdateGoal)
				goalGroup.POST("/:id/activate", goalHandler.ActivateGoal)
				goalGroup.DELETE("/:id", goalHandler.DeleteGoal)
			}

			protected.POST("/plan/reset-everywhere", planHandler.ResetEverywhere)
			protected.POST("/plan/backup", planHandler.ExportBackup)
		}
	}
}
