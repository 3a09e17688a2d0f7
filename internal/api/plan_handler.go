package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"alcyxob/workout-planner/internal/cloudsync"
	"alcyxob/workout-planner/internal/domain"
	"alcyxob/workout-planner/internal/progression"
	"alcyxob/workout-planner/internal/repository"
	"alcyxob/workout-planner/internal/service"

	"github.com/gin-gonic/gin"
)

// PlanHandler exposes the sanctioned plan-state mutation surface. Plan
// routes work without identity: the service keeps everything local until
// someone signs in.
type PlanHandler struct {
	planService *service.PlanService
	snapshots   repository.SnapshotRepository
}

func NewPlanHandler(planService *service.PlanService, snapshots repository.SnapshotRepository) *PlanHandler {
	return &PlanHandler{planService: planService, snapshots: snapshots}
}

// --- Request/Response Structs ---

type ExerciseRequest struct {
	Name   string  `json:"name" binding:"required"`
	Sets   int     `json:"sets"`
	Reps   int     `json:"reps"`
	Notes  *string `json:"notes"`
	Env    string  `json:"env"`
	Muscle string  `json:"muscle"`
}

type MoveExerciseRequest struct {
	Index     int    `json:"index"`
	Direction string `json:"direction" binding:"required,oneof=up down"`
}

type BumpSessionRequest struct {
	Delta int `json:"delta" binding:"required"`
}

type EffortRequest struct {
	RPE int `json:"rpe" binding:"required,min=1,max=10"`
}

type ProgressionRequest struct {
	Percent int   `json:"percent" binding:"min=0,max=100"`
	Gentle  *bool `json:"gentle" binding:"required"`
}

type ActiveGoalRequest struct {
	GoalID   string `json:"goalId"`
	GoalName string `json:"goalName"`
}

type RestDurationRequest struct {
	Seconds int `json:"seconds" binding:"min=0"`
}

// PlanResponse pairs the state snapshot with the sync status so the UI
// refreshes its badge on every mutation response.
type PlanResponse struct {
	State      domain.PlanState `json:"state"`
	SyncStatus cloudsync.Status `json:"syncStatus"`
}

func (h *PlanHandler) respond(c *gin.Context, state domain.PlanState) {
	c.JSON(http.StatusOK, PlanResponse{State: state, SyncStatus: h.planService.SyncStatus()})
}

// --- Handler Methods ---

// GetPlan returns the current plan state.
func (h *PlanHandler) GetPlan(c *gin.Context) {
	h.respond(c, h.planService.State())
}

// GetSyncStatus returns only the sync badge value.
func (h *PlanHandler) GetSyncStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"syncStatus": h.planService.SyncStatus()})
}

func (h *PlanHandler) AddExercise(c *gin.Context) {
	var req ExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	h.respond(c, h.planService.AddExercise(domain.Exercise{
		Name:   req.Name,
		Sets:   req.Sets,
		Reps:   req.Reps,
		Notes:  req.Notes,
		Env:    domain.Env(req.Env),
		Muscle: domain.Muscle(req.Muscle),
	}))
}

func (h *PlanHandler) UpdateExercise(c *gin.Context) {
	var req ExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	h.respond(c, h.planService.UpdateExercise(domain.Exercise{
		ID:     c.Param("id"),
		Name:   req.Name,
		Sets:   req.Sets,
		Reps:   req.Reps,
		Notes:  req.Notes,
		Env:    domain.Env(req.Env),
		Muscle: domain.Muscle(req.Muscle),
	}))
}

func (h *PlanHandler) RemoveExercise(c *gin.Context) {
	h.respond(c, h.planService.RemoveExercise(c.Param("id")))
}

func (h *PlanHandler) MoveExercise(c *gin.Context) {
	var req MoveExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	dir := -1
	if req.Direction == "down" {
		dir = 1
	}
	h.respond(c, h.planService.MoveExercise(req.Index, dir))
}

func (h *PlanHandler) BumpSession(c *gin.Context) {
	var req BumpSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	h.respond(c, h.planService.BumpSession(req.Delta))
}

// CompleteSession records today's workout and applies the progression
// pass to every exercise.
func (h *PlanHandler) CompleteSession(c *gin.Context) {
	h.respond(c, h.planService.CompleteSession(c.Request.Context()))
}

func (h *PlanHandler) SetEffort(c *gin.Context) {
	var req EffortRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	h.respond(c, h.planService.SetEffort(req.RPE))
}

func (h *PlanHandler) SetProgression(c *gin.Context) {
	var req ProgressionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	h.respond(c, h.planService.SetProgression(req.Percent, *req.Gentle))
}

func (h *PlanHandler) SetActiveGoal(c *gin.Context) {
	var req ActiveGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	h.respond(c, h.planService.SetActiveGoal(req.GoalID, req.GoalName))
}

// --- rest timer -------------------------------------------------------------

func (h *PlanHandler) SetRestDuration(c *gin.Context) {
	var req RestDurationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	h.respond(c, h.planService.SetRestDuration(req.Seconds))
}

func (h *PlanHandler) StartRest(c *gin.Context) { h.respond(c, h.planService.StartRest()) }
func (h *PlanHandler) StopRest(c *gin.Context)  { h.respond(c, h.planService.StopRest()) }
func (h *PlanHandler) ResetRest(c *gin.Context) { h.respond(c, h.planService.ResetRest()) }
func (h *PlanHandler) TickRest(c *gin.Context)  { h.respond(c, h.planService.TickRest()) }

// --- calculators, export, reset ---------------------------------------------

// PreviewWorkload exposes the pure progression calculators for what-if
// UI, without touching the state.
func (h *PlanHandler) PreviewWorkload(c *gin.Context) {
	base, err := strconv.Atoi(c.DefaultQuery("base", "0"))
	if err != nil || base < 1 {
		abortWithError(c, http.StatusBadRequest, "base must be a positive integer")
		return
	}
	percent, err := strconv.Atoi(c.DefaultQuery("percent", "0"))
	if err != nil || percent < 0 {
		abortWithError(c, http.StatusBadRequest, "percent must be a non-negative integer")
		return
	}
	gentle := c.DefaultQuery("gentle", "true") == "true"
	increasing := c.DefaultQuery("increasing", "true") == "true"

	c.JSON(http.StatusOK, gin.H{
		"next": progression.NextWorkload(base, percent, gentle, increasing),
	})
}

// ExportPlanText renders the plan as shareable text.
func (h *PlanHandler) ExportPlanText(c *gin.Context) {
	c.String(http.StatusOK, h.planService.PlanText())
}

// ResetLocal wipes the local copy only.
func (h *PlanHandler) ResetLocal(c *gin.Context) {
	h.respond(c, h.planService.ResetLocal())
}

// ResetEverywhere deletes the remote snapshot too. Requires identity.
func (h *PlanHandler) ResetEverywhere(c *gin.Context) {
	state, err := h.planService.ResetEverywhere(c.Request.Context(), h.snapshots)
	if err != nil {
		if errors.Is(err, service.ErrNotSignedIn) {
			abortWithError(c, http.StatusUnauthorized, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to reset remote data")
		}
		return
	}
	h.respond(c, state)
}

// ExportBackup uploads the snapshot to object storage and returns a
// temporary download URL.
func (h *PlanHandler) ExportBackup(c *gin.Context) {
	url, err := h.planService.ExportBackup(c.Request.Context())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotSignedIn):
			abortWithError(c, http.StatusUnauthorized, err.Error())
		case errors.Is(err, service.ErrBackupUnavailable):
			abortWithError(c, http.StatusServiceUnavailable, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to export backup")
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"downloadUrl": url})
}
