package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"alcyxob/workout-planner/internal/domain"
	"alcyxob/workout-planner/internal/service"

	"github.com/gin-gonic/gin"
)

// GoalHandler exposes goal lifecycle operations. Everything here is
// account-scoped and sits behind the auth middleware.
type GoalHandler struct {
	goalService service.GoalService
}

func NewGoalHandler(goalService service.GoalService) *GoalHandler {
	return &GoalHandler{goalService: goalService}
}

// --- Request/Response Structs ---

type GoalWeekRequest struct {
	WeekIndex       int    `json:"weekIndex"`
	PlannedSessions int    `json:"plannedSessions"`
	Adjusted        bool   `json:"adjusted"`
	Notes           string `json:"notes"`
}

type GoalRequest struct {
	Name        string            `json:"name" binding:"required"`
	Domain      string            `json:"domain" binding:"omitempty,oneof=strength endurance calisthenics"`
	Metric      string            `json:"metric" binding:"omitempty,oneof=weight_kg reps time_sec"`
	TargetValue float64           `json:"targetValue"`
	StartDate   string            `json:"startDate"`
	PlanWeeks   int               `json:"planWeeks" binding:"required,min=1"`
	FreqPerWeek int               `json:"freqPerWeek" binding:"required,min=1"`
	Intensity   string            `json:"intensity" binding:"omitempty,oneof=easy base hard"`
	Status      string            `json:"status" binding:"omitempty,oneof=active paused done"`
	Weeks       []GoalWeekRequest `json:"weeks"`
}

type GoalResponse struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Domain      string            `json:"domain"`
	Metric      string            `json:"metric"`
	TargetValue float64           `json:"targetValue"`
	StartDate   string            `json:"startDate"`
	PlanWeeks   int               `json:"planWeeks"`
	FreqPerWeek int               `json:"freqPerWeek"`
	Intensity   string            `json:"intensity"`
	Status      string            `json:"status"`
	Progress    float64           `json:"progress"`
	ETA         string            `json:"eta,omitempty"`
	Weeks       []domain.GoalWeek `json:"weeks"`
	CreatedAt   time.Time         `json:"createdAt"`
}

func (r GoalRequest) toDomain() domain.Goal {
	weeks := make([]domain.GoalWeek, 0, len(r.Weeks))
	for _, w := range r.Weeks {
		weeks = append(weeks, domain.GoalWeek{
			WeekIndex:       w.WeekIndex,
			PlannedSessions: w.PlannedSessions,
			Adjusted:        w.Adjusted,
			Notes:           w.Notes,
		})
	}
	return domain.Goal{
		Name:        r.Name,
		Domain:      domain.GoalDomain(r.Domain),
		Metric:      domain.GoalMetric(r.Metric),
		TargetValue: r.TargetValue,
		StartDate:   r.StartDate,
		PlanWeeks:   r.PlanWeeks,
		FreqPerWeek: r.FreqPerWeek,
		Intensity:   domain.GoalIntensity(r.Intensity),
		Status:      domain.GoalStatus(r.Status),
		Weeks:       weeks,
	}
}

// MapGoalToResponse converts a domain Goal to its DTO.
func MapGoalToResponse(goal *domain.Goal) GoalResponse {
	if goal == nil {
		return GoalResponse{}
	}
	weeks := goal.Weeks
	if weeks == nil {
		weeks = []domain.GoalWeek{}
	}
	return GoalResponse{
		ID:          goal.ID.Hex(),
		Name:        goal.Name,
		Domain:      string(goal.Domain),
		Metric:      string(goal.Metric),
		TargetValue: goal.TargetValue,
		StartDate:   goal.StartDate,
		PlanWeeks:   goal.PlanWeeks,
		FreqPerWeek: goal.FreqPerWeek,
		Intensity:   string(goal.Intensity),
		Status:      string(goal.Status),
		Progress:    goal.Progress,
		ETA:         goal.ETA,
		Weeks:       weeks,
		CreatedAt:   goal.CreatedAt,
	}
}

// --- Handler Methods ---

func (h *GoalHandler) ListGoals(c *gin.Context) {
	accountID, err := getAccountIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get account ID from token")
		return
	}

	goals, err := h.goalService.List(c.Request.Context(), accountID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list goals")
		return
	}

	out := make([]GoalResponse, 0, len(goals))
	for i := range goals {
		out = append(out, MapGoalToResponse(&goals[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *GoalHandler) GetGoal(c *gin.Context) {
	accountID, err := getAccountIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get account ID from token")
		return
	}

	goal, err := h.goalService.Get(c.Request.Context(), accountID, c.Param("id"))
	if err != nil {
		h.mapGoalError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapGoalToResponse(goal))
}

func (h *GoalHandler) CreateGoal(c *gin.Context) {
	accountID, err := getAccountIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get account ID from token")
		return
	}

	var req GoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	goal, err := h.goalService.Create(c.Request.Context(), accountID, req.toDomain())
	if err != nil {
		h.mapGoalError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapGoalToResponse(goal))
}

func (h *GoalHandler) UpdateGoal(c *gin.Context) {
	accountID, err := getAccountIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get account ID from token")
		return
	}

	var req GoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	goal, err := h.goalService.Update(c.Request.Context(), accountID, c.Param("id"), req.toDomain())
	if err != nil {
		h.mapGoalError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapGoalToResponse(goal))
}

// ActivateGoal promotes the goal; any other active goal is demoted in
// the same batched write.
func (h *GoalHandler) ActivateGoal(c *gin.Context) {
	accountID, err := getAccountIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get account ID from token")
		return
	}

	if err := h.goalService.SetActive(c.Request.Context(), accountID, c.Param("id")); err != nil {
		h.mapGoalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "goal activated"})
}

func (h *GoalHandler) DeleteGoal(c *gin.Context) {
	accountID, err := getAccountIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get account ID from token")
		return
	}

	if err := h.goalService.Delete(c.Request.Context(), accountID, c.Param("id")); err != nil {
		h.mapGoalError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *GoalHandler) mapGoalError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrGoalNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidGoalID), errors.Is(err, service.ErrGoalValidation):
		abortWithError(c, http.StatusBadRequest, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}
