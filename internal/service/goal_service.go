package service

import (
	"context"
	"errors"
	"time"

	"alcyxob/workout-planner/internal/domain"
	"alcyxob/workout-planner/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrGoalNotFound   = errors.New("goal not found")
	ErrInvalidGoalID  = errors.New("invalid goal id format")
	ErrGoalValidation = errors.New("goal name, plan weeks and frequency are required")
)

const goalDateLayout = "2006-01-02"

type GoalService interface {
	List(ctx context.Context, accountID string) ([]domain.Goal, error)
	Get(ctx context.Context, accountID, goalID string) (*domain.Goal, error)
	Create(ctx context.Context, accountID string, goal domain.Goal) (*domain.Goal, error)
	Update(ctx context.Context, accountID, goalID string, goal domain.Goal) (*domain.Goal, error)
	SetActive(ctx context.Context, accountID, goalID string) error
	Delete(ctx context.Context, accountID, goalID string) error
}

type goalService struct {
	goalRepo repository.GoalRepository
}

func NewGoalService(goalRepo repository.GoalRepository) GoalService {
	return &goalService{goalRepo: goalRepo}
}

func (s *goalService) List(ctx context.Context, accountID string) ([]domain.Goal, error) {
	return s.goalRepo.List(ctx, accountID)
}

func (s *goalService) Get(ctx context.Context, accountID, goalID string) (*domain.Goal, error) {
	oid, err := parseGoalID(goalID)
	if err != nil {
		return nil, err
	}
	goal, err := s.goalRepo.GetByID(ctx, accountID, oid)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrGoalNotFound
	}
	return goal, err
}

// Create stores a new goal. The first goal of an account starts active;
// later ones start paused so the at-most-one-active invariant holds
// without a demote pass. Progress begins at zero with a nominal ETA at
// the end of the planned duration.
func (s *goalService) Create(ctx context.Context, accountID string, goal domain.Goal) (*domain.Goal, error) {
	if goal.Name == "" || goal.PlanWeeks < 1 || goal.FreqPerWeek < 1 {
		return nil, ErrGoalValidation
	}

	accountOID, err := primitive.ObjectIDFromHex(accountID)
	if err != nil {
		return nil, repository.ErrNoAccount
	}
	goal.AccountID = accountOID

	if goal.StartDate == "" {
		goal.StartDate = time.Now().UTC().Format(goalDateLayout)
	}

	goal.Status = domain.GoalStatusPaused
	if _, err := s.goalRepo.GetActive(ctx, accountID); errors.Is(err, repository.ErrNotFound) {
		goal.Status = domain.GoalStatusActive
	} else if err != nil {
		return nil, err
	}

	goal.Progress = 0
	goal.ETA = nominalETA(goal.StartDate, goal.PlanWeeks)

	id, err := s.goalRepo.Create(ctx, &goal)
	if err != nil {
		return nil, err
	}
	goal.ID = id
	return &goal, nil
}

func (s *goalService) Update(ctx context.Context, accountID, goalID string, goal domain.Goal) (*domain.Goal, error) {
	oid, err := parseGoalID(goalID)
	if err != nil {
		return nil, err
	}
	if goal.Name == "" || goal.PlanWeeks < 1 || goal.FreqPerWeek < 1 {
		return nil, ErrGoalValidation
	}

	goal.ID = oid
	if err := s.goalRepo.Update(ctx, accountID, &goal); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrGoalNotFound
		}
		return nil, err
	}
	return s.goalRepo.GetByID(ctx, accountID, oid)
}

func (s *goalService) SetActive(ctx context.Context, accountID, goalID string) error {
	oid, err := parseGoalID(goalID)
	if err != nil {
		return err
	}
	err = s.goalRepo.SetActive(ctx, accountID, oid)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrGoalNotFound
	}
	return err
}

func (s *goalService) Delete(ctx context.Context, accountID, goalID string) error {
	oid, err := parseGoalID(goalID)
	if err != nil {
		return err
	}
	err = s.goalRepo.Delete(ctx, accountID, oid)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrGoalNotFound
	}
	return err
}

func parseGoalID(goalID string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(goalID)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidGoalID
	}
	return oid, nil
}

// nominalETA is the planned end date before any sessions exist: start
// plus the full plan duration.
func nominalETA(startDate string, planWeeks int) string {
	start, err := time.Parse(goalDateLayout, startDate)
	if err != nil {
		start = time.Now().UTC()
	}
	if planWeeks < 1 {
		planWeeks = 1
	}
	return start.AddDate(0, 0, planWeeks*7).Format(goalDateLayout)
}
