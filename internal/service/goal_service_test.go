package service

import (
	"context"
	"testing"
	"time"

	"alcyxob/workout-planner/internal/domain"
	"alcyxob/workout-planner/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeGoalRepo is an in-memory repository.GoalRepository shared by the
// goal service and plan service tests.
type fakeGoalRepo struct {
	goals map[primitive.ObjectID]*domain.Goal
	order []primitive.ObjectID
}

func newFakeGoalRepo() *fakeGoalRepo {
	return &fakeGoalRepo{goals: make(map[primitive.ObjectID]*domain.Goal)}
}

func (f *fakeGoalRepo) Create(_ context.Context, goal *domain.Goal) (primitive.ObjectID, error) {
	goal.ID = primitive.NewObjectID()
	goal.CreatedAt = time.Now().UTC()
	stored := *goal
	f.goals[goal.ID] = &stored
	f.order = append(f.order, goal.ID)
	return goal.ID, nil
}

func (f *fakeGoalRepo) GetByID(_ context.Context, _ string, id primitive.ObjectID) (*domain.Goal, error) {
	g, ok := f.goals[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *g
	return &out, nil
}

func (f *fakeGoalRepo) GetActive(_ context.Context, _ string) (*domain.Goal, error) {
	for i := len(f.order) - 1; i >= 0; i-- {
		if g := f.goals[f.order[i]]; g != nil && g.Status == domain.GoalStatusActive {
			out := *g
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeGoalRepo) List(_ context.Context, _ string) ([]domain.Goal, error) {
	out := make([]domain.Goal, 0, len(f.order))
	for i := len(f.order) - 1; i >= 0; i-- {
		if g := f.goals[f.order[i]]; g != nil {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (f *fakeGoalRepo) Update(_ context.Context, _ string, goal *domain.Goal) error {
	stored, ok := f.goals[goal.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Name = goal.Name
	stored.Domain = goal.Domain
	stored.Metric = goal.Metric
	stored.TargetValue = goal.TargetValue
	stored.StartDate = goal.StartDate
	stored.PlanWeeks = goal.PlanWeeks
	stored.FreqPerWeek = goal.FreqPerWeek
	stored.Intensity = goal.Intensity
	stored.Status = goal.Status
	stored.Weeks = goal.Weeks
	return nil
}

func (f *fakeGoalRepo) UpdateProgress(_ context.Context, _ string, id primitive.ObjectID, progress float64, eta string) error {
	stored, ok := f.goals[id]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Progress = progress
	stored.ETA = eta
	return nil
}

func (f *fakeGoalRepo) SetActive(_ context.Context, _ string, id primitive.ObjectID) error {
	if _, ok := f.goals[id]; !ok {
		return repository.ErrNotFound
	}
	for _, g := range f.goals {
		if g.Status == domain.GoalStatusActive && g.ID != id {
			g.Status = domain.GoalStatusPaused
		}
	}
	f.goals[id].Status = domain.GoalStatusActive
	return nil
}

func (f *fakeGoalRepo) Delete(_ context.Context, _ string, id primitive.ObjectID) error {
	if _, ok := f.goals[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.goals, id)
	return nil
}

func validGoal() domain.Goal {
	return domain.Goal{
		Name:        "pull-up ladder",
		Domain:      domain.GoalDomainStrength,
		Metric:      domain.GoalMetricReps,
		TargetValue: 15,
		StartDate:   "2026-08-10",
		PlanWeeks:   4,
		FreqPerWeek: 3,
	}
}

func TestGoalService_CreateFirstGoalIsActive(t *testing.T) {
	svc := NewGoalService(newFakeGoalRepo())
	account := primitive.NewObjectID().Hex()

	created, err := svc.Create(context.Background(), account, validGoal())
	require.NoError(t, err)

	assert.Equal(t, domain.GoalStatusActive, created.Status)
	assert.Zero(t, created.Progress)
	assert.Equal(t, "2026-09-07", created.ETA, "nominal ETA is start plus the plan duration")
	assert.False(t, created.ID.IsZero())
}

func TestGoalService_SecondGoalStartsPaused(t *testing.T) {
	svc := NewGoalService(newFakeGoalRepo())
	account := primitive.NewObjectID().Hex()
	ctx := context.Background()

	_, err := svc.Create(ctx, account, validGoal())
	require.NoError(t, err)

	second := validGoal()
	second.Name = "5k pace"
	created, err := svc.Create(ctx, account, second)
	require.NoError(t, err)

	assert.Equal(t, domain.GoalStatusPaused, created.Status, "only one goal may be active")
}

func TestGoalService_CreateValidation(t *testing.T) {
	svc := NewGoalService(newFakeGoalRepo())
	account := primitive.NewObjectID().Hex()
	ctx := context.Background()

	bad := validGoal()
	bad.Name = ""
	_, err := svc.Create(ctx, account, bad)
	assert.ErrorIs(t, err, ErrGoalValidation)

	bad = validGoal()
	bad.PlanWeeks = 0
	_, err = svc.Create(ctx, account, bad)
	assert.ErrorIs(t, err, ErrGoalValidation)

	_, err = svc.Create(ctx, "not-a-hex-id", validGoal())
	assert.ErrorIs(t, err, repository.ErrNoAccount)
}

func TestGoalService_SetActiveSwitches(t *testing.T) {
	repo := newFakeGoalRepo()
	svc := NewGoalService(repo)
	account := primitive.NewObjectID().Hex()
	ctx := context.Background()

	first, err := svc.Create(ctx, account, validGoal())
	require.NoError(t, err)
	second := validGoal()
	second.Name = "5k pace"
	other, err := svc.Create(ctx, account, second)
	require.NoError(t, err)

	require.NoError(t, svc.SetActive(ctx, account, other.ID.Hex()))

	active, err := repo.GetActive(ctx, account)
	require.NoError(t, err)
	assert.Equal(t, other.ID, active.ID)
	demoted, err := repo.GetByID(ctx, account, first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.GoalStatusPaused, demoted.Status)
}

func TestGoalService_NotFoundAndBadIDs(t *testing.T) {
	svc := NewGoalService(newFakeGoalRepo())
	account := primitive.NewObjectID().Hex()
	ctx := context.Background()
	missing := primitive.NewObjectID().Hex()

	_, err := svc.Get(ctx, account, "zzz")
	assert.ErrorIs(t, err, ErrInvalidGoalID)

	_, err = svc.Get(ctx, account, missing)
	assert.ErrorIs(t, err, ErrGoalNotFound)

	assert.ErrorIs(t, svc.SetActive(ctx, account, missing), ErrGoalNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, account, missing), ErrGoalNotFound)

	_, err = svc.Update(ctx, account, missing, validGoal())
	assert.ErrorIs(t, err, ErrGoalNotFound)
}

func TestGoalService_UpdateEditsFields(t *testing.T) {
	svc := NewGoalService(newFakeGoalRepo())
	account := primitive.NewObjectID().Hex()
	ctx := context.Background()

	created, err := svc.Create(ctx, account, validGoal())
	require.NoError(t, err)

	edit := validGoal()
	edit.Name = "weighted pull-ups"
	edit.TargetValue = 20
	edit.Status = created.Status
	updated, err := svc.Update(ctx, account, created.ID.Hex(), edit)
	require.NoError(t, err)

	assert.Equal(t, "weighted pull-ups", updated.Name)
	assert.Equal(t, 20.0, updated.TargetValue)
}
