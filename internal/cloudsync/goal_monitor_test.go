package cloudsync

import (
	"context"
	"errors"
	"testing"
	"time"

	"alcyxob/workout-planner/internal/domain"
	"alcyxob/workout-planner/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type progressWrite struct {
	id       primitive.ObjectID
	progress float64
	eta      string
}

type fakeGoalRepo struct {
	active    *domain.Goal
	activeErr error
	updateErr error
	writes    []progressWrite
}

func (f *fakeGoalRepo) GetActive(context.Context, string) (*domain.Goal, error) {
	if f.activeErr != nil {
		return nil, f.activeErr
	}
	if f.active == nil {
		return nil, repository.ErrNotFound
	}
	g := *f.active
	return &g, nil
}

func (f *fakeGoalRepo) UpdateProgress(_ context.Context, _ string, id primitive.ObjectID, progress float64, eta string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.writes = append(f.writes, progressWrite{id: id, progress: progress, eta: eta})
	return nil
}

func (f *fakeGoalRepo) Create(context.Context, *domain.Goal) (primitive.ObjectID, error) {
	return primitive.NilObjectID, nil
}
func (f *fakeGoalRepo) GetByID(context.Context, string, primitive.ObjectID) (*domain.Goal, error) {
	return nil, repository.ErrNotFound
}
func (f *fakeGoalRepo) List(context.Context, string) ([]domain.Goal, error) { return nil, nil }
func (f *fakeGoalRepo) Update(context.Context, string, *domain.Goal) error  { return nil }
func (f *fakeGoalRepo) SetActive(context.Context, string, primitive.ObjectID) error {
	return nil
}
func (f *fakeGoalRepo) Delete(context.Context, string, primitive.ObjectID) error { return nil }

func fixedNow() time.Time {
	return time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC)
}

func monitorWith(repo *fakeGoalRepo) *GoalMonitor {
	m := NewGoalMonitor(repo)
	m.now = fixedNow
	return m
}

func goalWith(planWeeks, freq int, progress float64, eta string) *domain.Goal {
	return &domain.Goal{
		ID:          primitive.NewObjectID(),
		Name:        "pull-up ladder",
		StartDate:   "2026-08-11",
		PlanWeeks:   planWeeks,
		FreqPerWeek: freq,
		Status:      domain.GoalStatusActive,
		Progress:    progress,
		ETA:         eta,
	}
}

func historyFor(goalID string, sessions int) []domain.HistoryPoint {
	pts := make([]domain.HistoryPoint, 0, sessions)
	for i := 0; i < sessions; i++ {
		pts = append(pts, domain.HistoryPoint{
			SessionNumber: i + 1,
			Date:          "2026-08-12T08:00:00Z",
			Volume:        60,
			RPE:           7,
			GoalID:        goalID,
		})
	}
	return pts
}

func TestGoalMonitor_WritesUpdatedProgress(t *testing.T) {
	repo := &fakeGoalRepo{active: goalWith(4, 3, 0, "")}
	m := monitorWith(repo)

	m.Sync(context.Background(), "acc-1", historyFor(repo.active.ID.Hex(), 6))

	require.Len(t, repo.writes, 1)
	assert.Equal(t, repo.active.ID, repo.writes[0].id)
	assert.InDelta(t, 0.5, repo.writes[0].progress, 1e-9) // 6 of 12 planned
	// 6 done over 10 elapsed days, 6 left at 0.6/day -> 10 days out.
	assert.Equal(t, "2026-08-31", repo.writes[0].eta)
}

func TestGoalMonitor_HysteresisSkipsSmallChanges(t *testing.T) {
	goal := goalWith(4, 3, 0.5, "2026-08-31")
	repo := &fakeGoalRepo{active: goal}
	m := monitorWith(repo)

	// Recompute lands on the already-stored values.
	m.Sync(context.Background(), "acc-1", historyFor(goal.ID.Hex(), 6))

	assert.Empty(t, repo.writes, "unchanged progress and ETA must not be written")
}

func TestGoalMonitor_NoActiveGoalIsQuiet(t *testing.T) {
	repo := &fakeGoalRepo{}
	m := monitorWith(repo)

	m.Sync(context.Background(), "acc-1", historyFor("whatever", 3))

	assert.Empty(t, repo.writes)
}

func TestGoalMonitor_SignedOutDoesNothing(t *testing.T) {
	repo := &fakeGoalRepo{active: goalWith(4, 3, 0, "")}
	m := monitorWith(repo)

	m.Sync(context.Background(), "", historyFor(repo.active.ID.Hex(), 6))

	assert.Empty(t, repo.writes)
}

func TestGoalMonitor_FailuresAreSwallowed(t *testing.T) {
	repo := &fakeGoalRepo{active: goalWith(4, 3, 0, ""), updateErr: errors.New("boom")}
	m := monitorWith(repo)

	assert.NotPanics(t, func() {
		m.Sync(context.Background(), "acc-1", historyFor(repo.active.ID.Hex(), 6))
	})

	repo2 := &fakeGoalRepo{activeErr: errors.New("network down")}
	assert.NotPanics(t, func() {
		monitorWith(repo2).Sync(context.Background(), "acc-1", nil)
	})
}

func TestGoalMonitor_OnHistoryChangeAbsorbsSameLength(t *testing.T) {
	repo := &fakeGoalRepo{active: goalWith(4, 3, 0, "")}
	m := monitorWith(repo)
	history := historyFor(repo.active.ID.Hex(), 6)

	m.OnHistoryChange(context.Background(), "acc-1", history)
	require.Len(t, repo.writes, 1)

	repo.active.Progress = repo.writes[0].progress
	repo.active.ETA = repo.writes[0].eta
	m.OnHistoryChange(context.Background(), "acc-1", history)

	assert.Len(t, repo.writes, 1, "same history length does not recompute")
}

func TestGoalMonitor_TracksHistoryLengthPerAccount(t *testing.T) {
	repo := &fakeGoalRepo{active: goalWith(4, 3, 0, "")}
	m := monitorWith(repo)
	history := historyFor(repo.active.ID.Hex(), 6)

	m.OnHistoryChange(context.Background(), "acc-1", history)
	require.Len(t, repo.writes, 1)

	// A different account with a same-length history still gets its
	// first pass.
	m.OnHistoryChange(context.Background(), "acc-2", history)

	assert.Len(t, repo.writes, 2)
}

func TestCountCompletedSessions(t *testing.T) {
	history := []domain.HistoryPoint{
		{Volume: 60, GoalID: "g1"},
		{Volume: 0, GoalID: "g1"}, // plan edit, not a workout
		{Volume: 45, GoalID: "g2"},
		{Volume: 30, GoalID: "g1"},
		{Volume: 30},
	}

	assert.Equal(t, 2, CountCompletedSessions(history, "g1"))
	assert.Equal(t, 1, CountCompletedSessions(history, "g2"))
	assert.Equal(t, 0, CountCompletedSessions(history, ""))
	assert.Equal(t, 0, CountCompletedSessions(nil, "g1"))
}

func TestProgress_Clamped(t *testing.T) {
	assert.Equal(t, 0.0, Progress(0, 12))
	assert.InDelta(t, 0.25, Progress(3, 12), 1e-9)
	assert.Equal(t, 1.0, Progress(20, 12), "overshoot clamps to 1")
	assert.Equal(t, 1.0, Progress(2, 0), "planned floors at 1")
}

func TestEstimateETA(t *testing.T) {
	now := fixedNow()

	t.Run("nominal pace before first session", func(t *testing.T) {
		// 12 planned over 4 weeks, none done: the full 28 days remain.
		assert.Equal(t, "2026-09-18", EstimateETA(now, "2026-08-11", 4, 12, 0))
	})

	t.Run("actual pace projection", func(t *testing.T) {
		// 6 done in 10 days -> 0.6/day; 6 left -> 10 days out.
		assert.Equal(t, "2026-08-31", EstimateETA(now, "2026-08-11", 4, 12, 6))
	})

	t.Run("slow pace pushes the date out", func(t *testing.T) {
		// 2 done in 10 days -> 0.2/day; 10 left -> 50 days out.
		assert.Equal(t, "2026-10-10", EstimateETA(now, "2026-08-11", 4, 12, 2))
	})

	t.Run("completed goal resolves to today", func(t *testing.T) {
		assert.Equal(t, "2026-08-21", EstimateETA(now, "2026-08-11", 4, 12, 12))
	})

	t.Run("start date in the future counts one elapsed day", func(t *testing.T) {
		// 6 done in a floored single day outpaces everything: one day out.
		assert.Equal(t, now.AddDate(0, 0, 1).Format("2006-01-02"),
			EstimateETA(now, "2026-08-25", 4, 12, 6))
	})

	t.Run("unparseable start date falls back to one day", func(t *testing.T) {
		assert.Equal(t, now.AddDate(0, 0, 1).Format("2006-01-02"),
			EstimateETA(now, "not-a-date", 4, 12, 6))
	})
}
