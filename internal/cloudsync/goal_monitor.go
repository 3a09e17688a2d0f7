package cloudsync

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"alcyxob/workout-planner/internal/domain"
	"alcyxob/workout-planner/internal/repository"

	"github.com/sirupsen/logrus"
)

const dateLayout = "2006-01-02"

// progressEpsilon is the write hysteresis: progress deltas at or below
// this are not worth a remote write unless the ETA moved too.
const progressEpsilon = 0.01

// GoalMonitor keeps the active goal's progress and estimated completion
// date up to date from the workout history. It is best effort: every
// failure is swallowed, nothing here is user facing.
type GoalMonitor struct {
	goals repository.GoalRepository
	now   func() time.Time
	log   *logrus.Entry

	mu      sync.Mutex
	lastLen map[string]int
}

func NewGoalMonitor(goals repository.GoalRepository) *GoalMonitor {
	return &GoalMonitor{
		goals:   goals,
		now:     time.Now,
		log:     logrus.WithField("component", "goal-monitor"),
		lastLen: make(map[string]int),
	}
}

// OnHistoryChange recomputes goal progress when the history log grew or
// shrank. Repeated calls with the same length are absorbed per account,
// so a switch to another account always gets its first pass.
func (m *GoalMonitor) OnHistoryChange(ctx context.Context, accountID string, history []domain.HistoryPoint) {
	m.mu.Lock()
	if last, ok := m.lastLen[accountID]; ok && last == len(history) {
		m.mu.Unlock()
		return
	}
	m.lastLen[accountID] = len(history)
	m.mu.Unlock()

	m.Sync(ctx, accountID, history)
}

// Sync runs one recompute-and-maybe-write pass. Called unconditionally
// on sign-in and by OnHistoryChange.
func (m *GoalMonitor) Sync(ctx context.Context, accountID string, history []domain.HistoryPoint) {
	if accountID == "" {
		return
	}

	goal, err := m.goals.GetActive(ctx, accountID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			m.log.WithError(err).Debug("active goal fetch failed")
		}
		return
	}

	planned := goal.PlannedSessions()
	done := CountCompletedSessions(history, goal.ID.Hex())
	progress := Progress(done, planned)
	eta := EstimateETA(m.now(), goal.StartDate, goal.PlanWeeks, planned, done)

	if math.Abs(progress-goal.Progress) <= progressEpsilon && eta == goal.ETA {
		return
	}

	if err := m.goals.UpdateProgress(ctx, accountID, goal.ID, progress, eta); err != nil {
		m.log.WithError(err).Debug("goal progress write failed")
	}
}

// CountCompletedSessions counts history points attributed to the goal
// with positive volume. Zero-volume points are plan edits, not workouts.
func CountCompletedSessions(history []domain.HistoryPoint, goalID string) int {
	if goalID == "" {
		return 0
	}
	done := 0
	for _, p := range history {
		if p.GoalID == goalID && p.Volume > 0 {
			done++
		}
	}
	return done
}

// Progress maps completed sessions onto the planned total, clamped to
// [0, 1].
func Progress(done, planned int) float64 {
	if planned < 1 {
		planned = 1
	}
	p := float64(done) / float64(planned)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// EstimateETA projects the completion date from the actual pace, or from
// the nominal planned pace while no session has been completed yet. The
// result uses the same yyyy-mm-dd form as goal start dates.
func EstimateETA(now time.Time, startDate string, planWeeks, planned, done int) string {
	if planned < 1 {
		planned = 1
	}
	if planWeeks < 1 {
		planWeeks = 1
	}

	left := planned - done
	if left <= 0 {
		return now.UTC().Format(dateLayout)
	}

	var daysLeft int
	if done == 0 {
		// Nominal pace: planned sessions spread over the plan duration.
		daysLeft = int(math.Ceil(float64(left) * float64(planWeeks) * 7 / float64(planned)))
	} else {
		start, err := time.Parse(dateLayout, startDate)
		if err != nil {
			start = now.UTC()
		}
		elapsedDays := int(math.Round(now.UTC().Sub(start).Hours() / 24))
		if elapsedDays < 1 {
			elapsedDays = 1
		}
		pace := float64(done) / float64(elapsedDays)
		daysLeft = int(math.Ceil(float64(left) / pace))
	}

	return now.UTC().AddDate(0, 0, daysLeft).Format(dateLayout)
}
