// Package plan exposes the sanctioned transition operations over the
// PlanState aggregate. Every transition takes a state snapshot by value
// and returns a new snapshot; callers never observe in-place mutation,
// which lets the sync reconciler diff states by serialized equality.
package plan

import (
	"encoding/json"
	"fmt"
	"time"

	"alcyxob/workout-planner/internal/domain"
	"alcyxob/workout-planner/internal/progression"

	"github.com/google/uuid"
)

// Defaults for an exercise added from a library template or blank.
const (
	DefaultSets = 3
	DefaultReps = 10
)

// NewExerciseID generates the opaque client-side identity for an
// exercise. Copies of an exercise never share an ID.
func NewExerciseID() string {
	return uuid.NewString()
}

// AddExercise appends a new exercise to the plan. Zero sets/reps are
// filled with the defaults; a missing ID gets a fresh one.
func AddExercise(s domain.PlanState, ex domain.Exercise) domain.PlanState {
	out := s.Clone()
	if ex.ID == "" {
		ex.ID = NewExerciseID()
	}
	if ex.Sets <= 0 {
		ex.Sets = DefaultSets
	}
	if ex.Reps <= 0 {
		ex.Reps = DefaultReps
	}
	out.Exercises = append(out.Exercises, ex)
	return touch(out)
}

// RemoveExercise drops the exercise with the given ID. Unknown IDs leave
// the state unchanged apart from the action timestamp.
func RemoveExercise(s domain.PlanState, id string) domain.PlanState {
	out := s.Clone()
	kept := out.Exercises[:0]
	for _, e := range out.Exercises {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	out.Exercises = kept
	return touch(out)
}

// UpdateExercise replaces the exercise with the same ID in place,
// preserving list order.
func UpdateExercise(s domain.PlanState, ex domain.Exercise) domain.PlanState {
	out := s.Clone()
	for i := range out.Exercises {
		if out.Exercises[i].ID == ex.ID {
			out.Exercises[i] = ex
			break
		}
	}
	return touch(out)
}

// MoveExercise swaps the exercise at index idx with its neighbour in the
// given direction (-1 up, +1 down). Out-of-range moves are no-ops.
func MoveExercise(s domain.PlanState, idx, dir int) domain.PlanState {
	out := s.Clone()
	j := idx + dir
	if idx < 0 || idx >= len(out.Exercises) || j < 0 || j >= len(out.Exercises) {
		return out
	}
	out.Exercises[idx], out.Exercises[j] = out.Exercises[j], out.Exercises[idx]
	return touch(out)
}

// BumpSession shifts the session counter by a signed delta, floored at 1.
func BumpSession(s domain.PlanState, delta int) domain.PlanState {
	out := s.Clone()
	out.SessionNumber += delta
	if out.SessionNumber < 1 {
		out.SessionNumber = 1
	}
	return touch(out)
}

// SetEffort records today's perceived-effort score.
func SetEffort(s domain.PlanState, rpe int) domain.PlanState {
	out := s.Clone()
	out.RPEToday = rpe
	return touch(out)
}

// SetProgression updates the percent step and rounding policy. The
// percent is stored as given; clamping to a sane range is the UI's job
// and the calculators tolerate any integer.
func SetProgression(s domain.PlanState, pct int, gentle bool) domain.PlanState {
	out := s.Clone()
	out.ProgressPct = pct
	out.Gentle = gentle
	return touch(out)
}

// SetActiveGoal links (or, with empty arguments, unlinks) the active goal
// recorded on future history points.
func SetActiveGoal(s domain.PlanState, goalID, goalName string) domain.PlanState {
	out := s.Clone()
	out.ActiveGoalID = goalID
	out.ActiveGoalName = goalName
	return touch(out)
}

// SetRestDuration sets the rest-timer duration and resets the countdown.
func SetRestDuration(s domain.PlanState, seconds int) domain.PlanState {
	out := s.Clone()
	if seconds < 0 {
		seconds = 0
	}
	out.RestSeconds = seconds
	out.RestLeft = seconds
	out.RestRunning = false
	return touch(out)
}

// StartRest starts the countdown; a finished countdown restarts from the
// full duration.
func StartRest(s domain.PlanState) domain.PlanState {
	out := s.Clone()
	if out.RestLeft <= 0 {
		out.RestLeft = out.RestSeconds
	}
	out.RestRunning = out.RestLeft > 0
	return touch(out)
}

// StopRest pauses the countdown.
func StopRest(s domain.PlanState) domain.PlanState {
	out := s.Clone()
	out.RestRunning = false
	return touch(out)
}

// ResetRest stops the countdown and restores the full duration.
func ResetRest(s domain.PlanState) domain.PlanState {
	out := s.Clone()
	out.RestLeft = out.RestSeconds
	out.RestRunning = false
	return touch(out)
}

// TickRest advances a running countdown by one second, stopping at zero.
func TickRest(s domain.PlanState) domain.PlanState {
	out := s.Clone()
	if !out.RestRunning {
		return out
	}
	if out.RestLeft > 0 {
		out.RestLeft--
	}
	out.RestRunning = out.RestLeft > 0
	return out
}

// CompleteSession is the session-completion transition: it appends a
// history point with the current volume (linked to the active goal when
// one is set), advances the session counter, adapts the percent step to
// today's effort and updates every exercise's reps.
//
// The reps update has two branches mirroring the calculators: a maximal
// effort score applies a regression pass using the *current* percent
// floored at RegressionFloorPct, every other score applies a growth pass
// using the *new* percent (falling back to the current one when the new
// step is 0).
func CompleteSession(s domain.PlanState, now time.Time) domain.PlanState {
	out := s.Clone()

	out.History = append(out.History, domain.HistoryPoint{
		SessionNumber: out.SessionNumber,
		Date:          now.UTC().Format(time.RFC3339),
		Volume:        out.Volume(),
		RPE:           out.RPEToday,
		GoalID:        out.ActiveGoalID,
		GoalName:      out.ActiveGoalName,
	})

	nextPct := progression.NextPercent(out.ProgressPct, out.RPEToday)

	for i := range out.Exercises {
		if out.RPEToday == progression.MaxEffort {
			pct := out.ProgressPct
			if pct < progression.RegressionFloorPct {
				pct = progression.RegressionFloorPct
			}
			out.Exercises[i].Reps = progression.NextWorkload(out.Exercises[i].Reps, pct, out.Gentle, false)
		} else {
			pct := nextPct
			if pct == 0 {
				pct = out.ProgressPct
			}
			out.Exercises[i].Reps = progression.NextWorkload(out.Exercises[i].Reps, pct, out.Gentle, true)
		}
	}

	out.SessionNumber++
	out.ProgressPct = nextPct
	out.LastActionAt = now.UTC().Format(time.RFC3339)
	return out
}

// Equal reports value equality of two snapshots via their serialized
// form. This is the same comparison the reconciler uses to short-circuit
// redundant writes.
func Equal(a, b domain.PlanState) bool {
	return string(Serialize(a)) == string(Serialize(b))
}

// Serialize returns the canonical JSON form of a snapshot. Marshalling a
// PlanState cannot fail (no channels, funcs or NaNs), so errors collapse
// to an empty document.
func Serialize(s domain.PlanState) []byte {
	raw, err := json.Marshal(s)
	if err != nil {
		return []byte("{}")
	}
	return raw
}

// Text renders the plan as shareable text, the export format of the
// original plan page.
func Text(s domain.PlanState) string {
	out := fmt.Sprintf("Workout #%d\n\n", s.SessionNumber)
	for i, e := range s.Exercises {
		out += fmt.Sprintf("%d. %s: %d×%d\n", i+1, e.Name, e.Sets, e.Reps)
	}
	out += fmt.Sprintf("\nTotal volume: %d reps", s.Volume())
	return out
}

func touch(s domain.PlanState) domain.PlanState {
	s.LastActionAt = time.Now().UTC().Format(time.RFC3339)
	return s
}
