package domain

// Env tags where an exercise is usually performed.
type Env string

const (
	EnvOutdoor Env = "outdoor"
	EnvHome    Env = "home"
	EnvGym     Env = "gym"
)

// Muscle is the primary muscle group of an exercise.
type Muscle string

const (
	MuscleLegs      Muscle = "legs"
	MuscleChest     Muscle = "chest"
	MuscleBack      Muscle = "back"
	MuscleShoulders Muscle = "shoulders"
	MuscleBiceps    Muscle = "biceps"
	MuscleTriceps   Muscle = "triceps"
	MuscleCore      Muscle = "core"
	MuscleFull      Muscle = "full"
)

// Exercise is one entry of the plan's ordered exercise list.
// The ID is an opaque string generated client-side; copies never share it.
// Notes is a pointer so that "no notes" and "empty notes" stay distinct
// through serialization round trips.
type Exercise struct {
	ID     string  `bson:"id" json:"id"`
	Name   string  `bson:"name" json:"name"`
	Sets   int     `bson:"sets" json:"sets"`
	Reps   int     `bson:"reps" json:"reps"`
	Notes  *string `bson:"notes,omitempty" json:"notes,omitempty"`
	Env    Env     `bson:"env,omitempty" json:"env,omitempty"`
	Muscle Muscle  `bson:"muscle,omitempty" json:"muscle,omitempty"`
}

// HistoryPoint records one completed session. Entries are append-only:
// they are never mutated or reordered after being added to the log.
type HistoryPoint struct {
	SessionNumber int    `bson:"sessionNumber" json:"sessionNumber"`
	Date          string `bson:"date" json:"date"` // ISO-8601 (RFC 3339)
	Volume        int    `bson:"volume" json:"volume"`
	RPE           int    `bson:"rpe" json:"rpe"`
	GoalID        string `bson:"goalId,omitempty" json:"goalId,omitempty"`
	GoalName      string `bson:"goalName,omitempty" json:"goalName,omitempty"`
}

// PlanState is the root aggregate for one account/device: the exercise
// list (order is display/performance order), session counter, progression
// settings, today's effort, rest-timer sub-state and the history log.
type PlanState struct {
	SessionNumber  int            `bson:"sessionNumber" json:"sessionNumber"`
	ProgressPct    int            `bson:"progressPct" json:"progressPct"`
	Gentle         bool           `bson:"gentle" json:"gentle"`
	Exercises      []Exercise     `bson:"exercises" json:"exercises"`
	LastActionAt   string         `bson:"lastActionAt,omitempty" json:"lastActionAt,omitempty"`
	History        []HistoryPoint `bson:"history" json:"history"`
	RPEToday       int            `bson:"rpeToday" json:"rpeToday"`
	RestSeconds    int            `bson:"restSeconds" json:"restSeconds"`
	RestLeft       int            `bson:"restLeft" json:"restLeft"`
	RestRunning    bool           `bson:"restRunning" json:"restRunning"`
	ActiveGoalID   string         `bson:"activeGoalId,omitempty" json:"activeGoalId,omitempty"`
	ActiveGoalName string         `bson:"activeGoalName,omitempty" json:"activeGoalName,omitempty"`
}

// DefaultPlanState returns the fresh skeleton used on first app load.
func DefaultPlanState() PlanState {
	return PlanState{
		SessionNumber: 1,
		ProgressPct:   5,
		Gentle:        true,
		Exercises:     []Exercise{},
		History:       []HistoryPoint{},
		RPEToday:      7,
		RestSeconds:   90,
		RestLeft:      90,
	}
}

// Volume is the total volume of the exercise list (sum of sets*reps).
func (s PlanState) Volume() int {
	total := 0
	for _, e := range s.Exercises {
		total += e.Sets * e.Reps
	}
	return total
}

// Meaningful reports whether the state carries any user data worth
// syncing. An empty default skeleton is not meaningful; pushing it to the
// remote store (or showing sync chrome for it) would manufacture data
// from nothing.
func (s PlanState) Meaningful() bool {
	return len(s.Exercises) > 0 || len(s.History) > 0
}

// Clone returns a deep copy so that transition functions can hand out
// snapshots without sharing slice backing arrays with the caller.
func (s PlanState) Clone() PlanState {
	out := s
	out.Exercises = make([]Exercise, len(s.Exercises))
	for i, e := range s.Exercises {
		out.Exercises[i] = e
		if e.Notes != nil {
			n := *e.Notes
			out.Exercises[i].Notes = &n
		}
	}
	out.History = make([]HistoryPoint, len(s.History))
	copy(out.History, s.History)
	return out
}
