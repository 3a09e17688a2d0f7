package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GoalDomain groups goals by training style.
type GoalDomain string

const (
	GoalDomainStrength     GoalDomain = "strength"
	GoalDomainEndurance    GoalDomain = "endurance"
	GoalDomainCalisthenics GoalDomain = "calisthenics"
)

// GoalMetric is the unit of the goal's target value.
type GoalMetric string

const (
	GoalMetricWeightKg GoalMetric = "weight_kg"
	GoalMetricReps     GoalMetric = "reps"
	GoalMetricTimeSec  GoalMetric = "time_sec"
)

// GoalIntensity is the planned effort tier.
type GoalIntensity string

const (
	GoalIntensityEasy GoalIntensity = "easy"
	GoalIntensityBase GoalIntensity = "base"
	GoalIntensityHard GoalIntensity = "hard"
)

// GoalStatus is the goal lifecycle state. At most one goal per account is
// active; promotions go through the atomic set-active batch, never through
// two independent writes.
type GoalStatus string

const (
	GoalStatusActive GoalStatus = "active"
	GoalStatusPaused GoalStatus = "paused"
	GoalStatusDone   GoalStatus = "done"
)

// GoalWeek is one planned week of a goal. Weeks are embedded in the goal
// document so that deleting a goal cascades in a single document delete.
type GoalWeek struct {
	WeekIndex       int    `bson:"weekIndex" json:"weekIndex"`
	PlannedSessions int    `bson:"plannedSessions" json:"plannedSessions"`
	Adjusted        bool   `bson:"adjusted" json:"adjusted"`
	Notes           string `bson:"notes,omitempty" json:"notes,omitempty"`
}

// Goal is a longer-horizon target tracked separately from the PlanState.
// Progress and ETA are maintained by the background auto-progress monitor.
type Goal struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AccountID   primitive.ObjectID `bson:"accountId" json:"accountId"`
	Name        string             `bson:"name" json:"name"` // e.g. "Bench 100 kg"
	Domain      GoalDomain         `bson:"domain" json:"domain"`
	Metric      GoalMetric         `bson:"metric" json:"metric"`
	TargetValue float64            `bson:"targetValue" json:"targetValue"`
	StartDate   string             `bson:"startDate" json:"startDate"` // ISO yyyy-mm-dd
	PlanWeeks   int                `bson:"planWeeks" json:"planWeeks"`
	FreqPerWeek int                `bson:"freqPerWeek" json:"freqPerWeek"`
	Intensity   GoalIntensity      `bson:"intensity" json:"intensity"`
	Status      GoalStatus         `bson:"status" json:"status"`
	Progress    float64            `bson:"progress" json:"progress"` // 0..1
	ETA         string             `bson:"eta,omitempty" json:"eta,omitempty"`
	Weeks       []GoalWeek         `bson:"weeks" json:"weeks"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// PlannedSessions is the nominal session count for the whole plan,
// floored at 1 so progress math never divides by zero.
func (g Goal) PlannedSessions() int {
	planned := g.PlanWeeks * g.FreqPerWeek
	if planned < 1 {
		return 1
	}
	return planned
}
