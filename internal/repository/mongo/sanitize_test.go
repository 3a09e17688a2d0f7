package mongo

import (
	"encoding/json"
	"testing"

	"alcyxob/workout-planner/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize_DropsNilKeys(t *testing.T) {
	in := map[string]any{
		"name":  "Push-ups",
		"notes": nil,
		"sets":  3,
	}
	out := Sanitize(in).(map[string]any)
	assert.Equal(t, map[string]any{"name": "Push-ups", "sets": 3}, out)
}

func TestSanitize_PreservesEmptyContainersAndStrings(t *testing.T) {
	in := map[string]any{
		"exercises": []any{},
		"history":   []any{},
		"notes":     "",
		"meta":      map[string]any{},
	}
	out := Sanitize(in).(map[string]any)
	assert.Equal(t, in, out)
}

func TestSanitize_Nested(t *testing.T) {
	in := map[string]any{
		"exercises": []any{
			map[string]any{"name": "a", "notes": nil},
			map[string]any{"name": "b", "notes": "keep"},
		},
		"timer": map[string]any{"left": 10, "goal": nil},
	}
	out := Sanitize(in).(map[string]any)
	exs := out["exercises"].([]any)
	assert.Equal(t, map[string]any{"name": "a"}, exs[0])
	assert.Equal(t, map[string]any{"name": "b", "notes": "keep"}, exs[1])
	assert.Equal(t, map[string]any{"left": 10}, out["timer"])
}

func TestSanitize_PlanStateDocumentRoundTrip(t *testing.T) {
	s := domain.DefaultPlanState()
	s.Exercises = append(s.Exercises, domain.Exercise{ID: "e", Name: "Dips", Sets: 3, Reps: 10})

	doc, err := stateDocument(s)
	require.NoError(t, err)

	// Optional fields never appear as nulls in the stored document.
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "null")
	assert.Contains(t, string(raw), `"history":[]`)
}
