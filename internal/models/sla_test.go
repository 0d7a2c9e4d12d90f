package models

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefinitionValidate(t *testing.T) {
	tests := []struct {
		name    string
		def     Definition
		wantErr bool
	}{
		{"valid", Definition{Category: "incident", TargetHours: 4, Priority: PriorityCritical, Checkpoints: []float64{2, 3, 3.5}}, false},
		{"no checkpoints", Definition{Category: "x", TargetHours: 1, Priority: PriorityLow}, false},
		{"missing category", Definition{TargetHours: 1, Priority: PriorityLow}, true},
		{"zero target", Definition{Category: "x", Priority: PriorityLow}, true},
		{"nan target", Definition{Category: "x", TargetHours: math.NaN(), Priority: PriorityLow}, true},
		{"bad priority", Definition{Category: "x", TargetHours: 1, Priority: "urgent"}, true},
		{"unordered", Definition{Category: "x", TargetHours: 4, Priority: PriorityLow, Checkpoints: []float64{2, 1}}, true},
		{"repeated", Definition{Category: "x", TargetHours: 4, Priority: PriorityLow, Checkpoints: []float64{2, 2}}, true},
		{"at target", Definition{Category: "x", TargetHours: 4, Priority: PriorityLow, Checkpoints: []float64{1, 4}}, true},
		{"non-positive", Definition{Category: "x", TargetHours: 4, Priority: PriorityLow, Checkpoints: []float64{0}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.def.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewRecord(t *testing.T) {
	created := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	def := Definition{Category: "password_reset", TargetHours: 1.5, Priority: PriorityHigh}
	rec := NewRecord("REQ-1", "password_reset", def, created, created.Add(time.Second))

	assert.Equal(t, StatusActive, rec.Status)
	assert.Equal(t, created.Add(90*time.Minute), rec.TargetAt)
	assert.Equal(t, PriorityHigh, rec.Priority)
	assert.False(t, rec.Status.Terminal())
	assert.True(t, StatusViolated.Terminal())
}

func TestAlertLevelFor(t *testing.T) {
	assert.Equal(t, AlertNone, AlertLevelFor(0.69))
	assert.Equal(t, AlertWarning, AlertLevelFor(0.7))
	assert.Equal(t, AlertWarning, AlertLevelFor(0.89))
	assert.Equal(t, AlertCritical, AlertLevelFor(0.9))
	assert.Equal(t, AlertCritical, AlertLevelFor(1.4))
}
