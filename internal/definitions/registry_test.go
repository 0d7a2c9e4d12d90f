package definitions

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sla-service/internal/models"
)

func TestDefault_Lookup(t *testing.T) {
	r := Default()

	d, ok := r.Lookup("password_reset")
	require.True(t, ok)
	assert.Equal(t, 2.0, d.TargetHours)
	assert.Equal(t, models.PriorityHigh, d.Priority)
	assert.Equal(t, []float64{1, 1.5}, d.Checkpoints)
}

func TestLookup_UnknownFallsBackToGeneral(t *testing.T) {
	r := Default()

	d, ok := r.Lookup("printer_jam")
	assert.False(t, ok)
	assert.Equal(t, GeneralCategory, d.Category)
	assert.Equal(t, 24.0, d.TargetHours)
}

func TestLookup_ReturnsCopy(t *testing.T) {
	r := Default()

	d, _ := r.Lookup("password_reset")
	d.Checkpoints[0] = 99

	again, _ := r.Lookup("password_reset")
	assert.Equal(t, 1.0, again.Checkpoints[0])
}

func TestNew_AddsGeneral(t *testing.T) {
	r, err := New(models.Definition{Category: "vpn", TargetHours: 1, Priority: models.PriorityLow})
	require.NoError(t, err)
	assert.Equal(t, []string{GeneralCategory, "vpn"}, r.Categories())
}

func TestNew_RejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		def  models.Definition
	}{
		{"zero target", models.Definition{Category: "a", TargetHours: 0, Priority: models.PriorityLow}},
		{"unknown priority", models.Definition{Category: "a", TargetHours: 1, Priority: "urgent"}},
		{"checkpoint at target", models.Definition{Category: "a", TargetHours: 2, Priority: models.PriorityLow, Checkpoints: []float64{1, 2}}},
		{"not increasing", models.Definition{Category: "a", TargetHours: 4, Priority: models.PriorityLow, Checkpoints: []float64{2, 2}}},
		{"negative checkpoint", models.Definition{Category: "a", TargetHours: 4, Priority: models.PriorityLow, Checkpoints: []float64{-1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.def)
			assert.Error(t, err)
		})
	}
}

func TestNew_RejectsDuplicate(t *testing.T) {
	d := models.Definition{Category: "a", TargetHours: 1, Priority: models.PriorityLow}
	_, err := New(d, d)
	assert.Error(t, err)
}

func TestParse_MergesOverBuiltin(t *testing.T) {
	data := []byte(`
definitions:
  - category: password_reset
    target_hours: 3
    priority: critical
    checkpoints: [1, 2]
  - category: onboarding
    target_hours: 48
    priority: low
`)
	r, err := Parse(data)
	require.NoError(t, err)

	d, ok := r.Lookup("password_reset")
	require.True(t, ok)
	assert.Equal(t, 3.0, d.TargetHours)
	assert.Equal(t, models.PriorityCritical, d.Priority)

	_, ok = r.Lookup("onboarding")
	assert.True(t, ok)
	_, ok = r.Lookup("incident")
	assert.True(t, ok, "builtins not named in the file are kept")
}

func TestParse_SchemaErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty", ``},
		{"missing target", "definitions:\n  - category: a\n    priority: low\n"},
		{"bad priority", "definitions:\n  - category: a\n    target_hours: 1\n    priority: urgent\n"},
		{"unknown field", "definitions:\n  - category: a\n    target_hours: 1\n    priority: low\n    owner: ops\n"},
		{"checkpoint beyond target", "definitions:\n  - category: a\n    target_hours: 1\n    priority: low\n    checkpoints: [2]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "definitions.yaml")
	require.NoError(t, os.WriteFile(path, []byte("definitions:\n  - category: general\n    target_hours: 12\n    priority: high\n"), 0o644))

	r, err := LoadFile(path)
	require.NoError(t, err)

	d, _ := r.Lookup("anything")
	assert.Equal(t, 12.0, d.TargetHours)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
