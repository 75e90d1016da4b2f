package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDealValidateDefaults(t *testing.T) {
	d := Deal{Title: "Export contract"}
	require.NoError(t, d.Validate())

	assert.Equal(t, "lead", d.Stage)
	assert.Equal(t, "USD", d.Currency)
	assert.Equal(t, DealOpen, d.Status)
	assert.Equal(t, "medium", d.Priority)
}

func TestDealValidateRejects(t *testing.T) {
	d := Deal{Title: "  "}
	assert.Error(t, d.Validate())

	d = Deal{Title: "X", Probability: 120}
	assert.Error(t, d.Validate())
}

func TestDealWeightedValue(t *testing.T) {
	d := Deal{Value: 10000, Probability: 60}
	assert.Equal(t, 6000.0, d.WeightedValue())

	d.Probability = 0
	assert.Equal(t, 0.0, d.WeightedValue())
}

func TestDealIsOverdue(t *testing.T) {
	now := time.Now().UTC()
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	d := Deal{Status: DealOpen, ExpectedCloseDate: &past}
	assert.True(t, d.IsOverdue(now))

	d.ExpectedCloseDate = &future
	assert.False(t, d.IsOverdue(now))

	d = Deal{Status: DealStatusWon, ExpectedCloseDate: &past}
	assert.False(t, d.IsOverdue(now))

	d = Deal{Status: DealOpen}
	assert.False(t, d.IsOverdue(now))
}

func TestActivityIsOverdue(t *testing.T) {
	now := time.Now().UTC()
	past := now.Add(-time.Hour)

	a := Activity{DueDate: &past}
	assert.True(t, a.IsOverdue(now))

	a.Completed = true
	assert.False(t, a.IsOverdue(now))

	a = Activity{}
	assert.False(t, a.IsOverdue(now))
}
