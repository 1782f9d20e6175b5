package affordability

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spigell/salary-intel/internal/intel"
)

func ptr(v float64) *float64 { return &v }

func TestScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		net      float64
		expenses float64
		score    float64
		label    intel.AffordabilityLabel
	}{
		{name: "deficit", net: 1500, expenses: 2000, score: -0.25, label: intel.LabelUnaffordable},
		{name: "break even", net: 2000, expenses: 2000, score: 0, label: intel.LabelTight},
		{name: "tight upper edge", net: 2400, expenses: 2000, score: 0.2, label: intel.LabelTight},
		{name: "comfortable", net: 2500, expenses: 2000, score: 0.25, label: intel.LabelComfortable},
		{name: "comfortable upper edge", net: 3200, expenses: 2000, score: 0.6, label: intel.LabelComfortable},
		{name: "very comfortable", net: 4000, expenses: 2000, score: 1, label: intel.LabelVeryComfortable},
		{name: "clamped high", net: 50000, expenses: 1000, score: 3, label: intel.LabelVeryComfortable},
		{name: "clamped low", net: -5000, expenses: 1000, score: -1, label: intel.LabelUnaffordable},
		{name: "rounded", net: 1000, expenses: 3000, score: -0.6667, label: intel.LabelUnaffordable},
		{name: "deficit rounding to zero", net: 999.99, expenses: 1000, score: 0, label: intel.LabelUnaffordable},
		{name: "just above tight", net: 1200.05, expenses: 1000, score: 0.2, label: intel.LabelComfortable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, ok := Score(ptr(tt.net), ptr(tt.expenses))
			assert.True(t, ok)
			assert.InDelta(t, tt.score, r.Score, 1e-9)
			assert.Equal(t, tt.label, r.Label)
			assert.GreaterOrEqual(t, r.Score, MinScore)
			assert.LessOrEqual(t, r.Score, MaxScore)
		})
	}
}

func TestScoreDropsNegativeZero(t *testing.T) {
	t.Parallel()

	r, ok := Score(ptr(999.99), ptr(1000))
	assert.True(t, ok)
	assert.False(t, math.Signbit(r.Score))

	out, err := json.Marshal(r.Score)
	assert.NoError(t, err)
	assert.Equal(t, "0", string(out))
}

func TestScoreNonFinite(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name          string
		net, expenses float64
	}{
		{"nan net", math.NaN(), 1000},
		{"infinite net", math.Inf(1), 1000},
		{"negative infinite net", math.Inf(-1), 1000},
		{"infinite expenses", 1000, math.Inf(1)},
		{"nan expenses", 1000, math.NaN()},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := Score(ptr(tc.net), ptr(tc.expenses))
			assert.False(t, ok)
		})
	}
}

func TestScoreMissingInputs(t *testing.T) {
	t.Parallel()

	_, ok := Score(nil, ptr(1000))
	assert.False(t, ok)
	_, ok = Score(ptr(1000), nil)
	assert.False(t, ok)
	_, ok = Score(ptr(1000), ptr(0))
	assert.False(t, ok)
}

func TestExplain(t *testing.T) {
	t.Parallel()
	r := intel.AffordabilityResult{Score: 0.25, Label: intel.LabelComfortable}
	assert.Equal(t,
		"net 2500 USD against core expenses 2000 USD per month leaves a surplus ratio of 0.25 (comfortable)",
		Explain(r, "USD", 2500, 2000))
}
