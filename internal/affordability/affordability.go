// Package affordability scores how far monthly net income stretches over
// core living expenses.
package affordability

import (
	"fmt"
	"math"

	"github.com/spigell/salary-intel/internal/intel"
	"github.com/spigell/salary-intel/internal/utils"
)

const (
	MinScore = -1.0
	MaxScore = 3.0

	tightUpTo       = 0.2
	comfortableUpTo = 0.6
)

// Score returns (net - expenses) / expenses clamped to [MinScore, MaxScore].
// It reports false when either side is missing, not finite, or expenses are
// not positive. The label is taken from the unrounded score.
func Score(net, expenses *float64) (intel.AffordabilityResult, bool) {
	if net == nil || expenses == nil || !finite(*net) || !finite(*expenses) || *expenses <= 0 {
		return intel.AffordabilityResult{}, false
	}

	score := (*net - *expenses) / *expenses
	if !finite(score) {
		return intel.AffordabilityResult{}, false
	}
	score = min(max(score, MinScore), MaxScore)
	label := Label(score)

	score = utils.Round(score, 0.0001)
	if score == 0 {
		// Drop the sign of a rounded -0.
		score = 0
	}

	return intel.AffordabilityResult{Score: score, Label: label}, true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func Label(score float64) intel.AffordabilityLabel {
	switch {
	case score < 0:
		return intel.LabelUnaffordable
	case score <= tightUpTo:
		return intel.LabelTight
	case score <= comfortableUpTo:
		return intel.LabelComfortable
	default:
		return intel.LabelVeryComfortable
	}
}

// Explain renders a one-line summary for the result explanations.
func Explain(r intel.AffordabilityResult, currency string, net, expenses float64) string {
	return fmt.Sprintf("net %.0f %s against core expenses %.0f %s per month leaves a surplus ratio of %.2f (%s)",
		net, currency, expenses, currency, r.Score, r.Label)
}
