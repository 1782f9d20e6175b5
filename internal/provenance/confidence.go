package provenance

import (
	"fmt"

	"github.com/spigell/salary-intel/internal/intel"
)

// LocationThreshold is the location confidence that counts as resolved.
const LocationThreshold = 0.7

// Signals are the completeness facts confidence is derived from.
type Signals struct {
	ListedSalary       bool
	LocationConfidence float64
	ExperienceYears    bool
	SeniorityKeyword   bool
	RoleMatched        bool
}

// Assess counts the satisfied signals: three is high, two medium, fewer low.
func Assess(s Signals) intel.Confidence {
	var (
		met     int
		reasons []string
	)

	if s.ListedSalary {
		met++
		reasons = append(reasons, "listed salary present")
	} else {
		reasons = append(reasons, "no listed salary; affordability not scored")
	}

	if s.LocationConfidence >= LocationThreshold {
		met++
		reasons = append(reasons, fmt.Sprintf("location resolved with confidence %.2f", s.LocationConfidence))
	} else {
		reasons = append(reasons, fmt.Sprintf("location confidence %.2f below %.2f", s.LocationConfidence, LocationThreshold))
	}

	switch {
	case s.SeniorityKeyword:
		met++
		reasons = append(reasons, "seniority taken from title keyword")
	case s.ExperienceYears:
		met++
		reasons = append(reasons, "seniority taken from experience years")
	default:
		reasons = append(reasons, "no experience or seniority keyword; level defaulted")
	}

	if !s.RoleMatched {
		reasons = append(reasons, "job title matched no known role family")
	}

	level := intel.ConfidenceLow
	switch met {
	case 3:
		level = intel.ConfidenceHigh
	case 2:
		level = intel.ConfidenceMedium
	}

	return intel.Confidence{Level: level, Reasons: reasons}
}
