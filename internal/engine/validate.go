package engine

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/spigell/salary-intel/internal/intel"
)

const (
	MaxToolCalls       = 10
	MinToolCalls       = 1
	MaxExperienceYears = 60
)

// ValidationError rejects a request before the pipeline runs. Callers map it
// to a client error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// IsValidation reports whether err is, or wraps, a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

var toolCallsRe = regexp.MustCompile(`^<=\s*(-?\d+)$`)

// ValidateBudget enforces the computation budget contract.
func ValidateBudget(b intel.ComputationBudget) error {
	if b.LLMCalls != 1 {
		return invalid("llm_calls", "llm_calls must be exactly 1, got %d", b.LLMCalls)
	}

	raw := strings.TrimSpace(b.ToolCalls)
	m := toolCallsRe.FindStringSubmatch(raw)
	if m == nil {
		return invalid("tool_calls", "tool_calls must look like \"<=N\", got %q", b.ToolCalls)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return invalid("tool_calls", "tool_calls must look like \"<=N\", got %q", b.ToolCalls)
	}
	// Atoi clamps an overflow to the nearest int bound.
	if n > MaxToolCalls {
		return invalid("tool_calls", "tool_calls cannot exceed <=%d", MaxToolCalls)
	}
	if n < MinToolCalls {
		return invalid("tool_calls", "tool_calls must be at least <=%d", MinToolCalls)
	}
	return nil
}

// ValidateRequest checks a normalized request.
func ValidateRequest(r intel.Request) error {
	if r.JobTitle == "" {
		return invalid("jobTitle", "jobTitle is required and cannot be empty")
	}
	if y := r.ExperienceYears; y != nil {
		if math.IsNaN(*y) || *y < 0 || *y > MaxExperienceYears {
			return invalid("experienceYears", "experienceYears must be between 0 and %d", MaxExperienceYears)
		}
	}
	if !r.WorkMode.Valid() {
		return invalid("workMode", "workMode must be one of %s, %s, %s, %s, got %q",
			intel.WorkModeOnsite, intel.WorkModeHybrid, intel.WorkModeRemoteCountry, intel.WorkModeRemoteGlobal, r.WorkMode)
	}
	return nil
}
