package intel

import "strings"

type WorkMode string

const (
	WorkModeOnsite        WorkMode = "onsite"
	WorkModeHybrid        WorkMode = "hybrid"
	WorkModeRemoteCountry WorkMode = "remote_country"
	WorkModeRemoteGlobal  WorkMode = "remote_global"
)

// Valid reports whether the mode is one of the known values.
func (m WorkMode) Valid() bool {
	switch m {
	case WorkModeOnsite, WorkModeHybrid, WorkModeRemoteCountry, WorkModeRemoteGlobal:
		return true
	}
	return false
}

// Request is the caller input. Optional strings are blank when absent.
type Request struct {
	JobTitle        string   `json:"jobTitle" mapstructure:"jobTitle"`
	Location        string   `json:"location,omitempty" mapstructure:"location"`
	ExperienceYears *float64 `json:"experienceYears,omitempty" mapstructure:"experienceYears"`
	SalaryInfo      string   `json:"salaryInfo,omitempty" mapstructure:"salaryInfo"`
	Currency        string   `json:"currency,omitempty" mapstructure:"currency"`
	WorkMode        WorkMode `json:"workMode,omitempty" mapstructure:"workMode"`
}

// Normalized returns a copy with strings trimmed, the currency upper-cased
// and the work mode defaulted to onsite.
func (r Request) Normalized() Request {
	r.JobTitle = strings.TrimSpace(r.JobTitle)
	r.Location = strings.TrimSpace(r.Location)
	r.SalaryInfo = strings.TrimSpace(r.SalaryInfo)
	r.Currency = strings.ToUpper(strings.TrimSpace(r.Currency))
	mode := WorkMode(strings.ToLower(strings.TrimSpace(string(r.WorkMode))))
	if mode == "" {
		mode = WorkModeOnsite
	}
	r.WorkMode = mode
	return r
}

// ComputationBudget is the request-scoped constraint object.
type ComputationBudget struct {
	LLMCalls  int    `json:"llm_calls" mapstructure:"llm_calls"`
	ToolCalls string `json:"tool_calls" mapstructure:"tool_calls"`
	EarlyStop bool   `json:"early_stop" mapstructure:"early_stop"`
}

// DefaultBudget is the budget used by callers that do not send one.
func DefaultBudget() ComputationBudget {
	return ComputationBudget{LLMCalls: 1, ToolCalls: "<=10"}
}
