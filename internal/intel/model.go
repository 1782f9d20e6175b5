package intel

import (
	"encoding/json"
)

const (
	// SchemaVersion pins the shape of Result.
	SchemaVersion = "1.0.0"
	// MethodologyVersion pins scoring thresholds and the model-table revision.
	MethodologyVersion = "2025-09-01.a"
)

const (
	GlobalCountry  = "Global"
	UnknownCountry = "Unknown"
	// GlobalISO is the sentinel ISO code for remote-anywhere and unresolved locations.
	GlobalISO = "XX"
)

type Level string

const (
	LevelIntern    Level = "intern"
	LevelJunior    Level = "junior"
	LevelMid       Level = "mid"
	LevelSenior    Level = "senior"
	LevelLead      Level = "lead"
	LevelStaff     Level = "staff"
	LevelPrincipal Level = "principal"
	LevelUnknown   Level = "unknown"
)

var levelRanks = map[Level]int{
	LevelIntern:    0,
	LevelJunior:    1,
	LevelMid:       2,
	LevelSenior:    3,
	LevelLead:      4,
	LevelStaff:     5,
	LevelPrincipal: 6,
}

// Rank returns the total-order position of the level, -1 for unknown.
func (l Level) Rank() int {
	if rank, ok := levelRanks[l]; ok {
		return rank
	}
	return -1
}

type NormalizedRole struct {
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	LevelRank int    `json:"level_rank"`
	Level     Level  `json:"level"`
}

type ResolvedLocation struct {
	City           *string  `json:"city"`
	AdminArea      *string  `json:"admin_area"`
	Country        string   `json:"country"`
	ISOCountryCode string   `json:"iso_country_code"`
	Lat            *float64 `json:"lat"`
	Lng            *float64 `json:"lng"`
	Confidence     float64  `json:"confidence"`
}

// Resolved reports whether the location points at a concrete country.
func (l ResolvedLocation) Resolved() bool {
	return l.ISOCountryCode != "" && l.ISOCountryCode != GlobalISO
}

type Period string

const (
	PeriodYear  Period = "year"
	PeriodMonth Period = "month"
	PeriodDay   Period = "day"
	PeriodHour  Period = "hour"
)

// PerYear is the number of periods in a working year.
func (p Period) PerYear() float64 {
	switch p {
	case PeriodMonth:
		return 12
	case PeriodDay:
		return 260
	case PeriodHour:
		return 2080
	default:
		return 1
	}
}

type Basis string

const (
	BasisGross Basis = "gross"
	BasisNet   Basis = "net"
)

type SalaryFigure struct {
	Min            float64 `json:"min"`
	Max            float64 `json:"max"`
	Currency       string  `json:"currency"`
	Period         Period  `json:"period"`
	Basis          Basis   `json:"basis"`
	DataQuality    float64 `json:"data_quality"`
	InferenceBasis *string `json:"inference_basis"`
}

// Midpoint returns the centre of the range in the figure's own period.
func (s SalaryFigure) Midpoint() float64 {
	return (s.Min + s.Max) / 2
}

// AnnualMidpoint returns the midpoint scaled to a yearly amount.
func (s SalaryFigure) AnnualMidpoint() float64 {
	return s.Midpoint() * s.Period.PerYear()
}

type SalaryRange struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Currency string  `json:"currency"`
	Period   Period  `json:"period"`
}

type TaxMethod string

const (
	TaxMethodModel       TaxMethod = "model"
	TaxMethodApproxTable TaxMethod = "approx_table"
	TaxMethodInference   TaxMethod = "inference"
)

type TaxResult struct {
	MonthlyNetIncome float64   `json:"monthly_net_income"`
	ModelVersion     string    `json:"model_version"`
	Method           TaxMethod `json:"method"`
	Currency         string    `json:"currency"`
}

type ColMethod string

const (
	ColMethodCity      ColMethod = "city"
	ColMethodAdminArea ColMethod = "admin_area"
	ColMethodCountry   ColMethod = "country"
	ColMethodInference ColMethod = "inference"
)

type ColResult struct {
	MonthlyCoreExpenses float64            `json:"monthly_core_expenses"`
	ModelVersion        string             `json:"model_version"`
	Method              ColMethod          `json:"method"`
	Currency            string             `json:"currency"`
	Categories          map[string]float64 `json:"categories,omitempty"`
}

type AffordabilityLabel string

const (
	LabelUnaffordable    AffordabilityLabel = "unaffordable"
	LabelTight           AffordabilityLabel = "tight"
	LabelComfortable     AffordabilityLabel = "comfortable"
	LabelVeryComfortable AffordabilityLabel = "very_comfortable"
)

type AffordabilityResult struct {
	Score float64            `json:"score"`
	Label AffordabilityLabel `json:"label"`
}

type SourceType string

const (
	SourceAPI       SourceType = "api"
	SourceCache     SourceType = "cache"
	SourceScrape    SourceType = "scrape"
	SourceInference SourceType = "inference"
)

type ProvenanceEntry struct {
	Field       string     `json:"field"`
	SourceType  SourceType `json:"source_type"`
	URLOrName   string     `json:"url_or_name"`
	RetrievedAt string     `json:"retrieved_at"`
}

type ConfidenceLevel string

const (
	ConfidenceLow    ConfidenceLevel = "low"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceHigh   ConfidenceLevel = "high"
)

type Confidence struct {
	Level   ConfidenceLevel `json:"level"`
	Reasons []string        `json:"reasons"`
}

type CacheMeta struct {
	CacheHits   []string `json:"cache_hits"`
	CacheMisses []string `json:"cache_misses"`
}

type Assumptions struct {
	TaxFilingStatus string `json:"tax_filing_status"`
	Dependents      int    `json:"dependents"`
	HousingType     string `json:"housing_type"`
	HouseholdSize   int    `json:"household_size"`
}

// DefaultAssumptions describes the household every model in this revision is calibrated for.
func DefaultAssumptions() Assumptions {
	return Assumptions{
		TaxFilingStatus: "single",
		Dependents:      0,
		HousingType:     "one_bedroom_city_centre",
		HouseholdSize:   1,
	}
}

type ModelVersions struct {
	RoleTaxonomy string `json:"role_taxonomy"`
	Location     string `json:"location"`
	Tax          string `json:"country_tax_model_version"`
	Col          string `json:"col_model_version"`
	FX           string `json:"fx"`
	PayBands     string `json:"pay_bands"`
}

// Result is the terminal aggregate returned for every request.
type Result struct {
	SchemaVersion      string `json:"schema_version"`
	MethodologyVersion string `json:"methodology_version"`
	GeneratedAtUTC     string `json:"generated_at_utc"`

	SchemaValid      bool     `json:"schema_valid"`
	ValidationErrors []string `json:"validation_errors"`

	JobTitle           string              `json:"job_title"`
	NormalizedRole     string              `json:"normalized_role"`
	NormalizedRoleSlug string              `json:"normalized_role_slug"`
	Level              Level               `json:"level"`
	LevelRank          int                 `json:"level_rank"`
	Location           ResolvedLocation    `json:"location"`
	WorkMode           WorkMode            `json:"work_mode"`
	ReportingCurrency  string              `json:"reporting_currency"`
	ListedSalary       *SalaryFigure       `json:"listed_salary"`
	ExpectedSalary     *SalaryRange        `json:"expected_salary"`
	NetIncome          *TaxResult          `json:"net_income"`
	CostOfLiving       *ColResult          `json:"cost_of_living"`
	AffordabilityScore *float64            `json:"affordability_score"`
	AffordabilityLabel *AffordabilityLabel `json:"affordability_label"`

	Confidence   Confidence        `json:"confidence"`
	Explanations []string          `json:"explanations"`
	CalcNotes    []string          `json:"calc_notes"`
	Provenance   []ProvenanceEntry `json:"provenance"`
	CacheMeta    CacheMeta         `json:"cache_meta"`
	Assumptions  Assumptions       `json:"assumptions"`
	Versions     ModelVersions     `json:"model_versions"`
	Budget       ComputationBudget `json:"computation_budget"`
}

// CanonicalJSON marshals the result without generated_at_utc, the only field
// allowed to differ between two runs over the same input.
func (r Result) CanonicalJSON() ([]byte, error) {
	r.GeneratedAtUTC = ""
	return json.Marshal(r)
}
