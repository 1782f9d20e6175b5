package engine

import (
	"fmt"
	"time"

	"github.com/spigell/salary-intel/internal/intel"
)

const processingErrorPrefix = "Processing error: "

// build assembles the result from whatever the stages produced. A non-nil
// err marks the result invalid but keeps every field already computed.
func (e *Engine) build(st *state, err error) intel.Result {
	res := intel.Result{
		SchemaVersion:      intel.SchemaVersion,
		MethodologyVersion: intel.MethodologyVersion,
		GeneratedAtUTC:     e.clock().UTC().Format(time.RFC3339),
		SchemaValid:        true,
		ValidationErrors:   []string{},

		JobTitle:           st.req.JobTitle,
		NormalizedRole:     st.role.Role.Name,
		NormalizedRoleSlug: st.role.Role.Slug,
		Level:              st.role.Role.Level,
		LevelRank:          st.role.Role.LevelRank,
		Location:           st.location.Location,
		WorkMode:           st.req.WorkMode,
		ReportingCurrency:  st.currency,
		ListedSalary:       st.listed,
		ExpectedSalary:     st.expected,
		NetIncome:          st.net,
		CostOfLiving:       st.col,

		Explanations: nonNil(st.explanations),
		CalcNotes:    nonNil(st.notes),
		Provenance:   st.ledger.Entries(),
		CacheMeta:    st.ledger.CacheMeta(),
		Assumptions:  intel.DefaultAssumptions(),
		Versions:     e.tables.Versions(),
		Budget:       st.budget,
	}
	if res.Level == "" {
		res.Level = intel.LevelUnknown
		res.LevelRank = intel.LevelUnknown.Rank()
	}

	res.Versions.FX = st.session.Version()
	if st.col != nil {
		res.Versions.Col = st.col.ModelVersion
	}

	if st.afford != nil {
		score, label := st.afford.Score, st.afford.Label
		res.AffordabilityScore = &score
		res.AffordabilityLabel = &label
	}

	if st.confidence != nil {
		res.Confidence = *st.confidence
	} else {
		res.Confidence = intel.Confidence{
			Level:   intel.ConfidenceLow,
			Reasons: []string{fmt.Sprintf("processing stopped at stage %s", st.stage)},
		}
	}

	if err != nil {
		res.SchemaValid = false
		res.ValidationErrors = []string{processingErrorPrefix + err.Error()}
	}
	return res
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
