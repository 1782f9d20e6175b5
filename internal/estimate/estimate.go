// Package estimate derives the expected annual pay range for a role and
// location from the pay band table.
package estimate

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/spigell/salary-intel/internal/intel"
	"github.com/spigell/salary-intel/internal/provenance"
	"github.com/spigell/salary-intel/internal/tables"
	"github.com/spigell/salary-intel/internal/utils"
)

const field = "expected_salary"

type Converter interface {
	Convert(ctx context.Context, field string, amount float64, from, to string) (float64, error)
}

type Input struct {
	Family string
	Level  intel.Level
	ISO    string
	// Global marks remote-anywhere roles, which are paid at the remote factor.
	Global bool
	// CityPremium scales pay for expensive metros; zero means no premium.
	CityPremium       float64
	ReportingCurrency string
}

type Outcome struct {
	Range      intel.SalaryRange
	Provenance intel.ProvenanceEntry
	Notes      []string
}

type Estimator struct {
	bands *tables.PayBands
}

func NewEstimator(bands *tables.PayBands) *Estimator {
	return &Estimator{bands: bands}
}

// Midpoint returns the annual midpoint in the band currency and the factors
// behind it.
func (e *Estimator) Midpoint(in Input) (float64, []string) {
	base, banded := e.bands.Base(in.Family)
	level := e.bands.LevelMultiplier(in.Level)

	var (
		country float64
		where   string
	)
	switch {
	case in.Global:
		country, where = e.bands.RemoteFactor, "remote"
	default:
		var ok bool
		country, ok = e.bands.CountryFactor(in.ISO)
		where = in.ISO
		if !ok {
			where = "default"
		}
	}

	premium := in.CityPremium
	if premium <= 0 {
		premium = 1
	}

	var notes []string
	if !banded {
		notes = append(notes, fmt.Sprintf("no pay band for %q; used default base", in.Family))
	}
	notes = append(notes, fmt.Sprintf("expected salary: %.0f %s base x %.2f level x %.2f %s x %.2f city",
		base, e.bands.Currency, level, country, where, premium))

	return base * level * country * premium, notes
}

// Estimate spreads the midpoint into a range in the reporting currency.
func (e *Estimator) Estimate(ctx context.Context, conv Converter, in Input) (Outcome, error) {
	mid, notes := e.Midpoint(in)

	bounds := [2]float64{mid * (1 - e.bands.Spread), mid * (1 + e.bands.Spread)}
	for i, v := range bounds {
		converted, err := conv.Convert(ctx, field, v, e.bands.Currency, in.ReportingCurrency)
		if err != nil {
			return Outcome{}, eris.Wrap(err, "estimate: convert")
		}
		bounds[i] = utils.Round(converted, e.bands.RoundTo)
	}

	return Outcome{
		Range: intel.SalaryRange{
			Min:      bounds[0],
			Max:      bounds[1],
			Currency: in.ReportingCurrency,
			Period:   intel.PeriodYear,
		},
		Provenance: intel.ProvenanceEntry{
			Field:       field,
			SourceType:  intel.SourceInference,
			URLOrName:   "paybands:" + e.bands.Version,
			RetrievedAt: provenance.Timestamp(e.bands.AsOf),
		},
		Notes: notes,
	}, nil
}
