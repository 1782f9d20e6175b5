package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/spigell/salary-intel/internal/affordability"
	"github.com/spigell/salary-intel/internal/col"
	"github.com/spigell/salary-intel/internal/estimate"
	"github.com/spigell/salary-intel/internal/fx"
	"github.com/spigell/salary-intel/internal/intel"
	"github.com/spigell/salary-intel/internal/location"
	"github.com/spigell/salary-intel/internal/provenance"
	"github.com/spigell/salary-intel/internal/role"
	"github.com/spigell/salary-intel/internal/salary"
	"github.com/spigell/salary-intel/internal/tables"
	"github.com/spigell/salary-intel/internal/tax"
	"github.com/spigell/salary-intel/internal/utils"
)

const (
	basisRequestCurrency   = "request_currency"
	basisReportingCurrency = "reporting_currency"
)

// state is the per-request working set the stages fill in.
type state struct {
	req     intel.Request
	budget  intel.ComputationBudget
	ledger  *provenance.Ledger
	session *fx.Session
	stage   string

	role     role.Result
	location location.Result
	country  *tables.Country
	listed   *intel.SalaryFigure

	currency   string
	expected   *intel.SalaryRange
	net        *intel.TaxResult
	col        *intel.ColResult
	afford     *intel.AffordabilityResult
	confidence *intel.Confidence

	explanations []string
	notes        []string
}

func (st *state) explain(format string, args ...any) {
	st.explanations = append(st.explanations, fmt.Sprintf(format, args...))
}

func (st *state) note(notes ...string) {
	st.notes = append(st.notes, notes...)
}

// explainParse records what the text parsers made of the request.
func explainParse(st *state) {
	r := st.role
	if r.Matched {
		st.explain("title %q matched %s via %q; level %s from %s",
			st.req.JobTitle, r.Role.Slug, r.Keyword, r.Role.Level, r.Basis)
	} else {
		st.explain("title %q matched no role family; kept as given with unknown level", st.req.JobTitle)
	}

	loc := st.location
	st.explain("location resolved to %s (%s, confidence %.2f)",
		describeLocation(loc.Location), loc.Match, loc.Location.Confidence)
	if loc.Fuzzy {
		st.note(fmt.Sprintf("country %s matched approximately", loc.Location.Country))
	}
	if loc.Substituted != "" && loc.Location.City != nil {
		st.note(fmt.Sprintf("city %q not recognised; substituted default city %s", loc.Substituted, *loc.Location.City))
	}
}

// reportingCurrency picks the country currency, else the default tax
// country's currency.
func (e *Engine) reportingCurrency(_ context.Context, st *state) error {
	if st.country != nil {
		st.currency = st.country.Currency
	} else {
		st.currency = e.tables.Tax.Default().Currency
		st.note(fmt.Sprintf("no resolved country; reporting in %s", st.currency))
	}
	return nil
}

// listedSalary fills in a missing currency and expresses the figure in the
// reporting currency.
func (e *Engine) listedSalary(ctx context.Context, st *state) error {
	if st.req.Currency != "" && !e.fx.Known(st.req.Currency) {
		st.note(fmt.Sprintf("request currency %s is unknown; ignored", st.req.Currency))
		st.req.Currency = ""
	}

	if st.listed == nil {
		if st.req.SalaryInfo == "" {
			st.explain("no salary supplied; net income and affordability not computed")
		} else {
			st.explain("no salary figure found in %q; net income and affordability not computed", st.req.SalaryInfo)
			if salary.OutOfRange(st.req.SalaryInfo) {
				st.note(fmt.Sprintf("salary amount above %.0f per period ignored", salary.MaxAmount))
			}
		}
		return nil
	}

	fig := *st.listed
	if fig.Currency == "" {
		basis := basisReportingCurrency
		fig.Currency = st.currency
		if st.req.Currency != "" {
			basis = basisRequestCurrency
			fig.Currency = st.req.Currency
		}
		fig.InferenceBasis = &basis
		st.note(fmt.Sprintf("salary currency not stated; assumed %s (%s)", fig.Currency, basis))
	}

	if !strings.EqualFold(fig.Currency, st.currency) {
		from := fig.Currency
		for _, v := range []*float64{&fig.Min, &fig.Max} {
			converted, err := st.session.Convert(ctx, "listed_salary", *v, from, st.currency)
			if err != nil {
				return eris.Wrap(err, "listed salary")
			}
			*v = utils.Round(converted, 0.01)
		}
		fig.Currency = st.currency
		st.note(fmt.Sprintf("listed salary converted from %s to %s", from, st.currency))
	}

	st.listed = &fig
	st.explain("listed salary %.0f-%.0f %s per %s (%s, data quality %.1f)",
		fig.Min, fig.Max, fig.Currency, fig.Period, fig.Basis, fig.DataQuality)
	return nil
}

func (e *Engine) expectedSalary(ctx context.Context, st *state) error {
	in := estimate.Input{
		Family:            st.role.Role.Slug,
		Level:             st.role.Role.Level,
		ISO:               st.location.Location.ISOCountryCode,
		Global:            st.location.Location.Country == intel.GlobalCountry,
		ReportingCurrency: st.currency,
	}
	if st.country != nil && st.location.Location.City != nil {
		if city, ok := st.country.City(*st.location.Location.City); ok {
			in.CityPremium = city.Premium
		}
	}

	out, err := e.estimator.Estimate(ctx, st.session, in)
	if err != nil {
		return err
	}
	st.expected = &out.Range
	st.ledger.Record(out.Provenance)
	st.note(out.Notes...)
	st.explain("expected salary %.0f-%.0f %s per year for %s %s",
		out.Range.Min, out.Range.Max, out.Range.Currency, st.role.Role.Level, st.role.Role.Slug)
	return nil
}

func (e *Engine) netIncome(ctx context.Context, st *state) error {
	if st.listed == nil {
		return nil
	}
	out, err := e.tax.Compute(ctx, st.session, tax.Input{
		ISO:               st.location.Location.ISOCountryCode,
		AnnualAmount:      st.listed.AnnualMidpoint(),
		Currency:          st.listed.Currency,
		Basis:             st.listed.Basis,
		ReportingCurrency: st.currency,
	})
	if err != nil {
		return err
	}
	st.net = &out.Result
	st.ledger.Record(out.Provenance)
	st.note(out.Notes...)
	st.explain("monthly net income %.2f %s using %s (%s)",
		out.Result.MonthlyNetIncome, out.Result.Currency, out.Result.ModelVersion, out.Result.Method)
	return nil
}

func (e *Engine) costOfLiving(ctx context.Context, st *state) error {
	loc := st.location.Location
	in := col.Input{
		ISO:               loc.ISOCountryCode,
		ReportingCurrency: st.currency,
	}
	if loc.City != nil {
		in.City = *loc.City
	}
	if loc.AdminArea != nil {
		in.AdminArea = *loc.AdminArea
	}
	if st.country != nil {
		in.Tier = st.country.Tier
	}

	out, err := e.col.Compute(ctx, st.session, in)
	if err != nil {
		return err
	}
	st.col = &out.Result
	st.ledger.Record(out.Provenance)
	st.note(out.Notes...)
	st.explain("monthly core expenses %.2f %s (%s level)",
		out.Result.MonthlyCoreExpenses, out.Result.Currency, out.Result.Method)
	return nil
}

func (e *Engine) affordability(_ context.Context, st *state) error {
	if st.net == nil || st.col == nil {
		return nil
	}
	net, expenses := st.net.MonthlyNetIncome, st.col.MonthlyCoreExpenses
	r, ok := affordability.Score(&net, &expenses)
	if !ok {
		return nil
	}
	st.afford = &r
	st.explain("%s", affordability.Explain(r, st.currency, net, expenses))
	return nil
}

func (e *Engine) confidence(_ context.Context, st *state) error {
	c := provenance.Assess(provenance.Signals{
		ListedSalary:       st.listed != nil,
		LocationConfidence: st.location.Location.Confidence,
		ExperienceYears:    st.req.ExperienceYears != nil,
		SeniorityKeyword:   st.role.HasSeniorityKeyword(),
		RoleMatched:        st.role.Matched,
	})
	st.confidence = &c
	return nil
}

func describeLocation(l intel.ResolvedLocation) string {
	parts := make([]string, 0, 3)
	if l.City != nil {
		parts = append(parts, *l.City)
	}
	if l.AdminArea != nil {
		parts = append(parts, *l.AdminArea)
	}
	parts = append(parts, l.Country)
	return strings.Join(parts, ", ")
}
