// Package tax turns a gross annual salary into monthly net income using the
// model of the resolved country, or the default country's model when none
// exists.
package tax

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/spigell/salary-intel/internal/intel"
	"github.com/spigell/salary-intel/internal/provenance"
	"github.com/spigell/salary-intel/internal/tables"
	"github.com/spigell/salary-intel/internal/utils"
)

// Converter moves amounts between currencies and cites the rate for field.
type Converter interface {
	Convert(ctx context.Context, field string, amount float64, from, to string) (float64, error)
}

const field = "net_income"

type Input struct {
	ISO               string
	AnnualAmount      float64
	Currency          string
	Basis             intel.Basis
	ReportingCurrency string
}

type Outcome struct {
	Result intel.TaxResult
	// Model is the model actually applied.
	Model      tables.TaxModel
	Provenance intel.ProvenanceEntry
	Notes      []string
}

// Selection is one resolved link of the chain.
type Selection struct {
	Model  tables.TaxModel
	Method intel.TaxMethod
}

// Level looks up a model for a country and reports whether it applies.
type Level interface {
	Name() string
	Lookup(iso string) (Selection, bool)
}

type Calculator struct {
	levels []Level
	asOf   string
}

// NewCalculator builds the country then default-country chain over t.
func NewCalculator(t *tables.TaxTables) *Calculator {
	return &Calculator{
		levels: []Level{
			countryLevel{tables: t},
			defaultLevel{tables: t},
		},
		asOf: t.AsOf,
	}
}

// Select walks the chain and returns the first level that answers.
func (c *Calculator) Select(iso string) (Selection, error) {
	for _, level := range c.levels {
		if sel, ok := level.Lookup(iso); ok {
			return sel, nil
		}
	}
	return Selection{}, eris.Errorf("tax: no model for %q", iso)
}

// Compute converts the salary into the model currency, applies the model and
// reports monthly net in the reporting currency.
func (c *Calculator) Compute(ctx context.Context, conv Converter, in Input) (Outcome, error) {
	sel, err := c.Select(in.ISO)
	if err != nil {
		return Outcome{}, err
	}
	model := sel.Model

	out := Outcome{Model: model, Provenance: c.provenance(sel)}

	gross, err := conv.Convert(ctx, field, in.AnnualAmount, in.Currency, model.Currency)
	if err != nil {
		return Outcome{}, eris.Wrap(err, "tax: convert gross")
	}

	annualNet := gross
	if in.Basis == intel.BasisNet {
		out.Notes = append(out.Notes, "listed salary is net; no tax applied")
	} else {
		annualNet = AnnualNet(model, gross)
		out.Notes = append(out.Notes, fmt.Sprintf("tax %s (%s): %.0f %s gross -> %.0f %s net per year",
			model.Version, sel.Method, gross, model.Currency, annualNet, model.Currency))
	}
	if sel.Method == intel.TaxMethodInference {
		out.Notes = append(out.Notes, fmt.Sprintf("no tax model for %s; applied %s model", in.ISO, model.Country))
	}

	monthly, err := conv.Convert(ctx, field, annualNet/12, model.Currency, in.ReportingCurrency)
	if err != nil {
		return Outcome{}, eris.Wrap(err, "tax: convert net")
	}

	out.Result = intel.TaxResult{
		MonthlyNetIncome: utils.Round(monthly, 0.01),
		ModelVersion:     model.Version,
		Method:           sel.Method,
		Currency:         in.ReportingCurrency,
	}
	return out, nil
}

func (c *Calculator) provenance(sel Selection) intel.ProvenanceEntry {
	source := intel.SourceCache
	if sel.Method == intel.TaxMethodInference {
		source = intel.SourceInference
	}
	return intel.ProvenanceEntry{
		Field:       field,
		SourceType:  source,
		URLOrName:   "taxmodel:" + sel.Model.Version,
		RetrievedAt: provenance.Timestamp(c.asOf),
	}
}

// AnnualNet applies model to gross, both in the model currency.
func AnnualNet(model tables.TaxModel, gross float64) float64 {
	if gross <= 0 {
		return 0
	}

	if model.Method == tables.TaxMethodApproxTable {
		return gross * (1 - EffectiveRate(model.Effective, gross))
	}

	taxable := gross
	if model.TaxableRatio > 0 {
		taxable *= model.TaxableRatio
	}
	taxable -= model.Deduction
	if taxable < 0 {
		taxable = 0
	}

	income := Progressive(model.Brackets, taxable)
	if model.RebateThreshold > 0 && taxable <= model.RebateThreshold {
		income = 0
	}
	income *= 1 + model.Cess

	social := Progressive(model.Social, gross)

	net := gross - income - social
	if net < 0 {
		return 0
	}
	return net
}

// Progressive charges each slice of amount at its band rate.
func Progressive(bands []tables.Bracket, amount float64) float64 {
	var (
		total float64
		lower float64
	)
	for _, b := range bands {
		if amount <= lower {
			break
		}
		upper := amount
		if b.UpTo > 0 && b.UpTo < amount {
			upper = b.UpTo
		}
		total += (upper - lower) * b.Rate
		if b.UpTo == 0 {
			break
		}
		lower = b.UpTo
	}
	return total
}

// EffectiveRate returns the rate of the band containing amount.
func EffectiveRate(bands []tables.Bracket, amount float64) float64 {
	for _, b := range bands {
		if b.UpTo == 0 || amount <= b.UpTo {
			return b.Rate
		}
	}
	if len(bands) > 0 {
		return bands[len(bands)-1].Rate
	}
	return 0
}

type countryLevel struct {
	tables *tables.TaxTables
}

func (countryLevel) Name() string { return "country" }

func (l countryLevel) Lookup(iso string) (Selection, bool) {
	model, ok := l.tables.Model(iso)
	if !ok {
		return Selection{}, false
	}
	method := intel.TaxMethodModel
	if model.Method == tables.TaxMethodApproxTable {
		method = intel.TaxMethodApproxTable
	}
	return Selection{Model: model, Method: method}, true
}

type defaultLevel struct {
	tables *tables.TaxTables
}

func (defaultLevel) Name() string { return "default_country" }

func (l defaultLevel) Lookup(string) (Selection, bool) {
	return Selection{Model: l.tables.Default(), Method: intel.TaxMethodInference}, true
}
