// Package col models monthly core living expenses for a resolved location.
//
// Lookups walk city, admin area and country, asking each source in turn, and
// fall back to a world-average basket scaled by the country's income tier.
// Every amount is computed in the table currency and converted at the end.
package col

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/spigell/salary-intel/internal/intel"
	"github.com/spigell/salary-intel/internal/logger"
	"github.com/spigell/salary-intel/internal/provenance"
	"github.com/spigell/salary-intel/internal/tables"
	"github.com/spigell/salary-intel/internal/utils"
)

const field = "cost_of_living"

// MaxTimeout bounds a single source lookup.
const MaxTimeout = 10 * time.Second

type Converter interface {
	Convert(ctx context.Context, field string, amount float64, from, to string) (float64, error)
}

type Input struct {
	ISO       string
	City      string
	AdminArea string
	// Tier is the country's income tier; blank for unresolved locations.
	Tier              string
	ReportingCurrency string
}

type Outcome struct {
	Result     intel.ColResult
	Provenance intel.ProvenanceEntry
	Notes      []string
}

type Model struct {
	table   *tables.ColTables
	sources []Source
	timeout time.Duration
	logger  *zap.Logger
}

type Option func(*Model)

// WithSource asks src before any source added earlier and before the bundled table.
func WithSource(src Source) Option {
	return func(m *Model) { m.sources = append([]Source{src}, m.sources...) }
}

func WithTimeout(d time.Duration) Option {
	return func(m *Model) { m.timeout = d }
}

func WithLogger(l *zap.Logger) Option {
	return func(m *Model) { m.logger = l }
}

func NewModel(t *tables.ColTables, opts ...Option) *Model {
	m := &Model{
		table:   t,
		sources: []Source{NewTableSource(t)},
		timeout: time.Second,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.timeout <= 0 || m.timeout > MaxTimeout {
		m.timeout = MaxTimeout
	}
	m.logger = logger.WithFields(m.logger, zap.String("component", "col"))
	return m
}

// Keys lists the hierarchy levels that apply to in, most specific first.
func Keys(in Input) []Key {
	if in.ISO == "" || in.ISO == intel.GlobalISO {
		return nil
	}
	var keys []Key
	if in.City != "" {
		keys = append(keys, Key{Method: intel.ColMethodCity, ISO: in.ISO, Name: in.City})
	}
	if in.AdminArea != "" {
		keys = append(keys, Key{Method: intel.ColMethodAdminArea, ISO: in.ISO, Name: in.AdminArea})
	}
	return append(keys, Key{Method: intel.ColMethodCountry, ISO: in.ISO})
}

// Compute returns the first populated level, or the inference basket.
func (m *Model) Compute(ctx context.Context, conv Converter, in Input) (Outcome, error) {
	for _, key := range Keys(in) {
		entry, src, ok := m.lookup(ctx, key)
		if !ok {
			continue
		}
		out, err := m.build(ctx, conv, in.ReportingCurrency, key.Method, src.Version(), func(category string) float64 {
			index := entry.Index
			if v, ok := entry.Overrides[category]; ok {
				index = v
			}
			return m.table.Baseline[category] * index / 100
		})
		if err != nil {
			return Outcome{}, err
		}
		out.Provenance = intel.ProvenanceEntry{
			Field:       field,
			SourceType:  src.Type(),
			URLOrName:   src.Name(),
			RetrievedAt: provenance.Timestamp(src.AsOf()),
		}
		out.Notes = append(out.Notes, fmt.Sprintf("cost of living from %s level (%s)", key.Method, src.Name()))
		return out, nil
	}

	tier := in.Tier
	if tier == "" {
		tier = "unknown"
	}
	multiplier := m.table.TierMultiplier(tier)
	out, err := m.build(ctx, conv, in.ReportingCurrency, intel.ColMethodInference, m.table.Version, func(category string) float64 {
		return m.table.Baseline[category] * multiplier
	})
	if err != nil {
		return Outcome{}, err
	}
	out.Provenance = intel.ProvenanceEntry{
		Field:       field,
		SourceType:  intel.SourceInference,
		URLOrName:   "col-inference:" + m.table.Version,
		RetrievedAt: provenance.Timestamp(m.table.AsOf),
	}
	out.Notes = append(out.Notes, fmt.Sprintf("cost of living inferred from baseline basket x %.2f (%s tier)", multiplier, tier))
	return out, nil
}

func (m *Model) lookup(ctx context.Context, key Key) (tables.ColEntry, Source, bool) {
	for _, src := range m.sources {
		lctx, cancel := context.WithTimeout(ctx, m.timeout)
		entry, ok, err := src.Lookup(lctx, key)
		cancel()
		if err != nil {
			m.logger.Warn("col source failed, trying next",
				zap.String("source", src.Name()),
				zap.String("method", string(key.Method)),
				zap.Error(err),
			)
			continue
		}
		if ok {
			return entry, src, true
		}
	}
	return tables.ColEntry{}, nil, false
}

func (m *Model) build(ctx context.Context, conv Converter, currency string, method intel.ColMethod, version string, cost func(string) float64) (Outcome, error) {
	categories := make(map[string]float64, len(m.table.Baseline))
	var total float64
	for _, category := range m.table.Categories() {
		v, err := conv.Convert(ctx, field, cost(category), m.table.Currency, currency)
		if err != nil {
			return Outcome{}, eris.Wrapf(err, "col: convert %s", category)
		}
		v = utils.Round(v, 0.01)
		categories[category] = v
		total += v
	}

	return Outcome{Result: intel.ColResult{
		MonthlyCoreExpenses: utils.Round(total, 0.01),
		ModelVersion:        version,
		Method:              method,
		Currency:            currency,
		Categories:          categories,
	}}, nil
}
