package tax

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/salary-intel/internal/fx"
	"github.com/spigell/salary-intel/internal/intel"
	"github.com/spigell/salary-intel/internal/provenance"
	"github.com/spigell/salary-intel/internal/tables"
)

func fixture(t *testing.T) (*Calculator, *tables.Set) {
	t.Helper()
	set, err := tables.Default()
	require.NoError(t, err)
	return NewCalculator(set.Tax), set
}

func session(t *testing.T, set *tables.Set) (*fx.Session, *provenance.Ledger) {
	t.Helper()
	ledger := provenance.NewLedger()
	return fx.NewConverter(fx.NewStaticSource(set.FX)).Session(ledger), ledger
}

func TestAnnualNet(t *testing.T) {
	t.Parallel()
	_, set := fixture(t)

	model := func(iso string) tables.TaxModel {
		m, ok := set.Tax.Model(iso)
		require.True(t, ok, iso)
		return m
	}

	tests := []struct {
		name  string
		iso   string
		gross float64
		want  float64
	}{
		{name: "us progressive with deduction", iso: "US", gross: 100000, want: 78736},
		{name: "gb zero band", iso: "GB", gross: 50000, want: 39519.6},
		{name: "in rebate wipes income tax", iso: "IN", gross: 1000000, want: 978400},
		{name: "ie approx table", iso: "IE", gross: 50000, want: 35000},
		{name: "ae no tax", iso: "AE", gross: 200000, want: 200000},
		{name: "zero gross", iso: "US", gross: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, AnnualNet(model(tt.iso), tt.gross), 0.01)
		})
	}
}

func TestAnnualNetRebateAppliesCessAboveThreshold(t *testing.T) {
	t.Parallel()
	m := tables.TaxModel{
		Method:          tables.TaxMethodModel,
		RebateThreshold: 100,
		Cess:            0.1,
		Brackets:        []tables.Bracket{{Rate: 0.5}},
	}
	assert.InDelta(t, 100, AnnualNet(m, 100), 1e-9)
	// 200 * 0.5 * 1.1
	assert.InDelta(t, 90, AnnualNet(m, 200), 1e-9)
}

func TestProgressive(t *testing.T) {
	t.Parallel()
	bands := []tables.Bracket{{UpTo: 10, Rate: 0.1}, {UpTo: 20, Rate: 0.2}, {Rate: 0.5}}

	assert.InDelta(t, 0.5, Progressive(bands, 5), 1e-9)
	assert.InDelta(t, 3, Progressive(bands, 20), 1e-9)
	assert.InDelta(t, 8, Progressive(bands, 30), 1e-9)
	assert.InDelta(t, 0, Progressive(nil, 30), 1e-9)

	capped := []tables.Bracket{{UpTo: 10, Rate: 0.1}}
	assert.InDelta(t, 1, Progressive(capped, 50), 1e-9)
}

func TestEffectiveRate(t *testing.T) {
	t.Parallel()
	bands := []tables.Bracket{{UpTo: 10, Rate: 0.1}, {Rate: 0.3}}
	assert.InDelta(t, 0.1, EffectiveRate(bands, 10), 1e-9)
	assert.InDelta(t, 0.3, EffectiveRate(bands, 11), 1e-9)
	assert.InDelta(t, 0, EffectiveRate(nil, 11), 1e-9)
}

func TestSelect(t *testing.T) {
	t.Parallel()
	calc, _ := fixture(t)

	sel, err := calc.Select("de")
	require.NoError(t, err)
	assert.Equal(t, intel.TaxMethodModel, sel.Method)
	assert.Equal(t, "de-2025.1", sel.Model.Version)

	sel, err = calc.Select("CH")
	require.NoError(t, err)
	assert.Equal(t, intel.TaxMethodApproxTable, sel.Method)

	sel, err = calc.Select("NG")
	require.NoError(t, err)
	assert.Equal(t, intel.TaxMethodInference, sel.Method)
	assert.Equal(t, "US", sel.Model.Country)

	sel, err = calc.Select("XX")
	require.NoError(t, err)
	assert.Equal(t, intel.TaxMethodInference, sel.Method)
}

func TestCompute(t *testing.T) {
	t.Parallel()
	calc, set := fixture(t)
	s, ledger := session(t, set)

	out, err := calc.Compute(context.Background(), s, Input{
		ISO:               "US",
		AnnualAmount:      100000,
		Currency:          "USD",
		Basis:             intel.BasisGross,
		ReportingCurrency: "USD",
	})
	require.NoError(t, err)
	assert.Equal(t, intel.TaxResult{
		MonthlyNetIncome: 6561.33,
		ModelVersion:     "us-2025.1",
		Method:           intel.TaxMethodModel,
		Currency:         "USD",
	}, out.Result)
	assert.Len(t, out.Notes, 1)
	assert.Equal(t, intel.SourceCache, out.Provenance.SourceType)
	assert.Empty(t, ledger.Entries())
}

func TestComputeConvertsThroughModelCurrency(t *testing.T) {
	t.Parallel()
	calc, set := fixture(t)
	s, ledger := session(t, set)

	out, err := calc.Compute(context.Background(), s, Input{
		ISO:               "IE",
		AnnualAmount:      50000 / 0.855,
		Currency:          "USD",
		Basis:             intel.BasisGross,
		ReportingCurrency: "EUR",
	})
	require.NoError(t, err)
	assert.InDelta(t, 35000.0/12, out.Result.MonthlyNetIncome, 0.01)
	assert.Equal(t, intel.TaxMethodApproxTable, out.Result.Method)
	assert.Equal(t, "EUR", out.Result.Currency)

	entries := ledger.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "net_income", entries[0].Field)
}

func TestComputeInferenceNotes(t *testing.T) {
	t.Parallel()
	calc, set := fixture(t)
	s, _ := session(t, set)

	out, err := calc.Compute(context.Background(), s, Input{
		ISO:               "NG",
		AnnualAmount:      100000,
		Currency:          "USD",
		Basis:             intel.BasisGross,
		ReportingCurrency: "USD",
	})
	require.NoError(t, err)
	assert.Equal(t, intel.TaxMethodInference, out.Result.Method)
	assert.Equal(t, "us-2025.1", out.Result.ModelVersion)
	assert.Contains(t, out.Notes, "no tax model for NG; applied US model")
	assert.Equal(t, intel.ProvenanceEntry{
		Field:       "net_income",
		SourceType:  intel.SourceInference,
		URLOrName:   "taxmodel:us-2025.1",
		RetrievedAt: "2025-09-01T00:00:00Z",
	}, out.Provenance)
}

func TestComputeNetBasisSkipsTax(t *testing.T) {
	t.Parallel()
	calc, set := fixture(t)
	s, _ := session(t, set)

	out, err := calc.Compute(context.Background(), s, Input{
		ISO:               "GB",
		AnnualAmount:      60000,
		Currency:          "GBP",
		Basis:             intel.BasisNet,
		ReportingCurrency: "GBP",
	})
	require.NoError(t, err)
	assert.InDelta(t, 5000, out.Result.MonthlyNetIncome, 1e-9)
	assert.Equal(t, "gb-2025.1", out.Result.ModelVersion)
	assert.Equal(t, intel.TaxMethodModel, out.Result.Method)
	assert.Contains(t, out.Notes, "listed salary is net; no tax applied")
}

type failingConverter struct{}

func (failingConverter) Convert(context.Context, string, float64, string, string) (float64, error) {
	return 0, errors.New("rates offline")
}

func TestComputeConversionError(t *testing.T) {
	t.Parallel()
	calc, _ := fixture(t)

	_, err := calc.Compute(context.Background(), failingConverter{}, Input{ISO: "US", AnnualAmount: 1, Currency: "USD", ReportingCurrency: "USD"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rates offline")
}
