package salary

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/salary-intel/internal/intel"
	"github.com/spigell/salary-intel/internal/tables"
)

func newParser(t *testing.T) *Parser {
	t.Helper()
	set, err := tables.Default()
	require.NoError(t, err)
	return NewParser(set.FX)
}

func TestParse(t *testing.T) {
	t.Parallel()
	p := newParser(t)

	cases := []struct {
		name     string
		raw      string
		min, max float64
		currency string
		period   intel.Period
		basis    intel.Basis
		quality  float64
	}{
		{"dollar k range", "$120k - $150k", 120000, 150000, "USD", intel.PeriodYear, intel.BasisGross, 0.7},
		{"iso code with separators", "EUR 60.000 – 80.000 per year", 60000, 80000, "EUR", intel.PeriodYear, intel.BasisGross, 0.7},
		{"pound single", "£45,000", 45000, 45000, "GBP", intel.PeriodYear, intel.BasisGross, 0.8},
		{"lakh range inherits multiplier", "₹12-18 LPA", 1200000, 1800000, "INR", intel.PeriodYear, intel.BasisGross, 0.7},
		{"rupees without symbol", "Rs 25 lakh", 2500000, 2500000, "INR", intel.PeriodYear, intel.BasisGross, 0.8},
		{"hourly", "$45/hr", 45, 45, "USD", intel.PeriodHour, intel.BasisGross, 0.8},
		{"monthly net", "3.500 € net per month", 3500, 3500, "EUR", intel.PeriodMonth, intel.BasisNet, 0.8},
		{"to separator", "100k to 400k", 100000, 400000, "", intel.PeriodYear, intel.BasisGross, 0.4},
		{"inverted range", "CAD 90,000 - 70,000", 70000, 90000, "CAD", intel.PeriodYear, intel.BasisGross, 0.7},
		{"canadian symbol", "C$95k", 95000, 95000, "CAD", intel.PeriodYear, intel.BasisGross, 0.8},
		{"daily take home", "GBP 500 per day take home", 500, 500, "GBP", intel.PeriodDay, intel.BasisNet, 0.8},
		{"decimal comma", "€85,5k", 85500, 85500, "EUR", intel.PeriodYear, intel.BasisGross, 0.8},
		{"crore", "1.2 crore", 12000000, 12000000, "INR", intel.PeriodYear, intel.BasisGross, 0.8},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			fig := p.Parse(tc.raw)
			require.NotNil(t, fig)
			assert.InDelta(t, tc.min, fig.Min, 1e-6)
			assert.InDelta(t, tc.max, fig.Max, 1e-6)
			assert.Equal(t, tc.currency, fig.Currency)
			assert.Equal(t, tc.period, fig.Period)
			assert.Equal(t, tc.basis, fig.Basis)
			assert.InDelta(t, tc.quality, fig.DataQuality, 1e-9)
			assert.LessOrEqual(t, fig.Min, fig.Max)
		})
	}
}

func TestParseReturnsNil(t *testing.T) {
	t.Parallel()
	p := newParser(t)

	for _, raw := range []string{
		"",
		"   ",
		"Competitive",
		"Negotiable, up to $100k",
		"DOE",
		"Salary depending on experience",
		"TBD",
		"great benefits",
		"$0",
	} {
		assert.Nil(t, p.Parse(raw), raw)
	}
}

func TestDataQuality(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 0.8, DataQuality(100, 100), 1e-9)
	assert.InDelta(t, 0.8, DataQuality(100, 120), 1e-9)
	assert.InDelta(t, 0.7, DataQuality(100, 130), 1e-9)
	assert.InDelta(t, 0.6, DataQuality(100, 200), 1e-9)
	assert.InDelta(t, 0.4, DataQuality(100, 400), 1e-9)
	assert.InDelta(t, 0.4, DataQuality(0, 0), 1e-9)
}

func TestParseNumber(t *testing.T) {
	t.Parallel()

	cases := map[string]float64{
		"1,200,000": 1200000,
		"1.200.000": 1200000,
		"85.5":      85.5,
		"85,5":      85.5,
		"1.234,56":  1234.56,
		"1,234.56":  1234.56,
		"120,000":   120000,
		"60.000":    60000,
		"0.125":     0.125,
		"150.":      150,
	}
	for in, want := range cases {
		got, ok := parseNumber(in)
		require.True(t, ok, in)
		assert.InDelta(t, want, got, 1e-9, in)
	}
}

func TestParseRejectsOutOfRangeAmounts(t *testing.T) {
	t.Parallel()
	p := newParser(t)

	huge := "$1" + strings.Repeat("0", 307) + "k"
	for _, raw := range []string{
		huge,
		"$100 - " + huge,
		"$5,000,000k",
		"2000 crore",
		"$1" + strings.Repeat("0", 400),
	} {
		assert.Nil(t, p.Parse(raw), raw)
		assert.True(t, OutOfRange(raw), raw)
	}

	for _, raw := range []string{"$120k - $150k", "1.2 crore", "Competitive", ""} {
		assert.False(t, OutOfRange(raw), raw)
	}

	fig := p.Parse("$1,000,000k")
	require.NotNil(t, fig)
	assert.InDelta(t, MaxAmount, fig.Max, 1e-6)
}
