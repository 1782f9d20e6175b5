package cmd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spigell/salary-intel/internal/intel"
	"github.com/spigell/salary-intel/internal/tables"
)

func TestConfigDefaults(t *testing.T) {
	v := viper.New()
	configureViper(v)

	var config Config
	require.NoError(t, v.Unmarshal(&config))

	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, "static", config.FX.Provider)
	assert.Equal(t, 2*time.Second, config.FX.HTTP.Timeout)
	assert.Equal(t, 2, config.FX.HTTP.MaxRetries)
	assert.InDelta(t, 5.0, config.FX.HTTP.RatePerSecond, 1e-9)
	assert.Equal(t, time.Second, config.Col.Timeout)
	assert.Empty(t, config.Tables.Dir)
	assert.False(t, config.Log.Debug)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("SALARY_INTEL_FX_HTTP_TIMEOUT", "5s")
	t.Setenv("SALARY_INTEL_FX_PROVIDER", "http")
	t.Setenv("SALARY_INTEL_SERVER_PORT", "9090")
	t.Setenv("SALARY_INTEL_COL_OVERRIDES_FILE", "/etc/salary-intel/col.yaml")

	v := viper.New()
	configureViper(v)

	var config Config
	require.NoError(t, v.Unmarshal(&config))

	assert.Equal(t, 5*time.Second, config.FX.HTTP.Timeout)
	assert.Equal(t, "http", config.FX.Provider)
	assert.Equal(t, 9090, config.Server.Port)
	assert.Equal(t, "/etc/salary-intel/col.yaml", config.Col.OverridesFile)
}

func TestRequestFromFlags(t *testing.T) {
	t.Parallel()
	cmd := &cobra.Command{Use: "estimate"}
	addEstimateFlags(cmd)

	require.NoError(t, cmd.ParseFlags([]string{
		"-t", "Staff Engineer", "--location", "Remote", "--salary", "$200k",
		"--work-mode", "remote_global", "--tool-calls", "<=3", "--early-stop",
	}))
	req, budget := requestFromFlags(cmd)

	assert.Equal(t, "Staff Engineer", req.JobTitle)
	assert.Equal(t, "Remote", req.Location)
	assert.Equal(t, "$200k", req.SalaryInfo)
	assert.Equal(t, intel.WorkModeRemoteGlobal, req.WorkMode)
	assert.Nil(t, req.ExperienceYears)
	assert.Equal(t, intel.ComputationBudget{LLMCalls: 1, ToolCalls: "<=3", EarlyStop: true}, budget)

	require.NoError(t, cmd.ParseFlags([]string{"--experience", "0"}))
	req, _ = requestFromFlags(cmd)
	require.NotNil(t, req.ExperienceYears)
	assert.Zero(t, *req.ExperienceYears)
}

func TestMoney(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "1,234,567 USD", money(1234567.4, "USD"))
	assert.Equal(t, "120,000 - 150,000 USD", moneyRange(120000, 150000, "USD"))
	assert.Equal(t, "45,000 GBP", moneyRange(45000, 45000, "GBP"))
}

func TestResultRows(t *testing.T) {
	t.Parallel()
	city := "Austin"
	score := 0.42
	label := intel.LabelComfortable

	rows := resultRows(intel.Result{
		NormalizedRole:     "Software Engineer",
		NormalizedRoleSlug: "software_engineer",
		Level:              intel.LevelSenior,
		Location:           intel.ResolvedLocation{City: &city, Country: "United States", ISOCountryCode: "US", Confidence: 0.9},
		WorkMode:           intel.WorkModeOnsite,
		ExpectedSalary:     &intel.SalaryRange{Min: 150000, Max: 200000, Currency: "USD", Period: intel.PeriodYear},
		AffordabilityScore: &score,
		AffordabilityLabel: &label,
		Confidence:         intel.Confidence{Level: intel.ConfidenceMedium},
		SchemaValid:        true,
	})

	values := make(map[string]string, len(rows))
	for _, row := range rows[1:] {
		values[row[0]] = row[1]
	}
	assert.Equal(t, []string{"Field", "Value"}, rows[0])
	assert.Equal(t, "Austin, United States [US] (confidence 0.90)", values["Location"])
	assert.Equal(t, "150,000 - 200,000 USD per year", values["Expected salary"])
	assert.Equal(t, notAvailable, values["Listed salary"])
	assert.Equal(t, notAvailable, values["Net income"])
	assert.Contains(t, values["Affordability"], "0.42")
	assert.Equal(t, "medium", values["Confidence"])
}

func TestCountryRows(t *testing.T) {
	t.Parallel()
	set, err := tables.Default()
	require.NoError(t, err)

	rows := countryRows(set)
	require.Len(t, rows, len(set.Geo.Countries)+2)
	assert.Equal(t, "ISO", rows[0][0])
	assert.Equal(t, "AE", rows[1][0])

	for _, row := range rows[1 : len(rows)-1] {
		if row[0] == "US" {
			assert.Equal(t, "us-2025.1 (model)", row[5])
		}
	}
}

func TestNewEngineLiveSources(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		to := r.URL.Query().Get("to")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"base":"` + r.URL.Query().Get("from") + `","date":"2025-10-01","rates":{"` + to + `":1.2}}`))
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	overrides := filepath.Join(dir, "col.yaml")
	require.NoError(t, os.WriteFile(overrides, []byte(`version: local-1
as_of: "2025-10-01"
cities:
  - {country: DE, city: Berlin, index: 90}
`), 0o600))

	config := &Config{
		FX: &FXConfig{
			Provider:  "http",
			CachePath: filepath.Join(dir, "fx.db"),
			HTTP:      &FXHTTPConfig{BaseURL: srv.URL, Timeout: time.Second, MaxRetries: 0},
		},
		Col: &ColConfig{OverridesFile: overrides, Timeout: time.Second},
	}

	e, cleanup, err := newEngine(config, zap.NewNop())
	require.NoError(t, err)
	defer cleanup()

	res, err := e.Generate(context.Background(), intel.Request{
		JobTitle:   "Backend Developer",
		Location:   "Berlin, Germany",
		SalaryInfo: "£50,000",
	}, intel.DefaultBudget())
	require.NoError(t, err)

	assert.True(t, res.SchemaValid)
	assert.Equal(t, "fx-live-2025-10-01", res.Versions.FX)
	assert.Equal(t, "local-1", res.Versions.Col)
	require.NotNil(t, res.ListedSalary)
	assert.InDelta(t, 60000, res.ListedSalary.Min, 1e-6)
	assert.Equal(t, int32(2), calls.Load())

	var names []string
	for _, p := range res.Provenance {
		names = append(names, p.Field+"|"+p.URLOrName)
	}
	assert.Contains(t, names, "listed_salary|"+srv.URL+"/latest")
	assert.Contains(t, names, "cost_of_living|file:"+overrides)
}

func TestNewEngineRejectsBadConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		config *Config
		msg    string
	}{
		{"unknown provider", &Config{FX: &FXConfig{Provider: "carrier-pigeon"}}, "unsupported fx provider"},
		{"http without section", &Config{FX: &FXConfig{Provider: "http"}}, "fx.http section is required"},
		{"http without url", &Config{FX: &FXConfig{Provider: "http", HTTP: &FXHTTPConfig{}}}, "base url"},
		{"missing overrides", &Config{Col: &ColConfig{OverridesFile: "/nonexistent/col.yaml"}}, "col: read overrides"},
		{"missing tables dir file", &Config{Tables: &TablesConfig{Dir: "/nonexistent"}}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, cleanup, err := newEngine(tt.config, zap.NewNop())
			defer cleanup()
			if tt.msg == "" {
				// Files missing from the directory fall back to the embedded tables.
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.msg), err.Error())
		})
	}
}
