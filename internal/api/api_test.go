package api

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/salary-intel/internal/engine"
	"github.com/spigell/salary-intel/internal/intel"
	"github.com/spigell/salary-intel/internal/tables"
	"github.com/spigell/salary-intel/internal/tax"
)

func newServer(t *testing.T, opts ...engine.Option) http.Handler {
	t.Helper()
	set, err := tables.Default()
	require.NoError(t, err)
	return New(engine.New(set, opts...), nil).Router()
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/salary-intelligence", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) intel.Result {
	t.Helper()
	var res intel.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestHealth(t *testing.T) {
	t.Parallel()
	h := newServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://example.org")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(HeaderRequestID))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDEcho(t *testing.T) {
	t.Parallel()
	h := newServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(HeaderRequestID, "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "req-42", rec.Header().Get(HeaderRequestID))
}

func TestSalaryIntelligence(t *testing.T) {
	t.Parallel()
	h := newServer(t)

	rec := post(t, h, `{
		"jobTitle": "Senior Software Engineer",
		"location": "Austin, TX",
		"experienceYears": 7,
		"salaryInfo": "$120,000 - $150,000",
		"computationBudget": {"llm_calls": 1, "tool_calls": "<=5", "early_stop": true}
	}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get(HeaderRequestID))

	res := decodeResult(t, rec)
	assert.True(t, res.SchemaValid)
	assert.Equal(t, "software_engineer", res.NormalizedRoleSlug)
	assert.Equal(t, "US", res.Location.ISOCountryCode)
	assert.Equal(t, intel.ComputationBudget{LLMCalls: 1, ToolCalls: "<=5", EarlyStop: true}, res.Budget)
	require.NotNil(t, res.AffordabilityLabel)
}

func TestLenientKeys(t *testing.T) {
	t.Parallel()
	h := newServer(t)

	rec := post(t, h, `{"job_title": "Data Engineer", "Location": "Berlin, Germany", "experience_years": "9", "WORK_MODE": "hybrid", "computation_budget": {"LLMCalls": 1}}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decodeResult(t, rec)
	assert.Equal(t, "Data Engineer", res.JobTitle)
	assert.Equal(t, "DE", res.Location.ISOCountryCode)
	assert.Equal(t, intel.WorkModeHybrid, res.WorkMode)
	assert.Equal(t, intel.DefaultBudget(), res.Budget)
}

func TestOutOfRangeSalary(t *testing.T) {
	t.Parallel()
	h := newServer(t)

	rec := post(t, h, `{"jobTitle": "Software Engineer", "location": "Austin, TX", "salaryInfo": "$1`+strings.Repeat("0", 307)+`k"}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decodeResult(t, rec)
	assert.True(t, res.SchemaValid)
	assert.Nil(t, res.ListedSalary)
	assert.Nil(t, res.AffordabilityScore)
}

func TestWriteJSONUnencodable(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusOK, map[string]float64{"score": math.Inf(1)})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", decodeError(t, rec))
}

func TestBadRequests(t *testing.T) {
	t.Parallel()
	h := newServer(t)

	tests := []struct {
		name string
		body string
		msg  string
	}{
		{"malformed json", `{"jobTitle":`, "request body must be a JSON object"},
		{"array body", `[1,2]`, "request body must be a JSON object"},
		{"null body", `null`, "request body must be a JSON object"},
		{"wrong type", `{"jobTitle": "Engineer", "experienceYears": "lots"}`, "invalid request body"},
		{"blank title", `{"jobTitle": "  "}`, "jobTitle is required and cannot be empty"},
		{"budget llm calls", `{"jobTitle": "Engineer", "computationBudget": {"llm_calls": 5}}`, "llm_calls must be exactly 1, got 5"},
		{"budget tool calls", `{"jobTitle": "Engineer", "computationBudget": {"tool_calls": "<=50"}}`, "tool_calls cannot exceed <=10"},
		{"budget fractional llm calls", `{"jobTitle": "Engineer", "computationBudget": {"llm_calls": 1.9}}`, "llm_calls must be exactly 1, got 1.9"},
		{"budget boolean llm calls", `{"jobTitle": "Engineer", "computationBudget": {"llmCalls": true}}`, "llm_calls must be exactly 1, got true"},
		{"budget string llm calls", `{"jobTitle": "Engineer", "computationBudget": {"llm_calls": "1"}}`, "llm_calls must be exactly 1"},
		{"budget overflowing tool calls", `{"jobTitle": "Engineer", "computationBudget": {"tool_calls": "<=99999999999999999999"}}`, "tool_calls cannot exceed <=10"},
		{"budget boolean early stop", `{"jobTitle": "Engineer", "computationBudget": {"early_stop": "yes"}}`, "invalid request body"},
		{"experience range", `{"jobTitle": "Engineer", "experienceYears": 70}`, "experienceYears must be between 0 and 60"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, h, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, decodeError(t, rec), tt.msg)
		})
	}
}

type failingTax struct{}

func (failingTax) Compute(context.Context, tax.Converter, tax.Input) (tax.Outcome, error) {
	return tax.Outcome{}, errors.New("tax table unavailable")
}

type panickingTax struct{}

func (panickingTax) Compute(context.Context, tax.Converter, tax.Input) (tax.Outcome, error) {
	panic("bracket index out of range")
}

func TestFailureIsolation(t *testing.T) {
	t.Parallel()
	body := `{"jobTitle": "Product Manager", "location": "London, UK", "salaryInfo": "£70,000"}`

	tests := []struct {
		name  string
		model engine.TaxModel
		msg   string
	}{
		{"error", failingTax{}, "Processing error: tax table unavailable"},
		{"panic", panickingTax{}, "Processing error: bracket index out of range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, newServer(t, engine.WithTax(tt.model)), body)

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			res := decodeResult(t, rec)
			assert.False(t, res.SchemaValid)
			assert.Equal(t, []string{tt.msg}, res.ValidationErrors)
			assert.Equal(t, "GB", res.Location.ISOCountryCode)
			assert.NotNil(t, res.ExpectedSalary)
			assert.Nil(t, res.NetIncome)
		})
	}
}

type brokenGenerator struct{}

func (brokenGenerator) Generate(context.Context, intel.Request, intel.ComputationBudget) (intel.Result, error) {
	return intel.Result{}, errors.New("engine not ready")
}

func TestAccessLogAndUnexpectedError(t *testing.T) {
	t.Parallel()
	core, logs := observer.New(zapcore.InfoLevel)
	h := New(brokenGenerator{}, zap.New(core)).Router()

	req := httptest.NewRequest(http.MethodPost, "/v1/salary-intelligence", strings.NewReader(`{"jobTitle":"Engineer"}`))
	req.Header.Set(HeaderRequestID, "req-7")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", decodeError(t, rec))

	require.Len(t, logs.FilterMessage("generate failed").All(), 1)
	access := logs.FilterMessage("http request").All()
	require.Len(t, access, 1)
	ctx := access[0].ContextMap()
	assert.Equal(t, "req-7", ctx["request_id"])
	assert.Equal(t, int64(http.StatusInternalServerError), ctx["status"])
	assert.Equal(t, "/v1/salary-intelligence", ctx["path"])
}
