// Package engine runs the salary intelligence pipeline: it parses the request
// text, prices the role for the resolved location, nets the listed salary,
// costs local living expenses and assembles the versioned result.
//
// Generate returns an error only for invalid requests. Failures inside the
// pipeline, panics included, are reported through the result itself.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/salary-intel/internal/col"
	"github.com/spigell/salary-intel/internal/estimate"
	"github.com/spigell/salary-intel/internal/fx"
	"github.com/spigell/salary-intel/internal/intel"
	"github.com/spigell/salary-intel/internal/location"
	"github.com/spigell/salary-intel/internal/logger"
	"github.com/spigell/salary-intel/internal/provenance"
	"github.com/spigell/salary-intel/internal/role"
	"github.com/spigell/salary-intel/internal/salary"
	"github.com/spigell/salary-intel/internal/tables"
	"github.com/spigell/salary-intel/internal/tax"
	"github.com/spigell/salary-intel/internal/utils"
)

const logTextLimit = 80

type TaxModel interface {
	Compute(ctx context.Context, conv tax.Converter, in tax.Input) (tax.Outcome, error)
}

type ColModel interface {
	Compute(ctx context.Context, conv col.Converter, in col.Input) (col.Outcome, error)
}

type Estimator interface {
	Estimate(ctx context.Context, conv estimate.Converter, in estimate.Input) (estimate.Outcome, error)
}

type Engine struct {
	tables *tables.Set

	roles     *role.Normalizer
	locations *location.Resolver
	salaries  *salary.Parser

	fx        *fx.Converter
	tax       TaxModel
	col       ColModel
	estimator Estimator

	sequential bool
	clock      func() time.Time
	logger     *zap.Logger
	stages     []Stage
}

type Option func(*Engine)

// WithFX replaces the bundled-only converter.
func WithFX(c *fx.Converter) Option {
	return func(e *Engine) { e.fx = c }
}

func WithTax(m TaxModel) Option {
	return func(e *Engine) { e.tax = m }
}

func WithCol(m ColModel) Option {
	return func(e *Engine) { e.col = m }
}

func WithEstimator(est Estimator) Option {
	return func(e *Engine) { e.estimator = est }
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.clock = now }
}

// WithSequentialParsing parses role, location and salary one after another
// instead of concurrently.
func WithSequentialParsing() Option {
	return func(e *Engine) { e.sequential = true }
}

// New wires the pipeline over set. Components not supplied through options
// are built from the same tables.
func New(set *tables.Set, opts ...Option) *Engine {
	e := &Engine{
		tables:    set,
		roles:     role.NewNormalizer(set.Roles),
		locations: location.NewResolver(set.Geo),
		salaries:  salary.NewParser(set.FX),
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.fx == nil {
		e.fx = fx.NewConverter(fx.NewStaticSource(set.FX), fx.WithLogger(e.logger))
	}
	if e.tax == nil {
		e.tax = tax.NewCalculator(set.Tax)
	}
	if e.col == nil {
		e.col = col.NewModel(set.Col, col.WithLogger(e.logger))
	}
	if e.estimator == nil {
		e.estimator = estimate.NewEstimator(set.Pay)
	}
	e.logger = logger.WithComponent(e.logger, "engine")

	e.stages = []Stage{
		newStage("parse", e.parse),
		newStage("reporting_currency", e.reportingCurrency),
		newStage("listed_salary", e.listedSalary),
		newStage("expected_salary", e.expectedSalary),
		newStage("net_income", e.netIncome),
		newStage("cost_of_living", e.costOfLiving),
		newStage("affordability", e.affordability),
		newStage("confidence", e.confidence),
	}
	return e
}

// Stages lists the pipeline stage names in execution order.
func (e *Engine) Stages() []string {
	return Names(e.stages)
}

// Generate validates the request and budget, then runs the pipeline. The
// returned error is always a *ValidationError.
func (e *Engine) Generate(ctx context.Context, req intel.Request, budget intel.ComputationBudget) (intel.Result, error) {
	if err := ValidateBudget(budget); err != nil {
		return intel.Result{}, err
	}
	req = req.Normalized()
	if err := ValidateRequest(req); err != nil {
		return intel.Result{}, err
	}

	res := e.run(ctx, req, budget)

	e.logger.Info("salary intelligence generated",
		zap.String("job_title", utils.TruncateForLog(req.JobTitle, logTextLimit)),
		zap.String("role_slug", res.NormalizedRoleSlug),
		zap.String("country_iso", res.Location.ISOCountryCode),
		zap.String("confidence", string(res.Confidence.Level)),
		zap.Bool("schema_valid", res.SchemaValid),
	)
	return res, nil
}

// run is the pipeline boundary: stage errors and panics both end here.
func (e *Engine) run(ctx context.Context, req intel.Request, budget intel.ComputationBudget) (res intel.Result) {
	ledger := provenance.NewLedger()
	st := &state{
		req:     req,
		budget:  budget,
		ledger:  ledger,
		session: e.fx.Session(ledger),
	}

	defer func() {
		if r := recover(); r != nil {
			res = e.build(st, e.processingError(st, fmt.Errorf("%v", r)))
		}
	}()

	err := runStages(ctx, e.logger, e.stages, st)
	return e.build(st, e.processingError(st, err))
}

func (e *Engine) processingError(st *state, err error) error {
	if err == nil {
		return nil
	}
	e.logger.Error("pipeline failed",
		zap.String("stage", st.stage),
		zap.String("job_title", utils.TruncateForLog(st.req.JobTitle, logTextLimit)),
		zap.Error(err),
	)
	return err
}

// parse runs the three text parsers. They share no data, so the concurrent
// and sequential paths produce the same state.
func (e *Engine) parse(ctx context.Context, st *state) error {
	var (
		roleRes role.Result
		locRes  location.Result
		listed  *intel.SalaryFigure
	)
	tasks := []struct {
		name string
		fn   func()
	}{
		{"role", func() { roleRes = e.roles.Normalize(st.req.JobTitle, st.req.ExperienceYears) }},
		{"location", func() { locRes = e.locations.Resolve(st.req.Location, st.req.WorkMode) }},
		{"salary", func() { listed = e.salaries.Parse(st.req.SalaryInfo) }},
	}

	if e.sequential {
		for _, task := range tasks {
			if err := guarded(task.name, task.fn); err != nil {
				return err
			}
		}
	} else {
		g, _ := errgroup.WithContext(ctx)
		for _, task := range tasks {
			g.Go(func() error { return guarded(task.name, task.fn) })
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}

	st.role = roleRes
	st.location = locRes
	st.listed = listed
	if country, ok := e.tables.Geo.CountryByISO(locRes.Location.ISOCountryCode); ok && locRes.Location.Resolved() {
		st.country = &country
	}
	explainParse(st)
	return nil
}

// guarded runs fn and turns a panic into an error so that it can cross a
// goroutine boundary.
func guarded(name string, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = eris.Errorf("%s parser panicked: %v", name, r)
		}
	}()
	fn()
	return nil
}
