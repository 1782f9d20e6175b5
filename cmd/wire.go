package cmd

import (
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/spigell/salary-intel/internal/col"
	"github.com/spigell/salary-intel/internal/engine"
	"github.com/spigell/salary-intel/internal/fx"
	"github.com/spigell/salary-intel/internal/secrets"
	"github.com/spigell/salary-intel/internal/tables"
)

// newEngine builds the engine and its data sources from config. The returned
// cleanup closes the rate cache, if any.
func newEngine(config *Config, logger *zap.Logger) (*engine.Engine, func(), error) {
	noop := func() {}

	set, err := loadTables(config.Tables)
	if err != nil {
		return nil, noop, err
	}

	conv, cleanup, err := newConverter(config.FX, set, logger)
	if err != nil {
		return nil, noop, err
	}

	model, err := newColModel(config.Col, set, logger)
	if err != nil {
		cleanup()
		return nil, noop, err
	}

	e := engine.New(set,
		engine.WithFX(conv),
		engine.WithCol(model),
		engine.WithLogger(logger),
	)
	return e, cleanup, nil
}

func loadTables(cfg *TablesConfig) (*tables.Set, error) {
	if cfg == nil || strings.TrimSpace(cfg.Dir) == "" {
		return tables.Default()
	}
	return tables.LoadDir(cfg.Dir)
}

func newConverter(cfg *FXConfig, set *tables.Set, logger *zap.Logger) (*fx.Converter, func(), error) {
	noop := func() {}
	static := fx.NewStaticSource(set.FX)

	provider := "static"
	if cfg != nil {
		provider = strings.TrimSpace(strings.ToLower(cfg.Provider))
	}

	switch provider {
	case "", "static":
		return fx.NewConverter(static, fx.WithLogger(logger)), noop, nil
	case "http":
	default:
		return nil, noop, eris.Errorf("unsupported fx provider: %s", cfg.Provider)
	}

	if cfg.HTTP == nil {
		return nil, noop, eris.New("fx.http section is required for the http provider")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "fx api key",
		Value: cfg.HTTP.APIKey,
		File:  cfg.HTTP.APIKeyFile,
	})
	if err != nil && !eris.Is(err, secrets.ErrNotConfigured) {
		return nil, noop, eris.Wrap(err, "set fx.http.api-key-file or SALARY_INTEL_FX_HTTP_API_KEY")
	}

	httpSource, err := fx.NewHTTPSource(fx.HTTPOptions{
		BaseURL:       cfg.HTTP.BaseURL,
		APIKey:        apiKey,
		Timeout:       cfg.HTTP.Timeout,
		RatePerSecond: cfg.HTTP.RatePerSecond,
		MaxRetries:    cfg.HTTP.MaxRetries,
		Logger:        logger,
	})
	if err != nil {
		return nil, noop, err
	}

	var live fx.Source = httpSource
	cleanup := noop
	if path := strings.TrimSpace(cfg.CachePath); path != "" {
		cache, err := fx.NewSQLiteCache(path, httpSource, cfg.CacheTTL, logger)
		if err != nil {
			return nil, noop, err
		}
		live = cache
		cleanup = func() {
			if err := cache.Close(); err != nil {
				logger.Warn("closing fx cache", zap.Error(err))
			}
		}
	}

	logger.Debug("live fx rates enabled",
		zap.String("source", live.Name()),
		zap.Bool("cached", strings.TrimSpace(cfg.CachePath) != ""),
	)

	return fx.NewConverter(static,
		fx.WithLive(live),
		fx.WithTimeout(cfg.HTTP.Timeout),
		fx.WithLogger(logger),
	), cleanup, nil
}

func newColModel(cfg *ColConfig, set *tables.Set, logger *zap.Logger) (*col.Model, error) {
	opts := []col.Option{col.WithLogger(logger)}
	if cfg == nil {
		return col.NewModel(set.Col, opts...), nil
	}

	opts = append(opts, col.WithTimeout(cfg.Timeout))
	if path := strings.TrimSpace(cfg.OverridesFile); path != "" {
		src, err := col.NewFileSource(path, set.Col.Baseline)
		if err != nil {
			return nil, err
		}
		logger.Debug("cost of living overrides loaded",
			zap.String("source", src.Name()),
			zap.String("version", src.Version()),
		)
		opts = append(opts, col.WithSource(src))
	}
	return col.NewModel(set.Col, opts...), nil
}
