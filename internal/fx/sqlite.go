package fx

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/spigell/salary-intel/internal/intel"
	"github.com/spigell/salary-intel/internal/logger"
)

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS fx_rates (
	base       TEXT NOT NULL,
	quote      TEXT NOT NULL,
	rate       REAL NOT NULL,
	as_of      TEXT NOT NULL,
	source     TEXT NOT NULL,
	version    TEXT NOT NULL,
	fetched_at DATETIME NOT NULL,
	PRIMARY KEY (base, quote)
);
`

// SQLiteCache keeps the last live quote per pair on disk and serves it
// while it is younger than the TTL.
type SQLiteCache struct {
	db     *sql.DB
	inner  Source
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// NewSQLiteCache opens (or creates) the cache at path in front of inner.
func NewSQLiteCache(path string, inner Source, ttl time.Duration, l *zap.Logger) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "fx sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "fx sqlite: exec %s", pragma)
		}
	}
	if _, err := db.Exec(sqliteMigration); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "fx sqlite: migrate")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &SQLiteCache{
		db:     db,
		inner:  inner,
		ttl:    ttl,
		now:    time.Now,
		logger: logger.WithFields(l, zap.String("component", "fx_cache")),
	}, nil
}

func (c *SQLiteCache) Name() string { return c.inner.Name() }

func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

// Quote serves a fresh cached quote, else asks inner and stores the answer.
// When inner fails a stale cached quote is still preferred over an error.
func (c *SQLiteCache) Quote(ctx context.Context, from, to string) (Quote, error) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)

	cached, fetched, err := c.load(ctx, from, to)
	hasCached := err == nil
	if hasCached && c.now().Sub(fetched) < c.ttl {
		return cached, nil
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		c.logger.Warn("reading fx cache failed", zap.Error(err))
	}

	q, err := c.inner.Quote(ctx, from, to)
	if err != nil {
		if hasCached {
			c.logger.Warn("serving stale fx quote", zap.String("pair", from+"-"+to), zap.Error(err))
			return cached, nil
		}
		return Quote{}, err
	}
	if err := c.store(ctx, q); err != nil {
		c.logger.Warn("writing fx cache failed", zap.Error(err))
	}
	return q, nil
}

func (c *SQLiteCache) load(ctx context.Context, from, to string) (Quote, time.Time, error) {
	var (
		q       = Quote{From: from, To: to, SourceType: intel.SourceCache}
		fetched time.Time
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT rate, as_of, source, version, fetched_at FROM fx_rates WHERE base = ? AND quote = ?`,
		from, to,
	).Scan(&q.Rate, &q.AsOf, &q.SourceName, &q.Version, &fetched)
	if err != nil {
		return Quote{}, time.Time{}, err
	}
	return q, fetched, nil
}

func (c *SQLiteCache) store(ctx context.Context, q Quote) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO fx_rates (base, quote, rate, as_of, source, version, fetched_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (base, quote) DO UPDATE SET
		   rate = excluded.rate, as_of = excluded.as_of, source = excluded.source,
		   version = excluded.version, fetched_at = excluded.fetched_at`,
		q.From, q.To, q.Rate, q.AsOf, q.SourceName, q.Version, c.now().UTC(),
	)
	return eris.Wrap(err, "fx sqlite: upsert")
}
