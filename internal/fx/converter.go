package fx

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/spigell/salary-intel/internal/logger"
	"github.com/spigell/salary-intel/internal/provenance"
)

// MaxTimeout bounds every live lookup.
const MaxTimeout = 10 * time.Second

// Converter resolves quotes from an optional live source and falls back to
// the bundled table. It holds no per-request state; see Session.
type Converter struct {
	live     Source
	fallback *StaticSource
	timeout  time.Duration
	logger   *zap.Logger
}

type Option func(*Converter)

// WithLive puts src in front of the bundled table.
func WithLive(src Source) Option {
	return func(c *Converter) { c.live = src }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Converter) { c.timeout = d }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Converter) { c.logger = l }
}

func NewConverter(fallback *StaticSource, opts ...Option) *Converter {
	c := &Converter{fallback: fallback, timeout: 2 * time.Second}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout <= 0 || c.timeout > MaxTimeout {
		c.timeout = MaxTimeout
	}
	c.logger = logger.WithFields(c.logger, zap.String("component", "fx"))
	return c
}

// Known reports whether the bundled table knows code.
func (c *Converter) Known(code string) bool {
	return c.fallback.Known(code)
}

// Version is the bundled table version.
func (c *Converter) Version() string {
	return c.fallback.table.Version
}

func (c *Converter) quote(ctx context.Context, from, to string) (Quote, error) {
	if c.live != nil {
		lctx, cancel := context.WithTimeout(ctx, c.timeout)
		q, err := c.live.Quote(lctx, from, to)
		cancel()
		if err == nil {
			return q, nil
		}
		c.logger.Warn("live fx source failed, using bundled rates",
			zap.String("source", c.live.Name()),
			zap.String("pair", from+"-"+to),
			zap.Error(err),
		)
	}
	return c.fallback.Quote(ctx, from, to)
}

// Session memoises quotes for one request and records every lookup in the
// request ledger. It is not safe for concurrent use.
type Session struct {
	conv   *Converter
	ledger *provenance.Ledger
	memo   map[string]Quote
}

func (c *Converter) Session(ledger *provenance.Ledger) *Session {
	return &Session{conv: c, ledger: ledger, memo: make(map[string]Quote)}
}

// Quote returns the rate for the pair; the first lookup of a pair is a miss.
func (s *Session) Quote(ctx context.Context, from, to string) (Quote, error) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	pair := from + "-" + to

	if q, ok := s.memo[pair]; ok {
		s.ledger.Hit(CacheKey(q))
		return q, nil
	}

	q, err := s.conv.quote(ctx, from, to)
	if err != nil {
		return Quote{}, err
	}
	s.memo[pair] = q
	s.ledger.Miss(CacheKey(q))
	return q, nil
}

// Convert turns amount of from into to and cites the quote for field. Equal
// currencies convert at 1 without a lookup.
func (s *Session) Convert(ctx context.Context, field string, amount float64, from, to string) (float64, error) {
	if strings.EqualFold(from, to) {
		return amount, nil
	}
	q, err := s.Quote(ctx, from, to)
	if err != nil {
		return 0, eris.Wrapf(err, "convert %s", field)
	}
	s.ledger.Record(q.provenance(field))
	return amount * q.Rate, nil
}

// IsUnknownCurrency reports whether err came from a pair no source knows.
func IsUnknownCurrency(err error) bool {
	return errors.Is(err, ErrUnknownCurrency)
}

// Version names the rate revisions this session used, or the bundled table
// version when no lookup happened.
func (s *Session) Version() string {
	seen := make(map[string]bool)
	var versions []string
	for _, q := range s.memo {
		if !seen[q.Version] {
			seen[q.Version] = true
			versions = append(versions, q.Version)
		}
	}
	if len(versions) == 0 {
		return s.conv.Version()
	}
	sort.Strings(versions)
	return strings.Join(versions, "+")
}
