// Package fx converts amounts between currencies. Rates come from a chain of
// sources that always ends in the bundled table.
package fx

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/spigell/salary-intel/internal/intel"
	"github.com/spigell/salary-intel/internal/provenance"
	"github.com/spigell/salary-intel/internal/tables"
)

var (
	// ErrUnavailable means a source could not answer; callers fall back.
	ErrUnavailable = eris.New("fx: rate unavailable")
	// ErrUnknownCurrency means no source in the chain knows the pair.
	ErrUnknownCurrency = eris.New("fx: unknown currency")
)

// Quote is the rate for one unit of From expressed in To.
type Quote struct {
	From       string
	To         string
	Rate       float64
	AsOf       string
	SourceName string
	SourceType intel.SourceType
	Version    string
}

// Source returns quotes for currency pairs.
type Source interface {
	Name() string
	Quote(ctx context.Context, from, to string) (Quote, error)
}

// StaticSource serves the bundled rate table.
type StaticSource struct {
	table *tables.FXTable
}

func NewStaticSource(table *tables.FXTable) *StaticSource {
	return &StaticSource{table: table}
}

func (s *StaticSource) Name() string { return "bundled:" + s.table.Version }

func (s *StaticSource) Quote(_ context.Context, from, to string) (Quote, error) {
	rate, ok := s.table.Rate(from, to)
	if !ok {
		return Quote{}, eris.Wrapf(ErrUnknownCurrency, "%s-%s", from, to)
	}
	return Quote{
		From:       strings.ToUpper(from),
		To:         strings.ToUpper(to),
		Rate:       rate,
		AsOf:       s.table.AsOf,
		SourceName: s.Name(),
		SourceType: intel.SourceCache,
		Version:    s.table.Version,
	}, nil
}

// Known reports whether the bundled table carries code.
func (s *StaticSource) Known(code string) bool {
	return s.table.Known(code)
}

// CacheKey is the opaque ledger key for a quote.
func CacheKey(q Quote) string {
	return "fx:" + q.From + "-" + q.To + ":" + q.AsOf
}

func (q Quote) provenance(field string) intel.ProvenanceEntry {
	return intel.ProvenanceEntry{
		Field:       field,
		SourceType:  q.SourceType,
		URLOrName:   q.SourceName,
		RetrievedAt: provenance.Timestamp(q.AsOf),
	}
}
