// Package provenance tracks where each output field came from and scores how
// complete the evidence behind a result is.
package provenance

import (
	"sort"
	"sync"
	"time"

	"github.com/spigell/salary-intel/internal/intel"
)

// Ledger collects provenance entries and cache hits and misses for one
// request. It is safe for concurrent use.
type Ledger struct {
	mu      sync.Mutex
	hits    []string
	misses  []string
	entries []intel.ProvenanceEntry
	seen    map[string]bool
}

func NewLedger() *Ledger {
	return &Ledger{seen: make(map[string]bool)}
}

func (l *Ledger) Hit(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hits = append(l.hits, key)
}

func (l *Ledger) Miss(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.misses = append(l.misses, key)
}

// Record adds an entry unless the same field already cites the same source.
func (l *Ledger) Record(entry intel.ProvenanceEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := entry.Field + "\x00" + entry.URLOrName
	if l.seen[key] {
		return
	}
	l.seen[key] = true
	l.entries = append(l.entries, entry)
}

// Entries returns the recorded entries ordered by field, then source.
func (l *Ledger) Entries() []intel.ProvenanceEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]intel.ProvenanceEntry, len(l.entries))
	copy(out, l.entries)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Field != out[j].Field {
			return out[i].Field < out[j].Field
		}
		return out[i].URLOrName < out[j].URLOrName
	})
	return out
}

func (l *Ledger) CacheMeta() intel.CacheMeta {
	l.mu.Lock()
	defer l.mu.Unlock()

	meta := intel.CacheMeta{
		CacheHits:   make([]string, len(l.hits)),
		CacheMisses: make([]string, len(l.misses)),
	}
	copy(meta.CacheHits, l.hits)
	copy(meta.CacheMisses, l.misses)
	return meta
}

// Timestamp renders a table as_of date as an RFC3339 instant. Dates that do
// not parse are returned unchanged.
func Timestamp(asOf string) string {
	t, err := time.Parse(time.DateOnly, asOf)
	if err != nil {
		return asOf
	}
	return t.UTC().Format(time.RFC3339)
}
