// Package role maps free-text job titles onto the canonical role taxonomy.
package role

import (
	"strings"

	"github.com/spigell/salary-intel/internal/intel"
	"github.com/spigell/salary-intel/internal/tables"
	"github.com/spigell/salary-intel/internal/utils"
)

// Basis names the signal the seniority level was taken from.
type Basis string

const (
	BasisTitle      Basis = "title"
	BasisExperience Basis = "experience"
	BasisDefault    Basis = "default"
	BasisUnmatched  Basis = "unmatched"
)

type Result struct {
	Role  intel.NormalizedRole
	Basis Basis
	// Matched is false when the title fits no role family.
	Matched bool
	// Keyword is the family phrase that selected the role.
	Keyword string
}

type Normalizer struct {
	taxonomy *tables.RoleTaxonomy
}

func NewNormalizer(taxonomy *tables.RoleTaxonomy) *Normalizer {
	return &Normalizer{taxonomy: taxonomy}
}

// Normalize classifies title. It never fails: unmatched titles come back as
// themselves with the unknown level.
func (n *Normalizer) Normalize(title string, experienceYears *float64) Result {
	title = strings.TrimSpace(title)
	padded := " " + utils.Fold(title) + " "

	family, keyword, ok := n.family(padded)
	if !ok {
		return Result{
			Role: intel.NormalizedRole{
				Name:      title,
				Slug:      utils.Slugify(title),
				Level:     intel.LevelUnknown,
				LevelRank: intel.LevelUnknown.Rank(),
			},
			Basis: BasisUnmatched,
		}
	}

	level, basis := n.seniority(padded, experienceYears)

	return Result{
		Role: intel.NormalizedRole{
			Name:      family.Name,
			Slug:      family.Slug,
			Level:     level,
			LevelRank: level.Rank(),
		},
		Basis:   basis,
		Matched: true,
		Keyword: keyword,
	}
}

func (n *Normalizer) family(padded string) (tables.RoleFamily, string, bool) {
	for _, family := range n.taxonomy.Families {
		for _, kw := range family.Keywords {
			if containsPhrase(padded, kw) {
				return family, kw, true
			}
		}
	}
	return tables.RoleFamily{}, "", false
}

func (n *Normalizer) seniority(padded string, experienceYears *float64) (intel.Level, Basis) {
	best := intel.LevelUnknown
	for _, rule := range n.taxonomy.Seniority {
		if rule.Level.Rank() <= best.Rank() {
			continue
		}
		for _, kw := range rule.Keywords {
			if containsPhrase(padded, kw) {
				best = rule.Level
				break
			}
		}
	}
	if best != intel.LevelUnknown {
		return best, BasisTitle
	}

	if experienceYears != nil {
		return FromExperience(*experienceYears), BasisExperience
	}

	return intel.LevelMid, BasisDefault
}

// FromExperience buckets years of experience; lower bounds are inclusive.
func FromExperience(years float64) intel.Level {
	switch {
	case years < 2:
		return intel.LevelJunior
	case years < 6:
		return intel.LevelMid
	case years < 10:
		return intel.LevelSenior
	default:
		return intel.LevelLead
	}
}

// HasSeniorityKeyword reports whether the title carries an explicit level.
func (r Result) HasSeniorityKeyword() bool {
	return r.Basis == BasisTitle
}

func containsPhrase(padded, phrase string) bool {
	folded := utils.Fold(phrase)
	if folded == "" {
		return false
	}
	return strings.Contains(padded, " "+folded+" ")
}
