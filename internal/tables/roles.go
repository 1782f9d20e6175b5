package tables

import (
	"github.com/rotisserie/eris"

	"github.com/spigell/salary-intel/internal/intel"
)

type RoleTaxonomy struct {
	Version   string          `yaml:"version"`
	Families  []RoleFamily    `yaml:"families"`
	Seniority []SeniorityRule `yaml:"seniority"`
}

// RoleFamily is a canonical role with the folded phrases that select it.
type RoleFamily struct {
	Slug     string   `yaml:"slug"`
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

type SeniorityRule struct {
	Level    intel.Level `yaml:"level"`
	Keywords []string    `yaml:"keywords"`
}

func (r *RoleTaxonomy) validate() error {
	if r.Version == "" {
		return eris.New("tables: roles version is empty")
	}
	if len(r.Families) == 0 {
		return eris.New("tables: no role families")
	}

	seen := make(map[string]bool, len(r.Families))
	for _, family := range r.Families {
		if family.Slug == "" || family.Name == "" {
			return eris.Errorf("tables: role family %q is incomplete", family.Slug)
		}
		if seen[family.Slug] {
			return eris.Errorf("tables: duplicate role family %s", family.Slug)
		}
		seen[family.Slug] = true
		if len(family.Keywords) == 0 {
			return eris.Errorf("tables: role family %s has no keywords", family.Slug)
		}
	}

	for _, rule := range r.Seniority {
		if rule.Level.Rank() < 0 {
			return eris.Errorf("tables: unknown seniority level %q", rule.Level)
		}
	}

	return nil
}
