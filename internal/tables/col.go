package tables

import (
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/spigell/salary-intel/internal/utils"
)

type ColTables struct {
	Version    string             `yaml:"version"`
	Currency   string             `yaml:"currency"`
	AsOf       string             `yaml:"as_of"`
	Baseline   map[string]float64 `yaml:"baseline"`
	Tiers      map[string]float64 `yaml:"tiers"`
	Cities     []ColEntry         `yaml:"cities"`
	AdminAreas []ColEntry         `yaml:"admin_areas"`
	Countries  []ColEntry         `yaml:"countries"`

	categories []string
	byCity     map[string]int
	byArea     map[string]int
	byCountry  map[string]int
}

// ColEntry is an index against the baseline basket where 100 equals baseline.
type ColEntry struct {
	Country   string             `yaml:"country"`
	City      string             `yaml:"city"`
	AdminArea string             `yaml:"admin_area"`
	Index     float64            `yaml:"index"`
	Overrides map[string]float64 `yaml:"overrides"`
}

func (c *ColTables) validate() error {
	if c.Version == "" {
		return eris.New("tables: col version is empty")
	}
	if len(c.Baseline) == 0 {
		return eris.New("tables: col baseline is empty")
	}

	for _, group := range [][]ColEntry{c.Cities, c.AdminAreas, c.Countries} {
		for _, e := range group {
			if e.Index <= 0 {
				return eris.Errorf("tables: col entry %s/%s%s has no index", e.Country, e.AdminArea, e.City)
			}
			for category := range e.Overrides {
				if _, ok := c.Baseline[category]; !ok {
					return eris.Errorf("tables: col override %s is not a baseline category", category)
				}
			}
		}
	}

	return nil
}

func (c *ColTables) index() {
	c.categories = make([]string, 0, len(c.Baseline))
	for category := range c.Baseline {
		c.categories = append(c.categories, category)
	}
	sort.Strings(c.categories)

	c.byCity = make(map[string]int, len(c.Cities))
	for i, e := range c.Cities {
		c.byCity[colKey(e.Country, e.City)] = i
	}
	c.byArea = make(map[string]int, len(c.AdminAreas))
	for i, e := range c.AdminAreas {
		c.byArea[colKey(e.Country, e.AdminArea)] = i
	}
	c.byCountry = make(map[string]int, len(c.Countries))
	for i, e := range c.Countries {
		c.byCountry[colKey(e.Country, "")] = i
	}
}

func colKey(iso, name string) string {
	return strings.ToUpper(iso) + "|" + utils.Fold(name)
}

// Categories returns the baseline categories in sorted order.
func (c *ColTables) Categories() []string {
	out := make([]string, len(c.categories))
	copy(out, c.categories)
	return out
}

func (c *ColTables) City(iso, city string) (ColEntry, bool) {
	i, ok := c.byCity[colKey(iso, city)]
	if !ok {
		return ColEntry{}, false
	}
	return c.Cities[i], true
}

func (c *ColTables) AdminArea(iso, area string) (ColEntry, bool) {
	i, ok := c.byArea[colKey(iso, area)]
	if !ok {
		return ColEntry{}, false
	}
	return c.AdminAreas[i], true
}

func (c *ColTables) Country(iso string) (ColEntry, bool) {
	i, ok := c.byCountry[colKey(iso, "")]
	if !ok {
		return ColEntry{}, false
	}
	return c.Countries[i], true
}

// TierMultiplier returns the inference multiplier for an income tier, 1.0 when unknown.
func (c *ColTables) TierMultiplier(tier string) float64 {
	if m, ok := c.Tiers[tier]; ok && m > 0 {
		return m
	}
	if m, ok := c.Tiers["unknown"]; ok && m > 0 {
		return m
	}
	return 1
}
