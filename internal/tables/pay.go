package tables

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/spigell/salary-intel/internal/intel"
)

// PayBands are annual gross baselines for a mid-level hire in the reference
// market, scaled by level, country and city.
type PayBands struct {
	Version              string             `yaml:"version"`
	AsOf                 string             `yaml:"as_of"`
	Currency             string             `yaml:"currency"`
	DefaultBase          float64            `yaml:"default_base"`
	Families             map[string]float64 `yaml:"families"`
	Levels               map[string]float64 `yaml:"levels"`
	CountryFactors       map[string]float64 `yaml:"country_factors"`
	RemoteFactor         float64            `yaml:"remote_factor"`
	DefaultCountryFactor float64            `yaml:"default_country_factor"`
	Spread               float64            `yaml:"spread"`
	RoundTo              float64            `yaml:"round_to"`
}

func (p *PayBands) validate() error {
	if p.Version == "" {
		return eris.New("tables: pay band version is empty")
	}
	if p.DefaultBase <= 0 {
		return eris.New("tables: pay band default_base must be positive")
	}
	if p.Spread < 0 || p.Spread >= 1 {
		return eris.Errorf("tables: pay band spread %v out of range", p.Spread)
	}
	return nil
}

// Base returns the family baseline, or the default when the family is not banded.
func (p *PayBands) Base(slug string) (float64, bool) {
	if v, ok := p.Families[slug]; ok {
		return v, true
	}
	return p.DefaultBase, false
}

func (p *PayBands) LevelMultiplier(level intel.Level) float64 {
	if v, ok := p.Levels[string(level)]; ok {
		return v
	}
	return 1
}

// CountryFactor maps an ISO code to its factor, or the default factor when
// the country is not banded.
func (p *PayBands) CountryFactor(iso string) (float64, bool) {
	if v, ok := p.CountryFactors[strings.ToUpper(iso)]; ok {
		return v, true
	}
	return p.DefaultCountryFactor, false
}
