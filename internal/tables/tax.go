package tables

import (
	"strings"

	"github.com/rotisserie/eris"
)

const (
	TaxMethodModel       = "model"
	TaxMethodApproxTable = "approx_table"
)

type TaxTables struct {
	Version        string     `yaml:"version"`
	AsOf           string     `yaml:"as_of"`
	DefaultCountry string     `yaml:"default_country"`
	Models         []TaxModel `yaml:"models"`

	byCountry map[string]int
}

// TaxModel is either a progressive bracket model or an effective-rate table.
type TaxModel struct {
	Country  string `yaml:"country"`
	Version  string `yaml:"version"`
	Method   string `yaml:"method"`
	Currency string `yaml:"currency"`

	Deduction       float64   `yaml:"deduction"`
	TaxableRatio    float64   `yaml:"taxable_ratio"`
	RebateThreshold float64   `yaml:"rebate_threshold"`
	Cess            float64   `yaml:"cess"`
	Brackets        []Bracket `yaml:"brackets"`
	Social          []Bracket `yaml:"social"`

	Effective []Bracket `yaml:"effective"`
}

// Bracket applies Rate up to UpTo. A zero UpTo marks the open top band.
type Bracket struct {
	UpTo float64 `yaml:"up_to"`
	Rate float64 `yaml:"rate"`
}

func (t *TaxTables) validate() error {
	if t.Version == "" {
		return eris.New("tables: tax version is empty")
	}

	found := false
	for _, m := range t.Models {
		if m.Country == "" || m.Version == "" || m.Currency == "" {
			return eris.Errorf("tables: tax model %q is incomplete", m.Version)
		}
		switch m.Method {
		case TaxMethodModel:
			if err := validateBands(m.Brackets); err != nil {
				return eris.Wrapf(err, "tables: tax model %s brackets", m.Version)
			}
			if err := validateBands(m.Social); err != nil {
				return eris.Wrapf(err, "tables: tax model %s social", m.Version)
			}
		case TaxMethodApproxTable:
			if err := validateBands(m.Effective); err != nil {
				return eris.Wrapf(err, "tables: tax model %s effective", m.Version)
			}
		default:
			return eris.Errorf("tables: tax model %s has unknown method %q", m.Version, m.Method)
		}
		if strings.EqualFold(m.Country, t.DefaultCountry) {
			found = true
		}
	}

	if !found {
		return eris.Errorf("tables: default tax country %q has no model", t.DefaultCountry)
	}

	return nil
}

func validateBands(bands []Bracket) error {
	prev := 0.0
	for i, b := range bands {
		if b.Rate < 0 || b.Rate > 1 {
			return eris.Errorf("band %d rate %v out of range", i, b.Rate)
		}
		if b.UpTo == 0 {
			if i != len(bands)-1 {
				return eris.Errorf("open band %d is not last", i)
			}
			continue
		}
		if b.UpTo <= prev {
			return eris.Errorf("band %d is not ascending", i)
		}
		prev = b.UpTo
	}
	return nil
}

func (t *TaxTables) index() {
	t.byCountry = make(map[string]int, len(t.Models))
	for i, m := range t.Models {
		t.byCountry[strings.ToUpper(m.Country)] = i
	}
}

func (t *TaxTables) Model(iso string) (TaxModel, bool) {
	i, ok := t.byCountry[strings.ToUpper(iso)]
	if !ok {
		return TaxModel{}, false
	}
	return t.Models[i], true
}

// Default is the model used when a country has none of its own.
func (t *TaxTables) Default() TaxModel {
	m, _ := t.Model(t.DefaultCountry)
	return m
}
