package tables

import (
	"strings"

	"github.com/rotisserie/eris"
)

// FXTable stores units of each currency per one unit of Base.
type FXTable struct {
	Version string             `yaml:"version"`
	Base    string             `yaml:"base"`
	AsOf    string             `yaml:"as_of"`
	Rates   map[string]float64 `yaml:"rates"`
}

func (f *FXTable) validate() error {
	if f.Version == "" {
		return eris.New("tables: fx version is empty")
	}
	if r, ok := f.Rates[f.Base]; !ok || r != 1 {
		return eris.Errorf("tables: fx base %s must have rate 1", f.Base)
	}
	for code, rate := range f.Rates {
		if rate <= 0 {
			return eris.Errorf("tables: fx rate for %s is not positive", code)
		}
	}
	return nil
}

func (f *FXTable) Known(code string) bool {
	_, ok := f.Rates[strings.ToUpper(code)]
	return ok
}

// Rate returns how many units of to one unit of from buys.
func (f *FXTable) Rate(from, to string) (float64, bool) {
	fromRate, ok := f.Rates[strings.ToUpper(from)]
	if !ok {
		return 0, false
	}
	toRate, ok := f.Rates[strings.ToUpper(to)]
	if !ok {
		return 0, false
	}
	return toRate / fromRate, true
}
