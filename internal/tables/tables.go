// Package tables holds the versioned lookup data behind every model: role
// taxonomy, geography, tax models, cost-of-living indices, FX rates and pay
// bands. A Set is built once, validated, indexed and then only read.
package tables

import (
	"embed"
	"errors"
	"io/fs"
	"os"
	"sync"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/spigell/salary-intel/internal/intel"
)

//go:embed data/*.yaml
var embedded embed.FS

const (
	rolesFile = "roles.yaml"
	geoFile   = "geo.yaml"
	taxFile   = "tax.yaml"
	colFile   = "col.yaml"
	fxFile    = "fx.yaml"
	payFile   = "pay.yaml"
)

// Set bundles every table a pipeline run needs.
type Set struct {
	Roles *RoleTaxonomy
	Geo   *Geography
	Tax   *TaxTables
	Col   *ColTables
	FX    *FXTable
	Pay   *PayBands
}

var loadDefault = sync.OnceValues(func() (*Set, error) {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		return nil, eris.Wrap(err, "tables: open embedded data")
	}
	return Load(sub)
})

// Default returns the embedded tables. They are parsed on first use only.
func Default() (*Set, error) {
	return loadDefault()
}

// LoadDir loads tables from dir. Files missing from dir are taken from the
// embedded defaults so an override directory may hold a single table.
func LoadDir(dir string) (*Set, error) {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		return nil, eris.Wrap(err, "tables: open embedded data")
	}
	return Load(overlayFS{top: os.DirFS(dir), bottom: sub})
}

// Load parses, validates and indexes all tables found in fsys.
func Load(fsys fs.FS) (*Set, error) {
	set := &Set{
		Roles: &RoleTaxonomy{},
		Geo:   &Geography{},
		Tax:   &TaxTables{},
		Col:   &ColTables{},
		FX:    &FXTable{},
		Pay:   &PayBands{},
	}

	files := []struct {
		name   string
		target any
	}{
		{rolesFile, set.Roles},
		{geoFile, set.Geo},
		{taxFile, set.Tax},
		{colFile, set.Col},
		{fxFile, set.FX},
		{payFile, set.Pay},
	}

	for _, f := range files {
		data, err := fs.ReadFile(fsys, f.name)
		if err != nil {
			return nil, eris.Wrapf(err, "tables: read %s", f.name)
		}
		if err := yaml.Unmarshal(data, f.target); err != nil {
			return nil, eris.Wrapf(err, "tables: parse %s", f.name)
		}
	}

	if err := set.validate(); err != nil {
		return nil, err
	}

	set.Geo.index()
	set.Tax.index()
	set.Col.index()

	return set, nil
}

// Versions reports the revision of every table in the set.
func (s *Set) Versions() intel.ModelVersions {
	return intel.ModelVersions{
		RoleTaxonomy: s.Roles.Version,
		Location:     s.Geo.Version,
		Tax:          s.Tax.Version,
		Col:          s.Col.Version,
		FX:           s.FX.Version,
		PayBands:     s.Pay.Version,
	}
}

func (s *Set) validate() error {
	checks := []func() error{
		s.Roles.validate,
		s.Geo.validate,
		s.Tax.validate,
		s.Col.validate,
		s.FX.validate,
		s.Pay.validate,
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}

	for _, country := range s.Geo.Countries {
		if !s.FX.Known(country.Currency) {
			return eris.Errorf("tables: currency %s of %s has no fx rate", country.Currency, country.ISO)
		}
	}
	for _, model := range s.Tax.Models {
		if !s.FX.Known(model.Currency) {
			return eris.Errorf("tables: tax model %s uses currency %s without fx rate", model.Version, model.Currency)
		}
	}
	if !s.FX.Known(s.Col.Currency) {
		return eris.Errorf("tables: col currency %s has no fx rate", s.Col.Currency)
	}
	if !s.FX.Known(s.Pay.Currency) {
		return eris.Errorf("tables: pay band currency %s has no fx rate", s.Pay.Currency)
	}

	return nil
}

// overlayFS reads from top first and falls back to bottom for missing files.
type overlayFS struct {
	top    fs.FS
	bottom fs.FS
}

func (o overlayFS) Open(name string) (fs.File, error) {
	f, err := o.top.Open(name)
	if err == nil {
		return f, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return o.bottom.Open(name)
	}
	return nil, err
}
