package col

import (
	"context"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/spigell/salary-intel/internal/intel"
	"github.com/spigell/salary-intel/internal/tables"
	"github.com/spigell/salary-intel/internal/utils"
)

// Key addresses one level of the hierarchy. Name is the city or admin area
// and is blank at country level.
type Key struct {
	Method intel.ColMethod
	ISO    string
	Name   string
}

// Source answers index lookups for a single level. A false result with a
// nil error means the source has no entry.
type Source interface {
	Name() string
	Version() string
	AsOf() string
	Type() intel.SourceType
	Lookup(ctx context.Context, key Key) (tables.ColEntry, bool, error)
}

// TableSource serves the bundled table.
type TableSource struct {
	table *tables.ColTables
}

func NewTableSource(t *tables.ColTables) *TableSource {
	return &TableSource{table: t}
}

func (s *TableSource) Name() string           { return "bundled:" + s.table.Version }
func (s *TableSource) Version() string        { return s.table.Version }
func (s *TableSource) AsOf() string           { return s.table.AsOf }
func (s *TableSource) Type() intel.SourceType { return intel.SourceCache }

func (s *TableSource) Lookup(_ context.Context, key Key) (tables.ColEntry, bool, error) {
	switch key.Method {
	case intel.ColMethodCity:
		e, ok := s.table.City(key.ISO, key.Name)
		return e, ok, nil
	case intel.ColMethodAdminArea:
		e, ok := s.table.AdminArea(key.ISO, key.Name)
		return e, ok, nil
	case intel.ColMethodCountry:
		e, ok := s.table.Country(key.ISO)
		return e, ok, nil
	}
	return tables.ColEntry{}, false, nil
}

// overrideFile is the on-disk shape of a FileSource.
type overrideFile struct {
	Version    string            `yaml:"version"`
	AsOf       string            `yaml:"as_of"`
	Cities     []tables.ColEntry `yaml:"cities"`
	AdminAreas []tables.ColEntry `yaml:"admin_areas"`
	Countries  []tables.ColEntry `yaml:"countries"`
}

// FileSource serves locally maintained index overrides that take precedence
// over the bundled table. Entries use the bundled table's categories.
type FileSource struct {
	path    string
	version string
	asOf    string
	entries map[string]tables.ColEntry
}

// NewFileSource reads the override file at path. Every override category
// must exist in baseline.
func NewFileSource(path string, baseline map[string]float64) (*FileSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "col: read overrides %s", path)
	}

	var f overrideFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "col: parse overrides %s", path)
	}
	if f.Version == "" {
		return nil, eris.Errorf("col: overrides %s have no version", path)
	}

	s := &FileSource{
		path:    path,
		version: f.Version,
		asOf:    f.AsOf,
		entries: make(map[string]tables.ColEntry),
	}
	groups := []struct {
		method  intel.ColMethod
		entries []tables.ColEntry
	}{
		{intel.ColMethodCity, f.Cities},
		{intel.ColMethodAdminArea, f.AdminAreas},
		{intel.ColMethodCountry, f.Countries},
	}
	for _, g := range groups {
		for _, e := range g.entries {
			if e.Index <= 0 {
				return nil, eris.Errorf("col: override %s/%s%s has no index", e.Country, e.AdminArea, e.City)
			}
			for category := range e.Overrides {
				if _, ok := baseline[category]; !ok {
					return nil, eris.Errorf("col: override category %s is unknown", category)
				}
			}
			name := e.City
			if g.method == intel.ColMethodAdminArea {
				name = e.AdminArea
			}
			if g.method == intel.ColMethodCountry {
				name = ""
			}
			s.entries[entryKey(Key{Method: g.method, ISO: e.Country, Name: name})] = e
		}
	}
	return s, nil
}

func (s *FileSource) Name() string           { return "file:" + s.path }
func (s *FileSource) Version() string        { return s.version }
func (s *FileSource) AsOf() string           { return s.asOf }
func (s *FileSource) Type() intel.SourceType { return intel.SourceCache }

func (s *FileSource) Lookup(_ context.Context, key Key) (tables.ColEntry, bool, error) {
	e, ok := s.entries[entryKey(key)]
	return e, ok, nil
}

func entryKey(k Key) string {
	return string(k.Method) + "|" + strings.ToUpper(k.ISO) + "|" + utils.Fold(k.Name)
}
