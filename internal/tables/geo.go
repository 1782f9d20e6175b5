package tables

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/spigell/salary-intel/internal/utils"
)

type Geography struct {
	Version        string    `yaml:"version"`
	RemoteKeywords []string  `yaml:"remote_keywords"`
	Countries      []Country `yaml:"countries"`

	byName map[string]int
	byISO  map[string]int
}

type Country struct {
	ISO         string      `yaml:"iso"`
	Name        string      `yaml:"name"`
	Currency    string      `yaml:"currency"`
	Tier        string      `yaml:"tier"`
	Aliases     []string    `yaml:"aliases"`
	DefaultCity string      `yaml:"default_city"`
	AdminAreas  []AdminArea `yaml:"admin_areas"`
	Cities      []City      `yaml:"cities"`
}

type AdminArea struct {
	Name    string   `yaml:"name"`
	Code    string   `yaml:"code"`
	Aliases []string `yaml:"aliases"`
}

type City struct {
	Name      string   `yaml:"name"`
	AdminArea string   `yaml:"admin_area"`
	Lat       float64  `yaml:"lat"`
	Lng       float64  `yaml:"lng"`
	Premium   float64  `yaml:"premium"`
	Aliases   []string `yaml:"aliases"`
}

func (g *Geography) validate() error {
	if g.Version == "" {
		return eris.New("tables: geo version is empty")
	}

	seen := make(map[string]bool, len(g.Countries))
	for _, c := range g.Countries {
		if c.ISO == "" || c.Name == "" || c.Currency == "" {
			return eris.Errorf("tables: country %q is incomplete", c.Name)
		}
		if seen[c.ISO] {
			return eris.Errorf("tables: duplicate country %s", c.ISO)
		}
		seen[c.ISO] = true

		if c.DefaultCity != "" {
			if _, ok := c.City(c.DefaultCity); !ok {
				return eris.Errorf("tables: default city %s of %s is not listed", c.DefaultCity, c.ISO)
			}
		}
		for _, city := range c.Cities {
			if city.AdminArea == "" {
				continue
			}
			if _, ok := c.AdminArea(city.AdminArea); !ok {
				return eris.Errorf("tables: city %s references unknown admin area %s", city.Name, city.AdminArea)
			}
		}
	}

	return nil
}

func (g *Geography) index() {
	g.byName = make(map[string]int)
	g.byISO = make(map[string]int, len(g.Countries))

	for i, c := range g.Countries {
		g.byISO[strings.ToUpper(c.ISO)] = i
		for _, name := range append([]string{c.Name}, c.Aliases...) {
			key := utils.Fold(name)
			if _, taken := g.byName[key]; !taken {
				g.byName[key] = i
			}
		}
	}
}

// CountryByName matches a country name or alias after folding.
func (g *Geography) CountryByName(name string) (Country, bool) {
	i, ok := g.byName[utils.Fold(name)]
	if !ok {
		return Country{}, false
	}
	return g.Countries[i], true
}

func (g *Geography) CountryByISO(code string) (Country, bool) {
	i, ok := g.byISO[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return Country{}, false
	}
	return g.Countries[i], true
}

// CityAnywhere returns the first city in table order matching name.
func (g *Geography) CityAnywhere(name string) (Country, City, bool) {
	for _, c := range g.Countries {
		if city, ok := c.City(name); ok {
			return c, city, true
		}
	}
	return Country{}, City{}, false
}

// AdminAreaAnywhere returns the first admin area in table order matching name.
func (g *Geography) AdminAreaAnywhere(name string) (Country, AdminArea, bool) {
	for _, c := range g.Countries {
		if area, ok := c.AdminArea(name); ok {
			return c, area, true
		}
	}
	return Country{}, AdminArea{}, false
}

// IsRemote reports whether text contains a remote-work keyword.
func (g *Geography) IsRemote(text string) bool {
	padded := " " + utils.Fold(text) + " "
	for _, kw := range g.RemoteKeywords {
		if strings.Contains(padded, " "+utils.Fold(kw)+" ") {
			return true
		}
	}
	return false
}

func (c Country) City(name string) (City, bool) {
	key := utils.Fold(name)
	if key == "" {
		return City{}, false
	}
	for _, city := range c.Cities {
		if utils.Fold(city.Name) == key {
			return city, true
		}
		for _, alias := range city.Aliases {
			if utils.Fold(alias) == key {
				return city, true
			}
		}
	}
	return City{}, false
}

// AdminArea matches by name, alias or code.
func (c Country) AdminArea(name string) (AdminArea, bool) {
	key := utils.Fold(name)
	if key == "" {
		return AdminArea{}, false
	}
	for _, area := range c.AdminAreas {
		if utils.Fold(area.Name) == key || utils.Fold(area.Code) == key {
			return area, true
		}
		for _, alias := range area.Aliases {
			if utils.Fold(alias) == key {
				return area, true
			}
		}
	}
	return AdminArea{}, false
}

func (c Country) DefaultCityEntry() (City, bool) {
	if c.DefaultCity == "" {
		return City{}, false
	}
	return c.City(c.DefaultCity)
}
