// Package location resolves free-text job locations into a country, an
// optional admin area and city, and a confidence score.
package location

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/spigell/salary-intel/internal/intel"
	"github.com/spigell/salary-intel/internal/tables"
	"github.com/spigell/salary-intel/internal/utils"
)

const (
	ConfidenceCity        = 0.9
	ConfidenceSingleCity  = 0.85
	ConfidenceDefaultCity = 0.75
	ConfidenceCountry     = 0.7
	ConfidenceAdminArea   = 0.6
	ConfidenceRemote      = 0.5
	ConfidenceUnknown     = 0.4
	ConfidenceEmpty       = 0.3
)

// Match names the branch that produced a location.
type Match string

const (
	MatchCity        Match = "city"
	MatchDefaultCity Match = "default_city"
	MatchAdminArea   Match = "admin_area"
	MatchCountry     Match = "country"
	MatchRemote      Match = "remote"
	MatchUnknown     Match = "unknown"
	MatchEmpty       Match = "empty"
)

type Result struct {
	Location intel.ResolvedLocation
	Match    Match
	// Fuzzy is set when the country was only found by edit distance.
	Fuzzy bool
	// Substituted holds the raw city segment replaced by the default city.
	Substituted string
}

type Resolver struct {
	geo *tables.Geography
}

func NewResolver(geo *tables.Geography) *Resolver {
	return &Resolver{geo: geo}
}

// Resolve never fails; unrecognised input degrades to a sentinel location.
func (r *Resolver) Resolve(raw string, mode intel.WorkMode) Result {
	text := strings.TrimSpace(raw)

	if mode == intel.WorkModeRemoteGlobal {
		return global(ConfidenceRemote, MatchRemote)
	}
	if text == "" {
		return global(ConfidenceEmpty, MatchEmpty)
	}

	segments := splitSegments(text)

	if r.geo.IsRemote(text) {
		if mode != intel.WorkModeRemoteCountry {
			return global(ConfidenceRemote, MatchRemote)
		}
		segments = r.stripRemote(segments)
		if len(segments) == 0 {
			return global(ConfidenceRemote, MatchRemote)
		}
		res := r.resolveSegments(segments)
		if !res.Location.Resolved() {
			return global(ConfidenceRemote, MatchRemote)
		}
		return dropCity(res)
	}

	if len(segments) == 0 {
		return global(ConfidenceEmpty, MatchEmpty)
	}

	res := r.resolveSegments(segments)
	if mode == intel.WorkModeRemoteCountry && res.Location.Resolved() {
		return dropCity(res)
	}
	return res
}

func (r *Resolver) resolveSegments(segments []string) Result {
	if len(segments) == 1 {
		return r.single(segments[0])
	}

	lead := segments[0]
	country, area, fuzzyHit, ok := r.country(segments[len(segments)-1], lead)
	if !ok {
		return r.single(lead)
	}

	res := Result{Fuzzy: fuzzyHit}
	loc := intel.ResolvedLocation{
		Country:        country.Name,
		ISOCountryCode: country.ISO,
	}

	if area == nil && len(segments) >= 3 {
		middle := segments[len(segments)-2]
		if known, found := country.AdminArea(middle); found {
			area = &known.Name
		} else {
			name := utils.TitleCase(middle)
			area = &name
		}
	}

	if city, found := country.City(lead); found {
		setCity(&loc, city)
		if area == nil && city.AdminArea != "" {
			area = &city.AdminArea
		}
		loc.AdminArea = area
		loc.Confidence = ConfidenceCity
		res.Match = MatchCity
		res.Location = loc
		return res
	}

	if known, found := country.AdminArea(lead); found && area == nil {
		loc.AdminArea = &known.Name
		loc.Confidence = ConfidenceDefaultCity
		res.Match = MatchAdminArea
		res.Location = loc
		return res
	}

	loc.AdminArea = area
	loc.Confidence = ConfidenceDefaultCity
	res.Location = loc

	city, found := country.DefaultCityEntry()
	// The default city is only substituted when it lies in the stated area.
	if !found || (area != nil && utils.Fold(*area) != utils.Fold(city.AdminArea)) {
		res.Match = MatchCountry
		if area != nil {
			res.Match = MatchAdminArea
		}
		return res
	}

	setCity(&res.Location, city)
	if res.Location.AdminArea == nil && city.AdminArea != "" {
		res.Location.AdminArea = &city.AdminArea
	}
	res.Match = MatchDefaultCity
	res.Substituted = lead
	return res
}

func (r *Resolver) single(token string) Result {
	if c, ok := r.exactCountry(token); ok {
		return countryOnly(c, false)
	}

	if country, city, ok := r.geo.CityAnywhere(token); ok {
		loc := intel.ResolvedLocation{
			Country:        country.Name,
			ISOCountryCode: country.ISO,
			Confidence:     ConfidenceSingleCity,
		}
		setCity(&loc, city)
		if city.AdminArea != "" {
			area := city.AdminArea
			loc.AdminArea = &area
		}
		return Result{Location: loc, Match: MatchCity}
	}

	if country, area, ok := r.geo.AdminAreaAnywhere(token); ok {
		name := area.Name
		return Result{
			Location: intel.ResolvedLocation{
				AdminArea:      &name,
				Country:        country.Name,
				ISOCountryCode: country.ISO,
				Confidence:     ConfidenceAdminArea,
			},
			Match: MatchAdminArea,
		}
	}

	if c, ok := r.fuzzyCountry(token); ok {
		return countryOnly(c, true)
	}

	city := utils.TitleCase(token)
	return Result{
		Location: intel.ResolvedLocation{
			City:           &city,
			Country:        intel.UnknownCountry,
			ISOCountryCode: intel.GlobalISO,
			Confidence:     ConfidenceUnknown,
		},
		Match: MatchUnknown,
	}
}

func (r *Resolver) exactCountry(segment string) (tables.Country, bool) {
	if c, ok := r.geo.CountryByName(segment); ok {
		return c, true
	}
	if len(strings.TrimSpace(segment)) == 2 {
		return r.geo.CountryByISO(segment)
	}
	return tables.Country{}, false
}

// country matches the trailing segment against country names, then admin
// areas, then ISO codes, then fuzzy names. When several candidates fit, the
// one that knows lead as a city wins.
func (r *Resolver) country(segment, lead string) (tables.Country, *string, bool, bool) {
	if c, ok := r.geo.CountryByName(segment); ok {
		return c, nil, false, true
	}

	type candidate struct {
		country tables.Country
		area    *string
	}
	var candidates []candidate

	for _, c := range r.geo.Countries {
		if a, ok := c.AdminArea(segment); ok {
			name := a.Name
			candidates = append(candidates, candidate{country: c, area: &name})
		}
	}
	if len(strings.TrimSpace(segment)) == 2 {
		if c, ok := r.geo.CountryByISO(segment); ok {
			candidates = append(candidates, candidate{country: c})
		}
	}

	if len(candidates) > 0 {
		for _, cand := range candidates {
			if _, ok := cand.country.City(lead); ok {
				return cand.country, cand.area, false, true
			}
		}
		return candidates[0].country, candidates[0].area, false, true
	}

	if c, ok := r.fuzzyCountry(segment); ok {
		return c, nil, true, true
	}

	return tables.Country{}, nil, false, false
}

func (r *Resolver) fuzzyCountry(segment string) (tables.Country, bool) {
	key := utils.Fold(segment)
	limit := 0
	switch n := len([]rune(key)); {
	case n >= 5:
		limit = 2
	case n == 4:
		limit = 1
	default:
		return tables.Country{}, false
	}

	best := -1
	bestDistance := limit + 1
	for i, c := range r.geo.Countries {
		for _, name := range append([]string{c.Name}, c.Aliases...) {
			d := fuzzy.LevenshteinDistance(key, utils.Fold(name))
			if d < bestDistance {
				best, bestDistance = i, d
			}
		}
	}
	if best < 0 {
		return tables.Country{}, false
	}
	return r.geo.Countries[best], true
}

func (r *Resolver) stripRemote(segments []string) []string {
	out := make([]string, 0, len(segments))
	for _, seg := range segments {
		padded := " " + utils.Fold(seg) + " "
		for _, kw := range r.geo.RemoteKeywords {
			padded = strings.ReplaceAll(padded, " "+utils.Fold(kw)+" ", " ")
		}
		if rest := strings.TrimSpace(padded); rest != "" {
			out = append(out, rest)
		}
	}
	return out
}

func splitSegments(text string) []string {
	parts := strings.Split(text, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func setCity(loc *intel.ResolvedLocation, city tables.City) {
	name := city.Name
	lat, lng := city.Lat, city.Lng
	loc.City = &name
	loc.Lat = &lat
	loc.Lng = &lng
}

func dropCity(res Result) Result {
	res.Location.City = nil
	res.Location.Lat = nil
	res.Location.Lng = nil
	res.Substituted = ""
	if res.Match == MatchCity || res.Match == MatchDefaultCity {
		res.Match = MatchCountry
	}
	return res
}

func countryOnly(c tables.Country, fuzzyHit bool) Result {
	return Result{
		Location: intel.ResolvedLocation{
			Country:        c.Name,
			ISOCountryCode: c.ISO,
			Confidence:     ConfidenceCountry,
		},
		Match: MatchCountry,
		Fuzzy: fuzzyHit,
	}
}

func global(confidence float64, match Match) Result {
	return Result{
		Location: intel.ResolvedLocation{
			Country:        intel.GlobalCountry,
			ISOCountryCode: intel.GlobalISO,
			Confidence:     confidence,
		},
		Match: match,
	}
}
