package cmd

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/salary-intel/internal/intel"
	"github.com/spigell/salary-intel/internal/tables"
)

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "Show the versions and coverage of the reference tables",
	Run: func(_ *cobra.Command, _ []string) {
		logger, config := bootstrap()
		defer logger.Sync()

		set, err := loadTables(config.Tables)
		if err != nil {
			logger.Fatal("loading tables", zap.Error(err))
		}

		pterm.DefaultSection.Println("Table versions")
		_ = pterm.DefaultTable.WithHasHeader().WithData(versionRows(set.Versions())).Render()

		pterm.DefaultSection.Println("Countries")
		_ = pterm.DefaultTable.WithHasHeader().WithData(countryRows(set)).Render()
	},
}

func init() {
	rootCmd.AddCommand(tablesCmd)
}

func versionRows(v intel.ModelVersions) pterm.TableData {
	return pterm.TableData{
		{"Table", "Version"},
		{"Role taxonomy", v.RoleTaxonomy},
		{"Location", v.Location},
		{"Tax", v.Tax},
		{"Cost of living", v.Col},
		{"FX", v.FX},
		{"Pay bands", v.PayBands},
	}
}

// countryRows lists each country with the tax method and the pay a mid-level
// software engineer is priced at there.
func countryRows(set *tables.Set) pterm.TableData {
	countries := append([]tables.Country(nil), set.Geo.Countries...)
	sort.Slice(countries, func(i, j int) bool { return countries[i].ISO < countries[j].ISO })

	base, ok := set.Pay.Base("software_engineer")
	if !ok {
		base = set.Pay.DefaultBase
	}
	base *= set.Pay.LevelMultiplier(intel.LevelMid)

	rows := pterm.TableData{{"ISO", "Country", "Currency", "Tier", "Cities", "Tax model", "Mid SWE base"}}
	for _, c := range countries {
		taxModel := "default (inference)"
		if m, ok := set.Tax.Model(c.ISO); ok {
			taxModel = fmt.Sprintf("%s (%s)", m.Version, m.Method)
		}

		factor, ok := set.Pay.CountryFactor(c.ISO)
		if !ok {
			factor = set.Pay.DefaultCountryFactor
		}

		rows = append(rows, []string{
			c.ISO,
			c.Name,
			c.Currency,
			c.Tier,
			strconv.Itoa(len(c.Cities)),
			taxModel,
			money(base*factor, set.Pay.Currency),
		})
	}

	rows = append(rows, []string{"", "", "", "", humanize.Comma(int64(totalCities(countries))), "", ""})
	return rows
}

func totalCities(countries []tables.Country) int {
	n := 0
	for _, c := range countries {
		n += len(c.Cities)
	}
	return n
}
