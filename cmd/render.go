package cmd

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
	"github.com/pterm/pterm"

	"github.com/spigell/salary-intel/internal/intel"
)

const notAvailable = "n/a"

// money formats an amount with thousands separators and its currency.
func money(amount float64, currency string) string {
	return fmt.Sprintf("%s %s", humanize.Comma(int64(math.Round(amount))), currency)
}

func moneyRange(lo, hi float64, currency string) string {
	if lo == hi {
		return money(lo, currency)
	}
	return fmt.Sprintf("%s - %s %s", humanize.Comma(int64(math.Round(lo))), humanize.Comma(int64(math.Round(hi))), currency)
}

// colorizeLabel paints the affordability label from red to green.
func colorizeLabel(label intel.AffordabilityLabel) string {
	switch label {
	case intel.LabelVeryComfortable:
		return pterm.Green(string(label))
	case intel.LabelComfortable:
		return pterm.LightGreen(string(label))
	case intel.LabelTight:
		return pterm.Yellow(string(label))
	default:
		return pterm.Red(string(label))
	}
}

func describeResolved(l intel.ResolvedLocation) string {
	s := l.Country
	if l.AdminArea != nil {
		s = *l.AdminArea + ", " + s
	}
	if l.City != nil {
		s = *l.City + ", " + s
	}
	return fmt.Sprintf("%s [%s] (confidence %.2f)", s, l.ISOCountryCode, l.Confidence)
}

// resultRows lays the headline figures of res out as a two-column table.
func resultRows(res intel.Result) pterm.TableData {
	rows := pterm.TableData{
		{"Field", "Value"},
		{"Role", fmt.Sprintf("%s (%s, level %s)", res.NormalizedRole, res.NormalizedRoleSlug, res.Level)},
		{"Location", describeResolved(res.Location)},
		{"Work mode", string(res.WorkMode)},
	}

	listed := notAvailable
	if res.ListedSalary != nil {
		s := res.ListedSalary
		listed = fmt.Sprintf("%s per %s, %s", moneyRange(s.Min, s.Max, s.Currency), s.Period, s.Basis)
	}
	rows = append(rows, []string{"Listed salary", listed})

	expected := notAvailable
	if res.ExpectedSalary != nil {
		s := res.ExpectedSalary
		expected = fmt.Sprintf("%s per %s", moneyRange(s.Min, s.Max, s.Currency), s.Period)
	}
	rows = append(rows, []string{"Expected salary", expected})

	net := notAvailable
	if res.NetIncome != nil {
		net = fmt.Sprintf("%s per month (%s)", money(res.NetIncome.MonthlyNetIncome, res.NetIncome.Currency), res.NetIncome.ModelVersion)
	}
	rows = append(rows, []string{"Net income", net})

	expenses := notAvailable
	if res.CostOfLiving != nil {
		expenses = fmt.Sprintf("%s per month (%s)", money(res.CostOfLiving.MonthlyCoreExpenses, res.CostOfLiving.Currency), res.CostOfLiving.Method)
	}
	rows = append(rows, []string{"Core expenses", expenses})

	afford := notAvailable
	if res.AffordabilityScore != nil && res.AffordabilityLabel != nil {
		afford = fmt.Sprintf("%.2f %s", *res.AffordabilityScore, colorizeLabel(*res.AffordabilityLabel))
	}
	rows = append(rows,
		[]string{"Affordability", afford},
		[]string{"Confidence", string(res.Confidence.Level)},
		[]string{"Schema valid", fmt.Sprintf("%t", res.SchemaValid)},
	)
	return rows
}

func bullets(items []string) []pterm.BulletListItem {
	out := make([]pterm.BulletListItem, 0, len(items))
	for _, item := range items {
		out = append(out, pterm.BulletListItem{Level: 0, Text: item})
	}
	return out
}

func renderResult(res intel.Result) {
	pterm.DefaultSection.Println("Salary intelligence")
	_ = pterm.DefaultTable.WithHasHeader().WithData(resultRows(res)).Render()

	for _, block := range []struct {
		title string
		items []string
	}{
		{"Explanations", res.Explanations},
		{"Calculation notes", res.CalcNotes},
		{"Confidence reasons", res.Confidence.Reasons},
		{"Validation errors", res.ValidationErrors},
	} {
		if len(block.items) == 0 {
			continue
		}
		pterm.DefaultSection.WithLevel(2).Println(block.title)
		_ = pterm.DefaultBulletList.WithItems(bullets(block.items)).Render()
	}
}
