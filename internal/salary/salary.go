// Package salary extracts a structured figure from free-text salary strings
// such as "$120k - $150k/yr" or "₹12-18 LPA".
package salary

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/spigell/salary-intel/internal/intel"
	"github.com/spigell/salary-intel/internal/utils"
)

// MaxAmount is the largest figure, per stated period, read as a salary.
// Anything larger, or not finite, is treated as no salary signal.
const MaxAmount = 1e9

var blocklist = []string{
	"competitive",
	"negotiable",
	"doe",
	"depending on experience",
	"dependent on experience",
	"market rate",
	"tbd",
	"not disclosed",
	"undisclosed",
	"attractive",
}

// Longer symbols first so "C$" wins over "$".
var symbols = []struct {
	symbol   string
	currency string
}{
	{"C$", "CAD"},
	{"CA$", "CAD"},
	{"A$", "AUD"},
	{"AU$", "AUD"},
	{"S$", "SGD"},
	{"R$", "BRL"},
	{"₹", "INR"},
	{"€", "EUR"},
	{"£", "GBP"},
	{"¥", "JPY"},
	{"$", "USD"},
}

var (
	codeRe   = regexp.MustCompile(`\b[A-Za-z]{3}\b`)
	amountRe = regexp.MustCompile(`(?i)(\d[\d,.]*)\s*(k|m|lakhs?|lacs?|lpa|crores?|cr)?\b`)
	rangeRe  = regexp.MustCompile(`(?i)^\s*(-|–|—|to)\s*$`)
)

var multipliers = map[string]float64{
	"k":      1e3,
	"m":      1e6,
	"lakh":   1e5,
	"lakhs":  1e5,
	"lac":    1e5,
	"lacs":   1e5,
	"lpa":    1e5,
	"crore":  1e7,
	"crores": 1e7,
	"cr":     1e7,
}

var periodTokens = []struct {
	tokens []string
	period intel.Period
}{
	{[]string{"hr", "hour", "hourly", "ph", "per hour"}, intel.PeriodHour},
	{[]string{"day", "daily", "pd", "per day"}, intel.PeriodDay},
	{[]string{"mo", "month", "monthly", "pm", "per month", "mth"}, intel.PeriodMonth},
	{[]string{"yr", "year", "yearly", "annual", "annually", "pa", "per annum", "lpa"}, intel.PeriodYear},
}

// Units that only appear in Indian salary notation.
var rupeeTokens = []string{"rs", "lpa", "lakh", "lakhs", "lac", "lacs", "crore", "crores"}

var netPhrases = []string{"net", "take home", "after tax", "in hand"}

// Currencies reports whether an ISO code is known to the FX tables.
type Currencies interface {
	Known(code string) bool
}

type Parser struct {
	currencies Currencies
}

func NewParser(currencies Currencies) *Parser {
	return &Parser{currencies: currencies}
}

// Parse returns nil when raw carries no usable salary signal. The currency is
// left blank when none is detected.
func (p *Parser) Parse(raw string) *intel.SalaryFigure {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil
	}

	folded := " " + utils.Fold(text) + " "
	for _, term := range blocklist {
		if strings.Contains(folded, " "+term+" ") {
			return nil
		}
	}

	lo, hi, ok := amounts(text)
	if !ok {
		return nil
	}
	if lo > hi {
		lo, hi = hi, lo
	}

	fig := &intel.SalaryFigure{
		Min:      lo,
		Max:      hi,
		Currency: p.currency(text),
		Period:   period(folded),
		Basis:    intel.BasisGross,
	}
	for _, phrase := range netPhrases {
		if strings.Contains(folded, " "+phrase+" ") {
			fig.Basis = intel.BasisNet
			break
		}
	}
	fig.DataQuality = DataQuality(lo, hi)

	return fig
}

// DataQuality scores a range by its width relative to the midpoint.
func DataQuality(lo, hi float64) float64 {
	mid := (lo + hi) / 2
	if mid <= 0 {
		return 0.4
	}
	pct := (hi - lo) / mid * 100
	switch {
	case pct > 100:
		return 0.4
	case pct > 50:
		return 0.6
	case pct > 20:
		return 0.7
	default:
		return 0.8
	}
}

func (p *Parser) currency(text string) string {
	for _, s := range symbols {
		if strings.Contains(text, s.symbol) {
			return s.currency
		}
	}
	for _, code := range codeRe.FindAllString(text, -1) {
		code = strings.ToUpper(code)
		if p.currencies != nil && p.currencies.Known(code) {
			return code
		}
	}
	folded := " " + utils.Fold(text) + " "
	for _, tok := range rupeeTokens {
		if strings.Contains(folded, " "+tok+" ") {
			return "INR"
		}
	}
	return ""
}

type amount struct {
	value      float64
	multiplier float64
	start, end int
}

// OutOfRange reports whether raw names an amount above MaxAmount, which makes
// Parse drop it.
func OutOfRange(raw string) bool {
	for _, a := range scan(raw) {
		if !plausible(a.value * a.multiplier) {
			return true
		}
	}
	return false
}

func plausible(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v <= MaxAmount
}

func scan(text string) []amount {
	matches := amountRe.FindAllStringSubmatchIndex(text, -1)
	found := make([]amount, 0, len(matches))
	for _, m := range matches {
		v, ok := parseNumber(text[m[2]:m[3]])
		if !ok {
			continue
		}
		mult := 1.0
		if m[4] >= 0 {
			mult = multipliers[strings.ToLower(text[m[4]:m[5]])]
		}
		found = append(found, amount{value: v, multiplier: mult, start: m[0], end: m[1]})
	}
	return found
}

func amounts(text string) (float64, float64, bool) {
	found := scan(text)
	if len(found) == 0 {
		return 0, 0, false
	}

	first := found[0]
	if len(found) >= 2 && isRange(text[first.end:found[1].start]) {
		second := found[1]
		if first.multiplier == 1 && second.multiplier != 1 {
			first.multiplier = second.multiplier
		}
		lo, hi := first.value*first.multiplier, second.value*second.multiplier
		if !plausible(lo) || !plausible(hi) || (lo <= 0 && hi <= 0) {
			return 0, 0, false
		}
		return lo, hi, true
	}

	v := first.value * first.multiplier
	if !plausible(v) || v <= 0 {
		return 0, 0, false
	}
	return v, v, true
}

// isRange reports whether the text between two amounts is a range separator,
// ignoring currency symbols and codes repeated on the second amount.
func isRange(between string) bool {
	for _, s := range symbols {
		between = strings.ReplaceAll(between, s.symbol, "")
	}
	between = codeRe.ReplaceAllString(between, "")
	return rangeRe.MatchString(between)
}

// parseNumber reads "1,200,000", "1.200.000", "85.5" and "85,5".
func parseNumber(s string) (float64, bool) {
	s = strings.Trim(s, ".,")
	if s == "" {
		return 0, false
	}

	commas := strings.Count(s, ",")
	dots := strings.Count(s, ".")

	switch {
	case commas > 0 && dots > 0:
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case commas > 1:
		s = strings.ReplaceAll(s, ",", "")
	case commas == 1:
		if len(s)-strings.Index(s, ",")-1 == 3 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case dots > 1:
		s = strings.ReplaceAll(s, ".", "")
	case dots == 1:
		if len(s)-strings.Index(s, ".")-1 == 3 && !strings.HasPrefix(s, "0") {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	// Out of range values come back as ±Inf or 0 and are rejected by plausible.
	return v, true
}

func period(folded string) intel.Period {
	for _, pt := range periodTokens {
		for _, tok := range pt.tokens {
			if strings.Contains(folded, " "+tok+" ") {
				return pt.period
			}
		}
	}
	return intel.PeriodYear
}
