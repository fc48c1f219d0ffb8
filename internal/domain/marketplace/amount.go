package marketplace

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// 2.866.250, 12.000
	dotGrouping = regexp.MustCompile(`^\d{1,3}(\.\d{3})+$`)
	// currency prefixes such as "Rp" or "RM", whitespace and other symbols
	amountNoise = regexp.MustCompile(`[^0-9.,\-]`)
)

// ParseAmount converts a cell to a decimal. Numeric cells are taken as is;
// text goes through ParseAmountText.
func ParseAmount(c Cell) decimal.Decimal {
	if c.Numeric {
		if d, err := decimal.NewFromString(strings.TrimSpace(c.Value)); err == nil {
			return d
		}
	}
	return ParseAmountText(c.Value)
}

// ParseAmountText parses a locale formatted amount. Separators are
// disambiguated by pattern:
//
//	"1.000,50"  dot and comma: dot groups thousands, comma is decimal
//	"1000,50"   single comma: decimal
//	"1,000,000" repeated comma: thousands
//	"2.866.250" dots in 3-digit groups: thousands
//	"12.5"      otherwise the dot is decimal
//
// A single group such as "1.500" matches the grouping pattern and is read
// as 1500. Unparseable input yields zero.
func ParseAmountText(s string) decimal.Decimal {
	s = amountNoise.ReplaceAllString(s, "")
	if s == "" {
		return decimal.Zero
	}

	hasDot := strings.Contains(s, ".")
	commas := strings.Count(s, ",")

	switch {
	case hasDot && commas > 0:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case commas == 1:
		s = strings.Replace(s, ",", ".", 1)
	case commas > 1:
		s = strings.ReplaceAll(s, ",", "")
	case hasDot && dotGrouping.MatchString(s):
		s = strings.ReplaceAll(s, ".", "")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
