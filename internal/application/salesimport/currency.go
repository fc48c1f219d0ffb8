package salesimport

import "strings"

// CurrencyResolver picks the currency of an imported line
type CurrencyResolver struct {
	fallback  string
	byCountry map[string]string
}

// NewCurrencyResolver creates a resolver. byCountry keys are store
// country codes.
func NewCurrencyResolver(fallback string, byCountry map[string]string) *CurrencyResolver {
	table := make(map[string]string, len(byCountry))
	for code, currency := range byCountry {
		table[strings.ToUpper(code)] = strings.ToUpper(currency)
	}
	if fallback == "" {
		fallback = "CNY"
	}
	return &CurrencyResolver{fallback: strings.ToUpper(fallback), byCountry: table}
}

// Resolve returns the item currency when given, else the currency of the
// store country, else the fallback
func (r *CurrencyResolver) Resolve(itemCurrency, countryCode string) string {
	if c := strings.TrimSpace(itemCurrency); c != "" {
		return strings.ToUpper(c)
	}
	if c, ok := r.byCountry[strings.ToUpper(countryCode)]; ok {
		return c
	}
	return r.fallback
}
