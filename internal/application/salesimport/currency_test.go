package salesimport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCurrencyResolver_Resolve(t *testing.T) {
	r := NewCurrencyResolver("", map[string]string{"id": "idr", "MY": "MYR"})

	tests := []struct {
		name     string
		item     string
		country  string
		expected string
	}{
		{"item currency wins", "usd", "ID", "USD"},
		{"store country", "", "ID", "IDR"},
		{"lowercase country", " ", "my", "MYR"},
		{"unknown country", "", "VN", "CNY"},
		{"no country", "", "", "CNY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, r.Resolve(tt.item, tt.country))
		})
	}
}
