package format

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCurrency(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{"0", "0.00"},
		{"5", "5.00"},
		{"10000", "10,000.00"},
		{"999.999", "1,000.00"},
		{"1234567.89", "1,234,567.89"},
		{"-50000", "-50,000.00"},
		{"-0.1", "-0.10"},
		{"123", "123.00"},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			value := decimal.RequireFromString(tt.value)
			assert.Equal(t, tt.want, Currency(value))
		})
	}
}
