package format

import (
	"strings"

	"github.com/shopspring/decimal"
)

const groupSize = 3

// Currency renders a monetary value with two decimals and thousands
// separators, e.g. 10000 -> "10,000.00".
func Currency(value decimal.Decimal) string {
	str := value.StringFixed(2)

	isNegative := strings.HasPrefix(str, "-")
	str = strings.TrimPrefix(str, "-")

	integerPart, decimalPart, _ := strings.Cut(str, ".")

	var out strings.Builder

	if isNegative {
		out.WriteString("-")
	}

	length := len(integerPart)

	start := length % groupSize
	if start == 0 {
		start = groupSize
	}

	out.WriteString(integerPart[:start])

	for i := start; i < length; i += groupSize {
		out.WriteString(",")
		out.WriteString(integerPart[i : i+groupSize])
	}

	out.WriteString(".")
	out.WriteString(decimalPart)

	return out.String()
}
