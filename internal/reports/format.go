package reports

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var moneyPrinter = message.NewPrinter(language.English)

// FormatAmount renders a monetary amount with grouping separators,
// e.g. 1234567.8 becomes "1,234,567.80".
func FormatAmount(amount decimal.Decimal) string {
	value, _ := amount.Round(2).Float64()
	return moneyPrinter.Sprintf("%.2f", value)
}
