package handlers

import (
	"html/template"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var moneyPrinter = message.NewPrinter(language.English)

var templateFuncs = template.FuncMap{
	"money": formatMoney,
}

// formatMoney renders an amount in dollars with thousands separators,
// e.g. -1234.5 as "-$1,234.50".
func formatMoney(d decimal.Decimal) string {
	v := d.Round(2).InexactFloat64()
	if v < 0 {
		return "-" + moneyPrinter.Sprintf("$%.2f", -v)
	}
	return moneyPrinter.Sprintf("$%.2f", v)
}
