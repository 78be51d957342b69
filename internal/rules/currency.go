package rules

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var ptPrinter = message.NewPrinter(language.EuropeanPortuguese)

// FormatEUR renders an amount in euros the way the club's forms show it:
// no decimals for whole amounts, two otherwise, pt-PT digit separators.
func FormatEUR(amount float64) string {
	if amount == math.Trunc(amount) {
		return ptPrinter.Sprintf("%.0f €", amount)
	}
	return ptPrinter.Sprintf("%.2f €", amount)
}
