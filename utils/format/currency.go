package format

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.AmericanEnglish)

// Currency renders an amount as a whole-unit dollar string with localized
// digit grouping. A nil amount is treated as zero so sparse backend fields
// render as "$0" instead of blowing up the panel.
func Currency(amount *float64) string {
	v := 0.0
	if amount != nil {
		v = *amount
	}
	return printer.Sprintf("$%d", int64(math.Round(v)))
}
