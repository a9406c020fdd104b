package payment

import (
	"strings"

	"github.com/deanmartian/livets-stemme/internal/model"
	"github.com/shopspring/decimal"
)

var _vatRate = decimal.RequireFromString("0.25")

// CalculateVAT splits a VAT-inclusive NOK amount using the 25% Norwegian
// rate. Parts are rounded to øre, half away from zero.
func CalculateVAT(amount float64) model.VATBreakdown {
	total := decimal.NewFromFloat(amount)
	net := total.Div(decimal.NewFromInt(1).Add(_vatRate))
	vat := total.Sub(net)

	return model.VATBreakdown{
		AmountWithoutVAT: net.Round(2).InexactFloat64(),
		VATAmount:        vat.Round(2).InexactFloat64(),
		TotalAmount:      amount,
	}
}

const _nbsp = "\u00a0"

// FormatNOK renders an amount the way Norwegian price tags do, for example
// "kr 1 249,00" with non-breaking spaces.
func FormatNOK(amount float64) string {
	d := decimal.NewFromFloat(amount).Round(2)

	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}

	fixed := d.StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")

	var grouped strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			grouped.WriteString(_nbsp)
		}
		grouped.WriteRune(r)
	}

	return sign + "kr" + _nbsp + grouped.String() + "," + frac
}

// toOre converts whole kroner to the minor unit Stripe expects.
func toOre(nok int64) int64 {
	return nok * 100
}
