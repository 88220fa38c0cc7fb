package summary

import (
	"math"

	"github.com/shopspring/decimal"
)

// accumulator sums float64 amounts exactly so totals do not depend on input
// order. NaN and infinities bypass the exact sum and poison the result the
// way float arithmetic would.
type accumulator struct {
	exact      decimal.Decimal
	special    float64
	hasSpecial bool
}

func (a *accumulator) add(v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		if a.hasSpecial {
			a.special += v
		} else {
			a.special = v
			a.hasSpecial = true
		}
		return
	}
	a.exact = a.exact.Add(decimal.NewFromFloat(v))
}

func (a accumulator) value() float64 {
	if a.hasSpecial {
		return a.special
	}
	f, _ := a.exact.Float64()
	return f
}
