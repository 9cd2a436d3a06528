// Package payment computes loan repayment schedules.
package payment

import "math"

// Schedule is the amortized repayment schedule of a loan.
type Schedule struct {
	Monthly float64
	Total   float64
}

// Amortized computes the fixed monthly installment for principal at an
// annual rate (percent) over termMonths. A zero rate spreads the principal evenly.
// Both amounts are rounded to cents; Total is the rounded installment times the term.
func Amortized(principal, annualRate float64, termMonths int) Schedule {
	if termMonths <= 0 || principal <= 0 {
		return Schedule{}
	}
	n := float64(termMonths)

	var monthly float64
	r := annualRate / 100 / 12
	if r == 0 {
		monthly = principal / n
	} else {
		monthly = principal * r / (1 - math.Pow(1+r, -n))
	}

	monthly = roundCents(monthly)
	return Schedule{Monthly: monthly, Total: roundCents(monthly * n)}
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
