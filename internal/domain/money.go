package domain

import "github.com/shopspring/decimal"

// Cents converts an amount in major units, such as 19.99, to minor units.
// Amounts with fractions of a cent are rejected.
func Cents(d decimal.Decimal) (int64, error) {
	c := d.Shift(2)
	if !c.Equal(c.Truncate(0)) {
		return 0, Errorf(ErrInvalidArgument, "Amount %s has fractions of a cent", d.String())
	}
	return c.IntPart(), nil
}
