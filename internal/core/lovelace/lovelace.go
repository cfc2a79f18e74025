package lovelace

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Amount is a quantity of the ledger's base unit.
type Amount int64

const PerADA Amount = 1_000_000

func New(lovelace int64) Amount {
	return Amount(lovelace)
}

// FromADA converts a whole-unit decimal string such as "1.5".
func FromADA(ada string) (Amount, error) {
	d, err := decimal.NewFromString(ada)
	if err != nil {
		return 0, fmt.Errorf("parse ada amount %q: %w", ada, err)
	}
	scaled := d.Mul(decimal.NewFromInt(int64(PerADA)))
	if !scaled.IsInteger() {
		return 0, fmt.Errorf("ada amount %q has more than 6 decimal places", ada)
	}
	return Amount(scaled.IntPart()), nil
}

func (a Amount) Lovelace() int64 {
	return int64(a)
}

// ADA renders the amount in whole units for logs.
func (a Amount) ADA() decimal.Decimal {
	return decimal.New(int64(a), -6)
}

func (a Amount) Add(other Amount) Amount {
	return a + other
}

func (a Amount) Sub(other Amount) Amount {
	return a - other
}

func (a Amount) IsPositive() bool {
	return a > 0
}

func (a Amount) IsZero() bool {
	return a == 0
}

func (a Amount) String() string {
	return fmt.Sprintf("%d", int64(a))
}
