// Package scaled decodes the publisher's scientific-notation numbers.
//
// A feed value is a pair (significand, exponent) where the exponent is
// written as an unsigned 64-bit integer carrying a negative offset: the real
// exponent is encoded - 2^64. The bias is removed exactly once, when the pair
// is decoded into a Decimal.
package scaled

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"

	"github.com/shopspring/decimal"
)

// ErrArithmeticOverflow is returned when a decoded quantity cannot be
// represented in the target integer width.
var ErrArithmeticOverflow = errors.New("arithmetic overflow")

// twoTo64 is the bias applied by the publisher to every exponent.
var twoTo64 = new(big.Int).Lsh(big.NewInt(1), 64)

// Decimal is significand × 10^exponent, with the exponent already unbiased.
type Decimal struct {
	Significand int64 `json:"significand"`
	Exponent    int64 `json:"exponent"`
}

// DecodeExponent removes the publisher bias from an encoded exponent.
//
// The result equals biased - 2^64. For biased >= 2^63 this is the
// two's-complement reinterpretation of the word; below that the exact value
// is smaller than math.MinInt64 and ErrArithmeticOverflow is returned.
// Well-formed feeds never hit the error path.
func DecodeExponent(biased uint64) (int64, error) {
	if biased < 1<<63 {
		return 0, fmt.Errorf("%w: exponent %d-2^64 is below int64 range", ErrArithmeticOverflow, biased)
	}
	return int64(biased), nil
}

// ExactExponent returns biased - 2^64 without any width limit.
func ExactExponent(biased uint64) *big.Int {
	v := new(big.Int).SetUint64(biased)
	return v.Sub(v, twoTo64)
}

// EncodeExponent applies the publisher bias. Only negative exponents can be
// encoded; exp + 2^64 would not fit in 64 bits otherwise.
func EncodeExponent(exp int64) (uint64, error) {
	if exp >= 0 {
		return 0, fmt.Errorf("%w: exponent %d cannot carry a negative offset", ErrArithmeticOverflow, exp)
	}
	return uint64(exp), nil
}

// Decode builds a Decimal from the raw pair as found in a feed datum.
func Decode(significand *big.Int, biasedExponent *big.Int) (Decimal, error) {
	if significand == nil || biasedExponent == nil {
		return Decimal{}, errors.New("missing significand or exponent")
	}
	if !significand.IsInt64() {
		return Decimal{}, fmt.Errorf("%w: significand %s exceeds int64", ErrArithmeticOverflow, significand)
	}
	if biasedExponent.Sign() < 0 || !biasedExponent.IsUint64() {
		return Decimal{}, fmt.Errorf("%w: biased exponent %s is not a 64-bit word", ErrArithmeticOverflow, biasedExponent)
	}
	exp, err := DecodeExponent(biasedExponent.Uint64())
	if err != nil {
		return Decimal{}, err
	}
	return Decimal{Significand: significand.Int64(), Exponent: exp}, nil
}

// Encode returns the on-chain pair for d.
func (d Decimal) Encode() (significand int64, biasedExponent uint64, err error) {
	biasedExponent, err = EncodeExponent(d.Exponent)
	if err != nil {
		return 0, 0, err
	}
	return d.Significand, biasedExponent, nil
}

// Magnitude returns the number of decimal places, -exponent, for negative
// exponents and 0 otherwise.
func (d Decimal) Magnitude() uint64 {
	if d.Exponent >= 0 {
		return 0
	}
	return absExponent(d.Exponent)
}

// Digits returns the decimal digits of |significand|.
func (d Decimal) Digits() string {
	if d.Significand < 0 {
		return new(big.Int).Neg(big.NewInt(d.Significand)).String()
	}
	return strconv.FormatInt(d.Significand, 10)
}

// Rat returns the exact rational value.
func (d Decimal) Rat() *big.Rat {
	r := new(big.Rat).SetInt64(d.Significand)
	if d.Exponent == 0 {
		return r
	}
	pow := new(big.Int).Exp(big.NewInt(10), new(big.Int).SetUint64(absExponent(d.Exponent)), nil)
	if d.Exponent > 0 {
		return r.Mul(r, new(big.Rat).SetInt(pow))
	}
	return r.Quo(r, new(big.Rat).SetInt(pow))
}

// Decimal converts d for display. Exponents outside the int32 range are
// clamped to zero; callers needing exact values use Rat.
func (d Decimal) Decimal() decimal.Decimal {
	if d.Exponent < math.MinInt32 || d.Exponent > math.MaxInt32 {
		return decimal.Zero
	}
	return decimal.New(d.Significand, int32(d.Exponent))
}

// String renders d for logs. Never used for validation math.
func (d Decimal) String() string {
	if d.Exponent < math.MinInt32 || d.Exponent > math.MaxInt32 {
		return fmt.Sprintf("%de%d", d.Significand, d.Exponent)
	}
	return d.Decimal().String()
}

func absExponent(e int64) uint64 {
	if e < 0 {
		if e == math.MinInt64 {
			return 1 << 63
		}
		return uint64(-e)
	}
	return uint64(e)
}
