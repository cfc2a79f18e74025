package validator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/LeJamon/goFeedEscrow/internal/core/feed"
	"github.com/LeJamon/goFeedEscrow/internal/core/ledger"
)

// Defaults matching the deployed contract.
const (
	DefaultAuthPolicy  = "104d51dd927761bf5d50d32e1ede4b2cff477d475fe32f4f780a4b21"
	DefaultThreshold   = 990000
	DefaultMaxExponent = 6
)

// Truncation selects how a price quoted with more than MaxExponent decimal
// places is brought down to MaxExponent places.
type Truncation uint8

const (
	// TruncateDigits keeps the leading MaxExponent decimal digits of the
	// significand. This is what the deployed contract does.
	TruncateDigits Truncation = iota
	// Divide floor-divides by the surplus power of ten.
	Divide
)

func (t Truncation) String() string {
	switch t {
	case TruncateDigits:
		return "truncate-digits"
	case Divide:
		return "divide"
	default:
		return fmt.Sprintf("Truncation(%d)", t)
	}
}

// ParseTruncation reads a policy name as written in configuration.
func ParseTruncation(s string) (Truncation, error) {
	switch s {
	case "", "truncate-digits":
		return TruncateDigits, nil
	case "divide":
		return Divide, nil
	default:
		return 0, fmt.Errorf("unknown truncation policy %q", s)
	}
}

// Params are the contract constants the validator is compiled with.
type Params struct {
	AuthPolicy   ledger.PolicyID
	ExpectedFeed string
	// Threshold is the breaker ceiling as an integer at MaxExponent decimal
	// places, e.g. 990000 for 0.99 at 6.
	Threshold   int64
	MaxExponent uint64
	Truncation  Truncation
}

// DefaultParams returns the parameters of the deployed contract.
func DefaultParams() Params {
	policy, err := ledger.ParseHash28(DefaultAuthPolicy)
	if err != nil {
		panic(err)
	}
	return Params{
		AuthPolicy:   policy,
		ExpectedFeed: feed.DefaultFeedName,
		Threshold:    DefaultThreshold,
		MaxExponent:  DefaultMaxExponent,
		Truncation:   TruncateDigits,
	}
}

// ThresholdAt scales a decimal ceiling such as 0.99 to the integer the
// breaker compares against. Digits beyond maxExponent places are dropped.
func ThresholdAt(ceiling decimal.Decimal, maxExponent uint64) (int64, error) {
	if maxExponent > 18 {
		return 0, fmt.Errorf("max exponent %d too large", maxExponent)
	}
	scaled := ceiling.Shift(int32(maxExponent)).Truncate(0)
	if !scaled.IsPositive() {
		return 0, fmt.Errorf("threshold %s must be positive", ceiling)
	}
	if !scaled.BigInt().IsInt64() {
		return 0, fmt.Errorf("threshold %s overflows at %d places", ceiling, maxExponent)
	}
	return scaled.IntPart(), nil
}
