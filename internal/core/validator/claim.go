package validator

import (
	"math/big"

	"github.com/LeJamon/goFeedEscrow/internal/core/escrow"
	"github.com/LeJamon/goFeedEscrow/internal/core/feed"
	"github.com/LeJamon/goFeedEscrow/internal/core/ledger"
	"github.com/LeJamon/goFeedEscrow/internal/core/scaled"
)

// ValidateFee checks that one output pays at least the escrow fee to the fee
// credential.
func ValidateFee(record escrow.Record, tx ledger.TxView) Result {
	for _, out := range tx.Outputs {
		if out.Address.Payment.Hash != record.FeeAddress {
			continue
		}
		if out.Value.Lovelace >= record.FeeAmount {
			return Accepted
		}
	}
	return FeeNotPaid
}

// Authenticated returns the reference inputs that could carry an oracle
// datum: no attached script, an inline datum and a positive quantity of some
// asset under policy. Input order is kept.
func Authenticated(tx ledger.TxView, policy ledger.PolicyID) []ledger.Output {
	var out []ledger.Output
	for _, ref := range tx.ReferenceInputs {
		if ref.HasScript() || !ref.Datum.IsInline() {
			continue
		}
		if ref.Value.HasPositive(policy) {
			out = append(out, ref)
		}
	}
	return out
}

// ValidateOracle checks that at least one reference input is authenticated.
func ValidateOracle(tx ledger.TxView, policy ledger.PolicyID) ([]ledger.Output, Result) {
	refs := Authenticated(tx, policy)
	if len(refs) == 0 {
		return nil, UnauthenticatedOracle
	}
	return refs, Accepted
}

// ValidateFeed decodes the authenticated datums and picks the observation for
// the expected feed. When several match, the last one in reference-input
// order is used.
func ValidateFeed(refs []ledger.Output, expected string) (*feed.Observation, ledger.Output, Result) {
	var (
		found *feed.Observation
		from  ledger.Output
	)
	for _, ref := range refs {
		obs, err := feed.Decode(ref.Datum.Inline)
		if err != nil {
			continue
		}
		if obs.Name() != expected {
			continue
		}
		obs.AuthPolicyPresent = true
		found, from = obs, ref
	}
	if found == nil {
		return nil, ledger.Output{}, WrongPriceFeed
	}
	return found, from, Accepted
}

// ValidateCircuitBreaker scales the canonical price to the breaker's
// precision and rejects it at or above the threshold.
func ValidateCircuitBreaker(obs *feed.Observation, p Params) (*big.Int, Result) {
	price := BreakerPrice(obs.Values[0], p.MaxExponent, p.Truncation)
	if price.Cmp(big.NewInt(p.Threshold)) >= 0 {
		return price, CircuitBreakerTripped
	}
	return price, Accepted
}

// maxShift bounds the powers of ten computed for out-of-range exponents. An
// int64 significand has at most 19 digits, so any larger shift already
// decides the comparison against an int64 threshold.
const maxShift = 40

// BreakerPrice expresses v as an integer count of 10^-maxExponent units.
//
// With m decimal places (m = -exponent), m <= maxExponent scales up by
// 10^(maxExponent-m). Above that the truncation policy applies:
// TruncateDigits keeps the first maxExponent digits of the significand,
// Divide floor-divides by 10^(m-maxExponent).
func BreakerPrice(v scaled.Decimal, maxExponent uint64, t Truncation) *big.Int {
	sig := big.NewInt(v.Significand)

	if v.Exponent >= 0 {
		shift := maxExponent + uint64(v.Exponent)
		if shift > maxShift || shift < maxExponent {
			shift = maxShift
		}
		return sig.Mul(sig, pow10(shift))
	}

	m := v.Magnitude()
	if m <= maxExponent {
		return sig.Mul(sig, pow10(maxExponent-m))
	}

	if t == Divide {
		surplus := m - maxExponent
		if surplus > maxShift {
			surplus = maxShift
		}
		// Div rounds towards negative infinity for a positive divisor.
		return sig.Div(sig, pow10(surplus))
	}

	digits := v.Digits()
	if uint64(len(digits)) > maxExponent {
		digits = digits[:maxExponent]
	}
	price, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		price = new(big.Int)
	}
	if v.Significand < 0 {
		price.Neg(price)
	}
	return price
}

func pow10(n uint64) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), new(big.Int).SetUint64(n), nil)
}
