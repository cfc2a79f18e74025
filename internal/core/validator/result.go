package validator

import "fmt"

// Result is the outcome of one validator evaluation.
type Result int

// Result codes. Accepted is the only success; every other code names the
// rule that rejected the transaction.
const (
	Accepted Result = 0

	MissingRefundSignature Result = 100
	FeeNotPaid             Result = 101
	UnauthenticatedOracle  Result = 102
	WrongPriceFeed         Result = 103
	CircuitBreakerTripped  Result = 104
	UnknownAction          Result = 105
)

// String returns the reason token
func (r Result) String() string {
	switch r {
	case Accepted:
		return "Accepted"
	case MissingRefundSignature:
		return "MissingRefundSignature"
	case FeeNotPaid:
		return "FeeNotPaid"
	case UnauthenticatedOracle:
		return "UnauthenticatedOracle"
	case WrongPriceFeed:
		return "WrongPriceFeed"
	case CircuitBreakerTripped:
		return "CircuitBreakerTripped"
	case UnknownAction:
		return "UnknownAction"
	default:
		return fmt.Sprintf("Unknown(%d)", r)
	}
}

// IsAccepted returns true if the transaction may be committed
func (r Result) IsAccepted() bool {
	return r == Accepted
}

// IsRejected returns true for any rejection reason
func (r Result) IsRejected() bool {
	return r != Accepted
}

// Message returns a human-readable message for the result
func (r Result) Message() string {
	switch r {
	case Accepted:
		return "The spend is valid."
	case MissingRefundSignature:
		return "Refund must be signed by the escrow source."
	case FeeNotPaid:
		return "No output pays the escrow fee to the fee address."
	case UnauthenticatedOracle:
		return "No reference input carries the oracle authentication token."
	case WrongPriceFeed:
		return "The authenticated oracle datum is not the expected price feed."
	case CircuitBreakerTripped:
		return "The oracle price is at or above the circuit breaker."
	case UnknownAction:
		return "The redeemer is neither Claim nor Refund."
	default:
		return r.String()
	}
}

// MarshalText lets results appear as tokens in JSON and logs.
func (r Result) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// ParseResult is the inverse of String.
func ParseResult(s string) (Result, error) {
	for _, r := range []Result{Accepted, MissingRefundSignature, FeeNotPaid, UnauthenticatedOracle, WrongPriceFeed, CircuitBreakerTripped, UnknownAction} {
		if r.String() == s {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown result %q", s)
}
