// Package feed decodes price-feed datums published by the oracle into typed
// observations.
package feed

import (
	"strings"
	"time"

	"github.com/LeJamon/goFeedEscrow/internal/core/scaled"
)

// FeedID is the identifier property of a feed.
type FeedID struct {
	PropertyID string
	Type       string
	Value      string
}

// Observation is a decoded price-feed datum.
//
// PairLabels and Values have matching order; index 0 is the left-hand
// (canonical) price used by the circuit breaker.
type Observation struct {
	Context          string
	Type             string
	PairLabels       [2]string
	Values           [2]scaled.Decimal
	ValidFrom        int64 // ms since epoch
	ValidThrough     int64 // ms since epoch
	FeedID           FeedID
	ContentSignature []byte

	// Fields outside the property map.
	Identifier []byte
	Expiry     int64 // ms since epoch
	Signature  []byte

	// AuthPolicyPresent is set by the caller once the carrying output has been
	// checked for the oracle's authentication token. Decoding never sets it.
	AuthPolicyPresent bool
}

// Name joins the labels back into the published feed name.
func (o *Observation) Name() string {
	return o.PairLabels[0] + PairSeparator + o.PairLabels[1]
}

// Price returns the value for label, if present.
func (o *Observation) Price(label string) (scaled.Decimal, bool) {
	for i, l := range o.PairLabels {
		if strings.EqualFold(l, label) {
			return o.Values[i], true
		}
	}
	return scaled.Decimal{}, false
}

// ValidFromTime converts ValidFrom to a time.
func (o *Observation) ValidFromTime() time.Time {
	return time.UnixMilli(o.ValidFrom).UTC()
}

// ValidThroughTime converts ValidThrough to a time.
func (o *Observation) ValidThroughTime() time.Time {
	return time.UnixMilli(o.ValidThrough).UTC()
}

// ExpiryTime converts Expiry to a time.
func (o *Observation) ExpiryTime() time.Time {
	return time.UnixMilli(o.Expiry).UTC()
}
