package feed

// Feed datum layout.
const (
	// DatumFields is the arity of the outer Constr0.
	DatumFields = 4

	// ValuePairConstr is the constructor index of a (significand, exponent) pair.
	ValuePairConstr = 3

	// ExpiryConstr is the constructor index wrapping the outer validity time.
	ExpiryConstr = 1

	// PairSeparator splits the feed name into its two directions.
	PairSeparator = "|"

	// DefaultFeedName is the pair this contract reads.
	DefaultFeedName = "ADA-USD|USD-ADA"
)

// Keys of the feed's property map, in canonical order.
const (
	KeyContext          = "@context"
	KeyType             = "type"
	KeyName             = "name"
	KeyValue            = "value"
	KeyValueReference   = "valueReference"
	KeyIdentifier       = "identifier"
	KeyContentSignature = "_:contentSignature"
)

// CanonicalKeys is the order the property map is rebuilt in.
var CanonicalKeys = []string{
	KeyContext,
	KeyType,
	KeyName,
	KeyValue,
	KeyValueReference,
	KeyIdentifier,
	KeyContentSignature,
}

const (
	refValidFrom    = "validFrom"
	refValidThrough = "validThrough"
)
