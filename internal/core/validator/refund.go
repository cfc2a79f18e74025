package validator

import (
	"github.com/LeJamon/goFeedEscrow/internal/core/escrow"
	"github.com/LeJamon/goFeedEscrow/internal/core/ledger"
)

// ValidateRefund accepts when the escrow source signed the transaction.
// Nothing else is looked at: the depositor can always take the funds back.
func ValidateRefund(record escrow.Record, tx ledger.TxView) Result {
	if !tx.SignedBy(record.Source) {
		return MissingRefundSignature
	}
	return Accepted
}
