package protocol

import (
	"errors"
	"fmt"

	"github.com/LeJamon/goFeedEscrow/internal/core/classify"
	"github.com/LeJamon/goFeedEscrow/internal/core/escrow"
	"github.com/LeJamon/goFeedEscrow/internal/core/feed"
	"github.com/LeJamon/goFeedEscrow/internal/core/ledger"
	"github.com/LeJamon/goFeedEscrow/internal/core/lovelace"
	"github.com/LeJamon/goFeedEscrow/internal/wallet"
)

// Amounts used by the deployment scripts.
const (
	DefaultDeployAmount  lovelace.Amount = 70 * lovelace.PerADA
	DefaultDepositAmount lovelace.Amount = 2 * lovelace.PerADA
	DefaultFee           lovelace.Amount = 1 * lovelace.PerADA
)

var (
	ErrNoScriptRef  = errors.New("contract script reference not found")
	ErrNoEscrows    = errors.New("no escrow outputs to spend")
	ErrNoCollateral = errors.New("no collateral candidate")
)

// Builder derives plans from classified contract outputs. It never selects
// fee inputs, signs or submits.
type Builder struct {
	ScriptAddress ledger.Address
	Window        uint64
}

// NewBuilder returns a builder for the contract at addr. A zero window means
// DefaultValidityWindow.
func NewBuilder(addr ledger.Address, window uint64) *Builder {
	if window == 0 {
		window = DefaultValidityWindow
	}
	return &Builder{ScriptAddress: addr, Window: window}
}

func (b *Builder) base(kind Kind, w wallet.Wallet, tip ledger.Tip) *Plan {
	return &Plan{
		Kind:            kind,
		ChangeAddress:   w.Address,
		RequiredSigners: []ledger.KeyHash{w.KeyHash()},
		ValidityStart:   tip.Slot,
		TTL:             tip.Slot + b.Window,
	}
}

// Deploy plans the output holding the contract script and the deployer's
// record, which is what undeploy later spends.
func (b *Builder) Deploy(script ledger.ScriptRef, record escrow.Record, amount lovelace.Amount, w wallet.Wallet) (*Plan, error) {
	datum, err := record.Encode()
	if err != nil {
		return nil, err
	}
	s := script
	return &Plan{
		Kind:          KindDeploy,
		ChangeAddress: w.Address,
		Outputs: []Payment{{
			Address: b.ScriptAddress,
			Amount:  amount,
			Datum:   datum,
			Script:  &s,
		}},
	}, nil
}

// Deposit plans a new escrow output.
func (b *Builder) Deposit(record escrow.Record, amount lovelace.Amount, w wallet.Wallet) (*Plan, error) {
	datum, err := record.Encode()
	if err != nil {
		return nil, err
	}
	return &Plan{
		Kind:          KindDeposit,
		ChangeAddress: w.Address,
		Outputs: []Payment{{
			Address: b.ScriptAddress,
			Amount:  amount,
			Datum:   datum,
		}},
	}, nil
}

// Claim plans spending every claimable escrow against the oracle output,
// paying each escrow's fee to its fee credential.
func (b *Builder) Claim(roles *classify.Roles, oracle ledger.Output, obs *feed.Observation, collateral ledger.Output, w wallet.Wallet, tip ledger.Tip) (*Plan, error) {
	if roles.ScriptRef == nil {
		return nil, ErrNoScriptRef
	}
	if len(roles.Claimable) == 0 {
		return nil, ErrNoEscrows
	}

	p := b.base(KindClaim, w, tip)
	p.ReferenceInputs = []ledger.Output{*roles.ScriptRef, oracle}
	p.Collateral = []ledger.Output{collateral}
	for _, c := range roles.Claimable {
		p.ScriptInputs = append(p.ScriptInputs, ScriptInput{Output: c.Output, Redeemer: escrow.Claim})
		p.Outputs = append(p.Outputs, Payment{
			Address: feeAddress(c.Record.FeeAddress, b.ScriptAddress.Network),
			Amount:  c.Record.FeeAmount,
		})
	}
	p.Metadata = ClaimMessage(obs)
	return p, nil
}

// Refund plans returning the escrows deposited by w.
func (b *Builder) Refund(roles *classify.Roles, collateral ledger.Output, w wallet.Wallet, tip ledger.Tip) (*Plan, error) {
	if roles.ScriptRef == nil {
		return nil, ErrNoScriptRef
	}
	mine := roles.ClaimableBy(w.KeyHash())
	if len(mine) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoEscrows, w.KeyHash())
	}

	p := b.base(KindRefund, w, tip)
	p.ReferenceInputs = []ledger.Output{*roles.ScriptRef}
	p.Collateral = []ledger.Output{collateral}
	for _, c := range mine {
		p.ScriptInputs = append(p.ScriptInputs, ScriptInput{Output: c.Output, Redeemer: escrow.Refund})
	}
	return p, nil
}

// Undeploy plans spending the script reference output itself.
func (b *Builder) Undeploy(roles *classify.Roles, collateral ledger.Output, w wallet.Wallet, tip ledger.Tip) (*Plan, error) {
	if roles.ScriptRef == nil {
		return nil, ErrNoScriptRef
	}
	p := b.base(KindUndeploy, w, tip)
	p.Collateral = []ledger.Output{collateral}
	p.ScriptInputs = []ScriptInput{{Output: *roles.ScriptRef, Redeemer: escrow.Refund}}
	return p, nil
}

// Collateral picks the first wallet output fit to be collateral.
func Collateral(walletOutputs []ledger.Output, min lovelace.Amount) (ledger.Output, error) {
	roles, err := classify.Classify(walletOutputs, min)
	if err != nil {
		return ledger.Output{}, err
	}
	out, ok := roles.FirstCollateral()
	if !ok {
		return ledger.Output{}, fmt.Errorf("%w above %s lovelace", ErrNoCollateral, min)
	}
	return out, nil
}

func feeAddress(h ledger.Hash28, network byte) ledger.Address {
	return ledger.Address{
		Network: network,
		Payment: ledger.Credential{Kind: ledger.KeyCredential, Hash: h},
	}
}
