package config

import (
	"fmt"

	"github.com/LeJamon/goFeedEscrow/internal/core/ledger"
	"github.com/LeJamon/goFeedEscrow/internal/core/lovelace"
	"github.com/LeJamon/goFeedEscrow/internal/core/protocol"
	"github.com/LeJamon/goFeedEscrow/internal/core/validator"
)

// ValidatorParams returns the parameters the contract was compiled with.
func (c *Config) ValidatorParams() (validator.Params, error) {
	policy, err := ledger.ParseHash28(c.Oracle.AuthPolicy)
	if err != nil {
		return validator.Params{}, fmt.Errorf("oracle.auth_policy: %w", err)
	}
	threshold, err := validator.ThresholdAt(c.Validator.Threshold, c.Validator.MaxExponent)
	if err != nil {
		return validator.Params{}, fmt.Errorf("validator.threshold: %w", err)
	}
	trunc, err := validator.ParseTruncation(c.Validator.Truncation)
	if err != nil {
		return validator.Params{}, err
	}
	return validator.Params{
		AuthPolicy:   policy,
		ExpectedFeed: c.Oracle.FeedName,
		Threshold:    threshold,
		MaxExponent:  c.Validator.MaxExponent,
		Truncation:   trunc,
	}, nil
}

// Rules returns the off-chain plan checks for spender.
func (c *Config) Rules(spender ledger.KeyHash) (protocol.Rules, error) {
	policy, err := ledger.ParseHash28(c.Oracle.AuthPolicy)
	if err != nil {
		return protocol.Rules{}, fmt.Errorf("oracle.auth_policy: %w", err)
	}
	return protocol.Rules{
		AuthPolicy:    policy,
		MaxWindow:     c.Tx.ValidityWindow,
		MinCollateral: lovelace.New(c.Tx.MinCollateral),
		Spender:       spender,
	}, nil
}
