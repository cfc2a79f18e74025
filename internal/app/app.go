// Package app wires configuration into the chain, oracle, storage and
// validator layers on behalf of the CLI commands.
package app

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/LeJamon/goFeedEscrow/internal/chain"
	"github.com/LeJamon/goFeedEscrow/internal/chain/ogmios"
	"github.com/LeJamon/goFeedEscrow/internal/codec/address"
	"github.com/LeJamon/goFeedEscrow/internal/config"
	"github.com/LeJamon/goFeedEscrow/internal/core/ledger"
	"github.com/LeJamon/goFeedEscrow/internal/core/validator"
	"github.com/LeJamon/goFeedEscrow/internal/metrics"
	"github.com/LeJamon/goFeedEscrow/internal/oracle"
	"github.com/LeJamon/goFeedEscrow/internal/storage/decisionlog"
	"github.com/LeJamon/goFeedEscrow/internal/storage/snapshot"
	"github.com/LeJamon/goFeedEscrow/internal/wallet"
)

// ErrNoWallet is returned by commands that need wallet.address when it is
// not configured.
var ErrNoWallet = errors.New("wallet.address not configured")

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Out    io.Writer

	// ChainFile, when set, replaces the Ogmios connection with a JSON
	// snapshot file.
	ChainFile string

	metrics *metrics.Metrics
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	a := &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger(), Out: os.Stdout}
	if cfg.Metrics.Enabled {
		a.metrics = metrics.New(cfg.Metrics.Namespace)
	}
	return a
}

// openChain returns the configured chain.Context and a closer.
func (a *App) openChain() (chain.Context, func(), error) {
	var (
		base   chain.Context
		closer = func() {}
	)
	if a.ChainFile != "" {
		snap, err := chain.LoadSnapshot(a.ChainFile)
		if err != nil {
			return nil, nil, err
		}
		base = snap
	} else {
		client := ogmios.New(ogmios.Options{URL: a.Config.Ogmios.URL, Timeout: a.Config.Ogmios.Timeout}, a.Logger)
		base = client
		closer = func() { _ = client.Close() }
	}

	if a.Config.Snapshot.Enabled {
		store, err := snapshot.Open(a.Config.Snapshot.Backend, a.Config.Snapshot.Path)
		if err != nil {
			closer()
			return nil, nil, err
		}
		base = snapshot.NewCache(base, store, snapshot.Options{
			Compress: a.Config.Snapshot.Compression,
			MaxAge:   a.Config.Snapshot.MaxAge,
		}, a.Logger)
		inner := closer
		closer = func() {
			inner()
			if err := store.Close(); err != nil {
				a.Logger.Warn().Err(err).Msg("closing snapshot store")
			}
		}
	}
	return a.metrics.Chain(base), closer, nil
}

func (a *App) newOracle(c chain.Context) (*oracle.Source, error) {
	addr, err := address.Decode(a.Config.Oracle.Address)
	if err != nil {
		return nil, fmt.Errorf("oracle.address: %w", err)
	}
	policy, err := ledger.ParseHash28(a.Config.Oracle.AuthPolicy)
	if err != nil {
		return nil, fmt.Errorf("oracle.auth_policy: %w", err)
	}
	return oracle.New(c, oracle.Options{
		Address:    addr,
		AuthPolicy: policy,
		FeedName:   a.Config.Oracle.FeedName,
		CacheSize:  a.Config.Oracle.CacheSize,
	}, a.Logger)
}

func (a *App) newValidator() (*validator.Validator, error) {
	params, err := a.Config.ValidatorParams()
	if err != nil {
		return nil, err
	}
	return validator.New(params), nil
}

func (a *App) wallet() (wallet.Wallet, error) {
	if a.Config.Wallet.Address == "" {
		return wallet.Wallet{}, ErrNoWallet
	}
	return wallet.New(a.Config.Wallet.Name, a.Config.Wallet.Address)
}

// feeCredential is the key hash escrow fees are paid to. It defaults to the
// wallet's own key.
func (a *App) feeCredential(w wallet.Wallet) (ledger.Hash28, error) {
	if a.Config.Wallet.FeeAddress == "" {
		return w.KeyHash(), nil
	}
	fee, err := wallet.New("fee", a.Config.Wallet.FeeAddress)
	if err != nil {
		return ledger.Hash28{}, err
	}
	return fee.KeyHash(), nil
}

// script reads the compiled contract. The file may be a cardano-cli text
// envelope, hex text or raw CBOR.
func (a *App) script() (ledger.ScriptRef, error) {
	raw, err := os.ReadFile(a.Config.Contract.ScriptFile)
	if err != nil {
		return ledger.ScriptRef{}, fmt.Errorf("read script: %w", err)
	}
	var envelope struct {
		CBORHex string `json:"cborHex"`
	}
	text := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &envelope) == nil && envelope.CBORHex != "" {
		text = envelope.CBORHex
	}
	code, err := hex.DecodeString(text)
	if err != nil {
		code = raw
	}
	return ledger.ScriptRef{Language: a.Config.Contract.Language, CBOR: code}, nil
}

// scriptAddress is contract.script_address, or the address derived from the
// script file.
func (a *App) scriptAddress() (ledger.Address, error) {
	if a.Config.Contract.ScriptAddress != "" {
		return address.Decode(a.Config.Contract.ScriptAddress)
	}
	s, err := a.script()
	if err != nil {
		return ledger.Address{}, err
	}
	tag, err := a.Config.Contract.LanguageTag()
	if err != nil {
		return ledger.Address{}, err
	}
	return address.Script(address.ScriptHash(tag, s.CBOR), a.Config.Network.NetworkID()), nil
}

// openDecisionLog returns nil when the log is disabled.
func (a *App) openDecisionLog(ctx context.Context) (*decisionlog.Log, func(), error) {
	cfg := a.Config.DecisionLog
	if !cfg.Enabled {
		return nil, func() {}, nil
	}
	l, err := decisionlog.Open(ctx, cfg.Driver, cfg.DSN, cfg.MaxOpenConns)
	if err != nil {
		return nil, nil, err
	}
	return l, func() {
		if err := l.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("closing decision log")
		}
	}, nil
}

// record writes d to the decision log and metrics.
func (a *App) record(ctx context.Context, log *decisionlog.Log, source, escrowRef string, d validator.Decision) {
	a.metrics.ObserveDecision(d)
	if log == nil {
		return
	}
	if _, err := log.Record(ctx, decisionlog.FromDecision(source, escrowRef, d)); err != nil {
		a.Logger.Warn().Err(err).Str("escrow", escrowRef).Msg("decision log write failed")
	}
}

func (a *App) writeJSON(v interface{}) error {
	enc := json.NewEncoder(a.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
