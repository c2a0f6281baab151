// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

// Package params holds the tunable governance constants and TOML
// config structs for the electoral engine, analogous to go-ethereum's
// params package but scoped to consensus-mechanism thresholds,
// electoral-system timings and threshold-signing ceremony budgets
// rather than chain parameters.
package params

import "time"

// ElectoralConfig is the per-instance configuration loaded from TOML
// and overridable by CLI flags (see cmd/electoral-engine).
type ElectoralConfig struct {
	// AuthorityCount is the number of authorities participating in
	// elections this epoch; consensus mechanisms derive their
	// success/failure thresholds from it.
	AuthorityCount uint32 `toml:"AuthorityCount"`

	// SafetyMarginBlocks is the Block Witnesser's chain-tip safety
	// margin: elections are only opened for blocks at least this many
	// blocks behind the witnessed tip.
	SafetyMarginBlocks uint64 `toml:"SafetyMarginBlocks"`

	// WitnessBackpressureWatermark caps the number of concurrently
	// open block elections before the Block Witnesser stops emitting
	// new ones, per spec.md's backpressure requirement.
	WitnessBackpressureWatermark uint32 `toml:"WitnessBackpressureWatermark"`

	// DeltaIngressMaxBackoffBlocks bounds the delta-based ingress
	// electoral system's block-count backoff.
	DeltaIngressMaxBackoffBlocks uint64 `toml:"DeltaIngressMaxBackoffBlocks"`

	// BHWSafetyBuffer is how many already-finalized heights the Block
	// Height Witnesser rolls back and re-queries when it detects a
	// reorg past them.
	BHWSafetyBuffer uint64 `toml:"BHWSafetyBuffer"`

	// OracleMaybeStaleAfter and OracleStaleAfter gate the oracle price
	// electoral system's staleness lattice.
	OracleMaybeStaleAfter time.Duration `toml:"OracleMaybeStaleAfter"`
	OracleStaleAfter      time.Duration `toml:"OracleStaleAfter"`

	// Threshold is the ThresholdSignerConfig used by the
	// threshold-signing engine.
	Threshold ThresholdSignerConfig `toml:"Threshold"`

	// RPCEndpoint/EngineEndpoint mirror an execution-layer style RPC
	// split: a read-only JSON-RPC endpoint and a JWT-authenticated
	// engine-API-style endpoint used for privileged calls.
	RPCEndpoint    string `toml:"RPCEndpoint"`
	EngineEndpoint string `toml:"EngineEndpoint"`
	JWTSecretPath  string `toml:"JWTSecretPath"`

	// MetricsAddr, when non-empty, serves Prometheus metrics.
	MetricsAddr string `toml:"MetricsAddr"`

	// DataDir is the pebble persistent-store directory.
	DataDir string `toml:"DataDir"`
}

// ThresholdSignerConfig configures the signing-ceremony pipeline.
type ThresholdSignerConfig struct {
	// CeremonyTimeout bounds how long a ceremony waits for
	// participants before it is declared failed and retried.
	CeremonyTimeout time.Duration `toml:"CeremonyTimeout"`

	// MaxRetries is the number of times a failed signing request is
	// re-nominated with an offender-excluding authority set before
	// it is abandoned.
	MaxRetries uint32 `toml:"MaxRetries"`

	// OffenderCooldown is how long an authority identified as the
	// cause of a ceremony failure is excluded from nomination.
	OffenderCooldown time.Duration `toml:"OffenderCooldown"`
}

// DefaultElectoralConfig returns the default configuration, matching
// the governance defaults chainflip-style networks boot with.
func DefaultElectoralConfig() *ElectoralConfig {
	return &ElectoralConfig{
		AuthorityCount:               1,
		SafetyMarginBlocks:           2,
		WitnessBackpressureWatermark: 50,
		DeltaIngressMaxBackoffBlocks: 100,
		BHWSafetyBuffer:              10,
		OracleMaybeStaleAfter:        30 * time.Second,
		OracleStaleAfter:             2 * time.Minute,
		Threshold: ThresholdSignerConfig{
			CeremonyTimeout:  10 * time.Second,
			MaxRetries:       3,
			OffenderCooldown: 5 * time.Minute,
		},
		MetricsAddr: "",
		DataDir:     "./electoral-data",
	}
}

// SuccessThreshold implements the supermajority formula
// success = ceil((2n+1)/3) used throughout the consensus mechanisms.
func SuccessThreshold(n uint32) uint32 {
	if n == 0 {
		return 0
	}
	return (2*n + 1 + 2) / 3
}

// FailureThreshold implements failure = n - floor((2n-1)/3): the
// number of votes against a value beyond which consensus can no
// longer be reached and an election may report a negative result.
func FailureThreshold(n uint32) uint32 {
	if n == 0 {
		return 0
	}
	if n == 1 {
		return 1
	}
	return n - (2*n-1)/3
}
