// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

package engine

import (
	"context"

	"github.com/equa/go-electoral/common"
)

// ChainAdapter is the narrow interface the engine consumes to learn
// about a target chain's state. Concrete chain RPC adapters, extrinsic
// submission and contract-specific decoding are out of scope for this
// repo; RPCClient is a thin JSON-RPC/Engine-API-style stand-in
// sufficient to drive the loop and to be faked in tests.
type ChainAdapter interface {
	// ChainTip returns the latest block height the adapter has observed.
	ChainTip(ctx context.Context) (uint64, error)

	// BlockHash returns the hash of the block at height.
	BlockHash(ctx context.Context, height uint64) (common.Hash, error)
}

// Broadcaster submits an aggregated threshold signature or a witnessed
// event's consensus payload onward; this repo models it only as an
// interface, never implementing real extrinsic submission.
type Broadcaster interface {
	Broadcast(ctx context.Context, payload []byte) error
}

// ValidatorRegistry resolves the current authority set and their
// participation eligibility; account/reputation/funding economics
// live outside this repo's scope.
type ValidatorRegistry interface {
	CurrentAuthorities() common.AddressList
}

// staticRegistry is the trivial ValidatorRegistry used when the engine
// is configured with a fixed authority set rather than one learned
// from a live registry.
type staticRegistry struct {
	authorities common.AddressList
}

func (s staticRegistry) CurrentAuthorities() common.AddressList { return s.authorities }

// StaticRegistry builds a ValidatorRegistry that always returns the
// given authority set.
func StaticRegistry(authorities common.AddressList) ValidatorRegistry {
	return staticRegistry{authorities: authorities}
}
