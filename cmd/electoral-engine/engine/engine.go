// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

// Package engine wires the electoral framework, the threshold-signing
// pipeline and the chain-specific electoral systems into a single
// block-driven process, the role cmd/equa-beacon-engine/engine played
// for EQUA's PoW/PoS hybrid consensus loop.
package engine

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/equa/go-electoral/cache"
	"github.com/equa/go-electoral/common"
	"github.com/equa/go-electoral/electoral"
	"github.com/equa/go-electoral/log"
	"github.com/equa/go-electoral/metrics"
	"github.com/equa/go-electoral/params"
	"github.com/equa/go-electoral/storage"
	"github.com/equa/go-electoral/thresholdsigner"
	"github.com/prometheus/client_golang/prometheus"
)

// executor is implemented by electoral systems that need a second,
// shared dedup/execute pass after OnFinalize (currently only
// BlockWitness); systems without side effects to execute simply don't
// implement it.
type executor interface {
	ExecuteConsensus(access electoral.Access, elections []*electoral.Election)
}

// tipOpener is implemented by electoral systems whose election-opening
// step needs the witnessed chain tip rather than just the local block
// counter (currently only BlockWitness, whose safety margin is
// measured against chain depth).
type tipOpener interface {
	OpenElectionsUpTo(access electoral.Access, chainTip, lastOpened, block uint64, tableLen func() int) uint64
}

// roundOpener is implemented by electoral systems that open exactly
// one election every block regardless of chain state (currently only
// Liveness, which elects per-authority participation every round).
type roundOpener interface {
	OpenRound(access electoral.Access, block uint64) electoral.Identifier
}

// systemRuntime pairs one ElectoralSystem with the election table
// scoped to it; each system gets its own namespace of elections so a
// block-height election and an oracle-price election never collide on
// UniqueMonotonicIdentifier.
type systemRuntime struct {
	system     electoral.ElectoralSystem
	table      *electoral.ElectionTable
	lastOpened uint64
}

// Engine drives every registered electoral system once per block,
// dispatches vote submissions from the local authority, and runs the
// threshold-signing pipeline for any chain that resolves to an
// outbound broadcast.
type Engine struct {
	cfg      *params.ElectoralConfig
	self     common.Address
	registry ValidatorRegistry
	chain    ChainAdapter
	rpc      *RPCClient
	store    *storage.Store
	metrics  *metrics.Registry
	reqCache *cache.RequestCache
	signer   *thresholdsigner.Engine
	duties   *ValidatorDutySet
	safeMode *electoral.SafeMode
	logger   log.Logger

	promReg  *prometheus.Registry

	mu       sync.Mutex
	systems  []*systemRuntime
	block    uint64
	lastTip  uint64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds an Engine for the local authority self, against the
// given chain adapter and persistent store. Electoral systems are
// registered afterward with Register.
func New(cfg *params.ElectoralConfig, self common.Address, registry ValidatorRegistry, chain ChainAdapter, rpc *RPCClient, store *storage.Store, signer *thresholdsigner.Engine) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	promReg := prometheus.NewRegistry()
	return &Engine{
		cfg:      cfg,
		self:     self,
		registry: registry,
		chain:    chain,
		rpc:      rpc,
		store:    store,
		metrics:  metrics.NewRegistry(promReg),
		promReg:  promReg,
		reqCache: cache.NewRequestCache(5 * time.Second),
		signer:   signer,
		duties:   NewValidatorDutySet(self),
		safeMode: &electoral.SafeMode{},
		logger:   log.With("component", "electoral_engine"),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Register adds an electoral system to the block-driven loop, backed
// by its own election table seeded with the current authority set.
func (e *Engine) Register(system electoral.ElectoralSystem) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.systems = append(e.systems, &systemRuntime{
		system: system,
		table:  electoral.NewElectionTable(e.registry.CurrentAuthorities()),
	})
	e.logger.Info("registered electoral system", "name", system.Name())
}

// Vote submits the local authority's vote for id on the named
// system, validating it against the system's IsVoteValid hook before
// it is accepted into vote storage.
func (e *Engine) Vote(systemName string, id electoral.Identifier, value []byte) error {
	rt := e.runtimeFor(systemName)
	if rt == nil {
		return fmt.Errorf("unknown electoral system %q", systemName)
	}
	if !rt.system.IsVoteNeeded(rt.table, id, e.self) {
		return nil
	}
	vote := electoral.Vote{Value: value, Block: e.currentBlock()}
	if err := rt.system.IsVoteValid(rt.table, id, vote); err != nil {
		return fmt.Errorf("invalid vote for %s: %w", id, err)
	}
	election, err := rt.table.ElectionMut(id)
	if err != nil {
		return err
	}
	if err := election.Votes.Insert(e.self, vote); err != nil {
		return err
	}
	e.duties.Fulfil(id)
	return rt.system.CheckConsensus(rt.table, id)
}

func (e *Engine) runtimeFor(name string) *systemRuntime {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, rt := range e.systems {
		if rt.system.Name() == name {
			return rt
		}
	}
	return nil
}

func (e *Engine) currentBlock() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.block
}

// Start launches the block ticker and the finalize loop as separate
// goroutines so a slow OnFinalize pass can't starve tip polling.
func (e *Engine) Start(tickInterval time.Duration) {
	e.wg.Add(2)
	blockCh := make(chan uint64, 8)
	go e.tickLoop(tickInterval, blockCh)
	go e.finalizeLoop(blockCh)
}

// Stop cancels the loops and waits for them to exit.
func (e *Engine) Stop() {
	e.cancel()
	e.wg.Wait()
}

func (e *Engine) tickLoop(interval time.Duration, blockCh chan<- uint64) {
	defer e.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-e.ctx.Done():
			return
		case <-ticker.C:
			tip, err := e.fetchChainTip()
			if err != nil {
				e.logger.Warn("failed to fetch chain tip", "err", err)
				continue
			}
			e.mu.Lock()
			e.block++
			block := e.block
			e.lastTip = tip
			e.mu.Unlock()
			select {
			case blockCh <- block:
			default:
				e.logger.Warn("finalize channel full, dropping block tick", "block", block)
			}
		}
	}
}

// fetchChainTip asks the chain adapter for the current tip through the
// request cache: a tip fetched less than the cache's ttl ago is reused
// instead of calling the adapter again, and concurrent callers share
// one in-flight adapter call.
func (e *Engine) fetchChainTip() (uint64, error) {
	v, err := e.reqCache.Fetch(e.ctx, "chain_tip", func(ctx context.Context) (any, error) {
		return e.chain.ChainTip(ctx)
	})
	if err != nil {
		return 0, err
	}
	return v.(uint64), nil
}

func (e *Engine) finalizeLoop(blockCh <-chan uint64) {
	defer e.wg.Done()
	for {
		select {
		case <-e.ctx.Done():
			return
		case block := <-blockCh:
			if err := e.finalizeBlock(block); err != nil {
				e.logger.Error("finalize block failed", "block", block, "err", err)
			}
		}
	}
}

// finalizeBlock runs every registered system's CheckConsensus over its
// currently open elections, then OnFinalize, then its ExecuteConsensus
// pass (if it implements one), and persists the result. While SafeMode
// is engaged, new elections stop opening and ExecuteConsensus doesn't
// run, but CheckConsensus/OnFinalize/persistence keep going so no
// authority falls behind once it's disengaged.
func (e *Engine) finalizeBlock(block uint64) error {
	e.mu.Lock()
	systems := make([]*systemRuntime, len(e.systems))
	copy(systems, e.systems)
	e.mu.Unlock()

	e.mu.Lock()
	tip := e.lastTip
	e.mu.Unlock()

	engaged := e.safeMode.Engaged()

	for _, rt := range systems {
		if !engaged {
			switch opener := rt.system.(type) {
			case tipOpener:
				rt.lastOpened = opener.OpenElectionsUpTo(rt.table, tip, rt.lastOpened, block, rt.table.Len)
			case roundOpener:
				opener.OpenRound(rt.table, block)
			}
		}

		open := rt.table.All()
		e.metrics.OpenElections.WithLabelValues(rt.system.Name()).Set(float64(len(open)))

		for _, election := range open {
			before := election.Status
			if err := rt.system.CheckConsensus(rt.table, election.ID); err != nil {
				e.logger.Warn("check consensus failed", "system", rt.system.Name(), "id", election.ID.String(), "err", err)
				continue
			}
			if election.Status.HasConsensus() && !before.HasConsensus() {
				e.metrics.ConsensusReached.WithLabelValues(rt.system.Name()).Inc()
			} else if before.HasConsensus() && !election.Status.HasConsensus() {
				e.metrics.ConsensusLost.WithLabelValues(rt.system.Name()).Inc()
			}
		}

		if err := rt.system.OnFinalize(rt.table, block); err != nil {
			return fmt.Errorf("%s.OnFinalize: %w", rt.system.Name(), err)
		}

		if ex, ok := rt.system.(executor); !engaged && ok {
			ex.ExecuteConsensus(rt.table, rt.table.All())
		}

		if e.store != nil {
			for _, election := range rt.table.All() {
				key := []byte(fmt.Sprintf("%s:%s", rt.system.Name(), election.ID.String()))
				if err := e.store.PutElection(key, election.State); err != nil {
					e.logger.Warn("failed to persist election", "id", election.ID.String(), "err", err)
				}
			}
		}
	}
	return nil
}

// Duties exposes the local authority's outstanding voting
// obligations, consumed by whatever drives actual vote submission
// (a chain-specific watcher the engine itself doesn't implement).
func (e *Engine) Duties() *ValidatorDutySet { return e.duties }

// ThresholdSigner exposes the signing engine so callers can request
// signatures once an electoral system's consensus demands one.
func (e *Engine) ThresholdSigner() *thresholdsigner.Engine { return e.signer }

// SafeMode exposes the engine's governance-controlled kill switch; a
// caller wired to on-chain governance calls Engage/Disengage on it in
// response to a pause proposal.
func (e *Engine) SafeMode() *electoral.SafeMode { return e.safeMode }

// ServeMetrics starts serving this engine's Prometheus registry on
// addr; callers shut it down via the returned server's Shutdown.
func (e *Engine) ServeMetrics(addr string) *http.Server {
	return metrics.Serve(addr, e.promReg)
}
