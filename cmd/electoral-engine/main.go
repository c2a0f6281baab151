// Copyright 2024 The go-equa Authors
// Electoral Engine - Main Entry Point

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/equa/go-electoral/cmd/electoral-engine/engine"
	"github.com/equa/go-electoral/common"
	"github.com/equa/go-electoral/crypto"
	"github.com/equa/go-electoral/electoralsystems"
	"github.com/equa/go-electoral/log"
	"github.com/equa/go-electoral/storage"
	"github.com/equa/go-electoral/thresholdsigner"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "electoral-engine",
		Usage: "runs the leaderless electoral framework and threshold-signing pipeline for one authority",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "path to a TOML configuration file"},
			&cli.StringFlag{Name: "rpc-endpoint", Usage: "chain JSON-RPC endpoint"},
			&cli.StringFlag{Name: "engine-endpoint", Usage: "chain engine-API-style endpoint"},
			&cli.StringFlag{Name: "jwt-secret", Usage: "path to JWT secret file for the engine endpoint"},
			&cli.StringFlag{Name: "metrics-addr", Usage: "address to serve Prometheus metrics on"},
			&cli.StringFlag{Name: "data-dir", Usage: "pebble persistent store directory"},
			&cli.StringFlag{Name: "authority-address", Usage: "local authority address", Required: true},
			&cli.StringSliceFlag{Name: "authority", Usage: "authority address in the current set (repeatable)"},
			&cli.DurationFlag{Name: "block-interval", Value: 12 * time.Second, Usage: "interval between block ticks"},
			&cli.StringFlag{Name: "chain", Value: "ethereum", Usage: "target chain signing scheme (ethereum, bitcoin, polkadot)"},
		},
		Action: run,
	}

	handler := log.NewTerminalHandler(os.Stderr, log.LevelInfo)
	log.SetDefault(log.New(slog.New(handler)))

	if err := app.Run(os.Args); err != nil {
		log.Crit("electoral-engine exited with error", "err", err)
	}
}

func run(c *cli.Context) error {
	cfg, err := engine.LoadConfig(c.String("config"))
	if err != nil {
		return err
	}
	engine.ApplyFlagOverrides(cfg,
		c.String("rpc-endpoint"), c.String("engine-endpoint"), c.String("jwt-secret"),
		c.String("metrics-addr"), c.String("data-dir"))

	self := common.HexToAddress(c.String("authority-address"))

	var authorities common.AddressList
	for _, a := range c.StringSlice("authority") {
		authorities = append(authorities, common.HexToAddress(a))
	}
	if len(authorities) == 0 {
		authorities = common.AddressList{self}
	}

	rpc, err := engine.NewRPCClient(cfg.RPCEndpoint, cfg.EngineEndpoint, cfg.JWTSecretPath)
	if err != nil {
		return err
	}

	var store *storage.Store
	if cfg.DataDir != "" {
		store, err = storage.Open(cfg.DataDir)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	scheme, err := crypto.SchemeFor(c.String("chain"))
	if err != nil {
		return err
	}
	shares, pub, err := scheme.GenerateKeyShares(1, 1)
	if err != nil {
		return err
	}
	signer := thresholdsigner.NewEngine(cfg.Threshold, self, shares[0], pub)

	eng := engine.New(cfg, self, engine.StaticRegistry(authorities), rpcChainAdapter{rpc}, rpc, store, signer)
	eng.Register(electoralsystems.NewBlockHeightWitnesser(cfg.BHWSafetyBuffer))
	eng.Register(electoralsystems.NewBlockWitness(cfg.SafetyMarginBlocks, cfg.WitnessBackpressureWatermark, nil, nil))
	eng.Register(electoralsystems.NewDeltaBasedIngress(cfg.DeltaIngressMaxBackoffBlocks))
	eng.Register(electoralsystems.NewOraclePrice(cfg.OracleMaybeStaleAfter, cfg.OracleStaleAfter, time.Now))
	eng.Register(electoralsystems.NewMonotonicChange())
	eng.Register(electoralsystems.NewEgressSuccess())
	eng.Register(electoralsystems.NewLiveness(uint64(cfg.SafetyMarginBlocks) * 100))

	eng.Start(c.Duration("block-interval"))
	log.Info("electoral engine started", "authority", self.Hex())

	if cfg.MetricsAddr != "" {
		log.Info("serving metrics", "addr", cfg.MetricsAddr)
		metricsSrv := eng.ServeMetrics(cfg.MetricsAddr)
		defer metricsSrv.Shutdown(context.Background())
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down electoral engine")
	eng.Stop()
	return nil
}

// rpcChainAdapter adapts RPCClient's generic JSON-RPC surface to the
// narrow ChainAdapter interface the engine loop consumes.
type rpcChainAdapter struct {
	rpc *engine.RPCClient
}

func (a rpcChainAdapter) ChainTip(ctx context.Context) (uint64, error) {
	result, err := a.rpc.CallRPC("chain_getTip", nil)
	if err != nil {
		return 0, err
	}
	height, ok := result.(float64)
	if !ok {
		return 0, nil
	}
	return uint64(height), nil
}

func (a rpcChainAdapter) BlockHash(ctx context.Context, height uint64) (common.Hash, error) {
	result, err := a.rpc.CallRPC("chain_getBlockHash", []interface{}{height})
	if err != nil {
		return common.Hash{}, err
	}
	hex, ok := result.(string)
	if !ok {
		return common.Hash{}, nil
	}
	return common.HexToHash(hex), nil
}
