package main

import (
	"context"
	"fmt"
	"os"

	"github.com/labstack/echo"
	"go.uber.org/zap"

	"github.com/kardiachain/governance-tracker/aggregator"
	"github.com/kardiachain/governance-tracker/api"
	"github.com/kardiachain/governance-tracker/cache"
	"github.com/kardiachain/governance-tracker/cfg"
	"github.com/kardiachain/governance-tracker/chain"
	"github.com/kardiachain/governance-tracker/db"
	"github.com/kardiachain/governance-tracker/external"
	"github.com/kardiachain/governance-tracker/handler"
	"github.com/kardiachain/governance-tracker/metrics"
	"github.com/kardiachain/governance-tracker/projector"
	"github.com/kardiachain/governance-tracker/reconciler"
	"github.com/kardiachain/governance-tracker/tracker"
	"github.com/kardiachain/governance-tracker/types"
)

type app struct {
	node       chain.Node
	cache      cache.Client
	db         db.Client
	reconciler *reconciler.Reconciler
	echo       *echo.Echo
	logger     *zap.Logger
}

func newApp(ctx context.Context, serviceCfg cfg.GovernanceConfig, logger *zap.Logger) (*app, error) {
	a := &app{logger: logger}

	var metadata []byte
	if serviceCfg.ContractMetadata != "" {
		raw, err := os.ReadFile(serviceCfg.ContractMetadata)
		if err != nil {
			return nil, fmt.Errorf("read contract metadata: %w", err)
		}
		metadata = raw
	}
	codec, err := chain.NewCodec(metadata)
	if err != nil {
		return nil, err
	}

	node, err := chain.NewNode(serviceCfg.ChainURL, external.NewSidecar(serviceCfg.SidecarURL), logger)
	if err != nil {
		return nil, err
	}
	a.node = node

	contract, err := chain.NewContract(chain.ContractConfig{
		Node:       node,
		Codec:      codec,
		Address:    serviceCfg.ContractAddress,
		ReadOrigin: serviceCfg.ActingAccount,
		QueryGas:   types.Weight{RefTime: serviceCfg.QueryRefTime, ProofSize: serviceCfg.QueryProofSize},
		SS58Prefix: serviceCfg.SS58Prefix,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	keyring := chain.NewKeyring(serviceCfg.SS58Prefix)
	if serviceCfg.SignerURL != "" {
		if err := external.RegisterRemoteSigners(keyring, serviceCfg.SignerURL, serviceCfg.SignerAccounts); err != nil {
			return nil, err
		}
	}

	fallbackMinDeposit, err := types.ParseBalance(serviceCfg.FallbackMinDeposit)
	if err != nil {
		return nil, fmt.Errorf("FALLBACK_MIN_DEPOSIT: %w", err)
	}
	storageDepositLimit, err := types.ParseBalance(serviceCfg.StorageDepositLimit)
	if err != nil {
		return nil, fmt.Errorf("STORAGE_DEPOSIT_LIMIT: %w", err)
	}
	info, err := handler.Connect(ctx, contract, fallbackMinDeposit, logger)
	if err != nil {
		return nil, err
	}

	provider := metrics.New()
	agg, err := aggregator.New(aggregator.Config{
		Source:  contract,
		Workers: serviceCfg.AggregatorWorkers,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}
	builder, err := projector.NewBuilder(projector.BuilderConfig{
		Reader:     contract,
		Aggregator: agg,
		Info:       info,
		Account:    serviceCfg.ActingAccount,
		Decimals:   serviceCfg.DisplayDecimals,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	store := reconciler.NewStore()
	var publishers []reconciler.Publisher
	var mirror api.ProjectionMirror
	if serviceCfg.CacheEngine != "" {
		a.cache, err = cache.New(cache.Config{
			Adapter:            cache.Adapter(serviceCfg.CacheEngine),
			URL:                serviceCfg.CacheURL,
			DB:                 serviceCfg.CacheDB,
			Password:           serviceCfg.CachePassword,
			IsFlush:            serviceCfg.CacheIsFlush,
			DefaultExpiredTime: serviceCfg.CacheExpiredTime,
			Logger:             logger,
		})
		if err != nil {
			return nil, err
		}
		if err := a.cache.UpdateContractInfo(ctx, &info); err != nil {
			logger.Warn("cannot cache contract info", zap.Error(err))
		}
		publishers = append(publishers, a.cache)
		mirror = a.cache
	}
	if serviceCfg.StorageDriver != "" {
		a.db, err = db.NewClient(db.Config{
			DbAdapter: db.Adapter(serviceCfg.StorageDriver),
			DbName:    serviceCfg.StorageDB,
			URL:       serviceCfg.StorageURI,
			MinConn:   serviceCfg.StorageMinConn,
			MaxConn:   serviceCfg.StorageMaxConn,
			FlushDB:   serviceCfg.StorageIsFlush,
			Logger:    logger,
		})
		if err != nil {
			return nil, err
		}
		publishers = append(publishers, a.db)
	}

	a.reconciler, err = reconciler.New(reconciler.Config{
		Counter:    contract,
		Builder:    builder,
		Store:      store,
		Publishers: publishers,
		Metrics:    provider,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	if a.db != nil {
		persisted, _, err := a.db.Proposals(ctx, nil)
		if err != nil {
			logger.Warn("cannot load persisted proposals", zap.Error(err))
		} else {
			logger.Info("warmed projection store", zap.Int("seeded", a.reconciler.Seed(persisted)))
		}
	}

	trk, err := tracker.New(tracker.Config{
		Ledger:  contract,
		Signers: keyring,
		Logger:  logger,
		Hook: func(tr tracker.Transition) {
			logger.Debug("operation transition",
				zap.String("operation", string(tr.Kind)),
				zap.Stringer("from", tr.From),
				zap.Stringer("to", tr.To),
				zap.String("block", tr.BlockHash))
		},
	})
	if err != nil {
		return nil, err
	}
	actions, err := handler.New(handler.Config{
		Info:                info,
		Tracker:             trk,
		Notifier:            a.reconciler,
		Projections:         store,
		Builder:             builder,
		Metrics:             provider,
		StorageDepositLimit: storageDepositLimit,
		Logger:              logger,
	})
	if err != nil {
		return nil, err
	}

	srv := api.NewServer(api.Config{
		Store:               store,
		Mirror:              mirror,
		Actions:             actions,
		Refresher:           a.reconciler,
		DefaultCaller:       serviceCfg.ActingAccount,
		AuthorizationSecret: serviceCfg.HttpRequestSecret,
		Timeout:             serviceCfg.DefaultAPITimeout,
		Logger:              logger,
	})
	a.echo = api.NewEcho(srv, provider.Handler())
	return a, nil
}

func (a *app) close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn("cannot close cache", zap.Error(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(context.Background()); err != nil {
			a.logger.Warn("cannot close db", zap.Error(err))
		}
	}
	if a.node != nil {
		a.node.Close()
	}
}
