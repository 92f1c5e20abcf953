package handler

import (
	"context"

	"go.uber.org/zap"

	"github.com/kardiachain/governance-tracker/types"
)

// Ledger is the part of the contract client read at connect time.
type Ledger interface {
	Address() string
	Owner(ctx context.Context) (string, error)
	MinDeposit(ctx context.Context) (types.Balance, error)
	SupportedAssets(ctx context.Context) ([]uint32, error)
	VotingPeriod(ctx context.Context) (uint32, error)
}

// Connect reads the contract parameters every action is validated against.
// A failed min deposit read falls back to the configured value.
func Connect(ctx context.Context, ledger Ledger, fallbackMinDeposit types.Balance, logger *zap.Logger) (types.ContractInfo, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	lgr := logger.With(zap.String("method", "Connect"))
	info := types.ContractInfo{Address: ledger.Address()}

	owner, err := ledger.Owner(ctx)
	if err != nil {
		lgr.Error("cannot read contract owner", zap.Error(err))
		return info, err
	}
	info.Owner = owner

	assets, err := ledger.SupportedAssets(ctx)
	if err != nil {
		lgr.Error("cannot read supported assets", zap.Error(err))
		return info, err
	}
	info.SupportedAssets = assets

	minDeposit, err := ledger.MinDeposit(ctx)
	if err != nil {
		lgr.Warn("cannot read min deposit, using fallback",
			zap.String("fallback", fallbackMinDeposit.String()), zap.Error(err))
		minDeposit = fallbackMinDeposit
		info.MinDepositFallback = true
		info.Warnings = append(info.Warnings, "min deposit unavailable, using fallback "+fallbackMinDeposit.String())
	}
	info.MinDeposit = minDeposit

	period, err := ledger.VotingPeriod(ctx)
	if err != nil {
		lgr.Warn("cannot read voting period", zap.Error(err))
		info.Warnings = append(info.Warnings, "voting period unavailable")
	}
	info.VotingPeriod = period

	lgr.Info("connected to governance contract",
		zap.String("address", info.Address),
		zap.String("owner", info.Owner),
		zap.Uint32s("assets", info.SupportedAssets),
		zap.String("minDeposit", info.MinDeposit.String()))
	return info, nil
}
