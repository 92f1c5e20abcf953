// Package tracker drives submitted governance operations to a single
// terminal outcome.
package tracker

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kardiachain/governance-tracker/chain"
	"github.com/kardiachain/governance-tracker/types"
)

type State uint8

const (
	StateIdle State = iota
	StateSigning
	StateBroadcast
	StateInBlock
	StateFinalized
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateSigning:
		return "Signing"
	case StateBroadcast:
		return "Broadcast"
	case StateInBlock:
		return "InBlock"
	case StateFinalized:
		return "Finalized"
	case StateErrored:
		return "Errored"
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// Transition is reported to the configured hook on every state change.
type Transition struct {
	Kind      types.OperationKind
	From      State
	To        State
	BlockHash string
	Err       error
}

// Ledger is the part of the contract client the tracker needs.
type Ledger interface {
	Address() string
	QueryGas() types.Weight
	DryRun(ctx context.Context, method, caller string, value types.Balance, gasLimit types.Weight, args ...interface{}) (types.Estimate, error)
	Submit(ctx context.Context, req chain.CallRequest, signer chain.Signer) (<-chan types.LifecycleEvent, error)
}

// Operation is one mutating contract call.
type Operation struct {
	Kind                types.OperationKind
	Caller              string
	Value               types.Balance
	StorageDepositLimit types.Balance
	Args                []interface{}
}

type Config struct {
	Ledger  Ledger
	Signers chain.SignerSource
	Logger  *zap.Logger
	Hook    func(Transition)
}

type Tracker struct {
	ledger  Ledger
	signers chain.SignerSource
	logger  *zap.Logger
	hook    func(Transition)
}

func New(cfg Config) (*Tracker, error) {
	if cfg.Ledger == nil || cfg.Signers == nil {
		return nil, errors.New("tracker requires a ledger and a signer source")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		ledger:  cfg.Ledger,
		signers: cfg.Signers,
		logger:  logger,
		hook:    cfg.Hook,
	}, nil
}

// run holds the state of one tracked operation.
type run struct {
	t     *Tracker
	op    Operation
	state State
	lgr   *zap.Logger
}

func (r *run) to(next State, blockHash string, err error) {
	prev := r.state
	r.state = next
	fields := []zap.Field{zap.Stringer("from", prev), zap.Stringer("to", next)}
	if blockHash != "" {
		fields = append(fields, zap.String("block", blockHash))
	}
	if err != nil {
		r.lgr.Error("operation errored", append(fields, zap.Error(err))...)
	} else {
		r.lgr.Info("operation state", fields...)
	}
	if r.t.hook != nil {
		r.t.hook(Transition{Kind: r.op.Kind, From: prev, To: next, BlockHash: blockHash, Err: err})
	}
}

func (r *run) fail(err error) (types.OperationOutcome, error) {
	r.to(StateErrored, "", err)
	return types.OperationOutcome{}, err
}

// Track dry runs op, signs and broadcasts it once, and waits for
// finalization. A nil error means the operation was finalized and the
// returned outcome is definite; any other result leaves the caller to
// decide on a retry.
func (t *Tracker) Track(ctx context.Context, op Operation) (types.OperationOutcome, error) {
	r := &run{
		t:     t,
		op:    op,
		state: StateIdle,
		lgr:   t.logger.With(zap.String("method", "Track"), zap.String("operation", string(op.Kind)), zap.String("caller", op.Caller)),
	}
	method := string(op.Kind)

	estimate, err := t.ledger.DryRun(ctx, method, op.Caller, op.Value, t.ledger.QueryGas(), op.Args...)
	if err != nil {
		return r.fail(estimationFault(err))
	}
	r.lgr.Debug("dry run estimate",
		zap.Uint64("refTime", estimate.GasRequired.RefTime),
		zap.Uint64("proofSize", estimate.GasRequired.ProofSize),
		zap.String("storageDeposit", estimate.StorageDeposit.String()))

	r.to(StateSigning, "", nil)
	signer, err := t.signers.Signer(ctx, op.Caller)
	if err != nil {
		if !errors.Is(err, types.ErrSigningUnavailable) {
			err = types.WrapFault(types.ErrSigningUnavailable, err)
		}
		return r.fail(err)
	}

	r.to(StateBroadcast, "", nil)
	events, err := t.ledger.Submit(ctx, chain.CallRequest{
		Method:              method,
		Caller:              op.Caller,
		Value:               op.Value,
		GasLimit:            estimate.GasRequired,
		StorageDepositLimit: op.StorageDepositLimit,
		Args:                op.Args,
	}, signer)
	if err != nil {
		var f *types.Fault
		if !errors.As(err, &f) {
			err = types.WrapFault(types.ErrTransport, err)
		}
		return r.fail(err)
	}

	for {
		select {
		case <-ctx.Done():
			return r.fail(ctx.Err())
		case ev, ok := <-events:
			if !ok {
				if ctx.Err() != nil {
					return r.fail(ctx.Err())
				}
				return r.fail(types.NewFault(types.ErrTransport, "status stream closed before finalization"))
			}
			switch ev.Kind {
			case types.LifecycleInBlock:
				// re-inclusion after a retraction is only logged
				if r.state == StateInBlock {
					r.lgr.Info("operation included again", zap.String("block", ev.BlockHash))
					continue
				}
				r.to(StateInBlock, ev.BlockHash, nil)
			case types.LifecycleFinalized:
				r.to(StateFinalized, ev.BlockHash, nil)
				outcome := Outcome(ev.BlockHash, ev.Events, t.ledger.Address())
				lgr := r.lgr.With(zap.String("block", ev.BlockHash), zap.Stringer("outcome", outcome.Kind))
				if outcome.Reason != nil {
					lgr = lgr.With(zap.Stringer("reason", outcome.Reason))
				}
				if outcome.IsSuccess() {
					lgr.Info("operation finalized")
				} else {
					lgr.Warn("operation finalized without success")
				}
				return outcome, nil
			case types.LifecycleTransportError:
				return r.fail(types.NewFault(types.ErrTransport, ev.Reason))
			}
		}
	}
}

func estimationFault(err error) error {
	var rej *chain.Rejection
	if errors.As(err, &rej) {
		reason := Classify(rej.Event)
		return &types.Fault{Kind: types.ErrGasEstimationFailed, Msg: reason.String(), Cause: reason, Err: err}
	}
	if errors.Is(err, types.ErrGasEstimationFailed) {
		return err
	}
	return types.WrapFault(types.ErrGasEstimationFailed, err)
}
