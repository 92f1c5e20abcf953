// Package api
package api

import (
	"context"
	"strconv"
	"time"

	"github.com/labstack/echo"
	"go.uber.org/zap"

	"github.com/kardiachain/governance-tracker/chain"
	"github.com/kardiachain/governance-tracker/projector"
	"github.com/kardiachain/governance-tracker/types"
)

const (
	DefaultTimeout = 10 * time.Second
)

// ProjectionStore is the reconciled projection set.
type ProjectionStore interface {
	Get(id uint32) (*types.ProposalProjection, bool)
	List() []*types.ProposalProjection
}

// ProjectionMirror is consulted for ids the store does not hold yet.
type ProjectionMirror interface {
	Proposal(ctx context.Context, id uint32) (*types.ProposalProjection, error)
}

type Actions interface {
	Info() types.ContractInfo
	SubmitProposal(ctx context.Context, caller, title, description string, deposit types.Balance) (types.OperationOutcome, error)
	VoteFor(ctx context.Context, caller string, proposalID, assetID uint32, amount types.Balance) (types.OperationOutcome, error)
	VoteAgainst(ctx context.Context, caller string, proposalID, assetID uint32, amount types.Balance) (types.OperationOutcome, error)
	CloseVote(ctx context.Context, caller string, proposalID uint32) (types.OperationOutcome, error)
	CancelProposal(ctx context.Context, caller string, proposalID uint32) (types.OperationOutcome, error)
}

type Refresher interface {
	RefreshAll(ctx context.Context) error
}

type Config struct {
	Store     ProjectionStore
	Mirror    ProjectionMirror
	Actions   Actions
	Refresher Refresher

	// DefaultCaller is the acting account. It signs every write request;
	// requests naming another caller are refused.
	DefaultCaller string

	// AuthorizationSecret must match the Authorization header of write and
	// admin requests.
	AuthorizationSecret string
	Timeout             time.Duration

	Logger *zap.Logger
}

type Server struct {
	store     ProjectionStore
	mirror    ProjectionMirror
	actions   Actions
	refresher Refresher

	defaultCaller       string
	authorizationSecret string
	timeout             time.Duration

	logger *zap.Logger
}

func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Server{
		store:               cfg.Store,
		mirror:              cfg.Mirror,
		actions:             cfg.Actions,
		refresher:           cfg.Refresher,
		defaultCaller:       cfg.DefaultCaller,
		authorizationSecret: cfg.AuthorizationSecret,
		timeout:             timeout,
		logger:              logger.With(zap.String("component", "api")),
	}
}

func (s *Server) Ping(c echo.Context) error {
	return OK.SetData("pong").Build(c)
}

func (s *Server) ContractInfo(c echo.Context) error {
	return OK.SetData(s.actions.Info()).Build(c)
}

func (s *Server) Proposals(c echo.Context) error {
	pagination, page, limit := getPagingOption(c)
	all := s.store.List()
	total := uint64(len(all))
	var result []*types.ProposalProjection
	if pagination.Skip >= 0 && pagination.Skip < len(all) {
		end := pagination.Skip + pagination.Limit
		if end > len(all) {
			end = len(all)
		}
		result = all[pagination.Skip:end]
	}
	return OK.SetData(PagingResponse{
		Page:  page,
		Limit: limit,
		Total: total,
		Data:  result,
	}).Build(c)
}

func (s *Server) Proposal(c echo.Context) error {
	lgr := s.logger.With(zap.String("method", "Proposal"))
	id, err := proposalID(c)
	if err != nil {
		return Fault(err).Build(c)
	}
	p, err := s.projection(c.Request().Context(), id)
	if err != nil {
		lgr.Debug("proposal not available", zap.Uint32("id", id), zap.Error(err))
		return Fault(err).Build(c)
	}
	return OK.SetData(p).Build(c)
}

type permissionsResponse struct {
	ID          uint32            `json:"id"`
	Account     string            `json:"account"`
	Permissions types.Permissions `json:"permissions"`
}

func (s *Server) Permissions(c echo.Context) error {
	id, err := proposalID(c)
	if err != nil {
		return Fault(err).Build(c)
	}
	account := c.QueryParam("account")
	if account == "" {
		account = s.defaultCaller
	}
	p, err := s.projection(c.Request().Context(), id)
	if err != nil {
		return Fault(err).Build(c)
	}
	return OK.SetData(permissionsResponse{
		ID:          id,
		Account:     account,
		Permissions: projector.Permit(p.Proposal, account, s.actions.Info().Owner),
	}).Build(c)
}

type submitRequest struct {
	Caller      string `json:"caller"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Deposit     string `json:"deposit"`
}

func (s *Server) SubmitProposal(c echo.Context) error {
	if !s.authorized(c) {
		return Unauthorized.Build(c)
	}
	var req submitRequest
	if err := c.Bind(&req); err != nil {
		return Invalid.Build(c)
	}
	caller, err := s.caller(req.Caller)
	if err != nil {
		return Fault(err).Build(c)
	}
	deposit, err := types.ParseBalance(req.Deposit)
	if err != nil {
		return Fault(types.WrapFault(types.ErrInvalidArgument, err)).Build(c)
	}
	outcome, err := s.actions.SubmitProposal(c.Request().Context(), caller, req.Title, req.Description, deposit)
	return s.outcome(c, outcome, err)
}

type voteRequest struct {
	Caller  string `json:"caller"`
	AssetID uint32 `json:"assetId"`
	Amount  string `json:"amount"`
	InFavor bool   `json:"inFavor"`
}

func (s *Server) Vote(c echo.Context) error {
	if !s.authorized(c) {
		return Unauthorized.Build(c)
	}
	id, err := proposalID(c)
	if err != nil {
		return Fault(err).Build(c)
	}
	var req voteRequest
	if err := c.Bind(&req); err != nil {
		return Invalid.Build(c)
	}
	caller, err := s.caller(req.Caller)
	if err != nil {
		return Fault(err).Build(c)
	}
	amount, err := types.ParseBalance(req.Amount)
	if err != nil {
		return Fault(types.WrapFault(types.ErrInvalidArgument, err)).Build(c)
	}
	ctx := c.Request().Context()
	var outcome types.OperationOutcome
	if req.InFavor {
		outcome, err = s.actions.VoteFor(ctx, caller, id, req.AssetID, amount)
	} else {
		outcome, err = s.actions.VoteAgainst(ctx, caller, id, req.AssetID, amount)
	}
	return s.outcome(c, outcome, err)
}

type callerRequest struct {
	Caller string `json:"caller"`
}

func (s *Server) CloseVote(c echo.Context) error {
	if !s.authorized(c) {
		return Unauthorized.Build(c)
	}
	id, err := proposalID(c)
	if err != nil {
		return Fault(err).Build(c)
	}
	var req callerRequest
	if err := c.Bind(&req); err != nil {
		return Invalid.Build(c)
	}
	caller, err := s.caller(req.Caller)
	if err != nil {
		return Fault(err).Build(c)
	}
	outcome, err := s.actions.CloseVote(c.Request().Context(), caller, id)
	return s.outcome(c, outcome, err)
}

func (s *Server) CancelProposal(c echo.Context) error {
	if !s.authorized(c) {
		return Unauthorized.Build(c)
	}
	id, err := proposalID(c)
	if err != nil {
		return Fault(err).Build(c)
	}
	var req callerRequest
	if err := c.Bind(&req); err != nil {
		return Invalid.Build(c)
	}
	caller, err := s.caller(req.Caller)
	if err != nil {
		return Fault(err).Build(c)
	}
	outcome, err := s.actions.CancelProposal(c.Request().Context(), caller, id)
	return s.outcome(c, outcome, err)
}

func (s *Server) Refresh(c echo.Context) error {
	if !s.authorized(c) {
		s.logger.Warn("Cannot authorization request", zap.String("method", "Refresh"))
		return Unauthorized.Build(c)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), s.timeout)
	defer cancel()
	if err := s.refresher.RefreshAll(ctx); err != nil {
		s.logger.Warn("manual refresh failed", zap.Error(err))
		return Fault(err).Build(c)
	}
	return OK.Build(c)
}

func (s *Server) outcome(c echo.Context, outcome types.OperationOutcome, err error) error {
	if err != nil {
		return Fault(err).Build(c)
	}
	if !outcome.IsSuccess() {
		resp := Fault(outcome.Err())
		resp.Data = outcome
		return resp.Build(c)
	}
	return OK.SetData(outcome).Build(c)
}

func (s *Server) projection(ctx context.Context, id uint32) (*types.ProposalProjection, error) {
	if p, ok := s.store.Get(id); ok {
		return p, nil
	}
	if s.mirror == nil {
		return nil, types.NewFault(types.ErrProposalNotFound, "proposal "+strconv.FormatUint(uint64(id), 10))
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.mirror.Proposal(ctx, id)
}

func (s *Server) authorized(c echo.Context) bool {
	return c.Request().Header.Get("Authorization") == s.authorizationSecret
}

// caller returns the account that signs a write request. Only the acting
// account signs; an empty request caller means the acting account.
func (s *Server) caller(requested string) (string, error) {
	if s.defaultCaller == "" {
		return "", types.NewFault(types.ErrNotPermitted, "no acting account configured")
	}
	if requested != "" && !chain.SameAccount(requested, s.defaultCaller) {
		return "", types.NewFault(types.ErrNotPermitted, "caller "+requested+" is not the acting account")
	}
	return s.defaultCaller, nil
}
