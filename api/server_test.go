package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kardiachain/governance-tracker/reconciler"
	"github.com/kardiachain/governance-tracker/types"
)

const (
	alice  = "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"
	bob    = "5FHneW46xGXgs5mUiveU4sbTyGBzmstUspZC92UhjJM694ty"
	secret = "governance-secret"
)

type call struct {
	method string
	caller string
	id     uint32
	asset  uint32
	amount string
}

type fakeActions struct {
	calls   []call
	outcome types.OperationOutcome
	err     error
}

func (f *fakeActions) Info() types.ContractInfo {
	return types.ContractInfo{Address: "contract", Owner: bob, SupportedAssets: []uint32{1}}
}

func (f *fakeActions) SubmitProposal(_ context.Context, caller, title, _ string, deposit types.Balance) (types.OperationOutcome, error) {
	f.calls = append(f.calls, call{method: "submit:" + title, caller: caller, amount: deposit.String()})
	return f.outcome, f.err
}

func (f *fakeActions) VoteFor(_ context.Context, caller string, id, asset uint32, amount types.Balance) (types.OperationOutcome, error) {
	f.calls = append(f.calls, call{method: "for", caller: caller, id: id, asset: asset, amount: amount.String()})
	return f.outcome, f.err
}

func (f *fakeActions) VoteAgainst(_ context.Context, caller string, id, asset uint32, amount types.Balance) (types.OperationOutcome, error) {
	f.calls = append(f.calls, call{method: "against", caller: caller, id: id, asset: asset, amount: amount.String()})
	return f.outcome, f.err
}

func (f *fakeActions) CloseVote(_ context.Context, caller string, id uint32) (types.OperationOutcome, error) {
	f.calls = append(f.calls, call{method: "close", caller: caller, id: id})
	return f.outcome, f.err
}

func (f *fakeActions) CancelProposal(_ context.Context, caller string, id uint32) (types.OperationOutcome, error) {
	f.calls = append(f.calls, call{method: "cancel", caller: caller, id: id})
	return f.outcome, f.err
}

type fakeRefresher struct {
	calls int
	err   error
}

func (f *fakeRefresher) RefreshAll(context.Context) error {
	f.calls++
	return f.err
}

type fakeMirror map[uint32]*types.ProposalProjection

func (f fakeMirror) Proposal(_ context.Context, id uint32) (*types.ProposalProjection, error) {
	if p, ok := f[id]; ok {
		return p, nil
	}
	return nil, types.NewFault(types.ErrProposalNotFound, "not cached")
}

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type fixture struct {
	store     *reconciler.Store
	actions   *fakeActions
	refresher *fakeRefresher
	mirror    fakeMirror
	srv       http.Handler
	// auth is sent as the Authorization header when set.
	auth string
}

func newFixture() *fixture {
	return newFixtureWithCaller(alice)
}

func newFixtureWithCaller(actingAccount string) *fixture {
	f := &fixture{
		store:     reconciler.NewStore(),
		actions:   &fakeActions{outcome: types.Succeeded("0xblock")},
		refresher: &fakeRefresher{},
		mirror:    fakeMirror{},
		auth:      secret,
	}
	for i := uint32(0); i < 3; i++ {
		f.store.Put(&types.ProposalProjection{
			Proposal: types.Proposal{ID: i, Creator: alice, Title: "p", Result: types.ResultPending},
			Status:   types.StatusOpen,
		})
	}
	f.srv = NewEcho(NewServer(Config{
		Store:               f.store,
		Mirror:              f.mirror,
		Actions:             f.actions,
		Refresher:           f.refresher,
		DefaultCaller:       actingAccount,
		AuthorizationSecret: secret,
	}), promhttp.Handler())
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) (int, envelope) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if f.auth != "" {
		req.Header.Set("Authorization", f.auth)
	}
	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, req)
	var env envelope
	if strings.HasPrefix(path, "/api/") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec.Code, env
}

func TestProposals_Paging(t *testing.T) {
	f := newFixture()
	code, env := f.do(t, http.MethodGet, "/api/v1/proposals?page=2&limit=2", "")
	require.Equal(t, http.StatusOK, code)
	var page struct {
		Page  int                         `json:"page"`
		Limit int                         `json:"limit"`
		Total uint64                      `json:"total"`
		Data  []*types.ProposalProjection `json:"data"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 2, page.Limit)
	assert.Equal(t, uint64(3), page.Total)
	require.Len(t, page.Data, 1)
	assert.Equal(t, uint32(2), page.Data[0].ID)
}

func TestProposals_HugePage(t *testing.T) {
	f := newFixture()
	for _, query := range []string{
		"page=9223372036854775807&limit=100",
		"page=9223372036854775807",
		"page=4611686018427387904&limit=2",
		"page=2147483647&limit=1",
	} {
		code, env := f.do(t, http.MethodGet, "/api/v1/proposals?"+query, "")
		require.Equal(t, http.StatusOK, code, query)
		var page struct {
			Page  int                         `json:"page"`
			Total uint64                      `json:"total"`
			Data  []*types.ProposalProjection `json:"data"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &page))
		assert.Equal(t, uint64(3), page.Total)
		assert.Empty(t, page.Data, query)
		assert.Positive(t, page.Page)
	}
}

func TestGetPagingOption_Clamp(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?page=9223372036854775807&limit=10", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	pagination, page, limit := getPagingOption(c)
	assert.Equal(t, 10, limit)
	assert.GreaterOrEqual(t, pagination.Skip, 0)
	assert.Equal(t, (page-1)*limit, pagination.Skip)
}

func TestProposal(t *testing.T) {
	f := newFixture()
	f.mirror[9] = &types.ProposalProjection{Proposal: types.Proposal{ID: 9}, Status: types.StatusPassed}

	code, env := f.do(t, http.MethodGet, "/api/v1/proposals/1", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1000, env.Code)

	code, _ = f.do(t, http.MethodGet, "/api/v1/proposals/9", "")
	assert.Equal(t, http.StatusOK, code)

	code, env = f.do(t, http.MethodGet, "/api/v1/proposals/42", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, 1102, env.Code)

	code, _ = f.do(t, http.MethodGet, "/api/v1/proposals/abc", "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestPermissions(t *testing.T) {
	f := newFixture()
	cases := []struct {
		account string
		want    types.Permissions
	}{
		{account: alice, want: types.Permissions{CanVote: true, CanClose: true, CanCancel: true}},
		{account: bob, want: types.Permissions{CanVote: true, CanClose: true}},
		{account: "5FLSigC9HGRKVhB9FiEo4Y3koPsNmBmLJbpXg2mp1hXcS59Y", want: types.Permissions{CanVote: true}},
	}
	for _, tc := range cases {
		code, env := f.do(t, http.MethodGet, "/api/v1/proposals/0/permissions?account="+tc.account, "")
		require.Equal(t, http.StatusOK, code)
		var resp permissionsResponse
		require.NoError(t, json.Unmarshal(env.Data, &resp))
		assert.Equal(t, tc.want, resp.Permissions, tc.account)
	}
}

func TestSubmitProposal(t *testing.T) {
	f := newFixture()
	code, env := f.do(t, http.MethodPost, "/api/v1/proposals", `{"title":"Treasury","description":"d","deposit":"1000000000000"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1000, env.Code)
	require.Len(t, f.actions.calls, 1)
	assert.Equal(t, call{method: "submit:Treasury", caller: alice, amount: "1000000000000"}, f.actions.calls[0])

	code, _ = f.do(t, http.MethodPost, "/api/v1/proposals", `{"title":"t","deposit":"lots"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Len(t, f.actions.calls, 1)
}

func TestVote(t *testing.T) {
	f := newFixture()
	code, _ := f.do(t, http.MethodPost, "/api/v1/proposals/2/vote", `{"caller":"`+alice+`","assetId":1,"amount":"5","inFavor":true}`)
	require.Equal(t, http.StatusOK, code)
	code, _ = f.do(t, http.MethodPost, "/api/v1/proposals/2/vote", `{"assetId":1,"amount":"7"}`)
	require.Equal(t, http.StatusOK, code)

	require.Len(t, f.actions.calls, 2)
	assert.Equal(t, call{method: "for", caller: alice, id: 2, asset: 1, amount: "5"}, f.actions.calls[0])
	assert.Equal(t, call{method: "against", caller: alice, id: 2, asset: 1, amount: "7"}, f.actions.calls[1])
}

var writeRequests = []struct {
	path string
	body string
}{
	{path: "/api/v1/proposals", body: `{"caller":"%s","title":"t","description":"d","deposit":"1000000000000"}`},
	{path: "/api/v1/proposals/1/vote", body: `{"caller":"%s","assetId":1,"amount":"5","inFavor":true}`},
	{path: "/api/v1/proposals/1/close", body: `{"caller":"%s"}`},
	{path: "/api/v1/proposals/1/cancel", body: `{"caller":"%s"}`},
}

func TestActions_ForeignCallerRejected(t *testing.T) {
	for _, req := range writeRequests {
		t.Run(req.path, func(t *testing.T) {
			f := newFixture()
			code, env := f.do(t, http.MethodPost, req.path, fmt.Sprintf(req.body, bob))
			assert.Equal(t, http.StatusForbidden, code)
			assert.Equal(t, 1103, env.Code)
			assert.Contains(t, env.Msg, "acting account")
			assert.Empty(t, f.actions.calls)
		})
	}
}

func TestActions_Unauthorized(t *testing.T) {
	for _, auth := range []string{"", "wrong"} {
		f := newFixture()
		f.auth = auth
		for _, req := range writeRequests {
			code, env := f.do(t, http.MethodPost, req.path, fmt.Sprintf(req.body, alice))
			assert.Equal(t, http.StatusUnauthorized, code, req.path)
			assert.Equal(t, 401, env.Code)
		}
		code, _ := f.do(t, http.MethodPost, "/api/v1/refresh", "")
		assert.Equal(t, http.StatusUnauthorized, code)
		assert.Empty(t, f.actions.calls)
		assert.Zero(t, f.refresher.calls)
	}
}

func TestActions_NoActingAccount(t *testing.T) {
	f := newFixtureWithCaller("")
	for _, req := range writeRequests {
		code, _ := f.do(t, http.MethodPost, req.path, fmt.Sprintf(req.body, ""))
		assert.Equal(t, http.StatusForbidden, code, req.path)
	}
	assert.Empty(t, f.actions.calls)
}

func TestActions_FaultMapping(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		outcome types.OperationOutcome
		status  int
		code    int
	}{
		{name: "not permitted", err: types.NewFault(types.ErrNotPermitted, "only the proposal creator can cancel the proposal"), status: http.StatusForbidden, code: 1103},
		{name: "invalid", err: types.NewFault(types.ErrInvalidArgument, "bad"), status: http.StatusBadRequest, code: 1101},
		{name: "gas estimation", err: &types.Fault{Kind: types.ErrGasEstimationFailed, Msg: "AlreadyClosed", Cause: types.ContractError{Variant: "AlreadyClosed"}}, status: http.StatusUnprocessableEntity, code: 1104},
		{name: "signing unavailable", err: types.NewFault(types.ErrSigningUnavailable, "no key"), status: http.StatusUnauthorized, code: 401},
		{name: "transport", err: types.NewFault(types.ErrTransport, "dropped"), status: http.StatusServiceUnavailable, code: 1106},
		{name: "unexpected", err: errors.New("boom"), status: http.StatusInternalServerError, code: 1100},
		{name: "failed outcome", outcome: types.FailedWithReason("0xb", types.ModuleError{Pallet: "Contracts", Name: "StorageDepositLimitExhausted"}), status: http.StatusUnprocessableEntity, code: 1104},
		{name: "indeterminate outcome", outcome: types.Indeterminate("0xb"), status: http.StatusAccepted, code: 1105},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			f.actions.err = tc.err
			f.actions.outcome = tc.outcome
			code, env := f.do(t, http.MethodPost, "/api/v1/proposals/0/cancel", `{"caller":"`+alice+`"}`)
			assert.Equal(t, tc.status, code)
			assert.Equal(t, tc.code, env.Code)
			assert.NotEmpty(t, env.Msg)
		})
	}
}

func TestRefresh(t *testing.T) {
	f := newFixture()
	code, _ := f.do(t, http.MethodPost, "/api/v1/refresh", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, f.refresher.calls)

	f.refresher.err = types.NewFault(types.ErrTransport, "count unavailable")
	code, env := f.do(t, http.MethodPost, "/api/v1/refresh", "")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, env.Msg, "count unavailable")
}

func TestMetricsRoute(t *testing.T) {
	f := newFixture()
	code, _ := f.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, code)
}

func TestContractInfo(t *testing.T) {
	f := newFixture()
	code, env := f.do(t, http.MethodGet, "/api/v1/info", "")
	require.Equal(t, http.StatusOK, code)
	var info types.ContractInfo
	require.NoError(t, json.Unmarshal(env.Data, &info))
	assert.Equal(t, bob, info.Owner)
}
