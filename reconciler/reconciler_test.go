package reconciler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kardiachain/governance-tracker/types"
)

type fakeCounter struct {
	count atomic.Uint32
	calls atomic.Int32

	mtx sync.Mutex
	err error
}

func (f *fakeCounter) ProposalCount(context.Context) (uint32, error) {
	f.calls.Add(1)
	f.mtx.Lock()
	defer f.mtx.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	return f.count.Load(), nil
}

func (f *fakeCounter) setErr(err error) {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	f.err = err
}

type fakeBuilder struct {
	mtx     sync.Mutex
	builds  int
	failing map[uint32]bool
	title   string
}

func (f *fakeBuilder) Build(_ context.Context, id uint32) (*types.ProposalProjection, error) {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	f.builds++
	if f.failing[id] {
		return nil, types.NewFault(types.ErrTransport, "timeout")
	}
	return &types.ProposalProjection{
		Proposal: types.Proposal{ID: id, Title: f.title},
		Status:   types.StatusOpen,
	}, nil
}

func (f *fakeBuilder) setTitle(title string) {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	f.title = title
}

func (f *fakeBuilder) setFailing(ids ...uint32) {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	f.failing = make(map[uint32]bool)
	for _, id := range ids {
		f.failing[id] = true
	}
}

func (f *fakeBuilder) buildCount() int {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	return f.builds
}

type fakePublisher struct {
	mtx       sync.Mutex
	published [][]*types.ProposalProjection
}

func (f *fakePublisher) Publish(_ context.Context, ps []*types.ProposalProjection) error {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	f.published = append(f.published, ps)
	return errors.New("sink offline")
}

func newTestReconciler(t *testing.T, count uint32) (*Reconciler, *fakeCounter, *fakeBuilder, *fakePublisher) {
	counter := &fakeCounter{}
	counter.count.Store(count)
	builder := &fakeBuilder{title: "v1"}
	pub := &fakePublisher{}
	r, err := New(Config{Counter: counter, Builder: builder, Publishers: []Publisher{pub}})
	require.Nil(t, err)
	return r, counter, builder, pub
}

func TestRefreshAll(t *testing.T) {
	r, _, _, pub := newTestReconciler(t, 3)
	assert.Nil(t, r.RefreshAll(context.Background()))

	list := r.Store().List()
	require.Len(t, list, 3)
	for i, p := range list {
		assert.Equal(t, uint32(i), p.ID)
	}
	assert.Equal(t, uint32(3), r.Store().KnownCount())
	// publish failures do not fail the refresh
	require.Len(t, pub.published, 1)
	assert.Len(t, pub.published[0], 3)
}

func TestRefreshAll_CountFaultLeavesStoreUntouched(t *testing.T) {
	r, counter, builder, _ := newTestReconciler(t, 2)
	require.Nil(t, r.RefreshAll(context.Background()))
	before := r.Store().List()
	builds := builder.buildCount()

	counter.setErr(types.NewFault(types.ErrTransport, "node unreachable"))
	builder.setTitle("v2")
	err := r.RefreshAll(context.Background())
	assert.True(t, errors.Is(err, types.ErrTransport))
	assert.Equal(t, before, r.Store().List())
	assert.Equal(t, builds, builder.buildCount())
}

func TestRefreshAll_StaleButPresent(t *testing.T) {
	r, _, builder, _ := newTestReconciler(t, 3)
	require.Nil(t, r.RefreshAll(context.Background()))

	builder.setTitle("v2")
	builder.setFailing(1)
	assert.Nil(t, r.RefreshAll(context.Background()))

	p0, _ := r.Store().Get(0)
	p1, ok := r.Store().Get(1)
	p2, _ := r.Store().Get(2)
	assert.Equal(t, "v2", p0.Title)
	require.True(t, ok)
	assert.Equal(t, "v1", p1.Title)
	assert.Equal(t, "v2", p2.Title)
}

func TestNotifyOutcome(t *testing.T) {
	r, counter, builder, _ := newTestReconciler(t, 1)
	ctx := context.Background()

	assert.Nil(t, r.NotifyOutcome(ctx, types.OpVoteFor, types.Indeterminate("0x1")))
	assert.Nil(t, r.NotifyOutcome(ctx, types.OpVoteFor, types.FailedWithReason("0x1", types.ContractError{Variant: "ProposalClosed"})))
	assert.Equal(t, 0, builder.buildCount())

	counter.count.Store(2)
	for _, kind := range []types.OperationKind{types.OpSubmitProposal, types.OpVoteAgainst, types.OpCloseVote, types.OpCancelProposal} {
		assert.Nil(t, r.NotifyOutcome(ctx, kind, types.Succeeded("0x2")))
	}
	assert.Equal(t, 8, builder.buildCount())
	assert.Equal(t, 2, r.Store().Len())
}

func TestStartPolling_RefreshesOnlyOnCountIncrease(t *testing.T) {
	r, counter, builder, _ := newTestReconciler(t, 2)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.StartPolling(ctx, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return r.Store().Len() == 2 }, time.Second, time.Millisecond)
	// several ticks without a count change
	calls := counter.calls.Load()
	require.Eventually(t, func() bool { return counter.calls.Load() >= calls+3 }, time.Second, time.Millisecond)
	assert.Equal(t, 2, builder.buildCount())

	counter.count.Store(3)
	require.Eventually(t, func() bool { return r.Store().Len() == 3 }, time.Second, time.Millisecond)
	assert.Equal(t, 5, builder.buildCount())

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("polling did not stop")
	}
}

func TestStartPolling_SurvivesCountFaults(t *testing.T) {
	r, counter, _, _ := newTestReconciler(t, 1)
	counter.setErr(types.NewFault(types.ErrTransport, "down"))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.StartPolling(ctx, 5*time.Millisecond)

	require.Eventually(t, func() bool { return counter.calls.Load() >= 3 }, time.Second, time.Millisecond)
	assert.Equal(t, 0, r.Store().Len())

	counter.setErr(nil)
	require.Eventually(t, func() bool { return r.Store().Len() == 1 }, time.Second, time.Millisecond)
}

func TestSeed(t *testing.T) {
	r, _, _, _ := newTestReconciler(t, 1)
	r.Store().Put(&types.ProposalProjection{Proposal: types.Proposal{ID: 0, Title: "fresh"}, UpdateTime: 200})

	n := r.Seed([]*types.ProposalProjection{
		{Proposal: types.Proposal{ID: 0, Title: "persisted"}, UpdateTime: 100},
		{Proposal: types.Proposal{ID: 1, Title: "persisted"}, UpdateTime: 100},
		nil,
	})
	assert.Equal(t, 1, n)
	p0, _ := r.Store().Get(0)
	assert.Equal(t, "fresh", p0.Title)
	assert.Equal(t, uint32(0), r.Store().KnownCount())
}

func TestStore_CopiesOut(t *testing.T) {
	s := NewStore()
	in := &types.ProposalProjection{
		Proposal:  types.Proposal{ID: 4},
		ForVoters: []types.VoterStake{{Voter: "W"}},
	}
	s.Put(in)
	in.ForVoters[0].Voter = "mutated"

	out, ok := s.Get(4)
	require.True(t, ok)
	assert.Equal(t, "W", out.ForVoters[0].Voter)
	out.ForVoters[0].Voter = "again"
	again, _ := s.Get(4)
	assert.Equal(t, "W", again.ForVoters[0].Voter)
}

func TestRefreshAll_Concurrent(t *testing.T) {
	r, _, _, _ := newTestReconciler(t, 5)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = r.RefreshAll(context.Background())
		}()
		go func() {
			defer wg.Done()
			_ = r.Store().List()
		}()
	}
	wg.Wait()
	assert.Equal(t, 5, r.Store().Len())
}
