package reconciler

import (
	"sort"
	"sync"

	"github.com/kardiachain/governance-tracker/types"
)

// Store is the single owner of projected proposal state. Entries are
// copied in and out so readers never share memory with the writer.
type Store struct {
	mtx     sync.RWMutex
	entries map[uint32]*types.ProposalProjection
	count   uint32
}

func NewStore() *Store {
	return &Store{entries: make(map[uint32]*types.ProposalProjection)}
}

// Put replaces the entry of p.ID.
func (s *Store) Put(p *types.ProposalProjection) {
	if p == nil {
		return
	}
	c := p.Copy()
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.entries[c.ID] = c
}

func (s *Store) Get(id uint32) (*types.ProposalProjection, bool) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	p, ok := s.entries[id]
	if !ok {
		return nil, false
	}
	return p.Copy(), true
}

// List returns all entries ordered by id.
func (s *Store) List() []*types.ProposalProjection {
	s.mtx.RLock()
	out := make([]*types.ProposalProjection, 0, len(s.entries))
	for _, p := range s.entries {
		out = append(out, p.Copy())
	}
	s.mtx.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) Len() int {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return len(s.entries)
}

// KnownCount is the proposal count observed by the last completed refresh.
func (s *Store) KnownCount() uint32 {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.count
}

func (s *Store) setKnownCount(count uint32) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.count = count
}

// Seed loads persisted entries, keeping any entry that is already newer.
// It returns the number of entries taken.
func (s *Store) Seed(projections []*types.ProposalProjection) int {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	n := 0
	for _, p := range projections {
		if p == nil {
			continue
		}
		if cur, ok := s.entries[p.ID]; ok && cur.UpdateTime >= p.UpdateTime {
			continue
		}
		s.entries[p.ID] = p.Copy()
		n++
	}
	return n
}
