package types

type ProposalStatus string

const (
	StatusOpen      ProposalStatus = "Open"
	StatusPassed    ProposalStatus = "Passed"
	StatusFailed    ProposalStatus = "Failed"
	StatusCancelled ProposalStatus = "Cancelled"
)

// Permissions are the mutating actions an account may currently attempt.
type Permissions struct {
	CanVote   bool `json:"canVote" bson:"canVote"`
	CanClose  bool `json:"canClose" bson:"canClose"`
	CanCancel bool `json:"canCancel" bson:"canCancel"`
}

type ProposalProjection struct {
	Proposal      `bson:",inline"`
	Status        ProposalStatus        `json:"status" bson:"status"`
	Tallies       map[uint32]AssetTally `json:"tallies" bson:"-"`
	ForVoters     []VoterStake          `json:"forVoters" bson:"forVoters"`
	AgainstVoters []VoterStake          `json:"againstVoters" bson:"againstVoters"`
	Account       string                `json:"account,omitempty" bson:"account,omitempty"`
	Permissions   Permissions           `json:"permissions" bson:"permissions"`
	Partial       bool                  `json:"partial" bson:"partial"`
	UpdateTime    int64                 `json:"updateTime" bson:"updateTime"`
}

// Copy returns a deep copy so store readers never share slices with writers.
func (p *ProposalProjection) Copy() *ProposalProjection {
	if p == nil {
		return nil
	}
	c := *p
	if p.ReferendumIndex != nil {
		idx := *p.ReferendumIndex
		c.ReferendumIndex = &idx
	}
	if p.Tallies != nil {
		c.Tallies = make(map[uint32]AssetTally, len(p.Tallies))
		for k, v := range p.Tallies {
			c.Tallies[k] = v
		}
	}
	c.ForVoters = append([]VoterStake(nil), p.ForVoters...)
	c.AgainstVoters = append([]VoterStake(nil), p.AgainstVoters...)
	return &c
}
