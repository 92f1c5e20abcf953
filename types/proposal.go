package types

// Byte limits enforced by the governance contract.
const (
	MaxTitleBytes       = 32
	MaxDescriptionBytes = 128
)

type ProposalResult string

const (
	ResultPending   ProposalResult = "Pending"
	ResultPassed    ProposalResult = "Passed"
	ResultFailed    ProposalResult = "Failed"
	ResultCancelled ProposalResult = "Cancelled"
)

// Result strings written by close_vote.
const (
	ledgerResultInFavor    = "In Favor"
	ledgerResultAgainst    = "Against"
	ledgerResultIndecision = "Indecision"
)

// ResultFromLedger maps the contract's optional result string. ok is false
// for a string close_vote never writes; it maps to ResultPending so no
// outcome is claimed for it.
func ResultFromLedger(closed bool, raw *string) (result ProposalResult, ok bool) {
	if raw == nil {
		if closed {
			return ResultCancelled, true
		}
		return ResultPending, true
	}
	switch *raw {
	case ledgerResultInFavor:
		return ResultPassed, true
	case ledgerResultAgainst, ledgerResultIndecision:
		return ResultFailed, true
	default:
		return ResultPending, false
	}
}

type Proposal struct {
	ID                    uint32         `json:"id" bson:"id"`
	Title                 string         `json:"title" bson:"title"`
	Description           string         `json:"description" bson:"description"`
	Creator               string         `json:"creator" bson:"creator"`
	Deadline              uint32         `json:"deadline" bson:"deadline"`
	Closed                bool           `json:"closed" bson:"closed"`
	Result                ProposalResult `json:"result" bson:"result"`
	SupporterCount        uint32         `json:"supporterCount" bson:"supporterCount"`
	SupporterCountAgainst uint32         `json:"supporterCountAgainst" bson:"supporterCountAgainst"`
	ReferendumIndex       *uint32        `json:"referendumIndex,omitempty" bson:"referendumIndex,omitempty"`
}

// HasResult reports whether close_vote recorded a result.
func (p Proposal) HasResult() bool {
	return p.Result == ResultPassed || p.Result == ResultFailed
}
