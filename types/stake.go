package types

// StakePair is the (for, against) stake of one voter on one asset.
type StakePair struct {
	For     Balance `json:"for"`
	Against Balance `json:"against"`
}

// VoterRoster lists supporting and opposing voters as reported by get_voters.
type VoterRoster struct {
	For     []string `json:"for"`
	Against []string `json:"against"`
}

type AssetTally struct {
	AssetID uint32  `json:"assetId" bson:"assetId"`
	For     Balance `json:"for" bson:"for"`
	Against Balance `json:"against" bson:"against"`
}

type VoterStake struct {
	Voter   string  `json:"voter" bson:"voter"`
	Amount  Balance `json:"amount" bson:"amount"`
	Display string  `json:"display,omitempty" bson:"display,omitempty"`
	AssetID uint32  `json:"assetId" bson:"assetId"`
}

// SkippedFetch records a (voter, asset) stake read that failed during aggregation.
type SkippedFetch struct {
	Voter   string `json:"voter" bson:"voter"`
	AssetID uint32 `json:"assetId" bson:"assetId"`
	Reason  string `json:"reason" bson:"reason"`
}

type VoteSummary struct {
	ProposalID    uint32                `json:"proposalId"`
	Tallies       map[uint32]AssetTally `json:"tallies"`
	ForVoters     []VoterStake          `json:"forVoters"`
	AgainstVoters []VoterStake          `json:"againstVoters"`
	Skipped       []SkippedFetch        `json:"skipped,omitempty"`
}
