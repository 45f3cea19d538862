package consensus

import "math"

// Label is the qualitative tier shown next to a dish.
type Label string

const (
	LabelEarly     Label = "early"
	LabelCertified Label = "certified"
	LabelGood      Label = "good"
	LabelMixed     Label = "mixed"
	LabelRisky     Label = "risky"
)

// ConfidenceTier is a vote-count certainty hint for the UI, independent
// of the label thresholds.
type ConfidenceTier string

const (
	ConfidenceNone   ConfidenceTier = "none"
	ConfidenceLow    ConfidenceTier = "low"
	ConfidenceMedium ConfidenceTier = "medium"
	ConfidenceHigh   ConfidenceTier = "high"
)

// Config holds the scoring thresholds. MinVotesForConsensus gates the
// badge/label; MinVotesForRanking gates leaderboard eligibility. They
// default to the same number but are tuned independently.
type Config struct {
	CertifiedPercent     int
	GoodPercent          int
	MixedPercent         int
	MinVotesForConsensus int
	MinVotesForRanking   int
}

func DefaultConfig() Config {
	return Config{
		CertifiedPercent:     80,
		GoodPercent:          65,
		MixedPercent:         50,
		MinVotesForConsensus: 5,
		MinVotesForRanking:   5,
	}
}

// ConsensusResult is derived from the current vote tally on demand and
// never stored.
type ConsensusResult struct {
	PercentWorthIt int            `json:"percent_worth_it"`
	TotalVotes     int            `json:"total_votes"`
	ConfidenceTier ConfidenceTier `json:"confidence_tier"`
	Label          Label          `json:"label"`
	ShowBadge      bool           `json:"show_badge"`
}

// Score converts a raw yes/total tally into a ConsensusResult.
// Label rules are evaluated in priority order; the first match wins.
func Score(yesVotes, totalVotes int, cfg Config) ConsensusResult {
	res := ConsensusResult{
		TotalVotes:     totalVotes,
		ConfidenceTier: confidence(totalVotes),
	}

	if totalVotes > 0 {
		res.PercentWorthIt = int(math.Round(float64(yesVotes) / float64(totalVotes) * 100))
	}

	if totalVotes < cfg.MinVotesForConsensus {
		res.Label = LabelEarly
		res.ShowBadge = false
		return res
	}

	res.ShowBadge = true
	switch {
	case res.PercentWorthIt >= cfg.CertifiedPercent:
		res.Label = LabelCertified
	case res.PercentWorthIt >= cfg.GoodPercent:
		res.Label = LabelGood
	case res.PercentWorthIt >= cfg.MixedPercent:
		res.Label = LabelMixed
	default:
		res.Label = LabelRisky
	}
	return res
}

// RankingEligible reports whether a dish has enough votes to appear in
// ordered leaderboards. Deliberately separate from the consensus-display
// threshold.
func RankingEligible(totalVotes int, cfg Config) bool {
	return totalVotes >= cfg.MinVotesForRanking
}

func confidence(totalVotes int) ConfidenceTier {
	switch {
	case totalVotes == 0:
		return ConfidenceNone
	case totalVotes < 10:
		return ConfidenceLow
	case totalVotes < 20:
		return ConfidenceMedium
	default:
		return ConfidenceHigh
	}
}
