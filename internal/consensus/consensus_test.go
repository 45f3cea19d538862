package consensus

import "testing"

func TestScore(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name        string
		yes         int
		total       int
		wantPercent int
		wantLabel   Label
		wantBadge   bool
		wantTier    ConfidenceTier
	}{
		{"no votes", 0, 0, 0, LabelEarly, false, ConfidenceNone},
		{"below consensus minimum", 3, 4, 75, LabelEarly, false, ConfidenceLow},
		{"certified at boundary", 8, 10, 80, LabelCertified, true, ConfidenceMedium},
		{"good at boundary", 13, 20, 65, LabelGood, true, ConfidenceHigh},
		{"mixed", 3, 6, 50, LabelMixed, true, ConfidenceLow},
		{"risky", 2, 5, 40, LabelRisky, true, ConfidenceLow},
		{"rounding up", 7, 9, 78, LabelGood, true, ConfidenceLow},
		{"medium confidence", 10, 15, 67, LabelGood, true, ConfidenceMedium},
		{"unanimous large", 30, 30, 100, LabelCertified, true, ConfidenceHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.yes, tt.total, cfg)
			if got.PercentWorthIt != tt.wantPercent {
				t.Errorf("percent = %d, want %d", got.PercentWorthIt, tt.wantPercent)
			}
			if got.Label != tt.wantLabel {
				t.Errorf("label = %s, want %s", got.Label, tt.wantLabel)
			}
			if got.ShowBadge != tt.wantBadge {
				t.Errorf("showBadge = %v, want %v", got.ShowBadge, tt.wantBadge)
			}
			if got.ConfidenceTier != tt.wantTier {
				t.Errorf("tier = %s, want %s", got.ConfidenceTier, tt.wantTier)
			}
			if got.TotalVotes != tt.total {
				t.Errorf("totalVotes = %d, want %d", got.TotalVotes, tt.total)
			}
		})
	}
}

func TestConfidenceTierBoundaries(t *testing.T) {
	cfg := DefaultConfig()

	cases := []struct {
		total int
		want  ConfidenceTier
	}{
		{0, ConfidenceNone},
		{1, ConfidenceLow},
		{9, ConfidenceLow},
		{10, ConfidenceMedium},
		{19, ConfidenceMedium},
		{20, ConfidenceHigh},
	}
	for _, c := range cases {
		if got := Score(c.total, c.total, cfg).ConfidenceTier; got != c.want {
			t.Errorf("tier at %d votes = %s, want %s", c.total, got, c.want)
		}
	}
}

func TestRankingEligibleIndependentOfConsensusThreshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinVotesForConsensus = 5
	cfg.MinVotesForRanking = 8

	if RankingEligible(6, cfg) {
		t.Error("6 votes should not be ranking eligible with threshold 8")
	}
	if !RankingEligible(8, cfg) {
		t.Error("8 votes should be ranking eligible")
	}

	// Label is already defined at 6 votes even though ranking is not.
	res := Score(5, 6, cfg)
	if !res.ShowBadge {
		t.Error("badge should show at 6 votes with consensus threshold 5")
	}
}

func TestLabelPriorityOrder(t *testing.T) {
	cfg := DefaultConfig()

	// The early gate wins over any percent.
	res := Score(4, 4, cfg)
	if res.Label != LabelEarly || res.PercentWorthIt != 100 {
		t.Errorf("got %s at %d%%, want early gate to win", res.Label, res.PercentWorthIt)
	}
}
