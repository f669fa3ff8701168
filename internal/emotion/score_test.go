package emotion

import (
	"math"
	"testing"
)

func TestScoreDimensions(t *testing.T) {
	tests := []struct {
		name string
		fn   func() float64
		want float64
	}{
		{"limit-ups below floor", func() float64 { return scoreLimitUps(5) }, 1},
		{"limit-ups midband", func() float64 { return scoreLimitUps(55) }, 6},
		{"limit-ups capped", func() float64 { return scoreLimitUps(200) }, 10},
		{"seal rate weak", func() float64 { return scoreSealRate(20) }, 1.5},
		{"seal rate strong", func() float64 { return scoreSealRate(77.5) }, 8.5},
		{"premium floor", func() float64 { return scorePremium(-8) }, 1},
		{"premium neutral", func() float64 { return scorePremium(0) }, 6},
		{"streak none", func() float64 { return scoreMaxStreak(0) }, 1},
		{"streak four boards", func() float64 { return scoreMaxStreak(4) }, 7},
		{"streak ten boards", func() float64 { return scoreMaxStreak(10) }, 10},
		{"ratio panic", func() float64 { return scoreRiseFallRatio(0.2) }, 1},
		{"ratio balanced", func() float64 { return scoreRiseFallRatio(1.5) }, 6.5},
		{"no limit-downs", func() float64 { return scoreLimitDowns(0) }, 10},
		{"many limit-downs", func() float64 { return scoreLimitDowns(40) }, 1},
	}
	for _, tt := range tests {
		if got := tt.fn(); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestScoreComposite(t *testing.T) {
	score, dims := Score(Inputs{
		LimitUps:      55,  // 6.0
		SealRate:      70,  // 8.0
		PremiumPct:    3,   // 8.0
		MaxStreak:     4,   // 7.0
		RiseFallRatio: 1.4, // 6.4
		LimitDowns:    5,   // 8.0
	})
	// 0.15*6 + 0.15*8 + 0.25*8 + 0.15*7 + 0.15*6.4 + 0.15*8 = 7.31
	if math.Abs(score-7.31) > 1e-9 {
		t.Errorf("composite: got %v, want 7.31", score)
	}
	if len(dims) != 6 {
		t.Fatalf("expected 6 dimensions, got %d", len(dims))
	}
	if dims[DimPremium] != 8.0 {
		t.Errorf("premium dimension: got %v, want 8.0", dims[DimPremium])
	}
}

func TestStageThresholds(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{1.0, "冰点期"},
		{2.99, "冰点期"},
		{3.0, "退潮期"},
		{5.0, "回暖期"},
		{6.99, "回暖期"},
		{7.0, "高潮期"},
		{9.0, "亢奋期"},
		{10.0, "亢奋期"},
	}
	for _, tt := range tests {
		if got := Stage(tt.score); got != tt.want {
			t.Errorf("Stage(%v) = %s, want %s", tt.score, got, tt.want)
		}
	}
}
