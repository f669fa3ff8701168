// Package emotion computes the composite market-sentiment score from
// six daily dimensions and maps the score onto a cycle stage.
package emotion

import "math"

// Dimension keys used in snapshots and review drafts.
const (
	DimLimitUps  = "涨停家数"
	DimSealRate  = "封板率"
	DimPremium   = "昨涨停溢价"
	DimStreak    = "连板高度"
	DimRiseFall  = "涨跌比"
	DimLimitDown = "跌停反指"
)

var weights = map[string]float64{
	DimLimitUps:  0.15,
	DimSealRate:  0.15,
	DimPremium:   0.25,
	DimStreak:    0.15,
	DimRiseFall:  0.15,
	DimLimitDown: 0.15,
}

// Inputs are the raw daily metrics feeding the score.
type Inputs struct {
	LimitUps      int
	SealRate      float64 // percent
	PremiumPct    float64
	MaxStreak     int
	RiseFallRatio float64
	LimitDowns    int
}

// Score returns the weighted composite (2 decimals) and the per-
// dimension scores (1 decimal), each on a 1-10 scale.
func Score(in Inputs) (float64, map[string]float64) {
	dims := map[string]float64{
		DimLimitUps:  scoreLimitUps(in.LimitUps),
		DimSealRate:  scoreSealRate(in.SealRate),
		DimPremium:   scorePremium(in.PremiumPct),
		DimStreak:    scoreMaxStreak(in.MaxStreak),
		DimRiseFall:  scoreRiseFallRatio(in.RiseFallRatio),
		DimLimitDown: scoreLimitDowns(in.LimitDowns),
	}
	total := 0.0
	for k, v := range dims {
		total += v * weights[k]
	}
	for k, v := range dims {
		dims[k] = round1(v)
	}
	return round2(total), dims
}

func scoreLimitUps(n int) float64 {
	f := float64(n)
	switch {
	case n < 20:
		return math.Max(1, f/10)
	case n < 40:
		return 3 + (f-20)/20*2
	case n < 70:
		return 5 + (f-40)/30*2
	case n < 100:
		return 7 + (f-70)/30*2
	default:
		return math.Min(10, 9+(f-100)/50)
	}
}

func scoreSealRate(rate float64) float64 {
	switch {
	case rate < 40:
		return math.Max(1, rate/40*3)
	case rate < 55:
		return 4 + (rate-40)/15
	case rate < 70:
		return 6 + (rate-55)/15
	case rate < 85:
		return 8 + (rate-70)/15
	default:
		return math.Min(10, 9+(rate-85)/15)
	}
}

func scorePremium(pct float64) float64 {
	switch {
	case pct < -5:
		return 1
	case pct < -2:
		return 1 + (pct+5)/3*2
	case pct < 0:
		return 4 + (pct+2)/2
	case pct < 3:
		return 6 + pct/3
	case pct < 6:
		return 8 + (pct-3)/3
	default:
		return math.Min(10, 9+(pct-6)/4)
	}
}

var streakScores = map[int]float64{0: 1, 1: 2, 2: 3, 3: 5, 4: 7, 5: 7, 6: 8, 7: 8}

func scoreMaxStreak(n int) float64 {
	if s, ok := streakScores[n]; ok {
		return s
	}
	return math.Min(10, 9+float64(n-7)/3)
}

func scoreRiseFallRatio(ratio float64) float64 {
	switch {
	case ratio < 0.3:
		return 1
	case ratio < 0.6:
		return 2 + (ratio-0.3)/0.3
	case ratio < 1:
		return 4 + (ratio-0.6)/0.4*2
	case ratio < 2:
		return 6 + (ratio - 1)
	case ratio < 3:
		return 8 + (ratio - 2)
	default:
		return math.Min(10, 9+(ratio-3)/2)
	}
}

func scoreLimitDowns(n int) float64 {
	f := float64(n)
	switch {
	case n == 0:
		return 10
	case n <= 5:
		return 8 + (5-f)/5
	case n <= 10:
		return 6 + (10-f)/5*2
	case n <= 20:
		return 4 + (20-f)/10*2
	case n <= 30:
		return 2 + (30-f)/10
	default:
		return 1
	}
}

// Stage maps a composite score onto its short cycle-stage label.
// Breakpoints follow the 3/5/7/9 convention of the review workflow.
func Stage(score float64) string {
	switch {
	case score < 3:
		return "冰点期"
	case score < 5:
		return "退潮期"
	case score < 7:
		return "回暖期"
	case score < 9:
		return "高潮期"
	default:
		return "亢奋期"
	}
}

// StageFull returns the long-form stage description stored in snapshots.
func StageFull(score float64) string {
	switch {
	case score < 3:
		return "冰点期（1-3分）—— 极度低迷，空仓观望"
	case score < 5:
		return "退潮/修复期（3-5分）—— 亏钱效应为主，控仓关注转折"
	case score < 7:
		return "回暖/上升期（5-7分）—— 赚钱效应回归，跟随龙头"
	case score < 9:
		return "高潮期（7-9分）—— 赚钱效应强烈，注意见顶信号"
	default:
		return "极度亢奋（9-10分）—— 警惕退潮，开始防守"
	}
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
