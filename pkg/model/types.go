package model

import "time"

// DayKey is the layout for the 8-digit date keys used for snapshot
// filenames and report rows (e.g. "20260225").
const DayKey = "20060102"

// FormatDay renders a time as an 8-digit day key.
func FormatDay(t time.Time) string {
	return t.Format(DayKey)
}

// ParseDay parses an 8-digit day key.
func ParseDay(key string) (time.Time, error) {
	return time.Parse(DayKey, key)
}

// Index symbols tracked in every snapshot, in display order.
const (
	IndexSH  = "上证指数"
	IndexSZ  = "深证成指"
	IndexCYB = "创业板指"
)

// IndexNames lists the tracked indices in report column order.
var IndexNames = []string{IndexSH, IndexSZ, IndexCYB}

// IndexQuote is one index close for a trading day.
type IndexQuote struct {
	Close      float64 `json:"close"`
	ChangePct  float64 `json:"change_pct"`
	TurnoverYi float64 `json:"turnover_yi"` // turnover in 100M CNY
}

// RiseFall holds market-wide advance/decline counts.
type RiseFall struct {
	Advancers int     `json:"advancers"`
	Decliners int     `json:"decliners"`
	Flat      int     `json:"flat"`
	Ratio     float64 `json:"ratio"`
	Total     int     `json:"total"`
}

// LimitUpStock is one entry in a day's limit-up pool.
type LimitUpStock struct {
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	Industry  string  `json:"industry"`
	Boards    int     `json:"boards"` // consecutive limit-up days
	FirstSeal string  `json:"first_seal,omitempty"`
	LastSeal  string  `json:"last_seal,omitempty"`
	SealFund  float64 `json:"seal_fund,omitempty"` // CNY
	BoardType string  `json:"board_type,omitempty"`
	ChangePct float64 `json:"change_pct,omitempty"`
	Turnover  float64 `json:"turnover,omitempty"`
}

// StreakTier groups limit-up stocks by consecutive-board count.
type StreakTier struct {
	Boards   int    `json:"boards"`
	Count    int    `json:"count"`
	Examples string `json:"examples"` // up to three names, 、-joined
}

// IndustryCount is one row of the per-day top-industries ranking.
type IndustryCount struct {
	Industry string `json:"industry"`
	Count    int    `json:"count"`
	Examples string `json:"examples"`
}

// VolumeAnomaly is a stock that stayed off the limit but traded at an
// unusual volume ratio. Collected in realtime mode only.
type VolumeAnomaly struct {
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	ChangePct   float64 `json:"change_pct"`
	VolumeRatio float64 `json:"volume_ratio"`
	Turnover    float64 `json:"turnover"`
	AmountYi    float64 `json:"amount_yi"`
}

// VolumeAnalysis compares a day's turnover against recent history.
type VolumeAnalysis struct {
	PrevTurnoverYi float64 `json:"prev_turnover_yi,omitempty"`
	DayOverDayPct  float64 `json:"day_over_day_pct,omitempty"`
	Avg5Yi         float64 `json:"avg5_yi,omitempty"`
	VsAvg5Pct      float64 `json:"vs_avg5_pct,omitempty"`
}

// Snapshot is the immutable per-trading-day sentiment record. It is
// created once by the fetcher, persisted as <day>.json, and only
// rewritten on a forced re-collection.
type Snapshot struct {
	Date       string                `json:"date"` // 8-digit day key
	Indices    map[string]IndexQuote `json:"indices"`
	TurnoverYi float64               `json:"turnover_yi"` // SH+SZ combined
	Volume     VolumeAnalysis        `json:"volume_analysis"`
	RiseFall   RiseFall              `json:"rise_fall"`

	LimitUps   int     `json:"limit_ups"`
	Exploded   int     `json:"exploded"` // touched limit-up, failed to hold
	LimitDowns int     `json:"limit_downs"`
	SealRate   float64 `json:"seal_rate"`   // percent
	PremiumPct float64 `json:"premium_pct"` // prior-day limit-up premium
	MaxStreak  int     `json:"max_streak"`

	Tiers         []StreakTier       `json:"tiers,omitempty"`
	TopIndustries []IndustryCount    `json:"top_industries,omitempty"`
	Pool          []LimitUpStock     `json:"pool,omitempty"`
	Anomalies     []VolumeAnomaly    `json:"volume_anomalies,omitempty"`
	Dimensions    map[string]float64 `json:"dimensions,omitempty"`

	EmotionScore float64 `json:"emotion_score"`
	EmotionStage string  `json:"emotion_stage"`
}

// Day returns the snapshot date as a time, zero on a malformed key.
func (s *Snapshot) Day() time.Time {
	t, err := ParseDay(s.Date)
	if err != nil {
		return time.Time{}
	}
	return t
}
