package report

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"fupan/internal/collector"
	"fupan/internal/provider"
	"fupan/internal/store"
	"fupan/pkg/model"
)

func snap(day string, score float64, limitUps int, pool ...model.LimitUpStock) *model.Snapshot {
	return &model.Snapshot{
		Date:         day,
		LimitUps:     limitUps,
		Exploded:     10,
		LimitDowns:   3,
		SealRate:     70,
		PremiumPct:   1.5,
		MaxStreak:    5,
		EmotionScore: score,
		EmotionStage: "回暖期",
		Pool:         pool,
		Indices: map[string]model.IndexQuote{
			model.IndexSH:  {Close: 3300 + score*10, ChangePct: 0.5},
			model.IndexSZ:  {Close: 10500, ChangePct: -0.2},
			model.IndexCYB: {Close: 2200, ChangePct: 1.1},
		},
	}
}

func stock(name, industry string, boards int) model.LimitUpStock {
	return model.LimitUpStock{Code: "600000", Name: name, Industry: industry, Boards: boards}
}

func toDays(t *testing.T, keys ...string) []time.Time {
	t.Helper()
	out := make([]time.Time, len(keys))
	for i, k := range keys {
		d, err := model.ParseDay(k)
		if err != nil {
			t.Fatalf("bad day key %s: %v", k, err)
		}
		out[i] = d
	}
	return out
}

func TestLeaderTrajectoryRendering(t *testing.T) {
	snaps := []*model.Snapshot{
		snap("20260212", 6, 50, stock("东方精工", "机器人", 2)),
		snap("20260213", 6, 50, stock("东方精工", "机器人", 3)),
		snap("20260224", 6, 50, stock("东方精工", "机器人", 4)),
		snap("20260225", 6, 50, stock("东方精工", "机器人", 5)),
	}
	leaders := leaderTrajectories(snaps)
	if len(leaders) != 1 {
		t.Fatalf("expected 1 leader, got %d", len(leaders))
	}
	got := renderTrajectory(leaders[0])
	want := "2/12(2板) → 2/13(3板) → 2/24(4板) → 2/25(5板)"
	if got != want {
		t.Errorf("trajectory:\n got %s\nwant %s", got, want)
	}
}

func TestLeaderRequiresTwoDistinctDays(t *testing.T) {
	snaps := []*model.Snapshot{
		snap("20260224", 6, 50, stock("一日游", "半导体", 1), stock("常客", "半导体", 2)),
		snap("20260225", 6, 50, stock("常客", "半导体", 3)),
	}
	leaders := leaderTrajectories(snaps)
	if len(leaders) != 1 || leaders[0].Name != "常客" {
		t.Fatalf("expected only the repeat visitor, got %+v", leaders)
	}
}

func TestLeaderOrderingFirstAppearanceThenName(t *testing.T) {
	snaps := []*model.Snapshot{
		snap("20260223", 6, 50, stock("乙股", "半导体", 2)),
		snap("20260224", 6, 50, stock("乙股", "半导体", 3), stock("丙股", "机器人", 2), stock("丁股", "机器人", 2)),
		snap("20260225", 6, 50, stock("丙股", "机器人", 3), stock("丁股", "机器人", 3)),
	}
	leaders := leaderTrajectories(snaps)
	if len(leaders) != 3 {
		t.Fatalf("expected 3 leaders, got %d", len(leaders))
	}
	// 乙股 appears first; 丙股 and 丁股 tie on first appearance, name order
	want := []string{"乙股", "丁股", "丙股"}
	for i, name := range want {
		if leaders[i].Name != name {
			t.Errorf("leaders[%d] = %s, want %s", i, leaders[i].Name, name)
		}
	}
}

func TestSectorRotationCollapsesRepeats(t *testing.T) {
	// Leading industries A, A, B, C, C over five days → 3 segments
	snaps := []*model.Snapshot{
		snap("20260216", 6, 50, stock("a1", "人工智能", 1), stock("a2", "人工智能", 1), stock("b1", "银行", 1)),
		snap("20260217", 6, 50, stock("a3", "人工智能", 2)),
		snap("20260218", 6, 50, stock("b2", "银行", 1), stock("b3", "银行", 2)),
		snap("20260219", 6, 50, stock("c1", "有色金属", 1), stock("c2", "有色金属", 1)),
		snap("20260220", 6, 50, stock("c3", "有色金属", 3)),
	}
	segments := sectorRotation(snaps)
	if len(segments) != 3 {
		t.Fatalf("expected 3 segments, got %d: %+v", len(segments), segments)
	}
	want := []string{"人工智能", "银行", "有色金属"}
	for i, ind := range want {
		if segments[i].Industry != ind {
			t.Errorf("segment %d: got %s, want %s", i, segments[i].Industry, ind)
		}
	}
	if len(segments[0].Days) != 2 || segments[0].Counts[0] != 2 {
		t.Errorf("first segment days/counts: %+v", segments[0])
	}
}

func TestSectorRotationTieBreakFirstSeen(t *testing.T) {
	s := snap("20260225", 6, 50,
		stock("x1", "军工", 1), stock("y1", "电力", 1), stock("y2", "电力", 2), stock("x2", "军工", 2))
	ind, count := topIndustry(s)
	if ind != "军工" || count != 2 {
		t.Errorf("tie-break: got %s(%d), want 军工(2)", ind, count)
	}
}

func TestComputeStats(t *testing.T) {
	scores := []float64{7.14, 6.33, 6.55, 5.56, 6.57, 7.24}
	days := []string{"20260216", "20260217", "20260218", "20260219", "20260220", "20260223"}
	var snaps []*model.Snapshot
	for i, d := range days {
		snaps = append(snaps, snap(d, scores[i], 60+i))
	}
	st := computeStats(snaps)

	if st.Days != 6 {
		t.Errorf("days: got %d", st.Days)
	}
	if st.MaxScore != 7.24 || st.MaxDay != "20260223" {
		t.Errorf("max: got %.2f on %s, want 7.24 on 20260223", st.MaxScore, st.MaxDay)
	}
	if st.MinScore != 5.56 || st.MinDay != "20260219" {
		t.Errorf("min: got %.2f on %s, want 5.56 on 20260219", st.MinScore, st.MinDay)
	}
	wantAvgUps := (60.0 + 61 + 62 + 63 + 64 + 65) / 6
	if st.AvgLimitUps != wantAvgUps {
		t.Errorf("avg limit-ups: got %v, want %v", st.AvgLimitUps, wantAvgUps)
	}
}

func TestComputeStatsTieBreakEarliestDay(t *testing.T) {
	snaps := []*model.Snapshot{
		snap("20260224", 7.0, 50),
		snap("20260225", 7.0, 50),
	}
	st := computeStats(snaps)
	if st.MaxDay != "20260224" || st.MinDay != "20260224" {
		t.Errorf("ties must go to the earliest day: max=%s min=%s", st.MaxDay, st.MinDay)
	}
}

func TestCurveBarsNormalizedToObservedRange(t *testing.T) {
	snaps := []*model.Snapshot{
		snap("20260223", 5.0, 50),
		snap("20260224", 7.5, 50),
		snap("20260225", 10.0, 50),
	}
	bars := curveBars(snaps, 40)
	if bars[2] != 40 {
		t.Errorf("max score must span full width: got %d", bars[2])
	}
	if bars[0] != 1 {
		t.Errorf("min score keeps a visible bar: got %d", bars[0])
	}
	if bars[1] != 20 {
		t.Errorf("midpoint: got %d, want 20", bars[1])
	}
}

func TestCurveBarsFlatSeries(t *testing.T) {
	snaps := []*model.Snapshot{snap("20260224", 6.0, 50), snap("20260225", 6.0, 50)}
	for i, b := range curveBars(snaps, 30) {
		if b != 30 {
			t.Errorf("flat series bar %d: got %d, want 30", i, b)
		}
	}
}

func TestSummarizeDocument(t *testing.T) {
	st, _ := store.Open(t.TempDir())
	days := []string{"20260223", "20260224", "20260225"}
	for i, d := range days {
		s := snap(d, 6.0+float64(i), 50+i, stock("常客", "机器人", i+2))
		if err := st.Save(s); err != nil {
			t.Fatalf("Save %s: %v", d, err)
		}
	}

	a := NewAggregator(st, nil, 10, 40)
	rep, err := a.Summarize(context.Background(), toDays(t, days...))
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	if rep.Start != "20260223" || rep.End != "20260225" {
		t.Errorf("range: %s ~ %s", rep.Start, rep.End)
	}
	if len(rep.Gaps) != 0 {
		t.Errorf("unexpected gaps: %v", rep.Gaps)
	}

	md := rep.Markdown
	for _, section := range []string{
		"## 三大指数走势", "## 每日情绪核心数据", "## 情绪走势曲线",
		"## 龙头演进追踪", "## 题材轮动", "## 区间统计",
	} {
		if !strings.Contains(md, section) {
			t.Errorf("document missing section %q", section)
		}
	}
	// sections appear in the contract order
	last := -1
	for _, section := range []string{"三大指数走势", "每日情绪核心数据", "情绪走势曲线", "龙头演进追踪", "题材轮动", "区间统计"} {
		idx := strings.Index(md, section)
		if idx < last {
			t.Errorf("section %q out of order", section)
		}
		last = idx
	}
	if !strings.Contains(md, "2/23(2板) → 2/24(3板) → 2/25(4板)") {
		t.Error("leader trajectory missing from document")
	}

	// every included day has a full sentiment row
	for _, d := range days {
		found := false
		for _, line := range strings.Split(md, "\n") {
			if strings.HasPrefix(line, "| "+d+" |") && strings.Count(line, "|") == 10 {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("no complete sentiment row for %s", d)
		}
	}

	// written file matches the returned text
	data, err := os.ReadFile(rep.Path)
	if err != nil {
		t.Fatalf("summary file not written: %v", err)
	}
	if string(data) != md {
		t.Error("file content differs from returned markdown")
	}
}

func TestSummarizeRecordsGaps(t *testing.T) {
	st, _ := store.Open(t.TempDir())
	st.Save(snap("20260224", 6.0, 50))

	a := NewAggregator(st, nil, 10, 40)
	rep, err := a.Summarize(context.Background(), toDays(t, "20260224", "20260225"))
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if len(rep.Gaps) != 1 || rep.Gaps[0] != "20260225" {
		t.Fatalf("gaps: got %v", rep.Gaps)
	}
	if !strings.Contains(rep.Markdown, "缺失交易日") || !strings.Contains(rep.Markdown, "20260225") {
		t.Error("gap note missing from document")
	}
}

// jitProvider serves a fixed snapshot for any requested day.
type jitProvider struct{ hits int }

func (p *jitProvider) Name() string { return "jit" }
func (p *jitProvider) FetchDay(ctx context.Context, day time.Time) (*model.Snapshot, error) {
	p.hits++
	return snap(model.FormatDay(day), 6.2, 55), nil
}

func TestSummarizeBackfillsThroughCollector(t *testing.T) {
	st, _ := store.Open(t.TempDir())
	st.Save(snap("20260224", 6.0, 50))

	jp := &jitProvider{}
	a := NewAggregator(st, collector.New(st, jp), 10, 40)
	rep, err := a.Summarize(context.Background(), toDays(t, "20260224", "20260225"))
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if jp.hits != 1 {
		t.Errorf("provider hits: got %d, want 1 (only the missing day)", jp.hits)
	}
	if len(rep.Gaps) != 0 {
		t.Errorf("backfilled day still reported as gap: %v", rep.Gaps)
	}
	if len(rep.Days) != 2 {
		t.Errorf("included days: got %v", rep.Days)
	}
}

// failingProvider always reports the day as unavailable.
type failingProvider struct{}

func (failingProvider) Name() string { return "failing" }
func (failingProvider) FetchDay(ctx context.Context, day time.Time) (*model.Snapshot, error) {
	return nil, fmt.Errorf("%s: %w", model.FormatDay(day), provider.ErrNoData)
}

func TestSummarizeGapWhenBackfillFails(t *testing.T) {
	st, _ := store.Open(t.TempDir())
	st.Save(snap("20260224", 6.0, 50))

	a := NewAggregator(st, collector.New(st, failingProvider{}), 10, 40)
	rep, err := a.Summarize(context.Background(), toDays(t, "20260224", "20260225"))
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if len(rep.Gaps) != 1 || rep.Gaps[0] != "20260225" {
		t.Errorf("gaps: got %v", rep.Gaps)
	}
}
