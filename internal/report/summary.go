// Package report builds the period summary, the single-day console
// view and the review-draft markdown from stored snapshots.
package report

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"fupan/internal/collector"
	"fupan/internal/emotion"
	"fupan/internal/store"
	"fupan/pkg/model"
)

// Report is the rendered period summary.
type Report struct {
	Start    string
	End      string
	Days     []string // included day keys, ascending
	Gaps     []string // requested days with no snapshot available
	Markdown string
	Path     string // written summary file
}

// Aggregator computes the period summary over stored snapshots.
// A collector may be attached for just-in-time backfill of missing
// days; without one, missing days are reported as gaps.
type Aggregator struct {
	store       *store.Store
	collector   *collector.Collector
	leaderLimit int
	curveWidth  int
}

// NewAggregator creates an aggregator. c may be nil.
func NewAggregator(st *store.Store, c *collector.Collector, leaderLimit, curveWidth int) *Aggregator {
	if leaderLimit <= 0 {
		leaderLimit = 10
	}
	if curveWidth <= 0 {
		curveWidth = 40
	}
	return &Aggregator{store: st, collector: c, leaderLimit: leaderLimit, curveWidth: curveWidth}
}

// Summarize builds the period report over the given trading days,
// writes it to summary_<start>_<end>.md in the data dir and returns
// it. Days without a resolvable snapshot become explicit gaps.
func (a *Aggregator) Summarize(ctx context.Context, days []time.Time) (*Report, error) {
	snaps, gaps := a.loadPeriod(ctx, days)
	if len(snaps) == 0 {
		return nil, fmt.Errorf("no snapshots available for the requested period")
	}

	rep := &Report{
		Start: snaps[0].Date,
		End:   snaps[len(snaps)-1].Date,
		Gaps:  gaps,
	}
	for _, s := range snaps {
		rep.Days = append(rep.Days, s.Date)
	}
	rep.Markdown = render(snaps, gaps, a.leaderLimit, a.curveWidth)

	rep.Path = filepath.Join(a.store.Dir(), fmt.Sprintf("summary_%s_%s.md", rep.Start, rep.End))
	if err := os.WriteFile(rep.Path, []byte(rep.Markdown), 0644); err != nil {
		return nil, fmt.Errorf("writing summary: %w", err)
	}
	return rep, nil
}

// loadPeriod resolves the snapshots for the requested days, sorted
// ascending and deduplicated. Missing days are backfilled through the
// collector when one is attached, otherwise recorded as gaps.
func (a *Aggregator) loadPeriod(ctx context.Context, days []time.Time) ([]*model.Snapshot, []string) {
	keys := make([]string, 0, len(days))
	seen := map[string]bool{}
	for _, d := range days {
		if k := model.FormatDay(d); !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var snaps []*model.Snapshot
	var gaps []string
	for _, key := range keys {
		if !a.store.Exists(key) && a.collector != nil {
			day, _ := model.ParseDay(key)
			results := a.collector.Collect(ctx, []time.Time{day}, false)
			if results.Failed() > 0 {
				log.Printf("[SUMMARY] %s 补采失败: %v", key, results[0].Err)
			}
		}
		snap, err := a.store.Load(key)
		if err != nil {
			gaps = append(gaps, key)
			continue
		}
		snaps = append(snaps, snap)
	}
	return snaps, gaps
}

func render(snaps []*model.Snapshot, gaps []string, leaderLimit, curveWidth int) string {
	var b strings.Builder
	start, end := snaps[0].Date, snaps[len(snaps)-1].Date
	fmt.Fprintf(&b, "# A股周期复盘汇总 —— %s ~ %s\n\n", slashDate(start), slashDate(end))

	if len(gaps) > 0 {
		fmt.Fprintf(&b, "> 缺失交易日（无可用数据）：%s\n\n", strings.Join(gaps, "、"))
	}

	renderIndexTrend(&b, snaps)
	renderSentimentTable(&b, snaps)
	renderEmotionCurve(&b, snaps, curveWidth)
	renderLeaders(&b, snaps, leaderLimit)
	renderRotation(&b, snaps)
	renderStats(&b, snaps)

	return b.String()
}

func renderIndexTrend(b *strings.Builder, snaps []*model.Snapshot) {
	b.WriteString("## 三大指数走势\n\n")
	b.WriteString("| 日期 | 上证指数 | 深证成指 | 创业板指 |\n")
	b.WriteString("|------|----------|----------|----------|\n")
	for _, s := range snaps {
		cells := make([]string, 0, len(model.IndexNames))
		for _, name := range model.IndexNames {
			q, ok := s.Indices[name]
			if !ok || q.Close == 0 {
				cells = append(cells, "--")
				continue
			}
			cells = append(cells, fmt.Sprintf("%.2f（%+.2f%%）", q.Close, q.ChangePct))
		}
		fmt.Fprintf(b, "| %s | %s | %s | %s |\n", s.Date, cells[0], cells[1], cells[2])
	}
	b.WriteString("\n")
}

func renderSentimentTable(b *strings.Builder, snaps []*model.Snapshot) {
	b.WriteString("## 每日情绪核心数据\n\n")
	b.WriteString("| 日期 | 涨停 | 炸板 | 封板率 | 跌停 | 溢价率 | 最高连板 | 得分 | 阶段 |\n")
	b.WriteString("|------|------|------|--------|------|--------|---------|------|------|\n")
	for _, s := range snaps {
		fmt.Fprintf(b, "| %s | %d | %d | %.1f%% | %d | %+.2f%% | %d板 | %.2f | %s |\n",
			s.Date, s.LimitUps, s.Exploded, s.SealRate, s.LimitDowns,
			s.PremiumPct, s.MaxStreak, s.EmotionScore, emotion.Stage(s.EmotionScore))
	}
	b.WriteString("\n")
}

func renderEmotionCurve(b *strings.Builder, snaps []*model.Snapshot, width int) {
	b.WriteString("## 情绪走势曲线\n\n```\n")
	bars := curveBars(snaps, width)
	for i, s := range snaps {
		bar := strings.Repeat("█", bars[i]) + strings.Repeat("░", width-bars[i])
		fmt.Fprintf(b, "  %s %s %.2f %s\n", s.Date, bar, s.EmotionScore, emotion.Stage(s.EmotionScore))
	}
	b.WriteString("```\n\n")
}

func renderLeaders(b *strings.Builder, snaps []*model.Snapshot, limit int) {
	b.WriteString("## 龙头演进追踪\n\n")
	leaders := leaderTrajectories(snaps)
	if len(leaders) == 0 {
		b.WriteString("_本周期内无跨日连板龙头_\n\n")
		return
	}
	if len(leaders) > limit {
		leaders = leaders[:limit]
	}
	b.WriteString("| 龙头 | 演进轨迹 | 最高板数 |\n")
	b.WriteString("|------|----------|---------|\n")
	for _, l := range leaders {
		fmt.Fprintf(b, "| %s | %s | %d板 |\n", l.Name, renderTrajectory(l), l.MaxBoards())
	}
	b.WriteString("\n")
}

func renderTrajectory(t Trajectory) string {
	parts := make([]string, len(t.Points))
	for i, p := range t.Points {
		parts[i] = fmt.Sprintf("%s(%d板)", shortDate(p.Day), p.Boards)
	}
	return strings.Join(parts, " → ")
}

func renderRotation(b *strings.Builder, snaps []*model.Snapshot) {
	b.WriteString("## 题材轮动\n\n")
	segments := sectorRotation(snaps)
	if len(segments) == 0 {
		b.WriteString("_本周期内无可统计的涨停行业数据_\n\n")
		return
	}
	parts := make([]string, len(segments))
	for i, seg := range segments {
		days := make([]string, len(seg.Days))
		for j, d := range seg.Days {
			days[j] = fmt.Sprintf("%s %d家", shortDate(d), seg.Counts[j])
		}
		parts[i] = fmt.Sprintf("%s（%s）", seg.Industry, strings.Join(days, "、"))
	}
	fmt.Fprintf(b, "%s\n\n", strings.Join(parts, " → "))
	fmt.Fprintf(b, "共 %d 个轮动段。\n\n", len(segments))
}

func renderStats(b *strings.Builder, snaps []*model.Snapshot) {
	st := computeStats(snaps)
	b.WriteString("## 区间统计\n\n")
	b.WriteString("| 指标 | 数值 |\n")
	b.WriteString("|------|------|\n")
	fmt.Fprintf(b, "| 交易天数 | %d 天 |\n", st.Days)
	fmt.Fprintf(b, "| 日均涨停 | %.1f 家 |\n", st.AvgLimitUps)
	fmt.Fprintf(b, "| 平均情绪得分 | %.2f 分 |\n", st.AvgScore)
	fmt.Fprintf(b, "| 最高情绪 | %.2f（%s） |\n", st.MaxScore, st.MaxDay)
	fmt.Fprintf(b, "| 最低情绪 | %.2f（%s） |\n", st.MinScore, st.MinDay)
	if st.FirstClose > 0 {
		fmt.Fprintf(b, "| 上证区间涨幅 | %+.2f%%（%.2f → %.2f） |\n", st.ReturnPct, st.FirstClose, st.LastClose)
	} else {
		b.WriteString("| 上证区间涨幅 | -- |\n")
	}
	b.WriteString("\n")
}

// slashDate renders 20260225 as 2026/02/25.
func slashDate(key string) string {
	if len(key) != 8 {
		return key
	}
	return key[:4] + "/" + key[4:6] + "/" + key[6:]
}

// shortDate renders 20260225 as 2/25, the compact in-table form.
func shortDate(key string) string {
	t, err := model.ParseDay(key)
	if err != nil {
		return key
	}
	return fmt.Sprintf("%d/%02d", int(t.Month()), t.Day())
}
