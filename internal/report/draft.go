package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fupan/internal/emotion"
	"fupan/internal/store"
	"fupan/pkg/model"
)

var weekdayCN = []string{"日", "一", "二", "三", "四", "五", "六"}

// WriteDraft generates the review-draft markdown for one day under
// <draftDir>/YYYYMM/YYYY-MM-DD_draft.md. The draft prefills the
// collected metrics and leaves the judgement sections blank.
func WriteDraft(st *store.Store, s *model.Snapshot, draftDir string, anomalyLimit int) (string, error) {
	day := s.Day()
	if day.IsZero() {
		return "", fmt.Errorf("snapshot has no valid date")
	}
	slug := day.Format("2006-01-02")
	outDir := filepath.Join(draftDir, day.Format("200601"))
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("creating draft dir: %w", err)
	}
	outPath := filepath.Join(outDir, slug+"_draft.md")

	prev1, prev2 := prevScores(st, s.Date)
	var b strings.Builder

	fmt.Fprintf(&b, "# 每日情绪复盘 - %s（星期%s）\n\n---\n\n", slashDate(s.Date), weekdayCN[day.Weekday()])

	b.WriteString("## 一、大盘概览\n\n")
	b.WriteString("| 指标 | 数值 | 备注 |\n|------|------|------|\n")
	for _, name := range model.IndexNames {
		fmt.Fprintf(&b, "| %s | %s | 5日线上方 / 下方 |\n", name, indexCell(s, name))
	}
	fmt.Fprintf(&b, "| 两市成交额 | %.0f 亿 | %s |\n", s.TurnoverYi, volumeNote(s.Volume))
	fmt.Fprintf(&b, "| 上涨家数 | %s 家 | |\n", orBlank(s.RiseFall.Advancers))
	fmt.Fprintf(&b, "| 下跌家数 | %s 家 | |\n", orBlank(s.RiseFall.Decliners))
	fmt.Fprintf(&b, "| 涨跌比 | %.2f | >2 普涨 / 1-2 偏强 / 0.5-1 偏弱 / <0.5 普跌 |\n\n", s.RiseFall.Ratio)

	b.WriteString("---\n\n## 二、竞价复盘\n\n（请根据盘面补充：核心股竞价表现、竞价整体氛围）\n\n")

	b.WriteString("---\n\n## 三、情绪核心数据\n\n")
	b.WriteString("| 指标 | 原始值 | 评分(1-10) |\n|------|--------|-----------|\n")
	fmt.Fprintf(&b, "| 涨停家数 | %d 家 | %.1f |\n", s.LimitUps, s.Dimensions[emotion.DimLimitUps])
	fmt.Fprintf(&b, "| 封板率 | %.1f%% | %.1f |\n", s.SealRate, s.Dimensions[emotion.DimSealRate])
	fmt.Fprintf(&b, "| 昨涨停今日溢价率 | %+.2f%% | %.1f |\n", s.PremiumPct, s.Dimensions[emotion.DimPremium])
	fmt.Fprintf(&b, "| 最高连板 | %d 板 | %.1f |\n", s.MaxStreak, s.Dimensions[emotion.DimStreak])
	fmt.Fprintf(&b, "| 涨跌比 | %.2f | %.1f |\n", s.RiseFall.Ratio, s.Dimensions[emotion.DimRiseFall])
	fmt.Fprintf(&b, "| 跌停家数 | %d 家 | %.1f |\n\n", s.LimitDowns, s.Dimensions[emotion.DimLimitDown])
	fmt.Fprintf(&b, "**今日情绪得分：%.2f 分**\n\n", s.EmotionScore)

	b.WriteString("### 连板梯队分布\n\n| 板数 | 家数 | 代表个股 |\n|------|------|----------|\n")
	if len(s.Tiers) == 0 {
		b.WriteString("| ____ | ____ 家 | |\n")
	}
	for _, t := range s.Tiers {
		fmt.Fprintf(&b, "| %d板 | %d 家 | %s |\n", t.Boards, t.Count, t.Examples)
	}
	b.WriteString("\n")

	b.WriteString("---\n\n## 四、情绪周期定位\n\n### 得分走势\n\n")
	fmt.Fprintf(&b, "- **前日情绪得分**：%s\n", scoreCell(prev2))
	fmt.Fprintf(&b, "- **昨日情绪得分**：%s\n", scoreCell(prev1))
	fmt.Fprintf(&b, "- **今日情绪得分**：%.2f 分\n", s.EmotionScore)
	fmt.Fprintf(&b, "- **3日趋势**：%s\n\n", trend3(prev2, prev1, s.EmotionScore))
	fmt.Fprintf(&b, "### 当前所处周期阶段\n\n- 当前阶段：%s\n\n", s.EmotionStage)

	b.WriteString("---\n\n## 五、龙头梳理\n\n（请根据盘面补充：总龙头、补涨龙、前排助攻、龙头演进判断）\n\n")

	b.WriteString("---\n\n## 六、题材板块分析\n\n### 当日最强题材 TOP3\n\n")
	b.WriteString("| 排名 | 题材名称 | 涨停家数 | 代表个股 |\n|------|----------|----------|----------|\n")
	top := s.TopIndustries
	if len(top) > 3 {
		top = top[:3]
	}
	for i, ind := range top {
		fmt.Fprintf(&b, "| %d | %s | %d | %s |\n", i+1, ind.Industry, ind.Count, ind.Examples)
	}
	for i := len(top); i < 3; i++ {
		b.WriteString("| ____ | | | |\n")
	}

	if len(s.Anomalies) > 0 {
		b.WriteString("\n### 量能异动（未涨停）\n\n")
		b.WriteString("| 名称 | 涨跌幅 | 量比 | 换手率 |\n|------|--------|------|--------|\n")
		shown := s.Anomalies
		if anomalyLimit > 0 && len(shown) > anomalyLimit {
			shown = shown[:anomalyLimit]
		}
		for _, a := range shown {
			fmt.Fprintf(&b, "| %s | %+.2f%% | %.2f | %.2f%% |\n", a.Name, a.ChangePct, a.VolumeRatio, a.Turnover)
		}
		if len(s.Anomalies) > len(shown) {
			fmt.Fprintf(&b, "| ... 共 %d 只 | | | |\n", len(s.Anomalies))
		}
	}

	b.WriteString("\n---\n\n## 七、明日策略\n\n（请根据复盘结论补充：情景预案、竞价策略、仓位计划、关注方向、风险提示）\n\n")
	b.WriteString("---\n\n> **本稿由程序自动生成，请在此基础上补充主观判断与操作计划。**\n")

	if err := os.WriteFile(outPath, []byte(b.String()), 0644); err != nil {
		return "", fmt.Errorf("writing draft: %w", err)
	}
	return outPath, nil
}

// prevScores loads the emotion scores of the two stored days right
// before the given day, most recent first. Missing days yield NaN-free
// sentinel -1.
func prevScores(st *store.Store, before string) (prev1, prev2 float64) {
	prev1, prev2 = -1, -1
	if st == nil {
		return
	}
	days, err := st.Days()
	if err != nil {
		return
	}
	var prior []string
	for _, d := range days {
		if d < before {
			prior = append(prior, d)
		}
	}
	if n := len(prior); n >= 1 {
		if s, err := st.Load(prior[n-1]); err == nil {
			prev1 = s.EmotionScore
		}
		if n >= 2 {
			if s, err := st.Load(prior[n-2]); err == nil {
				prev2 = s.EmotionScore
			}
		}
	}
	return
}

// trend3 classifies the three-day score direction.
func trend3(s0, s1, s2 float64) string {
	if s0 < 0 || s1 < 0 {
		return "____（不足3日数据）"
	}
	switch {
	case s0 < s1 && s1 < s2:
		return "连续升温"
	case s0 > s1 && s1 > s2:
		return "连续降温"
	case s0 > s1 && s1 < s2:
		return "先降后升"
	case s0 < s1 && s1 > s2:
		return "先升后降"
	default:
		return "持平或震荡"
	}
}

func indexCell(s *model.Snapshot, name string) string {
	q, ok := s.Indices[name]
	if !ok || q.Close == 0 {
		return "____ 点（____%）"
	}
	return fmt.Sprintf("%.2f 点（%+.2f%%）", q.Close, q.ChangePct)
}

func volumeNote(v model.VolumeAnalysis) string {
	if v.PrevTurnoverYi == 0 {
		return "____"
	}
	label := "放量"
	if v.DayOverDayPct < 0 {
		label = "缩量"
	}
	return fmt.Sprintf("较昨日%s %+.1f%%", label, v.DayOverDayPct)
}

func scoreCell(v float64) string {
	if v < 0 {
		return "____"
	}
	return fmt.Sprintf("%.2f 分", v)
}

func orBlank(n int) string {
	if n == 0 {
		return "____"
	}
	return fmt.Sprintf("%d", n)
}
