package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"

	"fupan/pkg/model"
)

// PrintDaily renders the single-day review to the console.
func PrintDaily(w io.Writer, s *model.Snapshot) {
	line := strings.Repeat("=", 60)
	fmt.Fprintf(w, "\n%s\n  A股每日复盘数据 —— %s\n%s\n\n", line, slashDate(s.Date), line)

	fmt.Fprintln(w, "【一、大盘概览】")
	for _, name := range model.IndexNames {
		if q, ok := s.Indices[name]; ok && q.Close > 0 {
			fmt.Fprintf(w, "  %s: %.2f 点（%+.2f%%）\n", name, q.Close, q.ChangePct)
		}
	}
	fmt.Fprintf(w, "  两市成交额: %.0f 亿\n", s.TurnoverYi)
	if s.Volume.DayOverDayPct != 0 {
		label := "放量"
		if s.Volume.DayOverDayPct < 0 {
			label = "缩量"
		}
		fmt.Fprintf(w, "  量能: 较昨日%s %+.1f%%", label, s.Volume.DayOverDayPct)
		if s.Volume.Avg5Yi > 0 {
			fmt.Fprintf(w, " | vs 5日均量 %+.1f%%", s.Volume.VsAvg5Pct)
		}
		fmt.Fprintln(w)
	}
	if s.RiseFall.Total > 0 {
		fmt.Fprintf(w, "  上涨 %d 家 / 下跌 %d 家 / 平盘 %d 家\n",
			s.RiseFall.Advancers, s.RiseFall.Decliners, s.RiseFall.Flat)
		fmt.Fprintf(w, "  涨跌比: %.2f\n", s.RiseFall.Ratio)
	}

	fmt.Fprintln(w, "\n【二、情绪核心数据】")
	fmt.Fprintf(w, "  涨停: %d 家 | 炸板: %d 家 | 封板率: %.1f%%\n", s.LimitUps, s.Exploded, s.SealRate)
	fmt.Fprintf(w, "  跌停: %d 家\n", s.LimitDowns)
	fmt.Fprintf(w, "  昨涨停溢价率: %+.2f%%\n", s.PremiumPct)
	fmt.Fprintf(w, "  最高连板: %d 板\n", s.MaxStreak)
	fmt.Fprintf(w, "  ★ 情绪综合得分: %.2f 分\n", s.EmotionScore)
	fmt.Fprintf(w, "  ★ 当前阶段: %s\n", s.EmotionStage)

	if len(s.Tiers) > 0 {
		fmt.Fprintln(w, "\n【三、连板梯队】")
		table := tablewriter.NewTable(w,
			tablewriter.WithHeader([]string{"板数", "家数", "代表个股"}),
		)
		for _, t := range s.Tiers {
			table.Append([]string{
				fmt.Sprintf("%d板", t.Boards),
				fmt.Sprintf("%d", t.Count),
				t.Examples,
			})
		}
		table.Render()
	}

	if streaks := streakDetails(s.Pool); len(streaks) > 0 {
		fmt.Fprintln(w, "\n【四、连板股盘口明细】")
		for _, st := range streaks {
			fmt.Fprintf(w, "  %s(%d板) [%s] 首封%s 末封%s 封单%.1f亿",
				st.Name, st.Boards, st.BoardType, st.FirstSeal, st.LastSeal, st.SealFund/1e8)
			if st.Turnover > 0 {
				fmt.Fprintf(w, " 换手%.2f%%", st.Turnover)
			}
			fmt.Fprintln(w)
		}
	}

	if len(s.TopIndustries) > 0 {
		fmt.Fprintln(w, "\n【五、涨停行业 TOP5】")
		table := tablewriter.NewTable(w,
			tablewriter.WithHeader([]string{"排名", "行业", "涨停家数", "代表个股"}),
		)
		for i, ind := range s.TopIndustries {
			table.Append([]string{
				fmt.Sprintf("%d", i+1),
				ind.Industry,
				fmt.Sprintf("%d", ind.Count),
				ind.Examples,
			})
		}
		table.Render()
	}

	if len(s.Anomalies) > 0 {
		fmt.Fprintln(w, "\n【六、量能异动（未涨停）】")
		shown := s.Anomalies
		if len(shown) > 15 {
			shown = shown[:15]
		}
		for _, a := range shown {
			fmt.Fprintf(w, "  %s 涨跌幅%+.2f%% 量比%.2f 换手%.2f%%\n",
				a.Name, a.ChangePct, a.VolumeRatio, a.Turnover)
		}
		if len(s.Anomalies) > 15 {
			fmt.Fprintf(w, "  ... 共 %d 只\n", len(s.Anomalies))
		}
	}

	fmt.Fprintf(w, "\n%s\n\n", line)
}

// streakDetails filters the pool down to multi-board stocks, highest
// board count first.
func streakDetails(pool []model.LimitUpStock) []model.LimitUpStock {
	var out []model.LimitUpStock
	for _, s := range pool {
		if s.Boards >= 2 {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Boards > out[j].Boards })
	return out
}
