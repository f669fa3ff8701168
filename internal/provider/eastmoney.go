package provider

import (
	"context"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"fupan/internal/emotion"
	"fupan/internal/ratelimit"
	"fupan/internal/store"
	"fupan/pkg/model"
)

// Eastmoney endpoints. The pool endpoints (涨停/炸板/跌停/昨日涨停)
// accept an 8-digit date and serve a limited history window.
const (
	defaultPoolURL  = "https://push2ex.eastmoney.com"
	defaultQuoteURL = "https://push2.eastmoney.com"
	defaultHistURL  = "https://push2his.eastmoney.com"
	defaultListURL  = "https://82.push2.eastmoney.com"

	poolUT = "7eea3edcaed734bea9cbfc24409ed989"

	// Browser-like headers, same anti-throttling posture as the web UI
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	referer   = "https://quote.eastmoney.com/"
)

// Percent and price fields arrive scaled by 100 (e.g. -0.25% as -25).
const pctDivisor = 100

// index secids in display order
var indexSecIDs = []struct {
	secID string
	name  string
}{
	{"1.000001", model.IndexSH},
	{"0.399001", model.IndexSZ},
	{"0.399006", model.IndexCYB},
}

const listPageSize = 500

// EastMoney fetches the per-day sentiment snapshot from eastmoney.
// Requests are paced sequentially through a shared limiter; the
// snapshot store is consulted read-only for the volume comparison.
type EastMoney struct {
	client  *http.Client
	limiter *ratelimit.Limiter
	store   *store.Store
	now     func() time.Time

	poolURL  string
	quoteURL string
	histURL  string
	listURL  string
}

// NewEastMoney creates the eastmoney provider. st may be nil; the
// volume analysis is then skipped.
func NewEastMoney(perMinute int, timeout time.Duration, st *store.Store) *EastMoney {
	return &EastMoney{
		client:   &http.Client{Timeout: timeout},
		limiter:  ratelimit.NewLimiter("eastmoney", perMinute),
		store:    st,
		now:      time.Now,
		poolURL:  defaultPoolURL,
		quoteURL: defaultQuoteURL,
		histURL:  defaultHistURL,
		listURL:  defaultListURL,
	}
}

// Name returns the provider name
func (p *EastMoney) Name() string { return "eastmoney" }

// FetchDay builds the full snapshot for one trading day. Individual
// pool failures degrade to empty pools with a logged warning; only a
// day with neither limit-ups nor limit-downs is treated as having no
// data at all.
func (p *EastMoney) FetchDay(ctx context.Context, day time.Time) (*model.Snapshot, error) {
	key := model.FormatDay(day)
	isToday := key == model.FormatDay(p.now())

	pool, err := p.fetchPool(ctx, "/getTopicZTPool", key)
	if err != nil {
		log.Printf("[EASTMONEY] %s 涨停池获取失败: %v", key, err)
	}
	exploded, err := p.poolSize(ctx, "/getTopicZBPool", key)
	if err != nil {
		log.Printf("[EASTMONEY] %s 炸板池获取失败: %v", key, err)
	}
	limitDowns, err := p.poolSize(ctx, "/getTopicDTPool", key)
	if err != nil {
		log.Printf("[EASTMONEY] %s 跌停池获取失败: %v", key, err)
	}
	premium, err := p.fetchPremium(ctx, key)
	if err != nil {
		log.Printf("[EASTMONEY] %s 昨日涨停池获取失败: %v", key, err)
	}

	limitUps := len(pool)
	if limitUps == 0 && limitDowns == 0 {
		return nil, fmt.Errorf("%s: %w", key, ErrNoData)
	}

	snap := &model.Snapshot{
		Date:       key,
		Indices:    map[string]model.IndexQuote{},
		LimitUps:   limitUps,
		Exploded:   exploded,
		LimitDowns: limitDowns,
		PremiumPct: premium,
		Pool:       pool,
	}
	snap.SealRate = round1(float64(limitUps) / float64(max(limitUps+exploded, 1)) * 100)
	for _, s := range pool {
		if s.Boards > snap.MaxStreak {
			snap.MaxStreak = s.Boards
		}
	}
	snap.Tiers = streakTiers(pool)
	snap.TopIndustries = topIndustries(pool, 5)

	if err := p.fetchIndices(ctx, snap, day, isToday); err != nil {
		log.Printf("[EASTMONEY] %s 指数数据获取失败: %v", key, err)
	}
	for _, name := range []string{model.IndexSH, model.IndexSZ} {
		snap.TurnoverYi += snap.Indices[name].TurnoverYi
	}

	if isToday {
		ztCodes := make(map[string]bool, len(pool))
		for _, s := range pool {
			ztCodes[s.Code] = true
		}
		rf, anomalies, err := p.fetchMarketBreadth(ctx, ztCodes)
		if err != nil {
			log.Printf("[EASTMONEY] 涨跌统计获取失败: %v", err)
			snap.RiseFall = approxRiseFall(limitUps, limitDowns)
		} else {
			snap.RiseFall = rf
			snap.Anomalies = anomalies
		}
	} else {
		// Market-wide advance/decline counts are realtime-only; for
		// history approximate the ratio from the pool sizes.
		snap.RiseFall = approxRiseFall(limitUps, limitDowns)
	}

	score, dims := emotion.Score(emotion.Inputs{
		LimitUps:      limitUps,
		SealRate:      snap.SealRate,
		PremiumPct:    premium,
		MaxStreak:     snap.MaxStreak,
		RiseFallRatio: snap.RiseFall.Ratio,
		LimitDowns:    limitDowns,
	})
	snap.Dimensions = dims
	snap.EmotionScore = score
	snap.EmotionStage = emotion.StageFull(score)

	if p.store != nil && snap.TurnoverYi > 0 {
		snap.Volume = volumeAnalysis(p.store, key, snap.TurnoverYi)
	}
	return snap, nil
}

// fetchPool returns the limit-up pool with board-type classification.
func (p *EastMoney) fetchPool(ctx context.Context, path, key string) ([]model.LimitUpStock, error) {
	body, err := p.getPool(ctx, path, key)
	if err != nil {
		return nil, err
	}
	var pool []model.LimitUpStock
	gjson.GetBytes(body, "data.pool").ForEach(func(_, row gjson.Result) bool {
		first := sealTime(row.Get("fbt"))
		last := sealTime(row.Get("lbt"))
		pool = append(pool, model.LimitUpStock{
			Code:      fmt.Sprintf("%06d", row.Get("c").Int()),
			Name:      row.Get("n").String(),
			Industry:  row.Get("hybk").String(),
			Boards:    int(row.Get("lbc").Int()),
			FirstSeal: first,
			LastSeal:  last,
			SealFund:  row.Get("fund").Float(),
			BoardType: classifyBoardType(first, last),
			ChangePct: row.Get("zdp").Float() / pctDivisor,
			Turnover:  row.Get("hs").Float() / pctDivisor,
		})
		return true
	})
	return pool, nil
}

func (p *EastMoney) poolSize(ctx context.Context, path, key string) (int, error) {
	body, err := p.getPool(ctx, path, key)
	if err != nil {
		return 0, err
	}
	return len(gjson.GetBytes(body, "data.pool").Array()), nil
}

// fetchPremium averages today's change of yesterday's limit-up pool.
func (p *EastMoney) fetchPremium(ctx context.Context, key string) (float64, error) {
	body, err := p.getPool(ctx, "/getYesterdayZTPool", key)
	if err != nil {
		return 0, err
	}
	rows := gjson.GetBytes(body, "data.pool").Array()
	if len(rows) == 0 {
		return 0, nil
	}
	sum := 0.0
	for _, row := range rows {
		sum += row.Get("zdp").Float() / pctDivisor
	}
	return round2(sum / float64(len(rows))), nil
}

func (p *EastMoney) getPool(ctx context.Context, path, key string) ([]byte, error) {
	q := url.Values{}
	q.Set("ut", poolUT)
	q.Set("dpt", "wz.ztzt")
	q.Set("Pageindex", "0")
	q.Set("pagesize", "10000")
	q.Set("sort", "fbt:asc")
	q.Set("date", key)
	return p.get(ctx, p.poolURL+path+"?"+q.Encode())
}

// fetchIndices fills the three tracked index quotes, realtime for the
// current session and from daily klines otherwise.
func (p *EastMoney) fetchIndices(ctx context.Context, snap *model.Snapshot, day time.Time, realtime bool) error {
	if realtime {
		return p.fetchIndexSpot(ctx, snap)
	}
	key := model.FormatDay(day)
	for _, idx := range indexSecIDs {
		quote, err := p.fetchIndexDaily(ctx, idx.secID, key)
		if err != nil {
			log.Printf("[EASTMONEY] %s %s 历史数据获取失败: %v", key, idx.name, err)
			continue
		}
		snap.Indices[idx.name] = quote
	}
	return nil
}

func (p *EastMoney) fetchIndexSpot(ctx context.Context, snap *model.Snapshot) error {
	q := url.Values{}
	secids := ""
	for i, idx := range indexSecIDs {
		if i > 0 {
			secids += ","
		}
		secids += idx.secID
	}
	q.Set("secids", secids)
	q.Set("fields", "f2,f3,f6,f12,f14")
	q.Set("fltt", "2")
	body, err := p.get(ctx, p.quoteURL+"/api/qt/ulist.np/get?"+q.Encode())
	if err != nil {
		return err
	}
	rows := gjson.GetBytes(body, "data.diff").Array()
	for i, row := range rows {
		if i >= len(indexSecIDs) {
			break
		}
		snap.Indices[indexSecIDs[i].name] = model.IndexQuote{
			Close:      round2(row.Get("f2").Float()),
			ChangePct:  round2(row.Get("f3").Float()),
			TurnoverYi: round0(row.Get("f6").Float() / 1e8),
		}
	}
	return nil
}

func (p *EastMoney) fetchIndexDaily(ctx context.Context, secID, key string) (model.IndexQuote, error) {
	q := url.Values{}
	q.Set("secid", secID)
	q.Set("klt", "101") // daily bars
	q.Set("fqt", "1")
	q.Set("fields1", "f1,f2,f3")
	q.Set("fields2", "f51,f53,f57") // date, close, amount
	q.Set("beg", "0")
	q.Set("end", "20500101")
	body, err := p.get(ctx, p.histURL+"/api/qt/stock/kline/get?"+q.Encode())
	if err != nil {
		return model.IndexQuote{}, err
	}

	want, _ := model.ParseDay(key)
	wantDate := want.Format("2006-01-02")
	var prevClose float64
	klines := gjson.GetBytes(body, "data.klines").Array()
	for _, k := range klines {
		parts := strings.Split(k.String(), ",")
		if len(parts) < 3 {
			continue
		}
		if parts[0] == wantDate {
			closePx := toFloat(parts[1])
			pct := 0.0
			if prevClose > 0 {
				pct = round2((closePx/prevClose - 1) * 100)
			}
			return model.IndexQuote{
				Close:      round2(closePx),
				ChangePct:  pct,
				TurnoverYi: round0(toFloat(parts[2]) / 1e8),
			}, nil
		}
		prevClose = toFloat(parts[1])
	}
	return model.IndexQuote{}, fmt.Errorf("no kline for %s", key)
}

// Off-limit stocks with a volume ratio at or above this count as
// volume anomalies.
const (
	anomalyMinVolumeRatio = 2.0
	anomalyTopN           = 50
)

// fetchMarketBreadth pages the full A-share list, counting advancers
// and decliners and picking out off-limit volume anomalies in the same
// pass. Realtime only: the list endpoint has no historical mode.
func (p *EastMoney) fetchMarketBreadth(ctx context.Context, ztCodes map[string]bool) (model.RiseFall, []model.VolumeAnomaly, error) {
	var rf model.RiseFall
	var anomalies []model.VolumeAnomaly
	scanned := 0
	for page := 1; ; page++ {
		q := url.Values{}
		q.Set("pn", fmt.Sprint(page))
		q.Set("pz", fmt.Sprint(listPageSize))
		q.Set("po", "1")
		q.Set("np", "1")
		q.Set("fltt", "2")
		q.Set("invt", "2")
		q.Set("fid", "f12")
		q.Set("fs", "m:0 t:6,m:0 t:80,m:1 t:2,m:1 t:23") // SH+SZ main/ChiNext
		q.Set("fields", "f3,f6,f8,f10,f12,f14")
		body, err := p.get(ctx, p.listURL+"/api/qt/clist/get?"+q.Encode())
		if err != nil {
			return rf, nil, err
		}
		total := int(gjson.GetBytes(body, "data.total").Int())
		rows := gjson.GetBytes(body, "data.diff").Array()
		if len(rows) == 0 {
			break
		}
		scanned += len(rows)
		for _, row := range rows {
			name := row.Get("f14").String()
			if strings.Contains(name, "ST") {
				continue
			}
			pct := row.Get("f3").Float()
			switch {
			case pct > 0:
				rf.Advancers++
			case pct < 0:
				rf.Decliners++
			default:
				rf.Flat++
			}
			rf.Total++

			code := row.Get("f12").String()
			ratio := row.Get("f10").Float()
			if ratio >= anomalyMinVolumeRatio && pct < 9.5 && !ztCodes[code] {
				anomalies = append(anomalies, model.VolumeAnomaly{
					Code:        code,
					Name:        name,
					ChangePct:   round2(pct),
					VolumeRatio: round2(ratio),
					Turnover:    round2(row.Get("f8").Float()),
					AmountYi:    round2(row.Get("f6").Float() / 1e8),
				})
			}
		}
		if scanned >= total || len(rows) < listPageSize {
			break
		}
	}
	rf.Ratio = round2(float64(rf.Advancers) / float64(max(rf.Decliners, 1)))
	sort.SliceStable(anomalies, func(i, j int) bool {
		return anomalies[i].VolumeRatio > anomalies[j].VolumeRatio
	})
	if len(anomalies) > anomalyTopN {
		anomalies = anomalies[:anomalyTopN]
	}
	return rf, anomalies, nil
}

func (p *EastMoney) get(ctx context.Context, rawURL string) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", referer)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Err: err, Retryable: true}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		p.limiter.SignalRateLimited()
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("rate limited"), Retryable: true}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("status %d", resp.StatusCode), Retryable: false}
	}
	p.limiter.ResetBackoff()
	return io.ReadAll(resp.Body)
}

// streakTiers groups the pool by consecutive-board count, highest first.
func streakTiers(pool []model.LimitUpStock) []model.StreakTier {
	byBoards := map[int][]string{}
	for _, s := range pool {
		byBoards[s.Boards] = append(byBoards[s.Boards], s.Name)
	}
	tiers := make([]model.StreakTier, 0, len(byBoards))
	for boards, names := range byBoards {
		tiers = append(tiers, model.StreakTier{
			Boards:   boards,
			Count:    len(names),
			Examples: joinHead(names, 3),
		})
	}
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].Boards > tiers[j].Boards })
	return tiers
}

// topIndustries ranks industries by limit-up count. Ties keep the
// first-encountered industry ahead, matching the pool's list order.
func topIndustries(pool []model.LimitUpStock, n int) []model.IndustryCount {
	counts := map[string]int{}
	names := map[string][]string{}
	var order []string
	for _, s := range pool {
		if s.Industry == "" {
			continue
		}
		if counts[s.Industry] == 0 {
			order = append(order, s.Industry)
		}
		counts[s.Industry]++
		names[s.Industry] = append(names[s.Industry], s.Name)
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > n {
		order = order[:n]
	}
	out := make([]model.IndustryCount, 0, len(order))
	for _, ind := range order {
		out = append(out, model.IndustryCount{
			Industry: ind,
			Count:    counts[ind],
			Examples: joinHead(names[ind], 2),
		})
	}
	return out
}

// volumeAnalysis compares the day's turnover against the stored history.
func volumeAnalysis(st *store.Store, key string, turnoverYi float64) model.VolumeAnalysis {
	var va model.VolumeAnalysis
	recent, err := st.RecentTurnovers(key, 5)
	if err != nil || len(recent) == 0 {
		return va
	}
	va.PrevTurnoverYi = recent[0].Yi
	va.DayOverDayPct = round1((turnoverYi/recent[0].Yi - 1) * 100)
	if len(recent) >= 5 {
		sum := 0.0
		for _, r := range recent {
			sum += r.Yi
		}
		avg := sum / float64(len(recent))
		va.Avg5Yi = round0(avg)
		va.VsAvg5Pct = round1((turnoverYi/avg - 1) * 100)
	}
	return va
}

func approxRiseFall(limitUps, limitDowns int) model.RiseFall {
	ratio := 5.0
	if limitDowns > 0 {
		ratio = round2(float64(limitUps) / float64(limitDowns))
	}
	return model.RiseFall{Ratio: ratio}
}

// sealTime renders a numeric HHMMSS field as a zero-padded string.
func sealTime(v gjson.Result) string {
	if !v.Exists() {
		return ""
	}
	return fmt.Sprintf("%06d", v.Int())
}

func toFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

func joinHead(names []string, n int) string {
	if len(names) > n {
		names = names[:n]
	}
	return strings.Join(names, "、")
}

func round0(v float64) float64 { return math.Round(v) }
func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
