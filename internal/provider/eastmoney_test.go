package provider

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fupan/pkg/model"
)

const ztPoolJSON = `{"data":{"pool":[
	{"c":603001,"n":"奥康国际","hybk":"服装家纺","lbc":4,"fbt":92500,"lbt":92500,"fund":120000000,"zdp":1001,"hs":123},
	{"c":2031,"n":"巨轮智能","hybk":"机器人","lbc":2,"fbt":103000,"lbt":103500,"fund":88000000,"zdp":1003,"hs":456}
]}}`

const zbPoolJSON = `{"data":{"pool":[{"c":600999,"n":"某炸板","zdp":551}]}}`
const dtPoolJSON = `{"data":{"pool":[{"c":300123,"n":"某跌停","zdp":-1999}]}}`
const prevPoolJSON = `{"data":{"pool":[{"c":1,"n":"甲","zdp":250},{"c":2,"n":"乙","zdp":-150}]}}`

const klineJSON = `{"data":{"klines":[
	"2026-02-24,3300.00,1500000000000",
	"2026-02-25,3320.90,1600000000000"
]}}`

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	writeJSON := func(body string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(body))
		}
	}
	mux.HandleFunc("/getTopicZTPool", writeJSON(ztPoolJSON))
	mux.HandleFunc("/getTopicZBPool", writeJSON(zbPoolJSON))
	mux.HandleFunc("/getTopicDTPool", writeJSON(dtPoolJSON))
	mux.HandleFunc("/getYesterdayZTPool", writeJSON(prevPoolJSON))
	mux.HandleFunc("/api/qt/stock/kline/get", writeJSON(klineJSON))
	return httptest.NewServer(mux)
}

func testProvider(srv *httptest.Server) *EastMoney {
	p := NewEastMoney(6000, 5*time.Second, nil)
	p.poolURL = srv.URL
	p.quoteURL = srv.URL
	p.histURL = srv.URL
	p.listURL = srv.URL
	// Pin "today" after the fetched day so the historical path runs
	p.now = func() time.Time { return time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC) }
	return p
}

func TestFetchDayHistorical(t *testing.T) {
	srv := testServer(t)
	defer srv.Close()
	p := testProvider(srv)

	snap, err := p.FetchDay(context.Background(), time.Date(2026, 2, 25, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("FetchDay failed: %v", err)
	}

	if snap.Date != "20260225" {
		t.Errorf("date: got %s", snap.Date)
	}
	if snap.LimitUps != 2 || snap.Exploded != 1 || snap.LimitDowns != 1 {
		t.Errorf("counts: got ups=%d zb=%d downs=%d", snap.LimitUps, snap.Exploded, snap.LimitDowns)
	}
	if math.Abs(snap.SealRate-66.7) > 1e-9 {
		t.Errorf("seal rate: got %v, want 66.7", snap.SealRate)
	}
	if math.Abs(snap.PremiumPct-0.5) > 1e-9 {
		t.Errorf("premium: got %v, want 0.5", snap.PremiumPct)
	}
	if snap.MaxStreak != 4 {
		t.Errorf("max streak: got %d, want 4", snap.MaxStreak)
	}

	if len(snap.Pool) != 2 {
		t.Fatalf("pool size: got %d", len(snap.Pool))
	}
	first := snap.Pool[0]
	if first.Code != "603001" || first.Industry != "服装家纺" || first.Boards != 4 {
		t.Errorf("pool[0]: got %+v", first)
	}
	if first.BoardType != "一字板" {
		t.Errorf("pool[0] board type: got %s", first.BoardType)
	}
	if snap.Pool[1].BoardType != "换手板" {
		t.Errorf("pool[1] board type: got %s", snap.Pool[1].BoardType)
	}

	sh := snap.Indices[model.IndexSH]
	if math.Abs(sh.Close-3320.9) > 1e-9 {
		t.Errorf("SH close: got %v", sh.Close)
	}
	if math.Abs(sh.ChangePct-0.63) > 1e-9 {
		t.Errorf("SH change: got %v, want 0.63", sh.ChangePct)
	}
	// SH + SZ turnover, both 16000亿 in the canned klines
	if snap.TurnoverYi != 32000 {
		t.Errorf("turnover: got %v, want 32000", snap.TurnoverYi)
	}

	// historical rise/fall approximation: 2 limit-ups / 1 limit-down
	if snap.RiseFall.Ratio != 2 {
		t.Errorf("rise/fall ratio: got %v, want 2", snap.RiseFall.Ratio)
	}
	if snap.EmotionScore <= 0 || snap.EmotionStage == "" {
		t.Errorf("emotion not computed: score=%v stage=%q", snap.EmotionScore, snap.EmotionStage)
	}
	if len(snap.Tiers) != 2 || snap.Tiers[0].Boards != 4 {
		t.Errorf("tiers: got %+v", snap.Tiers)
	}
	if len(snap.TopIndustries) != 2 || snap.TopIndustries[0].Count != 1 {
		t.Errorf("industries: got %+v", snap.TopIndustries)
	}
}

func TestFetchDayNoData(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":null}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	p := testProvider(srv)

	_, err := p.FetchDay(context.Background(), time.Date(2026, 2, 21, 0, 0, 0, 0, time.UTC))
	if !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}
