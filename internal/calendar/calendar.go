// Package calendar resolves A-share trading sessions. An authoritative
// exchange calendar is consulted first; outside its coverage the resolver
// degrades to a plain weekday filter and reports a warning instead of
// failing, so holiday filtering is best-effort rather than guaranteed.
package calendar

import (
	"errors"
	"fmt"
	"time"
)

// ErrOutOfRange is returned by a Source when the requested range leaves
// its known coverage window.
var ErrOutOfRange = errors.New("requested range outside calendar coverage")

// Source yields the trading sessions inside [start, end].
type Source interface {
	Name() string
	Sessions(start, end time.Time) ([]time.Time, error)
}

// Weekday treats every Monday-Friday as a trading session. It is the
// fallback when no authoritative calendar covers the request: weekends
// are still excluded but exchange holidays slip through.
type Weekday struct{}

func (Weekday) Name() string { return "weekday" }

func (Weekday) Sessions(start, end time.Time) ([]time.Time, error) {
	var days []time.Time
	for d := midnight(start); !d.After(midnight(end)); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		days = append(days, d)
	}
	return days, nil
}

// XSHG is the Shanghai Stock Exchange calendar backed by an embedded
// holiday table. Coverage is limited to the years in the table.
type XSHG struct {
	holidays map[string]bool
	minYear  int
	maxYear  int
}

// NewXSHG builds the embedded Shanghai exchange calendar.
func NewXSHG() *XSHG {
	h := make(map[string]bool, len(xshgHolidays))
	minYear, maxYear := 0, 0
	for _, d := range xshgHolidays {
		h[d] = true
		y := yearOf(d)
		if minYear == 0 || y < minYear {
			minYear = y
		}
		if y > maxYear {
			maxYear = y
		}
	}
	return &XSHG{holidays: h, minYear: minYear, maxYear: maxYear}
}

func (c *XSHG) Name() string { return "XSHG" }

func (c *XSHG) Sessions(start, end time.Time) ([]time.Time, error) {
	if start.Year() < c.minYear || end.Year() > c.maxYear {
		return nil, fmt.Errorf("%w: %d-%d known, %d-%d requested",
			ErrOutOfRange, c.minYear, c.maxYear, start.Year(), end.Year())
	}
	var days []time.Time
	for d := midnight(start); !d.After(midnight(end)); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		if c.holidays[d.Format("20060102")] {
			continue
		}
		days = append(days, d)
	}
	return days, nil
}

// Resolver picks between the authoritative source and the weekday
// fallback. It never fails hard: degraded resolution is reported
// through the returned warnings.
type Resolver struct {
	primary  Source
	fallback Source
}

// NewResolver creates a resolver. primary may be nil when no
// authoritative calendar is available.
func NewResolver(primary Source) *Resolver {
	return &Resolver{primary: primary, fallback: Weekday{}}
}

// Range returns the trading sessions in [start, end], strictly
// ascending, plus warnings for any degraded resolution.
func (r *Resolver) Range(start, end time.Time) ([]time.Time, []string) {
	var warnings []string
	if start.After(end) {
		start, end = end, start
	}
	if r.primary == nil {
		warnings = append(warnings, "交易日历不可用，仅按工作日过滤（节假日可能误判）")
		days, _ := r.fallback.Sessions(start, end)
		return days, warnings
	}
	days, err := r.primary.Sessions(start, end)
	if err != nil {
		if errors.Is(err, ErrOutOfRange) {
			warnings = append(warnings, fmt.Sprintf("日期超出 %s 日历范围，回退为工作日过滤", r.primary.Name()))
		} else {
			warnings = append(warnings, fmt.Sprintf("%s 日历查询失败（%v），回退为工作日过滤", r.primary.Name(), err))
		}
		days, _ = r.fallback.Sessions(start, end)
	}
	return days, warnings
}

// Recent returns the n most recent trading sessions relative to now.
// Fewer than n sessions in the lookback window is coverage-limited,
// not an error: whatever is available is returned with a warning.
func (r *Resolver) Recent(now time.Time, n int) ([]time.Time, []string) {
	if n <= 0 {
		return nil, nil
	}
	lookback := n * 3
	if lookback < 60 {
		lookback = 60
	}
	start := midnight(now).AddDate(0, 0, -lookback)
	days, warnings := r.Range(start, now)
	if len(days) < n {
		warnings = append(warnings, fmt.Sprintf("仅找到最近 %d 个交易日（请求 %d 个）", len(days), n))
		return days, warnings
	}
	return days[len(days)-n:], warnings
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func yearOf(key string) int {
	t, err := time.Parse("20060102", key)
	if err != nil {
		return 0
	}
	return t.Year()
}
