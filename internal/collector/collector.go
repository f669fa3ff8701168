// Package collector runs incremental batch collection of day
// snapshots. Days are fetched strictly one at a time, in ascending
// order, so the rate-limited upstream is never hit concurrently.
package collector

import (
	"context"
	"sort"
	"time"

	"fupan/internal/provider"
	"fupan/internal/store"
	"fupan/pkg/model"
)

// Outcome is the per-day result of a collection pass.
type Outcome int

const (
	// Skipped means a snapshot already existed and force was off.
	Skipped Outcome = iota
	// Fetched means the day was fetched and persisted.
	Fetched
	// Failed means the fetch errored; the batch continued without it.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Skipped:
		return "skipped"
	case Fetched:
		return "fetched"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the outcome for one day of the batch.
type Result struct {
	Day     string
	Outcome Outcome
	Err     error
}

// Results is the aggregate outcome set of a collection pass.
type Results []Result

func (rs Results) count(o Outcome) int {
	n := 0
	for _, r := range rs {
		if r.Outcome == o {
			n++
		}
	}
	return n
}

func (rs Results) Skipped() int { return rs.count(Skipped) }
func (rs Results) Fetched() int { return rs.count(Fetched) }
func (rs Results) Failed() int  { return rs.count(Failed) }

// ProgressFunc is called after each day with the running position.
type ProgressFunc func(done, total int, r Result)

// Collector decides which days need (re)fetching and invokes the
// provider for them, persisting snapshots through the store.
type Collector struct {
	store        *store.Store
	provider     provider.Provider
	progressFunc ProgressFunc
}

// New creates a collector over the given store and provider.
func New(st *store.Store, p provider.Provider) *Collector {
	return &Collector{store: st, provider: p}
}

// SetProgressFunc sets the progress callback function.
func (c *Collector) SetProgressFunc(fn ProgressFunc) {
	c.progressFunc = fn
}

// Collect processes the days in ascending order. An existing snapshot
// is skipped unless force is set; a failed fetch is recorded and the
// batch continues. The full outcome set is always returned.
func (c *Collector) Collect(ctx context.Context, days []time.Time, force bool) Results {
	ordered := make([]time.Time, len(days))
	copy(ordered, days)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Before(ordered[j]) })

	results := make(Results, 0, len(ordered))
	for i, day := range ordered {
		r := c.collectOne(ctx, day, force)
		results = append(results, r)
		if c.progressFunc != nil {
			c.progressFunc(i+1, len(ordered), r)
		}
		if ctx.Err() != nil {
			break
		}
	}
	return results
}

func (c *Collector) collectOne(ctx context.Context, day time.Time, force bool) Result {
	key := model.FormatDay(day)
	if !force && c.store.Exists(key) {
		return Result{Day: key, Outcome: Skipped}
	}
	snap, err := c.provider.FetchDay(ctx, day)
	if err != nil {
		return Result{Day: key, Outcome: Failed, Err: err}
	}
	if err := c.store.Save(snap); err != nil {
		return Result{Day: key, Outcome: Failed, Err: err}
	}
	return Result{Day: key, Outcome: Fetched}
}
