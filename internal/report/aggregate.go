package report

import (
	"math"
	"sort"

	"fupan/pkg/model"
)

// Trajectory is the dated consecutive-board history of one stock that
// kept appearing in the limit-up pool. Derived per report, not stored.
type Trajectory struct {
	Name   string
	Points []TrajectoryPoint
}

// TrajectoryPoint is one (day, boards) observation.
type TrajectoryPoint struct {
	Day    string
	Boards int
}

// MaxBoards returns the highest board count along the trajectory.
func (t Trajectory) MaxBoards() int {
	best := 0
	for _, p := range t.Points {
		if p.Boards > best {
			best = p.Boards
		}
	}
	return best
}

// leaderTrajectories scans every day's limit-up pool and keeps the
// stocks seen on two or more distinct days. Output order: first
// appearance day, then name.
func leaderTrajectories(snaps []*model.Snapshot) []Trajectory {
	byName := map[string][]TrajectoryPoint{}
	firstSeen := map[string]string{}
	for _, s := range snaps {
		for _, stock := range s.Pool {
			if stock.Name == "" {
				continue
			}
			pts := byName[stock.Name]
			if len(pts) > 0 && pts[len(pts)-1].Day == s.Date {
				continue // duplicate pool row for the same day
			}
			if len(pts) == 0 {
				firstSeen[stock.Name] = s.Date
			}
			byName[stock.Name] = append(pts, TrajectoryPoint{Day: s.Date, Boards: stock.Boards})
		}
	}

	var out []Trajectory
	for name, pts := range byName {
		if len(pts) < 2 {
			continue
		}
		out = append(out, Trajectory{Name: name, Points: pts})
	}
	sort.Slice(out, func(i, j int) bool {
		fi, fj := firstSeen[out[i].Name], firstSeen[out[j].Name]
		if fi != fj {
			return fi < fj
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// RotationSegment is a run of consecutive days led by one industry.
type RotationSegment struct {
	Industry string
	Days     []string
	Counts   []int
}

// sectorRotation finds each day's leading industry by limit-up count
// (ties keep the industry seen first in pool order) and collapses
// consecutive repeats into segments.
func sectorRotation(snaps []*model.Snapshot) []RotationSegment {
	var segments []RotationSegment
	for _, s := range snaps {
		industry, count := topIndustry(s)
		if industry == "" {
			continue
		}
		if n := len(segments); n > 0 && segments[n-1].Industry == industry {
			segments[n-1].Days = append(segments[n-1].Days, s.Date)
			segments[n-1].Counts = append(segments[n-1].Counts, count)
			continue
		}
		segments = append(segments, RotationSegment{
			Industry: industry,
			Days:     []string{s.Date},
			Counts:   []int{count},
		})
	}
	return segments
}

func topIndustry(s *model.Snapshot) (string, int) {
	if len(s.Pool) > 0 {
		counts := map[string]int{}
		var order []string
		for _, stock := range s.Pool {
			if stock.Industry == "" {
				continue
			}
			if counts[stock.Industry] == 0 {
				order = append(order, stock.Industry)
			}
			counts[stock.Industry]++
		}
		best, bestCount := "", 0
		// strict > keeps the first-seen industry on tied counts
		for _, ind := range order {
			if counts[ind] > bestCount {
				best, bestCount = ind, counts[ind]
			}
		}
		if best != "" {
			return best, bestCount
		}
	}
	if len(s.TopIndustries) > 0 {
		return s.TopIndustries[0].Industry, s.TopIndustries[0].Count
	}
	return "", 0
}

// periodStats aggregates the whole-period numbers.
type periodStats struct {
	Days        int
	AvgLimitUps float64
	AvgScore    float64
	MaxScore    float64
	MaxDay      string
	MinScore    float64
	MinDay      string
	FirstClose  float64
	LastClose   float64
	ReturnPct   float64
}

func computeStats(snaps []*model.Snapshot) periodStats {
	st := periodStats{Days: len(snaps)}
	if len(snaps) == 0 {
		return st
	}
	sumUps, sumScore := 0.0, 0.0
	st.MaxScore = math.Inf(-1)
	st.MinScore = math.Inf(1)
	for _, s := range snaps {
		sumUps += float64(s.LimitUps)
		sumScore += s.EmotionScore
		// strict comparisons attribute ties to the earliest day
		if s.EmotionScore > st.MaxScore {
			st.MaxScore, st.MaxDay = s.EmotionScore, s.Date
		}
		if s.EmotionScore < st.MinScore {
			st.MinScore, st.MinDay = s.EmotionScore, s.Date
		}
	}
	st.AvgLimitUps = sumUps / float64(len(snaps))
	st.AvgScore = sumScore / float64(len(snaps))

	st.FirstClose = snaps[0].Indices[model.IndexSH].Close
	st.LastClose = snaps[len(snaps)-1].Indices[model.IndexSH].Close
	if st.FirstClose > 0 {
		st.ReturnPct = math.Round((st.LastClose/st.FirstClose-1)*10000) / 100
	}
	return st
}

// curveBars maps the emotion scores onto bar lengths of the given
// width, scaled to the observed min/max so the chart always spans the
// full resolution. A flat series renders full-width bars.
func curveBars(snaps []*model.Snapshot, width int) []int {
	if len(snaps) == 0 {
		return nil
	}
	lo, hi := snaps[0].EmotionScore, snaps[0].EmotionScore
	for _, s := range snaps {
		lo = math.Min(lo, s.EmotionScore)
		hi = math.Max(hi, s.EmotionScore)
	}
	bars := make([]int, len(snaps))
	for i, s := range snaps {
		if hi == lo {
			bars[i] = width
			continue
		}
		n := int(math.Round((s.EmotionScore - lo) / (hi - lo) * float64(width)))
		if n < 1 {
			n = 1 // the period minimum stays visible
		}
		bars[i] = n
	}
	return bars
}
