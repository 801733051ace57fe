package domain

import (
	"time"

	"queueWatch/internal/shared/normalization"
)

// DefaultChartPoints is the target number of points in a day chart.
const DefaultChartPoints = 120

// DaySummary aggregates a day's snapshots for the dashboard header.
type DaySummary struct {
	Count    int     `json:"count"`
	AvgTotal float64 `json:"avgTotal"`
	MaxTotal int     `json:"maxTotal"`
	MinTotal int     `json:"minTotal"`
	AvgTypeA float64 `json:"avgTypeA"`
	AvgTypeB float64 `json:"avgTypeB"`
	AvgTypeC float64 `json:"avgTypeC"`
	AvgTypeF float64 `json:"avgTypeF"`
}

// Summarize computes averages (one decimal) and extremes. It returns false for an empty day.
func Summarize(snapshots []Snapshot) (DaySummary, bool) {
	if len(snapshots) == 0 {
		return DaySummary{}, false
	}

	summary := DaySummary{
		Count:    len(snapshots),
		MaxTotal: snapshots[0].TotalLineup,
		MinTotal: snapshots[0].TotalLineup,
	}
	var total, a, b, c, f int
	for _, s := range snapshots {
		total += s.TotalLineup
		a += s.QueueDetails.TypeA
		b += s.QueueDetails.TypeB
		c += s.QueueDetails.TypeC
		f += s.QueueDetails.TypeF
		summary.MaxTotal = max(summary.MaxTotal, s.TotalLineup)
		summary.MinTotal = min(summary.MinTotal, s.TotalLineup)
	}

	n := float64(len(snapshots))
	summary.AvgTotal = normalization.RoundTo(float64(total)/n, 1)
	summary.AvgTypeA = normalization.RoundTo(float64(a)/n, 1)
	summary.AvgTypeB = normalization.RoundTo(float64(b)/n, 1)
	summary.AvgTypeC = normalization.RoundTo(float64(c)/n, 1)
	summary.AvgTypeF = normalization.RoundTo(float64(f)/n, 1)
	return summary, true
}

// Average returns the per-category mean. The provider total has no average.
func (s DaySummary) Average(c Category) float64 {
	switch c {
	case CategoryA:
		return s.AvgTypeA
	case CategoryB:
		return s.AvgTypeB
	case CategoryC:
		return s.AvgTypeC
	case CategoryF:
		return s.AvgTypeF
	default:
		return 0
	}
}

// ChartPoint is one sample of the downsampled day series.
type ChartPoint struct {
	Time      string    `json:"time"`
	FullTime  string    `json:"fullTime"`
	Timestamp time.Time `json:"timestamp"`
	Total     int       `json:"total"`
	TypeA     int       `json:"typeA"`
	TypeB     int       `json:"typeB"`
	TypeC     int       `json:"typeC"`
	TypeF     int       `json:"typeF"`
}

// SamplingRate returns the stride that keeps a series of n points near maxPoints.
func SamplingRate(n, maxPoints int) int {
	if maxPoints <= 0 {
		maxPoints = DefaultChartPoints
	}
	return max(1, n/maxPoints)
}

// Downsample keeps every SamplingRate-th snapshot and labels it in loc.
func Downsample(snapshots []Snapshot, maxPoints int, loc *time.Location) []ChartPoint {
	if len(snapshots) == 0 {
		return []ChartPoint{}
	}
	if loc == nil {
		loc = time.Local
	}
	rate := SamplingRate(len(snapshots), maxPoints)
	points := make([]ChartPoint, 0, len(snapshots)/rate+1)
	for i := 0; i < len(snapshots); i += rate {
		s := snapshots[i]
		local := s.Timestamp.In(loc)
		points = append(points, ChartPoint{
			Time:      local.Format("15:04"),
			FullTime:  local.Format("15:04:05"),
			Timestamp: s.Timestamp,
			Total:     s.TotalLineup,
			TypeA:     s.QueueDetails.TypeA,
			TypeB:     s.QueueDetails.TypeB,
			TypeC:     s.QueueDetails.TypeC,
			TypeF:     s.QueueDetails.TypeF,
		})
	}
	return points
}
