package domain

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func seriesOf(n int, start time.Time) []Snapshot {
	out := make([]Snapshot, n)
	for i := range out {
		out[i] = Snapshot{
			Timestamp:    start.Add(time.Duration(i) * 10 * time.Second),
			StoreID:      19,
			StoreName:    "Store",
			TotalLineup:  i,
			QueueDetails: QueueDetails{TypeA: i % 3, TypeB: 1},
		}
	}
	return out
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	snapshots := []Snapshot{
		{TotalLineup: 10, QueueDetails: QueueDetails{TypeA: 1, TypeB: 2, TypeC: 3, TypeF: 4}},
		{TotalLineup: 37, QueueDetails: QueueDetails{TypeA: 5, TypeB: 10, TypeC: 2, TypeF: 0}},
		{TotalLineup: 4, QueueDetails: QueueDetails{TypeA: 0, TypeB: 0, TypeC: 0, TypeF: 1}},
	}

	got, ok := Summarize(snapshots)
	if !ok {
		t.Fatal("expected summary")
	}
	want := DaySummary{
		Count:    3,
		AvgTotal: 17,
		MaxTotal: 37,
		MinTotal: 4,
		AvgTypeA: 2,
		AvgTypeB: 4,
		AvgTypeC: 1.7,
		AvgTypeF: 1.7,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}

	averages := map[Category]float64{}
	for _, c := range Categories() {
		averages[c] = got.Average(c)
	}
	wantAverages := map[Category]float64{CategoryA: 2, CategoryB: 4, CategoryC: 1.7, CategoryF: 1.7, CategoryTotal: 0}
	if diff := cmp.Diff(wantAverages, averages); diff != "" {
		t.Fatalf("per-category averages mismatch (-want +got):\n%s", diff)
	}

	if _, ok := Summarize(nil); ok {
		t.Fatal("expected no summary for an empty day")
	}
}

func TestDownsample(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC+8", 8*3600)
	start := time.Date(2026, 1, 12, 3, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		n          int
		wantPoints int
	}{
		{name: "empty", n: 0, wantPoints: 0},
		{name: "below target", n: 100, wantPoints: 100},
		{name: "exactly target", n: 120, wantPoints: 120},
		{name: "double", n: 240, wantPoints: 120},
		{name: "full day", n: 3960, wantPoints: 120},
		{name: "uneven", n: 250, wantPoints: 125},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			points := Downsample(seriesOf(test.n, start), DefaultChartPoints, loc)
			if len(points) != test.wantPoints {
				t.Fatalf("expected %d points, got %d", test.wantPoints, len(points))
			}
		})
	}

	points := Downsample(seriesOf(240, start), DefaultChartPoints, loc)
	if points[0].Time != "11:00" || points[0].FullTime != "11:00:00" {
		t.Fatalf("unexpected local labels %q %q", points[0].Time, points[0].FullTime)
	}
	if points[1].Total != 2 {
		t.Fatalf("expected every second snapshot, got total %d", points[1].Total)
	}
}
