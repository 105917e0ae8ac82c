package stats

import (
	"math"
	"testing"
)

func TestSummarizeReplicates(t *testing.T) {
	values := []float64{1, 2, 3, 4}
	sites := []int{1, 1, 2, 3}

	summary, err := SummarizeReplicates(values, sites)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if summary.Count != 4 {
		t.Fatalf("count: %d", summary.Count)
	}
	if summary.Mean != 2.5 || summary.Min != 1 || summary.Max != 4 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if math.Abs(summary.Std-math.Sqrt(1.25)) > 1e-12 {
		t.Fatalf("std: %v", summary.Std)
	}
	if summary.MeanSites != 1.75 {
		t.Fatalf("mean sites: %v", summary.MeanSites)
	}

	wantBins := []HistogramBin{{Sites: 1, Count: 2}, {Sites: 2, Count: 1}, {Sites: 3, Count: 1}}
	if len(summary.SiteHistogram) != len(wantBins) {
		t.Fatalf("unexpected histogram: %+v", summary.SiteHistogram)
	}
	for i, bin := range wantBins {
		if summary.SiteHistogram[i] != bin {
			t.Fatalf("bin %d: got %+v want %+v", i, summary.SiteHistogram[i], bin)
		}
	}
}

func TestSummarizeReplicatesErrors(t *testing.T) {
	if _, err := SummarizeReplicates(nil, nil); err == nil {
		t.Fatal("expected error for empty input")
	}
	if _, err := SummarizeReplicates([]float64{1}, []int{1, 2}); err == nil {
		t.Fatal("expected error for length mismatch")
	}
}

func TestSummarizeReplicatesConstantValues(t *testing.T) {
	summary, err := SummarizeReplicates([]float64{5, 5, 5}, []int{2, 2, 2})
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if summary.Std != 0 {
		t.Fatalf("std of constant values must be 0, got %v", summary.Std)
	}
}
