package stats

import (
	"fmt"
	"math"
	"sort"
)

// HistogramBin counts executions whose trace had Sites sample sites.
type HistogramBin struct {
	Sites int `json:"sites"`
	Count int `json:"count"`
}

// ReplicateSummary aggregates repeated executions of one program.
type ReplicateSummary struct {
	Count         int            `json:"count"`
	Mean          float64        `json:"mean"`
	Std           float64        `json:"std"`
	Min           float64        `json:"min"`
	Max           float64        `json:"max"`
	MeanSites     float64        `json:"mean_sites"`
	SiteHistogram []HistogramBin `json:"site_histogram"`
}

// SummarizeReplicates aggregates return values and per-execution site
// counts. Both slices must have the same length.
func SummarizeReplicates(values []float64, siteCounts []int) (ReplicateSummary, error) {
	if len(values) == 0 {
		return ReplicateSummary{}, fmt.Errorf("at least one replicate is required")
	}
	if len(values) != len(siteCounts) {
		return ReplicateSummary{}, fmt.Errorf("values and site counts disagree: %d vs %d", len(values), len(siteCounts))
	}

	sum, sumSq := 0.0, 0.0
	min, max := values[0], values[0]
	for _, v := range values {
		sum += v
		sumSq += v * v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	n := float64(len(values))
	mean := sum / n
	variance := sumSq/n - mean*mean
	if variance < 0 {
		variance = 0
	}

	totalSites := 0
	counts := make(map[int]int)
	for _, c := range siteCounts {
		totalSites += c
		counts[c]++
	}
	bins := make([]HistogramBin, 0, len(counts))
	for sites, count := range counts {
		bins = append(bins, HistogramBin{Sites: sites, Count: count})
	}
	sort.Slice(bins, func(i, j int) bool { return bins[i].Sites < bins[j].Sites })

	return ReplicateSummary{
		Count:         len(values),
		Mean:          mean,
		Std:           math.Sqrt(variance),
		Min:           min,
		Max:           max,
		MeanSites:     float64(totalSites) / n,
		SiteHistogram: bins,
	}, nil
}
