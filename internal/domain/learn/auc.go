package learn

import (
	"math"
	"sort"
)

// ROCAUC computes the area under the ROC curve from the Mann-Whitney rank
// statistic, averaging ranks over tied scores. It returns NaN when y holds a
// single class or the lengths differ.
func ROCAUC(y, scores []float64) float64 {
	if len(y) != len(scores) || len(y) == 0 {
		return math.NaN()
	}
	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return scores[idx[a]] < scores[idx[b]] })

	var positives, negatives, rankSum float64
	for start := 0; start < len(idx); {
		end := start + 1
		for end < len(idx) && scores[idx[end]] == scores[idx[start]] {
			end++
		}
		// ranks are 1-based; tied block [start, end) shares the mean rank
		rank := float64(start+end+1) / 2
		for _, i := range idx[start:end] {
			if y[i] > 0.5 {
				positives++
				rankSum += rank
			}
		}
		start = end
	}
	negatives = float64(len(y)) - positives
	if positives == 0 || negatives == 0 {
		return math.NaN()
	}
	return (rankSum - positives*(positives+1)/2) / (positives * negatives)
}
