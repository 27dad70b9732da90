package plots

import (
	"math"

	"gonum.org/v1/plot/plotter"
)

// binEdges splits the range of xs into n equal-width bins and returns the
// n+1 edges. A degenerate range is widened by half a unit on each side.
func binEdges(xs []float64, n int) []float64 {
	if len(xs) == 0 || n < 1 {
		return nil
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, x := range xs {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	width := (hi - lo) / float64(n)
	edges := make([]float64, n+1)
	for i := range edges {
		edges[i] = lo + float64(i)*width
	}
	edges[n] = hi
	return edges
}

// binCounts counts xs into the bins delimited by edges. Bins are half-open
// except the last, which also holds the upper edge. Values outside the edges
// are ignored.
func binCounts(xs, edges []float64) []float64 {
	n := len(edges) - 1
	if n < 1 {
		return nil
	}
	counts := make([]float64, n)
	lo, hi := edges[0], edges[n]
	width := (hi - lo) / float64(n)
	for _, x := range xs {
		if x < lo || x > hi {
			continue
		}
		i := int((x - lo) / width)
		if i >= n {
			i = n - 1
		}
		counts[i]++
	}
	return counts
}

func histogramBins(xs, edges []float64) []plotter.HistogramBin {
	counts := binCounts(xs, edges)
	out := make([]plotter.HistogramBin, len(counts))
	for i, c := range counts {
		out[i] = plotter.HistogramBin{Min: edges[i], Max: edges[i+1], Weight: c}
	}
	return out
}
