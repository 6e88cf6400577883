package metrics

import (
	"math"

	da "github.com/lintang-b-s/hypar/pkg/datastructure"
)

// HyperedgeCut sums the weights of all hyperedges whose pins span more than
// one block.
func HyperedgeCut(hg *da.Hypergraph) int {
	cut := 0
	hg.ForEachEdge(func(e da.HyperedgeID) {
		if ConnectedBlocks(hg, e) > 1 {
			cut += hg.EdgeWeight(e)
		}
	})
	return cut
}

// ConnectedBlocks counts the blocks a hyperedge has pins in.
func ConnectedBlocks(hg *da.Hypergraph, e da.HyperedgeID) int {
	connected := 0
	for p := da.PartitionID(0); p < da.PartitionID(hg.K()); p++ {
		if hg.PinCountInPart(e, p) > 0 {
			connected++
		}
	}
	return connected
}

// Imbalance is k * max_b c(V_b) / c(V) - 1, the relative overshoot of the
// heaviest block against the average.
func Imbalance(hg *da.Hypergraph) float64 {
	maxWeight := 0
	for p := 0; p < hg.K(); p++ {
		if hg.PartWeight(da.PartitionID(p)) > maxWeight {
			maxWeight = hg.PartWeight(da.PartitionID(p))
		}
	}
	return float64(maxWeight)*float64(hg.K())/float64(hg.TotalWeight()) - 1.0
}

// MaxPartWeight is the balance bound L_max = (1+eps) * ceil(c(V)/k).
func MaxPartWeight(totalWeight, k int, epsilon float64) int {
	return int((1.0 + epsilon) * math.Ceil(float64(totalWeight)/float64(k)))
}
