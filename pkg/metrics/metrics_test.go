package metrics

import (
	"testing"

	"github.com/stretchr/testify/require"

	da "github.com/lintang-b-s/hypar/pkg/datastructure"
)

// path hypergraph 0-1-2-3 with unit weights
func buildPath(k int) *da.Hypergraph {
	return da.NewHypergraph(4, 3,
		[]int{0, 2, 4, 6},
		[]da.HypernodeID{0, 1, 1, 2, 2, 3},
		k, nil, nil)
}

func TestHyperedgeCut(t *testing.T) {
	testCases := []struct {
		name  string
		parts []da.PartitionID
		want  int
	}{
		{"middle edge cut", []da.PartitionID{0, 0, 1, 1}, 1},
		{"alternating", []da.PartitionID{0, 1, 0, 1}, 3},
		{"all in one block", []da.PartitionID{0, 0, 0, 0}, 0},
	}
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			hg := buildPath(2)
			for v, p := range tt.parts {
				hg.SetNodePart(da.HypernodeID(v), p)
			}
			require.Equal(t, tt.want, HyperedgeCut(hg))
		})
	}
}

func TestHyperedgeCutWeighted(t *testing.T) {
	hg := da.NewHypergraph(5, 1, []int{0, 5},
		[]da.HypernodeID{0, 1, 2, 3, 4}, 2, []int{5}, nil)
	for v := 0; v < 3; v++ {
		hg.SetNodePart(da.HypernodeID(v), 0)
	}
	hg.SetNodePart(3, 1)
	hg.SetNodePart(4, 1)

	require.Equal(t, 5, HyperedgeCut(hg))
	require.Equal(t, 2, ConnectedBlocks(hg, 0))
}

func TestImbalance(t *testing.T) {
	hg := buildPath(2)
	hg.SetNodePart(0, 0)
	hg.SetNodePart(1, 0)
	hg.SetNodePart(2, 0)
	hg.SetNodePart(3, 1)

	// max block weight 3, average 2
	require.InDelta(t, 0.5, Imbalance(hg), 1e-9)
}

func TestMaxPartWeight(t *testing.T) {
	require.Equal(t, 2, MaxPartWeight(4, 2, 0.03))
	require.Equal(t, 3, MaxPartWeight(5, 2, 0.03))
	require.Equal(t, 6, MaxPartWeight(10, 2, 0.2))
}
