package partitioner

import (
	"testing"

	"github.com/stretchr/testify/require"

	da "github.com/lintang-b-s/hypar/pkg/datastructure"
	"github.com/lintang-b-s/hypar/pkg/random"
)

func TestRaterHeavyEdgeScore(t *testing.T) {
	// e0 = {0,1} w4, e1 = {0,1,2} w3
	hg := da.NewHypergraph(3, 2,
		[]int{0, 2, 5},
		[]da.HypernodeID{0, 1, 0, 1, 2},
		2, []int{4, 3}, nil)
	cfg := newTestConfig(2, 0.03, hg)
	cfg.MaxAllowedNodeWeight = 10
	rater := NewRater(hg, cfg, random.New(0))

	rating := rater.Rate(0)
	require.True(t, rating.Valid)
	// rate(0,1) = 4/1 + 3/2 = 5.5, rate(0,2) = 3/2 = 1.5
	require.EqualValues(t, 1, rating.Target)
	require.InDelta(t, 5.5, rating.Value, 1e-9)

	rating = rater.Rate(2)
	require.True(t, rating.Valid)
	require.InDelta(t, 1.5, rating.Value, 1e-9)
}

func TestRaterDividesByNodeWeights(t *testing.T) {
	hg := da.NewHypergraph(3, 2,
		[]int{0, 2, 4},
		[]da.HypernodeID{0, 1, 0, 2},
		2, nil, []int{2, 4, 1})
	cfg := newTestConfig(2, 0.03, hg)
	cfg.MaxAllowedNodeWeight = 100
	rater := NewRater(hg, cfg, random.New(0))

	// rate(0,1) = 1 / (2*4) = 0.125 < rate(0,2) = 1 / (2*1) = 0.5
	rating := rater.Rate(0)
	require.True(t, rating.Valid)
	require.EqualValues(t, 2, rating.Target)
	require.InDelta(t, 0.5, rating.Value, 1e-9)
}

func TestRaterRespectsWeightCap(t *testing.T) {
	hg := da.NewHypergraph(2, 1, []int{0, 2},
		[]da.HypernodeID{0, 1}, 2, nil, []int{3, 3})
	cfg := newTestConfig(2, 0.03, hg)
	cfg.MaxAllowedNodeWeight = 5
	rater := NewRater(hg, cfg, random.New(0))

	rating := rater.Rate(0)
	require.False(t, rating.Valid)

	cfg.MaxAllowedNodeWeight = 6
	rating = rater.Rate(0)
	require.True(t, rating.Valid)
}

func TestRaterRejectsCrossBlockPairsDuringVCycles(t *testing.T) {
	hg := buildPathHypergraph(2)
	cfg := newTestConfig(2, 0.03, hg)
	cfg.MaxAllowedNodeWeight = 10
	hg.SetNodePart(0, 0)
	hg.SetNodePart(1, 1)
	hg.SetNodePart(2, 1)
	hg.SetNodePart(3, 1)
	rater := NewRater(hg, cfg, random.New(0))

	// 0's only neighbor is in the other block
	rating := rater.Rate(0)
	require.False(t, rating.Valid)

	// 2 can still pair with 1 or 3
	rating = rater.Rate(2)
	require.True(t, rating.Valid)
	require.Contains(t, []da.HypernodeID{1, 3}, rating.Target)
}

func TestRaterSkipsOversizedHyperedges(t *testing.T) {
	hg := buildStarHypergraph(2)
	cfg := newTestConfig(2, 0.03, hg)
	cfg.MaxAllowedNodeWeight = 10

	cfg.HyperedgeSizeThreshold = 4
	rater := NewRater(hg, cfg, random.New(0))
	require.False(t, rater.Rate(0).Valid)

	cfg.HyperedgeSizeThreshold = -1
	require.True(t, rater.Rate(0).Valid)
}

func TestRaterBreaksTiesBetweenPartners(t *testing.T) {
	hg := buildPathHypergraph(2)
	cfg := newTestConfig(2, 0.03, hg)
	cfg.MaxAllowedNodeWeight = 10
	rater := NewRater(hg, cfg, random.New(7))

	// node 1's partners 0 and 2 rate identically; both must be reachable
	seen := make(map[da.HypernodeID]bool)
	for i := 0; i < 64; i++ {
		rating := rater.Rate(1)
		require.True(t, rating.Valid)
		seen[rating.Target] = true
	}
	require.True(t, seen[0])
	require.True(t, seen[2])
}
