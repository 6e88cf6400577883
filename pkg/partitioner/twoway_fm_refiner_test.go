package partitioner

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	da "github.com/lintang-b-s/hypar/pkg/datastructure"
	"github.com/lintang-b-s/hypar/pkg/metrics"
	"github.com/lintang-b-s/hypar/pkg/random"
)

func newTwoWayRefiner(hg *da.Hypergraph, cfg *Config, seed int64) *TwoWayFMRefiner {
	r := NewTwoWayFMRefiner(hg, cfg, random.New(seed), zap.NewNop())
	r.Initialize()
	return r
}

func assignParts(hg *da.Hypergraph, parts []da.PartitionID) {
	for v, p := range parts {
		hg.SetNodePart(da.HypernodeID(v), p)
	}
}

func TestComputeGain(t *testing.T) {
	hg := buildPathHypergraph(2)
	assignParts(hg, []da.PartitionID{0, 0, 1, 1})
	cfg := newTestConfig(2, 0.03, hg)
	r := newTwoWayRefiner(hg, cfg, 0)

	testCases := []struct {
		node da.HypernodeID
		want int
	}{
		{0, -1}, // moving 0 cuts {0,1} without healing anything
		{1, 0},  // heals {1,2}, cuts {0,1}
		{2, 0},
		{3, -1},
	}
	for _, tt := range testCases {
		if got := r.computeGain(tt.node); got != tt.want {
			t.Errorf("computeGain(%d) = %d, want %d", tt.node, got, tt.want)
		}
	}
}

func TestActivateOnlyInsertsBorderNodes(t *testing.T) {
	hg := buildPathHypergraph(2)
	assignParts(hg, []da.PartitionID{0, 0, 1, 1})
	cfg := newTestConfig(2, 0.03, hg)
	r := newTwoWayRefiner(hg, cfg, 0)

	for v := da.HypernodeID(0); v < 4; v++ {
		r.activate(v)
	}
	require.False(t, r.pq[0].Contains(0))
	require.True(t, r.pq[0].Contains(1))
	require.True(t, r.pq[1].Contains(2))
	require.False(t, r.pq[1].Contains(3))
}

// gainDeltasMatchScratch moves one node and checks that every queued gain
// equals a from-scratch recomputation. This exercises all delta-update
// branches, including the size-2 and size-3 special cases.
func gainDeltasMatchScratch(t *testing.T, hg *da.Hypergraph, cfg *Config,
	moved da.HypernodeID) {
	t.Helper()

	r := newTwoWayRefiner(hg, cfg, 0)
	hg.ForEachNode(func(u da.HypernodeID) {
		r.activate(u)
	})

	from := hg.PartID(moved)
	to := from ^ 1
	if r.pq[from].Contains(int32(moved)) {
		r.pq[from].Remove(int32(moved))
	}
	r.moveHypernode(moved, from, to)
	r.updateNeighbours(moved, from, to)

	hg.ForEachNode(func(u da.HypernodeID) {
		part := hg.PartID(u)
		if !r.pq[part].Contains(int32(u)) {
			return
		}
		require.Equal(t, r.computeGain(u), r.pq[part].Key(int32(u)),
			"stale gain for hypernode %d", u)
	})
}

func TestGainUpdateSize2Edges(t *testing.T) {
	hg := buildPathHypergraph(2)
	assignParts(hg, []da.PartitionID{0, 0, 1, 1})
	cfg := newTestConfig(2, 1.0, hg)
	gainDeltasMatchScratch(t, hg, cfg, 1)
}

func TestGainUpdateThreePinEdge(t *testing.T) {
	// e0 = {0,1,2}, e1 = {2,3}
	build := func() *da.Hypergraph {
		return da.NewHypergraph(4, 2, []int{0, 3, 5},
			[]da.HypernodeID{0, 1, 2, 2, 3}, 2, nil, nil)
	}

	testCases := []struct {
		name  string
		parts []da.PartitionID
		moved da.HypernodeID
	}{
		{"internal edge torn open", []da.PartitionID{0, 0, 0, 1}, 0},
		{"pin count 2 to 1 with correction", []da.PartitionID{0, 0, 1, 1}, 0},
		{"lone pin leaves its side", []da.PartitionID{1, 0, 0, 0}, 0},
		{"edge healed into one side", []da.PartitionID{0, 1, 1, 1}, 0},
	}
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			hg := build()
			assignParts(hg, tt.parts)
			cfg := newTestConfig(2, 1.0, hg)
			gainDeltasMatchScratch(t, hg, cfg, tt.moved)
		})
	}
}

func TestGainUpdateLargerEdge(t *testing.T) {
	// one 4-pin edge plus a pending size-2 edge
	hg := da.NewHypergraph(5, 2, []int{0, 4, 6},
		[]da.HypernodeID{0, 1, 2, 3, 3, 4}, 2, nil, nil)
	assignParts(hg, []da.PartitionID{0, 0, 1, 1, 1})
	cfg := newTestConfig(2, 1.0, hg)
	gainDeltasMatchScratch(t, hg, cfg, 0)
}

func TestRefineImprovesAlternatingPartition(t *testing.T) {
	hg := buildPathHypergraph(2)
	assignParts(hg, []da.PartitionID{0, 1, 0, 1})
	cfg := newTestConfig(2, 0.6, hg)
	r := newTwoWayRefiner(hg, cfg, 1)

	bestCut := metrics.HyperedgeCut(hg)
	bestImbalance := metrics.Imbalance(hg)
	require.Equal(t, 3, bestCut)

	improved, err := r.Refine([]da.HypernodeID{1, 2}, &bestCut, cfg.Epsilon, &bestImbalance)
	require.NoError(t, err)
	require.True(t, improved)
	require.Equal(t, 1, bestCut)
	require.Equal(t, bestCut, metrics.HyperedgeCut(hg))
}

func TestRefineRollsBackFruitlessMoves(t *testing.T) {
	hg := buildPathHypergraph(2)
	assignParts(hg, []da.PartitionID{0, 0, 1, 1})
	cfg := newTestConfig(2, 0.03, hg)
	r := newTwoWayRefiner(hg, cfg, 1)

	before := []da.PartitionID{hg.PartID(0), hg.PartID(1), hg.PartID(2), hg.PartID(3)}
	bestCut := metrics.HyperedgeCut(hg)
	bestImbalance := metrics.Imbalance(hg)

	improved, err := r.Refine([]da.HypernodeID{1, 2}, &bestCut, cfg.Epsilon, &bestImbalance)
	require.NoError(t, err)
	require.False(t, improved)
	require.Equal(t, 1, bestCut)
	for v, want := range before {
		require.Equal(t, want, hg.PartID(da.HypernodeID(v)))
	}
}

func TestRefineRespectsBalanceConstraint(t *testing.T) {
	// the star can only improve by emptying one side, which balance forbids
	hg := buildStarHypergraph(2)
	assignParts(hg, []da.PartitionID{0, 0, 0, 1, 1})
	cfg := newTestConfig(2, 0.03, hg)
	r := newTwoWayRefiner(hg, cfg, 1)

	bestCut := metrics.HyperedgeCut(hg)
	bestImbalance := metrics.Imbalance(hg)
	require.Equal(t, 5, bestCut)

	improved, err := r.Refine([]da.HypernodeID{0, 3}, &bestCut, cfg.Epsilon, &bestImbalance)
	require.NoError(t, err)
	require.False(t, improved)
	require.Equal(t, 5, bestCut)
	require.Greater(t, hg.PartWeight(0), 0)
	require.Greater(t, hg.PartWeight(1), 0)
}

func TestKWayRefinerMatchesTwoWayOnBisection(t *testing.T) {
	refine := func(r Refiner, hg *da.Hypergraph) int {
		r.Initialize()
		bestCut := metrics.HyperedgeCut(hg)
		bestImbalance := metrics.Imbalance(hg)
		_, err := r.Refine([]da.HypernodeID{1, 2}, &bestCut, 0.6, &bestImbalance)
		require.NoError(t, err)
		return bestCut
	}

	hgTwoWay := buildPathHypergraph(2)
	assignParts(hgTwoWay, []da.PartitionID{0, 1, 0, 1})
	cfgTwoWay := newTestConfig(2, 0.6, hgTwoWay)
	twoWayCut := refine(NewTwoWayFMRefiner(hgTwoWay, cfgTwoWay, random.New(9), zap.NewNop()), hgTwoWay)

	hgKWay := buildPathHypergraph(2)
	assignParts(hgKWay, []da.PartitionID{0, 1, 0, 1})
	cfgKWay := newTestConfig(2, 0.6, hgKWay)
	kWayCut := refine(NewKWayFMRefiner(hgKWay, cfgKWay, random.New(9), zap.NewNop()), hgKWay)

	require.Equal(t, twoWayCut, kWayCut)
	require.Equal(t, 1, twoWayCut)
}
