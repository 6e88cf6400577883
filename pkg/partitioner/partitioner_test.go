package partitioner

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lintang-b-s/hypar/pkg"
	da "github.com/lintang-b-s/hypar/pkg/datastructure"
	"github.com/lintang-b-s/hypar/pkg/metrics"
	"github.com/lintang-b-s/hypar/pkg/random"
)

func newTestConfig(k int, epsilon float64, hg *da.Hypergraph) *Config {
	cfg := DefaultConfig()
	cfg.K = k
	cfg.Epsilon = epsilon
	cfg.InitialPartitioner = pkg.INITIAL_PARTITIONER_GREEDY_GROWING
	cfg.GlobalSearchIterations = 0
	cfg.DeriveQuantities(hg.TotalWeight(), hg.NumberOfNodes())
	return cfg
}

// path hypergraph 0-1-2-3, three unit size-2 hyperedges
func buildPathHypergraph(k int) *da.Hypergraph {
	return da.NewHypergraph(4, 3,
		[]int{0, 2, 4, 6},
		[]da.HypernodeID{0, 1, 1, 2, 2, 3},
		k, nil, nil)
}

// star hypergraph: one hyperedge covering all five nodes, weight 5
func buildStarHypergraph(k int) *da.Hypergraph {
	return da.NewHypergraph(5, 1,
		[]int{0, 5},
		[]da.HypernodeID{0, 1, 2, 3, 4},
		k, []int{5}, nil)
}

// ring hypergraph: six nodes, six unit size-2 hyperedges around the cycle
func buildRingHypergraph(k int) *da.Hypergraph {
	return da.NewHypergraph(6, 6,
		[]int{0, 2, 4, 6, 8, 10, 12},
		[]da.HypernodeID{0, 1, 1, 2, 2, 3, 3, 4, 4, 5, 5, 0},
		k, nil, nil)
}

func runPartitioner(t *testing.T, hg *da.Hypergraph, cfg *Config, seed int64) {
	t.Helper()
	rnd := random.New(seed)
	driver := NewPartitioner(hg, cfg, rnd, zap.NewNop())
	require.NoError(t, driver.PerformDirectKWayPartitioning())
}

func requireBalanced(t *testing.T, hg *da.Hypergraph, cfg *Config) {
	t.Helper()
	for p := da.PartitionID(0); p < da.PartitionID(cfg.K); p++ {
		require.LessOrEqual(t, hg.PartWeight(p), cfg.MaxPartWeight,
			"block %d exceeds the balance bound", p)
	}
}

func TestPartitionPathIntoTwoBlocks(t *testing.T) {
	hg := buildPathHypergraph(2)
	cfg := newTestConfig(2, 0.03, hg)

	runPartitioner(t, hg, cfg, 1)

	require.Equal(t, 1, metrics.HyperedgeCut(hg))
	requireBalanced(t, hg, cfg)
	// the only cut-1 bisections are {0,1} vs {2,3}
	require.Equal(t, hg.PartID(0), hg.PartID(1))
	require.Equal(t, hg.PartID(2), hg.PartID(3))
	require.NotEqual(t, hg.PartID(1), hg.PartID(2))
}

func TestPartitionStarPaysFullEdgeWeight(t *testing.T) {
	hg := buildStarHypergraph(2)
	cfg := newTestConfig(2, 0.03, hg)

	runPartitioner(t, hg, cfg, 1)

	require.Equal(t, 5, metrics.HyperedgeCut(hg))
	requireBalanced(t, hg, cfg)
	require.Greater(t, hg.PartWeight(0), 0)
	require.Greater(t, hg.PartWeight(1), 0)
}

func TestPartitionRingIntoThreeBlocks(t *testing.T) {
	hg := buildRingHypergraph(3)
	cfg := newTestConfig(3, 0.03, hg)
	cfg.InitialPartitioningAttempts = 20

	runPartitioner(t, hg, cfg, 1)

	require.Equal(t, 3, metrics.HyperedgeCut(hg))
	requireBalanced(t, hg, cfg)
}

func TestDeterministicReproducibility(t *testing.T) {
	partitionVector := func() []da.PartitionID {
		hg := buildRingHypergraph(3)
		cfg := newTestConfig(3, 0.03, hg)
		runPartitioner(t, hg, cfg, 42)
		parts := make([]da.PartitionID, hg.InitialNumberOfNodes())
		for v := range parts {
			parts[v] = hg.PartID(da.HypernodeID(v))
		}
		return parts
	}

	first := partitionVector()
	second := partitionVector()
	require.Equal(t, first, second)
}

func TestRefinementAlgorithmsAgreeOnPath(t *testing.T) {
	algorithms := []pkg.RefinementAlgorithm{
		pkg.REFINEMENT_TWOWAY_FM,
		pkg.REFINEMENT_KWAY_FM,
		pkg.REFINEMENT_KWAY_FM_MAXGAIN,
		pkg.REFINEMENT_HYPEREDGE,
	}
	for _, algorithm := range algorithms {
		hg := buildPathHypergraph(2)
		cfg := newTestConfig(2, 0.03, hg)
		cfg.RefinementAlgorithm = algorithm

		runPartitioner(t, hg, cfg, 7)

		require.Equal(t, 1, metrics.HyperedgeCut(hg),
			"refinement algorithm %d missed the optimal path cut", algorithm)
		requireBalanced(t, hg, cfg)
	}
}

func TestVCyclesNeverWorsenTheCut(t *testing.T) {
	hg := buildRingHypergraph(2)
	cfg := newTestConfig(2, 0.03, hg)
	runPartitioner(t, hg, cfg, 3)
	cutWithoutVCycles := metrics.HyperedgeCut(hg)

	hg2 := buildRingHypergraph(2)
	cfg2 := newTestConfig(2, 0.03, hg2)
	cfg2.GlobalSearchIterations = 2
	cfg2.ContractionLimitMultiplier = 2
	cfg2.DeriveQuantities(hg2.TotalWeight(), hg2.NumberOfNodes())
	runPartitioner(t, hg2, cfg2, 3)

	require.LessOrEqual(t, metrics.HyperedgeCut(hg2), cutWithoutVCycles)
	requireBalanced(t, hg2, cfg2)
}

func TestParallelHyperedgeRemovalFoldsAndRestores(t *testing.T) {
	// e0 and e2 have identical pin sets; e1 differs
	hg := da.NewHypergraph(4, 3,
		[]int{0, 2, 4, 6},
		[]da.HypernodeID{0, 1, 2, 3, 0, 1},
		2, []int{2, 1, 3}, nil)
	cfg := newTestConfig(2, 0.03, hg)
	rnd := random.New(0)
	driver := NewPartitioner(hg, cfg, rnd, zap.NewNop())

	removed := driver.removeParallelHyperedges()
	require.Equal(t, 1, removed)
	require.False(t, hg.EdgeIsEnabled(2))
	require.Equal(t, 5, hg.EdgeWeight(0))
	require.Equal(t, 2, hg.NumberOfEdges())

	driver.restoreParallelHyperedges()
	require.True(t, hg.EdgeIsEnabled(2))
	require.Equal(t, 2, hg.EdgeWeight(0))
	require.Equal(t, 3, hg.EdgeWeight(2))
	require.Equal(t, 3, hg.NumberOfEdges())
}

func TestPartitioningWithParallelRemovalMatchesCut(t *testing.T) {
	build := func() *da.Hypergraph {
		return da.NewHypergraph(4, 4,
			[]int{0, 2, 4, 6, 8},
			[]da.HypernodeID{0, 1, 1, 2, 2, 3, 1, 2},
			2, nil, nil)
	}

	hg := build()
	cfg := newTestConfig(2, 0.03, hg)
	cfg.InitialParallelHERemoval = true
	runPartitioner(t, hg, cfg, 5)

	require.True(t, hg.EdgeIsEnabled(3))
	// both {1,2} hyperedges count toward the final cut again
	require.Equal(t, 2, metrics.HyperedgeCut(hg))
	requireBalanced(t, hg, cfg)
}
