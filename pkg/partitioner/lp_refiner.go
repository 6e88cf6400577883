package partitioner

import (
	"go.uber.org/zap"

	da "github.com/lintang-b-s/hypar/pkg/datastructure"
	"github.com/lintang-b-s/hypar/pkg/metrics"
	"github.com/lintang-b-s/hypar/pkg/random"
	"github.com/lintang-b-s/hypar/pkg/util"
)

/*
LPRefiner performs label-propagation refinement: every iteration visits the
live hypernodes in a fresh random order and greedily relabels each border
node to the adjacent block with the highest positive gain, provided the
balance constraint stays intact. Only strictly improving moves are applied,
so no rollback is needed. With zero iterations the refiner is a no-op.
*/
type LPRefiner struct {
	hg  *da.Hypergraph
	cfg *Config
	rnd *random.Randomizer

	logger *zap.Logger

	initialized bool
}

func NewLPRefiner(hg *da.Hypergraph, cfg *Config, rnd *random.Randomizer,
	logger *zap.Logger) *LPRefiner {
	return &LPRefiner{hg: hg, cfg: cfg, rnd: rnd, logger: logger}
}

func (r *LPRefiner) NumRepetitions() int {
	return 1
}

func (r *LPRefiner) Initialize() {
	r.initialized = true
}

func (r *LPRefiner) Refine(seeds []da.HypernodeID, bestCut *int,
	maxImbalance float64, bestImbalance *float64) (bool, error) {

	if !r.initialized {
		return false, util.WrapErrorf(nil, util.ErrBadParamInput,
			"Initialize must be called before Refine")
	}

	initialCut := *bestCut
	initialImbalance := *bestImbalance
	cut := *bestCut

	for iteration := 0; iteration < r.cfg.LPMaxNumberIterations; iteration++ {
		nodes := r.hg.Nodes()
		r.rnd.Shuffle(len(nodes), func(i, j int) {
			nodes[i], nodes[j] = nodes[j], nodes[i]
		})

		movesPerformed := 0
		for _, hn := range nodes {
			if !r.hg.IsBorderNode(hn) {
				continue
			}
			to, gain, ok := r.bestAdjacentMove(hn)
			if !ok || gain <= 0 {
				continue
			}
			r.hg.ChangeNodePart(hn, r.hg.PartID(hn), to)
			cut -= gain
			movesPerformed++
		}
		if movesPerformed == 0 {
			break
		}
	}

	*bestCut = cut
	*bestImbalance = metrics.Imbalance(r.hg)

	util.AssertPanic(cut == metrics.HyperedgeCut(r.hg),
		"label propagation cut bookkeeping diverged")

	return improvementFound(cut, initialCut, *bestImbalance, initialImbalance,
		maxImbalance), nil
}

// bestAdjacentMove scores only blocks that share a hyperedge with hn; ties
// are broken uniformly at random.
func (r *LPRefiner) bestAdjacentMove(hn da.HypernodeID) (da.PartitionID, int, bool) {
	from := r.hg.PartID(hn)
	adjacent := make([]bool, r.cfg.K)
	for _, heRaw := range r.hg.IncidentEdges(hn) {
		he := da.HyperedgeID(heRaw)
		for p := da.PartitionID(0); p < da.PartitionID(r.cfg.K); p++ {
			if p != from && r.hg.PinCountInPart(he, p) > 0 {
				adjacent[p] = true
			}
		}
	}

	var bestTo da.PartitionID
	bestGain := 0
	numTies := 0
	found := false
	for to := da.PartitionID(0); to < da.PartitionID(r.cfg.K); to++ {
		if !adjacent[to] {
			continue
		}
		if r.hg.PartWeight(to)+r.hg.NodeWeight(hn) > r.cfg.MaxPartWeight {
			continue
		}
		gain := r.gainTo(hn, to)
		if !found || gain > bestGain {
			bestTo = to
			bestGain = gain
			numTies = 1
			found = true
		} else if gain == bestGain {
			numTies++
			if r.rnd.Intn(numTies) == 0 {
				bestTo = to
			}
		}
	}
	return bestTo, bestGain, found
}

func (r *LPRefiner) gainTo(hn da.HypernodeID, to da.PartitionID) int {
	gain := 0
	from := r.hg.PartID(hn)
	for _, heRaw := range r.hg.IncidentEdges(hn) {
		he := da.HyperedgeID(heRaw)
		size := r.hg.EdgeSize(he)
		if r.hg.PinCountInPart(he, to) == size-1 {
			gain += r.hg.EdgeWeight(he)
		}
		if r.hg.PinCountInPart(he, from) == size {
			gain -= r.hg.EdgeWeight(he)
		}
	}
	return gain
}
