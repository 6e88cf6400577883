package partitioner

import (
	"go.uber.org/zap"

	"github.com/lintang-b-s/hypar/pkg"
	da "github.com/lintang-b-s/hypar/pkg/datastructure"
	"github.com/lintang-b-s/hypar/pkg/metrics"
	"github.com/lintang-b-s/hypar/pkg/random"
	"github.com/lintang-b-s/hypar/pkg/util"
)

/*
MaxGainNodeKWayFMRefiner keeps a single queue keyed by each node's best gain
over all target blocks and resolves the actual target at pop time. Stale
keys are detected on pop (gains drift as neighbors move) and repaired by
reinsertion, so the queue never needs k entries per node.
*/
type MaxGainNodeKWayFMRefiner struct {
	hg  *da.Hypergraph
	cfg *Config
	rnd *random.Randomizer

	pq             *da.AddressablePQ[int]
	marked         []bool
	performedMoves []move

	stopping StoppingPolicy
	logger   *zap.Logger

	initialized bool
}

func NewMaxGainNodeKWayFMRefiner(hg *da.Hypergraph, cfg *Config, rnd *random.Randomizer,
	logger *zap.Logger) *MaxGainNodeKWayFMRefiner {

	n := hg.InitialNumberOfNodes()
	return &MaxGainNodeKWayFMRefiner{
		hg:             hg,
		cfg:            cfg,
		rnd:            rnd,
		pq:             da.NewAddressablePQ[int](n),
		marked:         make([]bool, n),
		performedMoves: make([]move, 0, n),
		stopping: NewStoppingPolicy(cfg.StoppingRule, cfg.MaxNumberOfFruitlessMoves,
			cfg.Alpha, cfg.Beta),
		logger: logger,
	}
}

func (r *MaxGainNodeKWayFMRefiner) NumRepetitions() int {
	return r.cfg.NumRepetitions
}

func (r *MaxGainNodeKWayFMRefiner) Initialize() {
	r.initialized = true
}

// bestMove returns the highest-gain target block of hn, preferring feasible
// targets and breaking gain ties uniformly at random.
func (r *MaxGainNodeKWayFMRefiner) bestMove(hn da.HypernodeID, onlyFeasible bool) (da.PartitionID, int, bool) {
	from := r.hg.PartID(hn)
	bestTarget := da.PartitionID(pkg.INVALID_PARTITION)
	bestGain := 0
	numTies := 0
	found := false
	for to := da.PartitionID(0); to < da.PartitionID(r.cfg.K); to++ {
		if to == from {
			continue
		}
		if onlyFeasible && r.hg.PartWeight(to)+r.hg.NodeWeight(hn) > r.cfg.MaxPartWeight {
			continue
		}
		gain := r.gainTo(hn, to)
		if !found || gain > bestGain {
			bestTarget = to
			bestGain = gain
			numTies = 1
			found = true
		} else if gain == bestGain {
			numTies++
			if r.rnd.Intn(numTies) == 0 {
				bestTarget = to
			}
		}
	}
	return bestTarget, bestGain, found
}

func (r *MaxGainNodeKWayFMRefiner) gainTo(hn da.HypernodeID, to da.PartitionID) int {
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

func (r *MaxGainNodeKWayFMRefiner) activate(hn da.HypernodeID) {
	if r.marked[hn] || !r.hg.IsBorderNode(hn) {
		return
	}
	if _, gain, ok := r.bestMove(hn, false); ok {
		r.pq.Insert(int32(hn), gain)
	}
}

func (r *MaxGainNodeKWayFMRefiner) Refine(seeds []da.HypernodeID, bestCut *int,
	maxImbalance float64, bestImbalance *float64) (bool, error) {

	if !r.initialized {
		return false, util.WrapErrorf(nil, util.ErrBadParamInput,
			"Initialize must be called before Refine")
	}

	r.pq.Clear()
	for i := range r.marked {
		r.marked[i] = false
	}
	for _, seed := range seeds {
		if !r.pq.Contains(int32(seed)) {
			r.activate(seed)
		}
	}

	initialCut := *bestCut
	initialImbalance := *bestImbalance
	cut := *bestCut
	minCutIndex := -1

	r.performedMoves = r.performedMoves[:0]
	maxNumberOfMoves := r.hg.NumberOfNodes()
	r.stopping.InitSearch()

	for len(r.performedMoves) < maxNumberOfMoves {
		if r.pq.IsEmpty() || r.stopping.SearchShouldStop() {
			break
		}
		nodeRaw, poppedGain := r.pq.DeleteMax()
		node := da.HypernodeID(nodeRaw)

		to, gain, ok := r.bestMove(node, true)
		if !ok {
			// no balance-preserving target right now; drop the node from
			// this pass
			continue
		}
		if gain != poppedGain {
			// stale key: repair and reconsider
			r.pq.Insert(int32(node), gain)
			continue
		}

		from := r.hg.PartID(node)
		r.hg.ChangeNodePart(node, from, to)
		r.marked[node] = true

		cut -= gain
		r.stopping.MoveAccepted(gain)
		imbalance := metrics.Imbalance(r.hg)

		r.updateNeighbours(node)

		improvedCutWithinBalance := cut < *bestCut && imbalance <= maxImbalance
		improvedBalanceLessEqualCut := imbalance < *bestImbalance && cut <= *bestCut
		if improvedCutWithinBalance || improvedBalanceLessEqualCut {
			*bestImbalance = imbalance
			*bestCut = cut
			minCutIndex = len(r.performedMoves)
			r.stopping.Improvement()
		}
		r.performedMoves = append(r.performedMoves, move{node: node, from: from, to: to})
	}

	r.rollback(len(r.performedMoves)-1, minCutIndex)

	util.AssertPanic(*bestCut == metrics.HyperedgeCut(r.hg), "incorrect rollback operation")

	return improvementFound(*bestCut, initialCut, *bestImbalance, initialImbalance,
		maxImbalance), nil
}

func (r *MaxGainNodeKWayFMRefiner) updateNeighbours(movedNode da.HypernodeID) {
	for _, heRaw := range r.hg.IncidentEdges(movedNode) {
		he := da.HyperedgeID(heRaw)
		for _, pinRaw := range r.hg.Pins(he) {
			pin := da.HypernodeID(pinRaw)
			if pin == movedNode || r.marked[pin] {
				continue
			}
			if r.pq.Contains(int32(pin)) {
				if r.hg.IsBorderNode(pin) {
					if _, gain, ok := r.bestMove(pin, false); ok {
						r.pq.UpdateKey(int32(pin), gain)
					}
				} else {
					r.pq.Remove(int32(pin))
				}
			} else {
				r.activate(pin)
			}
		}
	}
}

func (r *MaxGainNodeKWayFMRefiner) rollback(lastIndex, minCutIndex int) {
	for lastIndex != minCutIndex {
		m := r.performedMoves[lastIndex]
		r.hg.ChangeNodePart(m.node, m.to, m.from)
		lastIndex--
	}
}
