package partitioner

import (
	"fmt"

	"go.uber.org/zap"

	da "github.com/lintang-b-s/hypar/pkg/datastructure"
	"github.com/lintang-b-s/hypar/pkg/metrics"
	"github.com/lintang-b-s/hypar/pkg/random"
	"github.com/lintang-b-s/hypar/pkg/util"
)

/*
TwoWayFMRefiner is move-based local search for bisections. It keeps one
addressable queue per block, keyed by the gain of moving the node across,
activates only border nodes, and after every move pushes delta-gain updates
to the moved node's neighborhood instead of recomputing gains from scratch.
A pass ends when the queues run dry or the stopping policy gives up; the
move sequence is then rolled back to the prefix with the best observed cut.
*/
type TwoWayFMRefiner struct {
	hg  *da.Hypergraph
	cfg *Config
	rnd *random.Randomizer

	pq             [2]*da.AddressablePQ[int]
	marked         []bool
	justActivated  []bool
	performedMoves []da.HypernodeID

	stopping StoppingPolicy
	logger   *zap.Logger

	initialized bool
}

func NewTwoWayFMRefiner(hg *da.Hypergraph, cfg *Config, rnd *random.Randomizer,
	logger *zap.Logger) *TwoWayFMRefiner {

	n := hg.InitialNumberOfNodes()
	return &TwoWayFMRefiner{
		hg:  hg,
		cfg: cfg,
		rnd: rnd,
		pq: [2]*da.AddressablePQ[int]{
			da.NewAddressablePQ[int](n),
			da.NewAddressablePQ[int](n),
		},
		marked:         make([]bool, n),
		justActivated:  make([]bool, n),
		performedMoves: make([]da.HypernodeID, 0, n),
		stopping: NewStoppingPolicy(cfg.StoppingRule, cfg.MaxNumberOfFruitlessMoves,
			cfg.Alpha, cfg.Beta),
		logger: logger,
	}
}

func (r *TwoWayFMRefiner) NumRepetitions() int {
	return r.cfg.NumRepetitions
}

func (r *TwoWayFMRefiner) Initialize() {
	r.initialized = true
}

func (r *TwoWayFMRefiner) activate(hn da.HypernodeID) {
	if r.hg.IsBorderNode(hn) {
		util.AssertPanic(!r.marked[hn],
			fmt.Sprintf("hypernode %d is already marked", hn))
		r.pq[r.hg.PartID(hn)].Insert(int32(hn), r.computeGain(hn))
	}
}

func (r *TwoWayFMRefiner) Refine(seeds []da.HypernodeID, bestCut *int,
	maxImbalance float64, bestImbalance *float64) (bool, error) {

	if !r.initialized {
		return false, util.WrapErrorf(nil, util.ErrBadParamInput,
			"Initialize must be called before Refine")
	}

	r.pq[0].Clear()
	r.pq[1].Clear()
	for i := range r.marked {
		r.marked[i] = false
	}

	for _, seed := range seeds {
		if !r.pq[r.hg.PartID(seed)].Contains(int32(seed)) {
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
		if (r.pq[0].IsEmpty() && r.pq[1].IsEmpty()) || r.stopping.SearchShouldStop() {
			break
		}

		pq0Eligible := !r.pq[0].IsEmpty() && r.movePreservesBalance(da.HypernodeID(r.pq[0].Max()), 1)
		pq1Eligible := !r.pq[1].IsEmpty() && r.movePreservesBalance(da.HypernodeID(r.pq[1].Max()), 0)
		if !pq0Eligible && !pq1Eligible {
			break
		}

		from := r.selectQueue(pq0Eligible, pq1Eligible)
		to := from ^ 1
		maxGainRaw, maxGain := r.pq[from].DeleteMax()
		maxGainNode := da.HypernodeID(maxGainRaw)

		util.AssertPanic(!r.marked[maxGainNode],
			fmt.Sprintf("hypernode %d is marked and not eligible to be moved", maxGainNode))

		r.moveHypernode(maxGainNode, da.PartitionID(from), da.PartitionID(to))

		cut -= maxGain
		r.stopping.MoveAccepted(maxGain)
		imbalance := metrics.Imbalance(r.hg)

		r.updateNeighbours(maxGainNode, da.PartitionID(from), da.PartitionID(to))

		improvedCutWithinBalance := cut < *bestCut && imbalance <= maxImbalance
		improvedBalanceLessEqualCut := imbalance < *bestImbalance && cut <= *bestCut
		if improvedCutWithinBalance || improvedBalanceLessEqualCut {
			*bestImbalance = imbalance
			*bestCut = cut
			minCutIndex = len(r.performedMoves)
			r.stopping.Improvement()
		}
		r.performedMoves = append(r.performedMoves, maxGainNode)
	}

	r.rollback(len(r.performedMoves)-1, minCutIndex)

	util.AssertPanic(*bestCut == metrics.HyperedgeCut(r.hg), "incorrect rollback operation")
	util.AssertPanic(*bestCut <= initialCut, "cut quality decreased during refinement")

	return improvementFound(*bestCut, initialCut, *bestImbalance, initialImbalance,
		maxImbalance), nil
}

// selectQueue picks the eligible queue with the larger max gain, flipping a
// coin on ties.
func (r *TwoWayFMRefiner) selectQueue(pq0Eligible, pq1Eligible bool) int {
	if pq0Eligible && pq1Eligible {
		if r.pq[0].MaxKey() > r.pq[1].MaxKey() {
			return 0
		}
		if r.pq[1].MaxKey() > r.pq[0].MaxKey() {
			return 1
		}
		if r.rnd.FlipCoin() {
			return 1
		}
		return 0
	}
	if pq1Eligible {
		return 1
	}
	return 0
}

func (r *TwoWayFMRefiner) movePreservesBalance(hn da.HypernodeID, to da.PartitionID) bool {
	return r.hg.PartWeight(to)+r.hg.NodeWeight(hn) <= r.cfg.MaxPartWeight
}

func (r *TwoWayFMRefiner) moveHypernode(hn da.HypernodeID, from, to da.PartitionID) {
	r.hg.ChangeNodePart(hn, from, to)
	r.marked[hn] = true
}

// updateNeighbours applies the delta-gain rules for a move into block `to`.
// For each incident hyperedge the pin counts before and after the move
// determine which pins gain or lose incentive to move.
func (r *TwoWayFMRefiner) updateNeighbours(movedNode da.HypernodeID, from, to da.PartitionID) {
	for i := range r.justActivated {
		r.justActivated[i] = false
	}
	for _, heRaw := range r.hg.IncidentEdges(movedNode) {
		he := da.HyperedgeID(heRaw)
		newSize0 := r.hg.PinCountInPart(he, 0)
		newSize1 := r.hg.PinCountInPart(he, 1)
		oldSize0 := newSize0 + delta(to == 0)
		oldSize1 := newSize1 + delta(to == 1)

		if r.hg.EdgeSize(he) == 2 {
			// the edge flipped between internal and cut, which changes the
			// other pin's gain by the full 2w
			sign := -2
			if newSize0 == 1 {
				sign = 2
			}
			r.updatePinsOfHyperedge(he, sign)
		} else if increasedFrom0To1(oldSize0, newSize0, oldSize1, newSize1) {
			r.updatePinsOfHyperedge(he, 1)
		} else if decreasedFrom1To0(oldSize0, newSize0, oldSize1, newSize1) {
			r.updatePinsOfHyperedge(he, -1)
		} else if decreasedFrom2To1(oldSize0, newSize0, oldSize1, newSize1) {
			// the lone remaining pin of `from` can now pull the edge out of
			// the cut; for three-pin edges the pin in `to` also loses w
			if r.hg.EdgeSize(he) == 3 {
				r.updatePinsOfHyperedgeConditional(he, 1, -1, from)
			} else {
				r.updatePinsOfHyperedgeConditional(he, 1, 0, from)
			}
		} else if increasedFrom1To2(oldSize0, newSize0, oldSize1, newSize1) {
			r.updatePinsOfHyperedgeConditional(he, -1, 0, to)
		}
	}
}

func delta(movedHere bool) int {
	if movedHere {
		return -1
	}
	return 1
}

func increasedFrom0To1(oldSize0, newSize0, oldSize1, newSize1 int) bool {
	return (oldSize0 == 0 && newSize0 == 1) || (oldSize1 == 0 && newSize1 == 1)
}

func decreasedFrom1To0(oldSize0, newSize0, oldSize1, newSize1 int) bool {
	return (oldSize0 == 1 && newSize0 == 0) || (oldSize1 == 1 && newSize1 == 0)
}

func decreasedFrom2To1(oldSize0, newSize0, oldSize1, newSize1 int) bool {
	return (oldSize0 == 2 && newSize0 == 1) || (oldSize1 == 2 && newSize1 == 1)
}

func increasedFrom1To2(oldSize0, newSize0, oldSize1, newSize1 int) bool {
	return (oldSize0 == 1 && newSize0 == 2) || (oldSize1 == 1 && newSize1 == 2)
}

func (r *TwoWayFMRefiner) updatePinsOfHyperedge(he da.HyperedgeID, sign int) {
	for _, pin := range r.hg.Pins(he) {
		r.updatePin(he, da.HypernodeID(pin), sign)
	}
}

func (r *TwoWayFMRefiner) updatePinsOfHyperedgeConditional(he da.HyperedgeID,
	sign1, sign2 int, compare da.PartitionID) {
	for _, pin := range r.hg.Pins(he) {
		sign := sign2
		if r.hg.PartID(da.HypernodeID(pin)) == compare {
			sign = sign1
		}
		r.updatePin(he, da.HypernodeID(pin), sign)
	}
}

func (r *TwoWayFMRefiner) updatePin(he da.HyperedgeID, pin da.HypernodeID, sign int) {
	part := r.hg.PartID(pin)
	if r.pq[part].Contains(int32(pin)) {
		util.AssertPanic(!r.marked[pin],
			fmt.Sprintf("trying to update marked hypernode %d", pin))
		if r.hg.IsBorderNode(pin) {
			if !r.justActivated[pin] {
				oldGain := r.pq[part].Key(int32(pin))
				r.pq[part].UpdateKey(int32(pin), oldGain+sign*r.hg.EdgeWeight(he))
			}
		} else {
			r.pq[part].Remove(int32(pin))
		}
	} else if !r.marked[pin] {
		// border node check is performed in activate
		r.activate(pin)
		r.justActivated[pin] = true
	}
}

func (r *TwoWayFMRefiner) rollback(lastIndex, minCutIndex int) {
	for lastIndex != minCutIndex {
		hn := r.performedMoves[lastIndex]
		from := r.hg.PartID(hn)
		r.hg.ChangeNodePart(hn, from, from^1)
		lastIndex--
	}
}

// computeGain is the from-scratch gain of moving hn across the bisection.
func (r *TwoWayFMRefiner) computeGain(hn da.HypernodeID) int {
	gain := 0
	targetPart := r.hg.PartID(hn) ^ 1
	for _, heRaw := range r.hg.IncidentEdges(hn) {
		he := da.HyperedgeID(heRaw)
		if r.hg.PinCountInPart(he, targetPart) == 0 {
			gain -= r.hg.EdgeWeight(he)
		} else if r.hg.PinCountInPart(he, r.hg.PartID(hn)) == 1 {
			gain += r.hg.EdgeWeight(he)
		}
	}
	return gain
}
