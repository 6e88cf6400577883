package partitioner

import (
	"go.uber.org/zap"

	da "github.com/lintang-b-s/hypar/pkg/datastructure"
	"github.com/lintang-b-s/hypar/pkg/metrics"
	"github.com/lintang-b-s/hypar/pkg/random"
	"github.com/lintang-b-s/hypar/pkg/util"
)

type move struct {
	node da.HypernodeID
	from da.PartitionID
	to   da.PartitionID
}

/*
KWayFMRefiner generalizes FM local search to k blocks: every active border
node holds one gain entry per target block, and the next move is the global
maximum over all enabled target queues. A target whose block would overflow
is disabled instead of popped; all targets are re-enabled after each
successful move, since block weights changed.
*/
type KWayFMRefiner struct {
	hg  *da.Hypergraph
	cfg *Config
	rnd *random.Randomizer

	pq             *da.KWayPriorityQueue
	marked         []bool
	performedMoves []move

	stopping StoppingPolicy
	logger   *zap.Logger

	initialized bool
}

func NewKWayFMRefiner(hg *da.Hypergraph, cfg *Config, rnd *random.Randomizer,
	logger *zap.Logger) *KWayFMRefiner {

	n := hg.InitialNumberOfNodes()
	return &KWayFMRefiner{
		hg:             hg,
		cfg:            cfg,
		rnd:            rnd,
		pq:             da.NewKWayPriorityQueue(cfg.K, n),
		marked:         make([]bool, n),
		performedMoves: make([]move, 0, n),
		stopping: NewStoppingPolicy(cfg.StoppingRule, cfg.MaxNumberOfFruitlessMoves,
			cfg.Alpha, cfg.Beta),
		logger: logger,
	}
}

func (r *KWayFMRefiner) NumRepetitions() int {
	return r.cfg.NumRepetitions
}

func (r *KWayFMRefiner) Initialize() {
	r.initialized = true
}

// gainTo is the cut change of moving hn into block to: hyperedges that would
// become internal pay off, internal hyperedges that would be torn open cost.
func (r *KWayFMRefiner) gainTo(hn da.HypernodeID, to da.PartitionID) int {
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

func (r *KWayFMRefiner) activate(hn da.HypernodeID) {
	if r.marked[hn] || !r.hg.IsBorderNode(hn) {
		return
	}
	from := r.hg.PartID(hn)
	for to := da.PartitionID(0); to < da.PartitionID(r.cfg.K); to++ {
		if to == from {
			continue
		}
		r.pq.Insert(int32(hn), to, r.gainTo(hn, to))
	}
}

func (r *KWayFMRefiner) deactivate(hn da.HypernodeID) {
	r.pq.RemoveFromAll(int32(hn))
}

func (r *KWayFMRefiner) Refine(seeds []da.HypernodeID, bestCut *int,
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
		if !r.pq.ContainsAny(int32(seed)) {
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
		if r.stopping.SearchShouldStop() {
			break
		}
		nodeRaw, to, gain, ok := r.pq.Max()
		if !ok {
			break
		}
		node := da.HypernodeID(nodeRaw)

		if r.hg.PartWeight(to)+r.hg.NodeWeight(node) > r.cfg.MaxPartWeight {
			// overweight target: take it out of the running until the next
			// successful move changes the block weights
			r.pq.DisablePart(to)
			continue
		}

		from := r.hg.PartID(node)
		r.deactivate(node)
		r.hg.ChangeNodePart(node, from, to)
		r.marked[node] = true

		cut -= gain
		r.stopping.MoveAccepted(gain)
		imbalance := metrics.Imbalance(r.hg)

		for p := da.PartitionID(0); p < da.PartitionID(r.cfg.K); p++ {
			r.pq.EnablePart(p)
		}
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

// updateNeighbours refreshes the gain entries of every unmarked pin around
// the moved node. Gains are recomputed from the pin counts; nodes that
// stopped being border nodes drop out of the queues.
func (r *KWayFMRefiner) updateNeighbours(movedNode da.HypernodeID) {
	for _, heRaw := range r.hg.IncidentEdges(movedNode) {
		he := da.HyperedgeID(heRaw)
		for _, pinRaw := range r.hg.Pins(he) {
			pin := da.HypernodeID(pinRaw)
			if pin == movedNode || r.marked[pin] {
				continue
			}
			if r.pq.ContainsAny(int32(pin)) {
				if r.hg.IsBorderNode(pin) {
					from := r.hg.PartID(pin)
					for to := da.PartitionID(0); to < da.PartitionID(r.cfg.K); to++ {
						if to == from {
							continue
						}
						if r.pq.Contains(int32(pin), to) {
							r.pq.UpdateKey(int32(pin), to, r.gainTo(pin, to))
						}
					}
				} else {
					r.deactivate(pin)
				}
			} else {
				r.activate(pin)
			}
		}
	}
}

func (r *KWayFMRefiner) rollback(lastIndex, minCutIndex int) {
	for lastIndex != minCutIndex {
		m := r.performedMoves[lastIndex]
		r.hg.ChangeNodePart(m.node, m.to, m.from)
		lastIndex--
	}
}
