package partitioner

import (
	"go.uber.org/zap"

	da "github.com/lintang-b-s/hypar/pkg/datastructure"
	"github.com/lintang-b-s/hypar/pkg/metrics"
	"github.com/lintang-b-s/hypar/pkg/random"
	"github.com/lintang-b-s/hypar/pkg/util"
)

/*
HyperedgeFMRefiner moves whole hyperedges instead of single nodes: popping
hyperedge e from queue b drags every pin of e into block b. Gains account
for all hyperedges sharing a pin with e, so a single move can heal several
cut edges at once. Works on bisections only.
*/
type HyperedgeFMRefiner struct {
	hg  *da.Hypergraph
	cfg *Config
	rnd *random.Randomizer

	pq     [2]*da.AddressablePQ[int]
	marked []bool // by hyperedge

	performedMoves []move // individual pin moves, for rollback

	stopping StoppingPolicy
	clogging CloggingPolicy
	logger   *zap.Logger

	initialized bool
}

func NewHyperedgeFMRefiner(hg *da.Hypergraph, cfg *Config, rnd *random.Randomizer,
	logger *zap.Logger) *HyperedgeFMRefiner {

	m := hg.InitialNumberOfEdges()
	return &HyperedgeFMRefiner{
		hg:  hg,
		cfg: cfg,
		rnd: rnd,
		pq: [2]*da.AddressablePQ[int]{
			da.NewAddressablePQ[int](m),
			da.NewAddressablePQ[int](m),
		},
		marked:         make([]bool, m),
		performedMoves: make([]move, 0, hg.InitialNumberOfNodes()),
		stopping: NewStoppingPolicy(cfg.HerFMStoppingRule, cfg.HerFMMaxNumberOfFruitlessMoves,
			cfg.Alpha, cfg.Beta),
		clogging: NewCloggingPolicy(cfg.HerFMCloggingRule),
		logger:   logger,
	}
}

func (r *HyperedgeFMRefiner) NumRepetitions() int {
	return r.cfg.HerFMNumRepetitions
}

func (r *HyperedgeFMRefiner) Initialize() {
	r.initialized = true
}

func (r *HyperedgeFMRefiner) isCut(he da.HyperedgeID) bool {
	return r.hg.PinCountInPart(he, 0) > 0 && r.hg.PinCountInPart(he, 1) > 0
}

// gainOfMove is the cut change of pulling every pin of e into block to,
// summed over all hyperedges that share at least one moved pin.
func (r *HyperedgeFMRefiner) gainOfMove(e da.HyperedgeID, to da.PartitionID) int {
	from := to ^ 1
	movedCount := make(map[da.HyperedgeID]int)
	for _, pinRaw := range r.hg.Pins(e) {
		pin := da.HypernodeID(pinRaw)
		if r.hg.PartID(pin) != from {
			continue
		}
		for _, he := range r.hg.IncidentEdges(pin) {
			movedCount[da.HyperedgeID(he)]++
		}
	}

	gain := 0
	for f, moved := range movedCount {
		nTo := r.hg.PinCountInPart(f, to)
		nFrom := r.hg.PinCountInPart(f, from)
		beforeCut := nTo > 0 && nFrom > 0
		afterCut := nTo+moved > 0 && nFrom-moved > 0
		if beforeCut && !afterCut {
			gain += r.hg.EdgeWeight(f)
		} else if !beforeCut && afterCut {
			gain -= r.hg.EdgeWeight(f)
		}
	}
	return gain
}

// movedWeight is the node weight that a move of e into to would add to
// block to.
func (r *HyperedgeFMRefiner) movedWeight(e da.HyperedgeID, to da.PartitionID) int {
	weight := 0
	for _, pinRaw := range r.hg.Pins(e) {
		pin := da.HypernodeID(pinRaw)
		if r.hg.PartID(pin) != to {
			weight += r.hg.NodeWeight(pin)
		}
	}
	return weight
}

func (r *HyperedgeFMRefiner) movePreservesBalance(e da.HyperedgeID, to da.PartitionID) bool {
	return r.hg.PartWeight(to)+r.movedWeight(e, to) <= r.cfg.MaxPartWeight
}

func (r *HyperedgeFMRefiner) activateIncidentCutHyperedges(hn da.HypernodeID) {
	for _, heRaw := range r.hg.IncidentEdges(hn) {
		he := da.HyperedgeID(heRaw)
		if r.marked[he] || !r.isCut(he) {
			continue
		}
		if !r.pq[0].Contains(int32(he)) {
			r.pq[0].Insert(int32(he), r.gainOfMove(he, 0))
		}
		if !r.pq[1].Contains(int32(he)) {
			r.pq[1].Insert(int32(he), r.gainOfMove(he, 1))
		}
	}
}

func (r *HyperedgeFMRefiner) Refine(seeds []da.HypernodeID, bestCut *int,
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
		r.activateIncidentCutHyperedges(seed)
	}

	initialCut := *bestCut
	initialImbalance := *bestImbalance
	cut := *bestCut
	minCutIndex := -1

	r.performedMoves = r.performedMoves[:0]
	numHeMoves := 0
	maxNumberOfMoves := r.hg.NumberOfEdges()
	r.stopping.InitSearch()

	for numHeMoves < maxNumberOfMoves {
		if (r.pq[0].IsEmpty() && r.pq[1].IsEmpty()) || r.stopping.SearchShouldStop() {
			break
		}

		pq0Eligible := !r.pq[0].IsEmpty() &&
			r.movePreservesBalance(da.HyperedgeID(r.pq[0].Max()), 0)
		pq1Eligible := !r.pq[1].IsEmpty() &&
			r.movePreservesBalance(da.HyperedgeID(r.pq[1].Max()), 1)

		if r.clogging.RemoveCloggingEntries(pq0Eligible, pq1Eligible, r.pq[0], r.pq[1]) {
			continue
		}
		if !pq0Eligible && !pq1Eligible {
			break
		}

		to := da.PartitionID(r.selectQueue(pq0Eligible, pq1Eligible))
		heRaw, _ := r.pq[to].DeleteMax()
		he := da.HyperedgeID(heRaw)
		// queue keys can lag behind moves two hops away; settle the gain
		// against the current pin counts before applying the move
		gain := r.gainOfMove(he, to)
		if r.pq[to^1].Contains(int32(he)) {
			r.pq[to^1].Remove(int32(he))
		}
		r.marked[he] = true

		r.moveAllPins(he, to)

		cut -= gain
		r.stopping.MoveAccepted(gain)
		numHeMoves++
		imbalance := metrics.Imbalance(r.hg)

		util.AssertPanic(cut == metrics.HyperedgeCut(r.hg),
			"hyperedge move gain does not match the recomputed cut")

		improvedCutWithinBalance := cut < *bestCut && imbalance <= maxImbalance
		improvedBalanceLessEqualCut := imbalance < *bestImbalance && cut <= *bestCut
		if improvedCutWithinBalance || improvedBalanceLessEqualCut {
			*bestImbalance = imbalance
			*bestCut = cut
			// pin moves of this hyperedge are already recorded; keep them
			minCutIndex = len(r.performedMoves) - 1
			r.stopping.Improvement()
		}
	}

	r.rollback(len(r.performedMoves)-1, minCutIndex)

	util.AssertPanic(*bestCut == metrics.HyperedgeCut(r.hg), "incorrect rollback operation")

	return improvementFound(*bestCut, initialCut, *bestImbalance, initialImbalance,
		maxImbalance), nil
}

func (r *HyperedgeFMRefiner) selectQueue(pq0Eligible, pq1Eligible bool) int {
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

// moveAllPins drags the pins of he into block to, recording every pin move
// for rollback, and refreshes the gains of all touched hyperedges.
func (r *HyperedgeFMRefiner) moveAllPins(he da.HyperedgeID, to da.PartitionID) {
	from := to ^ 1
	movedPins := make([]da.HypernodeID, 0, r.hg.EdgeSize(he))
	for _, pinRaw := range r.hg.Pins(he) {
		pin := da.HypernodeID(pinRaw)
		if r.hg.PartID(pin) == from {
			movedPins = append(movedPins, pin)
		}
	}
	for _, pin := range movedPins {
		r.hg.ChangeNodePart(pin, from, to)
		r.performedMoves = append(r.performedMoves, move{node: pin, from: from, to: to})
	}

	for _, pin := range movedPins {
		for _, fRaw := range r.hg.IncidentEdges(pin) {
			f := da.HyperedgeID(fRaw)
			if r.marked[f] {
				continue
			}
			if r.isCut(f) {
				for b := da.PartitionID(0); b < 2; b++ {
					if r.pq[b].Contains(int32(f)) {
						r.pq[b].UpdateKey(int32(f), r.gainOfMove(f, b))
					} else {
						r.pq[b].Insert(int32(f), r.gainOfMove(f, b))
					}
				}
			} else {
				for b := da.PartitionID(0); b < 2; b++ {
					if r.pq[b].Contains(int32(f)) {
						r.pq[b].Remove(int32(f))
					}
				}
			}
		}
	}
}

func (r *HyperedgeFMRefiner) rollback(lastIndex, minCutIndex int) {
	for lastIndex != minCutIndex {
		m := r.performedMoves[lastIndex]
		r.hg.ChangeNodePart(m.node, m.to, m.from)
		lastIndex--
	}
}
