package partitioner

import (
	"go.uber.org/zap"

	"github.com/lintang-b-s/hypar/pkg"
	da "github.com/lintang-b-s/hypar/pkg/datastructure"
	"github.com/lintang-b-s/hypar/pkg/metrics"
	"github.com/lintang-b-s/hypar/pkg/random"
	"github.com/lintang-b-s/hypar/pkg/util"
)

// Coarsener shrinks the hypergraph by pairwise contraction down to the
// contraction limit and later drains its history, invoking the refiner after
// every uncontraction.
type Coarsener interface {
	Coarsen(contractionLimit int)
	Uncoarsen(refiner Refiner) error
}

func NewCoarsener(hg *da.Hypergraph, cfg *Config, rnd *random.Randomizer,
	logger *zap.Logger) (Coarsener, error) {

	switch cfg.CoarseningAlgorithm {
	case pkg.COARSENING_HEAVY_FULL:
		return NewFullHeavyEdgeCoarsener(hg, cfg, rnd, logger), nil
	case pkg.COARSENING_HEAVY_PARTIAL:
		return NewHeuristicHeavyEdgeCoarsener(hg, cfg, rnd, logger), nil
	case pkg.COARSENING_HEAVY_LAZY:
		return NewLazyUpdateHeavyEdgeCoarsener(hg, cfg, rnd, logger), nil
	case pkg.COARSENING_HYPEREDGE:
		return NewHyperedgeCoarsener(hg, cfg, rnd, logger), nil
	}
	return nil, util.WrapErrorf(nil, util.ErrBadParamInput,
		"unknown coarsening algorithm %d", cfg.CoarseningAlgorithm)
}

type coarsenerBase struct {
	hg      *da.Hypergraph
	cfg     *Config
	rnd     *random.Randomizer
	rater   *Rater
	history []da.ContractionMemento
	logger  *zap.Logger
}

func newCoarsenerBase(hg *da.Hypergraph, cfg *Config, rnd *random.Randomizer,
	logger *zap.Logger) coarsenerBase {
	return coarsenerBase{
		hg:      hg,
		cfg:     cfg,
		rnd:     rnd,
		rater:   NewRater(hg, cfg, rnd),
		history: make([]da.ContractionMemento, 0, hg.InitialNumberOfNodes()),
		logger:  logger,
	}
}

func (b *coarsenerBase) contract(u, v da.HypernodeID) {
	b.history = append(b.history, b.hg.Contract(u, v))
}

// Uncoarsen pops one contraction at a time; after every uncontraction the
// refiner runs on the two affected hypernodes, repeatedly while it keeps
// improving (a negative repetition count means no limit).
func (b *coarsenerBase) Uncoarsen(refiner Refiner) error {
	bestCut := metrics.HyperedgeCut(b.hg)
	bestImbalance := metrics.Imbalance(b.hg)

	for len(b.history) > 0 {
		mem := b.history[len(b.history)-1]
		b.history = b.history[:len(b.history)-1]
		b.hg.Uncontract(mem)

		reps := refiner.NumRepetitions()
		for i := 0; reps < 0 || i < reps; i++ {
			improved, err := refiner.Refine([]da.HypernodeID{mem.U, mem.V},
				&bestCut, b.cfg.Epsilon, &bestImbalance)
			if err != nil {
				return err
			}
			if !improved {
				break
			}
		}
	}

	b.logger.Sugar().Infof("uncoarsening finished: cut=%d imbalance=%.4f",
		bestCut, bestImbalance)
	return nil
}

// reRate refreshes the queue entry of u against its current best partner.
func (b *coarsenerBase) reRate(u da.HypernodeID, pq *da.AddressablePQ[float64],
	target []da.HypernodeID) {

	rating := b.rater.Rate(u)
	if rating.Valid {
		target[u] = rating.Target
		if pq.Contains(int32(u)) {
			pq.UpdateKey(int32(u), rating.Value)
		} else {
			pq.Insert(int32(u), rating.Value)
		}
	} else if pq.Contains(int32(u)) {
		pq.Remove(int32(u))
	}
}

// rateAllNodes seeds the queue, visiting the live hypernodes in a random
// permutation so equal ratings enter in random order.
func (b *coarsenerBase) rateAllNodes(pq *da.AddressablePQ[float64], target []da.HypernodeID) {
	nodes := b.hg.Nodes()
	b.rnd.Shuffle(len(nodes), func(i, j int) {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	})
	for _, u := range nodes {
		rating := b.rater.Rate(u)
		if rating.Valid {
			target[u] = rating.Target
			pq.Insert(int32(u), rating.Value)
		}
	}
}

// pairIsEligible re-checks a cached target against the current hypergraph.
func (b *coarsenerBase) pairIsEligible(u, v da.HypernodeID) bool {
	if v == da.InvalidHypernode || !b.hg.NodeIsEnabled(v) {
		return false
	}
	if b.hg.NodeWeight(u)+b.hg.NodeWeight(v) > b.cfg.MaxAllowedNodeWeight {
		return false
	}
	if b.hg.PartID(u) != pkg.INVALID_PARTITION && b.hg.PartID(u) != b.hg.PartID(v) {
		return false
	}
	return true
}

/*
FullHeavyEdgeCoarsener re-rates the contracted node and its whole
neighborhood after every contraction, so the queue never holds a stale
entry and the globally best eligible pair is always contracted next.
*/
type FullHeavyEdgeCoarsener struct {
	coarsenerBase
}

func NewFullHeavyEdgeCoarsener(hg *da.Hypergraph, cfg *Config, rnd *random.Randomizer,
	logger *zap.Logger) *FullHeavyEdgeCoarsener {
	return &FullHeavyEdgeCoarsener{coarsenerBase: newCoarsenerBase(hg, cfg, rnd, logger)}
}

func (c *FullHeavyEdgeCoarsener) Coarsen(contractionLimit int) {
	n := c.hg.InitialNumberOfNodes()
	pq := da.NewAddressablePQ[float64](n)
	target := make([]da.HypernodeID, n)

	c.rateAllNodes(pq, target)

	for c.hg.NumberOfNodes() > contractionLimit && !pq.IsEmpty() {
		uRaw, _ := pq.DeleteMax()
		u := da.HypernodeID(uRaw)
		v := target[u]
		if !c.pairIsEligible(u, v) {
			c.reRate(u, pq, target)
			continue
		}

		c.contract(u, v)
		if pq.Contains(int32(v)) {
			pq.Remove(int32(v))
		}

		c.reRate(u, pq, target)
		c.reRateNeighbours(u, pq, target)
	}

	c.logger.Sugar().Infof("coarsening stopped at %d hypernodes (limit %d)",
		c.hg.NumberOfNodes(), contractionLimit)
}

func (c *FullHeavyEdgeCoarsener) reRateNeighbours(u da.HypernodeID,
	pq *da.AddressablePQ[float64], target []da.HypernodeID) {

	for _, heRaw := range c.hg.IncidentEdges(u) {
		he := da.HyperedgeID(heRaw)
		for _, pinRaw := range c.hg.Pins(he) {
			pin := da.HypernodeID(pinRaw)
			if pin != u {
				c.reRate(pin, pq, target)
			}
		}
	}
}

/*
HeuristicHeavyEdgeCoarsener trusts cached ratings until they are caught
invalid: a popped node whose cached partner died or grew past the weight cap
is re-rated and requeued on the spot, everything else contracts with the
cached score.
*/
type HeuristicHeavyEdgeCoarsener struct {
	coarsenerBase
}

func NewHeuristicHeavyEdgeCoarsener(hg *da.Hypergraph, cfg *Config, rnd *random.Randomizer,
	logger *zap.Logger) *HeuristicHeavyEdgeCoarsener {
	return &HeuristicHeavyEdgeCoarsener{coarsenerBase: newCoarsenerBase(hg, cfg, rnd, logger)}
}

func (c *HeuristicHeavyEdgeCoarsener) Coarsen(contractionLimit int) {
	n := c.hg.InitialNumberOfNodes()
	pq := da.NewAddressablePQ[float64](n)
	target := make([]da.HypernodeID, n)

	c.rateAllNodes(pq, target)

	for c.hg.NumberOfNodes() > contractionLimit && !pq.IsEmpty() {
		uRaw, _ := pq.DeleteMax()
		u := da.HypernodeID(uRaw)
		v := target[u]
		if !c.pairIsEligible(u, v) {
			c.reRate(u, pq, target)
			continue
		}

		c.contract(u, v)
		if pq.Contains(int32(v)) {
			pq.Remove(int32(v))
		}
		c.reRate(u, pq, target)
	}

	c.logger.Sugar().Infof("coarsening stopped at %d hypernodes (limit %d)",
		c.hg.NumberOfNodes(), contractionLimit)
}

/*
LazyUpdateHeavyEdgeCoarsener only marks the neighborhood of a contraction as
outdated; a stale entry is recomputed when (and if) it surfaces at the top of
the queue.
*/
type LazyUpdateHeavyEdgeCoarsener struct {
	coarsenerBase
	outdated []bool
}

func NewLazyUpdateHeavyEdgeCoarsener(hg *da.Hypergraph, cfg *Config, rnd *random.Randomizer,
	logger *zap.Logger) *LazyUpdateHeavyEdgeCoarsener {
	return &LazyUpdateHeavyEdgeCoarsener{
		coarsenerBase: newCoarsenerBase(hg, cfg, rnd, logger),
		outdated:      make([]bool, hg.InitialNumberOfNodes()),
	}
}

func (c *LazyUpdateHeavyEdgeCoarsener) Coarsen(contractionLimit int) {
	n := c.hg.InitialNumberOfNodes()
	pq := da.NewAddressablePQ[float64](n)
	target := make([]da.HypernodeID, n)
	for i := range c.outdated {
		c.outdated[i] = false
	}

	c.rateAllNodes(pq, target)

	for c.hg.NumberOfNodes() > contractionLimit && !pq.IsEmpty() {
		uRaw, _ := pq.DeleteMax()
		u := da.HypernodeID(uRaw)

		if c.outdated[u] || !c.pairIsEligible(u, target[u]) {
			c.outdated[u] = false
			c.reRate(u, pq, target)
			continue
		}
		v := target[u]

		c.contract(u, v)
		if pq.Contains(int32(v)) {
			pq.Remove(int32(v))
		}

		c.reRate(u, pq, target)
		c.outdated[u] = false
		c.markNeighboursOutdated(u)
	}

	c.logger.Sugar().Infof("coarsening stopped at %d hypernodes (limit %d)",
		c.hg.NumberOfNodes(), contractionLimit)
}

func (c *LazyUpdateHeavyEdgeCoarsener) markNeighboursOutdated(u da.HypernodeID) {
	for _, heRaw := range c.hg.IncidentEdges(u) {
		he := da.HyperedgeID(heRaw)
		for _, pinRaw := range c.hg.Pins(he) {
			pin := da.HypernodeID(pinRaw)
			if pin != u {
				c.outdated[pin] = true
			}
		}
	}
}
