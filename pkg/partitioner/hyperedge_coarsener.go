package partitioner

import (
	"go.uber.org/zap"

	"github.com/lintang-b-s/hypar/pkg"
	da "github.com/lintang-b-s/hypar/pkg/datastructure"
	"github.com/lintang-b-s/hypar/pkg/random"
)

/*
HyperedgeCoarsener contracts entire hyperedges: all pins of the popped edge
coalesce into its first pin. Edges are scored by

	score(e) = w(e) / (sum_{pin} c(pin) * (|e| - 1))

and processed in descending score order; a score that went stale (pin
weights change as edges around it collapse) is refreshed lazily when the
edge reaches the top of the queue.
*/
type HyperedgeCoarsener struct {
	coarsenerBase
}

func NewHyperedgeCoarsener(hg *da.Hypergraph, cfg *Config, rnd *random.Randomizer,
	logger *zap.Logger) *HyperedgeCoarsener {
	return &HyperedgeCoarsener{coarsenerBase: newCoarsenerBase(hg, cfg, rnd, logger)}
}

func (c *HyperedgeCoarsener) Coarsen(contractionLimit int) {
	pq := da.NewAddressablePQ[float64](c.hg.InitialNumberOfEdges())

	edges := c.hg.Edges()
	c.rnd.Shuffle(len(edges), func(i, j int) {
		edges[i], edges[j] = edges[j], edges[i]
	})
	for _, e := range edges {
		if score, ok := c.score(e); ok {
			pq.Insert(int32(e), score)
		}
	}

	for c.hg.NumberOfNodes() > contractionLimit && !pq.IsEmpty() {
		eRaw, key := pq.DeleteMax()
		e := da.HyperedgeID(eRaw)

		score, ok := c.score(e)
		if !ok {
			continue
		}
		if score != key {
			pq.Insert(int32(e), score)
			continue
		}

		rep := c.contractWholeHyperedge(e, contractionLimit)
		c.updateIncidentScores(rep, pq)
	}

	c.logger.Sugar().Infof("hyperedge coarsening stopped at %d hypernodes (limit %d)",
		c.hg.NumberOfNodes(), contractionLimit)
}

// score rejects edges that are too large, span blocks, or would exceed the
// coarsening weight cap when collapsed.
func (c *HyperedgeCoarsener) score(e da.HyperedgeID) (float64, bool) {
	size := c.hg.EdgeSize(e)
	if size < 2 {
		return 0, false
	}
	if c.cfg.HyperedgeSizeThreshold >= 0 && size > c.cfg.HyperedgeSizeThreshold {
		return 0, false
	}

	pins := c.hg.Pins(e)
	part := c.hg.PartID(da.HypernodeID(pins[0]))
	totalPinWeight := 0
	for _, pinRaw := range pins {
		pin := da.HypernodeID(pinRaw)
		if part != pkg.INVALID_PARTITION && c.hg.PartID(pin) != part {
			return 0, false
		}
		totalPinWeight += c.hg.NodeWeight(pin)
	}
	if totalPinWeight > c.cfg.MaxAllowedNodeWeight {
		return 0, false
	}

	return float64(c.hg.EdgeWeight(e)) / (float64(totalPinWeight) * float64(size-1)), true
}

// contractWholeHyperedge merges every pin into the first one, one memento
// per contraction, stopping early if the contraction limit is reached.
func (c *HyperedgeCoarsener) contractWholeHyperedge(e da.HyperedgeID,
	contractionLimit int) da.HypernodeID {

	pinsLive := c.hg.Pins(e)
	pins := make([]da.HypernodeID, 0, len(pinsLive))
	for _, pin := range pinsLive {
		pins = append(pins, da.HypernodeID(pin))
	}

	rep := pins[0]
	for _, v := range pins[1:] {
		if c.hg.NumberOfNodes() <= contractionLimit {
			break
		}
		c.contract(rep, v)
	}
	return rep
}

func (c *HyperedgeCoarsener) updateIncidentScores(rep da.HypernodeID,
	pq *da.AddressablePQ[float64]) {

	for _, heRaw := range c.hg.IncidentEdges(rep) {
		he := da.HyperedgeID(heRaw)
		if score, ok := c.score(he); ok {
			if pq.Contains(int32(he)) {
				pq.UpdateKey(int32(he), score)
			} else {
				pq.Insert(int32(he), score)
			}
		} else if pq.Contains(int32(he)) {
			pq.Remove(int32(he))
		}
	}
}
