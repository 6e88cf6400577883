package partitioner

import (
	"math"

	"go.uber.org/zap"

	"github.com/lintang-b-s/hypar/pkg"
	da "github.com/lintang-b-s/hypar/pkg/datastructure"
	"github.com/lintang-b-s/hypar/pkg/metrics"
	"github.com/lintang-b-s/hypar/pkg/random"
)

/*
GreedyGrowingInitialPartitioner grows all k blocks simultaneously from
random start nodes, always assigning the unassigned hypernode with the
globally best gain. Growth first targets perfect balance; once every block
is stuck, the bound is released to (1+eps) and growth continues. Runs
nruns trials and keeps the best cut, so no external binary is needed.
*/
type GreedyGrowingInitialPartitioner struct {
	hg     *da.Hypergraph
	cfg    *Config
	rnd    *random.Randomizer
	logger *zap.Logger
}

func NewGreedyGrowingInitialPartitioner(hg *da.Hypergraph, cfg *Config,
	rnd *random.Randomizer, logger *zap.Logger) *GreedyGrowingInitialPartitioner {
	return &GreedyGrowingInitialPartitioner{hg: hg, cfg: cfg, rnd: rnd, logger: logger}
}

func (ip *GreedyGrowingInitialPartitioner) PartitionCoarsest() error {
	nodes := ip.hg.Nodes()
	bestCut := math.MaxInt
	bestPartition := make([]da.PartitionID, len(nodes))

	for trial := 0; trial < ip.cfg.InitialPartitioningAttempts; trial++ {
		ip.hg.ResetPartitioning()
		ip.grow()

		cut := metrics.HyperedgeCut(ip.hg)
		ip.logger.Sugar().Infof("initial partitioning trial %d: cut=%d imbalance=%.4f",
			trial, cut, metrics.Imbalance(ip.hg))
		if cut < bestCut {
			bestCut = cut
			for i, u := range nodes {
				bestPartition[i] = ip.hg.PartID(u)
			}
		}
	}

	ip.hg.ResetPartitioning()
	for i, u := range nodes {
		ip.hg.SetNodePart(u, bestPartition[i])
	}
	ip.logger.Info("initial partitioning finished",
		zap.Int("cut", bestCut),
		zap.Int("attempts", ip.cfg.InitialPartitioningAttempts))
	return nil
}

func (ip *GreedyGrowingInitialPartitioner) grow() {
	hg := ip.hg
	k := ip.cfg.K

	nodes := hg.Nodes()
	ip.rnd.Shuffle(len(nodes), func(i, j int) {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	})

	kpq := da.NewKWayPriorityQueue(k, hg.InitialNumberOfNodes())
	for p := 0; p < k && p < len(nodes); p++ {
		start := nodes[p]
		kpq.Insert(int32(start), da.PartitionID(p), ip.gain(start, da.PartitionID(p)))
	}

	// grow toward perfect balance first, release to the epsilon bound once
	// every block is stuck
	bound := int(math.Ceil(float64(hg.TotalWeight()) / float64(k)))
	released := false

	assigned := 0
	for assigned < len(nodes) {
		nodeRaw, part, _, ok := kpq.Max()
		if !ok {
			if released {
				break
			}
			bound = ip.cfg.MaxPartWeight
			released = true
			for p := da.PartitionID(0); p < da.PartitionID(k); p++ {
				if kpq.Size(p) == 0 {
					ip.insertUnassignedNode(kpq, nodes, p)
				}
				kpq.EnablePart(p)
			}
			continue
		}
		node := da.HypernodeID(nodeRaw)

		if hg.PartWeight(part)+hg.NodeWeight(node) > bound {
			kpq.DisablePart(part)
			continue
		}

		kpq.RemoveFromAll(int32(node))
		hg.SetNodePart(node, part)
		assigned++

		ip.insertAndUpdateNeighbours(kpq, node, part)
		if kpq.Size(part) == 0 {
			ip.insertUnassignedNode(kpq, nodes, part)
		}
	}

	ip.assignLeftovers(nodes)
}

// gain scores assigning hn to block target: completing a hyperedge pays its
// weight, newly tearing a so-far pure hyperedge open costs it.
func (ip *GreedyGrowingInitialPartitioner) gain(hn da.HypernodeID, target da.PartitionID) int {
	hg := ip.hg
	gain := 0
	for _, heRaw := range hg.IncidentEdges(hn) {
		he := da.HyperedgeID(heRaw)
		if hg.PinCountInPart(he, target) == hg.EdgeSize(he)-1 {
			gain += hg.EdgeWeight(he)
		} else if hg.PinCountInPart(he, target) == 0 &&
			metrics.ConnectedBlocks(hg, he) == 1 {
			gain -= hg.EdgeWeight(he)
		}
	}
	return gain
}

func (ip *GreedyGrowingInitialPartitioner) insertAndUpdateNeighbours(
	kpq *da.KWayPriorityQueue, node da.HypernodeID, part da.PartitionID) {

	hg := ip.hg
	for _, heRaw := range hg.IncidentEdges(node) {
		he := da.HyperedgeID(heRaw)
		for _, pinRaw := range hg.Pins(he) {
			pin := da.HypernodeID(pinRaw)
			if hg.PartID(pin) != pkg.INVALID_PARTITION {
				continue
			}
			for p := da.PartitionID(0); p < da.PartitionID(ip.cfg.K); p++ {
				if kpq.Contains(int32(pin), p) {
					kpq.UpdateKey(int32(pin), p, ip.gain(pin, p))
				} else if p == part {
					kpq.Insert(int32(pin), p, ip.gain(pin, p))
				}
			}
		}
	}
}

func (ip *GreedyGrowingInitialPartitioner) insertUnassignedNode(
	kpq *da.KWayPriorityQueue, nodes []da.HypernodeID, part da.PartitionID) {

	for _, hn := range nodes {
		if ip.hg.PartID(hn) == pkg.INVALID_PARTITION && !kpq.Contains(int32(hn), part) {
			kpq.Insert(int32(hn), part, ip.gain(hn, part))
			return
		}
	}
}

// assignLeftovers places hypernodes that greedy growth never reached. For
// bisections the 0/1 gain comparison decides; for larger k the lightest
// block takes them.
func (ip *GreedyGrowingInitialPartitioner) assignLeftovers(nodes []da.HypernodeID) {
	hg := ip.hg
	for _, hn := range nodes {
		if hg.PartID(hn) != pkg.INVALID_PARTITION {
			continue
		}
		if ip.cfg.K == 2 {
			if ip.gain(hn, 0) > ip.gain(hn, 1) {
				hg.SetNodePart(hn, 0)
			} else {
				hg.SetNodePart(hn, 1)
			}
			continue
		}
		lightest := da.PartitionID(0)
		for p := da.PartitionID(1); p < da.PartitionID(ip.cfg.K); p++ {
			if hg.PartWeight(p) < hg.PartWeight(lightest) {
				lightest = p
			}
		}
		hg.SetNodePart(hn, lightest)
	}
}
