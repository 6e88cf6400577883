package partitioner

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	da "github.com/lintang-b-s/hypar/pkg/datastructure"
	"github.com/lintang-b-s/hypar/pkg/metrics"
	"github.com/lintang-b-s/hypar/pkg/random"
	"github.com/lintang-b-s/hypar/pkg/util"
)

type parallelFold struct {
	representative da.HyperedgeID
	removed        da.HyperedgeID
	removedWeight  int
}

/*
Partitioner is the multilevel driver: coarsen, partition the coarsest
hypergraph, uncoarsen with refinement, then run the configured number of
v-cycles on the partitioned hypergraph. During v-cycles the rater refuses
cross-block pairs, so contractions never merge blocks.
*/
type Partitioner struct {
	hg     *da.Hypergraph
	cfg    *Config
	rnd    *random.Randomizer
	logger *zap.Logger

	folds []parallelFold
}

func NewPartitioner(hg *da.Hypergraph, cfg *Config, rnd *random.Randomizer,
	logger *zap.Logger) *Partitioner {
	return &Partitioner{hg: hg, cfg: cfg, rnd: rnd, logger: logger}
}

func (p *Partitioner) PerformDirectKWayPartitioning() error {
	coarsener, err := NewCoarsener(p.hg, p.cfg, p.rnd, p.logger)
	if err != nil {
		return err
	}
	refiner, err := NewRefiner(p.hg, p.cfg, p.rnd, p.logger)
	if err != nil {
		return err
	}

	if p.cfg.InitialParallelHERemoval {
		removed := p.removeParallelHyperedges()
		p.logger.Sugar().Infof("removed %d parallel hyperedges", removed)
	}

	p.logger.Info("coarsening",
		zap.Int("hypernodes", p.hg.NumberOfNodes()),
		zap.Int("contraction_limit", p.cfg.ContractionLimit))
	coarsener.Coarsen(p.cfg.ContractionLimit)

	initialPartitioner := NewInitialPartitioner(p.hg, p.cfg, p.rnd, p.logger)
	if err := initialPartitioner.PartitionCoarsest(); err != nil {
		return err
	}

	refiner.Initialize()
	if err := coarsener.Uncoarsen(refiner); err != nil {
		return err
	}

	for cycle := 1; cycle <= p.cfg.GlobalSearchIterations; cycle++ {
		coarsener.Coarsen(p.cfg.ContractionLimit)
		refiner.Initialize()
		if err := coarsener.Uncoarsen(refiner); err != nil {
			return err
		}
		p.logger.Sugar().Infof("v-cycle %d: cut=%d imbalance=%.4f",
			cycle, metrics.HyperedgeCut(p.hg), metrics.Imbalance(p.hg))
	}

	if p.cfg.InitialParallelHERemoval {
		p.restoreParallelHyperedges()
	}

	p.logger.Info("partitioning finished",
		zap.Int("cut", metrics.HyperedgeCut(p.hg)),
		zap.Float64("imbalance", metrics.Imbalance(p.hg)))
	return nil
}

func pinFingerprint(hg *da.Hypergraph, e da.HyperedgeID) string {
	pins := make([]int, 0, hg.EdgeSize(e))
	for _, pin := range hg.Pins(e) {
		pins = append(pins, int(pin))
	}
	sort.Ints(pins)

	var sb strings.Builder
	for i, pin := range pins {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(pin))
	}
	return sb.String()
}

// removeParallelHyperedges folds hyperedges with identical pin sets into
// their first occurrence, summing weights. The folds are remembered so
// restoreParallelHyperedges can undo them after partitioning.
func (p *Partitioner) removeParallelHyperedges() int {
	seen := make(map[string]da.HyperedgeID)
	duplicates := make([]parallelFold, 0)

	p.hg.ForEachEdge(func(e da.HyperedgeID) {
		key := pinFingerprint(p.hg, e)
		if rep, ok := seen[key]; ok {
			duplicates = append(duplicates, parallelFold{
				representative: rep,
				removed:        e,
				removedWeight:  p.hg.EdgeWeight(e),
			})
			return
		}
		seen[key] = e
	})

	for _, fold := range duplicates {
		p.hg.SetEdgeWeight(fold.representative,
			p.hg.EdgeWeight(fold.representative)+fold.removedWeight)
		p.hg.DisableHyperedge(fold.removed)
	}
	p.folds = append(p.folds, duplicates...)
	return len(duplicates)
}

func (p *Partitioner) restoreParallelHyperedges() {
	for i := len(p.folds) - 1; i >= 0; i-- {
		fold := p.folds[i]
		p.hg.SetEdgeWeight(fold.representative,
			p.hg.EdgeWeight(fold.representative)-fold.removedWeight)
		p.hg.RestoreHyperedge(fold.removed)
	}
	p.folds = p.folds[:0]
}

// WriteResultFile appends one machine-readable result line per run.
func (p *Partitioner) WriteResultFile(filename string, elapsed time.Duration) error {
	f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return util.WrapErrorf(err, util.ErrBadParamInput, "opening result file %s", filename)
	}
	defer f.Close()

	_, err = fmt.Fprintf(f, "RESULT graph=%s k=%d epsilon=%f seed=%d cut=%d imbalance=%f time=%f\n",
		p.cfg.GraphFilename, p.cfg.K, p.cfg.Epsilon, p.cfg.Seed,
		metrics.HyperedgeCut(p.hg), metrics.Imbalance(p.hg), elapsed.Seconds())
	return err
}
