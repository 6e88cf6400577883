package partitioner

import (
	"go.uber.org/zap"

	"github.com/lintang-b-s/hypar/pkg"
	da "github.com/lintang-b-s/hypar/pkg/datastructure"
	"github.com/lintang-b-s/hypar/pkg/random"
	"github.com/lintang-b-s/hypar/pkg/util"
)

// Refiner is the local-search contract shared by all refinement strategies.
// Refine runs one pass seeded with the freshly uncontracted hypernodes and
// reports whether it improved on bestCut / bestImbalance (both updated in
// place).
type Refiner interface {
	Initialize()
	Refine(seeds []da.HypernodeID, bestCut *int, maxImbalance float64,
		bestImbalance *float64) (bool, error)
	NumRepetitions() int
}

// NewRefiner selects the refinement strategy at runtime; the per-move hot
// paths inside each refiner stay monomorphic.
func NewRefiner(hg *da.Hypergraph, cfg *Config, rnd *random.Randomizer,
	logger *zap.Logger) (Refiner, error) {

	switch cfg.RefinementAlgorithm {
	case pkg.REFINEMENT_TWOWAY_FM:
		if cfg.K != 2 {
			return nil, util.WrapErrorf(nil, util.ErrBadParamInput,
				"twoway_fm refinement requires k = 2, got k = %d", cfg.K)
		}
		return NewTwoWayFMRefiner(hg, cfg, rnd, logger), nil
	case pkg.REFINEMENT_KWAY_FM:
		return NewKWayFMRefiner(hg, cfg, rnd, logger), nil
	case pkg.REFINEMENT_KWAY_FM_MAXGAIN:
		return NewMaxGainNodeKWayFMRefiner(hg, cfg, rnd, logger), nil
	case pkg.REFINEMENT_HYPEREDGE:
		if cfg.K != 2 {
			return nil, util.WrapErrorf(nil, util.ErrBadParamInput,
				"hyperedge refinement requires k = 2, got k = %d", cfg.K)
		}
		return NewHyperedgeFMRefiner(hg, cfg, rnd, logger), nil
	case pkg.REFINEMENT_LABEL_PROPAGATION:
		return NewLPRefiner(hg, cfg, rnd, logger), nil
	}
	return nil, util.WrapErrorf(nil, util.ErrBadParamInput,
		"unknown refinement algorithm %d", cfg.RefinementAlgorithm)
}

// improvementFound mirrors the driver-level acceptance rule: a pass counts
// as an improvement if it decreased the cut, or, starting from an infeasible
// balance, lowered the imbalance (not necessarily down to the bound) without
// increasing the cut.
func improvementFound(bestCut, initialCut int, bestImbalance, initialImbalance,
	maxImbalance float64) bool {
	return bestCut < initialCut ||
		(initialImbalance > maxImbalance && bestImbalance < initialImbalance)
}
