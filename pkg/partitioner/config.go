package partitioner

import (
	"math"

	"github.com/go-playground/validator/v10"

	"github.com/lintang-b-s/hypar/pkg"
)

// Config collects every knob of a partitioning run. The zero value is not
// usable; start from DefaultConfig and let the CLI / config file override.
type Config struct {
	// partitioning
	GraphFilename                string
	CoarseGraphFilename          string
	CoarseGraphPartitionFilename string
	GraphPartitionFilename       string

	K                           int     `validate:"gte=2"`
	Epsilon                     float64 `validate:"gte=0"`
	Seed                        int64
	InitialPartitioningAttempts int `validate:"gte=1"`
	GlobalSearchIterations      int `validate:"gte=0"`
	HyperedgeSizeThreshold      int
	InitialParallelHERemoval    bool

	CoarseningAlgorithm    pkg.CoarseningAlgorithm
	RefinementAlgorithm    pkg.RefinementAlgorithm
	InitialPartitioner     pkg.InitialPartitionerType
	InitialPartitionerPath string

	// derived once the hypergraph is known
	TotalGraphWeight int
	MaxPartWeight    int
	HmetisUBFactor   float64

	// coarsening
	ContractionLimitMultiplier int     `validate:"gte=1"`
	MaxAllowedWeightMultiplier float64 `validate:"gt=0"`
	ContractionLimit           int
	MaxAllowedNodeWeight       int

	// fm local search
	StoppingRule              pkg.StoppingRule
	NumRepetitions            int
	MaxNumberOfFruitlessMoves int `validate:"gte=1"`
	Alpha                     float64
	Beta                      float64

	// hyperedge fm
	HerFMStoppingRule              pkg.StoppingRule
	HerFMNumRepetitions            int
	HerFMMaxNumberOfFruitlessMoves int `validate:"gte=1"`
	HerFMCloggingRule              pkg.CloggingRule

	// label propagation
	LPMaxNumberIterations int `validate:"gte=0"`
}

func DefaultConfig() *Config {
	return &Config{
		K:                           2,
		Epsilon:                     0.05,
		Seed:                        0,
		InitialPartitioningAttempts: 10,
		GlobalSearchIterations:      10,
		HyperedgeSizeThreshold:      -1,
		CoarseningAlgorithm:         pkg.COARSENING_HEAVY_FULL,
		RefinementAlgorithm:         pkg.REFINEMENT_KWAY_FM,
		InitialPartitioner:          pkg.INITIAL_PARTITIONER_HMETIS,

		ContractionLimitMultiplier: 160,
		MaxAllowedWeightMultiplier: 3.5,

		StoppingRule:              pkg.STOPPING_RULE_SIMPLE,
		NumRepetitions:            -1,
		MaxNumberOfFruitlessMoves: 150,
		Alpha:                     8,

		HerFMStoppingRule:              pkg.STOPPING_RULE_SIMPLE,
		HerFMNumRepetitions:            1,
		HerFMMaxNumberOfFruitlessMoves: 10,
		HerFMCloggingRule:              pkg.CLOGGING_ONLY_REMOVE_IF_BOTH_QUEUES_CLOGGED,

		LPMaxNumberIterations: 3,
	}
}

func (cfg *Config) Validate() error {
	return validator.New().Struct(cfg)
}

// DeriveQuantities fixes the quantities that depend on the input hypergraph:
// the contraction limit t*k, the coarsening weight cap
// ceil(s*c(V) / (t*k)), the balance bound (1+eps)*ceil(c(V)/k), the
// random-walk beta = ln n, and the ub_factor handed to hMetis so that its
// recursive-bisection balance bound matches ours.
func (cfg *Config) DeriveQuantities(totalWeight, numNodes int) {
	cfg.TotalGraphWeight = totalWeight
	cfg.ContractionLimit = cfg.ContractionLimitMultiplier * cfg.K
	cfg.MaxAllowedNodeWeight = int(math.Ceil(
		cfg.MaxAllowedWeightMultiplier * float64(totalWeight) / float64(cfg.ContractionLimit)))
	cfg.MaxPartWeight = int((1.0 + cfg.Epsilon) *
		math.Ceil(float64(totalWeight)/float64(cfg.K)))
	cfg.Beta = math.Log(float64(numNodes))

	exp := 1.0 / math.Log2(float64(cfg.K))
	cfg.HmetisUBFactor = 50.0 * (2.0*math.Pow(1.0+cfg.Epsilon, exp)*
		math.Pow(math.Ceil(float64(totalWeight)/float64(cfg.K))/float64(totalWeight), exp) - 1.0)
}
