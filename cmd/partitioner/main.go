package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/lintang-b-s/hypar/pkg"
	"github.com/lintang-b-s/hypar/pkg/hgio"
	"github.com/lintang-b-s/hypar/pkg/logger"
	"github.com/lintang-b-s/hypar/pkg/partitioner"
	"github.com/lintang-b-s/hypar/pkg/random"
	"github.com/lintang-b-s/hypar/pkg/util"
)

func fatal(format string, a ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}

func main() {
	defaults := partitioner.DefaultConfig()

	// data/config.yaml (if present) overrides the built-in defaults; flags
	// override both
	if err := util.ReadConfig(); err == nil {
		if viper.IsSet("k") {
			defaults.K = viper.GetInt("k")
		}
		if viper.IsSet("e") {
			defaults.Epsilon = viper.GetFloat64("e")
		}
		if viper.IsSet("seed") {
			defaults.Seed = viper.GetInt64("seed")
		}
		if viper.IsSet("nruns") {
			defaults.InitialPartitioningAttempts = viper.GetInt("nruns")
		}
		if viper.IsSet("vcycles") {
			defaults.GlobalSearchIterations = viper.GetInt("vcycles")
		}
	}

	var (
		hgrPath  = flag.String("hgr", "", "filename of the hypergraph to be partitioned")
		k        = flag.Int("k", defaults.K, "number of blocks")
		epsilon  = flag.Float64("e", defaults.Epsilon, "imbalance parameter epsilon")
		seed     = flag.Int64("seed", defaults.Seed, "seed for the random number generator")
		nruns    = flag.Int("nruns", defaults.InitialPartitioningAttempts,
			"number of initial partitioning trials, the best cut is kept")
		part     = flag.String("part", "hMetis", "initial partitioner: hMetis, PaToH")
		partPath = flag.String("part-path", "", "path to the initial partitioner binary")
		vcycles  = flag.Int("vcycles", defaults.GlobalSearchIterations, "number of v-cycle iterations")
		cmaxnet  = flag.Int("cmaxnet", defaults.HyperedgeSizeThreshold,
			"hyperedges larger than cmaxnet are ignored during coarsening (-1: no limit)")
		ctype  = flag.String("ctype", "heavy_full", "coarsening scheme: heavy_full, heavy_partial, heavy_lazy, hyperedge")
		rtype  = flag.String("rtype", "kway_fm", "refinement scheme: twoway_fm, kway_fm, kway_fm_maxgain, hyperedge, label_propagation")
		stopFM = flag.String("stopFM", "simple", "fm stopping rule: simple, adaptive1, adaptive2")
		fmReps = flag.Int("FMreps", defaults.NumRepetitions,
			"max local search repetitions per level (-1: no limit)")
		fruitless = flag.Int("i", defaults.MaxNumberOfFruitlessMoves,
			"max fruitless moves before stopping local search (simple)")
		alpha = flag.Float64("alpha", defaults.Alpha, "random walk stop alpha (adaptive), -1: infinity")
		s     = flag.Float64("s", defaults.MaxAllowedWeightMultiplier,
			"max coarse hypernode weight is (s * w(H)) / (t * k)")
		t = flag.Int("t", defaults.ContractionLimitMultiplier,
			"coarsening stops at t * k hypernodes")
		initRemoveHEs = flag.Bool("init-remove-hes", defaults.InitialParallelHERemoval,
			"remove parallel hyperedges before partitioning")
		lpMaxIterations = flag.Int("lp_refiner_max_iterations", defaults.LPMaxNumberIterations,
			"max iterations of label propagation refinement")
		resultFile = flag.String("file", "", "filename of the result file")
	)
	flag.Parse()

	if *hgrPath == "" {
		fatal("parameter error: --hgr is required")
	}

	cfg := defaults
	cfg.GraphFilename = *hgrPath
	cfg.K = *k
	cfg.Epsilon = *epsilon
	cfg.Seed = *seed
	cfg.InitialPartitioningAttempts = *nruns
	cfg.GlobalSearchIterations = *vcycles
	cfg.HyperedgeSizeThreshold = *cmaxnet
	cfg.InitialPartitionerPath = *partPath
	cfg.NumRepetitions = *fmReps
	cfg.MaxNumberOfFruitlessMoves = *fruitless
	cfg.HerFMMaxNumberOfFruitlessMoves = *fruitless
	cfg.Alpha = *alpha
	cfg.MaxAllowedWeightMultiplier = *s
	cfg.ContractionLimitMultiplier = *t
	cfg.InitialParallelHERemoval = *initRemoveHEs
	cfg.LPMaxNumberIterations = *lpMaxIterations
	if cfg.Alpha == -1 {
		cfg.Alpha = math.Inf(1)
	}

	var ok bool
	if cfg.InitialPartitioner, ok = pkg.GetInitialPartitionerType(*part); !ok {
		fatal("illegal part option %q", *part)
	}
	if cfg.CoarseningAlgorithm, ok = pkg.GetCoarseningAlgorithm(*ctype); !ok {
		fatal("illegal ctype option %q", *ctype)
	}
	if cfg.RefinementAlgorithm, ok = pkg.GetRefinementAlgorithm(*rtype); !ok {
		fatal("illegal rtype option %q", *rtype)
	}
	if cfg.StoppingRule, ok = pkg.GetStoppingRule(*stopFM); !ok {
		fatal("illegal stopFM option %q", *stopFM)
	}
	cfg.HerFMStoppingRule = cfg.StoppingRule

	if err := cfg.Validate(); err != nil {
		fatal("parameter error: %v", err)
	}

	log, err := logger.New()
	if err != nil {
		fatal("creating logger: %v", err)
	}
	defer log.Sync()

	hgrFile, err := hgio.ReadHypergraphFile(cfg.GraphFilename)
	if err != nil {
		fatal("reading hypergraph: %v", err)
	}
	hg := hgrFile.Build(cfg.K)
	cfg.DeriveQuantities(hg.TotalWeight(), hg.NumberOfNodes())

	tmpDir, err := os.MkdirTemp("", "hypar")
	if err != nil {
		fatal("creating temp directory: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	cfg.CoarseGraphFilename = filepath.Join(tmpDir,
		fmt.Sprintf("PID_%d_coarse_%s", os.Getpid(), filepath.Base(cfg.GraphFilename)))
	cfg.CoarseGraphPartitionFilename = fmt.Sprintf("%s.part.%d", cfg.CoarseGraphFilename, cfg.K)
	cfg.GraphPartitionFilename = fmt.Sprintf("%s.part.%d.%s",
		cfg.GraphFilename, cfg.K, pkg.PARTITION_FILE_SUFFIX)

	log.Info("partitioning hypergraph",
		zap.String("hgr", cfg.GraphFilename),
		zap.Int("hypernodes", hg.NumberOfNodes()),
		zap.Int("hyperedges", hg.NumberOfEdges()),
		zap.Int("k", cfg.K),
		zap.Float64("epsilon", cfg.Epsilon),
		zap.Int64("seed", cfg.Seed))

	rnd := random.New(cfg.Seed)
	driver := partitioner.NewPartitioner(hg, cfg, rnd, log)

	start := time.Now()
	if err := driver.PerformDirectKWayPartitioning(); err != nil {
		os.RemoveAll(tmpDir)
		fatal("partitioning failed: %v", err)
	}
	elapsed := time.Since(start)

	if err := hgio.WritePartitionFile(hg, cfg.GraphPartitionFilename); err != nil {
		os.RemoveAll(tmpDir)
		fatal("writing partition file: %v", err)
	}
	log.Sugar().Infof("partition written to %s (%.3fs)",
		cfg.GraphPartitionFilename, elapsed.Seconds())

	if *resultFile != "" {
		if err := driver.WriteResultFile(*resultFile, elapsed); err != nil {
			fatal("writing result file: %v", err)
		}
	}
}
