package partitioner

import (
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"

	"go.uber.org/zap"

	"github.com/lintang-b-s/hypar/pkg"
	da "github.com/lintang-b-s/hypar/pkg/datastructure"
	"github.com/lintang-b-s/hypar/pkg/hgio"
	"github.com/lintang-b-s/hypar/pkg/metrics"
	"github.com/lintang-b-s/hypar/pkg/random"
	"github.com/lintang-b-s/hypar/pkg/util"
)

// InitialPartitioner assigns every live hypernode of the coarsest hypergraph
// to a block. Implementations run their configured number of trials and keep
// the assignment with the smallest cut.
type InitialPartitioner interface {
	PartitionCoarsest() error
}

func NewInitialPartitioner(hg *da.Hypergraph, cfg *Config, rnd *random.Randomizer,
	logger *zap.Logger) InitialPartitioner {

	if cfg.InitialPartitioner == pkg.INITIAL_PARTITIONER_GREEDY_GROWING {
		return NewGreedyGrowingInitialPartitioner(hg, cfg, rnd, logger)
	}
	return NewExternalInitialPartitioner(hg, cfg, logger)
}

/*
ExternalInitialPartitioner shells out to hMetis or PaToH: the coarsest
hypergraph is written to a temp file, the binary is invoked synchronously,
and the assignment is read back from "<file>.part.<k>". A nonzero exit
status or an unreadable result aborts the run. Both temp files are unlinked
before returning.
*/
type ExternalInitialPartitioner struct {
	hg     *da.Hypergraph
	cfg    *Config
	logger *zap.Logger
}

func NewExternalInitialPartitioner(hg *da.Hypergraph, cfg *Config,
	logger *zap.Logger) *ExternalInitialPartitioner {
	return &ExternalInitialPartitioner{hg: hg, cfg: cfg, logger: logger}
}

func (ip *ExternalInitialPartitioner) binaryPath() string {
	if ip.cfg.InitialPartitionerPath != "" {
		return ip.cfg.InitialPartitionerPath
	}
	if ip.cfg.InitialPartitioner == pkg.INITIAL_PARTITIONER_PATOH {
		return pkg.PATOH_DEFAULT_PATH
	}
	return pkg.HMETIS_DEFAULT_PATH
}

func (ip *ExternalInitialPartitioner) arguments(coarseFile string) []string {
	k := strconv.Itoa(ip.cfg.K)
	if ip.cfg.InitialPartitioner == pkg.INITIAL_PARTITIONER_PATOH {
		return []string{coarseFile, k}
	}
	// hmetis <file> <k> <UBfactor> <Nruns> <CType> <RType> <Vcycle> <Reconst> <dbglvl>
	return []string{coarseFile, k, fmt.Sprintf("%.0f", ip.cfg.HmetisUBFactor),
		"10", "1", "1", "1", "0", "0"}
}

func (ip *ExternalInitialPartitioner) PartitionCoarsest() error {
	coarseFile := ip.cfg.CoarseGraphFilename
	partFile := ip.cfg.CoarseGraphPartitionFilename

	nodeMap, err := hgio.WriteCoarseHypergraphFile(coarseFile, ip.hg)
	if err != nil {
		return util.WrapErrorf(err, util.ErrExternalToolError,
			"writing coarse hypergraph to %s", coarseFile)
	}
	defer os.Remove(coarseFile)
	defer os.Remove(partFile)

	binary := ip.binaryPath()
	bestCut := math.MaxInt
	var bestPartition []da.PartitionID

	for trial := 0; trial < ip.cfg.InitialPartitioningAttempts; trial++ {
		cmd := exec.Command(binary, ip.arguments(coarseFile)...)
		output, err := cmd.CombinedOutput()
		if err != nil {
			return util.WrapErrorf(err, util.ErrExternalToolError,
				"initial partitioner %s failed: %s", binary, string(output))
		}

		partition, err := hgio.ReadPartitionFile(partFile, len(nodeMap), ip.cfg.K)
		if err != nil {
			return err
		}

		ip.applyPartition(nodeMap, partition)
		cut := metrics.HyperedgeCut(ip.hg)
		ip.logger.Sugar().Infof("initial partitioning trial %d: cut=%d", trial, cut)
		if cut < bestCut {
			bestCut = cut
			bestPartition = partition
		}
	}

	ip.applyPartition(nodeMap, bestPartition)
	ip.logger.Info("initial partitioning finished",
		zap.Int("cut", bestCut),
		zap.Int("attempts", ip.cfg.InitialPartitioningAttempts))
	return nil
}

func (ip *ExternalInitialPartitioner) applyPartition(nodeMap []da.HypernodeID,
	partition []da.PartitionID) {
	ip.hg.ResetPartitioning()
	for i, u := range nodeMap {
		ip.hg.SetNodePart(u, partition[i])
	}
}
