package pkg

// enum of coarsening algorithm
type CoarseningAlgorithm uint8

const (
	COARSENING_HEAVY_FULL CoarseningAlgorithm = iota
	COARSENING_HEAVY_PARTIAL
	COARSENING_HEAVY_LAZY
	COARSENING_HYPEREDGE
)

func GetCoarseningAlgorithm(ctype string) (CoarseningAlgorithm, bool) {
	switch ctype {
	case "heavy_full":
		return COARSENING_HEAVY_FULL, true
	case "heavy_partial":
		return COARSENING_HEAVY_PARTIAL, true
	case "heavy_lazy":
		return COARSENING_HEAVY_LAZY, true
	case "hyperedge":
		return COARSENING_HYPEREDGE, true
	}
	return COARSENING_HEAVY_FULL, false
}

// enum of refinement algorithm
type RefinementAlgorithm uint8

const (
	REFINEMENT_TWOWAY_FM RefinementAlgorithm = iota
	REFINEMENT_KWAY_FM
	REFINEMENT_KWAY_FM_MAXGAIN
	REFINEMENT_HYPEREDGE
	REFINEMENT_LABEL_PROPAGATION
)

func GetRefinementAlgorithm(rtype string) (RefinementAlgorithm, bool) {
	switch rtype {
	case "twoway_fm":
		return REFINEMENT_TWOWAY_FM, true
	case "kway_fm":
		return REFINEMENT_KWAY_FM, true
	case "kway_fm_maxgain":
		return REFINEMENT_KWAY_FM_MAXGAIN, true
	case "hyperedge":
		return REFINEMENT_HYPEREDGE, true
	case "label_propagation":
		return REFINEMENT_LABEL_PROPAGATION, true
	}
	return REFINEMENT_KWAY_FM, false
}

// enum of fm stopping rule
type StoppingRule uint8

const (
	STOPPING_RULE_SIMPLE StoppingRule = iota
	STOPPING_RULE_ADAPTIVE1
	STOPPING_RULE_ADAPTIVE2
)

func GetStoppingRule(stopFM string) (StoppingRule, bool) {
	switch stopFM {
	case "simple":
		return STOPPING_RULE_SIMPLE, true
	case "adaptive1":
		return STOPPING_RULE_ADAPTIVE1, true
	case "adaptive2":
		return STOPPING_RULE_ADAPTIVE2, true
	}
	return STOPPING_RULE_SIMPLE, false
}

// enum of queue clogging discipline (hyperedge fm)
type CloggingRule uint8

const (
	CLOGGING_NULL CloggingRule = iota
	CLOGGING_ONLY_REMOVE_IF_BOTH_QUEUES_CLOGGED
	CLOGGING_REMOVE_ONLY_THE_CLOGGING_ENTRY
	CLOGGING_DO_NOT_REMOVE_AND_RESET_ELIGIBILITY
)

// enum of initial partitioner backend
type InitialPartitionerType uint8

const (
	INITIAL_PARTITIONER_HMETIS InitialPartitionerType = iota
	INITIAL_PARTITIONER_PATOH
	INITIAL_PARTITIONER_GREEDY_GROWING
)

func GetInitialPartitionerType(part string) (InitialPartitionerType, bool) {
	switch part {
	case "hMetis":
		return INITIAL_PARTITIONER_HMETIS, true
	case "PaToH":
		return INITIAL_PARTITIONER_PATOH, true
	}
	return INITIAL_PARTITIONER_HMETIS, false
}

const (
	INVALID_PARTITION int32 = -1

	HMETIS_DEFAULT_PATH = "/software/hmetis-2.0pre1/Linux-x86_64/hmetis2.0pre1"
	PATOH_DEFAULT_PATH  = "/software/patoh-Linux-x86_64/Linux-x86_64/patoh"

	PARTITION_FILE_SUFFIX = "KaHyPar"
)

const (
	DEBUG = false
)
