package hgio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dsnet/compress/bzip2"

	da "github.com/lintang-b-s/hypar/pkg/datastructure"
	"github.com/lintang-b-s/hypar/pkg/util"
)

// HypergraphFile is the parsed content of an hMetis .hgr file.
// IndexVector[i]..IndexVector[i+1] delimits the pins of hyperedge i inside
// EdgeVector (0-based ids). EdgeWeights / NodeWeights are nil when the file
// carries none.
type HypergraphFile struct {
	NumNodes    int
	NumEdges    int
	IndexVector []int
	EdgeVector  []da.HypernodeID
	EdgeWeights []int
	NodeWeights []int
}

// ReadHypergraphFile parses an hMetis hypergraph file. Files ending in .bz2
// are decompressed on the fly. Header: "|E| |V| [fmt]" with fmt 1 = edge
// weights, 10 = node weights, 11 = both. Blank lines and %-comment lines are
// ignored.
func ReadHypergraphFile(filename string) (*HypergraphFile, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrNotFound, "opening hypergraph file %s", filename)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(filename, ".bz2") {
		bz, err := bzip2.NewReader(f, nil)
		if err != nil {
			return nil, err
		}
		defer bz.Close()
		r = bz
	}

	br := bufio.NewReader(r)

	readContentLine := func() (string, error) {
		for {
			line, err := util.ReadLine(br)
			if err != nil {
				return "", err
			}
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || strings.HasPrefix(trimmed, "%") {
				continue
			}
			return trimmed, nil
		}
	}

	header, err := readContentLine()
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrMalformedInput, "reading header of %s", filename)
	}
	parts := strings.Fields(header)
	if len(parts) < 2 || len(parts) > 3 {
		return nil, util.WrapErrorf(nil, util.ErrMalformedInput,
			"header of %s must be \"|E| |V| [fmt]\", got %q", filename, header)
	}

	numEdges, err := strconv.Atoi(parts[0])
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrMalformedInput, "invalid hyperedge count %q", parts[0])
	}
	numNodes, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrMalformedInput, "invalid hypernode count %q", parts[1])
	}

	hasEdgeWeights := false
	hasNodeWeights := false
	if len(parts) == 3 {
		switch parts[2] {
		case "1":
			hasEdgeWeights = true
		case "10":
			hasNodeWeights = true
		case "11":
			hasEdgeWeights = true
			hasNodeWeights = true
		default:
			return nil, util.WrapErrorf(nil, util.ErrMalformedInput, "unknown fmt field %q", parts[2])
		}
	}

	hgr := &HypergraphFile{
		NumNodes:    numNodes,
		NumEdges:    numEdges,
		IndexVector: make([]int, 1, numEdges+1),
	}
	if hasEdgeWeights {
		hgr.EdgeWeights = make([]int, 0, numEdges)
	}

	for e := 0; e < numEdges; e++ {
		line, err := readContentLine()
		if err != nil {
			return nil, util.WrapErrorf(err, util.ErrMalformedInput,
				"hyperedge %d of %s is missing", e+1, filename)
		}
		fields := strings.Fields(line)
		start := 0
		if hasEdgeWeights {
			w, err := strconv.Atoi(fields[0])
			if err != nil || w < 1 {
				return nil, util.WrapErrorf(err, util.ErrMalformedInput,
					"invalid weight of hyperedge %d: %q", e+1, fields[0])
			}
			hgr.EdgeWeights = append(hgr.EdgeWeights, w)
			start = 1
		}
		if len(fields)-start < 2 {
			return nil, util.WrapErrorf(nil, util.ErrMalformedInput,
				"hyperedge %d has fewer than two pins", e+1)
		}
		for _, field := range fields[start:] {
			pin, err := strconv.Atoi(field)
			if err != nil || pin < 1 || pin > numNodes {
				return nil, util.WrapErrorf(err, util.ErrMalformedInput,
					"invalid pin %q in hyperedge %d", field, e+1)
			}
			hgr.EdgeVector = append(hgr.EdgeVector, da.HypernodeID(pin-1))
		}
		hgr.IndexVector = append(hgr.IndexVector, len(hgr.EdgeVector))
	}

	if hasNodeWeights {
		hgr.NodeWeights = make([]int, numNodes)
		for v := 0; v < numNodes; v++ {
			line, err := readContentLine()
			if err != nil {
				return nil, util.WrapErrorf(err, util.ErrMalformedInput,
					"weight of hypernode %d of %s is missing", v+1, filename)
			}
			w, err := strconv.Atoi(strings.Fields(line)[0])
			if err != nil || w < 1 {
				return nil, util.WrapErrorf(err, util.ErrMalformedInput,
					"invalid weight of hypernode %d: %q", v+1, line)
			}
			hgr.NodeWeights[v] = w
		}
	}

	return hgr, nil
}

// Build constructs the hypergraph for a k-way partitioning run.
func (hgr *HypergraphFile) Build(k int) *da.Hypergraph {
	return da.NewHypergraph(hgr.NumNodes, hgr.NumEdges, hgr.IndexVector, hgr.EdgeVector,
		k, hgr.EdgeWeights, hgr.NodeWeights)
}

// WriteCoarseHypergraphFile serializes the live part of hg with dense 1-based
// ids and full weights (fmt 11), the representation the external initial
// partitioners expect. The returned slice maps dense index -> hypernode id.
// Hyperedges with fewer than two live pins carry no cut information and are
// skipped.
func WriteCoarseHypergraphFile(filename string, hg *da.Hypergraph) ([]da.HypernodeID, error) {
	f, err := os.Create(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	defer w.Flush()

	nodeMap := hg.Nodes()
	denseID := make(map[da.HypernodeID]int, len(nodeMap))
	for i, u := range nodeMap {
		denseID[u] = i + 1
	}

	edges := make([]da.HyperedgeID, 0, hg.NumberOfEdges())
	hg.ForEachEdge(func(e da.HyperedgeID) {
		if hg.EdgeSize(e) >= 2 {
			edges = append(edges, e)
		}
	})

	fmt.Fprintf(w, "%d %d 11\n", len(edges), len(nodeMap))
	for _, e := range edges {
		fmt.Fprintf(w, "%d", hg.EdgeWeight(e))
		for _, pin := range hg.Pins(e) {
			fmt.Fprintf(w, " %d", denseID[da.HypernodeID(pin)])
		}
		fmt.Fprintf(w, "\n")
	}
	for _, u := range nodeMap {
		fmt.Fprintf(w, "%d\n", hg.NodeWeight(u))
	}

	return nodeMap, nil
}

// ReadPartitionFile reads one block id per line, in dense hypernode order.
func ReadPartitionFile(filename string, numNodes, k int) ([]da.PartitionID, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrExternalToolError,
			"opening partition file %s", filename)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	partition := make([]da.PartitionID, 0, numNodes)
	for i := 0; i < numNodes; i++ {
		line, err := util.ReadLine(br)
		if err != nil {
			return nil, util.WrapErrorf(err, util.ErrMalformedInput,
				"partition file %s ends after %d of %d entries", filename, i, numNodes)
		}
		p, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil || p < 0 || p >= k {
			return nil, util.WrapErrorf(err, util.ErrMalformedInput,
				"invalid block id %q on line %d of %s", line, i+1, filename)
		}
		partition = append(partition, da.PartitionID(p))
	}
	return partition, nil
}

// WritePartitionFile emits the final assignment, one block id per hypernode
// line in id order.
func WritePartitionFile(hg *da.Hypergraph, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	defer w.Flush()

	for v := 0; v < hg.InitialNumberOfNodes(); v++ {
		_, err := fmt.Fprintf(w, "%d\n", hg.PartID(da.HypernodeID(v)))
		if err != nil {
			return err
		}
	}
	return nil
}
