package datastructure

import (
	"fmt"

	"github.com/lintang-b-s/hypar/pkg"
	"github.com/lintang-b-s/hypar/pkg/util"
)

type HypernodeID int32
type HyperedgeID int32
type PartitionID = int32

const (
	InvalidHypernode HypernodeID = -1
	InvalidHyperedge HyperedgeID = -1
)

type hypernodeRecord struct {
	firstEntry int // offset of the incident-hyperedge list in the incidence array
	size       int
	weight     int
	part       PartitionID
	disabled   bool
}

type hyperedgeRecord struct {
	firstEntry int // offset of the pin list in the incidence array
	size       int
	weight     int
	disabled   bool
}

/*
Hypergraph stores both incidence structures in one growable arena, the same
way the road graph keeps its compressed adjacency rows: the first region
holds, per hypernode, the list of incident hyperedge ids; the second region
holds, per hyperedge, its pin list. Every record carries an explicit
(firstEntry, size) range, so nodes and edges can be disabled without
reindexing and a contraction can relocate a node's list to the arena tail
while the memento remembers the old range.

Per-block pin counts n(e, b) and block weights are maintained eagerly by
SetNodePart / ChangeNodePart / Contract / Uncontract.
*/
type Hypergraph struct {
	k int

	hypernodes     []hypernodeRecord
	hyperedges     []hyperedgeRecord
	incidenceArray []int32

	pinCountInPart []int // len = |E| * k
	partWeights    []int

	currentNumNodes int
	currentNumEdges int
	currentNumPins  int
	totalWeight     int
}

// ContractionMemento is one entry of the contraction history: v was merged
// into u. It carries enough to restore the pre-contraction state bit-exactly.
type ContractionMemento struct {
	U HypernodeID
	V HypernodeID

	uFirstEntry int
	uSize       int
	arenaLen    int // incidence-array length before the contraction

	collapsed []collapsedPin // hyperedges where u and v were parallel pins
}

type collapsedPin struct {
	he    HyperedgeID
	vSlot int // absolute arena index v occupied before the swap-remove
}

// NewHypergraph builds the hypergraph from an hMetis-style description:
// indexVector[i] .. indexVector[i+1] delimits the pins of hyperedge i inside
// edgeVector. Nil edgeWeights / nodeWeights mean unit weights.
func NewHypergraph(numNodes, numEdges int, indexVector []int, edgeVector []HypernodeID,
	k int, edgeWeights, nodeWeights []int) *Hypergraph {

	hg := &Hypergraph{
		k:               k,
		hypernodes:      make([]hypernodeRecord, numNodes),
		hyperedges:      make([]hyperedgeRecord, numEdges),
		pinCountInPart:  make([]int, numEdges*k),
		partWeights:     make([]int, k),
		currentNumNodes: numNodes,
		currentNumEdges: numEdges,
	}

	numPins := len(edgeVector)
	hg.currentNumPins = numPins
	hg.incidenceArray = make([]int32, 2*numPins)

	// node region layout: prefix sums of node degrees
	degrees := make([]int, numNodes)
	for _, pin := range edgeVector {
		degrees[pin]++
	}
	offset := 0
	for v := 0; v < numNodes; v++ {
		hg.hypernodes[v].firstEntry = offset
		hg.hypernodes[v].part = pkg.INVALID_PARTITION
		offset += degrees[v]
	}

	// edge region starts after all node lists
	for e := 0; e < numEdges; e++ {
		first := numPins + indexVector[e]
		hg.hyperedges[e].firstEntry = first
		hg.hyperedges[e].size = indexVector[e+1] - indexVector[e]
		hg.hyperedges[e].weight = 1
		for i := indexVector[e]; i < indexVector[e+1]; i++ {
			pin := edgeVector[i]
			hg.incidenceArray[numPins+i] = int32(pin)
			node := &hg.hypernodes[pin]
			hg.incidenceArray[node.firstEntry+node.size] = int32(e)
			node.size++
		}
	}

	for v := 0; v < numNodes; v++ {
		hg.hypernodes[v].weight = 1
	}
	if nodeWeights != nil {
		for v := 0; v < numNodes; v++ {
			hg.hypernodes[v].weight = nodeWeights[v]
		}
	}
	if edgeWeights != nil {
		for e := 0; e < numEdges; e++ {
			hg.hyperedges[e].weight = edgeWeights[e]
		}
	}

	for v := 0; v < numNodes; v++ {
		hg.totalWeight += hg.hypernodes[v].weight
	}

	return hg
}

func (hg *Hypergraph) K() int {
	return hg.k
}

func (hg *Hypergraph) NumberOfNodes() int {
	return hg.currentNumNodes
}

func (hg *Hypergraph) NumberOfEdges() int {
	return hg.currentNumEdges
}

func (hg *Hypergraph) NumberOfPins() int {
	return hg.currentNumPins
}

func (hg *Hypergraph) InitialNumberOfNodes() int {
	return len(hg.hypernodes)
}

func (hg *Hypergraph) InitialNumberOfEdges() int {
	return len(hg.hyperedges)
}

func (hg *Hypergraph) TotalWeight() int {
	return hg.totalWeight
}

func (hg *Hypergraph) NodeIsEnabled(u HypernodeID) bool {
	return !hg.hypernodes[u].disabled
}

func (hg *Hypergraph) EdgeIsEnabled(e HyperedgeID) bool {
	return !hg.hyperedges[e].disabled
}

func (hg *Hypergraph) NodeWeight(u HypernodeID) int {
	return hg.hypernodes[u].weight
}

func (hg *Hypergraph) EdgeWeight(e HyperedgeID) int {
	return hg.hyperedges[e].weight
}

func (hg *Hypergraph) SetEdgeWeight(e HyperedgeID, w int) {
	hg.hyperedges[e].weight = w
}

func (hg *Hypergraph) EdgeSize(e HyperedgeID) int {
	return hg.hyperedges[e].size
}

func (hg *Hypergraph) NodeDegree(u HypernodeID) int {
	return hg.hypernodes[u].size
}

func (hg *Hypergraph) PartID(u HypernodeID) PartitionID {
	return hg.hypernodes[u].part
}

func (hg *Hypergraph) PartWeight(p PartitionID) int {
	return hg.partWeights[p]
}

func (hg *Hypergraph) PinCountInPart(e HyperedgeID, p PartitionID) int {
	return hg.pinCountInPart[int(e)*hg.k+int(p)]
}

// Pins returns the live pin list of e. The slice aliases internal storage.
func (hg *Hypergraph) Pins(e HyperedgeID) []int32 {
	he := &hg.hyperedges[e]
	return hg.incidenceArray[he.firstEntry : he.firstEntry+he.size]
}

// IncidentEdges returns the live incident-hyperedge list of u. The slice
// aliases internal storage.
func (hg *Hypergraph) IncidentEdges(u HypernodeID) []int32 {
	hn := &hg.hypernodes[u]
	return hg.incidenceArray[hn.firstEntry : hn.firstEntry+hn.size]
}

func (hg *Hypergraph) ForEachNode(fn func(u HypernodeID)) {
	for v := range hg.hypernodes {
		if !hg.hypernodes[v].disabled {
			fn(HypernodeID(v))
		}
	}
}

func (hg *Hypergraph) ForEachEdge(fn func(e HyperedgeID)) {
	for e := range hg.hyperedges {
		if !hg.hyperedges[e].disabled {
			fn(HyperedgeID(e))
		}
	}
}

// Nodes returns the ids of all live hypernodes in ascending order.
func (hg *Hypergraph) Nodes() []HypernodeID {
	nodes := make([]HypernodeID, 0, hg.currentNumNodes)
	for v := range hg.hypernodes {
		if !hg.hypernodes[v].disabled {
			nodes = append(nodes, HypernodeID(v))
		}
	}
	return nodes
}

// Edges returns the ids of all live hyperedges in ascending order.
func (hg *Hypergraph) Edges() []HyperedgeID {
	edges := make([]HyperedgeID, 0, hg.currentNumEdges)
	for e := range hg.hyperedges {
		if !hg.hyperedges[e].disabled {
			edges = append(edges, HyperedgeID(e))
		}
	}
	return edges
}

// SetNodePart assigns an unassigned node to a block.
func (hg *Hypergraph) SetNodePart(u HypernodeID, p PartitionID) {
	util.AssertPanic(hg.hypernodes[u].part == pkg.INVALID_PARTITION,
		fmt.Sprintf("hypernode %d is already assigned to block %d", u, hg.hypernodes[u].part))

	hg.hypernodes[u].part = p
	hg.partWeights[p] += hg.hypernodes[u].weight
	for _, he := range hg.IncidentEdges(u) {
		hg.pinCountInPart[int(he)*hg.k+int(p)]++
	}
}

// ChangeNodePart moves an assigned node between blocks, keeping block
// weights and per-block pin counts consistent.
func (hg *Hypergraph) ChangeNodePart(u HypernodeID, from, to PartitionID) {
	util.AssertPanic(hg.hypernodes[u].part == from,
		fmt.Sprintf("hypernode %d is in block %d, not %d", u, hg.hypernodes[u].part, from))

	hg.hypernodes[u].part = to
	hg.partWeights[from] -= hg.hypernodes[u].weight
	hg.partWeights[to] += hg.hypernodes[u].weight
	for _, he := range hg.IncidentEdges(u) {
		hg.pinCountInPart[int(he)*hg.k+int(from)]--
		hg.pinCountInPart[int(he)*hg.k+int(to)]++
	}
}

// ResetPartitioning drops all block assignments, block weights and pin
// counts. Used between initial-partitioning trials.
func (hg *Hypergraph) ResetPartitioning() {
	for v := range hg.hypernodes {
		hg.hypernodes[v].part = pkg.INVALID_PARTITION
	}
	for p := range hg.partWeights {
		hg.partWeights[p] = 0
	}
	for i := range hg.pinCountInPart {
		hg.pinCountInPart[i] = 0
	}
}

// IsBorderNode reports whether some incident hyperedge of u spans more than
// u's block.
func (hg *Hypergraph) IsBorderNode(u HypernodeID) bool {
	p := hg.hypernodes[u].part
	for _, he := range hg.IncidentEdges(u) {
		e := HyperedgeID(he)
		if hg.PinCountInPart(e, p) < hg.EdgeSize(e) {
			return true
		}
	}
	return false
}

// Contract merges v into u: c(u) += c(v), v is disabled, pins of v become
// pins of u, and hyperedges containing both lose the parallel pin. The
// returned memento makes Uncontract an exact inverse.
func (hg *Hypergraph) Contract(u, v HypernodeID) ContractionMemento {
	util.AssertPanic(u != v, "cannot contract a hypernode with itself")
	util.AssertPanic(!hg.hypernodes[u].disabled && !hg.hypernodes[v].disabled,
		"contraction partners must both be enabled")
	util.AssertPanic(hg.hypernodes[u].part == hg.hypernodes[v].part,
		fmt.Sprintf("contraction partners are in different blocks (%d, %d)",
			hg.hypernodes[u].part, hg.hypernodes[v].part))

	mem := ContractionMemento{
		U:           u,
		V:           v,
		uFirstEntry: hg.hypernodes[u].firstEntry,
		uSize:       hg.hypernodes[u].size,
		arenaLen:    len(hg.incidenceArray),
	}

	hg.hypernodes[u].weight += hg.hypernodes[v].weight

	// relocate u's incidence list to the arena tail so edges of v can be
	// appended to it
	newFirst := len(hg.incidenceArray)
	hg.incidenceArray = append(hg.incidenceArray,
		hg.incidenceArray[mem.uFirstEntry:mem.uFirstEntry+mem.uSize]...)
	newSize := mem.uSize

	vPart := hg.hypernodes[v].part

	for _, heRaw := range hg.IncidentEdges(v) {
		he := HyperedgeID(heRaw)
		edge := &hg.hyperedges[he]
		pins := hg.incidenceArray[edge.firstEntry : edge.firstEntry+edge.size]

		uSlot := -1
		vSlot := -1
		for i, pin := range pins {
			if HypernodeID(pin) == u {
				uSlot = edge.firstEntry + i
			} else if HypernodeID(pin) == v {
				vSlot = edge.firstEntry + i
			}
		}
		util.AssertPanic(vSlot >= 0, fmt.Sprintf("hyperedge %d lost pin %d", he, v))

		if uSlot >= 0 {
			// parallel pin collapse: swap v to the last valid slot, shrink
			last := edge.firstEntry + edge.size - 1
			hg.incidenceArray[vSlot], hg.incidenceArray[last] =
				hg.incidenceArray[last], hg.incidenceArray[vSlot]
			edge.size--
			hg.currentNumPins--
			mem.collapsed = append(mem.collapsed, collapsedPin{he: he, vSlot: vSlot})
			if vPart != pkg.INVALID_PARTITION {
				hg.pinCountInPart[int(he)*hg.k+int(vPart)]--
			}
		} else {
			// pin replacement: u takes over v's slot
			hg.incidenceArray[vSlot] = int32(u)
			hg.incidenceArray = append(hg.incidenceArray, int32(he))
			newSize++
		}
	}

	hg.hypernodes[u].firstEntry = newFirst
	hg.hypernodes[u].size = newSize

	hg.hypernodes[v].disabled = true
	hg.currentNumNodes--

	return mem
}

// Uncontract reverses the matching Contract call. The projected partition
// assigns v to u's current block.
func (hg *Hypergraph) Uncontract(mem ContractionMemento) {
	u, v := mem.U, mem.V
	util.AssertPanic(hg.hypernodes[v].disabled, "uncontraction target is not contracted")

	hg.hypernodes[v].disabled = false
	hg.hypernodes[v].part = hg.hypernodes[u].part
	hg.currentNumNodes++
	hg.hypernodes[u].weight -= hg.hypernodes[v].weight

	part := hg.hypernodes[u].part

	collapsedAt := func(he HyperedgeID) (int, bool) {
		for _, c := range mem.collapsed {
			if c.he == he {
				return c.vSlot, true
			}
		}
		return 0, false
	}

	for _, heRaw := range hg.IncidentEdges(v) {
		he := HyperedgeID(heRaw)
		edge := &hg.hyperedges[he]
		if vSlot, ok := collapsedAt(he); ok {
			// regrow the edge; the slot past the valid range still holds v
			edge.size++
			hg.currentNumPins++
			last := edge.firstEntry + edge.size - 1
			util.AssertPanic(HypernodeID(hg.incidenceArray[last]) == v,
				fmt.Sprintf("hyperedge %d reuse slot does not hold pin %d", he, v))
			hg.incidenceArray[vSlot], hg.incidenceArray[last] =
				hg.incidenceArray[last], hg.incidenceArray[vSlot]
			if part != pkg.INVALID_PARTITION {
				hg.pinCountInPart[int(he)*hg.k+int(part)]++
			}
		} else {
			// give v its pin slot back
			pins := hg.incidenceArray[edge.firstEntry : edge.firstEntry+edge.size]
			restored := false
			for i, pin := range pins {
				if HypernodeID(pin) == u {
					hg.incidenceArray[edge.firstEntry+i] = int32(v)
					restored = true
					break
				}
			}
			util.AssertPanic(restored, fmt.Sprintf("hyperedge %d has no pin %d to replace", he, u))
		}
	}

	hg.hypernodes[u].firstEntry = mem.uFirstEntry
	hg.hypernodes[u].size = mem.uSize
	hg.incidenceArray = hg.incidenceArray[:mem.arenaLen]
}

// DisableHyperedge removes e from the incidence lists of its pins and marks
// it dead. Used for parallel hyperedges; RestoreHyperedge is
// the inverse, valid in reverse removal order once all pins are live again.
func (hg *Hypergraph) DisableHyperedge(e HyperedgeID) {
	util.AssertPanic(!hg.hyperedges[e].disabled, "hyperedge is already disabled")

	for _, pinRaw := range hg.Pins(e) {
		pin := HypernodeID(pinRaw)
		node := &hg.hypernodes[pin]
		list := hg.incidenceArray[node.firstEntry : node.firstEntry+node.size]
		for i, he := range list {
			if HyperedgeID(he) == e {
				last := node.firstEntry + node.size - 1
				hg.incidenceArray[node.firstEntry+i], hg.incidenceArray[last] =
					hg.incidenceArray[last], hg.incidenceArray[node.firstEntry+i]
				node.size--
				break
			}
		}
	}
	hg.currentNumPins -= hg.hyperedges[e].size
	hg.hyperedges[e].disabled = true
	hg.currentNumEdges--
}

func (hg *Hypergraph) RestoreHyperedge(e HyperedgeID) {
	util.AssertPanic(hg.hyperedges[e].disabled, "hyperedge is not disabled")

	for _, pinRaw := range hg.Pins(e) {
		pin := HypernodeID(pinRaw)
		util.AssertPanic(!hg.hypernodes[pin].disabled,
			fmt.Sprintf("cannot restore hyperedge %d: pin %d is contracted", e, pin))
		node := &hg.hypernodes[pin]
		node.size++
		last := node.firstEntry + node.size - 1
		util.AssertPanic(HyperedgeID(hg.incidenceArray[last]) == e,
			fmt.Sprintf("incidence slot of pin %d does not hold hyperedge %d", pin, e))
	}
	hg.hyperedges[e].disabled = false
	hg.currentNumPins += hg.hyperedges[e].size
	hg.currentNumEdges++

	// rebuild n(e, .) from the current assignment
	base := int(e) * hg.k
	for p := 0; p < hg.k; p++ {
		hg.pinCountInPart[base+p] = 0
	}
	for _, pinRaw := range hg.Pins(e) {
		p := hg.hypernodes[pinRaw].part
		if p != pkg.INVALID_PARTITION {
			hg.pinCountInPart[base+int(p)]++
		}
	}
}
