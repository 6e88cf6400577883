package partitioner

import (
	"github.com/lintang-b-s/hypar/pkg"
	da "github.com/lintang-b-s/hypar/pkg/datastructure"
	"github.com/lintang-b-s/hypar/pkg/random"
)

// Rating is the best contraction partner found for a hypernode.
type Rating struct {
	Target da.HypernodeID
	Value  float64
	Valid  bool
}

/*
Rater scores candidate contraction pairs with the heavy-edge rating

	rate(u, v) = sum_{e contains u,v} w(e) / (|e| - 1) / (c(u) * c(v)).

A pair is eligible only if the combined weight does not exceed the
coarsening cap and, once blocks are assigned (v-cycles), both endpoints share a block.
Ties between equal-rated partners are broken uniformly at random.
*/
type Rater struct {
	hg  *da.Hypergraph
	cfg *Config
	rnd *random.Randomizer

	// dense scratch, reset via the touched list between calls
	scores  []float64
	touched []da.HypernodeID
}

func NewRater(hg *da.Hypergraph, cfg *Config, rnd *random.Randomizer) *Rater {
	return &Rater{
		hg:     hg,
		cfg:    cfg,
		rnd:    rnd,
		scores: make([]float64, hg.InitialNumberOfNodes()),
	}
}

// Rate returns the best eligible partner of u, or an invalid rating when u
// has none.
func (r *Rater) Rate(u da.HypernodeID) Rating {
	hg := r.hg
	weightU := hg.NodeWeight(u)
	partU := hg.PartID(u)

	for _, heRaw := range hg.IncidentEdges(u) {
		he := da.HyperedgeID(heRaw)
		size := hg.EdgeSize(he)
		if size < 2 || r.edgeTooLarge(size) {
			continue
		}
		score := float64(hg.EdgeWeight(he)) / float64(size-1)
		for _, pinRaw := range hg.Pins(he) {
			v := da.HypernodeID(pinRaw)
			if v == u {
				continue
			}
			if r.scores[v] == 0 {
				r.touched = append(r.touched, v)
			}
			r.scores[v] += score
		}
	}

	best := Rating{Target: da.InvalidHypernode}
	numTies := 0
	for _, v := range r.touched {
		score := r.scores[v]
		r.scores[v] = 0

		if weightU+hg.NodeWeight(v) > r.cfg.MaxAllowedNodeWeight {
			continue
		}
		if partU != pkg.INVALID_PARTITION && hg.PartID(v) != partU {
			continue
		}

		rating := score / float64(weightU*hg.NodeWeight(v))
		if !best.Valid || rating > best.Value {
			best = Rating{Target: v, Value: rating, Valid: true}
			numTies = 1
		} else if rating == best.Value {
			// reservoir draw keeps each tied partner equally likely
			numTies++
			if r.rnd.Intn(numTies) == 0 {
				best.Target = v
			}
		}
	}
	r.touched = r.touched[:0]

	return best
}

func (r *Rater) edgeTooLarge(size int) bool {
	return r.cfg.HyperedgeSizeThreshold >= 0 && size > r.cfg.HyperedgeSizeThreshold
}
