package store

import (
	"crypto/rand"
	"slices"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/keggnet/pkg/keggnet/entry"
	"github.com/cognicore/keggnet/pkg/keggnet/network"
)

// FromNetwork flattens a connected network into a snapshot. Nodes are
// ordered enzymes first, each side by id.
func FromNetwork(n *network.Network, organism string) Snapshot {
	snap := Snapshot{
		Organism: organism,
		Nodes:    make([]Node, 0, n.NumEnzymes()+n.NumCompounds()),
		Links:    make([]Link, 0, n.NumLinks()),
	}

	for _, id := range n.EnzymeIDs() {
		e, _ := n.Enzyme(id)
		snap.Nodes = append(snap.Nodes, nodeOf(e))
	}
	for _, id := range n.CompoundIDs() {
		c, _ := n.Compound(id)
		snap.Nodes = append(snap.Nodes, nodeOf(c))
	}
	for _, l := range n.SortedLinks() {
		snap.Links = append(snap.Links, Link{Enzyme: l.Enzyme, Compound: l.Compound})
	}
	return snap
}

func nodeOf(e entry.Entity) Node {
	base := e.Base()
	return Node{
		ID:       e.ID(),
		Kind:     e.Kind(),
		Names:    slices.Clone(base.Names),
		Pathways: slices.Clone(base.Pathways),
	}
}

// IDSource hands out monotonically increasing ULID build ids.
type IDSource struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewIDSource creates an id source backed by crypto/rand.
func NewIDSource() *IDSource {
	return &IDSource{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// Next returns a new id for time t.
func (s *IDSource) Next(t time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), s.entropy).String()
}
