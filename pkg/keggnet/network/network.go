// Package network holds the bipartite enzyme/compound graph and the
// algorithm that links and prunes it.
//
// Enzymes only connect to compounds and compounds only to enzymes. The
// adjacency is stored twice, once per side, and every link is recorded on
// both sides or on neither.
package network

import (
	"cmp"
	"iter"
	"maps"
	"slices"

	"go.uber.org/zap"

	"github.com/cognicore/keggnet/pkg/keggnet/entry"
)

type set map[string]struct{}

func (s set) add(id string) { s[id] = struct{}{} }

func (s set) has(id string) bool {
	_, ok := s[id]
	return ok
}

// Link is one enzyme-compound edge.
type Link struct {
	Enzyme   string
	Compound string
}

// ConnectStats summarizes a ConnectNodes run.
type ConnectStats struct {
	Enzymes         int
	CompoundsBefore int
	CompoundsAfter  int
	Links           int
}

// Pruned is the number of compounds removed for lack of a retained enzyme.
func (s ConnectStats) Pruned() int {
	return s.CompoundsBefore - s.CompoundsAfter
}

// Network is a bipartite metabolic network. It is not safe for concurrent
// mutation.
type Network struct {
	log *zap.Logger

	enzymes   map[string]entry.Entity
	compounds map[string]entry.Entity

	enzymeLinks   map[string]set // enzyme id -> compound ids
	compoundLinks map[string]set // compound id -> enzyme ids
}

// Option configures a Network.
type Option func(*Network)

// WithLogger sets the logger used to report connection statistics.
func WithLogger(log *zap.Logger) Option {
	return func(n *Network) {
		if log != nil {
			n.log = log
		}
	}
}

// New creates an empty network.
func New(opts ...Option) *Network {
	n := &Network{
		log:           zap.NewNop(),
		enzymes:       make(map[string]entry.Entity),
		compounds:     make(map[string]entry.Entity),
		enzymeLinks:   make(map[string]set),
		compoundLinks: make(map[string]set),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// AddNode stores an entity under its id on the side given by its kind.
// A later entity with the same id replaces the earlier one.
func (n *Network) AddNode(e entry.Entity) {
	switch e.Kind() {
	case entry.KindEnzyme:
		n.enzymes[e.ID()] = e
	case entry.KindCompound:
		n.compounds[e.ID()] = e
	}
}

// AddLink connects an enzyme and a compound if both are present.
// Links to ids that were never loaded are silently dropped. Adding the
// same link twice has no further effect.
func (n *Network) AddLink(enzymeID, compoundID string) {
	if _, ok := n.enzymes[enzymeID]; !ok {
		return
	}
	if _, ok := n.compounds[compoundID]; !ok {
		return
	}

	if n.enzymeLinks[enzymeID] == nil {
		n.enzymeLinks[enzymeID] = make(set)
	}
	if n.compoundLinks[compoundID] == nil {
		n.compoundLinks[compoundID] = make(set)
	}
	n.enzymeLinks[enzymeID].add(compoundID)
	n.compoundLinks[compoundID].add(enzymeID)
}

// LinkEntities is AddLink for entity values.
func (n *Network) LinkEntities(enzyme, compound entry.Entity) {
	n.AddLink(enzyme.ID(), compound.ID())
}

// ConnectNodes builds the links declared by either catalog and prunes
// compounds that end up with no retained enzyme. It must run once, after
// every enzyme and compound has been added.
//
// A link is valid when either side declares it and both endpoints exist.
// Enzymes are already organism-filtered; pruning is what restricts the
// organism-agnostic compound catalog to the organism's metabolism.
func (n *Network) ConnectNodes() ConnectStats {
	stats := ConnectStats{
		Enzymes:         len(n.enzymes),
		CompoundsBefore: len(n.compounds),
	}
	n.log.Info("connecting network",
		zap.Int("enzymes", stats.Enzymes),
		zap.Int("compounds", stats.CompoundsBefore))

	reachable := make(set)

	// Links declared by the enzyme catalog.
	for enzymeID, e := range n.enzymes {
		for _, compoundID := range e.References() {
			n.AddLink(enzymeID, compoundID)
			reachable.add(compoundID)
		}
	}

	// Links declared by the compound catalog, limited to retained enzymes.
	for compoundID, c := range n.compounds {
		for _, enzymeID := range c.References() {
			if _, ok := n.enzymes[enzymeID]; !ok {
				continue
			}
			n.AddLink(enzymeID, compoundID)
			reachable.add(compoundID)
		}
	}

	for compoundID := range n.compounds {
		if !reachable.has(compoundID) {
			delete(n.compounds, compoundID)
		}
	}

	stats.CompoundsAfter = len(n.compounds)
	stats.Links = n.NumLinks()
	n.log.Info("pruned unreachable compounds",
		zap.Int("compounds", stats.CompoundsAfter),
		zap.Int("pruned", stats.Pruned()),
		zap.Int("links", stats.Links))

	return stats
}

// Enzyme returns the enzyme with the given id.
func (n *Network) Enzyme(id string) (entry.Entity, bool) {
	e, ok := n.enzymes[id]
	return e, ok
}

// Compound returns the compound with the given id.
func (n *Network) Compound(id string) (entry.Entity, bool) {
	c, ok := n.compounds[id]
	return c, ok
}

// EnzymeName returns the display name of an enzyme.
func (n *Network) EnzymeName(id string) (string, bool) {
	e, ok := n.enzymes[id]
	if !ok {
		return "", false
	}
	return e.DisplayName()
}

// CompoundName returns the display name of a compound.
func (n *Network) CompoundName(id string) (string, bool) {
	c, ok := n.compounds[id]
	if !ok {
		return "", false
	}
	return c.DisplayName()
}

// DisplayName resolves an enzyme or compound id to its canonical name.
// Enzymes are consulted first.
func (n *Network) DisplayName(id string) (string, bool) {
	if name, ok := n.EnzymeName(id); ok {
		return name, true
	}
	return n.CompoundName(id)
}

// EnzymeIDs returns the enzyme ids in sorted order.
func (n *Network) EnzymeIDs() []string {
	return slices.Sorted(maps.Keys(n.enzymes))
}

// CompoundIDs returns the compound ids in sorted order.
func (n *Network) CompoundIDs() []string {
	return slices.Sorted(maps.Keys(n.compounds))
}

// EnzymeNeighbors returns the compounds linked to an enzyme, sorted.
func (n *Network) EnzymeNeighbors(id string) []string {
	return slices.Sorted(maps.Keys(n.enzymeLinks[id]))
}

// CompoundNeighbors returns the enzymes linked to a compound, sorted.
func (n *Network) CompoundNeighbors(id string) []string {
	return slices.Sorted(maps.Keys(n.compoundLinks[id]))
}

// HasLink reports whether the enzyme side records the link.
func (n *Network) HasLink(enzymeID, compoundID string) bool {
	return n.enzymeLinks[enzymeID].has(compoundID)
}

// Links yields every (enzyme, compound) pair in no particular order.
func (n *Network) Links() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for enzymeID, compounds := range n.enzymeLinks {
			for compoundID := range compounds {
				if !yield(enzymeID, compoundID) {
					return
				}
			}
		}
	}
}

// SortedLinks returns every link ordered by enzyme then compound.
func (n *Network) SortedLinks() []Link {
	links := make([]Link, 0, n.NumLinks())
	for e, c := range n.Links() {
		links = append(links, Link{Enzyme: e, Compound: c})
	}
	slices.SortFunc(links, func(a, b Link) int {
		return cmp.Or(cmp.Compare(a.Enzyme, b.Enzyme), cmp.Compare(a.Compound, b.Compound))
	})
	return links
}

func (n *Network) NumEnzymes() int   { return len(n.enzymes) }
func (n *Network) NumCompounds() int { return len(n.compounds) }

// NumLinks counts links from the enzyme side.
func (n *Network) NumLinks() int {
	total := 0
	for _, compounds := range n.enzymeLinks {
		total += len(compounds)
	}
	return total
}
