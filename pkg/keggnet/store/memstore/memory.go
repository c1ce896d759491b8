package memstore

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/cognicore/keggnet/pkg/keggnet/store"
)

// Store is an in-memory implementation of store.Store for tests.
type Store struct {
	mu     sync.RWMutex
	ids    *store.IDSource
	now    func() time.Time
	order  []string // build ids, oldest first
	builds map[string]*build
}

type build struct {
	meta  store.Build
	nodes map[string]store.Node
	links []store.Link
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		ids:    store.NewIDSource(),
		now:    time.Now,
		builds: make(map[string]*build),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// SaveNetwork stores a deep copy of the snapshot under a new build id.
func (s *Store) SaveNetwork(ctx context.Context, snap store.Snapshot) (store.Build, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	enzymes, compounds, links := snap.Counts()
	meta := store.Build{
		ID:        s.ids.Next(now),
		Organism:  snap.Organism,
		CreatedAt: now,
		Enzymes:   enzymes,
		Compounds: compounds,
		Links:     links,
	}

	b := &build{
		meta:  meta,
		nodes: make(map[string]store.Node, len(snap.Nodes)),
		links: slices.Clone(snap.Links),
	}
	for _, n := range snap.Nodes {
		if _, exists := b.nodes[n.ID]; exists {
			// Enzymes come first in a snapshot and win id collisions.
			continue
		}
		b.nodes[n.ID] = copyNode(n)
	}

	s.builds[meta.ID] = b
	s.order = append(s.order, meta.ID)
	return meta, nil
}

// LatestBuild returns the most recently saved build.
func (s *Store) LatestBuild(ctx context.Context) (store.Build, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.order) == 0 {
		return store.Build{}, false, nil
	}
	return s.builds[s.order[len(s.order)-1]].meta, true, nil
}

// Links returns the links of a build.
func (s *Store) Links(ctx context.Context, buildID string) ([]store.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.builds[buildID]
	if !ok {
		return nil, nil
	}
	return slices.Clone(b.links), nil
}

// Node returns a node of a build.
func (s *Store) Node(ctx context.Context, buildID, id string) (store.Node, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.builds[buildID]
	if !ok {
		return store.Node{}, false, nil
	}
	n, ok := b.nodes[id]
	if !ok {
		return store.Node{}, false, nil
	}
	return copyNode(n), true, nil
}

// Neighbors returns the ids linked to id, sorted.
func (s *Store) Neighbors(ctx context.Context, buildID, id string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.builds[buildID]
	if !ok {
		return nil, nil
	}

	seen := make(map[string]struct{})
	for _, l := range b.links {
		switch id {
		case l.Enzyme:
			seen[l.Compound] = struct{}{}
		case l.Compound:
			seen[l.Enzyme] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	slices.Sort(out)
	return out, nil
}

func copyNode(n store.Node) store.Node {
	n.Names = slices.Clone(n.Names)
	n.Pathways = slices.Clone(n.Pathways)
	return n
}
