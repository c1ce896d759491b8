package store

import (
	"context"
	"time"

	"github.com/cognicore/keggnet/pkg/keggnet/entry"
)

// Store persists built networks and answers lookups against them
type Store interface {
	Close() error

	// SaveNetwork writes a snapshot as a new build and returns its record.
	SaveNetwork(ctx context.Context, snap Snapshot) (Build, error)
	// LatestBuild returns the most recently saved build.
	LatestBuild(ctx context.Context) (Build, bool, error)

	Links(ctx context.Context, buildID string) ([]Link, error)
	Node(ctx context.Context, buildID, id string) (Node, bool, error)
	// Neighbors returns the ids linked to id on the opposite side, sorted.
	Neighbors(ctx context.Context, buildID, id string) ([]string, error)
}

// Build describes one persisted network
type Build struct {
	ID        string
	Organism  string
	CreatedAt time.Time
	Enzymes   int
	Compounds int
	Links     int
}

// Node is a flattened enzyme or compound
type Node struct {
	ID       string
	Kind     entry.Kind
	Names    []string
	Pathways []entry.Pathway
}

// Link is one enzyme-compound edge
type Link struct {
	Enzyme   string
	Compound string
}

// Snapshot is everything needed to persist a network
type Snapshot struct {
	Organism string
	Nodes    []Node
	Links    []Link
}

// Counts returns the number of enzymes, compounds and links in the snapshot.
func (s Snapshot) Counts() (enzymes, compounds, links int) {
	for _, n := range s.Nodes {
		switch n.Kind {
		case entry.KindEnzyme:
			enzymes++
		case entry.KindCompound:
			compounds++
		}
	}
	return enzymes, compounds, len(s.Links)
}
