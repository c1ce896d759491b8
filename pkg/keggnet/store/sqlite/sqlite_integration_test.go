package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/cognicore/keggnet/pkg/keggnet/entry"
	"github.com/cognicore/keggnet/pkg/keggnet/network"
	"github.com/cognicore/keggnet/pkg/keggnet/store"
)

func openTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func testNetwork() *network.Network {
	n := network.New()
	n.AddNode(&entry.Enzyme{
		Entry: entry.Entry{
			Accession: "1.1.1.1",
			Names:     []string{"alcohol dehydrogenase", "aldehyde reductase"},
			Pathways:  []entry.Pathway{{ID: "map00010", Name: "Glycolysis"}},
		},
		Compounds: []string{"C00469"},
	})
	n.AddNode(&entry.Compound{
		Entry:   entry.Entry{Accession: "C00469", Names: []string{"Ethanol"}},
		Enzymes: []string{"1.1.1.1"},
	})
	n.AddNode(&entry.Compound{
		Entry:   entry.Entry{Accession: "C00031", Names: []string{"D-Glucose"}},
		Enzymes: []string{"1.1.1.1"},
	})
	n.AddNode(&entry.Compound{Entry: entry.Entry{Accession: "C99999", Names: []string{"orphan"}}})
	n.ConnectNodes()
	return n
}

// TestSQLiteIntegrationBasic round-trips a connected network
func TestSQLiteIntegrationBasic(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	b, err := st.SaveNetwork(ctx, store.FromNetwork(testNetwork(), "HSA"))
	if err != nil {
		t.Fatalf("SaveNetwork: %v", err)
	}
	if b.Enzymes != 1 || b.Compounds != 2 || b.Links != 2 {
		t.Errorf("unexpected build counts %+v", b)
	}

	latest, found, err := st.LatestBuild(ctx)
	if err != nil {
		t.Fatalf("LatestBuild: %v", err)
	}
	if !found {
		t.Fatal("build should be found")
	}
	if latest.ID != b.ID || latest.Organism != "HSA" {
		t.Errorf("latest = %+v, want id %s", latest, b.ID)
	}
	if !latest.CreatedAt.Equal(b.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", latest.CreatedAt, b.CreatedAt)
	}

	links, err := st.Links(ctx, b.ID)
	if err != nil {
		t.Fatalf("Links: %v", err)
	}
	want := []store.Link{
		{Enzyme: "1.1.1.1", Compound: "C00031"},
		{Enzyme: "1.1.1.1", Compound: "C00469"},
	}
	if len(links) != len(want) {
		t.Fatalf("Links = %v, want %v", links, want)
	}
	for i := range want {
		if links[i] != want[i] {
			t.Errorf("link %d = %v, want %v", i, links[i], want[i])
		}
	}
}

func TestSQLiteNode(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	b, err := st.SaveNetwork(ctx, store.FromNetwork(testNetwork(), "HSA"))
	if err != nil {
		t.Fatalf("SaveNetwork: %v", err)
	}

	n, found, err := st.Node(ctx, b.ID, "1.1.1.1")
	if err != nil || !found {
		t.Fatalf("Node: found=%v err=%v", found, err)
	}
	if n.Kind != entry.KindEnzyme {
		t.Errorf("Kind = %v, want enzyme", n.Kind)
	}
	if len(n.Names) != 2 || n.Names[0] != "alcohol dehydrogenase" || n.Names[1] != "aldehyde reductase" {
		t.Errorf("Names = %v", n.Names)
	}
	if len(n.Pathways) != 1 || n.Pathways[0] != (entry.Pathway{ID: "map00010", Name: "Glycolysis"}) {
		t.Errorf("Pathways = %v", n.Pathways)
	}

	if _, found, _ := st.Node(ctx, b.ID, "C99999"); found {
		t.Error("pruned compound should not be persisted")
	}
}

func TestSQLiteNeighbors(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	b, _ := st.SaveNetwork(ctx, store.FromNetwork(testNetwork(), "HSA"))

	got, err := st.Neighbors(ctx, b.ID, "1.1.1.1")
	if err != nil {
		t.Fatalf("Neighbors: %v", err)
	}
	if len(got) != 2 || got[0] != "C00031" || got[1] != "C00469" {
		t.Errorf("enzyme neighbors = %v", got)
	}

	got, _ = st.Neighbors(ctx, b.ID, "C00469")
	if len(got) != 1 || got[0] != "1.1.1.1" {
		t.Errorf("compound neighbors = %v", got)
	}
}

func TestSQLiteLatestOfSeveral(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	first, _ := st.SaveNetwork(ctx, store.FromNetwork(testNetwork(), "HSA"))
	second, err := st.SaveNetwork(ctx, store.FromNetwork(testNetwork(), "MMU"))
	if err != nil {
		t.Fatalf("SaveNetwork: %v", err)
	}

	latest, _, _ := st.LatestBuild(ctx)
	if latest.ID != second.ID || latest.Organism != "MMU" {
		t.Errorf("latest = %+v, want %s", latest, second.ID)
	}

	// Builds are independent.
	links, _ := st.Links(ctx, first.ID)
	if len(links) != 2 {
		t.Errorf("first build links = %d, want 2", len(links))
	}
}

// TestSchemaCreationIdempotent tests that running initSchema multiple times is safe
func TestSchemaCreationIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open database: %v", err)
	}
	defer db.Close()

	for i := 0; i < 3; i++ {
		if err := initSchema(ctx, db); err != nil {
			t.Fatalf("initSchema iteration %d: %v", i, err)
		}
	}

	var count int
	err = db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'").Scan(&count)
	if err != nil {
		t.Fatalf("Count tables: %v", err)
	}
	expected := 5 // builds, nodes, node_names, node_pathways, links
	if count != expected {
		t.Errorf("Expected %d tables, got %d", expected, count)
	}
}

func TestReopenPreservesBuilds(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")

	st, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	b, err := st.SaveNetwork(ctx, store.FromNetwork(testNetwork(), "HSA"))
	if err != nil {
		t.Fatalf("SaveNetwork: %v", err)
	}
	st.Close()

	st, err = OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st.Close()

	latest, found, err := st.LatestBuild(ctx)
	if err != nil || !found || latest.ID != b.ID {
		t.Fatalf("LatestBuild after reopen = %+v, %v, %v", latest, found, err)
	}
}
