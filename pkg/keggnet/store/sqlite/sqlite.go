package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/keggnet/pkg/keggnet/entry"
	"github.com/cognicore/keggnet/pkg/keggnet/internalerr"
	"github.com/cognicore/keggnet/pkg/keggnet/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db  *sql.DB
	ids *store.IDSource
	now func() time.Time
}

// OpenSQLite opens a SQLite database with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", internalerr.ErrStoreUnavailable, err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %w", internalerr.ErrStoreUnavailable, err)
	}

	// Enable foreign keys
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &sqliteStore{
		db:  db,
		ids: store.NewIDSource(),
		now: time.Now,
	}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS builds (
	id TEXT PRIMARY KEY,
	organism TEXT NOT NULL,
	created_at TEXT NOT NULL,
	enzymes INTEGER NOT NULL,
	compounds INTEGER NOT NULL,
	links INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS nodes (
	build_id TEXT NOT NULL,
	id TEXT NOT NULL,
	kind TEXT NOT NULL,
	PRIMARY KEY(build_id, id, kind),
	FOREIGN KEY(build_id) REFERENCES builds(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS node_names (
	build_id TEXT NOT NULL,
	node_id TEXT NOT NULL,
	kind TEXT NOT NULL,
	position INTEGER NOT NULL,
	name TEXT NOT NULL,
	PRIMARY KEY(build_id, node_id, kind, position),
	FOREIGN KEY(build_id, node_id, kind) REFERENCES nodes(build_id, id, kind) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS node_pathways (
	build_id TEXT NOT NULL,
	node_id TEXT NOT NULL,
	kind TEXT NOT NULL,
	position INTEGER NOT NULL,
	pathway_id TEXT NOT NULL,
	pathway_name TEXT NOT NULL,
	PRIMARY KEY(build_id, node_id, kind, position),
	FOREIGN KEY(build_id, node_id, kind) REFERENCES nodes(build_id, id, kind) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS links (
	build_id TEXT NOT NULL,
	enzyme_id TEXT NOT NULL,
	compound_id TEXT NOT NULL,
	PRIMARY KEY(build_id, enzyme_id, compound_id),
	FOREIGN KEY(build_id) REFERENCES builds(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS links_by_compound ON links(build_id, compound_id);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// SaveNetwork writes the snapshot as a new build in one transaction
func (s *sqliteStore) SaveNetwork(ctx context.Context, snap store.Snapshot) (store.Build, error) {
	now := s.now().UTC()
	enzymes, compounds, links := snap.Counts()
	b := store.Build{
		ID:        s.ids.Next(now),
		Organism:  snap.Organism,
		CreatedAt: now,
		Enzymes:   enzymes,
		Compounds: compounds,
		Links:     links,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return store.Build{}, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO builds (id, organism, created_at, enzymes, compounds, links) VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, b.Organism, b.CreatedAt.Format(time.RFC3339Nano), b.Enzymes, b.Compounds, b.Links,
	)
	if err != nil {
		return store.Build{}, fmt.Errorf("insert build: %w", err)
	}

	if err := insertNodes(ctx, tx, b.ID, snap.Nodes); err != nil {
		return store.Build{}, err
	}
	if err := insertLinks(ctx, tx, b.ID, snap.Links); err != nil {
		return store.Build{}, err
	}

	if err := tx.Commit(); err != nil {
		return store.Build{}, err
	}
	return b, nil
}

func insertNodes(ctx context.Context, tx *sql.Tx, buildID string, nodes []store.Node) error {
	nodeStmt, err := tx.PrepareContext(ctx, `INSERT INTO nodes (build_id, id, kind) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer nodeStmt.Close()

	nameStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO node_names (build_id, node_id, kind, position, name) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer nameStmt.Close()

	pathwayStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO node_pathways (build_id, node_id, kind, position, pathway_id, pathway_name) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer pathwayStmt.Close()

	for _, n := range nodes {
		kind := n.Kind.String()
		if _, err := nodeStmt.ExecContext(ctx, buildID, n.ID, kind); err != nil {
			return fmt.Errorf("insert node %s: %w", n.ID, err)
		}
		for i, name := range n.Names {
			if _, err := nameStmt.ExecContext(ctx, buildID, n.ID, kind, i, name); err != nil {
				return fmt.Errorf("insert name of %s: %w", n.ID, err)
			}
		}
		for i, p := range n.Pathways {
			if _, err := pathwayStmt.ExecContext(ctx, buildID, n.ID, kind, i, p.ID, p.Name); err != nil {
				return fmt.Errorf("insert pathway of %s: %w", n.ID, err)
			}
		}
	}
	return nil
}

func insertLinks(ctx context.Context, tx *sql.Tx, buildID string, links []store.Link) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO links (build_id, enzyme_id, compound_id) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, l := range links {
		if _, err := stmt.ExecContext(ctx, buildID, l.Enzyme, l.Compound); err != nil {
			return fmt.Errorf("insert link %s-%s: %w", l.Enzyme, l.Compound, err)
		}
	}
	return nil
}

// LatestBuild returns the newest build; ULID ids sort by creation time
func (s *sqliteStore) LatestBuild(ctx context.Context) (store.Build, bool, error) {
	var (
		b       store.Build
		created string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, organism, created_at, enzymes, compounds, links FROM builds ORDER BY id DESC LIMIT 1`,
	).Scan(&b.ID, &b.Organism, &created, &b.Enzymes, &b.Compounds, &b.Links)
	if err == sql.ErrNoRows {
		return store.Build{}, false, nil
	}
	if err != nil {
		return store.Build{}, false, err
	}

	b.CreatedAt, err = time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return store.Build{}, false, fmt.Errorf("parse created_at: %w", err)
	}
	return b, true, nil
}

// Links returns every link of a build ordered by enzyme then compound
func (s *sqliteStore) Links(ctx context.Context, buildID string) ([]store.Link, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT enzyme_id, compound_id FROM links WHERE build_id = ? ORDER BY enzyme_id, compound_id`,
		buildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []store.Link
	for rows.Next() {
		var l store.Link
		if err := rows.Scan(&l.Enzyme, &l.Compound); err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// Node loads a node with its names and pathways. When an id exists on
// both sides the enzyme is returned.
func (s *sqliteStore) Node(ctx context.Context, buildID, id string) (store.Node, bool, error) {
	var kind string
	err := s.db.QueryRowContext(ctx,
		`SELECT kind FROM nodes WHERE build_id = ? AND id = ? ORDER BY kind = 'enzyme' DESC LIMIT 1`,
		buildID, id,
	).Scan(&kind)
	if err == sql.ErrNoRows {
		return store.Node{}, false, nil
	}
	if err != nil {
		return store.Node{}, false, err
	}

	k, ok := entry.ParseKind(kind)
	if !ok {
		return store.Node{}, false, fmt.Errorf("%w: node %s has kind %q", internalerr.ErrInvalidInput, id, kind)
	}
	n := store.Node{ID: id, Kind: k}

	names, err := s.db.QueryContext(ctx,
		`SELECT name FROM node_names WHERE build_id = ? AND node_id = ? AND kind = ? ORDER BY position`,
		buildID, id, kind)
	if err != nil {
		return store.Node{}, false, err
	}
	defer names.Close()
	for names.Next() {
		var name string
		if err := names.Scan(&name); err != nil {
			return store.Node{}, false, err
		}
		n.Names = append(n.Names, name)
	}
	if err := names.Err(); err != nil {
		return store.Node{}, false, err
	}

	pathways, err := s.db.QueryContext(ctx,
		`SELECT pathway_id, pathway_name FROM node_pathways WHERE build_id = ? AND node_id = ? AND kind = ? ORDER BY position`,
		buildID, id, kind)
	if err != nil {
		return store.Node{}, false, err
	}
	defer pathways.Close()
	for pathways.Next() {
		var p entry.Pathway
		if err := pathways.Scan(&p.ID, &p.Name); err != nil {
			return store.Node{}, false, err
		}
		n.Pathways = append(n.Pathways, p)
	}
	if err := pathways.Err(); err != nil {
		return store.Node{}, false, err
	}

	return n, true, nil
}

// Neighbors returns the ids linked to id on either side, sorted
func (s *sqliteStore) Neighbors(ctx context.Context, buildID, id string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT compound_id FROM links WHERE build_id = ? AND enzyme_id = ?
UNION
SELECT enzyme_id FROM links WHERE build_id = ? AND compound_id = ?
ORDER BY 1`,
		buildID, id, buildID, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
