// Package keggnet builds an organism-specific bipartite metabolic network
// from the KEGG enzyme and compound catalogs.
package keggnet

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/cognicore/keggnet/pkg/keggnet/entry"
	"github.com/cognicore/keggnet/pkg/keggnet/flatfile"
	"github.com/cognicore/keggnet/pkg/keggnet/internalerr"
	"github.com/cognicore/keggnet/pkg/keggnet/network"
)

// Options configures a Builder
type Options struct {
	// Organism is the KEGG organism code enzymes must be annotated with.
	// Defaults to entry.DefaultOrganism.
	Organism string
	Logger   *zap.Logger
}

// Builder parses both catalogs and assembles the network
type Builder struct {
	parser *entry.Parser
	log    *zap.Logger
}

// New creates a Builder with the given options
func New(opts Options) *Builder {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{
		parser: entry.NewParser(opts.Organism),
		log:    log,
	}
}

// Organism returns the normalized organism code the builder filters on.
func (b *Builder) Organism() string {
	return b.parser.Organism()
}

// ParseStats counts what happened to the blocks of one catalog.
type ParseStats struct {
	Blocks   int
	Added    int
	Filtered int // enzymes outside the organism
	Empty    int // blocks without an entry id
}

// Result is a finished network together with how it was built.
type Result struct {
	Organism  string
	Network   *network.Network
	Enzymes   ParseStats
	Compounds ParseStats
	Connect   network.ConnectStats
}

// Build reads both catalogs, parses the enzymes and then the compounds,
// and connects the network once both are loaded.
func (b *Builder) Build(ctx context.Context, enzymes, compounds io.Reader) (*Result, error) {
	enzymeText, err := io.ReadAll(enzymes)
	if err != nil {
		return nil, fmt.Errorf("read enzyme catalog: %w", err)
	}
	compoundText, err := io.ReadAll(compounds)
	if err != nil {
		return nil, fmt.Errorf("read compound catalog: %w", err)
	}

	res := &Result{
		Organism: b.Organism(),
		Network:  network.New(network.WithLogger(b.log)),
	}

	b.log.Info("parsing enzyme catalog", zap.String("organism", res.Organism))
	res.Enzymes = b.loadEnzymes(res.Network, string(enzymeText))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.log.Info("parsing compound catalog")
	res.Compounds = b.loadCompounds(res.Network, string(compoundText))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res.Connect = res.Network.ConnectNodes()
	return res, nil
}

// BuildFiles is Build over two catalog files. A missing or unreadable file
// is reported as internalerr.ErrMissingInput.
func (b *Builder) BuildFiles(ctx context.Context, enzymePath, compoundPath string) (*Result, error) {
	enzymes, err := os.Open(enzymePath)
	if err != nil {
		return nil, fmt.Errorf("open enzyme catalog: %w: %w", internalerr.ErrMissingInput, err)
	}
	defer enzymes.Close()

	compounds, err := os.Open(compoundPath)
	if err != nil {
		return nil, fmt.Errorf("open compound catalog: %w: %w", internalerr.ErrMissingInput, err)
	}
	defer compounds.Close()

	return b.Build(ctx, enzymes, compounds)
}

func (b *Builder) loadEnzymes(n *network.Network, text string) ParseStats {
	var stats ParseStats
	for block := range flatfile.Blocks(text) {
		stats.Blocks++
		e, ok := b.parser.ParseEnzyme(flatfile.Fields(block))
		if !ok {
			stats.Filtered++
			continue
		}
		if e.ID() == "" {
			stats.Empty++
			continue
		}
		n.AddNode(e)
		stats.Added++
	}
	b.log.Info("parsed enzyme catalog",
		zap.Int("blocks", stats.Blocks),
		zap.Int("retained", stats.Added),
		zap.Int("filtered", stats.Filtered))
	return stats
}

func (b *Builder) loadCompounds(n *network.Network, text string) ParseStats {
	var stats ParseStats
	for block := range flatfile.Blocks(text) {
		stats.Blocks++
		c := b.parser.ParseCompound(flatfile.Fields(block))
		if c.ID() == "" {
			stats.Empty++
			continue
		}
		n.AddNode(c)
		stats.Added++
	}
	b.log.Info("parsed compound catalog",
		zap.Int("blocks", stats.Blocks),
		zap.Int("added", stats.Added))
	return stats
}
