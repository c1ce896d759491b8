package entry

import (
	"iter"
	"strings"

	"github.com/cognicore/keggnet/pkg/keggnet/flatfile"
)

// DefaultOrganism is the KEGG code for Homo sapiens.
const DefaultOrganism = "HSA"

// Parser folds flat-file fields into compounds and enzymes.
// Parsing never fails: a malformed line only loses its own contribution.
type Parser struct {
	organism string
	token    string // "<CODE>:" as it appears in GENES lines
}

// NewParser creates a parser that retains enzymes annotated with the
// given organism code. An empty code falls back to DefaultOrganism.
func NewParser(organism string) *Parser {
	code := strings.ToUpper(strings.TrimSpace(organism))
	if code == "" {
		code = DefaultOrganism
	}
	return &Parser{organism: code, token: code + ":"}
}

// Organism returns the normalized organism code.
func (p *Parser) Organism() string {
	return p.organism
}

// ParseCompound folds one compound entry. An empty block yields a compound
// with an empty accession.
func (p *Parser) ParseCompound(fields iter.Seq[flatfile.Field]) *Compound {
	f := compoundFold{c: &Compound{}}
	for field := range fields {
		f.step(field)
	}
	return f.c
}

// ParseEnzyme folds one enzyme entry. The boolean reports whether any GENES
// line names the parser's organism; when false the enzyme is nil.
func (p *Parser) ParseEnzyme(fields iter.Seq[flatfile.Field]) (*Enzyme, bool) {
	f := enzymeFold{e: &Enzyme{}, token: p.token}
	for field := range fields {
		f.step(field)
	}
	if !f.member {
		return nil, false
	}
	return f.e, true
}

type compoundFold struct {
	c *Compound
}

func (f *compoundFold) step(field flatfile.Field) {
	v := field.Value
	switch field.Tag {
	case flatfile.TagEntry:
		if tokens := strings.Fields(v); len(tokens) > 0 {
			f.c.Accession = tokens[0]
		}
	case flatfile.TagName:
		f.c.Names = append(f.c.Names, trimName(v))
	case flatfile.TagReaction:
		f.c.Reactions = append(f.c.Reactions, strings.Fields(v)...)
	case flatfile.TagEnzyme:
		f.c.Enzymes = append(f.c.Enzymes, strings.Fields(v)...)
	case flatfile.TagPathway:
		f.c.Pathways = append(f.c.Pathways, parsePathway(v))
	}
}

type enzymeFold struct {
	e      *Enzyme
	token  string
	member bool
}

func (f *enzymeFold) step(field flatfile.Field) {
	v := field.Value
	switch field.Tag {
	case flatfile.TagEntry:
		// "EC 1.1.1.1   Enzyme": the id follows a type marker token.
		if tokens := strings.Fields(v); len(tokens) > 1 {
			f.e.Accession = tokens[1]
		}
	case flatfile.TagName:
		f.e.Names = append(f.e.Names, trimName(v))
	case flatfile.TagClass:
		f.e.Classes = append(f.e.Classes, trimName(v))
	case flatfile.TagSubstrate, flatfile.TagProduct, flatfile.TagCofactor:
		if id, ok := compoundRef(v); ok {
			f.e.Compounds = append(f.e.Compounds, id)
		}
	case flatfile.TagPathway:
		f.e.Pathways = append(f.e.Pathways, parsePathway(v))
	case flatfile.TagGenes:
		if strings.Contains(v, f.token) {
			f.member = true
		}
	}
}

func trimName(v string) string {
	return strings.TrimRight(v, ";")
}

// compoundRef extracts the compound id from "ethanol [CPD:C00469];".
func compoundRef(v string) (string, bool) {
	parts := strings.Split(v, ":")
	if len(parts) < 2 {
		return "", false
	}
	return strings.TrimRight(strings.TrimSpace(parts[1]), "];"), true
}

// parsePathway reads "PATH: map00010  Glycolysis". Values without a colon
// are kept verbatim as the name.
func parsePathway(v string) Pathway {
	_, rest, found := strings.Cut(v, ":")
	if !found {
		return Pathway{Name: strings.TrimSpace(v)}
	}
	id, name, _ := strings.Cut(strings.TrimSpace(rest), "  ")
	return Pathway{ID: strings.TrimSpace(id), Name: strings.TrimSpace(name)}
}
