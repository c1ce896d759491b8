// Package entry defines the compound and enzyme records of a metabolic
// network and the parsers that build them from flat-file fields.
package entry

import "strings"

// Kind tags which side of the bipartite network an entity belongs to.
type Kind int

const (
	KindCompound Kind = iota + 1
	KindEnzyme
)

func (k Kind) String() string {
	switch k {
	case KindCompound:
		return "compound"
	case KindEnzyme:
		return "enzyme"
	default:
		return "unknown"
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(s) {
	case "compound":
		return KindCompound, true
	case "enzyme":
		return KindEnzyme, true
	}
	return 0, false
}

// Entity is the capability shared by compounds and enzymes.
type Entity interface {
	ID() string
	Kind() Kind
	// DisplayName returns the canonical name, the first recorded name.
	DisplayName() (string, bool)
	// References lists the identifiers of the opposite kind that this
	// record itself declares a relation to.
	References() []string
	Base() Entry
}

// Pathway is a (pathway-id, pathway-name) reference.
// ID is empty when the source line could not be split.
type Pathway struct {
	ID   string
	Name string
}

// Entry holds the fields common to compounds and enzymes.
type Entry struct {
	Accession string
	Names     []string
	Pathways  []Pathway
}

func (e Entry) ID() string { return e.Accession }

func (e Entry) DisplayName() (string, bool) {
	if len(e.Names) == 0 {
		return "", false
	}
	return e.Names[0], true
}

func (e Entry) Base() Entry { return e }

// String renders "<id>\t<name>", or just the id when unnamed.
func (e Entry) String() string {
	name, ok := e.DisplayName()
	if !ok {
		return e.Accession
	}
	return e.Accession + "\t" + name
}

// Compound is a record from the compound catalog.
type Compound struct {
	Entry
	Reactions []string
	// Enzymes as declared by the compound catalog; may name enzymes of
	// any organism.
	Enzymes []string
}

func (c *Compound) Kind() Kind { return KindCompound }

func (c *Compound) References() []string { return c.Enzymes }

// Enzyme is a record from the enzyme catalog.
type Enzyme struct {
	Entry
	Classes   []string
	Compounds []string
}

func (e *Enzyme) Kind() Kind { return KindEnzyme }

func (e *Enzyme) References() []string { return e.Compounds }
