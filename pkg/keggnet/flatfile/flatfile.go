// Package flatfile tokenizes KEGG-style flat files.
//
// A flat file is a sequence of entries separated by a line holding "///".
// Each line of an entry carries a field tag in its first 12 columns and the
// field value from column 13 onward. A line whose tag columns are blank
// continues the field opened by the nearest tagged line above it.
package flatfile

import (
	"iter"
	"strings"
)

// Separator terminates every entry in a flat file.
const Separator = "///"

// tagWidth is the number of leading columns reserved for the field tag.
const tagWidth = 12

// Field tags understood by the entry parsers.
const (
	TagEntry     = "ENTRY"
	TagName      = "NAME"
	TagClass     = "CLASS"
	TagSubstrate = "SUBSTRATE"
	TagProduct   = "PRODUCT"
	TagCofactor  = "COFACTOR"
	TagPathway   = "PATHWAY"
	TagReaction  = "REACTION"
	TagEnzyme    = "ENZYME"
	TagGenes     = "GENES"
)

// Field is one line of an entry resolved against its context.
// Tag is the context the line belongs to, not necessarily the text in its
// own tag columns.
type Field struct {
	Tag   string
	Value string
}

// SplitEntries splits raw file text into entry blocks.
// A trailing separator yields a final empty block; callers drop entries
// that parse to an empty identifier.
func SplitEntries(text string) []string {
	return strings.Split(text, Separator)
}

// Blocks is the lazy form of SplitEntries.
func Blocks(text string) iter.Seq[string] {
	return strings.SplitSeq(text, Separator)
}

// Fields yields the (context, value) pairs of one entry block.
//
// The first non-blank line of a block is expected to carry a tag. Lines
// read before any tag has been seen are yielded with an empty Tag, which
// every parser ignores. Blank lines carry no content and are skipped.
func Fields(block string) iter.Seq[Field] {
	return func(yield func(Field) bool) {
		context := ""
		for line := range strings.Lines(block) {
			if strings.TrimSpace(line) == "" {
				continue
			}
			tag, value := SplitLine(line)
			if tag != "" {
				context = tag
			}
			if !yield(Field{Tag: context, Value: value}) {
				return
			}
		}
	}
}

// SplitLine separates a line into its tag columns and its value, both
// trimmed. Lines shorter than the tag width have an empty value.
func SplitLine(line string) (tag, value string) {
	if len(line) <= tagWidth {
		return strings.TrimSpace(line), ""
	}
	return strings.TrimSpace(line[:tagWidth]), strings.TrimSpace(line[tagWidth:])
}
