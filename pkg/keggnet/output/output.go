// Package output writes a finished network as two parallel link files:
// one with raw ids and one with display names.
package output

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/cognicore/keggnet/pkg/keggnet/network"
)

// DefaultPath is where the id file is written when no path is configured.
const DefaultPath = "data/hs_bi_metabolic.net"

// Source is the read side of a network needed for serialization.
type Source interface {
	SortedLinks() []network.Link
	EnzymeName(id string) (string, bool)
	CompoundName(id string) (string, bool)
}

// Summary reports what was written.
type Summary struct {
	Links        int
	Named        int
	MissingNames int
}

// Writer serializes networks.
type Writer struct {
	log *zap.Logger
}

// NewWriter creates a Writer. A nil logger discards the missing-name notices.
func NewWriter(log *zap.Logger) *Writer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Writer{log: log}
}

// NamesPath derives the display-name file from the id file path:
// "net/hs.net" becomes "net/hs_withname.net".
func NamesPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_withname" + ext
}

// Write emits one "enzyme\tcompound" line per link to ids and the matching
// display-name line to names. A link whose endpoint has no name loses only
// its name line.
func (w *Writer) Write(src Source, ids, names io.Writer) (Summary, error) {
	idBuf := bufio.NewWriter(ids)
	nameBuf := bufio.NewWriter(names)

	var sum Summary
	for _, l := range src.SortedLinks() {
		if _, err := fmt.Fprintf(idBuf, "%s\t%s\n", l.Enzyme, l.Compound); err != nil {
			return sum, fmt.Errorf("write link: %w", err)
		}
		sum.Links++

		enzymeName, okE := src.EnzymeName(l.Enzyme)
		compoundName, okC := src.CompoundName(l.Compound)
		if !okE || !okC {
			sum.MissingNames++
			w.log.Warn("skipping name line",
				zap.String("enzyme", l.Enzyme),
				zap.String("compound", l.Compound),
				zap.Bool("enzyme_named", okE),
				zap.Bool("compound_named", okC))
			continue
		}
		if _, err := fmt.Fprintf(nameBuf, "%s\t%s\n", enzymeName, compoundName); err != nil {
			return sum, fmt.Errorf("write name: %w", err)
		}
		sum.Named++
	}

	if err := idBuf.Flush(); err != nil {
		return sum, fmt.Errorf("flush links: %w", err)
	}
	if err := nameBuf.Flush(); err != nil {
		return sum, fmt.Errorf("flush names: %w", err)
	}
	return sum, nil
}

// WriteFiles writes the id file at path and the name file beside it,
// creating the directory if needed.
func (w *Writer) WriteFiles(src Source, path string) (Summary, error) {
	if path == "" {
		path = DefaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return Summary{}, fmt.Errorf("create output dir: %w", err)
	}

	idFile, err := os.Create(path)
	if err != nil {
		return Summary{}, fmt.Errorf("create %s: %w", path, err)
	}
	defer idFile.Close()

	namesPath := NamesPath(path)
	nameFile, err := os.Create(namesPath)
	if err != nil {
		return Summary{}, fmt.Errorf("create %s: %w", namesPath, err)
	}
	defer nameFile.Close()

	sum, err := w.Write(src, idFile, nameFile)
	if err != nil {
		return sum, err
	}
	if err := idFile.Close(); err != nil {
		return sum, fmt.Errorf("close %s: %w", path, err)
	}
	if err := nameFile.Close(); err != nil {
		return sum, fmt.Errorf("close %s: %w", namesPath, err)
	}

	w.log.Info("wrote network",
		zap.String("path", path),
		zap.String("names", namesPath),
		zap.Int("links", sum.Links),
		zap.Int("missing_names", sum.MissingNames))
	return sum, nil
}
