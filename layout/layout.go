// layout joins labels, positions, and colors into cell records and renders
// them as the two command blocks consumed by the presentation engine.
package layout

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"gridcanvas/colors"
	"gridcanvas/models"
)

const (
	CreationHeader  = "############### NEW CANVAS ###############"
	RetrievalHeader = "############### GET CANVAS ###############"
)

// Units selects how sizes and positions are written.
type Units int

const (
	// Pixels writes bare numbers.
	Pixels Units = iota
	// Viewport writes quoted vw/vh strings, for canvases that scale with the window.
	Viewport
)

// Grouping selects which label index separates command groups with a blank line.
type Grouping int

const (
	// GroupByCluster starts a new group whenever the cluster column changes.
	GroupByCluster Grouping = iota
	// GroupByRow starts a new group whenever the grid row changes.
	GroupByRow
)

// ParseGrouping accepts "cluster" or "row".
func ParseGrouping(s string) (Grouping, error) {
	switch strings.ToLower(s) {
	case "", "cluster":
		return GroupByCluster, nil
	case "row":
		return GroupByRow, nil
	}
	return 0, fmt.Errorf("%w: unknown grouping %q, expected cluster or row", models.ErrConfiguration, s)
}

func (g Grouping) String() string {
	if g == GroupByRow {
		return "row"
	}
	return "cluster"
}

func (g Grouping) key(l models.CellLabel) int {
	if g == GroupByRow {
		return l.Row
	}
	return l.Cluster.Col
}

// Options control how a script is rendered.
type Options struct {
	Cell     models.Size
	Units    Units
	Grouping Grouping
}

// Script is the assembled canvas: one record per cell, in label order.
type Script struct {
	Records []models.CellRecord
	Options
}

// Assemble resolves each label's position by indexing xs with its column and ys
// with its row, and its color through the lookup. The labels must cover the
// position grid exactly once per cell.
func Assemble(
	labels []models.CellLabel,
	xs, ys []float64,
	lookup colors.Lookup,
	opts Options,
) (*Script, error) {
	if len(labels) != len(xs)*len(ys) {
		return nil, fmt.Errorf("%w: %d labels for %d positions (%d columns x %d rows)",
			models.ErrConfiguration, len(labels), len(xs)*len(ys), len(xs), len(ys))
	}

	script := &Script{
		Records: make([]models.CellRecord, 0, len(labels)),
		Options: opts,
	}
	for _, label := range labels {
		if label.Col < 0 || label.Col >= len(xs) || label.Row < 0 || label.Row >= len(ys) {
			return nil, fmt.Errorf("%w: label %s outside the %dx%d position grid",
				models.ErrConfiguration, label, len(ys), len(xs))
		}
		fill, err := lookup.Color(label.Cluster)
		if err != nil {
			return nil, err
		}
		script.Records = append(script.Records, models.CellRecord{
			Label: label,
			X:     xs[label.Col],
			Y:     ys[label.Row],
			Color: fill,
		})
	}
	return script, nil
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Creation returns the newCanvas command for a record.
func (s *Script) Creation(rec models.CellRecord) string {
	if s.Units == Viewport {
		return fmt.Sprintf(`newCanvas("%s", "%svw", "%svh").color("%s").print("%svw", "%svh"),`,
			rec.Label, num(s.Cell.Width), num(s.Cell.Height), rec.Color, num(rec.X), num(rec.Y))
	}
	return fmt.Sprintf(`newCanvas("%s", %s, %s).color("%s").print(%s, %s),`,
		rec.Label, num(s.Cell.Width), num(s.Cell.Height), rec.Color, num(rec.X), num(rec.Y))
}

// Retrieval returns the getCanvas command for a record.
func (s *Script) Retrieval(rec models.CellRecord) string {
	return fmt.Sprintf(`getCanvas("%s"),`, rec.Label)
}

// Groups splits the records into runs sharing the grouping key.
func (s *Script) Groups() [][]models.CellRecord {
	var groups [][]models.CellRecord
	for i, rec := range s.Records {
		if i == 0 || s.Grouping.key(rec.Label) != s.Grouping.key(s.Records[i-1].Label) {
			groups = append(groups, nil)
		}
		groups[len(groups)-1] = append(groups[len(groups)-1], rec)
	}
	return groups
}

func (s *Script) writeBlock(b *strings.Builder, header string, command func(models.CellRecord) string) {
	b.WriteString(header)
	b.WriteString("\n")
	for i, group := range s.Groups() {
		if i > 0 {
			b.WriteString("\n")
		}
		for _, rec := range group {
			b.WriteString(command(rec))
			b.WriteString("\n")
		}
	}
}

// CreationBlock renders the header and every newCanvas command.
func (s *Script) CreationBlock() string {
	var b strings.Builder
	s.writeBlock(&b, CreationHeader, s.Creation)
	return b.String()
}

// RetrievalBlock renders the header and every getCanvas command.
func (s *Script) RetrievalBlock() string {
	var b strings.Builder
	s.writeBlock(&b, RetrievalHeader, s.Retrieval)
	return b.String()
}

// String renders the full script: the creation block, two blank lines, then
// the retrieval block.
func (s *Script) String() string {
	return s.CreationBlock() + "\n\n" + s.RetrievalBlock()
}

// WriteTo writes the rendered script to w.
func (s *Script) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, s.String())
	return int64(n), err
}
