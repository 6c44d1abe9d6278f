// categories labels a grid partitioned into equal row and column categories,
// without needing a source grid of values.
package categories

import (
	"fmt"

	"gridcanvas/models"
)

// Span is the half-open index range [Start, End) of one category bin.
type Span struct {
	Start, End int
}

// Len is the number of indices in the span.
func (s Span) Len() int {
	return s.End - s.Start
}

// Split divides [0, n) into k contiguous spans whose sizes differ by at most
// one; the first n%k spans carry the extra element.
func Split(n, k int) ([]Span, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: category count must be at least 1, got %d", models.ErrConfiguration, k)
	}
	if n < k {
		return nil, fmt.Errorf("%w: %d categories cannot split %d cells", models.ErrConfiguration, k, n)
	}

	size, extra := n/k, n%k
	spans := make([]Span, k)
	start := 0
	for i := range spans {
		end := start + size
		if i < extra {
			end++
		}
		spans[i] = Span{Start: start, End: end}
		start = end
	}
	return spans, nil
}

// Label assigns every cell of a rows x cols grid to its (row category, column
// category) cluster. Labels are ordered by column category, row category,
// column, then row. A single category in both dimensions is a blank canvas:
// every cell belongs to models.BlankIndex.
func Label(rows, cols, rowCategories, colCategories int) ([]models.CellLabel, error) {
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("%w: grid must have at least one row and column, got %dx%d", models.ErrConfiguration, rows, cols)
	}
	if rowCategories < 1 || colCategories < 1 {
		return nil, fmt.Errorf("%w: category counts must be non-zero, got %d rows x %d cols",
			models.ErrConfiguration, rowCategories, colCategories)
	}

	labels := make([]models.CellLabel, 0, rows*cols)
	if rowCategories*colCategories == 1 {
		for c := 0; c < cols; c++ {
			for r := 0; r < rows; r++ {
				labels = append(labels, models.CellLabel{Cluster: models.BlankIndex, Row: r, Col: c})
			}
		}
		return labels, nil
	}

	colBins, err := Split(cols, colCategories)
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}
	rowBins, err := Split(rows, rowCategories)
	if err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	for ci, colBin := range colBins {
		for ri, rowBin := range rowBins {
			cluster := models.ClusterIndex{Row: ri, Col: ci}
			for c := colBin.Start; c < colBin.End; c++ {
				for r := rowBin.Start; r < rowBin.End; r++ {
					labels = append(labels, models.CellLabel{Cluster: cluster, Row: r, Col: c})
				}
			}
		}
	}
	return labels, nil
}
