// clusters partitions a grid into rectangular regions of equal value and
// numbers them in reading order.
package clusters

import (
	"fmt"
	"sort"

	"gridcanvas/models"
)

// Grid is a rectangular matrix of values indexed [row][col].
type Grid[T comparable] [][]T

// Dims returns the number of rows and columns, or ErrMalformedGrid when the
// grid is empty or ragged.
func (g Grid[T]) Dims() (rows, cols int, err error) {
	rows = len(g)
	if rows == 0 || len(g[0]) == 0 {
		return 0, 0, fmt.Errorf("%w: grid has no cells", models.ErrMalformedGrid)
	}
	cols = len(g[0])
	for r, row := range g {
		if len(row) != cols {
			return 0, 0, fmt.Errorf("%w: row %d has %d cells, expected %d", models.ErrMalformedGrid, r, len(row), cols)
		}
	}
	return rows, cols, nil
}

// Region is the bounding rectangle of every cell holding Value.
type Region[T comparable] struct {
	Value T
	Bound models.Bound
}

// Extract returns one Region per distinct value, in the order each value is
// first met when scanning the grid row by row.
func Extract[T comparable](g Grid[T]) ([]Region[T], error) {
	if _, _, err := g.Dims(); err != nil {
		return nil, err
	}

	index := map[T]int{}
	var regions []Region[T]
	for r, row := range g {
		for c, val := range row {
			i, ok := index[val]
			if !ok {
				index[val] = len(regions)
				regions = append(regions, Region[T]{
					Value: val,
					Bound: models.Bound{Top: r, Bottom: r + 1, Left: c, Right: c + 1},
				})
				continue
			}
			b := &regions[i].Bound
			b.Top = min(b.Top, r)
			b.Bottom = max(b.Bottom, r+1)
			b.Left = min(b.Left, c)
			b.Right = max(b.Right, c+1)
		}
	}
	return regions, nil
}

// Validate rejects grids whose values do not each fill their bounding
// rectangle. When every region is solid the regions also partition the grid.
func Validate[T comparable](g Grid[T], regions []Region[T]) error {
	for _, region := range regions {
		b := region.Bound
		for r := b.Top; r < b.Bottom; r++ {
			for c := b.Left; c < b.Right; c++ {
				if g[r][c] != region.Value {
					return fmt.Errorf("%w: value %v does not fill its bounding box %s (cell (%d, %d) holds %v)",
						models.ErrMalformedGrid, region.Value, b, r, c, g[r][c])
				}
			}
		}
	}
	return nil
}

// Rows folds regions, sorted by top row then left column, into cluster rows:
// a region joins the cluster row sharing its top row, or opens a new one.
func Rows[T comparable](regions []Region[T]) [][]Region[T] {
	sorted := make([]Region[T], len(regions))
	copy(sorted, regions)
	sort.SliceStable(sorted, func(i, j int) bool {
		bi, bj := sorted[i].Bound, sorted[j].Bound
		if bi.Top != bj.Top {
			return bi.Top < bj.Top
		}
		return bi.Left < bj.Left
	})

	var rows [][]Region[T]
	for _, region := range sorted {
		joined := false
		for i, row := range rows {
			if row[0].Bound.Top == region.Bound.Top {
				rows[i] = append(row, region)
				joined = true
				break
			}
		}
		if !joined {
			rows = append(rows, []Region[T]{region})
		}
	}
	return rows
}

// Order assigns each region's value its reading-order ClusterIndex.
func Order[T comparable](regions []Region[T]) map[T]models.ClusterIndex {
	coords := make(map[T]models.ClusterIndex, len(regions))
	for r, row := range Rows(regions) {
		for c, region := range row {
			coords[region.Value] = models.ClusterIndex{Row: r, Col: c}
		}
	}
	return coords
}

// Labeling is the result of clustering a grid: one label per cell in row-major
// order, and the value behind each cluster.
type Labeling[T comparable] struct {
	Rows, Cols int
	Labels     []models.CellLabel
	Values     map[models.ClusterIndex]T
}

// Label extracts, validates, and orders the grid's clusters, then labels every
// cell with the index of the cluster covering it.
func Label[T comparable](g Grid[T]) (*Labeling[T], error) {
	rows, cols, err := g.Dims()
	if err != nil {
		return nil, err
	}
	regions, err := Extract(g)
	if err != nil {
		return nil, err
	}
	if err = Validate(g, regions); err != nil {
		return nil, err
	}

	coords := Order(regions)
	lab := &Labeling[T]{
		Rows:   rows,
		Cols:   cols,
		Labels: make([]models.CellLabel, 0, rows*cols),
		Values: make(map[models.ClusterIndex]T, len(coords)),
	}
	for val, ci := range coords {
		lab.Values[ci] = val
	}
	for r, row := range g {
		for c, val := range row {
			lab.Labels = append(lab.Labels, models.CellLabel{Cluster: coords[val], Row: r, Col: c})
		}
	}
	return lab, nil
}
