package models

import "fmt"

// ClusterIndex is the reading-order ordinal of a cluster: Row counts distinct
// cluster top rows from the top of the grid, Col counts clusters sharing that
// top row from the left.
type ClusterIndex struct {
	Row, Col int
}

// BlankIndex is the single cluster of an unpartitioned canvas.
var BlankIndex = ClusterIndex{Row: 1, Col: 1}

func (ci ClusterIndex) String() string {
	return fmt.Sprintf("(%d, %d)", ci.Row, ci.Col)
}

// Bound is a half-open rectangle [Top,Bottom) x [Left,Right) of grid cells.
type Bound struct {
	Top, Bottom int
	Left, Right int
}

// Contains reports whether the cell at (row, col) lies inside the bound.
func (b Bound) Contains(row, col int) bool {
	return row >= b.Top && row < b.Bottom && col >= b.Left && col < b.Right
}

// Area is the number of cells covered by the bound.
func (b Bound) Area() int {
	return (b.Bottom - b.Top) * (b.Right - b.Left)
}

func (b Bound) String() string {
	return fmt.Sprintf("[%d,%d)x[%d,%d)", b.Top, b.Bottom, b.Left, b.Right)
}

// CellLabel ties one grid cell to its cluster. Row and Col are the cell's
// absolute grid coordinates and index the row and column position sequences.
type CellLabel struct {
	Cluster  ClusterIndex
	Row, Col int
}

// String renders the label as the canvas name used by the presentation engine.
func (cl CellLabel) String() string {
	return fmt.Sprintf("(%d, %d, %d, %d)", cl.Cluster.Row, cl.Cluster.Col, cl.Row, cl.Col)
}

// CellRecord is a fully resolved cell: its label, on-screen position, and fill.
type CellRecord struct {
	Label CellLabel
	X, Y  float64
	Color string
}

// Size is the width and height of a single cell.
type Size struct {
	Width, Height float64
}
