// positions computes the on-screen coordinates of grid rows and columns.
// Each axis is handled independently: N cells of a fixed step are spread
// outward from the midpoint of the axis bounds.
package positions

import (
	"fmt"

	"gridcanvas/models"
)

// Generate returns count ascending coordinates spaced by step around midpoint.
// The coordinates are the leading edges of count adjacent cells whose joint
// extent is centered on midpoint. Even counts include midpoint itself as the
// last point of the left half; odd counts first shift midpoint left by half a
// step so the middle cell straddles the true center.
func Generate(midpoint, step float64, count int) ([]float64, error) {
	if count < 1 {
		return nil, fmt.Errorf("%w: position count must be at least 1, got %d", models.ErrConfiguration, count)
	}

	reps := count / 2
	odd := count%2 == 1
	if odd {
		midpoint -= step / 2
	}

	// Left side runs from reps steps out up to and including the midpoint.
	points := make([]float64, 0, count)
	for i := reps; i >= 0; i-- {
		points = append(points, midpoint-float64(i)*step)
	}

	right := reps - 1
	if odd {
		right = reps
	}
	for i := 1; i <= right; i++ {
		points = append(points, midpoint+float64(i)*step)
	}
	return points, nil
}

// Axis is the closed screen interval [Min, Max] for one dimension.
type Axis struct {
	Min, Max float64
}

// Midpoint is the center of the axis.
func (a Axis) Midpoint() float64 {
	return (a.Min + a.Max) / 2
}

// Positions generates count coordinates of the given step centered on the axis.
func (a Axis) Positions(step float64, count int) ([]float64, error) {
	return Generate(a.Midpoint(), step, count)
}

// Check verifies that every coordinate lies within the axis.
func (a Axis) Check(name string, points []float64) error {
	for _, p := range points {
		if p < a.Min || p > a.Max {
			return fmt.Errorf("%w: %s position %g outside [%g, %g]; use fewer cells, wider bounds, or a smaller cell size",
				models.ErrBoundsExceeded, name, p, a.Min, a.Max)
		}
	}
	return nil
}

// Bounds holds the horizontal and vertical screen extents of a canvas.
type Bounds struct {
	X, Y Axis
}

// Layout produces the column (x) and row (y) coordinates for a rows x cols grid
// of cells of the given size, and rejects any coordinate outside the bounds.
func Layout(rows, cols int, cell models.Size, bounds Bounds) (xs, ys []float64, err error) {
	if xs, err = bounds.X.Positions(cell.Width, cols); err != nil {
		return nil, nil, fmt.Errorf("columns: %w", err)
	}
	if ys, err = bounds.Y.Positions(cell.Height, rows); err != nil {
		return nil, nil, fmt.Errorf("rows: %w", err)
	}
	if err = bounds.X.Check("column", xs); err != nil {
		return nil, nil, err
	}
	if err = bounds.Y.Check("row", ys); err != nil {
		return nil, nil, err
	}
	return xs, ys, nil
}

// ViewportBounds is the [0,100] x [0,100] extent used when sizes and positions
// are expressed in viewport units.
var ViewportBounds = Bounds{
	X: Axis{Min: 0, Max: 100},
	Y: Axis{Min: 0, Max: 100},
}

// CheckViewportFit ensures that a rows x cols grid stays under the full
// viewport width and height, so the page never scrolls.
func CheckViewportFit(rows, cols int, cell models.Size) error {
	if total := float64(cols) * cell.Width; total >= 100 {
		return fmt.Errorf("%w: total width %gvw must stay under 100vw", models.ErrBoundsExceeded, total)
	}
	if total := float64(rows) * cell.Height; total >= 100 {
		return fmt.Errorf("%w: total height %gvh must stay under 100vh", models.ErrBoundsExceeded, total)
	}
	return nil
}
