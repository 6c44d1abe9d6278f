package clusters

import (
	"errors"
	"testing"

	"gridcanvas/models"

	"github.com/google/go-cmp/cmp"
	. "github.com/smartystreets/goconvey/convey"
)

func fill(rows, cols int, fn func(r, c int) string) Grid[string] {
	g := make(Grid[string], rows)
	for r := range g {
		g[r] = make([]string, cols)
		for c := range g[r] {
			g[r][c] = fn(r, c)
		}
	}
	return g
}

func TestExtract(t *testing.T) {
	Convey("When extracting clusters", t, func() {
		Convey("A 10x10 grid split into red over blue yields two bounds", func() {
			g := fill(10, 10, func(r, _ int) string {
				if r < 5 {
					return "red"
				}
				return "blue"
			})
			regions, err := Extract(g)
			So(err, ShouldBeNil)
			So(regions, ShouldResemble, []Region[string]{
				{Value: "red", Bound: models.Bound{Top: 0, Bottom: 5, Left: 0, Right: 10}},
				{Value: "blue", Bound: models.Bound{Top: 5, Bottom: 10, Left: 0, Right: 10}},
			})

			coords := Order(regions)
			So(coords["red"], ShouldResemble, models.ClusterIndex{Row: 0, Col: 0})
			So(coords["blue"], ShouldResemble, models.ClusterIndex{Row: 1, Col: 0})
		})

		Convey("An empty grid is malformed", func() {
			_, err := Extract(Grid[string]{})
			So(errors.Is(err, models.ErrMalformedGrid), ShouldBeTrue)
		})

		Convey("A ragged grid is malformed", func() {
			_, err := Extract(Grid[string]{{"a", "a"}, {"a"}})
			So(errors.Is(err, models.ErrMalformedGrid), ShouldBeTrue)
		})
	})
}

func TestOrder(t *testing.T) {
	Convey("When ordering clusters", t, func() {
		Convey("Clusters sharing a top row are numbered left to right", func() {
			g := Grid[string]{
				{"a", "a", "b"},
				{"a", "a", "b"},
				{"c", "d", "d"},
			}
			regions, err := Extract(g)
			So(err, ShouldBeNil)
			So(Order(regions), ShouldResemble, map[string]models.ClusterIndex{
				"a": {Row: 0, Col: 0},
				"b": {Row: 0, Col: 1},
				"c": {Row: 1, Col: 0},
				"d": {Row: 1, Col: 1},
			})
		})

		Convey("A cluster starting lower opens a new cluster row even when it sits to the right", func() {
			g := Grid[int]{
				{1, 2},
				{1, 3},
			}
			regions, err := Extract(g)
			So(err, ShouldBeNil)
			rows := Rows(regions)
			So(len(rows), ShouldEqual, 2)
			So(len(rows[0]), ShouldEqual, 2)
			So(Order(regions), ShouldResemble, map[int]models.ClusterIndex{
				1: {Row: 0, Col: 0},
				2: {Row: 0, Col: 1},
				3: {Row: 1, Col: 0},
			})
		})

		Convey("Ordering does not depend on the input order of regions", func() {
			regions := []Region[string]{
				{Value: "d", Bound: models.Bound{Top: 2, Bottom: 3, Left: 1, Right: 3}},
				{Value: "b", Bound: models.Bound{Top: 0, Bottom: 2, Left: 2, Right: 3}},
				{Value: "c", Bound: models.Bound{Top: 2, Bottom: 3, Left: 0, Right: 1}},
				{Value: "a", Bound: models.Bound{Top: 0, Bottom: 2, Left: 0, Right: 2}},
			}
			So(Order(regions), ShouldResemble, map[string]models.ClusterIndex{
				"a": {Row: 0, Col: 0},
				"b": {Row: 0, Col: 1},
				"c": {Row: 1, Col: 0},
				"d": {Row: 1, Col: 1},
			})
		})
	})
}

func TestLabel(t *testing.T) {
	Convey("When labeling a grid", t, func() {
		g := Grid[string]{
			{"#FF0000", "#FF0000", "#00FF00"},
			{"#0000FF", "#0000FF", "#0000FF"},
		}

		Convey("Every cell is labeled exactly once, in row-major order", func() {
			lab, err := Label(g)
			So(err, ShouldBeNil)
			So(lab.Rows, ShouldEqual, 2)
			So(lab.Cols, ShouldEqual, 3)

			want := []models.CellLabel{
				{Cluster: models.ClusterIndex{Row: 0, Col: 0}, Row: 0, Col: 0},
				{Cluster: models.ClusterIndex{Row: 0, Col: 0}, Row: 0, Col: 1},
				{Cluster: models.ClusterIndex{Row: 0, Col: 1}, Row: 0, Col: 2},
				{Cluster: models.ClusterIndex{Row: 1, Col: 0}, Row: 1, Col: 0},
				{Cluster: models.ClusterIndex{Row: 1, Col: 0}, Row: 1, Col: 1},
				{Cluster: models.ClusterIndex{Row: 1, Col: 0}, Row: 1, Col: 2},
			}
			So(cmp.Diff(want, lab.Labels), ShouldBeEmpty)

			seen := map[[2]int]int{}
			for _, l := range lab.Labels {
				seen[[2]int{l.Row, l.Col}]++
			}
			So(len(seen), ShouldEqual, 6)
			for _, n := range seen {
				So(n, ShouldEqual, 1)
			}

			So(lab.Values, ShouldResemble, map[models.ClusterIndex]string{
				{Row: 0, Col: 0}: "#FF0000",
				{Row: 0, Col: 1}: "#00FF00",
				{Row: 1, Col: 0}: "#0000FF",
			})
		})

		Convey("Repeated runs produce identical labels", func() {
			first, err := Label(g)
			So(err, ShouldBeNil)
			for i := 0; i < 20; i++ {
				again, err := Label(g)
				So(err, ShouldBeNil)
				So(cmp.Diff(first, again), ShouldBeEmpty)
			}
		})

		Convey("A non-rectangular region is rejected", func() {
			_, err := Label(Grid[string]{
				{"a", "a"},
				{"a", "b"},
			})
			So(errors.Is(err, models.ErrMalformedGrid), ShouldBeTrue)
		})

		Convey("A value split into two separate rectangles is rejected", func() {
			_, err := Label(Grid[string]{
				{"a", "b", "a"},
			})
			So(errors.Is(err, models.ErrMalformedGrid), ShouldBeTrue)
		})
	})
}
