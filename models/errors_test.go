package models

import (
	"errors"
	"fmt"
	"os"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestClassify(t *testing.T) {
	Convey("When classifying errors", t, func() {
		cases := []struct {
			err  error
			code Code
			exit int
		}{
			{fmt.Errorf("%w: palette is empty", ErrConfiguration), CodeConfiguration, 2},
			{fmt.Errorf("rows: %w", fmt.Errorf("%w: too tall", ErrBoundsExceeded)), CodeBounds, 3},
			{fmt.Errorf("job 1: %w", ErrMalformedGrid), CodeMalformedGrid, 4},
			{&os.PathError{Op: "open", Path: "x.csv", Err: os.ErrNotExist}, CodeIO, 5},
			{errors.New("boom"), CodeUnknown, 1},
		}
		for _, c := range cases {
			So(Classify(c.err), ShouldEqual, c.code)
			So(Classify(c.err).ExitCode(), ShouldEqual, c.exit)
		}
	})
}

func TestLabels(t *testing.T) {
	Convey("Labels read cluster row, cluster column, row, column", t, func() {
		label := CellLabel{Cluster: ClusterIndex{Row: 1, Col: 2}, Row: 3, Col: 4}
		So(label.String(), ShouldEqual, "(1, 2, 3, 4)")
		So(BlankIndex.String(), ShouldEqual, "(1, 1)")
	})
}
