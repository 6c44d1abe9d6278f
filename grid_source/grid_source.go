// grid_source reads grids of cell colors from spreadsheets, csv, yaml, and
// inline track-style rows.
package grid_source

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gridcanvas/clusters"
	"gridcanvas/colors"
	"gridcanvas/models"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

// Grid is a matrix of color values.
type Grid = clusters.Grid[string]

// Legend maps the runes of inline rows to colors.
type Legend map[rune]string

// DefaultLegend covers the cell types used by the demo grids.
var DefaultLegend = Legend{
	'.': "lightgray",
	'W': "lightgreen",
	'o': "lightblue",
	'+': "lightyellow",
	'r': "red",
	'b': "blue",
}

// Demos are small reference grids, selectable by name from the command line.
var Demos = map[string][]string{
	"blank10x10": {
		"..........",
		"..........",
		"..........",
		"..........",
		"..........",
		"..........",
		"..........",
		"..........",
		"..........",
		"..........",
	},
	"halves10x10": {
		"rrrrrrrrrr",
		"rrrrrrrrrr",
		"rrrrrrrrrr",
		"rrrrrrrrrr",
		"rrrrrrrrrr",
		"bbbbbbbbbb",
		"bbbbbbbbbb",
		"bbbbbbbbbb",
		"bbbbbbbbbb",
		"bbbbbbbbbb",
	},
	"quadrants": {
		"WWWooo",
		"WWWooo",
		"+++rrr",
		"+++rrr",
	},
}

// FromRows converts rows of runes to a grid, top row first, coloring each rune
// through the legend. Runes missing from the legend are kept as their own value.
// Row lengths are not checked here; clustering rejects ragged grids.
func FromRows(rows []string, legend Legend) Grid {
	grid := make(Grid, 0, len(rows))
	for _, row := range rows {
		cells := make([]string, 0, len(row))
		for _, r := range row {
			if c, ok := legend[r]; ok {
				cells = append(cells, c)
			} else {
				cells = append(cells, string(r))
			}
		}
		grid = append(grid, cells)
	}
	return grid
}

// Demo returns a named demo grid.
func Demo(name string) (Grid, error) {
	rows, ok := Demos[name]
	if !ok {
		return nil, fmt.Errorf("%w: no demo grid named %q", models.ErrConfiguration, name)
	}
	return FromRows(rows, DefaultLegend), nil
}

// ReadCSV reads one grid value per csv field.
func ReadCSV(r io.Reader) (Grid, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: csv: %v", models.ErrMalformedGrid, err)
	}
	grid := make(Grid, len(records))
	for i, rec := range records {
		grid[i] = make([]string, len(rec))
		for j, field := range rec {
			grid[i][j] = strings.TrimSpace(field)
		}
	}
	return grid, nil
}

// ReadYAML reads a document of the form `grid: [[red, red], [blue, blue]]`.
func ReadYAML(r io.Reader) (Grid, error) {
	var doc struct {
		Grid [][]string `yaml:"grid"`
	}
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: yaml: %v", models.ErrMalformedGrid, err)
	}
	return Grid(doc.Grid), nil
}

// ReadXLSX reads the fill color of every cell in the sheet's used range as
// "#RRGGBB". An empty sheet name selects the active sheet.
func ReadXLSX(path, sheet string) (Grid, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(f.GetActiveSheetIndex())
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: %s has no sheet %q", models.ErrConfiguration, filepath.Base(path), sheet)
	}

	rows, cols, err := sheetDims(f, sheet)
	if err != nil {
		return nil, err
	}

	grid := make(Grid, rows)
	for r := range grid {
		grid[r] = make([]string, cols)
		for c := range grid[r] {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			fill, err := fillColor(f, sheet, cell)
			if err != nil {
				return nil, fmt.Errorf("cell %s: %w", cell, err)
			}
			grid[r][c] = colors.Normalize(fill)
		}
	}
	return grid, nil
}

// sheetDims is the larger of the sheet's recorded used range and the extent of
// its rows that hold values.
func sheetDims(f *excelize.File, sheet string) (rows, cols int, err error) {
	if dim, dimErr := f.GetSheetDimension(sheet); dimErr == nil && dim != "" {
		ref := dim
		if i := strings.LastIndex(dim, ":"); i >= 0 {
			ref = dim[i+1:]
		}
		if c, r, refErr := excelize.CellNameToCoordinates(ref); refErr == nil {
			rows, cols = r, c
		}
	}

	valueRows, err := f.GetRows(sheet)
	if err != nil {
		return 0, 0, err
	}
	rows = max(rows, len(valueRows))
	for _, row := range valueRows {
		cols = max(cols, len(row))
	}
	if rows == 0 || cols == 0 {
		return 0, 0, fmt.Errorf("%w: sheet %q is empty", models.ErrMalformedGrid, sheet)
	}
	return rows, cols, nil
}

func fillColor(f *excelize.File, sheet, cell string) (string, error) {
	styleID, err := f.GetCellStyle(sheet, cell)
	if err != nil {
		return "", err
	}
	style, err := f.GetStyle(styleID)
	if err != nil {
		return "", err
	}
	if style == nil || len(style.Fill.Color) == 0 {
		return "", nil
	}
	return style.Fill.Color[0], nil
}

// Open reads a grid file, choosing the format by extension. The sheet name
// only applies to .xlsx files.
func Open(path, sheet string) (Grid, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".xlsx" || ext == ".xlsm" {
		return ReadXLSX(path, sheet)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	switch ext {
	case ".csv":
		return ReadCSV(file)
	case ".yaml", ".yml":
		return ReadYAML(file)
	}
	return nil, fmt.Errorf("%w: unsupported grid file type %q", models.ErrConfiguration, ext)
}

// ShowGrid writes the grid for visual reference, one row per line.
func ShowGrid(w io.Writer, grid Grid) error {
	for _, row := range grid {
		if _, err := fmt.Fprintln(w, strings.Join(row, " ")); err != nil {
			return err
		}
	}
	return nil
}
