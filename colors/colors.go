// colors assigns palette colors to clusters and handles the color strings
// that end up in canvas scripts.
package colors

import (
	"fmt"
	"image/color"
	"regexp"
	"strconv"
	"strings"

	"gridcanvas/models"

	"golang.org/x/image/colornames"
)

// Lookup maps a cluster to its fill color.
type Lookup map[models.ClusterIndex]string

// Color returns the fill for a cluster, or ErrConfiguration when none was assigned.
func (lk Lookup) Color(ci models.ClusterIndex) (string, error) {
	if c, ok := lk[ci]; ok {
		return c, nil
	}
	return "", fmt.Errorf("%w: no color assigned to cluster %s", models.ErrConfiguration, ci)
}

// Assign cycles through the palette over every (column category, row
// category) cluster, row categories varying fastest. A single category in both
// dimensions is a blank canvas colored with the first palette entry.
func Assign(palette []string, colCategories, rowCategories int) (Lookup, error) {
	if len(palette) == 0 {
		return nil, fmt.Errorf("%w: palette is empty", models.ErrConfiguration)
	}
	if colCategories < 1 || rowCategories < 1 {
		return nil, fmt.Errorf("%w: category counts must be non-zero, got %d cols x %d rows",
			models.ErrConfiguration, colCategories, rowCategories)
	}

	if colCategories == 1 && rowCategories == 1 {
		return Lookup{models.BlankIndex: palette[0]}, nil
	}

	lookup := make(Lookup, colCategories*rowCategories)
	for col := 0; col < colCategories; col++ {
		for row := 0; row < rowCategories; row++ {
			lookup[models.ClusterIndex{Row: row, Col: col}] = palette[(col*rowCategories+row)%len(palette)]
		}
	}
	return lookup, nil
}

// FromValues uses each cluster's own grid value as its color.
func FromValues(values map[models.ClusterIndex]string) Lookup {
	lookup := make(Lookup, len(values))
	for ci, v := range values {
		lookup[ci] = v
	}
	return lookup
}

// Normalize converts a spreadsheet ARGB or RGB hex string ("FFAABBCC",
// "AABBCC", "#AABBCC") to "#AABBCC". Empty input is an unfilled cell, black.
func Normalize(hex string) string {
	hex = strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(hex), "#"))
	switch len(hex) {
	case 0:
		return "#000000"
	case 8:
		hex = hex[2:]
	}
	return "#" + hex
}

// RGBA resolves a CSS color name or #RRGGBB string.
func RGBA(name string) (color.RGBA, bool) {
	if c, ok := colornames.Map[strings.ToLower(name)]; ok {
		return c, true
	}
	hex := strings.TrimPrefix(name, "#")
	if len(hex) != 6 || hex == name {
		return color.RGBA{}, false
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, false
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, true
}

// Unknown returns the palette entries that are neither CSS color names nor
// #RRGGBB strings. The presentation engine may still accept them.
func Unknown(palette []string) (unknown []string) {
	for _, name := range palette {
		if _, ok := RGBA(name); !ok {
			unknown = append(unknown, name)
		}
	}
	return
}

// Recolor rewrites every .color("from") call in a canvas script, with either
// quote style, to .color("to").
func Recolor(script, from, to string) string {
	pattern := regexp.MustCompile(`\.color\((["'])` + regexp.QuoteMeta(from) + `(["'])\)`)
	return pattern.ReplaceAllString(script, `.color(${1}`+strings.ReplaceAll(to, "$", "$$")+`${2})`)
}
