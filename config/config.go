// config holds the immutable settings threaded through a canvas run, loaded
// from defaults, a yaml file, GRIDCANVAS_* environment variables, and flags.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"gridcanvas/layout"
	"gridcanvas/models"
	"gridcanvas/positions"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. GRIDCANVAS_ROW_CATEGORIES.
const EnvPrefix = "GRIDCANVAS"

// Config describes one canvas. Rows, Cols, and the category counts only apply
// when the canvas is built from categories; a sheet supplies its own grid.
type Config struct {
	Rows          int      `mapstructure:"rows" yaml:"rows"`
	Cols          int      `mapstructure:"cols" yaml:"cols"`
	RowCategories int      `mapstructure:"row-categories" yaml:"row-categories"`
	ColCategories int      `mapstructure:"col-categories" yaml:"col-categories"`
	Palette       []string `mapstructure:"palette" yaml:"palette"`

	Width  float64 `mapstructure:"width" yaml:"width"`
	Height float64 `mapstructure:"height" yaml:"height"`
	XMin   float64 `mapstructure:"xmin" yaml:"xmin"`
	XMax   float64 `mapstructure:"xmax" yaml:"xmax"`
	YMin   float64 `mapstructure:"ymin" yaml:"ymin"`
	YMax   float64 `mapstructure:"ymax" yaml:"ymax"`

	// AutoFit writes sizes and positions in viewport units over [0,100].
	AutoFit bool   `mapstructure:"autofit" yaml:"autofit"`
	GroupBy string `mapstructure:"group-by" yaml:"group-by"`

	// Input and Sheet locate a grid of colors; Output is the script path.
	Input  string `mapstructure:"input" yaml:"input"`
	Sheet  string `mapstructure:"sheet" yaml:"sheet"`
	Output string `mapstructure:"output" yaml:"output"`
}

// Defaults returns the stock canvas: a 14x34 blank light gray grid of 30px
// cells inside x [250,1270], y [50,470].
func Defaults() Config {
	return Config{
		Rows:          14,
		Cols:          34,
		RowCategories: 1,
		ColCategories: 1,
		Palette:       []string{"lightgray"},
		Width:         30,
		Height:        30,
		XMin:          250,
		XMax:          1270,
		YMin:          50,
		YMax:          470,
		GroupBy:       "cluster",
		Output:        "canvas.txt",
	}
}

// DefaultsFor returns the defaults for a job kind. Sheets group commands by
// grid row; category canvases group them by cluster column.
func DefaultsFor(kind string) Config {
	d := Defaults()
	if kind == KindSheet {
		d.GroupBy = "row"
	}
	return d
}

func setDefaults(vp *viper.Viper, d Config) {
	vp.SetDefault("rows", d.Rows)
	vp.SetDefault("cols", d.Cols)
	vp.SetDefault("row-categories", d.RowCategories)
	vp.SetDefault("col-categories", d.ColCategories)
	vp.SetDefault("palette", d.Palette)
	vp.SetDefault("width", d.Width)
	vp.SetDefault("height", d.Height)
	vp.SetDefault("xmin", d.XMin)
	vp.SetDefault("xmax", d.XMax)
	vp.SetDefault("ymin", d.YMin)
	vp.SetDefault("ymax", d.YMax)
	vp.SetDefault("autofit", d.AutoFit)
	vp.SetDefault("group-by", d.GroupBy)
	vp.SetDefault("input", d.Input)
	vp.SetDefault("sheet", d.Sheet)
	vp.SetDefault("output", d.Output)
}

// RegisterFlags adds a flag for every config key, for binding in Load.
func RegisterFlags(fs *pflag.FlagSet) {
	RegisterFlagsFor(fs, KindCanvas)
}

// RegisterFlagsFor is RegisterFlags with the defaults of a job kind.
func RegisterFlagsFor(fs *pflag.FlagSet, kind string) {
	d := DefaultsFor(kind)
	fs.Int("rows", d.Rows, "Number of rows.")
	fs.Int("cols", d.Cols, "Number of columns.")
	fs.Int("row-categories", d.RowCategories, "Number of row categories; must divide rows.")
	fs.Int("col-categories", d.ColCategories, "Number of column categories; must divide cols.")
	fs.StringSlice("palette", d.Palette, "Colors assigned cyclically to categories.")
	fs.Float64("width", d.Width, "Cell width (pixels, or vw with --autofit).")
	fs.Float64("height", d.Height, "Cell height (pixels, or vh with --autofit).")
	fs.Float64("xmin", d.XMin, "Leftmost bound of the canvas on the screen.")
	fs.Float64("xmax", d.XMax, "Rightmost bound of the canvas on the screen.")
	fs.Float64("ymin", d.YMin, "Topmost bound of the canvas on the screen.")
	fs.Float64("ymax", d.YMax, "Bottommost bound of the canvas on the screen.")
	fs.Bool("autofit", d.AutoFit, "Emit viewport units that scale with the window.")
	fs.String("group-by", d.GroupBy, "Blank-line grouping of commands: cluster or row.")
	fs.String("input", d.Input, "Grid file (.xlsx, .csv, .yaml).")
	fs.String("sheet", d.Sheet, "Sheet name within an .xlsx input.")
	fs.StringP("output", "o", d.Output, "Output script file.")
}

func newViper(kind, path string, flags *pflag.FlagSet) (*viper.Viper, error) {
	vp := viper.New()
	setDefaults(vp, DefaultsFor(kind))
	vp.SetEnvPrefix(EnvPrefix)
	vp.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	vp.AutomaticEnv()

	if path != "" {
		vp.SetConfigFile(path)
		vp.SetConfigType("yaml")
		vp.AddConfigPath(filepath.Dir(path))
		if err := vp.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	if flags != nil {
		if err := vp.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}
	return vp, nil
}

func decode(vp *viper.Viper) (cfg Config, err error) {
	if err = vp.Unmarshal(&cfg); err != nil {
		err = fmt.Errorf("%w: decode config: %v", models.ErrConfiguration, err)
	}
	return
}

// Load resolves a Config from defaults, the optional yaml file at path,
// environment variables, and any changed flags, in increasing precedence.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	return LoadFor(KindCanvas, path, flags)
}

// LoadFor is Load with the defaults of a job kind.
func LoadFor(kind, path string, flags *pflag.FlagSet) (Config, error) {
	vp, err := newViper(kind, path, flags)
	if err != nil {
		return Config{}, err
	}
	return decode(vp)
}

// Watch loads the config like LoadFor, then calls onChange with a freshly
// decoded Config each time the file at path is written.
func Watch(kind, path string, flags *pflag.FlagSet, onChange func(Config, error)) (Config, error) {
	if path == "" {
		return Config{}, fmt.Errorf("%w: watching requires a config file", models.ErrConfiguration)
	}
	vp, err := newViper(kind, path, flags)
	if err != nil {
		return Config{}, err
	}
	cfg, err := decode(vp)
	if err != nil {
		return Config{}, err
	}
	vp.OnConfigChange(func(e fsnotify.Event) {
		if e.Op&(fsnotify.Write|fsnotify.Create) == 0 {
			return
		}
		onChange(decode(vp))
	})
	vp.WatchConfig()
	return cfg, nil
}

// CellSize is the size of one cell.
func (cfg Config) CellSize() models.Size {
	return models.Size{Width: cfg.Width, Height: cfg.Height}
}

// Bounds is the screen area the canvas must fit in. AutoFit replaces the
// configured bounds with the full viewport.
func (cfg Config) Bounds() positions.Bounds {
	if cfg.AutoFit {
		return positions.ViewportBounds
	}
	return positions.Bounds{
		X: positions.Axis{Min: cfg.XMin, Max: cfg.XMax},
		Y: positions.Axis{Min: cfg.YMin, Max: cfg.YMax},
	}
}

// Units is the unit system commands are written in.
func (cfg Config) Units() layout.Units {
	if cfg.AutoFit {
		return layout.Viewport
	}
	return layout.Pixels
}

// Options returns the render options for this config.
func (cfg Config) Options() (layout.Options, error) {
	grouping, err := layout.ParseGrouping(cfg.GroupBy)
	if err != nil {
		return layout.Options{}, err
	}
	return layout.Options{Cell: cfg.CellSize(), Units: cfg.Units(), Grouping: grouping}, nil
}

func (cfg Config) validateCommon() error {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("%w: cell size must be positive, got %gx%g", models.ErrConfiguration, cfg.Width, cfg.Height)
	}
	if !cfg.AutoFit && (cfg.XMin >= cfg.XMax || cfg.YMin >= cfg.YMax) {
		return fmt.Errorf("%w: bounds must satisfy xmin < xmax and ymin < ymax", models.ErrConfiguration)
	}
	if _, err := layout.ParseGrouping(cfg.GroupBy); err != nil {
		return err
	}
	return nil
}

// ValidateCanvas checks a category canvas before any layout is computed:
// non-zero categories that evenly divide the grid, and a non-empty palette.
func (cfg Config) ValidateCanvas() error {
	if cfg.RowCategories == 0 || cfg.ColCategories == 0 {
		return fmt.Errorf("%w: failed to specify number of row or column categories", models.ErrConfiguration)
	}
	if cfg.RowCategories < 0 || cfg.ColCategories < 0 || cfg.Rows < 1 || cfg.Cols < 1 {
		return fmt.Errorf("%w: rows, cols, and category counts must be positive", models.ErrConfiguration)
	}
	if cfg.Cols%cfg.ColCategories != 0 {
		return fmt.Errorf("%w: %d columns cannot be evenly divided into %d column categories",
			models.ErrConfiguration, cfg.Cols, cfg.ColCategories)
	}
	if cfg.Rows%cfg.RowCategories != 0 {
		return fmt.Errorf("%w: %d rows cannot be evenly divided into %d row categories",
			models.ErrConfiguration, cfg.Rows, cfg.RowCategories)
	}
	if len(cfg.Palette) == 0 {
		return fmt.Errorf("%w: palette is empty", models.ErrConfiguration)
	}
	return cfg.validateCommon()
}

// ValidateSheet checks the settings that apply to a canvas built from a grid;
// the grid itself supplies rows, columns, and colors.
func (cfg Config) ValidateSheet() error {
	return cfg.validateCommon()
}
