package config

import (
	"fmt"
	"path/filepath"

	"gridcanvas/models"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Job kinds.
const (
	KindCanvas = "canvas"
	KindSheet  = "sheet"
)

// OuterJob is the raw manifest entry: a kind selector and its untyped definition.
type OuterJob struct {
	Kind string      `mapstructure:"kind"`
	Def  interface{} `mapstructure:"def"`
}

// Job is one independent canvas to generate.
type Job struct {
	Kind   string
	Config Config
}

// LoadManifest reads a yaml manifest of the form
//
//	jobs:
//	  - kind: canvas
//	    def: {rows: 4, cols: 4, output: blank.txt}
//
// Each def is decoded over DefaultsFor(kind), so jobs only state what differs.
func LoadManifest(path string) ([]Job, error) {
	vp := viper.New()
	vp.SetConfigFile(path)
	vp.SetConfigType("yaml")
	vp.AddConfigPath(filepath.Dir(path))
	if err := vp.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}

	var outer struct {
		Jobs []OuterJob `mapstructure:"jobs"`
	}
	if err := vp.Unmarshal(&outer); err != nil {
		return nil, fmt.Errorf("%w: decode manifest: %v", models.ErrConfiguration, err)
	}
	if len(outer.Jobs) == 0 {
		return nil, fmt.Errorf("%w: manifest %s has no jobs", models.ErrConfiguration, path)
	}

	jobs := make([]Job, 0, len(outer.Jobs))
	outputs := make(map[string]int, len(outer.Jobs))
	for i, oj := range outer.Jobs {
		if oj.Kind != KindCanvas && oj.Kind != KindSheet {
			return nil, fmt.Errorf("%w: job %d has unknown kind %q", models.ErrConfiguration, i, oj.Kind)
		}

		// Round-trip the untyped def through yaml to decode it with the Config yaml tags.
		spec, err := yaml.Marshal(oj.Def)
		if err != nil {
			return nil, fmt.Errorf("job %d: %w", i, err)
		}
		cfg := DefaultsFor(oj.Kind)
		if err = yaml.Unmarshal(spec, &cfg); err != nil {
			return nil, fmt.Errorf("%w: job %d: %v", models.ErrConfiguration, i, err)
		}
		out := filepath.Clean(cfg.Output)
		if j, ok := outputs[out]; ok {
			return nil, fmt.Errorf("%w: jobs %d and %d both write %s; give each job its own output",
				models.ErrConfiguration, j, i, out)
		}
		outputs[out] = i
		jobs = append(jobs, Job{Kind: oj.Kind, Config: cfg})
	}
	return jobs, nil
}
