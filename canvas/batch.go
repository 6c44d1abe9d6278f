package canvas

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gridcanvas/config"
	"gridcanvas/layout"
	"gridcanvas/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Result is a generated job's script, in manifest order.
type Result struct {
	Job    config.Job
	Script *layout.Script
}

// RunBatch generates every job concurrently, at most limit at a time
// (unbounded when limit < 1). Jobs share no state. The first failure cancels
// the remaining jobs; on success the results line up with jobs.
func RunBatch(
	ctx context.Context,
	jobs []config.Job,
	limit int,
	logger *zap.Logger,
) ([]Result, error) {
	results := make([]Result, len(jobs))
	group, groupCtx := errgroup.WithContext(ctx)
	if limit > 0 {
		group.SetLimit(limit)
	}

	for i, job := range jobs {
		i, job := i, job
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			script, err := Generate(job, logger.With(zap.Int("job", i), zap.String("kind", job.Kind)))
			if err != nil {
				return fmt.Errorf("job %d (%s): %w", i, job.Kind, err)
			}
			results[i] = Result{Job: job, Script: script}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// WriteAll writes each result to its configured output path. Every script
// is staged in a temporary file first; outputs are only replaced once all of
// them were staged, so a script that cannot be written leaves every output
// untouched.
func WriteAll(results []Result, logger *zap.Logger) (err error) {
	if err := checkOutputs(results); err != nil {
		return err
	}

	staged := make([]string, 0, len(results))
	defer func() {
		if err != nil {
			for _, tmp := range staged {
				_ = os.Remove(tmp)
			}
		}
	}()
	for _, res := range results {
		tmp, stageErr := stage(res.Job.Config.Output, res.Script)
		if stageErr != nil {
			return fmt.Errorf("write %s: %w", res.Job.Config.Output, stageErr)
		}
		staged = append(staged, tmp)
	}

	for i, res := range results {
		if err = os.Rename(staged[i], res.Job.Config.Output); err != nil {
			staged = staged[i:]
			return fmt.Errorf("write %s: %w", res.Job.Config.Output, err)
		}
		logger.Info("wrote canvas",
			zap.String("output", res.Job.Config.Output),
			zap.Int("cells", len(res.Script.Records)))
	}
	return nil
}

// checkOutputs rejects results that would overwrite each other.
func checkOutputs(results []Result) error {
	seen := make(map[string]int, len(results))
	for i, res := range results {
		out := filepath.Clean(res.Job.Config.Output)
		if j, ok := seen[out]; ok {
			return fmt.Errorf("%w: jobs %d and %d both write %s", models.ErrConfiguration, j, i, out)
		}
		seen[out] = i
	}
	return nil
}
