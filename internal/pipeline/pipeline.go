package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"feedback-insights-go/internal/config"
	"feedback-insights-go/internal/dataset"
	"feedback-insights-go/internal/dispatch"
	"feedback-insights-go/internal/merge"
	"feedback-insights-go/internal/report"
	"feedback-insights-go/internal/stage"
	"feedback-insights-go/internal/types"
)

// Controller sequences the pipeline: load, the selected stages, merge,
// persist. It owns all per-run state; nothing survives a run except the
// tables written to disk.
type Controller struct {
	cfg   *config.Config
	store *dataset.Store
	cls   stage.Classifier
	log   *logrus.Entry
	runID string
}

// RunResult is the controller's account of one run.
type RunResult struct {
	RunID       string
	Rows        int
	Aborted     bool
	AbortReason string
	Stats       *types.SummaryStatistics
}

func New(cfg *config.Config, store *dataset.Store, cls stage.Classifier, log *logrus.Entry) *Controller {
	runID := uuid.New().String()
	return &Controller{
		cfg:   cfg,
		store: store,
		cls:   cls,
		log:   log.WithField("run_id", runID),
		runID: runID,
	}
}

// Run executes the selected stages in order, then (when doMerge is set and
// no stage tripped the abort policy) merges all persisted stage outputs into
// the final table and summary artifact. Stage selection makes reruns against
// existing intermediates idempotent.
func (c *Controller) Run(ctx context.Context, stages []types.Stage, doMerge bool) (*RunResult, error) {
	rows, err := c.store.LoadRows()
	if err != nil {
		return nil, fmt.Errorf("load rows: %w", err)
	}
	result := &RunResult{RunID: c.runID, Rows: len(rows)}
	if len(rows) == 0 {
		c.log.Warn("no rows to process")
		return result, nil
	}

	for _, st := range stages {
		runner, err := c.runnerFor(st)
		if err != nil {
			return result, err
		}
		d := dispatch.New(dispatch.Config{
			MaxConcurrency:     c.cfg.MaxConcurrency,
			MinInterval:        c.cfg.MinInterval(),
			MaxAttempts:        c.cfg.MaxAttempts,
			BackoffBase:        c.cfg.BackoffBase(),
			BackoffCap:         c.cfg.BackoffCap(),
			AbortOnAuthFailure: c.cfg.AbortOnAuthFailure,
		}, c.log.WithField("stage", string(st)))

		outcomes, err := runner.Run(ctx, rows, c.store, d, c.cls)
		if err != nil {
			// fatal for this stage only; earlier stages' tables remain valid
			return result, fmt.Errorf("stage %s: %w", st, err)
		}

		failed := 0
		for _, o := range outcomes {
			if o.State == types.StateFailedTerminal {
				failed++
			}
		}
		c.log.WithFields(logrus.Fields{
			"stage":        string(st),
			"rows":         len(rows),
			"succeeded":    len(outcomes) - failed,
			"unclassified": failed,
		}).Info("stage finished")

		rate := float64(failed) / float64(len(rows))
		if rate > c.cfg.AbortFailureRate {
			result.Aborted = true
			result.AbortReason = fmt.Sprintf("stage %s terminal failure rate %.2f exceeds threshold %.2f", st, rate, c.cfg.AbortFailureRate)
			if d.Aborted() {
				result.AbortReason = fmt.Sprintf("stage %s aborted on auth failure", st)
			}
			c.log.WithField("reason", result.AbortReason).Warn("pipeline aborted")
			c.finalLog(result, nil)
			return result, nil
		}
	}

	if !doMerge {
		c.finalLog(result, nil)
		return result, nil
	}

	all := make(map[types.Stage]map[string]types.Outcome, 3)
	for _, st := range []types.Stage{types.StageQuestionCategory, types.StageCommentCategory, types.StageScenario} {
		outcomes, err := c.store.ReadOutcomes(st)
		if err != nil {
			return result, fmt.Errorf("merge: %w", err)
		}
		all[st] = outcomes
	}

	records := merge.Merge(rows, all)
	if err := c.store.WriteEnriched(records); err != nil {
		return result, fmt.Errorf("merge: %w", err)
	}
	stats := merge.Summarize(records)
	result.Stats = &stats
	if err := report.Write(c.store.SummaryPath(), c.runID, stats, result.Aborted, result.AbortReason); err != nil {
		return result, fmt.Errorf("merge: %w", err)
	}

	c.finalLog(result, &stats)
	return result, nil
}

func (c *Controller) runnerFor(st types.Stage) (*stage.Runner, error) {
	switch st {
	case types.StageQuestionCategory:
		return stage.NewQuestionCategoryRunner(c.log), nil
	case types.StageCommentCategory:
		return stage.NewCommentCategoryRunner(c.log), nil
	case types.StageScenario:
		mapped, err := c.store.LoadMappedQuestions()
		if err != nil {
			return nil, fmt.Errorf("scenario stage: %w", err)
		}
		return stage.NewScenarioRunner(mapped, c.log), nil
	default:
		return nil, fmt.Errorf("unknown stage %q", st)
	}
}

func (c *Controller) finalLog(result *RunResult, stats *types.SummaryStatistics) {
	fields := logrus.Fields{
		"rows_processed": result.Rows,
		"aborted":        result.Aborted,
	}
	if result.Aborted {
		fields["abort_reason"] = result.AbortReason
	}
	if stats != nil {
		for st, s := range stats.Stages {
			fields[string(st)+"_succeeded"] = s.Succeeded
			fields[string(st)+"_unclassified"] = s.Unclassified
		}
	}
	c.log.WithFields(fields).Info("run complete")
}
