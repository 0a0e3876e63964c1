package stage

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"feedback-insights-go/internal/classifier"
	"feedback-insights-go/internal/dispatch"
	"feedback-insights-go/internal/types"
)

// Classifier is the capability a stage needs: one call, one label or error.
type Classifier interface {
	Classify(ctx context.Context, req classifier.Request) (string, error)
}

// OutcomeStore persists per-stage intermediate outcome tables.
type OutcomeStore interface {
	ReadOutcomes(stage types.Stage) (map[string]types.Outcome, error)
	WriteOutcomes(stage types.Stage, outcomes map[string]types.Outcome) error
}

// Runner binds the dispatcher to one stage: a label set, the prompt, the
// per-row text selection, and an optional preassignment rule that resolves a
// row without a classify call (sentinels and the scenario mapping cache).
type Runner struct {
	Stage    types.Stage
	Labels   []string
	Fallback string
	Field    string
	System   string

	userText  func(types.Row) string
	preassign func(types.Row) (string, bool)

	log *logrus.Entry
}

// NewQuestionCategoryRunner classifies each question (with its answer for
// context) into one of the site's top-level sections.
func NewQuestionCategoryRunner(log *logrus.Entry) *Runner {
	return &Runner{
		Stage:    types.StageQuestionCategory,
		Labels:   QuestionCategories,
		Fallback: "other",
		Field:    "category",
		System:   questionSystemPrompt,
		userText: func(r types.Row) string {
			return fmt.Sprintf("User Question: %s\nBot Answer: %s\n\nCategorize this question.", r.Question, r.Answer)
		},
		preassign: func(types.Row) (string, bool) { return "", false },
		log:       log.WithField("stage", string(types.StageQuestionCategory)),
	}
}

// NewCommentCategoryRunner classifies negative feedback comments. Rows
// without a comment to classify resolve to the no-comment sentinel without
// a classify call.
func NewCommentCategoryRunner(log *logrus.Entry) *Runner {
	return &Runner{
		Stage:    types.StageCommentCategory,
		Labels:   CommentCategories,
		Fallback: "General",
		Field:    "feedback_comment_category",
		System:   commentSystemPrompt,
		userText: func(r types.Row) string {
			return fmt.Sprintf("Feedback Comment: %s\n\nCategorize this feedback comment.", r.Comment)
		},
		preassign: func(r types.Row) (string, bool) {
			if r.Rating != types.RatingNegative || strings.TrimSpace(r.Comment) == "" {
				return types.NoComment, true
			}
			return "", false
		},
		log: log.WithField("stage", string(types.StageCommentCategory)),
	}
}

// NewScenarioRunner assigns the provided/open-ended scenario. Questions in
// the mapping table resolve from the table; only unmapped questions go to
// the classifier (cache before call).
func NewScenarioRunner(mapped map[string]bool, log *logrus.Entry) *Runner {
	return &Runner{
		Stage:    types.StageScenario,
		Labels:   ScenarioLabels,
		Fallback: ScenarioOpenEnded,
		Field:    "scenario",
		System:   scenarioSystemPrompt,
		userText: func(r types.Row) string {
			return fmt.Sprintf("User Question: %s\n\nClassify this question.", r.Question)
		},
		preassign: func(r types.Row) (string, bool) {
			if mapped[strings.ToLower(strings.TrimSpace(r.Question))] {
				return ScenarioProvided, true
			}
			return "", false
		},
		log: log.WithField("stage", string(types.StageScenario)),
	}
}

// Run resolves an outcome for every row and persists the stage's
// intermediate table before returning. Rows already succeeded in a prior
// run are not re-dispatched, which makes stage reruns idempotent.
func (r *Runner) Run(ctx context.Context, rows []types.Row, store OutcomeStore, d *dispatch.Dispatcher, cls Classifier) (map[string]types.Outcome, error) {
	existing, err := store.ReadOutcomes(r.Stage)
	if err != nil {
		return nil, fmt.Errorf("stage %s: %w", r.Stage, err)
	}

	out := make(map[string]types.Outcome, len(rows))
	var items []dispatch.Item
	resumed, preassigned := 0, 0
	for _, row := range rows {
		if prev, ok := existing[row.Key]; ok && prev.State == types.StateSucceeded {
			out[row.Key] = prev
			resumed++
			continue
		}
		if label, ok := r.preassign(row); ok {
			out[row.Key] = types.Outcome{Key: row.Key, State: types.StateSucceeded, Label: label}
			preassigned++
			continue
		}
		items = append(items, dispatch.Item{Key: row.Key, Text: r.userText(row)})
	}

	if len(items) > 0 {
		results := d.Run(ctx, items, func(ctx context.Context, text string) (string, error) {
			return cls.Classify(ctx, classifier.Request{
				System:   r.System,
				User:     text,
				Field:    r.Field,
				Labels:   r.Labels,
				Fallback: r.Fallback,
			})
		})
		for k, o := range results {
			out[k] = o
		}
	}

	if err := store.WriteOutcomes(r.Stage, out); err != nil {
		return nil, fmt.Errorf("stage %s: %w", r.Stage, err)
	}

	r.log.WithFields(logrus.Fields{
		"rows":        len(rows),
		"resumed":     resumed,
		"preassigned": preassigned,
		"dispatched":  len(items),
	}).Info("stage complete")
	return out, nil
}
