package merge

import (
	"strings"

	"feedback-insights-go/internal/types"
)

// Merge left-joins the source rows with the three stage outcome sets by row
// key. Every surviving row yields exactly one enriched record; a stage that
// failed (or never ran) for a row contributes the explicit unclassified
// marker, never a missing record.
func Merge(rows []types.Row, outcomes map[types.Stage]map[string]types.Outcome) []types.EnrichedRecord {
	records := make([]types.EnrichedRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, types.EnrichedRecord{
			Row:              row,
			QuestionCategory: labelFor(outcomes[types.StageQuestionCategory], row.Key),
			CommentCategory:  labelFor(outcomes[types.StageCommentCategory], row.Key),
			Scenario:         labelFor(outcomes[types.StageScenario], row.Key),
			Satisfied:        row.Rating == types.RatingPositive,
		})
	}
	return records
}

func labelFor(outcomes map[string]types.Outcome, key string) string {
	o, ok := outcomes[key]
	if !ok || o.State != types.StateSucceeded || o.Label == "" {
		return types.Unclassified
	}
	return o.Label
}

// Summarize computes the aggregate statistics in a single pass over the
// merged set. Counts are exact integers; identical input yields identical
// output.
func Summarize(records []types.EnrichedRecord) types.SummaryStatistics {
	stats := types.SummaryStatistics{
		TotalRows:        len(records),
		RatingCounts:     map[types.Rating]int{},
		CategoryByRating: map[string]map[types.Rating]int{},
		Stages: map[types.Stage]types.StageStats{
			types.StageQuestionCategory: {LabelCounts: map[string]int{}},
			types.StageCommentCategory:  {LabelCounts: map[string]int{}},
			types.StageScenario:         {LabelCounts: map[string]int{}},
		},
	}

	for _, rec := range records {
		stats.RatingCounts[rec.Rating]++
		if rec.Satisfied {
			stats.SatisfiedCount++
		}
		if rec.Rating == types.RatingNegative && strings.TrimSpace(rec.Comment) == "" {
			stats.NegativeNoCommentCount++
		}

		tally(stats.Stages, types.StageQuestionCategory, rec.QuestionCategory)
		tally(stats.Stages, types.StageCommentCategory, rec.CommentCategory)
		tally(stats.Stages, types.StageScenario, rec.Scenario)

		if rec.QuestionCategory != types.Unclassified {
			if stats.CategoryByRating[rec.QuestionCategory] == nil {
				stats.CategoryByRating[rec.QuestionCategory] = map[types.Rating]int{}
			}
			stats.CategoryByRating[rec.QuestionCategory][rec.Rating]++
		}
	}
	return stats
}

func tally(stages map[types.Stage]types.StageStats, stage types.Stage, label string) {
	s := stages[stage]
	if label == types.Unclassified {
		s.Unclassified++
	} else {
		s.Succeeded++
		s.LabelCounts[label]++
	}
	stages[stage] = s
}
