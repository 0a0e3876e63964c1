package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedback-insights-go/internal/types"
)

func sampleRows() []types.Row {
	return []types.Row{
		{Key: "r1", RequestTime: "2025-01-01 09:00:00", Question: "open account", Answer: "a1", Rating: types.RatingPositive},
		{Key: "r2", RequestTime: "2025-01-01 10:00:00", Question: "card fees", Answer: "a2", Rating: types.RatingNegative, Comment: "wrong info"},
		{Key: "r3", RequestTime: "2025-01-01 11:00:00", Question: "loan rates", Answer: "a3", Rating: types.RatingNegative},
	}
}

func sampleOutcomes() map[types.Stage]map[string]types.Outcome {
	return map[types.Stage]map[string]types.Outcome{
		types.StageQuestionCategory: {
			"r1": {Key: "r1", State: types.StateSucceeded, Label: "Accounts"},
			"r2": {Key: "r2", State: types.StateSucceeded, Label: "HSBC credit cards"},
			"r3": {Key: "r3", State: types.StateFailedTerminal, Err: "attempts exhausted"},
		},
		types.StageCommentCategory: {
			"r1": {Key: "r1", State: types.StateSucceeded, Label: types.NoComment},
			"r2": {Key: "r2", State: types.StateSucceeded, Label: "Incorrect/Factual Errors"},
			"r3": {Key: "r3", State: types.StateSucceeded, Label: types.NoComment},
		},
		types.StageScenario: {
			"r1": {Key: "r1", State: types.StateSucceeded, Label: "provided"},
			// r3 has no scenario outcome at all
			"r2": {Key: "r2", State: types.StateSucceeded, Label: "open-ended"},
		},
	}
}

func TestMergeOneRecordPerRow(t *testing.T) {
	records := Merge(sampleRows(), sampleOutcomes())
	require.Len(t, records, 3)

	seen := map[string]bool{}
	for _, rec := range records {
		assert.False(t, seen[rec.Key], "duplicate record for %s", rec.Key)
		seen[rec.Key] = true
	}
}

func TestMergeFailedStagesGetUnclassifiedMarker(t *testing.T) {
	records := Merge(sampleRows(), sampleOutcomes())

	byKey := map[string]types.EnrichedRecord{}
	for _, rec := range records {
		byKey[rec.Key] = rec
	}

	assert.Equal(t, "Accounts", byKey["r1"].QuestionCategory)
	assert.Equal(t, types.Unclassified, byKey["r3"].QuestionCategory)
	assert.Equal(t, types.Unclassified, byKey["r3"].Scenario)
	assert.Equal(t, types.NoComment, byKey["r3"].CommentCategory)
	assert.True(t, byKey["r1"].Satisfied)
	assert.False(t, byKey["r2"].Satisfied)
}

func TestMergeWithNoOutcomesKeepsAllRows(t *testing.T) {
	records := Merge(sampleRows(), map[types.Stage]map[string]types.Outcome{})
	require.Len(t, records, 3)
	for _, rec := range records {
		assert.Equal(t, types.Unclassified, rec.QuestionCategory)
		assert.Equal(t, types.Unclassified, rec.CommentCategory)
		assert.Equal(t, types.Unclassified, rec.Scenario)
	}
}

func TestSummarizeCounts(t *testing.T) {
	stats := Summarize(Merge(sampleRows(), sampleOutcomes()))

	assert.Equal(t, 3, stats.TotalRows)
	assert.Equal(t, 1, stats.RatingCounts[types.RatingPositive])
	assert.Equal(t, 2, stats.RatingCounts[types.RatingNegative])
	assert.Equal(t, 1, stats.SatisfiedCount)
	assert.Equal(t, 1, stats.NegativeNoCommentCount)

	q := stats.Stages[types.StageQuestionCategory]
	assert.Equal(t, 2, q.Succeeded)
	assert.Equal(t, 1, q.Unclassified)
	assert.Equal(t, 1, q.LabelCounts["Accounts"])
	assert.Equal(t, "66.7%", q.SuccessRate())

	assert.Equal(t, 1, stats.CategoryByRating["Accounts"][types.RatingPositive])
	assert.Equal(t, 1, stats.CategoryByRating["HSBC credit cards"][types.RatingNegative])
	_, hasUnclassified := stats.CategoryByRating[types.Unclassified]
	assert.False(t, hasUnclassified)
}

func TestSummarizeDeterministic(t *testing.T) {
	a := Summarize(Merge(sampleRows(), sampleOutcomes()))
	b := Summarize(Merge(sampleRows(), sampleOutcomes()))
	assert.Equal(t, a, b)
}
