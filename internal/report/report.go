package report

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"feedback-insights-go/internal/types"
)

// stage display order for the artifact
var stageOrder = []types.Stage{
	types.StageQuestionCategory,
	types.StageCommentCategory,
	types.StageScenario,
}

// Render formats the summary statistics as the plain-text artifact consumed
// downstream. Output is fully sorted so identical statistics render
// identically.
func Render(runID string, stats types.SummaryStatistics, aborted bool, abortReason string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "=== FEEDBACK ANALYSIS SUMMARY ===\n")
	fmt.Fprintf(&b, "Run: %s\n", runID)
	fmt.Fprintf(&b, "Total records: %d\n", stats.TotalRows)
	if aborted {
		fmt.Fprintf(&b, "Run aborted early: %s\n", abortReason)
	}

	fmt.Fprintf(&b, "\nFeedback Rating Distribution:\n")
	for _, rating := range []types.Rating{types.RatingPositive, types.RatingNegative, types.RatingNeutral, types.RatingUnknown} {
		if count := stats.RatingCounts[rating]; count > 0 {
			fmt.Fprintf(&b, "  %s: %d (%s)\n", rating, count, types.Percent(count, stats.TotalRows))
		}
	}
	fmt.Fprintf(&b, "Satisfaction rate: %s\n", types.Percent(stats.SatisfiedCount, stats.TotalRows))

	for _, stage := range stageOrder {
		s := stats.Stages[stage]
		fmt.Fprintf(&b, "\n%s:\n", stageTitle(stage))
		for _, label := range sortedKeys(s.LabelCounts) {
			fmt.Fprintf(&b, "  %s: %d (%s)\n", label, s.LabelCounts[label], types.Percent(s.LabelCounts[label], stats.TotalRows))
		}
		fmt.Fprintf(&b, "  succeeded: %d, unclassified: %d, success rate: %s\n",
			s.Succeeded, s.Unclassified, s.SuccessRate())
	}

	if len(stats.CategoryByRating) > 0 {
		fmt.Fprintf(&b, "\nCategory x Rating:\n")
		for _, cat := range sortedKeys(stats.CategoryByRating) {
			byRating := stats.CategoryByRating[cat]
			fmt.Fprintf(&b, "  %s -> positive: %d, negative: %d, neutral: %d, unknown: %d\n",
				cat,
				byRating[types.RatingPositive], byRating[types.RatingNegative],
				byRating[types.RatingNeutral], byRating[types.RatingUnknown])
		}
	}

	fmt.Fprintf(&b, "\nTHUMBS_DOWN with empty comments: %d (%s)\n",
		stats.NegativeNoCommentCount, types.Percent(stats.NegativeNoCommentCount, stats.TotalRows))
	return b.String()
}

// Write persists the rendered artifact.
func Write(path, runID string, stats types.SummaryStatistics, aborted bool, abortReason string) error {
	content := Render(runID, stats, aborted, abortReason)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write summary artifact: %w", err)
	}
	return nil
}

func stageTitle(stage types.Stage) string {
	switch stage {
	case types.StageQuestionCategory:
		return "Category Distribution"
	case types.StageCommentCategory:
		return "Feedback Comment Category Distribution"
	case types.StageScenario:
		return "Scenario Distribution"
	default:
		return string(stage)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
