package types

import "fmt"

// Rating is the normalized feedback rating token.
type Rating string

const (
	RatingPositive Rating = "positive"
	RatingNegative Rating = "negative"
	RatingNeutral  Rating = "neutral"
	RatingUnknown  Rating = "unknown"
)

// ParseRating maps raw feedback tokens from the source table.
func ParseRating(raw string) Rating {
	switch raw {
	case "THUMBS_UP":
		return RatingPositive
	case "THUMBS_DOWN":
		return RatingNegative
	case "NEUTRAL":
		return RatingNeutral
	default:
		return RatingUnknown
	}
}

// Row is one immutable source feedback record. Key is stable across runs
// and is the join identity for all stage outputs.
type Row struct {
	Key         string `json:"key"`
	RequestTime string `json:"request_time"`
	Question    string `json:"user_question"`
	Answer      string `json:"bot_answer"`
	Rating      Rating `json:"feedback_rating"`
	Comment     string `json:"feedback_comment,omitempty"`
}

// Stage names. Each stage assigns at most one label per row.
type Stage string

const (
	StageQuestionCategory Stage = "question_category"
	StageCommentCategory  Stage = "comment_category"
	StageScenario         Stage = "scenario"
)

// OutcomeState is the state of one row within one stage.
type OutcomeState string

const (
	StatePending         OutcomeState = "pending"
	StateInFlight        OutcomeState = "in_flight"
	StateSucceeded       OutcomeState = "succeeded"
	StateFailedRetryable OutcomeState = "failed_retryable"
	StateFailedTerminal  OutcomeState = "failed_terminal"
)

// Outcome is the per (row, stage) classification result.
type Outcome struct {
	Key      string       `json:"key"`
	State    OutcomeState `json:"state"`
	Label    string       `json:"label,omitempty"`
	Attempts int          `json:"attempts"`
	Err      string       `json:"error,omitempty"`
}

// Unclassified is the explicit marker a failed stage leaves on the merged
// record instead of dropping the row.
const Unclassified = "unclassified"

// NoComment is the sentinel label for rows the comment stage skips because
// there is no comment text to classify.
const NoComment = "no-comment"

// EnrichedRecord is a source row plus the three stage labels and derived fields.
type EnrichedRecord struct {
	Row
	QuestionCategory string `json:"category"`
	CommentCategory  string `json:"feedback_comment_category"`
	Scenario         string `json:"scenario"`
	Satisfied        bool   `json:"satisfied"`
}

// StageStats are per-stage success/failure counts over one run.
type StageStats struct {
	Succeeded    int            `json:"succeeded"`
	Unclassified int            `json:"unclassified"`
	LabelCounts  map[string]int `json:"label_counts"`
}

// SuccessRate formats the stage success rate as a fixed one-decimal percent.
func (s StageStats) SuccessRate() string {
	return Percent(s.Succeeded, s.Succeeded+s.Unclassified)
}

// SummaryStatistics is the aggregate view over the full merged record set.
// All rates derive from integer counts so identical input yields identical
// output.
type SummaryStatistics struct {
	TotalRows              int                       `json:"total_rows"`
	RatingCounts           map[Rating]int            `json:"rating_counts"`
	Stages                 map[Stage]StageStats      `json:"stages"`
	CategoryByRating       map[string]map[Rating]int `json:"category_by_rating"`
	SatisfiedCount         int                       `json:"satisfied_count"`
	NegativeNoCommentCount int                       `json:"negative_no_comment_count"`
}

// Percent renders count/total as "NN.N%". Zero total renders as "0.0%".
func Percent(count, total int) string {
	if total == 0 {
		return "0.0%"
	}
	// one decimal, computed on integers to stay deterministic
	tenths := (count*1000 + total/2) / total
	return fmt.Sprintf("%d.%d%%", tenths/10, tenths%10)
}
