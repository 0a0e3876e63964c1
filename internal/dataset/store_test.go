package dataset

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedback-insights-go/internal/types"
)

func testLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

const feedbackCSV = `request_time,user_question,bot_answer,feedback_rating,feedback_comment
2025-01-01 09:00:00,open account,answer one,THUMBS_UP,
2025-01-01 10:00:00,card fees,answer two,THUMBS_DOWN,wrong info
not-a-timestamp,loan rates,answer three,THUMBS_UP,
2025-01-01 11:00:00,,answer four,THUMBS_DOWN,
2025-01-01 12:00:00,mortgage question,answer five,SOMETHING_ELSE,
`

func writeFeedback(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "feedback.csv"), []byte(feedbackCSV), 0o644))
}

func TestLoadRowsValidation(t *testing.T) {
	dir := t.TempDir()
	writeFeedback(t, dir)

	rows, err := LoadRows(filepath.Join(dir, "feedback.csv"), testLog())
	require.NoError(t, err)

	// bad timestamp and empty question rows are excluded, the rest survive
	require.Len(t, rows, 3)
	assert.Equal(t, "open account", rows[0].Question)
	assert.Equal(t, types.RatingPositive, rows[0].Rating)
	assert.Equal(t, types.RatingNegative, rows[1].Rating)
	assert.Equal(t, "wrong info", rows[1].Comment)
	assert.Equal(t, types.RatingUnknown, rows[2].Rating)

	// input order preserved, keys stable
	assert.Equal(t, RowKey("2025-01-01 09:00:00", "open account", "answer one"), rows[0].Key)
}

func TestLoadRowsMissingColumn(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("request_time,user_question\n2025-01-01,hello\n"), 0o644))

	_, err := LoadRows(path, testLog())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bot_answer")
}

func TestLoadMappedQuestions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mapped.csv")
	require.NoError(t, os.WriteFile(path, []byte("question\nOpen Account \nCard Fees\n"), 0o644))

	set, err := LoadMappedQuestions(path, testLog())
	require.NoError(t, err)
	assert.True(t, set["open account"])
	assert.True(t, set["card fees"])
	assert.False(t, set["loan rates"])
}

func TestLoadMappedQuestionsMissingFile(t *testing.T) {
	set, err := LoadMappedQuestions(filepath.Join(t.TempDir(), "nope.csv"), testLog())
	require.NoError(t, err)
	assert.Empty(t, set)
}

func TestOutcomesRoundTripAndResume(t *testing.T) {
	store := NewStore(t.TempDir(), "feedback.csv", "mapped.csv", testLog())

	// never-run stage reads as empty, not as an error
	empty, err := store.ReadOutcomes(types.StageScenario)
	require.NoError(t, err)
	assert.Empty(t, empty)

	outcomes := map[string]types.Outcome{
		"k1": {Key: "k1", State: types.StateSucceeded, Label: "Accounts", Attempts: 1},
		"k2": {Key: "k2", State: types.StateFailedTerminal, Attempts: 3, Err: "attempts exhausted: transient: rate limited"},
	}
	require.NoError(t, store.WriteOutcomes(types.StageQuestionCategory, outcomes))

	got, err := store.ReadOutcomes(types.StageQuestionCategory)
	require.NoError(t, err)
	assert.Equal(t, outcomes, got)
}

func TestWriteEnrichedProducesCSVAndXLSX(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, "feedback.csv", "mapped.csv", testLog())

	records := []types.EnrichedRecord{
		{
			Row:              types.Row{Key: "k1", RequestTime: "2025-01-01 09:00:00", Question: "open account", Answer: "a", Rating: types.RatingPositive},
			QuestionCategory: "Accounts",
			CommentCategory:  types.NoComment,
			Scenario:         "provided",
			Satisfied:        true,
		},
	}
	require.NoError(t, store.WriteEnriched(records))

	csvPath := filepath.Join(dir, "feedback_analyzed.csv")
	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Accounts")
	assert.Contains(t, string(data), "provided")

	_, err = os.Stat(filepath.Join(dir, "feedback_analyzed.xlsx"))
	assert.NoError(t, err)
}

func TestStagePaths(t *testing.T) {
	store := NewStore("data", "pws_chatbot_qa_feedbacks.csv", "mapped_questions.csv", testLog())
	assert.Equal(t, filepath.Join("data", "pws_chatbot_qa_feedbacks_with_categories.csv"), store.OutcomePath(types.StageQuestionCategory))
	assert.Equal(t, filepath.Join("data", "pws_chatbot_qa_feedbacks_with_comment_categories.csv"), store.OutcomePath(types.StageCommentCategory))
	assert.Equal(t, filepath.Join("data", "pws_chatbot_qa_feedbacks_with_scenarios.csv"), store.OutcomePath(types.StageScenario))
	assert.Equal(t, filepath.Join("data", "pws_chatbot_qa_feedbacks_analyzed.csv"), store.MergedPath())
	assert.Equal(t, filepath.Join("data", "pws_chatbot_qa_feedbacks_summary.txt"), store.SummaryPath())
}
