package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"feedback-insights-go/internal/types"
)

var requiredColumns = []string{"request_time", "user_question", "bot_answer", "feedback_rating"}

// accepted request_time layouts, most specific first
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02/01/2006 15:04:05",
}

// RowKey builds the stable composite identity used to join stage outputs.
func RowKey(requestTime, question, answer string) string {
	return requestTime + "|" + question + "|" + answer
}

// LoadRows reads the feedback table and validates each row structurally.
// Rows with an unparseable timestamp or an empty question are excluded with
// a logged reason, never silently dropped. Output order = input order.
func LoadRows(path string, log *logrus.Entry) ([]types.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open feedback table: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read feedback table: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("feedback table %s is empty", path)
	}

	idx, err := headerIndex(records[0], requiredColumns)
	if err != nil {
		return nil, fmt.Errorf("feedback table %s: %w", path, err)
	}
	commentIdx := columnIndex(records[0], "feedback_comment")

	var rows []types.Row
	excluded := 0
	for i, rec := range records[1:] {
		line := i + 2
		requestTime := cell(rec, idx["request_time"])
		question := cell(rec, idx["user_question"])
		answer := cell(rec, idx["bot_answer"])

		if question == "" {
			log.WithField("line", line).Warn("excluding row: empty user_question")
			excluded++
			continue
		}
		if !parseableTime(requestTime) {
			log.WithField("line", line).WithField("request_time", requestTime).Warn("excluding row: unparseable request_time")
			excluded++
			continue
		}

		row := types.Row{
			Key:         RowKey(requestTime, question, answer),
			RequestTime: requestTime,
			Question:    question,
			Answer:      answer,
			Rating:      types.ParseRating(cell(rec, idx["feedback_rating"])),
		}
		if commentIdx >= 0 {
			row.Comment = strings.TrimSpace(cell(rec, commentIdx))
		}
		rows = append(rows, row)
	}

	log.WithField("rows", len(rows)).WithField("excluded", excluded).Info("feedback table loaded")
	return rows, nil
}

// LoadMappedQuestions reads the question→scenario mapping table and returns
// the set of mapped questions, lowercased and trimmed for lookup. A missing
// file is not fatal: the scenario stage falls back to live classification.
func LoadMappedQuestions(path string, log *logrus.Entry) (map[string]bool, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.WithField("path", path).Warn("mapped questions table not found, scenario stage will classify every row")
			return map[string]bool{}, nil
		}
		return nil, fmt.Errorf("open mapped questions: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read mapped questions: %w", err)
	}
	if len(records) == 0 {
		return map[string]bool{}, nil
	}
	qIdx := columnIndex(records[0], "question")
	if qIdx < 0 {
		return nil, fmt.Errorf("mapped questions table %s: missing question column", path)
	}

	set := make(map[string]bool, len(records)-1)
	for _, rec := range records[1:] {
		q := strings.ToLower(strings.TrimSpace(cell(rec, qIdx)))
		if q != "" {
			set[q] = true
		}
	}
	log.WithField("questions", len(set)).Info("mapped questions loaded")
	return set, nil
}

func headerIndex(header []string, required []string) (map[string]int, error) {
	idx := make(map[string]int, len(required))
	for _, name := range required {
		i := columnIndex(header, name)
		if i < 0 {
			return nil, fmt.Errorf("missing required column %q", name)
		}
		idx[name] = i
	}
	return idx, nil
}

func columnIndex(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

func cell(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func parseableTime(s string) bool {
	for _, layout := range timeLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}
