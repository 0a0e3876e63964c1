package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"feedback-insights-go/internal/types"
)

// Store owns all durable tables of one dataset: the source feedback table,
// the scenario mapping table, the per-stage intermediate outcome tables and
// the final merged table. Nothing else in the pipeline touches the disk.
type Store struct {
	dir          string
	feedbackFile string
	mappedFile   string
	log          *logrus.Entry
}

func NewStore(dir, feedbackFile, mappedFile string, log *logrus.Entry) *Store {
	return &Store{dir: dir, feedbackFile: feedbackFile, mappedFile: mappedFile, log: log}
}

func (s *Store) LoadRows() ([]types.Row, error) {
	return LoadRows(filepath.Join(s.dir, s.feedbackFile), s.log)
}

func (s *Store) LoadMappedQuestions() (map[string]bool, error) {
	return LoadMappedQuestions(filepath.Join(s.dir, s.mappedFile), s.log)
}

// stage table suffixes follow the historical output names
var stageSuffix = map[types.Stage]string{
	types.StageQuestionCategory: "_with_categories.csv",
	types.StageCommentCategory:  "_with_comment_categories.csv",
	types.StageScenario:         "_with_scenarios.csv",
}

func (s *Store) base() string {
	return strings.TrimSuffix(s.feedbackFile, filepath.Ext(s.feedbackFile))
}

// OutcomePath is the intermediate table location for one stage.
func (s *Store) OutcomePath(stage types.Stage) string {
	return filepath.Join(s.dir, s.base()+stageSuffix[stage])
}

// MergedPath is the final enriched table location.
func (s *Store) MergedPath() string {
	return filepath.Join(s.dir, s.base()+"_analyzed.csv")
}

// SummaryPath is the summary artifact location.
func (s *Store) SummaryPath() string {
	return filepath.Join(s.dir, s.base()+"_summary.txt")
}

var outcomeHeader = []string{"key", "state", "label", "attempts", "error"}

// ReadOutcomes loads a stage's intermediate table. A missing file means the
// stage has never run: empty map, no error.
func (s *Store) ReadOutcomes(stage types.Stage) (map[string]types.Outcome, error) {
	path := s.OutcomePath(stage)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]types.Outcome{}, nil
		}
		return nil, fmt.Errorf("open %s outcomes: %w", stage, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(outcomeHeader)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s outcomes: %w", stage, err)
	}

	out := make(map[string]types.Outcome, len(records))
	for i, rec := range records {
		if i == 0 {
			continue
		}
		attempts, _ := strconv.Atoi(rec[3])
		out[rec[0]] = types.Outcome{
			Key:      rec[0],
			State:    types.OutcomeState(rec[1]),
			Label:    rec[2],
			Attempts: attempts,
			Err:      rec[4],
		}
	}
	return out, nil
}

// WriteOutcomes persists a stage's intermediate table, sorted by key so
// reruns produce byte-identical files.
func (s *Store) WriteOutcomes(stage types.Stage, outcomes map[string]types.Outcome) error {
	keys := make([]string, 0, len(outcomes))
	for k := range outcomes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := [][]string{outcomeHeader}
	for _, k := range keys {
		o := outcomes[k]
		rows = append(rows, []string{o.Key, string(o.State), o.Label, strconv.Itoa(o.Attempts), o.Err})
	}
	if err := writeCSV(s.OutcomePath(stage), rows); err != nil {
		return fmt.Errorf("persist %s outcomes: %w", stage, err)
	}
	s.log.WithField("stage", string(stage)).WithField("rows", len(outcomes)).Info("intermediate outcomes persisted")
	return nil
}

var enrichedHeader = []string{
	"request_time", "user_question", "bot_answer", "feedback_rating",
	"feedback_comment", "category", "feedback_comment_category", "scenario", "satisfied",
}

// WriteEnriched persists the final merged table as CSV plus an XLSX copy.
func (s *Store) WriteEnriched(records []types.EnrichedRecord) error {
	rows := [][]string{enrichedHeader}
	for _, rec := range records {
		rows = append(rows, []string{
			rec.RequestTime, rec.Question, rec.Answer, string(rec.Rating),
			rec.Comment, rec.QuestionCategory, rec.CommentCategory, rec.Scenario,
			strconv.FormatBool(rec.Satisfied),
		})
	}
	path := s.MergedPath()
	if err := writeCSV(path, rows); err != nil {
		return fmt.Errorf("persist merged table: %w", err)
	}
	if err := writeXLSX(strings.TrimSuffix(path, ".csv")+".xlsx", rows); err != nil {
		return fmt.Errorf("persist merged xlsx copy: %w", err)
	}
	s.log.WithField("rows", len(records)).WithField("path", path).Info("merged table persisted")
	return nil
}

func writeCSV(path string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeXLSX(path string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		vals := make([]interface{}, len(row))
		for j, v := range row {
			vals[j] = v
		}
		if err := f.SetSheetRow(sheet, cellRef, &vals); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}
