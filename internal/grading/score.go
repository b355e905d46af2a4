package grading

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pavelanni/formgrader/internal/model"
)

// Derived score values.
const (
	ScoreCorrect   = 1.0
	ScoreIncorrect = -0.25
	ScoreNone      = 0.0
)

// IsBlank reports whether an answer counts as not given.
func IsBlank(answer string) bool {
	return strings.TrimSpace(answer) == ""
}

// ParsePoints converts a points cell to a number. ok is false for empty or
// non-numeric cells.
func ParsePoints(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// ScoreAnswer derives the corrected score of one answer. A blank answer scores
// 0 whatever its points say. Otherwise 1 point scores 1, 0 points scores
// -0.25, and any other or missing points value scores 0.
func ScoreAnswer(answer, points string) float64 {
	if IsBlank(answer) {
		return ScoreNone
	}
	p, ok := ParsePoints(points)
	switch {
	case ok && p == 1:
		return ScoreCorrect
	case ok && p == 0:
		return ScoreIncorrect
	default:
		return ScoreNone
	}
}

// Classify maps an answer and its derived score to an outcome.
func Classify(answer string, score float64) model.Outcome {
	switch {
	case IsBlank(answer):
		return model.OutcomeBlank
	case score >= ScoreCorrect:
		return model.OutcomeCorrect
	case score < 0:
		return model.OutcomeIncorrect
	default:
		return model.OutcomeUngraded
	}
}

// Grade converts a final score to a 0-10 grade rounded to two decimals.
// Negative totals are floored at 0 and halves round to even, so 0.625
// becomes 0.62. ok is false when questions is 0.
func Grade(final float64, questions int) (float64, bool) {
	if questions <= 0 {
		return 0, false
	}
	g := math.Max(final, 0) / float64(questions) * 10
	return math.RoundToEven(g*100) / 100, true
}

// FormatScore renders a derived or final score for output tables.
func FormatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatGrade renders a grade with two decimals.
func FormatGrade(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// RespondentName returns the respondent's name, or a positional identifier
// when the name column is missing or blank.
func RespondentName(t *model.Table, row int, conv model.Conventions) string {
	if name, ok := t.Value(row, conv.NameColumn); ok {
		if name = strings.TrimSpace(name); name != "" {
			return name
		}
	}
	return fmt.Sprintf("Respondent_%d", row+1)
}

// ScoreResult is the outcome of scoring a table.
type ScoreResult struct {
	Table   *model.Table // input columns plus derived and summary columns
	Groups  []model.QuestionGroup
	Results []model.RespondentResult
}

// ScoreTable derives a score column for every question group, inserted right
// after the group's points column, and appends the final score and grade
// columns. Derived and summary columns already present in t are replaced, so
// scoring a scored table yields the same columns again.
func ScoreTable(t *model.Table, conv model.Conventions) (*ScoreResult, error) {
	in := stripDerived(t, conv)
	groups := PairColumns(in.Columns, conv)
	if len(groups) == 0 {
		return nil, fmt.Errorf("%w (check the %q prefix)", model.ErrNoQuestions, conv.PointsPrefix)
	}

	derivedAfter := make(map[int]int, len(groups))
	for gi, g := range groups {
		derivedAfter[g.PointsIndex] = gi
	}

	out := &model.Table{Columns: make([]string, 0, len(in.Columns)+len(groups)+2)}
	for col, name := range in.Columns {
		out.Columns = append(out.Columns, name)
		if gi, ok := derivedAfter[col]; ok {
			out.Columns = append(out.Columns, conv.ScoreColumn(groups[gi].Question))
		}
	}
	out.Columns = append(out.Columns, conv.FinalColumn, conv.GradeColumn)

	results := make([]model.RespondentResult, in.NumRows())
	out.Rows = make([][]string, in.NumRows())
	for row := range in.Rows {
		res := model.RespondentResult{
			Row:       row,
			Name:      RespondentName(in, row, conv),
			Questions: make([]model.QuestionScore, len(groups)),
		}
		for gi, g := range groups {
			answer := in.Cell(row, g.QuestionIndex)
			s := ScoreAnswer(answer, in.Cell(row, g.PointsIndex))
			res.FinalScore += s
			res.Questions[gi] = model.QuestionScore{
				Question: g.Question,
				Answer:   answer,
				Score:    s,
				Outcome:  Classify(answer, s),
			}
		}
		res.Grade, _ = Grade(res.FinalScore, len(groups))

		cells := make([]string, 0, len(out.Columns))
		for col := range in.Columns {
			cells = append(cells, in.Cell(row, col))
			if gi, ok := derivedAfter[col]; ok {
				cells = append(cells, FormatScore(res.Questions[gi].Score))
			}
		}
		cells = append(cells, FormatScore(res.FinalScore), FormatGrade(res.Grade))

		out.Rows[row] = cells
		results[row] = res
	}

	return &ScoreResult{Table: out, Groups: groups, Results: results}, nil
}

func stripDerived(t *model.Table, conv model.Conventions) *model.Table {
	var keep []int
	for col, name := range t.Columns {
		if isDerivedColumn(name, conv) {
			continue
		}
		keep = append(keep, col)
	}
	if len(keep) == len(t.Columns) {
		return t
	}
	return t.Select(keep)
}

func isDerivedColumn(name string, conv model.Conventions) bool {
	return (conv.ScorePrefix != "" && strings.HasPrefix(name, conv.ScorePrefix)) ||
		name == conv.FinalColumn ||
		name == conv.GradeColumn
}
