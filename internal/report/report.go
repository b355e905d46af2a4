// Package report builds and renders one summary document per respondent.
package report

import (
	"time"

	"github.com/pavelanni/formgrader/internal/grading"
	"github.com/pavelanni/formgrader/internal/model"
)

// DateLayout formats the generation timestamp in report headers.
const DateLayout = "2006-01-02 15:04"

// Report is the view model of one respondent's document.
type Report struct {
	Row         int
	Name        string
	GeneratedAt time.Time
	HasSummary  bool
	FinalScore  string
	Grade       string
	Items       []Item
	// MissingKey lists incorrectly answered questions the answer key has no entry for.
	MissingKey []string
}

// Item is one question block.
type Item struct {
	Question      string
	Answer        string
	Answered      bool
	Score         float64
	Outcome       model.Outcome
	CorrectAnswer string
}

// Build assembles the report of one row. Scores come from the derived score
// columns when the table has them and are computed from the points columns
// otherwise. A correct answer is attached only to incorrect answers, and only
// when key has an entry for the question.
func Build(t *model.Table, row int, groups []model.QuestionGroup, key model.AnswerKey,
	conv model.Conventions, now time.Time) Report {
	r := Report{
		Row:         row,
		Name:        grading.RespondentName(t, row, conv),
		GeneratedAt: now,
		Items:       make([]Item, 0, len(groups)),
	}

	if final, ok := t.Value(row, conv.FinalColumn); ok {
		r.HasSummary = true
		r.FinalScore = final
		r.Grade = "N/A"
		if g, ok := t.Value(row, conv.GradeColumn); ok && g != "" {
			r.Grade = g
		}
	}

	for _, g := range groups {
		answer := t.Cell(row, g.QuestionIndex)
		score := derivedScore(t, row, g, conv)
		it := Item{
			Question: g.Question,
			Answer:   answer,
			Answered: !grading.IsBlank(answer),
			Score:    score,
			Outcome:  grading.Classify(answer, score),
		}
		if it.Outcome == model.OutcomeIncorrect && len(key) > 0 {
			if correct, ok := key[g.Question]; ok && correct != "" {
				it.CorrectAnswer = correct
			} else {
				r.MissingKey = append(r.MissingKey, g.Question)
			}
		}
		r.Items = append(r.Items, it)
	}
	return r
}

func derivedScore(t *model.Table, row int, g model.QuestionGroup, conv model.Conventions) float64 {
	if raw, ok := t.Value(row, conv.ScoreColumn(g.Question)); ok {
		if v, ok := grading.ParsePoints(raw); ok {
			return v
		}
	}
	return grading.ScoreAnswer(t.Cell(row, g.QuestionIndex), t.Cell(row, g.PointsIndex))
}
