package grading

import (
	"fmt"
	"strings"

	"github.com/pavelanni/formgrader/internal/model"
	"github.com/pavelanni/formgrader/internal/tabular"
)

// InferKey returns one entry per group holding the answer of the first
// respondent, in row order, whose points value is exactly 1. Entries for
// questions nobody answered correctly are blank with Found unset.
func InferKey(t *model.Table, groups []model.QuestionGroup) []model.KeyEntry {
	entries := make([]model.KeyEntry, len(groups))
	for i, g := range groups {
		e := model.KeyEntry{Question: g.Question, Row: -1}
		for row := range t.Rows {
			p, ok := ParsePoints(t.Cell(row, g.PointsIndex))
			if !ok || p != 1 {
				continue
			}
			e.Answer = t.Cell(row, g.QuestionIndex)
			e.Row = row
			e.Found = true
			break
		}
		entries[i] = e
	}
	return entries
}

// KeyTable lays out entries as a two-column answer key table.
func KeyTable(entries []model.KeyEntry, conv model.Conventions) *model.Table {
	t := &model.Table{Columns: []string{conv.KeyQuestionColumn, conv.KeyAnswerColumn}}
	for _, e := range entries {
		t.Rows = append(t.Rows, []string{e.Question, e.Answer})
	}
	return t
}

// LoadKey reads an answer key file. Questions with a blank answer are left
// out. It returns model.ErrKeyColumns when either key column is missing.
func LoadKey(path string, conv model.Conventions) (model.AnswerKey, error) {
	t, err := tabular.Load(path)
	if err != nil {
		return nil, err
	}
	return KeyFromTable(t, conv)
}

// KeyFromTable builds an answer key from an already loaded key table.
func KeyFromTable(t *model.Table, conv model.Conventions) (model.AnswerKey, error) {
	qCol := t.Index(conv.KeyQuestionColumn)
	aCol := t.Index(conv.KeyAnswerColumn)
	if qCol < 0 || aCol < 0 {
		return nil, fmt.Errorf("%w: need %q and %q", model.ErrKeyColumns,
			conv.KeyQuestionColumn, conv.KeyAnswerColumn)
	}

	key := make(model.AnswerKey, t.NumRows())
	for row := range t.Rows {
		q := t.Cell(row, qCol)
		a := t.Cell(row, aCol)
		if q == "" || strings.TrimSpace(a) == "" {
			continue
		}
		key[q] = a
	}
	return key, nil
}
