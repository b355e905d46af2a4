// Package grading pairs question columns with their points columns, derives
// corrected scores and grades, and infers an answer key from scored responses.
package grading

import "github.com/pavelanni/formgrader/internal/model"

// PairColumns scans columns left to right and returns the question groups in
// column order. A column starts a group only when the very next column is its
// points column; a feedback column directly after the points column joins the
// group. Points columns anywhere else are not recognized.
func PairColumns(columns []string, conv model.Conventions) []model.QuestionGroup {
	var groups []model.QuestionGroup
	n := len(columns)
	i := 0
	for i < n {
		name := columns[i]
		if i+1 >= n || columns[i+1] != conv.PointsColumn(name) {
			i++
			continue
		}

		g := model.QuestionGroup{
			Question:      name,
			QuestionIndex: i,
			PointsIndex:   i + 1,
			FeedbackIndex: -1,
		}
		if i+2 < n && columns[i+2] == conv.FeedbackColumn(name) {
			g.FeedbackIndex = i + 2
			i += 3
		} else {
			i += 2
		}
		groups = append(groups, g)
	}
	return groups
}

// Questions returns the question names of groups.
func Questions(groups []model.QuestionGroup) []string {
	out := make([]string, len(groups))
	for i, g := range groups {
		out[i] = g.Question
	}
	return out
}
