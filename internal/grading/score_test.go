package grading

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelanni/formgrader/internal/model"
)

func TestScoreAnswer(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		points string
		want   float64
	}{
		{"blank with zero points", "", "0", 0},
		{"blank with full points", "", "1", 0},
		{"whitespace answer is blank", "   ", "1", 0},
		{"correct", "B", "1", 1},
		{"correct as float", "B", "1.0", 1},
		{"incorrect", "A", "0", -0.25},
		{"incorrect padded", "A", " 0 ", -0.25},
		{"missing points", "A", "", 0},
		{"unparseable points", "A", "n/a", 0},
		{"NaN points", "A", "NaN", 0},
		{"partial credit", "A", "0.5", 0},
		{"two points", "A", "2", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ScoreAnswer(tt.answer, tt.points))
		})
	}
}

func TestClassify(t *testing.T) {
	assert.Equal(t, model.OutcomeBlank, Classify("", 0))
	assert.Equal(t, model.OutcomeCorrect, Classify("B", 1))
	assert.Equal(t, model.OutcomeIncorrect, Classify("A", -0.25))
	assert.Equal(t, model.OutcomeUngraded, Classify("A", 0))
}

func TestGrade(t *testing.T) {
	tests := []struct {
		final     float64
		questions int
		want      float64
	}{
		{1, 2, 5},
		{-0.25, 2, 0},
		{-3, 4, 0},
		{0, 3, 0},
		{2, 3, 6.67},
		{2.75, 3, 9.17},
		{10, 10, 10},
		{0.25, 4, 0.62},
		{1.25, 4, 3.12},
		{0.75, 4, 1.88},
	}
	for _, tt := range tests {
		got, ok := Grade(tt.final, tt.questions)
		require.True(t, ok)
		assert.InDelta(t, tt.want, got, 1e-9, "Grade(%v, %d)", tt.final, tt.questions)
	}

	_, ok := Grade(1, 0)
	assert.False(t, ok, "grade is undefined without questions")
}

func TestGradeMonotonic(t *testing.T) {
	prev := -1.0
	for final := -2.0; final <= 8; final += 0.25 {
		g, _ := Grade(final, 8)
		assert.GreaterOrEqual(t, g, prev)
		if final <= 0 {
			assert.Equal(t, 0.0, g)
		}
		prev = g
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "-0.25", FormatScore(-0.25))
	assert.Equal(t, "1", FormatScore(1))
	assert.Equal(t, "0", FormatScore(0))
	assert.Equal(t, "5.00", FormatGrade(5))
	assert.Equal(t, "6.67", FormatGrade(6.67))
}

func scenarioTable() *model.Table {
	return &model.Table{
		Columns: []string{"Q1", "Points - Q1", "Q2", "Points - Q2"},
		Rows: [][]string{
			{"", "0", "B", "1"},
			{"A", "0", "", "NaN"},
		},
	}
}

func TestScoreTableScenarios(t *testing.T) {
	res, err := ScoreTable(scenarioTable(), model.DefaultConventions())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Q1", "Points - Q1", "CALCOLO - Q1",
		"Q2", "Points - Q2", "CALCOLO - Q2",
		"Punteggio_Finale_Corretto", "Voto_su_10",
	}, res.Table.Columns)

	assert.Equal(t, []string{"", "0", "0", "B", "1", "1", "1", "5.00"}, res.Table.Rows[0])
	assert.Equal(t, []string{"A", "0", "-0.25", "", "NaN", "0", "-0.25", "0.00"}, res.Table.Rows[1])

	require.Len(t, res.Results, 2)
	assert.Equal(t, 1.0, res.Results[0].FinalScore)
	assert.Equal(t, 5.0, res.Results[0].Grade)
	assert.Equal(t, -0.25, res.Results[1].FinalScore)
	assert.Equal(t, 0.0, res.Results[1].Grade)
	assert.Equal(t, model.OutcomeIncorrect, res.Results[1].Questions[0].Outcome)
	assert.Equal(t, model.OutcomeBlank, res.Results[1].Questions[1].Outcome)
}

func TestScoreTableGradeTiesRoundToEven(t *testing.T) {
	tbl := &model.Table{
		Columns: []string{"Q1", "Points - Q1", "Q2", "Points - Q2", "Q3", "Points - Q3", "Q4", "Points - Q4"},
		Rows:    [][]string{{"a", "1", "b", "0", "c", "0", "d", "0"}},
	}

	res, err := ScoreTable(tbl, model.DefaultConventions())
	require.NoError(t, err)
	assert.Equal(t, 0.25, res.Results[0].FinalScore)
	assert.Equal(t, 0.62, res.Results[0].Grade)

	grade, ok := res.Table.Value(0, "Voto_su_10")
	require.True(t, ok)
	assert.Equal(t, "0.62", grade)
}

func TestScoreTableKeepsFeedbackAndOtherColumns(t *testing.T) {
	tbl := &model.Table{
		Columns: []string{"ID", "Nome e Cognome", "Q1", "Points - Q1", "Feedback - Q1"},
		Rows:    [][]string{{"7", "Anna Rossi", "Roma", "1", "Bene"}},
	}

	res, err := ScoreTable(tbl, model.DefaultConventions())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"ID", "Nome e Cognome", "Q1", "Points - Q1", "CALCOLO - Q1", "Feedback - Q1",
		"Punteggio_Finale_Corretto", "Voto_su_10",
	}, res.Table.Columns)
	assert.Equal(t, []string{"7", "Anna Rossi", "Roma", "1", "1", "Bene", "1", "10.00"}, res.Table.Rows[0])
	assert.Equal(t, "Anna Rossi", res.Results[0].Name)
}

func TestScoreTableIdempotent(t *testing.T) {
	conv := model.DefaultConventions()
	first, err := ScoreTable(scenarioTable(), conv)
	require.NoError(t, err)

	second, err := ScoreTable(first.Table, conv)
	require.NoError(t, err)
	assert.Equal(t, first.Table, second.Table)
}

func TestScoreTableNoQuestions(t *testing.T) {
	tbl := &model.Table{Columns: []string{"ID", "Q1"}, Rows: [][]string{{"1", "A"}}}
	_, err := ScoreTable(tbl, model.DefaultConventions())
	assert.True(t, errors.Is(err, model.ErrNoQuestions))
	assert.Contains(t, err.Error(), "Points - ")
}

func TestRespondentName(t *testing.T) {
	conv := model.DefaultConventions()
	tbl := &model.Table{
		Columns: []string{"Nome e Cognome"},
		Rows:    [][]string{{" Luca "}, {""}},
	}
	assert.Equal(t, "Luca", RespondentName(tbl, 0, conv))
	assert.Equal(t, "Respondent_2", RespondentName(tbl, 1, conv))

	noName := &model.Table{Columns: []string{"Q1"}, Rows: [][]string{{"A"}}}
	assert.Equal(t, "Respondent_1", RespondentName(noName, 0, conv))
}
