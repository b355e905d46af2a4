package model

import "time"

// QuestionGroup is a question column together with its adjacent points column
// and, when present, the feedback column that follows.
type QuestionGroup struct {
	Question      string
	QuestionIndex int
	PointsIndex   int
	FeedbackIndex int // -1 when the group has no feedback column
}

// HasFeedback reports whether the group carries a feedback column.
func (g QuestionGroup) HasFeedback() bool {
	return g.FeedbackIndex >= 0
}

// Outcome classifies a single scored answer.
type Outcome string

const (
	OutcomeCorrect   Outcome = "correct"
	OutcomeIncorrect Outcome = "incorrect"
	OutcomeBlank     Outcome = "blank"
	// OutcomeUngraded is a non-blank answer whose points value was neither 1 nor 0.
	OutcomeUngraded Outcome = "ungraded"
)

// QuestionScore is the derived score of one answer.
type QuestionScore struct {
	Question string  `json:"question" yaml:"question"`
	Answer   string  `json:"answer" yaml:"answer"`
	Score    float64 `json:"score" yaml:"score"`
	Outcome  Outcome `json:"outcome" yaml:"outcome"`
}

// RespondentResult is one respondent's scored row.
type RespondentResult struct {
	Row        int             `json:"row" yaml:"row"`
	Name       string          `json:"name" yaml:"name"`
	FinalScore float64         `json:"final_score" yaml:"final_score"`
	Grade      float64         `json:"grade" yaml:"grade"`
	Questions  []QuestionScore `json:"questions,omitempty" yaml:"questions,omitempty"`
}

// KeyEntry is one inferred answer key row.
type KeyEntry struct {
	Question string
	Answer   string
	Found    bool
	Row      int // row the answer was taken from; -1 when not found
}

// AnswerKey maps a question to its accepted correct answer text.
type AnswerKey map[string]string

// ScoreRun describes one scorer invocation, as recorded in the history store.
type ScoreRun struct {
	ID          int64
	SourceFile  string
	OutputFile  string
	Questions   int
	Respondents int
	CreatedAt   time.Time
	Results     []RespondentResult
}

// RunSummary aggregates a recorded run for listings.
type RunSummary struct {
	ScoreRun
	MeanGrade float64
}
