package model

// Conventions holds the column names and prefixes shared by every command.
// The scorer, key builder and report generator only compose through these.
type Conventions struct {
	PointsPrefix      string // prepended to a question name by the survey tool
	FeedbackPrefix    string
	ScorePrefix       string // derived score columns written by the scorer
	FinalColumn       string
	GradeColumn       string
	NameColumn        string // respondent name, used for report titles and file names
	KeyQuestionColumn string
	KeyAnswerColumn   string
	ScoredSuffix      string
	KeySuffix         string
	ReportDir         string
}

// DefaultConventions returns the naming used by Microsoft Forms exports and by
// files previously produced with these tools.
func DefaultConventions() Conventions {
	return Conventions{
		PointsPrefix:      "Points - ",
		FeedbackPrefix:    "Feedback - ",
		ScorePrefix:       "CALCOLO - ",
		FinalColumn:       "Punteggio_Finale_Corretto",
		GradeColumn:       "Voto_su_10",
		NameColumn:        "Nome e Cognome",
		KeyQuestionColumn: "Domanda",
		KeyAnswerColumn:   "RispostaCorretta",
		ScoredSuffix:      "_completed_with_grades",
		KeySuffix:         "_key",
		ReportDir:         "Student_Reports_Final",
	}
}

// PointsColumn returns the expected points column name for a question.
func (c Conventions) PointsColumn(question string) string {
	return c.PointsPrefix + question
}

// FeedbackColumn returns the expected feedback column name for a question.
func (c Conventions) FeedbackColumn(question string) string {
	return c.FeedbackPrefix + question
}

// ScoreColumn returns the derived score column name for a question.
func (c Conventions) ScoreColumn(question string) string {
	return c.ScorePrefix + question
}
