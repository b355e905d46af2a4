package model

import "time"

// ScoreExport is the top-level structure written by the export command.
type ScoreExport struct {
	SourceFile  string             `json:"source_file" yaml:"source_file"`
	GeneratedAt time.Time          `json:"generated_at" yaml:"generated_at"`
	Questions   []string           `json:"questions" yaml:"questions"`
	Results     []RespondentResult `json:"results" yaml:"results"`
}
