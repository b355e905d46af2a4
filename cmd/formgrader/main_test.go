package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/pavelanni/formgrader/internal/model"
	"github.com/pavelanni/formgrader/internal/tabular"
)

const responses = "ID;Nome e Cognome;Q1;Points - Q1;Feedback - Q1;Q2;Points - Q2;Empty\n" +
	"1;Anna Rossi;;0;;B;1;\n" +
	"2;Luca Bianchi;A;0;Rivedi;;;\n" +
	"3;;C;1;;B;1;\n"

func writeResponses(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "quiz.csv")
	require.NoError(t, os.WriteFile(path, []byte(responses), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := rootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.Execute()
	return out.String(), err
}

func TestScoreCommand(t *testing.T) {
	input := writeResponses(t)

	out, err := execute(t, "score", input)
	require.NoError(t, err)
	assert.Contains(t, out, "Anna Rossi")

	scored, err := tabular.Read(tabular.OutputPath(input, "_completed_with_grades", ""))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"ID", "Nome e Cognome",
		"Q1", "Points - Q1", "CALCOLO - Q1", "Feedback - Q1",
		"Q2", "Points - Q2", "CALCOLO - Q2",
		"Punteggio_Finale_Corretto", "Voto_su_10",
	}, scored.Columns)
	assert.Equal(t, []string{"1", "Anna Rossi", "", "0", "0", "", "B", "1", "1", "1", "5.00"}, scored.Rows[0])
	assert.Equal(t, []string{"2", "Luca Bianchi", "A", "0", "-0.25", "Rivedi", "", "", "0", "-0.25", "0.00"}, scored.Rows[1])
	assert.Equal(t, []string{"3", "", "C", "1", "1", "", "B", "1", "1", "2", "10.00"}, scored.Rows[2])
}

func TestScoreCommandRescoringIsStable(t *testing.T) {
	input := writeResponses(t)
	_, err := execute(t, "score", input)
	require.NoError(t, err)

	scoredPath := tabular.OutputPath(input, "_completed_with_grades", "")
	first, err := tabular.Read(scoredPath)
	require.NoError(t, err)

	_, err = execute(t, "score", scoredPath)
	require.NoError(t, err)
	second, err := tabular.Read(tabular.OutputPath(scoredPath, "_completed_with_grades", ""))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestScoreCommandErrors(t *testing.T) {
	_, err := execute(t, "score", filepath.Join(t.TempDir(), "missing.csv"))
	assert.True(t, errors.Is(err, model.ErrNotFound), "got %v", err)

	noQuestions := filepath.Join(t.TempDir(), "plain.csv")
	require.NoError(t, os.WriteFile(noQuestions, []byte("A;B\n1;2\n"), 0o600))
	_, err = execute(t, "score", noQuestions)
	assert.True(t, errors.Is(err, model.ErrNoQuestions), "got %v", err)

	_, err = execute(t, "score")
	assert.Error(t, err, "missing argument should fail")
}

func TestScoreHistory(t *testing.T) {
	input := writeResponses(t)
	db := filepath.Join(t.TempDir(), "history.db")

	_, err := execute(t, "score", "--db", db, input)
	require.NoError(t, err)

	out, err := execute(t, "history", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "quiz.csv")
	assert.Contains(t, out, "5.00")
}

func TestHistoryRunDetails(t *testing.T) {
	input := writeResponses(t)
	db := filepath.Join(t.TempDir(), "history.db")

	_, err := execute(t, "score", "--db", db, input)
	require.NoError(t, err)

	out, err := execute(t, "history", "--db", db, "--run", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Run 1: "+input)
	assert.Contains(t, out, "Luca Bianchi")
	assert.Contains(t, out, "-0.25")
	assert.Contains(t, out, "Respondent_3")
	assert.Contains(t, out, "10.00")

	_, err = execute(t, "history", "--db", db, "--run", "99")
	assert.ErrorContains(t, err, "run 99 not found")
}

func TestHistoryDatabaseFromEnv(t *testing.T) {
	input := writeResponses(t)
	db := filepath.Join(t.TempDir(), "history.db")
	_, err := execute(t, "score", "--db", db, input)
	require.NoError(t, err)

	t.Setenv("FORMGRADER_DB", db)
	out, err := execute(t, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "quiz.csv")

	t.Setenv("FORMGRADER_DB", "")
	_, err = execute(t, "history")
	assert.ErrorContains(t, err, "no database given")
}

func TestKeyCommand(t *testing.T) {
	input := writeResponses(t)

	_, err := execute(t, "key", input)
	require.NoError(t, err)

	key, err := tabular.Load(tabular.OutputPath(input, "_key", ".csv"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Domanda", "RispostaCorretta"}, key.Columns)
	assert.Equal(t, [][]string{{"Q1", "C"}, {"Q2", "B"}}, key.Rows)
}

func TestReportCommand(t *testing.T) {
	input := writeResponses(t)
	_, err := execute(t, "score", input)
	require.NoError(t, err)
	scored := tabular.OutputPath(input, "_completed_with_grades", "")

	keyPath := filepath.Join(t.TempDir(), "key.csv")
	require.NoError(t, os.WriteFile(keyPath, []byte("Domanda;RispostaCorretta\nQ1;C\n"), 0o600))

	outDir := filepath.Join(t.TempDir(), "reports")
	_, err = execute(t, "report", "-o", outDir, scored, keyPath)
	require.NoError(t, err)

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{
		"Report - Anna Rossi.html",
		"Report - Luca Bianchi.html",
		"Report - Respondent_3.html",
	}, names)

	luca, err := os.ReadFile(filepath.Join(outDir, "Report - Luca Bianchi.html"))
	require.NoError(t, err)
	assert.Contains(t, string(luca), "<b>Correct answer:</b> C")
	assert.Contains(t, string(luca), "<b>Final grade (out of 10):</b> 0.00")
}

func TestReportCommandBadKeyStillRuns(t *testing.T) {
	input := writeResponses(t)
	outDir := filepath.Join(t.TempDir(), "reports")

	_, err := execute(t, "report", "--output-dir", outDir, "--lang", "it", input, filepath.Join(t.TempDir(), "nokey.csv"))
	require.NoError(t, err)

	anna, err := os.ReadFile(filepath.Join(outDir, "Report - Anna Rossi.html"))
	require.NoError(t, err)
	assert.Contains(t, string(anna), "Nessuna risposta")
	assert.NotContains(t, string(anna), "Risposta corretta")
}

func TestExportCommandYAML(t *testing.T) {
	input := writeResponses(t)
	outPath := filepath.Join(t.TempDir(), "export.yaml")

	_, err := execute(t, "export", "--format", "yaml", "-o", outPath, input)
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var export model.ScoreExport
	require.NoError(t, yaml.Unmarshal(data, &export))
	assert.Equal(t, []string{"Q1", "Q2"}, export.Questions)
	require.Len(t, export.Results, 3)
	assert.Equal(t, "Luca Bianchi", export.Results[1].Name)
	assert.Equal(t, -0.25, export.Results[1].FinalScore)
}

func TestExportCommandJSONToStdout(t *testing.T) {
	out, err := execute(t, "export", writeResponses(t))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "{"), "expected JSON object, got %q", out)
	assert.Contains(t, out, `"grade": 10`)
}

func TestExportCommandBadFormat(t *testing.T) {
	_, err := execute(t, "export", "--format", "xml", writeResponses(t))
	assert.Error(t, err)
}
