package tabular

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelanni/formgrader/internal/model"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestReadUTF8WithBOM(t *testing.T) {
	path := writeFile(t, "in.csv", []byte("\ufeffNome;Q1;Points - Q1\nAnna;perché;1\n"))

	tbl, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Nome", "Q1", "Points - Q1"}, tbl.Columns)
	require.Equal(t, 1, tbl.NumRows())
	assert.Equal(t, "perché", tbl.Cell(0, 1))
}

func TestReadLatin1Fallback(t *testing.T) {
	// "perché" in ISO-8859-1: é is a single 0xE9 byte.
	data := []byte("Q1;Points - Q1\nperch\xe9;1\n")
	path := writeFile(t, "latin.csv", data)

	tbl, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, "perché", tbl.Cell(0, 0))
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestReadEmptyFile(t *testing.T) {
	path := writeFile(t, "empty.csv", nil)
	_, err := Read(path)
	assert.ErrorIs(t, err, model.ErrEmptyTable)
}

func TestReadDropsEmptyColumns(t *testing.T) {
	path := writeFile(t, "in.csv", []byte("A;Empty;B\n1;;x\n2;;\n"))

	tbl, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, tbl.Columns)
	assert.Equal(t, [][]string{{"1", "x"}, {"2", ""}}, tbl.Rows)
}

func TestParsePadsShortRows(t *testing.T) {
	tbl, err := Parse(strings.NewReader("A;B;C\n1\n"))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"1", "", ""}}, tbl.Rows)
}

func TestParseQuotedDelimiter(t *testing.T) {
	tbl, err := Parse(strings.NewReader("Q;Points - Q\n\"a; b\";1\n"))
	require.NoError(t, err)
	assert.Equal(t, "a; b", tbl.Cell(0, 0))
}

func TestEncodeWritesBOM(t *testing.T) {
	var buf bytes.Buffer
	err := Encode(&buf, &model.Table{
		Columns: []string{"Q", "Score"},
		Rows:    [][]string{{"a;b", "1"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "\ufeffQ;Score\n\"a;b\";1\n", buf.String())
}

func TestWriteThenRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")
	in := &model.Table{
		Columns: []string{"Domanda", "RispostaCorretta"},
		Rows:    [][]string{{"Capitale d'Italia?", "Roma"}, {"2+2", "4"}},
	}
	require.NoError(t, Write(path, in))

	out, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, in.Columns, out.Columns)
	assert.Equal(t, in.Rows, out.Rows)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file should be gone")
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		path, suffix, ext, want string
	}{
		{"results.csv", "_completed_with_grades", "", "results_completed_with_grades.csv"},
		{"dir/quiz.txt", "_key", ".csv", "dir/quiz_key.csv"},
		{"noext", "_key", ".csv", "noext_key.csv"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, OutputPath(tt.path, tt.suffix, tt.ext))
		})
	}
}

func TestLoadKeepsEmptyColumns(t *testing.T) {
	path := writeFile(t, "key.csv", []byte("Domanda;RispostaCorretta\nQ1;\n"))

	tbl, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Domanda", "RispostaCorretta"}, tbl.Columns)
}
