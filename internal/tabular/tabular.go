// Package tabular reads and writes the semicolon-delimited tables exported by
// survey tools and produced by formgrader itself.
package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/pavelanni/formgrader/internal/model"
)

// Delimiter separates fields in every table formgrader reads or writes.
const Delimiter = ';'

// Read loads a table from path and drops columns that are empty in every
// row. See Load for the decoding rules.
func Read(path string) (*model.Table, error) {
	t, err := Load(path)
	if err != nil {
		return nil, err
	}
	before := len(t.Columns)
	t = DropEmptyColumns(t)
	slog.Debug("read table", "path", path, "rows", t.NumRows(),
		"columns_before", before, "columns_after", len(t.Columns))
	return t, nil
}

// Load reads a table from path as is. UTF-8 (with or without BOM) is tried
// first; input that is not valid UTF-8 is decoded as ISO-8859-1.
func Load(path string) (*model.Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", model.ErrNotFound, path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	text, err := decode(raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	t, err := Parse(bytes.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return t, nil
}

func decode(raw []byte) ([]byte, error) {
	if utf8.Valid(raw) {
		return unicode.UTF8BOM.NewDecoder().Bytes(raw)
	}
	slog.Warn("input is not valid UTF-8, decoding as latin-1")
	return charmap.ISO8859_1.NewDecoder().Bytes(raw)
}

// Parse reads a delimited table from r. The first record is the header.
// Rows shorter than the header are padded with empty cells.
func Parse(r io.Reader) (*model.Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = Delimiter
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, model.ErrEmptyTable
	}

	t := &model.Table{Columns: records[0]}
	for _, rec := range records[1:] {
		if isEmptyRecord(rec) {
			continue
		}
		row := make([]string, len(t.Columns))
		copy(row, rec)
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func isEmptyRecord(rec []string) bool {
	for _, v := range rec {
		if v != "" {
			return false
		}
	}
	return true
}

// DropEmptyColumns returns a copy of t without columns that hold no value in
// any row.
func DropEmptyColumns(t *model.Table) *model.Table {
	keep := make([]int, 0, len(t.Columns))
	for col := range t.Columns {
		for row := range t.Rows {
			if t.Cell(row, col) != "" {
				keep = append(keep, col)
				break
			}
		}
	}
	return t.Select(keep)
}

// Write stores t at path as UTF-8 with a byte order mark, which spreadsheet
// tools need to pick the right encoding. The file is written to a temporary
// name first and renamed into place.
func Write(path string, t *model.Table) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Encode(tmp, t); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename to %s: %w", path, err)
	}
	return nil
}

// Encode writes t to w as BOM-prefixed, semicolon-delimited UTF-8.
func Encode(w io.Writer, t *model.Table) error {
	tw := transform.NewWriter(w, unicode.UTF8BOM.NewEncoder())
	cw := csv.NewWriter(tw)
	cw.Comma = Delimiter

	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return tw.Close()
}

// OutputPath derives a sibling path for path: the extension is kept unless ext
// is non-empty, and suffix is inserted before it.
func OutputPath(path, suffix, ext string) string {
	orig := filepath.Ext(path)
	stem := path[:len(path)-len(orig)]
	if ext == "" {
		ext = orig
	}
	return stem + suffix + ext
}
