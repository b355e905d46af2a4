package report

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pavelanni/formgrader/internal/model"
)

const (
	dirMode  = 0o755
	fileMode = 0o644
)

// Generator writes one report file per respondent into Dir.
type Generator struct {
	Dir  string
	Conv model.Conventions
	Now  func() time.Time
}

// Summary tells what a Run produced.
type Summary struct {
	Written []string
	Failed  int
}

// Run renders a report for every row of t. A failing respondent is logged and
// skipped; only a failure to create the output directory aborts the batch.
func (g *Generator) Run(ctx context.Context, t *model.Table, groups []model.QuestionGroup,
	key model.AnswerKey) (Summary, error) {
	var sum Summary
	if err := os.MkdirAll(g.Dir, dirMode); err != nil {
		return sum, fmt.Errorf("create output dir %s: %w", g.Dir, err)
	}

	now := time.Now
	if g.Now != nil {
		now = g.Now
	}

	if !t.Has(g.Conv.NameColumn) {
		slog.Warn("name column not found, using positional identifiers", "column", g.Conv.NameColumn)
	}

	used := make(map[string]int)
	for row := range t.Rows {
		r := Build(t, row, groups, key, g.Conv, now())
		for _, q := range r.MissingKey {
			slog.Warn("no key entry for question", "respondent", r.Name, "question", q)
		}

		path := filepath.Join(g.Dir, uniqueName(used, FileName(r.Name)))
		if err := writeReport(ctx, path, r); err != nil {
			slog.Error("report failed", "respondent", r.Name, "error", err)
			sum.Failed++
			continue
		}
		slog.Info("report written", "respondent", r.Name, "path", path)
		sum.Written = append(sum.Written, path)
	}
	return sum, nil
}

// uniqueName appends " (n)" before the extension when name was already used in
// this run, so respondents sharing a name do not overwrite each other.
func uniqueName(used map[string]int, name string) string {
	key := strings.ToLower(name)
	used[key]++
	n := used[key]
	if n == 1 {
		return name
	}
	ext := filepath.Ext(name)
	return fmt.Sprintf("%s (%d)%s", strings.TrimSuffix(name, ext), n, ext)
}

func writeReport(ctx context.Context, path string, r Report) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, fileMode)
	if err != nil {
		return err
	}
	if err := Page(r).Render(ctx, f); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("render: %w", err)
	}
	return f.Close()
}
