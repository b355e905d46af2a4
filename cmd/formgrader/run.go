package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pavelanni/formgrader/internal/grading"
	"github.com/pavelanni/formgrader/internal/handler"
	"github.com/pavelanni/formgrader/internal/i18n"
	"github.com/pavelanni/formgrader/internal/model"
	"github.com/pavelanni/formgrader/internal/report"
	"github.com/pavelanni/formgrader/internal/store"
	"github.com/pavelanni/formgrader/internal/tabular"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

func runScore(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	conv := conventionsFromViper(v)
	input := args[0]

	slog.Info("reading responses", "path", input)
	t, err := tabular.Read(input)
	if err != nil {
		return err
	}

	res, err := grading.ScoreTable(t, conv)
	if err != nil {
		return err
	}
	for _, g := range res.Groups {
		slog.Debug("scored question", "question", g.Question, "feedback", g.HasFeedback())
	}
	slog.Info("scored responses", "questions", len(res.Groups), "respondents", len(res.Results))

	output := tabular.OutputPath(input, conv.ScoredSuffix, "")
	if err := tabular.Write(output, res.Table); err != nil {
		return fmt.Errorf("write scores: %w", err)
	}

	printResults(cmd.OutOrStdout(), res.Results)

	if dbPath := v.GetString("db"); dbPath != "" {
		if err := recordRun(dbPath, input, output, res); err != nil {
			return fmt.Errorf("record run: %w", err)
		}
	}

	color.Green("Scores saved to %s", output)
	return nil
}

func recordRun(dbPath, input, output string, res *grading.ScoreResult) error {
	db, err := store.New(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	id, err := db.RecordRun(model.ScoreRun{
		SourceFile:  input,
		OutputFile:  output,
		Questions:   len(res.Groups),
		Respondents: len(res.Results),
		CreatedAt:   time.Now(),
		Results:     res.Results,
	})
	if err != nil {
		return err
	}
	slog.Info("recorded run", "db", dbPath, "run_id", id)
	return nil
}

func printResults(w io.Writer, results []model.RespondentResult) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Respondent", "Score", "Grade"})
	for _, r := range results {
		table.Append([]string{
			strconv.Itoa(r.Row + 1),
			r.Name,
			grading.FormatScore(r.FinalScore),
			grading.FormatGrade(r.Grade),
		})
	}
	table.Render()
}

func runKey(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	conv := conventionsFromViper(v)
	input := args[0]

	slog.Info("reading responses", "path", input)
	t, err := tabular.Read(input)
	if err != nil {
		return err
	}

	groups := grading.PairColumns(t.Columns, conv)
	if len(groups) == 0 {
		return fmt.Errorf("%w (check the %q prefix)", model.ErrNoQuestions, conv.PointsPrefix)
	}

	entries := grading.InferKey(t, groups)
	found := 0
	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"Question", "Answer", "From row"})
	for _, e := range entries {
		from := "-"
		if e.Found {
			found++
			from = strconv.Itoa(e.Row + 1)
		} else {
			slog.Warn("no correct answer found", "question", e.Question)
		}
		table.Append([]string{e.Question, e.Answer, from})
	}
	table.Render()

	output := tabular.OutputPath(input, conv.KeySuffix, ".csv")
	if err := tabular.Write(output, grading.KeyTable(entries, conv)); err != nil {
		return fmt.Errorf("write key: %w", err)
	}

	color.Green("Key saved to %s (%d of %d answers filled)", output, found, len(entries))
	if found < len(entries) {
		color.Yellow("Fill in the blank %s cells by hand before using the key.", conv.KeyAnswerColumn)
	}
	return nil
}

// loadOptionalKey loads the answer key at path. Any failure is logged and
// yields a nil key, so callers carry on without correct answers.
func loadOptionalKey(path string, conv model.Conventions) model.AnswerKey {
	if path == "" {
		slog.Info("no answer key given, correct answers will not be shown")
		return nil
	}
	key, err := grading.LoadKey(path, conv)
	if err != nil {
		slog.Warn("answer key not loaded, continuing without correct answers", "path", path, "error", err)
		return nil
	}
	slog.Info("loaded answer key", "path", path, "answers", len(key))
	return key
}

func optionalArg(args []string, i int) string {
	if len(args) > i {
		return args[i]
	}
	return ""
}

func loadResponses(input string, conv model.Conventions) (*model.Table, []model.QuestionGroup, error) {
	slog.Info("reading responses", "path", input)
	t, err := tabular.Read(input)
	if err != nil {
		return nil, nil, err
	}
	groups := grading.PairColumns(t.Columns, conv)
	if len(groups) == 0 {
		return nil, nil, fmt.Errorf("%w (check the %q prefix)", model.ErrNoQuestions, conv.PointsPrefix)
	}
	slog.Info("found questions", "count", len(groups))
	return t, groups, nil
}

func runReport(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	conv := conventionsFromViper(v)

	key := loadOptionalKey(optionalArg(args, 1), conv)
	t, groups, err := loadResponses(args[0], conv)
	if err != nil {
		return err
	}

	lang := v.GetString("lang")
	if err := i18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}
	ctx := i18n.WithLocalizer(cmd.Context(), i18n.NewLocalizer(lang))

	dir := v.GetString("output-dir")
	if dir == "" {
		dir = conv.ReportDir
	}
	gen := &report.Generator{Dir: dir, Conv: conv}
	sum, err := gen.Run(ctx, t, groups, key)
	if err != nil {
		return err
	}

	color.Green("%d reports written to %s", len(sum.Written), dir)
	if sum.Failed > 0 {
		color.Red("%d reports failed, see the log above", sum.Failed)
	}
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	conv := conventionsFromViper(v)

	format := v.GetString("format")
	if format != formatJSON && format != formatYAML {
		return fmt.Errorf("unsupported format %q (json, yaml)", format)
	}

	t, err := tabular.Read(args[0])
	if err != nil {
		return err
	}
	res, err := grading.ScoreTable(t, conv)
	if err != nil {
		return err
	}

	export := model.ScoreExport{
		SourceFile:  args[0],
		GeneratedAt: time.Now().UTC(),
		Questions:   grading.Questions(res.Groups),
		Results:     res.Results,
	}

	var data []byte
	if format == formatYAML {
		data, err = yaml.Marshal(export)
	} else {
		data, err = json.MarshalIndent(export, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal %s: %w", format, err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = cmd.OutOrStdout()
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if format == formatJSON {
		_, _ = fmt.Fprintln(w)
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	conv := conventionsFromViper(v)

	key := loadOptionalKey(optionalArg(args, 1), conv)
	t, groups, err := loadResponses(args[0], conv)
	if err != nil {
		return err
	}

	lang := v.GetString("lang")
	if err := i18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	h, err := handler.New(t, groups, key, conv)
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(i18n.Middleware(lang))
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server", "addr", addr, "respondents", t.NumRows(), "questions", len(groups), "lang", lang)
	err = http.ListenAndServe(addr, r)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func runHistory(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	dbPath := v.GetString("db")
	if dbPath == "" {
		return errors.New("no database given (use --db or FORMGRADER_DB)")
	}
	db, err := store.New(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if id := v.GetInt64("run"); id > 0 {
		return printRun(cmd.OutOrStdout(), db, id)
	}

	runs, err := db.ListRuns(v.GetInt("limit"))
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		color.Yellow("No runs recorded yet.")
		return nil
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"Run", "When", "Source", "Questions", "Respondents", "Mean grade"})
	for _, r := range runs {
		table.Append([]string{
			strconv.FormatInt(r.ID, 10),
			r.CreatedAt.Local().Format(historyTimeLayout),
			r.SourceFile,
			strconv.Itoa(r.Questions),
			strconv.Itoa(r.Respondents),
			grading.FormatGrade(r.MeanGrade),
		})
	}
	table.Render()
	return nil
}

const historyTimeLayout = "2006-01-02 15:04"

func printRun(w io.Writer, db *store.Store, id int64) error {
	run, err := db.GetRun(id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("run %d not found", id)
	}
	if err != nil {
		return fmt.Errorf("get run %d: %w", id, err)
	}

	fmt.Fprintf(w, "Run %d: %s -> %s (%s)\n", run.ID, run.SourceFile, run.OutputFile,
		run.CreatedAt.Local().Format(historyTimeLayout))
	printResults(w, run.Results)
	return nil
}
