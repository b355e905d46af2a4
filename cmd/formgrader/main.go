package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pavelanni/formgrader/internal/model"
)

//go:generate templ generate

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "formgrader",
		Short: "Score quiz exports, infer answer keys and write per-respondent reports",
	}
	root.AddCommand(scoreCmd(), keyCmd(), reportCmd(), exportCmd(), serveCmd(), historyCmd())
	return root
}

func scoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score <responses.csv>",
		Short: "Compute corrected scores and a grade out of 10 for every respondent",
		Args:  cobra.ExactArgs(1),
		RunE:  runScore,
	}
	f := cmd.Flags()
	f.String("db", "", "SQLite database to record the run in (disabled when empty)")
	addLogFlags(f)
	return cmd
}

func keyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key <responses.csv>",
		Short: "Build an answer key from the first correct answer to each question",
		Args:  cobra.ExactArgs(1),
		RunE:  runKey,
	}
	addLogFlags(cmd.Flags())
	return cmd
}

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report <responses.csv> [key.csv]",
		Short: "Write one HTML report per respondent",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runReport,
	}
	f := cmd.Flags()
	f.StringP("output-dir", "o", "", "Directory for the reports (defaults to the report-dir convention)")
	f.StringP("lang", "l", "en", "Report language (en, it)")
	addLogFlags(f)
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <responses.csv>",
		Short: "Print scored results as JSON or YAML",
		Args:  cobra.ExactArgs(1),
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("format", formatJSON, "Output format (json, yaml)")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	addLogFlags(f)
	return cmd
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve <responses.csv> [key.csv]",
		Short: "Browse respondent reports over HTTP",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.StringP("lang", "l", "en", "Default report language (en, it)")
	addLogFlags(f)
	return cmd
}

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List scoring runs recorded with score --db",
		Args:  cobra.NoArgs,
		RunE:  runHistory,
	}
	f := cmd.Flags()
	f.String("db", "", "SQLite database path")
	f.IntP("limit", "n", 20, "Maximum number of runs to list (0 = all)")
	f.Int64("run", 0, "Show the per-respondent results of one run")
	addLogFlags(f)
	return cmd
}

func addLogFlags(f *pflag.FlagSet) {
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(cmd.ErrOrStderr(), handlerOpts)
	default:
		logHandler = slog.NewTextHandler(cmd.ErrOrStderr(), handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags, a .env file and the environment to a
// fresh viper instance, with the naming conventions as defaults.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("error reading .env file", "error", err)
	}

	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	def := model.DefaultConventions()
	v.SetDefault("points-prefix", def.PointsPrefix)
	v.SetDefault("feedback-prefix", def.FeedbackPrefix)
	v.SetDefault("score-prefix", def.ScorePrefix)
	v.SetDefault("final-column", def.FinalColumn)
	v.SetDefault("grade-column", def.GradeColumn)
	v.SetDefault("name-column", def.NameColumn)
	v.SetDefault("key-question-column", def.KeyQuestionColumn)
	v.SetDefault("key-answer-column", def.KeyAnswerColumn)
	v.SetDefault("scored-suffix", def.ScoredSuffix)
	v.SetDefault("key-suffix", def.KeySuffix)
	v.SetDefault("report-dir", def.ReportDir)

	v.SetEnvPrefix("FORMGRADER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("formgrader")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/formgrader")
	v.AddConfigPath("/etc/formgrader")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func conventionsFromViper(v *viper.Viper) model.Conventions {
	return model.Conventions{
		PointsPrefix:      v.GetString("points-prefix"),
		FeedbackPrefix:    v.GetString("feedback-prefix"),
		ScorePrefix:       v.GetString("score-prefix"),
		FinalColumn:       v.GetString("final-column"),
		GradeColumn:       v.GetString("grade-column"),
		NameColumn:        v.GetString("name-column"),
		KeyQuestionColumn: v.GetString("key-question-column"),
		KeyAnswerColumn:   v.GetString("key-answer-column"),
		ScoredSuffix:      v.GetString("scored-suffix"),
		KeySuffix:         v.GetString("key-suffix"),
		ReportDir:         v.GetString("report-dir"),
	}
}
