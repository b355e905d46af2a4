package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/formgrader/internal/model"
	"github.com/pavelanni/formgrader/internal/report"
)

type indexEntry struct {
	Row   int
	Name  string
	Score string
	Grade string
}

// Handler serves respondent reports for one loaded table.
type Handler struct {
	table  *model.Table
	groups []model.QuestionGroup
	key    model.AnswerKey
	conv   model.Conventions
	now    func() time.Time
}

// New creates a new Handler. groups must not be empty.
func New(t *model.Table, groups []model.QuestionGroup, key model.AnswerKey, conv model.Conventions) (*Handler, error) {
	if len(groups) == 0 {
		return nil, model.ErrNoQuestions
	}
	return &Handler{table: t, groups: groups, key: key, conv: conv, now: time.Now}, nil
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.handleIndex)
	r.Get("/report/{row}", h.handleReport)
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	entries := make([]indexEntry, 0, h.table.NumRows())
	for row := range h.table.Rows {
		rep := report.Build(h.table, row, h.groups, h.key, h.conv, h.now())
		entries = append(entries, indexEntry{
			Row:   row,
			Name:  rep.Name,
			Score: rep.FinalScore,
			Grade: rep.Grade,
		})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexPage(entries, len(h.groups)).Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	row, err := strconv.Atoi(chi.URLParam(r, "row"))
	if err != nil {
		http.Error(w, "invalid row", http.StatusBadRequest)
		return
	}
	if row < 0 || row >= h.table.NumRows() {
		http.Error(w, fmt.Sprintf("no respondent at row %d", row), http.StatusNotFound)
		return
	}

	rep := report.Build(h.table, row, h.groups, h.key, h.conv, h.now())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := report.Page(rep).Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}
