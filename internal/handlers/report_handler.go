package handlers

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"gamedash/internal/export"
	"gamedash/internal/games"
	"gamedash/internal/models"
	"gamedash/internal/report"
)

// ReportService produces the dashboard reports
type ReportService interface {
	GlobalStats(ctx context.Context, now time.Time, filter report.GlobalFilter) (*report.GlobalStats, error)
	AnalyzeErrors(ctx context.Context, now time.Time, filter report.ErrorFilter) (*report.ErrorAnalysis, error)
	StudentProgress(ctx context.Context, now time.Time, studentID string) (*report.StudentProgress, error)
	StudentGameStats(ctx context.Context, studentID string, gameType models.GameType) (games.GameStats, error)
	StudentErrorTrend(ctx context.Context, now time.Time, studentID string, days int) (*report.StudentErrorTrend, error)
	AllStudentsGameStats(ctx context.Context, gameType models.GameType) ([]report.StudentStats, error)
}

// ReportHandler serves the read-only report endpoints
type ReportHandler struct {
	reports ReportService
	now     Clock
	logger  *slog.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(reports ReportService, now Clock, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{reports: reports, now: now, logger: logger}
}

// studentGameResponse wraps one student's stats with their variant
type studentGameResponse struct {
	StudentID string          `json:"studentId"`
	GameType  models.GameType `json:"gameType"`
	GameName  string          `json:"gameName"`
	Variant   string          `json:"variant"`
	Stats     games.GameStats `json:"stats"`
}

// Global returns the cross-student report
func (h *ReportHandler) Global(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	filter, err := globalFilter(r, now.Location())
	if err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, err.Error(), "", nil)
		return
	}

	stats, err := h.reports.GlobalStats(r.Context(), now, filter)
	if err != nil {
		respondWithServiceError(w, h.logger, "global stats failed", err)
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}

// GlobalExport returns the cross-student report as an XLSX workbook
func (h *ReportHandler) GlobalExport(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	filter, err := globalFilter(r, now.Location())
	if err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, err.Error(), "", nil)
		return
	}

	stats, err := h.reports.GlobalStats(r.Context(), now, filter)
	if err != nil {
		respondWithServiceError(w, h.logger, "global stats failed", err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteGlobal(&buf, stats, now); err != nil {
		respondWithError(w, h.logger, http.StatusInternalServerError, ErrInternalServerError, "workbook export failed", err)
		return
	}

	filename := fmt.Sprintf("global-report-%s.xlsx", now.Format("20060102"))
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// Errors returns the error pattern analysis
func (h *ReportHandler) Errors(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	q := r.URL.Query()

	filter := report.ErrorFilter{
		GameType:   gameTypeParam(q),
		StudentID:  q.Get("studentId"),
		OrderBy:    q.Get("orderBy"),
		Descending: q.Get("order") == "desc",
	}

	var err error
	if filter.StartDate, err = parseDate(q, "start", now.Location(), false); err == nil {
		if filter.EndDate, err = parseDate(q, "end", now.Location(), true); err == nil {
			filter.Limit, err = parseInt(q, "limit", 0)
		}
	}
	if err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, err.Error(), "", nil)
		return
	}

	analysis, err := h.reports.AnalyzeErrors(r.Context(), now, filter)
	if err != nil {
		respondWithServiceError(w, h.logger, "error analysis failed", err)
		return
	}
	respondWithJSON(w, http.StatusOK, analysis)
}

// StudentProgress returns one student's progress across all games
func (h *ReportHandler) StudentProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := h.reports.StudentProgress(r.Context(), h.now(), r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, h.logger, "student progress failed", err)
		return
	}
	respondWithJSON(w, http.StatusOK, progress)
}

// StudentGame returns one student's reduced stats for one game
func (h *ReportHandler) StudentGame(w http.ResponseWriter, r *http.Request) {
	studentID := r.PathValue("id")
	gameType := models.GameType(r.PathValue("game"))

	stats, err := h.reports.StudentGameStats(r.Context(), studentID, gameType)
	if err != nil {
		respondWithServiceError(w, h.logger, "student game stats failed", err)
		return
	}

	respondWithJSON(w, http.StatusOK, studentGameResponse{
		StudentID: studentID,
		GameType:  gameType,
		GameName:  games.Name(gameType),
		Variant:   stats.Variant().String(),
		Stats:     stats,
	})
}

// StudentErrorTrend returns a student's daily error totals
func (h *ReportHandler) StudentErrorTrend(w http.ResponseWriter, r *http.Request) {
	days, err := parseInt(r.URL.Query(), "days", 0)
	if err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, err.Error(), "", nil)
		return
	}

	trend, err := h.reports.StudentErrorTrend(r.Context(), h.now(), r.PathValue("id"), days)
	if err != nil {
		respondWithServiceError(w, h.logger, "student error trend failed", err)
		return
	}
	respondWithJSON(w, http.StatusOK, trend)
}

// GameStudents returns every student's stats for one game
func (h *ReportHandler) GameStudents(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reports.AllStudentsGameStats(r.Context(), models.GameType(r.PathValue("game")))
	if err != nil {
		respondWithServiceError(w, h.logger, "game student stats failed", err)
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}

func globalFilter(r *http.Request, loc *time.Location) (report.GlobalFilter, error) {
	q := r.URL.Query()
	start, err := parseDate(q, "start", loc, false)
	if err != nil {
		return report.GlobalFilter{}, err
	}
	end, err := parseDate(q, "end", loc, true)
	if err != nil {
		return report.GlobalFilter{}, err
	}
	return report.GlobalFilter{GameType: gameTypeParam(q), StartDate: start, EndDate: end}, nil
}
