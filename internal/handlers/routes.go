package handlers

import (
	"log/slog"
	"net/http"
)

// Handlers groups everything the router needs
type Handlers struct {
	Auth       *AuthHandler
	Reports    *ReportHandler
	Admin      *AdminHandler
	Middleware *Middleware
	Logger     *slog.Logger
}

// NewRouter registers every route and wraps the mux in the shared middleware
func NewRouter(h Handlers) http.Handler {
	mux := http.NewServeMux()
	m := h.Middleware

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("POST /api/auth/login", m.LimitLogin(h.Auth.Login))
	mux.HandleFunc("GET /api/auth/me", m.RequireAuth(h.Auth.Me))

	mux.HandleFunc("GET /api/reports/global", m.RequireAuth(h.Reports.Global))
	mux.HandleFunc("GET /api/reports/global/export.xlsx", m.RequireAuth(h.Reports.GlobalExport))
	mux.HandleFunc("GET /api/reports/errors", m.RequireAuth(h.Reports.Errors))
	mux.HandleFunc("GET /api/reports/students/{id}", m.RequireAuth(h.Reports.StudentProgress))
	mux.HandleFunc("GET /api/reports/students/{id}/games/{game}", m.RequireAuth(h.Reports.StudentGame))
	mux.HandleFunc("GET /api/reports/students/{id}/error-trend", m.RequireAuth(h.Reports.StudentErrorTrend))
	mux.HandleFunc("GET /api/reports/games/{game}/students", m.RequireAuth(h.Reports.GameStudents))

	mux.HandleFunc("GET /api/students", m.RequireAuth(h.Admin.ListStudents))
	mux.HandleFunc("POST /api/students", m.RequireAuth(h.Admin.CreateStudent))
	mux.HandleFunc("GET /api/students/{id}", m.RequireAuth(h.Admin.GetStudent))
	mux.HandleFunc("POST /api/students/{id}/update", m.RequireAuth(h.Admin.UpdateStudent))
	mux.HandleFunc("POST /api/students/{id}/delete", m.RequireAuth(h.Admin.DeleteStudent))

	mux.HandleFunc("GET /api/records", m.RequireAdmin(h.Admin.ListRecords))
	mux.HandleFunc("POST /api/records/{id}/update", m.RequireAdmin(h.Admin.UpdateRecord))
	mux.HandleFunc("POST /api/records/{id}/delete", m.RequireAdmin(h.Admin.DeleteRecord))

	mux.HandleFunc("GET /api/users", m.RequireAdmin(h.Admin.ListUsers))
	mux.HandleFunc("POST /api/users", m.RequireAdmin(h.Admin.CreateUser))
	mux.HandleFunc("POST /api/users/{id}/role", m.RequireAdmin(h.Admin.UpdateUserRole))

	return Logging(h.Logger, m.Timeout(mux))
}
