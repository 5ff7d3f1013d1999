package dashboard

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/whoknowsbruh3425/BDA/internal/analysis"
	"github.com/whoknowsbruh3425/BDA/pkg/report"
)

const defaultHistoryLimit = 20

var errNotReady = errors.New("dataset not loaded yet")

type status struct {
	Ready     bool      `json:"ready"`
	Source    string    `json:"source,omitempty"`
	LoadedAt  time.Time `json:"loaded_at,omitempty"`
	Loaded    int       `json:"loaded"`
	Analysed  int       `json:"analysed"`
	Excluded  int       `json:"excluded"`
	Scenarios []string  `json:"scenarios,omitempty"`
}

func statusOf(e *analysis.Engine) status {
	snap := e.Snapshot()
	return status{
		Ready:     true,
		Source:    snap.Source,
		LoadedAt:  snap.LoadedAt,
		Loaded:    len(snap.Records),
		Analysed:  e.Records(),
		Excluded:  e.Excluded(),
		Scenarios: e.Names(),
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// API returns the /api/ handler
func (s *Service) API() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/scenarios", s.handleScenarios)
	mux.HandleFunc("GET /api/overview", s.handleOverview)
	mux.HandleFunc("GET /api/reports/{name}", s.handleReport)
	mux.HandleFunc("GET /api/history/{name}", s.handleHistory)
	mux.HandleFunc("POST /api/reload", s.handleReload)
	return mux
}

func (s *Service) handleStatus(w http.ResponseWriter, r *http.Request) {
	e := s.Engine()
	if e == nil {
		writeJSON(w, http.StatusOK, status{})
		return
	}
	writeJSON(w, http.StatusOK, statusOf(e))
}

func (s *Service) handleScenarios(w http.ResponseWriter, r *http.Request) {
	e := s.Engine()
	if e == nil {
		s.writeError(w, errNotReady)
		return
	}
	writeJSON(w, http.StatusOK, e.Catalog())
}

func (s *Service) handleOverview(w http.ResponseWriter, r *http.Request) {
	s.serveReport(w, r, analysis.OverviewName)
}

func (s *Service) handleReport(w http.ResponseWriter, r *http.Request) {
	s.serveReport(w, r, r.PathValue("name"))
}

// serveReport runs a scenario on demand. ?format=text returns the console rendering.
func (s *Service) serveReport(w http.ResponseWriter, r *http.Request, name string) {
	e := s.Engine()
	if e == nil {
		s.writeError(w, errNotReady)
		return
	}

	rep, err := e.Run(r.Context(), name)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if s.sink != nil {
		if err := s.sink.WriteBatch(r.Context(), []*report.Report{rep}); err != nil {
			s.logger.Warn("report sink failed", zap.String("scenario", name), zap.Error(err))
		}
	}

	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if err := report.Render(w, rep); err != nil {
			s.logger.Error("failed to render report", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Service) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "report history is not configured"})
		return
	}

	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}

	entries, err := s.history.History(r.Context(), r.PathValue("name"), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Service) handleReload(w http.ResponseWriter, r *http.Request) {
	e, err := s.Reload(r.Context(), true)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusOf(e))
}

func (s *Service) writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, errNotReady):
		code = http.StatusServiceUnavailable
	case errors.Is(err, analysis.ErrUnknownScenario):
		code = http.StatusNotFound
	case errors.Is(err, analysis.ErrInsufficientData):
		code = http.StatusUnprocessableEntity
	default:
		s.logger.Error("request failed", err)
	}
	writeJSON(w, code, errorBody{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
