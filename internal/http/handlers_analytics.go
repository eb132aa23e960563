package http

import (
	"errors"
	"net/http"

	"spendtrack/internal/services"
)

// handleAnalytics serves the chart endpoint. The report fields sit next to
// success at the top level rather than under data, matching the chart
// clients' contract.
func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	token := q.Get("token")
	if token == "" {
		writeError(w, http.StatusNotFound, "Token is missing")
		return
	}

	report, err := s.reports.Analytics(r.Context(), token, q.Get("chart_type"), q.Get("period"))
	if err != nil {
		if errors.Is(err, services.ErrInvalidChart) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeServiceError(w, r, err)
		return
	}

	if report.Mode == services.ChartPie {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"mode":    report.Mode,
			"data":    report.Data,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"mode":    report.Mode,
		"totals":  report.Totals,
		"trend":   report.Trend,
	})
}
