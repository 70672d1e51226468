package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MikeSquared-Agency/Scorecard/internal/broker"
	"github.com/MikeSquared-Agency/Scorecard/internal/report"
	"github.com/MikeSquared-Agency/Scorecard/internal/scoring"
	"github.com/MikeSquared-Agency/Scorecard/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps service errors onto HTTP status codes. Invalid input is
// checked first: an analyzer rejecting an empty subject is still the caller's
// fault.
func statusFor(err error) int {
	switch {
	case errors.Is(err, scoring.ErrInvalidInput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, report.ErrUnknownPipeline):
		return http.StatusNotFound
	case errors.Is(err, store.ErrReportExists):
		return http.StatusConflict
	case errors.Is(err, broker.ErrAnalyzerFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
