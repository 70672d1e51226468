package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Scorecard/internal/broker"
	"github.com/MikeSquared-Agency/Scorecard/internal/report"
	"github.com/MikeSquared-Agency/Scorecard/internal/scoring"
	"github.com/MikeSquared-Agency/Scorecard/internal/store"
)

type ReportsHandler struct {
	store  store.Store
	broker *broker.Broker
}

func NewReportsHandler(s store.Store, b *broker.Broker) *ReportsHandler {
	return &ReportsHandler{store: s, broker: b}
}

type CreateReportRequest struct {
	ID        string                      `json:"id,omitempty"`
	CreatedAt *time.Time                  `json:"created_at,omitempty"`
	Pipeline  string                      `json:"pipeline"`
	Subject   string                      `json:"subject"`
	Inputs    map[string]scoring.ScoreSet `json:"inputs"`
}

func (h *ReportsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Pipeline == "" {
		writeErr(w, http.StatusBadRequest, "pipeline required")
		return
	}

	submit := broker.SubmitRequest{
		Pipeline: req.Pipeline,
		Subject:  req.Subject,
		Inputs:   req.Inputs,
	}
	if req.ID != "" {
		id, err := uuid.Parse(req.ID)
		if err != nil {
			writeErr(w, http.StatusBadRequest, "invalid report id")
			return
		}
		submit.ID = id
	}
	if req.CreatedAt != nil {
		submit.CreatedAt = req.CreatedAt.UTC()
	}

	rep, err := h.broker.Submit(r.Context(), submit)
	if err != nil {
		writeErr(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, rep)
}

func (h *ReportsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.ReportFilter{
		Pipeline: q.Get("pipeline"),
		Subject:  q.Get("subject"),
		Label:    q.Get("label"),
	}
	for _, p := range []struct {
		name string
		dst  *int
	}{{"limit", &filter.Limit}, {"offset", &filter.Offset}} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeErr(w, http.StatusBadRequest, "invalid "+p.name)
			return
		}
		*p.dst = n
	}

	reports, err := h.store.ListReports(r.Context(), filter)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	if reports == nil {
		reports = []*report.Report{}
	}
	writeJSON(w, http.StatusOK, reports)
}

func (h *ReportsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid report id")
		return
	}

	rep, err := h.store.GetReport(r.Context(), id)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	if rep == nil {
		writeErr(w, http.StatusNotFound, "report not found")
		return
	}
	writeJSON(w, http.StatusOK, rep)
}
