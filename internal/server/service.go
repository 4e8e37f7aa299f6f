package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ThiagoRGoveia/fvt-dashboard/internal/dashboard"
	"github.com/ThiagoRGoveia/fvt-dashboard/internal/presentation"
	"github.com/ThiagoRGoveia/fvt-dashboard/internal/selection"
	log "github.com/sirupsen/logrus"
)

type DashboardService struct {
	Dashboard *dashboard.Service
	Sessions  *SessionStore
	Renderer  *presentation.Renderer
	Metrics   *Metrics
}

func NewDashboardService(svc *dashboard.Service, sessions *SessionStore, renderer *presentation.Renderer, metrics *Metrics) *DashboardService {
	return &DashboardService{Dashboard: svc, Sessions: sessions, Renderer: renderer, Metrics: metrics}
}

// selectionRequest carries partial changes; absent fields keep the current
// choice.
type selectionRequest struct {
	BaseType       *string   `json:"baseType"`
	FVTs           *[]string `json:"fvts"`
	LimitsBaseType *string   `json:"limitsBaseType"`
	LimitsFVT      *string   `json:"limitsFvt"`
}

func (h *DashboardService) GetOptions(w http.ResponseWriter, r *http.Request) {
	data, err := h.Dashboard.Load(r.Context())
	if err != nil {
		h.failLoad(w, err)
		return
	}
	writeJSON(w, dashboard.NewOptions(data))
}

func (h *DashboardService) GetDashboard(w http.ResponseWriter, r *http.Request) {
	id := h.Sessions.Identify(w, r)
	view, state, err := h.Dashboard.View(r.Context(), h.Sessions.Get(id))
	if err != nil {
		h.failLoad(w, err)
		return
	}
	h.Sessions.Save(id, state.Snapshot())
	writeJSON(w, view)
}

func (h *DashboardService) PostSelection(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid selection body, expected JSON", http.StatusBadRequest)
		return
	}

	id := h.Sessions.Identify(w, r)
	data, err := h.Dashboard.Load(r.Context())
	if err != nil {
		h.failLoad(w, err)
		return
	}

	state := selection.Restore(data.Tests, data.Limits, h.Sessions.Get(id))
	if err := applySelection(state, req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	view, err := h.Dashboard.Build(r.Context(), data, state.Snapshot())
	if err != nil {
		h.failLoad(w, err)
		return
	}
	h.Sessions.Save(id, state.Snapshot())
	writeJSON(w, view)
}

func applySelection(state *selection.State, req selectionRequest) error {
	if req.BaseType != nil {
		if err := state.SelectBaseType(*req.BaseType); err != nil {
			return err
		}
	}
	if req.FVTs != nil {
		if err := state.SelectFVTs(*req.FVTs); err != nil {
			return err
		}
	}
	if req.LimitsBaseType != nil || req.LimitsFVT != nil {
		current := state.Snapshot()
		baseType, fvt := current.LimitsBaseType, ""
		if req.LimitsBaseType != nil {
			baseType = *req.LimitsBaseType
		}
		if req.LimitsFVT != nil {
			fvt = *req.LimitsFVT
		}
		if err := state.SelectLimits(baseType, fvt); err != nil {
			return err
		}
	}
	return nil
}

// GetChart renders /charts/{name}.png for the caller's selection.
func (h *DashboardService) GetChart(w http.ResponseWriter, r *http.Request) {
	name, ok := strings.CutSuffix(strings.TrimPrefix(r.URL.Path, "/charts/"), ".png")
	if !ok || name == "" {
		http.Error(w, "Chart is required in the URL path /charts/{name}.png", http.StatusNotFound)
		return
	}

	id := h.Sessions.Identify(w, r)
	view, state, err := h.Dashboard.View(r.Context(), h.Sessions.Get(id))
	if err != nil {
		h.failLoad(w, err)
		return
	}
	h.Sessions.Save(id, state.Snapshot())

	series, ok := view.Chart(name)
	if !ok {
		http.Error(w, "Unknown chart "+name, http.StatusNotFound)
		return
	}

	var buf bytes.Buffer
	if err := h.Renderer.RenderPNG(&buf, series); err != nil {
		if errors.Is(err, presentation.ErrNoData) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		log.WithError(err).WithField("chart", name).Error("Failed to render chart")
		h.Metrics.RecordError("render")
		http.Error(w, "Failed to render chart", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(buf.Bytes())
}

func (h *DashboardService) Healthz(w http.ResponseWriter, r *http.Request) {
	if _, err := h.Dashboard.Load(r.Context()); err != nil {
		h.failLoad(w, err)
		return
	}
	w.Write([]byte("ok"))
}

func (h *DashboardService) failLoad(w http.ResponseWriter, err error) {
	log.WithError(err).Error("Failed to load dashboard data")
	h.Metrics.RecordError("load")
	http.Error(w, "Failed to load dashboard data", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
