package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ChakrapaniC/Senser-Dashboard-BE/internal/auth"
	"github.com/ChakrapaniC/Senser-Dashboard-BE/internal/simulator"
	"github.com/ChakrapaniC/Senser-Dashboard-BE/internal/storage"
)

type Handler struct {
	Repo      *storage.Repository
	Auth      *auth.Service
	Sim       *simulator.Simulator
	Staleness time.Duration
	Log       *slog.Logger
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type thresholdsRequest struct {
	SensorType string  `json:"sensorType"`
	Warn       float64 `json:"warn"`
	Critical   float64 `json:"critical"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	token, identity, err := h.Auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		h.Log.Error("login failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": token, "user": identity})
}

func (h *Handler) handleListDevices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := clampInt(parseInt(q.Get("limit"), 100), 1, 500)
	offset := clampInt(parseInt(q.Get("offset"), 0), 0, 1<<30)

	devices, err := h.Repo.SearchDevices(r.Context(), q.Get("status"), q.Get("tag"), q.Get("q"), limit, offset)
	if err != nil {
		h.serverError(w, "list devices", err)
		return
	}
	now := time.Now().UTC()
	for i := range devices {
		devices[i].Status = simulator.PresentationStatus(devices[i].Status, devices[i].LastSeen, now, h.Staleness)
	}
	stats, err := h.Repo.FleetStats(r.Context())
	if err != nil {
		h.serverError(w, "fleet stats", err)
		return
	}
	active, err := h.Repo.CountActiveAlerts(r.Context(), now.Add(-24*time.Hour))
	if err != nil {
		h.serverError(w, "count alerts", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"devices":      devices,
		"stats":        stats,
		"activeAlerts": active,
	})
}

func (h *Handler) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	device, err := h.Repo.GetDevice(r.Context(), chi.URLParam(r, "deviceId"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Device not found")
		return
	}
	device.Status = simulator.PresentationStatus(device.Status, device.LastSeen, time.Now().UTC(), h.Staleness)
	latest, err := h.Repo.LatestReading(r.Context(), device.ID, "temp")
	if err != nil {
		h.serverError(w, "latest reading", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"device":        device,
		"latestReading": latest,
	})
}

func (h *Handler) handleListReadings(w http.ResponseWriter, r *http.Request) {
	device, err := h.Repo.GetDevice(r.Context(), chi.URLParam(r, "deviceId"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Device not found")
		return
	}
	q := r.URL.Query()
	limit := clampInt(parseInt(q.Get("limit"), 100), 1, 1000)
	from := parseTime(q.Get("from"))
	to := parseTime(q.Get("to"))
	readings, err := h.Repo.ListReadings(r.Context(), device.ID, chi.URLParam(r, "sensorType"), from, to, limit)
	if err != nil {
		h.serverError(w, "list readings", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"readings": readings})
}

func (h *Handler) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := clampInt(parseInt(q.Get("limit"), 50), 1, 500)
	var acknowledged *bool
	if v := q.Get("acknowledged"); v != "" {
		b := v == "true"
		acknowledged = &b
	}
	alerts, err := h.Repo.ListAlerts(r.Context(), q.Get("severity"), q.Get("deviceId"), acknowledged, limit)
	if err != nil {
		h.serverError(w, "list alerts", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"alerts": alerts})
}

func (h *Handler) handleAckAlert(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())
	ok, err := h.Repo.AckAlert(r.Context(), chi.URLParam(r, "alertId"), identity.Username)
	if err != nil {
		h.serverError(w, "ack alert", err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "Alert not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"acknowledged": 1})
}

func (h *Handler) handleAckAllAlerts(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())
	n, err := h.Repo.AckAllAlerts(r.Context(), identity.Username)
	if err != nil {
		h.serverError(w, "ack all alerts", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"acknowledged": n})
}

func (h *Handler) handleGetThresholds(w http.ResponseWriter, r *http.Request) {
	thresholds, err := h.Repo.GetThresholds(r.Context())
	if err != nil {
		h.serverError(w, "get thresholds", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"thresholds": thresholds})
}

// handleUpdateThresholds validates warn < critical, persists the pair, and
// refreshes the simulator's cache so new readings pick it up immediately
// instead of waiting for the next refresh tick.
func (h *Handler) handleUpdateThresholds(w http.ResponseWriter, r *http.Request) {
	var req thresholdsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.SensorType == "" {
		writeError(w, http.StatusBadRequest, "sensorType is required")
		return
	}
	if err := simulator.ValidateThresholds(req.Warn, req.Critical); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.Repo.UpsertThresholds(r.Context(), req.SensorType, req.Warn, req.Critical); err != nil {
		h.serverError(w, "update thresholds", err)
		return
	}
	if h.Sim != nil {
		_ = h.Sim.Thresholds().Refresh(r.Context())
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sensorType": req.SensorType,
		"warn":       req.Warn,
		"critical":   req.Critical,
	})
}

func (h *Handler) serverError(w http.ResponseWriter, op string, err error) {
	h.Log.Error(op+" failed", slog.String("error", err.Error()))
	writeError(w, http.StatusInternalServerError, "Server error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func parseInt(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return fallback
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}
