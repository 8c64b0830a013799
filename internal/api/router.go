package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/ChakrapaniC/Senser-Dashboard-BE/internal/auth"
	"github.com/ChakrapaniC/Senser-Dashboard-BE/internal/ws"
)

// NewRouter wires the REST routes and the websocket endpoint. The websocket
// route sits outside the request-timeout middleware since its connections are
// long-lived.
func NewRouter(h *Handler, hub *ws.Hub) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.AllowAll().Handler)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/ws", hub.HandleWS)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(10 * time.Second))
		r.Post("/auth/login", h.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(h.Auth.Middleware)

			r.Route("/devices", func(r chi.Router) {
				r.Get("/", h.handleListDevices)
				r.Get("/{deviceId}", h.handleGetDevice)
				r.Get("/{deviceId}/readings/{sensorType}", h.handleListReadings)
			})

			r.Route("/alerts", func(r chi.Router) {
				r.Get("/", h.handleListAlerts)
				r.Post("/ack-all", h.handleAckAllAlerts)
				r.Post("/{alertId}/ack", h.handleAckAlert)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(auth.RequireRole("admin"))
				r.Get("/thresholds", h.handleGetThresholds)
				r.Put("/thresholds", h.handleUpdateThresholds)
			})
		})
	})

	return r
}
