package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Get("/healthz", s.handleHealth)

	r.Route("/devices", func(r chi.Router) {
		r.Get("/", s.handleListDevices)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetDevice)
			r.Get("/history", s.handleDeviceHistory)
			r.Patch("/hass", s.handleSetHassEnabled)
			r.Post("/control", s.handleControlDevice)
		})
	})

	r.Post("/discovery/sweep", s.handleDiscoverySweep)
	r.Post("/discovery/retract", s.handleDiscoveryRetract)

	return r
}

// handleHealth returns the server health status together with the hub's
// system info frame when one has been received.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := map[string]any{
		"status":  "ok",
		"version": s.version,
		"devices": s.registry.Count(),
	}
	if s.bridge != nil {
		resp["hass_online"] = s.bridge.HassOnline()
		if info := s.bridge.SystemInfo(); info != nil {
			resp["system_info"] = info
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
