package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/hobbybridge/internal/device"
	"github.com/nerrad567/hobbybridge/internal/hass"
	"github.com/nerrad567/hobbybridge/internal/hobby"
)

// deviceSummary is the list-view projection of a registry device.
type deviceSummary struct {
	UUID        string `json:"uuid"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Model       string `json:"model"`
	Type        string `json:"type"`
	Category    string `json:"category,omitempty"`
	Location    string `json:"location,omitempty"`
	Online      bool   `json:"online"`
	HassEnabled bool   `json:"hass_enabled"`
}

// deviceDetail is the full registry view plus derived fields.
type deviceDetail struct {
	*device.Device
	DisplayName string `json:"display_name"`
	Category    string `json:"category,omitempty"`
	Location    string `json:"location,omitempty"`
}

func summarize(dev *device.Device) deviceSummary {
	return deviceSummary{
		UUID:        dev.UUID,
		Name:        dev.Name,
		DisplayName: dev.DisplayName(),
		Model:       dev.Model,
		Type:        dev.Type,
		Category:    string(hass.CategoryForModel(dev.Model)),
		Location:    dev.Location(),
		Online:      dev.Online,
		HassEnabled: dev.HassEnabled,
	}
}

// handleListDevices returns summaries of every device in the registry,
// in hub snapshot order.
func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	devices := s.registry.All()

	summaries := make([]deviceSummary, 0, len(devices))
	for i := range devices {
		summaries = append(summaries, summarize(&devices[i]))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"devices": summaries,
		"count":   len(summaries),
	})
}

// handleGetDevice returns the full registry entry for one device.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	dev, err := s.registry.FindByUUID(id)
	if err != nil {
		writeNotFound(w, "device not found")
		return
	}

	writeJSON(w, http.StatusOK, deviceDetail{
		Device:      dev,
		DisplayName: dev.DisplayName(),
		Category:    string(hass.CategoryForModel(dev.Model)),
		Location:    dev.Location(),
	})
}

// handleDeviceHistory returns recent recorded state changes for a device,
// newest first. Requires the state history store to be enabled.
func (s *Server) handleDeviceHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeUnavailable(w, "state history is disabled")
		return
	}

	id := chi.URLParam(r, "id")
	if _, err := s.registry.FindByUUID(id); err != nil {
		writeNotFound(w, "device not found")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeBadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	entries, err := s.history.List(r.Context(), id, limit)
	if err != nil {
		s.logger.Error("history query failed", "uuid", id, "error", err)
		writeInternalError(w, "history query failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"uuid":    id,
		"entries": entries,
		"count":   len(entries),
	})
}

// hassEnabledRequest is the PATCH body for the publication gate.
type hassEnabledRequest struct {
	Enabled *bool `json:"enabled"`
}

// handleSetHassEnabled toggles whether a device is published to Home
// Assistant. Enabling triggers a fresh discovery publish; disabling
// retracts the entity.
func (s *Server) handleSetHassEnabled(w http.ResponseWriter, r *http.Request) {
	if s.bridge == nil {
		writeUnavailable(w, "bridge is not running")
		return
	}

	id := chi.URLParam(r, "id")

	var req hassEnabledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Enabled == nil {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "enabled field is required")
		return
	}

	dev, err := s.registry.FindByUUID(id)
	if err != nil {
		writeNotFound(w, "device not found")
		return
	}

	if err := s.registry.SetHassEnabled(dev.UUID, *req.Enabled); err != nil {
		writeNotFound(w, "device not found")
		return
	}

	if *req.Enabled {
		if err := s.bridge.DiscoverDevice(dev.UUID); err != nil {
			s.logger.Warn("discovery publish failed", "uuid", dev.UUID, "error", err)
		}
	} else {
		if err := s.bridge.Retract(dev.UUID, dev.Model); err != nil {
			s.logger.Warn("discovery retraction failed", "uuid", dev.UUID, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"uuid":         dev.UUID,
		"hass_enabled": *req.Enabled,
	})
}

// controlRequest is the POST body for direct device control.
type controlRequest struct {
	Value string `json:"value"`
}

// handleControlDevice translates a loose value ("on", "50", "open") into
// the appropriate hub property write for the device's model class and
// publishes it. The device may be addressed by UUID or by name.
func (s *Server) handleControlDevice(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		writeUnavailable(w, "hub connection is not available")
		return
	}

	id := chi.URLParam(r, "id")

	var req controlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	dev, err := s.registry.FindControllable(id, hobby.AllControllableModels)
	if err != nil {
		if errors.Is(err, device.ErrNotControllable) {
			writeError(w, http.StatusBadRequest, ErrCodeValidation, "device cannot be controlled")
			return
		}
		writeNotFound(w, "device not found")
		return
	}

	props, err := writeForModel(dev.Model, req.Value)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "unsupported control value")
		return
	}

	if err := s.hub.Control(dev.UUID, props); err != nil {
		s.logger.Error("control publish failed", "uuid", dev.UUID, "error", err)
		writeInternalError(w, "control publish failed")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"uuid":       dev.UUID,
		"properties": props,
	})
}

// writeForModel builds the property write for a value based on the
// device's model class. Moods ignore the value; they only trigger.
func writeForModel(model, value string) (device.Properties, error) {
	switch {
	case hobby.MoodModels[model]:
		return hobby.MoodWrite(), nil
	case hobby.DimmerModels[model]:
		return hobby.DimmerWrite(value)
	case hobby.MotorModels[model]:
		return hobby.MotorWrite(value)
	case hobby.RelayModels[model]:
		return hobby.RelayWrite(value)
	default:
		return nil, hobby.ErrInvalidValue
	}
}

// handleDiscoverySweep republishes discovery for every translatable
// device in the background.
func (s *Server) handleDiscoverySweep(w http.ResponseWriter, _ *http.Request) {
	if s.bridge == nil {
		writeUnavailable(w, "bridge is not running")
		return
	}

	go s.bridge.DiscoverAll()

	writeJSON(w, http.StatusAccepted, map[string]any{
		"status": "sweep started",
	})
}

// handleDiscoveryRetract withdraws every published discovery config in
// the background. A later sweep republishes them.
func (s *Server) handleDiscoveryRetract(w http.ResponseWriter, _ *http.Request) {
	if s.bridge == nil {
		writeUnavailable(w, "bridge is not running")
		return
	}

	go s.bridge.RetractAll()

	writeJSON(w, http.StatusAccepted, map[string]any{
		"status": "retraction started",
	})
}
