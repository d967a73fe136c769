// Package api exposes the coordinator's read-side query surface and the
// start/stop entry points over HTTP. All read endpoints are safe to serve
// while the acquisition goroutine is appending samples.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/saviola777/PlusLib/internal/monitoring"
	"github.com/saviola777/PlusLib/internal/tracking"
)

// Server serves the tracking API for one coordinator.
type Server struct {
	tracker *tracking.Tracker
}

// NewServer creates an API server over the given coordinator.
func NewServer(t *tracking.Tracker) *Server {
	return &Server{tracker: t}
}

// ServeMux returns the route table. Callers mount it under their prefix.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /tools", s.handleTools)
	mux.HandleFunc("GET /buffer", s.handleBuffer)
	mux.HandleFunc("GET /calibrations", s.handleCalibrations)
	mux.HandleFunc("POST /start", s.handleStart)
	mux.HandleFunc("POST /stop", s.handleStop)
	mux.HandleFunc("POST /beep", s.handleBeep)
	return mux
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"tracking":             s.tracker.IsTracking(),
		"frequency":            s.tracker.Frequency(),
		"number_of_tools":      s.tracker.NumberOfTools(),
		"update_time":          s.tracker.UpdateTime(),
		"internal_update_rate": s.tracker.InternalUpdateRate(),
	}
	if err := s.tracker.LastAcquisitionError(); err != nil {
		resp["last_acquisition_error"] = err.Error()
	}
	writeJSON(w, resp)
}

func (s *Server) handleTools(w http.ResponseWriter, r *http.Request) {
	type toolInfo struct {
		Port    int    `json:"port"`
		Name    string `json:"name"`
		Role    string `json:"role"`
		Enabled bool   `json:"enabled"`
		Samples int    `json:"samples"`
	}

	n := s.tracker.NumberOfTools()
	tools := make([]toolInfo, 0, n)
	for port := 0; port < n; port++ {
		tool, err := s.tracker.GetTool(port)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		roleStr, err := tracking.ConvertToolTypeToString(tool.Role())
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		tools = append(tools, toolInfo{
			Port:    tool.Port(),
			Name:    tool.Name(),
			Role:    roleStr,
			Enabled: tool.Enabled(),
			Samples: tool.Store().Len(),
		})
	}
	writeJSON(w, tools)
}

func (s *Server) handleBuffer(w http.ResponseWriter, r *http.Request) {
	timestamp, err := strconv.ParseFloat(r.URL.Query().Get("timestamp"), 64)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "missing or malformed timestamp parameter")
		return
	}
	calibrated := r.URL.Query().Get("calibrated") == "true"

	poses, statuses, err := s.tracker.GetTrackerToolBufferStringList(timestamp, calibrated)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]any{"poses": poses, "statuses": statuses})
}

func (s *Server) handleCalibrations(w http.ResponseWriter, r *http.Request) {
	matrices, err := s.tracker.GetTrackerToolCalibrationMatrixStringList()
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, matrices)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if err := s.tracker.StartTracking(); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, tracking.ErrInvalidArgument) {
			status = http.StatusBadRequest
		}
		writeJSONError(w, status, err.Error())
		return
	}
	writeJSON(w, map[string]bool{"tracking": true})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if err := s.tracker.StopTracking(); err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]bool{"tracking": false})
}

func (s *Server) handleBeep(w http.ResponseWriter, r *http.Request) {
	n := 1
	if raw := r.URL.Query().Get("n"); raw != "" {
		var err error
		n, err = strconv.Atoi(raw)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "malformed n parameter")
			return
		}
	}
	if err := s.tracker.Beep(n); err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, tracking.ErrNotSupported):
			status = http.StatusNotImplemented
		case errors.Is(err, tracking.ErrInvalidArgument):
			status = http.StatusBadRequest
		}
		writeJSONError(w, status, err.Error())
		return
	}
	writeJSON(w, map[string]int{"beeped": n})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		monitoring.Logf("api: encoding response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
