package server

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/novolabs/novo/internal/fashion"
	"github.com/novolabs/novo/internal/geo"
	"github.com/novolabs/novo/internal/images"
	"github.com/novolabs/novo/internal/models"
	"github.com/novolabs/novo/internal/tooling"
	"github.com/novolabs/novo/internal/weather"
)

func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	lat, latErr := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, lonErr := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if latErr != nil || lonErr != nil {
		loc := s.locate(r)
		lat, lon = loc.Latitude, loc.Longitude
	}

	if s.weather == nil {
		report := weather.FallbackReport()
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "report": report, "description": report.Describe()})
		return
	}
	report, err := s.weather.Get(r.Context(), lat, lon)
	if err != nil {
		slog.Warn("weather lookup failed, using fallback", "error", err)
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "report": report, "description": report.Describe()})
}

func (s *Server) handleFashionTrends(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Season   string `json:"season"`
		Region   string `json:"region"`
		Audience string `json:"audience"`
	}
	if r.Method == http.MethodPost {
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	} else {
		q := r.URL.Query()
		req.Season, req.Region, req.Audience = q.Get("season"), q.Get("region"), q.Get("audience")
	}

	trends := fashion.Get(req.Season, req.Region, req.Audience, s.now())
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "trends": trends, "description": trends.Describe()})
}

var visionKinds = map[string]models.AnalysisKind{
	"analyze":      models.AnalysisGeneral,
	"emotions":     models.AnalysisEmotions,
	"fashion":      models.AnalysisFashion,
	"scene-change": models.AnalysisSceneChange,
}

func (s *Server) handleVision(w http.ResponseWriter, r *http.Request) {
	kind, ok := visionKinds[chi.URLParam(r, "kind")]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown analysis kind")
		return
	}

	var req struct {
		Image string `json:"image"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Image == "" {
		writeError(w, http.StatusBadRequest, "image is required")
		return
	}
	if s.vision == nil {
		writeError(w, http.StatusBadRequest, "no vision model is configured")
		return
	}

	description, err := s.vision.Describe(r.Context(), req.Image, kind)
	if err != nil {
		slog.Error("vision analysis failed", "kind", kind, "error", err)
		writeError(w, http.StatusInternalServerError, "vision analysis failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "description": description})
}

func (s *Server) handleGeolocation(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "location": s.locate(r)})
}

func (s *Server) locate(r *http.Request) geo.Location {
	if s.geo == nil {
		return geo.FallbackLocation()
	}
	loc, err := s.geo.Lookup(r.Context(), clientIP(r))
	if err != nil {
		slog.Warn("geolocation lookup failed", "error", err)
	}
	return loc
}

// handleHumeToken exchanges the server-held vendor credentials for a
// short-lived access token the browser connects with.
func (s *Server) handleHumeToken(w http.ResponseWriter, r *http.Request) {
	if !s.hume.Configured() {
		writeError(w, http.StatusBadRequest, "voice vendor credentials are not configured")
		return
	}
	token, err := s.hume.FetchAccessToken(r.Context())
	if err != nil {
		slog.Error("failed to fetch access token", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch access token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"accessToken": token,
		"configId":    s.cfg.HumeConfigID,
	})
}

// handleCameraState mirrors the browser's camera toggle into the shared
// state the vision tools consult.
func (s *Server) handleCameraState(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Active bool `json:"active"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	s.dispatcher.Camera().SetActive(req.Active)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "active": req.Active})
}

type imageSaveRequest struct {
	Filename   string `json:"filename"`
	Image      string `json:"image"`
	MIMEType   string `json:"mimeType,omitempty"`
	ToolCallID string `json:"toolCallId,omitempty"`
}

// handleImageSave stores a captured camera frame. When the capture was
// requested by a deferred take_picture call, the call completes here.
func (s *Server) handleImageSave(w http.ResponseWriter, r *http.Request) {
	var req imageSaveRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Image == "" {
		writeError(w, http.StatusBadRequest, "image is required")
		return
	}

	filename, err := images.Save(s.cfg.UploadDir, req.Filename, req.Image, req.MIMEType, s.cfg.MaxImageBytes)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.dispatcher.Camera().SetLastImage(req.Image)
	if req.ToolCallID != "" {
		completed := s.dispatcher.Complete(req.ToolCallID, tooling.Result{
			Content: "Got it, that's a great picture! Want me to email it to you?",
		})
		if !completed {
			slog.Debug("image saved for an expired tool call", "tool_call_id", req.ToolCallID)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"filename": filename,
		"url":      s.cfg.AppURL + "/uploads/" + filename,
	})
}
