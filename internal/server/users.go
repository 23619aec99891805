package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/novolabs/novo/internal/storage"
	"github.com/novolabs/novo/internal/types"
)

type userRequest struct {
	Action  string             `json:"action"`
	IP      string             `json:"ip,omitempty"`
	Profile *types.UserProfile `json:"profile,omitempty"`
	Update  *profileFields     `json:"update,omitempty"`
	Note    string             `json:"note,omitempty"`
	Entry   string             `json:"entry,omitempty"`
}

type profileFields struct {
	Name               string   `json:"name,omitempty"`
	Email              string   `json:"email,omitempty"`
	Phone              string   `json:"phone,omitempty"`
	Birthday           string   `json:"birthday,omitempty"`
	Age                string   `json:"age,omitempty"`
	Occupation         string   `json:"occupation,omitempty"`
	Employer           string   `json:"employer,omitempty"`
	Location           string   `json:"location,omitempty"`
	RelationshipStatus string   `json:"relationshipStatus,omitempty"`
	Interests          []string `json:"interests,omitempty"`
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	ip := r.URL.Query().Get("ip")
	if ip == "" {
		ip = clientIP(r)
	}
	profile, err := s.store.Users.Get(r.Context(), ip)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "profile": nil})
			return
		}
		slog.Error("failed to load profile", "ip", ip, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "profile": profile})
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	ip := req.IP
	if ip == "" {
		ip = clientIP(r)
	}
	if strings.TrimSpace(ip) == "" {
		writeError(w, http.StatusBadRequest, "ip is required")
		return
	}

	if req.Action == "newUser" {
		profile := &types.UserProfile{IPAddress: ip, FirstSeen: s.now(), LastSeen: s.now(), VisitCount: 1}
		if err := s.store.Users.Put(r.Context(), profile); err != nil {
			slog.Error("failed to create profile", "ip", ip, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to create profile")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "profile": profile})
		return
	}

	profile, err := s.store.Users.Get(r.Context(), ip)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			slog.Error("failed to load profile", "ip", ip, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to load profile")
			return
		}
		profile = &types.UserProfile{IPAddress: ip, FirstSeen: s.now()}
	}

	switch req.Action {
	case "update":
		if req.Update == nil {
			writeError(w, http.StatusBadRequest, "update payload is required")
			return
		}
		req.Update.apply(profile)
	case "setProfile":
		if req.Profile == nil {
			writeError(w, http.StatusBadRequest, "profile payload is required")
			return
		}
		replacement := *req.Profile
		replacement.IPAddress = ip
		if replacement.FirstSeen.IsZero() {
			replacement.FirstSeen = profile.FirstSeen
		}
		*profile = replacement
	case "addNote":
		if strings.TrimSpace(req.Note) == "" {
			writeError(w, http.StatusBadRequest, "note is required")
			return
		}
		profile.Notes = append(profile.Notes, req.Note)
	case "appendHistory":
		if strings.TrimSpace(req.Entry) == "" {
			writeError(w, http.StatusBadRequest, "entry is required")
			return
		}
		profile.History = append(profile.History, req.Entry)
	case "confirmIdentity":
		profile.IdentityConfirmed = true
	default:
		writeError(w, http.StatusBadRequest, "unknown action")
		return
	}

	profile.LastSeen = s.now()
	if err := s.store.Users.Put(r.Context(), profile); err != nil {
		slog.Error("failed to store profile", "ip", ip, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store profile")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "profile": profile})
}

func (f *profileFields) apply(p *types.UserProfile) {
	update := types.ProfileUpdate{
		Name:               f.Name,
		Email:              f.Email,
		Phone:              f.Phone,
		Birthday:           f.Birthday,
		Age:                f.Age,
		Occupation:         f.Occupation,
		Employer:           f.Employer,
		Location:           f.Location,
		RelationshipStatus: f.RelationshipStatus,
	}
	update.Apply(p)
	for _, interest := range f.Interests {
		if !contains(p.Interests, interest) {
			p.Interests = append(p.Interests, interest)
		}
	}
}

func contains(list []string, item string) bool {
	for _, v := range list {
		if strings.EqualFold(v, item) {
			return true
		}
	}
	return false
}

type matchRequest struct {
	storage.MatchCriteria
	Merge bool `json:"merge,omitempty"`
}

// handleMatchUsers looks for duplicate profiles of the same person under
// different IPs. With merge set, later matches fold into the first.
func (s *Server) handleMatchUsers(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	profiles, err := s.store.Users.List(r.Context())
	if err != nil {
		slog.Error("failed to list profiles", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list profiles")
		return
	}

	matches := storage.MatchProfiles(profiles, req.MatchCriteria)
	if !req.Merge || len(matches) < 2 {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "matches": matches})
		return
	}

	merged := matches[0]
	for i := 1; i < len(matches); i++ {
		storage.MergeProfiles(&merged, &matches[i])
	}
	if err := s.store.Users.Put(r.Context(), &merged); err != nil {
		slog.Error("failed to store merged profile", "ip", merged.IPAddress, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store merged profile")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "matches": matches, "merged": merged})
}

func (s *Server) handleAdminSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.store.Sessions.List(r.Context(), 100)
	if err != nil {
		slog.Error("failed to list sessions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "sessions": sessions})
}

func (s *Server) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.store.Users.List(r.Context())
	if err != nil {
		slog.Error("failed to list profiles", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list profiles")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "users": profiles})
}
