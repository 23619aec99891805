package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/novolabs/novo/internal/extract"
	"github.com/novolabs/novo/internal/storage"
	"github.com/novolabs/novo/internal/types"
)

type sessionRequest struct {
	Action    string `json:"action"`
	SessionID string `json:"sessionId,omitempty"`
	Role      string `json:"role,omitempty"`
	Content   string `json:"content,omitempty"`
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	switch req.Action {
	case "start":
		s.startSession(w, r)
	case "message":
		s.appendSessionMessage(w, r, req)
	case "end":
		s.endSession(w, r, req)
	default:
		writeError(w, http.StatusBadRequest, "unknown action")
	}
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	session := &types.Session{
		ID:        types.NewSessionID(now),
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
		StartTime: now,
	}
	if err := s.store.Sessions.Create(r.Context(), session); err != nil {
		slog.Error("failed to create session", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	s.touchProfile(r.Context(), session.IPAddress)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "sessionId": session.ID})
}

func (s *Server) appendSessionMessage(w http.ResponseWriter, r *http.Request, req sessionRequest) {
	if req.SessionID == "" || req.Content == "" {
		writeError(w, http.StatusBadRequest, "sessionId and content are required")
		return
	}
	role := types.Role(req.Role)
	if !role.Valid() {
		writeError(w, http.StatusBadRequest, "role must be user or assistant")
		return
	}

	session, err := s.store.Sessions.Get(r.Context(), req.SessionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		slog.Error("failed to load session", "session_id", req.SessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load session")
		return
	}

	// Transcripts repeat lines when the voice stream re-emits a final
	// transcript; drop a line identical to the previous one.
	if n := len(session.Messages); n > 0 {
		last := session.Messages[n-1]
		if last.Role == role && last.Content == req.Content {
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "duplicate": true})
			return
		}
	}

	msg := types.Message{Role: role, Content: req.Content, Timestamp: s.now()}
	if err := s.store.Sessions.AppendMessage(r.Context(), req.SessionID, msg); err != nil {
		slog.Error("failed to append message", "session_id", req.SessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to append message")
		return
	}

	if role == types.RoleUser {
		s.scanForProfileFacts(r.Context(), session.IPAddress, req.Content)
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) endSession(w http.ResponseWriter, r *http.Request, req sessionRequest) {
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "sessionId is required")
		return
	}
	if err := s.store.Sessions.End(r.Context(), req.SessionID, s.now()); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		slog.Error("failed to end session", "session_id", req.SessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to end session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	session, err := s.store.Sessions.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		slog.Error("failed to load session", "session_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "session": session})
}

// scanForProfileFacts runs the PII extractor over a user line and merges
// any matches into the caller's profile. Best effort: failures are logged
// and swallowed because transcript enrichment is diagnostic.
func (s *Server) scanForProfileFacts(ctx context.Context, ip, content string) {
	update := extract.Scan(content)
	if update.Empty() || ip == "" {
		return
	}

	profile, err := s.store.Users.Get(ctx, ip)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			slog.Warn("failed to load profile for extraction", "ip", ip, "error", err)
			return
		}
		profile = &types.UserProfile{IPAddress: ip, FirstSeen: s.now()}
	}
	update.Apply(profile)
	profile.LastSeen = s.now()
	if err := s.store.Users.Put(ctx, profile); err != nil {
		slog.Warn("failed to store extracted profile facts", "ip", ip, "error", err)
	}
}

// touchProfile bumps visit bookkeeping for the caller's IP when a session
// starts, creating the profile on first sight.
func (s *Server) touchProfile(ctx context.Context, ip string) {
	if strings.TrimSpace(ip) == "" {
		return
	}
	profile, err := s.store.Users.Get(ctx, ip)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			slog.Warn("failed to load profile", "ip", ip, "error", err)
			return
		}
		profile = &types.UserProfile{IPAddress: ip, FirstSeen: s.now()}
	}
	profile.LastSeen = s.now()
	profile.VisitCount++
	if err := s.store.Users.Put(ctx, profile); err != nil {
		slog.Warn("failed to store profile", "ip", ip, "error", err)
	}
}
