package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/novolabs/novo/internal/emotion"
	"github.com/novolabs/novo/internal/tooling"
	"github.com/novolabs/novo/internal/types"
	"github.com/novolabs/novo/internal/webhook"
	"github.com/novolabs/novo/internal/whatsapp"
)

func (s *Server) handleToolExecute(w http.ResponseWriter, r *http.Request) {
	var call tooling.Call
	if err := decodeBody(r, &call); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if call.Name == "" {
		writeError(w, http.StatusBadRequest, "tool name is required")
		return
	}

	// Two names arrive from the dashboard that the voice session never
	// uses; they resolve here instead of in the registry.
	switch call.Name {
	case "translate_text":
		call.Name = "open_translator"
	case "send_whatsapp":
		s.executeSendWhatsApp(w, r, call)
		return
	}

	result, err := s.dispatcher.Dispatch(r.Context(), call)
	if err != nil {
		var toolErr *tooling.Error
		if errors.As(err, &toolErr) {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"success": false,
				"error":   toolErr.Code,
				"content": toolErr.Content,
			})
			return
		}
		writeError(w, http.StatusInternalServerError, "tool execution failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "result": result})
}

func (s *Server) executeSendWhatsApp(w http.ResponseWriter, r *http.Request, call tooling.Call) {
	var params struct {
		Phone   string `json:"phone"`
		Message string `json:"message"`
	}
	if call.Parameters != "" {
		if err := json.Unmarshal([]byte(call.Parameters), &params); err != nil {
			writeError(w, http.StatusBadRequest, "invalid tool parameters")
			return
		}
	}
	if params.Phone == "" || params.Message == "" {
		writeError(w, http.StatusBadRequest, "phone and message are required")
		return
	}
	if !s.whatsapp.Configured() {
		writeError(w, http.StatusBadRequest, "whatsapp is not configured")
		return
	}
	if err := s.whatsapp.Send(r.Context(), params.Phone, params.Message); err != nil {
		slog.Error("failed to send whatsapp message", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to send message")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleToolsPending is the polling bridge: the browser asks every second
// for tool calls the vendor delivered server-side, and consumes them.
func (s *Server) handleToolsPending(w http.ResponseWriter, r *http.Request) {
	calls, err := s.store.Pending.TakeAll(r.Context())
	if err != nil {
		slog.Error("failed to take pending tool calls", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read pending calls")
		return
	}
	if calls == nil {
		calls = []types.PendingToolCall{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "toolCalls": calls})
}

func (s *Server) handleToolResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	result, ok := s.dispatcher.TakeResult(id)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "ready": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "ready": true, "result": result})
}

// humeEvent is the subset of the vendor's webhook payload the server acts
// on: tool calls to bridge to the client, and transcript lines to scan.
type humeEvent struct {
	Type          string             `json:"type"`
	ChatID        string             `json:"chatId,omitempty"`
	ToolCallID    string             `json:"toolCallId,omitempty"`
	Name          string             `json:"name,omitempty"`
	Parameters    string             `json:"parameters,omitempty"`
	Text          string             `json:"text,omitempty"`
	MessageIndex  int                `json:"messageIndex,omitempty"`
	ProsodyScores map[string]float64 `json:"prosodyScores,omitempty"`
	Timestamp     string             `json:"timestamp,omitempty"`
}

// handleHumeLegacyWebhook accepts events without signature verification.
// Kept for configs created before signing was available.
func (s *Server) handleHumeLegacyWebhook(w http.ResponseWriter, r *http.Request) {
	var event humeEvent
	if err := decodeBody(r, &event); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	s.processHumeEvent(w, r, event)
}

func (s *Server) handleHumeWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	r.Body.Close()
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	ts := r.Header.Get("X-Hume-AI-Webhook-Timestamp")
	if err := webhook.ValidateTimestamp(ts, s.now()); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := webhook.ValidateHmacSignature(ts, body, r.Header.Get("X-Hume-AI-Webhook-Signature"), s.cfg.HumeAPIKey); err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var event humeEvent
	if err := json.Unmarshal(body, &event); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	s.processHumeEvent(w, r, event)
}

func (s *Server) processHumeEvent(w http.ResponseWriter, r *http.Request, event humeEvent) {
	response := map[string]any{"success": true}

	switch event.Type {
	case "tool_call":
		if event.ToolCallID == "" || event.Name == "" {
			writeError(w, http.StatusBadRequest, "toolCallId and name are required")
			return
		}
		call := types.PendingToolCall{
			ToolCallID: event.ToolCallID,
			Name:       event.Name,
			Parameters: event.Parameters,
			Timestamp:  s.now(),
		}
		if err := s.store.Pending.Put(r.Context(), call); err != nil {
			slog.Error("failed to store pending tool call", "tool_call_id", call.ToolCallID, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to store tool call")
			return
		}
		response["queued"] = true

	case "user_message":
		if cmd := s.detector.Detect(event.Text); cmd != nil {
			response["command"] = cmd
			s.bridgeCommand(r, cmd)
		}
		if len(event.ProsodyScores) > 0 || event.Text != "" {
			response["emotion"] = emotion.Blend(event.ProsodyScores, event.Text, s.prosodyIndex(event))
		}

	case "assistant_message", "chat_started", "chat_ended":
		// Acknowledged without server-side action.

	default:
		slog.Debug("ignoring webhook event", "type", event.Type)
	}

	writeJSON(w, http.StatusOK, response)
}

// prosodyIndex is the 1-based count of prosody messages seen for a chat,
// tracked server-side so the blend warmup cannot be steered by the index
// in the payload. Events without a chat ID fall back to that index.
func (s *Server) prosodyIndex(event humeEvent) int {
	if event.ChatID == "" {
		return event.MessageIndex
	}
	count, _ := s.prosodyCounts.Get(event.ChatID)
	if len(event.ProsodyScores) > 0 {
		count++
		s.prosodyCounts.Set(event.ChatID, count)
	}
	return count
}

// bridgeCommand turns a detected voice command into a pending tool call
// the browser picks up on its next poll.
func (s *Server) bridgeCommand(r *http.Request, cmd *types.DetectedCommand) {
	params := ""
	if len(cmd.ExtractedData) > 0 {
		if raw, err := json.Marshal(cmd.ExtractedData); err == nil {
			params = string(raw)
		}
	}
	call := types.PendingToolCall{
		ToolCallID: "cmd_" + uuid.NewString(),
		Name:       commandTool(cmd.Type),
		Parameters: params,
		Timestamp:  s.now(),
	}
	if err := s.store.Pending.Put(r.Context(), call); err != nil {
		slog.Warn("failed to bridge detected command", "command", cmd.Type, "error", err)
	}
}

func commandTool(commandType string) string {
	switch commandType {
	case "vision_request":
		return "analyze_vision"
	default:
		return commandType
	}
}

// greenWebhook is the inbound shape Green API posts for incoming messages.
type greenWebhook struct {
	TypeWebhook string `json:"typeWebhook"`
	SenderData  struct {
		ChatID string `json:"chatId"`
		Sender string `json:"sender"`
	} `json:"senderData"`
	MessageData struct {
		TextMessageData struct {
			TextMessage string `json:"textMessage"`
		} `json:"textMessageData"`
	} `json:"messageData"`
}

func (s *Server) handleWhatsAppWebhook(w http.ResponseWriter, r *http.Request) {
	var event greenWebhook
	if err := decodeBody(r, &event); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if event.TypeWebhook != "incomingMessageReceived" {
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
		return
	}

	text := event.MessageData.TextMessageData.TextMessage
	reply := whatsapp.AutoReply(text)
	if reply == "" {
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
		return
	}

	phone, _, _ := strings.Cut(event.SenderData.ChatID, "@")
	if s.whatsapp.Configured() && phone != "" {
		if err := s.whatsapp.Send(r.Context(), phone, reply); err != nil {
			slog.Warn("failed to send auto-reply", "error", err)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "reply": reply})
}
