// README: Conversational assistant handler (message turns + session reset).
package handlers

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"safeparking/internal/service"
	"safeparking/internal/types"
)

const maxUtteranceChars = 500

type AssistantHandler struct {
	pipeline *service.Pipeline
}

func NewAssistantHandler(pipeline *service.Pipeline) *AssistantHandler {
	return &AssistantHandler{pipeline: pipeline}
}

type messageReq struct {
	SessionID string  `json:"sessionId"`
	Message   string  `json:"message"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
}

// Message handles POST /api/assistant/message.
func (h *AssistantHandler) Message(c *gin.Context) {
	var req messageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}

	req.SessionID = strings.TrimSpace(req.SessionID)
	req.Message = strings.TrimSpace(req.Message)
	if req.SessionID == "" || req.Message == "" {
		writeError(c, http.StatusBadRequest, "missing sessionId or message")
		return
	}
	if utf8.RuneCountInString(req.Message) > maxUtteranceChars {
		writeError(c, http.StatusBadRequest, "message too long")
		return
	}

	res, err := h.pipeline.ProcessTurn(c.Request.Context(), service.TurnInput{
		SessionID: types.ID(req.SessionID),
		Utterance: req.Message,
		Position:  types.Point{Lat: req.Lat, Lng: req.Lng},
	})
	if err != nil {
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(c, http.StatusOK, res)
}

type resetReq struct {
	SessionID string `json:"sessionId"`
}

// Reset handles POST /api/assistant/reset.
func (h *AssistantHandler) Reset(c *gin.Context) {
	var req resetReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.SessionID) == "" {
		writeError(c, http.StatusBadRequest, "missing sessionId")
		return
	}
	h.pipeline.Reset(types.ID(strings.TrimSpace(req.SessionID)))
	writeJSON(c, http.StatusOK, map[string]any{"reset": true})
}
