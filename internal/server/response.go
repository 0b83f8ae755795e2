package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/MarcoPoloResearchLab/scoreboard/backend/internal/leaderboard"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type successEnvelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

type errorEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
}

// reasonMessages keys on the trailing reason of a ServiceError code.
var reasonMessages = map[string]string{
	"invalid_name":        "Name is required",
	"name_conflict":       "A record with this name already exists",
	"player_not_found":    "Player not found",
	"game_not_found":      "Game not found",
	"reference_not_found": "Player or game not found",
	"missing_reference":   "Both playerId and gameId are required",
	"negative_score":      "Score cannot be negative",
	"score_too_large":     "Score exceeds the maximum safe integer",
	"score_exists":        "Score already exists. Use PUT to update.",
	"score_not_found":     "Score not found",
	"invalid_limit":       "Limit must be between 1 and 100",
}

func respondData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, successEnvelope{Success: true, Data: data})
}

func respondMessage(c *gin.Context, status int, message string) {
	c.JSON(status, errorEnvelope{Error: message})
}

// respondError maps a service failure onto a status code. failure is shown for server-side faults.
func (h *httpHandler) respondError(c *gin.Context, err error, failure string) {
	status := statusForError(err)
	code := ""
	var serviceErr *leaderboard.ServiceError
	if errors.As(err, &serviceErr) {
		code = serviceErr.Code()
	}

	message := failure
	if status < http.StatusInternalServerError {
		message = messageForCode(code, status)
	} else {
		h.logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.String("code", code),
			zap.Error(err),
		)
	}
	c.JSON(status, errorEnvelope{Error: message, Code: code})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, leaderboard.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, leaderboard.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, leaderboard.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func messageForCode(code string, status int) string {
	if index := strings.LastIndex(code, "."); index >= 0 {
		if message, ok := reasonMessages[code[index+1:]]; ok {
			return message
		}
	}
	return strings.ToLower(http.StatusText(status))
}
