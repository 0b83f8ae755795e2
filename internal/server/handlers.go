package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/MarcoPoloResearchLab/scoreboard/backend/internal/leaderboard"
	"github.com/gin-gonic/gin"
)

var (
	errScoreRequired = errors.New("score is required")
	errScoreNotInt   = errors.New("score must be an integer")
	errScoreTooLarge = errors.New("score exceeds the maximum safe integer")
	errScoreNotNum   = errors.New("score must be a valid number")
)

type nameRequestPayload struct {
	Name string `json:"name"`
}

type scoreRequestPayload struct {
	PlayerID string          `json:"playerId"`
	GameID   string          `json:"gameId"`
	Score    json.RawMessage `json:"score"`
}

type activityRequestPayload struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	PlayerID string `json:"playerId"`
	GameID   string `json:"gameId"`
}

func (h *httpHandler) handleListPlayers(c *gin.Context) {
	players, err := h.service.ListPlayers(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "Failed to fetch players")
		return
	}
	respondData(c, http.StatusOK, players)
}

func (h *httpHandler) handleAddPlayer(c *gin.Context) {
	var request nameRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil || strings.TrimSpace(request.Name) == "" {
		respondMessage(c, http.StatusBadRequest, "Player name is required")
		return
	}
	player, err := h.service.AddPlayer(c.Request.Context(), request.Name)
	if err != nil {
		h.respondError(c, err, "Failed to add player")
		return
	}
	respondData(c, http.StatusCreated, player)
}

func (h *httpHandler) handleRemovePlayer(c *gin.Context) {
	playerID := pathOrQueryID(c)
	if playerID == "" {
		respondMessage(c, http.StatusBadRequest, "Player ID is required")
		return
	}
	if err := h.service.RemovePlayer(c.Request.Context(), playerID); err != nil {
		h.respondError(c, err, "Failed to remove player")
		return
	}
	respondData(c, http.StatusOK, nil)
}

func (h *httpHandler) handleListGames(c *gin.Context) {
	games, err := h.service.ListGames(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "Failed to fetch games")
		return
	}
	respondData(c, http.StatusOK, games)
}

func (h *httpHandler) handleAddGame(c *gin.Context) {
	var request nameRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil || strings.TrimSpace(request.Name) == "" {
		respondMessage(c, http.StatusBadRequest, "Game name is required")
		return
	}
	game, err := h.service.AddGame(c.Request.Context(), request.Name)
	if err != nil {
		h.respondError(c, err, "Failed to add game")
		return
	}
	respondData(c, http.StatusCreated, game)
}

func (h *httpHandler) handleRemoveGame(c *gin.Context) {
	gameID := pathOrQueryID(c)
	if gameID == "" {
		respondMessage(c, http.StatusBadRequest, "Game ID is required")
		return
	}
	if err := h.service.RemoveGame(c.Request.Context(), gameID); err != nil {
		h.respondError(c, err, "Failed to remove game")
		return
	}
	respondData(c, http.StatusOK, nil)
}

func (h *httpHandler) handleListScores(c *gin.Context) {
	scores, err := h.service.ListScores(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "Failed to fetch scores")
		return
	}
	respondData(c, http.StatusOK, scores)
}

func (h *httpHandler) handleUpsertScore(c *gin.Context) {
	playerID, gameID, value, ok := bindScoreRequest(c)
	if !ok {
		return
	}
	score, err := h.service.UpsertScore(c.Request.Context(), playerID, gameID, value)
	if err != nil {
		h.respondError(c, err, "Failed to update score")
		return
	}
	respondData(c, http.StatusOK, score)
}

func (h *httpHandler) handleCreateScore(c *gin.Context) {
	playerID, gameID, value, ok := bindScoreRequest(c)
	if !ok {
		return
	}
	score, err := h.service.CreateScore(c.Request.Context(), playerID, gameID, value)
	if err != nil {
		h.respondError(c, err, "Failed to create score")
		return
	}
	respondData(c, http.StatusCreated, score)
}

func (h *httpHandler) handleResetScore(c *gin.Context) {
	playerID := strings.TrimSpace(c.Query("playerId"))
	gameID := strings.TrimSpace(c.Query("gameId"))
	if playerID == "" || gameID == "" {
		respondMessage(c, http.StatusBadRequest, "Both playerId and gameId are required")
		return
	}
	score, err := h.service.ResetScore(c.Request.Context(), playerID, gameID)
	if err != nil {
		h.respondError(c, err, "Failed to delete score")
		return
	}
	respondData(c, http.StatusOK, score)
}

func (h *httpHandler) handleListActivities(c *gin.Context) {
	limit := leaderboard.DefaultActivityLimit
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			parsed = 0
		}
		limit = parsed
	}
	activities, err := h.service.ListActivities(c.Request.Context(), limit)
	if err != nil {
		h.respondError(c, err, "Failed to fetch activities")
		return
	}
	respondData(c, http.StatusOK, activities)
}

// handleCreateActivity validates and echoes an activity. Activities are only recorded by commands.
func (h *httpHandler) handleCreateActivity(c *gin.Context) {
	var request activityRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil || strings.TrimSpace(request.Type) == "" {
		respondMessage(c, http.StatusBadRequest, "Activity type is required")
		return
	}
	if strings.TrimSpace(request.Message) == "" {
		respondMessage(c, http.StatusBadRequest, "Activity message is required")
		return
	}
	activityType, ok := leaderboard.ParseActivityType(request.Type)
	if !ok {
		respondMessage(c, http.StatusBadRequest, "Invalid activity type. Must be one of: "+activityTypeList())
		return
	}
	respondData(c, http.StatusCreated, leaderboard.Activity{
		Type:      activityType,
		Message:   request.Message,
		Timestamp: h.clock().UTC(),
		PlayerID:  request.PlayerID,
		GameID:    request.GameID,
	})
}

func (h *httpHandler) handleDeleteActivities(c *gin.Context) {
	respondMessage(c, http.StatusMethodNotAllowed, "Activities cannot be manually deleted")
}

func (h *httpHandler) handleLeaderboard(c *gin.Context) {
	rows, err := h.service.Leaderboard(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "Failed to build leaderboard")
		return
	}
	respondData(c, http.StatusOK, rows)
}

func (h *httpHandler) handleExportData(c *gin.Context) {
	document, err := h.service.Export(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "Failed to fetch data")
		return
	}
	respondData(c, http.StatusOK, document)
}

func (h *httpHandler) handleImportData(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		respondMessage(c, http.StatusBadRequest, "Invalid data format")
		return
	}
	if _, err := leaderboard.DecodeDocument(raw); err != nil {
		var corrupt *leaderboard.CorruptStateError
		message := "Invalid data format"
		if errors.As(err, &corrupt) {
			message = corrupt.Reason
		}
		respondMessage(c, http.StatusBadRequest, message)
		return
	}
	respondMessage(c, http.StatusNotImplemented, "Data import is not supported. Export the current data and restore the storage backend instead.")
}

func (h *httpHandler) handleResetData(c *gin.Context) {
	respondMessage(c, http.StatusNotImplemented, "Data reset is not supported. Clear the storage backend instead.")
}

func bindScoreRequest(c *gin.Context) (string, string, int64, bool) {
	var request scoreRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		respondMessage(c, http.StatusBadRequest, "Invalid score payload")
		return "", "", 0, false
	}
	if strings.TrimSpace(request.PlayerID) == "" {
		respondMessage(c, http.StatusBadRequest, "Player ID is required and must be a string")
		return "", "", 0, false
	}
	if strings.TrimSpace(request.GameID) == "" {
		respondMessage(c, http.StatusBadRequest, "Game ID is required and must be a string")
		return "", "", 0, false
	}
	value, err := parseScoreValue(request.Score)
	if err != nil {
		message := "Score must be a valid number"
		switch {
		case errors.Is(err, errScoreNotInt):
			message = "Score must be an integer"
		case errors.Is(err, errScoreTooLarge):
			message = "Score exceeds the maximum safe integer"
		}
		respondMessage(c, http.StatusBadRequest, message)
		return "", "", 0, false
	}
	return request.PlayerID, request.GameID, value, true
}

// parseScoreValue accepts JSON numbers with an integral value within leaderboard.MaxScore.
// Strings, booleans and null are rejected.
func parseScoreValue(raw json.RawMessage) (int64, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return 0, errScoreRequired
	}
	if first := trimmed[0]; first != '-' && (first < '0' || first > '9') {
		return 0, errScoreNotNum
	}
	text := string(trimmed)
	if value, err := strconv.ParseInt(text, 10, 64); err == nil {
		if value > leaderboard.MaxScore || value < -leaderboard.MaxScore {
			return 0, errScoreTooLarge
		}
		return value, nil
	}
	value, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsInf(value, 0) {
		return 0, errScoreNotNum
	}
	if value != math.Trunc(value) {
		return 0, errScoreNotInt
	}
	if math.Abs(value) > leaderboard.MaxScore {
		return 0, errScoreTooLarge
	}
	return int64(value), nil
}

func pathOrQueryID(c *gin.Context) string {
	if id := strings.TrimSpace(c.Param("id")); id != "" {
		return id
	}
	return strings.TrimSpace(c.Query("id"))
}

func activityTypeList() string {
	types := leaderboard.ActivityTypes()
	names := make([]string, 0, len(types))
	for _, activityType := range types {
		names = append(names, string(activityType))
	}
	return strings.Join(names, ", ")
}
