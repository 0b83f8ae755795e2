package leaderboard

import (
	"strings"
	"time"
)

// ActivityType enumerates the mutation events recorded in the activity log.
type ActivityType string

const (
	ActivityPlayerAdded   ActivityType = "player_added"
	ActivityGameAdded     ActivityType = "game_added"
	ActivityScoreUpdated  ActivityType = "score_updated"
	ActivityPlayerRemoved ActivityType = "player_removed"
	ActivityGameRemoved   ActivityType = "game_removed"
)

// ActivityTypes lists every known activity type in declaration order.
func ActivityTypes() []ActivityType {
	return []ActivityType{
		ActivityPlayerAdded,
		ActivityGameAdded,
		ActivityScoreUpdated,
		ActivityPlayerRemoved,
		ActivityGameRemoved,
	}
}

// ParseActivityType validates raw input against the known activity types.
func ParseActivityType(rawInput string) (ActivityType, bool) {
	candidate := ActivityType(strings.TrimSpace(rawInput))
	for _, known := range ActivityTypes() {
		if candidate == known {
			return known, true
		}
	}
	return "", false
}

// Player is a leaderboard participant.
type Player struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Game is a column of the leaderboard.
type Game struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Score holds one player's result for one game. The (PlayerID, GameID) pair is the natural key.
type Score struct {
	ID        string    `json:"id"`
	PlayerID  string    `json:"playerId"`
	GameID    string    `json:"gameId"`
	Score     int64     `json:"score"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MaxScore is the largest accepted score, the biggest integer a JSON client can represent exactly.
const MaxScore = 1<<53 - 1

// Activity is an immutable entry of the recent-events feed.
type Activity struct {
	ID        string       `json:"id"`
	Type      ActivityType `json:"type"`
	Message   string       `json:"message"`
	Timestamp time.Time    `json:"timestamp"`
	PlayerID  string       `json:"playerId,omitempty"`
	GameID    string       `json:"gameId,omitempty"`
}

// Document is the complete persisted state. Activities are stored newest first.
type Document struct {
	Players    []Player   `json:"players"`
	Games      []Game     `json:"games"`
	Scores     []Score    `json:"scores"`
	Activities []Activity `json:"activities"`
}

// Stats summarizes collection sizes for health reporting.
type Stats struct {
	Players    int `json:"players"`
	Games      int `json:"games"`
	Scores     int `json:"scores"`
	Activities int `json:"activities"`
}

func (document Document) clone() Document {
	return Document{
		Players:    append([]Player{}, document.Players...),
		Games:      append([]Game{}, document.Games...),
		Scores:     append([]Score{}, document.Scores...),
		Activities: append([]Activity{}, document.Activities...),
	}
}

func (document Document) findPlayer(playerID string) (Player, bool) {
	for _, player := range document.Players {
		if player.ID == playerID {
			return player, true
		}
	}
	return Player{}, false
}

func (document Document) findGame(gameID string) (Game, bool) {
	for _, game := range document.Games {
		if game.ID == gameID {
			return game, true
		}
	}
	return Game{}, false
}

func (document Document) scoreIndex(playerID, gameID string) int {
	for index, score := range document.Scores {
		if score.PlayerID == playerID && score.GameID == gameID {
			return index
		}
	}
	return -1
}

func sameName(left, right string) bool {
	return strings.EqualFold(strings.TrimSpace(left), strings.TrimSpace(right))
}
