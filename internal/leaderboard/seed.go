package leaderboard

import (
	"strconv"
	"time"
)

// SeedDocument returns the initial state written when storage holds no document.
func SeedDocument(now time.Time) Document {
	now = now.UTC()

	players := make([]Player, 0, 3)
	games := make([]Game, 0, 3)
	for index := 1; index <= 3; index++ {
		id := strconv.Itoa(index)
		players = append(players, Player{ID: id, Name: "Player " + id, CreatedAt: now})
		games = append(games, Game{ID: id, Name: "Game " + id, CreatedAt: now})
	}

	// rows are players, columns are games
	points := [3][3]int64{
		{120, 85, 210},
		{95, 150, 180},
		{200, 75, 95},
	}
	scores := make([]Score, 0, 9)
	for playerIndex, row := range points {
		for gameIndex, value := range row {
			scores = append(scores, Score{
				ID:        strconv.Itoa(len(scores) + 1),
				PlayerID:  strconv.Itoa(playerIndex + 1),
				GameID:    strconv.Itoa(gameIndex + 1),
				Score:     value,
				UpdatedAt: now,
			})
		}
	}

	activities := []Activity{
		{
			ID:        "1",
			Type:      ActivityScoreUpdated,
			Message:   scoreUpdatedMessage("Player 2", 150, "Game 2"),
			Timestamp: now.Add(-2 * time.Hour),
			PlayerID:  "2",
			GameID:    "2",
		},
		{
			ID:        "2",
			Type:      ActivityScoreUpdated,
			Message:   scoreUpdatedMessage("Player 1", 210, "Game 3"),
			Timestamp: now.Add(-4 * time.Hour),
			PlayerID:  "1",
			GameID:    "3",
		},
		{
			ID:        "3",
			Type:      ActivityPlayerAdded,
			Message:   playerAddedMessage("Player 3"),
			Timestamp: now.Add(-24 * time.Hour),
			PlayerID:  "3",
		},
	}

	return Document{
		Players:    players,
		Games:      games,
		Scores:     scores,
		Activities: activities,
	}
}
