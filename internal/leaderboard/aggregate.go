package leaderboard

import "sort"

// Row is one ranked line of the leaderboard.
type Row struct {
	Player Player           `json:"player"`
	Scores map[string]int64 `json:"scores"`
	Total  int64            `json:"total"`
}

// Aggregate ranks players by the sum of their scores across the given games.
// Every game id is present in each row, defaulting to 0. Ties keep the input player order.
func Aggregate(players []Player, games []Game, scores []Score) []Row {
	type scoreKey struct {
		playerID string
		gameID   string
	}
	lookup := make(map[scoreKey]int64, len(scores))
	for _, score := range scores {
		lookup[scoreKey{playerID: score.PlayerID, gameID: score.GameID}] = score.Score
	}

	rows := make([]Row, 0, len(players))
	for _, player := range players {
		byGame := make(map[string]int64, len(games))
		var total int64
		for _, game := range games {
			value := lookup[scoreKey{playerID: player.ID, gameID: game.ID}]
			byGame[game.ID] = value
			total += value
		}
		rows = append(rows, Row{Player: player, Scores: byGame, Total: total})
	}

	sort.SliceStable(rows, func(left, right int) bool {
		return rows[left].Total > rows[right].Total
	})
	return rows
}
