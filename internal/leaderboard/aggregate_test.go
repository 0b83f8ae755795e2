package leaderboard

import (
	"testing"
	"time"
)

func TestAggregateRanksSeedDocument(t *testing.T) {
	seed := SeedDocument(time.Unix(1700000000, 0))

	rows := Aggregate(seed.Players, seed.Games, seed.Scores)

	expected := []struct {
		playerID string
		total    int64
	}{
		{playerID: "2", total: 425},
		{playerID: "1", total: 415},
		{playerID: "3", total: 370},
	}
	if len(rows) != len(expected) {
		t.Fatalf("expected %d rows, got %d", len(expected), len(rows))
	}
	for index, want := range expected {
		if rows[index].Player.ID != want.playerID {
			t.Fatalf("row %d: expected player %s, got %s", index, want.playerID, rows[index].Player.ID)
		}
		if rows[index].Total != want.total {
			t.Fatalf("row %d: expected total %d, got %d", index, want.total, rows[index].Total)
		}
	}
	if rows[1].Scores["3"] != 210 {
		t.Fatalf("expected Player 1 to have 210 in Game 3, got %d", rows[1].Scores["3"])
	}
}

func TestAggregateFillsMissingScoresWithZero(t *testing.T) {
	players := []Player{{ID: "p1", Name: "Ada"}}
	games := []Game{{ID: "g1", Name: "Chess"}, {ID: "g2", Name: "Go"}}

	rows := Aggregate(players, games, nil)

	if len(rows) != 1 {
		t.Fatalf("expected a single row, got %d", len(rows))
	}
	if rows[0].Total != 0 {
		t.Fatalf("expected zero total, got %d", rows[0].Total)
	}
	if len(rows[0].Scores) != len(games) {
		t.Fatalf("expected every game in the mapping, got %v", rows[0].Scores)
	}
	for _, game := range games {
		value, ok := rows[0].Scores[game.ID]
		if !ok || value != 0 {
			t.Fatalf("expected game %s mapped to 0, got %d (present=%v)", game.ID, value, ok)
		}
	}
}

func TestAggregateKeepsInputOrderOnTies(t *testing.T) {
	players := []Player{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}}
	games := []Game{{ID: "g"}}
	scores := []Score{
		{PlayerID: "a", GameID: "g", Score: 10},
		{PlayerID: "b", GameID: "g", Score: 30},
		{PlayerID: "c", GameID: "g", Score: 10},
		{PlayerID: "d", GameID: "g", Score: 30},
	}

	rows := Aggregate(players, games, scores)

	order := []string{"b", "d", "a", "c"}
	for index, playerID := range order {
		if rows[index].Player.ID != playerID {
			t.Fatalf("position %d: expected %s, got %s", index, playerID, rows[index].Player.ID)
		}
	}
}

func TestAggregateIgnoresScoresForUnknownGames(t *testing.T) {
	players := []Player{{ID: "a"}}
	games := []Game{{ID: "g1"}}
	scores := []Score{
		{PlayerID: "a", GameID: "g1", Score: 5},
		{PlayerID: "a", GameID: "gone", Score: 500},
	}

	rows := Aggregate(players, games, scores)

	if rows[0].Total != 5 {
		t.Fatalf("expected only known games to count, got %d", rows[0].Total)
	}
	if _, ok := rows[0].Scores["gone"]; ok {
		t.Fatalf("did not expect removed game in mapping")
	}
}
