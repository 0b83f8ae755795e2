package leaderboard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

var documentFields = []string{"players", "games", "scores", "activities"}

// EncodeDocument renders the document as indented JSON.
func EncodeDocument(document Document) ([]byte, error) {
	normalized := Document{
		Players:    nonNil(document.Players),
		Games:      nonNil(document.Games),
		Scores:     nonNil(document.Scores),
		Activities: nonNil(document.Activities),
	}
	return json.MarshalIndent(normalized, "", "  ")
}

// DecodeDocument parses stored bytes, requiring all four collections and a valid shape.
func DecodeDocument(raw []byte) (Document, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return Document{}, NewCorruptStateError("empty document", nil)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Document{}, NewCorruptStateError("document is not a JSON object", err)
	}
	for _, name := range documentFields {
		value, ok := fields[name]
		if !ok || !bytes.HasPrefix(bytes.TrimSpace(value), []byte("[")) {
			return Document{}, NewCorruptStateError(fmt.Sprintf("missing or invalid %s array", name), nil)
		}
	}

	var document Document
	if err := json.Unmarshal(raw, &document); err != nil {
		return Document{}, NewCorruptStateError("collections do not match the expected shape", err)
	}
	if err := document.Validate(); err != nil {
		return Document{}, NewCorruptStateError("document failed validation", err)
	}
	return document, nil
}

// Validate checks the structural shape of every record.
func (document Document) Validate() error {
	for index, player := range document.Players {
		if strings.TrimSpace(player.ID) == "" || strings.TrimSpace(player.Name) == "" || player.CreatedAt.IsZero() {
			return fmt.Errorf("%w: invalid player structure at index %d", ErrInvalidDocument, index)
		}
	}
	for index, game := range document.Games {
		if strings.TrimSpace(game.ID) == "" || strings.TrimSpace(game.Name) == "" || game.CreatedAt.IsZero() {
			return fmt.Errorf("%w: invalid game structure at index %d", ErrInvalidDocument, index)
		}
	}
	for index, score := range document.Scores {
		if strings.TrimSpace(score.ID) == "" || score.PlayerID == "" || score.GameID == "" || score.UpdatedAt.IsZero() {
			return fmt.Errorf("%w: invalid score structure at index %d", ErrInvalidDocument, index)
		}
		if score.Score < 0 {
			return fmt.Errorf("%w: negative score at index %d", ErrInvalidDocument, index)
		}
		if score.Score > MaxScore {
			return fmt.Errorf("%w: score above %d at index %d", ErrInvalidDocument, int64(MaxScore), index)
		}
	}
	for index, activity := range document.Activities {
		if strings.TrimSpace(activity.ID) == "" || activity.Message == "" || activity.Timestamp.IsZero() {
			return fmt.Errorf("%w: invalid activity structure at index %d", ErrInvalidDocument, index)
		}
		if _, ok := ParseActivityType(string(activity.Type)); !ok {
			return fmt.Errorf("%w: unknown activity type %q at index %d", ErrInvalidDocument, activity.Type, index)
		}
	}
	return nil
}

func nonNil[T any](values []T) []T {
	if values == nil {
		return []T{}
	}
	return values
}
