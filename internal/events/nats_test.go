package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/MarcoPoloResearchLab/scoreboard/backend/internal/leaderboard"
	"github.com/nats-io/nats.go"
)

type publishedMessage struct {
	subject string
	data    []byte
}

type recordingConn struct {
	messages []publishedMessage
	err      error
}

func (c *recordingConn) Publish(subject string, data []byte) error {
	if c.err != nil {
		return c.err
	}
	c.messages = append(c.messages, publishedMessage{subject: subject, data: data})
	return nil
}

func TestNATSPublisherPublishesActivityJSON(t *testing.T) {
	conn := &recordingConn{}
	publisher, err := NewNATSPublisher(conn, "", nil)
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}

	activity := leaderboard.Activity{
		ID:        "a-1",
		Type:      leaderboard.ActivityScoreUpdated,
		Message:   "Alice scored 10 in Chess",
		Timestamp: time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC),
		PlayerID:  "p-1",
		GameID:    "g-1",
	}
	if err := publisher.PublishActivity(context.Background(), activity); err != nil {
		t.Fatalf("unexpected publish error: %v", err)
	}

	if len(conn.messages) != 1 {
		t.Fatalf("expected one message, got %d", len(conn.messages))
	}
	if conn.messages[0].subject != "scoreboard.activity.score_updated" {
		t.Fatalf("unexpected subject %s", conn.messages[0].subject)
	}
	var decoded leaderboard.Activity
	if err := json.Unmarshal(conn.messages[0].data, &decoded); err != nil {
		t.Fatalf("payload is not activity json: %v", err)
	}
	if decoded.ID != "a-1" || decoded.PlayerID != "p-1" {
		t.Fatalf("unexpected payload %+v", decoded)
	}
}

func TestNATSPublisherSubjectUsesTrimmedPrefix(t *testing.T) {
	publisher, err := NewNATSPublisher(&recordingConn{}, " board.events. ", nil)
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}
	if subject := publisher.Subject(leaderboard.ActivityGameRemoved); subject != "board.events.game_removed" {
		t.Fatalf("unexpected subject %s", subject)
	}
}

func TestNATSPublisherWrapsConnectionErrors(t *testing.T) {
	sentinel := errors.New("connection closed")
	publisher, err := NewNATSPublisher(&recordingConn{err: sentinel}, "scoreboard.activity", nil)
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}
	err = publisher.PublishActivity(context.Background(), leaderboard.Activity{ID: "a-1", Type: leaderboard.ActivityPlayerAdded})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected wrapped connection error, got %v", err)
	}
}

func TestNATSPublisherRequiresConnection(t *testing.T) {
	if _, err := NewNATSPublisher(nil, "", nil); err == nil {
		t.Fatalf("expected error for missing connection")
	}

	var conn *nats.Conn
	if _, err := NewNATSPublisher(conn, "", nil); !errors.Is(err, errMissingConnection) {
		t.Fatalf("expected error for nil *nats.Conn, got %v", err)
	}
}
