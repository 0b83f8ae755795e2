package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/MarcoPoloResearchLab/scoreboard/backend/internal/leaderboard"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const (
	// DefaultSubjectPrefix is prepended to the activity type to form the subject.
	DefaultSubjectPrefix = "scoreboard.activity"

	connectionName = "scoreboard-api"
)

var errMissingConnection = errors.New("events: nats connection required")

// ConnectionConfig describes how to reach the NATS server.
type ConnectionConfig struct {
	URL   string
	Token string
}

// Connect dials NATS with the optional token.
func Connect(cfg ConnectionConfig) (*nats.Conn, error) {
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		url = nats.DefaultURL
	}

	opts := []nats.Option{
		nats.Name(connectionName),
	}
	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("events: connect %s: %w", url, err)
	}
	return conn, nil
}

// messagePublisher is the subset of *nats.Conn the publisher needs.
type messagePublisher interface {
	Publish(subject string, data []byte) error
}

// NATSPublisher forwards recorded activities to NATS subjects keyed by activity type.
type NATSPublisher struct {
	conn          messagePublisher
	subjectPrefix string
	logger        *zap.Logger
}

// NewNATSPublisher wraps conn. An empty prefix falls back to DefaultSubjectPrefix.
func NewNATSPublisher(conn messagePublisher, subjectPrefix string, logger *zap.Logger) (*NATSPublisher, error) {
	if conn == nil {
		return nil, errMissingConnection
	}
	if natsConn, ok := conn.(*nats.Conn); ok && natsConn == nil {
		return nil, errMissingConnection
	}
	prefix := strings.Trim(strings.TrimSpace(subjectPrefix), ".")
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NATSPublisher{conn: conn, subjectPrefix: prefix, logger: logger}, nil
}

// Subject returns the subject an activity of the given type is published on.
func (p *NATSPublisher) Subject(activityType leaderboard.ActivityType) string {
	return p.subjectPrefix + "." + string(activityType)
}

// PublishActivity implements leaderboard.ActivityPublisher.
func (p *NATSPublisher) PublishActivity(ctx context.Context, activity leaderboard.Activity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(activity)
	if err != nil {
		return fmt.Errorf("events: encode activity %s: %w", activity.ID, err)
	}
	subject := p.Subject(activity.Type)
	if err := p.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("events: publish %s: %w", subject, err)
	}
	p.logger.Debug("activity published", zap.String("subject", subject), zap.String("activity_id", activity.ID))
	return nil
}
