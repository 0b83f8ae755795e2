package leaderboard

import (
	"context"
	"fmt"
)

const (
	// DefaultActivityLimit is the feed size served when callers do not ask for one.
	DefaultActivityLimit = 10
	// MaxActivityLimit bounds the feed size a caller may request.
	MaxActivityLimit = 100
)

// ActivityPublisher receives every activity after it has been persisted, in log order.
// It is called while the writer lock is held, so it must not block or call back into the Service.
type ActivityPublisher interface {
	PublishActivity(ctx context.Context, activity Activity) error
}

func playerAddedMessage(name string) string {
	return fmt.Sprintf("%s added to the leaderboard", name)
}

func playerRemovedMessage(name string) string {
	return fmt.Sprintf("%s removed from the leaderboard", name)
}

func gameAddedMessage(name string) string {
	return fmt.Sprintf("%s added to games", name)
}

func gameRemovedMessage(name string) string {
	return fmt.Sprintf("%s removed from games", name)
}

func scoreUpdatedMessage(playerName string, score int64, gameName string) string {
	return fmt.Sprintf("%s scored %d in %s", playerName, score, gameName)
}

// prependActivity keeps the log newest first.
func prependActivity(activities []Activity, activity Activity) []Activity {
	next := make([]Activity, 0, len(activities)+1)
	next = append(next, activity)
	return append(next, activities...)
}

// RecentActivities returns the newest limit entries of a newest-first log.
func RecentActivities(activities []Activity, limit int) []Activity {
	if limit < 0 {
		limit = 0
	}
	if limit > len(activities) {
		limit = len(activities)
	}
	recent := make([]Activity, limit)
	copy(recent, activities[:limit])
	return recent
}

// ValidateActivityLimit reports whether limit is within the accepted feed range.
func ValidateActivityLimit(limit int) error {
	if limit < 1 || limit > MaxActivityLimit {
		return fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidArgument, MaxActivityLimit)
	}
	return nil
}
