package ws

import (
	"time"
)

type EventType string

const (
	EventLeaderboardUpdated EventType = "leaderboard.updated"
	EventLeaderboardCleared EventType = "leaderboard.cleared"
)

type Event struct {
	ClientID  string      `json:"-"`
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}
