package models

import "time"

// MarketStatus is the display state shared by every market on the overlay
type MarketStatus string

const (
	StatusOpen      MarketStatus = "open"
	StatusSuspended MarketStatus = "suspended"
)

// Valid reports whether s is one of the known statuses
func (s MarketStatus) Valid() bool {
	return s == StatusOpen || s == StatusSuspended
}

// Suspended reports whether markets are not selectable
func (s MarketStatus) Suspended() bool {
	return s == StatusSuspended
}

// TimeWindow is a half-open interval [Start, End) of playback time tagged with a status
type TimeWindow struct {
	Start  float64      `json:"start" yaml:"start"` // seconds, inclusive
	End    float64      `json:"end" yaml:"end"`     // seconds, exclusive
	Status MarketStatus `json:"status" yaml:"status"`
}

// Option represents one selectable outcome of a market
type Option struct {
	Name string `json:"name" yaml:"name"`
	Odds string `json:"odds" yaml:"odds"` // American odds, display only
}

// Market represents a single betting proposition with two outcomes
type Market struct {
	Title   string   `json:"title" yaml:"title"`
	Line    string   `json:"line,omitempty" yaml:"line,omitempty"`
	Options []Option `json:"options" yaml:"options"`
}

// Category groups markets under a tab on the overlay
type Category struct {
	ID      string   `json:"id" yaml:"id"`
	Label   string   `json:"label" yaml:"label"`
	Markets []Market `json:"markets,omitempty" yaml:"markets"`
}

// CategoryInfo is the tab listing without market bodies
type CategoryInfo struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// PlaybackEventType names a notification raised by the video element
type PlaybackEventType string

const (
	EventTimeUpdate PlaybackEventType = "timeupdate"
	EventSeeked     PlaybackEventType = "seeked"
	EventPlay       PlaybackEventType = "play"
	EventPause      PlaybackEventType = "pause"
	EventEnded      PlaybackEventType = "ended"
)

// Valid reports whether t is a known event type
func (t PlaybackEventType) Valid() bool {
	switch t {
	case EventTimeUpdate, EventSeeked, EventPlay, EventPause, EventEnded:
		return true
	}
	return false
}

// PlaybackEvent represents a playback notification sent by the overlay page
type PlaybackEvent struct {
	Type            PlaybackEventType `json:"type"`
	PositionSeconds float64           `json:"positionSeconds"`
}

// CategorySelection represents a tab switch sent by the overlay page
type CategorySelection struct {
	Category string `json:"category"`
}

// Snapshot is an immutable view of the overlay state after one event
type Snapshot struct {
	Sequence        uint64       `json:"sequence"`
	PositionSeconds float64      `json:"positionSeconds"`
	Clock           string       `json:"clock"` // mm:ss
	Playing         bool         `json:"playing"`
	Status          MarketStatus `json:"status"`
	Category        string       `json:"category"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}

// MarketsResponse is returned by the markets endpoint
type MarketsResponse struct {
	Category string       `json:"category"`
	Status   MarketStatus `json:"status"`
	Markets  []Market     `json:"markets"`
}

// EvaluateResponse is returned by the evaluator probe endpoint
type EvaluateResponse struct {
	Position string       `json:"position"` // echoed as given, may be Inf
	Status   MarketStatus `json:"status"`
}

// WSMessage is the envelope exchanged over the overlay websocket
type WSMessage struct {
	Type     string         `json:"type"` // snapshot, playback, category, error
	Snapshot *Snapshot      `json:"snapshot,omitempty"`
	Event    *PlaybackEvent `json:"event,omitempty"`
	Category string         `json:"category,omitempty"`
	Error    string         `json:"error,omitempty"`
}
