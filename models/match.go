package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type MatchStatus string

const (
	MatchStatusScheduled MatchStatus = "SCHEDULED"
	MatchStatusCompleted MatchStatus = "COMPLETED"
)

// RoundLeague marks round-robin matches. Draws are only legal on this round,
// and scoreboard queries for it match the category id literally.
const RoundLeague = "LEAGUE"

// PlayerRef is an embedded snapshot of a participant at generation time.
// It is not a live foreign key: later profile edits do not rewrite history.
type PlayerRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Group string `json:"group,omitempty"`
}

type SetScore struct {
	Player1 int `json:"player1"`
	Player2 int `json:"player2"`
}

// MatchScore is the single internal score shape. Legacy two-number payloads
// are normalized into a one-element Sets slice before they reach storage.
type MatchScore struct {
	Sets []SetScore `json:"sets"`
}

func (s MatchScore) Value() (driver.Value, error) {
	return json.Marshal(s)
}

func (s *MatchScore) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("unsupported score column type %T", src)
	}
}

func (p PlayerRef) Value() (driver.Value, error) {
	return json.Marshal(p)
}

func (p *PlayerRef) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	default:
		return fmt.Errorf("unsupported player column type %T", src)
	}
}

type Match struct {
	ID         string      `json:"id"`
	EventID    string      `json:"event_id"`
	CategoryID string      `json:"category_id"`
	BracketID  string      `json:"bracket_id"`
	RoundName  string      `json:"round_name"`
	MatchIndex int         `json:"match_index"`
	PlayerA    PlayerRef   `json:"player_a"`
	PlayerB    PlayerRef   `json:"player_b"`
	Score      *MatchScore `json:"score,omitempty"`
	WinnerID   *string     `json:"winner_id,omitempty"`
	Status     MatchStatus `json:"status"`
	CreatedAt  time.Time   `json:"created_at"`
}

// IsLeague reports whether the match belongs to a round-robin round.
func (m *Match) IsLeague() bool {
	return m.RoundName == RoundLeague
}
