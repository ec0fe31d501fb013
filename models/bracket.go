package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type BracketMode string

const (
	BracketModeBracket BracketMode = "BRACKET"
	// BracketModeLeaguePlaceholder tags the synthetic bracket row league
	// matches point at, purely to satisfy the non-null bracket reference.
	BracketModeLeaguePlaceholder BracketMode = "LEAGUE_PLACEHOLDER"
)

// BracketSlot holds up to two players. A slot with exactly one player is a
// bye: its occupant advances structurally and no match row is ever created.
type BracketSlot struct {
	Player1 *PlayerRef `json:"player1,omitempty"`
	Player2 *PlayerRef `json:"player2,omitempty"`
	// Winner is a tentative reference used only for display.
	Winner *string `json:"winner,omitempty"`
}

func (s BracketSlot) IsBye() bool {
	return (s.Player1 != nil) != (s.Player2 != nil)
}

func (s BracketSlot) IsPlayable() bool {
	return s.Player1 != nil && s.Player2 != nil
}

type BracketRound struct {
	Name  string        `json:"name"`
	Slots []BracketSlot `json:"slots"`
}

type BracketRounds []BracketRound

func (r BracketRounds) Value() (driver.Value, error) {
	return json.Marshal(r)
}

func (r *BracketRounds) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*r = nil
		return nil
	case []byte:
		return json.Unmarshal(v, r)
	case string:
		return json.Unmarshal([]byte(v), r)
	default:
		return fmt.Errorf("unsupported rounds column type %T", src)
	}
}

type Bracket struct {
	ID           string        `json:"id"`
	EventID      string        `json:"event_id"`
	CategoryID   string        `json:"category_id"`
	CategoryName string        `json:"category_name"`
	Mode         BracketMode   `json:"mode"`
	Rounds       BracketRounds `json:"rounds"`
	CreatedAt    time.Time     `json:"created_at"`
}

// FindRound returns the named round, or nil when the bracket has no such round.
func (b *Bracket) FindRound(name string) *BracketRound {
	for i := range b.Rounds {
		if b.Rounds[i].Name == name {
			return &b.Rounds[i]
		}
	}
	return nil
}
