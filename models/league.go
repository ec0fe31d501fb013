package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// DefaultGroup is assigned to league participants without a group label.
const DefaultGroup = "A"

type Participants []PlayerRef

func (p Participants) Value() (driver.Value, error) {
	return json.Marshal(p)
}

func (p *Participants) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*p = nil
		return nil
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	default:
		return fmt.Errorf("unsupported participants column type %T", src)
	}
}

// LeagueConfig is the persisted participant list for one event category.
// Pairing only ever happens inside a group.
type LeagueConfig struct {
	ID           string       `json:"id"`
	EventID      string       `json:"event_id"`
	CategoryID   string       `json:"category_id"`
	CategoryName string       `json:"category_name"`
	Participants Participants `json:"participants"`
	CreatedAt    time.Time    `json:"created_at"`
}
