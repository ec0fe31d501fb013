package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Category is one entry of an event's category configuration.
// SetsPerMatch is the best-of-N setting the score evaluator works from.
type Category struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Gender       string `json:"gender,omitempty"`
	MatchType    string `json:"match_type,omitempty"`
	SetsPerMatch int    `json:"setsPerMatch,omitempty"`
}

type Categories []Category

func (c Categories) Value() (driver.Value, error) {
	return json.Marshal(c)
}

func (c *Categories) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*c = nil
		return nil
	case []byte:
		return json.Unmarshal(v, c)
	case string:
		return json.Unmarshal([]byte(v), c)
	default:
		return fmt.Errorf("unsupported categories column type %T", src)
	}
}

type Event struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Categories Categories `json:"categories"`
	CreatedAt  time.Time  `json:"created_at"`
}
