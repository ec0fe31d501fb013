package models

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

type CategoryRefKind int

const (
	// CategoryRefByID carries a UUID-shaped category id.
	CategoryRefByID CategoryRefKind = iota
	// CategoryRefByNumericID carries a numeric id stored as a string.
	CategoryRefByNumericID
	// CategoryRefByLabel carries a free-text category label.
	CategoryRefByLabel
)

// CategoryRef is the tagged form of the loosely-typed category identifiers
// that circulate through the system (UUID, numeric string, or label).
// Callers resolve it once against the candidate categories instead of
// coercing strings ad hoc at every site.
type CategoryRef struct {
	Kind  CategoryRefKind
	Value string
	// Label is the optional companion label supplied alongside an id.
	Label string
}

// ParseCategoryRef classifies a raw id/label pair.
// Preference order: UUID-shaped id, numeric id, then label.
func ParseCategoryRef(rawID, rawLabel string) CategoryRef {
	rawID = strings.TrimSpace(rawID)
	rawLabel = strings.TrimSpace(rawLabel)

	if rawID != "" {
		if _, err := uuid.Parse(rawID); err == nil {
			return CategoryRef{Kind: CategoryRefByID, Value: rawID, Label: rawLabel}
		}
		if _, err := strconv.Atoi(rawID); err == nil {
			return CategoryRef{Kind: CategoryRefByNumericID, Value: rawID, Label: rawLabel}
		}
		// A non-UUID, non-numeric id is itself a label.
		if rawLabel == "" {
			rawLabel = rawID
		}
	}
	return CategoryRef{Kind: CategoryRefByLabel, Value: rawLabel, Label: rawLabel}
}

// HasExactID reports whether the ref carries an id usable for literal
// equality filtering (UUID or numeric). League queries require this.
func (r CategoryRef) HasExactID() bool {
	return r.Value != "" && (r.Kind == CategoryRefByID || r.Kind == CategoryRefByNumericID)
}

// IsZero reports whether the ref carries nothing at all.
func (r CategoryRef) IsZero() bool {
	return r.Value == "" && r.Label == ""
}
