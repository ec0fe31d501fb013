package services

import "errors"

// Shared errors across services, mapped to HTTP statuses in handlers.
var (
	// Not found
	ErrNotFound          = errors.New("requested resource not found")
	ErrBracketNotFound   = errors.New("bracket not found for category")
	ErrLeagueNotFound    = errors.New("league config not found for category")
	ErrMatchNotFound     = errors.New("match not found")
	ErrEventNotFound     = errors.New("event not found")
	ErrCategoryNotFound  = errors.New("category could not be resolved")
	ErrRoundNotFound     = errors.New("round not found in bracket")

	// Validation / business rules
	ErrValidationFailed       = errors.New("validation failed")
	ErrBracketHasNoRounds     = errors.New("bracket has no rounds to generate from")
	ErrNotEnoughParticipants  = errors.New("not enough participants for league generation")
	ErrInvalidScorePayload    = errors.New("invalid score payload")
	ErrDrawNotAllowed         = errors.New("draw is not permitted outside league rounds")
	ErrCategoryIDRequired     = errors.New("category id is required for league queries")
	ErrMissingRequiredField   = errors.New("missing required field")

	// Finalize partial/batch failures
	ErrFinalizeFailed = errors.New("failed to finalize matches")
)

// DebugPayload carries the diagnostic object returned with generation
// NotFound/Validation responses, enumerating what was searched.
type DebugPayload map[string]interface{}

// DiagnosticError pairs a sentinel error with a debug payload so handlers
// can echo what the resolver actually looked at.
type DiagnosticError struct {
	Err   error
	Debug DebugPayload
}

func (e *DiagnosticError) Error() string { return e.Err.Error() }

func (e *DiagnosticError) Unwrap() error { return e.Err }

func withDebug(err error, debug DebugPayload) error {
	return &DiagnosticError{Err: err, Debug: debug}
}
