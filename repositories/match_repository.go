package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/courtside-dev/scoreboard-system/models"
)

var (
	ErrMatchNotFound       = errors.New("match not found")
	ErrMatchBracketInvalid = errors.New("match references an unknown bracket")
)

// MatchScope narrows list/delete/max-index queries. BracketID takes
// precedence; EventID+CategoryID is the fallback when no bracket is known.
type MatchScope struct {
	BracketID  string
	EventID    string
	CategoryID string
	RoundName  string
}

type MatchFilter struct {
	CategoryID string
	RoundName  string
}

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	// CreateIgnoreConflict inserts and reports whether a row was written.
	// A collision on the (bracket_id, round_name, match_index) idempotency
	// key is not an error; the existing match is left untouched.
	CreateIgnoreConflict(ctx context.Context, exec SQLExecutor, match *models.Match) (bool, error)
	GetByID(ctx context.Context, id string) (*models.Match, error)
	ListByEvent(ctx context.Context, eventID string, filter MatchFilter) ([]*models.Match, error)
	ListByScope(ctx context.Context, exec SQLExecutor, scope MatchScope) ([]*models.Match, error)
	MaxMatchIndex(ctx context.Context, exec SQLExecutor, scope MatchScope) (int, error)
	UpdateResult(ctx context.Context, exec SQLExecutor, id string, score *models.MatchScore, winnerID *string, status models.MatchStatus) error
	Delete(ctx context.Context, id string) (int64, error)
	DeleteByScope(ctx context.Context, scope MatchScope) (int64, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchColumns = `id, event_id, category_id, bracket_id, round_name, match_index,
		player_a, player_b, score, winner_id, status, created_at`

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	if exec == nil {
		exec = r.db
	}
	query := `
		INSERT INTO matches
			(id, event_id, category_id, bracket_id, round_name, match_index,
			 player_a, player_b, score, winner_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at`

	err := exec.QueryRowContext(ctx, query,
		match.ID,
		match.EventID,
		match.CategoryID,
		match.BracketID,
		match.RoundName,
		match.MatchIndex,
		match.PlayerA,
		match.PlayerB,
		match.Score,
		match.WinnerID,
		match.Status,
	).Scan(&match.CreatedAt)

	return r.handleMatchError(err)
}

func (r *postgresMatchRepository) CreateIgnoreConflict(ctx context.Context, exec SQLExecutor, match *models.Match) (bool, error) {
	if exec == nil {
		exec = r.db
	}
	query := `
		INSERT INTO matches
			(id, event_id, category_id, bracket_id, round_name, match_index,
			 player_a, player_b, score, winner_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (bracket_id, round_name, match_index) DO NOTHING
		RETURNING created_at`

	err := exec.QueryRowContext(ctx, query,
		match.ID,
		match.EventID,
		match.CategoryID,
		match.BracketID,
		match.RoundName,
		match.MatchIndex,
		match.PlayerA,
		match.PlayerB,
		match.Score,
		match.WinnerID,
		match.Status,
	).Scan(&match.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, r.handleMatchError(err)
	}
	return true, nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id string) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	match, err := scanMatch(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match %s: %w", id, err)
	}
	return match, nil
}

func (r *postgresMatchRepository) ListByEvent(ctx context.Context, eventID string, filter MatchFilter) ([]*models.Match, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + matchColumns + ` FROM matches WHERE event_id = $1`)

	args := []interface{}{eventID}
	placeholder := 2

	if filter.CategoryID != "" {
		queryBuilder.WriteString(" AND category_id = $")
		queryBuilder.WriteString(strconv.Itoa(placeholder))
		args = append(args, filter.CategoryID)
		placeholder++
	}
	if filter.RoundName != "" {
		queryBuilder.WriteString(" AND round_name = $")
		queryBuilder.WriteString(strconv.Itoa(placeholder))
		args = append(args, filter.RoundName)
	}
	queryBuilder.WriteString(" ORDER BY round_name ASC, match_index ASC")

	return r.queryMatches(ctx, r.db, queryBuilder.String(), args...)
}

func (r *postgresMatchRepository) ListByScope(ctx context.Context, exec SQLExecutor, scope MatchScope) ([]*models.Match, error) {
	if exec == nil {
		exec = r.db
	}
	query, args := scopeQuery(`SELECT `+matchColumns+` FROM matches WHERE `, scope)
	query += " ORDER BY match_index ASC"
	return r.queryMatches(ctx, exec, query, args...)
}

func (r *postgresMatchRepository) MaxMatchIndex(ctx context.Context, exec SQLExecutor, scope MatchScope) (int, error) {
	if exec == nil {
		exec = r.db
	}
	query, args := scopeQuery(`SELECT COALESCE(MAX(match_index), 0) FROM matches WHERE `, scope)

	var maxIndex int
	if err := exec.QueryRowContext(ctx, query, args...).Scan(&maxIndex); err != nil {
		return 0, fmt.Errorf("failed to query max match index: %w", err)
	}
	return maxIndex, nil
}

func (r *postgresMatchRepository) UpdateResult(ctx context.Context, exec SQLExecutor, id string, score *models.MatchScore, winnerID *string, status models.MatchStatus) error {
	if exec == nil {
		exec = r.db
	}
	query := `
		UPDATE matches
		SET score = $1, winner_id = $2, status = $3
		WHERE id = $4`

	result, err := exec.ExecContext(ctx, query, score, winnerID, status, id)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) Delete(ctx context.Context, id string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM matches WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check affected rows: %w", err)
	}
	if deleted == 0 {
		return 0, ErrMatchNotFound
	}
	return deleted, nil
}

func (r *postgresMatchRepository) DeleteByScope(ctx context.Context, scope MatchScope) (int64, error) {
	query, args := scopeQuery(`DELETE FROM matches WHERE `, scope)
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return deleted, nil
}

func scopeQuery(prefix string, scope MatchScope) (string, []interface{}) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(prefix)

	var args []interface{}
	placeholder := 1
	writeCond := func(column, value string) {
		if placeholder > 1 {
			queryBuilder.WriteString(" AND ")
		}
		queryBuilder.WriteString(column)
		queryBuilder.WriteString(" = $")
		queryBuilder.WriteString(strconv.Itoa(placeholder))
		args = append(args, value)
		placeholder++
	}

	if scope.BracketID != "" {
		writeCond("bracket_id", scope.BracketID)
	} else {
		writeCond("event_id", scope.EventID)
		if scope.CategoryID != "" {
			writeCond("category_id", scope.CategoryID)
		}
	}
	if scope.RoundName != "" {
		writeCond("round_name", scope.RoundName)
	}
	return queryBuilder.String(), args
}

func (r *postgresMatchRepository) queryMatches(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]*models.Match, error) {
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		match, scanErr := scanMatch(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		matches = append(matches, match)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMatch(row rowScanner) (*models.Match, error) {
	match := &models.Match{}
	var score models.MatchScore
	var hasScore sql.NullString

	err := row.Scan(
		&match.ID,
		&match.EventID,
		&match.CategoryID,
		&match.BracketID,
		&match.RoundName,
		&match.MatchIndex,
		&match.PlayerA,
		&match.PlayerB,
		&hasScore,
		&match.WinnerID,
		&match.Status,
		&match.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if hasScore.Valid {
		if err := score.Scan(hasScore.String); err != nil {
			return nil, fmt.Errorf("failed to decode score for match %s: %w", match.ID, err)
		}
		match.Score = &score
	}
	return match, nil
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	if IsUniqueViolation(err) {
		// Bubble the raw violation; generators fold it into skip counters.
		return err
	}
	if strings.Contains(err.Error(), "matches_bracket_id_fkey") {
		return ErrMatchBracketInvalid
	}
	return err
}
