package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/courtside-dev/scoreboard-system/models"
)

var ErrBracketNotFound = errors.New("bracket not found")

type BracketRepository interface {
	Create(ctx context.Context, exec SQLExecutor, bracket *models.Bracket) error
	GetByID(ctx context.Context, id string) (*models.Bracket, error)
	ListByEvent(ctx context.Context, eventID string) ([]*models.Bracket, error)
}

type postgresBracketRepository struct {
	db *sql.DB
}

func NewPostgresBracketRepository(db *sql.DB) BracketRepository {
	return &postgresBracketRepository{db: db}
}

const bracketColumns = `id, event_id, category_id, category_name, mode, rounds, created_at`

func (r *postgresBracketRepository) Create(ctx context.Context, exec SQLExecutor, bracket *models.Bracket) error {
	if exec == nil {
		exec = r.db
	}
	query := `
		INSERT INTO brackets (id, event_id, category_id, category_name, mode, rounds)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	err := exec.QueryRowContext(ctx, query,
		bracket.ID,
		bracket.EventID,
		bracket.CategoryID,
		bracket.CategoryName,
		bracket.Mode,
		bracket.Rounds,
	).Scan(&bracket.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert bracket for event %s: %w", bracket.EventID, err)
	}
	return nil
}

func (r *postgresBracketRepository) GetByID(ctx context.Context, id string) (*models.Bracket, error) {
	query := `SELECT ` + bracketColumns + ` FROM brackets WHERE id = $1`
	bracket, err := scanBracket(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBracketNotFound
		}
		return nil, fmt.Errorf("failed to scan bracket %s: %w", id, err)
	}
	return bracket, nil
}

func (r *postgresBracketRepository) ListByEvent(ctx context.Context, eventID string) ([]*models.Bracket, error) {
	query := `SELECT ` + bracketColumns + ` FROM brackets WHERE event_id = $1 ORDER BY created_at ASC`
	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query brackets for event %s: %w", eventID, err)
	}
	defer rows.Close()

	brackets := make([]*models.Bracket, 0)
	for rows.Next() {
		bracket, scanErr := scanBracket(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan bracket row: %w", scanErr)
		}
		brackets = append(brackets, bracket)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during bracket rows iteration: %w", err)
	}
	return brackets, nil
}

func scanBracket(row rowScanner) (*models.Bracket, error) {
	bracket := &models.Bracket{}
	err := row.Scan(
		&bracket.ID,
		&bracket.EventID,
		&bracket.CategoryID,
		&bracket.CategoryName,
		&bracket.Mode,
		&bracket.Rounds,
		&bracket.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return bracket, nil
}
