package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/courtside-dev/scoreboard-system/models"
)

var ErrEventNotFound = errors.New("event not found")

type EventRepository interface {
	GetByID(ctx context.Context, id string) (*models.Event, error)
	// GetCategories returns the event's category configuration. The score
	// evaluator reads setsPerMatch from here.
	GetCategories(ctx context.Context, eventID string) (models.Categories, error)
}

type postgresEventRepository struct {
	db *sql.DB
}

func NewPostgresEventRepository(db *sql.DB) EventRepository {
	return &postgresEventRepository{db: db}
}

func (r *postgresEventRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	query := `SELECT id, name, categories, created_at FROM events WHERE id = $1`

	event := &models.Event{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&event.ID,
		&event.Name,
		&event.Categories,
		&event.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to scan event %s: %w", id, err)
	}
	return event, nil
}

func (r *postgresEventRepository) GetCategories(ctx context.Context, eventID string) (models.Categories, error) {
	query := `SELECT categories FROM events WHERE id = $1`

	var categories models.Categories
	err := r.db.QueryRowContext(ctx, query, eventID).Scan(&categories)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to scan categories for event %s: %w", eventID, err)
	}
	return categories, nil
}
