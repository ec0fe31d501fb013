package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/courtside-dev/scoreboard-system/models"
)

var ErrLeagueConfigNotFound = errors.New("league config not found")

type LeagueConfigRepository interface {
	ListByEvent(ctx context.Context, eventID string) ([]*models.LeagueConfig, error)
}

type postgresLeagueConfigRepository struct {
	db *sql.DB
}

func NewPostgresLeagueConfigRepository(db *sql.DB) LeagueConfigRepository {
	return &postgresLeagueConfigRepository{db: db}
}

func (r *postgresLeagueConfigRepository) ListByEvent(ctx context.Context, eventID string) ([]*models.LeagueConfig, error) {
	query := `
		SELECT id, event_id, category_id, category_name, participants, created_at
		FROM league_configs
		WHERE event_id = $1
		ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query league configs for event %s: %w", eventID, err)
	}
	defer rows.Close()

	configs := make([]*models.LeagueConfig, 0)
	for rows.Next() {
		config := &models.LeagueConfig{}
		if scanErr := rows.Scan(
			&config.ID,
			&config.EventID,
			&config.CategoryID,
			&config.CategoryName,
			&config.Participants,
			&config.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan league config row: %w", scanErr)
		}
		configs = append(configs, config)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during league config rows iteration: %w", err)
	}
	return configs, nil
}
