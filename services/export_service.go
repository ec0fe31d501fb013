package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/courtside-dev/scoreboard-system/models"
	"github.com/courtside-dev/scoreboard-system/storage"
)

type ScoreboardSnapshot struct {
	EventID     string          `json:"event_id"`
	CategoryID  string          `json:"category_id,omitempty"`
	RoundName   string          `json:"round_name,omitempty"`
	GeneratedAt time.Time       `json:"generated_at"`
	Matches     []*models.Match `json:"matches"`
}

type ExportResult struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type ExportService interface {
	// ExportScoreboard renders the current scoreboard as JSON and uploads
	// it to the blob store, returning the public URL.
	ExportScoreboard(ctx context.Context, eventID string, query ScoreboardQuery) (*ExportResult, error)
}

type exportService struct {
	scoreboard ScoreboardService
	uploader   storage.FileUploader
}

func NewExportService(scoreboard ScoreboardService, uploader storage.FileUploader) ExportService {
	return &exportService{scoreboard: scoreboard, uploader: uploader}
}

func (s *exportService) ExportScoreboard(ctx context.Context, eventID string, query ScoreboardQuery) (*ExportResult, error) {
	matches, err := s.scoreboard.ListMatches(ctx, eventID, query)
	if err != nil {
		return nil, err
	}

	snapshot := ScoreboardSnapshot{
		EventID:     eventID,
		CategoryID:  query.CategoryRef.Value,
		RoundName:   query.RoundName,
		GeneratedAt: time.Now().UTC(),
		Matches:     matches,
	}
	payload, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal scoreboard snapshot: %w", err)
	}

	key := fmt.Sprintf("scoreboards/%s/%d.json", eventID, snapshot.GeneratedAt.Unix())
	result, err := s.uploader.Upload(ctx, key, "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to upload scoreboard snapshot: %w", err)
	}
	return &ExportResult{Key: result.Key, URL: result.Location}, nil
}
