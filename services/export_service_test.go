package services

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtside-dev/scoreboard-system/models"
	"github.com/courtside-dev/scoreboard-system/storage"
)

type fakeUploader struct {
	key         string
	contentType string
	payload     []byte
	err         error
}

func (u *fakeUploader) Upload(ctx context.Context, key, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	if u.err != nil {
		return nil, u.err
	}
	u.key = key
	u.contentType = contentType
	payload, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	u.payload = payload
	return &storage.UploadResult{Key: key, Location: "https://cdn.example.com/" + key}, nil
}

func (u *fakeUploader) Delete(ctx context.Context, key string) error { return nil }

func (u *fakeUploader) GetPublicURL(key string) string { return "https://cdn.example.com/" + key }

func TestExportScoreboard(t *testing.T) {
	matchRepo := &fakeMatchRepo{}
	matchRepo.matches = append(matchRepo.matches,
		storedMatch("m1", "42", models.RoundLeague),
		storedMatch("m2", "43", models.RoundLeague),
	)
	scoreboard := NewScoreboardService(matchRepo, &fakeBracketRepo{}, &fakeEventRepo{events: map[string]*models.Event{}})
	uploader := &fakeUploader{}
	svc := NewExportService(scoreboard, uploader)

	result, err := svc.ExportScoreboard(context.Background(), testEventID, ScoreboardQuery{
		CategoryRef: models.ParseCategoryRef("42", ""),
		RoundName:   models.RoundLeague,
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(result.Key, "scoreboards/"+testEventID+"/"))
	assert.Equal(t, "https://cdn.example.com/"+result.Key, result.URL)
	assert.Equal(t, "application/json", uploader.contentType)

	var snapshot ScoreboardSnapshot
	require.NoError(t, json.Unmarshal(uploader.payload, &snapshot))
	assert.Equal(t, testEventID, snapshot.EventID)
	assert.Equal(t, "42", snapshot.CategoryID)
	require.Len(t, snapshot.Matches, 1)
	assert.Equal(t, "m1", snapshot.Matches[0].ID)
}

func TestExportScoreboardPropagatesQueryErrors(t *testing.T) {
	scoreboard := NewScoreboardService(&fakeMatchRepo{}, &fakeBracketRepo{}, &fakeEventRepo{events: map[string]*models.Event{}})
	svc := NewExportService(scoreboard, &fakeUploader{})

	_, err := svc.ExportScoreboard(context.Background(), testEventID, ScoreboardQuery{
		RoundName: models.RoundLeague,
	})
	require.ErrorIs(t, err, ErrCategoryIDRequired)
}
