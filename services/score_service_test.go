package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtside-dev/scoreboard-system/models"
)

func intPtr(v int) *int { return &v }

func sets(pairs ...[2]int) models.MatchScore {
	score := models.MatchScore{Sets: make([]models.SetScore, len(pairs))}
	for i, p := range pairs {
		score.Sets[i] = models.SetScore{Player1: p[0], Player2: p[1]}
	}
	return score
}

func TestComputeOutcome(t *testing.T) {
	tests := []struct {
		name       string
		score      models.MatchScore
		bestOf     int
		isLeague   bool
		wantWinner int
		wantDraw   bool
		wantErr    error
	}{
		{
			name:       "best of three decided in two",
			score:      sets([2]int{21, 15}, [2]int{21, 18}),
			bestOf:     3,
			wantWinner: 1,
		},
		{
			name:       "best of three full distance",
			score:      sets([2]int{21, 15}, [2]int{12, 21}, [2]int{19, 21}),
			bestOf:     3,
			wantWinner: 2,
		},
		{
			name:       "single set",
			score:      sets([2]int{11, 9}),
			bestOf:     1,
			wantWinner: 1,
		},
		{
			name:       "tied set counts for neither side",
			score:      sets([2]int{10, 10}, [2]int{21, 12}),
			bestOf:     3,
			wantWinner: 1,
		},
		{
			name:       "threshold missed falls back to set majority",
			score:      sets([2]int{21, 12}),
			bestOf:     5,
			wantWinner: 1,
		},
		{
			name:       "even best of needs both sets",
			score:      sets([2]int{21, 15}, [2]int{21, 17}),
			bestOf:     2,
			wantWinner: 1,
		},
		{
			name:     "even split on league round is a draw",
			score:    sets([2]int{21, 15}, [2]int{15, 21}),
			bestOf:   2,
			isLeague: true,
			wantDraw: true,
		},
		{
			name:    "even split outside league is rejected",
			score:   sets([2]int{21, 15}, [2]int{15, 21}),
			bestOf:  2,
			wantErr: ErrDrawNotAllowed,
		},
		{
			name:     "all sets tied on league round",
			score:    sets([2]int{10, 10}),
			bestOf:   1,
			isLeague: true,
			wantDraw: true,
		},
		{
			name:       "zero best of is treated as one",
			score:      sets([2]int{5, 3}),
			bestOf:     0,
			wantWinner: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, err := ComputeOutcome(tt.score, tt.bestOf, tt.isLeague)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantWinner, outcome.Winner)
			assert.Equal(t, tt.wantDraw, outcome.Draw)
		})
	}
}

func TestNormalizeScore(t *testing.T) {
	t.Run("legacy two-number form becomes one set", func(t *testing.T) {
		score, err := NormalizeScore(RawScore{Player1: intPtr(21), Player2: intPtr(15)}, "m1")
		require.NoError(t, err)
		require.Len(t, score.Sets, 1)
		assert.Equal(t, models.SetScore{Player1: 21, Player2: 15}, score.Sets[0])
	})

	t.Run("sets form is kept as is", func(t *testing.T) {
		score, err := NormalizeScore(RawScore{Sets: []RawSet{
			{Player1: intPtr(21), Player2: intPtr(15)},
			{Player1: intPtr(19), Player2: intPtr(21)},
		}}, "m1")
		require.NoError(t, err)
		require.Len(t, score.Sets, 2)
		assert.Equal(t, 19, score.Sets[1].Player1)
	})

	t.Run("sets form wins when both are present", func(t *testing.T) {
		score, err := NormalizeScore(RawScore{
			Player1: intPtr(1),
			Player2: intPtr(2),
			Sets:    []RawSet{{Player1: intPtr(21), Player2: intPtr(15)}},
		}, "m1")
		require.NoError(t, err)
		require.Len(t, score.Sets, 1)
		assert.Equal(t, 21, score.Sets[0].Player1)
	})

	t.Run("missing set value is rejected", func(t *testing.T) {
		_, err := NormalizeScore(RawScore{Sets: []RawSet{{Player1: intPtr(21)}}}, "m1")
		require.ErrorIs(t, err, ErrInvalidScorePayload)
	})

	t.Run("negative score is rejected", func(t *testing.T) {
		_, err := NormalizeScore(RawScore{Player1: intPtr(-1), Player2: intPtr(3)}, "m1")
		require.ErrorIs(t, err, ErrInvalidScorePayload)
	})

	t.Run("empty payload is rejected", func(t *testing.T) {
		_, err := NormalizeScore(RawScore{}, "m1")
		require.ErrorIs(t, err, ErrInvalidScorePayload)
	})
}

func newScoreFixture(matches ...*models.Match) (*fakeMatchRepo, *fakeEventRepo, ScoreService) {
	matchRepo := &fakeMatchRepo{matches: matches}
	eventRepo := &fakeEventRepo{events: map[string]*models.Event{
		testEventID: {
			ID:   testEventID,
			Name: "Spring Open",
			Categories: models.Categories{
				{ID: testCategoryID, Name: "Open - Singles", SetsPerMatch: 3},
			},
		},
	}}
	svc := NewScoreService(&fakeTxBeginner{}, matchRepo, eventRepo, nil, nil)
	return matchRepo, eventRepo, svc
}

func scheduledMatch(id, round string) *models.Match {
	return &models.Match{
		ID:         id,
		EventID:    testEventID,
		CategoryID: testCategoryID,
		BracketID:  testBracketID,
		RoundName:  round,
		PlayerA:    playerRef("p1", "Alice"),
		PlayerB:    playerRef("p2", "Bob"),
		Status:     models.MatchStatusScheduled,
	}
}

func TestUpdateScoreKeepsStatusWithoutRequest(t *testing.T) {
	matchRepo, _, svc := newScoreFixture(scheduledMatch("m1", "Quarterfinal"))

	updated, err := svc.UpdateScore(context.Background(), "m1", UpdateScoreInput{
		Score: RawScore{Player1: intPtr(11), Player2: intPtr(7)},
	})
	require.NoError(t, err)

	assert.Equal(t, models.MatchStatusScheduled, updated.Status)
	assert.Nil(t, updated.WinnerID)

	stored, err := matchRepo.GetByID(context.Background(), "m1")
	require.NoError(t, err)
	require.NotNil(t, stored.Score)
	assert.Equal(t, 11, stored.Score.Sets[0].Player1)
}

func TestUpdateScoreCompletingComputesWinner(t *testing.T) {
	_, _, svc := newScoreFixture(scheduledMatch("m1", "Quarterfinal"))
	completed := models.MatchStatusCompleted

	updated, err := svc.UpdateScore(context.Background(), "m1", UpdateScoreInput{
		Score: RawScore{Sets: []RawSet{
			{Player1: intPtr(21), Player2: intPtr(15)},
			{Player1: intPtr(21), Player2: intPtr(18)},
		}},
		Status: &completed,
	})
	require.NoError(t, err)

	assert.Equal(t, models.MatchStatusCompleted, updated.Status)
	require.NotNil(t, updated.WinnerID)
	assert.Equal(t, "p1", *updated.WinnerID)
}

func TestUpdateScoreCompletedNeverReverts(t *testing.T) {
	match := scheduledMatch("m1", "Quarterfinal")
	match.Status = models.MatchStatusCompleted
	winner := "p1"
	match.WinnerID = &winner
	matchRepo, _, svc := newScoreFixture(match)

	scheduled := models.MatchStatusScheduled
	updated, err := svc.UpdateScore(context.Background(), "m1", UpdateScoreInput{Status: &scheduled})
	require.NoError(t, err)

	assert.Equal(t, models.MatchStatusCompleted, updated.Status)
	stored, err := matchRepo.GetByID(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusCompleted, stored.Status)
}

func TestUpdateScoreUnknownMatch(t *testing.T) {
	_, _, svc := newScoreFixture()
	_, err := svc.UpdateScore(context.Background(), "nope", UpdateScoreInput{})
	require.ErrorIs(t, err, ErrMatchNotFound)
}

func TestFinalizeRoundCompletesBatch(t *testing.T) {
	matchRepo, _, svc := newScoreFixture(
		scheduledMatch("m1", "Quarterfinal"),
		scheduledMatch("m2", "Quarterfinal"),
	)

	result, err := svc.FinalizeRound(context.Background(), testEventID, FinalizeInput{
		CategoryID: testCategoryID,
		RoundName:  "Quarterfinal",
		Matches: []FinalizeMatchInput{
			{MatchID: "m1", Score: RawScore{Sets: []RawSet{
				{Player1: intPtr(21), Player2: intPtr(15)},
				{Player1: intPtr(21), Player2: intPtr(12)},
			}}},
			{MatchID: "m2", Score: RawScore{Sets: []RawSet{
				{Player1: intPtr(15), Player2: intPtr(21)},
				{Player1: intPtr(21), Player2: intPtr(19)},
				{Player1: intPtr(17), Player2: intPtr(21)},
			}}},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.FinalizedCount)
	for _, id := range []string{"m1", "m2"} {
		stored, err := matchRepo.GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, models.MatchStatusCompleted, stored.Status)
		require.NotNil(t, stored.WinnerID)
	}

	m2, _ := matchRepo.GetByID(context.Background(), "m2")
	assert.Equal(t, "p2", *m2.WinnerID)
}

func TestFinalizeRoundAbortsOnAnyBadScore(t *testing.T) {
	matchRepo, _, svc := newScoreFixture(
		scheduledMatch("m1", "Quarterfinal"),
		scheduledMatch("m2", "Quarterfinal"),
	)

	_, err := svc.FinalizeRound(context.Background(), testEventID, FinalizeInput{
		CategoryID: testCategoryID,
		RoundName:  "Quarterfinal",
		Matches: []FinalizeMatchInput{
			{MatchID: "m1", Score: RawScore{Sets: []RawSet{
				{Player1: intPtr(21), Player2: intPtr(15)},
				{Player1: intPtr(21), Player2: intPtr(12)},
			}}},
			{MatchID: "m2", Score: RawScore{Sets: []RawSet{{Player1: intPtr(21)}}}},
		},
	})
	require.ErrorIs(t, err, ErrInvalidScorePayload)

	var diag *DiagnosticError
	require.ErrorAs(t, err, &diag)
	assert.Equal(t, []string{"m2"}, diag.Debug["failed_match_ids"])

	// All-or-nothing: the valid match stays untouched too.
	m1, getErr := matchRepo.GetByID(context.Background(), "m1")
	require.NoError(t, getErr)
	assert.Equal(t, models.MatchStatusScheduled, m1.Status)
	assert.Nil(t, m1.Score)
}

func TestFinalizeRoundRecordsLeagueDraw(t *testing.T) {
	matchRepo, _, svc := newScoreFixture(scheduledMatch("m1", models.RoundLeague))

	result, err := svc.FinalizeRound(context.Background(), testEventID, FinalizeInput{
		CategoryID: testCategoryID,
		RoundName:  models.RoundLeague,
		Matches: []FinalizeMatchInput{
			{MatchID: "m1", Score: RawScore{Sets: []RawSet{
				{Player1: intPtr(21), Player2: intPtr(15)},
				{Player1: intPtr(15), Player2: intPtr(21)},
			}}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.FinalizedCount)

	stored, err := matchRepo.GetByID(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusCompleted, stored.Status)
	assert.Nil(t, stored.WinnerID)
}

func TestFinalizeRoundIsRepeatable(t *testing.T) {
	matchRepo, _, svc := newScoreFixture(scheduledMatch("m1", "Quarterfinal"))
	ctx := context.Background()

	input := FinalizeInput{
		CategoryID: testCategoryID,
		RoundName:  "Quarterfinal",
		Matches: []FinalizeMatchInput{
			{MatchID: "m1", Score: RawScore{Sets: []RawSet{
				{Player1: intPtr(21), Player2: intPtr(15)},
				{Player1: intPtr(21), Player2: intPtr(12)},
			}}},
		},
	}
	_, err := svc.FinalizeRound(ctx, testEventID, input)
	require.NoError(t, err)

	// Corrected resubmission overwrites the recorded result.
	input.Matches[0].Score = RawScore{Sets: []RawSet{
		{Player1: intPtr(15), Player2: intPtr(21)},
		{Player1: intPtr(12), Player2: intPtr(21)},
	}}
	_, err = svc.FinalizeRound(ctx, testEventID, input)
	require.NoError(t, err)

	stored, err := matchRepo.GetByID(ctx, "m1")
	require.NoError(t, err)
	require.NotNil(t, stored.WinnerID)
	assert.Equal(t, "p2", *stored.WinnerID)
}

func TestFinalizeRoundRejectsEmptyBatch(t *testing.T) {
	_, _, svc := newScoreFixture()
	_, err := svc.FinalizeRound(context.Background(), testEventID, FinalizeInput{})
	require.ErrorIs(t, err, ErrValidationFailed)
}
