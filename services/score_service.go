package services

import (
	"context"
	"fmt"

	"github.com/courtside-dev/scoreboard-system/models"
	"github.com/courtside-dev/scoreboard-system/repositories"
)

// RawScore accepts both wire shapes: the legacy two-number form and the
// sets-based form. Exactly one of them is expected to be populated.
type RawScore struct {
	Player1 *int     `json:"player1,omitempty"`
	Player2 *int     `json:"player2,omitempty"`
	Sets    []RawSet `json:"sets,omitempty"`
}

type RawSet struct {
	Player1 *int `json:"player1"`
	Player2 *int `json:"player2"`
}

type UpdateScoreInput struct {
	Score    RawScore            `json:"score"`
	Status   *models.MatchStatus `json:"status,omitempty"`
	WinnerID *string             `json:"winner,omitempty"`
}

type FinalizeMatchInput struct {
	MatchID string   `json:"matchId"`
	Score   RawScore `json:"score"`
}

type FinalizeInput struct {
	CategoryID   string               `json:"categoryId"`
	CategoryName string               `json:"categoryName"`
	RoundName    string               `json:"roundName"`
	Matches      []FinalizeMatchInput `json:"matches"`
}

type FinalizeResult struct {
	FinalizedCount int             `json:"finalizedCount"`
	Matches        []*models.Match `json:"matches"`
}

// Outcome of a score evaluation. Winner is 0 for a draw.
type Outcome struct {
	Winner int // 1, 2, or 0
	Draw   bool
}

type ScoreService interface {
	// UpdateScore records a score without finalizing. Status only changes
	// when explicitly requested; marking COMPLETED directly computes the
	// winner from the owning event's category configuration.
	UpdateScore(ctx context.Context, matchID string, input UpdateScoreInput) (*models.Match, error)
	// FinalizeRound computes winners for a batch of matches and locks them
	// COMPLETED in a single transaction. Re-finalizing a completed match
	// overwrites its result; COMPLETED never reverts to SCHEDULED.
	FinalizeRound(ctx context.Context, eventID string, input FinalizeInput) (*FinalizeResult, error)
}

// RoundNotifier delivers fire-and-forget notifications after a round is
// finalized. Failures are logged by the implementation, never surfaced.
type RoundNotifier interface {
	NotifyRoundFinalized(eventID, categoryName, roundName string, finalizedCount int)
}

type scoreService struct {
	db        repositories.TxBeginner
	matchRepo repositories.MatchRepository
	eventRepo repositories.EventRepository
	hub       Broadcaster
	notifier  RoundNotifier
}

func NewScoreService(
	db repositories.TxBeginner,
	matchRepo repositories.MatchRepository,
	eventRepo repositories.EventRepository,
	hub Broadcaster,
	notifier RoundNotifier,
) ScoreService {
	return &scoreService{
		db:        db,
		matchRepo: matchRepo,
		eventRepo: eventRepo,
		hub:       hub,
		notifier:  notifier,
	}
}

// NormalizeScore converts either wire shape into the internal sets form,
// validating every set carries two non-negative integers. The match id only
// feeds error messages.
func NormalizeScore(raw RawScore, matchID string) (*models.MatchScore, error) {
	if len(raw.Sets) > 0 {
		sets := make([]models.SetScore, len(raw.Sets))
		for i, set := range raw.Sets {
			if set.Player1 == nil || set.Player2 == nil {
				return nil, fmt.Errorf("%w: set %d of match %s is missing a score", ErrInvalidScorePayload, i, matchID)
			}
			if *set.Player1 < 0 || *set.Player2 < 0 {
				return nil, fmt.Errorf("%w: set %d of match %s has a negative score", ErrInvalidScorePayload, i, matchID)
			}
			sets[i] = models.SetScore{Player1: *set.Player1, Player2: *set.Player2}
		}
		return &models.MatchScore{Sets: sets}, nil
	}

	if raw.Player1 == nil || raw.Player2 == nil {
		return nil, fmt.Errorf("%w: match %s score must be either {player1,player2} or {sets}", ErrInvalidScorePayload, matchID)
	}
	if *raw.Player1 < 0 || *raw.Player2 < 0 {
		return nil, fmt.Errorf("%w: match %s has a negative score", ErrInvalidScorePayload, matchID)
	}
	return &models.MatchScore{Sets: []models.SetScore{{Player1: *raw.Player1, Player2: *raw.Player2}}}, nil
}

// normalizeScoreLenient is the non-finalizing variant: both shapes accepted,
// missing values default to zero, no per-set validation.
func normalizeScoreLenient(raw RawScore) *models.MatchScore {
	if len(raw.Sets) > 0 {
		sets := make([]models.SetScore, len(raw.Sets))
		for i, set := range raw.Sets {
			if set.Player1 != nil {
				sets[i].Player1 = *set.Player1
			}
			if set.Player2 != nil {
				sets[i].Player2 = *set.Player2
			}
		}
		return &models.MatchScore{Sets: sets}
	}
	if raw.Player1 == nil && raw.Player2 == nil {
		return nil
	}
	set := models.SetScore{}
	if raw.Player1 != nil {
		set.Player1 = *raw.Player1
	}
	if raw.Player2 != nil {
		set.Player2 = *raw.Player2
	}
	return &models.MatchScore{Sets: []models.SetScore{set}}
}

// ComputeOutcome applies the best-of-N majority rule. Winning requires a
// strict majority of bestOf sets; a tied set counts for neither side. When no side
// reaches the threshold the strictly-higher set count wins; an exact tie is
// a draw only on league rounds, otherwise an error the admin must fix.
func ComputeOutcome(score models.MatchScore, bestOf int, isLeague bool) (Outcome, error) {
	if bestOf < 1 {
		bestOf = 1
	}
	need := bestOf/2 + 1

	var won1, won2 int
	for _, set := range score.Sets {
		switch {
		case set.Player1 > set.Player2:
			won1++
		case set.Player2 > set.Player1:
			won2++
		}
		if won1 >= need {
			return Outcome{Winner: 1}, nil
		}
		if won2 >= need {
			return Outcome{Winner: 2}, nil
		}
	}

	switch {
	case won1 > won2:
		return Outcome{Winner: 1}, nil
	case won2 > won1:
		return Outcome{Winner: 2}, nil
	case isLeague:
		return Outcome{Draw: true}, nil
	default:
		return Outcome{}, ErrDrawNotAllowed
	}
}

func (s *scoreService) UpdateScore(ctx context.Context, matchID string, input UpdateScoreInput) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if err == repositories.ErrMatchNotFound {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}

	score := normalizeScoreLenient(input.Score)
	if score == nil {
		score = match.Score
	}

	status := match.Status
	winnerID := match.WinnerID
	if input.WinnerID != nil {
		winnerID = input.WinnerID
	}

	if input.Status != nil && *input.Status == models.MatchStatusCompleted && status != models.MatchStatusCompleted {
		status = models.MatchStatusCompleted
		if input.WinnerID == nil && score != nil {
			bestOf := s.lookupBestOf(ctx, match.EventID, match.CategoryID)
			outcome, err := ComputeOutcome(*score, bestOf, match.IsLeague())
			if err != nil {
				return nil, err
			}
			winnerID = outcomeWinnerID(outcome, match)
		}
	} else if input.Status != nil && *input.Status == models.MatchStatusScheduled {
		// One-way machine: a completed match stays completed.
		if status != models.MatchStatusCompleted {
			status = models.MatchStatusScheduled
		}
	}

	if err := s.matchRepo.UpdateResult(ctx, nil, matchID, score, winnerID, status); err != nil {
		return nil, err
	}

	match.Score = score
	match.WinnerID = winnerID
	match.Status = status

	if s.hub != nil {
		s.hub.BroadcastToRoom(eventRoom(match.EventID), map[string]interface{}{
			"type":    wsTypeScoreUpdated,
			"payload": match,
		})
	}
	return match, nil
}

func (s *scoreService) FinalizeRound(ctx context.Context, eventID string, input FinalizeInput) (*FinalizeResult, error) {
	if len(input.Matches) == 0 {
		return nil, fmt.Errorf("%w: no matches to finalize", ErrValidationFailed)
	}

	bestOf := s.lookupBestOfByRef(ctx, eventID, models.ParseCategoryRef(input.CategoryID, input.CategoryName))

	type pending struct {
		match    *models.Match
		score    *models.MatchScore
		winnerID *string
	}

	updates := make([]pending, 0, len(input.Matches))
	var failed []string
	var firstErr error

	for _, item := range input.Matches {
		match, err := s.matchRepo.GetByID(ctx, item.MatchID)
		if err != nil {
			failed = append(failed, item.MatchID)
			if firstErr == nil {
				if err == repositories.ErrMatchNotFound {
					err = ErrMatchNotFound
				}
				firstErr = err
			}
			continue
		}

		score, err := NormalizeScore(item.Score, item.MatchID)
		if err != nil {
			failed = append(failed, item.MatchID)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		outcome, err := ComputeOutcome(*score, bestOf, match.IsLeague())
		if err != nil {
			failed = append(failed, item.MatchID)
			if firstErr == nil {
				firstErr = fmt.Errorf("match %s: %w", item.MatchID, err)
			}
			continue
		}

		updates = append(updates, pending{
			match:    match,
			score:    score,
			winnerID: outcomeWinnerID(outcome, match),
		})
	}

	// All-or-nothing: a single bad score aborts the whole round so the
	// caller can correct and resubmit exactly the listed ids.
	if len(failed) > 0 {
		return nil, withDebug(firstErr, DebugPayload{"failed_match_ids": failed})
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result := &FinalizeResult{Matches: make([]*models.Match, 0, len(updates))}
	for _, u := range updates {
		if err := s.matchRepo.UpdateResult(ctx, tx, u.match.ID, u.score, u.winnerID, models.MatchStatusCompleted); err != nil {
			return nil, withDebug(
				fmt.Errorf("%w: %v", ErrFinalizeFailed, err),
				DebugPayload{"failed_match_ids": []string{u.match.ID}},
			)
		}
		u.match.Score = u.score
		u.match.WinnerID = u.winnerID
		u.match.Status = models.MatchStatusCompleted
		result.Matches = append(result.Matches, u.match)
		result.FinalizedCount++
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit finalize: %w", err)
	}

	if s.hub != nil {
		s.hub.BroadcastToRoom(eventRoom(eventID), map[string]interface{}{
			"type": wsTypeRoundFinalized,
			"payload": map[string]interface{}{
				"event_id":       eventID,
				"category_id":    input.CategoryID,
				"round_name":     input.RoundName,
				"finalizedCount": result.FinalizedCount,
			},
		})
	}
	if s.notifier != nil {
		categoryName := input.CategoryName
		if categoryName == "" {
			categoryName = input.CategoryID
		}
		go s.notifier.NotifyRoundFinalized(eventID, categoryName, input.RoundName, result.FinalizedCount)
	}
	return result, nil
}

// lookupBestOf fetches the best-of-N setting for the match's category from
// the owning event's configuration, defaulting to 1.
func (s *scoreService) lookupBestOf(ctx context.Context, eventID, categoryID string) int {
	return s.lookupBestOfByRef(ctx, eventID, models.ParseCategoryRef(categoryID, ""))
}

func (s *scoreService) lookupBestOfByRef(ctx context.Context, eventID string, ref models.CategoryRef) int {
	const defaultBestOf = 1

	categories, err := s.eventRepo.GetCategories(ctx, eventID)
	if err != nil {
		return defaultBestOf
	}
	candidates := make([]CategoryCandidate, 0, len(categories))
	for _, c := range categories {
		candidates = append(candidates, CategoryCandidate{ID: c.ID, Label: c.Name})
	}
	resolved, ok := ResolveCategory(ref, candidates)
	if !ok {
		return defaultBestOf
	}
	for _, c := range categories {
		if c.ID == resolved.ID && c.SetsPerMatch > 0 {
			return c.SetsPerMatch
		}
	}
	return defaultBestOf
}

func outcomeWinnerID(outcome Outcome, match *models.Match) *string {
	switch outcome.Winner {
	case 1:
		id := match.PlayerA.ID
		return &id
	case 2:
		id := match.PlayerB.ID
		return &id
	default:
		// Recorded draw: winner stays null permanently.
		return nil
	}
}
