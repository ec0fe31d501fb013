package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/courtside-dev/scoreboard-system/models"
	"github.com/courtside-dev/scoreboard-system/repositories"
)

// Broadcaster pushes scoreboard updates to connected clients. Satisfied by
// *live.Hub; a nil broadcaster is legal and turns pushes into no-ops.
type Broadcaster interface {
	BroadcastToRoom(roomID string, message interface{})
}

const (
	wsTypeMatchesGenerated = "MATCHES_GENERATED"
	wsTypeScoreUpdated     = "SCORE_UPDATED"
	wsTypeRoundFinalized   = "ROUND_FINALIZED"
)

func eventRoom(eventID string) string {
	return "event_" + eventID
}

type GenerateStats struct {
	CreatedCount int `json:"createdCount"`
	SkippedCount int `json:"skippedCount"`
}

type LeagueGenerateResult struct {
	CreatedCount  int `json:"createdCount"`
	ExistingCount int `json:"existingCount"`
}

type CreateMatchInput struct {
	EventID    string           `json:"event_id"`
	CategoryID string           `json:"category_id"`
	RoundName  string           `json:"round_name"`
	BracketID  string           `json:"bracket_id,omitempty"`
	PlayerA    models.PlayerRef `json:"player_a"`
	PlayerB    models.PlayerRef `json:"player_b"`
}

type GeneratorService interface {
	// GenerateFromBracket materializes match rows for every two-player slot
	// of a bracket, for all rounds or a single named round. Existing matches
	// are never overwritten; collisions count as skipped.
	GenerateFromBracket(ctx context.Context, eventID string, ref models.CategoryRef, roundName string) (*GenerateStats, error)
	// GenerateLeague produces one match per unordered in-group participant
	// pair, skipping pairs that already have one. Safe to call repeatedly.
	GenerateLeague(ctx context.Context, eventID string, ref models.CategoryRef) (*LeagueGenerateResult, error)
	// CreateManualMatch inserts a single match outside generation flows.
	CreateManualMatch(ctx context.Context, input CreateMatchInput) (*models.Match, error)
}

type generatorService struct {
	db          repositories.TxBeginner
	matchRepo   repositories.MatchRepository
	bracketRepo repositories.BracketRepository
	leagueRepo  repositories.LeagueConfigRepository
	hub         Broadcaster
}

func NewGeneratorService(
	db repositories.TxBeginner,
	matchRepo repositories.MatchRepository,
	bracketRepo repositories.BracketRepository,
	leagueRepo repositories.LeagueConfigRepository,
	hub Broadcaster,
) GeneratorService {
	return &generatorService{
		db:          db,
		matchRepo:   matchRepo,
		bracketRepo: bracketRepo,
		leagueRepo:  leagueRepo,
		hub:         hub,
	}
}

func (s *generatorService) GenerateFromBracket(ctx context.Context, eventID string, ref models.CategoryRef, roundName string) (*GenerateStats, error) {
	bracket, err := s.resolveBracket(ctx, eventID, ref)
	if err != nil {
		return nil, err
	}
	if len(bracket.Rounds) == 0 {
		return nil, withDebug(ErrBracketHasNoRounds, DebugPayload{
			"bracket_id": bracket.ID,
			"category":   bracket.CategoryName,
		})
	}

	rounds := bracket.Rounds
	if roundName != "" {
		round := bracket.FindRound(roundName)
		if round == nil {
			names := make([]string, 0, len(bracket.Rounds))
			for _, r := range bracket.Rounds {
				names = append(names, r.Name)
			}
			return nil, withDebug(ErrRoundNotFound, DebugPayload{
				"requested_round":  roundName,
				"available_rounds": names,
			})
		}
		rounds = models.BracketRounds{*round}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stats := &GenerateStats{}
	for _, round := range rounds {
		existing, err := s.matchRepo.ListByScope(ctx, tx, repositories.MatchScope{
			BracketID: bracket.ID,
			RoundName: round.Name,
		})
		if err != nil {
			return nil, err
		}
		existingIndexes := make(map[int]bool, len(existing))
		for _, m := range existing {
			existingIndexes[m.MatchIndex] = true
		}

		for slotIndex, slot := range round.Slots {
			// Byes and empty slots never materialize: a bye winner is
			// already decided structurally.
			if !slot.IsPlayable() {
				continue
			}
			if existingIndexes[slotIndex] {
				stats.SkippedCount++
				continue
			}

			match := &models.Match{
				ID:         uuid.NewString(),
				EventID:    eventID,
				CategoryID: bracket.CategoryID,
				BracketID:  bracket.ID,
				RoundName:  round.Name,
				MatchIndex: slotIndex,
				PlayerA:    *slot.Player1,
				PlayerB:    *slot.Player2,
				Status:     models.MatchStatusScheduled,
			}
			inserted, err := s.matchRepo.CreateIgnoreConflict(ctx, tx, match)
			if err != nil {
				return nil, fmt.Errorf("failed to insert match for slot %d of round %q: %w", slotIndex, round.Name, err)
			}
			if inserted {
				stats.CreatedCount++
			} else {
				// Lost a race with a concurrent generation call; the unique
				// index on (bracket_id, round_name, match_index) absorbed it.
				stats.SkippedCount++
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit generation: %w", err)
	}

	if s.hub != nil && stats.CreatedCount > 0 {
		s.hub.BroadcastToRoom(eventRoom(eventID), map[string]interface{}{
			"type": wsTypeMatchesGenerated,
			"payload": map[string]interface{}{
				"event_id":    eventID,
				"category_id": bracket.CategoryID,
				"stats":       stats,
			},
		})
	}
	return stats, nil
}

// resolveBracket picks the target bracket by exact category id when the ref
// is UUID-shaped, otherwise through the label ladder.
func (s *generatorService) resolveBracket(ctx context.Context, eventID string, ref models.CategoryRef) (*models.Bracket, error) {
	brackets, err := s.bracketRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	real := make([]*models.Bracket, 0, len(brackets))
	candidates := make([]CategoryCandidate, 0, len(brackets))
	for _, b := range brackets {
		if b.Mode != models.BracketModeBracket {
			continue
		}
		real = append(real, b)
		candidates = append(candidates, CategoryCandidate{ID: b.CategoryID, Label: b.CategoryName})
	}

	if ref.Kind == models.CategoryRefByID {
		for _, b := range real {
			if b.CategoryID == ref.Value {
				return b, nil
			}
		}
	}
	if match, ok := ResolveCategory(ref, candidates); ok {
		for _, b := range real {
			if b.CategoryID == match.ID && b.CategoryName == match.Label {
				return b, nil
			}
		}
	}

	return nil, withDebug(ErrBracketNotFound, DebugPayload{
		"event_id":             eventID,
		"category_id":          ref.Value,
		"category_label":       ref.Label,
		"available_categories": candidateLabels(candidates),
	})
}

func (s *generatorService) GenerateLeague(ctx context.Context, eventID string, ref models.CategoryRef) (*LeagueGenerateResult, error) {
	configs, err := s.leagueRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	candidates := make([]CategoryCandidate, 0, len(configs))
	for _, c := range configs {
		candidates = append(candidates, CategoryCandidate{ID: c.CategoryID, Label: c.CategoryName})
	}

	resolved, ok := ResolveCategory(ref, candidates)
	if !ok {
		return nil, withDebug(ErrLeagueNotFound, DebugPayload{
			"event_id":             eventID,
			"category_id":          ref.Value,
			"category_label":       ref.Label,
			"available_categories": candidateLabels(candidates),
		})
	}
	var config *models.LeagueConfig
	for _, c := range configs {
		if c.CategoryID == resolved.ID && c.CategoryName == resolved.Label {
			config = c
			break
		}
	}
	if config == nil {
		return nil, ErrLeagueNotFound
	}

	if len(config.Participants) < 2 {
		return nil, withDebug(ErrNotEnoughParticipants, DebugPayload{
			"category":          config.CategoryName,
			"participant_count": len(config.Participants),
		})
	}

	groups := partitionGroups(config.Participants)

	existing, err := s.matchRepo.ListByScope(ctx, nil, repositories.MatchScope{
		EventID:    eventID,
		CategoryID: config.CategoryID,
		RoundName:  models.RoundLeague,
	})
	if err != nil {
		return nil, err
	}

	bracketID, err := s.resolvePlaceholderBracket(ctx, eventID, config, existing)
	if err != nil {
		return nil, err
	}

	existingPairs := make(map[string]bool, len(existing))
	for _, m := range existing {
		existingPairs[pairKey(m.PlayerA, m.PlayerB)] = true
	}

	nextIndex, err := s.matchRepo.MaxMatchIndex(ctx, nil, repositories.MatchScope{
		EventID:    eventID,
		CategoryID: config.CategoryID,
		RoundName:  models.RoundLeague,
	})
	if err != nil {
		return nil, err
	}
	// A fresh index query can miss rows the pair scan saw (mixed historic
	// category ids); fall back to the scanned matches.
	for _, m := range existing {
		if m.MatchIndex > nextIndex {
			nextIndex = m.MatchIndex
		}
	}

	var queued []*models.Match
	for _, group := range sortedGroupNames(groups) {
		members := groups[group]
		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				playerA, playerB := members[i], members[j]
				if existingPairs[pairKey(playerA, playerB)] {
					continue
				}
				nextIndex++
				queued = append(queued, &models.Match{
					ID:         uuid.NewString(),
					EventID:    eventID,
					CategoryID: config.CategoryID,
					BracketID:  bracketID,
					RoundName:  models.RoundLeague,
					MatchIndex: nextIndex,
					PlayerA:    playerA,
					PlayerB:    playerB,
					Status:     models.MatchStatusScheduled,
				})
			}
		}
	}

	result := &LeagueGenerateResult{ExistingCount: len(existing)}
	if len(queued) == 0 {
		// Idempotent: everything is already paired.
		return result, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, match := range queued {
		inserted, err := s.matchRepo.CreateIgnoreConflict(ctx, tx, match)
		if err != nil {
			return nil, fmt.Errorf("failed to insert league match %d: %w", match.MatchIndex, err)
		}
		if inserted {
			result.CreatedCount++
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit league generation: %w", err)
	}

	if s.hub != nil && result.CreatedCount > 0 {
		s.hub.BroadcastToRoom(eventRoom(eventID), map[string]interface{}{
			"type": wsTypeMatchesGenerated,
			"payload": map[string]interface{}{
				"event_id":    eventID,
				"category_id": config.CategoryID,
				"created":     result.CreatedCount,
			},
		})
	}
	return result, nil
}

// resolvePlaceholderBracket finds a bracket id to hang league matches on.
// The matches table requires a non-null bracket reference even though a
// round-robin has no bracket; reuse beats search beats creation.
func (s *generatorService) resolvePlaceholderBracket(ctx context.Context, eventID string, config *models.LeagueConfig, existing []*models.Match) (string, error) {
	for _, m := range existing {
		if m.BracketID != "" {
			return m.BracketID, nil
		}
	}

	brackets, err := s.bracketRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return "", err
	}
	for _, b := range brackets {
		if b.CategoryID == config.CategoryID {
			return b.ID, nil
		}
	}

	placeholder := &models.Bracket{
		ID:           uuid.NewString(),
		EventID:      eventID,
		CategoryID:   config.CategoryID,
		CategoryName: config.CategoryName,
		Mode:         models.BracketModeLeaguePlaceholder,
	}
	if err := s.bracketRepo.Create(ctx, nil, placeholder); err != nil {
		return "", fmt.Errorf("failed to create placeholder bracket: %w", err)
	}
	return placeholder.ID, nil
}

func (s *generatorService) CreateManualMatch(ctx context.Context, input CreateMatchInput) (*models.Match, error) {
	if input.EventID == "" || input.CategoryID == "" || input.RoundName == "" {
		return nil, fmt.Errorf("%w: event_id, category_id and round_name are required", ErrMissingRequiredField)
	}

	bracketID, err := s.resolveManualBracket(ctx, input)
	if err != nil {
		return nil, err
	}

	maxIndex, err := s.matchRepo.MaxMatchIndex(ctx, nil, repositories.MatchScope{
		BracketID: bracketID,
		RoundName: input.RoundName,
	})
	if err != nil {
		return nil, err
	}

	match := &models.Match{
		ID:         uuid.NewString(),
		EventID:    input.EventID,
		CategoryID: input.CategoryID,
		BracketID:  bracketID,
		RoundName:  input.RoundName,
		MatchIndex: maxIndex + 1,
		PlayerA:    input.PlayerA,
		PlayerB:    input.PlayerB,
		Status:     models.MatchStatusScheduled,
	}
	if err := s.matchRepo.Create(ctx, nil, match); err != nil {
		return nil, err
	}
	return match, nil
}

// resolveManualBracket exists solely to satisfy the non-null bracket
// reference without making the caller aware of it. Priority: provided id,
// category bracket (BRACKET mode preferred), any event bracket, then a
// fresh placeholder.
func (s *generatorService) resolveManualBracket(ctx context.Context, input CreateMatchInput) (string, error) {
	if input.BracketID != "" {
		if _, err := s.bracketRepo.GetByID(ctx, input.BracketID); err == nil {
			return input.BracketID, nil
		}
	}

	brackets, err := s.bracketRepo.ListByEvent(ctx, input.EventID)
	if err != nil {
		return "", err
	}

	var categoryFallback, anyFallback string
	for _, b := range brackets {
		if anyFallback == "" {
			anyFallback = b.ID
		}
		if b.CategoryID != input.CategoryID {
			continue
		}
		if b.Mode == models.BracketModeBracket {
			return b.ID, nil
		}
		if categoryFallback == "" {
			categoryFallback = b.ID
		}
	}
	if categoryFallback != "" {
		return categoryFallback, nil
	}
	if anyFallback != "" {
		return anyFallback, nil
	}

	placeholder := &models.Bracket{
		ID:           uuid.NewString(),
		EventID:      input.EventID,
		CategoryID:   input.CategoryID,
		CategoryName: input.CategoryID,
		Mode:         models.BracketModeLeaguePlaceholder,
	}
	if err := s.bracketRepo.Create(ctx, nil, placeholder); err != nil {
		return "", fmt.Errorf("failed to create placeholder bracket: %w", err)
	}
	return placeholder.ID, nil
}

// partitionGroups buckets participants by case-normalized group label,
// defaulting to group "A" when absent.
func partitionGroups(participants []models.PlayerRef) map[string][]models.PlayerRef {
	groups := make(map[string][]models.PlayerRef)
	for _, p := range participants {
		group := strings.ToUpper(strings.TrimSpace(p.Group))
		if group == "" {
			group = models.DefaultGroup
		}
		normalized := p
		normalized.Group = group
		groups[group] = append(groups[group], normalized)
	}
	return groups
}

func sortedGroupNames(groups map[string][]models.PlayerRef) []string {
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// pairKey identifies an unordered participant pair within a group.
func pairKey(a, b models.PlayerRef) string {
	group := strings.ToUpper(strings.TrimSpace(a.Group))
	if group == "" {
		group = models.DefaultGroup
	}
	first, second := a.ID, b.ID
	if second < first {
		first, second = second, first
	}
	return group + "|" + first + "|" + second
}
