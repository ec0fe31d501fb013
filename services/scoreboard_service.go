package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/courtside-dev/scoreboard-system/models"
	"github.com/courtside-dev/scoreboard-system/repositories"
)

type ScoreboardQuery struct {
	CategoryRef models.CategoryRef
	RoundName   string
}

type ScoreboardService interface {
	// ListMatches serves category/round-scoped match reads. League queries
	// are strict (literal category id equality, no inference); everything
	// else may broaden the accepted category-id set through cross-reference
	// before filtering, but the final comparison stays literal.
	ListMatches(ctx context.Context, eventID string, query ScoreboardQuery) ([]*models.Match, error)
	DeleteMatch(ctx context.Context, matchID string) error
	// DeleteByScope removes matches in bulk for a category and optional round.
	DeleteByScope(ctx context.Context, eventID string, query ScoreboardQuery) (int64, error)
}

type scoreboardService struct {
	matchRepo   repositories.MatchRepository
	bracketRepo repositories.BracketRepository
	eventRepo   repositories.EventRepository
}

func NewScoreboardService(
	matchRepo repositories.MatchRepository,
	bracketRepo repositories.BracketRepository,
	eventRepo repositories.EventRepository,
) ScoreboardService {
	return &scoreboardService{
		matchRepo:   matchRepo,
		bracketRepo: bracketRepo,
		eventRepo:   eventRepo,
	}
}

func (s *scoreboardService) ListMatches(ctx context.Context, eventID string, query ScoreboardQuery) ([]*models.Match, error) {
	if query.RoundName == models.RoundLeague {
		// Isolation guarantee for round-robin scoreboards: category id is
		// mandatory and compared literally at the query boundary.
		if !query.CategoryRef.HasExactID() {
			return nil, ErrCategoryIDRequired
		}
		return s.matchRepo.ListByEvent(ctx, eventID, repositories.MatchFilter{
			CategoryID: query.CategoryRef.Value,
			RoundName:  models.RoundLeague,
		})
	}

	if query.CategoryRef.HasExactID() {
		return s.matchRepo.ListByEvent(ctx, eventID, repositories.MatchFilter{
			CategoryID: query.CategoryRef.Value,
			RoundName:  query.RoundName,
		})
	}
	if query.CategoryRef.IsZero() {
		return s.matchRepo.ListByEvent(ctx, eventID, repositories.MatchFilter{
			RoundName: query.RoundName,
		})
	}

	accepted, err := s.acceptedCategoryIDs(ctx, eventID, query.CategoryRef)
	if err != nil {
		return nil, err
	}

	matches, err := s.matchRepo.ListByEvent(ctx, eventID, repositories.MatchFilter{
		RoundName: query.RoundName,
	})
	if err != nil {
		return nil, err
	}

	// Fuzzy expansion only ever grows the accepted set; the filter itself
	// keeps literal membership.
	filtered := make([]*models.Match, 0, len(matches))
	for _, m := range matches {
		if accepted[m.CategoryID] {
			filtered = append(filtered, m)
		}
	}
	return filtered, nil
}

// acceptedCategoryIDs cross-references the bracket store and the event's
// category configuration to translate a label into the set of category-id
// values it may appear under. Exact id/label hits are preferred; normalized
// base-name matches only run when nothing exact was found.
func (s *scoreboardService) acceptedCategoryIDs(ctx context.Context, eventID string, ref models.CategoryRef) (map[string]bool, error) {
	var brackets []*models.Bracket
	var categories models.Categories

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		brackets, err = s.bracketRepo.ListByEvent(gCtx, eventID)
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = s.eventRepo.GetCategories(gCtx, eventID)
		if err == repositories.ErrEventNotFound {
			// The event row may not exist for imported scoreboards; the
			// bracket store alone can still resolve the label.
			err = nil
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	candidates := make([]CategoryCandidate, 0, len(brackets)+len(categories))
	for _, b := range brackets {
		candidates = append(candidates, CategoryCandidate{ID: b.CategoryID, Label: b.CategoryName})
	}
	for _, c := range categories {
		candidates = append(candidates, CategoryCandidate{ID: c.ID, Label: c.Name})
	}

	label := ref.Label
	if label == "" {
		label = ref.Value
	}

	accepted := make(map[string]bool)
	for _, c := range candidates {
		if c.ID == ref.Value || c.Label == label {
			accepted[c.ID] = true
		}
	}
	if len(accepted) > 0 {
		return accepted, nil
	}

	for _, c := range candidates {
		if NormalizeCategoryLabel(c.Label) == NormalizeCategoryLabel(label) ||
			BaseCategoryName(c.Label) == BaseCategoryName(label) {
			accepted[c.ID] = true
		}
	}
	// The raw values stay acceptable even when nothing cross-referenced:
	// historic matches may carry the label itself as their category id.
	accepted[ref.Value] = true
	if label != "" {
		accepted[label] = true
	}
	return accepted, nil
}

func (s *scoreboardService) DeleteMatch(ctx context.Context, matchID string) error {
	_, err := s.matchRepo.Delete(ctx, matchID)
	if err == repositories.ErrMatchNotFound {
		return ErrMatchNotFound
	}
	return err
}

func (s *scoreboardService) DeleteByScope(ctx context.Context, eventID string, query ScoreboardQuery) (int64, error) {
	if !query.CategoryRef.HasExactID() && query.CategoryRef.Value == "" {
		return 0, ErrCategoryIDRequired
	}
	return s.matchRepo.DeleteByScope(ctx, repositories.MatchScope{
		EventID:    eventID,
		CategoryID: query.CategoryRef.Value,
		RoundName:  query.RoundName,
	})
}
