package services

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/courtside-dev/scoreboard-system/models"
	"github.com/courtside-dev/scoreboard-system/repositories"
)

// fakeTxBeginner hands out no-op transactions so service transaction flows
// can run against the in-memory repositories.
type fakeTxBeginner struct {
	beginErr error
	commits  int
}

func (b *fakeTxBeginner) BeginTx(ctx context.Context, opts *sql.TxOptions) (repositories.Tx, error) {
	if b.beginErr != nil {
		return nil, b.beginErr
	}
	return &fakeTx{beginner: b}, nil
}

type fakeTx struct {
	beginner *fakeTxBeginner
}

func (t *fakeTx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, nil
}

func (t *fakeTx) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return nil, nil
}

func (t *fakeTx) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return nil
}

func (t *fakeTx) Commit() error {
	t.beginner.commits++
	return nil
}

func (t *fakeTx) Rollback() error { return nil }

// fakeMatchRepo mirrors the Postgres repository's semantics in memory,
// including the (bracket_id, round_name, match_index) idempotency key.
type fakeMatchRepo struct {
	mu      sync.Mutex
	matches []*models.Match
}

func conflictKey(m *models.Match) string {
	return fmt.Sprintf("%s|%s|%d", m.BracketID, m.RoundName, m.MatchIndex)
}

func (r *fakeMatchRepo) Create(ctx context.Context, exec repositories.SQLExecutor, match *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *match
	r.matches = append(r.matches, &clone)
	return nil
}

func (r *fakeMatchRepo) CreateIgnoreConflict(ctx context.Context, exec repositories.SQLExecutor, match *models.Match) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.matches {
		if conflictKey(existing) == conflictKey(match) {
			return false, nil
		}
	}
	clone := *match
	r.matches = append(r.matches, &clone)
	return true, nil
}

func (r *fakeMatchRepo) GetByID(ctx context.Context, id string) (*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.matches {
		if m.ID == id {
			clone := *m
			return &clone, nil
		}
	}
	return nil, repositories.ErrMatchNotFound
}

func (r *fakeMatchRepo) ListByEvent(ctx context.Context, eventID string, filter repositories.MatchFilter) ([]*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Match
	for _, m := range r.matches {
		if m.EventID != eventID {
			continue
		}
		if filter.CategoryID != "" && m.CategoryID != filter.CategoryID {
			continue
		}
		if filter.RoundName != "" && m.RoundName != filter.RoundName {
			continue
		}
		clone := *m
		out = append(out, &clone)
	}
	return out, nil
}

func inScope(m *models.Match, scope repositories.MatchScope) bool {
	if scope.BracketID != "" {
		if m.BracketID != scope.BracketID {
			return false
		}
	} else {
		if m.EventID != scope.EventID {
			return false
		}
		if scope.CategoryID != "" && m.CategoryID != scope.CategoryID {
			return false
		}
	}
	return scope.RoundName == "" || m.RoundName == scope.RoundName
}

func (r *fakeMatchRepo) ListByScope(ctx context.Context, exec repositories.SQLExecutor, scope repositories.MatchScope) ([]*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Match
	for _, m := range r.matches {
		if inScope(m, scope) {
			clone := *m
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeMatchRepo) MaxMatchIndex(ctx context.Context, exec repositories.SQLExecutor, scope repositories.MatchScope) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	maxIndex := 0
	for _, m := range r.matches {
		if inScope(m, scope) && m.MatchIndex > maxIndex {
			maxIndex = m.MatchIndex
		}
	}
	return maxIndex, nil
}

func (r *fakeMatchRepo) UpdateResult(ctx context.Context, exec repositories.SQLExecutor, id string, score *models.MatchScore, winnerID *string, status models.MatchStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.matches {
		if m.ID == id {
			m.Score = score
			m.WinnerID = winnerID
			m.Status = status
			return nil
		}
	}
	return repositories.ErrMatchNotFound
}

func (r *fakeMatchRepo) Delete(ctx context.Context, id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, m := range r.matches {
		if m.ID == id {
			r.matches = append(r.matches[:i], r.matches[i+1:]...)
			return 1, nil
		}
	}
	return 0, repositories.ErrMatchNotFound
}

func (r *fakeMatchRepo) DeleteByScope(ctx context.Context, scope repositories.MatchScope) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kept []*models.Match
	var deleted int64
	for _, m := range r.matches {
		if inScope(m, scope) {
			deleted++
			continue
		}
		kept = append(kept, m)
	}
	r.matches = kept
	return deleted, nil
}

type fakeBracketRepo struct {
	brackets []*models.Bracket
}

func (r *fakeBracketRepo) Create(ctx context.Context, exec repositories.SQLExecutor, bracket *models.Bracket) error {
	clone := *bracket
	r.brackets = append(r.brackets, &clone)
	return nil
}

func (r *fakeBracketRepo) GetByID(ctx context.Context, id string) (*models.Bracket, error) {
	for _, b := range r.brackets {
		if b.ID == id {
			return b, nil
		}
	}
	return nil, repositories.ErrBracketNotFound
}

func (r *fakeBracketRepo) ListByEvent(ctx context.Context, eventID string) ([]*models.Bracket, error) {
	var out []*models.Bracket
	for _, b := range r.brackets {
		if b.EventID == eventID {
			out = append(out, b)
		}
	}
	return out, nil
}

type fakeLeagueRepo struct {
	configs []*models.LeagueConfig
}

func (r *fakeLeagueRepo) ListByEvent(ctx context.Context, eventID string) ([]*models.LeagueConfig, error) {
	var out []*models.LeagueConfig
	for _, c := range r.configs {
		if c.EventID == eventID {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeEventRepo struct {
	events map[string]*models.Event
}

func (r *fakeEventRepo) GetByID(ctx context.Context, id string) (*models.Event, error) {
	if e, ok := r.events[id]; ok {
		return e, nil
	}
	return nil, repositories.ErrEventNotFound
}

func (r *fakeEventRepo) GetCategories(ctx context.Context, eventID string) (models.Categories, error) {
	if e, ok := r.events[eventID]; ok {
		return e.Categories, nil
	}
	return nil, repositories.ErrEventNotFound
}

// fakeHub records room broadcasts.
type fakeHub struct {
	mu       sync.Mutex
	messages []fakeBroadcast
}

type fakeBroadcast struct {
	Room    string
	Message interface{}
}

func (h *fakeHub) BroadcastToRoom(roomID string, message interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, fakeBroadcast{Room: roomID, Message: message})
}

func playerRef(id, name string) models.PlayerRef {
	return models.PlayerRef{ID: id, Name: name}
}

func groupedPlayer(id, name, group string) models.PlayerRef {
	return models.PlayerRef{ID: id, Name: name, Group: group}
}

func slotOf(a, b *models.PlayerRef) models.BracketSlot {
	return models.BracketSlot{Player1: a, Player2: b}
}

func refPtr(p models.PlayerRef) *models.PlayerRef { return &p }
