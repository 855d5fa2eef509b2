package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/Dosada05/esports-tournament-engine/models"
	"github.com/Dosada05/esports-tournament-engine/repositories"
)

type fakeTxManager struct {
	mu          sync.Mutex
	calls       int
	RunInTxFunc func(ctx context.Context, fn func(ctx context.Context, exec repositories.SQLExecutor) error) error
}

func (f *fakeTxManager) RunInTx(ctx context.Context, fn func(ctx context.Context, exec repositories.SQLExecutor) error) error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.RunInTxFunc != nil {
		return f.RunInTxFunc(ctx, fn)
	}
	return fn(ctx, nil)
}

// fakeTournamentRepo keeps serialized copies so callers never share memory
// with the stored document, like a real database.
type fakeTournamentRepo struct {
	mu      sync.Mutex
	docs    map[int][]byte
	nextID  int
	updates int
	trace   []string

	CreateFunc           func(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament) error
	GetByIDForUpdateFunc func(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Tournament, error)
	UpdateFunc           func(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament) error
}

func newFakeTournamentRepo(tournaments ...*models.Tournament) *fakeTournamentRepo {
	r := &fakeTournamentRepo{docs: make(map[int][]byte), nextID: 1}
	for _, t := range tournaments {
		if t.Version == 0 {
			t.Version = 1
		}
		r.put(t)
		if t.ID >= r.nextID {
			r.nextID = t.ID + 1
		}
	}
	return r
}

func (r *fakeTournamentRepo) record(step string) {
	r.trace = append(r.trace, step)
}

func (r *fakeTournamentRepo) put(t *models.Tournament) {
	raw, err := json.Marshal(t)
	if err != nil {
		panic(err)
	}
	r.docs[t.ID] = raw
}

func (r *fakeTournamentRepo) load(id int) (*models.Tournament, error) {
	raw, ok := r.docs[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	var t models.Tournament
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Stored returns a copy of the persisted document.
func (r *fakeTournamentRepo) Stored(id int) *models.Tournament {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, err := r.load(id)
	if err != nil {
		return nil
	}
	return t
}

func (r *fakeTournamentRepo) Updates() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updates
}

func (r *fakeTournamentRepo) Create(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("Create")
	if r.CreateFunc != nil {
		return r.CreateFunc(ctx, exec, t)
	}
	for id := range r.docs {
		existing, _ := r.load(id)
		if existing != nil && existing.Name == t.Name {
			return repositories.ErrTournamentNameConflict
		}
	}
	t.ID = r.nextID
	t.Version = 1
	r.nextID++
	r.put(t)
	return nil
}

func (r *fakeTournamentRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("GetByID")
	return r.load(id)
}

func (r *fakeTournamentRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("GetByIDForUpdate")
	if r.GetByIDForUpdateFunc != nil {
		return r.GetByIDForUpdateFunc(ctx, exec, id)
	}
	return r.load(id)
}

func (r *fakeTournamentRepo) Update(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("Update")
	if r.UpdateFunc != nil {
		return r.UpdateFunc(ctx, exec, t)
	}
	current, err := r.load(t.ID)
	if err != nil {
		return err
	}
	if current.Version != t.Version {
		return repositories.ErrTournamentVersionConflict
	}
	t.Version++
	r.put(t)
	r.updates++
	return nil
}

type fakeMatchRepo struct {
	mu      sync.Mutex
	matches []*models.Match
	filters []repositories.MatchFilter

	ListByPhaseFunc func(ctx context.Context, exec repositories.SQLExecutor, filter repositories.MatchFilter) ([]*models.Match, error)
	CreateFunc      func(ctx context.Context, exec repositories.SQLExecutor, m *models.Match) error
}

func (r *fakeMatchRepo) Create(ctx context.Context, exec repositories.SQLExecutor, m *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.CreateFunc != nil {
		return r.CreateFunc(ctx, exec, m)
	}
	for _, existing := range r.matches {
		if existing.TournamentID == m.TournamentID && existing.PhaseName == m.PhaseName && existing.MatchNumber == m.MatchNumber {
			return repositories.ErrMatchNumberConflict
		}
	}
	m.ID = len(r.matches) + 1
	r.matches = append(r.matches, m)
	return nil
}

func (r *fakeMatchRepo) ListByPhase(ctx context.Context, exec repositories.SQLExecutor, filter repositories.MatchFilter) ([]*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filters = append(r.filters, filter)
	if r.ListByPhaseFunc != nil {
		return r.ListByPhaseFunc(ctx, exec, filter)
	}
	out := make([]*models.Match, 0)
	for _, m := range r.matches {
		if m.TournamentID != filter.TournamentID || m.PhaseName != filter.PhaseName {
			continue
		}
		if filter.Status != nil && m.Status != *filter.Status {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	name   string
	err    error
	events []PhaseAdvancedEvent
}

func (p *fakePublisher) Name() string { return p.name }

func (p *fakePublisher) PublishPhaseAdvanced(ctx context.Context, event PhaseAdvancedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *fakePublisher) Events() []PhaseAdvancedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]PhaseAdvancedEvent(nil), p.events...)
}

type fakeArchiver struct {
	archived []int
	url      string
	err      error
}

func (a *fakeArchiver) ArchiveFinalStandings(ctx context.Context, t *models.Tournament) (string, error) {
	a.archived = append(a.archived, t.ID)
	if a.err != nil {
		return "", a.err
	}
	return a.url, nil
}

var errStoreDown = errors.New("connection reset by peer")
