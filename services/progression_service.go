package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/esports-tournament-engine/metrics"
	"github.com/Dosada05/esports-tournament-engine/models"
	"github.com/Dosada05/esports-tournament-engine/repositories"
	"github.com/Dosada05/esports-tournament-engine/standings"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const postCommitTimeout = 10 * time.Second

type ProgressionService interface {
	// AdvancePhase computes the standings of a phase, completes it and moves
	// qualified teams on, or completes the tournament when the phase is last.
	AdvancePhase(ctx context.Context, tournamentID int, phaseName string) (*AdvanceResult, error)
	// PhaseStandings previews the standings of a phase without changing anything.
	PhaseStandings(ctx context.Context, tournamentID int, phaseName string) (*PhaseStandingsView, error)
	GetTournament(ctx context.Context, tournamentID int) (*models.Tournament, error)
	// SeedTournament stores a tournament definition and its match results together.
	SeedTournament(ctx context.Context, tournament *models.Tournament, matches []*models.Match) (*models.Tournament, error)
}

// PhaseStandingsView is a live, unsaved ranking of a phase.
type PhaseStandingsView struct {
	TournamentID   int                        `json:"tournament_id"`
	PhaseName      string                     `json:"phase_name"`
	PhaseStatus    models.PhaseStatus         `json:"phase_status"`
	MatchesCounted int                        `json:"matches_counted"`
	Overall        []models.Standing          `json:"overall"`
	Groups         []standings.GroupStandings `json:"groups"`
}

type progressionService struct {
	txManager      repositories.TxManager
	tournamentRepo repositories.TournamentRepository
	matchRepo      repositories.MatchRepository
	publishers     []EventPublisher
	archiver       StandingsArchiver
	locker         *tournamentLocker
	metrics        metrics.ProgressionMetrics
	tracer         trace.Tracer
	logger         *slog.Logger
	advanceTimeout time.Duration
	now            func() time.Time
}

// NewProgressionService wires the engine. archiver may be nil when the
// standings archive is not configured.
func NewProgressionService(
	txManager repositories.TxManager,
	tournamentRepo repositories.TournamentRepository,
	matchRepo repositories.MatchRepository,
	publishers []EventPublisher,
	archiver StandingsArchiver,
	progressionMetrics metrics.ProgressionMetrics,
	tracer trace.Tracer,
	logger *slog.Logger,
	advanceTimeout time.Duration,
) ProgressionService {
	if progressionMetrics == nil {
		progressionMetrics = metrics.NoOpMetrics{}
	}
	return &progressionService{
		txManager:      txManager,
		tournamentRepo: tournamentRepo,
		matchRepo:      matchRepo,
		publishers:     publishers,
		archiver:       archiver,
		locker:         newTournamentLocker(),
		metrics:        progressionMetrics,
		tracer:         tracer,
		logger:         logger,
		advanceTimeout: advanceTimeout,
		now:            time.Now,
	}
}

func (s *progressionService) AdvancePhase(ctx context.Context, tournamentID int, phaseName string) (*AdvanceResult, error) {
	ctx, span := s.tracer.Start(ctx, "ProgressionService.AdvancePhase", trace.WithAttributes(
		attribute.Int("tournament.id", tournamentID),
		attribute.String("phase.name", phaseName),
	))
	defer span.End()
	start := time.Now()

	if s.advanceTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.advanceTimeout)
		defer cancel()
	}

	result, err := s.advanceLocked(ctx, tournamentID, phaseName)
	if err != nil {
		s.metrics.RecordAdvance(advanceOutcome(err), time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.WarnContext(ctx, "phase advancement rejected",
			slog.Int("tournament_id", tournamentID),
			slog.String("phase", phaseName),
			slog.Any("error", err),
		)
		return nil, err
	}

	outcome := metrics.OutcomeAdvanced
	if result.TournamentCompleted {
		outcome = metrics.OutcomeCompleted
	}
	s.metrics.RecordAdvance(outcome, time.Since(start))
	s.metrics.RecordTeamsAdvanced(result.TeamsAdvanced)
	s.metrics.RecordMatchesProcessed(result.MatchesProcessed)
	s.metrics.RecordSkippedRules(len(result.SkippedRules))
	span.SetAttributes(
		attribute.Int("teams.advanced", result.TeamsAdvanced),
		attribute.Int("matches.processed", result.MatchesProcessed),
		attribute.Bool("tournament.completed", result.TournamentCompleted),
	)

	for _, skipped := range result.SkippedRules {
		s.logger.WarnContext(ctx, "qualification rule skipped",
			slog.Int("tournament_id", tournamentID),
			slog.String("phase", phaseName),
			slog.String("next_phase", skipped.Rule.NextPhase),
			slog.String("reason", skipped.Reason),
		)
	}
	s.logger.InfoContext(ctx, "phase advanced",
		slog.Int("tournament_id", tournamentID),
		slog.String("phase", phaseName),
		slog.Int("teams_advanced", result.TeamsAdvanced),
		slog.Int("standings_computed", result.StandingsComputed),
		slog.Int("matches_processed", result.MatchesProcessed),
		slog.Bool("tournament_completed", result.TournamentCompleted),
	)

	s.afterCommit(ctx, result)
	return result, nil
}

func (s *progressionService) advanceLocked(ctx context.Context, tournamentID int, phaseName string) (*AdvanceResult, error) {
	unlock, err := s.locker.Lock(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTournamentBusy, err)
	}
	defer unlock()

	var result *AdvanceResult
	err = s.txManager.RunInTx(ctx, func(ctx context.Context, exec repositories.SQLExecutor) error {
		tournament, err := s.tournamentRepo.GetByIDForUpdate(ctx, exec, tournamentID)
		if err != nil {
			if errors.Is(err, repositories.ErrTournamentNotFound) {
				return ErrTournamentNotFound
			}
			return fmt.Errorf("%w: loading tournament %d: %w", ErrPersistenceFailure, tournamentID, err)
		}

		phaseIdx, err := checkAdvanceable(tournament, phaseName)
		if err != nil {
			return err
		}

		completed := models.MatchStatusCompleted
		matches, err := s.matchRepo.ListByPhase(ctx, exec, repositories.MatchFilter{
			TournamentID: tournamentID,
			PhaseName:    phaseName,
			Status:       &completed,
		})
		if err != nil {
			return fmt.Errorf("%w: loading matches: %w", ErrPersistenceFailure, err)
		}

		result = applyAdvancement(tournament, phaseIdx, matches)

		if err := s.tournamentRepo.Update(ctx, exec, tournament); err != nil {
			if errors.Is(err, repositories.ErrTournamentVersionConflict) {
				return fmt.Errorf("%w: %w", ErrPersistenceFailure, ErrConcurrentModification)
			}
			return fmt.Errorf("%w: %w", ErrPersistenceFailure, err)
		}
		return nil
	})
	if err != nil {
		if !isProgressionError(err) {
			err = fmt.Errorf("%w: %w", ErrPersistenceFailure, err)
		}
		return nil, err
	}
	return result, nil
}

// afterCommit notifies publishers and archives final standings. Nothing here
// can undo the committed advancement, so failures are only logged.
func (s *progressionService) afterCommit(ctx context.Context, result *AdvanceResult) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), postCommitTimeout)
	defer cancel()

	if result.TournamentCompleted && s.archiver != nil {
		url, err := s.archiver.ArchiveFinalStandings(ctx, result.Tournament)
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to archive final standings",
				slog.Int("tournament_id", result.TournamentID),
				slog.Any("error", err),
			)
		} else {
			result.ArchiveURL = url
		}
	}

	event := newPhaseAdvancedEvent(result, s.now())
	for _, p := range s.publishers {
		if err := p.PublishPhaseAdvanced(ctx, event); err != nil {
			s.metrics.RecordEventPublishFailure(p.Name())
			s.logger.ErrorContext(ctx, "failed to publish phase advanced event",
				slog.String("publisher", p.Name()),
				slog.String("event_id", event.ID),
				slog.Any("error", err),
			)
		}
	}
}

func advanceOutcome(err error) string {
	switch {
	case errors.Is(err, ErrTournamentNotFound), errors.Is(err, ErrPhaseNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, ErrPhaseAlreadyCompleted),
		errors.Is(err, ErrTournamentNotAdvanceable),
		errors.Is(err, ErrConcurrentModification),
		errors.Is(err, ErrTournamentBusy):
		return metrics.OutcomeConflict
	default:
		return metrics.OutcomeFailed
	}
}

func (s *progressionService) PhaseStandings(ctx context.Context, tournamentID int, phaseName string) (*PhaseStandingsView, error) {
	ctx, span := s.tracer.Start(ctx, "ProgressionService.PhaseStandings")
	defer span.End()

	var (
		tournament *models.Tournament
		matches    []*models.Match
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := s.tournamentRepo.GetByID(gctx, nil, tournamentID)
		if err != nil {
			if errors.Is(err, repositories.ErrTournamentNotFound) {
				return ErrTournamentNotFound
			}
			return fmt.Errorf("failed to load tournament %d: %w", tournamentID, err)
		}
		tournament = t
		return nil
	})
	g.Go(func() error {
		completed := models.MatchStatusCompleted
		m, err := s.matchRepo.ListByPhase(gctx, nil, repositories.MatchFilter{
			TournamentID: tournamentID,
			PhaseName:    phaseName,
			Status:       &completed,
		})
		if err != nil {
			return fmt.Errorf("failed to load matches of phase %q: %w", phaseName, err)
		}
		matches = m
		return nil
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	idx := tournament.PhaseIndex(phaseName)
	if idx < 0 {
		return nil, ErrPhaseNotFound
	}
	phase := tournament.Phases[idx]

	view := &PhaseStandingsView{
		TournamentID:   tournamentID,
		PhaseName:      phase.Name,
		PhaseStatus:    phase.Status,
		MatchesCounted: len(matches),
		Overall:        standings.Aggregate(matches, nil),
		Groups:         make([]standings.GroupStandings, 0, len(phase.Groups)),
	}
	for _, grp := range phase.Groups {
		view.Groups = append(view.Groups, standings.GroupStandings{
			Name:      grp.Name,
			Standings: standings.Aggregate(matches, standings.NewTeamSet(grp.Teams)),
		})
	}
	return view, nil
}

func (s *progressionService) GetTournament(ctx context.Context, tournamentID int) (*models.Tournament, error) {
	ctx, span := s.tracer.Start(ctx, "ProgressionService.GetTournament")
	defer span.End()

	t, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament %d: %w", tournamentID, err)
	}
	return t, nil
}

func (s *progressionService) SeedTournament(ctx context.Context, tournament *models.Tournament, matches []*models.Match) (*models.Tournament, error) {
	ctx, span := s.tracer.Start(ctx, "ProgressionService.SeedTournament")
	defer span.End()

	if err := validateTournamentDefinition(tournament, matches); err != nil {
		return nil, err
	}
	if tournament.Status == "" {
		tournament.Status = models.StatusAnnounced
	}
	for i := range tournament.Phases {
		if tournament.Phases[i].Status == "" {
			tournament.Phases[i].Status = models.PhaseUpcoming
		}
	}

	err := s.txManager.RunInTx(ctx, func(ctx context.Context, exec repositories.SQLExecutor) error {
		if err := s.tournamentRepo.Create(ctx, exec, tournament); err != nil {
			if errors.Is(err, repositories.ErrTournamentNameConflict) {
				return ErrTournamentNameConflict
			}
			return fmt.Errorf("%w: creating tournament: %w", ErrPersistenceFailure, err)
		}
		for _, m := range matches {
			m.TournamentID = tournament.ID
			if m.Status == "" {
				m.Status = models.MatchStatusCompleted
			}
			if err := s.matchRepo.Create(ctx, exec, m); err != nil {
				if errors.Is(err, repositories.ErrMatchNumberConflict) {
					return fmt.Errorf("%w: match %d of phase %q is listed twice", ErrInvalidTournament, m.MatchNumber, m.PhaseName)
				}
				return fmt.Errorf("%w: creating match %d: %w", ErrPersistenceFailure, m.MatchNumber, err)
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "tournament seeded",
		slog.Int("tournament_id", tournament.ID),
		slog.String("name", tournament.Name),
		slog.Int("phases", len(tournament.Phases)),
		slog.Int("matches", len(matches)),
	)
	return tournament, nil
}

func validateTournamentDefinition(t *models.Tournament, matches []*models.Match) error {
	if t == nil || t.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidTournament)
	}
	if len(t.Phases) == 0 {
		return fmt.Errorf("%w: at least one phase is required", ErrInvalidTournament)
	}
	names := make(map[string]struct{}, len(t.Phases))
	for _, p := range t.Phases {
		if p.Name == "" {
			return fmt.Errorf("%w: phase name is required", ErrInvalidTournament)
		}
		if _, dup := names[p.Name]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicatePhaseName, p.Name)
		}
		names[p.Name] = struct{}{}
	}
	for _, p := range t.Phases {
		for _, r := range p.QualificationRules {
			if !r.Source.Valid() {
				return fmt.Errorf("%w: phase %q has a rule with unknown source %q", ErrInvalidTournament, p.Name, r.Source)
			}
		}
	}
	for _, m := range matches {
		if _, ok := names[m.PhaseName]; !ok {
			return fmt.Errorf("%w: match %d refers to unknown phase %q", ErrInvalidTournament, m.MatchNumber, m.PhaseName)
		}
	}
	return nil
}
