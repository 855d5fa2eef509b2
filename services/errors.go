package services

import "errors"

// Ошибки, возвращаемые движком прогрессии и используемые при маппинге в HTTP.
var (
	// NotFound
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrPhaseNotFound      = errors.New("phase not found in tournament")

	// Conflict
	ErrPhaseAlreadyCompleted    = errors.New("phase has already been advanced")
	ErrTournamentNotAdvanceable = errors.New("tournament is completed or cancelled")
	ErrConcurrentModification   = errors.New("tournament was modified concurrently, retry the request")
	ErrTournamentBusy           = errors.New("tournament is being advanced by another request")
	ErrTournamentNameConflict   = errors.New("tournament name already exists")

	// Invalid tournament structure
	ErrDuplicatePhaseName = errors.New("tournament has duplicate phase names")
	ErrInvalidTournament  = errors.New("invalid tournament definition")

	// Store failures. Callers may retry the whole operation.
	ErrPersistenceFailure = errors.New("failed to save tournament progression")
)

// isProgressionError reports whether err already carries one of the sentinels above.
func isProgressionError(err error) bool {
	for _, target := range []error{
		ErrTournamentNotFound, ErrPhaseNotFound,
		ErrPhaseAlreadyCompleted, ErrTournamentNotAdvanceable, ErrConcurrentModification,
		ErrTournamentBusy, ErrTournamentNameConflict,
		ErrDuplicatePhaseName, ErrInvalidTournament, ErrPersistenceFailure,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
