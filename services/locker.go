package services

import (
	"context"
	"sync"
)

// tournamentLocker serializes work per tournament while letting different
// tournaments proceed in parallel. Entries are dropped once nobody holds or
// waits for them.
type tournamentLocker struct {
	mu    sync.Mutex
	locks map[int]*lockEntry
}

type lockEntry struct {
	token chan struct{}
	refs  int
}

func newTournamentLocker() *tournamentLocker {
	return &tournamentLocker{locks: make(map[int]*lockEntry)}
}

// Lock blocks until the tournament is free or ctx is done. The returned
// function releases the lock and is safe to call more than once.
func (l *tournamentLocker) Lock(ctx context.Context, tournamentID int) (func(), error) {
	l.mu.Lock()
	e, ok := l.locks[tournamentID]
	if !ok {
		e = &lockEntry{token: make(chan struct{}, 1)}
		l.locks[tournamentID] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.token <- struct{}{}:
	case <-ctx.Done():
		l.release(tournamentID, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.token
			l.release(tournamentID, e)
		})
	}, nil
}

func (l *tournamentLocker) release(tournamentID int, e *lockEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, tournamentID)
	}
}

func (l *tournamentLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
