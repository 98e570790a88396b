package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// SessionFactory opens QuizSessions bound to a storage scope. Callers that
// open the same scope share one live session, so a single countdown writes
// the scope's snapshot.
type SessionFactory struct {
	Questions QuestionRepository
	Set       string
	Store     SnapshotStore
	Scheduler Scheduler
	Duration  time.Duration
	Tick      time.Duration
	Logger    zerolog.Logger

	mu   sync.Mutex
	live map[string]*liveSession
}

type liveSession struct {
	session *QuizSession
	refs    int
}

// Open returns the live session for scope, restoring and starting it on first use.
// The returned release drops the caller's reference; the last release closes the session.
func (f *SessionFactory) Open(ctx context.Context, scope string) (*QuizSession, func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if entry, ok := f.live[scope]; ok {
		entry.refs++
		return entry.session, f.releaser(scope, entry), nil
	}

	session, err := f.start(ctx, scope)
	if err != nil {
		return nil, nil, err
	}
	if f.live == nil {
		f.live = make(map[string]*liveSession)
	}
	entry := &liveSession{session: session, refs: 1}
	f.live[scope] = entry
	return session, f.releaser(scope, entry), nil
}

// Live reports how many scopes currently have an open session.
func (f *SessionFactory) Live() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.live)
}

func (f *SessionFactory) releaser(scope string, entry *liveSession) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			entry.refs--
			if entry.refs > 0 {
				return
			}
			if f.live[scope] == entry {
				delete(f.live, scope)
			}
			// Closed under the registry lock so a reopen never overlaps the old timer.
			entry.session.Close()
		})
	}
}

func (f *SessionFactory) start(ctx context.Context, scope string) (*QuizSession, error) {
	questions, err := f.Questions.GetQuestions(ctx, f.Set)
	if err != nil {
		return nil, fmt.Errorf("load question set %q: %w", f.Set, err)
	}
	log := f.Logger.With().Str("scope", scope).Logger()
	session, err := NewQuizSession(SessionOptions{
		Questions: questions,
		Bridge:    NewPersistenceBridge(f.Store, ScopedKey(scope), log),
		Scheduler: f.Scheduler,
		Duration:  f.Duration,
		Tick:      f.Tick,
		Logger:    log,
	})
	if err != nil {
		return nil, err
	}
	if err := session.Start(ctx); err != nil {
		session.Close()
		return nil, err
	}
	return session, nil
}
