package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"quiz-widget/internal/app"
	"quiz-widget/internal/domain"
	"quiz-widget/internal/infra/memory"
)

func newTestFactory(scheduler app.Scheduler, store app.SnapshotStore) *app.SessionFactory {
	return &app.SessionFactory{
		Questions: memory.NewQuestionRepository(memory.NewStaticQuestionLoader(map[string][]domain.Question{
			"default": sampleQuestions(),
		}), 0),
		Set:       "default",
		Store:     store,
		Scheduler: scheduler,
		Duration:  60 * time.Second,
		Logger:    zerolog.Nop(),
	}
}

func TestFactorySharesSessionPerScope(t *testing.T) {
	ctx := context.Background()
	scheduler := &manualScheduler{}
	factory := newTestFactory(scheduler, memory.NewSnapshotStore())

	a, releaseA, err := factory.Open(ctx, "tab")
	if err != nil {
		t.Fatalf("open a: %v", err)
	}
	b, releaseB, err := factory.Open(ctx, "tab")
	if err != nil {
		t.Fatalf("open b: %v", err)
	}
	if a != b {
		t.Fatalf("expected one session per scope")
	}
	if n := scheduler.activeCount(); n != 1 {
		t.Fatalf("expected a single countdown for the scope, got %d", n)
	}

	other, releaseOther, err := factory.Open(ctx, "other")
	if err != nil {
		t.Fatalf("open other: %v", err)
	}
	defer releaseOther()
	if other == a {
		t.Fatalf("expected separate sessions for separate scopes")
	}

	releaseA()
	releaseA()
	if err := b.Select(ctx, 1); err != nil {
		t.Fatalf("session should stay open while referenced: %v", err)
	}
	releaseB()
	if err := b.Select(ctx, 1); !errors.Is(err, domain.ErrSessionClosed) {
		t.Fatalf("expected session closed after last release, got %v", err)
	}
	if n := factory.Live(); n != 1 {
		t.Fatalf("expected only the other scope live, got %d", n)
	}
}

func TestSharedSessionKeepsProgressOnTimeout(t *testing.T) {
	ctx := context.Background()
	scheduler := &manualScheduler{}
	store := memory.NewSnapshotStore()
	factory := newTestFactory(scheduler, store)

	first, releaseFirst, err := factory.Open(ctx, "tab")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	second, releaseSecond, err := factory.Open(ctx, "tab")
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	_ = second.Select(ctx, 1)
	_ = second.Submit(ctx)
	_ = second.Advance(ctx)
	scheduler.tickN(60)
	if state := first.State(); state.Phase != domain.PhaseTimeUp || state.CurrentQuestionIndex != 1 || state.CorrectCount != 1 {
		t.Fatalf("expected time-up on the second question with the score kept, got %+v", state)
	}
	releaseFirst()
	releaseSecond()

	reopened, release, err := factory.Open(ctx, "tab")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer release()
	state := reopened.State()
	if state.CurrentQuestionIndex != 1 || state.CorrectCount != 1 || state.Phase != domain.PhaseTimeUp {
		t.Fatalf("expected stored progress to survive, got %+v", state)
	}
}
