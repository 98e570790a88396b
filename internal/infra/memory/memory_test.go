package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"quiz-widget/internal/domain"
)

func TestQuestionRepositoryCaches(t *testing.T) {
	loader := &countingLoader{
		QuestionLoader: NewStaticQuestionLoader(map[string][]domain.Question{
			"default": sampleQuestions(),
		}),
	}
	repo := NewQuestionRepository(loader, time.Minute)

	if _, err := repo.GetQuestions(context.Background(), "default"); err != nil {
		t.Fatalf("get questions: %v", err)
	}
	if _, err := repo.GetQuestions(context.Background(), "default"); err != nil {
		t.Fatalf("get questions 2: %v", err)
	}
	if n := loader.calls.Load(); n != 1 {
		t.Fatalf("expected loader once, got %d", n)
	}
}

func TestQuestionRepositoryExpires(t *testing.T) {
	loader := &countingLoader{
		QuestionLoader: NewStaticQuestionLoader(map[string][]domain.Question{
			"default": sampleQuestions(),
		}),
	}
	repo := NewQuestionRepository(loader, time.Minute)
	now := time.Now()
	repo.clock = func() time.Time { return now }

	_, _ = repo.GetQuestions(context.Background(), "default")
	now = now.Add(2 * time.Minute)
	_, _ = repo.GetQuestions(context.Background(), "default")

	if n := loader.calls.Load(); n != 2 {
		t.Fatalf("expected reload after expiry, got %d calls", n)
	}
}

func TestQuestionRepositoryConcurrentLoadsOnce(t *testing.T) {
	loader := &countingLoader{
		QuestionLoader: NewStaticQuestionLoader(map[string][]domain.Question{
			"default": sampleQuestions(),
		}),
		delay: 20 * time.Millisecond,
	}
	repo := NewQuestionRepository(loader, 0)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.GetQuestions(context.Background(), "default"); err != nil {
				t.Errorf("get questions: %v", err)
			}
		}()
	}
	wg.Wait()
	if n := loader.calls.Load(); n != 1 {
		t.Fatalf("expected a single load, got %d", n)
	}
}

func TestQuestionRepositoryRejectsInvalidSets(t *testing.T) {
	repo := NewQuestionRepository(NewStaticQuestionLoader(map[string][]domain.Question{
		"empty": {},
		"bad":   {{Text: "Only one option", Options: []string{"a"}}},
	}), 0)

	if _, err := repo.GetQuestions(context.Background(), "empty"); !errors.Is(err, domain.ErrEmptyQuestionSet) {
		t.Fatalf("expected empty set error, got %v", err)
	}
	if _, err := repo.GetQuestions(context.Background(), "bad"); !errors.Is(err, domain.ErrInvalidQuestion) {
		t.Fatalf("expected invalid question error, got %v", err)
	}
	if _, err := repo.GetQuestions(context.Background(), "missing"); !errors.Is(err, domain.ErrQuestionSetNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSnapshotStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewSnapshotStore()

	if _, err := store.Get(ctx, "quizState"); !errors.Is(err, domain.ErrSnapshotNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := store.Set(ctx, "quizState", []byte(`{"currentQuestionIndex":1}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := store.Get(ctx, "quizState")
	if err != nil || string(got) != `{"currentQuestionIndex":1}` {
		t.Fatalf("unexpected value %q err=%v", got, err)
	}
	if err := store.Delete(ctx, "quizState"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, "quizState"); !errors.Is(err, domain.ErrSnapshotNotFound) {
		t.Fatalf("expected key removed, got %v", err)
	}
}

type countingLoader struct {
	QuestionLoader
	calls atomic.Int32
	delay time.Duration
}

func (l *countingLoader) LoadQuestions(ctx context.Context, set string) ([]domain.Question, error) {
	l.calls.Add(1)
	if l.delay > 0 {
		time.Sleep(l.delay)
	}
	return l.QuestionLoader.LoadQuestions(ctx, set)
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{Text: "What is 2 + 2?", Options: []string{"3", "4"}, CorrectAnswer: 1},
	}
}
