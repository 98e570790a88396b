package memory

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"quiz-widget/internal/domain"
)

// QuestionLoader fetches a question set from its backing source (static data, files).
type QuestionLoader interface {
	LoadQuestions(ctx context.Context, set string) ([]domain.Question, error)
}

// QuestionRepository caches validated question sets so concurrent sessions load each set once.
// A ttl of zero keeps entries forever.
type QuestionRepository struct {
	loader QuestionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedSet
}

type cachedSet struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewQuestionRepository(loader QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedSet),
	}
}

func (r *QuestionRepository) GetQuestions(ctx context.Context, set string) ([]domain.Question, error) {
	if questions, ok := r.lookup(set); ok {
		return questions, nil
	}

	result, err, _ := r.sf.Do(set, func() (interface{}, error) {
		if questions, ok := r.lookup(set); ok {
			return questions, nil
		}

		questions, err := r.loader.LoadQuestions(ctx, set)
		if err != nil {
			return nil, err
		}
		if err := domain.ValidateQuestions(questions); err != nil {
			return nil, fmt.Errorf("question set %q: %w", set, err)
		}

		r.mu.Lock()
		entry := cachedSet{questions: questions}
		if r.ttl > 0 {
			entry.expiresAt = r.clock().Add(r.ttlWithJitter())
		}
		r.cache[set] = entry
		r.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (r *QuestionRepository) lookup(set string) ([]domain.Question, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[set]
	if !ok {
		return nil, false
	}
	if !entry.expiresAt.IsZero() && !entry.expiresAt.After(r.clock()) {
		return nil, false
	}
	return entry.questions, true
}

// StaticQuestionLoader serves question sets from an in-memory map (built-in sample data, tests).
type StaticQuestionLoader struct {
	sets map[string][]domain.Question
}

func NewStaticQuestionLoader(sets map[string][]domain.Question) *StaticQuestionLoader {
	return &StaticQuestionLoader{sets: sets}
}

func (l *StaticQuestionLoader) LoadQuestions(_ context.Context, set string) ([]domain.Question, error) {
	if questions, ok := l.sets[set]; ok {
		return questions, nil
	}
	return nil, domain.ErrQuestionSetNotFound
}

// ttlWithJitter must be called with mu held; rnd is not safe for concurrent use.
func (r *QuestionRepository) ttlWithJitter() time.Duration {
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
