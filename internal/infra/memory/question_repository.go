package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"quiz-event-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// QuestionLoader fetches the full question bank from a backing store.
type QuestionLoader interface {
	LoadQuestions(ctx context.Context) ([]domain.Question, error)
}

const bankKey = "bank"

// QuestionRepository caches the question bank with a TTL and samples from it
// in process.
type QuestionRepository struct {
	loader QuestionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu        sync.Mutex
	rnd       *rand.Rand
	bank      []domain.Question
	expiresAt time.Time
}

func NewQuestionRepository(loader QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SampleQuestions returns up to limit distinct questions in random order.
func (r *QuestionRepository) SampleQuestions(ctx context.Context, limit int) ([]domain.Question, error) {
	bank, err := r.cachedBank(ctx)
	if err != nil {
		return nil, err
	}
	return r.sample(bank, limit), nil
}

func (r *QuestionRepository) cachedBank(ctx context.Context) ([]domain.Question, error) {
	r.mu.Lock()
	if r.bank != nil && r.expiresAt.After(r.clock()) {
		bank := r.bank
		r.mu.Unlock()
		return bank, nil
	}
	r.mu.Unlock()

	result, err, _ := r.sf.Do(bankKey, func() (interface{}, error) {
		bank, err := r.loader.LoadQuestions(ctx)
		if err != nil {
			return nil, err
		}
		if bank == nil {
			bank = []domain.Question{}
		}
		r.mu.Lock()
		r.bank = bank
		r.expiresAt = r.clock().Add(r.ttlWithJitter())
		r.mu.Unlock()
		return bank, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (r *QuestionRepository) sample(bank []domain.Question, limit int) []domain.Question {
	if limit > len(bank) {
		limit = len(bank)
	}
	if limit <= 0 {
		return []domain.Question{}
	}
	r.mu.Lock()
	order := r.rnd.Perm(len(bank))
	r.mu.Unlock()

	out := make([]domain.Question, limit)
	for i := 0; i < limit; i++ {
		out[i] = bank[order[i]]
	}
	return out
}

// ttlWithJitter adds up to 10% jitter to spread expirations.
// Callers hold r.mu.
func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticQuestionLoader is a loader backed by a fixed slice (useful for tests/demos).
type StaticQuestionLoader struct {
	questions []domain.Question
}

func NewStaticQuestionLoader(questions []domain.Question) *StaticQuestionLoader {
	return &StaticQuestionLoader{questions: questions}
}

func (l *StaticQuestionLoader) LoadQuestions(_ context.Context) ([]domain.Question, error) {
	out := make([]domain.Question, len(l.questions))
	copy(out, l.questions)
	return out, nil
}
