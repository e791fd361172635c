package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"quiz-event-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuestionLoader fetches the full question bank from a backing store.
type QuestionLoader interface {
	LoadQuestions(ctx context.Context) ([]domain.Question, error)
}

// QuestionRepository caches the question bank in a Redis set and samples it
// server-side with SRANDMEMBER, so draws never repeat a question.
// Questions are stored as: SADD quiz:questions {json}
type QuestionRepository struct {
	client *redis.Client
	loader QuestionLoader
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewQuestionRepository(client *redis.Client, loader QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuestionRepository) SampleQuestions(ctx context.Context, limit int) ([]domain.Question, error) {
	if limit <= 0 {
		return []domain.Question{}, nil
	}

	exists, err := r.client.Exists(ctx, r.key()).Result()
	if err != nil {
		return nil, fmt.Errorf("check question cache: %w", err)
	}
	if exists == 0 {
		if err := r.fill(ctx); err != nil {
			return nil, err
		}
	}

	members, err := r.client.SRandMemberN(ctx, r.key(), int64(limit)).Result()
	if err != nil {
		return nil, fmt.Errorf("sample questions: %w", err)
	}
	return decodeQuestions(members)
}

func (r *QuestionRepository) fill(ctx context.Context) error {
	_, err, _ := r.sf.Do(r.key(), func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		exists, err := r.client.Exists(ctx, r.key()).Result()
		if err == nil && exists > 0 {
			return nil, nil
		}

		questions, err := r.loader.LoadQuestions(ctx)
		if err != nil {
			return nil, err
		}
		if len(questions) == 0 {
			return nil, nil
		}

		members := make([]interface{}, 0, len(questions))
		for _, q := range questions {
			raw, err := json.Marshal(q)
			if err != nil {
				return nil, fmt.Errorf("marshal question %d: %w", q.ID, err)
			}
			members = append(members, raw)
		}

		pipe := r.client.TxPipeline()
		pipe.Del(ctx, r.key())
		pipe.SAdd(ctx, r.key(), members...)
		if ttl := r.ttlWithJitter(); ttl > 0 {
			pipe.Expire(ctx, r.key(), ttl)
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, fmt.Errorf("cache questions: %w", err)
		}
		return nil, nil
	})
	return err
}

func (r *QuestionRepository) key() string {
	return "quiz:questions"
}

func decodeQuestions(members []string) ([]domain.Question, error) {
	questions := make([]domain.Question, 0, len(members))
	for _, raw := range members {
		var q domain.Question
		if err := json.Unmarshal([]byte(raw), &q); err != nil {
			return nil, fmt.Errorf("unmarshal cached question: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, nil
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
