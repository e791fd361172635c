package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"quiz-event-service/internal/domain"
)

// ParticipantStore is an in-memory implementation of app.ParticipantRepository.
type ParticipantStore struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]*domain.Participant
	byKey  map[domain.Identity]int64
}

func NewParticipantStore() *ParticipantStore {
	return &ParticipantStore{
		nextID: 1,
		byID:   make(map[int64]*domain.Participant),
		byKey:  make(map[domain.Identity]int64),
	}
}

func (s *ParticipantStore) Resolve(_ context.Context, identity domain.Identity) (domain.Resolution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.byKey[identity]; ok {
		return domain.Resolution{ParticipantID: id, Outcome: domain.OutcomeLogin}, nil
	}
	id := s.nextID
	s.nextID++
	s.byID[id] = &domain.Participant{ID: id, Identity: identity}
	s.byKey[identity] = id
	return domain.Resolution{ParticipantID: id, Outcome: domain.OutcomeRegister}, nil
}

func (s *ParticipantStore) RecordScore(_ context.Context, id int64, score int, at time.Time) (domain.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok {
		return domain.Participant{}, domain.ErrParticipantNotFound
	}
	submitted := at
	p.Score = &score
	p.SubmittedAt = &submitted
	return clone(*p), nil
}

// Get returns a copy of the participant with id.
func (s *ParticipantStore) Get(_ context.Context, id int64) (domain.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byID[id]
	if !ok {
		return domain.Participant{}, domain.ErrParticipantNotFound
	}
	return clone(*p), nil
}

// ListParticipants returns every participant ordered by id.
func (s *ParticipantStore) ListParticipants(_ context.Context) ([]domain.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Participant, 0, len(s.byID))
	for _, p := range s.byID {
		out = append(out, clone(*p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func clone(p domain.Participant) domain.Participant {
	if p.Score != nil {
		score := *p.Score
		p.Score = &score
	}
	if p.SubmittedAt != nil {
		at := *p.SubmittedAt
		p.SubmittedAt = &at
	}
	return p
}
