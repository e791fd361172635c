package app

import (
	"context"
	"log"
	"time"

	"quiz-event-service/internal/domain"
)

// MaxQuestions caps how many questions a single draw returns.
const MaxQuestions = 50

// ParticipantRepository abstracts participant storage (Postgres, in-memory).
type ParticipantRepository interface {
	// Resolve returns the participant matching identity exactly, creating it when absent.
	Resolve(ctx context.Context, identity domain.Identity) (domain.Resolution, error)
	// RecordScore atomically sets score and submission time. It returns
	// domain.ErrParticipantNotFound without mutating anything when id is unknown.
	RecordScore(ctx context.Context, id int64, score int, at time.Time) (domain.Participant, error)
}

// QuestionRepository draws random questions from the bank.
type QuestionRepository interface {
	SampleQuestions(ctx context.Context, limit int) ([]domain.Question, error)
}

// CertificateNotifier renders and delivers a participation certificate.
type CertificateNotifier interface {
	SendCertificate(ctx context.Context, email, name string) error
}

// QuizService contains the quiz event use cases.
type QuizService struct {
	participants  ParticipantRepository
	questions     QuestionRepository
	notifier      CertificateNotifier
	feed          *ScoreFeed
	questionLimit int
	now           func() time.Time
}

func NewQuizService(participants ParticipantRepository, questions QuestionRepository, notifier CertificateNotifier, feed *ScoreFeed) *QuizService {
	if feed == nil {
		feed = NewScoreFeed()
	}
	return &QuizService{
		participants:  participants,
		questions:     questions,
		notifier:      notifier,
		feed:          feed,
		questionLimit: MaxQuestions,
		now:           time.Now,
	}
}

// WithClock swaps the submission clock; used for deterministic timestamps in tests.
func (s *QuizService) WithClock(now func() time.Time) *QuizService {
	s.now = now
	return s
}

// WithQuestionLimit lowers the per-draw question count. Values outside
// (0, MaxQuestions] are ignored.
func (s *QuizService) WithQuestionLimit(limit int) *QuizService {
	if limit > 0 && limit <= MaxQuestions {
		s.questionLimit = limit
	}
	return s
}

// LoginOrRegister resolves an identity tuple to a participant id.
func (s *QuizService) LoginOrRegister(ctx context.Context, identity domain.Identity) (domain.Resolution, error) {
	if !identity.Valid() {
		return domain.Resolution{}, domain.ErrInvalidIdentity
	}
	return s.participants.Resolve(ctx, identity)
}

// Questions returns an unordered random sample of the question bank.
func (s *QuizService) Questions(ctx context.Context) ([]domain.Question, error) {
	questions, err := s.questions.SampleQuestions(ctx, s.questionLimit)
	if err != nil {
		return nil, err
	}
	if len(questions) > s.questionLimit {
		questions = questions[:s.questionLimit]
	}
	return questions, nil
}

// SubmitScore persists the score, then makes one best-effort attempt to email
// the certificate. A returned error always means nothing was written; once the
// write commits the notification outcome is reported in the result only.
func (s *QuizService) SubmitScore(ctx context.Context, participantID int64, score int) (domain.ScoreSubmission, error) {
	log.Printf("received score submission: student_id=%d score=%d", participantID, score)

	// Client disconnects must not abort the write or the notification.
	ctx = context.WithoutCancel(ctx)

	participant, err := s.participants.RecordScore(ctx, participantID, score, s.now())
	if err != nil {
		return domain.ScoreSubmission{}, err
	}
	log.Printf("score saved for student_id=%d", participant.ID)

	result := domain.ScoreSubmission{Participant: participant}
	s.feed.Publish(scoreEvent(participant))

	if s.notifier != nil {
		result.Notification.Attempted = true
		result.Notification.Err = s.notifier.SendCertificate(ctx, participant.Identity.Email, participant.Identity.Name)
		if result.Notification.Err != nil {
			log.Printf("certificate not delivered for student_id=%d: %v", participant.ID, result.Notification.Err)
		}
	}
	return result, nil
}

// SubscribeScores streams score events for live displays.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *QuizService) SubscribeScores() (<-chan domain.ScoreEvent, func()) {
	return s.feed.Subscribe()
}

func scoreEvent(p domain.Participant) domain.ScoreEvent {
	event := domain.ScoreEvent{ParticipantID: p.ID, Name: p.Identity.Name}
	if p.Score != nil {
		event.Score = *p.Score
	}
	if p.SubmittedAt != nil {
		event.SubmittedAt = *p.SubmittedAt
	}
	return event
}
