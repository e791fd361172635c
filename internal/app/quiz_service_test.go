package app_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"quiz-event-service/internal/app"
	"quiz-event-service/internal/domain"
	"quiz-event-service/internal/infra/memory"
)

var jane = domain.Identity{Name: "Jane Doe", ClassName: "10A", Mobile: "5550100", Email: "jane@example.com"}

func TestLoginOrRegisterIsIdempotent(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(nil)

	first, err := service.LoginOrRegister(ctx, jane)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if first.Outcome != domain.OutcomeRegister {
		t.Fatalf("expected register on first call, got %s", first.Outcome)
	}

	second, err := service.LoginOrRegister(ctx, jane)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if second.Outcome != domain.OutcomeLogin || second.ParticipantID != first.ParticipantID {
		t.Fatalf("expected login with id %d, got %+v", first.ParticipantID, second)
	}
}

func TestLoginOrRegisterRejectsIncompleteIdentity(t *testing.T) {
	service, _, _ := newTestService(nil)
	_, err := service.LoginOrRegister(context.Background(), domain.Identity{Name: "Jane"})
	if !errors.Is(err, domain.ErrInvalidIdentity) {
		t.Fatalf("expected invalid identity, got %v", err)
	}
}

func TestQuestionsAreBounded(t *testing.T) {
	service, _, _ := newTestService(nil)
	questions, err := service.Questions(context.Background())
	if err != nil {
		t.Fatalf("questions: %v", err)
	}
	if len(questions) != app.MaxQuestions {
		t.Fatalf("expected %d questions, got %d", app.MaxQuestions, len(questions))
	}

	service.WithQuestionLimit(5)
	questions, err = service.Questions(context.Background())
	if err != nil {
		t.Fatalf("questions: %v", err)
	}
	if len(questions) != 5 {
		t.Fatalf("expected 5 questions, got %d", len(questions))
	}
}

func TestSubmitScoreUnknownParticipant(t *testing.T) {
	ctx := context.Background()
	notifier := &fakeNotifier{}
	service, store, _ := newTestService(notifier)
	res, _ := service.LoginOrRegister(ctx, jane)

	_, err := service.SubmitScore(ctx, 999999, 85)
	if !errors.Is(err, domain.ErrParticipantNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(notifier.calls) != 0 {
		t.Fatalf("expected no notification attempt, got %v", notifier.calls)
	}
	p, err := store.Get(ctx, res.ParticipantID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p.Score != nil || p.SubmittedAt != nil {
		t.Fatalf("expected no mutation, got %+v", p)
	}
}

func TestSubmitScoreSucceedsWhenNotificationFails(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 18, 10, 30, 0, 0, time.UTC)
	notifier := &fakeNotifier{err: fmt.Errorf("%w: dial tcp: connection refused", domain.ErrCertificateDelivery)}
	service, store, _ := newTestService(notifier)
	service.WithClock(func() time.Time { return now })

	res, _ := service.LoginOrRegister(ctx, jane)
	other, _ := service.LoginOrRegister(ctx, domain.Identity{Name: "Ada", ClassName: "9B", Mobile: "1", Email: "ada@example.com"})

	result, err := service.SubmitScore(ctx, res.ParticipantID, 85)
	if err != nil {
		t.Fatalf("expected durable write to succeed, got %v", err)
	}
	if !result.Notification.Attempted || result.Notification.Delivered() {
		t.Fatalf("expected a failed notification attempt, got %+v", result.Notification)
	}
	if !errors.Is(result.Notification.Err, domain.ErrCertificateDelivery) {
		t.Fatalf("expected delivery error to be observable, got %v", result.Notification.Err)
	}
	if len(notifier.calls) != 1 || notifier.calls[0] != "jane@example.com|Jane Doe" {
		t.Fatalf("unexpected notifier calls %v", notifier.calls)
	}

	saved, _ := store.Get(ctx, res.ParticipantID)
	if saved.Score == nil || *saved.Score != 85 || saved.SubmittedAt == nil || !saved.SubmittedAt.Equal(now) {
		t.Fatalf("expected score and timestamp persisted, got %+v", saved)
	}
	untouched, _ := store.Get(ctx, other.ParticipantID)
	if untouched.Score != nil || untouched.SubmittedAt != nil {
		t.Fatalf("expected other participant untouched, got %+v", untouched)
	}
}

func TestSubmitScoreDelivered(t *testing.T) {
	ctx := context.Background()
	notifier := &fakeNotifier{}
	service, _, _ := newTestService(notifier)
	res, _ := service.LoginOrRegister(ctx, jane)

	result, err := service.SubmitScore(ctx, res.ParticipantID, 42)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !result.Notification.Delivered() {
		t.Fatalf("expected delivered notification, got %+v", result.Notification)
	}
	if result.Participant.Score == nil || *result.Participant.Score != 42 {
		t.Fatalf("unexpected participant %+v", result.Participant)
	}
}

func TestSubmitScoreIgnoresCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	notifier := &fakeNotifier{}
	service, _, _ := newTestService(notifier)
	res, _ := service.LoginOrRegister(ctx, jane)
	cancel()

	result, err := service.SubmitScore(ctx, res.ParticipantID, 10)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if notifier.ctxErr != nil {
		t.Fatalf("expected notification context detached from caller, got %v", notifier.ctxErr)
	}
	if !result.Notification.Delivered() {
		t.Fatalf("expected delivery, got %+v", result.Notification)
	}
}

func TestSubmitScorePublishesEvent(t *testing.T) {
	ctx := context.Background()
	service, _, feed := newTestService(&fakeNotifier{})
	updates, cancel := service.SubscribeScores()
	defer cancel()

	res, _ := service.LoginOrRegister(ctx, jane)
	if _, err := service.SubmitScore(ctx, res.ParticipantID, 77); err != nil {
		t.Fatalf("submit: %v", err)
	}

	select {
	case ev := <-updates:
		if ev.ParticipantID != res.ParticipantID || ev.Score != 77 || ev.Name != "Jane Doe" {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected score event")
	}
	if feed.Subscribers() != 1 {
		t.Fatalf("expected one subscriber, got %d", feed.Subscribers())
	}
}

type fakeNotifier struct {
	err    error
	calls  []string
	ctxErr error
}

func (n *fakeNotifier) SendCertificate(ctx context.Context, email, name string) error {
	n.calls = append(n.calls, email+"|"+name)
	n.ctxErr = ctx.Err()
	return n.err
}

func newTestService(notifier app.CertificateNotifier) (*app.QuizService, *memory.ParticipantStore, *app.ScoreFeed) {
	store := memory.NewParticipantStore()
	questions := memory.NewQuestionRepository(memory.NewStaticQuestionLoader(bank(75)), 5*time.Minute)
	feed := app.NewScoreFeed()
	return app.NewQuizService(store, questions, notifier, feed), store, feed
}

func bank(n int) []domain.Question {
	out := make([]domain.Question, n)
	for i := range out {
		out[i] = domain.Question{
			ID:            int64(i + 1),
			Category:      "general",
			Question:      fmt.Sprintf("Question %d", i+1),
			OptionA:       "A",
			OptionB:       "B",
			OptionC:       "C",
			OptionD:       "D",
			CorrectOption: "A",
		}
	}
	return out
}
