package app

import (
	"sync"

	"quiz-event-service/internal/domain"
)

// ScoreFeed fans score events out to in-process subscribers. Publishing never
// blocks on a slow subscriber.
type ScoreFeed struct {
	mu          sync.Mutex
	subscribers map[chan domain.ScoreEvent]struct{}
}

func NewScoreFeed() *ScoreFeed {
	return &ScoreFeed{subscribers: make(map[chan domain.ScoreEvent]struct{})}
}

// Subscribe registers a buffered channel. The returned cancel function
// unregisters and closes it; calling it twice is safe.
func (f *ScoreFeed) Subscribe() (<-chan domain.ScoreEvent, func()) {
	ch := make(chan domain.ScoreEvent, 8)

	f.mu.Lock()
	f.subscribers[ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if _, ok := f.subscribers[ch]; ok {
			delete(f.subscribers, ch)
			close(ch)
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers event to every subscriber, evicting the oldest buffered
// event of a full subscriber.
func (f *ScoreFeed) Publish(event domain.ScoreEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subscribers {
		select {
		case ch <- event:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- event
		}
	}
}

// Subscribers reports how many subscribers are registered.
func (f *ScoreFeed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers)
}
