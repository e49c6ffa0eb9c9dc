package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aretw0/procflow/pkg/domain"
)

// StreamManager fans stage events out to active SSE connections.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[chan<- string]struct{}
	logger      *slog.Logger
}

// NewStreamManager creates an empty manager.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &StreamManager{
		subscribers: make(map[chan<- string]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a new listener. The returned func unsubscribes and closes the channel.
func (sm *StreamManager) Subscribe() (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	sm.subscribers[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			delete(sm.subscribers, ch)
			close(ch)
		})
	}
}

// Broadcast sends msg to every subscriber. Slow subscribers drop messages.
func (sm *StreamManager) Broadcast(msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers {
		select {
		case ch <- msg:
		default:
			sm.logger.Warn("SSE: Client buffer full, dropping message")
		}
	}
}

// Hooks returns lifecycle hooks that broadcast every stage event as JSON.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	emit := func(ctx context.Context, e *domain.StageEvent) {
		payload := struct {
			*domain.StageEvent
			Error string `json:"error,omitempty"`
		}{StageEvent: e}
		if e.Err != nil {
			payload.Error = e.Err.Error()
		}
		data, err := json.Marshal(payload)
		if err != nil {
			sm.logger.Error("SSE: encode event failed", "err", err)
			return
		}
		sm.Broadcast(string(data))
	}
	return domain.LifecycleHooks{
		OnStageStart:    emit,
		OnStageComplete: emit,
		OnStageFail:     emit,
	}
}
