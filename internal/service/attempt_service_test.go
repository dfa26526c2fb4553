package service

import (
	"context"
	"errors"
	"testing"

	"github.com/etepro/etepro-backend/internal/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type fakeAttemptStore struct {
	attempts  []*model.SimuladoAttempt
	responses []*model.SimuladoResponse
	err       error
}

func (f *fakeAttemptStore) SaveResponse(_ context.Context, r *model.SimuladoResponse) error {
	if f.err != nil {
		return f.err
	}
	f.responses = append(f.responses, r)
	return nil
}

func (f *fakeAttemptStore) SaveAttempt(_ context.Context, a *model.SimuladoAttempt) error {
	if f.err != nil {
		return f.err
	}
	a.ID = uuid.New()
	f.attempts = append(f.attempts, a)
	return nil
}

func (f *fakeAttemptStore) ListByUser(context.Context, uuid.UUID, int, int) ([]model.AttemptHistoryEntry, int64, error) {
	return nil, 0, f.err
}

type fakeQueue struct {
	events []model.AttemptCompletedEvent
	err    error
}

func (q *fakeQueue) Enqueue(_ context.Context, ev model.AttemptCompletedEvent) error {
	if q.err != nil {
		return q.err
	}
	q.events = append(q.events, ev)
	return nil
}

func TestSaveAttemptQueuesStats(t *testing.T) {
	store := &fakeAttemptStore{}
	queue := &fakeQueue{}
	svc := NewAttemptService(store, queue, zerolog.Nop())

	a := &model.SimuladoAttempt{UserID: uuid.New(), SimuladoID: uuid.New(), PercentageCorrect: 60}
	if err := svc.SaveAttempt(context.Background(), a); err != nil {
		t.Fatalf("SaveAttempt() error = %v", err)
	}
	if len(queue.events) != 1 {
		t.Fatalf("queued %d events, want 1", len(queue.events))
	}
	if ev := queue.events[0]; ev.AttemptID != a.ID || ev.UserID != a.UserID || ev.Percentage != 60 {
		t.Errorf("event = %+v", ev)
	}
}

func TestSaveAttemptQueueFailureIsNotFatal(t *testing.T) {
	store := &fakeAttemptStore{}
	svc := NewAttemptService(store, &fakeQueue{err: errors.New("redis down")}, zerolog.Nop())

	if err := svc.SaveAttempt(context.Background(), &model.SimuladoAttempt{UserID: uuid.New()}); err != nil {
		t.Fatalf("SaveAttempt() error = %v", err)
	}
	if len(store.attempts) != 1 {
		t.Errorf("stored %d attempts, want 1", len(store.attempts))
	}
}

func TestSaveAttemptStoreFailure(t *testing.T) {
	queue := &fakeQueue{}
	svc := NewAttemptService(&fakeAttemptStore{err: errors.New("insert failed")}, queue, zerolog.Nop())

	if err := svc.SaveAttempt(context.Background(), &model.SimuladoAttempt{}); err == nil {
		t.Fatal("expected error")
	}
	if len(queue.events) != 0 {
		t.Error("event queued for an attempt that was not stored")
	}
	if err := svc.SaveResponse(context.Background(), &model.SimuladoResponse{}); err == nil {
		t.Error("expected SaveResponse error")
	}
}
