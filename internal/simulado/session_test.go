package simulado

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/etepro/etepro-backend/internal/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type fakeBank struct {
	payload *model.SimuladoPayload
	err     error
}

func (b *fakeBank) LoadSimulado(_ context.Context, _ uuid.UUID) (*model.SimuladoPayload, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.payload, nil
}

type fakeRecorder struct {
	mu          sync.Mutex
	responses   []*model.SimuladoResponse
	attempts    []*model.SimuladoAttempt
	failAfter   int // fail SaveResponse once this many have been written; <0 disables
	attemptErr  error
	blockSubmit chan struct{}
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{failAfter: -1}
}

func (r *fakeRecorder) SaveResponse(_ context.Context, resp *model.SimuladoResponse) error {
	if r.blockSubmit != nil {
		<-r.blockSubmit
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAfter >= 0 && len(r.responses) >= r.failAfter {
		return errors.New("connection reset")
	}
	r.responses = append(r.responses, resp)
	return nil
}

func (r *fakeRecorder) SaveAttempt(_ context.Context, a *model.SimuladoAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.attemptErr != nil {
		return r.attemptErr
	}
	r.attempts = append(r.attempts, a)
	return nil
}

func (r *fakeRecorder) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.responses), len(r.attempts)
}

func newPayload(n int, minutes *int) *model.SimuladoPayload {
	return &model.SimuladoPayload{
		Simulado: model.Simulado{
			ID:              uuid.New(),
			Title:           "Simulado ETE",
			DurationMinutes: minutes,
			TotalQuestions:  n,
		},
		Questions: makeQuestions(n),
	}
}

func newTestSession(t *testing.T, payload *model.SimuladoPayload, rec *fakeRecorder) (*Session, *manualSource) {
	t.Helper()
	src := newManualSource()
	s := NewSession(uuid.New(), payload.Simulado.ID, &fakeBank{payload: payload}, rec, Options{
		NewTickSource: func() TickSource { return src },
		Log:           zerolog.Nop(),
	})
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	t.Cleanup(s.Dispose)
	return s, src
}

func TestSessionLoadDefaultsDuration(t *testing.T) {
	s, _ := newTestSession(t, newPayload(3, nil), newFakeRecorder())

	if s.State() != StateActive {
		t.Fatalf("State() = %s, want active", s.State())
	}
	if got := s.Remaining(); got != 30*60 {
		t.Errorf("Remaining() = %d, want %d", got, 30*60)
	}
}

func TestSessionLoadUsesConfiguredDuration(t *testing.T) {
	minutes := 45
	s, _ := newTestSession(t, newPayload(3, &minutes), newFakeRecorder())
	if got := s.Remaining(); got != 45*60 {
		t.Errorf("Remaining() = %d, want %d", got, 45*60)
	}
}

func TestSessionLoadError(t *testing.T) {
	s := NewSession(uuid.New(), uuid.New(), &fakeBank{err: errors.New("boom")}, newFakeRecorder(), Options{Log: zerolog.Nop()})
	if err := s.Load(context.Background()); err == nil {
		t.Fatal("expected Load() to fail")
	}
	if s.State() != StateLoading {
		t.Errorf("State() = %s, want loading", s.State())
	}
}

func TestSessionNavigation(t *testing.T) {
	s, _ := newTestSession(t, newPayload(10, nil), newFakeRecorder())

	tests := []struct {
		name string
		op   func() error
		want int
	}{
		{"previous at start stays", s.Previous, 0},
		{"next", s.Next, 1},
		{"jump to 9", func() error { return s.JumpTo(9) }, 9},
		{"next at end stays", s.Next, 9},
		{"jump to -1 ignored", func() error { return s.JumpTo(-1) }, 9},
		{"jump to length ignored", func() error { return s.JumpTo(10) }, 9},
		{"previous", s.Previous, 8},
		{"jump to 0", func() error { return s.JumpTo(0) }, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.op(); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := s.CurrentIndex(); got != tt.want {
				t.Errorf("CurrentIndex() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSessionSelectAnswer(t *testing.T) {
	payload := newPayload(2, nil)
	s, _ := newTestSession(t, payload, newFakeRecorder())
	qid := payload.Questions[0].ID.String()

	if err := s.SelectAnswer(qid, "B"); err != nil {
		t.Fatalf("SelectAnswer() error = %v", err)
	}
	if err := s.SelectAnswer(qid, "A"); err != nil {
		t.Fatalf("SelectAnswer() error = %v", err)
	}
	if v := s.View().Answers[qid]; v != "A" {
		t.Errorf("answer = %q, want A", v)
	}

	if err := s.SelectAnswer(uuid.NewString(), "A"); !errors.Is(err, ErrUnknownQuestion) {
		t.Errorf("SelectAnswer(unknown) error = %v, want ErrUnknownQuestion", err)
	}
	if got := len(s.View().Answers); got != 1 {
		t.Errorf("answers = %d, want 1", got)
	}
}

func TestSessionViewHidesCorrectAnswer(t *testing.T) {
	payload := newPayload(2, nil)
	s, _ := newTestSession(t, payload, newFakeRecorder())

	v := s.View()
	if v.Question == nil || v.Question.ID != payload.Questions[0].ID {
		t.Fatalf("View().Question = %+v", v.Question)
	}
	if v.TotalQuestions != 2 || v.State != StateActive {
		t.Errorf("View() = %+v", v)
	}
}

func TestSessionViewCountsAnswered(t *testing.T) {
	payload := newPayload(3, nil)
	s, _ := newTestSession(t, payload, newFakeRecorder())

	if got := s.View().Answered; got != 0 {
		t.Fatalf("Answered = %d before any selection, want 0", got)
	}

	_ = s.SelectAnswer(payload.Questions[0].ID.String(), "A")
	_ = s.SelectAnswer(payload.Questions[2].ID.String(), "B")
	_ = s.SelectAnswer(payload.Questions[2].ID.String(), "C")

	if got := s.View().Answered; got != 2 {
		t.Errorf("Answered = %d, want 2", got)
	}
}

func TestSessionSubmitTwice(t *testing.T) {
	payload := newPayload(4, nil)
	rec := newFakeRecorder()
	s, _ := newTestSession(t, payload, rec)

	_ = s.SelectAnswer(payload.Questions[0].ID.String(), "A")
	_ = s.SelectAnswer(payload.Questions[1].ID.String(), "B")

	first, err := s.Submit(context.Background(), model.SubmitTriggerManual)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	second, err := s.Submit(context.Background(), model.SubmitTriggerManual)
	if err != nil {
		t.Fatalf("second Submit() error = %v", err)
	}
	if first != second {
		t.Error("second Submit() should return the stored outcome")
	}

	responses, attempts := rec.counts()
	if responses != 4 || attempts != 1 {
		t.Errorf("responses = %d, attempts = %d; want 4, 1", responses, attempts)
	}
	if first.Correct != 1 || first.Total != 4 || first.Percentage != 25 || !first.Persisted {
		t.Errorf("outcome = %+v", first)
	}
	if s.State() != StateCompleted {
		t.Errorf("State() = %s, want completed", s.State())
	}

	rec.mu.Lock()
	unanswered := rec.responses[2]
	rec.mu.Unlock()
	if unanswered.UserAnswer != "" || unanswered.IsCorrect {
		t.Errorf("unanswered response = %+v", unanswered)
	}
}

func TestSessionConcurrentSubmitPersistsOnce(t *testing.T) {
	payload := newPayload(3, nil)
	rec := newFakeRecorder()
	s, _ := newTestSession(t, payload, rec)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Submit(context.Background(), model.SubmitTriggerManual)
		}()
	}
	wg.Wait()

	responses, attempts := rec.counts()
	if responses != 3 || attempts != 1 {
		t.Errorf("responses = %d, attempts = %d; want 3, 1", responses, attempts)
	}
}

func TestSessionSubmitWhileSubmitting(t *testing.T) {
	payload := newPayload(1, nil)
	rec := newFakeRecorder()
	rec.blockSubmit = make(chan struct{})
	s, _ := newTestSession(t, payload, rec)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.Submit(context.Background(), model.SubmitTriggerManual)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for s.State() != StateSubmitting {
		if time.Now().After(deadline) {
			t.Fatal("session never entered submitting")
		}
		time.Sleep(time.Millisecond)
	}

	if _, err := s.Submit(context.Background(), model.SubmitTriggerExpired); !errors.Is(err, ErrNotActive) {
		t.Errorf("Submit() during submitting error = %v, want ErrNotActive", err)
	}
	if err := s.Next(); !errors.Is(err, ErrNotActive) {
		t.Errorf("Next() during submitting error = %v, want ErrNotActive", err)
	}

	close(rec.blockSubmit)
	<-done

	_, attempts := rec.counts()
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestSessionExpiryAutoSubmits(t *testing.T) {
	minutes := 1
	payload := newPayload(2, &minutes)
	rec := newFakeRecorder()
	s, src := newTestSession(t, payload, rec)

	completed := make(chan *Outcome, 1)
	s.Subscribe(func(ev Event) {
		if ev.Type == EventCompleted {
			completed <- ev.Outcome
		}
	})

	for i := 0; i < 60; i++ {
		src.ch <- time.Now()
	}

	select {
	case out := <-completed:
		if out.Trigger != model.SubmitTriggerExpired {
			t.Errorf("Trigger = %s, want expired", out.Trigger)
		}
		if out.ElapsedMinutes != 1 {
			t.Errorf("ElapsedMinutes = %d, want 1", out.ElapsedMinutes)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("session did not auto-submit")
	}

	if s.Remaining() != 0 {
		t.Errorf("Remaining() = %d, want 0", s.Remaining())
	}
	_, attempts := rec.counts()
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestSessionManualSubmitStopsTimer(t *testing.T) {
	rec := newFakeRecorder()
	s, src := newTestSession(t, newPayload(1, nil), rec)

	ticks := make(chan int, 2)
	s.Subscribe(func(ev Event) {
		if ev.Type == EventTick {
			ticks <- ev.Remaining
		}
	})
	src.ch <- time.Now()
	src.ch <- time.Now()
	<-ticks
	<-ticks

	out, err := s.Submit(context.Background(), model.SubmitTriggerManual)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if !src.isStopped() {
		t.Error("tick source still running after submit")
	}
	if out.ElapsedMinutes != 0 {
		t.Errorf("ElapsedMinutes = %d, want 0", out.ElapsedMinutes)
	}
	if s.Remaining() != 30*60-2 {
		t.Errorf("Remaining() = %d, want %d", s.Remaining(), 30*60-2)
	}
}

func TestSessionPartialPersistenceFailure(t *testing.T) {
	rec := newFakeRecorder()
	rec.failAfter = 2
	s, _ := newTestSession(t, newPayload(4, nil), rec)

	var failed bool
	s.Subscribe(func(ev Event) {
		if ev.Type == EventFailed {
			failed = true
		}
	})

	out, err := s.Submit(context.Background(), model.SubmitTriggerManual)
	if err == nil {
		t.Fatal("expected Submit() to fail")
	}
	if out == nil || out.Persisted {
		t.Errorf("outcome = %+v, want Persisted=false", out)
	}
	if !failed {
		t.Error("failed event not emitted")
	}
	if s.State() != StateCompleted {
		t.Errorf("State() = %s, want completed", s.State())
	}

	responses, attempts := rec.counts()
	if responses != 2 || attempts != 0 {
		t.Errorf("responses = %d, attempts = %d; want 2, 0", responses, attempts)
	}
}

func TestSessionDisposeAbandons(t *testing.T) {
	rec := newFakeRecorder()
	s, src := newTestSession(t, newPayload(2, nil), rec)

	s.Dispose()
	s.Dispose()

	if !src.isStopped() {
		t.Error("tick source still running after Dispose")
	}
	if _, err := s.Submit(context.Background(), model.SubmitTriggerManual); !errors.Is(err, ErrNotActive) {
		t.Errorf("Submit() after Dispose error = %v, want ErrNotActive", err)
	}
	if err := s.Next(); !errors.Is(err, ErrNotActive) {
		t.Errorf("Next() after Dispose error = %v, want ErrNotActive", err)
	}

	responses, attempts := rec.counts()
	if responses != 0 || attempts != 0 {
		t.Errorf("persisted %d responses, %d attempts after Dispose", responses, attempts)
	}
}

func TestSessionEmptyQuestionSet(t *testing.T) {
	rec := newFakeRecorder()
	s, _ := newTestSession(t, newPayload(0, nil), rec)

	if err := s.JumpTo(0); err != nil {
		t.Fatalf("JumpTo() error = %v", err)
	}
	if s.View().Question != nil {
		t.Error("expected no current question")
	}

	out, err := s.Submit(context.Background(), model.SubmitTriggerManual)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if out.Total != 0 || out.Percentage != 0 {
		t.Errorf("outcome = %+v", out)
	}
	_, attempts := rec.counts()
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}
