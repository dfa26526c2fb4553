package simulado

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/etepro/etepro-backend/internal/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Session errors.
var (
	ErrNotActive       = errors.New("simulado session is not active")
	ErrUnknownQuestion = errors.New("question does not belong to this simulado")
	ErrAlreadyLoaded   = errors.New("simulado session already loaded")
)

// State is the lifecycle state of a Session.
type State string

const (
	StateLoading    State = "loading"
	StateActive     State = "active"
	StateSubmitting State = "submitting"
	StateCompleted  State = "completed"
)

// QuestionBank loads a simulado with its ordered question set.
type QuestionBank interface {
	LoadSimulado(ctx context.Context, simuladoID uuid.UUID) (*model.SimuladoPayload, error)
}

// Recorder persists the records produced by a submission.
type Recorder interface {
	SaveResponse(ctx context.Context, r *model.SimuladoResponse) error
	SaveAttempt(ctx context.Context, a *model.SimuladoAttempt) error
}

// EventType identifies a session notification.
type EventType string

const (
	EventState      EventType = "state"
	EventTick       EventType = "tick"
	EventSubmitting EventType = "submitting"
	EventCompleted  EventType = "completed"
	EventFailed     EventType = "failed"
)

// Event is delivered to listeners registered with Subscribe.
type Event struct {
	Type      EventType
	View      *View
	Remaining int
	Outcome   *Outcome
	Err       error
}

// Outcome is the immutable result of a submitted attempt.
type Outcome struct {
	Result
	ElapsedMinutes int                 `json:"elapsed_minutes"`
	Trigger        model.SubmitTrigger `json:"trigger"`
	// Persisted is false when writing the attempt records failed part way.
	Persisted bool `json:"persisted"`
}

// View is a read-only snapshot of a session for clients. The current
// question never carries its correct answer.
type View struct {
	SimuladoID     uuid.UUID                 `json:"simulado_id"`
	Title          string                    `json:"title"`
	State          State                     `json:"state"`
	CurrentIndex   int                       `json:"current_index"`
	TotalQuestions int                       `json:"total_questions"`
	Remaining      int                       `json:"remaining_seconds"`
	Question       *model.QuestionForStudent `json:"question,omitempty"`
	Answers        map[string]string         `json:"answers"`
	Answered       int                       `json:"answered"`
	Outcome        *Outcome                  `json:"outcome,omitempty"`
}

// Options tune a Session.
type Options struct {
	// DefaultMinutes is used when the simulado has no duration.
	DefaultMinutes int
	// NewTickSource builds the timer's tick source. Defaults to a 1s ticker.
	NewTickSource func() TickSource
	// Now defaults to time.Now.
	Now func() time.Time
	// SubmitTimeout bounds the persistence of an expiry-triggered submission.
	SubmitTimeout time.Duration
	Log           zerolog.Logger
}

// Session is one attempt at a simulado by one user: question navigation,
// answer capture, the countdown and the single terminal submission.
type Session struct {
	mu sync.Mutex

	userID     uuid.UUID
	simuladoID uuid.UUID
	bank       QuestionBank
	recorder   Recorder
	opts       Options
	log        zerolog.Logger

	state     State
	disposed  bool
	simulado  model.Simulado
	questions []model.Question
	known     map[string]struct{}
	current   int
	answers   *AnswerStore
	duration  int
	timer     *Countdown
	outcome   *Outcome
	listeners []func(Event)
}

// NewSession creates a session in the loading state. Call Load to fetch the
// question set and start the countdown.
func NewSession(userID, simuladoID uuid.UUID, bank QuestionBank, recorder Recorder, opts Options) *Session {
	if opts.DefaultMinutes <= 0 {
		opts.DefaultMinutes = 30
	}
	if opts.NewTickSource == nil {
		opts.NewTickSource = func() TickSource { return NewTickerSource(time.Second) }
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Session{
		userID:     userID,
		simuladoID: simuladoID,
		bank:       bank,
		recorder:   recorder,
		opts:       opts,
		log: opts.Log.With().
			Str("user_id", userID.String()).
			Str("simulado_id", simuladoID.String()).
			Logger(),
		state:   StateLoading,
		answers: NewAnswerStore(),
	}
}

// Subscribe registers fn to receive session events. Listeners are called
// synchronously and must not block.
func (s *Session) Subscribe(fn func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Load fetches the question set, moves the session to active and starts the
// countdown.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateLoading || s.disposed {
		s.mu.Unlock()
		return ErrAlreadyLoaded
	}
	s.mu.Unlock()

	payload, err := s.bank.LoadSimulado(ctx, s.simuladoID)
	if err != nil {
		return fmt.Errorf("load simulado: %w", err)
	}

	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrNotActive
	}
	s.simulado = payload.Simulado
	s.questions = payload.Questions
	s.known = make(map[string]struct{}, len(payload.Questions))
	for _, q := range payload.Questions {
		s.known[q.ID.String()] = struct{}{}
	}
	s.duration = payload.Simulado.DurationSeconds(s.opts.DefaultMinutes)
	s.timer = NewCountdown(s.duration, s.onTick, s.onExpire)
	s.state = StateActive
	timer := s.timer
	view := s.viewLocked()
	s.mu.Unlock()

	timer.Start(s.opts.NewTickSource())

	s.log.Debug().
		Int("questions", len(payload.Questions)).
		Int("duration_seconds", s.duration).
		Msg("Simulado session started")

	s.emit(Event{Type: EventState, View: view})
	return nil
}

// SelectAnswer records value for questionID.
func (s *Session) SelectAnswer(questionID, value string) error {
	s.mu.Lock()
	if !s.activeLocked() {
		s.mu.Unlock()
		return ErrNotActive
	}
	if _, ok := s.known[questionID]; !ok {
		s.mu.Unlock()
		return ErrUnknownQuestion
	}
	s.answers.Set(questionID, value)
	view := s.viewLocked()
	s.mu.Unlock()

	s.emit(Event{Type: EventState, View: view})
	return nil
}

// Next moves to the following question, staying on the last one.
func (s *Session) Next() error {
	return s.navigate(func(cur int) int { return cur + 1 })
}

// Previous moves to the preceding question, staying on the first one.
func (s *Session) Previous() error {
	return s.navigate(func(cur int) int { return cur - 1 })
}

// JumpTo moves to index. Out-of-range indexes are ignored.
func (s *Session) JumpTo(index int) error {
	return s.navigate(func(int) int { return index })
}

func (s *Session) navigate(target func(cur int) int) error {
	s.mu.Lock()
	if !s.activeLocked() {
		s.mu.Unlock()
		return ErrNotActive
	}
	if next := target(s.current); next >= 0 && next < len(s.questions) {
		s.current = next
	}
	view := s.viewLocked()
	s.mu.Unlock()

	s.emit(Event{Type: EventState, View: view})
	return nil
}

// Submit grades and persists the attempt. Only the first call on an active
// session does any work; once completed it returns the stored outcome, and
// while another submission is in flight it returns ErrNotActive.
//
// Response records already written are not rolled back if a later write
// fails; the session still completes and the outcome reports Persisted=false.
func (s *Session) Submit(ctx context.Context, trigger model.SubmitTrigger) (*Outcome, error) {
	s.mu.Lock()
	if s.state == StateCompleted {
		out := s.outcome
		s.mu.Unlock()
		return out, nil
	}
	if !s.activeLocked() {
		s.mu.Unlock()
		return nil, ErrNotActive
	}
	s.state = StateSubmitting
	expired := s.timer.Expired()
	s.timer.Stop()
	remaining := s.timer.Remaining()
	questions := s.questions
	answers := s.answers.Snapshot()
	s.mu.Unlock()

	s.emit(Event{Type: EventSubmitting})

	outcome, err := s.persist(ctx, questions, answers, remaining, trigger)

	s.mu.Lock()
	s.state = StateCompleted
	s.outcome = outcome
	s.mu.Unlock()

	if err != nil {
		s.log.Error().Err(err).Str("trigger", string(trigger)).Msg("Simulado submission not fully persisted")
		s.emit(Event{Type: EventFailed, Outcome: outcome, Err: err})
		return outcome, err
	}

	s.log.Info().
		Int("correct", outcome.Correct).
		Int("total", outcome.Total).
		Int("percentage", outcome.Percentage).
		Str("trigger", string(trigger)).
		Bool("timer_expired", expired).
		Msg("Simulado submitted")

	s.emit(Event{Type: EventCompleted, Outcome: outcome})
	return outcome, nil
}

func (s *Session) persist(ctx context.Context, questions []model.Question, answers map[string]string, remaining int, trigger model.SubmitTrigger) (*Outcome, error) {
	outcome := &Outcome{
		Result:         Score(questions, answers),
		ElapsedMinutes: ElapsedMinutes(s.duration - remaining),
		Trigger:        trigger,
	}

	for _, g := range Grade(questions, answers) {
		rec := &model.SimuladoResponse{
			UserID:     s.userID,
			SimuladoID: s.simuladoID,
			QuestionID: g.Question.ID,
			UserAnswer: g.Answer,
			IsCorrect:  g.Correct,
		}
		if err := s.recorder.SaveResponse(ctx, rec); err != nil {
			return outcome, fmt.Errorf("save response for question %s: %w", g.Question.ID, err)
		}
	}

	attempt := &model.SimuladoAttempt{
		UserID:            s.userID,
		SimuladoID:        s.simuladoID,
		Score:             outcome.Correct,
		TotalQuestions:    outcome.Total,
		PercentageCorrect: outcome.Percentage,
		TimeSpentMinutes:  outcome.ElapsedMinutes,
		Trigger:           trigger,
		CompletedAt:       s.opts.Now(),
	}
	if err := s.recorder.SaveAttempt(ctx, attempt); err != nil {
		return outcome, fmt.Errorf("save attempt: %w", err)
	}

	outcome.Persisted = true
	return outcome, nil
}

// Dispose cancels the countdown and drops all listeners. An active session
// that is disposed is abandoned without persisting anything; a submission
// already in flight runs to completion.
func (s *Session) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	s.disposed = true
	s.listeners = nil
	if s.timer != nil {
		s.timer.Stop()
	}
}

// State returns the lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CurrentIndex returns the index of the question being shown.
func (s *Session) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Remaining returns the seconds left on the countdown.
func (s *Session) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remainingLocked()
}

// Outcome returns the submission outcome, or nil before completion.
func (s *Session) Outcome() *Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome
}

// View returns a snapshot of the session.
func (s *Session) View() *View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) onTick(remaining int) {
	s.emit(Event{Type: EventTick, Remaining: remaining})
}

func (s *Session) onExpire() {
	ctx := context.Background()
	if s.opts.SubmitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.SubmitTimeout)
		defer cancel()
	}
	if _, err := s.Submit(ctx, model.SubmitTriggerExpired); err != nil && !errors.Is(err, ErrNotActive) {
		s.log.Warn().Err(err).Msg("Auto-submit on expiry failed")
	}
}

func (s *Session) activeLocked() bool {
	return s.state == StateActive && !s.disposed
}

func (s *Session) remainingLocked() int {
	if s.timer == nil {
		return s.duration
	}
	return s.timer.Remaining()
}

func (s *Session) viewLocked() *View {
	v := &View{
		SimuladoID:     s.simuladoID,
		Title:          s.simulado.Title,
		State:          s.state,
		CurrentIndex:   s.current,
		TotalQuestions: len(s.questions),
		Remaining:      s.remainingLocked(),
		Answers:        s.answers.Snapshot(),
		Answered:       s.answers.Len(),
		Outcome:        s.outcome,
	}
	if s.current < len(s.questions) {
		q := s.questions[s.current].ForStudent()
		v.Question = &q
	}
	return v
}

func (s *Session) emit(ev Event) {
	s.mu.Lock()
	listeners := make([]func(Event), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(ev)
	}
}
