package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"quiz-widget/internal/domain"
)

const (
	// DefaultDuration is the per-question countdown.
	DefaultDuration = 60 * time.Second
	// DefaultTick is the countdown period.
	DefaultTick = time.Second

	feedbackCorrect = "Correct answer!"
	feedbackWrong   = "Wrong answer!"
	feedbackTimeUp  = "Time's up! Choose an option below."
)

// SessionOptions configures a QuizSession.
type SessionOptions struct {
	Questions []domain.Question
	Bridge    *PersistenceBridge
	Scheduler Scheduler
	Duration  time.Duration
	Tick      time.Duration
	Logger    zerolog.Logger
}

// QuizSession owns the quiz state and is the only place it changes.
// Front-ends call the transition methods and observe the session through Subscribe.
type QuizSession struct {
	questions []domain.Question
	bridge    *PersistenceBridge
	log       zerolog.Logger

	mu          sync.Mutex
	state       domain.State
	countdown   *Countdown
	loaded      bool
	closed      bool
	subscribers map[chan domain.View]struct{}
}

// NewQuizSession validates the question set and builds a session that has not loaded yet.
func NewQuizSession(opts SessionOptions) (*QuizSession, error) {
	if err := domain.ValidateQuestions(opts.Questions); err != nil {
		return nil, err
	}
	duration := opts.Duration
	if duration <= 0 {
		duration = DefaultDuration
	}
	tick := opts.Tick
	if tick <= 0 {
		tick = DefaultTick
	}
	scheduler := opts.Scheduler
	if scheduler == nil {
		scheduler = TickerScheduler{}
	}
	seconds := int(duration / time.Second)
	if seconds < 1 {
		seconds = 1
	}

	s := &QuizSession{
		questions:   opts.Questions,
		bridge:      opts.Bridge,
		log:         opts.Logger.With().Str("component", "quiz_session").Logger(),
		countdown:   NewCountdown(scheduler, tick, seconds),
		subscribers: make(map[chan domain.View]struct{}),
	}
	s.state = domain.State{Phase: domain.PhaseAwaitingAnswer, SecondsRemaining: seconds}
	return s, nil
}

// Start restores the last snapshot, if any, and arms the countdown when a
// question is awaiting an answer. It runs once; later calls are no-ops.
func (s *QuizSession) Start(ctx context.Context) error {
	var (
		snapshot domain.Snapshot
		found    bool
		err      error
	)
	if s.bridge != nil {
		snapshot, found, err = s.bridge.Load(ctx)
		if err != nil {
			s.log.Error().Err(err).Msg("snapshot load failed, starting fresh")
			found = false
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrSessionClosed
	}
	if s.loaded {
		return nil
	}
	s.loaded = true

	if found && s.restorableLocked(snapshot) {
		s.restoreLocked(snapshot)
		s.log.Debug().
			Int("question", s.state.CurrentQuestionIndex).
			Stringer("phase", s.state.Phase).
			Msg("restored snapshot")
	} else if found {
		s.log.Warn().Int("question", snapshot.CurrentQuestionIndex).Msg("discarding out-of-range snapshot")
	}

	if s.state.Phase == domain.PhaseAwaitingAnswer {
		s.countdown.Start(s.onTick)
	}
	s.broadcastLocked()
	return nil
}

func (s *QuizSession) restorableLocked(snapshot domain.Snapshot) bool {
	if snapshot.CurrentQuestionIndex < 0 || snapshot.CurrentQuestionIndex >= len(s.questions) {
		return false
	}
	// Only questions already resolved can have been scored.
	resolved := snapshot.CurrentQuestionIndex
	if snapshot.IsSubmitted || snapshot.IsTimeUp || snapshot.QuizComplete {
		resolved++
	}
	if snapshot.CorrectCount < 0 || snapshot.CorrectCount > resolved {
		return false
	}
	if sel := snapshot.SelectedOptionIndex; sel != nil {
		options := s.questions[snapshot.CurrentQuestionIndex].Options
		if *sel < 0 || *sel >= len(options) {
			return false
		}
	}
	return true
}

func (s *QuizSession) restoreLocked(snapshot domain.Snapshot) {
	s.state = domain.State{
		CurrentQuestionIndex: snapshot.CurrentQuestionIndex,
		CorrectCount:         snapshot.CorrectCount,
		Phase:                snapshot.Phase(),
	}
	if s.state.Phase != domain.PhaseComplete && snapshot.SelectedOptionIndex != nil {
		sel := *snapshot.SelectedOptionIndex
		s.state.SelectedOption = &sel
	}
	s.countdown.Reset()
	if snapshot.IsTimeUp {
		s.countdown.Set(0)
		s.state.Feedback = feedbackTimeUp
	}
	s.state.SecondsRemaining = s.countdown.Remaining()
}

// Select picks an option. While awaiting an answer it is the answer to submit;
// after time-up it is display-only and never scored. Other phases ignore it.
func (s *QuizSession) Select(ctx context.Context, option int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ok, err := s.acceptingLocked(); !ok {
		return err
	}
	switch s.state.Phase {
	case domain.PhaseAwaitingAnswer, domain.PhaseTimeUp:
	default:
		return nil
	}
	if option < 0 || option >= len(s.currentLocked().Options) {
		return domain.ErrOptionOutOfRange
	}
	s.state.SelectedOption = &option
	s.log.Debug().Int("question", s.state.CurrentQuestionIndex).Int("option", option).Msg("option selected")
	return s.commitLocked(ctx)
}

// Submit locks in the current answer. A missing selection is recorded without credit.
func (s *QuizSession) Submit(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ok, err := s.acceptingLocked(); !ok {
		return err
	}
	if s.state.Phase != domain.PhaseAwaitingAnswer {
		return nil
	}
	s.countdown.Stop()
	s.state.Phase = domain.PhaseSubmitted
	if sel := s.state.SelectedOption; sel != nil {
		if s.currentLocked().IsCorrect(*sel) {
			s.state.CorrectCount++
			s.state.Feedback = feedbackCorrect
		} else {
			s.state.Feedback = feedbackWrong
		}
	}
	s.log.Debug().
		Int("question", s.state.CurrentQuestionIndex).
		Int("correct", s.state.CorrectCount).
		Msg("answer submitted")
	return s.commitLocked(ctx)
}

// Advance moves from a resolved question to the next one, or to the results on the last question.
func (s *QuizSession) Advance(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ok, err := s.acceptingLocked(); !ok {
		return err
	}
	switch s.state.Phase {
	case domain.PhaseSubmitted, domain.PhaseTimeUp:
	default:
		return nil
	}

	if s.state.CurrentQuestionIndex+1 < len(s.questions) {
		s.state.CurrentQuestionIndex++
		s.beginQuestionLocked()
		s.log.Debug().Int("question", s.state.CurrentQuestionIndex).Msg("advanced")
		return s.commitLocked(ctx)
	}

	s.countdown.Stop()
	s.state.Phase = domain.PhaseComplete
	s.state.SelectedOption = nil
	s.state.Feedback = ""
	s.log.Info().Int("correct", s.state.CorrectCount).Int("total", len(s.questions)).Msg("quiz complete")
	return s.clearLocked(ctx)
}

// Restart begins again at the first question with a zero score and clears the snapshot.
func (s *QuizSession) Restart(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ok, err := s.acceptingLocked(); !ok {
		return err
	}
	s.state.CurrentQuestionIndex = 0
	s.state.CorrectCount = 0
	s.beginQuestionLocked()
	s.log.Debug().Msg("restarted")
	return s.clearLocked(ctx)
}

// Close tears down the countdown and all subscriptions.
func (s *QuizSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.countdown.Stop()
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

// State returns a copy of the current state.
func (s *QuizSession) State() domain.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.state
	if state.SelectedOption != nil {
		v := *state.SelectedOption
		state.SelectedOption = &v
	}
	return state
}

// View returns the current render model.
func (s *QuizSession) View() domain.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Subscribe returns a channel that receives a view after every change.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *QuizSession) Subscribe() (<-chan domain.View, func()) {
	ch := make(chan domain.View, 8)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subscribers[ch] = struct{}{}
	ch <- s.viewLocked()
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *QuizSession) onTick(generation uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state.Phase != domain.PhaseAwaitingAnswer {
		return
	}
	applied, expired := s.countdown.Tick(generation)
	if !applied {
		return
	}
	s.state.SecondsRemaining = s.countdown.Remaining()
	if !expired {
		s.broadcastLocked()
		return
	}

	s.state.Phase = domain.PhaseTimeUp
	s.state.Feedback = feedbackTimeUp
	s.log.Debug().Int("question", s.state.CurrentQuestionIndex).Msg("time up")
	if err := s.commitLocked(context.Background()); err != nil {
		s.log.Error().Err(err).Msg("persist time-up")
	}
}

func (s *QuizSession) beginQuestionLocked() {
	s.state.Phase = domain.PhaseAwaitingAnswer
	s.state.SelectedOption = nil
	s.state.Feedback = ""
	s.countdown.Reset()
	s.state.SecondsRemaining = s.countdown.Remaining()
	s.countdown.Start(s.onTick)
}

// acceptingLocked reports whether transitions apply. Input before the
// initial load is ignored; a closed session rejects it.
func (s *QuizSession) acceptingLocked() (bool, error) {
	if s.closed {
		return false, domain.ErrSessionClosed
	}
	return s.loaded, nil
}

func (s *QuizSession) currentLocked() domain.Question {
	return s.questions[s.state.CurrentQuestionIndex]
}

// commitLocked mirrors the already updated state to storage, then publishes it.
// Observers see the new state even when the write fails.
func (s *QuizSession) commitLocked(ctx context.Context) error {
	defer s.broadcastLocked()
	if s.bridge == nil {
		return nil
	}
	if err := s.bridge.Save(ctx, s.state.Snapshot()); err != nil {
		s.log.Error().Err(err).Msg("persist snapshot")
		return err
	}
	return nil
}

func (s *QuizSession) clearLocked(ctx context.Context) error {
	defer s.broadcastLocked()
	if s.bridge == nil {
		return nil
	}
	if err := s.bridge.Clear(ctx); err != nil {
		s.log.Error().Err(err).Msg("clear snapshot")
		return err
	}
	return nil
}

func (s *QuizSession) broadcastLocked() {
	view := s.viewLocked()
	for ch := range s.subscribers {
		select {
		case ch <- view:
		default:
			// Drop the stale view so a slow renderer only sees the latest one.
			select {
			case <-ch:
			default:
			}
			ch <- view
		}
	}
}

func (s *QuizSession) viewLocked() domain.View {
	view := domain.View{
		Loading:          !s.loaded,
		Phase:            s.state.Phase,
		TotalQuestions:   len(s.questions),
		SecondsRemaining: s.state.SecondsRemaining,
		CorrectCount:     s.state.CorrectCount,
		Feedback:         s.state.Feedback,
	}
	if view.Loading {
		return view
	}

	if s.state.Phase == domain.PhaseComplete {
		view.Actions = []domain.Action{domain.ActionRestart}
		view.Results = &domain.Results{
			Correct: s.state.CorrectCount,
			Total:   len(s.questions),
			Summary: domain.Summary(s.state.CorrectCount, len(s.questions)),
		}
		return view
	}

	question := s.currentLocked()
	view.QuestionNumber = s.state.CurrentQuestionIndex + 1
	view.Question = question.Text
	submitted := s.state.Phase == domain.PhaseSubmitted
	view.Options = make([]domain.OptionView, len(question.Options))
	for i, text := range question.Options {
		selected := s.state.SelectedOption != nil && *s.state.SelectedOption == i
		view.Options[i] = domain.OptionView{
			Index:     i,
			Text:      text,
			Selected:  selected,
			Correct:   submitted && question.IsCorrect(i),
			Incorrect: submitted && selected && !question.IsCorrect(i),
		}
	}

	advance := domain.ActionNext
	if view.QuestionNumber == len(s.questions) {
		advance = domain.ActionResults
	}
	switch s.state.Phase {
	case domain.PhaseAwaitingAnswer:
		view.Actions = []domain.Action{domain.ActionSubmit}
	case domain.PhaseSubmitted:
		view.Actions = []domain.Action{advance}
	case domain.PhaseTimeUp:
		view.Actions = []domain.Action{domain.ActionRestart, advance}
	}
	return view
}
