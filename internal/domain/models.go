package domain

import (
	"fmt"
)

// Question is one multiple-choice item. Field names follow the static data format.
type Question struct {
	Text          string   `json:"question" yaml:"question" validate:"required"`
	Options       []string `json:"options" yaml:"options" validate:"min=2,dive,required"`
	CorrectAnswer int      `json:"correctAnswer" yaml:"correctAnswer" validate:"gte=0"`
}

// IsCorrect reports whether option is the correct answer.
func (q Question) IsCorrect(option int) bool {
	return option == q.CorrectAnswer
}

// QuestionSet is the document shape of a question data file.
type QuestionSet struct {
	Questions []Question `json:"questions" yaml:"questions"`
}

// Phase is the state of the current question.
type Phase int

const (
	PhaseAwaitingAnswer Phase = iota
	PhaseSubmitted
	PhaseTimeUp
	PhaseComplete
)

func (p Phase) String() string {
	switch p {
	case PhaseAwaitingAnswer:
		return "awaiting_answer"
	case PhaseSubmitted:
		return "submitted"
	case PhaseTimeUp:
		return "time_up"
	case PhaseComplete:
		return "complete"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(text []byte) error {
	switch string(text) {
	case "awaiting_answer":
		*p = PhaseAwaitingAnswer
	case "submitted":
		*p = PhaseSubmitted
	case "time_up":
		*p = PhaseTimeUp
	case "complete":
		*p = PhaseComplete
	default:
		return fmt.Errorf("unknown phase %q", text)
	}
	return nil
}

// State is the mutable quiz state owned by a single session.
type State struct {
	CurrentQuestionIndex int
	SelectedOption       *int
	Phase                Phase
	SecondsRemaining     int
	CorrectCount         int
	Feedback             string
}

func (s State) IsSubmitted() bool  { return s.Phase == PhaseSubmitted }
func (s State) IsTimeUp() bool     { return s.Phase == PhaseTimeUp }
func (s State) QuizComplete() bool { return s.Phase == PhaseComplete }

// Snapshot converts the state into its persisted form.
func (s State) Snapshot() Snapshot {
	var selected *int
	if s.SelectedOption != nil {
		v := *s.SelectedOption
		selected = &v
	}
	return Snapshot{
		CurrentQuestionIndex: s.CurrentQuestionIndex,
		CorrectCount:         s.CorrectCount,
		SelectedOptionIndex:  selected,
		QuizComplete:         s.QuizComplete(),
		IsSubmitted:          s.IsSubmitted(),
		IsTimeUp:             s.IsTimeUp(),
	}
}

// Snapshot is the subset of State that survives a reload.
// Remaining time and feedback are deliberately absent.
type Snapshot struct {
	CurrentQuestionIndex int  `json:"currentQuestionIndex"`
	CorrectCount         int  `json:"correctCount"`
	SelectedOptionIndex  *int `json:"selectedOptionIndex"`
	QuizComplete         bool `json:"quizComplete"`
	IsSubmitted          bool `json:"isSubmitted"`
	IsTimeUp             bool `json:"isTimeUp"`
}

// Phase resolves the flag combination; complete wins over time-up, which wins over submitted.
func (s Snapshot) Phase() Phase {
	switch {
	case s.QuizComplete:
		return PhaseComplete
	case s.IsTimeUp:
		return PhaseTimeUp
	case s.IsSubmitted:
		return PhaseSubmitted
	default:
		return PhaseAwaitingAnswer
	}
}

// Action is an affordance the view offers in the current phase.
type Action string

const (
	ActionSubmit  Action = "submit"
	ActionNext    Action = "next"
	ActionResults Action = "results"
	ActionRestart Action = "restart"
)

// OptionView is a rendered answer option.
type OptionView struct {
	Index     int    `json:"index"`
	Text      string `json:"text"`
	Selected  bool   `json:"selected"`
	Correct   bool   `json:"correct"`
	Incorrect bool   `json:"incorrect"`
}

// Results is the final summary shown once the quiz completes.
type Results struct {
	Correct int    `json:"correct"`
	Total   int    `json:"total"`
	Summary string `json:"summary"`
}

// View is everything a front-end needs to render the session.
type View struct {
	Loading          bool         `json:"loading"`
	Phase            Phase        `json:"phase"`
	QuestionNumber   int          `json:"questionNumber"`
	TotalQuestions   int          `json:"totalQuestions"`
	Question         string       `json:"question,omitempty"`
	Options          []OptionView `json:"options,omitempty"`
	SecondsRemaining int          `json:"secondsRemaining"`
	CorrectCount     int          `json:"correctCount"`
	Feedback         string       `json:"feedback,omitempty"`
	Actions          []Action     `json:"actions"`
	Results          *Results     `json:"results,omitempty"`
}

// Summary formats the results line of the completion view.
func Summary(correct, total int) string {
	return fmt.Sprintf("You answered %d out of %d questions correctly.", correct, total)
}
