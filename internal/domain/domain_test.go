package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestValidateQuestions(t *testing.T) {
	valid := Question{Text: "2+2?", Options: []string{"3", "4"}, CorrectAnswer: 1}
	if err := ValidateQuestions([]Question{valid}); err != nil {
		t.Fatalf("expected valid set, got %v", err)
	}

	if err := ValidateQuestions(nil); !errors.Is(err, ErrEmptyQuestionSet) {
		t.Fatalf("expected empty set error, got %v", err)
	}

	cases := map[string]Question{
		"missing text":   {Options: []string{"a", "b"}},
		"one option":     {Text: "q", Options: []string{"a"}},
		"blank option":   {Text: "q", Options: []string{"a", ""}},
		"negative index": {Text: "q", Options: []string{"a", "b"}, CorrectAnswer: -1},
		"index too high": {Text: "q", Options: []string{"a", "b"}, CorrectAnswer: 2},
	}
	for name, q := range cases {
		err := ValidateQuestions([]Question{valid, q})
		if !errors.Is(err, ErrInvalidQuestion) {
			t.Fatalf("%s: expected invalid question, got %v", name, err)
		}
		if !strings.Contains(err.Error(), "question 2") {
			t.Fatalf("%s: expected position in error, got %v", name, err)
		}
	}
}

func TestSnapshotPhasePrecedence(t *testing.T) {
	cases := []struct {
		snap Snapshot
		want Phase
	}{
		{Snapshot{}, PhaseAwaitingAnswer},
		{Snapshot{IsSubmitted: true}, PhaseSubmitted},
		{Snapshot{IsTimeUp: true}, PhaseTimeUp},
		{Snapshot{IsSubmitted: true, IsTimeUp: true}, PhaseTimeUp},
		{Snapshot{QuizComplete: true, IsTimeUp: true}, PhaseComplete},
	}
	for _, tc := range cases {
		if got := tc.snap.Phase(); got != tc.want {
			t.Fatalf("%+v: expected %s, got %s", tc.snap, tc.want, got)
		}
	}
}

func TestStateSnapshotOmitsTransientFields(t *testing.T) {
	sel := 2
	state := State{CurrentQuestionIndex: 1, SelectedOption: &sel, Phase: PhaseTimeUp, SecondsRemaining: 0, CorrectCount: 1, Feedback: "x"}
	data, err := json.Marshal(state.Snapshot())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got := string(data)
	want := `{"currentQuestionIndex":1,"correctCount":1,"selectedOptionIndex":2,"quizComplete":false,"isSubmitted":false,"isTimeUp":true}`
	if got != want {
		t.Fatalf("unexpected snapshot json\n got: %s\nwant: %s", got, want)
	}

	sel = 0
	if *state.Snapshot().SelectedOptionIndex != 0 {
		t.Fatalf("snapshot should track the current selection")
	}
}
