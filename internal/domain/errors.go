package domain

import "errors"

var (
	// ErrEmptyQuestionSet is a configuration error: a session needs at least one question.
	ErrEmptyQuestionSet = errors.New("question set is empty")
	// ErrInvalidQuestion indicates a question record failed validation.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrQuestionSetNotFound indicates the question data could not be located.
	ErrQuestionSetNotFound = errors.New("question set not found")
	// ErrOptionOutOfRange indicates a selected option index does not exist.
	ErrOptionOutOfRange = errors.New("option index out of range")
	// ErrSnapshotNotFound is returned by snapshot stores when the key is absent.
	ErrSnapshotNotFound = errors.New("snapshot not found")
	// ErrSessionClosed is returned when a transition is attempted on a closed session.
	ErrSessionClosed = errors.New("quiz session closed")
)
