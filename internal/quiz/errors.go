package quiz

import "errors"

// Creation-time validation outcomes. All are detected before any row
// is written; creation is all-or-nothing.
var (
	ErrEmptyQuiz           = errors.New("quiz has no questions")
	ErrSelectCountTooLarge = errors.New("select count exceeds total question count")
	ErrTooFewSelections    = errors.New("question needs at least two selections")
	ErrNoCorrectAnswer     = errors.New("question has no correct selection")
)

// State-conflict outcomes: expected, user-triggerable, never fatal.
var (
	ErrAlreadyFinal        = errors.New("final submission already exists")
	ErrAnswerCountMismatch = errors.New("submitted answer count does not match select count")
)

var (
	ErrQuizNotFound = errors.New("quiz not found")

	// ErrVersionsNotReady signals that version generation has not
	// finished yet. Callers retry or surface transient-unavailable;
	// an empty version set is never returned silently.
	ErrVersionsNotReady = errors.New("quiz versions not generated yet")
)
