package quiz

import "context"

// ListOpts selects a page of the quiz list for one caller.
type ListOpts struct {
	UserID  int64
	IsAdmin bool
	Limit   int
	Page    int // 1-based
}

// Store is the engine's narrow view of the relational store. All
// multi-row writes are atomic: either every row of a call lands or
// none do.
type Store interface {
	// Authoring reads/writes.
	CreateQuiz(ctx context.Context, q Quiz, questions []NewQuestion) (int64, error)
	GetQuiz(ctx context.Context, id int64) (Quiz, error)
	ListQuizzes(ctx context.Context, opts ListOpts) (total int, out []QuizSummary, err error)
	QuestionsByQuiz(ctx context.Context, quizID int64) ([]Question, error)
	QuestionsByIDs(ctx context.Context, ids []int64) ([]Question, error)
	SelectionsByQuestion(ctx context.Context, questionID int64) ([]Selection, error)
	SelectionsByIDs(ctx context.Context, ids []int64) ([]Selection, error)
	SelectionIDsByQuestion(ctx context.Context, questionID int64) ([]int64, error)
	CorrectSelectionIDs(ctx context.Context, questionID int64) ([]int64, error)

	// Version pool.
	PutVersions(ctx context.Context, versions []Version) error
	VersionNumbers(ctx context.Context, quizID int64) ([]int, error)
	VersionByNumber(ctx context.Context, quizID int64, number int) (Version, error)
	VersionByID(ctx context.Context, id int64) (Version, error)

	// Pin + draft. CreatePinIfAbsent is exactly-once per (user, quiz):
	// a concurrent loser leaves the winner's row untouched.
	CreatePinIfAbsent(ctx context.Context, userID, quizID, versionID int64) error
	GetPin(ctx context.Context, userID, quizID int64) (Pin, bool, error)
	SaveDraft(ctx context.Context, userID, quizID int64, answers map[int64][]int64) error

	// Final rows. PutFinalRows returns ErrAlreadyFinal when any row for
	// the same (user, question) already exists.
	PutFinalRows(ctx context.Context, rows []FinalRow) error
	HasFinal(ctx context.Context, userID, quizID int64) (bool, error)
	FinalRows(ctx context.Context, userID, quizID int64) ([]FinalRow, error)
	CorrectCount(ctx context.Context, userID, quizID int64) (int, error)
}
