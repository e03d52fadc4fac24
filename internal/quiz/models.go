package quiz

// Quiz is the authored quiz record. QuestionCount is derived at
// creation time; SelectCount is how many questions one attempt
// presents; PageSize drives detail-view pagination.
type Quiz struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	QuestionCount int    `json:"total_question_count"`
	SelectCount   int    `json:"question_count"`
	PageSize      int    `json:"pagination_count"`
	IsRandom      bool   `json:"is_random"`
	CreatedAt     int64  `json:"created_at,omitempty"`
}

type Question struct {
	ID       int64  `json:"id"`
	QuizID   int64  `json:"quiz_id"`
	Text     string `json:"name"`
	Sequence int    `json:"sequence"` // 1-based, dense within a quiz
}

type Selection struct {
	ID         int64  `json:"id"`
	QuestionID int64  `json:"question_id"`
	Text       string `json:"name"`
	Sequence   int    `json:"sequence"`
	IsCorrect  bool   `json:"is_correct"`
}

// Version is an immutable presentation ordering: which questions an
// attempt shows, in what order, and how each question's selections are
// ordered. It references question/selection ids by value, never copies
// content.
type Version struct {
	ID           int64             `json:"id"`
	QuizID       int64             `json:"quiz_id"`
	Number       int               `json:"version"` // 1-based
	QuestionIDs  []int64           `json:"question_ids"`
	SelectionIDs map[int64][]int64 `json:"selection_ids"` // question id -> ordered selection ids
}

// AttemptState is the per-(user, quiz) lifecycle. Final is terminal.
type AttemptState int

const (
	StateUnanswered AttemptState = 0
	StateFinal      AttemptState = 1
	StateDraft      AttemptState = 2
)

// Pin durably associates a user with one version of a quiz. Answers is
// the draft blob; nil until the first pre-save.
type Pin struct {
	ID        int64
	UserID    int64
	QuizID    int64
	VersionID int64
	Answers   map[int64][]int64 // question id -> chosen selection ids
}

// Answer is one question's submitted selection set.
type Answer struct {
	QuestionID   int64   `json:"question_id"`
	SelectionIDs []int64 `json:"selection_ids"`
}

// FinalRow is one graded, immutable log row of a final submission.
type FinalRow struct {
	UserID       int64
	QuestionID   int64
	SelectionIDs []int64
	IsCorrect    bool
}

// NewQuestion is the creation-time shape of a question with its
// selections, before ids exist.
type NewQuestion struct {
	Text       string
	Selections []NewSelection
}

type NewSelection struct {
	Text      string
	IsCorrect bool
}

// QuizSummary is one row of the quiz list: the quiz plus the caller's
// attempt state (nil for admins, who have no attempt tracking).
type QuizSummary struct {
	Quiz
	State *AttemptState `json:"status"`
}
