package quiz_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/jeeyeonnnn/PJY-Quiz/internal/quiz"
)

// fakeStore is an in-memory Store for service-level tests. Writes go
// through one mutex so the exactly-once semantics of the real store
// (pin conflict, final unique index) can be reproduced faithfully.
type fakeStore struct {
	mu         sync.Mutex
	nextID     int64
	quizzes    map[int64]quiz.Quiz
	questions  []quiz.Question
	selections []quiz.Selection
	versions   []quiz.Version
	pins       map[string]*quiz.Pin
	finals     []quiz.FinalRow
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		quizzes: map[int64]quiz.Quiz{},
		pins:    map[string]*quiz.Pin{},
	}
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

func pinKey(userID, quizID int64) string { return fmt.Sprintf("%d:%d", userID, quizID) }

func (f *fakeStore) CreateQuiz(_ context.Context, q quiz.Quiz, questions []quiz.NewQuestion) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q.ID = f.id()
	q.QuestionCount = len(questions)
	f.quizzes[q.ID] = q
	for i, nq := range questions {
		question := quiz.Question{ID: f.id(), QuizID: q.ID, Text: nq.Text, Sequence: i + 1}
		f.questions = append(f.questions, question)
		for j, ns := range nq.Selections {
			f.selections = append(f.selections, quiz.Selection{
				ID: f.id(), QuestionID: question.ID, Text: ns.Text, Sequence: j + 1, IsCorrect: ns.IsCorrect,
			})
		}
	}
	return q.ID, nil
}

func (f *fakeStore) GetQuiz(_ context.Context, id int64) (quiz.Quiz, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.quizzes[id]
	if !ok {
		return quiz.Quiz{}, quiz.ErrQuizNotFound
	}
	return q, nil
}

func (f *fakeStore) ListQuizzes(_ context.Context, opts quiz.ListOpts) (int, []quiz.QuizSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []quiz.QuizSummary
	for id := f.nextID; id > 0; id-- { // newest first
		q, ok := f.quizzes[id]
		if !ok {
			continue
		}
		qs := quiz.QuizSummary{Quiz: q}
		if !opts.IsAdmin {
			st := quiz.StateUnanswered
			if f.hasFinalLocked(opts.UserID, q.ID) {
				st = quiz.StateFinal
			} else if p, ok := f.pins[pinKey(opts.UserID, q.ID)]; ok && p != nil {
				st = quiz.StateDraft
			}
			qs.State = &st
		}
		all = append(all, qs)
	}
	lo := (opts.Page - 1) * opts.Limit
	hi := lo + opts.Limit
	if lo > len(all) {
		lo = len(all)
	}
	if hi > len(all) {
		hi = len(all)
	}
	return len(all), all[lo:hi], nil
}

func (f *fakeStore) QuestionsByQuiz(_ context.Context, quizID int64) ([]quiz.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []quiz.Question
	for _, q := range f.questions {
		if q.QuizID == quizID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (f *fakeStore) QuestionsByIDs(_ context.Context, ids []int64) ([]quiz.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]quiz.Question, 0, len(ids))
	for _, id := range ids {
		found := false
		for _, q := range f.questions {
			if q.ID == id {
				out = append(out, q)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("question %d: not found", id)
		}
	}
	return out, nil
}

func (f *fakeStore) SelectionsByQuestion(_ context.Context, questionID int64) ([]quiz.Selection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []quiz.Selection
	for _, s := range f.selections {
		if s.QuestionID == questionID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) SelectionsByIDs(_ context.Context, ids []int64) ([]quiz.Selection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]quiz.Selection, 0, len(ids))
	for _, id := range ids {
		found := false
		for _, s := range f.selections {
			if s.ID == id {
				out = append(out, s)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("selection %d: not found", id)
		}
	}
	return out, nil
}

func (f *fakeStore) SelectionIDsByQuestion(_ context.Context, questionID int64) ([]int64, error) {
	sels, _ := f.SelectionsByQuestion(nil, questionID)
	out := make([]int64, 0, len(sels))
	for _, s := range sels {
		out = append(out, s.ID)
	}
	return out, nil
}

func (f *fakeStore) CorrectSelectionIDs(_ context.Context, questionID int64) ([]int64, error) {
	sels, _ := f.SelectionsByQuestion(nil, questionID)
	var out []int64
	for _, s := range sels {
		if s.IsCorrect {
			out = append(out, s.ID)
		}
	}
	return out, nil
}

func (f *fakeStore) PutVersions(_ context.Context, versions []quiz.Version) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range versions {
		v.ID = f.id()
		f.versions = append(f.versions, v)
	}
	return nil
}

func (f *fakeStore) VersionNumbers(_ context.Context, quizID int64) ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []int
	for _, v := range f.versions {
		if v.QuizID == quizID {
			out = append(out, v.Number)
		}
	}
	return out, nil
}

func (f *fakeStore) VersionByNumber(_ context.Context, quizID int64, number int) (quiz.Version, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.versions {
		if v.QuizID == quizID && v.Number == number {
			return v, nil
		}
	}
	return quiz.Version{}, quiz.ErrVersionsNotReady
}

func (f *fakeStore) VersionByID(_ context.Context, id int64) (quiz.Version, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.versions {
		if v.ID == id {
			return v, nil
		}
	}
	return quiz.Version{}, quiz.ErrVersionsNotReady
}

func (f *fakeStore) CreatePinIfAbsent(_ context.Context, userID, quizID, versionID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := pinKey(userID, quizID)
	if _, ok := f.pins[key]; ok {
		return nil
	}
	f.pins[key] = &quiz.Pin{ID: f.id(), UserID: userID, QuizID: quizID, VersionID: versionID}
	return nil
}

func (f *fakeStore) GetPin(_ context.Context, userID, quizID int64) (quiz.Pin, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pins[pinKey(userID, quizID)]
	if !ok {
		return quiz.Pin{}, false, nil
	}
	return *p, true, nil
}

func (f *fakeStore) SaveDraft(_ context.Context, userID, quizID int64, answers map[int64][]int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.pins[pinKey(userID, quizID)]; ok {
		p.Answers = answers
	}
	return nil
}

func (f *fakeStore) PutFinalRows(_ context.Context, rows []quiz.FinalRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range rows {
		for _, have := range f.finals {
			if have.UserID == r.UserID && have.QuestionID == r.QuestionID {
				return quiz.ErrAlreadyFinal
			}
		}
	}
	f.finals = append(f.finals, rows...)
	return nil
}

func (f *fakeStore) HasFinal(_ context.Context, userID, quizID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hasFinalLocked(userID, quizID), nil
}

func (f *fakeStore) hasFinalLocked(userID, quizID int64) bool {
	for _, r := range f.finals {
		if r.UserID == userID && f.quizOfQuestion(r.QuestionID) == quizID {
			return true
		}
	}
	return false
}

func (f *fakeStore) quizOfQuestion(questionID int64) int64 {
	for _, q := range f.questions {
		if q.ID == questionID {
			return q.QuizID
		}
	}
	return 0
}

func (f *fakeStore) FinalRows(_ context.Context, userID, quizID int64) ([]quiz.FinalRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []quiz.FinalRow
	for _, r := range f.finals {
		if r.UserID == userID && f.quizOfQuestion(r.QuestionID) == quizID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) CorrectCount(_ context.Context, userID, quizID int64) (int, error) {
	rows, _ := f.FinalRows(nil, userID, quizID)
	n := 0
	for _, r := range rows {
		if r.IsCorrect {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) versionsOf(quizID int64) []quiz.Version {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []quiz.Version
	for _, v := range f.versions {
		if v.QuizID == quizID {
			out = append(out, v)
		}
	}
	return out
}
