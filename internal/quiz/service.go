package quiz

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/jeeyeonnnn/PJY-Quiz/internal/grading"
	"github.com/jeeyeonnnn/PJY-Quiz/internal/pagination"
	syncx "github.com/jeeyeonnnn/PJY-Quiz/internal/sync"
)

// versionRetryDelay is the single internal wait before a detail
// request gives up on a quiz whose versions are still generating.
const versionRetryDelay = 200 * time.Millisecond

// Caller identifies who is asking. Admins bypass versioning and
// attempt tracking entirely.
type Caller struct {
	UserID  int64
	IsAdmin bool
}

// QuestionView is one question as presented to the caller: selections
// already in the pinned version's order (or natural order for admins).
type QuestionView struct {
	ID         int64       `json:"id"`
	Text       string      `json:"name"`
	Selections []Selection `json:"selections"`
}

// Detail is the full detail-view payload for one quiz page.
type Detail struct {
	Quiz
	CorrectCount int             `json:"correct_question_count"`
	Page         pagination.Page `json:"page"`
	UserAnswers  []Answer        `json:"user_answers,omitempty"` // nil for admins
	Questions    []QuestionView  `json:"questions"`
}

// Service is the quiz version & attempt lifecycle engine.
type Service struct {
	store  Store
	grader grading.Grader
	gen    *Generator
	events *syncx.EventRepo
	siteID string
}

func NewService(store Store, grader grading.Grader, events *syncx.EventRepo, siteID string) *Service {
	return &Service{
		store:  store,
		grader: grader,
		gen:    NewGenerator(store, rand.New(rand.NewSource(time.Now().UnixNano()))),
		events: events,
		siteID: siteID,
	}
}

// Create validates and persists a quiz with its questions and
// selections, then materializes the version pool in the background.
// Validation happens before any write; creation is all-or-nothing.
func (s *Service) Create(ctx context.Context, name string, selectCount, pageSize int, isRandom bool, questions []NewQuestion) (int64, error) {
	if len(questions) == 0 {
		return 0, ErrEmptyQuiz
	}
	if selectCount < 1 || selectCount > len(questions) {
		return 0, ErrSelectCountTooLarge
	}
	for _, q := range questions {
		if len(q.Selections) < 2 {
			return 0, ErrTooFewSelections
		}
		hasCorrect := false
		for _, sel := range q.Selections {
			if sel.IsCorrect {
				hasCorrect = true
				break
			}
		}
		if !hasCorrect {
			return 0, ErrNoCorrectAnswer
		}
	}

	if pageSize < 1 {
		pageSize = 1
	}
	quizID, err := s.store.CreateQuiz(ctx, Quiz{
		Name:        name,
		SelectCount: selectCount,
		PageSize:    pageSize,
		IsRandom:    isRandom,
	}, questions)
	if err != nil {
		return 0, err
	}
	s.appendEvent(ctx, syncx.EventQuizCreated, fmt.Sprintf("quiz:%d", quizID), map[string]any{
		"quiz_id": quizID, "is_random": isRandom, "select_count": selectCount,
	})

	// Version generation must not block the creation response. Detail
	// requests arriving before it finishes get a retry-then-unavailable
	// path, never an empty pool.
	go func() {
		genCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		quiz, err := s.store.GetQuiz(genCtx, quizID)
		if err != nil {
			log.Printf("version generation: load quiz %d: %v", quizID, err)
			return
		}
		if err := s.gen.Generate(genCtx, quiz); err != nil {
			log.Printf("version generation: quiz %d: %v", quizID, err)
			return
		}
		s.appendEvent(genCtx, syncx.EventVersionsGenerated, fmt.Sprintf("quiz:%d", quizID), map[string]any{
			"quiz_id": quizID,
		})
	}()

	return quizID, nil
}

// List returns one page of the quiz list with the caller's per-quiz
// attempt state.
func (s *Service) List(ctx context.Context, caller Caller, limit, page int) (pagination.Page, []QuizSummary, error) {
	if limit < 1 {
		limit = 5
	}
	if page < 1 {
		page = 1
	}
	total, quizzes, err := s.store.ListQuizzes(ctx, ListOpts{
		UserID:  caller.UserID,
		IsAdmin: caller.IsAdmin,
		Limit:   limit,
		Page:    page,
	})
	if err != nil {
		return pagination.Page{}, nil, err
	}
	return pagination.New(total, limit, page), quizzes, nil
}

// Detail serves one page of a quiz. Users are pinned to exactly one
// version on first access so repeated reads and pagination stay
// consistent; admins see every question in natural order.
func (s *Service) Detail(ctx context.Context, caller Caller, quizID int64, page int) (Detail, error) {
	quiz, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return Detail{}, err
	}
	if page < 1 {
		page = 1
	}
	if caller.IsAdmin {
		return s.adminDetail(ctx, quiz, page)
	}
	return s.userDetail(ctx, caller, quiz, page)
}

func (s *Service) adminDetail(ctx context.Context, quiz Quiz, page int) (Detail, error) {
	questions, err := s.store.QuestionsByQuiz(ctx, quiz.ID)
	if err != nil {
		return Detail{}, err
	}
	lo, hi := pagination.Slice(len(questions), quiz.PageSize, page)

	views := make([]QuestionView, 0, hi-lo)
	for _, q := range questions[lo:hi] {
		sels, err := s.store.SelectionsByQuestion(ctx, q.ID)
		if err != nil {
			return Detail{}, err
		}
		views = append(views, QuestionView{ID: q.ID, Text: q.Text, Selections: sels})
	}
	return Detail{
		Quiz:      quiz,
		Page:      pagination.New(len(questions), quiz.PageSize, page),
		Questions: views,
	}, nil
}

func (s *Service) userDetail(ctx context.Context, caller Caller, quiz Quiz, page int) (Detail, error) {
	pin, version, err := s.ensurePin(ctx, caller.UserID, quiz)
	if err != nil {
		return Detail{}, err
	}

	lo, hi := pagination.Slice(len(version.QuestionIDs), quiz.PageSize, page)
	questions, err := s.store.QuestionsByIDs(ctx, version.QuestionIDs[lo:hi])
	if err != nil {
		return Detail{}, err
	}

	views := make([]QuestionView, 0, len(questions))
	for _, q := range questions {
		sels, err := s.store.SelectionsByIDs(ctx, version.SelectionIDs[q.ID])
		if err != nil {
			return Detail{}, err
		}
		views = append(views, QuestionView{ID: q.ID, Text: q.Text, Selections: sels})
	}

	answers, correct, err := s.answerState(ctx, caller.UserID, quiz.ID, pin)
	if err != nil {
		return Detail{}, err
	}
	return Detail{
		Quiz:         quiz,
		CorrectCount: correct,
		Page:         pagination.New(len(version.QuestionIDs), quiz.PageSize, page),
		UserAnswers:  answers,
		Questions:    views,
	}, nil
}

// ensurePin returns the caller's pinned version, assigning one
// exactly-once on first contact. Losers of a concurrent first-contact
// race adopt the winner's pin.
func (s *Service) ensurePin(ctx context.Context, userID int64, quiz Quiz) (Pin, Version, error) {
	pin, ok, err := s.store.GetPin(ctx, userID, quiz.ID)
	if err != nil {
		return Pin{}, Version{}, err
	}
	if !ok {
		version, err := s.pickVersion(ctx, quiz)
		if err != nil {
			return Pin{}, Version{}, err
		}
		if err := s.store.CreatePinIfAbsent(ctx, userID, quiz.ID, version.ID); err != nil {
			return Pin{}, Version{}, err
		}
		// Reread: under a race the row may belong to the winner and
		// reference a different version.
		pin, ok, err = s.store.GetPin(ctx, userID, quiz.ID)
		if err != nil {
			return Pin{}, Version{}, err
		}
		if !ok {
			return Pin{}, Version{}, fmt.Errorf("pin for user %d quiz %d vanished after create", userID, quiz.ID)
		}
	}
	version, err := s.store.VersionByID(ctx, pin.VersionID)
	if err != nil {
		return Pin{}, Version{}, err
	}
	return pin, version, nil
}

// pickVersion chooses uniformly among generated versions for random
// quizzes, always version 1 otherwise. One timed retry covers the
// window where generation is still running.
func (s *Service) pickVersion(ctx context.Context, quiz Quiz) (Version, error) {
	numbers, err := s.store.VersionNumbers(ctx, quiz.ID)
	if err != nil {
		return Version{}, err
	}
	if len(numbers) == 0 {
		select {
		case <-ctx.Done():
			return Version{}, ctx.Err()
		case <-time.After(versionRetryDelay):
		}
		numbers, err = s.store.VersionNumbers(ctx, quiz.ID)
		if err != nil {
			return Version{}, err
		}
		if len(numbers) == 0 {
			return Version{}, ErrVersionsNotReady
		}
	}
	pick := numbers[0]
	if quiz.IsRandom {
		pick = numbers[rand.Intn(len(numbers))]
	}
	return s.store.VersionByNumber(ctx, quiz.ID, pick)
}

// answerState resolves the caller's answers for display: Final wins
// over Draft; no Final and no Draft means nothing to show.
func (s *Service) answerState(ctx context.Context, userID, quizID int64, pin Pin) ([]Answer, int, error) {
	hasFinal, err := s.store.HasFinal(ctx, userID, quizID)
	if err != nil {
		return nil, 0, err
	}
	if hasFinal {
		rows, err := s.store.FinalRows(ctx, userID, quizID)
		if err != nil {
			return nil, 0, err
		}
		answers := make([]Answer, 0, len(rows))
		for _, r := range rows {
			answers = append(answers, Answer{QuestionID: r.QuestionID, SelectionIDs: r.SelectionIDs})
		}
		correct, err := s.store.CorrectCount(ctx, userID, quizID)
		if err != nil {
			return nil, 0, err
		}
		return answers, correct, nil
	}
	if len(pin.Answers) == 0 {
		return nil, 0, nil
	}
	answers := make([]Answer, 0, len(pin.Answers))
	for qid, sels := range pin.Answers {
		answers = append(answers, Answer{QuestionID: qid, SelectionIDs: sels})
	}
	return answers, 0, nil
}

// PreSave stores a draft answer set, replacing any prior draft
// entirely. Rejected once a final submission exists.
func (s *Service) PreSave(ctx context.Context, caller Caller, quizID int64, answers []Answer) error {
	hasFinal, err := s.store.HasFinal(ctx, caller.UserID, quizID)
	if err != nil {
		return err
	}
	if hasFinal {
		return ErrAlreadyFinal
	}

	quiz, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return err
	}
	// A draft can only hang off a pin; first pre-save without a prior
	// detail view assigns the version here.
	if _, _, err := s.ensurePin(ctx, caller.UserID, quiz); err != nil {
		return err
	}

	blob := make(map[int64][]int64, len(answers))
	for _, a := range answers {
		blob[a.QuestionID] = a.SelectionIDs
	}
	if err := s.store.SaveDraft(ctx, caller.UserID, quizID, blob); err != nil {
		return err
	}
	s.appendEvent(ctx, syncx.EventDraftSaved, attemptKey(caller.UserID, quizID), map[string]any{
		"user_id": caller.UserID, "quiz_id": quizID, "answered": len(answers),
	})
	return nil
}

// Submit grades a final answer set and persists it exactly once. The
// submission is graded directly against the answer key, independent of
// the pinned version.
func (s *Service) Submit(ctx context.Context, caller Caller, quizID int64, answers []Answer) error {
	hasFinal, err := s.store.HasFinal(ctx, caller.UserID, quizID)
	if err != nil {
		return err
	}
	if hasFinal {
		return ErrAlreadyFinal
	}

	quiz, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return err
	}
	if len(answers) != quiz.SelectCount {
		return ErrAnswerCountMismatch
	}

	rows := make([]FinalRow, 0, len(answers))
	correct := 0
	for _, a := range answers {
		key, err := s.store.CorrectSelectionIDs(ctx, a.QuestionID)
		if err != nil {
			return err
		}
		ok := s.grader.Grade(a.SelectionIDs, key)
		if ok {
			correct++
		}
		rows = append(rows, FinalRow{
			UserID:       caller.UserID,
			QuestionID:   a.QuestionID,
			SelectionIDs: grading.SortedIDs(a.SelectionIDs),
			IsCorrect:    ok,
		})
	}
	// The unique (user, question) index makes concurrent submits
	// resolve to exactly one winner; the store maps the violation.
	if err := s.store.PutFinalRows(ctx, rows); err != nil {
		return err
	}
	s.appendEvent(ctx, syncx.EventAttemptSubmitted, attemptKey(caller.UserID, quizID), map[string]any{
		"user_id": caller.UserID, "quiz_id": quizID, "correct": correct, "total": len(answers),
	})
	return nil
}

func (s *Service) appendEvent(ctx context.Context, typ, key string, payload map[string]any) {
	if s.events == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if err := s.events.Append(ctx, syncx.Event{SiteID: s.siteID, Type: typ, Key: key, DataJSON: string(data)}); err != nil {
		log.Printf("event log append %s %s: %v", typ, key, err)
	}
}

func attemptKey(userID, quizID int64) string {
	return fmt.Sprintf("%d:%d", userID, quizID)
}
