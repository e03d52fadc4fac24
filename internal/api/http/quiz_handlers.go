package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	auth "github.com/jeeyeonnnn/PJY-Quiz/internal/auth/middleware"
	"github.com/jeeyeonnnn/PJY-Quiz/internal/pagination"
	"github.com/jeeyeonnnn/PJY-Quiz/internal/quiz"
)

type createQuizRequest struct {
	Name        string            `json:"name"`
	SelectCount int               `json:"select_count"`
	PageSize    int               `json:"pagination_count"`
	IsRandom    bool              `json:"is_random"`
	Questions   []questionRequest `json:"questions"`
}

type questionRequest struct {
	Name       string             `json:"name"`
	Selections []selectionRequest `json:"selections"`
}

type selectionRequest struct {
	Name      string `json:"name"`
	IsCorrect bool   `json:"is_correct"`
}

type answerRequest struct {
	QuestionID   int64   `json:"question_id"`
	SelectionIDs []int64 `json:"selection_ids"`
}

type quizListResponse struct {
	Page    pagination.Page    `json:"page"`
	Quizzes []quiz.QuizSummary `json:"quizzes"`
}

func CreateQuizHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createQuizRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeMessage(w, http.StatusBadRequest, "bad json")
			return
		}
		questions := make([]quiz.NewQuestion, 0, len(req.Questions))
		for _, q := range req.Questions {
			nq := quiz.NewQuestion{Text: q.Name}
			for _, s := range q.Selections {
				nq.Selections = append(nq.Selections, quiz.NewSelection{Text: s.Name, IsCorrect: s.IsCorrect})
			}
			questions = append(questions, nq)
		}

		quizID, err := svc.Create(r.Context(), req.Name, req.SelectCount, req.PageSize, req.IsRandom, questions)
		if err != nil {
			writeQuizError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]int64{"quiz_id": quizID})
	}
}

func ListQuizzesHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := auth.IdentityFromContext(r.Context())
		limit := queryInt(r, "limit", 5)
		page := queryInt(r, "page", 1)

		pageInfo, quizzes, err := svc.List(r.Context(), callerOf(id), limit, page)
		if err != nil {
			writeQuizError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, quizListResponse{Page: pageInfo, Quizzes: quizzes})
	}
}

func QuizDetailHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := auth.IdentityFromContext(r.Context())
		quizID, err := strconv.ParseInt(chi.URLParam(r, "quizID"), 10, 64)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "bad quiz id")
			return
		}

		detail, err := svc.Detail(r.Context(), callerOf(id), quizID, queryInt(r, "page", 1))
		if err != nil {
			writeQuizError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, detail)
	}
}

func PreSaveHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := auth.IdentityFromContext(r.Context())
		quizID, answers, ok := answersFromRequest(w, r)
		if !ok {
			return
		}
		if err := svc.PreSave(r.Context(), callerOf(id), quizID, answers); err != nil {
			writeQuizError(w, err)
			return
		}
		writeMessage(w, http.StatusCreated, "success")
	}
}

func SubmitHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := auth.IdentityFromContext(r.Context())
		quizID, answers, ok := answersFromRequest(w, r)
		if !ok {
			return
		}
		if err := svc.Submit(r.Context(), callerOf(id), quizID, answers); err != nil {
			writeQuizError(w, err)
			return
		}
		writeMessage(w, http.StatusCreated, "success")
	}
}

func answersFromRequest(w http.ResponseWriter, r *http.Request) (int64, []quiz.Answer, bool) {
	quizID, err := strconv.ParseInt(chi.URLParam(r, "quizID"), 10, 64)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "bad quiz id")
		return 0, nil, false
	}
	var req []answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "bad json")
		return 0, nil, false
	}
	answers := make([]quiz.Answer, 0, len(req))
	for _, a := range req {
		answers = append(answers, quiz.Answer{QuestionID: a.QuestionID, SelectionIDs: a.SelectionIDs})
	}
	return quizID, answers, true
}

func callerOf(id auth.Identity) quiz.Caller {
	return quiz.Caller{UserID: id.UserID, IsAdmin: id.IsAdmin}
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	return n
}
