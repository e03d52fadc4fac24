package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jeeyeonnnn/PJY-Quiz/internal/quiz"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// writeQuizError maps the engine's typed outcomes onto HTTP statuses.
// Validation and state conflicts are expected conditions; anything
// unmapped is a server fault.
func writeQuizError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, quiz.ErrEmptyQuiz):
		writeMessage(w, http.StatusUnprocessableEntity, "quiz has no questions")
	case errors.Is(err, quiz.ErrSelectCountTooLarge):
		writeMessage(w, http.StatusUnprocessableEntity, "select count out of range for question count")
	case errors.Is(err, quiz.ErrTooFewSelections):
		writeMessage(w, http.StatusUnprocessableEntity, "a question has fewer than two selections")
	case errors.Is(err, quiz.ErrNoCorrectAnswer):
		writeMessage(w, http.StatusUnprocessableEntity, "a question has no correct selection")
	case errors.Is(err, quiz.ErrAlreadyFinal):
		writeMessage(w, http.StatusConflict, "final submission already exists")
	case errors.Is(err, quiz.ErrAnswerCountMismatch):
		writeMessage(w, http.StatusUnprocessableEntity, "answer count does not match select count")
	case errors.Is(err, quiz.ErrQuizNotFound):
		writeMessage(w, http.StatusNotFound, "quiz not found")
	case errors.Is(err, quiz.ErrVersionsNotReady):
		writeMessage(w, http.StatusServiceUnavailable, "quiz not ready yet, retry shortly")
	default:
		writeMessage(w, http.StatusInternalServerError, "internal error")
	}
}
