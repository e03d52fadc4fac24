package http

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	auth "github.com/jeeyeonnnn/PJY-Quiz/internal/auth/middleware"
)

type signUpRequest struct {
	Username string `json:"user_id"`
	Password string `json:"password"`
	IsAdmin  bool   `json:"is_admin"`
}

type signInRequest struct {
	Username string `json:"user_id"`
	Password string `json:"password"`
}

// SignUpHandler registers a user. Usernames are unique; the admin flag
// is set at registration and treated as a capability from then on.
func SignUpHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req signUpRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeMessage(w, http.StatusBadRequest, "bad json")
			return
		}
		req.Username = strings.TrimSpace(req.Username)
		if req.Username == "" || req.Password == "" {
			writeMessage(w, http.StatusBadRequest, "user_id and password required")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			writeMessage(w, http.StatusInternalServerError, "internal error")
			return
		}
		_, err = db.ExecContext(r.Context(),
			`INSERT INTO users (username, password_hash, is_admin) VALUES ($1,$2,$3)`,
			req.Username, string(hash), req.IsAdmin)
		if err != nil {
			// unique username taken
			writeMessage(w, http.StatusConflict, "user_id already in use")
			return
		}
		writeMessage(w, http.StatusCreated, "success")
	}
}

// SignInHandler verifies credentials and returns a bearer token.
func SignInHandler(db *sql.DB, authSvc *auth.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req signInRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeMessage(w, http.StatusBadRequest, "bad json")
			return
		}

		var (
			userID  int64
			hash    string
			isAdmin bool
		)
		err := db.QueryRowContext(r.Context(),
			`SELECT id, password_hash, is_admin FROM users WHERE username=$1`,
			strings.TrimSpace(req.Username),
		).Scan(&userID, &hash, &isAdmin)
		if errors.Is(err, sql.ErrNoRows) {
			writeMessage(w, http.StatusUnauthorized, "unknown user_id")
			return
		}
		if err != nil {
			writeMessage(w, http.StatusInternalServerError, "internal error")
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
			writeMessage(w, http.StatusUnauthorized, "invalid credentials")
			return
		}

		tok, err := authSvc.IssueJWT(userID, isAdmin)
		if err != nil {
			writeMessage(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"token": "Bearer " + tok})
	}
}
