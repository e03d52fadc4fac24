package auth

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type AuthService struct{ hmac []byte }

func NewAuthService(secret string) *AuthService { return &AuthService{hmac: []byte(secret)} }

type Claims struct {
	Sub  string `json:"sub"`
	Role string `json:"role"` // "admin" or "user"
	jwt.RegisteredClaims
}

func (a *AuthService) IssueJWT(userID int64, isAdmin bool) (string, error) {
	role := RoleUser
	if isAdmin {
		role = RoleAdmin
	}
	now := time.Now()
	claims := &Claims{
		Sub:  strconv.FormatInt(userID, 10),
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "quiz-gateway",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(240 * time.Hour)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(a.hmac)
}

func (a *AuthService) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return a.hmac, nil
	})
	if err != nil || !token.Valid {
		return nil, err
	}
	c, _ := token.Claims.(*Claims)
	return c, nil
}

// JWTMiddleware validates the bearer token and stores the caller's
// identity (user id + admin flag) in the request context.
func JWTMiddleware(a *AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				http.Error(w, "missing bearer", http.StatusUnauthorized)
				return
			}
			c, err := a.Parse(strings.TrimPrefix(h, "Bearer "))
			if err != nil || c == nil {
				http.Error(w, "bad token", http.StatusUnauthorized)
				return
			}
			uid, err := strconv.ParseInt(c.Sub, 10, 64)
			if err != nil {
				http.Error(w, "bad token", http.StatusUnauthorized)
				return
			}
			ctx := WithIdentity(r.Context(), Identity{UserID: uid, IsAdmin: c.Role == RoleAdmin})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
