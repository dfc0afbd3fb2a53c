package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/brightpath-learning/brightpath-lms/internal/rbac"
)

type AuthService struct {
	hmac []byte
	ttl  time.Duration
}

func NewAuthService(secret string, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &AuthService{hmac: []byte(secret), ttl: ttl}
}

type Claims struct {
	Sub  string `json:"sub"`
	Role string `json:"role"` // student | teacher | admin
	jwt.RegisteredClaims
}

func (a *AuthService) IssueJWT(sub, role string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Sub:  sub,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "brightpath",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(a.hmac)
}

func (a *AuthService) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return a.hmac, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return c, nil
}

// JWTMiddleware rejects requests without a valid bearer token and attaches
// the token's subject and role to the request context.
func JWTMiddleware(a *AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				http.Error(w, "missing bearer", http.StatusUnauthorized)
				return
			}
			c, err := a.Parse(strings.TrimPrefix(h, "Bearer "))
			if err != nil {
				http.Error(w, "bad token", http.StatusUnauthorized)
				return
			}
			ctx := rbac.WithSubject(r.Context(), c.Sub)
			ctx = rbac.WithRole(ctx, c.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
