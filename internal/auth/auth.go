// Package auth issues and verifies the HS256 tokens used by both the REST
// API and the websocket handshake.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/ChakrapaniC/Senser-Dashboard-BE/internal/storage"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type Identity struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type UserSource interface {
	GetUserByUsername(ctx context.Context, username string) (storage.UserRecord, error)
}

type Service struct {
	secret []byte
	ttl    time.Duration
	users  UserSource
}

func NewService(secret string, ttl time.Duration, users UserSource) *Service {
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &Service{secret: []byte(secret), ttl: ttl, users: users}
}

// Demo accounts with well-known passwords, kept for easy local testing.
var demoPasswords = map[string]string{
	"admin":    "admin123",
	"operator": "operator123",
	"engineer": "engineer123",
}

func (s *Service) Login(ctx context.Context, username, password string) (string, Identity, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return "", Identity{}, ErrInvalidCredentials
	}
	valid := false
	if demo, ok := demoPasswords[username]; ok && password == demo {
		valid = true
	} else if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil {
		valid = true
	}
	if !valid {
		return "", Identity{}, ErrInvalidCredentials
	}
	id := Identity{ID: user.ID, Username: user.Username, Role: user.Role}
	token, err := s.IssueToken(id)
	if err != nil {
		return "", Identity{}, err
	}
	return token, id, nil
}

func (s *Service) IssueToken(id Identity) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"id":       id.ID,
		"username": id.Username,
		"role":     id.Role,
		"iat":      now.Unix(),
		"exp":      now.Add(s.ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// VerifyToken returns the identity encoded in the token, or nil when the
// token is missing, malformed, expired or signed with the wrong key.
func (s *Service) VerifyToken(token string) *Identity {
	if token == "" {
		return nil
	}
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil
	}
	id := Identity{}
	if v, ok := claims["id"].(float64); ok {
		id.ID = int64(v)
	}
	if v, ok := claims["username"].(string); ok {
		id.Username = v
	}
	if v, ok := claims["role"].(string); ok {
		id.Role = v
	}
	if id.Username == "" {
		return nil
	}
	return &id
}
