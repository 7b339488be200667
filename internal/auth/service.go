package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/inamate/timeline/backend-go/internal/typeid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrInvalidName  = errors.New("invalid display name")
)

const (
	defaultTokenTTL = 24 * time.Hour
	maxNameLength   = 64
	guestName       = "Guest"
)

// Service issues and validates guest session tokens. Guests are not
// stored anywhere; the token is the whole identity.
type Service struct {
	jwtSecret []byte
	ttl       time.Duration
	now       func() time.Time
}

func NewService(jwtSecret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &Service{
		jwtSecret: []byte(jwtSecret),
		ttl:       ttl,
		now:       time.Now,
	}
}

type AuthResult struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
	User      User   `json:"user"`
}

type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// IssueGuest mints a new user id and a token for it. An empty name becomes
// "Guest".
func (s *Service) IssueGuest(displayName string) (*AuthResult, error) {
	name := strings.TrimSpace(displayName)
	if name == "" {
		name = guestName
	}
	if len([]rune(name)) > maxNameLength {
		return nil, fmt.Errorf("%d characters: %w", len([]rune(name)), ErrInvalidName)
	}

	user := User{ID: typeid.NewUserID(), DisplayName: name}
	token, exp, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, ExpiresAt: exp.Unix(), User: user}, nil
}

// ValidateToken checks the signature and expiry of tokenString and returns
// the user it was issued to.
func (s *Service) ValidateToken(tokenString string) (*User, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	userID, ok := claims["sub"].(string)
	if !ok || typeid.Validate(userID, typeid.PrefixUser) != nil {
		return nil, fmt.Errorf("subject: %w", ErrInvalidToken)
	}
	name, _ := claims["name"].(string)
	if name == "" {
		name = guestName
	}

	return &User{ID: userID, DisplayName: name}, nil
}

func (s *Service) issueToken(u User) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	claims := jwt.MapClaims{
		"sub":  u.ID,
		"name": u.DisplayName,
		"iat":  now.Unix(),
		"exp":  exp.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}
