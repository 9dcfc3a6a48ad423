package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"helpdetective/internal/security"
	"helpdetective/internal/validation"
)

var (
	ErrInvalidCredentials = errors.New("invalid password")
	ErrSessionExpired     = errors.New("session expired")
	ErrInvalidSession     = errors.New("invalid session token")
)

const clinicianSubject = "clinician"

// ClinicianClaims are carried in the auth cookie
type ClinicianClaims struct {
	jwt.RegisteredClaims
}

// AuthService gates the tool behind a single clinic password
type AuthService struct {
	passwordHash    string
	secret          []byte
	sessionDuration time.Duration
	now             func() time.Time
}

// NewAuthService creates a new auth service. An empty passwordHash disables the gate.
func NewAuthService(passwordHash, secret string, sessionDuration time.Duration) *AuthService {
	return &AuthService{
		passwordHash:    passwordHash,
		secret:          []byte(secret),
		sessionDuration: sessionDuration,
		now:             time.Now,
	}
}

// Enabled reports whether a password is required
func (s *AuthService) Enabled() bool {
	return s.passwordHash != ""
}

// Login checks the password and issues a signed token with its expiry
func (s *AuthService) Login(password string) (string, time.Time, error) {
	if err := validation.ValidatePassword(password); err != nil {
		return "", time.Time{}, err
	}
	if !s.Enabled() || !security.CheckPassword(password, s.passwordHash) {
		return "", time.Time{}, ErrInvalidCredentials
	}

	now := s.now()
	expires := now.Add(s.sessionDuration)
	claims := ClinicianClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   clinicianSubject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, expires, nil
}

// Verify checks a token issued by Login
func (s *AuthService) Verify(token string) error {
	if token == "" {
		return ErrInvalidSession
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithSubject(clinicianSubject),
	)
	claims := &ClinicianClaims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrSessionExpired
		}
		return ErrInvalidSession
	}
	if !parsed.Valid {
		return ErrInvalidSession
	}
	return nil
}
