package security

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// CSRFGenerator derives CSRF tokens from a workflow id with HMAC-SHA256.
// The token needs no server-side storage and dies with the workflow cookie.
type CSRFGenerator struct {
	secret []byte
}

// RandomSecret returns a hex encoded 256-bit key for signing tokens
func RandomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// NewCSRFGenerator creates a generator keyed by secret
func NewCSRFGenerator(secret string) *CSRFGenerator {
	return &CSRFGenerator{secret: []byte(secret)}
}

// GenerateToken returns the CSRF token for workflowID
func (g *CSRFGenerator) GenerateToken(workflowID string) (string, error) {
	if workflowID == "" {
		return "", fmt.Errorf("workflow ID is required")
	}
	mac := hmac.New(sha256.New, g.secret)
	mac.Write([]byte("csrf:"))
	mac.Write([]byte(workflowID))
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// ValidateToken reports whether token belongs to workflowID
func (g *CSRFGenerator) ValidateToken(workflowID, token string) bool {
	if workflowID == "" || token == "" {
		return false
	}
	expected, err := g.GenerateToken(workflowID)
	if err != nil {
		return false
	}
	return hmac.Equal([]byte(expected), []byte(token))
}
