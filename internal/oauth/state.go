package oauth

import (
	"crypto/rand"
	"encoding/base64"
)

// NewState genera un valor aleatorio para el parametro state.
func NewState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
