package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// User es el registro persistido de una cuenta.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"passwordHash,omitempty"`
	Verified     bool       `json:"verified"`
	VerifyToken  string     `json:"verifyToken,omitempty"`
	CreatedAt    Timestamp  `json:"createdAt"`
	OAuth        *OAuthLink `json:"oauth,omitempty"`
}

// OAuthLink asocia la cuenta con una identidad externa.
type OAuthLink struct {
	Provider   string `json:"provider"`
	ProviderID string `json:"providerId"`
}

// UnmarshalJSON acepta tambien la clave "id" de los documentos antiguos.
func (l *OAuthLink) UnmarshalJSON(data []byte) error {
	var raw struct {
		Provider   string `json:"provider"`
		ProviderID string `json:"providerId"`
		ID         string `json:"id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	l.Provider = raw.Provider
	l.ProviderID = raw.ProviderID
	if l.ProviderID == "" {
		l.ProviderID = raw.ID
	}
	return nil
}

// Timestamp se persiste como milisegundos desde epoch. Al leer admite
// tambien RFC 3339.
type Timestamp struct {
	time.Time
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: time.UnixMilli(t.UnixMilli()).UTC()}
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("0"), nil
	}
	return strconv.AppendInt(nil, t.UnixMilli(), 10), nil
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("createdAt: %w", err)
		}
		t.Time = parsed.UTC()
		return nil
	}
	var ms json.Number
	if err := json.Unmarshal(data, &ms); err != nil {
		return fmt.Errorf("createdAt: %w", err)
	}
	n, err := ms.Float64()
	if err != nil {
		return fmt.Errorf("createdAt: %w", err)
	}
	if n == 0 {
		t.Time = time.Time{}
		return nil
	}
	t.Time = time.UnixMilli(int64(n)).UTC()
	return nil
}

// HasPassword indica si la cuenta admite login con contraseña.
func (u User) HasPassword() bool {
	return u.PasswordHash != ""
}

// Provider devuelve el proveedor vinculado o "" si no hay vinculo.
func (u User) Provider() string {
	if u.OAuth == nil {
		return ""
	}
	return u.OAuth.Provider
}
