package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"

	"moveit-auth/internal/domain"
)

// Kind identifica un proveedor soportado.
type Kind string

const (
	Google   Kind = "google"
	Facebook Kind = "facebook"
)

var (
	ErrNotConfigured   = errors.New("oauth provider not configured")
	ErrUnknownProvider = errors.New("unknown oauth provider")
	ErrStateMismatch   = errors.New("oauth state mismatch")
	ErrMissingCode     = errors.New("oauth callback without code")
	ErrProviderDenied  = errors.New("oauth provider returned an error")
)

// ParseKind valida el nombre de proveedor recibido en la ruta.
func ParseKind(name string) (Kind, error) {
	switch Kind(name) {
	case Google, Facebook:
		return Kind(name), nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownProvider, name)
}

// Provider devuelve hechos de identidad; no crea ni vincula cuentas.
type Provider interface {
	Kind() Kind
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (domain.FederatedIdentity, error)
}

// ProviderConfig son las credenciales de un proveedor. Sin id y secreto
// el proveedor queda deshabilitado.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
}

func (c ProviderConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// Option ajusta un proveedor; se usa para apuntar a servidores de prueba.
type Option func(*oauth2Provider)

func WithEndpoint(endpoint oauth2.Endpoint) Option {
	return func(p *oauth2Provider) { p.config.Endpoint = endpoint }
}

func WithUserInfoURL(url string) Option {
	return func(p *oauth2Provider) { p.userInfoURL = url }
}

func WithHTTPClient(client *http.Client) Option {
	return func(p *oauth2Provider) { p.httpClient = client }
}

type oauth2Provider struct {
	kind        Kind
	config      *oauth2.Config
	userInfoURL string
	httpClient  *http.Client
	decode      func([]byte) (domain.FederatedIdentity, error)
}

func (p *oauth2Provider) Kind() Kind {
	return p.kind
}

func (p *oauth2Provider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

func (p *oauth2Provider) Exchange(ctx context.Context, code string) (domain.FederatedIdentity, error) {
	if p.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	}
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return domain.FederatedIdentity{}, fmt.Errorf("%s token exchange failed: %w", p.kind, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return domain.FederatedIdentity{}, err
	}
	resp, err := p.config.Client(ctx, token).Do(req)
	if err != nil {
		return domain.FederatedIdentity{}, fmt.Errorf("%s profile request failed: %w", p.kind, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.FederatedIdentity{}, fmt.Errorf("%s profile read failed: %w", p.kind, err)
	}
	if resp.StatusCode != http.StatusOK {
		return domain.FederatedIdentity{}, fmt.Errorf("%s profile request returned %d", p.kind, resp.StatusCode)
	}

	identity, err := p.decode(body)
	if err != nil {
		return domain.FederatedIdentity{}, fmt.Errorf("%s profile decode failed: %w", p.kind, err)
	}
	if identity.ProviderID == "" {
		return domain.FederatedIdentity{}, fmt.Errorf("%s profile without id", p.kind)
	}
	identity.Provider = string(p.kind)
	return identity, nil
}

func decodeJSON[T any](body []byte) (T, error) {
	var out T
	err := json.Unmarshal(body, &out)
	return out, err
}
