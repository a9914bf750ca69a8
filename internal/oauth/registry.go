package oauth

import (
	"context"
	"fmt"

	"moveit-auth/internal/domain"
)

// Config agrupa las credenciales de todos los proveedores conocidos.
type Config struct {
	Google   ProviderConfig
	Facebook ProviderConfig
}

// CallbackParams son los datos que el proveedor devuelve en el callback,
// junto con el state guardado al iniciar el flujo.
type CallbackParams struct {
	Code          string
	State         string
	ExpectedState string
	Error         string
}

// Registry mantiene los proveedores configurados. No decide sobre cuentas.
type Registry struct {
	providers map[Kind]Provider
}

// NewRegistry registra los proveedores recibidos por tipo.
func NewRegistry(list ...Provider) *Registry {
	m := make(map[Kind]Provider, len(list))
	for _, p := range list {
		m[p.Kind()] = p
	}
	return &Registry{providers: m}
}

// NewRegistryFromConfig registra solo los proveedores con credenciales completas.
func NewRegistryFromConfig(cfg Config, opts ...Option) *Registry {
	var list []Provider
	if cfg.Google.Enabled() {
		list = append(list, NewGoogle(cfg.Google, opts...))
	}
	if cfg.Facebook.Enabled() {
		list = append(list, NewFacebook(cfg.Facebook, opts...))
	}
	return NewRegistry(list...)
}

func (r *Registry) Get(kind Kind) (Provider, error) {
	p, ok := r.providers[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotConfigured, kind)
	}
	return p, nil
}

// Enabled lista los proveedores configurados.
func (r *Registry) Enabled() []Kind {
	out := make([]Kind, 0, len(r.providers))
	for _, k := range []Kind{Google, Facebook} {
		if _, ok := r.providers[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

// Begin devuelve la URL de autorizacion del proveedor.
func (r *Registry) Begin(kind Kind, state string) (string, error) {
	p, err := r.Get(kind)
	if err != nil {
		return "", err
	}
	return p.AuthCodeURL(state), nil
}

// Complete valida el callback y canjea el codigo por una identidad.
func (r *Registry) Complete(ctx context.Context, kind Kind, params CallbackParams) (domain.FederatedIdentity, error) {
	p, err := r.Get(kind)
	if err != nil {
		return domain.FederatedIdentity{}, err
	}
	if params.Error != "" {
		return domain.FederatedIdentity{}, fmt.Errorf("%w: %s", ErrProviderDenied, params.Error)
	}
	if params.State == "" || params.State != params.ExpectedState {
		return domain.FederatedIdentity{}, ErrStateMismatch
	}
	if params.Code == "" {
		return domain.FederatedIdentity{}, ErrMissingCode
	}
	return p.Exchange(ctx, params.Code)
}
