package oauth

import (
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"

	"moveit-auth/internal/domain"
)

const facebookUserInfoURL = "https://graph.facebook.com/me?fields=id,name,email"

type facebookProfile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// NewFacebook construye el proveedor de Facebook. El email puede faltar si
// el usuario no lo comparte.
func NewFacebook(cfg ProviderConfig, opts ...Option) Provider {
	p := &oauth2Provider{
		kind: Facebook,
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.CallbackURL,
			Endpoint:     facebook.Endpoint,
			Scopes:       []string{"email"},
		},
		userInfoURL: facebookUserInfoURL,
		decode: func(body []byte) (domain.FederatedIdentity, error) {
			profile, err := decodeJSON[facebookProfile](body)
			if err != nil {
				return domain.FederatedIdentity{}, err
			}
			// Graph solo entrega emails confirmados.
			return domain.FederatedIdentity{
				ProviderID:    profile.ID,
				Email:         profile.Email,
				EmailVerified: profile.Email != "",
				Name:          profile.Name,
			}, nil
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}
