package oauth

import (
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"moveit-auth/internal/domain"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

type googleProfile struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

// NewGoogle construye el proveedor de Google con scopes de perfil y email.
func NewGoogle(cfg ProviderConfig, opts ...Option) Provider {
	p := &oauth2Provider{
		kind: Google,
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.CallbackURL,
			Endpoint:     google.Endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		},
		userInfoURL: googleUserInfoURL,
		decode: func(body []byte) (domain.FederatedIdentity, error) {
			profile, err := decodeJSON[googleProfile](body)
			if err != nil {
				return domain.FederatedIdentity{}, err
			}
			return domain.FederatedIdentity{
				ProviderID:    profile.ID,
				Email:         profile.Email,
				EmailVerified: profile.VerifiedEmail,
				Name:          profile.Name,
			}, nil
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}
