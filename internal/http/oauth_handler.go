package http

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"moveit-auth/internal/oauth"
	"moveit-auth/internal/service"
)

const (
	stateCookiePrefix = "oauth_state_"
	stateTTL          = 5 * time.Minute
)

// OAuthRedirects son los destinos del front-end tras el callback.
type OAuthRedirects struct {
	FrontendURL  string
	FailureURL   string
	SecureCookie bool
}

// OAuthHandler implementa el inicio y el callback de los proveedores.
type OAuthHandler struct {
	logger     *zap.Logger
	providers  *oauth.Registry
	federation *service.FederationService
	jwtServ    *service.JWTService
	redirects  OAuthRedirects
}

func NewOAuthHandler(
	logger *zap.Logger,
	providers *oauth.Registry,
	federation *service.FederationService,
	jwtServ *service.JWTService,
	redirects OAuthRedirects,
) *OAuthHandler {
	redirects.FrontendURL = strings.TrimRight(redirects.FrontendURL, "/")
	if redirects.FailureURL == "" {
		redirects.FailureURL = redirects.FrontendURL + "/?error=oauth"
	}
	return &OAuthHandler{
		logger:     logger,
		providers:  providers,
		federation: federation,
		jwtServ:    jwtServ,
		redirects:  redirects,
	}
}

// Begin maneja GET /auth/:provider.
func (h *OAuthHandler) Begin(c *gin.Context) {
	kind, ok := h.parseProvider(c)
	if !ok {
		return
	}
	state, err := oauth.NewState()
	if err != nil {
		h.logger.Error("oauth state generation failed", zap.Error(err))
		abortJSON(c, http.StatusInternalServerError, "Could not start login")
		return
	}
	redirectURL, err := h.providers.Begin(kind, state)
	if err != nil {
		h.notConfigured(c, kind, err)
		return
	}
	h.setStateCookie(c, kind, state, int(stateTTL.Seconds()))
	c.Redirect(http.StatusFound, redirectURL)
}

// Callback maneja GET /auth/:provider/callback.
func (h *OAuthHandler) Callback(c *gin.Context) {
	kind, ok := h.parseProvider(c)
	if !ok {
		return
	}

	expected, _ := c.Cookie(stateCookiePrefix + string(kind))
	h.setStateCookie(c, kind, "", -1)

	identity, err := h.providers.Complete(c.Request.Context(), kind, oauth.CallbackParams{
		Code:          c.Query("code"),
		State:         c.Query("state"),
		ExpectedState: expected,
		Error:         c.Query("error"),
	})
	if err != nil {
		if errors.Is(err, oauth.ErrNotConfigured) {
			h.notConfigured(c, kind, err)
			return
		}
		h.fail(c, kind, "oauth callback rejected", err)
		return
	}

	user, err := h.federation.Resolve(c.Request.Context(), identity)
	if err != nil {
		h.fail(c, kind, "oauth identity not resolved", err)
		return
	}

	token, err := h.jwtServ.Issue(user)
	if err != nil {
		h.fail(c, kind, "jwt issue failed", err)
		return
	}
	c.Redirect(http.StatusFound, h.redirects.FrontendURL+"/?token="+url.QueryEscape(token))
}

func (h *OAuthHandler) parseProvider(c *gin.Context) (oauth.Kind, bool) {
	kind, err := oauth.ParseKind(c.Param("provider"))
	if err != nil {
		abortJSON(c, http.StatusNotFound, "Unknown provider")
		return "", false
	}
	return kind, true
}

func (h *OAuthHandler) notConfigured(c *gin.Context, kind oauth.Kind, err error) {
	h.logger.Warn("oauth provider not configured", zap.String("provider", string(kind)), zap.Error(err))
	upper := strings.ToUpper(string(kind))
	abortJSON(c, http.StatusNotImplemented, providerTitle(kind)+" OAuth not configured. Set "+upper+"_CLIENT_ID and "+upper+"_CLIENT_SECRET.")
}

func (h *OAuthHandler) fail(c *gin.Context, kind oauth.Kind, msg string, err error) {
	h.logger.Warn(msg, zap.String("provider", string(kind)), zap.Error(err))
	c.Redirect(http.StatusFound, h.redirects.FailureURL)
}

func (h *OAuthHandler) setStateCookie(c *gin.Context, kind oauth.Kind, value string, maxAge int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     stateCookiePrefix + string(kind),
		Value:    value,
		Path:     "/auth/" + string(kind),
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.redirects.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func providerTitle(kind oauth.Kind) string {
	switch kind {
	case oauth.Google:
		return "Google"
	case oauth.Facebook:
		return "Facebook"
	}
	return string(kind)
}
