package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"moveit-auth/internal/service"
)

const verifiedPage = `<!doctype html>
<html><head><meta charset="utf-8"><title>Move It</title></head>
<body><h2>Thank you, your email is verified.</h2><p>You can now return to the site and sign in.</p></body></html>`

// UserHandler mantiene dependencias para endpoints de cuentas.
type UserHandler struct {
	logger   *zap.Logger
	accounts *service.AccountService
	jwtServ  *service.JWTService
}

// NewUserHandler crea una instancia de UserHandler con dependencias necesarias.
func NewUserHandler(logger *zap.Logger, accounts *service.AccountService, jwtServ *service.JWTService) *UserHandler {
	return &UserHandler{
		logger:   logger,
		accounts: accounts,
		jwtServ:  jwtServ,
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup maneja POST /api/signup.
func (h *UserHandler) Signup(c *gin.Context) {
	var req credentialsRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		h.logger.Warn("invalid signup request", zap.Error(err))
		abortJSON(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := h.accounts.Signup(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingFields):
			abortJSON(c, http.StatusBadRequest, "Missing email or password")
		case errors.Is(err, service.ErrInvalidEmail):
			abortJSON(c, http.StatusBadRequest, "Invalid email address")
		case errors.Is(err, service.ErrWeakPassword):
			abortJSON(c, http.StatusBadRequest, "Password is not strong enough")
		case errors.Is(err, service.ErrEmailTaken):
			abortJSON(c, http.StatusConflict, "Email already registered")
		default:
			h.logger.Error("signup failed", zap.Error(err))
			abortJSON(c, http.StatusInternalServerError, "Could not create account")
		}
		return
	}

	body := gin.H{"ok": true}
	if res.Delivery.OK {
		body["message"] = "Verification email sent"
	} else {
		body["message"] = "Created account (email not sent)"
	}
	if res.Delivery.PreviewURL != "" {
		body["previewUrl"] = res.Delivery.PreviewURL
	}
	// Con correo real entregado el enlace solo viaja por email.
	if !res.Delivery.OK || res.Delivery.Sandbox {
		body["verifyUrl"] = res.VerifyURL
	}
	c.JSON(http.StatusCreated, body)
}

// Verify maneja GET /api/verify?token=.
func (h *UserHandler) Verify(c *gin.Context) {
	_, err := h.accounts.Verify(c.Request.Context(), c.Query("token"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingToken):
			c.String(http.StatusBadRequest, "Missing token")
		case errors.Is(err, service.ErrTokenNotFound):
			c.String(http.StatusNotFound, "Token not found or already used")
		default:
			h.logger.Error("verify failed", zap.Error(err))
			c.String(http.StatusInternalServerError, "Could not verify email")
		}
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(verifiedPage))
}

// Login maneja POST /api/login.
func (h *UserHandler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		h.logger.Warn("invalid login request", zap.Error(err))
		abortJSON(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingCredentials):
			abortJSON(c, http.StatusBadRequest, "Missing credentials")
		case errors.Is(err, service.ErrInvalidCredentials):
			abortJSON(c, http.StatusUnauthorized, "Invalid credentials")
		case errors.Is(err, service.ErrEmailNotVerified):
			abortJSON(c, http.StatusForbidden, "Email not verified")
		default:
			h.logger.Error("login failed", zap.Error(err))
			abortJSON(c, http.StatusInternalServerError, "Could not login")
		}
		return
	}

	token, err := h.jwtServ.Issue(user)
	if err != nil {
		h.logger.Error("jwt issue failed", zap.Error(err))
		abortJSON(c, http.StatusInternalServerError, "Could not issue token")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "token": token, "email": user.Email})
}

// Me maneja GET /api/me; requiere JWTAuthMiddleware.
func (h *UserHandler) Me(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		abortJSON(c, http.StatusUnauthorized, "missing token")
		return
	}
	user, err := h.accounts.Profile(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			abortJSON(c, http.StatusNotFound, "User not found")
			return
		}
		h.logger.Error("profile lookup failed", zap.Error(err))
		abortJSON(c, http.StatusInternalServerError, "Could not load profile")
		return
	}

	body := gin.H{
		"ok":       true,
		"id":       user.ID,
		"email":    user.Email,
		"verified": user.Verified,
	}
	if provider := user.Provider(); provider != "" {
		body["provider"] = provider
	}
	c.JSON(http.StatusOK, body)
}
