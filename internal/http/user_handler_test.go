package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"moveit-auth/internal/domain"
	"moveit-auth/internal/email"
	"moveit-auth/internal/oauth"
	"moveit-auth/internal/repository"
	"moveit-auth/internal/service"
)

type mockMailer struct {
	delivery email.Delivery
	lastURL  string
}

func (m *mockMailer) SendVerification(_ context.Context, _ string, verifyURL string) email.Delivery {
	m.lastURL = verifyURL
	return m.delivery
}

type testApp struct {
	router *gin.Engine
	store  *repository.MemoryStore
	mailer *mockMailer
	jwt    *service.JWTService
}

func newTestApp(t *testing.T, providers *oauth.Registry) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := repository.NewMemoryStore()
	users := repository.NewCollection(store)
	mailer := &mockMailer{delivery: email.Delivery{OK: true}}
	jwtSvc := service.NewJWTService("secret", time.Hour)
	accounts := service.NewAccountService(zap.NewNop(), users, mailer, "http://localhost:3000")
	federation := service.NewFederationService(zap.NewNop(), users)
	if providers == nil {
		providers = oauth.NewRegistry()
	}

	router := NewRouter(
		zap.NewNop(),
		[]string{"*"},
		jwtSvc,
		NewHealthHandler("test"),
		NewUserHandler(zap.NewNop(), accounts, jwtSvc),
		NewOAuthHandler(zap.NewNop(), providers, federation, jwtSvc, OAuthRedirects{
			FrontendURL: "http://localhost:8001",
		}),
	)
	return &testApp{router: router, store: store, mailer: mailer, jwt: jwtSvc}
}

func performRequest(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return out
}

func (a *testApp) signup(t *testing.T, emailAddr, password string) {
	t.Helper()
	rec := performRequest(a.router, http.MethodPost, "/api/signup", map[string]string{
		"email":    emailAddr,
		"password": password,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func (a *testApp) tokenFor(t *testing.T, emailAddr string) string {
	t.Helper()
	for _, u := range a.store.LoadAll(context.Background()) {
		if u.Email == emailAddr {
			return u.VerifyToken
		}
	}
	t.Fatalf("user %s not found", emailAddr)
	return ""
}

func TestUserHandlerSignup_Success(t *testing.T) {
	app := newTestApp(t, nil)

	rec := performRequest(app.router, http.MethodPost, "/api/signup", map[string]string{
		"email":    "user@example.com",
		"password": "Abcdefg1!",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["ok"] != true || body["message"] != "Verification email sent" {
		t.Fatalf("unexpected body %v", body)
	}
	if _, ok := body["verifyUrl"]; ok {
		t.Fatalf("verify url must not be exposed after real delivery")
	}

	users := app.store.LoadAll(context.Background())
	if len(users) != 1 || users[0].Verified || users[0].VerifyToken == "" {
		t.Fatalf("unexpected store state %+v", users)
	}
}

func TestUserHandlerSignup_MailFailureReturnsVerifyURL(t *testing.T) {
	app := newTestApp(t, nil)
	app.mailer.delivery = email.Delivery{OK: false}

	rec := performRequest(app.router, http.MethodPost, "/api/signup", map[string]string{
		"email":    "user@example.com",
		"password": "Abcdefg1!",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["message"] != "Created account (email not sent)" {
		t.Fatalf("unexpected message %v", body["message"])
	}
	if body["verifyUrl"] != app.mailer.lastURL || !strings.Contains(app.mailer.lastURL, "/api/verify?token=") {
		t.Fatalf("unexpected verify url %v", body["verifyUrl"])
	}
}

func TestUserHandlerSignup_SandboxReturnsPreview(t *testing.T) {
	app := newTestApp(t, nil)
	app.mailer.delivery = email.Delivery{OK: true, Sandbox: true, PreviewURL: "https://ethereal.email/message/abc"}

	rec := performRequest(app.router, http.MethodPost, "/api/signup", map[string]string{
		"email":    "user@example.com",
		"password": "Abcdefg1!",
	})
	body := decodeBody(t, rec)
	if body["previewUrl"] != "https://ethereal.email/message/abc" || body["verifyUrl"] == nil {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestUserHandlerSignup_Errors(t *testing.T) {
	cases := []struct {
		name   string
		body   any
		status int
		msg    string
	}{
		{"missing fields", map[string]string{"email": "a@x.com"}, http.StatusBadRequest, "Missing email or password"},
		{"empty body", nil, http.StatusBadRequest, "Missing email or password"},
		{"invalid email", map[string]string{"email": "nope", "password": "Abcdefg1!"}, http.StatusBadRequest, "Invalid email address"},
		{"weak password", map[string]string{"email": "a@x.com", "password": "Abcdefgh!"}, http.StatusBadRequest, "Password is not strong enough"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newTestApp(t, nil)
			rec := performRequest(app.router, http.MethodPost, "/api/signup", tc.body)
			if rec.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, rec.Code)
			}
			if got := decodeBody(t, rec)["error"]; got != tc.msg {
				t.Fatalf("expected error %q, got %v", tc.msg, got)
			}
		})
	}
}

func TestUserHandlerSignup_MalformedJSON(t *testing.T) {
	app := newTestApp(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/signup", strings.NewReader("{bad"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestUserHandlerSignup_DuplicateEmail(t *testing.T) {
	app := newTestApp(t, nil)
	app.signup(t, "a@x.com", "Abcdefg1!")

	rec := performRequest(app.router, http.MethodPost, "/api/signup", map[string]string{
		"email":    "A@X.com",
		"password": "Abcdefg1!",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rec.Code)
	}
	if decodeBody(t, rec)["error"] != "Email already registered" {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestUserHandlerVerify(t *testing.T) {
	app := newTestApp(t, nil)
	app.signup(t, "a@x.com", "Abcdefg1!")
	token := app.tokenFor(t, "a@x.com")

	rec := performRequest(app.router, http.MethodGet, "/api/verify?token="+token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html") {
		t.Fatalf("expected html response, got %q", rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Body.String(), "your email is verified") {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}

	rec = performRequest(app.router, http.MethodGet, "/api/verify?token="+token, nil)
	if rec.Code != http.StatusNotFound || rec.Body.String() != "Token not found or already used" {
		t.Fatalf("expected 404 on reuse, got %d %q", rec.Code, rec.Body.String())
	}

	rec = performRequest(app.router, http.MethodGet, "/api/verify", nil)
	if rec.Code != http.StatusBadRequest || rec.Body.String() != "Missing token" {
		t.Fatalf("expected 400 without token, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestUserHandlerLogin_Flow(t *testing.T) {
	app := newTestApp(t, nil)
	app.signup(t, "a@x.com", "Abcdefg1!")
	creds := map[string]string{"email": "a@x.com", "password": "Abcdefg1!"}

	rec := performRequest(app.router, http.MethodPost, "/api/login", creds)
	if rec.Code != http.StatusForbidden || decodeBody(t, rec)["error"] != "Email not verified" {
		t.Fatalf("expected 403 before verification, got %d %s", rec.Code, rec.Body.String())
	}

	performRequest(app.router, http.MethodGet, "/api/verify?token="+app.tokenFor(t, "a@x.com"), nil)

	rec = performRequest(app.router, http.MethodPost, "/api/login", creds)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 after verification, got %d %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	token, _ := body["token"].(string)
	if body["ok"] != true || body["email"] != "a@x.com" || token == "" {
		t.Fatalf("unexpected body %v", body)
	}
	claims, err := app.jwt.Parse(token)
	if err != nil || claims.Email != "a@x.com" {
		t.Fatalf("unexpected claims %+v %v", claims, err)
	}
}

func TestUserHandlerLogin_FailuresShareShape(t *testing.T) {
	app := newTestApp(t, nil)
	app.signup(t, "a@x.com", "Abcdefg1!")
	performRequest(app.router, http.MethodGet, "/api/verify?token="+app.tokenFor(t, "a@x.com"), nil)

	wrong := performRequest(app.router, http.MethodPost, "/api/login", map[string]string{"email": "a@x.com", "password": "Wrong123!"})
	unknown := performRequest(app.router, http.MethodPost, "/api/login", map[string]string{"email": "b@x.com", "password": "Abcdefg1!"})

	if wrong.Code != http.StatusUnauthorized || unknown.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401s, got %d and %d", wrong.Code, unknown.Code)
	}
	if wrong.Body.String() != unknown.Body.String() {
		t.Fatalf("bodies differ: %q vs %q", wrong.Body.String(), unknown.Body.String())
	}

	rec := performRequest(app.router, http.MethodPost, "/api/login", map[string]string{"email": "a@x.com"})
	if rec.Code != http.StatusBadRequest || decodeBody(t, rec)["error"] != "Missing credentials" {
		t.Fatalf("expected 400 missing credentials, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestUserHandlerMe(t *testing.T) {
	app := newTestApp(t, nil)
	if err := app.store.SaveAll(context.Background(), []domain.User{{
		ID:       "u1",
		Email:    "a@x.com",
		Verified: true,
		OAuth:    &domain.OAuthLink{Provider: "google", ProviderID: "g1"},
	}}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	token, err := app.jwt.Issue(domain.User{ID: "u1", Email: "a@x.com"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["id"] != "u1" || body["verified"] != true || body["provider"] != "google" {
		t.Fatalf("unexpected body %v", body)
	}

	rec = performRequest(app.router, http.MethodGet, "/api/me", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	app := newTestApp(t, nil)
	rec := performRequest(app.router, http.MethodGet, "/api/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["ok"] != true || body["env"] != "test" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestCORSPreflight(t *testing.T) {
	app := newTestApp(t, nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/login", nil)
	req.Header.Set("Origin", "http://localhost:8001")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 preflight, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("unexpected allow origin %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}
}
