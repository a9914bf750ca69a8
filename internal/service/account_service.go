package service

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"moveit-auth/internal/domain"
	"moveit-auth/internal/email"
	"moveit-auth/internal/repository"
)

// VerificationMailer envia el enlace de verificacion de una cuenta nueva.
type VerificationMailer interface {
	SendVerification(ctx context.Context, to, verifyURL string) email.Delivery
}

// AccountService coordina alta, verificacion y login con contraseña.
type AccountService struct {
	logger   *zap.Logger
	users    *repository.Collection
	mailer   VerificationMailer
	baseURL  string
	validate *validator.Validate
}

func NewAccountService(logger *zap.Logger, users *repository.Collection, mailer VerificationMailer, baseURL string) *AccountService {
	return &AccountService{
		logger:   logger,
		users:    users,
		mailer:   mailer,
		baseURL:  strings.TrimRight(baseURL, "/"),
		validate: validator.New(),
	}
}

// SignupResult describe la cuenta creada y el resultado del envio de correo.
type SignupResult struct {
	User      domain.User
	VerifyURL string
	Delivery  email.Delivery
}

func (s *AccountService) Signup(ctx context.Context, emailAddr, password string) (SignupResult, error) {
	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" || password == "" {
		return SignupResult{}, ErrMissingFields
	}
	if err := s.validate.Var(emailAddr, "email"); err != nil {
		return SignupResult{}, ErrInvalidEmail
	}
	if !IsStrong(password) {
		return SignupResult{}, ErrWeakPassword
	}
	if _, taken := s.users.FindByEmail(ctx, emailAddr); taken {
		return SignupResult{}, ErrEmailTaken
	}

	hash, err := HashPassword(password)
	if err != nil {
		return SignupResult{}, err
	}

	user := domain.User{
		ID:           uuid.NewString(),
		Email:        emailAddr,
		PasswordHash: hash,
		CreatedAt:    domain.NewTimestamp(time.Now()),
	}
	issueVerifyToken(&user)

	err = s.users.Update(ctx, func(users []domain.User) ([]domain.User, error) {
		// Otra alta pudo ganar la carrera desde la primera comprobacion.
		if repository.IndexByEmail(users, emailAddr) >= 0 {
			return nil, ErrEmailTaken
		}
		return append(users, user), nil
	})
	if err != nil {
		return SignupResult{}, err
	}

	verifyURL := s.verifyURL(user.VerifyToken)
	delivery := email.Delivery{}
	if s.mailer != nil {
		delivery = s.mailer.SendVerification(ctx, user.Email, verifyURL)
	}
	s.logger.Info("account created",
		zap.String("user_id", user.ID),
		zap.Bool("email_sent", delivery.OK),
	)

	return SignupResult{User: user, VerifyURL: verifyURL, Delivery: delivery}, nil
}

// Verify canjea un token de verificacion y marca la cuenta como verificada.
func (s *AccountService) Verify(ctx context.Context, token string) (domain.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.User{}, ErrMissingToken
	}
	var verified domain.User
	err := s.users.Update(ctx, func(users []domain.User) ([]domain.User, error) {
		i := repository.IndexByVerifyToken(users, token)
		if i < 0 {
			return nil, ErrTokenNotFound
		}
		redeemVerifyToken(&users[i])
		verified = users[i]
		return users, nil
	})
	if err != nil {
		return domain.User{}, err
	}
	s.logger.Info("email verified", zap.String("user_id", verified.ID))
	return verified, nil
}

// Login valida credenciales. La contraseña se comprueba antes que el estado
// de verificacion, asi un 403 solo lo obtiene quien conoce la contraseña.
func (s *AccountService) Login(ctx context.Context, emailAddr, password string) (domain.User, error) {
	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" || password == "" {
		return domain.User{}, ErrMissingCredentials
	}

	user, ok := s.users.FindByEmail(ctx, emailAddr)
	if !ok || !user.HasPassword() {
		burnPasswordCheck(password)
		return domain.User{}, ErrInvalidCredentials
	}
	if !VerifyPassword(password, user.PasswordHash) {
		return domain.User{}, ErrInvalidCredentials
	}
	if !user.Verified {
		return domain.User{}, ErrEmailNotVerified
	}
	return user, nil
}

// Profile devuelve la cuenta asociada a un id de sesion.
func (s *AccountService) Profile(ctx context.Context, id string) (domain.User, error) {
	user, ok := s.users.FindByID(ctx, id)
	if !ok {
		return domain.User{}, ErrUserNotFound
	}
	return user, nil
}

func (s *AccountService) verifyURL(token string) string {
	return s.baseURL + "/api/verify?token=" + url.QueryEscape(token)
}

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// burnPasswordCheck iguala el tiempo de respuesta entre usuario inexistente
// y contraseña incorrecta.
func burnPasswordCheck(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("moveit-dummy-password"), passwordCost)
	})
	if len(dummyHash) == 0 {
		return
	}
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
