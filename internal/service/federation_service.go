package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"moveit-auth/internal/domain"
	"moveit-auth/internal/repository"
)

// FederationService resuelve una identidad OAuth a una cuenta local.
type FederationService struct {
	logger *zap.Logger
	users  *repository.Collection
}

func NewFederationService(logger *zap.Logger, users *repository.Collection) *FederationService {
	return &FederationService{logger: logger, users: users}
}

// Resolve busca la cuenta por email. Si no existe la crea verificada y
// vinculada al proveedor; si existe la marca verificada, descarta cualquier
// token pendiente y la vincula cuando aun no tiene proveedor. Un email que el
// proveedor no confirma se trata como ausente.
func (s *FederationService) Resolve(ctx context.Context, identity domain.FederatedIdentity) (domain.User, error) {
	provider := strings.ToLower(strings.TrimSpace(identity.Provider))
	providerID := strings.TrimSpace(identity.ProviderID)
	emailAddr := normalizeEmail(identity.Email)

	if provider == "" || providerID == "" {
		return domain.User{}, ErrOAuthInvalid
	}
	if emailAddr == "" || !identity.EmailVerified {
		return domain.User{}, ErrOAuthNoEmail
	}

	var (
		resolved domain.User
		created  bool
	)
	err := s.users.Update(ctx, func(users []domain.User) ([]domain.User, error) {
		created = false
		i := repository.IndexByEmail(users, emailAddr)
		if i < 0 {
			resolved = domain.User{
				ID:        uuid.NewString(),
				Email:     emailAddr,
				Verified:  true,
				CreatedAt: domain.NewTimestamp(time.Now()),
				OAuth:     &domain.OAuthLink{Provider: provider, ProviderID: providerID},
			}
			created = true
			return append(users, resolved), nil
		}

		user := &users[i]
		changed := false
		if !user.Verified || user.VerifyToken != "" {
			redeemVerifyToken(user)
			changed = true
		}
		if user.OAuth == nil {
			user.OAuth = &domain.OAuthLink{Provider: provider, ProviderID: providerID}
			changed = true
		}
		resolved = *user
		if !changed {
			return nil, nil
		}
		return users, nil
	})
	if err != nil {
		return domain.User{}, err
	}

	s.logger.Info("oauth identity resolved",
		zap.String("provider", provider),
		zap.String("user_id", resolved.ID),
		zap.Bool("created", created),
	)
	return resolved, nil
}
