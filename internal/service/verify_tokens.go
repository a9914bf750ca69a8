package service

import (
	"github.com/google/uuid"

	"moveit-auth/internal/domain"
)

// issueVerifyToken adjunta un token aleatorio de un solo uso a la cuenta.
func issueVerifyToken(user *domain.User) {
	user.VerifyToken = uuid.NewString()
	user.Verified = false
}

// redeemVerifyToken marca la cuenta como verificada y descarta el token.
func redeemVerifyToken(user *domain.User) {
	user.Verified = true
	user.VerifyToken = ""
}
