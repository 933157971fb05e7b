package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/campus-portal-api/internal/models"
)

// UserFinder loads accounts by id.
type UserFinder interface {
	GetByID(ctx context.Context, id uint) (models.User, error)
}

// Verifier resolves bearer credentials into identities.
type Verifier struct {
	tokens *TokenService
	users  UserFinder
}

// NewVerifier constructs a credential verifier.
func NewVerifier(tokens *TokenService, users UserFinder) *Verifier {
	return &Verifier{tokens: tokens, users: users}
}

// Verify checks the credential and confirms the account still exists and is
// not banned. Every rejection wraps ErrUnauthenticated; store failures are
// returned as-is.
func (v *Verifier) Verify(ctx context.Context, token string) (Identity, error) {
	claims, err := v.tokens.Parse(strings.TrimSpace(token))
	if err != nil {
		return Identity{}, err
	}

	user, err := v.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Identity{}, fmt.Errorf("%w: account %d not found", ErrUnauthenticated, claims.UserID)
		}
		return Identity{}, fmt.Errorf("failed to load account: %w", err)
	}

	if user.IsBanned {
		return Identity{}, fmt.Errorf("%w: account %d banned", ErrUnauthenticated, user.ID)
	}

	return Identity{
		UserID:   user.ID,
		Role:     user.Role,
		FullName: user.FullName,
	}, nil
}

// ExtractBearer pulls the credential from an Authorization header value.
func ExtractBearer(header string) (string, error) {
	const prefix = "bearer "
	header = strings.TrimSpace(header)
	if header == "" {
		return "", fmt.Errorf("%w: authorization header missing", ErrUnauthenticated)
	}
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", fmt.Errorf("%w: invalid authorization header", ErrUnauthenticated)
	}

	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", fmt.Errorf("%w: empty token", ErrUnauthenticated)
	}
	return token, nil
}
