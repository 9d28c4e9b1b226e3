package service

import (
	"context"

	"github.com/Shalbulov/zentro-risk-prediction/internal/domain"
)

type AuthServiceInterface interface {
	RequestRegistrationCode(ctx context.Context, email string) error
	RegisterWithCode(ctx context.Context, input RegisterInput) (*domain.PublicUser, error)
	RequestLoginCode(ctx context.Context, email string) error
	LoginWithCode(ctx context.Context, email, password, code string) (*LoginResult, error)
	SignIn(ctx context.Context, email, password string) (*LoginResult, error)
	CurrentUser(ctx context.Context, userID uint) (*domain.PublicUser, error)
}
