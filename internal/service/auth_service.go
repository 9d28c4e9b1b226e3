package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Shalbulov/zentro-risk-prediction/internal/domain"
	"github.com/Shalbulov/zentro-risk-prediction/internal/mail"
	"github.com/Shalbulov/zentro-risk-prediction/internal/repository"
	"github.com/Shalbulov/zentro-risk-prediction/internal/security"

	"gorm.io/gorm"
)

var (
	ErrDuplicateAccount     = errors.New("user already exists")
	ErrInvalidOrExpiredCode = errors.New("invalid or expired verification code")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrAccountNotVerified   = errors.New("account is not verified")
	ErrUserNotFound         = errors.New("user not found")
	ErrMissingFields        = errors.New("required fields are missing")
	ErrDeliveryFailed       = errors.New("verification email delivery failed")
)

// AuthService owns identity creation and login, both gated by short-lived
// single-use email codes, plus the legacy direct password path. Multi-row
// state changes (user insert + code delete, code delete + token issuance)
// run inside a single gorm transaction; gorm rolls back automatically when
// the closure returns an error.
type AuthService struct {
	db         *gorm.DB
	users      repository.UserRepository
	regCodes   repository.CodeRepository
	loginCodes repository.CodeRepository
	jwtMgr     *security.JWTManager
	mailer     mail.Mailer

	regCodeTTL   time.Duration
	loginCodeTTL time.Duration
	tokenTTL     time.Duration

	now func() time.Time
}

type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Code      string
}

type LoginResult struct {
	Token     string             `json:"token"`
	User      *domain.PublicUser `json:"user"`
	ExpiresAt time.Time          `json:"expires_at"`
}

func NewAuthService(
	db *gorm.DB,
	users repository.UserRepository,
	regCodes repository.CodeRepository,
	loginCodes repository.CodeRepository,
	jwtMgr *security.JWTManager,
	mailer mail.Mailer,
	regCodeTTL, loginCodeTTL, tokenTTL time.Duration,
) *AuthService {
	return &AuthService{
		db:           db,
		users:        users,
		regCodes:     regCodes,
		loginCodes:   loginCodes,
		jwtMgr:       jwtMgr,
		mailer:       mailer,
		regCodeTTL:   regCodeTTL,
		loginCodeTTL: loginCodeTTL,
		tokenTTL:     tokenTTL,
		now:          time.Now,
	}
}

// RequestRegistrationCode issues (or refreshes) the single outstanding
// registration code for the address and mails it. The code row stays
// persisted even when delivery fails, so a retried send reuses the slot.
func (s *AuthService) RequestRegistrationCode(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return ErrMissingFields
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return ErrDuplicateAccount
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return err
	}

	code, err := security.NewVerificationCode()
	if err != nil {
		return err
	}
	now := s.now().UTC()
	if err := s.regCodes.Upsert(ctx, &repository.CodeRecord{
		Email:     email,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(s.regCodeTTL),
	}); err != nil {
		return err
	}

	if err := s.deliverCode(ctx, email, code, "Your Zentro registration code", s.regCodeTTL); err != nil {
		return err
	}
	return nil
}

// RegisterWithCode exchanges a valid registration code for a verified
// account. User insert and code consumption commit together or not at all.
func (s *AuthService) RegisterWithCode(ctx context.Context, input RegisterInput) (*domain.PublicUser, error) {
	email := normalizeEmail(input.Email)
	code := cleanCode(input.Code)
	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)
	if email == "" || code == "" || firstName == "" || lastName == "" || input.Password == "" {
		return nil, ErrMissingFields
	}

	var created *domain.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := s.users.WithTx(tx)
		codes := s.regCodes.WithTx(tx)
		now := s.now().UTC()

		if _, err := codes.FindActive(ctx, email, code, now); err != nil {
			if errors.Is(err, repository.ErrCodeNotFound) {
				return ErrInvalidOrExpiredCode
			}
			return err
		}

		// Race guard: another registration may have landed between code
		// issuance and verification.
		if _, err := users.FindByEmail(ctx, email); err == nil {
			return ErrDuplicateAccount
		} else if !errors.Is(err, repository.ErrUserNotFound) {
			return err
		}

		hash, err := security.HashPassword(input.Password)
		if err != nil {
			return err
		}
		user := &domain.User{
			FirstName:  firstName,
			LastName:   lastName,
			Email:      email,
			Password:   hash,
			IsVerified: true,
			Role:       "user",
			Status:     "active",
		}
		if err := users.Create(ctx, user); err != nil {
			return err
		}

		deleted, err := codes.DeleteByEmail(ctx, email)
		if err != nil {
			return err
		}
		if deleted == 0 {
			// A concurrent verification consumed the code first.
			return ErrInvalidOrExpiredCode
		}
		created = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created.Public(), nil
}

// RequestLoginCode issues a login code for an existing account. Unlike the
// registration path this deliberately reports unknown addresses; see the
// endpoint docs for the tradeoff.
func (s *AuthService) RequestLoginCode(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return ErrMissingFields
	}

	if _, err := s.users.FindByEmail(ctx, email); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	code, err := security.NewVerificationCode()
	if err != nil {
		return err
	}
	now := s.now().UTC()
	if err := s.loginCodes.Upsert(ctx, &repository.CodeRecord{
		Email:     email,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(s.loginCodeTTL),
	}); err != nil {
		return err
	}

	return s.deliverCode(ctx, email, code, "Your Zentro login code", s.loginCodeTTL)
}

// LoginWithCode is the second factor of the login flow: password and code
// must both check out inside one transaction, the code is consumed, and a
// fixed-validity bearer token is issued.
func (s *AuthService) LoginWithCode(ctx context.Context, email, password, code string) (*LoginResult, error) {
	email = normalizeEmail(email)
	code = cleanCode(code)
	if email == "" || password == "" || code == "" {
		return nil, ErrMissingFields
	}

	var result *LoginResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := s.users.WithTx(tx)
		codes := s.loginCodes.WithTx(tx)
		now := s.now().UTC()

		if _, err := codes.FindActive(ctx, email, code, now); err != nil {
			if errors.Is(err, repository.ErrCodeNotFound) {
				return ErrInvalidOrExpiredCode
			}
			return err
		}

		user, err := s.checkCredentials(ctx, users, email, password)
		if err != nil {
			return err
		}

		deleted, err := codes.DeleteByEmail(ctx, email)
		if err != nil {
			return err
		}
		if deleted == 0 {
			return ErrInvalidOrExpiredCode
		}

		token, err := s.jwtMgr.Sign(user.ID, s.tokenTTL)
		if err != nil {
			return err
		}
		result = &LoginResult{Token: token, User: user.Public(), ExpiresAt: now.Add(s.tokenTTL)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SignIn is the legacy direct password path. It shares the verification
// gate and token shape with LoginWithCode.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrMissingFields
	}

	user, err := s.checkCredentials(ctx, s.users, email, password)
	if err != nil {
		return nil, err
	}
	token, err := s.jwtMgr.Sign(user.ID, s.tokenTTL)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, User: user.Public(), ExpiresAt: s.now().UTC().Add(s.tokenTTL)}, nil
}

func (s *AuthService) CurrentUser(ctx context.Context, userID uint) (*domain.PublicUser, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user.Public(), nil
}

// checkCredentials folds "no such user" and "wrong password" into one error
// so login responses cannot be used to probe for accounts.
func (s *AuthService) checkCredentials(ctx context.Context, users repository.UserRepository, email, password string) (*domain.User, error) {
	user, err := users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	ok, err := security.VerifyPassword(user.Password, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if !user.IsVerified {
		return nil, ErrAccountNotVerified
	}
	return user, nil
}

func (s *AuthService) deliverCode(ctx context.Context, email, code, subject string, ttl time.Duration) error {
	minutes := int(ttl.Minutes())
	text := fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, minutes)
	html := fmt.Sprintf("<p>Your verification code is <b>%s</b>.</p><p>It expires in %d minutes.</p>", code, minutes)
	if err := s.mailer.Send(ctx, email, subject, text, html); err != nil {
		return fmt.Errorf("%w: %s", ErrDeliveryFailed, err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// cleanCode strips all whitespace, tolerating codes pasted as "123 456".
func cleanCode(code string) string {
	return strings.Join(strings.Fields(code), "")
}
