package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vardaanagro/agrofarm-backend/internal/users"
	pkgAuth "github.com/vardaanagro/agrofarm-backend/pkg/auth"
	"github.com/vardaanagro/agrofarm-backend/pkg/config"
	"github.com/vardaanagro/agrofarm-backend/pkg/db"
	"github.com/vardaanagro/agrofarm-backend/pkg/db/models"
	"github.com/vardaanagro/agrofarm-backend/pkg/enums"
	pkgerrors "github.com/vardaanagro/agrofarm-backend/pkg/errors"
	"github.com/vardaanagro/agrofarm-backend/pkg/logger"
	"github.com/vardaanagro/agrofarm-backend/pkg/security"
)

const (
	invalidCredentialsMessage = "Invalid credentials"
	invalidRefreshMessage     = "Invalid or expired refresh token"
	inactiveUserMessage       = "User account is inactive"
	userNotFoundMessage       = "User not found"
	duplicateEmailMessage     = "User with this email already exists"
	wrongPasswordMessage      = "Current password is incorrect"

	defaultRefreshTTL = 7 * 24 * time.Hour
)

// Service defines the behavior needed by the auth controller.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*SessionResponse, error)
	Login(ctx context.Context, req LoginRequest) (*SessionResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*RefreshResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	LogoutAll(ctx context.Context, userID uuid.UUID) error
	ChangePassword(ctx context.Context, userID uuid.UUID, req ChangePasswordRequest) error
	Profile(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error)
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	DB             *db.Client
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
	Logger         *logger.Logger
	Clock          func() time.Time
}

type service struct {
	db          *db.Client
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	logg        *logger.Logger
	now         func() time.Time
}

// NewService constructs the auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("database client is required")
	}
	if params.JWTConfig.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{
		db:          params.DB,
		jwtCfg:      params.JWTConfig,
		passwordCfg: params.PasswordConfig,
		logg:        params.Logger,
		now:         clock,
	}, nil
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*SessionResponse, error) {
	email := users.NormalizeEmail(req.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Email is required")
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var resp *SessionResponse
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := users.NewRepository(tx)

		exists, err := userRepo.EmailExists(ctx, email)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}
		if exists {
			return pkgerrors.New(pkgerrors.CodeConflict, duplicateEmailMessage)
		}

		user, err := userRepo.Create(ctx, users.CreateUserDTO{
			Name:         req.Name,
			Email:        email,
			PasswordHash: passwordHash,
			Phone:        trimOptional(req.Phone),
			Address:      trimOptional(req.Address),
			Role:         enums.UserRoleCustomer,
		})
		if err != nil {
			return db.Classify(err, "", duplicateEmailMessage, "create user")
		}

		tokens, err := s.issueTokens(ctx, tx, user)
		if err != nil {
			return err
		}
		resp = &SessionResponse{User: users.FromModel(user), Tokens: *tokens}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithUserID(ctx, resp.User.ID.String()), "auth.user_registered")
	}
	return resp, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*SessionResponse, error) {
	user, err := s.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	tokens, err := s.issueTokens(ctx, s.db.DB(), user)
	if err != nil {
		return nil, err
	}
	return &SessionResponse{User: users.FromModel(user), Tokens: *tokens}, nil
}

// Refresh rotates a refresh token. Expired rows are rejected but left in
// place for the purge job.
func (s *service) Refresh(ctx context.Context, refreshToken string) (*RefreshResponse, error) {
	token := strings.TrimSpace(refreshToken)
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidRefreshMessage)
	}

	var resp *RefreshResponse
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		tokenRepo := NewTokenRepository(tx)
		row, err := tokenRepo.FindByToken(ctx, token)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeUnauthorized, invalidRefreshMessage)
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup refresh token")
		}
		if row.ExpiresAt.Before(s.now()) {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, invalidRefreshMessage)
		}

		user, err := users.NewRepository(tx).FindByID(ctx, row.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeUnauthorized, invalidRefreshMessage)
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
		}
		if !user.IsActive {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, inactiveUserMessage)
		}

		deleted, err := tokenRepo.DeleteByID(ctx, row.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete refresh token")
		}
		// a concurrent rotation already consumed this token
		if !deleted {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, invalidRefreshMessage)
		}

		tokens, err := s.issueTokens(ctx, tx, user)
		if err != nil {
			return err
		}
		resp = &RefreshResponse{Tokens: *tokens}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *service) Logout(ctx context.Context, refreshToken string) error {
	token := strings.TrimSpace(refreshToken)
	if token == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "Refresh token is required")
	}
	if err := NewTokenRepository(s.db.DB()).DeleteByToken(ctx, token); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete refresh token")
	}
	return nil
}

func (s *service) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	if _, err := NewTokenRepository(s.db.DB()).DeleteByUser(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete refresh tokens")
	}
	return nil
}

func (s *service) ChangePassword(ctx context.Context, userID uuid.UUID, req ChangePasswordRequest) error {
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := users.NewRepository(tx)
		user, err := userRepo.FindByID(ctx, userID)
		if err != nil {
			return db.Classify(err, userNotFoundMessage, "", "lookup user")
		}

		valid, err := security.VerifyPassword(req.CurrentPassword, user.PasswordHash)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
		}
		if !valid {
			return pkgerrors.New(pkgerrors.CodeBadRequest, wrongPasswordMessage)
		}

		hash, err := security.HashPassword(req.NewPassword, s.passwordCfg)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
		}
		if err := userRepo.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update password")
		}
		if _, err := NewTokenRepository(tx).DeleteByUser(ctx, user.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "revoke refresh tokens")
		}
		return nil
	})
	if err != nil {
		return err
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithUserID(ctx, userID.String()), "auth.password_changed")
	}
	return nil
}

func (s *service) Profile(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	user, err := users.NewRepository(s.db.DB()).FindByID(ctx, userID)
	if err != nil {
		return nil, db.Classify(err, userNotFoundMessage, "", "lookup user")
	}
	return users.FromModel(user), nil
}

func (s *service) authenticate(ctx context.Context, email, password string) (*models.User, error) {
	input := users.NormalizeEmail(email)
	if input == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	user, err := users.NewRepository(s.db.DB()).FindByEmail(ctx, input)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	valid, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return user, nil
}

func (s *service) issueTokens(ctx context.Context, tx *gorm.DB, user *models.User) (*TokenPair, error) {
	now := s.now().UTC()
	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}

	refreshToken, err := pkgAuth.NewRefreshToken()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate refresh token")
	}
	ttl := s.jwtCfg.RefreshTokenTTL
	if ttl <= 0 {
		ttl = defaultRefreshTTL
	}
	row := &models.RefreshToken{
		Token:     refreshToken,
		UserID:    user.ID,
		ExpiresAt: now.Add(ttl),
	}
	if err := NewTokenRepository(tx).Create(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store refresh token")
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
