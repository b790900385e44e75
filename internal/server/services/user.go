package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/prisonkeeper/internal/common"
	"github.com/dmitrijs2005/prisonkeeper/internal/cryptox"
	"github.com/dmitrijs2005/prisonkeeper/internal/logging"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/auth"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/config"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/models"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/repositories/users"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// NewUserInput carries the fields an administrator supplies for an account.
type NewUserInput struct {
	Username  string      `json:"username"`
	Password  string      `json:"password"`
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Email     string      `json:"email"`
	Phone     string      `json:"phone"`
	Role      models.Role `json:"role"`
	Prison    string      `json:"prison"`
}

// UserService handles login, token refresh and account management.
type UserService struct {
	users                        users.Repository
	tokens                       refreshtokens.Repository
	logger                       logging.Logger
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	now                          func() time.Time
}

func NewUserService(u users.Repository, t refreshtokens.Repository, cfg *config.Config, logger logging.Logger) *UserService {
	return &UserService{
		users:                        u,
		tokens:                       t,
		logger:                       logger.With("module", "users"),
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		now:                          time.Now,
	}
}

// Login verifies the password and returns a new TokenPair. Unknown users and
// wrong passwords are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	user, err := s.users.GetUserByLogin(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}
	ok, err := cryptox.VerifyPassword(user.PasswordHash, password)
	if err != nil {
		s.logger.Warn(ctx, "stored password hash is unusable", "user_id", user.ID, "error", err)
		return nil, common.ErrorUnauthorized
	}
	if !ok {
		return nil, common.ErrorUnauthorized
	}
	return s.generateTokenPair(ctx, auth.Actor{ID: user.ID, Role: user.Role})
}

// RefreshToken rotates a refresh token and returns a fresh TokenPair.
// Expired tokens are removed and yield ErrRefreshTokenExpired.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	token, err := s.tokens.Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}
	if err := s.tokens.Delete(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("error deleting refresh token: %w", err)
	}
	if token.Expires.Before(s.now()) {
		return nil, common.ErrRefreshTokenExpired
	}

	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, err
	}
	return s.generateTokenPair(ctx, auth.Actor{ID: user.ID, Role: user.Role})
}

// Logout revokes a refresh token.
func (s *UserService) Logout(ctx context.Context, refreshToken string) error {
	return s.tokens.Delete(ctx, refreshToken)
}

// Me returns the caller's account without its password hash.
func (s *UserService) Me(ctx context.Context, actor auth.Actor) (*models.User, error) {
	u, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	u.PasswordHash = ""
	return u, nil
}

// CreateUser registers an account. Only administrators may call it; the
// admin CLI passes an admin actor when bootstrapping.
func (s *UserService) CreateUser(ctx context.Context, actor auth.Actor, in NewUserInput) (*models.User, error) {
	if !actor.IsAdmin() {
		return nil, forbidden("only administrators can create users")
	}
	verr := &common.ValidationError{}
	if strings.TrimSpace(in.Username) == "" {
		verr.Add("username", "is required")
	}
	if in.Password == "" {
		verr.Add("password", "is required")
	}
	if !in.Role.Valid() {
		verr.Add("role", fmt.Sprintf("unknown role %q", in.Role))
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	hash, err := cryptox.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u, err := s.users.Create(ctx, &models.User{
		Username:     in.Username,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		Phone:        in.Phone,
		Role:         in.Role,
		Prison:       in.Prison,
		PasswordHash: hash,
	})
	if errors.Is(err, common.ErrorAlreadyExists) {
		return nil, fmt.Errorf("username %q is taken: %w", in.Username, common.ErrorConflict)
	}
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "user created", "user_id", u.ID, "role", string(u.Role), "actor", actor.ID)
	u.PasswordHash = ""
	return u, nil
}

// SetPassword replaces a user's password. Users may change their own;
// administrators may change anyone's.
func (s *UserService) SetPassword(ctx context.Context, actor auth.Actor, userID, password string) error {
	if userID != actor.ID && !actor.IsAdmin() {
		return forbidden("cannot change another user's password")
	}
	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return err
	}
	return s.users.SetPasswordHash(ctx, userID, hash)
}

func (s *UserService) generateTokenPair(ctx context.Context, actor auth.Actor) (*TokenPair, error) {
	access, err := auth.GenerateToken(actor, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, common.ErrorInternal
	}
	if err := s.tokens.Create(ctx, actor.ID, refresh, s.refreshTokenValidityDuration); err != nil {
		return nil, common.ErrorInternal
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
