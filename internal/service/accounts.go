package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/cinelog/internal/model"
	"github.com/iliyamo/cinelog/internal/repository"
	"github.com/iliyamo/cinelog/internal/utils"
)

const minPasswordLen = 6

// AccountConfig carries token and hashing settings.
type AccountConfig struct {
	JWTSecret      string
	AccessTTLMin   int
	RefreshTTLDays int
	BcryptCost     int
}

// TokenPart is a credential and its expiry.
type TokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

// Session is the answer to register, login and refresh.
type Session struct {
	User    model.PublicUser `json:"user"`
	Access  TokenPart        `json:"access"`
	Refresh TokenPart        `json:"refresh"`
}

// AccountService registers users and issues access and refresh tokens.
// Only the SHA-256 hash of a refresh token is stored.
type AccountService struct {
	users  UserStore
	tokens TokenStore
	cfg    AccountConfig
}

// NewAccountService wires the account service.
func NewAccountService(users UserStore, tokens TokenStore, cfg AccountConfig) *AccountService {
	return &AccountService{users: users, tokens: tokens, cfg: cfg}
}

// Register creates a user and signs them in.
func (s *AccountService) Register(ctx context.Context, username, email, password string) (Session, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" || email == "" || password == "" {
		return Session{}, validation("username, email and password are required")
	}
	if len(password) < minPasswordLen {
		return Session{}, validation("password must be at least 6 characters")
	}

	taken, err := s.users.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return Session{}, err
	}
	if taken {
		return Session{}, conflict("username or email already exists", nil)
	}
	hash, err := utils.HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return Session{}, err
	}
	id, err := s.users.Create(ctx, username, email, hash)
	if errors.Is(err, repository.ErrDuplicate) {
		return Session{}, conflict("username or email already exists", err)
	}
	if err != nil {
		return Session{}, err
	}
	return s.issue(ctx, model.PublicUser{ID: id, Username: username, Email: email})
}

// Login verifies an identifier (username or email) and password.
func (s *AccountService) Login(ctx context.Context, identifier, password string) (Session, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return Session{}, validation("identifier and password are required")
	}
	u, err := s.users.GetByIdentifier(ctx, identifier)
	if errors.Is(err, repository.ErrUserNotFound) {
		return Session{}, unauthorized("invalid credentials")
	}
	if err != nil {
		return Session{}, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return Session{}, unauthorized("invalid credentials")
	}
	return s.issue(ctx, u.Public())
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// pair is issued.
func (s *AccountService) Refresh(ctx context.Context, raw string) (Session, error) {
	u, hash, err := s.validateRefresh(ctx, raw)
	if err != nil {
		return Session{}, err
	}
	if err := s.tokens.RevokeByHash(ctx, hash); err != nil {
		return Session{}, err
	}
	return s.issue(ctx, u.Public())
}

// RefreshAccess issues a new access token without rotating the refresh
// token.
func (s *AccountService) RefreshAccess(ctx context.Context, raw string) (TokenPart, error) {
	u, _, err := s.validateRefresh(ctx, raw)
	if err != nil {
		return TokenPart{}, err
	}
	access, err := utils.NewAccessToken(s.cfg.JWTSecret, u.ID, u.Username, s.cfg.AccessTTLMin)
	if err != nil {
		return TokenPart{}, err
	}
	return TokenPart{Token: access.Token, Expires: access.Exp}, nil
}

// Logout revokes one refresh token when raw is given, otherwise every
// refresh token of userID.  At least one of them is required.
func (s *AccountService) Logout(ctx context.Context, userID uint64, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw != "" {
		_, hash, err := s.validateRefresh(ctx, raw)
		if err != nil {
			return err
		}
		return s.tokens.RevokeByHash(ctx, hash)
	}
	if userID == 0 {
		return validation("provide Authorization header or refresh_token")
	}
	return s.tokens.RevokeAllForUser(ctx, userID)
}

// Me returns the public profile of userID.
func (s *AccountService) Me(ctx context.Context, userID uint64) (model.PublicUser, error) {
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return model.PublicUser{}, notFound("user not found")
	}
	if err != nil {
		return model.PublicUser{}, err
	}
	return u.Public(), nil
}

func (s *AccountService) validateRefresh(ctx context.Context, raw string) (model.User, string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return model.User{}, "", validation("refresh_token is required")
	}
	hash := utils.HashRefreshRaw(raw)
	userID, err := s.tokens.ValidateRefresh(ctx, hash)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, "", unauthorized("invalid refresh token")
	}
	if err != nil {
		return model.User{}, "", err
	}
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return model.User{}, "", unauthorized("invalid refresh token")
	}
	if err != nil {
		return model.User{}, "", err
	}
	return u, hash, nil
}

func (s *AccountService) issue(ctx context.Context, u model.PublicUser) (Session, error) {
	access, err := utils.NewAccessToken(s.cfg.JWTSecret, u.ID, u.Username, s.cfg.AccessTTLMin)
	if err != nil {
		return Session{}, err
	}
	refresh, err := utils.NewRefreshToken(s.cfg.RefreshTTLDays)
	if err != nil {
		return Session{}, err
	}
	if err := s.tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return Session{}, err
	}
	return Session{
		User:    u,
		Access:  TokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: TokenPart{Token: refresh.Raw, Expires: refresh.Exp},
	}, nil
}
