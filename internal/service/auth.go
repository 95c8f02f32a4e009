package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/heartline/internal/apperror"
	"github.com/sakif/heartline/internal/auth"
	"github.com/sakif/heartline/internal/model"
	"github.com/sakif/heartline/internal/repository"
)

// MsgInvalidCredentials is returned for a wrong password.
const MsgInvalidCredentials = "invalid credentials"

// AuthService registers and logs in the three account kinds. Each kind is a
// separate auth domain: the same email may exist once per kind.
type AuthService struct {
	users     repository.UserRepository
	creators  repository.CreatorRepository
	admins    repository.AdminRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(
	store repository.Store,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     store,
		creators:  store,
		admins:    store,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// Registration is the input of Register. Age and Category only apply to creators.
type Registration struct {
	Name     string
	Email    string
	Password string
	Age      int
	Category string
}

// AuthResult bundles the issued token with the account it was issued for.
// Account is a *model.User, *model.Admin or model.CreatorProfile.
type AuthResult struct {
	Token   string          `json:"token"`
	Subject model.Principal `json:"principal"`
	Account any             `json:"account"`
}

// Dashboard is the admin landing payload.
type Dashboard struct {
	Message  string `json:"message"`
	Users    int    `json:"users"`
	Creators int    `json:"creators"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(ctx context.Context, role model.Role, in Registration) (*AuthResult, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	switch {
	case name == "":
		return nil, apperror.ValidationFailed("name", "name is required")
	case email == "" || !strings.Contains(email, "@"):
		return nil, apperror.ValidationFailed("email", "a valid email is required")
	case in.Password == "":
		return nil, apperror.ValidationFailed("password", "password is required")
	case len(in.Password) > auth.MaxPasswordBytes:
		return nil, apperror.ValidationFailed("password", fmt.Sprintf("password must be at most %d bytes", auth.MaxPasswordBytes))
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	var (
		id      string
		account any
	)
	switch role {
	case model.RoleUser:
		u := &model.User{Name: name, Email: email, PasswordHash: hash}
		if err := s.users.CreateUser(ctx, u); err != nil {
			return nil, err
		}
		id, account = u.ID, u
	case model.RoleAdmin:
		a := &model.Admin{Name: name, Email: email, PasswordHash: hash}
		if err := s.admins.CreateAdmin(ctx, a); err != nil {
			return nil, err
		}
		id, account = a.ID, a
	case model.RoleCreator:
		category, err := model.ParseCategory(in.Category)
		if err != nil {
			return nil, apperror.ValidationFailed("category", err.Error())
		}
		if in.Age < 0 {
			return nil, apperror.ValidationFailed("age", "age must not be negative")
		}
		c := &model.Creator{Name: name, Email: email, PasswordHash: hash, Age: in.Age, Category: category}
		if err := s.creators.CreateCreator(ctx, c); err != nil {
			return nil, err
		}
		id, account = c.ID, c.Profile()
	default:
		return nil, apperror.ValidationFailed("role", "unknown account kind")
	}

	s.logger.Info("account registered", slog.String("role", string(role)), slog.String("id", id))
	return s.issue(model.Principal{ID: id, Role: role}, account)
}

func (s *AuthService) Login(ctx context.Context, role model.Role, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperror.ValidationFailed("email", "email and password are required")
	}

	var (
		id, hash string
		account  any
	)
	switch role {
	case model.RoleUser:
		u, err := s.users.GetUserByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		id, hash, account = u.ID, u.PasswordHash, u
	case model.RoleAdmin:
		a, err := s.admins.GetAdminByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		id, hash, account = a.ID, a.PasswordHash, a
	case model.RoleCreator:
		c, err := s.creators.GetCreatorByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		id, hash, account = c.ID, c.PasswordHash, c.Profile()
	default:
		return nil, apperror.ValidationFailed("role", "unknown account kind")
	}

	if err := s.passwords.Verify(hash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, apperror.Unauthorized(MsgInvalidCredentials)
		}
		return nil, fmt.Errorf("service/auth: verifying password: %w", err)
	}

	return s.issue(model.Principal{ID: id, Role: role}, account)
}

func (s *AuthService) issue(p model.Principal, account any) (*AuthResult, error) {
	token, err := s.tokens.Generate(p)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for %s %s: %w", p.Role, p.ID, err)
	}
	return &AuthResult{Token: token, Subject: p, Account: account}, nil
}

// Me returns the caller's own account.
func (s *AuthService) Me(ctx context.Context, p model.Principal) (any, error) {
	switch p.Role {
	case model.RoleUser:
		u, err := s.users.GetUserByID(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		return u, nil
	case model.RoleAdmin:
		a, err := s.admins.GetAdminByID(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		return a, nil
	case model.RoleCreator:
		c, err := s.creators.GetCreatorByID(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		return c.Profile(), nil
	}
	return nil, apperror.Unauthorized("unknown role")
}

func (s *AuthService) ListUsers(ctx context.Context, p model.Principal) ([]model.User, error) {
	if !p.IsAdmin() {
		return nil, apperror.Forbidden("admin access required")
	}
	return s.users.ListUsers(ctx)
}

func (s *AuthService) Dashboard(ctx context.Context, p model.Principal) (*Dashboard, error) {
	if !p.IsAdmin() {
		return nil, apperror.Forbidden("admin access required")
	}
	admin, err := s.admins.GetAdminByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	creators, err := s.creators.ListCreators(ctx, repository.CreatorFilter{})
	if err != nil {
		return nil, err
	}
	return &Dashboard{
		Message:  "Welcome Admin " + admin.Name,
		Users:    len(users),
		Creators: len(creators),
	}, nil
}
