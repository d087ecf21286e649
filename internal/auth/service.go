package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/oriventa/clearance/internal/apperr"
	"github.com/oriventa/clearance/internal/employees"
)

// Directory reads employee records for authentication.
type Directory interface {
	Get(ctx context.Context, id uuid.UUID) (*employees.Employee, error)
	GetByProfessionalEmail(ctx context.Context, email string) (*employees.Employee, error)
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

// PermissionResolver resolves the effective permission set embedded in tokens.
type PermissionResolver interface {
	Resolve(ctx context.Context, employeeID uuid.UUID, now time.Time) ([]int32, error)
}

// Config holds token issuance parameters.
type Config struct {
	Secret          []byte
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// Service authenticates employees and issues token pairs.
type Service struct {
	directory Directory
	resolver  PermissionResolver
	cfg       Config
	clock     func() time.Time
}

// NewService constructs a Service.
func NewService(directory Directory, resolver PermissionResolver, cfg Config) *Service {
	if cfg.AccessTokenTTL <= 0 {
		cfg.AccessTokenTTL = 24 * time.Hour
	}
	if cfg.RefreshTokenTTL <= 0 {
		cfg.RefreshTokenTTL = 7 * 24 * time.Hour
	}
	return &Service{
		directory: directory,
		resolver:  resolver,
		cfg:       cfg,
		clock:     func() time.Time { return time.Now().UTC() },
	}
}

var errInvalidCredentials = apperr.New(apperr.KindValidation, apperr.CodeInvalidCredentials, "invalid email or password")

// Login verifies credentials, resolves the current permission set, and
// issues a fresh token pair. A successful login is the one event guaranteed
// to observe a freshly cached resolution.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*TokenPair, error) {
	emp, err := s.directory.GetByProfessionalEmail(ctx, req.ProfessionalEmail)
	if err != nil {
		if errors.Is(err, employees.ErrNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, apperr.Internal(err, "lookup employee")
	}
	if emp.DeactivatedAt != nil {
		return nil, errInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(emp.PasswordHash), []byte(req.Password)); err != nil {
		return nil, errInvalidCredentials
	}

	now := s.clock()
	perms, err := s.resolver.Resolve(ctx, emp.ID, now)
	if err != nil {
		return nil, err
	}

	if err := s.directory.TouchLastLogin(ctx, emp.ID, now); err != nil {
		return nil, apperr.Internal(err, "touch last login")
	}

	return s.issue(emp, perms, now)
}

// Refresh validates a refresh token, re-resolves permissions, and re-issues.
func (s *Service) Refresh(ctx context.Context, req RefreshRequest) (*TokenPair, error) {
	var claims RefreshClaims
	token, err := jwt.ParseWithClaims(req.RefreshToken, &claims, s.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))
	if err != nil || !token.Valid {
		return nil, apperr.Validation("invalid refresh token")
	}

	employeeID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, apperr.Validation("invalid refresh token")
	}

	emp, err := s.directory.Get(ctx, employeeID)
	if err != nil {
		if errors.Is(err, employees.ErrNotFound) {
			return nil, apperr.Validation("employee not found or deactivated")
		}
		return nil, apperr.Internal(err, "lookup employee")
	}
	if emp.DeactivatedAt != nil {
		return nil, apperr.Validation("employee not found or deactivated")
	}

	now := s.clock()
	perms, err := s.resolver.Resolve(ctx, emp.ID, now)
	if err != nil {
		return nil, err
	}
	return s.issue(emp, perms, now)
}

// VerifyAccessToken parses and validates an access token.
func (s *Service) VerifyAccessToken(tokenString string) (*Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, s.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))
	if err != nil || !token.Valid {
		return nil, apperr.New(apperr.KindForbidden, apperr.CodeInvalidCredentials, "invalid access token")
	}
	return &claims, nil
}

func (s *Service) keyFunc(*jwt.Token) (any, error) {
	return s.cfg.Secret, nil
}

func (s *Service) issue(emp *employees.Employee, perms []int32, now time.Time) (*TokenPair, error) {
	accessExpiry := now.Add(s.cfg.AccessTokenTTL)
	access := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email:       emp.ProfessionalEmail,
		FirstName:   emp.FirstName,
		LastName:    emp.LastName,
		Permissions: perms,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   emp.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(accessExpiry),
		},
	})
	accessToken, err := access.SignedString(s.cfg.Secret)
	if err != nil {
		return nil, apperr.Internal(err, "sign access token")
	}

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   emp.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.RefreshTokenTTL)),
		},
	})
	refreshToken, err := refresh.SignedString(s.cfg.Secret)
	if err != nil {
		return nil, apperr.Internal(err, "sign refresh token")
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresAt:    accessExpiry,
	}, nil
}
