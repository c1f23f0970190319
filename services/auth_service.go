package services

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/killrace-tournament/utils"
	"github.com/golang-jwt/jwt/v4"
)

const (
	RoleAdmin       = "admin"
	defaultTokenTTL = 12 * time.Hour
)

type AuthService interface {
	Login(ctx context.Context, input LoginInput) (*LoginResult, error)
}

type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
}

// AdminCredentials - единственная учётная запись администратора из конфигурации.
type AdminCredentials struct {
	Username     string
	PasswordHash string
}

type authService struct {
	admin     AdminCredentials
	jwtSecret []byte
	tokenTTL  time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

func NewAuthService(admin AdminCredentials, jwtSecret string, logger *slog.Logger) AuthService {
	return &authService{
		admin:     admin,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  defaultTokenTTL,
		now:       time.Now,
		logger:    logger,
	}
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" || input.Password == "" {
		return nil, fmt.Errorf("%w: username and password are required", ErrValidationFailed)
	}

	nameOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.admin.Username)) == 1
	passOK, err := utils.CheckPasswordHash(input.Password, s.admin.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to compare password hash: %w", err)
	}
	if !nameOK || !passOK {
		s.logger.WarnContext(ctx, "failed admin login", slog.String("username", username))
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	expiresAt := now.Add(s.tokenTTL)
	claims := jwt.MapClaims{
		"sub":  s.admin.Username,
		"role": RoleAdmin,
		"iat":  now.Unix(),
		"exp":  expiresAt.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &LoginResult{Token: token, ExpiresAt: expiresAt, Username: s.admin.Username, Role: RoleAdmin}, nil
}
