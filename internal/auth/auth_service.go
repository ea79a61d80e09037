package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	autherrors "go-salary/internal/auth/errors"
	"go-salary/internal/domain"
	"go-salary/internal/shared/contextutil"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

//go:generate mockgen -source=auth_service.go -destination=mock/auth_service_mock.go -package=mock
type Service interface {
	Login(ctx context.Context, email, password string) (TokenPair, AuthResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (TokenPair, AuthResponse, error)
	GetMe(ctx context.Context, userID string) (AuthResponse, error)
	Register(ctx context.Context, req RegisterRequest) (AuthResponse, error)
	EnsureAdmin(ctx context.Context, email, name, password string) error
}

type TokenConfig struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Now        func() time.Time
}

type service struct {
	repo   Repository
	tokens TokenConfig
	logger *zap.Logger
}

func NewService(repo Repository, tokens TokenConfig, logger ...*zap.Logger) Service {
	l := zap.L().Named("auth.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("auth.service")
	}
	if tokens.AccessTTL <= 0 {
		tokens.AccessTTL = 15 * time.Minute
	}
	if tokens.RefreshTTL <= 0 {
		tokens.RefreshTTL = 7 * 24 * time.Hour
	}
	if tokens.Now == nil {
		tokens.Now = time.Now
	}
	return &service{repo: repo, tokens: tokens, logger: l}
}

func (s *service) Login(ctx context.Context, email, password string) (TokenPair, AuthResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		log.Info("login unknown email", zap.String("email", email))
		return TokenPair{}, AuthResponse{}, autherrors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		log.Info("login wrong password", zap.String("user_id", user.ID.String()))
		return TokenPair{}, AuthResponse{}, autherrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		return TokenPair{}, AuthResponse{}, autherrors.ErrAccountDisabled
	}

	pair, err := s.issuePair(user)
	if err != nil {
		log.Error("login token generation failed", zap.Error(err))
		return TokenPair{}, AuthResponse{}, autherrors.ErrTokenGenerationFailed
	}

	log.Info("login success", zap.String("user_id", user.ID.String()), zap.String("role", user.Role))
	return pair, toAuthResponse(user), nil
}

func (s *service) RefreshToken(ctx context.Context, refreshToken string) (TokenPair, AuthResponse, error) {
	claims, err := s.parse(refreshToken)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return TokenPair{}, AuthResponse{}, autherrors.ErrTokenExpired
		}
		return TokenPair{}, AuthResponse{}, autherrors.ErrInvalidRefreshToken
	}
	if tokenType, _ := claims["token_type"].(string); tokenType != TokenTypeRefresh {
		return TokenPair{}, AuthResponse{}, autherrors.ErrInvalidRefreshToken
	}

	userIDStr, _ := claims["user_id"].(string)
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return TokenPair{}, AuthResponse{}, autherrors.ErrInvalidToken
	}

	// Role changes and deactivation take effect at the next refresh.
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return TokenPair{}, AuthResponse{}, autherrors.ErrUserNotFound
	}
	if !user.IsActive {
		return TokenPair{}, AuthResponse{}, autherrors.ErrAccountDisabled
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return TokenPair{}, AuthResponse{}, autherrors.ErrTokenGenerationFailed
	}
	return pair, toAuthResponse(user), nil
}

func (s *service) GetMe(ctx context.Context, userID string) (AuthResponse, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return AuthResponse{}, autherrors.ErrInvalidUserID
	}

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return AuthResponse{}, autherrors.ErrUserNotFound
	}
	return toAuthResponse(u), nil
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (AuthResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)

	role := strings.ToUpper(strings.TrimSpace(req.Role))
	if !domain.IsValidRole(role) {
		return AuthResponse{}, autherrors.ErrInvalidRole
	}

	user, err := s.createUser(ctx, req.Email, req.Name, req.Password, role)
	if err != nil {
		log.Warn("register failed", zap.String("email", req.Email), zap.Error(err))
		return AuthResponse{}, err
	}

	log.Info("user registered",
		zap.String("user_id", user.ID.String()),
		zap.String("role", role),
		zap.String("by", contextutil.GetUserID(ctx)),
	)
	return toAuthResponse(user), nil
}

// EnsureAdmin seeds the first ADMIN account. An existing account under the
// same email is left untouched.
func (s *service) EnsureAdmin(ctx context.Context, email, name, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		s.logger.Warn("admin bootstrap skipped, ADMIN_EMAIL or ADMIN_PASSWORD not set")
		return nil
	}

	_, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	user, err := s.createUser(ctx, email, name, password, domain.RoleAdmin)
	if err != nil {
		return err
	}
	s.logger.Info("admin account created", zap.String("user_id", user.ID.String()), zap.String("email", user.Email))
	return nil
}

func (s *service) createUser(ctx context.Context, email, name, password, role string) (*User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &User{
		ID:       uuid.New(),
		Email:    email,
		Name:     strings.TrimSpace(name),
		Password: string(hashed),
		Role:     role,
		IsActive: true,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		var pgErr *pgconn.PgError
		if errors.Is(err, gorm.ErrDuplicatedKey) || (errors.As(err, &pgErr) && pgErr.Code == "23505") {
			return nil, autherrors.ErrEmailAlreadyRegistered
		}
		return nil, err
	}
	return user, nil
}

func (s *service) issuePair(user *User) (TokenPair, error) {
	access, err := s.generateToken(user, TokenTypeAccess, s.tokens.AccessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.generateToken(user, TokenTypeRefresh, s.tokens.RefreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *service) generateToken(user *User, tokenType string, expiry time.Duration) (string, error) {
	now := s.tokens.Now()
	claims := jwt.MapClaims{
		"user_id":    user.ID.String(),
		"email":      user.Email,
		"name":       user.Name,
		"role":       user.Role,
		"token_type": tokenType,
		"iat":        now.Unix(),
		"exp":        now.Add(expiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.tokens.Secret))
}

func (s *service) parse(raw string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, autherrors.ErrInvalidToken
		}
		return []byte(s.tokens.Secret), nil
	}, jwt.WithTimeFunc(s.tokens.Now))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, autherrors.ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, autherrors.ErrInvalidToken
	}
	return claims, nil
}
