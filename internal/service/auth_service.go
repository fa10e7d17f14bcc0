package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"posekit/internal/model"
	"posekit/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// Claims JWT claims с идентификатором и ролью пользователя
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// AuthService регистрация, вход и управление пользователями
type AuthService struct {
	userRepo   repository.UserRepository
	secret     []byte
	expiration time.Duration
	bcryptCost int
	logger     *logrus.Logger
}

// NewAuthService создает новый сервис аутентификации
func NewAuthService(userRepo repository.UserRepository, secret string, expiration time.Duration, bcryptCost int, logger *logrus.Logger) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		secret:     []byte(secret),
		expiration: expiration,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// Register создает учетную запись. Первый пользователь становится
// администратором, остальные получают роль viewer.
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*LoginResponse, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	count, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	role := model.RoleViewer
	if count == 0 {
		role = model.RoleAdmin
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Infof("Зарегистрирован пользователь %s с ролью %s", user.ID, user.Role)
	return s.issue(user)
}

// Login проверяет пароль и выдает токен
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

// GenerateToken выдает токен для пользователя
func (s *AuthService) GenerateToken(user *model.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken проверяет подпись и срок действия токена
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ListUsers возвращает всех пользователей
func (s *AuthService) ListUsers(ctx context.Context) ([]*model.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// UpdateRole меняет роль пользователя. Новая роль попадает в токен
// при следующем входе.
func (s *AuthService) UpdateRole(ctx context.Context, id string, req *UpdateRoleRequest) (*model.User, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateRole(ctx, id, req.Role); err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}

	s.logger.Infof("Роль пользователя %s изменена на %s", id, req.Role)
	return s.userRepo.GetByID(ctx, id)
}

func (s *AuthService) issue(user *model.User) (*LoginResponse, error) {
	token, err := s.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	return &LoginResponse{User: user, Token: token}, nil
}
