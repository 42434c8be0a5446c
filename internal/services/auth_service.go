package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/bensalemboualem/ifactory-school/internal/authz"
	"github.com/bensalemboualem/ifactory-school/internal/config"
	"github.com/bensalemboualem/ifactory-school/internal/dto"
	"github.com/bensalemboualem/ifactory-school/internal/models"
	"github.com/bensalemboualem/ifactory-school/internal/tenant"
	"github.com/bensalemboualem/ifactory-school/internal/validation"
)

type AuthService struct {
	db      *gorm.DB
	cfg     *config.Config
	checker authz.Checker
	now     func() time.Time
}

func NewAuthService(db *gorm.DB, cfg *config.Config, checker authz.Checker) *AuthService {
	return &AuthService{
		db:      db,
		cfg:     cfg,
		checker: checker,
		now:     time.Now,
	}
}

func (s *AuthService) Login(ctx context.Context, schoolID string, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	var user models.User
	err := s.db.WithContext(ctx).Scopes(tenant.ForTenant(schoolID)).
		Where("email = ?", normalizeEmail(req.Email)).First(&user).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, failed(ctx, "auth.login", authz.Actor{SchoolID: schoolID}, err)
		}
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issue(&user)
}

// CreateUser enrols a new member of the actor's school. Moderators only.
func (s *AuthService) CreateUser(ctx context.Context, actor authz.Actor, req *dto.CreateUserRequest) (*dto.UserResponse, error) {
	if !s.checker.CanModerate(actor) {
		return nil, ErrForbidden
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	user, err := s.createUser(ctx, actor.SchoolID, req)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, err
		}
		return nil, failed(ctx, "auth.create_user", actor, err)
	}

	slog.InfoContext(ctx, "user created",
		"school_id", actor.SchoolID, "user_id", user.ID.String(), "role", user.Role)
	resp := toUserResponse(user)
	return &resp, nil
}

// EnsureBootstrapAdmin creates the school's first superadmin when the school
// has no superadmin yet.
func (s *AuthService) EnsureBootstrapAdmin(ctx context.Context, schoolID, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Scopes(tenant.ForTenant(schoolID)).
		Where("role = ?", authz.RoleSuperAdmin).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count superadmins: %w", err)
	}
	if count > 0 {
		return nil
	}

	user, err := s.createUser(ctx, schoolID, &dto.CreateUserRequest{
		Email:    email,
		Name:     "Administrator",
		Password: password,
		Role:     authz.RoleSuperAdmin,
	})
	if err != nil {
		return fmt.Errorf("failed to create bootstrap admin: %w", err)
	}
	slog.Info("bootstrap superadmin created", "school_id", schoolID, "user_id", user.ID.String())
	return nil
}

func (s *AuthService) createUser(ctx context.Context, schoolID string, req *dto.CreateUserRequest) (*models.User, error) {
	email := normalizeEmail(req.Email)

	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Scopes(tenant.ForTenant(schoolID)).
		Where("email = ?", email).Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:       uuid.New(),
		SchoolID: schoolID,
		Email:    email,
		Name:     strings.TrimSpace(req.Name),
		Password: string(hash),
		Role:     req.Role,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &user, nil
}

func (s *AuthService) issue(user *models.User) (*dto.AuthResponse, error) {
	token, expiresAt, err := s.generateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &dto.AuthResponse{
		AccessToken: token,
		ExpiresAt:   expiresAt.Unix(),
		User:        toUserResponse(user),
	}, nil
}

func (s *AuthService) generateAccessToken(user *models.User) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.cfg.JWTAccessExpiry)
	claims := jwt.MapClaims{
		"sub":       user.ID.String(),
		"email":     user.Email,
		"school_id": user.SchoolID,
		"role":      user.Role,
		"iat":       now.Unix(),
		"exp":       expiresAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	return signed, expiresAt, err
}

func toUserResponse(u *models.User) dto.UserResponse {
	return dto.UserResponse{
		ID:       u.ID,
		SchoolID: u.SchoolID,
		Email:    u.Email,
		Name:     u.Name,
		Role:     u.Role,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
