package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"time"

	"fleetops/internal/model"
	"fleetops/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DTOs for Request validation
type CreateMemberRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"required"`
}

type UpdateMemberRequest struct {
	Name  string `json:"name"`
	Email string `json:"email" binding:"omitempty,email"`
	Phone string `json:"phone"`
	Role  string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type TokenResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

// MemberResponse returns a User without exposing sensitive data
type MemberResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Role      string    `json:"role"`
	CreatedAt string    `json:"created_at"`
	UpdatedAt string    `json:"updated_at"`
}

// UserService defines the interface for member administration and auth
type UserService interface {
	CreateMember(ctx context.Context, actor Actor, req CreateMemberRequest) (*MemberResponse, error)
	Login(ctx context.Context, req LoginRequest) (*TokenResponse, error)
	RefreshToken(ctx context.Context, req RefreshTokenRequest) (*TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	GetMemberByID(ctx context.Context, actor Actor, id string) (*MemberResponse, error)
	ListMembers(ctx context.Context, actor Actor, page, limit int) ([]MemberResponse, int64, error)
	UpdateMember(ctx context.Context, actor Actor, id string, req UpdateMemberRequest) (*MemberResponse, error)
	DeleteMember(ctx context.Context, actor Actor, id string) error
}

type userService struct {
	repo repository.UserRepository
}

// NewUserService returns a new instance of UserService
func NewUserService(repo repository.UserRepository) UserService {
	return &userService{repo: repo}
}

const (
	accessTokenTTL  = 24 * time.Hour
	refreshTokenTTL = 7 * 24 * time.Hour
)

// Helper: check if role is allowed
func validateRole(role string) bool {
	return role == model.RoleAdmin || role == model.RoleSupervisor || role == model.RoleStaff
}

func mapToMemberResponse(user *model.User) *MemberResponse {
	return &MemberResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Phone:     user.Phone,
		Role:      user.Role,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
		UpdatedAt: user.UpdatedAt.Format(time.RFC3339),
	}
}

func (s *userService) CreateMember(ctx context.Context, actor Actor, req CreateMemberRequest) (*MemberResponse, error) {
	if !validateRole(req.Role) {
		return nil, errors.New("invalid role: must be admin, supervisor, or staff")
	}

	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, conflictErr("email already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.New("failed to hash password")
	}

	user := &model.User{
		OrganizationID: actor.OrgID,
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		Password:       string(hashedPassword),
		Role:           req.Role,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, storageErr("create member", err)
	}

	return mapToMemberResponse(user), nil
}

func (s *userService) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, errors.New("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, errors.New("invalid email or password")
	}

	return s.issueTokens(ctx, user)
}

func (s *userService) RefreshToken(ctx context.Context, req RefreshTokenRequest) (*TokenResponse, error) {
	if req.RefreshToken == "" {
		return nil, errors.New("refresh token is required")
	}

	stored, err := s.repo.GetRefreshToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, errors.New("invalid refresh token")
	}
	if time.Now().After(stored.ExpiresAt) {
		_ = s.repo.DeleteRefreshToken(ctx, req.RefreshToken)
		return nil, errors.New("refresh token expired")
	}

	// Rotate: old token is consumed, a new pair is issued
	if err := s.repo.DeleteRefreshToken(ctx, req.RefreshToken); err != nil {
		return nil, storageErr("rotate refresh token", err)
	}

	return s.issueTokens(ctx, &stored.User)
}

func (s *userService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.repo.DeleteRefreshToken(ctx, refreshToken)
}

func (s *userService) issueTokens(ctx context.Context, user *model.User) (*TokenResponse, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   user.ID.String(),
		"org":   user.OrganizationID.String(),
		"role":  user.Role,
		"name":  user.Name,
		"email": user.Email,
		"exp":   time.Now().Add(accessTokenTTL).Unix(),
	})

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "default_super_secret_key"
	}

	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return nil, errors.New("failed to generate token")
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, errors.New("failed to generate refresh token")
	}
	refreshToken := hex.EncodeToString(raw)

	if err := s.repo.SaveRefreshToken(ctx, &model.RefreshToken{
		UserID:    user.ID,
		Token:     refreshToken,
		ExpiresAt: time.Now().Add(refreshTokenTTL),
	}); err != nil {
		return nil, storageErr("save refresh token", err)
	}

	// Opportunistic cleanup of expired rows
	_ = s.repo.DeleteExpiredRefreshTokens(ctx, time.Now())

	return &TokenResponse{Token: tokenString, RefreshToken: refreshToken}, nil
}

func (s *userService) GetMemberByID(ctx context.Context, actor Actor, id string) (*MemberResponse, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid member id: %w", err)
	}
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil || user.OrganizationID != actor.OrgID {
		return nil, fmt.Errorf("member %w", ErrNotFound)
	}
	return mapToMemberResponse(user), nil
}

func (s *userService) ListMembers(ctx context.Context, actor Actor, page, limit int) ([]MemberResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}

	users, total, err := s.repo.List(ctx, actor.OrgID, page, limit)
	if err != nil {
		return nil, 0, storageErr("list members", err)
	}

	var responses []MemberResponse
	for _, u := range users {
		responses = append(responses, *mapToMemberResponse(&u))
	}

	return responses, total, nil
}

func (s *userService) UpdateMember(ctx context.Context, actor Actor, id string, req UpdateMemberRequest) (*MemberResponse, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid member id: %w", err)
	}
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil || user.OrganizationID != actor.OrgID {
		return nil, fmt.Errorf("member %w", ErrNotFound)
	}

	if req.Role != "" {
		if !validateRole(req.Role) {
			return nil, errors.New("invalid role: must be admin, supervisor, or staff")
		}
		user.Role = req.Role
	}

	if req.Email != "" && req.Email != user.Email {
		if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
			return nil, conflictErr("email already exists")
		}
		user.Email = req.Email
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Phone != "" {
		user.Phone = req.Phone
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, storageErr("update member", err)
	}

	return mapToMemberResponse(user), nil
}

func (s *userService) DeleteMember(ctx context.Context, actor Actor, id string) error {
	userID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid member id: %w", err)
	}
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil || user.OrganizationID != actor.OrgID {
		return fmt.Errorf("member %w", ErrNotFound)
	}
	if user.ID == actor.UserID {
		return conflictErr("cannot delete your own account")
	}
	if err := s.repo.Delete(ctx, user); err != nil {
		return storageErr("delete member", err)
	}
	return nil
}
