package service

import (
	"net/http"
	"strings"

	"landlords/config"
	"landlords/internal/apperr"
	"landlords/internal/auth"
	"landlords/internal/models"
	"landlords/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailExists  = apperr.New(http.StatusConflict, apperr.CodeEmailExists, "email already registered", apperr.ErrConflict)
	ErrInvalidCreds = apperr.New(http.StatusUnauthorized, apperr.CodeInvalidCredentials, "invalid email or password", nil)
)

type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
	Phone    string
}

type AuthService struct {
	cfg      *config.Config
	userRepo *repository.UserRepository
}

func NewAuthService(cfg *config.Config, userRepo *repository.UserRepository) *AuthService {
	return &AuthService{cfg: cfg, userRepo: userRepo}
}

func (s *AuthService) Register(in RegisterInput) (*models.User, *Tokens, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	_, err := s.userRepo.GetByEmail(email)
	if err == nil {
		return nil, nil, ErrEmailExists
	}
	if !repository.IsNotFound(err) {
		return nil, nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, err
	}
	u := &models.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		Phone:        in.Phone,
		PasswordHash: string(hash),
		Role:         in.Role,
	}
	if err := s.userRepo.Create(u); err != nil {
		return nil, nil, err
	}
	tokens, err := s.issue(u)
	if err != nil {
		return nil, nil, err
	}
	return u, tokens, nil
}

func (s *AuthService) Login(email, password string) (*models.User, *Tokens, error) {
	u, err := s.userRepo.GetByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, nil, ErrInvalidCreds
		}
		return nil, nil, err
	}
	if u.PasswordHash == "" {
		return nil, nil, ErrInvalidCreds
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCreds
	}
	tokens, err := s.issue(u)
	if err != nil {
		return nil, nil, err
	}
	return u, tokens, nil
}

func (s *AuthService) RefreshToken(refreshToken string) (*Tokens, error) {
	userID, err := auth.ParseRefreshToken(&s.cfg.JWT, refreshToken)
	if err != nil {
		return nil, apperr.New(http.StatusUnauthorized, apperr.CodeUnauthorized, "invalid or expired refresh token", err)
	}
	u, err := s.userRepo.GetByID(userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperr.New(http.StatusUnauthorized, apperr.CodeUnauthorized, "account no longer exists", err)
		}
		return nil, err
	}
	return s.issue(u)
}

func (s *AuthService) Me(userID uint) (*models.User, error) {
	u, err := s.userRepo.GetByID(userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, err
	}
	return u, nil
}

func (s *AuthService) issue(u *models.User) (*Tokens, error) {
	access, err := auth.GenerateAccessToken(&s.cfg.JWT, u.ID, u.Email, u.Role)
	if err != nil {
		return nil, err
	}
	refresh, err := auth.GenerateRefreshToken(&s.cfg.JWT, u.ID)
	if err != nil {
		return nil, err
	}
	return &Tokens{AccessToken: access, RefreshToken: refresh}, nil
}
