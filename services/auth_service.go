//go:generate go run go.uber.org/mock/mockgen -source=auth_service.go -destination=../mocks/mock_auth_service.go -package=mocks
package services

import (
	"chat-hub/auth"
	"chat-hub/domain"
	"chat-hub/errors"
	"chat-hub/repositories"
	"fmt"
	"log/slog"
	"strings"

	"github.com/samber/lo"
)

type IAuthService interface {
	Register(req auth.RegisterRequest) (AuthView, error)
	Login(req auth.LoginRequest) (AuthView, error)
	Search(callerID, query string) ([]UserView, error)
	UpdatePic(callerID, pic string) (AuthView, error)
}

type AuthService struct {
	log            *slog.Logger
	userRepository repositories.IUserRepository
	tokens         *auth.TokenManager
}

func NewAuthService(log *slog.Logger, repo repositories.IUserRepository, tokens *auth.TokenManager) *AuthService {
	return &AuthService{log: log, userRepository: repo, tokens: tokens}
}

func (s *AuthService) Register(req auth.RegisterRequest) (AuthView, error) {
	// Business rules are checked before any expensive cryptographic operation
	if err := auth.ValidateRegister(req); err != nil {
		return AuthView{}, err
	}
	pic := strings.TrimSpace(req.Pic)
	if pic == "" {
		pic = domain.DefaultPic
	} else if err := validatePicture(pic); err != nil {
		return AuthView{}, err
	}

	// The repository never sees plain passwords
	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return AuthView{}, fmt.Errorf("hashing failed: %w", err)
	}

	user, err := s.userRepository.CreateUser(domain.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		Pic:          pic,
		PasswordHash: hashedPassword,
	})
	if err != nil {
		return AuthView{}, err
	}
	s.log.Info("User registered", "user_id", user.ID)
	return s.authView(user)
}

func (s *AuthService) Login(req auth.LoginRequest) (AuthView, error) {
	if err := auth.ValidateLogin(req); err != nil {
		return AuthView{}, err
	}

	user, err := s.userRepository.GetUserByEmail(req.Email)
	if err != nil {
		// Generic error to prevent user enumeration
		s.log.Debug("Login refused", "error", err)
		return AuthView{}, errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(req.Password, user.PasswordHash)
	if err != nil || !match {
		return AuthView{}, errors.ErrInvalidCredentials
	}
	return s.authView(user)
}

// Search matches names and emails ignoring case, the caller is never part of the result.
func (s *AuthService) Search(callerID, query string) ([]UserView, error) {
	users, err := s.userRepository.SearchUsers(query, callerID)
	if err != nil {
		return nil, err
	}
	return lo.Map(users, func(u domain.User, _ int) UserView { return toUserView(u) }), nil
}

func (s *AuthService) UpdatePic(callerID, pic string) (AuthView, error) {
	if strings.TrimSpace(pic) == "" {
		return AuthView{}, fmt.Errorf("%w: pic is required", errors.ErrInvalidRequest)
	}
	if err := validatePicture(pic); err != nil {
		return AuthView{}, err
	}
	user, err := s.userRepository.UpdatePic(callerID, strings.TrimSpace(pic))
	if err != nil {
		return AuthView{}, err
	}
	return s.authView(user)
}

func (s *AuthService) authView(user domain.User) (AuthView, error) {
	token, err := s.tokens.GenerateToken(user)
	if err != nil {
		return AuthView{}, err
	}
	return AuthView{UserView: toUserView(user), Token: token}, nil
}
