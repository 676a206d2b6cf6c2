//go:generate go run go.uber.org/mock/mockgen -source=auth_service.go -destination=../mocks/mock_auth_service.go -package=mocks
package services

import (
	"fmt"

	"converse/auth"
	apperrors "converse/errors"
	"converse/repositories"
)

type IAuthService interface {
	Register(req auth.RegisterRequest) (Token, error)
	Login(req auth.LoginRequest) (Token, error)
}

type Token string

type AuthService struct {
	users  repositories.IUserRepository
	tokens *auth.TokenManager
}

func NewAuthService(users repositories.IUserRepository, tokens *auth.TokenManager) IAuthService {
	return &AuthService{users: users, tokens: tokens}
}

func (s *AuthService) Register(req auth.RegisterRequest) (Token, error) {
	// Business rules first (email format, password complexity), before
	// any expensive cryptographic operation.
	if err := auth.ValidateRegister(req); err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrInvalidPassword, err)
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return "", fmt.Errorf("hashing failed: %w", err)
	}

	user, err := s.users.Create(req.Email, req.FirstName, req.LastName, hashedPassword)
	if err != nil {
		return "", err // Propagates ErrUserAlreadyExists if the email is taken.
	}

	token, err := s.tokens.Generate(user.ID, user.Roles)
	if err != nil {
		return "", apperrors.ErrTokenGeneration
	}
	return Token(token), nil
}

func (s *AuthService) Login(req auth.LoginRequest) (Token, error) {
	if err := auth.ValidateLogin(req); err != nil {
		return "", apperrors.ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(req.Email)
	if err != nil {
		// Generic error to prevent user enumeration.
		return "", apperrors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(req.Password, user.PasswordHash)
	if err != nil || !match {
		return "", apperrors.ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user.ID, user.Roles)
	if err != nil {
		return "", apperrors.ErrTokenGeneration
	}
	return Token(token), nil
}
