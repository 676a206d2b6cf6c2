package services_test

import (
	"testing"
	"time"

	"converse/auth"
	apperrors "converse/errors"
	"converse/mocks"
	"converse/repositories"
	"converse/services"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func validRegisterRequest() auth.RegisterRequest {
	return auth.RegisterRequest{
		Email:     "alice@example.com",
		FirstName: "Alice",
		LastName:  "Liddell",
		Password:  "Compl3x&Long-enough",
	}
}

func TestAuthService_Register(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	users := mocks.NewMockIUserRepository(ctrl)
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	svc := services.NewAuthService(users, tokens)

	t.Run("should register and return a usable token", func(t *testing.T) {
		req := require.New(t)
		request := validRegisterRequest()

		// The repository must receive a hash, never the plain password.
		users.EXPECT().
			Create(request.Email, request.FirstName, request.LastName, gomock.Not(request.Password)).
			Return(repositories.User{ID: "user-1", Email: request.Email, Roles: []string{"user"}}, nil).
			Times(1)

		token, err := svc.Register(request)

		req.NoError(err)
		req.NotEmpty(token)

		userID, err := tokens.Resolve(string(token))
		req.NoError(err)
		req.Equal("user-1", userID)
	})

	t.Run("should refuse a weak password before touching the repository", func(t *testing.T) {
		req := require.New(t)
		request := validRegisterRequest()
		request.Password = "alllowercaseletters"

		users.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		token, err := svc.Register(request)

		req.ErrorIs(err, apperrors.ErrInvalidPassword)
		req.Empty(token)
	})

	t.Run("should propagate a duplicate account error", func(t *testing.T) {
		req := require.New(t)
		request := validRegisterRequest()

		users.EXPECT().
			Create(request.Email, request.FirstName, request.LastName, gomock.Any()).
			Return(repositories.User{}, apperrors.ErrUserAlreadyExists).
			Times(1)

		_, err := svc.Register(request)

		req.ErrorIs(err, apperrors.ErrUserAlreadyExists)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	users := mocks.NewMockIUserRepository(ctrl)
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	svc := services.NewAuthService(users, tokens)

	password := "Compl3x&Long-enough"
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	account := repositories.User{
		ID:           "user-1",
		Email:        "alice@example.com",
		PasswordHash: hash,
		Roles:        []string{"user"},
	}

	t.Run("should login with the correct credentials", func(t *testing.T) {
		req := require.New(t)
		users.EXPECT().GetByEmail(account.Email).Return(account, nil).Times(1)

		token, err := svc.Login(auth.LoginRequest{Email: account.Email, Password: password})

		req.NoError(err)
		req.NotEmpty(token)
	})

	t.Run("should refuse a wrong password", func(t *testing.T) {
		req := require.New(t)
		users.EXPECT().GetByEmail(account.Email).Return(account, nil).Times(1)

		_, err := svc.Login(auth.LoginRequest{Email: account.Email, Password: "Wr0ng-password!"})

		req.ErrorIs(err, apperrors.ErrInvalidCredentials)
	})

	t.Run("should answer unknown accounts and wrong passwords identically", func(t *testing.T) {
		req := require.New(t)
		users.EXPECT().GetByEmail("ghost@example.com").Return(repositories.User{}, apperrors.ErrNotFound).Times(1)

		_, err := svc.Login(auth.LoginRequest{Email: "ghost@example.com", Password: password})

		req.ErrorIs(err, apperrors.ErrInvalidCredentials)
	})

	t.Run("should refuse a structurally invalid request", func(t *testing.T) {
		req := require.New(t)

		_, err := svc.Login(auth.LoginRequest{Email: "not-an-email", Password: password})

		req.ErrorIs(err, apperrors.ErrInvalidCredentials)
	})
}
