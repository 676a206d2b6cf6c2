package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	req := require.New(t)

	hash, err := HashPassword("S3cure-enough!")

	req.NoError(err)
	req.True(strings.HasPrefix(hash, "$argon2id$"))

	// A fresh salt every time: hashing twice never yields the same string.
	second, err := HashPassword("S3cure-enough!")
	req.NoError(err)
	req.NotEqual(hash, second)
}

func TestComparePassword(t *testing.T) {
	t.Run("should match the original password", func(t *testing.T) {
		req := require.New(t)
		hash, err := HashPassword("S3cure-enough!")
		req.NoError(err)

		match, err := ComparePassword("S3cure-enough!", hash)

		req.NoError(err)
		req.True(match)
	})

	t.Run("should reject a wrong password", func(t *testing.T) {
		req := require.New(t)
		hash, err := HashPassword("S3cure-enough!")
		req.NoError(err)

		match, err := ComparePassword("n0t-the-Same!", hash)

		req.NoError(err)
		req.False(match)
	})

	t.Run("should reject a malformed hash", func(t *testing.T) {
		req := require.New(t)

		_, err := ComparePassword("whatever", "not-a-hash")

		req.Error(err)
	})
}

func TestValidateRegister(t *testing.T) {
	valid := RegisterRequest{
		Email:     "alice@example.com",
		FirstName: "Alice",
		LastName:  "Liddell",
		Password:  "Str0ng&LongEnough",
	}

	t.Run("should accept a valid request", func(t *testing.T) {
		require.NoError(t, ValidateRegister(valid))
	})

	t.Run("should refuse a bad email", func(t *testing.T) {
		req := valid
		req.Email = "not-an-email"
		require.Error(t, ValidateRegister(req))
	})

	t.Run("should refuse a short password", func(t *testing.T) {
		req := valid
		req.Password = "Sh0rt!"
		require.Error(t, ValidateRegister(req))
	})

	t.Run("should refuse a long but simple password", func(t *testing.T) {
		req := valid
		req.Password = "alllowercaseletters"
		require.Error(t, ValidateRegister(req))
	})
}

func TestValidateLogin(t *testing.T) {
	req := require.New(t)

	req.NoError(ValidateLogin(LoginRequest{Email: "alice@example.com", Password: "anything"}))
	req.Error(ValidateLogin(LoginRequest{Email: "", Password: "anything"}))
	req.Error(ValidateLogin(LoginRequest{Email: "alice@example.com", Password: ""}))
}
