//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"time"

	apperrors "converse/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IUserRepository interface {
	Create(email, firstName, lastName, passwordHash string) (User, error)
	GetByEmail(email string) (User, error)
	GetByID(id string) (User, error)
}

// User is the repository-level representation of an account.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	PasswordHash string    `json:"password_hash"`
	Roles        []string  `json:"roles"`
	CreatedAt    time.Time `json:"created_at"`
}

// DisplayName is the human-facing label used when naming direct
// conversations.
func (u User) DisplayName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return u.Email
	}
	return name
}

// UserRepository persists accounts in BadgerDB under "user:{email}",
// with a "uid:{id}" marker pointing back to the email for id lookups.
type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) IUserRepository {
	return &UserRepository{db: db}
}

func (u *UserRepository) Create(email, firstName, lastName, passwordHash string) (User, error) {
	user := User{
		ID:           uuid.New().String(),
		Email:        email,
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: passwordHash,
		Roles:        []string{"user"},
		CreatedAt:    time.Now().UTC(),
	}
	data, err := json.Marshal(user)
	if err != nil {
		return User{}, err
	}

	err = u.db.Update(func(txn *badger.Txn) error {
		key := []byte("user:" + email)
		if _, err := txn.Get(key); err == nil {
			return apperrors.ErrUserAlreadyExists
		}
		if err := txn.Set(key, data); err != nil {
			return err
		}
		return txn.Set([]byte("uid:"+user.ID), []byte(email))
	})
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (u *UserRepository) GetByEmail(email string) (User, error) {
	var user User
	err := u.db.View(func(txn *badger.Txn) error {
		return readJSON(txn, []byte("user:"+email), &user)
	})
	return user, err
}

func (u *UserRepository) GetByID(id string) (User, error) {
	var user User
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("uid:" + id))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return apperrors.ErrNotFound
			}
			return err
		}
		var email []byte
		if email, err = item.ValueCopy(nil); err != nil {
			return err
		}
		return readJSON(txn, []byte("user:"+string(email)), &user)
	})
	return user, err
}
