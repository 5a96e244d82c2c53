package service

import (
	"context"
	"fmt"

	"github.com/thoas/go-funk"
	"golang.org/x/crypto/bcrypt"

	"github.com/patric-chuzhbe/tareas/internal/models"
)

// BcryptCost is the work factor used for every stored password hash.
const BcryptCost = 10

// maxPasswordBytes is the longest input bcrypt hashes; longer passwords are
// cut to it both when hashing and when comparing.
const maxPasswordBytes = 72

type usersCollection interface {
	Read(ctx context.Context) ([]models.User, error)
	Mutate(ctx context.Context, fn func(records []models.User) ([]models.User, error)) error
}

// CredentialService registers users and checks their passwords.
type CredentialService struct {
	users usersCollection
}

func NewCredentialService(users usersCollection) *CredentialService {
	return &CredentialService{users: users}
}

// Register stores a new user with a bcrypt hash of the password.
// Names are unique and compared case-sensitively.
func (s *CredentialService) Register(ctx context.Context, request models.CredentialsRequest) (*models.User, error) {
	if err := validateRequired(request); err != nil {
		return nil, err
	}

	var created models.User
	err := s.users.Mutate(ctx, func(users []models.User) ([]models.User, error) {
		if findUser(users, request.Name) != nil {
			return nil, ErrDuplicateUser
		}

		hash, err := bcrypt.GenerateFromPassword(passwordBytes(request.Password), BcryptCost)
		if err != nil {
			return nil, fmt.Errorf(
				"in internal/service/credentials.go/Register(): error while `bcrypt.GenerateFromPassword()` calling: %w",
				err,
			)
		}

		created = models.User{
			Name:         request.Name,
			PasswordHash: string(hash),
		}

		return append(users, created), nil
	})
	if err != nil {
		return nil, err
	}

	return &created, nil
}

// Authenticate returns the user when name and password match. An unknown
// name and a wrong password yield the same ErrInvalidCredentials.
func (s *CredentialService) Authenticate(ctx context.Context, request models.CredentialsRequest) (*models.User, error) {
	if err := validateRequired(request); err != nil {
		return nil, err
	}

	users, err := s.users.Read(ctx)
	if err != nil {
		return nil, err
	}

	usr := findUser(users, request.Name)
	if usr == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(usr.PasswordHash), passwordBytes(request.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return usr, nil
}

func passwordBytes(password string) []byte {
	raw := []byte(password)
	if len(raw) > maxPasswordBytes {
		return raw[:maxPasswordBytes]
	}

	return raw
}

func findUser(users []models.User, name string) *models.User {
	found := funk.Find(users, func(usr models.User) bool {
		return usr.Name == name
	})
	if found == nil {
		return nil
	}

	usr := found.(models.User)

	return &usr
}
