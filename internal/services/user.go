package services

import (
	"context"
	"errors"
	"time"

	"github.com/agegate/webapp/internal/store"
	"github.com/agegate/webapp/types"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for any failed authentication attempt.
// Unknown usernames and wrong passwords are indistinguishable to callers.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrAlreadyConfirmed is returned when confirming an account a second time.
var ErrAlreadyConfirmed = errors.New("account already confirmed")

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByUsername(ctx context.Context, username string) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
}

// UserService encapsulates account use-cases.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (types.User, error) {
	return s.repo.GetByUsername(ctx, username)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (types.User, error) {
	return s.repo.GetByEmail(ctx, email)
}

// Register creates a new unconfirmed account with a hashed password.
func (s *UserService) Register(ctx context.Context, username, email, password string) (types.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return types.User{}, err
	}
	return s.repo.Create(ctx, types.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashed),
		RegisteredOn: time.Now(),
		Confirmed:    false,
	})
}

// Authenticate verifies a username/password pair. Every failure mode maps to
// ErrInvalidCredentials so responses cannot enumerate accounts.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (types.User, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrInvalidCredentials
		}
		return types.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return types.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// Confirm marks the account owning email as confirmed. Confirming an
// already-confirmed account leaves it unchanged and reports
// ErrAlreadyConfirmed.
func (s *UserService) Confirm(ctx context.Context, email string) (types.User, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return types.User{}, err
	}
	if user.Confirmed {
		return user, ErrAlreadyConfirmed
	}
	now := time.Now()
	user.Confirmed = true
	user.ConfirmedOn = &now
	return s.repo.Update(ctx, user)
}

// SetPassword replaces the password hash for the account owning email.
func (s *UserService) SetPassword(ctx context.Context, email, password string) error {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hashed)
	_, err = s.repo.Update(ctx, user)
	return err
}
