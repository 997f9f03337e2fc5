// Package service provides account business logic, delegating persistence
// to a UserRepository and credential work to a hasher and token issuer.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/atarasenko/userd/internal/models"
	"github.com/atarasenko/userd/internal/repository"
)

var (
	// ErrMissingFields is returned when a create request omits a required field.
	ErrMissingFields = errors.New("missing required fields")
	// ErrUsernameTaken is returned when the requested username belongs to another record.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrNotFound is returned when no record matches the given id.
	ErrNotFound = errors.New("user not found")
	// ErrInvalidCredentials is returned when login fails; it deliberately does not
	// reveal whether the username or the password was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// UserRepository defines the persistence operations required by the account service.
type UserRepository interface {
	// FindByID fetches a record by id, or repository.ErrNotFound.
	FindByID(ctx context.Context, id string) (*models.User, error)
	// FindByUsername fetches a record by username, or repository.ErrNotFound.
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	// FindAll lists records; limit <= 0 means unbounded.
	FindAll(ctx context.Context, limit, offset int) ([]models.User, error)
	// Insert persists a new record, or repository.ErrConflict on a duplicate key.
	Insert(ctx context.Context, u *models.User) error
	// UpdateByID overwrites a record's mutable fields and returns the updated row.
	UpdateByID(ctx context.Context, id string, u *models.User) (*models.User, error)
	// DeleteByID removes a record and returns it, or repository.ErrNotFound.
	DeleteByID(ctx context.Context, id string) (*models.User, error)
}

// PasswordHasher hashes plaintext passwords and verifies candidates against digests.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, digest string) bool
}

// TokenIssuer mints signed identity tokens for a user id.
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

// CreateRequest carries the fields of an account-creation request.
type CreateRequest struct {
	ID           string
	Type         string
	Username     string
	Password     string
	RecoveryMail string
	ActiveDay    string
}

// UpdateRequest carries a partial update; nil fields retain the stored value.
type UpdateRequest struct {
	Type         *string
	Username     *string
	Password     *string
	RecoveryMail *string
	ActiveDay    *string
}

// AccountService implements create, list, update, delete, and login over user records.
type AccountService struct {
	repo   UserRepository
	hasher PasswordHasher
	issuer TokenIssuer
	// storeTimeout bounds every repository call; 0 disables the bound.
	storeTimeout time.Duration
}

// NewAccountService constructs an AccountService with the given collaborators.
func NewAccountService(repo UserRepository, hasher PasswordHasher, issuer TokenIssuer, storeTimeout time.Duration) *AccountService {
	return &AccountService{
		repo:         repo,
		hasher:       hasher,
		issuer:       issuer,
		storeTimeout: storeTimeout,
	}
}

func (s *AccountService) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.storeTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.storeTimeout)
}

// Create validates the request, hashes the password, persists the record, and
// issues a token bound to the new record's id.
//
// The username pre-check is advisory; a concurrent creator can pass it too.
// The UNIQUE constraint on the users table is the real guarantee, so a
// conflicting insert also surfaces as ErrUsernameTaken.
func (s *AccountService) Create(ctx context.Context, req CreateRequest) (*models.User, string, error) {
	if req.ID == "" || req.Type == "" || req.Username == "" || req.Password == "" {
		return nil, "", ErrMissingFields
	}

	lookupCtx, cancel := s.storeCtx(ctx)
	_, err := s.repo.FindByUsername(lookupCtx, req.Username)
	cancel()
	if err == nil {
		return nil, "", ErrUsernameTaken
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, "", err
	}

	digest, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, "", err
	}

	user := &models.User{
		ID:           req.ID,
		Type:         req.Type,
		Username:     req.Username,
		Password:     digest,
		RecoveryMail: req.RecoveryMail,
		ActiveDay:    req.ActiveDay,
	}

	insertCtx, cancel := s.storeCtx(ctx)
	err = s.repo.Insert(insertCtx, user)
	cancel()
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, "", ErrUsernameTaken
		}
		return nil, "", err
	}

	token, err := s.issuer.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// List returns user records. limit <= 0 returns every record; offset skips rows.
func (s *AccountService) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	listCtx, cancel := s.storeCtx(ctx)
	defer cancel()
	return s.repo.FindAll(listCtx, limit, offset)
}

// Update applies a partial update to the record with the given id. Supplied
// fields replace stored values, absent fields are retained, and a supplied
// password is re-hashed. Changing the username to one held by a different
// record fails with ErrUsernameTaken; the record's own username is not a
// collision.
func (s *AccountService) Update(ctx context.Context, id string, req UpdateRequest) (*models.User, error) {
	findCtx, cancel := s.storeCtx(ctx)
	existing, err := s.repo.FindByID(findCtx, id)
	cancel()
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if req.Username != nil && *req.Username != existing.Username {
		checkCtx, cancel := s.storeCtx(ctx)
		other, err := s.repo.FindByUsername(checkCtx, *req.Username)
		cancel()
		if err == nil && other.ID != id {
			return nil, ErrUsernameTaken
		}
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}

	updated := *existing
	if req.Type != nil {
		updated.Type = *req.Type
	}
	if req.Username != nil {
		updated.Username = *req.Username
	}
	if req.Password != nil {
		digest, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return nil, err
		}
		updated.Password = digest
	}
	if req.RecoveryMail != nil {
		updated.RecoveryMail = *req.RecoveryMail
	}
	if req.ActiveDay != nil {
		updated.ActiveDay = *req.ActiveDay
	}

	updateCtx, cancel := s.storeCtx(ctx)
	result, err := s.repo.UpdateByID(updateCtx, id, &updated)
	cancel()
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Deleted between the existence check and the write.
			return nil, ErrNotFound
		}
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	return result, nil
}

// Delete removes the record with the given id and returns it.
func (s *AccountService) Delete(ctx context.Context, id string) (*models.User, error) {
	deleteCtx, cancel := s.storeCtx(ctx)
	defer cancel()

	deleted, err := s.repo.DeleteByID(deleteCtx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return deleted, nil
}

// Login verifies a username/password pair and issues a token for the matching
// record's id.
func (s *AccountService) Login(ctx context.Context, username, password string) (*models.User, string, error) {
	findCtx, cancel := s.storeCtx(ctx)
	user, err := s.repo.FindByUsername(findCtx, username)
	cancel()
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if !s.hasher.Verify(password, user.Password) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.issuer.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}
