package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atarasenko/userd/internal/models"
	"github.com/atarasenko/userd/internal/repository"
)

type mockUserRepo struct {
	FindByIDFunc       func(ctx context.Context, id string) (*models.User, error)
	FindByUsernameFunc func(ctx context.Context, username string) (*models.User, error)
	FindAllFunc        func(ctx context.Context, limit, offset int) ([]models.User, error)
	InsertFunc         func(ctx context.Context, u *models.User) error
	UpdateByIDFunc     func(ctx context.Context, id string, u *models.User) (*models.User, error)
	DeleteByIDFunc     func(ctx context.Context, id string) (*models.User, error)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	return m.FindByIDFunc(ctx, id)
}
func (m *mockUserRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return m.FindByUsernameFunc(ctx, username)
}
func (m *mockUserRepo) FindAll(ctx context.Context, limit, offset int) ([]models.User, error) {
	return m.FindAllFunc(ctx, limit, offset)
}
func (m *mockUserRepo) Insert(ctx context.Context, u *models.User) error {
	return m.InsertFunc(ctx, u)
}
func (m *mockUserRepo) UpdateByID(ctx context.Context, id string, u *models.User) (*models.User, error) {
	return m.UpdateByIDFunc(ctx, id, u)
}
func (m *mockUserRepo) DeleteByID(ctx context.Context, id string) (*models.User, error) {
	return m.DeleteByIDFunc(ctx, id)
}

// fakeHasher marks digests deterministically so tests can see what was stored.
type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }
func (fakeHasher) Verify(password, digest string) bool  { return digest == "hashed:"+password }

type fakeIssuer struct {
	issued []string
}

func (f *fakeIssuer) Issue(userID string) (string, error) {
	f.issued = append(f.issued, userID)
	return "token-for-" + userID, nil
}

func newTestService(repo UserRepository) (*AccountService, *fakeIssuer) {
	issuer := &fakeIssuer{}
	return NewAccountService(repo, fakeHasher{}, issuer, 0), issuer
}

func TestCreate_Success(t *testing.T) {
	var inserted *models.User
	repo := &mockUserRepo{
		FindByUsernameFunc: func(ctx context.Context, username string) (*models.User, error) {
			return nil, repository.ErrNotFound
		},
		InsertFunc: func(ctx context.Context, u *models.User) error {
			inserted = u
			return nil
		},
	}
	svc, issuer := newTestService(repo)

	user, token, err := svc.Create(context.Background(), CreateRequest{
		ID:       "u1",
		Type:     "student",
		Username: "alice",
		Password: "secret",
	})
	require.NoError(t, err)
	require.NotNil(t, inserted)

	assert.Equal(t, "hashed:secret", inserted.Password)
	assert.Equal(t, "token-for-u1", token)
	assert.Equal(t, []string{"u1"}, issuer.issued)
	assert.Equal(t, "u1", user.ID)
}

func TestCreate_MissingFields(t *testing.T) {
	svc, _ := newTestService(&mockUserRepo{})

	cases := []CreateRequest{
		{Type: "student", Username: "alice", Password: "pw"},
		{ID: "u1", Username: "alice", Password: "pw"},
		{ID: "u1", Type: "student", Password: "pw"},
		{ID: "u1", Type: "student", Username: "alice"},
	}
	for i, req := range cases {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			_, _, err := svc.Create(context.Background(), req)
			assert.ErrorIs(t, err, ErrMissingFields)
		})
	}
}

func TestCreate_UsernameTaken(t *testing.T) {
	repo := &mockUserRepo{
		FindByUsernameFunc: func(ctx context.Context, username string) (*models.User, error) {
			return &models.User{ID: "u0", Username: username}, nil
		},
	}
	svc, _ := newTestService(repo)

	_, _, err := svc.Create(context.Background(), CreateRequest{
		ID: "u1", Type: "student", Username: "alice", Password: "pw",
	})
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestCreate_ConflictOnInsert(t *testing.T) {
	// Pre-check passes but the store reports a duplicate at write time.
	repo := &mockUserRepo{
		FindByUsernameFunc: func(ctx context.Context, username string) (*models.User, error) {
			return nil, repository.ErrNotFound
		},
		InsertFunc: func(ctx context.Context, u *models.User) error {
			return repository.ErrConflict
		},
	}
	svc, _ := newTestService(repo)

	_, _, err := svc.Create(context.Background(), CreateRequest{
		ID: "u1", Type: "student", Username: "alice", Password: "pw",
	})
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestCreate_StoreError(t *testing.T) {
	wantErr := errors.New("db down")
	repo := &mockUserRepo{
		FindByUsernameFunc: func(ctx context.Context, username string) (*models.User, error) {
			return nil, wantErr
		},
	}
	svc, _ := newTestService(repo)

	_, _, err := svc.Create(context.Background(), CreateRequest{
		ID: "u1", Type: "student", Username: "alice", Password: "pw",
	})
	assert.ErrorIs(t, err, wantErr)
}

func TestList_PassesThrough(t *testing.T) {
	want := []models.User{{ID: "u1"}, {ID: "u2"}}
	repo := &mockUserRepo{
		FindAllFunc: func(ctx context.Context, limit, offset int) ([]models.User, error) {
			assert.Equal(t, 50, limit)
			assert.Equal(t, 100, offset)
			return want, nil
		},
	}
	svc, _ := newTestService(repo)

	got, err := svc.List(context.Background(), 50, 100)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func strPtr(s string) *string { return &s }

func TestUpdate_PartialFieldsRetained(t *testing.T) {
	existing := &models.User{
		ID: "u1", Type: "student", Username: "alice",
		Password: "hashed:old", RecoveryMail: "a@b.c", ActiveDay: "2024-01-01",
	}
	repo := &mockUserRepo{
		FindByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return existing, nil
		},
		UpdateByIDFunc: func(ctx context.Context, id string, u *models.User) (*models.User, error) {
			return u, nil
		},
	}
	svc, _ := newTestService(repo)

	got, err := svc.Update(context.Background(), "u1", UpdateRequest{
		Type: strPtr("teacher"),
	})
	require.NoError(t, err)

	assert.Equal(t, "teacher", got.Type)
	assert.Equal(t, "alice", got.Username)
	// Password was not supplied, so the stored digest survives untouched.
	assert.Equal(t, "hashed:old", got.Password)
	assert.True(t, fakeHasher{}.Verify("old", got.Password))
	assert.Equal(t, "a@b.c", got.RecoveryMail)
	assert.Equal(t, "2024-01-01", got.ActiveDay)
}

func TestUpdate_PasswordRehashed(t *testing.T) {
	repo := &mockUserRepo{
		FindByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return &models.User{ID: "u1", Username: "alice", Password: "hashed:old"}, nil
		},
		UpdateByIDFunc: func(ctx context.Context, id string, u *models.User) (*models.User, error) {
			return u, nil
		},
	}
	svc, _ := newTestService(repo)

	got, err := svc.Update(context.Background(), "u1", UpdateRequest{Password: strPtr("new")})
	require.NoError(t, err)
	assert.Equal(t, "hashed:new", got.Password)
}

func TestUpdate_NotFound(t *testing.T) {
	repo := &mockUserRepo{
		FindByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return nil, repository.ErrNotFound
		},
	}
	svc, _ := newTestService(repo)

	_, err := svc.Update(context.Background(), "missing", UpdateRequest{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdate_UsernameTakenByOther(t *testing.T) {
	repo := &mockUserRepo{
		FindByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return &models.User{ID: "u1", Username: "alice"}, nil
		},
		FindByUsernameFunc: func(ctx context.Context, username string) (*models.User, error) {
			return &models.User{ID: "u2", Username: username}, nil
		},
	}
	svc, _ := newTestService(repo)

	_, err := svc.Update(context.Background(), "u1", UpdateRequest{Username: strPtr("bob")})
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestUpdate_OwnUsernameNoCollision(t *testing.T) {
	lookupCalled := false
	repo := &mockUserRepo{
		FindByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return &models.User{ID: "u1", Username: "alice"}, nil
		},
		FindByUsernameFunc: func(ctx context.Context, username string) (*models.User, error) {
			lookupCalled = true
			return &models.User{ID: "u1", Username: username}, nil
		},
		UpdateByIDFunc: func(ctx context.Context, id string, u *models.User) (*models.User, error) {
			return u, nil
		},
	}
	svc, _ := newTestService(repo)

	got, err := svc.Update(context.Background(), "u1", UpdateRequest{Username: strPtr("alice")})
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	// Same username as before: the uniqueness lookup is skipped entirely.
	assert.False(t, lookupCalled)
}

func TestUpdate_DeletedConcurrently(t *testing.T) {
	repo := &mockUserRepo{
		FindByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return &models.User{ID: "u1", Username: "alice"}, nil
		},
		UpdateByIDFunc: func(ctx context.Context, id string, u *models.User) (*models.User, error) {
			return nil, repository.ErrNotFound
		},
	}
	svc, _ := newTestService(repo)

	_, err := svc.Update(context.Background(), "u1", UpdateRequest{Type: strPtr("admin")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete_Success(t *testing.T) {
	want := &models.User{ID: "u1", Username: "alice"}
	repo := &mockUserRepo{
		DeleteByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			assert.Equal(t, "u1", id)
			return want, nil
		},
	}
	svc, _ := newTestService(repo)

	got, err := svc.Delete(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDelete_NotFound(t *testing.T) {
	repo := &mockUserRepo{
		DeleteByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return nil, repository.ErrNotFound
		},
	}
	svc, _ := newTestService(repo)

	_, err := svc.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLogin_Success(t *testing.T) {
	repo := &mockUserRepo{
		FindByUsernameFunc: func(ctx context.Context, username string) (*models.User, error) {
			return &models.User{ID: "u1", Username: username, Password: "hashed:pw"}, nil
		},
	}
	svc, _ := newTestService(repo)

	user, token, err := svc.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "token-for-u1", token)
}

func TestLogin_WrongPassword(t *testing.T) {
	repo := &mockUserRepo{
		FindByUsernameFunc: func(ctx context.Context, username string) (*models.User, error) {
			return &models.User{ID: "u1", Username: username, Password: "hashed:pw"}, nil
		},
	}
	svc, _ := newTestService(repo)

	_, _, err := svc.Login(context.Background(), "alice", "nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_UnknownUser(t *testing.T) {
	repo := &mockUserRepo{
		FindByUsernameFunc: func(ctx context.Context, username string) (*models.User, error) {
			return nil, repository.ErrNotFound
		},
	}
	svc, _ := newTestService(repo)

	_, _, err := svc.Login(context.Background(), "ghost", "pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
