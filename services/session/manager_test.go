package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tech-arch1tect/medreg/models"
	"github.com/tech-arch1tect/medreg/services/auth"
	"github.com/tech-arch1tect/medreg/services/token"
	"github.com/tech-arch1tect/medreg/testutils"
)

type memoryStore struct {
	mu     sync.Mutex
	kind   models.Kind
	byID   map[string]*models.Credentials
	clears int
}

func newMemoryStore(kind models.Kind) *memoryStore {
	return &memoryStore{kind: kind, byID: make(map[string]*models.Credentials)}
}

func (s *memoryStore) add(id, email, hash string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[id] = &models.Credentials{ID: id, Kind: s.kind, Email: email, PasswordHash: hash}
}

func (s *memoryStore) stored(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byID[id].RefreshToken
}

func (s *memoryStore) Kind() models.Kind { return s.kind }

func (s *memoryStore) FindCredentialsByEmail(ctx context.Context, email string) (*models.Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.byID {
		if c.Email == email {
			copied := *c
			return &copied, nil
		}
	}
	return nil, models.ErrPrincipalNotFound
}

func (s *memoryStore) FindCredentialsByID(ctx context.Context, id string) (*models.Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[id]
	if !ok {
		return nil, models.ErrPrincipalNotFound
	}
	copied := *c
	return &copied, nil
}

func (s *memoryStore) StoreRefreshToken(ctx context.Context, id, refreshToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[id]
	if !ok {
		return models.ErrPrincipalNotFound
	}
	c.RefreshToken = refreshToken
	return nil
}

func (s *memoryStore) RotateRefreshToken(ctx context.Context, id, presented, next string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[id]
	if !ok || c.RefreshToken != presented {
		return false, nil
	}
	c.RefreshToken = next
	return true, nil
}

func (s *memoryStore) ClearRefreshToken(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clears++
	if c, ok := s.byID[id]; ok {
		c.RefreshToken = ""
	}
	return nil
}

func (s *memoryStore) PublicProfile(ctx context.Context, id string) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[id]
	if !ok {
		return nil, models.ErrPrincipalNotFound
	}
	return map[string]string{"_id": c.ID, "email": c.Email}, nil
}

type fixture struct {
	manager   *Manager
	tokens    *token.Service
	hospitals *memoryStore
	patients  *memoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testutils.GetTestConfig()

	passwords := auth.NewService(&cfg.Auth, nil)
	tokens := token.NewService(&cfg.JWT, nil)

	hash, err := passwords.HashPassword(testutils.TestPasswords.Valid)
	require.NoError(t, err)

	hospitals := newMemoryStore(models.KindHospital)
	hospitals.add("h-1", "h@x.com", hash)
	patients := newMemoryStore(models.KindPatient)
	patients.add("p-1", "p@x.com", hash)

	return &fixture{
		manager:   NewManager(tokens, passwords, nil, hospitals, patients),
		tokens:    tokens,
		hospitals: hospitals,
		patients:  patients,
	}
}

func TestManager_Login(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("success persists refresh token", func(t *testing.T) {
		result, err := f.manager.Login(ctx, models.KindHospital, "h@x.com", testutils.TestPasswords.Valid)
		require.NoError(t, err)

		assert.Equal(t, "h-1", result.PrincipalID)
		assert.NotEmpty(t, result.AccessToken)
		assert.Equal(t, f.hospitals.stored("h-1"), result.RefreshToken)
		assert.Equal(t, map[string]string{"_id": "h-1", "email": "h@x.com"}, result.Principal)

		claims, err := f.tokens.VerifyAccessToken(result.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, models.KindHospital, claims.Kind)
		assert.Equal(t, "h-1", claims.PrincipalID)
	})

	t.Run("email is normalised", func(t *testing.T) {
		_, err := f.manager.Login(ctx, models.KindHospital, "  H@X.com ", testutils.TestPasswords.Valid)
		assert.NoError(t, err)
	})

	t.Run("new login overwrites previous refresh token", func(t *testing.T) {
		first, err := f.manager.Login(ctx, models.KindPatient, "p@x.com", testutils.TestPasswords.Valid)
		require.NoError(t, err)
		second, err := f.manager.Login(ctx, models.KindPatient, "p@x.com", testutils.TestPasswords.Valid)
		require.NoError(t, err)

		assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
		assert.Equal(t, second.RefreshToken, f.patients.stored("p-1"))

		_, err = f.manager.Refresh(ctx, models.KindPatient, first.RefreshToken)
		assert.ErrorIs(t, err, ErrTokenReused)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := f.manager.Login(ctx, models.KindHospital, "nobody@x.com", testutils.TestPasswords.Valid)
		assert.ErrorIs(t, err, models.ErrPrincipalNotFound)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := f.manager.Login(ctx, models.KindHospital, "h@x.com", testutils.TestPasswords.Wrong)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("kinds are separate", func(t *testing.T) {
		_, err := f.manager.Login(ctx, models.KindPatient, "h@x.com", testutils.TestPasswords.Valid)
		assert.ErrorIs(t, err, models.ErrPrincipalNotFound)
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := f.manager.Login(ctx, models.KindHospital, "", testutils.TestPasswords.Valid)
		assert.ErrorIs(t, err, ErrMissingCredentials)

		_, err = f.manager.Login(ctx, models.KindHospital, "h@x.com", "")
		assert.ErrorIs(t, err, ErrMissingCredentials)
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := f.manager.Login(ctx, models.Kind("admin"), "h@x.com", testutils.TestPasswords.Valid)
		assert.ErrorIs(t, err, ErrUnknownKind)
	})
}

func TestManager_Refresh(t *testing.T) {
	ctx := context.Background()

	t.Run("rotates and rejects the stale token", func(t *testing.T) {
		f := newFixture(t)
		login, err := f.manager.Login(ctx, models.KindHospital, "h@x.com", testutils.TestPasswords.Valid)
		require.NoError(t, err)

		pair, err := f.manager.Refresh(ctx, models.KindHospital, login.RefreshToken)
		require.NoError(t, err)
		assert.NotEqual(t, login.RefreshToken, pair.RefreshToken)
		assert.NotEmpty(t, pair.AccessToken)
		assert.Equal(t, pair.RefreshToken, f.hospitals.stored("h-1"))

		_, err = f.manager.Refresh(ctx, models.KindHospital, login.RefreshToken)
		assert.ErrorIs(t, err, ErrTokenReused)
		assert.ErrorIs(t, err, ErrUnauthorized)

		_, err = f.manager.Refresh(ctx, models.KindHospital, pair.RefreshToken)
		assert.NoError(t, err)
	})

	t.Run("same token succeeds once", func(t *testing.T) {
		f := newFixture(t)
		login, err := f.manager.Login(ctx, models.KindPatient, "p@x.com", testutils.TestPasswords.Valid)
		require.NoError(t, err)

		_, err = f.manager.Refresh(ctx, models.KindPatient, login.RefreshToken)
		require.NoError(t, err)
		_, err = f.manager.Refresh(ctx, models.KindPatient, login.RefreshToken)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("empty token", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.manager.Refresh(ctx, models.KindHospital, "")
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("garbage token", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.manager.Refresh(ctx, models.KindHospital, "garbage")
		assert.ErrorIs(t, err, ErrInvalidToken)
		assert.ErrorIs(t, err, token.ErrMalformedToken)
	})

	t.Run("access token is not a refresh token", func(t *testing.T) {
		f := newFixture(t)
		login, err := f.manager.Login(ctx, models.KindHospital, "h@x.com", testutils.TestPasswords.Valid)
		require.NoError(t, err)

		_, err = f.manager.Refresh(ctx, models.KindHospital, login.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("well formed but never stored", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.manager.Login(ctx, models.KindHospital, "h@x.com", testutils.TestPasswords.Valid)
		require.NoError(t, err)

		forged, err := f.tokens.IssueRefreshToken("h-1")
		require.NoError(t, err)

		_, err = f.manager.Refresh(ctx, models.KindHospital, forged)
		assert.ErrorIs(t, err, ErrTokenReused)
	})

	t.Run("principal removed", func(t *testing.T) {
		f := newFixture(t)
		orphan, err := f.tokens.IssueRefreshToken("gone")
		require.NoError(t, err)

		_, err = f.manager.Refresh(ctx, models.KindHospital, orphan)
		assert.ErrorIs(t, err, models.ErrPrincipalNotFound)
	})

	t.Run("concurrent refresh has a single winner", func(t *testing.T) {
		f := newFixture(t)
		login, err := f.manager.Login(ctx, models.KindHospital, "h@x.com", testutils.TestPasswords.Valid)
		require.NoError(t, err)

		const workers = 8
		var wg sync.WaitGroup
		results := make(chan error, workers)
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := f.manager.Refresh(ctx, models.KindHospital, login.RefreshToken)
				results <- err
			}()
		}
		wg.Wait()
		close(results)

		var ok, reused int
		for err := range results {
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrTokenReused):
				reused++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		assert.Equal(t, 1, ok)
		assert.Equal(t, workers-1, reused)
	})

	t.Run("expired refresh token", func(t *testing.T) {
		cfg := testutils.GetTestConfig()
		f := newFixture(t)
		past := time.Now().Add(-300 * time.Hour)
		oldTokens := token.NewService(&cfg.JWT, nil).WithClock(func() time.Time { return past })

		stale, err := oldTokens.IssueRefreshToken("h-1")
		require.NoError(t, err)
		require.NoError(t, f.hospitals.StoreRefreshToken(ctx, "h-1", stale))

		_, err = f.manager.Refresh(ctx, models.KindHospital, stale)
		assert.ErrorIs(t, err, ErrInvalidToken)
		assert.ErrorIs(t, err, token.ErrExpiredToken)
	})
}

func TestManager_Logout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	login, err := f.manager.Login(ctx, models.KindHospital, "h@x.com", testutils.TestPasswords.Valid)
	require.NoError(t, err)

	require.NoError(t, f.manager.Logout(ctx, models.KindHospital, "h-1"))
	assert.Empty(t, f.hospitals.stored("h-1"))

	_, err = f.manager.Refresh(ctx, models.KindHospital, login.RefreshToken)
	assert.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, f.manager.Logout(ctx, models.KindHospital, "h-1"))
	assert.Equal(t, 2, f.hospitals.clears)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Kind() models.Kind { return models.KindHospital }

func (m *mockStore) FindCredentialsByEmail(ctx context.Context, email string) (*models.Credentials, error) {
	args := m.Called(ctx, email)
	creds, _ := args.Get(0).(*models.Credentials)
	return creds, args.Error(1)
}

func (m *mockStore) FindCredentialsByID(ctx context.Context, id string) (*models.Credentials, error) {
	args := m.Called(ctx, id)
	creds, _ := args.Get(0).(*models.Credentials)
	return creds, args.Error(1)
}

func (m *mockStore) StoreRefreshToken(ctx context.Context, id, refreshToken string) error {
	return m.Called(ctx, id, refreshToken).Error(0)
}

func (m *mockStore) RotateRefreshToken(ctx context.Context, id, presented, next string) (bool, error) {
	args := m.Called(ctx, id, presented, next)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) ClearRefreshToken(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockStore) PublicProfile(ctx context.Context, id string) (any, error) {
	args := m.Called(ctx, id)
	return args.Get(0), args.Error(1)
}

func TestManager_StoreFailures(t *testing.T) {
	cfg := testutils.GetTestConfig()
	passwords := auth.NewService(&cfg.Auth, nil)
	tokens := token.NewService(&cfg.JWT, nil)
	ctx := context.Background()
	dbErr := errors.New("database is gone")

	hash, err := passwords.HashPassword(testutils.TestPasswords.Valid)
	require.NoError(t, err)

	t.Run("login cannot persist refresh token", func(t *testing.T) {
		store := &mockStore{}
		store.On("FindCredentialsByEmail", ctx, "h@x.com").
			Return(&models.Credentials{ID: "h-1", PasswordHash: hash}, nil)
		store.On("StoreRefreshToken", ctx, "h-1", mock.AnythingOfType("string")).Return(dbErr)

		manager := NewManager(tokens, passwords, nil, store)
		_, err := manager.Login(ctx, models.KindHospital, "h@x.com", testutils.TestPasswords.Valid)

		assert.ErrorIs(t, err, dbErr)
		store.AssertExpectations(t)
	})

	t.Run("rotation lost after match", func(t *testing.T) {
		presented, err := tokens.IssueRefreshToken("h-1")
		require.NoError(t, err)

		store := &mockStore{}
		store.On("FindCredentialsByID", ctx, "h-1").
			Return(&models.Credentials{ID: "h-1", RefreshToken: presented}, nil)
		store.On("RotateRefreshToken", ctx, "h-1", presented, mock.AnythingOfType("string")).Return(false, nil)

		manager := NewManager(tokens, passwords, nil, store)
		_, err = manager.Refresh(ctx, models.KindHospital, presented)

		assert.ErrorIs(t, err, ErrTokenReused)
		store.AssertExpectations(t)
	})

	t.Run("logout store error", func(t *testing.T) {
		store := &mockStore{}
		store.On("ClearRefreshToken", ctx, "h-1").Return(dbErr)

		manager := NewManager(tokens, passwords, nil, store)
		err := manager.Logout(ctx, models.KindHospital, "h-1")

		assert.ErrorIs(t, err, dbErr)
	})
}

func TestDescribeDevice(t *testing.T) {
	empty := DescribeDevice("")
	assert.Equal(t, "Unknown Browser", empty.Browser)
	assert.Equal(t, "Unknown", empty.Type)

	chrome := DescribeDevice("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	assert.Contains(t, chrome.Browser, "Chrome")
	assert.Contains(t, chrome.OS, "Windows")
	assert.Equal(t, "Desktop", chrome.Type)

	ctx := WithClient(context.Background(), ClientInfo{IP: "10.0.0.1", UserAgent: "curl/8.0"})
	client, ok := ClientFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "10.0.0.1", client.IP)
}
