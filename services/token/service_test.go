package token

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tech-arch1tect/medreg/models"
	"github.com/tech-arch1tect/medreg/testutils"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	cfg := testutils.GetTestConfig()
	return NewService(&cfg.JWT, nil)
}

func TestService_IssueAccessToken(t *testing.T) {
	service := newTestService(t)

	tokenString, err := service.IssueAccessToken("hospital-1", models.KindHospital)
	require.NoError(t, err)
	assert.NotEmpty(t, tokenString)

	claims, err := service.VerifyAccessToken(tokenString)
	require.NoError(t, err)
	assert.Equal(t, "hospital-1", claims.PrincipalID)
	assert.Equal(t, models.KindHospital, claims.Kind)
	assert.Equal(t, "medreg-test", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), claims.ExpiresAt.Time, 2*time.Second)
}

func TestService_IssueRefreshToken(t *testing.T) {
	service := newTestService(t)

	tokenString, err := service.IssueRefreshToken("patient-1")
	require.NoError(t, err)

	claims, err := service.VerifyRefreshToken(tokenString)
	require.NoError(t, err)
	assert.Equal(t, "patient-1", claims.PrincipalID)
	assert.Empty(t, claims.Kind)
	assert.WithinDuration(t, time.Now().Add(240*time.Hour), claims.ExpiresAt.Time, 2*time.Second)
}

func TestService_TokensAreUnique(t *testing.T) {
	service := newTestService(t)

	first, err := service.IssueRefreshToken("patient-1")
	require.NoError(t, err)
	second, err := service.IssueRefreshToken("patient-1")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestService_SecretsAreIndependent(t *testing.T) {
	service := newTestService(t)

	access, err := service.IssueAccessToken("hospital-1", models.KindHospital)
	require.NoError(t, err)
	refresh, err := service.IssueRefreshToken("hospital-1")
	require.NoError(t, err)

	_, err = service.VerifyRefreshToken(access)
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, err = service.VerifyAccessToken(refresh)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestService_MissingSecret(t *testing.T) {
	cfg := testutils.GetTestConfig()
	cfg.JWT.AccessSecret = ""
	cfg.JWT.RefreshSecret = ""
	service := NewService(&cfg.JWT, nil)

	_, err := service.IssueAccessToken("hospital-1", models.KindHospital)
	assert.ErrorIs(t, err, ErrSigningKeyMissing)

	_, err = service.IssueRefreshToken("hospital-1")
	assert.ErrorIs(t, err, ErrSigningKeyMissing)

	_, err = service.VerifyAccessToken("anything")
	assert.ErrorIs(t, err, ErrSigningKeyMissing)
}

func TestService_Expiry(t *testing.T) {
	t.Run("zero ttl is expired immediately", func(t *testing.T) {
		cfg := testutils.GetTestConfig()
		cfg.JWT.AccessExpiry = 0
		service := NewService(&cfg.JWT, nil)

		tokenString, err := service.IssueAccessToken("hospital-1", models.KindHospital)
		require.NoError(t, err)

		_, err = service.VerifyAccessToken(tokenString)
		assert.ErrorIs(t, err, ErrExpiredToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("clock moved past expiry", func(t *testing.T) {
		service := newTestService(t)
		issuedAt := time.Now()
		service.WithClock(func() time.Time { return issuedAt })

		tokenString, err := service.IssueAccessToken("hospital-1", models.KindHospital)
		require.NoError(t, err)

		service.WithClock(func() time.Time { return issuedAt.Add(14 * time.Minute) })
		_, err = service.VerifyAccessToken(tokenString)
		require.NoError(t, err)

		service.WithClock(func() time.Time { return issuedAt.Add(16 * time.Minute) })
		_, err = service.VerifyAccessToken(tokenString)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})
}

func TestService_Verify(t *testing.T) {
	service := newTestService(t)
	cfg := testutils.GetTestConfig()

	valid, err := service.IssueAccessToken("hospital-1", models.KindHospital)
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		PrincipalID: "hospital-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "medreg-test",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	hs512Token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		PrincipalID: "hospital-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "medreg-test",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(cfg.JWT.AccessSecret))
	require.NoError(t, err)

	wrongIssuer, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		PrincipalID: "hospital-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(cfg.JWT.AccessSecret))
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		PrincipalID: "hospital-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer: "medreg-test",
		},
	}).SignedString([]byte(cfg.JWT.AccessSecret))
	require.NoError(t, err)

	parts := strings.Split(valid, ".")
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{name: "malformed", token: "not-a-token", wantErr: ErrMalformedToken},
		{name: "empty", token: "", wantErr: ErrMalformedToken},
		{name: "tampered signature", token: tampered, wantErr: ErrInvalidSignature},
		{name: "alg none", token: noneToken, wantErr: ErrInvalidToken},
		{name: "other hmac algorithm", token: hs512Token, wantErr: ErrInvalidToken},
		{name: "wrong issuer", token: wrongIssuer, wantErr: ErrInvalidToken},
		{name: "missing expiry", token: noExpiry, wantErr: ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := service.VerifyAccessToken(tt.token)
			assert.Nil(t, claims)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
