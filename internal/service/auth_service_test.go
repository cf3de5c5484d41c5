package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"evcircle/internal/cache"
	"evcircle/internal/models"
	"evcircle/internal/storage"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goodPassword = "SecurePass12!@"

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, err := f.svc.Auth.Register(ctx, RegisterInput{Email: "  Ada@Example.com ", Password: goodPassword, DisplayName: "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", session.User.Email)
	assert.Equal(t, models.RoleUser, session.User.Role)
	require.NotNil(t, session.Profile)
	assert.Equal(t, "Ada", session.Profile.DisplayName)
	assert.NotEqual(t, goodPassword, session.User.PasswordHash)

	login, err := f.svc.Auth.Login(ctx, "ADA@example.com", goodPassword)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, login.User.ID)

	_, err = f.svc.Auth.Login(ctx, "ada@example.com", "WrongPass12!@")
	assertCode(t, err, models.CodeUnauthorized)
	_, err = f.svc.Auth.Login(ctx, "nobody@example.com", goodPassword)
	assertCode(t, err, models.CodeUnauthorized)
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   RegisterInput
	}{
		{"missing email", RegisterInput{Password: goodPassword}},
		{"bad email", RegisterInput{Email: "nope", Password: goodPassword}},
		{"weak password", RegisterInput{Email: "a@b.io", Password: "short"}},
		{"long display name", RegisterInput{Email: "a@b.io", Password: goodPassword, DisplayName: strings.Repeat("x", 81)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Auth.Register(ctx, tt.in)
			assertCode(t, err, models.CodeValidation)
		})
	}

	_, err := f.svc.Auth.Register(ctx, RegisterInput{Email: "dup@b.io", Password: goodPassword})
	require.NoError(t, err)
	_, err = f.svc.Auth.Register(ctx, RegisterInput{Email: "DUP@b.io", Password: goodPassword})
	assertCode(t, err, models.CodeValidation)
}

func TestRegisterDefaultsDisplayName(t *testing.T) {
	f := newFixture(t)
	session, err := f.svc.Auth.Register(context.Background(), RegisterInput{Email: "leaf.driver@b.io", Password: goodPassword})
	require.NoError(t, err)
	assert.Equal(t, "leaf.driver", session.Profile.DisplayName)
}

func TestBannedUserCannotLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, err := f.svc.Auth.Register(ctx, RegisterInput{Email: "ban@b.io", Password: goodPassword})
	require.NoError(t, err)
	banned := models.StatusBanned
	_, err = f.store.UpdateUser(ctx, session.User.ID, storage.UserPatch{Status: &banned})
	require.NoError(t, err)

	_, err = f.svc.Auth.Login(ctx, "ban@b.io", goodPassword)
	assertCode(t, err, models.CodeForbidden)

	_, _, err = f.svc.Auth.Authenticate(ctx, session.Token)
	assertCode(t, err, models.CodeForbidden)
}

func TestTokenClaims(t *testing.T) {
	f := newFixture(t)
	token, expires, err := f.svc.Auth.IssueToken("user-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(TokenTTL), expires, 5*time.Second)

	claims, err := f.svc.Auth.ParseToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, TokenIssuer, claims.Issuer)
	assert.Equal(t, jwt.ClaimStrings{TokenAudience}, claims.Audience)
	assert.NotEmpty(t, claims.ID)
}

func TestParseTokenRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sign := func(claims jwt.Claims, secret string) string {
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return raw
	}
	valid := func() jwt.RegisteredClaims {
		return jwt.RegisteredClaims{
			Subject:   "u1",
			Issuer:    TokenIssuer,
			Audience:  jwt.ClaimStrings{TokenAudience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			ID:        "jti-1",
		}
	}

	wrongIssuer := valid()
	wrongIssuer.Issuer = "someone-else"
	wrongAudience := valid()
	wrongAudience.Audience = jwt.ClaimStrings{"other-client"}
	expired := valid()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	noExpiry := valid()
	noExpiry.ExpiresAt = nil

	tests := map[string]string{
		"garbage":        "not-a-token",
		"wrong secret":   sign(valid(), "another-secret"),
		"wrong issuer":   sign(wrongIssuer, testSecret),
		"wrong audience": sign(wrongAudience, testSecret),
		"expired":        sign(expired, testSecret),
		"no expiry":      sign(noExpiry, testSecret),
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.Auth.ParseToken(ctx, raw)
			assertCode(t, err, models.CodeUnauthorized)
		})
	}

	_, err := f.svc.Auth.ParseToken(ctx, sign(valid(), testSecret))
	assert.NoError(t, err)
}

func TestLogoutRevokesToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, err := f.svc.Auth.Register(ctx, RegisterInput{Email: "out@b.io", Password: goodPassword})
	require.NoError(t, err)

	user, claims, err := f.svc.Auth.Authenticate(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, user.ID)

	require.NoError(t, f.svc.Auth.Logout(ctx, claims))
	key := cache.RevokedTokenKey(claims.ID)
	assert.True(t, f.mr.Exists(key))
	assert.InDelta(t, TokenTTL.Seconds(), f.mr.TTL(key).Seconds(), 5)

	_, _, err = f.svc.Auth.Authenticate(ctx, session.Token)
	assertCode(t, err, models.CodeUnauthorized)
}

func TestAuthenticateDeletedAccount(t *testing.T) {
	f := newFixture(t)
	token, _, err := f.svc.Auth.IssueToken("missing-user")
	require.NoError(t, err)
	_, _, err = f.svc.Auth.Authenticate(context.Background(), token)
	assertCode(t, err, models.CodeUnauthorized)
}

func TestIssueTokenWithoutSecret(t *testing.T) {
	auth := NewAuthService(nil, nil, "")
	_, _, err := auth.IssueToken("u1")
	assert.Error(t, err)
}
