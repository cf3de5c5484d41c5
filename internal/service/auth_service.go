package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"evcircle/internal/cache"
	"evcircle/internal/middleware"
	"evcircle/internal/models"
	"evcircle/internal/storage"
	"evcircle/internal/validation"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

const (
	TokenIssuer   = "evcircle-api"
	TokenAudience = "evcircle-client"
	TokenTTL      = 24 * time.Hour
)

// AccountStore is what authentication needs from storage.
type AccountStore interface {
	storage.UserStore
	storage.ProfileStore
}

// AuthService registers users and issues and revokes access tokens.
type AuthService struct {
	store  AccountStore
	rdb    *redis.Client
	secret []byte
	now    func() time.Time
}

func NewAuthService(store AccountStore, rdb *redis.Client, secret string) *AuthService {
	return &AuthService{store: store, rdb: rdb, secret: []byte(secret), now: time.Now}
}

type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
}

// Session is the result of a successful register or login.
type Session struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	User      *models.User    `json:"user"`
	Profile   *models.Profile `json:"profile,omitempty"`
}

// Claims are the access token claims.
type Claims struct {
	jwt.RegisteredClaims
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	email := storage.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, models.NewValidationError("Email and password are required")
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, invalid(err)
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, invalid(err)
	}
	displayName := strings.TrimSpace(in.DisplayName)
	if displayName == "" {
		displayName = strings.SplitN(email, "@", 2)[0]
	}
	if err := validation.ValidateDisplayName(displayName); err != nil {
		return nil, invalid(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user, err := s.store.CreateUser(ctx, storage.NewUser{Email: email, PasswordHash: string(hash)})
	if err != nil {
		return nil, err
	}
	profile, err := s.store.CreateProfile(ctx, storage.NewProfile{UserID: user.ID, DisplayName: displayName})
	if err != nil {
		return nil, err
	}
	return s.session(user, profile)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.store.GetUserByEmail(ctx, storage.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	if cmpErr := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); cmpErr != nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	if user.Status == models.StatusBanned {
		return nil, models.NewForbiddenError("Account is banned")
	}
	profile, err := s.store.GetProfile(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return s.session(user, profile)
}

func (s *AuthService) session(user *models.User, profile *models.Profile) (*Session, error) {
	token, expires, err := s.IssueToken(user.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &Session{Token: token, ExpiresAt: expires, User: user, Profile: profile}, nil
}

// IssueToken signs an HS256 access token for userID.
func (s *AuthService) IssueToken(userID string) (string, time.Time, error) {
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("JWT secret not configured")
	}
	now := s.now()
	expires := now.Add(TokenTTL)
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    TokenIssuer,
		Audience:  jwt.ClaimStrings{TokenAudience},
		ExpiresAt: jwt.NewNumericDate(expires),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ID:        uuid.NewString(),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expires, nil
}

// ParseToken validates signature, issuer, audience, expiry and revocation.
func (s *AuthService) ParseToken(ctx context.Context, raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, models.NewUnauthorizedError("Invalid or expired token")
	}
	if claims.Subject == "" {
		return nil, models.NewUnauthorizedError("Invalid subject claim")
	}

	if claims.ID != "" && s.rdb != nil {
		revoked, err := s.rdb.Exists(ctx, cache.RevokedTokenKey(claims.ID)).Result()
		if err != nil {
			middleware.Logger.WarnContext(ctx, "revocation check failed", slog.String("error", err.Error()))
		} else if revoked > 0 {
			return nil, models.NewUnauthorizedError("Token has been revoked")
		}
	}
	return claims, nil
}

// Authenticate resolves a token to its user. Banned and deleted accounts
// are refused.
func (s *AuthService) Authenticate(ctx context.Context, raw string) (*models.User, *Claims, error) {
	claims, err := s.ParseToken(ctx, raw)
	if err != nil {
		return nil, nil, err
	}
	user, err := s.store.GetUser(ctx, claims.Subject)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, models.NewUnauthorizedError("Account no longer exists")
	}
	if user.Status == models.StatusBanned {
		return nil, nil, models.NewForbiddenError("Account is banned")
	}
	return user, claims, nil
}

// Logout revokes the token until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, claims *Claims) error {
	if s.rdb == nil || claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	ttl := claims.ExpiresAt.Time.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.rdb.Set(ctx, cache.RevokedTokenKey(claims.ID), "1", ttl).Err(); err != nil {
		return models.NewInternalError(fmt.Errorf("revoke token: %w", err))
	}
	return nil
}

// Me returns the caller's account and profile.
func (s *AuthService) Me(ctx context.Context, userID string) (*models.User, *models.Profile, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, models.NewNotFoundError("User", userID)
	}
	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return user, profile, nil
}
