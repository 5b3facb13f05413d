package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt"
	"go.uber.org/zap"

	tokenIssuer "walletdesk/pkg/jwt"

	"walletdesk/internal/entity"
	"walletdesk/internal/repository"
	"walletdesk/internal/validate"
)

var ErrInvalidEmail error = errors.New("invalid email address")
var ErrSessionNotFound error = errors.New("session not found or expired")

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

//counterfeiter:generate -o fake -fake-name JWTIssuer . JWTIssuer
type JWTIssuer interface {
	Generate(data tokenIssuer.TokenInfo) *gojwt.Token
	Sign(token *gojwt.Token) (string, error)
	Validate(token string) (gojwt.MapClaims, error)
}

// Service logs dashboard users in and out. Wallet custody and signing live
// with the account-abstraction provider; all this service anchors is the user
// row, a stored bearer session, and a signed JWT referencing both.
type Service struct {
	logs       *zap.SugaredLogger
	users      *repository.UserRepository
	sessions   *repository.SessionRepository
	jwtIssuer  JWTIssuer
	sessionTTL time.Duration
}

func NewService(
	logs *zap.SugaredLogger,
	users *repository.UserRepository,
	sessions *repository.SessionRepository,
	jwtIssuer JWTIssuer,
	sessionTTL time.Duration,
) *Service {
	return &Service{
		logs:       logs,
		users:      users,
		sessions:   sessions,
		jwtIssuer:  jwtIssuer,
		sessionTTL: sessionTTL,
	}
}

// LoginResult is what a successful login hands back to the route layer.
type LoginResult struct {
	User        entity.User
	Session     entity.Session
	SignedToken string
}

// Login find-or-creates the user for the email, stamps lastLogin, stores a
// fresh bearer session and issues a JWT carrying the user id and session
// token.
func (s *Service) Login(ctx context.Context, email string) (LoginResult, error) {
	if err := validate.Email(email); err != nil {
		return LoginResult{}, fmt.Errorf("%w: %s", ErrInvalidEmail, email)
	}

	user, found, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return LoginResult{}, fmt.Errorf("find user by email: %w", err)
	}
	if !found {
		user, err = s.users.Create(ctx, entity.NewUser{Email: email})
		if err != nil {
			return LoginResult{}, fmt.Errorf("create user: %w", err)
		}
		s.logs.Infow("user created", "userId", user.ID)
	}

	user, _, err = s.users.RecordLogin(ctx, user.ID)
	if err != nil {
		return LoginResult{}, fmt.Errorf("record login: %w", err)
	}

	bearer, err := NewSessionToken()
	if err != nil {
		return LoginResult{}, fmt.Errorf("generate session token: %w", err)
	}

	session, err := s.sessions.Create(ctx, entity.NewSession{
		UserID:    user.ID,
		Token:     bearer,
		ExpiresAt: repository.TimeNow().UTC().Add(s.sessionTTL),
	})
	if err != nil {
		return LoginResult{}, fmt.Errorf("create session: %w", err)
	}

	token := s.jwtIssuer.Generate(tokenIssuer.TokenInfo{
		Email:      user.Email,
		Subject:    user.ID,
		Session:    session.Token,
		Expiration: s.sessionTTL,
	})
	signed, err := s.jwtIssuer.Sign(token)
	if err != nil {
		return LoginResult{}, fmt.Errorf("signing token: %w", err)
	}

	s.logs.Infow("user logged in", "userId", user.ID, "sessionId", session.ID)
	return LoginResult{User: user, Session: session, SignedToken: signed}, nil
}

// Authenticate validates the signed JWT and requires its backing session to
// still be live. An expired backing session is evicted by the lookup.
func (s *Service) Authenticate(ctx context.Context, signed string) (entity.Session, error) {
	claims, err := s.jwtIssuer.Validate(signed)
	if err != nil {
		return entity.Session{}, fmt.Errorf("validate jwt token: %w", err)
	}

	bearer, ok := claims["sid"].(string)
	if !ok {
		return entity.Session{}, ErrSessionNotFound
	}

	session, found, err := s.sessions.FindValidByToken(ctx, bearer)
	if err != nil {
		return entity.Session{}, fmt.Errorf("find session by token: %w", err)
	}
	if !found {
		return entity.Session{}, ErrSessionNotFound
	}
	return session, nil
}

// Logout revokes the bearer session, reporting whether one existed.
func (s *Service) Logout(ctx context.Context, bearer string) (bool, error) {
	return s.sessions.RevokeSession(ctx, bearer)
}

// Refresh extends the bearer session by the configured TTL via
// delete-then-recreate.
func (s *Service) Refresh(ctx context.Context, bearer string) (entity.Session, error) {
	session, found, err := s.sessions.ExtendSession(ctx, bearer, repository.TimeNow().UTC().Add(s.sessionTTL))
	if err != nil {
		return entity.Session{}, fmt.Errorf("extend session: %w", err)
	}
	if !found {
		return entity.Session{}, ErrSessionNotFound
	}
	return session, nil
}

// NewSessionToken mints an opaque bearer token: 32 random bytes, hex encoded.
func NewSessionToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
