package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"ticketdesk/backend/internal/audit"
	"ticketdesk/backend/internal/security"
	sessiondomain "ticketdesk/backend/internal/session/domain"
	userdomain "ticketdesk/backend/internal/user/domain"
)

// Sentinel errors for the auth service; handlers map them to HTTP status codes.
var (
	// ErrEmailAlreadyRegistered maps to 409 Conflict.
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	// ErrInvalidCredentials maps to 401. Unknown email and wrong password
	// return the same signal to avoid user enumeration.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidSession maps to 401. Missing user, foreign session, revoked or
	// expired session, and hash mismatch all collapse to this one signal so a
	// caller cannot distinguish which check failed.
	ErrInvalidSession = errors.New("invalid or expired session")
	// ErrInvalidInput maps to 400. Wrapped by validation failures.
	ErrInvalidInput = errors.New("invalid input")
)

// TokenPair is the issued credential pair returned by register, login, and refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	UserID       string
}

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
	Create(ctx context.Context, u *userdomain.User) error
}

// SessionRepo is the minimal session repository needed by the auth service.
type SessionRepo interface {
	GetByID(ctx context.Context, id string) (*sessiondomain.Session, error)
	Create(ctx context.Context, s *sessiondomain.Session) error
	SetRefreshHash(ctx context.Context, sessionID, hash string) error
	SwapRefreshHash(ctx context.Context, sessionID, expected, next string) (bool, error)
	Revoke(ctx context.Context, id string) error
}

// AuthService implements register, login, refresh rotation, and logout. It is
// the only writer of session rows.
type AuthService struct {
	userRepo    UserRepo
	sessionRepo SessionRepo
	hasher      *security.Hasher
	tokens      *security.TokenProvider
	refreshTTL  time.Duration
	auditLog    audit.EventLogger
}

// NewAuthService returns an AuthService with the given dependencies.
// auditLog may be nil to disable audit logging.
func NewAuthService(
	userRepo UserRepo,
	sessionRepo SessionRepo,
	hasher *security.Hasher,
	tokens *security.TokenProvider,
	refreshTTL time.Duration,
	auditLog audit.EventLogger,
) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		hasher:      hasher,
		tokens:      tokens,
		refreshTTL:  refreshTTL,
		auditLog:    auditLog,
	}
}

// Register creates a user with role REQUESTER, opens a session, and returns a
// token pair. Fails with ErrEmailAlreadyRegistered when the email is taken
// (case-sensitive exact match); no user or session is created in that case.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*TokenPair, error) {
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyRegistered
	}
	hashed, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	user := &userdomain.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: hashed,
		Role:         userdomain.RoleRequester,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := user.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	pair, err := s.openSession(ctx, user)
	if err != nil {
		return nil, err
	}
	s.logEvent(ctx, user.ID, "auth.register", "user")
	return pair, nil
}

// Login authenticates with email and password and opens a new session. Unknown
// email and failed password verification both return ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.logEvent(ctx, "", "auth.login.failed", "user")
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(user.PasswordHash, []byte(password)); err != nil {
		s.logEvent(ctx, user.ID, "auth.login.failed", "user")
		return nil, ErrInvalidCredentials
	}
	pair, err := s.openSession(ctx, user)
	if err != nil {
		return nil, err
	}
	s.logEvent(ctx, user.ID, "auth.login", "session")
	return pair, nil
}

// Refresh authenticates the presented refresh token against the session row
// and rotates it in one step. Every precondition failure returns
// ErrInvalidSession: the user must exist, the session must exist and belong to
// userID, it must not be revoked or expired, and the stored hash must be set
// and verify against the presented token. On success the stored hash is
// swapped to the new token's hash; the presented token becomes permanently
// unusable. Of two concurrent refreshes with the same token exactly one wins
// the swap, the other fails.
func (s *AuthService) Refresh(ctx context.Context, userID, sessionID, presented string) (*TokenPair, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidSession
	}
	sess, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil || sess.UserID != userID {
		return nil, ErrInvalidSession
	}
	if sess.RevokedAt != nil {
		return nil, ErrInvalidSession
	}
	if !sess.ExpiresAt.After(time.Now().UTC()) {
		return nil, ErrInvalidSession
	}
	if sess.RefreshTokenHash == "" {
		return nil, ErrInvalidSession
	}
	if err := s.hasher.Compare(sess.RefreshTokenHash, []byte(presented)); err != nil {
		return nil, ErrInvalidSession
	}

	accessToken, _, err := s.tokens.IssueAccess(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}
	refreshToken, _, err := s.tokens.IssueRefresh(user.ID, sessionID)
	if err != nil {
		return nil, err
	}
	newHash, err := s.hasher.Hash([]byte(refreshToken))
	if err != nil {
		return nil, err
	}
	swapped, err := s.sessionRepo.SwapRefreshHash(ctx, sessionID, sess.RefreshTokenHash, newHash)
	if err != nil {
		return nil, err
	}
	if !swapped {
		// A concurrent refresh rotated the hash first; this caller's token is stale.
		return nil, ErrInvalidSession
	}
	s.logEvent(ctx, user.ID, "auth.refresh", "session")
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken, UserID: user.ID}, nil
}

// Logout revokes the session. The session must exist and belong to userID,
// else ErrInvalidSession. Revoking an already revoked session still succeeds;
// there is no distinct "already revoked" signal.
func (s *AuthService) Logout(ctx context.Context, userID, sessionID string) error {
	sess, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess == nil || sess.UserID != userID {
		return ErrInvalidSession
	}
	if err := s.sessionRepo.Revoke(ctx, sessionID); err != nil {
		return err
	}
	s.logEvent(ctx, userID, "auth.logout", "session")
	return nil
}

// openSession creates a session row, issues a token pair, and persists the
// refresh token's hash. The session expiry is fixed here and never extended.
func (s *AuthService) openSession(ctx context.Context, user *userdomain.User) (*TokenPair, error) {
	now := time.Now().UTC()
	sess := &sessiondomain.Session{
		ID:               uuid.New().String(),
		UserID:           user.ID,
		RefreshTokenHash: "",
		ExpiresAt:        now.Add(s.refreshTTL),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.sessionRepo.Create(ctx, sess); err != nil {
		return nil, err
	}
	accessToken, _, err := s.tokens.IssueAccess(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}
	refreshToken, _, err := s.tokens.IssueRefresh(user.ID, sess.ID)
	if err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash([]byte(refreshToken))
	if err != nil {
		return nil, err
	}
	if err := s.sessionRepo.SetRefreshHash(ctx, sess.ID, hash); err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken, UserID: user.ID}, nil
}

func (s *AuthService) logEvent(ctx context.Context, userID, action, resource string) {
	if s.auditLog != nil {
		s.auditLog.LogEvent(ctx, userID, action, resource, "")
	}
}

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	const simpleEmail = `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	ok, _ := regexp.MatchString(simpleEmail, email)
	if !ok {
		return fmt.Errorf("%w: invalid email format", ErrInvalidInput)
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 6 {
		return fmt.Errorf("%w: password must be at least 6 characters", ErrInvalidInput)
	}
	return nil
}
