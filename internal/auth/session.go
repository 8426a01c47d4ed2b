package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gofinances/internal/core"
	applog "gofinances/internal/log"
	"gofinances/internal/storage"
)

var (
	ErrSignInFailed = errors.New("sign in failed")
	ErrNotSignedIn  = errors.New("not signed in")
)

// Session holds the signed-in user and mirrors it to storage so it survives
// restarts.
type Session struct {
	users  *storage.UserRepository
	google *GoogleProvider
	logger *applog.Logger

	mu      sync.RWMutex
	current core.User
}

// NewSession wires a session. google may be nil when Google sign-in is not
// configured.
func NewSession(users *storage.UserRepository, google *GoogleProvider, logger *applog.Logger) *Session {
	return &Session{
		users:  users,
		google: google,
		logger: logger.WithComponent(applog.ComponentAuth),
	}
}

// Google returns the configured provider, or nil.
func (s *Session) Google() *GoogleProvider {
	return s.google
}

// Load restores the persisted user, if any. A missing user is not an error.
func (s *Session) Load(ctx context.Context) (core.User, error) {
	u, err := s.users.Get(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return core.User{}, nil
	}
	if err != nil {
		return core.User{}, fmt.Errorf("load user: %w", err)
	}

	s.mu.Lock()
	s.current = u
	s.mu.Unlock()
	return u, nil
}

// Current returns the signed-in user or ErrNotSignedIn.
func (s *Session) Current() (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current.IsZero() {
		return core.User{}, ErrNotSignedIn
	}
	return s.current, nil
}

// SignInWithGoogle completes the authorization-code flow.
func (s *Session) SignInWithGoogle(ctx context.Context, code string) (core.User, error) {
	if s.google == nil {
		return core.User{}, fmt.Errorf("%w: google sign-in not configured", ErrSignInFailed)
	}
	u, err := s.google.Exchange(ctx, code)
	if err != nil {
		return s.fail(ctx, "google", err)
	}
	return s.signIn(ctx, "google", u)
}

// SignInWithGoogleToken signs in with an access token the client obtained
// itself.
func (s *Session) SignInWithGoogleToken(ctx context.Context, accessToken string) (core.User, error) {
	if s.google == nil {
		return core.User{}, fmt.Errorf("%w: google sign-in not configured", ErrSignInFailed)
	}
	u, err := s.google.ProfileFromToken(ctx, accessToken)
	if err != nil {
		return s.fail(ctx, "google", err)
	}
	return s.signIn(ctx, "google", u)
}

func (s *Session) SignInWithApple(ctx context.Context, cred AppleCredential) (core.User, error) {
	u, err := AppleUser(cred)
	if err != nil {
		return s.fail(ctx, "apple", err)
	}
	return s.signIn(ctx, "apple", u)
}

// SignOut forgets the user in memory and in storage.
func (s *Session) SignOut(ctx context.Context) error {
	s.mu.Lock()
	s.current = core.User{}
	s.mu.Unlock()

	err := s.users.Remove(ctx)
	s.logger.LogOp(ctx, applog.OpSignOut, err)
	return err
}

func (s *Session) signIn(ctx context.Context, provider string, u core.User) (core.User, error) {
	if err := s.users.Save(ctx, u); err != nil {
		return s.fail(ctx, provider, err)
	}
	s.mu.Lock()
	s.current = u
	s.mu.Unlock()

	s.logger.LogOp(ctx, applog.OpSignIn, nil, applog.FieldProvider, provider, applog.FieldUserID, u.ID)
	return u, nil
}

func (s *Session) fail(ctx context.Context, provider string, err error) (core.User, error) {
	s.logger.LogOp(ctx, applog.OpSignIn, err, applog.FieldProvider, provider)
	return core.User{}, fmt.Errorf("%w: %v", ErrSignInFailed, err)
}
