package auth

import (
	"context"
	"fmt"
	"sync"

	"github.com/example/bookshop-client/internal/clients"
	"github.com/example/bookshop-client/internal/domain"
	"github.com/example/bookshop-client/internal/logging"
)

// Session manages the authenticated user for the current process: login and
// registration, profile restoration from a persisted token pair, and logout.
type Session struct {
	client *clients.Client

	mu   sync.Mutex
	user *domain.User
}

func NewSession(client *clients.Client) *Session {
	return &Session{client: client}
}

// RegisterInput is the payload for account creation.
type RegisterInput struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// profileRecord is the profile as serialized by the accounts API.
type profileRecord struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Username    string `json:"username"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Avatar      string `json:"avatar"`
	IsStaff     bool   `json:"is_staff"`
	IsSuperuser bool   `json:"is_superuser"`
}

func (r profileRecord) toUser() *domain.User {
	return &domain.User{
		ID:        r.ID,
		Email:     r.Email,
		Username:  r.Username,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Avatar:    r.Avatar,
		IsAdmin:   r.IsStaff || r.IsSuperuser,
	}
}

// Login exchanges credentials for a token pair, stores it, and loads the
// profile.
func (s *Session) Login(ctx context.Context, email, password string) (*domain.User, error) {
	var tokens struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	payload := map[string]string{"email": email, "password": password}
	if err := s.client.PostJSON(ctx, "/auth/login/", payload, &tokens); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	s.client.SetCredentials(tokens.Access, tokens.Refresh)

	user, err := s.fetchProfile(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch profile after login: %w", err)
	}
	logging.Info("auth", "login", map[string]any{"user_id": user.ID})
	return user, nil
}

// Register creates an account. The caller logs in separately afterwards.
func (s *Session) Register(ctx context.Context, in RegisterInput) error {
	if err := s.client.PostJSON(ctx, "/auth/register/", in, nil); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	return nil
}

// Restore rebuilds the session from a persisted token pair. A failed
// profile fetch wipes the stale pair.
func (s *Session) Restore(ctx context.Context) error {
	if s.client.Credentials().Access == "" {
		return nil
	}
	if _, err := s.fetchProfile(ctx); err != nil {
		logging.Warn("auth", "restore_failed", map[string]any{"err": err.Error()})
		s.Logout(ctx)
		return err
	}
	return nil
}

// Logout wipes the credential pair and the in-memory user. The server-side
// logout call is best-effort.
func (s *Session) Logout(ctx context.Context) {
	if err := s.client.PostJSON(ctx, "/auth/logout/", map[string]string{}, nil); err != nil {
		logging.Warn("auth", "logout_remote", map[string]any{"err": err.Error()})
	}
	s.client.ClearCredentials()
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()
}

// CurrentUser returns the logged-in user, or nil.
func (s *Session) CurrentUser() *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// IsAuthenticated reports whether a user is loaded.
func (s *Session) IsAuthenticated() bool {
	return s.CurrentUser() != nil
}

func (s *Session) fetchProfile(ctx context.Context) (*domain.User, error) {
	var rec profileRecord
	if err := s.client.GetJSON(ctx, "/auth/profile/", &rec); err != nil {
		return nil, err
	}
	user := rec.toUser()
	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
	return user, nil
}
