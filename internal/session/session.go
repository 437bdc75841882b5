// Package session owns the signed-in identity: token, user id, display name
// and the workspace role, persisted in the session KV store.
//
// The role is resolved once per sign-in with a single user-details lookup.
// Until that lookup completes, and whenever it fails, the effective role is
// pending.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"tasklync-cli/internal/api"
	"tasklync-cli/internal/debuglog"
	"tasklync-cli/internal/model"
	"tasklync-cli/internal/store"
)

var (
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrPasswordResetRequired = errors.New("password must be replaced before continuing")
	ErrUnauthenticated       = api.ErrUnauthenticated
	ErrPasswordTooShort      = errors.New("Password must be at least 6 chars")
	ErrPasswordMismatch      = errors.New("Passwords do not match")
	ErrMissingUserID         = errors.New("Missing user ID")
)

const (
	TokenTTL       = 30 * 24 * time.Hour
	LoginRoleTTL   = 30 * 24 * time.Hour
	SignupRoleTTL  = 7 * 24 * time.Hour
	MinPasswordLen = 6
)

// Route is where the client goes after a session transition.
type Route string

const (
	RouteLogin           Route = "login"
	RouteSelectWorkspace Route = "select-workspace"
	RouteSetPassword     Route = "set-password"
	RouteHome            Route = "home"
)

// KV is the subset of the session store the manager needs.
type KV interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, bool, error)
	Delete(ctx context.Context, keys ...string) error
}

type Manager struct {
	backend api.Backend
	kv      KV
	log     *debuglog.Logger
	cur     model.Session
}

func NewManager(backend api.Backend, kv KV, log *debuglog.Logger) *Manager {
	return &Manager{backend: backend, kv: kv, log: log}
}

// Current returns a copy of the session.
func (m *Manager) Current() model.Session { return m.cur }

// Role is the capability role to gate on: pending until resolved.
func (m *Manager) Role() model.Role { return m.cur.EffectiveRole() }

// Token implements oauth2.TokenSource. It refuses while signed out or while a
// password replacement is pending.
func (m *Manager) Token() (*oauth2.Token, error) {
	if err := m.Require(); err != nil {
		return nil, err
	}
	return &oauth2.Token{AccessToken: m.cur.Token, TokenType: "Bearer"}, nil
}

var _ oauth2.TokenSource = (*Manager)(nil)

// Require reports whether protected views and bearer calls are allowed.
func (m *Manager) Require() error {
	if !m.cur.Authenticated() {
		return ErrUnauthenticated
	}
	if m.cur.NeedsPasswordReset {
		return ErrPasswordResetRequired
	}
	return nil
}

// Restore loads a previously persisted session. A stored role counts as
// resolved; otherwise the role is looked up once.
func (m *Manager) Restore(ctx context.Context) error {
	var s model.Session
	var err error
	if s.Token, _, err = m.kv.Get(ctx, store.KeyToken); err != nil {
		return err
	}
	if s.UserID, _, err = m.kv.Get(ctx, store.KeyUserID); err != nil {
		return err
	}
	if s.UserName, _, err = m.kv.Get(ctx, store.KeyUserName); err != nil {
		return err
	}
	role, ok, err := m.kv.Get(ctx, store.KeyRole)
	if err != nil {
		return err
	}
	if ok {
		s.Role = model.Role(role)
		s.RoleResolved = true
	}
	if _, reset, err := m.kv.Get(ctx, store.KeyResetPending); err != nil {
		return err
	} else if reset {
		s.NeedsPasswordReset = true
	}
	m.cur = s
	if s.Authenticated() && !s.RoleResolved && s.UserID != "" {
		m.resolveRole(ctx, LoginRoleTTL)
	}
	m.log.Printf("session restore user=%s role=%s auth=%t", s.UserID, m.cur.EffectiveRole(), s.Authenticated())
	return nil
}

// Login signs in and decides where to go next. A failed role lookup is not an
// error: the session continues as pending.
func (m *Manager) Login(ctx context.Context, email, password string) (Route, error) {
	res, err := m.backend.Login(ctx, strings.TrimSpace(email), password)
	if err != nil {
		if code := api.StatusCode(err); code == 400 || code == 401 || code == 404 {
			return "", fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
		}
		return "", err
	}
	if err := m.begin(ctx, res); err != nil {
		return "", err
	}
	m.resolveRole(ctx, LoginRoleTTL)
	m.log.Printf("login user=%s role=%s reset=%t", m.cur.UserID, m.cur.EffectiveRole(), m.cur.NeedsPasswordReset)
	return m.next(), nil
}

// Signup creates an account and always routes to workspace selection, unless
// the backend demands a password replacement.
func (m *Manager) Signup(ctx context.Context, name, email, password string) (Route, error) {
	res, err := m.backend.Signup(ctx, strings.TrimSpace(name), strings.TrimSpace(email), password)
	if err != nil {
		return "", err
	}
	if res.User.Name == "" {
		res.User.Name = strings.TrimSpace(name)
	}
	if err := m.begin(ctx, res); err != nil {
		return "", err
	}
	m.resolveRole(ctx, SignupRoleTTL)
	m.log.Printf("signup user=%s", m.cur.UserID)
	if m.cur.NeedsPasswordReset {
		return RouteSetPassword, nil
	}
	return RouteSelectWorkspace, nil
}

func (m *Manager) begin(ctx context.Context, res api.AuthResult) error {
	if strings.TrimSpace(res.Token) == "" {
		return fmt.Errorf("sign in: backend returned no token")
	}
	m.cur = model.Session{
		Token:              res.Token,
		UserID:             res.User.ID,
		UserName:           res.User.Name,
		Email:              res.User.Email,
		NeedsPasswordReset: res.User.NeedsPasswordReset,
	}
	if err := m.kv.Set(ctx, store.KeyToken, res.Token, TokenTTL); err != nil {
		return err
	}
	if err := m.kv.Set(ctx, store.KeyUserID, res.User.ID, 0); err != nil {
		return err
	}
	if err := m.kv.Set(ctx, store.KeyUserName, res.User.Name, 0); err != nil {
		return err
	}
	if res.User.NeedsPasswordReset {
		return m.kv.Set(ctx, store.KeyResetPending, "1", TokenTTL)
	}
	return m.kv.Delete(ctx, store.KeyResetPending)
}

// resolveRole performs the one user-details lookup for this sign-in.
func (m *Manager) resolveRole(ctx context.Context, ttl time.Duration) {
	role := model.RolePending
	if u, err := m.backend.UserDetails(ctx, m.cur.UserID); err != nil {
		m.log.Printf("role lookup failed user=%s err=%v", m.cur.UserID, err)
	} else {
		switch u.Role {
		case model.RoleAdmin, model.RoleMember:
			role = u.Role
		}
		if m.cur.UserName == "" {
			m.cur.UserName = u.Name
		}
	}
	m.cur.Role = role
	m.cur.RoleResolved = true
	if err := m.kv.Set(ctx, store.KeyRole, string(role), ttl); err != nil {
		m.log.Printf("persist role: %v", err)
	}
}

func (m *Manager) next() Route {
	switch {
	case !m.cur.Authenticated():
		return RouteLogin
	case m.cur.NeedsPasswordReset:
		return RouteSetPassword
	case m.cur.EffectiveRole() == model.RolePending:
		return RouteSelectWorkspace
	default:
		return RouteHome
	}
}

// Next is the route for the current session state.
func (m *Manager) Next() Route { return m.next() }

// SetRole records the outcome of workspace selection (create -> admin,
// join -> member).
func (m *Manager) SetRole(ctx context.Context, role model.Role) error {
	m.cur.Role = role
	m.cur.RoleResolved = true
	return m.kv.Set(ctx, store.KeyRole, string(role), LoginRoleTTL)
}

// ValidatePassword applies the client-side checks done before a password
// update request.
func ValidatePassword(userID, password, confirm string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrMissingUserID
	}
	if len(password) < MinPasswordLen {
		return ErrPasswordTooShort
	}
	if password != confirm {
		return ErrPasswordMismatch
	}
	return nil
}

// SetPassword replaces the password of userID (the current user when empty).
// It lifts the reset gate; the user signs in again with the new password.
func (m *Manager) SetPassword(ctx context.Context, userID, password, confirm string) (Route, error) {
	if strings.TrimSpace(userID) == "" {
		userID = m.cur.UserID
	}
	if err := ValidatePassword(userID, password, confirm); err != nil {
		return "", err
	}
	if err := m.backend.SetPassword(ctx, userID, password); err != nil {
		return "", err
	}
	if userID == m.cur.UserID {
		m.cur.NeedsPasswordReset = false
		if err := m.kv.Delete(ctx, store.KeyResetPending); err != nil {
			return "", err
		}
	}
	m.log.Printf("password set user=%s", userID)
	return RouteLogin, nil
}

// AcceptInvite accepts an invitation and remembers the invited user's id so
// the following set-password step can use it.
func (m *Manager) AcceptInvite(ctx context.Context, token string) (api.InviteAcceptance, error) {
	acc, err := m.backend.AcceptInvite(ctx, strings.TrimSpace(token))
	if err != nil {
		return api.InviteAcceptance{}, err
	}
	if acc.UserID != "" {
		if err := m.kv.Set(ctx, store.KeyUserID, acc.UserID, 0); err != nil {
			return api.InviteAcceptance{}, err
		}
		if !m.cur.Authenticated() {
			m.cur.UserID = acc.UserID
		}
	}
	return acc, nil
}

// Logout clears the token only. Cached data stays but every protected read
// now fails with ErrUnauthenticated.
func (m *Manager) Logout(ctx context.Context) error {
	m.cur.Token = ""
	m.log.Printf("logout user=%s", m.cur.UserID)
	return m.kv.Delete(ctx, store.KeyToken)
}
