// Package auth manages local user accounts and the active login session.
// Accounts live in users.toml and the current login in session.toml, both
// under the .crates/ directory. Passwords are stored as bcrypt hashes.
package auth

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"golang.org/x/crypto/bcrypt"

	"github.com/papercomputeco/crates/pkg/dotdir"
)

const (
	usersFile   = "users.toml"
	sessionFile = "session.toml"

	currentVersion = 0
)

var (
	// ErrUserExists is returned by Register when the username is taken.
	ErrUserExists = errors.New("user already exists")

	// ErrInvalidCredentials is returned by Login for both an unknown
	// username and a wrong password, so callers cannot tell which.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrUnknownUser is returned when an operation targets a username
	// that was never registered.
	ErrUnknownUser = errors.New("unknown user")
)

// Manager manages reading and writing users.toml and session.toml in the
// .crates/ directory.
type Manager struct {
	ddm         *dotdir.Manager
	usersPath   string
	sessionPath string
}

// NewManager creates a new auth Manager. If override is non-empty it is
// used as the .crates/ directory; otherwise the standard dotdir resolution
// applies. When no .crates/ directory is found, one is created at ~/.crates/.
func NewManager(override string) (*Manager, error) {
	mgr := &Manager{}
	mgr.ddm = dotdir.NewManager()

	target, err := mgr.ddm.Target(override)
	if err != nil {
		return nil, err
	}

	if target == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home dir: %w", err)
		}
		target = filepath.Join(home, ".crates")
		if err := os.MkdirAll(target, 0o755); err != nil {
			return nil, fmt.Errorf("creating crates dir: %w", err)
		}
	}

	mgr.usersPath = filepath.Join(target, usersFile)
	mgr.sessionPath = filepath.Join(target, sessionFile)

	return mgr, nil
}

// Register creates a new account with a bcrypt-hashed password.
// Returns ErrUserExists if the username is already registered.
func (m *Manager) Register(username, password string) error {
	if username == "" {
		return errors.New("username is required")
	}
	if password == "" {
		return errors.New("password is required")
	}

	users, err := m.loadUsers()
	if err != nil {
		return err
	}

	if _, ok := users.Users[username]; ok {
		return fmt.Errorf("%w: %s", ErrUserExists, username)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	users.Users[username] = UserRecord{PasswordHash: string(hash)}

	return m.saveUsers(users)
}

// Login verifies the password against the stored hash and records the
// username as the active session. An unknown username and a wrong password
// both return ErrInvalidCredentials.
func (m *Manager) Login(username, password string) error {
	users, err := m.loadUsers()
	if err != nil {
		return err
	}

	rec, ok := users.Users[username]
	if !ok {
		return ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}

	return m.saveSession(&Session{Version: currentVersion, Username: username})
}

// Logout clears the active session. Logging out when nobody is logged in
// is a no-op.
func (m *Manager) Logout() error {
	return m.saveSession(&Session{Version: currentVersion})
}

// CurrentUser returns the username of the active session, or an empty
// string when nobody is logged in.
func (m *Manager) CurrentUser() (string, error) {
	session, err := m.loadSession()
	if err != nil {
		return "", err
	}

	return session.Username, nil
}

// SetToken stores a GitHub token for a registered user.
// Returns ErrUnknownUser if the username was never registered.
func (m *Manager) SetToken(username, token string) error {
	users, err := m.loadUsers()
	if err != nil {
		return err
	}

	rec, ok := users.Users[username]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownUser, username)
	}

	rec.GitHubToken = token
	users.Users[username] = rec

	return m.saveUsers(users)
}

// Token returns the stored GitHub token for a user.
// Returns an empty string if the user is unknown or has no token.
func (m *Manager) Token(username string) (string, error) {
	users, err := m.loadUsers()
	if err != nil {
		return "", err
	}

	return users.Users[username].GitHubToken, nil
}

// GetTarget returns the resolved path to the users file.
func (m *Manager) GetTarget() string {
	return m.usersPath
}

// loadUsers reads users.toml, returning an empty Users if the file does
// not exist.
func (m *Manager) loadUsers() (*Users, error) {
	data, err := os.ReadFile(m.usersPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Users{
				Version: currentVersion,
				Users:   make(map[string]UserRecord),
			}, nil
		}
		return nil, fmt.Errorf("reading users: %w", err)
	}

	users := &Users{}
	if err := toml.Unmarshal(data, users); err != nil {
		return nil, fmt.Errorf("parsing users: %w", err)
	}

	if users.Users == nil {
		users.Users = make(map[string]UserRecord)
	}

	return users, nil
}

// saveUsers writes users.toml with 0600 permissions.
func (m *Manager) saveUsers(users *Users) error {
	if users == nil {
		return errors.New("cannot save nil users")
	}

	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(users); err != nil {
		return fmt.Errorf("encoding users: %w", err)
	}

	if err := os.WriteFile(m.usersPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing users: %w", err)
	}

	return nil
}

// loadSession reads session.toml, returning an empty Session if the file
// does not exist.
func (m *Manager) loadSession() (*Session, error) {
	data, err := os.ReadFile(m.sessionPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Session{Version: currentVersion}, nil
		}
		return nil, fmt.Errorf("reading session: %w", err)
	}

	session := &Session{}
	if err := toml.Unmarshal(data, session); err != nil {
		return nil, fmt.Errorf("parsing session: %w", err)
	}

	return session, nil
}

// saveSession writes session.toml with 0600 permissions.
func (m *Manager) saveSession(session *Session) error {
	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(session); err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	if err := os.WriteFile(m.sessionPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}

	return nil
}
