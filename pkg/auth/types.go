package auth

// Users represents the registered accounts stored in users.toml.
type Users struct {
	Version int                   `toml:"version"`
	Users   map[string]UserRecord `toml:"users"`
}

// UserRecord holds the password hash and optional GitHub token for one account.
type UserRecord struct {
	PasswordHash string `toml:"password_hash"`
	GitHubToken  string `toml:"github_token,omitempty"`
}

// Session represents the active login stored in session.toml.
// An empty Username means nobody is logged in.
type Session struct {
	Version  int    `toml:"version"`
	Username string `toml:"username,omitempty"`
}
